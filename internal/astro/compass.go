package astro

import (
	"math"
	"strings"
)

// Direction is one of the 8 compass sectors, each 45° wide and centered on
// its cardinal or intercardinal bearing. The zero value is NoDirection.
type Direction int

const (
	// NoDirection marks a missing bearing (e.g. an object never in darkness)
	// or, in a filter, any direction.
	NoDirection Direction = iota
	North
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

var directionLabels = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// String returns the short compass label.
func (d Direction) String() string {
	if d < North || d > NorthWest {
		return "-"
	}
	return directionLabels[d-North]
}

// CompassDirection buckets an azimuth (0° = N, clockwise) into its sector.
func CompassDirection(azDeg float64) Direction {
	az := normalizeAngle360(azDeg)
	return North + Direction(int(math.Floor((az+22.5)/45))%8)
}

// ParseDirection parses a compass label such as "s" or "NE".
func ParseDirection(s string) (Direction, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, label := range directionLabels {
		if label == s {
			return North + Direction(i), true
		}
	}
	return NoDirection, false
}

// Includes reports whether the sector label of d contains the label of want.
// A SouthEast bearing includes South, East and SouthEast; South includes only South.
func (d Direction) Includes(want Direction) bool {
	if d == NoDirection || want == NoDirection {
		return false
	}
	return strings.Contains(d.String(), want.String())
}
