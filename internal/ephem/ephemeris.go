// Package ephem provides sun, moon and target positions for an observer.
package ephem

import (
	"errors"
	"fmt"
	"time"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
)

// Horizontal is an observer-relative altitude/azimuth in degrees.
type Horizontal = astro.Horizontal

// Body identifies what a position was requested for.
type Body int

const (
	BodyTarget Body = iota
	BodySun
	BodyMoon
)

// String returns the body name.
func (b Body) String() string {
	switch b {
	case BodyTarget:
		return "target"
	case BodySun:
		return "sun"
	case BodyMoon:
		return "moon"
	default:
		return "unknown"
	}
}

// Ephemeris defines the interface for position sources.
type Ephemeris interface {
	// Name returns the source name for display/logging.
	Name() string

	// PositionAt returns the alt/az of a fixed sky position.
	PositionAt(pos astro.Equatorial, t time.Time, obs astro.Observer) (Horizontal, error)

	// SunPositionAt returns the alt/az of the Sun.
	SunPositionAt(t time.Time, obs astro.Observer) (Horizontal, error)

	// MoonPositionAt returns the alt/az of the Moon.
	MoonPositionAt(t time.Time, obs astro.Observer) (Horizontal, error)

	// MoonIlluminationAt returns the illuminated fraction of the Moon [0..1].
	MoonIlluminationAt(t time.Time) (float64, error)
}

// ErrInvalidCoordinate is returned for positions outside the valid range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// EphemerisError wraps a position failure for one body at one instant.
type EphemerisError struct {
	Body Body
	Time time.Time
	Err  error
}

func (e *EphemerisError) Error() string {
	return fmt.Sprintf("ephemeris %s at %s: %v", e.Body, e.Time.UTC().Format(time.RFC3339), e.Err)
}

func (e *EphemerisError) Unwrap() error {
	return e.Err
}
