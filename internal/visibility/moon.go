package visibility

import (
	"fmt"
	"math"
	"strings"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
	"github.com/yetanothergithubaccount/DSObest/internal/night"
)

// DefaultMaxIllumination is the illuminated fraction below which the moon
// counts as faint.
const DefaultMaxIllumination = 0.5

// MoonScore rates the moon's interference at the peak. The three criteria
// are independent; any one of them is enough to pass.
type MoonScore struct {
	Evaluated bool
	Passes    bool
	Top       bool // moon below the horizon
	Lines     []string

	MoonAlt          float64
	MoonAz           float64
	MoonDirection    astro.Direction
	MoonIllumPercent float64
	Separation       float64 // moon to object, degrees
}

// Text renders the explanation lines, each on its own indented line.
func (m MoonScore) Text() string {
	var b strings.Builder
	for _, line := range m.Lines {
		b.WriteString("\n    ")
		b.WriteString(line)
	}
	return b.String()
}

// ScoreMoon evaluates the moon at the peak instant. object is the target
// position at that instant and maxIllum the faint-moon fraction (0 selects
// DefaultMaxIllumination). An empty peak yields a zero score.
func ScoreMoon(peak Peak, object, moon astro.Horizontal, illumination, maxIllum float64) MoonScore {
	if peak.Empty {
		return MoonScore{MoonDirection: astro.NoDirection}
	}
	if maxIllum <= 0 {
		maxIllum = DefaultMaxIllumination
	}

	score := MoonScore{
		Evaluated:        true,
		MoonAlt:          moon.AltDeg,
		MoonAz:           moon.AzDeg,
		MoonDirection:    astro.CompassDirection(moon.AzDeg),
		MoonIllumPercent: illumination * 100,
		Separation:       astro.HorizontalSeparation(moon, object),
	}

	if moon.AltDeg < 0 {
		score.Passes = true
		score.Top = true
		score.Lines = append(score.Lines,
			"TOP: Moon < the horizon at "+peak.Time.Format("02.01. 15:04"))
	}
	if score.MoonDirection != peak.Direction {
		score.Passes = true
		score.Lines = append(score.Lines, fmt.Sprintf("OK: Dir moon: %s (%.0f, alt %.0f), DSO: %s (%.0f)",
			score.MoonDirection, moon.AzDeg, moon.AltDeg, peak.Direction, peak.Azimuth))
	}
	if illumination < maxIllum {
		score.Passes = true
		score.Lines = append(score.Lines, fmt.Sprintf("Nice: Moon illumination < %.0f %%: %.0f %%",
			maxIllum*100, math.Round(score.MoonIllumPercent)))
	}
	return score
}

// ScoreTrace scores the moon using the sample at the peak index.
func ScoreTrace(trace night.Trace, peak Peak, maxIllum float64) MoonScore {
	if peak.Empty || peak.Index < 0 || peak.Index >= len(trace.Samples) {
		return ScoreMoon(EmptyPeak(), astro.Horizontal{}, astro.Horizontal{}, 0, maxIllum)
	}
	s := trace.Samples[peak.Index]
	return ScoreMoon(peak, s.Object, s.Moon, s.MoonIllumination, maxIllum)
}
