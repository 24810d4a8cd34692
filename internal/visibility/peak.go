// Package visibility finds the altitude peak of an object inside nautical
// darkness and scores the moon's interference at that moment.
package visibility

import (
	"time"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
	"github.com/yetanothergithubaccount/DSObest/internal/night"
)

// DefaultMinAltitude is the altitude a sample must exceed to count as visible.
const DefaultMinAltitude = 5.0

// DefaultMinVisible is 30 samples at the reference trace density.
const DefaultMinVisible = 30 * night.ReferenceStep

// Config tunes the visibility verdict.
type Config struct {
	MinAltitude float64       // degrees, strict
	MinVisible  time.Duration // time above MinAltitude that must be exceeded
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{MinAltitude: DefaultMinAltitude, MinVisible: DefaultMinVisible}
}

// Threshold converts MinVisible into a sample count for the given spacing.
func (c Config) Threshold(step time.Duration) int {
	if step <= 0 {
		step = night.ReferenceStep
	}
	minVisible := c.MinVisible
	if minVisible <= 0 {
		minVisible = DefaultMinVisible
	}
	return int(minVisible / step)
}

// Peak is the highest point of an object inside nautical darkness.
type Peak struct {
	Altitude  float64
	Azimuth   float64
	Direction astro.Direction
	Time      time.Time
	Index     int // index into the trace, -1 when Empty

	Visible        bool
	InNautical     bool
	InAstronomical bool
	Fallback       bool // InAstronomical was decided on the nautical bounds
	AboveCount     int  // darkness samples above MinAltitude

	Empty bool // nothing inside nautical darkness rose above MinAltitude
}

// EmptyPeak is the sentinel for an object that never rises above
// MinAltitude inside nautical darkness.
func EmptyPeak() Peak {
	return Peak{
		Altitude:  -1,
		Azimuth:   -1,
		Direction: astro.NoDirection,
		Index:     -1,
		Empty:     true,
	}
}

// FindPeak scans the samples strictly inside the nautical interval. The peak
// is the first sample attaining the maximum altitude.
//
// When no dark sample rises above MinAltitude, FindPeak returns EmptyPeak
// with altitude, azimuth and index all -1, even though the dark samples do
// have a highest point. A negative altitude from FindPeak therefore means
// the object never cleared MinAltitude, not that its peak was below the
// horizon. The same sentinel is returned when the night has no nautical
// darkness.
func FindPeak(trace night.Trace, w night.Window, cfg Config) Peak {
	if !w.Nautical.Defined {
		return EmptyPeak()
	}

	best := -1
	inDark := 0
	above := 0
	for i, s := range trace.Samples {
		if !w.Nautical.Contains(s.Time) {
			continue
		}
		inDark++
		if s.Object.AltDeg > cfg.MinAltitude {
			above++
		}
		if best < 0 || s.Object.AltDeg > trace.Samples[best].Object.AltDeg {
			best = i
		}
	}
	if inDark == 0 || above == 0 {
		return EmptyPeak()
	}

	s := trace.Samples[best]
	astroWin := w.EffectiveAstronomical()

	return Peak{
		Altitude:       s.Object.AltDeg,
		Azimuth:        s.Object.AzDeg,
		Direction:      astro.CompassDirection(s.Object.AzDeg),
		Time:           s.Time,
		Index:          best,
		Visible:        above > cfg.Threshold(trace.Step()),
		InNautical:     w.Nautical.Contains(s.Time),
		InAstronomical: astroWin.Contains(s.Time),
		Fallback:       w.AstronomicalFallback(),
		AboveCount:     above,
	}
}
