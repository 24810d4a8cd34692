package night

import (
	"fmt"
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// Level is a darkness level defined by a sun altitude threshold.
type Level int

const (
	Civil Level = iota
	Nautical
	Astronomical
)

// Threshold returns the sun altitude below which the level applies.
func (l Level) Threshold() float64 {
	switch l {
	case Civil:
		return -6
	case Nautical:
		return -12
	default:
		return -18
	}
}

func (l Level) String() string {
	switch l {
	case Civil:
		return "civil"
	case Nautical:
		return "nautical"
	case Astronomical:
		return "astronomical"
	default:
		return "unknown"
	}
}

// Interval is a darkness interval. Start < End whenever Defined is set.
type Interval struct {
	Start   time.Time
	End     time.Time
	Defined bool
}

// Contains reports whether t lies strictly inside the interval.
func (i Interval) Contains(t time.Time) bool {
	return i.Defined && t.After(i.Start) && t.Before(i.End)
}

// Duration returns the interval length, 0 if undefined.
func (i Interval) Duration() time.Duration {
	if !i.Defined {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Window holds the darkness intervals of one night.
type Window struct {
	Date         time.Time // evening date, local midnight
	Midnight     time.Time // local midnight ending the evening
	Civil        Interval
	Nautical     Interval
	Astronomical Interval

	// Sunset and Sunrise are informational; zero during polar day or night.
	Sunset  time.Time
	Sunrise time.Time
}

// Interval returns the interval for a level.
func (w Window) Interval(l Level) Interval {
	switch l {
	case Civil:
		return w.Civil
	case Nautical:
		return w.Nautical
	default:
		return w.Astronomical
	}
}

// AstronomicalFallback reports whether the astronomical interval is
// undefined and the nautical one stands in for it.
func (w Window) AstronomicalFallback() bool {
	return !w.Astronomical.Defined && w.Nautical.Defined
}

// EffectiveAstronomical returns the astronomical interval, or the nautical
// interval when astronomical darkness never occurs.
func (w Window) EffectiveAstronomical() Interval {
	if w.AstronomicalFallback() {
		return w.Nautical
	}
	return w.Astronomical
}

// ComputeWindow derives the darkness intervals from a sun track spanning the
// night. A level starts at the last crossing below its threshold before
// midnight and ends at the first crossing back above after it. Crossings are
// linearly interpolated between the bracketing samples.
//
// When the sun is above a threshold at midnight the search is anchored at the
// darkest sample instead, so a short night that begins after local midnight
// is still found. A level the sun never reaches is undefined. A level the
// sun never leaves within the trace is clamped to the trace bounds.
func ComputeWindow(date time.Time, sun []Sample) (Window, error) {
	if len(sun) < 2 {
		return Window{}, ErrInsufficientSamples
	}

	loc := date.Location()
	y, m, d := date.Date()
	w := Window{
		Date:     time.Date(y, m, d, 0, 0, 0, 0, loc),
		Midnight: time.Date(y, m, d+1, 0, 0, 0, 0, loc),
	}

	mid := midnightIndex(sun, w.Midnight)
	darkest := darkestIndex(sun)

	for _, l := range []Level{Civil, Nautical, Astronomical} {
		iv := darkness(sun, mid, darkest, l.Threshold())
		switch l {
		case Civil:
			w.Civil = iv
		case Nautical:
			w.Nautical = iv
		case Astronomical:
			w.Astronomical = iv
		}
	}

	if err := w.check(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Annotate fills Sunset and Sunrise for the observer.
func (w *Window) Annotate(latDeg, lonDeg float64) {
	loc := w.Date.Location()

	_, set := sunrise.SunriseSunset(latDeg, lonDeg, w.Date.Year(), w.Date.Month(), w.Date.Day())
	rise, _ := sunrise.SunriseSunset(latDeg, lonDeg, w.Midnight.Year(), w.Midnight.Month(), w.Midnight.Day())

	if !set.IsZero() {
		w.Sunset = set.In(loc)
	}
	if !rise.IsZero() {
		w.Sunrise = rise.In(loc)
	}
}

func (w Window) check() error {
	ivs := []struct {
		l  Level
		iv Interval
	}{{Civil, w.Civil}, {Nautical, w.Nautical}, {Astronomical, w.Astronomical}}

	for _, x := range ivs {
		if x.iv.Defined && !x.iv.Start.Before(x.iv.End) {
			return fmt.Errorf("%s night: start %v not before end %v", x.l, x.iv.Start, x.iv.End)
		}
	}
	if w.Nautical.Defined && w.Astronomical.Defined {
		if w.Astronomical.Start.Before(w.Nautical.Start) || w.Astronomical.End.After(w.Nautical.End) {
			return fmt.Errorf("astronomical night not inside nautical night")
		}
	}
	return nil
}

// darkness finds the interval below threshold around the anchor sample.
func darkness(sun []Sample, mid, darkest int, threshold float64) Interval {
	anchor := mid
	if sun[anchor].SunAlt >= threshold {
		anchor = darkest
	}
	if sun[anchor].SunAlt >= threshold {
		return Interval{}
	}

	start := sun[0].Time
	for k := anchor; k > 0; k-- {
		if sun[k-1].SunAlt >= threshold && sun[k].SunAlt < threshold {
			start = interpolateCrossing(sun[k-1].Time, sun[k].Time, sun[k-1].SunAlt, sun[k].SunAlt, threshold)
			break
		}
	}

	end := sun[len(sun)-1].Time
	for k := anchor; k < len(sun)-1; k++ {
		if sun[k].SunAlt < threshold && sun[k+1].SunAlt >= threshold {
			end = interpolateCrossing(sun[k].Time, sun[k+1].Time, sun[k].SunAlt, sun[k+1].SunAlt, threshold)
			break
		}
	}

	if !start.Before(end) {
		return Interval{}
	}
	return Interval{Start: start, End: end, Defined: true}
}

// midnightIndex returns the last sample at or before midnight.
func midnightIndex(sun []Sample, midnight time.Time) int {
	idx := 0
	for i, s := range sun {
		if s.Time.After(midnight) {
			break
		}
		idx = i
	}
	return idx
}

func darkestIndex(sun []Sample) int {
	idx := 0
	for i, s := range sun {
		if s.SunAlt < sun[idx].SunAlt {
			idx = i
		}
	}
	return idx
}

// interpolateCrossing estimates when altitude crosses threshold between
// two samples.
func interpolateCrossing(t1, t2 time.Time, alt1, alt2, threshold float64) time.Time {
	if math.Abs(alt2-alt1) < 0.0001 {
		return t1
	}

	// Linear interpolation: find t where alt = threshold
	fraction := (threshold - alt1) / (alt2 - alt1)

	// Clamp to valid range
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}

	dt := t2.Sub(t1)
	return t1.Add(time.Duration(float64(dt) * fraction))
}
