// Package night samples a night around local midnight and derives the
// civil, nautical and astronomical darkness windows from the sun track.
package night

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
	"github.com/yetanothergithubaccount/DSObest/internal/ephem"
)

const (
	// DefaultSamples is the number of samples across the 24h trace.
	DefaultSamples = 1000

	// Span is the length of a trace, centred on midnight.
	Span = 24 * time.Hour

	// ReferenceStep is the sample spacing at DefaultSamples (~1.44 min).
	ReferenceStep = Span / (DefaultSamples - 1)
)

// ErrInsufficientSamples is returned when a trace would have fewer than
// two samples.
var ErrInsufficientSamples = errors.New("need at least 2 samples")

// Sample is one instant of a night trace.
type Sample struct {
	Time             time.Time
	Object           astro.Horizontal
	SunAlt           float64
	Moon             astro.Horizontal
	MoonIllumination float64 // fraction [0..1]
}

// Trace is an ordered series of samples from midnight-12h to midnight+12h.
type Trace struct {
	Midnight time.Time
	Samples  []Sample
}

// Len returns the number of samples.
func (t Trace) Len() int {
	return len(t.Samples)
}

// Step returns the spacing between samples.
func (t Trace) Step() time.Duration {
	if len(t.Samples) < 2 {
		return 0
	}
	return Span / time.Duration(len(t.Samples)-1)
}

// Midnight returns the local midnight that ends the evening of date.
// DST is taken from that night, not from the current wall clock.
func Midnight(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// Times returns n evenly spaced instants over midnight±12h.
func Times(midnight time.Time, n int) ([]time.Time, error) {
	if n < 2 {
		return nil, ErrInsufficientSamples
	}
	start := midnight.Add(-Span / 2)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.Add(Span * time.Duration(i) / time.Duration(n-1))
	}
	return times, nil
}

// Sampler produces night traces for one observer.
type Sampler struct {
	eph     ephem.Ephemeris
	obs     astro.Observer
	samples int
}

// NewSampler creates a sampler. samples <= 0 selects DefaultSamples.
func NewSampler(eph ephem.Ephemeris, obs astro.Observer, samples int) *Sampler {
	if samples <= 0 {
		samples = DefaultSamples
	}
	return &Sampler{eph: eph, obs: obs, samples: samples}
}

// Samples returns the configured sample count.
func (s *Sampler) Samples() int {
	return s.samples
}

// Background samples the sun and moon for the night ending at midnight.
// The object fields are left zero.
func (s *Sampler) Background(ctx context.Context, midnight time.Time) (Trace, error) {
	times, err := Times(midnight, s.samples)
	if err != nil {
		return Trace{}, err
	}

	trace := Trace{Midnight: midnight, Samples: make([]Sample, len(times))}
	for i, t := range times {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return Trace{}, err
			}
		}

		sun, err := s.eph.SunPositionAt(t, s.obs)
		if err != nil {
			return Trace{}, fmt.Errorf("sample sun: %w", err)
		}
		moon, err := s.eph.MoonPositionAt(t, s.obs)
		if err != nil {
			return Trace{}, fmt.Errorf("sample moon: %w", err)
		}
		illum, err := s.eph.MoonIlluminationAt(t)
		if err != nil {
			return Trace{}, fmt.Errorf("sample moon illumination: %w", err)
		}

		trace.Samples[i] = Sample{Time: t, SunAlt: sun.AltDeg, Moon: moon, MoonIllumination: illum}
	}
	return trace, nil
}

// WithObject returns a copy of background with the object position filled in.
func (s *Sampler) WithObject(ctx context.Context, pos astro.Equatorial, background Trace) (Trace, error) {
	trace := Trace{Midnight: background.Midnight, Samples: make([]Sample, len(background.Samples))}
	for i, bg := range background.Samples {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return Trace{}, err
			}
		}

		h, err := s.eph.PositionAt(pos, bg.Time, s.obs)
		if err != nil {
			return Trace{}, fmt.Errorf("sample object: %w", err)
		}
		bg.Object = h
		trace.Samples[i] = bg
	}
	return trace, nil
}

// Sample produces the full trace of an object for the night ending at midnight.
func (s *Sampler) Sample(ctx context.Context, pos astro.Equatorial, midnight time.Time) (Trace, error) {
	bg, err := s.Background(ctx, midnight)
	if err != nil {
		return Trace{}, err
	}
	return s.WithObject(ctx, pos, bg)
}
