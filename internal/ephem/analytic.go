package ephem

import (
	"math"
	"time"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
)

// Analytic takes sun and moon positions from the Meeus series and turns
// them into alt/az with astro.ToHorizontal. It never blocks and only fails
// on invalid input.
type Analytic struct{}

// NewAnalytic returns the analytic ephemeris.
func NewAnalytic() *Analytic {
	return &Analytic{}
}

// Name implements Ephemeris.
func (a *Analytic) Name() string {
	return "analytic"
}

// PositionAt implements Ephemeris.
func (a *Analytic) PositionAt(pos astro.Equatorial, t time.Time, obs astro.Observer) (Horizontal, error) {
	if !validEquatorial(pos) || !validObserver(obs) {
		return Horizontal{}, &EphemerisError{Body: BodyTarget, Time: t, Err: ErrInvalidCoordinate}
	}
	return astro.ToHorizontal(pos, obs, t), nil
}

// SunPositionAt implements Ephemeris.
func (a *Analytic) SunPositionAt(t time.Time, obs astro.Observer) (Horizontal, error) {
	if !validObserver(obs) {
		return Horizontal{}, &EphemerisError{Body: BodySun, Time: t, Err: ErrInvalidCoordinate}
	}
	return astro.ToHorizontal(SunEquatorial(t), obs, t), nil
}

// MoonPositionAt implements Ephemeris.
func (a *Analytic) MoonPositionAt(t time.Time, obs astro.Observer) (Horizontal, error) {
	if !validObserver(obs) {
		return Horizontal{}, &EphemerisError{Body: BodyMoon, Time: t, Err: ErrInvalidCoordinate}
	}
	moon, _ := MoonEquatorial(t)
	return astro.ToHorizontal(moon, obs, t), nil
}

// MoonIlluminationAt implements Ephemeris.
func (a *Analytic) MoonIlluminationAt(t time.Time) (float64, error) {
	return MoonIllumination(t), nil
}

func validEquatorial(p astro.Equatorial) bool {
	if math.IsNaN(p.RAdeg) || math.IsNaN(p.DecDeg) {
		return false
	}
	return p.RAdeg >= 0 && p.RAdeg < 360 && p.DecDeg >= -90 && p.DecDeg <= 90
}

func validObserver(o astro.Observer) bool {
	if math.IsNaN(o.LatDeg) || math.IsNaN(o.LonDeg) {
		return false
	}
	return o.LatDeg >= -90 && o.LatDeg <= 90 && o.LonDeg >= -180 && o.LonDeg <= 180
}
