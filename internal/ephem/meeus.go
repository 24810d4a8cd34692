package ephem

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonillum"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
)

// jde approximates the ephemeris day by the UTC Julian day. The ~70 s of
// ΔT move the moon by well under an arc minute.
func jde(t time.Time) float64 {
	return julian.TimeToJD(t.UTC())
}

// SunEquatorial is the apparent geocentric position of the Sun
// (Meeus chapter 25, low precision).
func SunEquatorial(t time.Time) astro.Equatorial {
	α, δ := solar.ApparentEquatorial(jde(t))
	return equatorial(α, δ)
}

// MoonEquatorial is the apparent geocentric position of the Moon
// (Meeus chapter 47) and its distance in km.
func MoonEquatorial(t time.Time) (astro.Equatorial, float64) {
	j := jde(t)
	λ, β, Δ := moonposition.Position(j)
	Δψ, Δε := nutation.Nutation(j)
	ε := nutation.MeanObliquity(j) + Δε
	α, δ := coord.EclToEq(λ+Δψ, β, ε.Sin(), ε.Cos())
	return equatorial(α, δ), Δ
}

// MoonIllumination is the illuminated fraction of the Moon's disk [0..1].
func MoonIllumination(t time.Time) float64 {
	return base.Illuminated(moonillum.PhaseAngle3(jde(t)))
}

func equatorial(α unit.RA, δ unit.Angle) astro.Equatorial {
	ra := math.Mod(α.Rad()*180/math.Pi, 360)
	if ra < 0 {
		ra += 360
	}
	return astro.Equatorial{RAdeg: ra, DecDeg: δ.Rad() * 180 / math.Pi}
}
