package astro

import "math"

// AngularSeparation calculates the great-circle separation between two points on
// the celestial sphere. All coordinates in degrees. Returns degrees.
func AngularSeparation(a, b Equatorial) float64 {
	ra1, dec1 := degToRad(a.RAdeg), degToRad(a.DecDeg)
	ra2, dec2 := degToRad(b.RAdeg), degToRad(b.DecDeg)

	// Haversine
	dRA := ra2 - ra1
	dDec := dec2 - dec1
	h := math.Sin(dDec/2)*math.Sin(dDec/2) +
		math.Cos(dec1)*math.Cos(dec2)*math.Sin(dRA/2)*math.Sin(dRA/2)

	return radToDeg(2 * math.Asin(math.Sqrt(clamp(h, 0, 1))))
}

// HorizontalSeparation is the great-circle angle between two alt/az positions.
func HorizontalSeparation(a, b Horizontal) float64 {
	return AngularSeparation(Equatorial{RAdeg: a.AzDeg, DecDeg: a.AltDeg}, Equatorial{RAdeg: b.AzDeg, DecDeg: b.AltDeg})
}
