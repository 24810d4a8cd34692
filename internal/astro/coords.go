// Package astro provides the sky math behind the ephemeris: equatorial to
// horizontal transforms, sidereal time and angular separations.
package astro

import (
	"math"
	"time"
)

// Equatorial is a J2000 right ascension / declination pair.
type Equatorial struct {
	RAdeg  float64 // Right Ascension in degrees (0-360)
	DecDeg float64 // Declination in degrees (-90 to +90)
}

// Horizontal is an observer-relative position.
type Horizontal struct {
	AltDeg float64 // Altitude in degrees (0=horizon, 90=zenith)
	AzDeg  float64 // Azimuth in degrees (0=N, 90=E, 180=S, 270=W)
}

// Observer represents a ground-based observer location.
type Observer struct {
	LatDeg     float64 // Latitude in degrees (north positive)
	LonDeg     float64 // Longitude in degrees (east positive)
	ElevationM float64 // Height above sea level in meters
}

// ToHorizontal converts equatorial coordinates to altitude/azimuth for a
// given observer and time.
//
// Conventions:
//   - Azimuth: 0° = North, 90° = East, 180° = South, 270° = West
//   - Altitude: 0° = horizon, 90° = zenith
//
// No refraction is applied.
func ToHorizontal(eq Equatorial, obs Observer, t time.Time) Horizontal {
	lat := degToRad(obs.LatDeg)
	dec := degToRad(eq.DecDeg)

	// Hour Angle = LST - RA
	ha := degToRad(localSiderealTime(t, obs.LonDeg) - eq.RAdeg)

	sinAlt := math.Sin(dec)*math.Sin(lat) + math.Cos(dec)*math.Cos(lat)*math.Cos(ha)
	alt := math.Asin(clamp(sinAlt, -1, 1))

	cosAz := (math.Sin(dec) - math.Sin(alt)*math.Sin(lat)) / (math.Cos(alt) * math.Cos(lat))
	az := math.Acos(clamp(cosAz, -1, 1))

	// Positive hour angle: object is west of the meridian
	if math.Sin(ha) > 0 {
		az = 2*math.Pi - az
	}

	azDeg := radToDeg(az)
	if azDeg >= 360 {
		azDeg -= 360
	}

	return Horizontal{
		AltDeg: radToDeg(alt),
		AzDeg:  azDeg,
	}
}

// localSiderealTime calculates the Local Sidereal Time in degrees
// for a given UTC time and observer longitude.
func localSiderealTime(t time.Time, lonDeg float64) float64 {
	return normalizeAngle360(greenwichMeanSiderealTime(t) + lonDeg)
}

// greenwichMeanSiderealTime calculates GMST in degrees (IAU 1982).
func greenwichMeanSiderealTime(t time.Time) float64 {
	jd := julianDate(t)
	T := (jd - 2451545.0) / 36525.0

	gmst := 280.46061837 +
		360.98564736629*(jd-2451545.0) +
		0.000387933*T*T -
		T*T*T/38710000.0

	return normalizeAngle360(gmst)
}

// julianDate calculates the Julian Date for a given time.
func julianDate(t time.Time) float64 {
	t = t.UTC()

	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	dayFrac := (float64(t.Hour()) +
		float64(t.Minute())/60 +
		float64(t.Second())/3600 +
		float64(t.Nanosecond())/3600e9) / 24.0

	// January/February count as months 13/14 of the previous year
	if m <= 2 {
		y--
		m += 12
	}

	// Gregorian calendar correction
	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	return math.Floor(365.25*(y+4716)) +
		math.Floor(30.6001*(m+1)) +
		d + dayFrac + B - 1524.5
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// normalizeAngle360 normalizes an angle to [0, 360).
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
