package astro

import (
	"math"
	"testing"
	"time"
)

func TestJulianDate(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
		tol      float64
	}{
		{
			name:     "J2000 epoch",
			time:     time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: 2451545.0,
			tol:      0.0001,
		},
		{
			name:     "Unix epoch",
			time:     time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2440587.5,
			tol:      0.0001,
		},
		{
			name:     "Known date 2024-01-01 00:00 UTC",
			time:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2460310.5,
			tol:      0.0001,
		},
		{
			name:     "Non-UTC input is converted",
			time:     time.Date(2024, 1, 1, 1, 0, 0, 0, time.FixedZone("CET", 3600)),
			expected: 2460310.5,
			tol:      0.0001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := julianDate(tt.time)
			if math.Abs(got-tt.expected) > tt.tol {
				t.Errorf("julianDate() = %v, want %v (±%v)", got, tt.expected, tt.tol)
			}
		})
	}
}

func TestGreenwichMeanSiderealTime(t *testing.T) {
	t2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	gmst := greenwichMeanSiderealTime(t2000)

	if math.Abs(gmst-280.46) > 0.1 {
		t.Errorf("GMST at J2000 = %v, want ~280.46", gmst)
	}
	if gmst < 0 || gmst >= 360 {
		t.Errorf("GMST out of range: %v", gmst)
	}
}

func TestLocalSiderealTime(t *testing.T) {
	testTime := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	gmst := greenwichMeanSiderealTime(testTime)
	if lst0 := localSiderealTime(testTime, 0); math.Abs(lst0-gmst) > 0.001 {
		t.Errorf("LST at lon=0 should equal GMST: got %v, want %v", lst0, gmst)
	}

	lst90 := localSiderealTime(testTime, 90)
	if want := math.Mod(gmst+90, 360); math.Abs(lst90-want) > 0.001 {
		t.Errorf("LST at lon=90 = %v, want %v", lst90, want)
	}

	for lon := -180.0; lon <= 180; lon += 30 {
		lst := localSiderealTime(testTime, lon)
		if lst < 0 || lst >= 360 {
			t.Errorf("LST at lon=%v out of range: %v", lon, lst)
		}
	}
}

func TestToHorizontal_Polaris(t *testing.T) {
	polaris := Equatorial{RAdeg: 37.95, DecDeg: 89.26}
	frankfurt := Observer{LatDeg: 50.11, LonDeg: 8.68}

	for hour := 0; hour < 24; hour += 3 {
		at := time.Date(2024, 6, 15, hour, 0, 0, 0, time.UTC)
		got := ToHorizontal(polaris, frankfurt, at)

		if math.Abs(got.AltDeg-frankfurt.LatDeg) > 1.5 {
			t.Errorf("hour %d: Polaris altitude = %.2f°, want ~%.2f°", hour, got.AltDeg, frankfurt.LatDeg)
		}
		if dir := CompassDirection(got.AzDeg); dir != North {
			t.Errorf("hour %d: Polaris direction = %v (az %.1f), want N", hour, dir, got.AzDeg)
		}
	}
}

func TestToHorizontal_ZenithStar(t *testing.T) {
	obs := Observer{LatDeg: 35.0, LonDeg: -117.0}
	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	// Dec = latitude and RA = LST puts the star at the zenith
	star := Equatorial{RAdeg: localSiderealTime(at, obs.LonDeg), DecDeg: obs.LatDeg}
	got := ToHorizontal(star, obs, at)

	if math.Abs(got.AltDeg-90) > 1e-3 {
		t.Errorf("zenith star altitude = %v°, want 90°", got.AltDeg)
	}
}

func TestToHorizontal_MeridianTransitIsSouth(t *testing.T) {
	obs := Observer{LatDeg: 50.0, LonDeg: 8.0}
	at := time.Date(2024, 10, 1, 22, 0, 0, 0, time.UTC)

	// On the meridian, south of the zenith
	star := Equatorial{RAdeg: localSiderealTime(at, obs.LonDeg), DecDeg: 10}
	got := ToHorizontal(star, obs, at)

	if want := 90 - obs.LatDeg + star.DecDeg; math.Abs(got.AltDeg-want) > 1e-3 {
		t.Errorf("transit altitude = %v°, want %v°", got.AltDeg, want)
	}
	if math.Abs(got.AzDeg-180) > 1e-3 {
		t.Errorf("transit azimuth = %v°, want 180°", got.AzDeg)
	}
}

func TestToHorizontal_SouthernStarNeverRises(t *testing.T) {
	star := Equatorial{RAdeg: 0, DecDeg: -60}
	obs := Observer{LatDeg: 35.0, LonDeg: -117.0}

	for hour := 0; hour < 24; hour++ {
		at := time.Date(2024, 6, 15, hour, 0, 0, 0, time.UTC)
		if got := ToHorizontal(star, obs, at); got.AltDeg > 0 {
			t.Errorf("Dec=-60° star visible from 35°N at hour %d: Alt=%v°", hour, got.AltDeg)
		}
	}
}

func TestToHorizontal_AzimuthRange(t *testing.T) {
	obs := Observer{LatDeg: 35, LonDeg: -117}
	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	for ra := 0.0; ra < 360; ra += 30 {
		for dec := -80.0; dec <= 80; dec += 20 {
			got := ToHorizontal(Equatorial{RAdeg: ra, DecDeg: dec}, obs, at)
			if got.AzDeg < 0 || got.AzDeg >= 360 {
				t.Errorf("Azimuth out of range for RA=%v, Dec=%v: Az=%v", ra, dec, got.AzDeg)
			}
		}
	}
}

func TestDegRadRoundTrip(t *testing.T) {
	for _, deg := range []float64{0, 45, 90, 180, 270, -90} {
		if got := radToDeg(degToRad(deg)); math.Abs(got-deg) > 1e-10 {
			t.Errorf("radToDeg(degToRad(%v)) = %v", deg, got)
		}
	}
}

func TestNormalizeAngle360(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{370, 10},
		{-10, 350},
		{-725, 355},
	}
	for _, tt := range tests {
		if got := normalizeAngle360(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("normalizeAngle360(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
