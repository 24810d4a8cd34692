package astro

import "testing"

func TestCompassDirection(t *testing.T) {
	tests := []struct {
		az   float64
		want Direction
	}{
		{0, North},
		{22.49, North},
		{22.5, NorthEast},
		{45, NorthEast},
		{90, East},
		{135, SouthEast},
		{180, South},
		{202.49, South},
		{225, SouthWest},
		{270, West},
		{315, NorthWest},
		{337.49, NorthWest},
		{337.5, North},
		{359, North},
		{-10, North},
		{-90, West},
		{720 + 180, South},
	}

	for _, tt := range tests {
		if got := CompassDirection(tt.az); got != tt.want {
			t.Errorf("CompassDirection(%v) = %v, want %v", tt.az, got, tt.want)
		}
	}
}

func TestDirectionString(t *testing.T) {
	if got := SouthWest.String(); got != "SW" {
		t.Errorf("SouthWest.String() = %q, want SW", got)
	}
	if got := NoDirection.String(); got != "-" {
		t.Errorf("NoDirection.String() = %q, want -", got)
	}
	var zero Direction
	if zero != NoDirection {
		t.Errorf("zero Direction = %v, want NoDirection", zero)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in     string
		want   Direction
		wantOK bool
	}{
		{"S", South, true},
		{"s", South, true},
		{" ne ", NorthEast, true},
		{"NW", NorthWest, true},
		{"south", NoDirection, false},
		{"", NoDirection, false},
	}

	for _, tt := range tests {
		got, ok := ParseDirection(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseDirection(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDirectionIncludes(t *testing.T) {
	tests := []struct {
		d, want Direction
		ok      bool
	}{
		{South, South, true},
		{SouthEast, South, true},
		{SouthWest, South, true},
		{SouthEast, East, true},
		{South, SouthEast, false},
		{North, South, false},
		{NorthEast, East, true},
		{NoDirection, South, false},
		{South, NoDirection, false},
	}

	for _, tt := range tests {
		if got := tt.d.Includes(tt.want); got != tt.ok {
			t.Errorf("%v.Includes(%v) = %v, want %v", tt.d, tt.want, got, tt.ok)
		}
	}
}
