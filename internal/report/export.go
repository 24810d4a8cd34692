package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/yetanothergithubaccount/DSObest/internal/config"
	"github.com/yetanothergithubaccount/DSObest/internal/night"
	"github.com/yetanothergithubaccount/DSObest/internal/plan"
)

// NightExport is the JSON form of a planned night.
type NightExport struct {
	GeneratedAt  time.Time      `json:"generated_at"`
	Catalogue    string         `json:"catalogue"`
	Location     LocationExport `json:"location"`
	Date         string         `json:"date"`
	Nautical     *IntervalJSON  `json:"nautical_night"`
	Astronomical *IntervalJSON  `json:"astronomical_night"`
	Fallback     bool           `json:"astronomical_fallback"`
	Sunset       *time.Time     `json:"sunset,omitempty"`
	Sunrise      *time.Time     `json:"sunrise,omitempty"`
	Astro        []DSOExport    `json:"astronomical"`
	Naut         []DSOExport    `json:"nautical"`
	Invisible    []DSOExport    `json:"invisible"`
	Failures     []FailureJSON  `json:"failures,omitempty"`
}

// LocationExport is the observer site.
type LocationExport struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation_m"`
	Timezone  string  `json:"timezone"`
}

// IntervalJSON is a darkness interval.
type IntervalJSON struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DSOExport is one evaluated DSO.
type DSOExport struct {
	Name         string     `json:"name"`
	Position     int        `json:"position"`
	Type         string     `json:"type,omitempty"`
	Magnitude    float64    `json:"magnitude"`
	RA           float64    `json:"ra_deg"`
	Dec          float64    `json:"dec_deg"`
	PeakAltitude float64    `json:"peak_altitude"`
	PeakAzimuth  float64    `json:"peak_azimuth"`
	Direction    string     `json:"direction"`
	PeakTime     *time.Time `json:"peak_time,omitempty"`
	Visible      bool       `json:"visible"`
	Moon         MoonExport `json:"moon"`
}

// MoonExport is the moon score at the peak.
type MoonExport struct {
	Passes       bool     `json:"passes"`
	Top          bool     `json:"top"`
	Altitude     float64  `json:"altitude"`
	Direction    string   `json:"direction"`
	Illumination float64  `json:"illumination_percent"`
	Separation   float64  `json:"separation_deg"`
	Lines        []string `json:"lines,omitempty"`
}

// FailureJSON is an object that could not be evaluated.
type FailureJSON struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// YearExport is the JSON form of a year plan.
type YearExport struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Name        string         `json:"name"`
	Year        int            `json:"year"`
	Location    LocationExport `json:"location"`
	Months      []MonthExport  `json:"months"`
	Best        string         `json:"best,omitempty"`
}

// MonthExport is a DSO on the 1st of a month.
type MonthExport struct {
	Date  string     `json:"date"`
	Color string     `json:"color"`
	Label string     `json:"label"`
	DSO   *DSOExport `json:"dso,omitempty"`
}

// ExportNight converts a night report to its JSON form.
func ExportNight(n Night, generatedAt time.Time) *NightExport {
	e := &NightExport{
		GeneratedAt:  generatedAt,
		Catalogue:    n.Catalogue,
		Location:     ExportLocation(n.Location),
		Date:         n.Window.Date.Format("2006-01-02"),
		Nautical:     exportInterval(n.Window.Nautical),
		Astronomical: exportInterval(n.Window.EffectiveAstronomical()),
		Fallback:     n.Window.AstronomicalFallback(),
		Sunset:       optionalTime(n.Window.Sunset),
		Sunrise:      optionalTime(n.Window.Sunrise),
		Astro:        exportDSOs(n.Ranking.Astronomical),
		Naut:         exportDSOs(n.Ranking.Nautical),
		Invisible:    exportDSOs(n.Ranking.Invisible),
	}
	for _, f := range n.Failures {
		e.Failures = append(e.Failures, FailureJSON{Name: f.Name, Error: f.Err.Error()})
	}
	return e
}

// ExportLocation converts the observer site.
func ExportLocation(l config.Location) LocationExport {
	return LocationExport{
		Name:      l.Name,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Elevation: l.Elevation,
		Timezone:  l.Timezone,
	}
}

// ExportYear converts a year plan to its JSON form.
func ExportYear(y *plan.YearPlan, loc config.Location, generatedAt time.Time) *YearExport {
	e := &YearExport{GeneratedAt: generatedAt, Name: y.Name, Year: y.Year, Location: ExportLocation(loc)}
	for i, d := range y.Months {
		m := MonthExport{Date: time.Date(y.Year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")}
		if d != nil {
			de := exportDSO(d)
			m.DSO = &de
			m.Color = MonthColor(time.Month(i+1), d.Moon.Passes)
			m.Label = MonthLabel(d)
		}
		e.Months = append(e.Months, m)
	}
	if b := y.BestMonth(); b != nil {
		e.Best = b.Date().Format("2006-01-02")
	}
	return e
}

func exportDSOs(dsos []*plan.DSO) []DSOExport {
	out := make([]DSOExport, 0, len(dsos))
	for _, d := range dsos {
		out = append(out, exportDSO(d))
	}
	return out
}

func exportDSO(d *plan.DSO) DSOExport {
	return DSOExport{
		Name:         d.Name,
		Position:     d.Index + 1,
		Type:         d.Metadata.TypeString(),
		Magnitude:    d.Metadata.Magnitude,
		RA:           d.Object.Position.RAdeg,
		Dec:          d.Object.Position.DecDeg,
		PeakAltitude: d.Peak.Altitude,
		PeakAzimuth:  d.Peak.Azimuth,
		Direction:    d.Peak.Direction.String(),
		PeakTime:     optionalTime(d.Peak.Time),
		Visible:      d.Peak.Visible,
		Moon: MoonExport{
			Passes:       d.Moon.Passes,
			Top:          d.Moon.Top,
			Altitude:     d.Moon.MoonAlt,
			Direction:    d.Moon.MoonDirection.String(),
			Illumination: d.Moon.MoonIllumPercent,
			Separation:   d.Moon.Separation,
			Lines:        d.Moon.Lines,
		},
	}
}

func exportInterval(i night.Interval) *IntervalJSON {
	if !i.Defined {
		return nil
	}
	return &IntervalJSON{Start: i.Start, End: i.End}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// WriteJSON writes the export as indented JSON.
func (e *NightExport) WriteJSON(w io.Writer) error {
	return writeJSON(w, e)
}

// WriteJSON writes the export as indented JSON.
func (e *YearExport) WriteJSON(w io.Writer) error {
	return writeJSON(w, e)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteFile writes v as JSON to path, creating parent directories.
func WriteFile(path string, v interface{ WriteJSON(io.Writer) error }) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := v.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
