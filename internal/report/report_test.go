package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
	"github.com/yetanothergithubaccount/DSObest/internal/catalog"
	"github.com/yetanothergithubaccount/DSObest/internal/config"
	"github.com/yetanothergithubaccount/DSObest/internal/night"
	"github.com/yetanothergithubaccount/DSObest/internal/plan"
	"github.com/yetanothergithubaccount/DSObest/internal/visibility"
)

var (
	evening  = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	midnight = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	testLoc  = config.Location{Name: "Frankfurt", Latitude: 50.11, Longitude: 8.68, Elevation: 207, Timezone: "UTC"}
)

func testWindow() night.Window {
	return night.Window{
		Date:         evening,
		Midnight:     midnight,
		Nautical:     night.Interval{Start: midnight.Add(-270 * time.Minute), End: midnight.Add(5 * time.Hour), Defined: true},
		Astronomical: night.Interval{Start: midnight.Add(-230 * time.Minute), End: midnight.Add(260 * time.Minute), Defined: true},
	}
}

// generateTrace builds a trace over midnight±12h with a linear altitude ramp.
func generateTrace(n int, from, to float64) night.Trace {
	times, _ := night.Times(midnight, n)
	tr := night.Trace{Midnight: midnight}
	for i, t := range times {
		alt := from + (to-from)*float64(i)/float64(n-1)
		tr.Samples = append(tr.Samples, night.Sample{Time: t, Object: astro.Horizontal{AltDeg: alt, AzDeg: 180}})
	}
	return tr
}

func dso(name string, index int, at time.Duration, alt float64, dir astro.Direction, moon visibility.MoonScore) *plan.DSO {
	return &plan.DSO{
		Name:     name,
		Index:    index,
		Object:   catalog.Object{Name: name, Position: astro.Equatorial{RAdeg: 83.8, DecDeg: -5.4}},
		Metadata: catalog.UnknownMetadata(),
		Window:   testWindow(),
		Trace:    generateTrace(200, 0, 60),
		Peak: visibility.Peak{
			Altitude:  alt,
			Azimuth:   float64(dir-astro.North) * 45,
			Direction: dir,
			Time:      midnight.Add(at),
			Visible:   true,
		},
		Moon: moon,
	}
}

func testNight(moon bool) Night {
	invisible := &plan.DSO{Name: "M7", Index: 6, Metadata: catalog.UnknownMetadata(), Window: testWindow(), Peak: visibility.EmptyPeak()}
	return Night{
		Location:  testLoc,
		Catalogue: "Messier",
		Window:    testWindow(),
		Ranking: plan.Ranking{
			Astronomical: []*plan.DSO{dso("M42", 41, -3*time.Hour, 35.4, astro.South,
				visibility.MoonScore{Evaluated: true, Passes: true, Top: true, Lines: []string{"TOP: x"}})},
			Nautical:  []*plan.DSO{dso("M13", 12, 270*time.Minute, 54.6, astro.East, visibility.MoonScore{Evaluated: true})},
			Invisible: []*plan.DSO{invisible},
		},
		Failures: []plan.Outcome{{Name: "NGC 9999", Err: catalog.ErrNotFound}},
		Moon:     moon,
	}
}

func TestNight_Message(t *testing.T) {
	want := "Best DSOs for 01.03.2024 - 02.03.2024 at Frankfurt (50.11, 8.68 [207 m])" +
		"\n\nNautical night: 01.03.24 19:30 - 02.03.24 05:00" +
		"\n  M13: 55 in E at 04:30" +
		"\n\nAstronomical night: 01.03.24 20:10 - 02.03.24 04:20" +
		"\n  M42: 35 in S at 21:00" +
		"\n    TOP: x" +
		"\n\nInvisible DSOs:" +
		"\n  M7: -1 in - at --:-- [7]"

	if got := testNight(true).Message(); got != want {
		t.Errorf("Message() =\n%s\nwant\n%s", got, want)
	}

	if got := testNight(false).Message(); strings.Contains(got, "TOP: x") {
		t.Error("moon lines should only appear in moon mode")
	}
}

func TestNight_MessageFallback(t *testing.T) {
	n := testNight(false)
	n.Window.Astronomical = night.Interval{}
	msg := n.Message()
	if !strings.Contains(msg, "Astronomical night: 01.03.24 19:30 - 02.03.24 05:00") {
		t.Errorf("fallback should print the nautical bounds:\n%s", msg)
	}

	n.Window.Nautical = night.Interval{}
	if msg := n.Message(); !strings.Contains(msg, "Nautical night: none") {
		t.Errorf("undefined nautical interval:\n%s", msg)
	}
}

func TestNight_Names(t *testing.T) {
	n := testNight(false)
	if got := n.Title(); got != "Messier Catalogue DSO Visibility" {
		t.Errorf("Title() = %q", got)
	}
	if got := n.Subtitle(); got != "01.03.-02.03.2024 in Frankfurt (50.11, 8.68)" {
		t.Errorf("Subtitle() = %q", got)
	}
	if got := n.FileName(); got != "Messier_Catalogue DSOs_in_Frankfurt_01.03.2024" {
		t.Errorf("FileName() = %q", got)
	}
}

func TestWriteSummary(t *testing.T) {
	tests := []struct {
		name   string
		styled bool
		want   []string
	}{
		{"plain", false, []string{"Best DSOs for", "Invisible DSOs:", "Not evaluated:", "NGC 9999"}},
		{"styled", true, []string{"Messier Catalogue DSO Visibility", "M42", "Invisible DSOs (1)", "NGC 9999", "TOP: x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteSummary(&buf, testNight(true), tt.styled); err != nil {
				t.Fatal(err)
			}
			for _, s := range tt.want {
				if !strings.Contains(buf.String(), s) {
					t.Errorf("output missing %q:\n%s", s, buf.String())
				}
			}
		})
	}
}

func TestSparkline(t *testing.T) {
	got := Sparkline([]float64{-10, 0, 13, 45, 89, 90, 120})
	want := "▁▁▂▄▇██"
	if got != want {
		t.Errorf("Sparkline() = %q, want %q", got, want)
	}
}

func TestResample(t *testing.T) {
	tr := generateTrace(100, 0, 99)
	got := resample(tr.Samples, 10)
	if len(got) != 10 {
		t.Fatalf("len = %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Errorf("bucket %d = %v not above %v", i, got[i], got[i-1])
		}
	}
	if resample(nil, 10) != nil {
		t.Error("resample(nil) should be nil")
	}
}

func TestMonthColor(t *testing.T) {
	tests := []struct {
		month  time.Month
		passes bool
		want   string
	}{
		{time.January, false, "#C0C0C0"},
		{time.January, true, "#708090"},
		{time.August, true, "#FFA500"},
		{time.December, false, "#E6E6FA"},
		{time.Month(13), true, "#9ACD32"},
	}
	for _, tt := range tests {
		if got := MonthColor(tt.month, tt.passes); got != tt.want {
			t.Errorf("MonthColor(%v, %v) = %s, want %s", tt.month, tt.passes, got, tt.want)
		}
	}
}

func TestMonthLabel(t *testing.T) {
	d := dso("M31", 30, -2*time.Hour, 70, astro.NorthEast, visibility.MoonScore{Passes: true})
	if got := MonthLabel(d); got != "01.03" {
		t.Errorf("MonthLabel() = %q", got)
	}
	d.Moon.Top = true
	if got := MonthLabel(d); got != "01.03 22:00" {
		t.Errorf("MonthLabel(top) = %q", got)
	}
}

func TestWriteAltitudeChart(t *testing.T) {
	n := testNight(false)
	dsos := append(append([]*plan.DSO{}, n.Ranking.Astronomical...), n.Ranking.Invisible...)

	var buf bytes.Buffer
	if err := WriteAltitudeChart(&buf, dsos, 20, false); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("chart has %d lines, want 1 (M7 has no trace):\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "M42") || !strings.Contains(lines[0], "35° S at 21:00") {
		t.Errorf("chart line = %q", lines[0])
	}
}

func testYear() *plan.YearPlan {
	y := &plan.YearPlan{Name: "M42", Year: 2024, Months: make([]*plan.DSO, 12), Best: 1}
	for i := range y.Months {
		if i == 5 {
			continue
		}
		d := dso("M42", i, -time.Hour, 30, astro.South, visibility.MoonScore{Passes: i%2 == 1, Top: i == 1})
		d.Window.Date = time.Date(2024, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		y.Months[i] = d
	}
	return y
}

func TestWriteYearChart(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYearChart(&buf, testYear(), 24, false); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 14 {
		t.Fatalf("chart has %d lines, want title + 12 months + axis", len(lines))
	}
	if lines[0] != "M42 2024" {
		t.Errorf("title = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "01.02 23:00") || !strings.HasSuffix(lines[2], "*") {
		t.Errorf("best month line = %q", lines[2])
	}
	if !strings.HasPrefix(lines[6], "Jun") {
		t.Errorf("missing month line = %q", lines[6])
	}
	if got := utf8.RuneCountInString(strings.TrimSpace(lines[13])); got == 0 {
		t.Error("axis line is empty")
	}
}

func TestHourAxis(t *testing.T) {
	axis := hourAxis(48)
	if len(axis) != 48 {
		t.Errorf("len = %d", len(axis))
	}
	if !strings.HasPrefix(axis, "12") || !strings.HasSuffix(axis, "12") || !strings.Contains(axis, " 0 ") {
		t.Errorf("axis = %q", axis)
	}
}

func TestYearMessage(t *testing.T) {
	msg := YearMessage(testLoc, testYear())
	for _, s := range []string{"M42 2024 at Frankfurt", "Jun: not evaluated", "01.02: 30 in S at 23:00 *", "Best: 01.02 23:00"} {
		if !strings.Contains(msg, s) {
			t.Errorf("YearMessage() missing %q:\n%s", s, msg)
		}
	}
}

func TestExportNight(t *testing.T) {
	gen := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	e := ExportNight(testNight(true), gen)

	var buf bytes.Buffer
	if err := e.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["catalogue"] != "Messier" || decoded["date"] != "2024-03-01" {
		t.Errorf("header fields = %v %v", decoded["catalogue"], decoded["date"])
	}
	if _, ok := decoded["sunset"]; ok {
		t.Error("zero sunset should be omitted")
	}

	if len(e.Astro) != 1 || e.Astro[0].Position != 42 || !e.Astro[0].Moon.Top {
		t.Errorf("astronomical = %+v", e.Astro)
	}
	if e.Invisible[0].PeakTime != nil || e.Invisible[0].Direction != "-" {
		t.Errorf("invisible = %+v", e.Invisible[0])
	}
	if len(e.Failures) != 1 || e.Failures[0].Error != catalog.ErrNotFound.Error() {
		t.Errorf("failures = %+v", e.Failures)
	}
}

func TestExportYear(t *testing.T) {
	e := ExportYear(testYear(), testLoc, time.Now())
	if len(e.Months) != 12 {
		t.Fatalf("months = %d", len(e.Months))
	}
	if e.Best != "2024-02-01" {
		t.Errorf("Best = %q", e.Best)
	}
	if e.Months[5].DSO != nil || e.Months[5].Date != "2024-06-01" {
		t.Errorf("June = %+v", e.Months[5])
	}
	if e.Months[1].Color != "#00BFFF" || e.Months[1].Label != "01.02 23:00" {
		t.Errorf("February = %+v", e.Months[1])
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "night.json")
	if err := WriteFile(path, ExportNight(testNight(false), time.Now())); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Error("file is not valid JSON")
	}

	if err := WriteFile(path, failingExport{}); err == nil {
		t.Error("WriteFile should report encoder errors")
	}
}

type failingExport struct{}

func (failingExport) WriteJSON(io.Writer) error {
	return errors.New("boom")
}

func TestResample_Sparse(t *testing.T) {
	for _, n := range []int{1, 5, 28, 47} {
		tr := generateTrace(n+1, 10, 60)
		got := resample(tr.Samples[:n], ChartWidth)
		if len(got) != ChartWidth {
			t.Fatalf("n=%d: len = %d", n, len(got))
		}
		for i, v := range got {
			if math.IsNaN(v) || v < 10 || v > 60 {
				t.Errorf("n=%d: column %d = %v", n, i, v)
			}
		}
	}
}

func TestBlockIndex_NaN(t *testing.T) {
	if got := blockIndex(math.NaN()); got != 0 {
		t.Errorf("blockIndex(NaN) = %d, want 0", got)
	}
}

func TestWriteAltitudeChart_ShortNight(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		minutes time.Duration
	}{
		{"40 min at 1000 samples", 1000, 40},
		{"4 h at 60 samples", 60, 240},
		{"2 h at 300 samples", 300, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := dso("M57", 56, 0, 40, astro.South, visibility.MoonScore{Evaluated: true})
			d.Trace = generateTrace(tt.samples, 0, 60)
			half := tt.minutes * time.Minute / 2
			d.Window.Nautical = night.Interval{Start: midnight.Add(-half), End: midnight.Add(half), Defined: true}

			var buf bytes.Buffer
			if err := WriteAltitudeChart(&buf, []*plan.DSO{d}, ChartWidth, false); err != nil {
				t.Fatal(err)
			}
			line := strings.TrimRight(buf.String(), "\n")
			if !strings.HasPrefix(line, "M57") {
				t.Fatalf("chart line = %q", line)
			}
			blocks := 0
			for _, r := range line {
				for _, b := range sparkBlocks {
					if r == b {
						blocks++
					}
				}
			}
			if blocks != ChartWidth {
				t.Errorf("chart has %d blocks, want %d", blocks, ChartWidth)
			}
		})
	}
}
