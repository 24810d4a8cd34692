package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
	"github.com/yetanothergithubaccount/DSObest/internal/catalog"
	"github.com/yetanothergithubaccount/DSObest/internal/config"
	"github.com/yetanothergithubaccount/DSObest/internal/night"
	"github.com/yetanothergithubaccount/DSObest/internal/plan"
	"github.com/yetanothergithubaccount/DSObest/internal/report"
	"github.com/yetanothergithubaccount/DSObest/internal/state"
	"github.com/yetanothergithubaccount/DSObest/internal/storage"
	"github.com/yetanothergithubaccount/DSObest/internal/visibility"
)

var testLoc = config.Location{Name: "Frankfurt", Latitude: 50.11, Longitude: 8.68, Elevation: 207, Timezone: "UTC"}

type fakePlanner struct {
	tonight atomic.Int32
	year    atomic.Int32
	names   []string
}

func testWindow(date time.Time) night.Window {
	mid := date.AddDate(0, 0, 1)
	return night.Window{
		Date:         date,
		Midnight:     mid,
		Nautical:     night.Interval{Start: mid.Add(-5 * time.Hour), End: mid.Add(5 * time.Hour), Defined: true},
		Astronomical: night.Interval{Start: mid.Add(-4 * time.Hour), End: mid.Add(4 * time.Hour), Defined: true},
	}
}

func (f *fakePlanner) Tonight(ctx context.Context, date time.Time, names []string) (*plan.Result, error) {
	f.tonight.Add(1)
	f.names = names
	w := testWindow(date)
	res := &plan.Result{Date: date, Window: w}
	for i, name := range names {
		if name == "NGC 9999" {
			res.Failures = append(res.Failures, plan.Outcome{Name: name, Index: i, Err: catalog.ErrNotFound})
			continue
		}
		res.DSOs = append(res.DSOs, &plan.DSO{
			Name:     name,
			Index:    i,
			Metadata: catalog.UnknownMetadata(),
			Window:   w,
			Peak: visibility.Peak{
				Altitude:       40,
				Direction:      astro.North + astro.Direction(i%8),
				Time:           w.Midnight.Add(time.Duration(i%7-3) * time.Hour),
				Visible:        true,
				InNautical:     true,
				InAstronomical: i%7 != 3,
			},
			Moon: visibility.MoonScore{Evaluated: true, Passes: i%2 == 0, Top: i%4 == 0},
		})
	}
	return res, nil
}

func (f *fakePlanner) Year(ctx context.Context, name string, year int) (*plan.YearPlan, error) {
	f.year.Add(1)
	if name != "M42" {
		return nil, &catalog.ResolutionError{Name: name, Err: catalog.ErrNotFound}
	}
	yp := &plan.YearPlan{Name: name, Year: year, Months: make([]*plan.DSO, 12), Best: -1}
	for i := range yp.Months {
		date := time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		yp.Months[i] = &plan.DSO{Name: name, Window: testWindow(date), Peak: visibility.EmptyPeak()}
	}
	return yp, nil
}

func newTestServer(t *testing.T, withStore bool) (*Server, *fakePlanner) {
	t.Helper()
	fp := &fakePlanner{}
	cfg := ServerConfig{Planner: fp, State: state.NewManager(state.DefaultConfig()), Location: testLoc}
	if withStore {
		db, err := storage.Open(filepath.Join(t.TempDir(), "api.db"))
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { db.Close() })
		cfg.Store = db
	}
	s := NewServer(cfg)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC) }
	return s, fp
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, false)
	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" || body["location"] != "Frankfurt" || body["storage"] != false {
		t.Errorf("body = %v", body)
	}
}

func TestTonight(t *testing.T) {
	s, fp := newTestServer(t, true)

	rec := get(t, s, "/api/v1/tonight")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var e report.NightExport
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatal(err)
	}
	if e.Date != "2024-03-01" || e.Catalogue != "Messier" {
		t.Errorf("date/catalogue = %s/%s", e.Date, e.Catalogue)
	}
	if len(fp.names) != 110 {
		t.Errorf("planned %d objects, want the Messier list", len(fp.names))
	}
	if got := len(e.Astro) + len(e.Naut) + len(e.Invisible); got != 110 {
		t.Errorf("exported %d DSOs", got)
	}

	// Served from cache, filters applied per request
	rec = get(t, s, "/api/v1/tonight?date=01.03.2024&top=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if fp.tonight.Load() != 1 {
		t.Errorf("planner called %d times, want 1", fp.tonight.Load())
	}
	var top report.NightExport
	json.Unmarshal(rec.Body.Bytes(), &top)
	for _, d := range append(top.Astro, top.Naut...) {
		if !d.Moon.Top {
			t.Errorf("%s listed without the moon below the horizon", d.Name)
		}
	}

	get(t, s, "/api/v1/tonight?refresh=true")
	if fp.tonight.Load() != 2 {
		t.Errorf("refresh should plan again")
	}

	// Persisted
	rec = get(t, s, "/api/v1/results/2024-03-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("results status = %d: %s", rec.Code, rec.Body.String())
	}
	var stored struct {
		Count int `json:"count"`
	}
	json.Unmarshal(rec.Body.Bytes(), &stored)
	if stored.Count != 110 {
		t.Errorf("stored %d rows, want 110", stored.Count)
	}

	rec = get(t, s, "/api/v1/results")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Frankfurt") {
		t.Errorf("nights = %d %s", rec.Code, rec.Body.String())
	}
}

func TestTonight_SingleDSO(t *testing.T) {
	s, fp := newTestServer(t, false)

	rec := get(t, s, "/api/v1/tonight?dso=NGC%209999&catalogue=caldwell")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(fp.names) != 1 {
		t.Errorf("names = %v", fp.names)
	}
	var e report.NightExport
	json.Unmarshal(rec.Body.Bytes(), &e)
	if e.Catalogue != "Caldwell" || len(e.Failures) != 1 {
		t.Errorf("export = %+v", e)
	}
}

func TestTonight_BadRequests(t *testing.T) {
	s, fp := newTestServer(t, false)

	for _, url := range []string{
		"/api/v1/tonight?date=32.13.2024",
		"/api/v1/tonight?direction=UP",
		"/api/v1/tonight?catalogue=NGC",
	} {
		if rec := get(t, s, url); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", url, rec.Code)
		}
	}
	if fp.tonight.Load() != 0 {
		t.Error("bad requests must not plan")
	}
}

func TestBest(t *testing.T) {
	s, fp := newTestServer(t, false)

	rec := get(t, s, "/api/v1/best/m42?year=2025")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var e report.YearExport
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatal(err)
	}
	if e.Name != "M42" || e.Year != 2025 || len(e.Months) != 12 || e.Best != "" {
		t.Errorf("export = %+v", e)
	}

	get(t, s, "/api/v1/best/M42?year=2025")
	if fp.year.Load() != 1 {
		t.Errorf("year planned %d times, want 1", fp.year.Load())
	}

	if rec := get(t, s, "/api/v1/best/M999"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown DSO status = %d, want 404", rec.Code)
	}
	if rec := get(t, s, "/api/v1/best/M42?year=abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad year status = %d, want 400", rec.Code)
	}

	events := s.state.RecentEvents(10)
	if len(events) != 2 || events[1].Type != state.EventPlanFailed {
		t.Errorf("events = %+v", events)
	}
}

func TestResults(t *testing.T) {
	s, _ := newTestServer(t, false)
	if rec := get(t, s, "/api/v1/results/2024-03-01"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("without storage status = %d, want 503", rec.Code)
	}

	s, _ = newTestServer(t, true)
	if rec := get(t, s, "/api/v1/results/2024-03-05"); rec.Code != http.StatusNotFound {
		t.Errorf("missing night status = %d, want 404", rec.Code)
	}
	if rec := get(t, s, "/api/v1/results/yesterday"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newTestServer(t, false)
	get(t, s, "/health")

	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := fmt.Sprintf(`dsobest_http_requests_total{code="200",method="GET",path="%s"}`, "/health")
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("metrics output missing %s", want)
	}
}
