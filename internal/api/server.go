// Package api serves planned nights and years over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
	"github.com/yetanothergithubaccount/DSObest/internal/catalog"
	"github.com/yetanothergithubaccount/DSObest/internal/config"
	"github.com/yetanothergithubaccount/DSObest/internal/logging"
	"github.com/yetanothergithubaccount/DSObest/internal/metrics"
	"github.com/yetanothergithubaccount/DSObest/internal/plan"
	"github.com/yetanothergithubaccount/DSObest/internal/report"
	"github.com/yetanothergithubaccount/DSObest/internal/state"
	"github.com/yetanothergithubaccount/DSObest/internal/storage"
	"github.com/yetanothergithubaccount/DSObest/internal/version"
)

// Planner plans nights and years.
type Planner interface {
	Tonight(ctx context.Context, date time.Time, names []string) (*plan.Result, error)
	Year(ctx context.Context, name string, year int) (*plan.YearPlan, error)
}

// NightStore persists nightly results.
type NightStore interface {
	SaveNight(ctx context.Context, date, location string, recs []storage.NightRecord) error
	GetNight(ctx context.Context, date, location string) ([]storage.NightRecord, error)
	ListNights(ctx context.Context, limit int) ([]storage.NightSummary, error)
}

type Server struct {
	router   *gin.Engine
	server   *http.Server
	planner  Planner
	store    NightStore
	state    *state.Manager
	location config.Location
	port     int
	log      *logging.Logger
	now      func() time.Time
}

type ServerConfig struct {
	Port     int
	Planner  Planner
	Store    NightStore // optional
	State    *state.Manager
	Location config.Location
	Logger   *logging.Logger
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.GinMiddleware())

	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	st := cfg.State
	if st == nil {
		st = state.NewManager(state.DefaultConfig())
	}

	s := &Server{
		router:   router,
		planner:  cfg.Planner,
		store:    cfg.Store,
		state:    st,
		location: cfg.Location,
		port:     cfg.Port,
		log:      log,
		now:      time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.router.Group("/api/v1")
	{
		api.GET("/tonight", s.tonightHandler)
		api.GET("/best/:name", s.bestHandler)
		api.GET("/results", s.nightsHandler)
		api.GET("/results/:date", s.resultsHandler)
		api.GET("/events", s.eventsHandler)
	}
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.router,
	}

	s.log.Info("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthHandler(c *gin.Context) {
	snap := s.state.Snapshot()
	resp := gin.H{
		"status":    "healthy",
		"version":   version.Version,
		"location":  s.location.Name,
		"nights":    len(snap.Nights),
		"storage":   s.store != nil,
		"timestamp": s.now(),
	}
	if !snap.LastRun.IsZero() {
		resp["last_run"] = snap.LastRun
	}
	if snap.LastError != nil {
		resp["last_error"] = snap.LastError.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// tonightHandler plans a night. Query: date, catalogue, dso, moon, top,
// direction, refresh.
func (s *Server) tonightHandler(c *gin.Context) {
	tz := s.location.TZ()
	date, err := plan.ParseDate(c.Query("date"), tz, s.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cat, names, err := targets(c.DefaultQuery("catalogue", catalog.Messier.Name), c.Query("dso"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := date.Format(storage.DateLayout) + "/" + cat
	if dso := c.Query("dso"); dso != "" {
		key += "/" + catalog.NormalizeName(dso)
	}

	cached, fresh := s.state.Night(key)
	if !fresh || c.Query("refresh") == "true" {
		res, err := s.planner.Tonight(c.Request.Context(), date, names)
		if err != nil {
			s.state.RecordFailure(key, err)
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		cached = state.Night{Result: res, Ranking: plan.Rank(res.DSOs, plan.NoFilter), PlannedAt: s.now()}
		s.state.PutNight(key, res, cached.Ranking)
		s.persist(c.Request.Context(), date, cat, cached.Ranking)
	}

	ranking := plan.Rank(cached.Result.DSOs, filter)
	n := report.NewNight(s.location, cat, cached.Result, ranking, filter.Moon || filter.TopOnly)
	c.JSON(http.StatusOK, report.ExportNight(n, cached.PlannedAt))
}

func (s *Server) persist(ctx context.Context, date time.Time, cat string, r plan.Ranking) {
	if s.store == nil {
		return
	}
	recs := storage.NightRecords(date, s.location.Name, cat, r)
	if err := s.store.SaveNight(ctx, date.Format(storage.DateLayout), s.location.Name, recs); err != nil {
		s.log.Warn("save night %s: %v", date.Format(storage.DateLayout), err)
	}
}

// bestHandler plans a year for one DSO. Query: year.
func (s *Server) bestHandler(c *gin.Context) {
	name := catalog.NormalizeName(c.Param("name"))
	year := s.now().In(s.location.TZ()).Year()
	if y := c.Query("year"); y != "" {
		v, err := strconv.Atoi(y)
		if err != nil || v < 1900 || v > 2100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'year'"})
			return
		}
		year = v
	}

	key := fmt.Sprintf("%s/%d", name, year)
	cached, fresh := s.state.Year(key)
	if !fresh {
		start := s.now()
		yp, err := s.planner.Year(c.Request.Context(), name, year)
		if err != nil {
			s.state.RecordFailure(key, err)
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		s.state.PutYear(key, yp, s.now().Sub(start))
		cached = state.Year{Plan: yp, PlannedAt: s.now()}
	}
	c.JSON(http.StatusOK, report.ExportYear(cached.Plan, s.location, cached.PlannedAt))
}

func (s *Server) resultsHandler(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage is disabled"})
		return
	}
	date, err := plan.ParseDate(c.Param("date"), s.location.TZ(), s.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recs, err := s.store.GetNight(c.Request.Context(), date.Format(storage.DateLayout), c.Query("location"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(recs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No results for " + date.Format(storage.DateLayout)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":    date.Format(storage.DateLayout),
		"count":   len(recs),
		"results": recs,
	})
}

func (s *Server) nightsHandler(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage is disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	nights, err := s.store.ListNights(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, nights)
}

func (s *Server) eventsHandler(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if n <= 0 {
		n = 20
	}
	c.JSON(http.StatusOK, s.state.RecentEvents(n))
}

func parseFilter(c *gin.Context) (plan.Filter, error) {
	f := plan.NoFilter
	f.Moon = c.Query("moon") == "true"
	f.TopOnly = c.Query("top") == "true"
	if d := c.Query("direction"); d != "" {
		dir, ok := astro.ParseDirection(d)
		if !ok {
			return f, fmt.Errorf("invalid direction %q", d)
		}
		f.Direction = dir
	}
	return f, nil
}

// targets returns the catalogue name and the objects to plan.
func targets(catalogue, dso string) (string, []string, error) {
	cat, err := catalog.Lookup(catalogue)
	if err != nil {
		return "", nil, err
	}
	if dso = strings.TrimSpace(dso); dso != "" {
		return cat.Name, []string{dso}, nil
	}
	return cat.Name, cat.Objects, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
