// Package metrics exposes planner and API counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Evaluation outcomes.
const (
	ResultOK         = "ok"
	ResultUnresolved = "unresolved"
	ResultEphemeris  = "ephemeris"
	ResultError      = "error"
)

var (
	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dsobest_evaluations_total",
			Help: "Total number of DSO evaluations by outcome.",
		},
		[]string{"result"},
	)

	resolveDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dsobest_resolve_duration_seconds",
			Help:    "Name resolution duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	planDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dsobest_plan_duration_seconds",
			Help:    "Duration of a planning run in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"mode"},
	)

	bucketSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dsobest_ranked_dsos",
			Help: "Number of DSOs per bucket in the last ranking.",
		},
		[]string{"bucket"},
	)

	astronomicalFallback = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dsobest_astronomical_fallback",
			Help: "1 if the last night had no astronomical darkness and used the nautical window.",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dsobest_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dsobest_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

func init() {
	prometheus.MustRegister(evaluationsTotal)
	prometheus.MustRegister(resolveDurationSeconds)
	prometheus.MustRegister(planDurationSeconds)
	prometheus.MustRegister(bucketSize)
	prometheus.MustRegister(astronomicalFallback)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
}

// RecordEvaluation counts one DSO evaluation.
func RecordEvaluation(result string) {
	evaluationsTotal.WithLabelValues(result).Inc()
}

// ObserveResolve records a name resolution.
func ObserveResolve(source string, d time.Duration) {
	resolveDurationSeconds.WithLabelValues(source).Observe(d.Seconds())
}

// ObservePlan records a planning run ("tonight" or "year").
func ObservePlan(mode string, d time.Duration) {
	planDurationSeconds.WithLabelValues(mode).Observe(d.Seconds())
}

// SetRanking publishes the bucket sizes of a ranking.
func SetRanking(astronomical, nautical, invisible int) {
	bucketSize.WithLabelValues("astronomical").Set(float64(astronomical))
	bucketSize.WithLabelValues("nautical").Set(float64(nautical))
	bucketSize.WithLabelValues("invisible").Set(float64(invisible))
}

// SetFallback publishes whether the astronomical window fell back to nautical.
func SetFallback(fallback bool) {
	if fallback {
		astronomicalFallback.Set(1)
		return
	}
	astronomicalFallback.Set(0)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// WriteTextfile dumps the default registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// GinMiddleware records request count and duration for each request.
// Paths are labelled by route template so parameters don't explode cardinality.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "other"
		}
		code := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(path, c.Request.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
