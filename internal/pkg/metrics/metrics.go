// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Mark results recorded by attendance_marks_total
const (
	ResultCreated  = "created"
	ResultUpdated  = "updated"
	ResultConflict = "conflict"
	ResultFailed   = "failed"
)

// Metrics is a set of collectors bound to one registry. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry               *prometheus.Registry
	marks                  *prometheus.CounterVec
	statsRecomputeFailures prometheus.Counter
	httpRequestDuration    *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry together with the Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		marks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_marks_total",
			Help: "Attendance mark attempts by result.",
		}, []string{"result"}),
		statsRecomputeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attendance_stats_recompute_failures_total",
			Help: "Best-effort statistics recomputations that failed after a mark was stored.",
		}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.marks,
		m.statsRecomputeFailures,
		m.httpRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// MarkRecorded counts one mark attempt
func (m *Metrics) MarkRecorded(result string) {
	if m == nil {
		return
	}
	m.marks.WithLabelValues(result).Inc()
}

// StatsRecomputeFailed counts a failed best-effort recomputation
func (m *Metrics) StatsRecomputeFailed() {
	if m == nil {
		return
	}
	m.statsRecomputeFailures.Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware observes request latency. The route label is the matched
// pattern so ids do not explode cardinality.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
