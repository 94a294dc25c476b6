// Package metrics provides Prometheus metrics for CodeScope monitoring.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	instance *Metrics
)

// Metrics holds all Prometheus metric collectors.
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Model fallback orchestration
	AIAttemptsTotal   *prometheus.CounterVec
	AIFallbacksTotal  *prometheus.CounterVec
	AIWalkDuration    *prometheus.HistogramVec
	AIExhaustedTotal  prometheus.Counter

	// Analysis result cache
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

// Get returns the singleton Metrics instance.
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "codescope_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),

		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codescope_http_request_duration_seconds",
			Help:    "HTTP request duration by method and path",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),

		AIAttemptsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "codescope_ai_attempts_total",
			Help: "Candidate attempts by model and outcome",
		}, []string{"model", "outcome"}),

		AIFallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "codescope_ai_fallbacks_total",
			Help: "Roster advances past a failed model",
		}, []string{"model"}),

		AIWalkDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codescope_ai_walk_duration_seconds",
			Help:    "Full roster walk duration by task shape",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"shape"}),

		AIExhaustedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "codescope_ai_roster_exhausted_total",
			Help: "Orchestration runs that failed every candidate",
		}),

		CacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "codescope_cache_hits_total",
			Help: "Analysis cache hits",
		}),

		CacheMissesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "codescope_cache_misses_total",
			Help: "Analysis cache misses",
		}),
	}
}
