// Package metrics holds the Prometheus collectors for Attune.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "attune"

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the engine and the HTTP API.
type Metrics struct {
	ReadingsTotal     *prometheus.CounterVec
	ModelSkipsTotal   *prometheus.CounterVec
	CacheLookupsTotal *prometheus.CounterVec
	OutcomesTotal     *prometheus.CounterVec
	RecomputesTotal   *prometheus.CounterVec
	RecomputeDuration prometheus.Histogram
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// Get returns the process-wide metrics, registering them on first use.
//
// Metrics:
//   - attune_engine_readings_total{alignment}
//   - attune_engine_model_skips_total{model}
//   - attune_engine_cache_lookups_total{result} - hit or miss
//   - attune_engine_outcomes_total{result}
//   - attune_engine_recomputes_total{status} - updated, unchanged or error
//   - attune_engine_recompute_duration_seconds
//   - attune_http_requests_total{method,route,status}
//   - attune_http_request_duration_seconds{method,route}
func Get() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ReadingsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "readings_total",
				Help:      "Readings produced, by alignment.",
			}, []string{"alignment"}),
			ModelSkipsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "model_skips_total",
				Help:      "Models soft-skipped while scoring.",
			}, []string{"model"}),
			CacheLookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "cache_lookups_total",
				Help:      "Reading cache lookups, by result.",
			}, []string{"result"}),
			OutcomesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "outcomes_total",
				Help:      "Outcomes recorded, by result.",
			}, []string{"result"}),
			RecomputesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "recomputes_total",
				Help:      "Personalization recomputes, by status.",
			}, []string{"status"}),
			RecomputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "recompute_duration_seconds",
				Help:      "Duration of personalization recomputes.",
				Buckets:   prometheus.DefBuckets,
			}),
			HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests, by method, route and status.",
			}, []string{"method", "route", "status"}),
			HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method", "route"}),
		}
	})
	return globalMetrics
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
