// file: internal/metrics/metrics.go
// version: 1.1.0
// guid: 0f6c3a8e-5b1d-4f7a-9d2c-8e4b0a6f1d3c

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	searchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "abs_meta",
		Name:      "searches_total",
		Help:      "Total number of search requests by provider and result source",
	}, []string{"provider", "source"})
	cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "abs_meta",
		Name:      "cache_hits_total",
		Help:      "Total number of search cache hits by provider",
	}, []string{"provider"})
	cacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "abs_meta",
		Name:      "cache_misses_total",
		Help:      "Total number of search cache misses by provider",
	}, []string{"provider"})
	upstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "abs_meta",
		Name:      "upstream_search_duration_seconds",
		Help:      "Histogram of upstream provider search durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10),
	}, []string{"provider"})
	entriesReaped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "abs_meta",
		Name:      "search_entries_reaped_total",
		Help:      "Total number of expired search cache entries reclaimed",
	})
	validationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "abs_meta",
		Name:      "validation_failures_total",
		Help:      "Total number of rejected path parameter validations by provider",
	}, []string{"provider"})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(searchesTotal, cacheHits, cacheMisses,
			upstreamDuration, entriesReaped, validationFailures)
	})
}

// Search lifecycle helpers
func IncSearch(provider, source string) { searchesTotal.WithLabelValues(provider, source).Inc() }
func IncCacheHit(provider string)       { cacheHits.WithLabelValues(provider).Inc() }
func IncCacheMiss(provider string)      { cacheMisses.WithLabelValues(provider).Inc() }
func IncValidationFailure(provider string) {
	validationFailures.WithLabelValues(provider).Inc()
}
func ObserveUpstreamDuration(provider string, d time.Duration) {
	upstreamDuration.WithLabelValues(provider).Observe(d.Seconds())
}
func AddEntriesReaped(n int64) {
	if n > 0 {
		entriesReaped.Add(float64(n))
	}
}
