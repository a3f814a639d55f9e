package metrics

import (
	"mercator-hq/mdast/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks parse cache performance metrics.
//
// Metrics:
//   - mdast_parser_cache_hits_total: Total cache hits by backend
//   - mdast_parser_cache_misses_total: Total cache misses by backend
//   - mdast_parser_cache_entries: Current number of entries in cache
//   - mdast_parser_cache_evictions_total: Total entries removed by pruning
type CacheMetrics struct {
	// Cache hit counter
	hitsTotal *prometheus.CounterVec

	// Cache miss counter
	missesTotal *prometheus.CounterVec

	// Current cache size (entries)
	entries *prometheus.GaugeVec

	// Cache evictions counter
	evictionsTotal *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"backend"},
		),

		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"backend"},
		),

		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_entries",
				Help:      "Current number of entries in cache",
			},
			[]string{"backend"},
		),

		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_evictions_total",
				Help:      "Total number of cache entries removed by pruning",
			},
			[]string{"backend"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		cm.hitsTotal,
		cm.missesTotal,
		cm.entries,
		cm.evictionsTotal,
	)

	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit(backend string) {
	cm.hitsTotal.WithLabelValues(backend).Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss(backend string) {
	cm.missesTotal.WithLabelValues(backend).Inc()
}

// UpdateSize updates the current size of a cache.
func (cm *CacheMetrics) UpdateSize(backend string, size int) {
	cm.entries.WithLabelValues(backend).Set(float64(size))
}

// RecordEvictions records entries removed in one prune pass.
func (cm *CacheMetrics) RecordEvictions(backend string, n int) {
	cm.evictionsTotal.WithLabelValues(backend).Add(float64(n))
}
