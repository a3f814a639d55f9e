package metrics

import (
	"fmt"
	"time"

	"mercator-hq/mdast/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// KindNone labels successful parses.
	KindNone = "none"
)

// Collector owns every Prometheus metric recorded by mdast.
//
// All methods are safe on a nil *Collector and do nothing when metrics are
// disabled, so callers never need to check.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Parse metrics
	parseMetrics *ParseMetrics

	// Engine metrics
	engineMetrics *EngineMetrics

	// Cache metrics
	cacheMetrics *CacheMetrics
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is used.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "mdast",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}
	if len(cfg.InputSizeBuckets) == 0 {
		cfg.InputSizeBuckets = append([]float64(nil), config.DefaultInputSizeBuckets...)
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	// Initialize metric subsystems
	c.parseMetrics = NewParseMetrics(cfg, registry)
	c.engineMetrics = NewEngineMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordParse records a completed parse call.
//
// Parameters:
//   - kind: Error kind of a failed parse, empty on success
//   - duration: Time spent in the bridge, including conversion
//   - inputBytes: Size of the Markdown text
func (c *Collector) RecordParse(kind string, duration time.Duration, inputBytes int) {
	if !c.enabled() {
		return
	}

	status := StatusSuccess
	if kind != "" {
		status = StatusError
	} else {
		kind = KindNone
	}
	c.parseMetrics.RecordParse(status, kind, duration, inputBytes)
}

// RecordNodes records the node count of the last produced tree.
func (c *Collector) RecordNodes(n int) {
	if !c.enabled() {
		return
	}

	c.parseMetrics.SetNodes(n)
}

// RecordEngineInit records one bundle load and evaluation.
func (c *Collector) RecordEngineInit(err error, duration time.Duration) {
	if !c.enabled() {
		return
	}

	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	c.engineMetrics.RecordInit(status, duration)
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(backend string) {
	if !c.enabled() {
		return
	}

	c.cacheMetrics.RecordHit(backend)
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(backend string) {
	if !c.enabled() {
		return
	}

	c.cacheMetrics.RecordMiss(backend)
}

// UpdateCacheSize updates the current size of a cache.
func (c *Collector) UpdateCacheSize(backend string, size int) {
	if !c.enabled() {
		return
	}

	c.cacheMetrics.UpdateSize(backend, size)
}

// RecordCacheEvictions records entries removed by one prune pass.
func (c *Collector) RecordCacheEvictions(backend string, n int) {
	if !c.enabled() || n <= 0 {
		return
	}

	c.cacheMetrics.RecordEvictions(backend, n)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// WriteTextfile writes every metric in the Prometheus text format to path,
// replacing the file atomically, for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if !c.enabled() || path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %q: %w", path, err)
	}
	return nil
}
