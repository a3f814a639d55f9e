package metrics

import (
	"time"

	"mercator-hq/mdast/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ParseMetrics tracks metrics related to Markdown parsing.
//
// Metrics:
//   - mdast_parser_parses_total: Total parse count by status and error kind
//   - mdast_parser_parse_duration_seconds: Parse duration histogram
//   - mdast_parser_input_size_bytes: Input size histogram
//   - mdast_parser_nodes: Node count of the last successful parse
type ParseMetrics struct {
	// Total parse count
	parsesTotal *prometheus.CounterVec

	// Parse duration histogram
	parseDuration *prometheus.HistogramVec

	// Input size in bytes
	inputSize prometheus.Histogram

	// Nodes in the last tree
	nodes prometheus.Gauge
}

// NewParseMetrics creates and registers parse metrics with the provided registry.
func NewParseMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ParseMetrics {
	pm := &ParseMetrics{
		parsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "parses_total",
				Help:      "Total number of parse calls",
			},
			[]string{"status", "kind"},
		),

		parseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "parse_duration_seconds",
				Help:      "Duration of parse calls in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"status"},
		),

		inputSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "input_size_bytes",
				Help:      "Size of Markdown input in bytes",
				Buckets:   cfg.InputSizeBuckets,
			},
		),

		nodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "nodes",
				Help:      "Number of nodes in the last parsed tree",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		pm.parsesTotal,
		pm.parseDuration,
		pm.inputSize,
		pm.nodes,
	)

	return pm
}

// RecordParse records a completed parse call. kind is empty on success.
func (pm *ParseMetrics) RecordParse(status, kind string, duration time.Duration, inputBytes int) {
	pm.parsesTotal.WithLabelValues(status, kind).Inc()
	pm.parseDuration.WithLabelValues(status).Observe(duration.Seconds())
	pm.inputSize.Observe(float64(inputBytes))
}

// SetNodes records the node count of a produced tree.
func (pm *ParseMetrics) SetNodes(n int) {
	pm.nodes.Set(float64(n))
}

// EngineMetrics tracks bundle loading.
//
// Metrics:
//   - mdast_parser_engine_inits_total: Engine initializations by status
//   - mdast_parser_engine_init_duration_seconds: Load and evaluate time
type EngineMetrics struct {
	initsTotal   *prometheus.CounterVec
	initDuration prometheus.Histogram
}

// NewEngineMetrics creates and registers engine metrics with the provided registry.
func NewEngineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EngineMetrics {
	em := &EngineMetrics{
		initsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "engine_inits_total",
				Help:      "Total number of engine initializations",
			},
			[]string{"status"},
		),

		initDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "engine_init_duration_seconds",
				Help:      "Time to load and evaluate the bundle in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),
	}

	registry.MustRegister(em.initsTotal, em.initDuration)

	return em
}

// RecordInit records one engine initialization.
func (em *EngineMetrics) RecordInit(status string, duration time.Duration) {
	em.initsTotal.WithLabelValues(status).Inc()
	em.initDuration.Observe(duration.Seconds())
}
