package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mercator-hq/mdast/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:          true,
		Namespace:        "test",
		Subsystem:        "metrics",
		DurationBuckets:  []float64{0.01, 0.1, 1.0},
		InputSizeBuckets: []float64{100, 1000, 10000},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.config != cfg {
		t.Error("Collector config not set correctly")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	NewCollector(cfg, nil)

	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("Namespace = %q", cfg.Namespace)
	}
	if cfg.Subsystem != config.DefaultMetricsSubsystem {
		t.Errorf("Subsystem = %q", cfg.Subsystem)
	}
	if len(cfg.DurationBuckets) == 0 || len(cfg.InputSizeBuckets) == 0 {
		t.Error("buckets not defaulted")
	}
}

func TestCollector_RecordParse(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	tests := []struct {
		name     string
		kind     string
		duration time.Duration
		size     int
	}{
		{name: "success", kind: "", duration: 5 * time.Millisecond, size: 120},
		{name: "second success", kind: "", duration: 50 * time.Millisecond, size: 5000},
		{name: "runtime error", kind: "EngineRuntimeError", duration: time.Second, size: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector.RecordParse(tt.kind, tt.duration, tt.size)
		})
	}

	parses := collector.parseMetrics.parsesTotal
	if got := testutil.ToFloat64(parses.WithLabelValues(StatusSuccess, KindNone)); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(parses.WithLabelValues(StatusError, "EngineRuntimeError")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(collector.parseMetrics.parseDuration); got != 2 {
		t.Errorf("duration series = %d, want 2", got)
	}

	collector.RecordNodes(7)
	if got := testutil.ToFloat64(collector.parseMetrics.nodes); got != 7 {
		t.Errorf("nodes = %v, want 7", got)
	}
}

func TestCollector_RecordEngineInit(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordEngineInit(nil, 20*time.Millisecond)
	collector.RecordEngineInit(errors.New("syntax"), time.Millisecond)

	inits := collector.engineMetrics.initsTotal
	if got := testutil.ToFloat64(inits.WithLabelValues(StatusSuccess)); got != 1 {
		t.Errorf("success inits = %v", got)
	}
	if got := testutil.ToFloat64(inits.WithLabelValues(StatusError)); got != 1 {
		t.Errorf("error inits = %v", got)
	}
}

func TestCollector_Cache(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordCacheHit("sqlite")
	collector.RecordCacheHit("sqlite")
	collector.RecordCacheMiss("sqlite")
	collector.UpdateCacheSize("sqlite", 42)
	collector.RecordCacheEvictions("sqlite", 3)
	collector.RecordCacheEvictions("sqlite", 0)

	cm := collector.cacheMetrics
	if got := testutil.ToFloat64(cm.hitsTotal.WithLabelValues("sqlite")); got != 2 {
		t.Errorf("hits = %v", got)
	}
	if got := testutil.ToFloat64(cm.missesTotal.WithLabelValues("sqlite")); got != 1 {
		t.Errorf("misses = %v", got)
	}
	if got := testutil.ToFloat64(cm.entries.WithLabelValues("sqlite")); got != 42 {
		t.Errorf("entries = %v", got)
	}
	if got := testutil.ToFloat64(cm.evictionsTotal.WithLabelValues("sqlite")); got != 3 {
		t.Errorf("evictions = %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordParse("", time.Millisecond, 10)
	collector.RecordCacheHit("memory")

	if got := testutil.CollectAndCount(collector.parseMetrics.parsesTotal); got != 0 {
		t.Errorf("disabled collector recorded %d series", got)
	}
	if got := testutil.CollectAndCount(collector.cacheMetrics.hitsTotal); got != 0 {
		t.Errorf("disabled collector recorded %d cache series", got)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var collector *Collector

	collector.RecordParse("", time.Millisecond, 1)
	collector.RecordNodes(1)
	collector.RecordEngineInit(nil, time.Millisecond)
	collector.RecordCacheHit("memory")
	collector.RecordCacheMiss("memory")
	collector.UpdateCacheSize("memory", 1)
	collector.RecordCacheEvictions("memory", 1)

	if collector.Registry() != nil {
		t.Error("nil collector should have no registry")
	}
	if err := collector.WriteTextfile("ignored.prom"); err != nil {
		t.Errorf("WriteTextfile() error = %v", err)
	}
}

func TestCollector_WriteTextfile(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordParse("", 2*time.Millisecond, 64)

	path := filepath.Join(t.TempDir(), "mdast.prom")
	if err := collector.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("textfile not written: %v", err)
	}
	if !strings.Contains(string(data), `test_metrics_parses_total{kind="none",status="success"} 1`) {
		t.Errorf("unexpected textfile contents:\n%s", data)
	}

	err = collector.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "mdast.prom"))
	if err == nil {
		t.Error("expected error writing into a missing directory")
	}
}
