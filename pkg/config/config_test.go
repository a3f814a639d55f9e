package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestConfig_YAMLFieldNames(t *testing.T) {
	data := `
bundle:
  git:
    url: "https://example.com/bundles.git"
    path: "dist/parsemd.js"
    auth:
      type: "ssh"
      ssh_key_path: "/keys/id_ed25519"
engine:
  max_call_stack: 2048
cache:
  max_entries: 50
  prune_schedule: "@hourly"
  sqlite:
    busy_timeout: "2s"
    journal_mode: "DELETE"
  postgres:
    max_open_conns: 8
telemetry:
  logging:
    add_source: true
    max_size_mb: 5
  metrics:
    duration_buckets: [0.1, 1]
    input_size_buckets: [10, 100]
  tracing:
    service_name: "mdast-ci"
    sample_ratio: 0.25
`
	var cfg Config
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if cfg.Bundle.Git.Path != "dist/parsemd.js" || cfg.Bundle.Git.Auth.SSHKeyPath != "/keys/id_ed25519" {
		t.Errorf("bundle.git = %+v", cfg.Bundle.Git)
	}
	if cfg.Telemetry.Tracing.ServiceName != "mdast-ci" || cfg.Telemetry.Tracing.SampleRatio != 0.25 {
		t.Errorf("tracing = %+v", cfg.Telemetry.Tracing)
	}
	if cfg.Engine.MaxCallStack != 2048 {
		t.Errorf("max_call_stack = %d", cfg.Engine.MaxCallStack)
	}
	if cfg.Cache.MaxEntries != 50 || cfg.Cache.PruneSchedule != "@hourly" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Cache.SQLite.BusyTimeout != 2*time.Second || cfg.Cache.SQLite.JournalMode != "DELETE" {
		t.Errorf("sqlite = %+v", cfg.Cache.SQLite)
	}
	if cfg.Cache.Postgres.MaxOpenConns != 8 {
		t.Errorf("max_open_conns = %d", cfg.Cache.Postgres.MaxOpenConns)
	}
	if !cfg.Telemetry.Logging.AddSource || cfg.Telemetry.Logging.MaxSizeMB != 5 {
		t.Errorf("logging = %+v", cfg.Telemetry.Logging)
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) != 2 || len(cfg.Telemetry.Metrics.InputSizeBuckets) != 2 {
		t.Errorf("metrics = %+v", cfg.Telemetry.Metrics)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		t.Errorf("expected valid config: %v", err)
	}
}

func TestConfig_SecretFields(t *testing.T) {
	cfg := Default()
	fields := cfg.SecretFields()

	want := []string{
		"bundle.git.auth.token",
		"bundle.git.auth.ssh_key_passphrase",
		"cache.postgres.dsn",
		"cache.redis.password",
	}
	if len(fields) != len(want) {
		t.Fatalf("got %d fields, want %d", len(fields), len(want))
	}
	for _, name := range want {
		if fields[name] == nil {
			t.Errorf("missing field %s", name)
		}
	}

	*fields["cache.redis.password"] = "resolved"
	if cfg.Cache.Redis.Password != "resolved" {
		t.Error("SecretFields should point into the config")
	}
}
