package config

import "time"

// Default values for configuration fields.
const (
	// Bundle defaults
	DefaultBundleEntry      = "parseMd"
	DefaultBundleGitRef     = "main"
	DefaultBundleGitTimeout = 60 * time.Second
	DefaultBundleGitAuth    = "none"

	// Engine defaults
	DefaultEngineMaxDepth = 512

	// Output defaults
	DefaultOutputIndent = 2
	DefaultOutputColor  = "auto"
	DefaultOutputStyle  = "monokai"

	// Cache defaults
	DefaultCacheBackend           = "memory"
	DefaultCacheTTL               = 24 * time.Hour
	DefaultCacheMaxEntries        = 10000
	DefaultCachePruneSchedule     = "*/15 * * * *"
	DefaultCacheSQLitePath        = "mdast-cache.db"
	DefaultCacheSQLiteDriver      = "sqlite"
	DefaultCacheSQLiteBusyTimeout = 5 * time.Second
	DefaultCacheSQLiteJournalMode = "WAL"
	DefaultCachePostgresMaxConns  = 4
	DefaultCacheRedisAddr         = "localhost:6379"
	DefaultCacheRedisPrefix       = "mdast:"

	// Watch defaults
	DefaultWatchDebounce = 200 * time.Millisecond

	// Telemetry defaults
	DefaultLoggingLevel      = "warn"
	DefaultLoggingFormat     = "console"
	DefaultLoggingMaxSizeMB  = 10
	DefaultLoggingMaxBackups = 3
	DefaultLoggingMaxAgeDays = 28
	DefaultMetricsNamespace  = "mdast"
	DefaultMetricsSubsystem  = "parser"
	DefaultTracingEndpoint   = "localhost:4317"
	DefaultTracingService    = "mdast"
	DefaultTracingSampler    = "always"
	DefaultTracingRatio      = 1.0
	DefaultTracingTimeout    = 5 * time.Second

	// Secrets defaults
	DefaultSecretsEnvPrefix = "MDAST_SECRET_"
)

// DefaultDurationBuckets are parse duration histogram buckets in seconds.
var DefaultDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// DefaultInputSizeBuckets are input size histogram buckets in bytes.
var DefaultInputSizeBuckets = []float64{256, 1024, 4096, 16384, 65536, 262144, 1048576}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Bundle defaults
	if cfg.Bundle.Entry == "" {
		cfg.Bundle.Entry = DefaultBundleEntry
	}
	if cfg.Bundle.Git.Ref == "" {
		cfg.Bundle.Git.Ref = DefaultBundleGitRef
	}
	if cfg.Bundle.Git.Timeout == 0 {
		cfg.Bundle.Git.Timeout = DefaultBundleGitTimeout
	}
	if cfg.Bundle.Git.Auth.Type == "" {
		cfg.Bundle.Git.Auth.Type = DefaultBundleGitAuth
	}

	// Engine defaults
	if cfg.Engine.MaxDepth == 0 {
		cfg.Engine.MaxDepth = DefaultEngineMaxDepth
	}

	// Output defaults
	if cfg.Output.Indent == 0 {
		cfg.Output.Indent = DefaultOutputIndent
	}
	if cfg.Output.Color == "" {
		cfg.Output.Color = DefaultOutputColor
	}
	if cfg.Output.Style == "" {
		cfg.Output.Style = DefaultOutputStyle
	}

	applyCacheDefaults(&cfg.Cache)

	// Watch defaults
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}

	// Telemetry defaults
	logging := &cfg.Telemetry.Logging
	if logging.Level == "" {
		logging.Level = DefaultLoggingLevel
	}
	if logging.Format == "" {
		logging.Format = DefaultLoggingFormat
	}
	if logging.MaxSizeMB == 0 {
		logging.MaxSizeMB = DefaultLoggingMaxSizeMB
	}
	if logging.MaxBackups == 0 {
		logging.MaxBackups = DefaultLoggingMaxBackups
	}
	if logging.MaxAgeDays == 0 {
		logging.MaxAgeDays = DefaultLoggingMaxAgeDays
	}

	metrics := &cfg.Telemetry.Metrics
	if metrics.Namespace == "" {
		metrics.Namespace = DefaultMetricsNamespace
	}
	if metrics.Subsystem == "" {
		metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(metrics.DurationBuckets) == 0 {
		metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if len(metrics.InputSizeBuckets) == 0 {
		metrics.InputSizeBuckets = append([]float64(nil), DefaultInputSizeBuckets...)
	}

	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}

	tracing := &cfg.Telemetry.Tracing
	if tracing.Endpoint == "" {
		tracing.Endpoint = DefaultTracingEndpoint
	}
	if tracing.ServiceName == "" {
		tracing.ServiceName = DefaultTracingService
	}
	if tracing.Sampler == "" {
		tracing.Sampler = DefaultTracingSampler
	}
	if tracing.SampleRatio == 0 {
		tracing.SampleRatio = DefaultTracingRatio
	}
	if tracing.Timeout == 0 {
		tracing.Timeout = DefaultTracingTimeout
	}
}

func applyCacheDefaults(cache *CacheConfig) {
	if cache.Backend == "" {
		cache.Backend = DefaultCacheBackend
	}
	if cache.TTL == 0 {
		cache.TTL = DefaultCacheTTL
	}
	if cache.MaxEntries == 0 {
		cache.MaxEntries = DefaultCacheMaxEntries
	}
	if cache.PruneSchedule == "" {
		cache.PruneSchedule = DefaultCachePruneSchedule
	}

	if cache.SQLite.Path == "" {
		cache.SQLite.Path = DefaultCacheSQLitePath
	}
	if cache.SQLite.Driver == "" {
		cache.SQLite.Driver = DefaultCacheSQLiteDriver
	}
	if cache.SQLite.BusyTimeout == 0 {
		cache.SQLite.BusyTimeout = DefaultCacheSQLiteBusyTimeout
	}
	if cache.SQLite.JournalMode == "" {
		cache.SQLite.JournalMode = DefaultCacheSQLiteJournalMode
	}

	if cache.Postgres.MaxOpenConns == 0 {
		cache.Postgres.MaxOpenConns = DefaultCachePostgresMaxConns
	}

	if cache.Redis.Addr == "" {
		cache.Redis.Addr = DefaultCacheRedisAddr
	}
	if cache.Redis.Prefix == "" {
		cache.Redis.Prefix = DefaultCacheRedisPrefix
	}
}
