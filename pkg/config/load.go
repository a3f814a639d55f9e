package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the default
// configuration file path.
const EnvConfigPath = "MDAST_CONFIG"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Apply defaults
	ApplyDefaults(&cfg)

	// Validate
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention MDAST_SECTION_FIELD (e.g., MDAST_OUTPUT_INDENT).
// Environment variables always take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// Resolve returns the effective configuration for a CLI run. The file is
// path, or $MDAST_CONFIG when path is empty; with neither, defaults are used.
// Environment overrides apply in every case.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		return LoadConfigWithEnvOverrides(path)
	}

	cfg := Default()
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format MDAST_SECTION_FIELD. Values that do not
// parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Bundle overrides
	envString("MDAST_BUNDLE_PATH", &cfg.Bundle.Path)
	envString("MDAST_BUNDLE_ENTRY", &cfg.Bundle.Entry)
	envString("MDAST_BUNDLE_GIT_URL", &cfg.Bundle.Git.URL)
	envString("MDAST_BUNDLE_GIT_REF", &cfg.Bundle.Git.Ref)
	envString("MDAST_BUNDLE_GIT_PATH", &cfg.Bundle.Git.Path)
	envString("MDAST_BUNDLE_GIT_AUTH_TOKEN", &cfg.Bundle.Git.Auth.Token)

	// Engine overrides
	envDuration("MDAST_ENGINE_TIMEOUT", &cfg.Engine.Timeout)
	envInt("MDAST_ENGINE_MAX_CALL_STACK", &cfg.Engine.MaxCallStack)
	envInt("MDAST_ENGINE_MAX_DEPTH", &cfg.Engine.MaxDepth)

	// Output overrides
	envInt("MDAST_OUTPUT_INDENT", &cfg.Output.Indent)
	envBool("MDAST_OUTPUT_COMPACT", &cfg.Output.Compact)
	envBool("MDAST_OUTPUT_VALIDATE", &cfg.Output.Validate)
	envString("MDAST_OUTPUT_SCHEMA", &cfg.Output.Schema)
	envString("MDAST_OUTPUT_COLOR", &cfg.Output.Color)
	envString("MDAST_OUTPUT_STYLE", &cfg.Output.Style)

	// Cache overrides
	envBool("MDAST_CACHE_ENABLED", &cfg.Cache.Enabled)
	envString("MDAST_CACHE_BACKEND", &cfg.Cache.Backend)
	envDuration("MDAST_CACHE_TTL", &cfg.Cache.TTL)
	envInt("MDAST_CACHE_MAX_ENTRIES", &cfg.Cache.MaxEntries)
	envString("MDAST_CACHE_PRUNE_SCHEDULE", &cfg.Cache.PruneSchedule)
	envString("MDAST_CACHE_SQLITE_PATH", &cfg.Cache.SQLite.Path)
	envString("MDAST_CACHE_SQLITE_DRIVER", &cfg.Cache.SQLite.Driver)
	envDuration("MDAST_CACHE_SQLITE_BUSY_TIMEOUT", &cfg.Cache.SQLite.BusyTimeout)
	envString("MDAST_CACHE_POSTGRES_DSN", &cfg.Cache.Postgres.DSN)
	envString("MDAST_CACHE_REDIS_ADDR", &cfg.Cache.Redis.Addr)
	envString("MDAST_CACHE_REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	envInt("MDAST_CACHE_REDIS_DB", &cfg.Cache.Redis.DB)
	envString("MDAST_CACHE_REDIS_PREFIX", &cfg.Cache.Redis.Prefix)

	// Watch overrides
	envDuration("MDAST_WATCH_DEBOUNCE", &cfg.Watch.Debounce)

	// Telemetry overrides
	envString("MDAST_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("MDAST_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envString("MDAST_TELEMETRY_LOGGING_FILE", &cfg.Telemetry.Logging.File)
	envBool("MDAST_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("MDAST_TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
	envString("MDAST_TELEMETRY_METRICS_TEXTFILE", &cfg.Telemetry.Metrics.Textfile)
	envString("MDAST_SECRETS_DIR", &cfg.Secrets.Dir)
	envBool("MDAST_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("MDAST_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envString("MDAST_TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			*dst = i
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			*dst = d
		}
	}
}
