package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "output.indent").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// MaxIndent is the widest accepted pretty-print indentation.
const MaxIndent = 16

var identPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	// Validate bundle configuration
	errs = append(errs, validateBundle(&cfg.Bundle)...)

	// Validate engine configuration
	errs = append(errs, validateEngine(&cfg.Engine)...)

	// Validate output configuration
	errs = append(errs, validateOutput(&cfg.Output)...)

	// Validate cache configuration
	errs = append(errs, validateCache(&cfg.Cache)...)

	// Validate watch configuration
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "watch.debounce",
			Message: "must not be negative",
		})
	}

	// Validate telemetry configuration
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateBundle(cfg *BundleConfig) []FieldError {
	var errs []FieldError

	if cfg.Entry == "" {
		errs = append(errs, FieldError{
			Field:   "bundle.entry",
			Message: "entry function name is required",
		})
	} else if !identPattern.MatchString(cfg.Entry) {
		errs = append(errs, FieldError{
			Field:   "bundle.entry",
			Message: fmt.Sprintf("%q is not a valid identifier", cfg.Entry),
		})
	}

	if cfg.Git.URL != "" && cfg.Path == "" {
		if cfg.Git.Path == "" {
			errs = append(errs, FieldError{
				Field:   "bundle.git.path",
				Message: "bundle path inside the repository is required",
			})
		}
		if cfg.Git.Depth < 0 {
			errs = append(errs, FieldError{
				Field:   "bundle.git.depth",
				Message: "must not be negative",
			})
		}
		if cfg.Git.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   "bundle.git.timeout",
				Message: "must not be negative",
			})
		}
		switch cfg.Git.Auth.Type {
		case "none", "":
		case "token":
			if cfg.Git.Auth.Token == "" {
				errs = append(errs, FieldError{
					Field:   "bundle.git.auth.token",
					Message: "token is required for token auth",
				})
			}
		case "ssh":
			if cfg.Git.Auth.SSHKeyPath == "" {
				errs = append(errs, FieldError{
					Field:   "bundle.git.auth.ssh_key_path",
					Message: "key path is required for ssh auth",
				})
			}
		default:
			errs = append(errs, FieldError{
				Field:   "bundle.git.auth.type",
				Message: fmt.Sprintf("invalid auth type %q (must be none, token, or ssh)", cfg.Git.Auth.Type),
			})
		}
	}

	return errs
}

func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.timeout",
			Message: "must not be negative",
		})
	}
	if cfg.MaxCallStack < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.max_call_stack",
			Message: "must not be negative",
		})
	}
	if cfg.MaxDepth <= 0 {
		errs = append(errs, FieldError{
			Field:   "engine.max_depth",
			Message: "must be positive",
		})
	}

	return errs
}

func validateOutput(cfg *OutputConfig) []FieldError {
	var errs []FieldError

	if cfg.Indent < 0 || cfg.Indent > MaxIndent {
		errs = append(errs, FieldError{
			Field:   "output.indent",
			Message: fmt.Sprintf("must be between 0 and %d", MaxIndent),
		})
	}

	switch cfg.Color {
	case "auto", "always", "never":
	default:
		errs = append(errs, FieldError{
			Field:   "output.color",
			Message: fmt.Sprintf("invalid color mode %q (must be auto, always, or never)", cfg.Color),
		})
	}

	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	if cfg.TTL < 0 {
		errs = append(errs, FieldError{
			Field:   "cache.ttl",
			Message: "must not be negative",
		})
	}
	if cfg.MaxEntries < 0 {
		errs = append(errs, FieldError{
			Field:   "cache.max_entries",
			Message: "must not be negative",
		})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "cache.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "cache.sqlite.path",
				Message: "path is required for sqlite backend",
			})
		}
		if cfg.SQLite.Driver != "sqlite" && cfg.SQLite.Driver != "sqlite3" {
			errs = append(errs, FieldError{
				Field:   "cache.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q (must be sqlite or sqlite3)", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "cache.sqlite.busy_timeout",
				Message: "must not be negative",
			})
		}
	case "postgres":
		if cfg.Postgres.DSN == "" {
			errs = append(errs, FieldError{
				Field:   "cache.postgres.dsn",
				Message: "dsn is required for postgres backend",
			})
		}
		if cfg.Postgres.MaxOpenConns < 0 {
			errs = append(errs, FieldError{
				Field:   "cache.postgres.max_open_conns",
				Message: "must not be negative",
			})
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			errs = append(errs, FieldError{
				Field:   "cache.redis.addr",
				Message: "address is required for redis backend",
			})
		}
		if cfg.Redis.DB < 0 {
			errs = append(errs, FieldError{
				Field:   "cache.redis.db",
				Message: "must not be negative",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "cache.backend",
			Message: fmt.Sprintf("invalid backend %q (must be memory, sqlite, postgres, or redis)", cfg.Backend),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be json, text, or console)", cfg.Logging.Format),
		})
	}

	if cfg.Logging.File != "" {
		if cfg.Logging.MaxSizeMB < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.logging.max_size_mb",
				Message: "must not be negative",
			})
		}
		if cfg.Logging.MaxBackups < 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.logging.max_backups",
				Message: "must not be negative",
			})
		}
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Namespace == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.namespace",
				Message: "namespace is required when metrics are enabled",
			})
		}
		if !increasing(cfg.Metrics.DurationBuckets) {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.duration_buckets",
				Message: "buckets must be strictly increasing",
			})
		}
		if !increasing(cfg.Metrics.InputSizeBuckets) {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.input_size_buckets",
				Message: "buckets must be strictly increasing",
			})
		}
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (must be always, never, or ratio)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: "must be between 0.0 and 1.0",
			})
		}
	}

	return errs
}

func increasing(buckets []float64) bool {
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return false
		}
	}
	return true
}
