// Package config provides configuration management for mdast.
//
// This package handles loading, validating, and defaulting configuration from
// YAML files with environment variable overrides. Every field has a usable
// default, so running without a file is the common case.
//
// # Configuration Loading
//
// Configuration can be loaded in three ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("mdast.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("mdast.yaml")
//
//  3. As the CLI does, from an optional path:
//     cfg, err := config.Resolve(flagPath)
//
// Resolve falls back to $MDAST_CONFIG when the path is empty and to the
// defaults when neither is set.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention MDAST_SECTION_FIELD.
// For example:
//
//   - MDAST_BUNDLE_PATH overrides bundle.path
//   - MDAST_OUTPUT_INDENT overrides output.indent
//   - MDAST_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
// Command-line flags take precedence over both.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// A zero output.indent in a file means the default width; use output.compact
// for unindented output.
//
// # Validation
//
// Validation errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - output.indent: must be between 0 and 16
//	  - cache.backend: invalid backend "mongo" (must be memory, sqlite, postgres, or redis)
//
// # Example Configuration
//
//	bundle:
//	  path: "./vendor/parsemd.js"
//
//	engine:
//	  timeout: "5s"
//
//	output:
//	  indent: 4
//	  validate: true
//
//	cache:
//	  enabled: true
//	  backend: "sqlite"
//	  sqlite:
//	    path: "./mdast-cache.db"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
