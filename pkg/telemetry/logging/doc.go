// Package logging provides structured logging for the mdast CLI.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON, text, and console formats
//   - Credential redaction for cache DSNs and passwords
//   - Context fields for run ID, input path, and bundle name
//   - An optional size-rotated log file
//
// Logs go to stderr by default; stdout is reserved for the produced JSON.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "console",
//	})
//
//	ctx := logging.WithRunID(ctx, logging.NewRunID())
//	logger.InfoContext(ctx, "parsed", "nodes", 12)
//
// The underlying *slog.Logger is available through Slog for packages that
// accept one, such as the script engine.
package logging
