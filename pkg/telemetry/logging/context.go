package logging

import (
	"context"

	"github.com/google/uuid"
)

// Context keys for common log fields.
type contextKey string

const (
	// RunIDKey is the context key for the CLI run identifier.
	RunIDKey contextKey = "run_id"

	// InputKey is the context key for the input path ("-" for stdin).
	InputKey contextKey = "input"

	// BundleKey is the context key for the bundle name.
	BundleKey contextKey = "bundle"
)

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the run ID from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithInput adds the input path to the context.
func WithInput(ctx context.Context, input string) context.Context {
	return context.WithValue(ctx, InputKey, input)
}

// GetInput retrieves the input path from the context.
func GetInput(ctx context.Context) string {
	if input, ok := ctx.Value(InputKey).(string); ok {
		return input
	}
	return ""
}

// WithBundle adds the bundle name to the context.
func WithBundle(ctx context.Context, bundle string) context.Context {
	return context.WithValue(ctx, BundleKey, bundle)
}

// GetBundle retrieves the bundle name from the context.
func GetBundle(ctx context.Context) string {
	if bundle, ok := ctx.Value(BundleKey).(string); ok {
		return bundle
	}
	return ""
}

// extractContextFields extracts common fields from context for logging.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}

	var fields []any

	if runID := GetRunID(ctx); runID != "" {
		fields = append(fields, string(RunIDKey), runID)
	}
	if input := GetInput(ctx); input != "" {
		fields = append(fields, string(InputKey), input)
	}
	if bundle := GetBundle(ctx); bundle != "" {
		fields = append(fields, string(BundleKey), bundle)
	}

	return fields
}
