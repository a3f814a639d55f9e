package tracing

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/propagation"
)

// Environment variables that carry W3C trace context into a process, as set
// by CI systems and wrappers that trace the commands they launch.
const (
	EnvTraceParent = "TRACEPARENT"
	EnvTraceState  = "TRACESTATE"
)

// ContextFromEnv returns ctx with the remote span context found in
// TRACEPARENT and TRACESTATE, so spans of this run join the caller's trace.
// Without a valid TRACEPARENT, ctx is returned unchanged.
func ContextFromEnv(ctx context.Context) context.Context {
	return ContextFromMap(ctx, map[string]string{
		"traceparent": os.Getenv(EnvTraceParent),
		"tracestate":  os.Getenv(EnvTraceState),
	})
}

// ContextFromMap extracts W3C trace context from carrier.
func ContextFromMap(ctx context.Context, carrier map[string]string) context.Context {
	return propagation.TraceContext{}.Extract(ctx, propagation.MapCarrier(carrier))
}
