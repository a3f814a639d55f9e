// Package tracing exports OpenTelemetry spans for mdast runs.
//
// Tracing is off by default. When enabled, spans are batched and exported
// over OTLP gRPC at exit:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: "otel-collector:4317"
//	    insecure: true
//	    sampler: ratio
//	    sample_ratio: 0.1
//
// A run produces one mdast.run span with mdast.engine.init and mdast.parse
// children. When the process inherits a TRACEPARENT environment variable,
// ContextFromEnv makes the run a child of that trace, so a CI job that
// traces its steps sees each conversion in place.
//
// Sampling strategies:
//   - always: sample every run
//   - never: sample nothing
//   - ratio: sample a fraction of runs by trace ID
package tracing
