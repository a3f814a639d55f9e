package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/mdast/pkg/bundle"
	mderrors "mercator-hq/mdast/pkg/errors"
)

// Span names.
const (
	SpanRun        = "mdast.run"
	SpanEngineInit = "mdast.engine.init"
	SpanParse      = "mdast.parse"
)

// Attribute keys use the "mdast.*" namespace.
const (
	AttrBundleName    = "mdast.bundle.name"
	AttrBundleVersion = "mdast.bundle.version"
	AttrBundleDigest  = "mdast.bundle.digest"
	AttrInput         = "mdast.input"
	AttrInputBytes    = "mdast.input.bytes"
	AttrNodes         = "mdast.tree.nodes"
	AttrCacheHit      = "mdast.cache.hit"
	AttrErrorKind     = "mdast.error.kind"
)

// SetBundleAttributes records which bundle served a span.
func SetBundleAttributes(span trace.Span, b *bundle.Bundle) {
	if b == nil {
		return
	}
	span.SetAttributes(
		attribute.String(AttrBundleName, b.Name),
		attribute.String(AttrBundleVersion, b.Version),
		attribute.String(AttrBundleDigest, b.ShortDigest()),
	)
}

// RecordError marks span as failed. Classified errors also get their kind.
// A nil err leaves the span status unset.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if kind, ok := mderrors.KindOf(err); ok {
		span.SetAttributes(attribute.String(AttrErrorKind, string(kind)))
	}
}
