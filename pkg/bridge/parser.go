package bridge

import (
	"context"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/mdast/pkg/ast"
	"mercator-hq/mdast/pkg/bundle"
	"mercator-hq/mdast/pkg/errors"
	"mercator-hq/mdast/pkg/telemetry/tracing"
)

// Parser converts Markdown text to a syntax tree using one Handle.
//
// Like Handle, a Parser is not safe for concurrent use.
type Parser struct {
	handle *Handle
	opts   Options
}

// NewParser loads src and returns a parser that owns the resulting handle.
func NewParser(src bundle.Source, opts Options) (*Parser, error) {
	return NewParserContext(context.Background(), src, opts)
}

// NewParserContext is NewParser with the initialization span parented to ctx.
func NewParserContext(ctx context.Context, src bundle.Source, opts Options) (*Parser, error) {
	h, err := LoadContext(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	return &Parser{handle: h, opts: h.opts}, nil
}

// Bundle returns the bundle the parser runs.
func (p *Parser) Bundle() *bundle.Bundle {
	return p.handle.Bundle()
}

// Close releases the parser's engine.
func (p *Parser) Close() error {
	return p.handle.Close()
}

// Parse converts input, which must be a string or UTF-8 encoded []byte, to
// a tree rooted at a node of type "root".
func (p *Parser) Parse(input any) (*ast.Node, error) {
	return p.ParseContext(context.Background(), input)
}

// ParseContext is Parse with cancellation. An expired or cancelled context
// interrupts the script and fails with EngineRuntimeError.
func (p *Parser) ParseContext(ctx context.Context, input any) (*ast.Node, error) {
	ctx, span := p.opts.Tracer.Start(ctx, tracing.SpanParse)
	defer span.End()
	tracing.SetBundleAttributes(span, p.handle.bundle)

	start := time.Now()

	text, err := textOf(input)
	if err != nil {
		p.record(err, start, 0)
		tracing.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(tracing.AttrInputBytes, len(text)))

	tree, err := p.parse(ctx, text)
	p.record(err, start, len(text))
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	nodes := ast.Count(tree)
	span.SetAttributes(attribute.Int(tracing.AttrNodes, nodes))
	p.opts.Metrics.RecordNodes(nodes)
	p.opts.Logger.Debug("parse completed",
		"chars", utf8.RuneCountInString(text),
		"children", len(tree.Children),
		"duration", time.Since(start),
	)
	return tree, nil
}

func (p *Parser) parse(ctx context.Context, text string) (*ast.Node, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	v, err := p.handle.Call(ctx, text)
	if err != nil {
		return nil, err
	}
	return Convert(v)
}

func (p *Parser) record(err error, start time.Time, size int) {
	kind, _ := errors.KindOf(err)
	p.opts.Metrics.RecordParse(string(kind), time.Since(start), size)
}

// textOf validates parse input before anything reaches the engine.
func textOf(input any) (string, error) {
	switch x := input.(type) {
	case string:
		return x, nil
	case []byte:
		if !utf8.Valid(x) {
			return "", errors.New(errors.KindInputType, "input bytes are not valid UTF-8")
		}
		return string(x), nil
	case nil:
		return "", errors.New(errors.KindInputType, "expected text, got nil")
	default:
		return "", errors.New(errors.KindInputType, "expected text, got %T", input)
	}
}
