package bridge

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/mdast/pkg/bundle"
	"mercator-hq/mdast/pkg/config"
	"mercator-hq/mdast/pkg/engine"
	"mercator-hq/mdast/pkg/errors"
	"mercator-hq/mdast/pkg/telemetry/metrics"
	"mercator-hq/mdast/pkg/telemetry/tracing"
)

// Options configure a Handle and the Parser built on it.
type Options struct {
	// Entry is the global function the bundle defines.
	// Default: bundle.DefaultEntry
	Entry string

	// Timeout bounds each parse call. Zero means no deadline.
	Timeout time.Duration

	// MaxCallStackSize limits script recursion. Zero keeps the engine default.
	MaxCallStackSize int

	// MaxDepth limits the nesting of the returned tree.
	// Default: engine.DefaultMaxDepth
	MaxDepth int

	// Factory creates the engine runtime.
	// Default: engine.NewGoja
	Factory engine.Factory

	// Logger receives bridge diagnostics and script console output.
	Logger *slog.Logger

	// Metrics records engine and parse metrics. Nil disables recording.
	Metrics *metrics.Collector

	// Tracer creates engine initialization and parse spans.
	// Default: a noop tracer
	Tracer trace.Tracer
}

// OptionsFromConfig builds Options from the bundle and engine sections.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger, collector *metrics.Collector) Options {
	return Options{
		Entry:            cfg.Bundle.Entry,
		Timeout:          cfg.Engine.Timeout,
		MaxCallStackSize: cfg.Engine.MaxCallStack,
		MaxDepth:         cfg.Engine.MaxDepth,
		Logger:           logger,
		Metrics:          collector,
	}
}

// SourceFromConfig returns the bundle file named in the configuration, then
// a git bundle, and finally the embedded bundle when neither is set.
func SourceFromConfig(cfg *config.Config) bundle.Source {
	if cfg.Bundle.Path != "" {
		return bundle.File(cfg.Bundle.Path)
	}
	if git := cfg.Bundle.Git; git.URL != "" {
		return bundle.Git(bundle.GitOptions{
			URL:     git.URL,
			Ref:     git.Ref,
			Path:    git.Path,
			Dir:     git.Dir,
			Depth:   git.Depth,
			Timeout: git.Timeout,
			Auth: bundle.GitAuth{
				Type:             git.Auth.Type,
				Token:            git.Auth.Token,
				SSHKeyPath:       git.Auth.SSHKeyPath,
				SSHKeyPassphrase: git.Auth.SSHKeyPassphrase,
			},
		})
	}
	return bundle.Embedded()
}

func (o Options) withDefaults() Options {
	if o.Entry == "" {
		o.Entry = bundle.DefaultEntry
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = engine.DefaultMaxDepth
	}
	if o.Factory == nil {
		o.Factory = engine.NewGoja
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer(tracing.InstrumentationName)
	}
	return o
}

// Handle owns one isolated engine context and the compiled entry function.
//
// A Handle is not safe for concurrent use. Calls on one Handle must be
// sequential; concurrent callers each load their own Handle.
type Handle struct {
	bundle  *bundle.Bundle
	runtime engine.Runtime
	entry   engine.Callable
	opts    Options
	closed  bool
}

// Load reads the bundle, starts a fresh engine and compiles the entry
// function. Failures are *errors.Error of kind BundleNotFound or
// EngineInitError.
func Load(src bundle.Source, opts Options) (*Handle, error) {
	return LoadContext(context.Background(), src, opts)
}

// LoadContext is Load with the initialization span parented to ctx.
func LoadContext(ctx context.Context, src bundle.Source, opts Options) (*Handle, error) {
	opts = opts.withDefaults()

	_, span := opts.Tracer.Start(ctx, tracing.SpanEngineInit)
	defer span.End()

	start := time.Now()
	h, err := load(src, opts)
	opts.Metrics.RecordEngineInit(err, time.Since(start))
	tracing.RecordError(span, err)
	if err != nil {
		opts.Logger.Debug("engine initialization failed", "bundle", src.String(), "error", err)
		return nil, err
	}
	tracing.SetBundleAttributes(span, h.bundle)

	opts.Logger.Debug("engine initialized",
		"bundle", h.bundle.Name,
		"version", h.bundle.Version,
		"digest", h.bundle.ShortDigest(),
		"duration", time.Since(start),
	)
	return h, nil
}

func load(src bundle.Source, opts Options) (*Handle, error) {
	b, err := src.Load()
	if err != nil {
		return nil, errors.Translate(errors.StageLoad, err)
	}

	rt, err := opts.Factory(engine.Options{
		MaxCallStackSize: opts.MaxCallStackSize,
		MaxDepth:         opts.MaxDepth,
		Logger:           opts.Logger.With("bundle", b.Name),
	})
	if err != nil {
		return nil, errors.Translate(errors.StageInit, err)
	}

	fn, err := rt.Compile(b.Name, b.Source, opts.Entry)
	if err != nil {
		rt.Close()
		return nil, errors.Translate(errors.StageInit, err)
	}

	return &Handle{
		bundle:  b,
		runtime: rt,
		entry:   fn,
		opts:    opts,
	}, nil
}

// Bundle returns the loaded bundle.
func (h *Handle) Bundle() *bundle.Bundle {
	return h.bundle
}

// Call invokes the entry function with text and returns the raw engine
// value. Failures are *errors.Error of kind EngineRuntimeError or
// UnexpectedResultShape.
func (h *Handle) Call(ctx context.Context, text string) (engine.Value, error) {
	if h.closed {
		return nil, errors.Translate(errors.StageCall, engine.ErrClosed)
	}

	v, err := h.entry.Call(ctx, text)
	if err != nil {
		return nil, errors.Translate(errors.StageCall, err)
	}
	return v, nil
}

// Close releases the engine. Close is idempotent.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	return h.runtime.Close()
}
