package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/mdast/pkg/ast"
	"mercator-hq/mdast/pkg/bridge"
	"mercator-hq/mdast/pkg/cache"
	"mercator-hq/mdast/pkg/cli"
	"mercator-hq/mdast/pkg/config"
	"mercator-hq/mdast/pkg/secrets"
	"mercator-hq/mdast/pkg/telemetry/logging"
	"mercator-hq/mdast/pkg/telemetry/metrics"
	"mercator-hq/mdast/pkg/telemetry/tracing"
	"mercator-hq/mdast/pkg/watch"
)

// pipeline turns one input document into written output.
type pipeline struct {
	cfg       *config.Config
	opts      *rootOptions
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	logger    *logging.Logger
	metrics   *metrics.Collector
	tracer    *tracing.Tracer
	validator *cli.Validator
	parser    *bridge.Parser
	cached    *cache.CachingParser
	pruner    *cache.Pruner
}

func run(ctx context.Context, opts *rootOptions, cmd *cobra.Command, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	// Argument resolution: no I/O happens before these checks.
	if opts.pretty && opts.compact {
		return cli.NewUsageError("--compact and --pretty cannot be used together")
	}
	if opts.watch && opts.input == cli.StdinName {
		return cli.NewUsageError("--watch requires an input file")
	}
	if opts.indent < 0 || opts.indent > config.MaxIndent {
		return cli.NewUsageError("output.indent: --indent must be between 0 and %d", config.MaxIndent)
	}

	cfg, err := config.Resolve(opts.configPath)
	if err != nil {
		return cli.NewConfigError(configSource(opts.configPath), err.Error())
	}
	applyFlags(cfg, opts, cmd)
	if err := secrets.ResolveConfig(ctx, cfg, nil); err != nil {
		return cli.NewConfigError("secrets", err.Error())
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewUsageError("%v", err)
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, stderr))
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	defer logger.Shutdown()
	if opts.verbose && logger.Level() > slog.LevelInfo {
		logger.SetLevel("info")
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	ctx = tracing.ContextFromEnv(ctx)
	ctx, span := tracer.Start(ctx, tracing.SpanRun,
		trace.WithAttributes(attribute.String(tracing.AttrInput, opts.input)))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
	}()

	ctx = logging.WithRunID(ctx, logging.NewRunID())
	ctx = logging.WithInput(ctx, opts.input)
	if id := tracing.TraceID(ctx); id != "" {
		logger.DebugContext(ctx, "tracing run", "trace_id", id)
	}

	p := &pipeline{
		cfg:     cfg,
		opts:    opts,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
		tracer:  tracer,
	}
	defer p.writeMetrics()

	if cfg.Output.Validate {
		if p.validator, err = cli.NewValidator(cfg.Output.Schema); err != nil {
			return err
		}
	}

	text, err := p.read()
	if err != nil {
		return err
	}

	if err := p.open(ctx); err != nil {
		return err
	}
	defer p.close()
	ctx = logging.WithBundle(ctx, p.parser.Bundle().Name)

	if err := p.process(ctx, text); err != nil {
		return err
	}

	if opts.watch {
		return p.watch(ctx)
	}
	p.prune(ctx)
	return nil
}

func configSource(path string) string {
	if path != "" {
		return path
	}
	return "$" + config.EnvConfigPath
}

func (p *pipeline) read() (string, error) {
	return cli.ReadInput(p.opts.input, p.stdin, p.stderr)
}

func (p *pipeline) newParser(ctx context.Context) (*bridge.Parser, error) {
	opts := bridge.OptionsFromConfig(p.cfg, p.logger.Slog(), p.metrics)
	opts.Tracer = p.tracer.Tracer()
	return bridge.NewParserContext(ctx, bridge.SourceFromConfig(p.cfg), opts)
}

// open builds the parser and, when enabled, the cache in front of it.
func (p *pipeline) open(ctx context.Context) error {
	parser, err := p.newParser(ctx)
	if err != nil {
		return fmt.Errorf("initializing parser: %w", err)
	}
	p.parser = parser
	p.logger.InfoContext(ctx, "parser initialized",
		"bundle", parser.Bundle().String(),
		"version", Version,
	)

	if !p.cfg.Cache.Enabled {
		return nil
	}

	store, err := cache.Open(ctx, &p.cfg.Cache, p.logger.Slog())
	if err != nil {
		p.logger.WarnContext(ctx, "cache unavailable, parsing without it", "error", err)
		return nil
	}
	p.cached = cache.NewCachingParser(parser, store, cache.Options{
		TTL:     p.cfg.Cache.TTL,
		Logger:  p.logger.Slog(),
		Metrics: p.metrics,
	})
	p.pruner = cache.NewPruner(store, cache.PrunerConfig{
		TTL:        p.cfg.Cache.TTL,
		MaxEntries: int64(p.cfg.Cache.MaxEntries),
		Schedule:   p.cfg.Cache.PruneSchedule,
	}, p.logger.Slog(), p.metrics)
	return nil
}

func (p *pipeline) close() {
	if p.pruner != nil {
		p.pruner.Stop()
	}
	if p.cached != nil {
		if err := p.cached.Store().Close(); err != nil {
			p.logger.Warn("failed to close cache", "error", err)
		}
	}
	if p.parser != nil {
		p.parser.Close()
	}
}

// process parses text, formats the tree, validates it when requested and
// writes it.
func (p *pipeline) process(ctx context.Context, text string) error {
	p.logger.InfoContext(ctx, "parsing markdown", "chars", utf8.RuneCountInString(text))

	tree, hit, err := p.parse(ctx, text)
	if err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	p.logger.InfoContext(ctx, "parsing completed", "nodes", ast.Count(tree), "cached", hit)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool(tracing.AttrCacheHit, hit))

	formatter := &cli.JSONFormatter{Compact: p.cfg.Output.Compact, Indent: p.cfg.Output.Indent}
	data, err := formatter.Format(tree)
	if err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if p.validator != nil {
		if err := p.validator.Validate(data, tree); err != nil {
			return err
		}
		p.logger.InfoContext(ctx, "JSON validation passed")
	}

	return p.write(ctx, data)
}

func (p *pipeline) parse(ctx context.Context, text string) (*ast.Node, bool, error) {
	if p.cached != nil {
		return p.cached.Parse(ctx, text)
	}
	tree, err := p.parser.ParseContext(ctx, text)
	return tree, false, err
}

func (p *pipeline) write(ctx context.Context, data []byte) error {
	if p.opts.output != "" {
		if err := cli.WriteFile(p.opts.output, data); err != nil {
			return err
		}
		p.logger.InfoContext(ctx, "output written", "path", p.opts.output, "bytes", len(data))
		return nil
	}

	compact := p.cfg.Output.Compact
	if !cli.ShouldColor(p.cfg.Output.Color, p.stdout) {
		return cli.WriteStdout(p.stdout, data, compact)
	}
	if err := cli.Highlight(p.stdout, data, p.cfg.Output.Style); err != nil {
		return cli.NewIOError(cli.OpWrite, "<stdout>", err)
	}
	if compact {
		return nil
	}
	return cli.WriteStdout(p.stdout, nil, false)
}

// watch re-runs the pipeline whenever the input or bundle file changes,
// until ctx is done.
func (p *pipeline) watch(ctx context.Context) error {
	paths := []string{p.opts.input}
	if p.cfg.Bundle.Path != "" {
		paths = append(paths, p.cfg.Bundle.Path)
	}

	w, err := watch.New(watch.Config{Paths: paths, Debounce: p.cfg.Watch.Debounce}, p.logger.Slog())
	if err != nil {
		return err
	}
	defer w.Stop()

	if p.pruner != nil {
		if err := p.pruner.Start(ctx); err != nil {
			p.logger.WarnContext(ctx, "cache pruning disabled", "error", err)
		}
	}

	return w.Watch(ctx, func(path string) error {
		if p.cfg.Bundle.Path != "" && sameFile(path, p.cfg.Bundle.Path) {
			if err := p.reload(ctx); err != nil {
				return err
			}
		}

		text, err := p.read()
		if err != nil {
			return err
		}
		err = p.process(ctx, text)
		p.writeMetrics()
		return err
	})
}

// reload replaces the parser after the bundle file changed. The cache
// needs no flush because entries are keyed by bundle digest.
func (p *pipeline) reload(ctx context.Context) error {
	parser, err := p.newParser(ctx)
	if err != nil {
		return fmt.Errorf("reloading bundle: %w", err)
	}

	old := p.parser
	p.parser = parser
	if p.cached != nil {
		p.cached = cache.NewCachingParser(parser, p.cached.Store(), cache.Options{
			TTL:     p.cfg.Cache.TTL,
			Logger:  p.logger.Slog(),
			Metrics: p.metrics,
		})
	}
	old.Close()

	p.logger.InfoContext(ctx, "bundle reloaded", "bundle", parser.Bundle().String())
	return nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func (p *pipeline) prune(ctx context.Context) {
	if p.pruner == nil {
		return
	}
	if _, err := p.pruner.Prune(ctx); err != nil {
		p.logger.WarnContext(ctx, "cache pruning failed", "error", err)
	}
}

func (p *pipeline) writeMetrics() {
	if err := p.metrics.WriteTextfile(p.cfg.Telemetry.Metrics.Textfile); err != nil {
		p.logger.Warn("failed to write metrics", "error", err)
	}
}
