package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/mdast/pkg/ast"
	"mercator-hq/mdast/pkg/bridge"
	"mercator-hq/mdast/pkg/cache"
	"mercator-hq/mdast/pkg/cli"
	"mercator-hq/mdast/pkg/config"
	"mercator-hq/mdast/pkg/secrets"
	"mercator-hq/mdast/pkg/telemetry/health"
	"mercator-hq/mdast/pkg/telemetry/tracing"
)

// doctorProbe is parsed by the bundle check.
const doctorProbe = "# mdast doctor\n\nok"

type doctorOptions struct {
	configPath string
	bundlePath string
	timeout    time.Duration
	json       bool
}

func newDoctorCmd(stdout io.Writer) *cobra.Command {
	opts := &doctorOptions{}

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the configured bundle, cache, schema and tracing",
		Long: `doctor loads the configuration and checks every component a parse would
use: the bundle is loaded and parses a sample document, the cache backend is
opened and counted, the validation schema is compiled and the trace exporter
is created. Components that are turned off report "disabled".

doctor exits non-zero when any check is unhealthy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd.Context(), opts, stdout)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file path (default: $"+config.EnvConfigPath+")")
	flags.StringVar(&opts.bundlePath, "bundle", "", "script bundle file (default: built-in bundle)")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "timeout for each check")
	flags.BoolVar(&opts.json, "json", false, "write the report as JSON")

	return cmd
}

func runDoctor(ctx context.Context, opts *doctorOptions, stdout io.Writer) error {
	checker := health.New(opts.timeout)

	cfg, cfgErr := config.Resolve(opts.configPath)
	if cfgErr == nil && opts.bundlePath != "" {
		cfg.Bundle.Path = opts.bundlePath
	}
	if cfgErr == nil {
		cfgErr = secrets.ResolveConfig(ctx, cfg, nil)
	}
	if cfgErr == nil {
		cfgErr = config.Validate(cfg)
	}
	checker.RegisterCheck("config", func(context.Context) error { return cfgErr })
	if cfgErr == nil {
		registerDoctorChecks(checker, cfg)
	}

	report := checker.Run(ctx)
	write := health.WriteText
	if opts.json {
		write = health.WriteJSON
	}
	if err := write(stdout, report); err != nil {
		return cli.NewIOError(cli.OpWrite, "<stdout>", err)
	}

	if !report.Ready() {
		return cli.NewCommandError("doctor", fmt.Errorf("unhealthy: %s", strings.Join(report.Unhealthy(), ", ")))
	}
	return nil
}

func registerDoctorChecks(checker *health.Checker, cfg *config.Config) {
	logger := slog.New(slog.DiscardHandler)

	checker.RegisterCheck("bundle", func(ctx context.Context) error {
		p, err := bridge.NewParserContext(ctx, bridge.SourceFromConfig(cfg), bridge.OptionsFromConfig(cfg, logger, nil))
		if err != nil {
			return err
		}
		defer p.Close()

		tree, err := p.ParseContext(ctx, doctorProbe)
		if err != nil {
			return err
		}
		if ast.Find(tree, "heading") == nil {
			return fmt.Errorf("bundle %s parsed the sample document without a heading", p.Bundle())
		}
		return nil
	})

	checker.RegisterCheck("cache", func(ctx context.Context) error {
		if !cfg.Cache.Enabled {
			return health.ErrDisabled
		}
		store, err := cache.Open(ctx, &cfg.Cache, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		_, err = store.Count(ctx)
		return err
	})

	checker.RegisterCheck("schema", func(context.Context) error {
		if !cfg.Output.Validate && cfg.Output.Schema == "" {
			return health.ErrDisabled
		}
		_, err := cli.NewValidator(cfg.Output.Schema)
		return err
	})

	checker.RegisterCheck("tracing", func(ctx context.Context) error {
		if !cfg.Telemetry.Tracing.Enabled {
			return health.ErrDisabled
		}
		tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
		if err != nil {
			return err
		}
		return tracer.Shutdown(ctx)
	})
}
