package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/mdast/pkg/cli"
	"mercator-hq/mdast/pkg/config"
)

// rootOptions holds the command-line flags.
type rootOptions struct {
	input      string
	output     string
	configPath string
	bundlePath string
	color      string
	indent     int
	timeout    time.Duration
	pretty     bool
	compact    bool
	validate   bool
	verbose    bool
	watch      bool
	noCache    bool
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "mdast [flags] <input>",
		Short: "Parse Markdown to an mdast syntax tree",
		Long: `mdast parses a Markdown document into an mdast syntax tree and writes it
as JSON. The Markdown grammar runs as a script bundle inside an embedded
engine; a bundle is compiled into the binary and --bundle selects another.

Diagnostics are written to stderr. Standard output carries only the tree, so
mdast can be used in pipelines.`,
		Example: `  mdast input.md                    # Parse input.md and print the tree
  mdast input.md -o output.json     # Save the tree to output.json
  mdast input.md --compact          # Print compact JSON
  mdast input.md --indent 4         # Pretty-print with four spaces
  echo "# Hello" | mdast -          # Parse from stdin
  mdast input.md --validate -v      # Validate output and report progress
  mdast doctor                      # Check bundle, cache and telemetry setup
  mdast --version                   # Show version information`,
		Version:       versionString(),
		Args:          inputArg,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			return run(cmd.Context(), opts, cmd, stdin, stdout, stderr)
		},
	}

	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("mdast {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &cli.UsageError{Message: err.Error()}
	})

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	flags.BoolVar(&opts.pretty, "pretty", false, "pretty-print JSON output (default)")
	flags.BoolVar(&opts.compact, "compact", false, "compact JSON output")
	flags.IntVar(&opts.indent, "indent", config.DefaultOutputIndent, "JSON indentation width")
	flags.BoolVar(&opts.validate, "validate", false, "validate the JSON output before writing it")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "report progress on stderr")
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file path (default: $"+config.EnvConfigPath+")")
	flags.StringVar(&opts.bundlePath, "bundle", "", "script bundle file (default: built-in bundle)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "maximum time for one parse, e.g. 5s (default: none)")
	flags.StringVar(&opts.color, "color", config.DefaultOutputColor, "highlight JSON on a terminal: auto, always, never")
	flags.BoolVar(&opts.watch, "watch", false, "parse again whenever the input or bundle changes")
	flags.BoolVar(&opts.noCache, "no-cache", false, "bypass the parse cache")

	cmd.AddCommand(newDoctorCmd(stdout))

	return cmd
}

func inputArg(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return cli.NewUsageError("expected one input file (use %q for stdin), got %d arguments", cli.StdinName, len(args))
	}
	return nil
}

// applyFlags overrides configuration values with flags set on the command
// line.
func applyFlags(cfg *config.Config, opts *rootOptions, cmd *cobra.Command) {
	flags := cmd.Flags()

	if flags.Changed("indent") {
		cfg.Output.Indent = opts.indent
	}
	if flags.Changed("compact") {
		cfg.Output.Compact = opts.compact
	}
	if flags.Changed("pretty") && opts.pretty {
		cfg.Output.Compact = false
	}
	if flags.Changed("validate") {
		cfg.Output.Validate = opts.validate
	}
	if flags.Changed("bundle") {
		cfg.Bundle.Path = opts.bundlePath
	}
	if flags.Changed("timeout") {
		cfg.Engine.Timeout = opts.timeout
	}
	if flags.Changed("color") {
		cfg.Output.Color = opts.color
	}
	if opts.noCache {
		cfg.Cache.Enabled = false
	}
}
