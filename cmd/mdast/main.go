// mdast converts Markdown to an mdast syntax tree serialized as JSON.
//
// The Markdown grammar runs as a script bundle inside an embedded engine;
// the tree it returns is validated and written to stdout or a file.
//
// Usage:
//
//	# Parse a file and print the tree
//	mdast input.md
//
//	# Save compact JSON to a file
//	mdast input.md --compact -o output.json
//
//	# Parse from stdin
//	echo "# Hello" | mdast -
//
//	# Re-run whenever the file changes
//	mdast notes.md --watch -o notes.json
//
//	# Show version information
//	mdast --version
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"mercator-hq/mdast/pkg/cli"
)

func main() {
	os.Exit(Execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Execute runs the command with args and returns the process exit code.
// Diagnostics go to stderr; stdout receives only the tree.
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

	if args == nil {
		args = []string{}
	}

	cmd := newRootCmd(stdin, stdout, stderr)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}
