/*
Package cli provides the building blocks of the mdast command.

Input:

ReadInput reads a named file, or standard input when the name is "-":

	text, err := cli.ReadInput(path, os.Stdin, os.Stderr)

Output:

JSONFormatter produces pretty or compact JSON from a tree without
escaping non-ASCII or HTML characters. Validator checks the result before
it is written:

	data, err := (&cli.JSONFormatter{Indent: 2}).Format(tree)
	if err := validator.Validate(data, tree); err != nil {
		return err
	}
	return cli.WriteStdout(os.Stdout, data, false)

Errors:

UsageError, IOError, ConfigError and CommandError carry the user-facing
messages; ExitCode maps any of them to the process status.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
