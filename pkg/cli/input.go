package cli

import (
	"errors"
	"io"
	"os"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
)

// StdinName is the input path that selects standard input.
const StdinName = "-"

// StdinPrompt is printed when standard input is a terminal.
const StdinPrompt = "Reading from stdin (press Ctrl+D to finish):"

var errNotUTF8 = errors.New("input is not valid UTF-8")

// ReadInput returns the text of path, or of stdin when path is StdinName.
// Failures are *IOError.
func ReadInput(path string, stdin io.Reader, stderr io.Writer) (string, error) {
	var (
		data []byte
		err  error
	)

	if path == StdinName {
		if IsTerminal(stdin) && stderr != nil {
			io.WriteString(stderr, StdinPrompt+"\n")
		}
		data, err = io.ReadAll(stdin)
		path = "<stdin>"
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", NewIOError(OpRead, path, err)
	}

	if !utf8.Valid(data) {
		return "", NewIOError(OpRead, path, errNotUTF8)
	}
	return string(data), nil
}

// IsTerminal reports whether v is an *os.File attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
