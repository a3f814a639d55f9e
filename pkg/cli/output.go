package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"mercator-hq/mdast/pkg/ast"
)

// Color modes accepted by ShouldColor.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// JSONFormatter serializes trees as JSON. Non-ASCII text and HTML
// characters are written as-is.
type JSONFormatter struct {
	// Compact omits all insignificant whitespace.
	Compact bool

	// Indent is the number of spaces per nesting level of pretty output.
	Indent int
}

// Format returns the JSON encoding of tree without a trailing newline.
func (f *JSONFormatter) Format(tree *ast.Node) ([]byte, error) {
	raw, err := tree.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if f.Compact {
		err = json.Compact(&buf, raw)
	} else {
		err = json.Indent(&buf, raw, "", strings.Repeat(" ", max(f.Indent, 0)))
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteStdout writes formatted output to w. Pretty output ends with a
// newline; compact output is written exactly.
func WriteStdout(w io.Writer, data []byte, compact bool) error {
	if _, err := w.Write(data); err != nil {
		return NewIOError(OpWrite, "<stdout>", err)
	}
	if !compact {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return NewIOError(OpWrite, "<stdout>", err)
		}
	}
	return nil
}

// WriteFile writes data to path exactly as given.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return NewIOError(OpWrite, path, err)
	}
	return nil
}

// ShouldColor reports whether output to w is highlighted under mode.
// In auto mode, w must be a terminal and NO_COLOR unset.
func ShouldColor(mode string, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return os.Getenv("NO_COLOR") == "" && IsTerminal(w)
	}
}

// Highlight writes JSON data to w with terminal color escapes using the
// named chroma style.
func Highlight(w io.Writer, data []byte, style string) error {
	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	s := styles.Get(style)
	if s == nil {
		s = styles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	it, err := lexer.Tokenise(nil, string(data))
	if err != nil {
		return err
	}
	return formatter.Format(w, s, it)
}
