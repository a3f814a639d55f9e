package errors

import (
	goerrors "errors"
	"fmt"
	"strings"

	"mercator-hq/mdast/pkg/ast"
	"mercator-hq/mdast/pkg/bundle"
	"mercator-hq/mdast/pkg/engine"
)

// Kind classifies a parse failure. The set is closed.
type Kind string

const (
	KindBundleNotFound        Kind = "BundleNotFound"        // Bundle artifact missing or unreadable
	KindEngineInit            Kind = "EngineInitError"       // Bundle failed to compile or evaluate
	KindInputType             Kind = "InputTypeError"        // Non-textual input to parse
	KindEngineRuntime         Kind = "EngineRuntimeError"    // Entry function raised or was interrupted
	KindUnexpectedResultShape Kind = "UnexpectedResultShape" // Result is not a root node tree
)

// Kinds lists every kind in taxonomy order.
var Kinds = []Kind{
	KindBundleNotFound,
	KindEngineInit,
	KindInputType,
	KindEngineRuntime,
	KindUnexpectedResultShape,
}

// Sentinels for errors.Is matching on kind alone.
var (
	ErrBundleNotFound        = &Error{Kind: KindBundleNotFound}
	ErrEngineInit            = &Error{Kind: KindEngineInit}
	ErrInputType             = &Error{Kind: KindInputType}
	ErrEngineRuntime         = &Error{Kind: KindEngineRuntime}
	ErrUnexpectedResultShape = &Error{Kind: KindUnexpectedResultShape}
)

// Error is a classified parse failure.
type Error struct {
	Kind    Kind   // Category of failure
	Message string // Human-readable message
	Detail  string // Engine diagnostic (e.g. script stack), optional
	Err     error  // Underlying cause, optional
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Error implements the error interface.
// It returns "[kind] message: cause".
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(string(e.Kind))
	sb.WriteString("]")

	msg := e.Message
	if e.Err != nil && msg != e.Err.Error() {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	if msg != "" {
		sb.WriteString(" ")
		sb.WriteString(msg)
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if goerrors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Stage names the boundary crossing where a failure happened. It decides the
// kind of errors that carry no more specific type.
type Stage string

const (
	StageLoad    Stage = "load"    // Reading the bundle artifact
	StageInit    Stage = "init"    // Creating the engine and evaluating the bundle
	StageInput   Stage = "input"   // Validating parse input
	StageCall    Stage = "call"    // Invoking the entry function
	StageConvert Stage = "convert" // Converting the returned value
)

// Translate classifies err. Already classified errors pass through unchanged.
func Translate(stage Stage, err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if goerrors.As(err, &classified) {
		return classified
	}

	var (
		loadErr        *bundle.LoadError
		compileErr     *engine.CompileError
		scriptErr      *engine.ScriptError
		interruptedErr *engine.InterruptedError
		exportErr      *engine.ExportError
		shapeErr       *ast.ShapeError
	)
	switch {
	case goerrors.As(err, &loadErr):
		return &Error{Kind: KindBundleNotFound, Message: loadErr.Error(), Err: err}
	case goerrors.As(err, &compileErr):
		return &Error{Kind: KindEngineInit, Message: "failed to initialize bundle " + compileErr.Name, Err: err}
	case goerrors.As(err, &scriptErr):
		return &Error{Kind: KindEngineRuntime, Message: scriptErr.Message, Detail: scriptErr.Stack, Err: err}
	case goerrors.As(err, &interruptedErr):
		return &Error{Kind: KindEngineRuntime, Message: "parse interrupted", Err: interruptedErr.Err}
	case goerrors.Is(err, engine.ErrClosed):
		return &Error{Kind: KindEngineRuntime, Message: "handle closed", Err: err}
	case goerrors.As(err, &exportErr):
		return &Error{Kind: KindUnexpectedResultShape, Message: exportErr.Error(), Err: err}
	case goerrors.As(err, &shapeErr):
		return &Error{Kind: KindUnexpectedResultShape, Message: shapeErr.Error(), Err: err}
	}

	return &Error{Kind: stageKind(stage), Message: err.Error(), Err: err}
}

func stageKind(stage Stage) Kind {
	switch stage {
	case StageLoad:
		return KindBundleNotFound
	case StageInit:
		return KindEngineInit
	case StageInput:
		return KindInputType
	case StageConvert:
		return KindUnexpectedResultShape
	default:
		return KindEngineRuntime
	}
}
