package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// DefaultMaxDepth bounds the nesting of values exported out of an engine.
const DefaultMaxDepth = 512

// ErrClosed is returned by operations on a closed runtime.
var ErrClosed = errors.New("engine: runtime closed")

// Value is an engine-neutral dynamic value. It is one of nil (null), bool,
// int64, float64, string, []Value, *Object or Foreign.
type Value = any

// Object is an exported script object with its own enumerable string keys
// in property order.
type Object struct {
	Keys   []string
	Values map[string]Value
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{Values: make(map[string]Value)}
}

// Set appends a property.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.Values[key]; !ok {
		o.Keys = append(o.Keys, key)
	}
	o.Values[key] = v
}

// Get returns a property.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.Values[key]
	return v, ok
}

// Foreign marks a script value with no data representation.
type Foreign struct {
	Kind string // "undefined", "function", "symbol", "bigint", ...
}

func (f Foreign) String() string { return f.Kind }

// Undefined is the exported form of the script undefined value.
var Undefined = Foreign{Kind: "undefined"}

// Options configure a runtime.
type Options struct {
	// MaxCallStackSize limits script recursion. Zero keeps the engine default.
	MaxCallStackSize int

	// MaxDepth limits the nesting of exported values. Zero means DefaultMaxDepth.
	MaxDepth int

	// Logger receives console output from scripts at debug level.
	Logger *slog.Logger
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Runtime is one isolated script context. A Runtime is not safe for
// concurrent use; create one per goroutine.
type Runtime interface {
	// Compile evaluates source in the runtime and returns the global
	// function named entry.
	Compile(name, source, entry string) (Callable, error)

	// Close releases the runtime. Callables obtained from it stop working.
	Close() error
}

// Callable is a compiled script function.
type Callable interface {
	// Call invokes the function with the given arguments. Cancelling ctx
	// interrupts a running script.
	Call(ctx context.Context, args ...Value) (Value, error)
}

// Factory creates runtimes.
type Factory func(opts Options) (Runtime, error)

// CompileError reports a bundle that could not be loaded into a runtime.
type CompileError struct {
	Name    string
	Phase   string // "syntax", "evaluate" or "entry"
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s error: %s", e.Name, e.Phase, e.Message)
}

// Unwrap returns the underlying engine error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// ScriptError reports an exception thrown by a script function.
type ScriptError struct {
	Message string
	Stack   string
	Err     error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return e.Message
}

// Unwrap returns the underlying engine error.
func (e *ScriptError) Unwrap() error {
	return e.Err
}

// InterruptedError reports a call stopped by its context.
type InterruptedError struct {
	Err error
}

// Error implements the error interface.
func (e *InterruptedError) Error() string {
	return fmt.Sprintf("script interrupted: %v", e.Err)
}

// Unwrap returns the context error.
func (e *InterruptedError) Unwrap() error {
	return e.Err
}

// ExportError reports a returned value that cannot leave the engine as data.
type ExportError struct {
	Path   string
	Reason string
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("cannot export value at %s: %s", e.Path, e.Reason)
}
