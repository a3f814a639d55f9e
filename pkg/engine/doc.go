// Package engine abstracts the embedded script engine that runs the
// Markdown bundle.
//
// The capability is narrow: compile a function from source text and call it
// with marshaled arguments. Results leave the engine as a deep copy in an
// engine-neutral value representation:
//
//	nil, bool, int64, float64, string  scalars (nil is script null)
//	[]Value                            arrays
//	*Object                            plain objects, keys in property order
//	Foreign                            undefined, functions, symbols
//
// Cycles and nesting deeper than Options.MaxDepth are reported as
// *ExportError. Exceptions thrown by scripts become *ScriptError, bundle load
// failures *CompileError, and context cancellation *InterruptedError.
//
// NewGoja provides the implementation backed by github.com/dop251/goja.
// A Runtime is a single-owner resource: calls on one runtime must not
// overlap. Use one runtime per goroutine for parallelism.
package engine
