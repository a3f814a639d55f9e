// Package errors classifies failures at the boundary between native code and
// the embedded script engine.
//
// # Kinds
//
// KindBundleNotFound: the bundle artifact is missing or unreadable
//
// KindEngineInit: the bundle failed to compile or evaluate, or has no entry function
//
// KindInputType: parse was called with a non-textual value
//
// KindEngineRuntime: the entry function threw, was interrupted, or the handle was closed
//
// KindUnexpectedResultShape: the entry function returned something other than a root node tree
//
// # Usage
//
// Engine-specific error types never reach callers. Translate maps them, and
// any other error, into an *Error:
//
//	v, err := fn.Call(ctx, text)
//	if err != nil {
//	    return nil, errors.Translate(errors.StageCall, err)
//	}
//
// Callers match on kind with the standard library:
//
//	if stderrors.Is(err, errors.ErrInputType) {
//	    ...
//	}
package errors
