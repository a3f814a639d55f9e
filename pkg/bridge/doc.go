// Package bridge loads a Markdown bundle into an embedded script engine and
// converts its results into syntax trees.
//
// Load reads a bundle and compiles its entry function into a Handle. A
// Parser wraps one Handle, validates input, calls the entry function and
// converts the returned value with Convert, the only place untrusted engine
// output becomes an *ast.Node.
//
//	p, err := bridge.NewParser(bundle.Embedded(), bridge.Options{})
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	tree, err := p.Parse("# Hello World")
//
// Every error returned by this package is an *errors.Error with one of the
// kinds in package errors.
//
// Handles and Parsers are not safe for concurrent use. Concurrent callers
// each create their own; handles share no engine state.
package bridge
