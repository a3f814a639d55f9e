package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dop251/goja"
)

// GojaRuntime runs scripts on the goja ECMAScript 5.1+ engine.
type GojaRuntime struct {
	vm     *goja.Runtime
	opts   Options
	logger *slog.Logger
	closed bool
}

// NewGoja creates a runtime with a fresh goja context and a console object
// routed to opts.Logger.
func NewGoja(opts Options) (Runtime, error) {
	vm := goja.New()
	if opts.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(opts.MaxCallStackSize)
	}

	rt := &GojaRuntime{
		vm:     vm,
		opts:   opts,
		logger: opts.logger(),
	}
	if err := rt.installConsole(); err != nil {
		return nil, fmt.Errorf("install console: %w", err)
	}
	return rt, nil
}

// Compile implements Runtime.
func (r *GojaRuntime) Compile(name, source, entry string) (Callable, error) {
	if r.closed {
		return nil, ErrClosed
	}

	prog, err := goja.Compile(name, source, false)
	if err != nil {
		return nil, &CompileError{Name: name, Phase: "syntax", Message: err.Error(), Err: err}
	}

	if _, err := r.vm.RunProgram(prog); err != nil {
		msg := err.Error()
		var ex *goja.Exception
		if errors.As(err, &ex) {
			msg = exceptionMessage(ex)
		}
		return nil, &CompileError{Name: name, Phase: "evaluate", Message: msg, Err: err}
	}

	v := r.vm.Get(entry)
	if v == nil || goja.IsUndefined(v) {
		return nil, &CompileError{Name: name, Phase: "entry", Message: fmt.Sprintf("entry point %q is not defined", entry)}
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, &CompileError{Name: name, Phase: "entry", Message: fmt.Sprintf("entry point %q is not a function", entry)}
	}

	return &gojaCallable{rt: r, fn: fn, name: entry}, nil
}

// Close implements Runtime.
func (r *GojaRuntime) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.vm = nil
	return nil
}

type gojaCallable struct {
	rt   *GojaRuntime
	fn   goja.Callable
	name string
}

// Call implements Callable.
func (c *gojaCallable) Call(ctx context.Context, args ...Value) (Value, error) {
	if c.rt.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, &InterruptedError{Err: err}
	}

	vm := c.rt.vm
	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = vm.ToValue(a)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	if ctx.Done() != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				vm.Interrupt(ctx.Err())
			case <-done:
			}
		}()
	}

	defer func() {
		close(done)
		wg.Wait()
		vm.ClearInterrupt()
	}()

	result, err := c.fn(goja.Undefined(), jsArgs...)
	if err != nil {
		return nil, c.callError(err)
	}
	return c.export(vm, result)
}

// export copies result out of the engine. Getters, proxy traps and toJSON
// methods run script code during the copy; an exception or interrupt they
// raise surfaces as a Go panic, which is classified like a failed call.
func (c *gojaCallable) export(vm *goja.Runtime, result goja.Value) (v Value, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch x := r.(type) {
		case *goja.Exception:
			v, err = nil, c.callError(x)
		case *goja.InterruptedError:
			v, err = nil, c.callError(x)
		default:
			panic(r)
		}
	}()

	v, err = newExporter(vm, c.rt.opts.maxDepth()).export(result)
	if err != nil {
		var ee *ExportError
		if !errors.As(err, &ee) {
			err = c.callError(err)
		}
		return nil, err
	}
	return v, nil
}

func (c *gojaCallable) callError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return &InterruptedError{Err: cause}
		}
		return &InterruptedError{Err: err}
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		return &ScriptError{Message: exceptionMessage(ex), Stack: ex.String(), Err: err}
	}
	return &ScriptError{Message: err.Error(), Err: err}
}

// exceptionMessage renders a thrown value the way the engine's toString does,
// e.g. "TypeError: x is not a function" or the thrown string itself.
func exceptionMessage(ex *goja.Exception) string {
	if v := ex.Value(); v != nil {
		return v.String()
	}
	return ex.Error()
}
