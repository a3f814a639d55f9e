package engine

import (
	"log/slog"
	"strings"

	"github.com/dop251/goja"
)

// installConsole exposes a minimal console object. All output goes to the
// runtime logger at debug level, tagged with the console method name.
func (r *GojaRuntime) installConsole() error {
	console := r.vm.NewObject()
	for _, method := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(method, r.consoleFunc(method)); err != nil {
			return err
		}
	}
	return r.vm.Set("console", console)
}

func (r *GojaRuntime) consoleFunc(method string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		r.logger.Debug(strings.Join(parts, " "), slog.String("console", method))
		return goja.Undefined()
	}
}
