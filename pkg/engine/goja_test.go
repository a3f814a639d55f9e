package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func compile(t *testing.T, src string) Callable {
	t.Helper()
	rt, err := NewGoja(Options{})
	if err != nil {
		t.Fatalf("NewGoja() error = %v", err)
	}
	t.Cleanup(func() { rt.Close() })

	fn, err := rt.Compile("test.js", src, "parseMd")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return fn
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		wantPhase string
	}{
		{name: "syntax error", src: "function parseMd( {", wantPhase: "syntax"},
		{name: "throws on load", src: "throw new Error('boom');", wantPhase: "evaluate"},
		{name: "unresolved reference", src: "missingThing.call();", wantPhase: "evaluate"},
		{name: "missing entry", src: "var other = 1;", wantPhase: "entry"},
		{name: "entry not a function", src: "var parseMd = 42;", wantPhase: "entry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := NewGoja(Options{})
			if err != nil {
				t.Fatalf("NewGoja() error = %v", err)
			}
			defer rt.Close()

			_, err = rt.Compile("bundle.js", tt.src, "parseMd")
			var compileErr *CompileError
			if !errors.As(err, &compileErr) {
				t.Fatalf("Compile() error = %v, want *CompileError", err)
			}
			if compileErr.Phase != tt.wantPhase {
				t.Errorf("Phase = %q, want %q", compileErr.Phase, tt.wantPhase)
			}
		})
	}
}

func TestCallExportsValues(t *testing.T) {
	fn := compile(t, `
function parseMd(text) {
	return {
		type: "root",
		text: text,
		n: 3,
		f: 1.5,
		ok: true,
		nothing: null,
		skip: undefined,
		fn: function() {},
		list: [1, undefined, "two"]
	};
}`)

	v, err := fn.Call(context.Background(), "héllo 🎉")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	obj, ok := v.(*Object)
	if !ok {
		t.Fatalf("Call() = %T, want *Object", v)
	}

	wantKeys := []string{"type", "text", "n", "f", "ok", "nothing", "skip", "fn", "list"}
	if strings.Join(obj.Keys, ",") != strings.Join(wantKeys, ",") {
		t.Errorf("Keys = %v, want %v", obj.Keys, wantKeys)
	}
	if got, _ := obj.Get("text"); got != "héllo 🎉" {
		t.Errorf("text = %#v", got)
	}
	if got, _ := obj.Get("n"); got != int64(3) {
		t.Errorf("n = %#v, want int64(3)", got)
	}
	if got, _ := obj.Get("f"); got != 1.5 {
		t.Errorf("f = %#v, want 1.5", got)
	}
	if got, _ := obj.Get("nothing"); got != nil {
		t.Errorf("nothing = %#v, want nil", got)
	}
	if got, _ := obj.Get("skip"); got != Undefined {
		t.Errorf("skip = %#v, want Undefined", got)
	}
	if got, _ := obj.Get("fn"); got != (Foreign{Kind: "function"}) {
		t.Errorf("fn = %#v, want function", got)
	}
	list, _ := obj.Get("list")
	items, ok := list.([]Value)
	if !ok || len(items) != 3 || items[1] != Undefined || items[2] != "two" {
		t.Errorf("list = %#v", list)
	}
}

func TestCallScriptError(t *testing.T) {
	fn := compile(t, `function parseMd(text) { throw new TypeError("bad input: " + text); }`)

	_, err := fn.Call(context.Background(), "x")
	var scriptErr *ScriptError
	if !errors.As(err, &scriptErr) {
		t.Fatalf("Call() error = %v, want *ScriptError", err)
	}
	if scriptErr.Message != "TypeError: bad input: x" {
		t.Errorf("Message = %q", scriptErr.Message)
	}
}

func TestCallCycle(t *testing.T) {
	fn := compile(t, `function parseMd() { var a = {type: "root"}; a.self = a; return a; }`)

	_, err := fn.Call(context.Background(), "")
	var exportErr *ExportError
	if !errors.As(err, &exportErr) {
		t.Fatalf("Call() error = %v, want *ExportError", err)
	}
	if exportErr.Path != "$.self" {
		t.Errorf("Path = %q, want $.self", exportErr.Path)
	}
}

func TestCallSharedReferenceIsNotCycle(t *testing.T) {
	fn := compile(t, `function parseMd() { var p = {line: 1}; return {a: p, b: p}; }`)

	if _, err := fn.Call(context.Background(), ""); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
}

func TestCallMaxDepth(t *testing.T) {
	rt, err := NewGoja(Options{MaxDepth: 4})
	if err != nil {
		t.Fatalf("NewGoja() error = %v", err)
	}
	defer rt.Close()

	fn, err := rt.Compile("deep.js", `function parseMd() { return {a: {b: {c: {d: {e: 1}}}}}; }`, "parseMd")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	_, err = fn.Call(context.Background(), "")
	var exportErr *ExportError
	if !errors.As(err, &exportErr) {
		t.Fatalf("Call() error = %v, want *ExportError", err)
	}
}

func TestCallExportExceptions(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{
			name:    "throwing getter",
			src:     `function parseMd() { return {type: "root", get children() { throw new Error("boom"); }}; }`,
			wantMsg: "Error: boom",
		},
		{
			name:    "proxy ownKeys trap",
			src:     `function parseMd() { return new Proxy({}, {ownKeys: function() { throw new Error("trap"); }}); }`,
			wantMsg: "Error: trap",
		},
		{
			name:    "throwing toJSON",
			src:     `function parseMd() { return {type: "root", toJSON: function() { throw new RangeError("no"); }}; }`,
			wantMsg: "RangeError: no",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := compile(t, tt.src)

			_, err := fn.Call(context.Background(), "")
			var scriptErr *ScriptError
			if !errors.As(err, &scriptErr) {
				t.Fatalf("Call() error = %v, want *ScriptError", err)
			}
			if !strings.Contains(scriptErr.Message, tt.wantMsg) {
				t.Errorf("Message = %q, want %q", scriptErr.Message, tt.wantMsg)
			}

			// The runtime stays usable after a failed export.
			if _, err := fn.Call(context.Background(), ""); err == nil {
				t.Error("second Call() should fail the same way")
			}
		})
	}
}

func TestCallHonorsToJSON(t *testing.T) {
	fn := compile(t, `
function parseMd() {
	return {
		when: new Date(0),
		obj: {toJSON: function() { return "x"; }},
		keyed: {toJSON: function(key) { return key; }},
		self: {toJSON: function() { return this; }, n: 1}
	};
}`)

	v, err := fn.Call(context.Background(), "")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	obj := v.(*Object)

	if got, _ := obj.Get("when"); got != "1970-01-01T00:00:00.000Z" {
		t.Errorf("when = %#v", got)
	}
	if got, _ := obj.Get("obj"); got != "x" {
		t.Errorf("obj = %#v, want x", got)
	}
	if got, _ := obj.Get("keyed"); got != "keyed" {
		t.Errorf("keyed = %#v, want the property key", got)
	}
	self, _ := obj.Get("self")
	selfObj, ok := self.(*Object)
	if !ok {
		t.Fatalf("self = %#v, want object", self)
	}
	if n, _ := selfObj.Get("n"); n != int64(1) {
		t.Errorf("self.n = %#v", n)
	}
}

func TestCallArrayLengthBound(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{name: "huge sparse array", src: `function parseMd() { return {type: "root", children: new Array(4294967295)}; }`, wantErr: true},
		{name: "just over the bound", src: `function parseMd() { return new Array(16777217); }`, wantErr: true},
		{name: "sparse array within bound", src: `function parseMd() { var a = []; a[3] = 1; return a; }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := compile(t, tt.src)

			v, err := fn.Call(context.Background(), "")
			if !tt.wantErr {
				items, ok := v.([]Value)
				if err != nil || !ok || len(items) != 4 || items[0] != Undefined || items[3] != int64(1) {
					t.Errorf("Call() = %#v, %v", v, err)
				}
				return
			}
			var exportErr *ExportError
			if !errors.As(err, &exportErr) {
				t.Fatalf("Call() error = %v, want *ExportError", err)
			}
			if !strings.Contains(exportErr.Reason, "exceeds") {
				t.Errorf("Reason = %q", exportErr.Reason)
			}
		})
	}
}

func TestCallInterrupted(t *testing.T) {
	fn := compile(t, `function parseMd() { while (true) {} }`)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := fn.Call(ctx, "")
	var interrupted *InterruptedError
	if !errors.As(err, &interrupted) {
		t.Fatalf("Call() error = %v, want *InterruptedError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error should wrap context.DeadlineExceeded, got %v", err)
	}

	// The runtime stays usable after an interrupt.
	fn2 := compile(t, `function parseMd(s) { return s.length; }`)
	if v, err := fn2.Call(context.Background(), "abc"); err != nil || v != int64(3) {
		t.Errorf("Call() after interrupt = %v, %v", v, err)
	}
}

func TestCallCancelledBeforeStart(t *testing.T) {
	fn := compile(t, `function parseMd() { return 1; }`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fn.Call(ctx, "")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Call() error = %v, want context.Canceled", err)
	}
}

func TestClosedRuntime(t *testing.T) {
	rt, err := NewGoja(Options{})
	if err != nil {
		t.Fatalf("NewGoja() error = %v", err)
	}
	fn, err := rt.Compile("a.js", `function parseMd() { return 1; }`, "parseMd")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := fn.Call(context.Background(), ""); !errors.Is(err, ErrClosed) {
		t.Errorf("Call() after Close error = %v, want ErrClosed", err)
	}
	if _, err := rt.Compile("b.js", "", "parseMd"); !errors.Is(err, ErrClosed) {
		t.Errorf("Compile() after Close error = %v, want ErrClosed", err)
	}
}

func TestConsoleRoutedToLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rt, err := NewGoja(Options{Logger: logger})
	if err != nil {
		t.Fatalf("NewGoja() error = %v", err)
	}
	defer rt.Close()

	fn, err := rt.Compile("log.js", `function parseMd(s) { console.warn("seen", s); return null; }`, "parseMd")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := fn.Call(context.Background(), "input"); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "seen input") || !strings.Contains(out, "console=warn") {
		t.Errorf("log output = %q", out)
	}
}

func TestIsolatedRuntimes(t *testing.T) {
	src := `var counter = 0; function parseMd() { counter++; return counter; }`
	a := compile(t, src)
	b := compile(t, src)

	a.Call(context.Background(), "")
	a.Call(context.Background(), "")
	v, err := b.Call(context.Background(), "")
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if v != int64(1) {
		t.Errorf("second runtime counter = %v, want 1", v)
	}
}
