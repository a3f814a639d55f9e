package engine

import (
	"fmt"
	"strconv"

	"github.com/dop251/goja"
)

// MaxArrayLength bounds the length of any exported array. Longer arrays
// fail with an ExportError instead of allocating for every index.
const MaxArrayLength = 1 << 24

// exportChunk caps the capacity reserved up front for an array, so a large
// declared length costs nothing until its elements are read.
const exportChunk = 1024

// exporter copies a goja value graph into neutral values following
// JSON.stringify: toJSON is honored and boxed primitives are unwrapped. The
// copy is deep, so nothing returned holds a reference into the engine heap.
type exporter struct {
	vm       *goja.Runtime
	maxDepth int
	active   map[*goja.Object]bool
}

func newExporter(vm *goja.Runtime, maxDepth int) *exporter {
	return &exporter{vm: vm, maxDepth: maxDepth, active: make(map[*goja.Object]bool)}
}

func (e *exporter) export(v goja.Value) (Value, error) {
	return e.value(v, "", "$", 0)
}

// value exports v found under key. Like JSON.stringify, a toJSON method is
// applied once and its result is exported without applying it again.
func (e *exporter) value(v goja.Value, key, path string, depth int) (Value, error) {
	obj, ok := v.(*goja.Object)
	if !ok {
		return e.plain(v, path, depth)
	}
	toJSON, ok := goja.AssertFunction(obj.Get("toJSON"))
	if !ok {
		return e.plain(v, path, depth)
	}
	replaced, err := toJSON(obj, e.vm.ToValue(key))
	if err != nil {
		return nil, err
	}
	return e.plain(replaced, path, depth)
}

func (e *exporter) plain(v goja.Value, path string, depth int) (Value, error) {
	if v == nil || goja.IsUndefined(v) {
		return Undefined, nil
	}
	if goja.IsNull(v) {
		return nil, nil
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		return primitive(v), nil
	}

	switch obj.ClassName() {
	case "Function":
		return Foreign{Kind: "function"}, nil
	case "String", "Number", "Boolean":
		return primitive(obj), nil
	}

	if depth >= e.maxDepth {
		return nil, &ExportError{Path: path, Reason: fmt.Sprintf("nesting exceeds %d levels", e.maxDepth)}
	}
	if e.active[obj] {
		return nil, &ExportError{Path: path, Reason: "cyclic reference"}
	}
	e.active[obj] = true
	defer delete(e.active, obj)

	if obj.ClassName() == "Array" {
		n := obj.Get("length").ToInteger()
		if n < 0 || n > MaxArrayLength {
			return nil, &ExportError{Path: path, Reason: fmt.Sprintf("array length %d exceeds %d", n, MaxArrayLength)}
		}
		items := make([]Value, 0, min(int(n), exportChunk))
		for i := 0; i < int(n); i++ {
			index := strconv.Itoa(i)
			item, err := e.value(obj.Get(index), index, path+"["+index+"]", depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	}

	out := NewObject()
	for _, key := range obj.Keys() {
		item, err := e.value(obj.Get(key), key, path+"."+key, depth+1)
		if err != nil {
			return nil, err
		}
		out.Set(key, item)
	}
	return out, nil
}

func primitive(v goja.Value) Value {
	switch x := v.Export().(type) {
	case string:
		return x
	case bool:
		return x
	case int64:
		return x
	case float64:
		return x
	case nil:
		return nil
	default:
		if _, ok := v.(*goja.Symbol); ok {
			return Foreign{Kind: "symbol"}
		}
		return Foreign{Kind: fmt.Sprintf("%T", x)}
	}
}
