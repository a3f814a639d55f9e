package bridge

import (
	"fmt"
	"math"
	"strconv"

	"mercator-hq/mdast/pkg/ast"
	"mercator-hq/mdast/pkg/engine"
	"mercator-hq/mdast/pkg/errors"
)

// Convert validates an engine value and builds the tree it describes. The
// result shares no memory with v.
//
// Values without a data form follow JSON rules: undefined, functions and
// symbols are dropped from objects and become null in arrays, and
// non-finite numbers become null.
func Convert(v engine.Value) (*ast.Node, error) {
	if f, ok := v.(engine.Foreign); ok {
		return nil, shapeError(&ast.ShapeError{Path: "$", Reason: "expected object, got " + f.Kind})
	}

	data, _, err := toData(v, "$")
	if err != nil {
		return nil, shapeError(err)
	}

	node, err := ast.FromValue(data)
	if err != nil {
		return nil, shapeError(err)
	}
	return node, nil
}

func shapeError(err error) error {
	return errors.Translate(errors.StageConvert, err)
}

// toData converts one value. keep is false for values an object drops.
func toData(v engine.Value, path string) (out any, keep bool, err error) {
	switch x := v.(type) {
	case nil:
		return nil, true, nil
	case bool, string, int64:
		return x, true, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, true, nil
		}
		return ast.NormalizeFloat(x), true, nil
	case engine.Foreign:
		return nil, false, nil
	case []engine.Value:
		items := make([]any, len(x))
		for i, item := range x {
			converted, _, err := toData(item, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, false, err
			}
			items[i] = converted
		}
		return items, true, nil
	case *engine.Object:
		obj := ast.NewObject()
		for _, key := range x.Keys {
			converted, keep, err := toData(x.Values[key], path+"."+key)
			if err != nil {
				return nil, false, err
			}
			if keep {
				obj.Set(key, converted)
			}
		}
		return obj, true, nil
	default:
		return nil, false, &ast.ShapeError{Path: path, Reason: fmt.Sprintf("unsupported value %T", v)}
	}
}
