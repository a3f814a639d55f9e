package ast

import (
	"fmt"
	"strconv"
)

// ShapeError reports a value that does not have the shape of a syntax tree.
type ShapeError struct {
	Path   string // JSON-path-like location, e.g. "$.children[2].type"
	Reason string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected shape at %s: %s", e.Path, e.Reason)
}

// FromValue builds a tree from an ordered data value. The top level must be
// a root node; a root without children gets an empty children sequence.
func FromValue(v any) (*Node, error) {
	obj, ok := v.(*Object)
	if !ok {
		return nil, &ShapeError{Path: "$", Reason: fmt.Sprintf("expected object, got %s", KindOf(v))}
	}
	node, err := nodeFromObject(obj, "$")
	if err != nil {
		return nil, err
	}
	if node.Type != TypeRoot {
		return nil, &ShapeError{Path: "$.type", Reason: fmt.Sprintf("expected %q, got %q", TypeRoot, node.Type)}
	}
	if node.Children == nil {
		node.Children = []*Node{}
	}
	return node, nil
}

// NodeFromObject builds a single node (of any type) and its descendants.
func NodeFromObject(obj *Object) (*Node, error) {
	return nodeFromObject(obj, "$")
}

func nodeFromObject(obj *Object, path string) (*Node, error) {
	typeV, ok := obj.Get(FieldType)
	if !ok {
		return nil, &ShapeError{Path: path, Reason: "missing \"type\" field"}
	}
	typ, ok := typeV.(string)
	if !ok {
		return nil, &ShapeError{Path: path + ".type", Reason: fmt.Sprintf("expected string, got %s", KindOf(typeV))}
	}
	if typ == "" {
		return nil, &ShapeError{Path: path + ".type", Reason: "empty node type"}
	}

	node := &Node{Type: typ}
	node.SetOrder(obj.Keys())

	for _, key := range obj.Keys() {
		val, _ := obj.Get(key)
		switch key {
		case FieldType:
		case FieldChildren:
			items, ok := val.([]any)
			if !ok {
				return nil, &ShapeError{Path: path + ".children", Reason: fmt.Sprintf("expected array, got %s", KindOf(val))}
			}
			node.Children = make([]*Node, 0, len(items))
			for i, item := range items {
				childPath := path + ".children[" + strconv.Itoa(i) + "]"
				childObj, ok := item.(*Object)
				if !ok {
					return nil, &ShapeError{Path: childPath, Reason: fmt.Sprintf("expected node object, got %s", KindOf(item))}
				}
				child, err := nodeFromObject(childObj, childPath)
				if err != nil {
					return nil, err
				}
				node.Children = append(node.Children, child)
			}
		case FieldPosition:
			if o, ok := val.(*Object); ok {
				if pos := positionFromObject(o); pos != nil {
					node.Position = pos
					continue
				}
			}
			node.setData(key, val)
		default:
			node.setData(key, val)
		}
	}
	return node, nil
}

// setData bypasses the reserved-name check for opaque position values.
func (n *Node) setData(key string, value any) {
	if n.Data == nil {
		n.Data = NewObject()
	}
	n.Data.Set(key, value)
}
