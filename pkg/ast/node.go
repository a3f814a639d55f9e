package ast

import (
	"bytes"
	"fmt"
)

// Reserved field names handled by Node itself rather than Data.
const (
	FieldType     = "type"
	FieldChildren = "children"
	FieldPosition = "position"
)

// TypeRoot is the type of the top-level node of every parsed document.
const TypeRoot = "root"

// Node is one node of a Markdown syntax tree.
type Node struct {
	// Type is the node kind ("root", "heading", "text", ...). Never empty.
	Type string

	// Children holds child nodes in document order. Nil means the node has
	// no children field at all; an empty non-nil slice means an explicitly
	// empty sequence.
	Children []*Node

	// Position is the source location, when the bundle supplied one in the
	// standard start/end shape.
	Position *Position

	// Data holds every other field in the order it was produced.
	Data *Object

	// order is the original key order including the reserved fields.
	order []string
}

// NewNode creates a node of the given type with no fields.
func NewNode(typ string) *Node {
	return &Node{Type: typ}
}

// NewRoot creates an empty root node.
func NewRoot() *Node {
	return &Node{Type: TypeRoot, Children: []*Node{}}
}

// Append adds children to the node, creating the children field if needed.
func (n *Node) Append(children ...*Node) *Node {
	if n.Children == nil {
		n.Children = make([]*Node, 0, len(children))
	}
	n.Children = append(n.Children, children...)
	return n
}

// Set stores a data field. Reserved names are rejected.
func (n *Node) Set(key string, value any) *Node {
	switch key {
	case FieldType, FieldChildren, FieldPosition:
		panic(fmt.Sprintf("ast: %q is a reserved field", key))
	}
	if n.Data == nil {
		n.Data = NewObject()
	}
	n.Data.Set(key, value)
	return n
}

// Get returns a data field.
func (n *Node) Get(key string) (any, bool) {
	return n.Data.Get(key)
}

// String returns a string data field, or "" when absent or not a string.
func (n *Node) String(key string) string {
	v, _ := n.Get(key)
	s, _ := v.(string)
	return s
}

// Int returns an integer data field.
func (n *Node) Int(key string) (int64, bool) {
	v, ok := n.Get(key)
	if !ok {
		return 0, false
	}
	i, ok := v.(int64)
	return i, ok
}

// Bool returns a boolean data field.
func (n *Node) Bool(key string) (bool, bool) {
	v, ok := n.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Depth returns the heading depth, or 0 for nodes without one.
func (n *Node) Depth() int {
	d, _ := n.Int("depth")
	return int(d)
}

// Value returns the literal text of text, code, inlineCode and html nodes.
func (n *Node) Value() string { return n.String("value") }

// URL returns the destination of link, image and definition nodes.
func (n *Node) URL() string { return n.String("url") }

// Title returns the title of link, image and definition nodes.
func (n *Node) Title() string { return n.String("title") }

// Lang returns the info-string language of a code node.
func (n *Node) Lang() string { return n.String("lang") }

// IsLeaf reports whether the node has no children field.
func (n *Node) IsLeaf() bool {
	return n.Children == nil
}

// Keys returns the node's field names in serialization order.
func (n *Node) Keys() []string {
	present := func(k string) bool {
		switch k {
		case FieldType:
			return true
		case FieldChildren:
			return n.Children != nil
		case FieldPosition:
			if n.Position != nil {
				return true
			}
		}
		_, ok := n.Data.Get(k)
		return ok
	}

	keys := make([]string, 0, n.Data.Len()+3)
	seen := make(map[string]bool, cap(keys))
	add := func(k string) {
		if !seen[k] && present(k) {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	for _, k := range n.order {
		add(k)
	}
	add(FieldType)
	for _, k := range n.Data.Keys() {
		add(k)
	}
	add(FieldChildren)
	add(FieldPosition)
	return keys
}

// SetOrder records the original key order. Keys not present on the node
// are ignored at serialization time.
func (n *Node) SetOrder(keys []string) {
	n.order = append([]string(nil), keys...)
}

// MarshalJSON encodes the node with its fields in recorded order.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	if n.Type == "" {
		return nil, fmt.Errorf("ast: cannot encode node without type")
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range n.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		var err error
		switch k {
		case FieldType:
			err = writeMember(&buf, k, n.Type)
		case FieldChildren:
			err = writeChildren(&buf, n.Children)
		case FieldPosition:
			if n.Position != nil {
				err = writeMember(&buf, k, n.Position.object())
			} else {
				v, _ := n.Data.Get(k)
				err = writeMember(&buf, k, v)
			}
		default:
			v, _ := n.Data.Get(k)
			err = writeMember(&buf, k, v)
		}
		if err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeChildren(buf *bytes.Buffer, children []*Node) error {
	if err := writeJSON(buf, FieldChildren); err != nil {
		return err
	}
	buf.WriteString(":[")
	for i, c := range children {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := c.MarshalJSON()
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return nil
}

// UnmarshalJSON decodes a node, validating its shape with FromObject.
func (n *Node) UnmarshalJSON(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return err
	}
	node, err := FromValue(v)
	if err != nil {
		return err
	}
	*n = *node
	return nil
}
