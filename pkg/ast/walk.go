package ast

// Visitor is called for every node in depth-first pre-order. Returning false
// skips the node's children.
type Visitor func(n *Node, depth int) bool

// Walk traverses the tree rooted at n.
func Walk(n *Node, visit Visitor) {
	walk(n, 0, visit)
}

func walk(n *Node, depth int, visit Visitor) {
	if n == nil || !visit(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, visit)
	}
}

// Count returns the number of nodes in the tree, n included.
func Count(n *Node) int {
	total := 0
	Walk(n, func(*Node, int) bool {
		total++
		return true
	})
	return total
}

// Find returns the first node of the given type in pre-order, or nil.
func Find(n *Node, typ string) *Node {
	var found *Node
	Walk(n, func(x *Node, _ int) bool {
		if found != nil {
			return false
		}
		if x.Type == typ {
			found = x
			return false
		}
		return true
	})
	return found
}

// Equal reports whether two trees are structurally equal. Key order is not
// significant; values are compared with JSON semantics.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type {
		return false
	}
	if (a.Children == nil) != (b.Children == nil) || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	if !positionEqual(a.Position, b.Position) {
		return false
	}
	return ValueEqual(a.Data, b.Data)
}

func positionEqual(a, b *Position) bool {
	if a == nil || b == nil {
		return a == b
	}
	return pointEqual(a.Start, b.Start) && pointEqual(a.End, b.End)
}

func pointEqual(a, b Point) bool {
	if a.Line != b.Line || a.Column != b.Column {
		return false
	}
	if a.Offset == nil || b.Offset == nil {
		return a.Offset == b.Offset
	}
	return *a.Offset == *b.Offset
}

// ValueEqual compares two data values. Object key order is ignored.
func ValueEqual(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case *Object:
		y, ok := b.(*Object)
		if !ok {
			return false
		}
		if x.Len() != y.Len() {
			return false
		}
		if x.Len() == 0 {
			return true
		}
		for _, k := range x.keys {
			yv, ok := y.values[k]
			if !ok || !ValueEqual(x.values[k], yv) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !ValueEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Node:
		y, ok := b.(*Node)
		return ok && Equal(x, y)
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}
		return false
	case float64:
		switch y := b.(type) {
		case float64:
			return x == y
		case int64:
			return x == float64(y)
		}
		return false
	default:
		return a == b
	}
}
