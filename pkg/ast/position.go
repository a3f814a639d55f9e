package ast

import "fmt"

// Point is a place in the source document. Line and Column are 1-based;
// Offset is the 0-based character offset when the bundle reports it.
type Point struct {
	Line   int
	Column int
	Offset *int
}

// Position is the source span of a node.
type Position struct {
	Start Point
	End   Point
}

// String renders the span as "line:column-line:column".
func (p *Position) String() string {
	if p == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%d:%d-%d:%d", p.Start.Line, p.Start.Column, p.End.Line, p.End.Column)
}

func (p *Position) object() *Object {
	o := NewObject()
	o.Set("start", p.Start.object())
	o.Set("end", p.End.object())
	return o
}

func (pt Point) object() *Object {
	o := NewObject()
	o.Set("line", int64(pt.Line))
	o.Set("column", int64(pt.Column))
	if pt.Offset != nil {
		o.Set("offset", int64(*pt.Offset))
	}
	return o
}

// positionFromObject returns a typed position when o has exactly the
// standard shape {start:{line,column[,offset]}, end:{...}}, nil otherwise.
func positionFromObject(o *Object) *Position {
	keys := o.Keys()
	if len(keys) != 2 || keys[0] != "start" || keys[1] != "end" {
		return nil
	}
	startV, _ := o.Get("start")
	endV, _ := o.Get("end")
	start, ok := pointFromValue(startV)
	if !ok {
		return nil
	}
	end, ok := pointFromValue(endV)
	if !ok {
		return nil
	}
	return &Position{Start: start, End: end}
}

func pointFromValue(v any) (Point, bool) {
	o, ok := v.(*Object)
	if !ok {
		return Point{}, false
	}
	keys := o.Keys()
	if len(keys) < 2 || len(keys) > 3 || keys[0] != "line" || keys[1] != "column" {
		return Point{}, false
	}
	var pt Point
	line, ok := intValue(o, "line")
	if !ok || line < 1 {
		return Point{}, false
	}
	col, ok := intValue(o, "column")
	if !ok || col < 1 {
		return Point{}, false
	}
	pt.Line, pt.Column = line, col
	if len(keys) == 3 {
		if keys[2] != "offset" {
			return Point{}, false
		}
		off, ok := intValue(o, "offset")
		if !ok || off < 0 {
			return Point{}, false
		}
		pt.Offset = &off
	}
	return pt, true
}

func intValue(o *Object, key string) (int, bool) {
	v, _ := o.Get(key)
	i, ok := v.(int64)
	return int(i), ok
}
