// Package ast defines the native Markdown syntax tree produced by the bridge.
//
// # Overview
//
// A tree is a set of *Node values. Every node carries a non-empty Type
// discriminator, an ordered Children slice (nil for leaves), an optional
// source Position, and a Data bag holding every other field the script
// bundle emitted (depth, value, url, lang, align, ...).
//
// The Type set is open. New node kinds introduced by a bundle update are
// carried through without code changes, and unknown fields survive in Data.
//
// # Field Order
//
// Nodes remember the order in which their fields were produced so that JSON
// output mirrors the bundle's output key for key:
//
//	{"type":"heading","depth":1,"children":[...],"position":{...}}
//
// Nodes built in Go without a recorded order serialize as type, data fields,
// children, position.
//
// # Values
//
// Data values are restricted to JSON-compatible Go values:
//
//	nil, bool, int64, float64, string, []any, *Object
//
// Integral numbers are always int64 so that a tree decoded from JSON is
// deep-equal to the tree it was encoded from.
package ast
