package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

// maxDecodeDepth bounds nesting when decoding JSON documents.
const maxDecodeDepth = 10000

func newDecoder(data []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec
}

// Decode reads one JSON document and returns it as an ordered data value
// (nil, bool, int64, float64, string, []any or *Object).
func Decode(data []byte) (any, error) {
	dec := newDecoder(data)
	v, err := decodeValue(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("ast: trailing data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder, depth int) (any, error) {
	if depth > maxDecodeDepth {
		return nil, fmt.Errorf("ast: JSON nesting exceeds %d levels", maxDecodeDepth)
	}

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("ast: invalid object key %v", keyTok)
				}
				val, err := decodeValue(dec, depth+1)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := make([]any, 0)
			for dec.More() {
				val, err := decodeValue(dec, depth+1)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("ast: unexpected delimiter %q", t)
		}
	case json.Number:
		return NormalizeNumber(t)
	case string, bool, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("ast: unexpected token %v", tok)
	}
}

// NormalizeNumber converts a JSON number to int64 when it is integral and
// representable, float64 otherwise.
func NormalizeNumber(n json.Number) (any, error) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return nil, fmt.Errorf("ast: invalid number %q: %w", n, err)
	}
	return NormalizeFloat(f), nil
}

// NormalizeFloat returns f as int64 when it has no fractional part and fits
// in the safe integer range shared by JSON and JavaScript. Negative zero
// becomes 0, as JSON.stringify does.
func NormalizeFloat(f float64) any {
	const maxSafe = 1<<53 - 1
	if f == math.Trunc(f) && math.Abs(f) <= maxSafe {
		return int64(f)
	}
	return f
}
