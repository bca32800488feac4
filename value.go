package edgesession

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// maxExactFloat is the largest integer a float64 holds without rounding.
const maxExactFloat = 1 << 53

// isNil reports whether v stands for "no value": a nil interface, a nil
// pointer, map, slice, func, chan or interface, or a raw JSON null.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	if raw, ok := v.(json.RawMessage); ok {
		return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// encodeValue serializes a state value for the store. Strings, numbers,
// booleans, objects and arrays all go through encoding/json so that they
// come back with their original type.
func encodeValue(v any) (string, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return string(raw), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("edgesession: encode value: %w", err)
	}
	return string(b), nil
}

// decodeValue parses a stored value. Anything that is not valid JSON is
// returned as the raw string instead of failing, since stores written by
// other clients may hold plain strings.
//
// Numbers come back as float64, except integers a float64 cannot hold
// exactly. Those come back as int64, or as json.Number beyond int64.
func decodeValue(s string) any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return s
	}
	if _, err := dec.Token(); err != io.EOF {
		return s
	}
	return normalizeNumbers(v)
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		return numberValue(t)
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
	}
	return v
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		if i > maxExactFloat || i < -maxExactFloat {
			return i
		}
		return float64(i)
	}
	if !strings.ContainsAny(n.String(), ".eE") {
		return n
	}
	f, err := n.Float64()
	if err != nil {
		return n
	}
	return f
}
