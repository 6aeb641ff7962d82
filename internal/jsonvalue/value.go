// Package jsonvalue wraps a decoded JSON document of unknown shape and offers
// safe accessors that return optional scalars instead of failing.
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Value is a read-only view over one node of a decoded JSON document.
// The zero Value represents an absent node.
type Value struct {
	raw     any
	present bool
}

// Parse decodes text into a Value. Numbers are kept as json.Number so that
// integer fields are read without float rounding.
func Parse(text string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("decode json: %w", err)
	}
	// Anything after the first value other than whitespace is malformed.
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("decode json: trailing data after top-level value")
	}
	return Value{raw: raw, present: true}, nil
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(data []byte) (Value, error) {
	return Parse(string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
}

// Present reports whether the node exists. A JSON null is present.
func (v Value) Present() bool {
	return v.present
}

// IsArray reports whether the node is a JSON array.
func (v Value) IsArray() bool {
	_, ok := v.raw.([]any)
	return ok
}

// IsObject reports whether the node is a JSON object.
func (v Value) IsObject() bool {
	_, ok := v.raw.(map[string]any)
	return ok
}

// Has reports whether v is an object containing key, whatever its value.
func (v Value) Has(key string) bool {
	_, ok := v.Field(key)
	return ok
}

// Field returns the member key of an object. The second result is false when
// v is not an object or has no such member.
func (v Value) Field(key string) (Value, bool) {
	obj, ok := v.raw.(map[string]any)
	if !ok {
		return Value{}, false
	}
	member, ok := obj[key]
	if !ok {
		return Value{}, false
	}
	return Value{raw: member, present: true}, true
}

// Get returns the member key, or an absent Value.
func (v Value) Get(key string) Value {
	f, _ := v.Field(key)
	return f
}

// Elements returns the elements of an array, or nil when v is not an array.
func (v Value) Elements() []Value {
	arr, ok := v.raw.([]any)
	if !ok {
		return nil
	}
	out := make([]Value, len(arr))
	for i, item := range arr {
		out[i] = Value{raw: item, present: true}
	}
	return out
}

// AsString returns the node as a string if it is a JSON string.
func (v Value) AsString() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok
}

// AsUint64 returns the node as an unsigned integer if it is a JSON number
// written as a non-negative integer literal (no fraction, no exponent).
func (v Value) AsUint64() (uint64, bool) {
	n, ok := v.raw.(json.Number)
	if !ok {
		return 0, false
	}
	u, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return u, true
}

// OptionalTrimmedString reads member key as a string, trims surrounding
// whitespace and reports it only when non-empty. Non-string members are
// treated as absent.
func OptionalTrimmedString(v Value, key string) (string, bool) {
	s, ok := v.Get(key).AsString()
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// OptionalTrimmedStringPtr is OptionalTrimmedString returning nil when absent.
func OptionalTrimmedStringPtr(v Value, key string) *string {
	s, ok := OptionalTrimmedString(v, key)
	if !ok {
		return nil
	}
	return &s
}

// OptionalNonNegativeInt reads member key as a non-negative integer.
func OptionalNonNegativeInt(v Value, key string) (uint64, bool) {
	return v.Get(key).AsUint64()
}
