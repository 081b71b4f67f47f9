// Package payload reads loosely shaped JSON documents where the same value can
// live under several keys or nesting levels.
package payload

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Object is a decoded JSON object whose members are left raw.
type Object map[string]json.RawMessage

// Parse decodes b as a JSON object.
func Parse(b []byte) (Object, error) {
	var o Object
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, err
	}

	return o, nil
}

// AsObject decodes raw as an object. Anything else, null included, yields false.
func AsObject(raw json.RawMessage) (Object, bool) {
	if IsNull(raw) {
		return nil, false
	}

	var o Object
	if err := json.Unmarshal(raw, &o); err != nil || o == nil {
		return nil, false
	}

	return o, true
}

// IsNull reports whether raw is absent or the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Lookup follows a dotted path ("balance.opening"). Null members count as missing.
func (o Object) Lookup(path string) (json.RawMessage, bool) {
	keys := strings.Split(path, ".")
	cur := o

	for i, key := range keys {
		raw, ok := cur[key]
		if !ok || IsNull(raw) {
			return nil, false
		}

		if i == len(keys)-1 {
			return raw, true
		}

		next, ok := AsObject(raw)
		if !ok {
			return nil, false
		}

		cur = next
	}

	return nil, false
}

// First returns the value of the first path that resolves.
func (o Object) First(paths ...string) (json.RawMessage, bool) {
	for _, p := range paths {
		if raw, ok := o.Lookup(p); ok {
			return raw, true
		}
	}

	return nil, false
}

// Decimal reads the first path holding a number or a numeric string.
func (o Object) Decimal(paths ...string) (decimal.Decimal, bool) {
	for _, p := range paths {
		raw, ok := o.Lookup(p)
		if !ok {
			continue
		}

		if d, ok := Decimal(raw); ok {
			return d, true
		}
	}

	return decimal.Zero, false
}

// String reads the first path holding a string or a number.
func (o Object) String(paths ...string) (string, bool) {
	for _, p := range paths {
		raw, ok := o.Lookup(p)
		if !ok {
			continue
		}

		if s, ok := String(raw); ok {
			return s, true
		}
	}

	return "", false
}

// Array reads the first path holding a JSON array.
func (o Object) Array(paths ...string) ([]json.RawMessage, bool) {
	for _, p := range paths {
		raw, ok := o.Lookup(p)
		if !ok {
			continue
		}

		if items, ok := Array(raw); ok {
			return items, true
		}
	}

	return nil, false
}

// Decimal decodes a JSON number or a numeric string.
func Decimal(raw json.RawMessage) (decimal.Decimal, bool) {
	if IsNull(raw) {
		return decimal.Zero, false
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}

	return d, true
}

// String decodes a JSON string, or renders a JSON number as text.
func String(raw json.RawMessage) (string, bool) {
	if IsNull(raw) {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}

	return "", false
}

// Array decodes a JSON array.
func Array(raw json.RawMessage) ([]json.RawMessage, bool) {
	if IsNull(raw) {
		return nil, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	return items, true
}
