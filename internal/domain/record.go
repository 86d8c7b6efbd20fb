package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Record is a single flat document as stored in a collection.
// Values are JSON-native: string, float64, bool, nil (and nested maps/slices
// when a caller stores them).
type Record map[string]any

// ID returns the record identifier, or "" when it has none.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Matches reports whether every filter entry loosely equals the record's field.
// An empty filter matches every record.
func (r Record) Matches(filter map[string]any) bool {
	for k, want := range filter {
		if !LooseEqual(r[k], want) {
			return false
		}
	}
	return true
}

// Normalize converts rec to JSON-native values so that every backend stores
// and returns the same representation (numbers become float64, times become
// RFC 3339 strings).
func Normalize(rec Record) (Record, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("domain.Normalize: %w", err)
	}
	var out Record
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("domain.Normalize: %w", err)
	}
	return out, nil
}

// LooseEqual compares two scalar values tolerating type coercion between
// strings, numbers, and booleans: "5" equals 5, "true" equals true, 1 equals true.
// nil only equals nil. Empty or non-numeric strings never equal a number.
func LooseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}
	af, aNum := toNumber(a)
	bf, bNum := toNumber(b)
	if aNum && bNum {
		return af == bf
	}
	if _, ok := a.(string); ok && bNum {
		return stringEqualsNumber(a.(string), bf)
	}
	if _, ok := b.(string); ok && aNum {
		return stringEqualsNumber(b.(string), af)
	}
	return reflect.DeepEqual(a, b)
}

// Variants returns the values v may be stored as and still loosely equal v.
// Document drivers use it to express loose equality as a membership query.
func Variants(v any) []any {
	if v == nil {
		return []any{nil}
	}
	out := []any{v}
	add := func(x any) {
		for _, y := range out {
			if y == x {
				return
			}
		}
		out = append(out, x)
	}

	s, isString := v.(string)
	var (
		f     float64
		isNum bool
	)
	if isString {
		f, isNum = parseLoose(s)
	} else {
		f, isNum = toNumber(v)
	}
	if !isNum {
		return out
	}

	add(f)
	if !isString {
		// Strings only equal other values, never other strings.
		add(strconv.FormatFloat(f, 'f', -1, 64))
	}
	switch f {
	case 1:
		add(true)
		if !isString {
			add("true")
		}
	case 0:
		add(false)
		if !isString {
			add("false")
		}
	}
	return out
}

// Canonical renders a scalar as the string JSON text extraction would yield,
// e.g. 120 → "120", true → "true". It reports false for nil and composite values.
func Canonical(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	}
	if f, ok := toNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

func stringEqualsNumber(s string, f float64) bool {
	parsed, ok := parseLoose(s)
	return ok && parsed == f
}

// parseLoose reads a string as a number the way loose equality does:
// "true" and "false" count as 1 and 0, blank strings are not numbers.
func parseLoose(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	switch t {
	case "":
		return 0, false
	case "true":
		return 1, true
	case "false":
		return 0, true
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// toNumber reports the float64 value of numeric kinds; booleans count as 1 and 0.
func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
