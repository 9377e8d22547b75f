// Package table implements the filter, sort and paginate pipeline shared by
// every list screen in the console.
//
// The pipeline is generic over the record shape: callers supply an Accessor
// that reads a named field from a record. Record plus RecordField cover the
// common case of JSON objects decoded from the backend.
//
// All operations are pure and synchronous. None of them panic or return
// errors on malformed data: missing fields fail filter predicates and sort
// as the empty string.
package table

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one backend object decoded from JSON.
type Record map[string]any

// Accessor reads a field from a record. The boolean is false when the field
// is absent or null.
type Accessor[T any] func(rec T, field string) (any, bool)

// RecordField is the Accessor for Record. Dotted names ("branch.name")
// descend into nested objects.
func RecordField(rec Record, field string) (any, bool) {
	if v, ok := rec[field]; ok {
		return v, v != nil
	}
	if !strings.Contains(field, ".") {
		return nil, false
	}

	var cur any = rec
	for _, part := range strings.Split(field, ".") {
		m, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// ID returns the record's identifier as text, trying field then the usual
// backend spellings.
func (r Record) ID(field string) string {
	for _, name := range []string{field, "_id", "id"} {
		if name == "" {
			continue
		}
		if v, ok := RecordField(r, name); ok {
			return Text(v)
		}
	}
	return ""
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

// Text renders a field value as the string used for searching, categorical
// matching and string sorting.
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case time.Time:
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	case map[string]any, Record, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

// number reports whether v is a numeric value and returns it as float64.
// Numeric-looking strings are not numbers.
func number(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case uint32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
