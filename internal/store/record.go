package store

import (
	"fmt"
	"strconv"
)

// Record is one raw usage row as read from storage: an untyped attribute
// bag whose shape varies per service.
type Record map[string]any

// Has reports whether the attribute exists.
func (r Record) Has(field string) bool {
	_, ok := r[field]
	return ok
}

// String returns the attribute coerced to a string. Numeric values are
// formatted; absent or empty values report false.
func (r Record) String(field string) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", false
		}
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return fmt.Sprintf("%v", t), true
	}
}

// Int64 returns the attribute as a 64-bit integer, or 0 when absent or
// non-numeric. DynamoDB numbers arrive as float64 after unmarshaling.
func (r Record) Int64(field string) int64 {
	v, ok := r[field]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int:
		return int64(t)
	case int64:
		return t
	case uint64:
		return int64(t)
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// FirstPositiveInt64 returns the first listed attribute with a nonzero
// integer value, or fallback when none qualifies.
func (r Record) FirstPositiveInt64(fallback int64, fields ...string) int64 {
	for _, field := range fields {
		if n := r.Int64(field); n != 0 {
			return n
		}
	}
	return fallback
}
