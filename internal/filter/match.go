package filter

import (
	"fmt"
	"strings"
	"time"
)

// Match evaluates the filter against a record held in memory.
func (f Filter) Match(rec map[string]any) bool {
	for _, c := range f.Conditions {
		if !c.Match(rec) {
			return false
		}
	}
	if len(f.Any) == 0 {
		return true
	}
	for _, c := range f.Any {
		if c.Match(rec) {
			return true
		}
	}
	return false
}

func (c Condition) Match(rec map[string]any) bool {
	v, present := rec[c.Field]
	if present && isNil(v) {
		present = false
	}

	switch c.Operator {
	case OpNull:
		return !present
	case OpNotNull:
		return present
	case OpEq:
		if c.Value == nil {
			return !present
		}
		return present && Equal(v, c.Value)
	case OpNe:
		if c.Value == nil {
			return present
		}
		return !present || !Equal(v, c.Value)
	case OpIn:
		list, _ := values(c.Value)
		if !present {
			return false
		}
		for _, candidate := range list {
			if Equal(v, candidate) {
				return true
			}
		}
		return false
	case OpContainsi:
		if !present {
			return false
		}
		return strings.Contains(strings.ToLower(fmt.Sprint(v)), strings.ToLower(fmt.Sprint(c.Value)))
	case OpGt, OpGte, OpLt, OpLte:
		if !present {
			return false
		}
		cmp, ok := Compare(v, c.Value)
		if !ok {
			return false
		}
		switch c.Operator {
		case OpGt:
			return cmp > 0
		case OpGte:
			return cmp >= 0
		case OpLt:
			return cmp < 0
		default:
			return cmp <= 0
		}
	}
	return false
}

func isNil(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *time.Time:
		return t == nil
	case *string:
		return t == nil
	}
	return false
}

// Equal compares two JSON-ish values. Numbers compare by value, times by
// instant, everything else by its string form.
func Equal(a, b any) bool {
	if cmp, ok := Compare(a, b); ok {
		return cmp == 0
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// Compare orders two values of compatible kinds. ok is false when the kinds
// cannot be ordered against each other.
func Compare(a, b any) (int, bool) {
	if ta, ok := asTime(a); ok {
		if tb, ok := parseTime(b); ok {
			return ta.Compare(tb), true
		}
		return 0, false
	}
	if tb, ok := asTime(b); ok {
		if ta, ok := parseTime(a); ok {
			return ta.Compare(tb), true
		}
		return 0, false
	}
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			}
			return 0, true
		}
		return 0, false
	}
	sa, okA := a.(string)
	sb, okB := b.(string)
	if okA && okB {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

// parseTime also accepts RFC 3339 strings, the form times take after a
// JSON round trip.
func parseTime(v any) (time.Time, bool) {
	if s, ok := v.(string); ok {
		t, err := time.Parse(time.RFC3339Nano, s)
		return t, err == nil
	}
	return asTime(v)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func values(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(list))
		for i, n := range list {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}
