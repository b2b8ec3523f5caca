package expr

import (
	"encoding/json"
	"fmt"
)

// parseNumber parses a numeric literal, preferring int64.
func parseNumber(s string) (any, bool) {
	var num json.Number
	if err := json.Unmarshal([]byte(s), &num); err != nil {
		// json rejects leading '+' and bare '.5'; fall back to Sscan.
		var f float64
		if _, err := fmt.Sscan(s, &f); err != nil {
			return nil, false
		}
		return f, true
	}
	if i, err := num.Int64(); err == nil {
		return i, true
	}
	if f, err := num.Float64(); err == nil {
		return f, true
	}
	return nil, false
}

// IsTruthy returns whether a value is truthy.
// nil is false, bools return their value, empty strings are false,
// zero numbers are false, everything else is true.
func IsTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case int64:
		return val != 0
	case int32:
		return val != 0
	case uint32:
		return val != 0
	case uint64:
		return val != 0
	case float64:
		return val != 0
	case float32:
		return val != 0
	default:
		return true
	}
}

// ToFloat64 converts a value to float64 for numeric comparison.
// Booleans map to 0 and 1. Returns 0 for values that cannot be converted.
func ToFloat64(v any) float64 {
	f, _ := toNumber(v)
	return f
}

// toNumber reports whether v is numeric (or boolean) and its float value.
func toNumber(v any) (float64, bool) {
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
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		var f float64
		if _, err := fmt.Sscan(val, &f); err == nil {
			return f, false
		}
		return 0, false
	default:
		return 0, false
	}
}
