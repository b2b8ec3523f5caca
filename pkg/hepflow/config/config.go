package config

// Params wraps the free-form parameter block of a filter, scale factor or
// module for typed value extraction. All accessor methods return the default
// value if the key is missing or the value cannot be converted.
type Params struct {
	data map[string]any
}

// New creates Params from the given map.
// If data is nil, empty Params are returned.
func New(data map[string]any) Params {
	if data == nil {
		data = make(map[string]any)
	}
	return Params{data: data}
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (p Params) String(key, defaultVal string) string {
	if s, ok := p.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not a bool.
func (p Params) Bool(key string, defaultVal bool) bool {
	if b, ok := p.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not
// convertible. A float64 converts only if it has no fractional part, which
// is how JSON numbers arrive.
func (p Params) Int(key string, defaultVal int) int {
	switch val := p.data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Float returns the float64 value for key, or defaultVal if missing or not convertible.
func (p Params) Float(key string, defaultVal float64) float64 {
	if f, ok := toFloat(p.data[key]); ok {
		return f
	}
	return defaultVal
}

// StringSlice returns the string slice for key, or defaultVal if missing or
// if any element is not a string.
func (p Params) StringSlice(key string, defaultVal []string) []string {
	switch val := p.data[key].(type) {
	case []string:
		return val
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			result = append(result, s)
		}
		return result
	}
	return defaultVal
}

// FloatSlice returns the numeric slice for key (bin edges, table values),
// or defaultVal if missing or if any element is not a number.
func (p Params) FloatSlice(key string, defaultVal []float64) []float64 {
	switch val := p.data[key].(type) {
	case []float64:
		return val
	case []any:
		result := make([]float64, 0, len(val))
		for _, item := range val {
			f, ok := toFloat(item)
			if !ok {
				return defaultVal
			}
			result = append(result, f)
		}
		return result
	}
	return defaultVal
}

// Has returns true if the key exists.
func (p Params) Has(key string) bool {
	_, ok := p.data[key]
	return ok
}

// Raw returns the underlying map.
// The returned map should not be modified.
func (p Params) Raw() map[string]any {
	return p.data
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	}
	return 0, false
}
