package normalize

import (
	"encoding/json"
	"math"
	"strconv"
)

// The backend this layer talks to has gone through several naming
// conventions (camelCase, PascalCase, Spanish/English, nested objects).
// Rather than scattering ad-hoc key probes, every target field is resolved
// through an ordered candidate-key list: the first present, usable value
// wins and a documented default applies when none match.
//
// A candidate key may contain a single dot ("producto.productoId") to reach
// one level into a nested object.

// lookup returns the value at key, descending one nesting level for dotted
// keys. The second return is false when the key is absent or nil.
func lookup(raw map[string]any, key string) (any, bool) {
	if raw == nil {
		return nil, false
	}
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			inner, ok := lookup(raw, key[:i])
			if !ok {
				return nil, false
			}
			obj, ok := inner.(map[string]any)
			if !ok {
				return nil, false
			}
			return lookup(obj, key[i+1:])
		}
	}
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// firstNumber resolves the first candidate key holding a coercible number.
// Coercion failures yield 0; the result is always finite, never NaN.
func firstNumber(raw map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := lookup(raw, key)
		if !ok {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return coerceNumber(v), true
	}
	return 0, false
}

// firstInt is firstNumber truncated to an int.
func firstInt(raw map[string]any, keys ...string) (int, bool) {
	f, ok := firstNumber(raw, keys...)
	return int(f), ok
}

// firstString resolves the first candidate key holding a non-empty string
// representation. Non-string scalars are stringified the way the source
// system did (numbers without a trailing ".0").
func firstString(raw map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := lookup(raw, key)
		if !ok {
			continue
		}
		s := coerceString(v)
		if s == "" {
			continue
		}
		return s, true
	}
	return "", false
}

// firstObject resolves the first candidate key holding a JSON object.
func firstObject(raw map[string]any, keys ...string) (map[string]any, bool) {
	for _, key := range keys {
		v, ok := lookup(raw, key)
		if !ok {
			continue
		}
		if obj, isObj := v.(map[string]any); isObj {
			return obj, true
		}
	}
	return nil, false
}

// firstArray resolves the first candidate key holding a non-empty JSON array.
func firstArray(raw map[string]any, keys ...string) ([]any, bool) {
	for _, key := range keys {
		v, ok := lookup(raw, key)
		if !ok {
			continue
		}
		if arr, isArr := v.([]any); isArr && len(arr) > 0 {
			return arr, true
		}
	}
	return nil, false
}

func coerceNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if n {
			f = 1
		}
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func coerceString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}
