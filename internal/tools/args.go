package tools

import (
	"encoding/json"
	"math"
)

// String returns the string argument name, or def when it is absent or null.
func String(args map[string]any, name, def string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", InvalidArgumentf("%s must be a string, got %s", name, typeName(v))
	}
	return s, nil
}

// RequiredString returns the string argument name. It fails when the
// argument is absent, null or empty.
func RequiredString(args map[string]any, name string) (string, error) {
	s, err := String(args, name, "")
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", InvalidArgumentf("%s is required", name)
	}
	return s, nil
}

// StringSlice returns the string array argument name, or def when it is
// absent or null.
func StringSlice(args map[string]any, name string, def []string) ([]string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}

	switch vals := v.(type) {
	case []string:
		return append([]string(nil), vals...), nil
	case []any:
		out := make([]string, 0, len(vals))
		for i, item := range vals {
			s, ok := item.(string)
			if !ok {
				return nil, InvalidArgumentf("%s[%d] must be a string, got %s", name, i, typeName(item))
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, InvalidArgumentf("%s must be an array of strings, got %s", name, typeName(v))
	}
}

// Number returns the numeric argument name, or def when it is absent or null.
func Number(args map[string]any, name string, def float64) (float64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}

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
			return 0, InvalidArgumentf("%s must be a number: %v", name, err)
		}
		f = parsed
	default:
		return 0, InvalidArgumentf("%s must be a number, got %s", name, typeName(v))
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, InvalidArgumentf("%s must be a finite number", name)
	}
	return f, nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []any, []string:
		return "array"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}
