package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ToString renders an untyped raw field as a trimmed string. nil and missing
// values become "".
func ToString(val interface{}) string {
	if val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case json.Number:
		return v.String()
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// ToFloat converts an untyped raw field to float64. The source API delivers
// coordinates both as JSON numbers and as quoted strings.
func ToFloat(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float", val)
	}
}

// IsBlank reports whether a raw field is nil, empty, or whitespace-only.
func IsBlank(val interface{}) bool {
	return ToString(val) == ""
}
