// Package convert provides type conversion utilities.
package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseFloat converts numeric values, numeric strings and gjson results to
// float64. Empty strings, NaN and unsupported types are reported as errors.
func ParseFloat(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("nil value")
	case float64:
		return checkFinite(t)
	case float32:
		return checkFinite(float64(t))
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, err
		}
		return checkFinite(f)
	case gjson.Result:
		return parseResult(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, fmt.Errorf("empty string")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return checkFinite(f)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// ParseInt64 accepts integral strings and floats ("12345", "12345.0").
// Fractional volumes are truncated.
func ParseInt64(v any) (int64, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
	}
	f, err := ParseFloat(v)
	if err != nil {
		return 0, err
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("value %v out of int64 range", f)
	}
	return int64(f), nil
}

func parseResult(r gjson.Result) (float64, error) {
	switch r.Type {
	case gjson.Number:
		return checkFinite(r.Num)
	case gjson.String:
		return ParseFloat(r.Str)
	default:
		return 0, fmt.Errorf("unexpected json type %s", r.Type)
	}
}

func checkFinite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %v", f)
	}
	return f, nil
}
