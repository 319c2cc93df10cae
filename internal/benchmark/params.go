package benchmark

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"
)

// Params holds workload or environment parameters by name. Values come from
// decoded YAML or JSON, so numbers may be any of Go's numeric kinds.
type Params map[string]any

// Clone returns a shallow copy; nil stays nil.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Has reports whether key is set.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the value of key formatted as a string, or def when unset.
func (p Params) String(key, def string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the integer value of key, or def when unset.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("param %q: %v is not an integer", key, n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("param %q: %w", key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("param %q: unsupported type %T", key, v)
	}
}

// Float returns the numeric value of key, or def when unset.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("param %q: %w", key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("param %q: unsupported type %T", key, v)
	}
}

// Bool returns the boolean value of key, or def when unset.
func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, fmt.Errorf("param %q: %w", key, err)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("param %q: unsupported type %T", key, v)
	}
}

// Duration returns the duration value of key, or def when unset. Strings are
// parsed as Go durations ("250ms"); numbers are seconds.
func (p Params) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("param %q: %w", key, err)
		}
		return d, nil
	}
	secs, err := p.Float(key, 0)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Strings returns a list value. A plain string is split on whitespace.
func (p Params) Strings(key string) ([]string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case string:
		return strings.Fields(list), nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("param %q: unsupported type %T", key, v)
	}
}
