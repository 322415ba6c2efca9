package content

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// cloneValue deep-copies the map and slice shapes produced by the JSON,
// YAML and TOML decoders so normalization never aliases caller data.
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[cast.ToString(k)] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneMap(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	default:
		return v
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// isEmpty reports whether v counts as "not supplied": absent, null, a blank
// string or an empty list.
func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case []map[string]any:
		return len(val) == 0
	}
	return false
}

func asMap(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case map[any]any:
		m, _ := cloneValue(val).(map[string]any)
		return m, true
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	switch val := v.(type) {
	case []any:
		return val, true
	case []map[string]any, []string:
		s, _ := cloneValue(val).([]any)
		return s, true
	}
	return nil, false
}

// number coerces v to a finite float64. Absent, blank, non-numeric and
// non-finite values report false.
func number(v any) (float64, bool) {
	switch val := v.(type) {
	case nil, bool, map[string]any, []any:
		return 0, false
	case string:
		if strings.TrimSpace(val) == "" {
			return 0, false
		}
		v = strings.TrimSpace(val)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// num returns the first candidate that coerces to a number accepted by ok,
// or def.
func num(def float64, ok func(float64) bool, candidates ...any) float64 {
	for _, c := range candidates {
		if f, valid := number(c); valid && (ok == nil || ok(f)) {
			return f
		}
	}
	return def
}

func positive(f float64) bool { return f > 0 }

func nonNegative(f float64) bool { return f >= 0 }

func fontSize(f float64) bool { return f > 0 && f <= 400 }

func percent(v any, def float64) float64 {
	f, ok := number(v)
	if !ok {
		return def
	}
	return math.Min(100, math.Max(0, f))
}

// text coerces scalars to a string; maps, lists and nil yield "".
func text(v any) string {
	switch v.(type) {
	case nil, map[string]any, map[any]any, []any:
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

// multiline accepts a string or a list of strings joined by newlines.
func multiline(v any) string {
	if list, ok := asSlice(v); ok {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s := text(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	return text(v)
}

// textList accepts a list of scalars or a newline separated string.
func textList(v any) []string {
	out := []string{}
	if list, ok := asSlice(v); ok {
		for _, item := range list {
			if item == nil {
				continue
			}
			out = append(out, text(item))
		}
		return out
	}
	for _, line := range strings.Split(text(v), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func boolean(v any, def bool) bool {
	if v == nil {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

// leftover returns the entries of m whose keys are not in consumed, or nil
// when nothing remains.
func leftover(m map[string]any, consumed ...string) map[string]any {
	skip := make(map[string]bool, len(consumed))
	for _, k := range consumed {
		skip[k] = true
	}
	var out map[string]any
	for k, v := range m {
		if skip[k] {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = cloneValue(v)
	}
	return out
}
