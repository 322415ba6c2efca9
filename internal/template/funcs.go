package template

import (
	"fmt"
	"html/template"
	"reflect"
	"strconv"
	"strings"

	"github.com/aellingwood/cardforge/internal/layout"
	"github.com/aellingwood/cardforge/internal/theme"
)

// FuncMap returns the custom template functions available to all card
// templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		// Color and number functions
		"alpha": alpha,
		"num":   layout.Num,

		// String functions
		"truncate": truncate,
		"join":     join,

		// Collection functions
		"first": first,

		// Helpers
		"add":  add,
		"dict": dict,
	}
}

// --- Color and number functions ---

// alpha returns color with the given two-digit hex alpha, e.g.
// {{ alpha .Theme.PrimaryColor "22" }}. Invalid input yields "transparent".
func alpha(color, hex string) string {
	a, err := strconv.ParseUint(hex, 16, 8)
	if err != nil {
		return "transparent"
	}
	if c := theme.WithAlpha(color, uint8(a)); c != "" {
		return c
	}
	return "transparent"
}

// --- String functions ---

// truncate truncates a string to n characters, appending "..." if truncated.
func truncate(n int, s string) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// join concatenates the elements of a slice with sep. Non-slice values are
// formatted with fmt.Sprint; nil yields "".
func join(sep string, items any) string {
	if items == nil {
		return ""
	}
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice {
		return fmt.Sprint(items)
	}
	parts := make([]string, v.Len())
	for i := range v.Len() {
		parts[i] = fmt.Sprint(v.Index(i).Interface())
	}
	return strings.Join(parts, sep)
}

// --- Collection functions ---

// first returns the first n items from a slice. If the slice has fewer than n
// items, the full slice is returned.
func first(n int, items any) any {
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice {
		return items
	}
	if n > v.Len() {
		n = v.Len()
	}
	if n < 0 {
		n = 0
	}
	return v.Slice(0, n).Interface()
}

// --- Helpers ---

// add returns a + b.
func add(a, b int) int {
	return a + b
}

// dict creates a map[string]any from alternating key-value pairs.
// Example usage in templates: {{ dict "key1" "val1" "key2" "val2" }}
func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key at position %d is not a string", i)
		}
		m[key] = values[i+1]
	}
	return m, nil
}
