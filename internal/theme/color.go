package theme

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// namedColors is the small set of CSS keywords accepted in documents.
var namedColors = map[string]string{
	"black":       "#000000",
	"white":       "#ffffff",
	"red":         "#ff0000",
	"green":       "#008000",
	"blue":        "#0000ff",
	"yellow":      "#ffff00",
	"orange":      "#ffa500",
	"gray":        "#808080",
	"grey":        "#808080",
	"navy":        "#000080",
	"silver":      "#c0c0c0",
	"transparent": "#00000000",
}

// Color normalizes a CSS color to lowercase hex (#rrggbb or #rrggbbaa).
// Accepted inputs are #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(), rgba() and
// a few named colors. Anything else yields fallback. The result never
// contains characters that need escaping inside a style attribute.
func Color(value, fallback string) string {
	if c, ok := ParseColor(value); ok {
		return c
	}
	if c, ok := ParseColor(fallback); ok {
		return c
	}
	return ""
}

// ParseColor is Color without a fallback.
func ParseColor(value string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", false
	}
	if hex, ok := namedColors[v]; ok {
		return hex, true
	}
	if strings.HasPrefix(v, "#") {
		return parseHex(v[1:])
	}
	if strings.HasPrefix(v, "rgb") {
		return parseRGB(v)
	}
	return "", false
}

func parseHex(h string) (string, bool) {
	for _, c := range h {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return "", false
		}
	}
	switch len(h) {
	case 3, 4:
		var b strings.Builder
		b.WriteByte('#')
		for _, c := range h {
			b.WriteRune(c)
			b.WriteRune(c)
		}
		return b.String(), true
	case 6, 8:
		return "#" + h, true
	}
	return "", false
}

func parseRGB(v string) (string, bool) {
	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return "", false
	}
	fn := v[:open]
	if fn != "rgb" && fn != "rgba" {
		return "", false
	}
	parts := strings.Split(v[open+1:len(v)-1], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return "", false
	}
	var rgb [3]int
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return "", false
		}
		rgb[i] = n
	}
	out := fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || math.IsNaN(a) || a < 0 || a > 1 {
			return "", false
		}
		out += fmt.Sprintf("%02x", int(math.Round(a*255)))
	}
	return out, true
}

// WithAlpha returns color as #rrggbbaa using the given alpha byte. Any alpha
// already present on color is replaced.
func WithAlpha(color string, alpha uint8) string {
	c, ok := ParseColor(color)
	if !ok {
		return ""
	}
	return c[:7] + fmt.Sprintf("%02x", alpha)
}

// Font reduces a font family name to letters, digits, spaces and hyphens,
// falling back when nothing usable remains. "inherit" passes through.
func Font(value, fallback string) string {
	clean := func(s string) string {
		var b strings.Builder
		for _, r := range strings.TrimSpace(s) {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
				b.WriteRune(r)
			case r == '-':
				if !strings.HasSuffix(b.String(), "-") {
					b.WriteRune(r)
				}
			}
		}
		return strings.Join(strings.Fields(b.String()), " ")
	}
	if f := clean(value); f != "" {
		return f
	}
	return clean(fallback)
}
