// Package layout computes the typography, overflow handling and placement of
// individual text fields. Every function is pure: the result depends only on
// the arguments, so templates may resolve fields concurrently.
package layout

import (
	"html/template"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aellingwood/cardforge/internal/content"
	"github.com/aellingwood/cardforge/internal/theme"
)

// DefaultAutofitThreshold is the text length (in characters) above which
// autofit starts shrinking.
const DefaultAutofitThreshold = 90

// autofitStep is the number of characters over the threshold that cost one
// pixel of font size.
const autofitStep = 18

// FieldDefaults is a template's typography for one field. It applies
// wherever the document carries no override.
type FieldDefaults struct {
	Size             float64
	MinSize          float64
	Font             string
	Bold             bool
	Italic           bool
	Color            string
	Overflow         content.OverflowMode
	ClampLines       int
	AutofitThreshold int
}

// Resolved is the effective presentation of a field.
type Resolved struct {
	Field      string
	FontSize   float64
	Mode       content.OverflowMode
	ClampLines int
	Positioned bool
	CSS        template.CSS
}

// Resolve computes the effective style of field in doc. Document overrides
// win over def; the overflow entry of the document applies only when the
// document carries one for the field. In free layout mode the field's box,
// if any, positions it absolutely on the canvas and caps autofit by area.
func Resolve(doc *content.Document, field string, def FieldDefaults) Resolved {
	style := doc.Style(field)

	// Normalization fills 14 for fields without a size, so 14 reads as unset
	// and the template's size applies.
	base := def.Size
	if style.FontSize > 0 && style.FontSize != content.DefaultFontSize {
		base = style.FontSize
	}
	if base <= 0 {
		base = content.DefaultFontSize
	}

	mode, clampLines, minSize := def.Overflow, def.ClampLines, def.MinSize
	if o, ok := doc.FieldOverflow[field]; ok {
		mode, clampLines, minSize = o.Mode, o.ClampLines, o.MinSize
	}
	if !mode.Valid() {
		mode = content.OverflowWrap
	}
	if clampLines < 1 {
		clampLines = 1
	}
	if minSize <= 0 {
		minSize = 1
	}

	box, hasBox := doc.BoxFor(field)
	positioned := hasBox && doc.LayoutMode == content.LayoutFree

	size := base
	if mode == content.OverflowAutofit {
		length := utf8.RuneCountInString(doc.Text(field))
		threshold := def.AutofitThreshold
		if threshold <= 0 {
			threshold = DefaultAutofitThreshold
		}
		size = Autofit(base, minSize, length, threshold)
		if positioned {
			size = math.Max(minSize, math.Min(size, BoxCap(box, length)))
		}
	}

	var b strings.Builder
	b.WriteString("font-size:" + Num(size) + "px;")

	font := def.Font
	if style.Font != "" && !strings.EqualFold(style.Font, "inherit") {
		font = style.Font
	}
	if font = theme.Font(font, ""); font != "" && !strings.EqualFold(font, "inherit") {
		b.WriteString("font-family:'" + font + "',sans-serif;")
	}
	if style.Bold || def.Bold {
		b.WriteString("font-weight:700;")
	}
	if style.Italic || def.Italic {
		b.WriteString("font-style:italic;")
	}
	if color := theme.Color(style.Color, theme.Color(def.Color, "")); color != "" {
		b.WriteString("color:" + color + ";")
	}

	switch mode {
	case content.OverflowEllipsis:
		b.WriteString("white-space:nowrap;overflow:hidden;text-overflow:ellipsis;")
	case content.OverflowClamp:
		n := strconv.Itoa(clampLines)
		b.WriteString("display:-webkit-box;-webkit-box-orient:vertical;-webkit-line-clamp:" + n + ";line-clamp:" + n + ";overflow:hidden;")
	default:
		b.WriteString("white-space:pre-line;overflow-wrap:anywhere;word-break:break-word;")
	}

	if positioned {
		b.WriteString(string(BoxCSS(box)))
	}

	return Resolved{
		Field:      field,
		FontSize:   size,
		Mode:       mode,
		ClampLines: clampLines,
		Positioned: positioned,
		CSS:        template.CSS(b.String()),
	}
}

// Autofit shrinks base by one pixel for every autofitStep characters over
// threshold, never going below minSize. The result never increases as length
// grows.
func Autofit(base, minSize float64, length, threshold int) float64 {
	if length <= threshold {
		return math.Max(minSize, base)
	}
	shrunk := math.Floor(base - float64(length-threshold)/autofitStep)
	return math.Max(minSize, shrunk)
}

// BoxCap is the largest font size the box area allows for length characters.
// Width and height are percentages of the canvas.
func BoxCap(box content.Box, length int) float64 {
	w := math.Max(8, box.Width)
	h := math.Max(4, box.Height)
	return math.Floor(w * h / math.Max(18, math.Sqrt(float64(max(length, 1)))))
}

// BoxCSS positions an element at box, centered on (X, Y).
func BoxCSS(box content.Box) template.CSS {
	return template.CSS("position:absolute;left:" + Num(box.X) + "%;top:" + Num(box.Y) +
		"%;width:" + Num(box.Width) + "%;height:" + Num(box.Height) +
		"%;transform:translate(-50%,-50%);z-index:" + Num(box.ZIndex) + ";")
}

// Num formats a CSS number without trailing zeros. Non-finite values print
// as 0.
func Num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
