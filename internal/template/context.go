package template

import (
	"cmp"
	"html/template"
	"net/url"
	"slices"
	"strings"

	"github.com/aellingwood/cardforge/internal/content"
	"github.com/aellingwood/cardforge/internal/layout"
	"github.com/aellingwood/cardforge/internal/theme"
)

// Canvas is the fixed page size every template renders, in CSS pixels
// (A4 portrait at 96 dpi).
type Canvas struct {
	Width  int
	Height int
}

// PageCanvas is the canvas all percentage positions are relative to.
var PageCanvas = Canvas{Width: 794, Height: 1123}

// PageContext is the data passed to every template as ".". It is built per
// render call and never shared.
type PageContext struct {
	Def     Definition
	Doc     *content.Document
	Theme   theme.Theme
	Effects theme.Effects
	Canvas  Canvas
	Brand   Branding
}

// NewPageContext builds the context for rendering doc with def. doc must be
// normalized; it is only read.
func NewPageContext(def Definition, doc *content.Document, t theme.Theme, fx theme.Effects) *PageContext {
	return &PageContext{
		Def:     def,
		Doc:     doc,
		Theme:   t,
		Effects: fx,
		Canvas:  PageCanvas,
		Brand:   DefaultBranding,
	}
}

// ID is the template id being rendered.
func (c *PageContext) ID() string { return c.Def.ID }

// Title is the document title for the <title> element.
func (c *PageContext) Title() string {
	if c.Doc.Title != "" {
		return c.Doc.Title
	}
	return c.Def.Name
}

// Free reports whether text fields are placed by their field boxes.
func (c *PageContext) Free() bool { return c.Doc.LayoutMode == content.LayoutFree }

// Show reports whether every named layer group is visible.
func (c *PageContext) Show(groups ...string) bool { return c.Doc.Visible(groups...) }

// Text returns the display text of field.
func (c *PageContext) Text(field string) string { return c.Doc.Text(field) }

// Flow reports whether field renders in the template's own flow: layout
// mode is template, the field has text, and neither the content group nor
// the field's own group is hidden.
func (c *PageContext) Flow(field string) bool {
	if c.Free() {
		return false
	}
	if field == "bullets" {
		if len(c.Doc.BulletPoints) == 0 {
			return false
		}
	} else if strings.TrimSpace(c.Text(field)) == "" {
		return false
	}
	return c.Show(content.GroupContent, field)
}

// Label returns the label field's text, or def when it is empty.
func (c *PageContext) Label(field, def string) string {
	if s := strings.TrimSpace(c.Text(field)); s != "" {
		return s
	}
	return def
}

// Style resolves the CSS of field.
func (c *PageContext) Style(field string) template.CSS {
	return layout.Resolve(c.Doc, field, c.defaults(field)).CSS
}

// defaults returns the template's defaults for field with theme tokens
// replaced by concrete values.
func (c *PageContext) defaults(field string) layout.FieldDefaults {
	d := c.Def.Fields[field]
	switch d.Font {
	case "heading":
		d.Font = c.Theme.HeadingFont
	case "body":
		d.Font = c.Theme.BodyFont
	case "accent":
		d.Font = c.Theme.AccentFont
	}
	switch d.Color {
	case "primary":
		d.Color = c.Theme.PrimaryColor
	case "secondary":
		d.Color = c.Theme.SecondaryColor
	case "accent":
		d.Color = c.Theme.AccentColor
	case "text":
		d.Color = c.Theme.TextColor
	case "card":
		d.Color = c.CardText()
	}
	return d
}

// Bullets returns the bullet points, capped by the template's limit.
func (c *PageContext) Bullets() []string {
	if n := c.Def.MaxBullets; n > 0 && len(c.Doc.BulletPoints) > n {
		return c.Doc.BulletPoints[:n]
	}
	return c.Doc.BulletPoints
}

// Contact returns the non-empty phone, email and address lines.
func (c *PageContext) Contact() []string {
	var out []string
	for _, f := range []string{"phone", "email", "address"} {
		if s := strings.TrimSpace(c.Text(f)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SpecRow is one row of a specification table.
type SpecRow struct {
	Name  string
	Value string
	Odd   bool
}

// Specs splits each bullet point on its first ':' into a name and value.
func (c *PageContext) Specs() []SpecRow {
	bullets := c.Bullets()
	rows := make([]SpecRow, len(bullets))
	for i, b := range bullets {
		name, value, _ := strings.Cut(b, ":")
		rows[i] = SpecRow{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value), Odd: i%2 == 1}
		if rows[i].Name == "" {
			rows[i].Name = b
		}
	}
	return rows
}

var gridIcons = []string{"⚙", "⚡", "⚖", "♺", "✓", "★"}

// Icon returns the grid icon for position i. Icons cycle.
func (c *PageContext) Icon(i int) string {
	return gridIcons[((i%len(gridIcons))+len(gridIcons))%len(gridIcons)]
}

// HasImage reports whether the primary image renders.
func (c *PageContext) HasImage() bool {
	return c.Show(content.GroupImage) && imageURL(c.Doc.ImageData) != ""
}

// Placeholder reports whether the branded placeholder replaces a missing
// primary image.
func (c *PageContext) Placeholder() bool {
	return c.Show(content.GroupImage) && imageURL(c.Doc.ImageData) == ""
}

// Image is the primary image source.
func (c *PageContext) Image() template.URL { return imageURL(c.Doc.ImageData) }

// ImageStyle is the object-fit of the primary image followed by the page
// effects and the image group's opacity.
func (c *PageContext) ImageStyle() template.CSS {
	fit := c.Doc.ImageFit
	if fit == "" {
		fit = cmp.Or(c.Def.ImageFit, content.FitCover)
	}
	g := c.Doc.Group(content.GroupImage)
	return template.CSS("object-fit:" + string(fit) + ";") + layout.EffectCSS(c.Effects.Page(), g.Opacity)
}

// Group returns opacity and z-index adjustments of a chrome group.
func (c *PageContext) Group(id string) template.CSS {
	g := c.Doc.Group(id)
	var b strings.Builder
	if g.Opacity < 100 {
		b.WriteString("opacity:" + layout.Num(theme.Percent(g.Opacity, 100)/100) + ";")
	}
	if g.ZIndexOffset != 0 {
		b.WriteString("z-index:" + layout.Num(g.ZIndexOffset) + ";")
	}
	return template.CSS(b.String())
}

// ChromeStyle is the style of a header or footer group: the page effects
// scaled by the group's opacity, then its z-index adjustment.
func (c *PageContext) ChromeStyle(id string) template.CSS {
	g := c.Doc.Group(id)
	css := layout.EffectCSS(c.Effects.Page(), g.Opacity)
	if g.ZIndexOffset != 0 {
		css += template.CSS("z-index:" + layout.Num(g.ZIndexOffset) + ";")
	}
	return css
}

// CardBackground is the card color: the document's background color, else
// the theme's primary color.
func (c *PageContext) CardBackground() string {
	return theme.Color(c.Doc.BackgroundColor, c.Theme.PrimaryColor)
}

// CardText is the card text color, white by default.
func (c *PageContext) CardText() string {
	return theme.Color(c.Doc.TextColor, "#ffffff")
}

// CardLight reports whether the card background is white, in which case
// logos keep their own colors.
func (c *PageContext) CardLight() bool {
	bg := c.CardBackground()
	return bg == "#ffffff" || bg == "#ffffffff"
}

// FieldView is a text field positioned by its field box.
type FieldView struct {
	Field string
	Text  string
	Items []string
	CSS   template.CSS
}

// FreeFields returns the visible, non-empty styled fields in free layout
// mode. Fields without a box are skipped.
func (c *PageContext) FreeFields() []FieldView {
	if !c.Free() {
		return nil
	}
	var out []FieldView
	for _, field := range content.StyledFields {
		if _, ok := c.Doc.BoxFor(field); !ok {
			continue
		}
		if !c.Show(content.GroupContent, field) {
			continue
		}
		v := FieldView{Field: field, CSS: c.Style(field)}
		if field == "bullets" {
			v.Items = c.Bullets()
			if len(v.Items) == 0 {
				continue
			}
		} else {
			v.Text = strings.TrimSpace(c.Text(field))
			if v.Text == "" {
				continue
			}
		}
		out = append(out, v)
	}
	return out
}

// ShapeView is a shape ready to draw.
type ShapeView struct {
	ID     string
	Type   content.ShapeType
	Locked bool
	CSS    template.CSS
}

// Shapes returns the shape layers in free layout mode, in stored order.
func (c *PageContext) Shapes() []ShapeView {
	if !c.Free() || !c.Show(content.GroupShapes) {
		return nil
	}
	g := c.Doc.Group(content.GroupShapes)
	out := make([]ShapeView, 0, len(c.Doc.Shapes))
	for _, sh := range c.Doc.Shapes {
		color := theme.Color(sh.Color, "#1e293b")
		var b strings.Builder
		b.WriteString("position:absolute;left:" + layout.Num(sh.X) + "%;top:" + layout.Num(sh.Y) + "%;width:" + layout.Num(sh.Width) + "%;")
		switch sh.Type {
		case content.ShapeLine:
			b.WriteString("height:" + layout.Num(sh.Thickness) + "px;")
		case content.ShapeCircle:
			if sh.CircleMode == content.CircleRound {
				b.WriteString("aspect-ratio:1/1;")
			} else {
				b.WriteString("height:" + layout.Num(sh.Height) + "%;")
			}
			b.WriteString("border-radius:50%;")
		default:
			b.WriteString("height:" + layout.Num(sh.Height) + "%;")
			if sh.BorderRadius > 0 {
				b.WriteString("border-radius:" + layout.Num(sh.BorderRadius) + "px;")
			}
		}
		b.WriteString("background:" + color + ";")
		if sh.Type != content.ShapeLine && sh.StrokeWidth > 0 {
			if stroke := theme.Color(sh.StrokeColor, ""); stroke != "" {
				b.WriteString("border:" + layout.Num(sh.StrokeWidth) + "px solid " + stroke + ";")
			}
		}
		b.WriteString(layout.Transform(sh.Rotation))
		b.WriteString("z-index:" + layout.Num(sh.ZIndex+g.ZIndexOffset) + ";")
		own := theme.LayerEffects{Opacity: sh.Opacity, Blend: "normal"}
		b.WriteString(string(layout.EffectCSS(c.Effects.ForLayer(sh.ID, own), g.Opacity)))
		out = append(out, ShapeView{ID: sh.ID, Type: sh.Type, Locked: sh.Locked, CSS: template.CSS(b.String())})
	}
	return out
}

// OverlayView is an overlay image ready to draw.
type OverlayView struct {
	ID  string
	Src template.URL
	CSS template.CSS
}

// Overlays returns the overlay images in stored order. Overlays whose source
// is not a safe image URL are skipped.
func (c *PageContext) Overlays() []OverlayView {
	if !c.Show(content.GroupOverlays) {
		return nil
	}
	g := c.Doc.Group(content.GroupOverlays)
	out := make([]OverlayView, 0, len(c.Doc.Overlays))
	for _, ov := range c.Doc.Overlays {
		src := imageURL(ov.ImageData)
		if src == "" {
			continue
		}
		fit := cmp.Or(ov.Fit, content.FitContain)
		var b strings.Builder
		b.WriteString("position:absolute;left:" + layout.Num(ov.X) + "%;top:" + layout.Num(ov.Y) +
			"%;width:" + layout.Num(ov.Width) + "%;height:" + layout.Num(ov.Height) + "%;")
		b.WriteString("object-fit:" + string(fit) + ";")
		b.WriteString(layout.Transform(ov.Rotation))
		b.WriteString("z-index:" + layout.Num(ov.ZIndex+g.ZIndexOffset) + ";")
		b.WriteString(string(layout.EffectCSS(c.Effects.ForLayer(ov.ID, ov.Effects), g.Opacity)))
		out = append(out, OverlayView{ID: ov.ID, Src: src, CSS: template.CSS(b.String())})
	}
	return out
}

// TextBoxView is a custom text box ready to draw.
type TextBoxView struct {
	ID   string
	Text string
	CSS  template.CSS
}

var textAligns = []string{"left", "center", "right", "justify"}

// TextBoxes returns the custom text boxes in stored order.
func (c *PageContext) TextBoxes() []TextBoxView {
	if !c.Show(content.GroupCustomText) {
		return nil
	}
	g := c.Doc.Group(content.GroupCustomText)
	font := theme.Font(c.Theme.BodyFont, "Open Sans")
	out := make([]TextBoxView, 0, len(c.Doc.TextBoxes))
	for _, tb := range c.Doc.TextBoxes {
		align := tb.Align
		if !slices.Contains(textAligns, align) {
			align = "left"
		}
		var b strings.Builder
		b.WriteString(string(layout.BoxCSS(content.Box{X: tb.X, Y: tb.Y, Width: tb.Width, Height: tb.Height, ZIndex: tb.ZIndex + g.ZIndexOffset})))
		b.WriteString("overflow:hidden;white-space:pre-wrap;overflow-wrap:anywhere;")
		b.WriteString("font-family:'" + font + "',sans-serif;font-size:" + layout.Num(tb.FontSize) + "px;")
		b.WriteString("color:" + theme.Color(tb.Color, "#ffffff") + ";")
		if tb.Bold {
			b.WriteString("font-weight:700;")
		}
		b.WriteString("text-align:" + align + ";")
		b.WriteString(string(layout.EffectCSS(c.Effects.ForLayer(tb.ID, theme.DefaultLayerEffects()), g.Opacity)))
		out = append(out, TextBoxView{ID: tb.ID, Text: tb.Text, CSS: template.CSS(b.String())})
	}
	return out
}

// grainSVG is a fixed fractal noise tile. The filter has no random seed
// input, so every render produces the same texture.
const grainSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="200">` +
	`<filter id="n"><feTurbulence type="fractalNoise" baseFrequency="0.9" numOctaves="4" stitchTiles="stitch"/></filter>` +
	`<rect width="100%" height="100%" filter="url(#n)" opacity="0.5"/></svg>`

var grainBackground = "background-image:url(\"data:image/svg+xml," + url.PathEscape(grainSVG) + "\");background-repeat:repeat;"

// Grain returns the grain overlay CSS, or "" when grain is off.
func (c *PageContext) Grain() template.CSS {
	intensity := c.Effects.Grain()
	if intensity <= 0 {
		return ""
	}
	return template.CSS("position:absolute;inset:0;opacity:" + layout.Num(intensity/100) +
		";mix-blend-mode:overlay;pointer-events:none;" + grainBackground + "z-index:999;")
}

// imageURL returns s as a trusted URL when it is an inline image or an
// http(s) or relative reference. Anything else yields "".
func imageURL(s string) template.URL {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch {
	case s == "":
		return ""
	case strings.HasPrefix(lower, "data:image/"):
		return template.URL(s)
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return template.URL(s)
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme != "" || strings.HasPrefix(s, "//") {
		return ""
	}
	return template.URL(s)
}
