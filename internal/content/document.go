package content

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/aellingwood/cardforge/internal/theme"
)

// LayoutMode selects between a template's own flow layout and free
// positioning driven by field boxes and shape layers.
type LayoutMode string

const (
	LayoutTemplate LayoutMode = "template"
	LayoutFree     LayoutMode = "free"
)

// ImageFit is the object-fit applied to images.
type ImageFit string

const (
	FitCover   ImageFit = "cover"
	FitContain ImageFit = "contain"
	FitFill    ImageFit = "fill"
)

// ShapeType enumerates the drawable shape kinds.
type ShapeType string

const (
	ShapeRect   ShapeType = "rect"
	ShapeCircle ShapeType = "circle"
	ShapeLine   ShapeType = "line"
)

// CircleMode controls whether a circle keeps its box aspect (ellipse) or is
// forced round using the box width.
type CircleMode string

const (
	CircleEllipse CircleMode = "ellipse"
	CircleRound   CircleMode = "circle"
)

// Box is a percentage-based placement on the page canvas. X and Y are the
// center of the box.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	ZIndex float64
}

// FieldStyle overrides the typography of a single field.
type FieldStyle struct {
	FontSize float64
	Font     string
	Bold     bool
	Italic   bool
	Color    string
}

// Overflow configures how a field handles text that does not fit.
type Overflow struct {
	Mode       OverflowMode
	ClampLines int
	MinSize    float64
}

// LayerGroup holds the coarse visibility/lock/opacity settings of a named
// group of rendered elements.
type LayerGroup struct {
	Visible      bool
	Locked       bool
	Opacity      float64
	ZIndexOffset float64
}

// Overlay is a free-floating image positioned on the canvas.
type Overlay struct {
	ID        string
	Name      string
	ImageData string
	X         float64
	Y         float64
	Width     float64
	Height    float64
	Fit       ImageFit
	Rotation  float64
	ZIndex    float64
	Effects   theme.LayerEffects
	Extra     map[string]any
}

// Shape is a rect, circle or line drawn on the canvas.
type Shape struct {
	ID           string
	Type         ShapeType
	Name         string
	X            float64
	Y            float64
	Width        float64
	Height       float64
	Color        string
	StrokeColor  string
	StrokeWidth  float64
	Opacity      float64
	BorderRadius float64
	Rotation     float64
	ZIndex       float64
	Locked       bool
	Thickness    float64
	CircleMode   CircleMode
	Extra        map[string]any
}

// TextBox is a free-floating text node.
type TextBox struct {
	ID       string
	Text     string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	FontSize float64
	Color    string
	Bold     bool
	Align    string
	ZIndex   float64
	Extra    map[string]any
}

// Document is the canonical content of one page. A Document produced by
// Normalize has every registry field populated and every map filled with
// defaults; renderers only ever branch on emptiness.
type Document struct {
	TemplateID string
	LayoutMode LayoutMode

	Title             string
	Subtitle          string
	Body              string
	Description       string
	CTA               string
	CTAText           string
	Phone             string
	Email             string
	Address           string
	Applications      string
	KeyBenefits       string
	LabelAlert        string
	LabelApplications string
	LabelBenefits     string
	LabelFeatures     string
	FromName          string
	BulletPoints      []string

	ImageData       string
	// ImageFit is empty when the template's own fit applies.
	ImageFit        ImageFit
	BackgroundColor string
	TextColor       string

	Overlays  []Overlay
	Shapes    []Shape
	TextBoxes []TextBox

	FieldStyle    map[string]FieldStyle
	FieldOverflow map[string]Overflow
	FieldBoxes    map[string]Box
	LayerGroups   map[string]LayerGroup

	Effects theme.Effects

	// LayersExtra keeps keys of the "layers" object other than overlays.
	LayersExtra map[string]any
	// Extra keeps every key the schema does not model, alias spellings
	// included, so documents round-trip without loss.
	Extra map[string]any
}

// Group returns the layer group with the given id. Unknown ids yield a
// visible, unlocked, fully opaque group.
func (d *Document) Group(id string) LayerGroup {
	if g, ok := d.LayerGroups[id]; ok {
		return g
	}
	return defaultGroup(id)
}

// Visible reports whether every named group is visible. Missing groups
// count as visible.
func (d *Document) Visible(ids ...string) bool {
	for _, id := range ids {
		if !d.Group(id).Visible {
			return false
		}
	}
	return true
}

// Style returns the style entry for field, defaulted when absent.
func (d *Document) Style(field string) FieldStyle {
	if s, ok := d.FieldStyle[field]; ok {
		return s
	}
	return FieldStyle{FontSize: DefaultFontSize}
}

// OverflowFor returns the overflow entry for field, defaulted when absent.
func (d *Document) OverflowFor(field string) Overflow {
	if o, ok := d.FieldOverflow[field]; ok {
		return o
	}
	return DefaultOverflow(field)
}

// BoxFor returns the field box for field and whether the document carries
// one.
func (d *Document) BoxFor(field string) (Box, bool) {
	b, ok := d.FieldBoxes[field]
	return b, ok
}

// Text returns the display text of a styled field. List fields are joined
// with single spaces. Unknown fields yield "".
func (d *Document) Text(field string) string {
	switch field {
	case "title":
		return d.Title
	case "subtitle":
		return d.Subtitle
	case "description", "body", "message":
		return d.Description
	case "bullets", "bullet_points", "features":
		return strings.Join(d.BulletPoints, " ")
	case "applications":
		return d.Applications
	case "benefits", "key_benefits":
		return d.KeyBenefits
	case "cta", "cta_text":
		return d.CTAText
	case "label_alert":
		return d.LabelAlert
	case "label_features":
		return d.LabelFeatures
	case "label_applications":
		return d.LabelApplications
	case "label_benefits":
		return d.LabelBenefits
	case "from_name":
		return d.FromName
	case "phone":
		return d.Phone
	case "email":
		return d.Email
	case "address":
		return d.Address
	}
	return ""
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.BulletPoints = slices.Clone(d.BulletPoints)
	out.Overlays = make([]Overlay, len(d.Overlays))
	for i, ov := range d.Overlays {
		ov.Extra = cloneMap(ov.Extra)
		out.Overlays[i] = ov
	}
	out.Shapes = make([]Shape, len(d.Shapes))
	for i, sh := range d.Shapes {
		sh.Extra = cloneMap(sh.Extra)
		out.Shapes[i] = sh
	}
	out.TextBoxes = make([]TextBox, len(d.TextBoxes))
	for i, tb := range d.TextBoxes {
		tb.Extra = cloneMap(tb.Extra)
		out.TextBoxes[i] = tb
	}
	out.FieldStyle = maps.Clone(d.FieldStyle)
	out.FieldOverflow = maps.Clone(d.FieldOverflow)
	out.FieldBoxes = maps.Clone(d.FieldBoxes)
	out.LayerGroups = maps.Clone(d.LayerGroups)
	out.Effects = d.Effects.Clone()
	out.LayersExtra = cloneMap(d.LayersExtra)
	out.Extra = cloneMap(d.Extra)
	return &out
}

// MarshalJSON encodes the canonical map form of the document.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Map())
}

// UnmarshalJSON decodes any JSON object, legacy shapes included, and
// normalizes it.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = *Normalize(raw)
	return nil
}

// MarshalYAML encodes the canonical map form of the document.
func (d *Document) MarshalYAML() (any, error) {
	return d.Map(), nil
}
