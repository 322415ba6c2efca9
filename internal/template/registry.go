package template

import (
	"slices"

	"github.com/aellingwood/cardforge/internal/content"
	"github.com/aellingwood/cardforge/internal/layout"
)

// DefaultID is the template used for unknown or empty template ids.
const DefaultID = "industrial-product-alert"

// Category groups templates in pickers. It never affects rendering.
type Category string

const (
	CategoryProduct   Category = "product"
	CategoryEvent     Category = "event"
	CategoryTechnical Category = "technical"
	CategoryCard      Category = "card"
)

// Categories lists every category in picker order.
var Categories = []Category{CategoryProduct, CategoryEvent, CategoryTechnical, CategoryCard}

// Info is the public description of a template.
type Info struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Category    Category `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
}

// Definition is a registry entry: the public info plus the layout
// description shared primitives are parameterized with.
type Definition struct {
	Info

	// Fields holds the typography of each text field. Font may name a theme
	// font ("heading", "body", "accent") and Color a theme color ("primary",
	// "secondary", "accent", "text") or "card" for the card text color.
	// Both are resolved at render time.
	Fields map[string]layout.FieldDefaults

	// ImageFit is the object-fit used when the document sets none.
	ImageFit content.ImageFit

	// MaxBullets caps the number of bullet points shown. Zero shows all.
	MaxBullets int
}

// Common field defaults. Templates start from these and adjust.
func heading(size float64, color string) layout.FieldDefaults {
	return layout.FieldDefaults{Size: size, MinSize: 16, Font: "heading", Bold: true, Color: color, Overflow: content.OverflowAutofit, ClampLines: 2}
}

func subheading(size float64, color string) layout.FieldDefaults {
	return layout.FieldDefaults{Size: size, MinSize: 12, Font: "heading", Color: color, Overflow: content.OverflowAutofit, ClampLines: 2}
}

func bodyText(size float64, color string) layout.FieldDefaults {
	return layout.FieldDefaults{Size: size, MinSize: 10, Font: "body", Color: color, Overflow: content.OverflowClamp, ClampLines: 6}
}

func labelText(color string) layout.FieldDefaults {
	return layout.FieldDefaults{Size: 10, MinSize: 8, Font: "heading", Bold: true, Color: color, Overflow: content.OverflowClamp, ClampLines: 1}
}

// fields assembles a field table. Every styled field gets an entry so free
// layout mode can place any of them.
func fields(title, subtitle, description, bullets, applications, benefits layout.FieldDefaults, label string) map[string]layout.FieldDefaults {
	return map[string]layout.FieldDefaults{
		"title":              title,
		"subtitle":           subtitle,
		"description":        description,
		"bullets":            bullets,
		"applications":       applications,
		"benefits":           benefits,
		"label_alert":        labelText(label),
		"label_features":     labelText(label),
		"label_applications": labelText(label),
		"label_benefits":     labelText(label),
		"cta":                {Size: 14, MinSize: 10, Font: "heading", Bold: true, Overflow: content.OverflowEllipsis, ClampLines: 1},
		"from_name":          {Size: 14, MinSize: 10, Font: "body", Italic: true, Overflow: content.OverflowEllipsis, ClampLines: 1},
	}
}

var definitions = []Definition{
	{
		Info: Info{ID: "industrial-product-alert", Name: "Industrial Product Alert", Category: CategoryProduct,
			Description: "Diagonal split panel with alert badge and call to action"},
		Fields: withField(fields(
			heading(32, "primary"), subheading(18, "secondary"), bodyText(14, "#475569"),
			bodyText(13, "#334155"), bodyText(12, "#334155"), bodyText(12, "#334155"), "primary"),
			"label_alert", layout.FieldDefaults{Size: 12, MinSize: 9, Font: "heading", Bold: true, Color: "#ffffff", Overflow: content.OverflowEllipsis, ClampLines: 1}),
		ImageFit: content.FitCover,
	},
	{
		Info: Info{ID: "event-poster", Name: "Event Poster", Category: CategoryEvent,
			Description: "Full-color event poster with centered typography"},
		Fields: fields(
			heading(38, "#ffffff"), subheading(17, "#ffffff"), bodyText(14, "#ffffff"),
			bodyText(11, "#ffffff"), bodyText(13, "#ffffff"), bodyText(13, "#ffffff"), "#ffffff"),
		ImageFit:   content.FitContain,
		MaxBullets: 6,
	},
	{
		Info: Info{ID: "minimal-premium", Name: "Minimal Premium", Category: CategoryProduct,
			Description: "Generous white space and large light typography"},
		Fields: fields(
			lightHeading(42, "text"), subheading(18, "primary"), bodyText(15, "#475569"),
			bodyText(14, "#334155"), bodyText(13, "#64748b"), bodyText(13, "#64748b"), "primary"),
		ImageFit: content.FitCover,
	},
	{
		Info: Info{ID: "tech-data-sheet", Name: "Tech Data Sheet", Category: CategoryTechnical,
			Description: "Specification table led technical data sheet"},
		Fields: fields(
			heading(26, "primary"), subheading(14, "#64748b"), bodyText(12, "#475569"),
			bodyText(12, "#334155"), bodyText(12, "#475569"), bodyText(12, "#334155"), "primary"),
		ImageFit: content.FitContain,
	},
	{
		Info: Info{ID: "photo-dominant", Name: "Photo Dominant", Category: CategoryProduct,
			Description: "Full-bleed photo with a short message"},
		Fields: fields(
			heading(44, "#ffffff"), subheading(20, "#ffffff"), bodyText(15, "#ffffff"),
			bodyText(13, "#ffffff"), bodyText(13, "#ffffff"), bodyText(13, "#ffffff"), "#ffffff"),
		ImageFit: content.FitCover,
	},
	{
		Info: Info{ID: "geometric-corporate", Name: "Geometric Corporate", Category: CategoryProduct,
			Description: "Corporate color band with tiled feature blocks"},
		Fields: fields(
			heading(34, "#ffffff"), subheading(16, "#ffffff"), bodyText(14, "#475569"),
			bodyText(12, "#334155"), bodyText(12, "#475569"), bodyText(12, "#334155"), "primary"),
		ImageFit: content.FitCover,
	},
	{
		Info: Info{ID: "dark-tech", Name: "Dark Tech", Category: CategoryProduct,
			Description: "Dark background with neon accents"},
		Fields: fields(
			heading(34, "#f8fafc"), subheading(16, "accent"), bodyText(13, "#94a3b8"),
			bodyText(11, "#cbd5e1"), bodyText(12, "#64748b"), bodyText(12, "accent"), "accent"),
		ImageFit:   content.FitContain,
		MaxBullets: 8,
	},
	{
		Info: Info{ID: "clean-industrial-grid", Name: "Clean Industrial Grid", Category: CategoryProduct,
			Description: "Icon grid of product benefits"},
		Fields: fields(
			heading(30, "primary"), subheading(15, "#64748b"), bodyText(13, "#475569"),
			bodyText(13, "#334155"), bodyText(12, "#475569"), bodyText(12, "#334155"), "primary"),
		ImageFit: content.FitContain,
	},
	{
		Info: Info{ID: "greeting-card", Name: "Greeting Card", Category: CategoryCard,
			Description: "Celebration and congratulation card"},
		Fields: fields(
			heading(38, "card"), subheading(18, "card"), cardMessage(16, "card"),
			bodyText(14, "card"), bodyText(14, "card"), bodyText(14, "card"), "card"),
		ImageFit: content.FitContain,
	},
	{
		Info: Info{ID: "condolence-card", Name: "Condolence Card", Category: CategoryCard,
			Description: "Condolence and sympathy card"},
		Fields: fields(
			lightHeading(32, "#e2e8f0"), subheading(18, "#94a3b8"), cardMessage(15, "#94a3b8"),
			bodyText(14, "#94a3b8"), bodyText(14, "#94a3b8"), bodyText(14, "#94a3b8"), "#64748b"),
		ImageFit: content.FitContain,
	},
}

// withField replaces the defaults of one field.
func withField(m map[string]layout.FieldDefaults, field string, d layout.FieldDefaults) map[string]layout.FieldDefaults {
	m[field] = d
	return m
}

func lightHeading(size float64, color string) layout.FieldDefaults {
	h := heading(size, color)
	h.Bold = false
	return h
}

func cardMessage(size float64, color string) layout.FieldDefaults {
	d := bodyText(size, color)
	d.Overflow = content.OverflowWrap
	return d
}

// Lookup returns the definition registered under id.
func Lookup(id string) (Definition, bool) {
	for _, d := range definitions {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}

// Resolve returns the definition for id, falling back to the default
// template for unknown ids.
func Resolve(id string) Definition {
	if d, ok := Lookup(id); ok {
		return d
	}
	d, _ := Lookup(DefaultID)
	return d
}

// List returns the public info of every template in registry order.
func List() []Info {
	out := make([]Info, len(definitions))
	for i, d := range definitions {
		out[i] = d.Info
	}
	return out
}

// IDs returns every registered template id in registry order.
func IDs() []string {
	out := make([]string, len(definitions))
	for i, d := range definitions {
		out[i] = d.ID
	}
	return out
}

// ByCategory returns the templates in category c. An empty category
// returns all of them.
func ByCategory(c Category) []Info {
	all := List()
	if c == "" {
		return all
	}
	return slices.DeleteFunc(all, func(i Info) bool { return i.Category != c })
}
