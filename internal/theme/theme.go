// Package theme defines the immutable color/font palette every template
// renders with, the built-in presets, and the page and per-layer effects
// model.
package theme

import (
	"slices"
	"strings"
)

// Theme is a named palette. Values are treated as immutable once built;
// templates read them but never write.
type Theme struct {
	ID              string `yaml:"id" json:"id" mapstructure:"id"`
	Name            string `yaml:"name" json:"name" mapstructure:"name"`
	PrimaryColor    string `yaml:"primary_color" json:"primary_color" mapstructure:"primary_color"`
	SecondaryColor  string `yaml:"secondary_color" json:"secondary_color" mapstructure:"secondary_color"`
	AccentColor     string `yaml:"accent_color" json:"accent_color" mapstructure:"accent_color"`
	BackgroundColor string `yaml:"background_color" json:"background_color" mapstructure:"background_color"`
	TextColor       string `yaml:"text_color" json:"text_color" mapstructure:"text_color"`
	HeadingFont     string `yaml:"heading_font" json:"heading_font" mapstructure:"heading_font"`
	BodyFont        string `yaml:"body_font" json:"body_font" mapstructure:"body_font"`
	AccentFont      string `yaml:"accent_font" json:"accent_font" mapstructure:"accent_font"`
}

// DefaultID is the id of the theme used when none is selected.
const DefaultID = "demart-corporate"

var presets = []Theme{
	{
		ID: "demart-corporate", Name: "Demart Corporate",
		PrimaryColor: "#004aad", SecondaryColor: "#003c8f", AccentColor: "#f59e0b",
		BackgroundColor: "#f8fafc", TextColor: "#0f172a",
		HeadingFont: "Montserrat", BodyFont: "Open Sans", AccentFont: "Roboto Condensed",
	},
	{
		ID: "dark-tech", Name: "Dark Tech",
		PrimaryColor: "#0ea5e9", SecondaryColor: "#0f172a", AccentColor: "#22d3ee",
		BackgroundColor: "#020617", TextColor: "#f8fafc",
		HeadingFont: "Montserrat", BodyFont: "Open Sans", AccentFont: "Roboto Condensed",
	},
	{
		ID: "minimal-premium", Name: "Minimal Premium",
		PrimaryColor: "#18181b", SecondaryColor: "#3f3f46", AccentColor: "#a1a1aa",
		BackgroundColor: "#ffffff", TextColor: "#18181b",
		HeadingFont: "Montserrat", BodyFont: "Open Sans", AccentFont: "Roboto Condensed",
	},
	{
		ID: "industrial-green", Name: "Industrial Green",
		PrimaryColor: "#166534", SecondaryColor: "#14532d", AccentColor: "#facc15",
		BackgroundColor: "#f0fdf4", TextColor: "#14532d",
		HeadingFont: "Montserrat", BodyFont: "Open Sans", AccentFont: "Roboto Condensed",
	},
}

// Default returns the default corporate theme.
func Default() Theme {
	return presets[0]
}

// Presets returns a copy of the built-in themes in display order.
func Presets() []Theme {
	return slices.Clone(presets)
}

// Preset looks up a built-in theme by id.
func Preset(id string) (Theme, bool) {
	for _, t := range presets {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}

// Sanitized returns a copy of t in which every color is a lowercase hex
// value and every font is a bare family name. Invalid or empty entries
// fall back to the matching entry of fallback.
func (t Theme) Sanitized(fallback Theme) Theme {
	out := t
	out.PrimaryColor = Color(t.PrimaryColor, fallback.PrimaryColor)
	out.SecondaryColor = Color(t.SecondaryColor, fallback.SecondaryColor)
	out.AccentColor = Color(t.AccentColor, fallback.AccentColor)
	out.BackgroundColor = Color(t.BackgroundColor, fallback.BackgroundColor)
	out.TextColor = Color(t.TextColor, fallback.TextColor)
	out.HeadingFont = Font(t.HeadingFont, fallback.HeadingFont)
	out.BodyFont = Font(t.BodyFont, fallback.BodyFont)
	out.AccentFont = Font(t.AccentFont, fallback.AccentFont)
	if out.ID == "" {
		out.ID = fallback.ID
	}
	if out.Name == "" {
		out.Name = fallback.Name
	}
	return out
}

// Merge overlays the non-empty fields of over onto t.
func (t Theme) Merge(over Theme) Theme {
	pick := func(a, b string) string {
		if strings.TrimSpace(b) != "" {
			return b
		}
		return a
	}
	return Theme{
		ID:              pick(t.ID, over.ID),
		Name:            pick(t.Name, over.Name),
		PrimaryColor:    pick(t.PrimaryColor, over.PrimaryColor),
		SecondaryColor:  pick(t.SecondaryColor, over.SecondaryColor),
		AccentColor:     pick(t.AccentColor, over.AccentColor),
		BackgroundColor: pick(t.BackgroundColor, over.BackgroundColor),
		TextColor:       pick(t.TextColor, over.TextColor),
		HeadingFont:     pick(t.HeadingFont, over.HeadingFont),
		BodyFont:        pick(t.BodyFont, over.BodyFont),
		AccentFont:      pick(t.AccentFont, over.AccentFont),
	}
}

// Set is a lookup of themes by id, built from the presets plus any
// configured additions. A Set is read-only after construction.
type Set struct {
	order []string
	byID  map[string]Theme
}

// NewSet builds a Set from the presets, then applies extra themes. An extra
// theme whose id matches a preset is merged over it; new ids are appended
// and sanitized against the default theme.
func NewSet(extra map[string]Theme) *Set {
	s := &Set{byID: make(map[string]Theme, len(presets)+len(extra))}
	for _, p := range presets {
		s.order = append(s.order, p.ID)
		s.byID[p.ID] = p
	}

	ids := make([]string, 0, len(extra))
	for id := range extra {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		t := extra[id]
		if t.ID == "" {
			t.ID = id
		}
		base, ok := s.byID[t.ID]
		if !ok {
			base = Default()
			base.ID = t.ID
			base.Name = t.ID
			s.order = append(s.order, t.ID)
		}
		s.byID[t.ID] = base.Merge(t).Sanitized(base)
	}
	return s
}

// Get returns the theme with the given id, or the default theme when the id
// is unknown. The boolean reports whether the id was found.
func (s *Set) Get(id string) (Theme, bool) {
	if s != nil {
		if t, ok := s.byID[id]; ok {
			return t, true
		}
		if t, ok := s.byID[DefaultID]; ok {
			return t, false
		}
	}
	return Default(), false
}

// All returns every theme in the set in display order.
func (s *Set) All() []Theme {
	out := make([]Theme, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
