// Package export turns rendered pages into print and social formats. The
// HTML comes from the render core; rasterization to PDF or images is done
// by an external rasterizer service reached over HTTP.
package export

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/aellingwood/cardforge/internal/config"
)

// ErrUnknownPreset is returned when a preset id is not defined.
var ErrUnknownPreset = errors.New("unknown export preset")

// Output formats.
const (
	FormatPDF  = "pdf"
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatHTML = "html"
)

// Units a preset size can be given in.
const (
	UnitMM = "mm"
	UnitPX = "px"
	UnitIN = "in"
)

// MMToPX converts millimetres to CSS pixels at 96 dpi.
const MMToPX = 3.7795

// Preset is a named output format and page size.
type Preset struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Format string  `json:"format"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

var builtinPresets = []Preset{
	{ID: "a4-pdf", Name: "A4 PDF", Format: FormatPDF, Width: 210, Height: 297, Unit: UnitMM},
	{ID: "a5-pdf", Name: "A5 PDF", Format: FormatPDF, Width: 148, Height: 210, Unit: UnitMM},
	{ID: "letter-pdf", Name: "US Letter PDF", Format: FormatPDF, Width: 215.9, Height: 279.4, Unit: UnitMM},
	{ID: "a4-png", Name: "A4 PNG", Format: FormatPNG, Width: 794, Height: 1123, Unit: UnitPX},
	{ID: "square-png", Name: "Square PNG", Format: FormatPNG, Width: 1080, Height: 1080, Unit: UnitPX},
	{ID: "story-png", Name: "Story PNG", Format: FormatPNG, Width: 1080, Height: 1920, Unit: UnitPX},
}

// BuiltinPresets returns the built-in presets.
func BuiltinPresets() []Preset {
	return slices.Clone(builtinPresets)
}

// Presets returns the built-in presets followed by the configured ones. A
// configured preset with a built-in id replaces it in place. Configured
// presets with missing fields get the format png and the unit px.
func Presets(extra []config.ExportPreset) []Preset {
	out := BuiltinPresets()
	for _, c := range extra {
		p := Preset{
			ID:     strings.TrimSpace(c.ID),
			Name:   c.Name,
			Format: normalizeFormat(c.Format),
			Width:  c.Width,
			Height: c.Height,
			Unit:   normalizeUnit(c.Unit),
		}
		if p.ID == "" || p.Width <= 0 || p.Height <= 0 {
			continue
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		if i := slices.IndexFunc(out, func(b Preset) bool { return b.ID == p.ID }); i >= 0 {
			out[i] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// FindPreset returns the preset with the given id.
func FindPreset(presets []Preset, id string) (Preset, error) {
	for _, p := range presets {
		if p.ID == id {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
}

// Pixels returns the preset size in CSS pixels.
func (p Preset) Pixels() (int, int) {
	scale := 1.0
	switch p.Unit {
	case UnitMM:
		scale = MMToPX
	case UnitIN:
		scale = 96
	}
	return int(math.Round(p.Width * scale)), int(math.Round(p.Height * scale))
}

// Ext returns the file extension for the preset's format, without a dot.
func (p Preset) Ext() string {
	if p.Format == FormatJPEG {
		return "jpg"
	}
	return p.Format
}

// ContentType returns the MIME type of the preset's output.
func (p Preset) ContentType() string {
	switch p.Format {
	case FormatPDF:
		return "application/pdf"
	case FormatJPEG:
		return "image/jpeg"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "image/png"
	}
}

func normalizeFormat(f string) string {
	switch strings.ToLower(strings.TrimSpace(f)) {
	case "pdf":
		return FormatPDF
	case "jpg", "jpeg":
		return FormatJPEG
	default:
		return FormatPNG
	}
}

func normalizeUnit(u string) string {
	switch strings.ToLower(strings.TrimSpace(u)) {
	case "mm":
		return UnitMM
	case "in", "inch":
		return UnitIN
	default:
		return UnitPX
	}
}
