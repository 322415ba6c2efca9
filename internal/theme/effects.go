package theme

import (
	"maps"
	"math"
)

// Blend modes accepted for mix-blend-mode. Anything else renders as normal.
var blendModes = map[string]bool{
	"normal":      true,
	"multiply":    true,
	"screen":      true,
	"overlay":     true,
	"darken":      true,
	"lighten":     true,
	"color-dodge": true,
	"color-burn":  true,
	"hard-light":  true,
	"soft-light":  true,
	"difference":  true,
	"exclusion":   true,
	"hue":         true,
	"saturation":  true,
	"color":       true,
	"luminosity":  true,
}

// Blend returns mode when it is a known blend mode, otherwise "normal".
func Blend(mode string) string {
	if blendModes[mode] {
		return mode
	}
	return "normal"
}

// LayerEffects are the visual effects applicable to one layer. Opacity,
// Shadow and Feather are percentages in [0, 100].
type LayerEffects struct {
	Opacity float64 `json:"opacity" yaml:"opacity"`
	Shadow  float64 `json:"shadow" yaml:"shadow"`
	Feather float64 `json:"feather" yaml:"feather"`
	Blend   string  `json:"blend" yaml:"blend"`
}

// DefaultLayerEffects is fully opaque, no shadow, no feather, normal blend.
func DefaultLayerEffects() LayerEffects {
	return LayerEffects{Opacity: 100, Blend: "normal"}
}

// Clamped returns l with every percentage in range and a known blend mode.
func (l LayerEffects) Clamped() LayerEffects {
	return LayerEffects{
		Opacity: Percent(l.Opacity, 100),
		Shadow:  Percent(l.Shadow, 0),
		Feather: Percent(l.Feather, 0),
		Blend:   Blend(l.Blend),
	}
}

// IsDefault reports whether l renders identically to no effects at all.
func (l LayerEffects) IsDefault() bool {
	return l.Clamped() == DefaultLayerEffects()
}

// Effects is the page-level effects configuration. Layers holds per-layer
// overrides keyed by the layer's stored id, never by position.
type Effects struct {
	LayerEffects
	GrainEnabled   bool                    `json:"grain_enabled" yaml:"grain_enabled"`
	GrainIntensity float64                 `json:"grain_intensity" yaml:"grain_intensity"`
	Layers         map[string]LayerEffects `json:"layers,omitempty" yaml:"layers,omitempty"`
}

// DefaultGrainIntensity is the grain strength used when none is set.
const DefaultGrainIntensity = 20

// DefaultEffects returns page effects with grain disabled.
func DefaultEffects() Effects {
	return Effects{
		LayerEffects:   DefaultLayerEffects(),
		GrainIntensity: DefaultGrainIntensity,
	}
}

// Page returns the effects applied to the base image and chrome.
func (e Effects) Page() LayerEffects {
	return e.LayerEffects.Clamped()
}

// ForLayer resolves the effects for the layer with the given id. An entry
// in Layers replaces own entirely; without one, own is used as is.
func (e Effects) ForLayer(id string, own LayerEffects) LayerEffects {
	if id != "" {
		if l, ok := e.Layers[id]; ok {
			return l.Clamped()
		}
	}
	return own.Clamped()
}

// Grain returns the grain intensity clamped to [0, 100], or 0 when grain
// is disabled.
func (e Effects) Grain() float64 {
	if !e.GrainEnabled {
		return 0
	}
	return Percent(e.GrainIntensity, DefaultGrainIntensity)
}

// Clone returns a deep copy of e.
func (e Effects) Clone() Effects {
	out := e
	out.Layers = maps.Clone(e.Layers)
	return out
}

// Percent clamps v to [0, 100]. Non-finite values yield def.
func Percent(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return math.Min(100, math.Max(0, v))
}
