package layout

import (
	"html/template"
	"strings"

	"github.com/aellingwood/cardforge/internal/theme"
)

// EffectCSS renders layer effects as CSS declarations. groupOpacity (a
// percentage) multiplies the layer's own opacity. Default effects at full
// group opacity produce no output.
func EffectCSS(e theme.LayerEffects, groupOpacity float64) template.CSS {
	e = e.Clamped()
	opacity := e.Opacity * theme.Percent(groupOpacity, 100) / 100

	var b strings.Builder
	if opacity < 100 {
		b.WriteString("opacity:" + Num(opacity/100) + ";")
	}
	if e.Shadow > 0 {
		b.WriteString("filter:drop-shadow(0 " + Num(e.Shadow/4) + "px " + Num(e.Shadow/2) +
			"px rgba(0,0,0," + Num(0.15+e.Shadow/200) + "));")
	}
	if e.Feather > 0 {
		mask := "radial-gradient(ellipse at center,#000 " + Num(100-e.Feather) + "%,transparent 100%)"
		b.WriteString("-webkit-mask-image:" + mask + ";mask-image:" + mask + ";")
	}
	if e.Blend != "normal" {
		b.WriteString("mix-blend-mode:" + e.Blend + ";")
	}
	return template.CSS(b.String())
}

// Transform returns the centering translation plus an optional rotation.
func Transform(rotation float64) string {
	if rotation == 0 {
		return "transform:translate(-50%,-50%);"
	}
	return "transform:translate(-50%,-50%) rotate(" + Num(rotation) + "deg);"
}
