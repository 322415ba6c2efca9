package content

import (
	"fmt"
	"strings"

	"github.com/aellingwood/cardforge/internal/theme"
)

// stableID returns current when it is non-blank, otherwise a positional id
// of the form "{prefix}-{index+1}".
func stableID(prefix string, index int, current any) string {
	if s := strings.TrimSpace(text(current)); s != "" {
		return s
	}
	return fmt.Sprintf("%s-%d", prefix, index+1)
}

var overlayKeys = []string{
	"id", "name", "image_data", "x", "y", "width", "height",
	"fit", "rotation", "opacity", "zIndex", "effects",
}

// normalizeOverlays assigns ids, coerces the effects sub-object, drops
// entries without an image and keeps the first entry for each id.
func normalizeOverlays(v any) []Overlay {
	out := []Overlay{}
	list, _ := asSlice(v)
	seen := make(map[string]bool, len(list))
	for i, item := range list {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		id := stableID("ov", i, m["id"])
		img := text(m["image_data"])
		if strings.TrimSpace(img) == "" || seen[id] {
			continue
		}
		seen[id] = true

		fx, _ := asMap(m["effects"])
		base := theme.DefaultLayerEffects()
		base.Opacity = percent(m["opacity"], 100)

		out = append(out, Overlay{
			ID:        id,
			Name:      text(m["name"]),
			ImageData: img,
			X:         num(50, nil, m["x"]),
			Y:         num(50, nil, m["y"]),
			Width:     num(30, positive, m["width"]),
			Height:    num(30, positive, m["height"]),
			Fit:       imageFit(m["fit"], FitContain),
			Rotation:  num(0, nil, m["rotation"]),
			ZIndex:    num(10, nil, m["zIndex"]),
			Effects:   decodeLayerEffects(fx, base),
			Extra:     leftover(m, overlayKeys...),
		})
	}
	return out
}

var shapeKeys = []string{
	"id", "type", "name", "x", "y", "width", "height", "color", "fillColor",
	"strokeColor", "strokeWidth", "opacity", "borderRadius", "rotation",
	"zIndex", "locked", "thickness", "circleMode",
}

// normalizeShapes installs the default shape set when v is not a list.
// Otherwise every entry gets a stable id, a known type and numeric
// defaults; duplicates by id are dropped.
func normalizeShapes(v any) []Shape {
	list, ok := asSlice(v)
	if !ok {
		return DefaultShapes()
	}
	out := []Shape{}
	seen := make(map[string]bool, len(list))
	for i, item := range list {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		id := stableID("sh", i, m["id"])
		if seen[id] {
			continue
		}
		seen[id] = true

		typ := ShapeType(text(m["type"]))
		switch typ {
		case ShapeRect, ShapeCircle, ShapeLine:
		default:
			typ = ShapeRect
		}
		mode := CircleMode(text(m["circleMode"]))
		if mode != CircleRound {
			mode = CircleEllipse
		}
		color := text(m["color"])
		if strings.TrimSpace(color) == "" {
			color = text(m["fillColor"])
		}
		if strings.TrimSpace(color) == "" {
			color = "#1e293b"
		}

		out = append(out, Shape{
			ID:           id,
			Type:         typ,
			Name:         text(m["name"]),
			X:            num(50, nil, m["x"]),
			Y:            num(50, nil, m["y"]),
			Width:        num(20, positive, m["width"]),
			Height:       num(10, positive, m["height"]),
			Color:        color,
			StrokeColor:  text(m["strokeColor"]),
			StrokeWidth:  num(0, nonNegative, m["strokeWidth"]),
			Opacity:      percent(m["opacity"], 100),
			BorderRadius: num(0, nonNegative, m["borderRadius"]),
			Rotation:     num(0, nil, m["rotation"]),
			ZIndex:       num(5, nil, m["zIndex"]),
			Locked:       boolean(m["locked"], false),
			Thickness:    num(3, positive, m["thickness"]),
			CircleMode:   mode,
			Extra:        leftover(m, shapeKeys...),
		})
	}
	return out
}

var textBoxKeys = []string{
	"id", "text", "x", "y", "width", "height", "fontSize", "color", "bold", "align", "zIndex",
}

func normalizeTextBoxes(v any) []TextBox {
	out := []TextBox{}
	list, _ := asSlice(v)
	seen := make(map[string]bool, len(list))
	for i, item := range list {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		id := stableID("txt", i, m["id"])
		if seen[id] {
			continue
		}
		seen[id] = true

		align := text(m["align"])
		switch align {
		case "left", "center", "right", "justify":
		default:
			align = "left"
		}
		color := text(m["color"])
		if strings.TrimSpace(color) == "" {
			color = "#ffffff"
		}

		out = append(out, TextBox{
			ID:       id,
			Text:     text(m["text"]),
			X:        num(10, nil, m["x"]),
			Y:        num(10, nil, m["y"]),
			Width:    num(30, positive, m["width"]),
			Height:   num(12, positive, m["height"]),
			FontSize: num(DefaultFontSize, fontSize, m["fontSize"]),
			Color:    color,
			Bold:     boolean(m["bold"], false),
			Align:    align,
			ZIndex:   num(7, nil, m["zIndex"]),
			Extra:    leftover(m, textBoxKeys...),
		})
	}
	return out
}
