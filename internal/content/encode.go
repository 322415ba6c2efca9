package content

import (
	"maps"
	"slices"

	"github.com/aellingwood/cardforge/internal/theme"
)

// Map returns the canonical persisted form of the document: nested
// structures plus the legacy flat mirrors older renderers and exports read.
// The result shares no memory with d.
func (d *Document) Map() map[string]any {
	m := cloneMap(d.Extra)
	if m == nil {
		m = make(map[string]any)
	}

	if d.TemplateID != "" {
		m["template_id"] = d.TemplateID
	}
	m["layout_mode"] = string(d.LayoutMode)

	m["title"] = d.Title
	m["subtitle"] = d.Subtitle
	m["sub_title"] = d.Subtitle
	m["body"] = d.Body
	m["description"] = d.Description
	m["message"] = d.Body
	m["cta"] = d.CTA
	m["cta_text"] = d.CTAText
	m["phone"] = d.Phone
	m["email"] = d.Email
	m["address"] = d.Address
	m["applications"] = d.Applications
	m["key_benefits"] = d.KeyBenefits
	m["benefits"] = d.KeyBenefits
	m["label_alert"] = d.LabelAlert
	m["label_applications"] = d.LabelApplications
	m["label_benefits"] = d.LabelBenefits
	m["label_features"] = d.LabelFeatures
	if d.FromName != "" {
		m["from_name"] = d.FromName
	}
	m["bullet_points"] = slices.Clone(d.BulletPoints)
	m["features"] = slices.Clone(d.BulletPoints)

	if d.ImageData != "" {
		m["image_data"] = d.ImageData
	} else {
		m["image_data"] = nil
	}
	if d.ImageFit != "" {
		m["image_fit"] = string(d.ImageFit)
	}
	if d.BackgroundColor != "" {
		m["background_color"] = d.BackgroundColor
	}
	if d.TextColor != "" {
		m["text_color"] = d.TextColor
	}

	overlays := make([]any, 0, len(d.Overlays))
	for _, ov := range d.Overlays {
		overlays = append(overlays, ov.toMap())
	}
	layers := cloneMap(d.LayersExtra)
	if layers == nil {
		layers = make(map[string]any)
	}
	layers["overlays"] = overlays
	m["layers"] = layers
	m["overlay_images"] = cloneValue(overlays)

	shapes := make([]any, 0, len(d.Shapes))
	for _, sh := range d.Shapes {
		shapes = append(shapes, sh.toMap())
	}
	m["shape_layers"] = shapes

	boxes := make([]any, 0, len(d.TextBoxes))
	for _, tb := range d.TextBoxes {
		boxes = append(boxes, tb.toMap())
	}
	m["custom_text_boxes"] = boxes

	styles := make(map[string]any, len(d.FieldStyle))
	for _, field := range slices.Sorted(maps.Keys(d.FieldStyle)) {
		s := d.FieldStyle[field]
		sm := map[string]any{"fontSize": s.FontSize}
		if s.Font != "" {
			sm["font"] = s.Font
		}
		if s.Bold {
			sm["bold"] = true
		}
		if s.Italic {
			sm["italic"] = true
		}
		if s.Color != "" {
			sm["color"] = s.Color
		}
		styles[field] = sm
		m[field+"_size"] = s.FontSize
	}
	m["field_style"] = styles

	overflow := make(map[string]any, len(d.FieldOverflow))
	for field, o := range d.FieldOverflow {
		overflow[field] = map[string]any{
			"mode":       string(o.Mode),
			"clampLines": o.ClampLines,
			"minSize":    o.MinSize,
		}
		m[field+"_overflow"] = string(o.Mode)
		m[field+"_clamp_lines"] = o.ClampLines
		m[field+"_min_size"] = o.MinSize
	}
	m["field_overflow"] = overflow

	fieldBoxes := make(map[string]any, len(d.FieldBoxes))
	for field, b := range d.FieldBoxes {
		fieldBoxes[field] = map[string]any{
			"x": b.X, "y": b.Y, "width": b.Width, "height": b.Height, "zIndex": b.ZIndex,
		}
	}
	m["field_boxes"] = fieldBoxes

	groups := make(map[string]any, len(d.LayerGroups))
	for id, g := range d.LayerGroups {
		groups[id] = map[string]any{
			"visible": g.Visible, "locked": g.Locked,
			"opacity": g.Opacity, "zIndexOffset": g.ZIndexOffset,
		}
	}
	m["layer_groups"] = groups

	m["effects"] = effectsMap(d.Effects)
	return m
}

func layerEffectsMap(l theme.LayerEffects) map[string]any {
	return map[string]any{
		"opacity": l.Opacity,
		"shadow":  l.Shadow,
		"feather": l.Feather,
		"blend":   l.Blend,
	}
}

func effectsMap(fx theme.Effects) map[string]any {
	m := layerEffectsMap(fx.LayerEffects)
	m["grain_enabled"] = fx.GrainEnabled
	m["grain_intensity"] = fx.GrainIntensity
	if len(fx.Layers) > 0 {
		layers := make(map[string]any, len(fx.Layers))
		for id, l := range fx.Layers {
			layers[id] = layerEffectsMap(l)
		}
		m["layers"] = layers
	}
	return m
}

func (ov Overlay) toMap() map[string]any {
	m := cloneMap(ov.Extra)
	if m == nil {
		m = make(map[string]any)
	}
	m["id"] = ov.ID
	if ov.Name != "" {
		m["name"] = ov.Name
	}
	m["image_data"] = ov.ImageData
	m["x"] = ov.X
	m["y"] = ov.Y
	m["width"] = ov.Width
	m["height"] = ov.Height
	m["fit"] = string(ov.Fit)
	m["rotation"] = ov.Rotation
	m["opacity"] = ov.Effects.Opacity
	m["zIndex"] = ov.ZIndex
	m["effects"] = layerEffectsMap(ov.Effects)
	return m
}

func (sh Shape) toMap() map[string]any {
	m := cloneMap(sh.Extra)
	if m == nil {
		m = make(map[string]any)
	}
	m["id"] = sh.ID
	m["type"] = string(sh.Type)
	if sh.Name != "" {
		m["name"] = sh.Name
	}
	m["x"] = sh.X
	m["y"] = sh.Y
	m["width"] = sh.Width
	m["height"] = sh.Height
	m["color"] = sh.Color
	if sh.StrokeColor != "" {
		m["strokeColor"] = sh.StrokeColor
	}
	m["strokeWidth"] = sh.StrokeWidth
	m["opacity"] = sh.Opacity
	m["borderRadius"] = sh.BorderRadius
	m["rotation"] = sh.Rotation
	m["zIndex"] = sh.ZIndex
	m["locked"] = sh.Locked
	m["thickness"] = sh.Thickness
	m["circleMode"] = string(sh.CircleMode)
	return m
}

func (tb TextBox) toMap() map[string]any {
	m := cloneMap(tb.Extra)
	if m == nil {
		m = make(map[string]any)
	}
	m["id"] = tb.ID
	m["text"] = tb.Text
	m["x"] = tb.X
	m["y"] = tb.Y
	m["width"] = tb.Width
	m["height"] = tb.Height
	m["fontSize"] = tb.FontSize
	m["color"] = tb.Color
	m["bold"] = tb.Bold
	m["align"] = tb.Align
	m["zIndex"] = tb.ZIndex
	return m
}
