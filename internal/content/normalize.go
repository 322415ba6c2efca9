package content

import (
	"maps"
	"math"
	"slices"

	"github.com/aellingwood/cardforge/internal/theme"
)

// mirrorKeys are alias spellings that are always derived from their
// canonical field on output.
var mirrorKeys = []string{"message", "sub_title", "benefits", "features"}

// modeledKeys are decoded into typed Document fields and never kept in
// Extra.
var modeledKeys = []string{
	"template_id", "layout_mode",
	"title", "subtitle", "body", "description", "cta", "cta_text",
	"phone", "email", "address", "applications", "key_benefits",
	"label_alert", "label_applications", "label_benefits", "label_features",
	"from_name", "bullet_points",
	"image_data", "image_fit", "background_color", "text_color",
	"overlay_images", "custom_text_boxes", "layers", "effects",
	"shape_layers", "field_style", "field_overflow", "field_boxes", "layer_groups",
}

// KnownKeys returns every content key Normalize decodes, sorted. Other keys
// are carried through untouched.
func KnownKeys() []string {
	keys := slices.Concat(modeledKeys, mirrorKeys)
	slices.Sort(keys)
	return keys
}

// Normalize converts raw, possibly legacy or partial content into a
// canonical Document. It never fails and never mutates raw. Running it on
// the output of Document.Map yields an equal Document.
func Normalize(raw map[string]any) *Document {
	c := cloneMap(raw)
	if c == nil {
		c = make(map[string]any)
	}

	resolveAliases(c)
	fillRegistryDefaults(c)

	d := &Document{}
	d.FieldStyle = normalizeStyles(c)
	d.FieldOverflow = normalizeOverflow(c)
	d.FieldBoxes = normalizeBoxes(c)
	d.Overlays, d.LayersExtra = normalizeLayers(c)
	d.LayerGroups = normalizeGroups(c)
	d.Shapes = normalizeShapes(c["shape_layers"])
	d.TextBoxes = normalizeTextBoxes(c["custom_text_boxes"])
	d.Effects = normalizeEffects(c["effects"])

	d.TemplateID = text(c["template_id"])
	d.LayoutMode = LayoutMode(text(c["layout_mode"]))
	if d.LayoutMode != LayoutFree {
		d.LayoutMode = LayoutTemplate
	}

	d.Title = text(c["title"])
	d.Subtitle = text(c["subtitle"])
	d.Body = multiline(c["body"])
	d.Description = multiline(c["description"])
	d.CTA = text(c["cta"])
	d.CTAText = text(c["cta_text"])
	d.Phone = text(c["phone"])
	d.Email = text(c["email"])
	d.Address = multiline(c["address"])
	d.Applications = multiline(c["applications"])
	d.KeyBenefits = multiline(c["key_benefits"])
	d.LabelAlert = text(c["label_alert"])
	d.LabelApplications = text(c["label_applications"])
	d.LabelBenefits = text(c["label_benefits"])
	d.LabelFeatures = text(c["label_features"])
	d.FromName = text(c["from_name"])
	d.BulletPoints = textList(c["bullet_points"])

	d.ImageData = text(c["image_data"])
	d.ImageFit = imageFit(c["image_fit"], "")
	d.BackgroundColor = text(c["background_color"])
	d.TextColor = text(c["text_color"])

	consumed := slices.Concat(modeledKeys, mirrorKeys)
	d.Extra = leftover(c, consumed...)
	return d
}

// resolveAliases fills empty canonical keys from their historical
// spellings, then applies the two hard-coded canonical syncs.
func resolveAliases(c map[string]any) {
	for _, g := range aliasGroups {
		if !isEmpty(c[g.target]) {
			continue
		}
		for _, alias := range g.aliases {
			if !isEmpty(c[alias]) {
				c[g.target] = cloneValue(c[alias])
				break
			}
		}
	}

	if isEmpty(c["description"]) && !isEmpty(c["body"]) {
		c["description"] = c["body"]
	}
	if isEmpty(c["body"]) && !isEmpty(c["description"]) {
		c["body"] = c["description"]
	}
	if isEmpty(c["cta_text"]) && !isEmpty(c["cta"]) {
		c["cta_text"] = c["cta"]
	}
	if isEmpty(c["cta"]) && !isEmpty(c["cta_text"]) {
		c["cta"] = c["cta_text"]
	}
}

func fillRegistryDefaults(c map[string]any) {
	for _, f := range Registry {
		if _, ok := c[f.ID]; ok {
			continue
		}
		switch f.Kind {
		case KindText:
			c[f.ID] = ""
		case KindList, KindImageList, KindObjectList:
			c[f.ID] = []any{}
		case KindImage:
			c[f.ID] = nil
		case KindObject:
			if f.ID == "effects" {
				c[f.ID] = map[string]any{
					"grain_enabled":   false,
					"grain_intensity": theme.DefaultGrainIntensity,
				}
			} else {
				c[f.ID] = []any{}
			}
		}
	}
}

// fieldSet returns StyledFields followed by any extra keys of the caller's
// nested map, sorted.
func fieldSet(nested map[string]any) []string {
	fields := slices.Clone(StyledFields)
	var extra []string
	for k := range nested {
		if !slices.Contains(StyledFields, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(fields, extra...)
}

func normalizeStyles(c map[string]any) map[string]FieldStyle {
	nested, _ := asMap(c["field_style"])
	out := make(map[string]FieldStyle)
	for _, field := range fieldSet(nested) {
		style, _ := asMap(nested[field])
		legacy := field + "_size"
		out[field] = FieldStyle{
			FontSize: num(DefaultFontSize, fontSize, style["fontSize"], c[legacy]),
			Font:     text(style["font"]),
			Bold:     boolean(style["bold"], false),
			Italic:   boolean(style["italic"], false),
			Color:    text(style["color"]),
		}
		delete(c, legacy)
	}
	return out
}

func normalizeOverflow(c map[string]any) map[string]Overflow {
	nested, _ := asMap(c["field_overflow"])
	out := make(map[string]Overflow)
	for _, field := range fieldSet(nested) {
		cfg, _ := asMap(nested[field])
		def := DefaultOverflow(field)

		mode := def.Mode
		for _, candidate := range []any{cfg["mode"], c[field+"_overflow"]} {
			if m := OverflowMode(text(candidate)); m.Valid() {
				mode = m
				break
			}
		}
		lines := num(float64(def.ClampLines), func(f float64) bool { return f >= 1 && f <= 100 },
			cfg["clampLines"], c[field+"_clamp_lines"])

		out[field] = Overflow{
			Mode:       mode,
			ClampLines: int(math.Floor(lines)),
			MinSize:    num(def.MinSize, fontSize, cfg["minSize"], c[field+"_min_size"]),
		}
		delete(c, field+"_overflow")
		delete(c, field+"_clamp_lines")
		delete(c, field+"_min_size")
	}
	return out
}

func normalizeBoxes(c map[string]any) map[string]Box {
	out := maps.Clone(defaultBoxes)
	nested, _ := asMap(c["field_boxes"])
	for field, v := range nested {
		base, ok := defaultBoxes[field]
		if !ok {
			base = fallbackBox
		}
		m, ok := asMap(v)
		if !ok {
			out[field] = base
			continue
		}
		out[field] = Box{
			X:      num(base.X, nil, m["x"]),
			Y:      num(base.Y, nil, m["y"]),
			Width:  num(base.Width, positive, m["width"]),
			Height: num(base.Height, positive, m["height"]),
			ZIndex: num(base.ZIndex, nil, m["zIndex"]),
		}
	}
	return out
}

// normalizeLayers reads overlays from layers.overlays, falling back to the
// legacy overlay_images list.
func normalizeLayers(c map[string]any) ([]Overlay, map[string]any) {
	existing, _ := asMap(c["layers"])
	source := c["overlay_images"]
	if list, ok := asSlice(existing["overlays"]); ok && len(list) > 0 {
		source = list
	}
	return normalizeOverlays(source), leftover(existing, "overlays")
}

func normalizeGroups(c map[string]any) map[string]LayerGroup {
	out := make(map[string]LayerGroup, len(LayerGroupIDs))
	for _, id := range LayerGroupIDs {
		out[id] = defaultGroup(id)
	}

	caller, _ := asMap(c["layer_groups"])

	// Editor layer list from older documents; only fills groups the caller
	// did not configure explicitly.
	if legacy, ok := asSlice(c["layer_visibility"]); ok {
		for _, item := range legacy {
			m, ok := asMap(item)
			if !ok {
				continue
			}
			id := text(m["id"])
			if id == "" {
				continue
			}
			if mapped, ok := legacyLayerIDs[id]; ok {
				id = mapped
			}
			if _, explicit := caller[id]; explicit {
				continue
			}
			g, ok := out[id]
			if !ok {
				g = defaultGroup(id)
			}
			g.Visible = boolean(m["visible"], g.Visible)
			g.Locked = boolean(m["locked"], g.Locked)
			out[id] = g
		}
	}

	for id, v := range caller {
		base := defaultGroup(id)
		m, ok := asMap(v)
		if !ok {
			out[id] = base
			continue
		}
		out[id] = LayerGroup{
			Visible:      boolean(m["visible"], base.Visible),
			Locked:       boolean(m["locked"], base.Locked),
			Opacity:      percent(m["opacity"], base.Opacity),
			ZIndexOffset: num(base.ZIndexOffset, nil, m["zIndexOffset"]),
		}
	}
	return out
}

func normalizeEffects(v any) theme.Effects {
	m, _ := asMap(v)
	fx := theme.Effects{
		LayerEffects:   decodeLayerEffects(m, theme.DefaultLayerEffects()),
		GrainEnabled:   boolean(m["grain_enabled"], false),
		GrainIntensity: percent(m["grain_intensity"], theme.DefaultGrainIntensity),
	}
	if layers, ok := asMap(m["layers"]); ok {
		for id, lv := range layers {
			lm, ok := asMap(lv)
			if !ok || id == "" {
				continue
			}
			if fx.Layers == nil {
				fx.Layers = make(map[string]theme.LayerEffects)
			}
			fx.Layers[id] = decodeLayerEffects(lm, fx.LayerEffects)
		}
	}
	return fx
}

// decodeLayerEffects reads an effects object, taking unspecified values
// from base.
func decodeLayerEffects(m map[string]any, base theme.LayerEffects) theme.LayerEffects {
	blend := base.Blend
	if b := text(m["blend"]); b != "" {
		blend = b
	}
	return theme.LayerEffects{
		Opacity: percent(m["opacity"], base.Opacity),
		Shadow:  percent(m["shadow"], base.Shadow),
		Feather: percent(m["feather"], base.Feather),
		Blend:   theme.Blend(blend),
	}
}

func imageFit(v any, def ImageFit) ImageFit {
	switch f := ImageFit(text(v)); f {
	case FitCover, FitContain, FitFill:
		return f
	}
	return def
}
