package render

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aellingwood/cardforge/internal/content"
	tmpl "github.com/aellingwood/cardforge/internal/template"
	"github.com/aellingwood/cardforge/internal/theme"
)

func testRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := Default()
	require.NoError(t, err)
	return r
}

func render(t *testing.T, id string, raw map[string]any) string {
	t.Helper()
	return string(testRenderer(t).Render(id, content.Normalize(raw), theme.Default(), nil))
}

// styleOf returns the style attribute of the first element with the given
// class.
func styleOf(t *testing.T, html, class string) string {
	t.Helper()
	m := regexp.MustCompile(`class="` + regexp.QuoteMeta(class) + `" style="([^"]*)"`).FindStringSubmatch(html)
	require.NotNil(t, m, "no element with class %q", class)
	return m[1]
}

func TestTechDataSheetWithoutImage(t *testing.T) {
	html := render(t, "tech-data-sheet", map[string]any{
		"title":         "ACME Valve",
		"bullet_points": []any{"IP65", "316 Stainless"},
		"image_data":    nil,
	})

	assert.Contains(t, html, "ACME Valve")
	assert.Equal(t, 2, strings.Count(html, "<tr "), "feature table rows")
	assert.Contains(t, html, `class="image-placeholder"`)
	assert.NotContains(t, html, `class="primary-image"`)
	assert.NotContains(t, html, `src=""`)
}

func TestTechDataSheetSplitsSpecs(t *testing.T) {
	html := render(t, "tech-data-sheet", map[string]any{
		"bullet_points": []any{"Pressure: 16 bar", "Body: 316L"},
	})
	assert.Contains(t, html, ">Pressure</td>")
	assert.Contains(t, html, ">16 bar</td>")
	assert.Contains(t, html, "TEKNIK OZELLIKLER")
}

func TestGreetingCardMessageAlias(t *testing.T) {
	html := render(t, "greeting-card", map[string]any{"message": "Happy New Year"})

	m := regexp.MustCompile(`class="field-description" style="[^"]*">([^<]*)</p>`).FindStringSubmatch(html)
	require.NotNil(t, m, "description block missing")
	assert.Equal(t, "Happy New Year", m[1])
}

func TestClampedTitleDoesNotShrink(t *testing.T) {
	html := render(t, "industrial-product-alert", map[string]any{
		"title":          strings.Repeat("x", 300),
		"field_overflow": map[string]any{"title": map[string]any{"mode": "clamp", "clampLines": 2}},
	})

	style := styleOf(t, html, "field-title")
	assert.Contains(t, style, "-webkit-line-clamp:2;")
	assert.Contains(t, style, "font-size:32px;")
}

func TestAutofitTitleShrinks(t *testing.T) {
	html := render(t, "industrial-product-alert", map[string]any{"title": strings.Repeat("x", 180)})
	assert.Contains(t, styleOf(t, html, "field-title"), "font-size:27px;")
}

func TestRenderUnknownTemplateFallsBack(t *testing.T) {
	for _, id := range []string{"", "no-such-template", "../../etc/passwd"} {
		html := render(t, id, map[string]any{"title": "Fallback"})
		assert.Contains(t, html, `data-template="`+tmpl.DefaultID+`"`, id)
		assert.Contains(t, html, "Fallback", id)
	}
}

func TestRenderDeterministic(t *testing.T) {
	r := testRenderer(t)
	raw := map[string]any{
		"title":         "Solenoid Valve",
		"bullet_points": []any{"IP65", "DN50"},
		"effects":       map[string]any{"grain_enabled": true, "grain_intensity": 35, "shadow": 20},
		"layout_mode":   "free",
		"custom_text_boxes": []any{
			map[string]any{"text": "Limited offer", "x": 50, "y": 90},
		},
	}
	for _, id := range tmpl.IDs() {
		a := r.Render(id, content.Normalize(raw), theme.Default(), nil)
		b := r.Render(id, content.Normalize(raw), theme.Default(), nil)
		assert.Equal(t, string(a), string(b), id)
	}
}

func TestRenderConcurrent(t *testing.T) {
	r := testRenderer(t)
	doc := content.Normalize(map[string]any{"title": "Concurrent"})
	want := string(r.Render("dark-tech", doc, theme.Default(), nil))

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = string(r.Render("dark-tech", doc, theme.Default(), nil))
		}()
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestGrainOverlay(t *testing.T) {
	off := render(t, "event-poster", map[string]any{"title": "Expo"})
	assert.NotContains(t, off, `class="grain"`)

	on := render(t, "event-poster", map[string]any{
		"title":   "Expo",
		"effects": map[string]any{"grain_enabled": true, "grain_intensity": 40},
	})
	style := styleOf(t, on, "grain")
	assert.Contains(t, style, "opacity:0.4;")
	assert.Contains(t, style, "mix-blend-mode:overlay;")
}

func TestHiddenGroupsRemoveMarkup(t *testing.T) {
	const img = "data:image/png;base64,iVBORw0KGgo="

	for _, id := range tmpl.IDs() {
		t.Run(id, func(t *testing.T) {
			html := render(t, id, map[string]any{
				"title":        "Hidden",
				"image_data":   img,
				"layer_groups": map[string]any{"image": map[string]any{"visible": false}},
			})
			assert.NotContains(t, html, "primary-image")
			assert.NotContains(t, html, "image-placeholder")

			html = render(t, id, map[string]any{
				"title":        "Hidden",
				"description":  "Some text",
				"layer_groups": map[string]any{"content": map[string]any{"visible": false}},
			})
			assert.NotContains(t, html, `class="field-`)

			html = render(t, id, map[string]any{
				"title":        "Hidden",
				"description":  "Visible text",
				"layer_groups": map[string]any{"title": map[string]any{"visible": false}},
			})
			assert.NotContains(t, html, "field-title")
			assert.Contains(t, html, "Visible text")
		})
	}

	html := render(t, "industrial-product-alert", map[string]any{
		"layer_groups": map[string]any{"footer": map[string]any{"visible": false}},
	})
	assert.NotContains(t, html, "chrome-footer")
}

func TestLegacyLayerVisibility(t *testing.T) {
	html := render(t, "industrial-product-alert", map[string]any{
		"title":            "Legacy",
		"layer_visibility": []any{map[string]any{"id": "footer", "visible": false}},
	})
	assert.NotContains(t, html, "chrome-footer")
	assert.Contains(t, html, "chrome-header")
}

func TestEmptyFieldsOmitBlocks(t *testing.T) {
	html := render(t, "industrial-product-alert", map[string]any{"title": "Only a title"})
	assert.Contains(t, html, "field-title")
	for _, class := range []string{"field-subtitle", "field-description", "field-bullets", "field-benefits", "field-cta"} {
		assert.NotContains(t, html, class)
	}
}

func TestEventPosterCapsBullets(t *testing.T) {
	bullets := make([]any, 9)
	for i := range bullets {
		bullets[i] = "Feature " + string(rune('A'+i))
	}
	html := render(t, "event-poster", map[string]any{"bullet_points": bullets})
	assert.Contains(t, html, "Feature F")
	assert.NotContains(t, html, "Feature G")
}

func TestFreeLayoutPositionsFields(t *testing.T) {
	html := render(t, "minimal-premium", map[string]any{
		"title":       "Free Title",
		"layout_mode": "free",
		"field_boxes": map[string]any{"title": map[string]any{"x": 50, "y": 20, "width": 80, "height": 10, "zIndex": 5}},
	})

	style := styleOf(t, html, "field field-title")
	assert.Contains(t, style, "position:absolute;left:50%;top:20%;width:80%;height:10%;")
	assert.Contains(t, style, "z-index:5;")
	assert.Contains(t, html, `class="shape shape-`, "default shapes render in free mode")

	flow := render(t, "minimal-premium", map[string]any{"title": "Flow Title"})
	assert.NotContains(t, flow, `class="shape `)
	assert.NotContains(t, flow, `class="field field-`)
}

func TestLayerEffectsOverride(t *testing.T) {
	r := testRenderer(t)
	doc := content.Normalize(map[string]any{
		"layout_mode": "free",
		"shape_layers": []any{
			map[string]any{"id": "bar", "type": "rect", "x": 50, "y": 50, "width": 40, "height": 5, "color": "#ff0000", "opacity": 80},
		},
	})

	html := string(r.Render("minimal-premium", doc, theme.Default(), nil))
	assert.Contains(t, styleOf(t, html, "shape shape-rect"), "opacity:0.8;")

	fx := theme.DefaultEffects()
	fx.Layers = map[string]theme.LayerEffects{"bar": {Opacity: 50, Blend: "multiply"}}
	html = string(r.Render("minimal-premium", doc, theme.Default(), &fx))
	style := styleOf(t, html, "shape shape-rect")
	assert.Contains(t, style, "opacity:0.5;")
	assert.Contains(t, style, "mix-blend-mode:multiply;")
}

func TestPageEffectsReachChrome(t *testing.T) {
	r := testRenderer(t)
	fx := theme.DefaultEffects()
	fx.Opacity = 50
	fx.Blend = "multiply"

	cases := map[string][]string{
		"tech-data-sheet": {"chrome-header", "chrome-footer"},
		"dark-tech":       {"chrome-header", "chrome-footer"},
		"event-poster":    {"chrome-header", "chrome-footer"},
		"photo-dominant":  {"chrome-header", "chrome-footer"},
		"greeting-card":   {"chrome-footer"},
		"condolence-card": {"chrome-footer"},
	}
	for id, classes := range cases {
		t.Run(id, func(t *testing.T) {
			html := string(r.Render(id, content.Normalize(map[string]any{"title": "Valve"}), theme.Default(), &fx))
			for _, class := range classes {
				style := styleOf(t, html, class)
				assert.Contains(t, style, "opacity:0.5;", class)
				assert.Contains(t, style, "mix-blend-mode:multiply;", class)
			}
		})
	}

	// The header group's own opacity scales the page opacity.
	doc := content.Normalize(map[string]any{
		"layer_groups": map[string]any{"header": map[string]any{"opacity": 50}},
	})
	html := string(r.Render("tech-data-sheet", doc, theme.Default(), &fx))
	assert.Contains(t, styleOf(t, html, "chrome-header"), "opacity:0.25;")
	assert.NotContains(t, styleOf(t, html, "chrome-footer"), "opacity:0.25;")
}

func TestOverlaysAndTextBoxes(t *testing.T) {
	html := render(t, "photo-dominant", map[string]any{
		"overlay_images": []any{
			map[string]any{"id": "logo", "image_data": "data:image/png;base64,AAAA", "x": 80, "y": 10, "width": 20, "height": 10},
			map[string]any{"id": "bad", "image_data": "javascript:alert(1)"},
		},
		"custom_text_boxes": []any{
			map[string]any{"id": "promo", "text": "Only this week", "x": 50, "y": 50, "align": "sideways"},
		},
	})

	assert.Contains(t, html, `data-layer="logo"`)
	assert.NotContains(t, html, `data-layer="bad"`)
	assert.NotContains(t, html, "javascript:")
	assert.Contains(t, html, "Only this week")
	assert.Contains(t, styleOf(t, html, "text-box"), "text-align:left;")
}

func TestRenderTotal(t *testing.T) {
	r := testRenderer(t)
	inputs := []map[string]any{
		nil,
		{},
		{
			"title":          42,
			"bullet_points":  "not a list",
			"field_style":    "garbage",
			"field_boxes":    map[string]any{"title": map[string]any{"x": -50, "width": "abc"}},
			"field_overflow": map[string]any{"title": map[string]any{"mode": "explode", "clampLines": -3}},
			"shape_layers":   []any{map[string]any{"type": "hexagon", "x": "NaN"}, "junk"},
			"effects":        map[string]any{"opacity": -10, "blend": "weird", "grain_intensity": 1e9},
			"layout_mode":    "free",
			"layer_groups":   []any{1, 2},
		},
		{
			"overlay_images":    []any{map[string]any{"id": "dup", "image_data": "data:image/png;base64,AA"}, map[string]any{"id": "dup", "image_data": "data:image/png;base64,BB"}},
			"custom_text_boxes": []any{map[string]any{"fontSize": -4, "color": "red;}body{"}},
			"background_color":  "url(javascript:alert(1))",
		},
	}

	ids := append(tmpl.IDs(), "", "unknown")
	for _, raw := range inputs {
		for _, id := range ids {
			out := r.Render(id, content.Normalize(raw), theme.Theme{PrimaryColor: "expression(alert(1))"}, nil)
			require.NotEmpty(t, out, id)
			assert.True(t, strings.HasPrefix(string(out), "<!DOCTYPE html>"), id)
			assert.NotContains(t, string(out), "expression(", id)
		}
	}
}

func TestRenderNilInputs(t *testing.T) {
	out := testRenderer(t).Render("dark-tech", nil, theme.Theme{}, nil)
	assert.Contains(t, string(out), `data-template="dark-tech"`)

	out = NewRenderer(nil).Render("dark-tech", content.Normalize(map[string]any{"title": "<b>x</b>"}), theme.Default(), nil)
	assert.Contains(t, string(out), "&lt;b&gt;x&lt;/b&gt;")
	assert.Contains(t, string(out), "width:794px;height:1123px;")
}

func TestRenderDoesNotMutate(t *testing.T) {
	doc := content.Normalize(map[string]any{
		"title":         "Immutable",
		"bullet_points": []any{"a", "b", "c", "d", "e", "f", "g", "h", "i"},
		"layout_mode":   "free",
	})
	before := doc.Map()
	fx := theme.DefaultEffects()
	fx.Layers = map[string]theme.LayerEffects{"x": {Opacity: 10}}

	testRenderer(t).Render("event-poster", doc, theme.Default(), &fx)

	assert.Equal(t, before, doc.Map())
	assert.Len(t, fx.Layers, 1)
}

func TestRenderPage(t *testing.T) {
	r := testRenderer(t)
	page := &content.Page{ID: "p1", Content: content.Normalize(map[string]any{"title": "Page", "template_id": "condolence-card"})}
	assert.Contains(t, string(r.RenderPage(page, "dark-tech", theme.Default())), `data-template="condolence-card"`)

	page.Content = content.Normalize(map[string]any{"title": "Page"})
	assert.Contains(t, string(r.RenderPage(page, "dark-tech", theme.Default())), `data-template="dark-tech"`)

	assert.NotEmpty(t, r.RenderPage(nil, "", theme.Default()))
}

func TestRenderMap(t *testing.T) {
	out := testRenderer(t).RenderMap("", map[string]any{"template_id": "clean-industrial-grid", "title": "Grid"}, theme.Default())
	assert.Contains(t, string(out), `data-template="clean-industrial-grid"`)
}

func TestThemeColorsApplied(t *testing.T) {
	green, ok := theme.Preset("industrial-green")
	require.True(t, ok)
	out := string(testRenderer(t).Render("industrial-product-alert", content.Normalize(map[string]any{"title": "Green"}), green, nil))
	assert.Contains(t, out, green.PrimaryColor)
	assert.NotContains(t, out, theme.Default().PrimaryColor)
}
