// Package render turns normalized content into a finished page. It is the
// single entry point both the preview server and the export pipeline call,
// so the same inputs always produce the same bytes.
package render

import (
	"fmt"
	"html"
	"sync"

	"github.com/aellingwood/cardforge/internal/content"
	tmpl "github.com/aellingwood/cardforge/internal/template"
	"github.com/aellingwood/cardforge/internal/theme"
)

// Renderer executes card templates. It holds no per-call state and is safe
// for concurrent use.
type Renderer struct {
	engine *tmpl.Engine
}

// NewRenderer creates a Renderer backed by the given template engine.
func NewRenderer(engine *tmpl.Engine) *Renderer {
	return &Renderer{engine: engine}
}

var defaultEngine = sync.OnceValues(func() (*tmpl.Engine, error) {
	return tmpl.NewEngine("")
})

// Default returns a Renderer over the built-in templates.
func Default() (*Renderer, error) {
	eng, err := defaultEngine()
	if err != nil {
		return nil, fmt.Errorf("loading built-in templates: %w", err)
	}
	return NewRenderer(eng), nil
}

// Fingerprint identifies the templates this Renderer executes.
func (r *Renderer) Fingerprint() string {
	if r.engine == nil {
		return ""
	}
	return r.engine.Fingerprint()
}

// Render renders doc with the template registered under templateID, the
// theme t and the effects fx. A nil doc renders a blank page and a nil fx
// uses the document's own effects. Unknown ids render the default template.
//
// Render never fails and never mutates its arguments: the document is
// re-normalized into a private copy, the theme is sanitized against the
// default theme, and a template that cannot execute falls back to the
// default template and then to a minimal page.
func (r *Renderer) Render(templateID string, doc *content.Document, t theme.Theme, fx *theme.Effects) []byte {
	var raw map[string]any
	if doc != nil {
		raw = doc.Map()
	}
	canonical := content.Normalize(raw)

	effects := canonical.Effects
	if fx != nil {
		effects = fx.Clone()
	}
	t = t.Sanitized(theme.Default())

	def := tmpl.Resolve(templateID)
	if r.engine != nil {
		out, err := r.engine.Execute(def.ID, tmpl.NewPageContext(def, canonical, t, effects))
		if err == nil {
			return out
		}
		if def.ID != tmpl.DefaultID {
			fallback := tmpl.Resolve(tmpl.DefaultID)
			if out, err := r.engine.Execute(fallback.ID, tmpl.NewPageContext(fallback, canonical, t, effects)); err == nil {
				return out
			}
		}
	}
	return minimalPage(canonical.Title)
}

// RenderMap normalizes raw content and renders it. The template id comes
// from the content's template_id when templateID is empty.
func (r *Renderer) RenderMap(templateID string, raw map[string]any, t theme.Theme) []byte {
	doc := content.Normalize(raw)
	if templateID == "" {
		templateID = doc.TemplateID
	}
	return r.Render(templateID, doc, t, nil)
}

// RenderPage renders a catalog page. defaultTemplate applies when the page
// content selects no template.
func (r *Renderer) RenderPage(page *content.Page, defaultTemplate string, t theme.Theme) []byte {
	if page == nil {
		return r.Render(defaultTemplate, nil, t, nil)
	}
	return r.Render(page.TemplateID(defaultTemplate), page.Content, t, nil)
}

// Render renders with the built-in templates. See Renderer.Render.
func Render(templateID string, doc *content.Document, t theme.Theme, fx *theme.Effects) []byte {
	r, err := Default()
	if err != nil {
		return minimalPage(titleOf(doc))
	}
	return r.Render(templateID, doc, t, fx)
}

func titleOf(doc *content.Document) string {
	if doc == nil {
		return ""
	}
	return doc.Title
}

// minimalPage is the last-resort output: an empty canvas carrying the
// title.
func minimalPage(title string) []byte {
	c := tmpl.PageCanvas
	return fmt.Appendf(nil, `<!DOCTYPE html>
<html lang="tr">
<head><meta charset="utf-8"><title>%s</title></head>
<body><div class="page" style="position:relative;overflow:hidden;width:%dpx;height:%dpx;background:#ffffff;"><h1 style="padding:48px;font-family:sans-serif;">%s</h1></div></body>
</html>
`, html.EscapeString(title), c.Width, c.Height, html.EscapeString(title))
}
