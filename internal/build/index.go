package build

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/aellingwood/cardforge/internal/config"
	"github.com/aellingwood/cardforge/internal/content"
	"github.com/aellingwood/cardforge/internal/search"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="tr">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{margin:0;padding:40px;font-family:'Open Sans',sans-serif;background:#f5f5f5;color:#1a1a1a;}
h1{font-family:'Montserrat',sans-serif;margin:0 0 8px;}
.description{max-width:720px;color:#555;}
.pages{list-style:none;padding:0;display:grid;grid-template-columns:repeat(auto-fill,minmax(240px,1fr));gap:16px;}
.pages li{background:#fff;border-radius:8px;padding:16px;box-shadow:0 1px 3px rgba(0,0,0,.1);}
.pages a{color:#003366;font-weight:600;text-decoration:none;}
.meta{font-size:12px;color:#888;margin-top:4px;}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{with .Description}}<div class="description">{{.}}</div>{{end}}
<ul class="pages">
{{- range .Pages}}
<li data-page="{{.ID}}"><a href="{{.URL}}">{{.Label}}</a><div class="meta">{{.Template}}</div>{{with .Subtitle}}<div class="meta">{{.}}</div>{{end}}</li>
{{- else}}
<li>No pages yet.</li>
{{- end}}
</ul>
</body>
</html>
`))

// RenderIndex renders the catalog listing. The catalog description is
// markdown.
func RenderIndex(cfg *config.CatalogConfig, entries []search.IndexEntry) ([]byte, error) {
	var desc template.HTML
	if strings.TrimSpace(cfg.Description) != "" {
		html, err := content.NewMarkdownRenderer().Render([]byte(cfg.Description))
		if err != nil {
			return nil, err
		}
		// goldmark drops raw HTML unless WithUnsafe is set.
		desc = template.HTML(html)
	}

	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, struct {
		Title       string
		Description template.HTML
		Pages       []search.IndexEntry
	}{cfg.Title, desc, entries})
	if err != nil {
		return nil, fmt.Errorf("executing index template: %w", err)
	}
	return buf.Bytes(), nil
}
