package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCatalog(t *testing.T) {
	c := NormalizeCatalog(map[string]any{
		"id":          "cat-1",
		"name":        "Valves 2026",
		"theme_id":    "dark-tech",
		"template_id": "tech-data-sheet",
		"pages": []any{
			map[string]any{"id": "b", "order": 2, "content": map[string]any{"title": "Second"}},
			map[string]any{"order": 1, "content": map[string]any{"message": "hi"}},
			map[string]any{"id": "b", "content": map[string]any{"title": "dup"}},
			"garbage",
			map[string]any{"id": "c", "order": "x"},
		},
	})

	assert.Equal(t, "Valves 2026", c.Name)
	assert.Equal(t, "dark-tech", c.ThemeID)
	require.Len(t, c.Pages, 3)

	assert.Equal(t, "page-2", c.Pages[0].ID)
	assert.Equal(t, "hi", c.Pages[0].Content.Description)
	assert.Equal(t, "b", c.Pages[1].ID)
	assert.Equal(t, "Second", c.Pages[1].Content.Title)
	assert.Equal(t, "c", c.Pages[2].ID)
	assert.Equal(t, 4, c.Pages[2].Order, "garbage order falls back to position")

	p, ok := c.Page("b")
	require.True(t, ok)
	assert.Equal(t, "tech-data-sheet", p.TemplateID(c.TemplateID))
}

func TestNormalizeCatalogEmpty(t *testing.T) {
	c := NormalizeCatalog(nil)
	assert.Empty(t, c.Pages)
}

func TestBlank(t *testing.T) {
	d := Blank("event-poster")
	assert.Equal(t, "event-poster", d.TemplateID)
	assert.Empty(t, d.Title)
	assert.Len(t, d.Shapes, 3)
}

func TestPageLabel(t *testing.T) {
	assert.Equal(t, "Named", (&Page{ID: "x", Name: "Named"}).Label())
	assert.Equal(t, "Title", (&Page{ID: "x", Content: Normalize(map[string]any{"title": "Title"})}).Label())
	assert.Equal(t, "x", (&Page{ID: "x", Content: Normalize(nil)}).Label())
}

func TestSortByOrder(t *testing.T) {
	pages := []*Page{{ID: "c", Order: 1}, {ID: "a", Order: 2}, {ID: "b", Order: 1}}
	SortByOrder(pages)
	assert.Equal(t, "b", pages[0].ID)
	assert.Equal(t, "c", pages[1].ID)
	assert.Equal(t, "a", pages[2].ID)
}

func TestSortByLabel(t *testing.T) {
	pages := []*Page{{ID: "1", Name: "beta"}, {ID: "2", Name: "Alpha"}}
	SortByLabel(pages)
	assert.Equal(t, "Alpha", pages[0].Name)
}

func TestFilterDrafts(t *testing.T) {
	pages := []*Page{{ID: "a"}, {ID: "b", Draft: true}}
	out := FilterDrafts(pages)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
	assert.Len(t, pages, 2)
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Hello World", "hello-world"},
		{"Gösterge Paneli", "gosterge-paneli"},
		{"Işık / Şalter_01", "isik-salter-01"},
		{"products/valve", "products-valve"},
		{"  --  ", ""},
		{"Straße", "strasse"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer()
	out, err := r.Render([]byte("# Catalog\n\nSome *text* <script>x</script>\n"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1>Catalog</h1>")
	assert.Contains(t, string(out), "<em>text</em>")
	assert.NotContains(t, string(out), "<script>")
}

func TestExtractText(t *testing.T) {
	paragraphs, items := ExtractText([]byte("## Heading\n\nPara with [link](http://x) and `code`.\n\n```\nskipped\n```\n\n1. one\n2. two\n"))
	assert.Equal(t, []string{"Heading", "Para with link and code."}, paragraphs)
	assert.Equal(t, []string{"one", "two"}, items)
}
