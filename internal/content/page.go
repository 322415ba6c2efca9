package content

import (
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Page is one page of a catalog: a content document plus the metadata the
// surrounding tooling needs to order, select and name it.
type Page struct {
	ID      string
	Name    string
	Order   int
	Draft   bool
	ThemeID string

	// Content is always normalized.
	Content *Document

	// Body holds the markdown body of a .md page file, if any.
	Body string

	// Source info
	SourcePath string // Original file path relative to the content dir
}

// TemplateID returns the template the page renders with: the document's
// own selector, falling back to def.
func (p *Page) TemplateID(def string) string {
	if p.Content != nil && p.Content.TemplateID != "" {
		return p.Content.TemplateID
	}
	return def
}

// Label is the human-readable page label used in listings and export file
// names.
func (p *Page) Label() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Content != nil && p.Content.Title != "":
		return p.Content.Title
	default:
		return p.ID
	}
}

// Catalog groups ordered pages under a shared theme and default template.
type Catalog struct {
	ID          string
	Name        string
	Description string
	ThemeID     string
	TemplateID  string
	Pages       []*Page
}

// Page returns the page with the given id.
func (c *Catalog) Page(id string) (*Page, bool) {
	for _, p := range c.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// NormalizeCatalog decodes a catalog object of the form
// {id, name, theme_id, template_id, pages: [{id, name, order, content}]}
// and normalizes every page's content. Pages without an id get
// "page-{n}". Missing or malformed pieces degrade to empty values.
func NormalizeCatalog(raw map[string]any) *Catalog {
	c := &Catalog{
		ID:          text(raw["id"]),
		Name:        text(raw["name"]),
		Description: text(raw["description"]),
		ThemeID:     text(raw["theme_id"]),
		TemplateID:  text(raw["template_id"]),
	}
	list, _ := asSlice(raw["pages"])
	seen := make(map[string]bool, len(list))
	for i, item := range list {
		m, ok := asMap(item)
		if !ok {
			continue
		}
		id := stableID("page", i, m["id"])
		if seen[id] {
			continue
		}
		seen[id] = true
		contentMap, _ := asMap(m["content"])
		c.Pages = append(c.Pages, &Page{
			ID:      id,
			Name:    text(m["name"]),
			Order:   cast.ToInt(num(float64(i), nil, m["order"])),
			Draft:   boolean(m["draft"], false),
			ThemeID: text(m["theme_id"]),
			Content: Normalize(contentMap),
		})
	}
	SortByOrder(c.Pages)
	return c
}

// Blank returns a freshly normalized document for a new page using the
// given template.
func Blank(templateID string) *Document {
	return Normalize(map[string]any{"template_id": templateID})
}

// SortByOrder sorts pages by Order, breaking ties by ID.
func SortByOrder(pages []*Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].Order != pages[j].Order {
			return pages[i].Order < pages[j].Order
		}
		return pages[i].ID < pages[j].ID
	})
}

// SortByLabel sorts pages alphabetically by Label using case-insensitive comparison.
func SortByLabel(pages []*Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		return strings.ToLower(pages[i].Label()) < strings.ToLower(pages[j].Label())
	})
}

// FilterDrafts returns a new slice with all draft pages removed.
func FilterDrafts(pages []*Page) []*Page {
	return slices.DeleteFunc(slices.Clone(pages), func(p *Page) bool {
		return p.Draft
	})
}
