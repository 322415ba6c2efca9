// Package search builds the JSON index the catalog index page and external
// tools use to find pages by their text.
package search

import (
	"encoding/json"
	"strings"

	"github.com/aellingwood/cardforge/internal/content"
)

// IndexEntry represents a single page in the search index.
type IndexEntry struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Template string `json:"template"`
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Content  string `json:"content,omitempty"`
}

// textFields are the document fields whose text is searchable, in index
// order.
var textFields = []string{
	"body", "bullet_points", "applications", "key_benefits", "cta",
	"label_alert", "from_name", "phone", "email", "address",
}

// EntryFor builds the index entry for page, served at url. defaultTemplate
// applies when the page selects no template.
func EntryFor(page *content.Page, url, defaultTemplate string) IndexEntry {
	e := IndexEntry{
		ID:       page.ID,
		Label:    page.Label(),
		Template: page.TemplateID(defaultTemplate),
		URL:      url,
	}
	doc := page.Content
	if doc == nil {
		return e
	}
	e.Title = collapseWhitespace(doc.Title)
	e.Subtitle = collapseWhitespace(doc.Subtitle)

	parts := make([]string, 0, len(textFields)+len(doc.TextBoxes))
	for _, f := range textFields {
		if s := doc.Text(f); s != "" {
			parts = append(parts, s)
		}
	}
	for _, tb := range doc.TextBoxes {
		parts = append(parts, tb.Text)
	}
	e.Content = collapseWhitespace(strings.Join(parts, " "))
	return e
}

// GenerateIndex serializes entries as a JSON array. If maxContentLen > 0,
// each entry's Content field is truncated to that many characters at a word
// boundary. The output uses indented JSON for readability.
func GenerateIndex(entries []IndexEntry, maxContentLen int) ([]byte, error) {
	if entries == nil {
		entries = []IndexEntry{}
	}

	if maxContentLen > 0 {
		// Work on a copy so we don't mutate the caller's slice.
		truncated := make([]IndexEntry, len(entries))
		copy(truncated, entries)
		for i := range truncated {
			truncated[i].Content = TruncateAtWord(truncated[i].Content, maxContentLen)
		}
		entries = truncated
	}

	return json.MarshalIndent(entries, "", "  ")
}

// collapseWhitespace replaces runs of whitespace (spaces, tabs, newlines) with
// a single space and trims leading/trailing whitespace.
func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inSpace := false
	for _, ch := range s {
		switch ch {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
		default:
			b.WriteRune(ch)
			inSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

// TruncateAtWord truncates s at the last space before maxLen bytes, never
// splitting a UTF-8 sequence. If s is shorter than or equal to maxLen it is
// returned as-is. If truncated, "..." is appended to indicate truncation.
func TruncateAtWord(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	cut := maxLen
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	truncated := s[:cut]
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		truncated = truncated[:lastSpace]
	}

	return truncated + "..."
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
