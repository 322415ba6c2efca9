package search

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aellingwood/cardforge/internal/content"
)

func TestGenerateIndex_Basic(t *testing.T) {
	entries := []IndexEntry{
		{
			ID:       "valve",
			Label:    "Ball Valve",
			Template: "tech-data-sheet",
			Title:    "Ball Valve",
			URL:      "valve.html",
			Content:  "Forged brass body for industrial lines.",
		},
		{
			ID:       "pump",
			Label:    "Pump",
			Template: "dark-tech",
			Title:    "Pump",
			URL:      "pump.html",
			Content:  "This is the content of the second page.",
		},
	}

	data, err := GenerateIndex(entries, 0)
	if err != nil {
		t.Fatalf("GenerateIndex returned error: %v", err)
	}

	var result []IndexEntry
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result))
	}

	if result[0].ID != "valve" || result[0].Template != "tech-data-sheet" {
		t.Errorf("unexpected first entry: %+v", result[0])
	}
	if result[0].URL != "valve.html" {
		t.Errorf("expected URL 'valve.html', got %q", result[0].URL)
	}
	if result[1].Title != "Pump" {
		t.Errorf("expected title 'Pump', got %q", result[1].Title)
	}
	if result[1].Content != "This is the content of the second page." {
		t.Errorf("expected full content, got %q", result[1].Content)
	}
}

func TestGenerateIndex_MaxContentLen(t *testing.T) {
	entries := []IndexEntry{
		{
			ID:      "long",
			URL:     "long.html",
			Content: "The quick brown fox jumps over the lazy dog and runs away",
		},
	}

	data, err := GenerateIndex(entries, 30)
	if err != nil {
		t.Fatalf("GenerateIndex returned error: %v", err)
	}

	var result []IndexEntry
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result))
	}

	content := result[0].Content
	// Should be truncated at word boundary before position 30 with "..." appended.
	if len(content) == 0 {
		t.Fatal("expected non-empty content after truncation")
	}
	if content[len(content)-3:] != "..." {
		t.Errorf("expected truncated content to end with '...', got %q", content)
	}
	// "The quick brown fox jumps over" is 30 chars, so last space before 30 is at position 26 ("over").
	// Truncated = "The quick brown fox jumps" + "..."
	expected := "The quick brown fox jumps..."
	if content != expected {
		t.Errorf("expected %q, got %q", expected, content)
	}
}

func TestGenerateIndex_EmptyEntries(t *testing.T) {
	data, err := GenerateIndex(nil, 0)
	if err != nil {
		t.Fatalf("GenerateIndex returned error: %v", err)
	}

	var result []IndexEntry
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}

	if len(result) != 0 {
		t.Errorf("expected 0 entries, got %d", len(result))
	}

	// Also verify it's a JSON array, not null.
	trimmed := string(data)
	if trimmed != "[]" {
		t.Errorf("expected '[]', got %q", trimmed)
	}
}

func TestGenerateIndex_OmitEmpty(t *testing.T) {
	entries := []IndexEntry{
		{
			ID:  "minimal",
			URL: "minimal.html",
		},
	}

	data, err := GenerateIndex(entries, 0)
	if err != nil {
		t.Fatalf("GenerateIndex returned error: %v", err)
	}

	// The JSON should not contain empty text keys.
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal output: %v", err)
	}

	if len(raw) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(raw))
	}

	entry := raw[0]
	for _, key := range []string{"title", "subtitle", "content"} {
		if _, ok := entry[key]; ok {
			t.Errorf("expected key %q to be omitted, but it was present", key)
		}
	}

	// ID and URL should always be present.
	if entry["id"] != "minimal" {
		t.Errorf("expected id 'minimal', got %v", entry["id"])
	}
	if entry["url"] != "minimal.html" {
		t.Errorf("expected url 'minimal.html', got %v", entry["url"])
	}
}

func TestTruncateAtWord_Short(t *testing.T) {
	input := "short text"
	result := TruncateAtWord(input, 100)
	if result != input {
		t.Errorf("expected %q, got %q", input, result)
	}
}

func TestTruncateAtWord_Long(t *testing.T) {
	input := "The quick brown fox jumps over the lazy dog"
	result := TruncateAtWord(input, 20)
	// First 20 chars: "The quick brown fox "
	// Last space at or before 20 is position 19 (the space after "fox").
	// Actually: T(0)h(1)e(2) (3)q(4)u(5)i(6)c(7)k(8) (9)b(10)r(11)o(12)w(13)n(14) (15)f(16)o(17)x(18) (19)j(20)
	// s[:20] = "The quick brown fox " -> lastSpace = 19 -> "The quick brown fox" + "..."
	expected := "The quick brown fox..."
	if result != expected {
		t.Errorf("expected %q, got %q", expected, result)
	}
}

func TestTruncateAtWord_Multibyte(t *testing.T) {
	input := "Çelik gövdeli küresel vana"
	result := TruncateAtWord(input, 8)
	if !strings.HasSuffix(result, "...") {
		t.Fatalf("expected ellipsis, got %q", result)
	}
	if !utf8Valid(result) {
		t.Errorf("truncation split a UTF-8 sequence: %q", result)
	}
}

func utf8Valid(s string) bool {
	return strings.ToValidUTF8(s, "\uFFFD") == s
}

func TestEntryFor(t *testing.T) {
	page := &content.Page{
		ID:   "valve",
		Name: "Ball Valve",
		Content: content.Normalize(map[string]any{
			"template_id":   "tech-data-sheet",
			"title":         "  Ball\n Valve ",
			"subtitle":      "DN50",
			"description":   "Forged brass body.",
			"bullet_points": []any{"PN16", "Lever handle"},
			"custom_text_boxes": []any{
				map[string]any{"text": "New!"},
			},
		}),
	}

	e := EntryFor(page, "valve.html", "industrial-product-alert")
	if e.ID != "valve" || e.Label != "Ball Valve" || e.URL != "valve.html" {
		t.Errorf("unexpected identity: %+v", e)
	}
	if e.Template != "tech-data-sheet" {
		t.Errorf("Template = %q; want tech-data-sheet", e.Template)
	}
	if e.Title != "Ball Valve" {
		t.Errorf("Title = %q; want whitespace collapsed", e.Title)
	}
	for _, want := range []string{"Forged brass body.", "PN16 Lever handle", "New!"} {
		if !strings.Contains(e.Content, want) {
			t.Errorf("Content %q missing %q", e.Content, want)
		}
	}
}

func TestEntryForDefaultTemplate(t *testing.T) {
	page := &content.Page{ID: "blank", Content: content.Normalize(nil)}
	e := EntryFor(page, "blank.html", "dark-tech")
	if e.Template != "dark-tech" {
		t.Errorf("Template = %q; want dark-tech", e.Template)
	}
	if e.Label != "blank" {
		t.Errorf("Label = %q; want blank", e.Label)
	}
}
