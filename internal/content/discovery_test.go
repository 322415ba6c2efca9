package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates a file (and its parent directories) under dir.
func writeFile(t *testing.T, dir, rel, body string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

// ---------------------------------------------------------------------------
// Tests: ParseFrontmatter
// ---------------------------------------------------------------------------

func TestParseFrontmatterYAML(t *testing.T) {
	raw := []byte("---\ntitle: Valve\nbullet_points:\n  - IP65\n---\nBody text\n")

	metadata, body, err := ParseFrontmatter(raw)
	require.NoError(t, err)
	assert.Equal(t, "Valve", metadata["title"])
	assert.Equal(t, []any{"IP65"}, metadata["bullet_points"])
	assert.Equal(t, "Body text\n", string(body))
}

func TestParseFrontmatterTOML(t *testing.T) {
	raw := []byte("+++\ntitle = \"Valve\"\norder = 3\n+++\n")

	metadata, _, err := ParseFrontmatter(raw)
	require.NoError(t, err)
	assert.Equal(t, "Valve", metadata["title"])
	assert.EqualValues(t, 3, metadata["order"])
}

func TestParseFrontmatterNone(t *testing.T) {
	raw := []byte("just text")
	metadata, body, err := ParseFrontmatter(raw)
	require.NoError(t, err)
	assert.Nil(t, metadata)
	assert.Equal(t, raw, body)
}

func TestParseFrontmatterUnclosed(t *testing.T) {
	_, _, err := ParseFrontmatter([]byte("---\ntitle: x\nno closing"))
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Tests: LoadPageFile
// ---------------------------------------------------------------------------

func TestLoadPageFileFlatYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "valve.yaml", "id: valve\nname: Valve page\norder: 2\ntitle: ACME Valve\nmessage: hi\n")

	p, err := LoadPageFile(filepath.Join(dir, "valve.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "valve", p.ID)
	assert.Equal(t, "Valve page", p.Name)
	assert.Equal(t, 2, p.Order)
	assert.Equal(t, "ACME Valve", p.Content.Title)
	assert.Equal(t, "hi", p.Content.Body)
	assert.NotContains(t, p.Content.Extra, "id", "page keys are not content")
}

func TestLoadPageFileNestedJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "card.json", `{"id":"card","draft":true,"content":{"template_id":"greeting-card","message":"Happy New Year","name":"kept"}}`)

	p, err := LoadPageFile(filepath.Join(dir, "card.json"))
	require.NoError(t, err)
	assert.True(t, p.Draft)
	assert.Equal(t, "greeting-card", p.TemplateID("x"))
	assert.Equal(t, "Happy New Year", p.Content.Description)
	assert.Equal(t, "kept", p.Content.Extra["name"])
}

func TestLoadPageFileTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sheet.toml", "title = \"Sheet\"\nbullet_points = [\"Pressure: 16 bar\"]\n\n[[shape_layers]]\ntype = \"line\"\n")

	p, err := LoadPageFile(filepath.Join(dir, "sheet.toml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Pressure: 16 bar"}, p.Content.BulletPoints)
	require.Len(t, p.Content.Shapes, 1)
	assert.Equal(t, ShapeLine, p.Content.Shapes[0].Type)
}

func TestLoadPageFileMarkdownBody(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alert.md", "---\ntitle: Alert\n---\nFirst *paragraph*\ncontinues.\n\n- IP65\n- 316 **Stainless**\n")

	p, err := LoadPageFile(filepath.Join(dir, "alert.md"))
	require.NoError(t, err)
	assert.Equal(t, "First paragraph continues.", p.Content.Body)
	assert.Equal(t, "First paragraph continues.", p.Content.Description)
	assert.Equal(t, []string{"IP65", "316 Stainless"}, p.Content.BulletPoints)
}

func TestLoadPageFileMarkdownDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p.md", "---\nbody: kept\nfeatures: [a]\n---\nignored\n\n- b\n")

	p, err := LoadPageFile(filepath.Join(dir, "p.md"))
	require.NoError(t, err)
	assert.Equal(t, "kept", p.Content.Body)
	assert.Equal(t, []string{"a"}, p.Content.BulletPoints)
}

func TestLoadPageFileParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", "{")
	_, err := LoadPageFile(filepath.Join(dir, "bad.json"))
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Tests: Discover
// ---------------------------------------------------------------------------

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products/valve.yaml", "title: Valve\norder: 2\n")
	writeFile(t, dir, "products/pump.json", `{"title":"Pump","order":1}`)
	writeFile(t, dir, "cards/new-year.md", "---\nid: ny\ntemplate_id: greeting-card\n---\n")
	writeFile(t, dir, "_drafts/skip.yaml", "title: skip\n")
	writeFile(t, dir, ".hidden.yaml", "title: hidden\n")
	writeFile(t, dir, "notes.txt", "ignored")

	pages, err := Discover(dir, DiscoverOptions{})
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, "ny", pages[0].ID)
	assert.Equal(t, "products-pump", pages[1].ID)
	assert.Equal(t, "products/pump.json", pages[1].SourcePath)
	assert.Equal(t, "products-valve", pages[2].ID)
}

func TestDiscoverIncludeExclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "products/valve.yaml", "title: Valve\n")
	writeFile(t, dir, "products/legacy/old.yaml", "title: Old\n")
	writeFile(t, dir, "cards/card.yaml", "title: Card\n")

	pages, err := Discover(dir, DiscoverOptions{
		Include: []string{"products/**"},
		Exclude: []string{"**/legacy/**"},
	})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "products-valve", pages[0].ID)
}

func TestDiscoverInvalidPattern(t *testing.T) {
	_, err := Discover(t.TempDir(), DiscoverOptions{Include: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestDiscoverDuplicateID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "id: same\n")
	writeFile(t, dir, "b.yaml", "id: same\n")

	_, err := Discover(dir, DiscoverOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate page id "same"`)
}
