package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// PageExtensions lists the file extensions recognized as page files.
var PageExtensions = []string{".yaml", ".yml", ".json", ".toml", ".md"}

// pageMetaKeys are the top-level keys of a flat page file that describe the
// page itself rather than its content.
var pageMetaKeys = []string{"id", "name", "order", "draft", "theme_id"}

// DecodeData parses a YAML, JSON or TOML object. ext selects the format and
// includes the leading dot.
func DecodeData(ext string, data []byte) (map[string]any, error) {
	parsed := make(map[string]any)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parsing TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported data format %q", ext)
	}
	return parsed, nil
}

// LoadPageFile reads a single page file. Data files are the page object
// itself; markdown files carry it in front matter and may add a body.
// The page object is either {id, name, order, content: {...}} or a flat
// content document with optional id/name/order keys.
func LoadPageFile(path string) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page file %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var meta map[string]any
	var body []byte
	if ext == ".md" {
		meta, body, err = ParseFrontmatter(data)
	} else {
		meta, err = DecodeData(ext, data)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return pageFromMetadata(meta, body), nil
}

// pageFromMetadata builds a page from a decoded page object. A markdown
// body fills body (paragraphs) and bullet_points (list items) when the
// document leaves them empty.
func pageFromMetadata(meta map[string]any, body []byte) *Page {
	if meta == nil {
		meta = make(map[string]any)
	}

	raw, nested := asMap(meta["content"])
	if !nested {
		raw = leftover(meta, pageMetaKeys...)
	} else {
		raw = cloneMap(raw)
	}
	if raw == nil {
		raw = make(map[string]any)
	}

	p := &Page{
		ID:      strings.TrimSpace(text(meta["id"])),
		Name:    text(meta["name"]),
		Order:   int(num(0, nil, meta["order"])),
		Draft:   boolean(meta["draft"], false),
		ThemeID: text(meta["theme_id"]),
		Body:    string(body),
	}

	if strings.TrimSpace(p.Body) != "" {
		paragraphs, items := ExtractText([]byte(p.Body))
		if isEmpty(raw["body"]) && isEmpty(raw["description"]) && isEmpty(raw["message"]) && len(paragraphs) > 0 {
			raw["body"] = strings.Join(paragraphs, "\n\n")
		}
		if isEmpty(raw["bullet_points"]) && isEmpty(raw["features"]) && len(items) > 0 {
			list := make([]any, len(items))
			for i, it := range items {
				list[i] = it
			}
			raw["bullet_points"] = list
		}
	}

	p.Content = Normalize(raw)
	return p
}
