// Package scaffold creates new catalog projects and page files.
package scaffold

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"gopkg.in/yaml.v3"

	"github.com/aellingwood/cardforge/internal/config"
	"github.com/aellingwood/cardforge/internal/content"
	tmpl "github.com/aellingwood/cardforge/internal/template"
	"github.com/aellingwood/cardforge/internal/theme"
)

// nowFunc is the function used to get the current time.
// It is a package-level variable so tests can override it.
var nowFunc = time.Now

// ConfigFile is the name of the catalog configuration file.
const ConfigFile = "cardforge.yaml"

// Page file formats.
const (
	FormatYAML     = "yaml"
	FormatMarkdown = "md"
)

// CatalogOptions controls NewCatalog.
type CatalogOptions struct {
	Title    string
	Template string
	Theme    string
	// Seed adds one sample page per built-in template and a sample product
	// image.
	Seed bool
}

// PageOptions controls NewPage.
type PageOptions struct {
	Template string
	Theme    string
	Format   string // yaml (default) or md
	Draft    bool
	Order    int
}

// pageFile is the on-disk layout of a YAML page.
type pageFile struct {
	ID      string         `yaml:"id"`
	Name    string         `yaml:"name"`
	Order   int            `yaml:"order"`
	Draft   bool           `yaml:"draft,omitempty"`
	ThemeID string         `yaml:"theme_id,omitempty"`
	Content map[string]any `yaml:"content"`
}

// NewCatalog creates a catalog project in dir with a configuration file,
// a pages directory holding a first page, and an empty static directory.
// It returns an error if dir already exists.
func NewCatalog(dir string, opts CatalogOptions) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}

	if opts.Title == "" {
		opts.Title = filepath.Base(dir)
	}
	if opts.Template == "" {
		opts.Template = tmpl.DefaultID
	}
	if opts.Theme == "" {
		opts.Theme = theme.DefaultID
	}
	if _, ok := tmpl.Lookup(opts.Template); !ok {
		return fmt.Errorf("unknown template %q", opts.Template)
	}

	defaults := config.Default()
	for _, d := range []string{defaults.ContentDir, "static"} {
		path := filepath.Join(dir, d)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating directory %q: %w", path, err)
		}
	}

	configContent := fmt.Sprintf(`title: %q
description: ""
default_template: %q
default_theme: %q
content_dir: %q
output_dir: %q

build:
  workers: %d
  inline_images: %t
  search_index: true

server:
  port: %d

export:
  rasterizer_url: %q

cache:
  driver: memory
`, opts.Title, opts.Template, opts.Theme, defaults.ContentDir, defaults.OutputDir,
		defaults.Build.Workers, opts.Seed, defaults.Server.Port, defaults.Export.RasterizerURL)

	configPath := filepath.Join(dir, ConfigFile)
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ConfigFile, err)
	}

	contentDir := filepath.Join(dir, defaults.ContentDir)
	if _, err := NewPage(contentDir, "Welcome", PageOptions{Template: opts.Template}); err != nil {
		return err
	}

	if opts.Seed {
		if err := seedCatalog(contentDir); err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
	}
	return nil
}

// NewPage writes a page file for title into contentDir and returns its
// path. The file name is the slug of the title; an existing file is never
// overwritten.
func NewPage(contentDir, title string, opts PageOptions) (string, error) {
	path, err := PagePath(contentDir, title, opts.Format)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("page %q already exists", path)
	}

	templateID := opts.Template
	if templateID == "" {
		templateID = tmpl.DefaultID
	}
	if _, ok := tmpl.Lookup(templateID); !ok {
		return "", fmt.Errorf("unknown template %q", templateID)
	}

	doc := map[string]any{
		"template_id":   templateID,
		"title":         title,
		"subtitle":      "",
		"body":          "",
		"bullet_points": []string{},
	}
	data, err := encodePage(content.Slugify(title), title, opts, doc)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(contentDir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %q: %w", contentDir, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %q: %w", path, err)
	}
	return path, nil
}

// PagePath returns the file NewPage would create.
func PagePath(contentDir, title, format string) (string, error) {
	slug := content.Slugify(title)
	if slug == "" {
		return "", fmt.Errorf("title %q has no usable characters", title)
	}
	switch normalizeFormat(format) {
	case FormatMarkdown:
		return filepath.Join(contentDir, slug+".md"), nil
	default:
		return filepath.Join(contentDir, slug+".yaml"), nil
	}
}

func normalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "md", "markdown":
		return FormatMarkdown
	default:
		return FormatYAML
	}
}

// encodePage renders a page file. YAML pages nest the document under
// content; markdown pages carry a flat document in front matter and leave
// the body for prose.
func encodePage(id, name string, opts PageOptions, doc map[string]any) ([]byte, error) {
	if normalizeFormat(opts.Format) == FormatMarkdown {
		meta := map[string]any{"id": id, "name": name, "order": opts.Order}
		if opts.Draft {
			meta["draft"] = true
		}
		if opts.Theme != "" {
			meta["theme_id"] = opts.Theme
		}
		for k, v := range doc {
			if k == "body" || k == "bullet_points" {
				continue
			}
			meta[k] = v
		}
		front, err := yaml.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("encoding front matter: %w", err)
		}
		var buf bytes.Buffer
		buf.WriteString("---\n")
		buf.Write(front)
		buf.WriteString("---\n\nWrite the page text here.\n\n- First feature\n- Second feature\n")
		return buf.Bytes(), nil
	}

	data, err := yaml.Marshal(pageFile{
		ID:      id,
		Name:    name,
		Order:   opts.Order,
		Draft:   opts.Draft,
		ThemeID: opts.Theme,
		Content: doc,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding page: %w", err)
	}
	return data, nil
}

// sampleImage is the seeded product photo, relative to the pages directory.
const sampleImage = "images/sample-product.png"

// seedCatalog writes one sample page per template and the sample image
// they share.
func seedCatalog(contentDir string) error {
	if err := writeSampleImage(filepath.Join(contentDir, filepath.FromSlash(sampleImage))); err != nil {
		return err
	}

	for i, info := range tmpl.List() {
		doc := sampleDocument(info)
		data, err := encodePage(info.ID, info.Name, PageOptions{Order: i + 1}, doc)
		if err != nil {
			return err
		}
		path := filepath.Join(contentDir, "samples", info.ID+".yaml")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// sampleDocument returns demo content suited to the template's category.
func sampleDocument(info tmpl.Info) map[string]any {
	doc := map[string]any{
		"template_id": info.ID,
		"image_data":  "../" + sampleImage,
	}
	switch info.Category {
	case tmpl.CategoryEvent:
		date := nowFunc().AddDate(0, 1, 0).Format("2 January 2006")
		doc["title"] = "Industry Open Day"
		doc["subtitle"] = date + " | Hall 4, Stand B12"
		doc["body"] = "Meet our engineers and see the new valve range in action."
		doc["cta"] = "Register now"
	case tmpl.CategoryTechnical:
		doc["title"] = "DN50 Ball Valve"
		doc["subtitle"] = "Series BV-200"
		doc["bullet_points"] = []string{"Body: Forged brass", "Seal: PTFE", "Pressure: PN16", "Temperature: -20 to 120 C"}
		doc["applications"] = []string{"Water supply", "HVAC", "Irrigation"}
	case tmpl.CategoryCard:
		doc["title"] = "Thank You"
		doc["body"] = "For another year of working together."
		if info.ID == "condolence-card" {
			doc["title"] = "In Memoriam"
			doc["body"] = "Our thoughts are with the family and friends."
		}
		doc["from_name"] = "The Demart Team"
		delete(doc, "image_data")
	default:
		doc["title"] = "New Pressure Reducer"
		doc["subtitle"] = "Stable outlet pressure for every line"
		doc["body"] = "Compact, serviceable and ready for drinking water."
		doc["key_benefits"] = []string{"Less maintenance", "Quiet operation", "Long service life"}
		doc["bullet_points"] = []string{"Adjustable 1.5 to 6 bar", "Integrated strainer", "Gauge port"}
		doc["label_alert"] = "NEW"
	}
	return doc
}

// writeSampleImage draws a simple product placeholder: a tinted backdrop
// with a lighter block standing in for the product.
func writeSampleImage(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating image directory: %w", err)
	}
	backdrop := imaging.New(800, 600, color.NRGBA{R: 0x00, G: 0x4a, B: 0xad, A: 0xff})
	product := imaging.New(360, 360, color.NRGBA{R: 0xf8, G: 0xfa, B: 0xfc, A: 0xff})
	img := imaging.OverlayCenter(backdrop, product, 0.9)
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("writing sample image: %w", err)
	}
	return nil
}
