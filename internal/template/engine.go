// Package template holds the card template registry, the built-in page
// templates and the engine that executes them.
package template

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

//go:embed templates
var builtin embed.FS

// templateExt is the file extension of template sources.
const templateExt = ".gohtml"

// cardsDir holds one template per registered id; every other directory is
// shared by all cards.
const cardsDir = "cards"

// Engine wraps Go's html/template with one parsed set per card template.
// Each set holds the shared layouts and partials plus the card's own
// "content" definitions. An Engine is safe for concurrent use.
type Engine struct {
	sets        map[string]*template.Template
	fingerprint string
}

// NewEngine parses the built-in templates and optionally overlays files
// from overrideDir on top. Override files with the same relative path (for
// example "cards/event-poster.gohtml" or "partials/chrome.gohtml") replace
// the built-in ones.
func NewEngine(overrideDir string) (*Engine, error) {
	sub, err := fs.Sub(builtin, "templates")
	if err != nil {
		return nil, fmt.Errorf("opening built-in templates: %w", err)
	}
	files, err := collectTemplateFiles(sub)
	if err != nil {
		return nil, fmt.Errorf("loading built-in templates: %w", err)
	}

	if overrideDir != "" {
		userFiles, err := collectTemplateFiles(os.DirFS(overrideDir))
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading override templates from %s: %w", overrideDir, err)
		}
		// User files override built-in files with the same name.
		maps.Copy(files, userFiles)
	}

	// Parse the shared layouts and partials once.
	base := template.New("").Funcs(FuncMap())
	for _, name := range slices.Sorted(maps.Keys(files)) {
		if strings.HasPrefix(name, cardsDir+"/") {
			continue
		}
		if _, err := base.New(name).Parse(files[name]); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
	}

	e := &Engine{sets: make(map[string]*template.Template), fingerprint: fingerprint(files)}
	for name, src := range files {
		id, ok := strings.CutPrefix(name, cardsDir+"/")
		if !ok {
			continue
		}
		id = strings.TrimSuffix(id, templateExt)
		if _, known := Lookup(id); !known {
			return nil, fmt.Errorf("template file %s does not match a registered template id", name)
		}
		set, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning shared templates for %s: %w", id, err)
		}
		if _, err := set.New(name).Parse(src); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		e.sets[id] = set
	}

	for _, id := range IDs() {
		if _, ok := e.sets[id]; !ok {
			return nil, fmt.Errorf("template %q has no %s/%s%s file", id, cardsDir, id, templateExt)
		}
	}
	return e, nil
}

// fingerprint hashes every template name and source in name order.
func fingerprint(files map[string]string) string {
	h := sha256.New()
	for _, name := range slices.Sorted(maps.Keys(files)) {
		fmt.Fprintf(h, "%s\x00%d\x00%s", name, len(files[name]), files[name])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// collectTemplateFiles walks fsys and returns a map of template name
// (slash-separated relative path) to source for all template files.
func collectTemplateFiles(fsys fs.FS) (map[string]string, error) {
	files := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != templateExt {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", p, err)
		}
		files[filepath.ToSlash(p)] = string(data)
		return nil
	})

	return files, err
}

// Execute renders the page of template id with ctx and returns the output
// bytes.
func (e *Engine) Execute(id string, ctx *PageContext) ([]byte, error) {
	t, ok := e.sets[id]
	if !ok {
		return nil, fmt.Errorf("template %q not found", id)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "page", ctx); err != nil {
		return nil, fmt.Errorf("executing template %q: %w", id, err)
	}
	return buf.Bytes(), nil
}

// Fingerprint identifies the template sources the engine was parsed from.
// Engines over the same built-in and override files share a fingerprint.
func (e *Engine) Fingerprint() string {
	return e.fingerprint
}

// HasTemplate reports whether a template with the given id is loaded.
func (e *Engine) HasTemplate(id string) bool {
	_, ok := e.sets[id]
	return ok
}
