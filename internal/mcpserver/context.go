package mcpserver

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aellingwood/cardforge/internal/build"
	"github.com/aellingwood/cardforge/internal/cache"
	"github.com/aellingwood/cardforge/internal/config"
	"github.com/aellingwood/cardforge/internal/content"
)

// CatalogContext holds a cached, in-memory view of one catalog project:
// its configuration, a builder and the discovered pages.
type CatalogContext struct {
	mu       sync.RWMutex
	dir      string
	log      zerolog.Logger
	cfg      *config.CatalogConfig
	builder  *build.Builder
	pages    []*content.Page
	loadedAt time.Time
	dirty    bool
}

// NewCatalogContext creates a CatalogContext for the project in dir.
func NewCatalogContext(dir string, log zerolog.Logger) *CatalogContext {
	return &CatalogContext{
		dir:   dir,
		log:   log,
		dirty: true,
	}
}

// Load returns the loaded (and cached) catalog context, reloading if dirty.
func (cc *CatalogContext) Load() (*CatalogContext, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if !cc.dirty && !cc.loadedAt.IsZero() {
		return cc, nil
	}

	path, err := config.Find(cc.dir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// A config change may switch the template dir, so the builder and its
	// render cache are rebuilt with it.
	b := build.NewBuilder(cfg, build.Options{
		ProjectRoot: cc.dir,
		Cache:       cache.NewMemory(cfg.Cache.TTL),
		Logger:      cc.log,
	})
	pages, err := b.LoadPages()
	if err != nil {
		return nil, err
	}

	cc.cfg = cfg
	cc.builder = b
	cc.pages = pages
	cc.loadedAt = time.Now()
	cc.dirty = false
	return cc, nil
}

// MarkDirty marks the context as needing a reload.
func (cc *CatalogContext) MarkDirty() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.dirty = true
}

// Snapshot returns the current configuration, builder and pages.
func (cc *CatalogContext) Snapshot() (*config.CatalogConfig, *build.Builder, []*content.Page) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return cc.cfg, cc.builder, cc.pages
}

// Page returns the page with the given id.
func (cc *CatalogContext) Page(id string) (*content.Page, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	i := slices.IndexFunc(cc.pages, func(p *content.Page) bool { return p.ID == id })
	if i < 0 {
		return nil, false
	}
	return cc.pages[i], true
}

// PageIDs returns all page ids, sorted.
func (cc *CatalogContext) PageIDs() []string {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	ids := make([]string, len(cc.pages))
	for i, p := range cc.pages {
		ids[i] = p.ID
	}
	slices.Sort(ids)
	return ids
}

func toPageBrief(p *content.Page, b *build.Builder) PageBrief {
	cfg := b.Config()
	brief := PageBrief{
		ID:         p.ID,
		Name:       p.Name,
		Label:      p.Label(),
		Order:      p.Order,
		Draft:      p.Draft,
		Template:   p.TemplateID(cfg.DefaultTemplate),
		Theme:      b.ThemeID(p),
		SourcePath: p.SourcePath,
	}
	if p.Content != nil {
		brief.Title = p.Content.Title
		brief.HasImage = strings.TrimSpace(p.Content.ImageData) != ""
	}
	return brief
}

func toPageDetail(p *content.Page, b *build.Builder) PageDetail {
	detail := PageDetail{PageBrief: toPageBrief(p, b), Body: p.Body}
	if p.Content != nil {
		detail.Content = p.Content.Map()
	}
	return detail
}
