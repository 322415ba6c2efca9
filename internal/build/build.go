// Package build orchestrates catalog generation. It discovers page files,
// renders each page with its template and theme in parallel, and writes the
// pages together with an index listing and a search index.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aellingwood/cardforge/internal/cache"
	"github.com/aellingwood/cardforge/internal/config"
	"github.com/aellingwood/cardforge/internal/content"
	"github.com/aellingwood/cardforge/internal/image"
	"github.com/aellingwood/cardforge/internal/render"
	"github.com/aellingwood/cardforge/internal/search"
	tmpl "github.com/aellingwood/cardforge/internal/template"
	"github.com/aellingwood/cardforge/internal/theme"
)

// maxSearchContent caps the text stored per page in search-index.json.
const maxSearchContent = 5000

// Options controls the behaviour of the build pipeline.
type Options struct {
	IncludeDrafts bool
	OutputDir     string
	ProjectRoot   string
	// Cache stores rendered pages. Nil disables caching.
	Cache  cache.Cache
	Logger zerolog.Logger
}

// Result contains statistics about the completed build.
type Result struct {
	PagesRendered int
	CacheHits     int
	FilesWritten  int
	FilesCopied   int
	ImageErrors   int
	StaticSkipped int
	Duration      time.Duration
	OutputSize    int64
	Pages         []PageResult
}

// PageResult describes one rendered page.
type PageResult struct {
	ID       string
	Label    string
	Template string
	Theme    string
	File     string
	Cached   bool
}

// Builder renders the pages of one catalog project. The preview server,
// the exporter and the MCP server share it so every surface renders the
// same bytes. A Builder is safe for concurrent use.
type Builder struct {
	config  *config.CatalogConfig
	options Options
	root    string
	themes  *theme.Set
	cache   cache.Cache

	inliner func() *image.Inliner

	mu       sync.Mutex
	renderer func() (*render.Renderer, error)
}

// NewBuilder creates a new Builder with the given catalog configuration and
// options. Relative directories in the configuration resolve against
// opts.ProjectRoot, or the working directory when it is empty.
func NewBuilder(cfg *config.CatalogConfig, opts Options) *Builder {
	root := opts.ProjectRoot
	if root == "" {
		root, _ = os.Getwd()
	}
	c := opts.Cache
	if c == nil {
		c = cache.None{}
	}
	b := &Builder{
		config:  cfg,
		options: opts,
		root:    root,
		themes:  cfg.ThemeSet(),
		cache:   c,
	}
	b.renderer = sync.OnceValues(b.newRenderer)
	b.inliner = sync.OnceValue(b.newInliner)
	return b
}

// Config returns the catalog configuration the builder was created with.
func (b *Builder) Config() *config.CatalogConfig { return b.config }

// Themes returns the built-in themes with the configured themes applied.
func (b *Builder) Themes() *theme.Set { return b.themes }

// Path resolves p against the project root.
func (b *Builder) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.root, p)
}

// ReloadTemplates discards the parsed override templates. The next render
// parses them again.
func (b *Builder) ReloadTemplates() {
	if b.config.TemplateDir == "" {
		return
	}
	b.mu.Lock()
	b.renderer = sync.OnceValues(b.newRenderer)
	b.mu.Unlock()
}

// currentRenderer returns the renderer for the override templates, or the
// built-in renderer when they fail to parse.
func (b *Builder) currentRenderer(log zerolog.Logger) (*render.Renderer, error) {
	b.mu.Lock()
	load := b.renderer
	b.mu.Unlock()

	r, err := load()
	if err == nil {
		return r, nil
	}
	log.Error().Err(err).Msg("template override failed, using built-in templates")
	return render.Default()
}

func (b *Builder) newRenderer() (*render.Renderer, error) {
	if b.config.TemplateDir == "" {
		return render.Default()
	}
	engine, err := tmpl.NewEngine(b.Path(b.config.TemplateDir))
	if err != nil {
		return nil, fmt.Errorf("creating template engine: %w", err)
	}
	return render.NewRenderer(engine), nil
}

// LoadPages discovers every page under the content directory. Drafts are
// kept; callers filter them.
func (b *Builder) LoadPages() ([]*content.Page, error) {
	pages, err := content.Discover(b.Path(b.config.ContentDir), content.DiscoverOptions{
		Include: b.config.Include,
		Exclude: b.config.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering content: %w", err)
	}
	return pages, nil
}

// PublishedPages returns the discovered pages, without drafts unless the
// options or configuration ask for them.
func (b *Builder) PublishedPages() ([]*content.Page, error) {
	pages, err := b.LoadPages()
	if err != nil {
		return nil, err
	}
	if !b.options.IncludeDrafts && !b.config.Build.Drafts {
		pages = content.FilterDrafts(pages)
	}
	return pages, nil
}

// ThemeID returns the id of the theme page renders with.
func (b *Builder) ThemeID(page *content.Page) string {
	if page != nil && page.ThemeID != "" {
		return page.ThemeID
	}
	return b.config.DefaultTheme
}

// Theme resolves a theme id against the configured set. Unknown ids yield
// the default theme.
func (b *Builder) Theme(id string) theme.Theme {
	t, _ := b.themes.Get(id)
	return t
}

// RenderDocument renders doc through the render cache. An empty
// templateID uses the document's own template, then the configured default.
// The boolean reports a cache hit.
func (b *Builder) RenderDocument(ctx context.Context, templateID, themeID string, doc *content.Document, fx *theme.Effects) ([]byte, bool) {
	if templateID == "" && doc != nil {
		templateID = doc.TemplateID
	}
	if templateID == "" {
		templateID = b.config.DefaultTemplate
	}
	t := b.Theme(themeID)
	log := b.options.Logger.With().Str("template", templateID).Str("theme", t.ID).Logger()
	r, rerr := b.currentRenderer(log)

	// The template fingerprint keeps output cached from other template
	// sources, possibly by another run sharing the cache, from being served.
	var key string
	if rerr != nil {
		log.Error().Err(rerr).Msg("built-in templates unavailable")
	} else if k, err := cache.Key(templateID+"@"+r.Fingerprint(), t, doc, fx); err != nil {
		log.Warn().Err(err).Msg("render cache key failed")
	} else {
		key = k
		data, ok, err := b.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("render cache read failed")
		}
		if ok {
			return data, true
		}
	}

	var out []byte
	if rerr != nil {
		out = render.Render(templateID, doc, t, fx)
	} else {
		out = r.Render(templateID, doc, t, fx)
	}

	if key != "" {
		if err := b.cache.Set(ctx, key, out); err != nil {
			log.Warn().Err(err).Msg("render cache write failed")
		}
	}
	return out, false
}

// RenderPage renders a catalog page with its own template and theme.
func (b *Builder) RenderPage(ctx context.Context, page *content.Page) ([]byte, bool) {
	if page == nil {
		return b.RenderDocument(ctx, b.config.DefaultTemplate, b.config.DefaultTheme, nil, nil)
	}
	return b.RenderDocument(ctx, page.TemplateID(b.config.DefaultTemplate), b.ThemeID(page), page.Content, nil)
}

// Inliner returns the builder's image inliner, configured from the build
// settings and caching encoded images under the project's .cardforge
// directory.
func (b *Builder) Inliner() *image.Inliner { return b.inliner() }

// InlineImages returns a copy of page whose image references are inlined
// as data URIs, resolving relative paths against the page file's
// directory. Without build.inline_images the page is returned as is.
// Images that fail to resolve keep their reference; the joined error
// reports them.
func (b *Builder) InlineImages(ctx context.Context, page *content.Page) (*content.Page, error) {
	if !b.config.Build.InlineImages {
		return page, nil
	}
	return b.EmbedImages(ctx, page)
}

// EmbedImages inlines the images of page regardless of build.inline_images.
// Output that leaves the project, such as exports, needs it: nothing
// outside can resolve a path relative to a page file.
func (b *Builder) EmbedImages(ctx context.Context, page *content.Page) (*content.Page, error) {
	if page == nil || page.Content == nil {
		return page, nil
	}
	dir := filepath.Join(b.Path(b.config.ContentDir), filepath.Dir(page.SourcePath))
	doc, err := b.Inliner().InlineDocument(ctx, page.Content, dir)
	cp := *page
	cp.Content = doc
	return &cp, err
}

func (b *Builder) newInliner() *image.Inliner {
	return image.NewInliner(image.Options{
		MaxWidth: b.config.Build.MaxImageWidth,
		Format:   b.config.Build.ImageFormat,
		Quality:  b.config.Build.ImageQuality,
		Timeout:  b.config.Export.Timeout,
		Retries:  b.config.Export.Retries,
	}, b.Path(filepath.Join(".cardforge", "imagecache")), b.options.Logger)
}

// Build executes the full build pipeline and returns a Result summarizing
// what was generated. The pipeline steps are:
//  1. Clean or create the output directory
//  2. Discover page files and drop drafts
//  3. Inline images (optional)
//  4. Render pages to HTML in parallel, through the render cache
//  5. Write one HTML file per page
//  6. Write the index listing and the search index
//  7. Copy the project's static directory
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{}
	log := b.options.Logger

	outputDir := b.options.OutputDir
	if outputDir == "" {
		outputDir = b.config.OutputDir
	}
	outputDir = b.Path(outputDir)

	// Step 1: Clean output directory.
	if err := CleanDir(outputDir); err != nil {
		return nil, fmt.Errorf("cleaning output directory: %w", err)
	}
	out := newOutputTree(outputDir)

	// Step 2: Discover content.
	pages, err := b.PublishedPages()
	if err != nil {
		return nil, err
	}
	log.Info().Int("pages", len(pages)).Str("content_dir", b.config.ContentDir).Msg("discovered pages")

	// Step 3 & 4: Inline images and render.
	rendered := make([][]byte, len(pages))
	result.Pages = make([]PageResult, len(pages))
	var mu sync.Mutex

	err = renderParallel(ctx, pages, b.config.Build.Workers, func(i int, p *content.Page) error {
		page, err := b.InlineImages(ctx, p)
		if err != nil {
			log.Warn().Err(err).Str("page", p.ID).Msg("some images could not be inlined")
			mu.Lock()
			result.ImageErrors++
			mu.Unlock()
		}

		data, cached := b.RenderPage(ctx, page)
		rendered[i] = data
		result.Pages[i] = PageResult{
			ID:       p.ID,
			Label:    p.Label(),
			Template: p.TemplateID(b.config.DefaultTemplate),
			Theme:    b.ThemeID(p),
			File:     PageFile(p.ID),
			Cached:   cached,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rendering pages: %w", err)
	}

	// Step 5: Write HTML files.
	for i, pr := range result.Pages {
		if err := out.write(pr.File, rendered[i]); err != nil {
			return nil, fmt.Errorf("writing %s: %w", pr.File, err)
		}
		result.FilesWritten++
		if pr.Cached {
			result.CacheHits++
		}
		log.Debug().Str("page", pr.ID).Str("template", pr.Template).Bool("cached", pr.Cached).Msg("page written")
	}
	result.PagesRendered = len(result.Pages)

	// Step 6: Index listing and search index.
	entries := make([]search.IndexEntry, len(pages))
	for i, p := range pages {
		entries[i] = search.EntryFor(p, PageFile(p.ID), b.config.DefaultTemplate)
	}
	index, err := RenderIndex(b.config, entries)
	if err != nil {
		return nil, fmt.Errorf("rendering index: %w", err)
	}
	if err := out.write("index.html", index); err != nil {
		return nil, fmt.Errorf("writing index.html: %w", err)
	}
	result.FilesWritten++

	if b.config.Build.SearchIndex {
		searchData, err := search.GenerateIndex(entries, maxSearchContent)
		if err != nil {
			return nil, fmt.Errorf("generating search index: %w", err)
		}
		if err := out.write("search-index.json", searchData); err != nil {
			return nil, fmt.Errorf("writing search-index.json: %w", err)
		}
		result.FilesWritten++
	}

	// Step 7: Copy static files.
	staticDir := b.Path("static")
	if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
		copied, shadowed, err := out.copyStatic(staticDir)
		if err != nil {
			return nil, fmt.Errorf("copying static files: %w", err)
		}
		for _, name := range shadowed {
			log.Warn().Str("file", name).Msg("static file has the same path as a generated file; skipped")
		}
		result.FilesCopied = copied
		result.StaticSkipped = len(shadowed)
	}

	result.OutputSize = out.size()
	result.Duration = time.Since(start)

	log.Info().
		Int("pages", result.PagesRendered).
		Int("cache_hits", result.CacheHits).
		Int64("bytes", result.OutputSize).
		Dur("duration", result.Duration).
		Msg("build complete")
	return result, nil
}

// PageFile is the output file name of the page with the given id.
func PageFile(id string) string {
	return id + ".html"
}
