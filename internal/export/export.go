package export

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"github.com/aellingwood/cardforge/internal/build"
	"github.com/aellingwood/cardforge/internal/content"
)

// ErrNoPages is returned when a batch export selects no pages.
var ErrNoPages = errors.New("no pages to export")

// Options selects what a batch export produces.
type Options struct {
	// Presets are preset ids. Empty selects a4-pdf.
	Presets []string
	// PageIDs restricts the export to these pages. Empty exports all.
	PageIDs []string
	// HTMLOnly writes the rendered HTML of each page and skips the
	// rasterizer.
	HTMLOnly bool
}

// Item is the outcome of exporting one page in one preset.
type Item struct {
	PageID string
	Label  string
	Preset string
	Name   string
	Size   int
	Err    error

	data []byte
}

// Result summarizes a batch export.
type Result struct {
	Items  []Item
	Failed int
}

// Exporter renders pages with a Builder and rasterizes them.
type Exporter struct {
	builder     *build.Builder
	raster      Rasterizer
	presets     []Preset
	concurrency int
	optimize    bool
	log         zerolog.Logger
	now         func() time.Time
}

// New creates an Exporter. A nil raster uses the HTTP rasterizer from the
// export configuration.
func New(b *build.Builder, raster Rasterizer, log zerolog.Logger) *Exporter {
	cfg := b.Config().Export
	if raster == nil {
		raster = NewHTTPRasterizer(cfg)
	}
	return &Exporter{
		builder:     b,
		raster:      raster,
		presets:     Presets(cfg.Presets),
		concurrency: max(cfg.Concurrency, 1),
		optimize:    cfg.Optimize,
		log:         log,
		now:         time.Now,
	}
}

// Presets returns the presets available to this exporter.
func (e *Exporter) Presets() []Preset { return e.presets }

// ExportPage renders page and rasterizes it with the given preset.
func (e *Exporter) ExportPage(ctx context.Context, page *content.Page, presetID string) ([]byte, error) {
	preset, err := FindPreset(e.presets, presetID)
	if err != nil {
		return nil, err
	}
	html := e.renderHTML(ctx, page)
	return e.raster.Rasterize(ctx, Request{
		HTML:     string(html),
		Format:   preset.Format,
		Width:    preset.Width,
		Height:   preset.Height,
		Unit:     preset.Unit,
		Optimize: e.optimize,
	})
}

// renderHTML renders page with its images inlined whatever the build
// settings say, so the rasterizer never has to resolve project paths.
func (e *Exporter) renderHTML(ctx context.Context, page *content.Page) []byte {
	inlined, err := e.builder.EmbedImages(ctx, page)
	if err != nil {
		e.log.Warn().Err(err).Str("page", page.ID).Msg("some images could not be inlined")
	}
	html, _ := e.builder.RenderPage(ctx, inlined)
	return html
}

// ExportCatalog exports every selected page in every selected preset and
// writes the files into a ZIP archive on w. Pages that fail are reported
// in the result and left out of the archive; the error is non-nil only
// when nothing could be attempted or the archive could not be written.
func (e *Exporter) ExportCatalog(ctx context.Context, w io.Writer, opts Options) (*Result, error) {
	pages, err := e.builder.PublishedPages()
	if err != nil {
		return nil, err
	}
	pages = selectPages(pages, opts.PageIDs)
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	presetIDs := opts.Presets
	if len(presetIDs) == 0 {
		presetIDs = []string{"a4-pdf"}
	}
	if opts.HTMLOnly {
		presetIDs = []string{FormatHTML}
	} else {
		for _, id := range presetIDs {
			if _, err := FindPreset(e.presets, id); err != nil {
				return nil, err
			}
		}
	}

	catalog := e.builder.Config().Title
	date := e.now()
	items := make([]Item, 0, len(pages)*len(presetIDs))
	seen := make(map[string]bool, cap(items))
	for _, p := range pages {
		for _, id := range presetIDs {
			ext := FormatHTML
			if !opts.HTMLOnly {
				preset, _ := FindPreset(e.presets, id)
				ext = preset.Ext()
			}
			name := FileName(catalog, date, p.Label(), id, ext)
			if seen[name] {
				// Two pages share a label.
				name = FileName(catalog, date, p.Label()+" "+p.ID, id, ext)
			}
			seen[name] = true
			items = append(items, Item{
				PageID: p.ID,
				Label:  p.Label(),
				Preset: id,
				Name:   name,
			})
		}
	}
	byID := make(map[string]*content.Page, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}

	// Every task records its own error; the pool only reports cancellation.
	workers := pool.New().WithContext(ctx).WithMaxGoroutines(e.concurrency)
	for i := range items {
		workers.Go(func(ctx context.Context) error {
			it := &items[i]
			page := byID[it.PageID]
			if opts.HTMLOnly {
				it.data = e.renderHTML(ctx, page)
			} else {
				it.data, it.Err = e.ExportPage(ctx, page, it.Preset)
			}
			it.Size = len(it.data)
			if it.Err != nil {
				e.log.Warn().Err(it.Err).Str("page", it.PageID).Str("preset", it.Preset).Msg("export failed")
			}
			return ctx.Err()
		})
	}
	if err := workers.Wait(); err != nil {
		return nil, fmt.Errorf("exporting catalog: %w", err)
	}

	result := &Result{Items: items}
	zw := zip.NewWriter(w)
	for i := range items {
		it := &items[i]
		if it.Err != nil {
			result.Failed++
			continue
		}
		f, err := zw.CreateHeader(&zip.FileHeader{Name: it.Name, Method: zip.Deflate, Modified: date})
		if err != nil {
			return nil, fmt.Errorf("adding %s to archive: %w", it.Name, err)
		}
		if _, err := f.Write(it.data); err != nil {
			return nil, fmt.Errorf("writing %s to archive: %w", it.Name, err)
		}
		it.data = nil
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}

	e.log.Info().Int("files", len(items)-result.Failed).Int("failed", result.Failed).Msg("export complete")
	return result, nil
}

// FileName builds an export file name of the form
// {catalog}_{date}_{page-label}_{preset}.{ext}. Names are slugged so they
// are safe on every file system.
func FileName(catalog string, date time.Time, pageLabel, presetID, ext string) string {
	safe := func(s, fallback string) string {
		if slug := content.Slugify(s); slug != "" {
			return slug
		}
		return fallback
	}
	parts := []string{
		safe(catalog, "catalog"),
		date.Format("2006-01-02"),
		safe(pageLabel, "page"),
		safe(presetID, "export"),
	}
	return strings.Join(parts, "_") + "." + ext
}

func selectPages(pages []*content.Page, ids []string) []*content.Page {
	if len(ids) == 0 {
		return pages
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*content.Page
	for _, p := range pages {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out
}
