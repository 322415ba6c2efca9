package mcpserver

import (
	"cmp"
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aellingwood/cardforge/internal/build"
	"github.com/aellingwood/cardforge/internal/config"
	"github.com/aellingwood/cardforge/internal/content"
	"github.com/aellingwood/cardforge/internal/scaffold"
	tmpl "github.com/aellingwood/cardforge/internal/template"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_templates",
		Description: "List the built-in page templates with their id, name, category and description. Optionally filter by category (product, event, technical, card).",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: ptr(false),
			Title:         "List Templates",
		},
	}, s.handleListTemplates)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_themes",
		Description: "List the available themes: the built-in presets plus any themes configured for this catalog, with their colors and fonts.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: ptr(false),
			Title:         "List Themes",
		},
	}, s.handleListThemes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_pages",
		Description: "List the catalog's pages in catalog order with their template, theme and draft status. Filter by template, draft status or a search string.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: ptr(false),
			Title:         "List Pages",
		},
	}, s.handleListPages)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_page",
		Description: "Get one catalog page by id, including its fully normalized content document and markdown body.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: ptr(false),
			Title:         "Get Page",
		},
	}, s.handleGetPage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "normalize_content",
		Description: "Normalize a raw content object into the canonical document every template renders from. Legacy field names are resolved and missing styles, overflow rules, boxes and layer groups are filled with defaults.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: ptr(false),
			Title:         "Normalize Content",
		},
	}, s.handleNormalizeContent)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "render_page",
		Description: "Render a catalog page, or an ad hoc content object, to a standalone HTML document. Template and theme can be overridden; unknown ids fall back to the defaults.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: ptr(false),
			Title:         "Render Page",
		},
	}, s.handleRenderPage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "validate_page",
		Description: "Check a raw content object for an unknown template, unknown theme, invalid colors, overflow modes or layout mode, and misspelled field names.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: ptr(false),
			Title:         "Validate Page",
		},
	}, s.handleValidatePage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_page",
		Description: "Create a new page file in the catalog's content directory, as YAML or as markdown with front matter. Existing files are never overwritten.",
		Annotations: &mcp.ToolAnnotations{
			DestructiveHint: ptr(false),
			OpenWorldHint:   ptr(false),
			Title:           "Create Page",
		},
	}, s.handleCreatePage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_catalog",
		Description: "Build the catalog. Renders every page to HTML and writes the pages, an index listing and a search index to the output directory.",
		Annotations: &mcp.ToolAnnotations{
			DestructiveHint: ptr(false),
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			Title:           "Build Catalog",
		},
	}, s.handleBuildCatalog)
}

// builder returns the catalog's builder, or one over the default
// configuration when the project cannot be loaded. Listing templates and
// themes and rendering ad hoc content still work without a project.
func (s *Server) builder() *build.Builder {
	cc, err := s.ctx.Load()
	if err == nil {
		_, b, _ := cc.Snapshot()
		return b
	}
	s.log.Debug().Err(err).Msg("using default configuration")
	cfg := config.Default()
	cfg.Title = filepath.Base(s.dir)
	return build.NewBuilder(cfg, build.Options{ProjectRoot: s.dir, Logger: s.log})
}

func (s *Server) handleListTemplates(ctx context.Context, req *mcp.CallToolRequest, input ListTemplatesInput) (*mcp.CallToolResult, ListTemplatesOutput, error) {
	infos := tmpl.List()
	if input.Category != "" {
		cat := tmpl.Category(strings.ToLower(input.Category))
		if !slices.Contains(tmpl.Categories, cat) {
			names := make([]string, len(tmpl.Categories))
			for i, c := range tmpl.Categories {
				names[i] = string(c)
			}
			return toolError(fmt.Sprintf("Unknown category %q. Available categories: %s", input.Category, strings.Join(names, ", "))), ListTemplatesOutput{}, nil
		}
		infos = tmpl.ByCategory(cat)
	}
	return nil, ListTemplatesOutput{
		Default:   s.builder().Config().DefaultTemplate,
		Templates: infos,
	}, nil
}

func (s *Server) handleListThemes(ctx context.Context, req *mcp.CallToolRequest, input ListThemesInput) (*mcp.CallToolResult, ListThemesOutput, error) {
	b := s.builder()
	return nil, ListThemesOutput{
		Default: b.Theme(b.Config().DefaultTheme).ID,
		Themes:  b.Themes().All(),
	}, nil
}

func (s *Server) handleListPages(ctx context.Context, req *mcp.CallToolRequest, input ListPagesInput) (*mcp.CallToolResult, ListPagesOutput, error) {
	cc, err := s.ctx.Load()
	if err != nil {
		return toolError(err.Error()), ListPagesOutput{}, nil
	}
	_, b, pages := cc.Snapshot()

	search := strings.ToLower(strings.TrimSpace(input.Search))
	briefs := []PageBrief{}
	for _, p := range pages {
		brief := toPageBrief(p, b)
		if input.Template != "" && brief.Template != input.Template {
			continue
		}
		if input.Draft != nil && brief.Draft != *input.Draft {
			continue
		}
		if search != "" && !matchesSearch(brief, search) {
			continue
		}
		briefs = append(briefs, brief)
	}
	return nil, ListPagesOutput{Total: len(briefs), Pages: briefs}, nil
}

func matchesSearch(b PageBrief, search string) bool {
	for _, field := range []string{b.ID, b.Label, b.Title} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (s *Server) handleGetPage(ctx context.Context, req *mcp.CallToolRequest, input GetPageInput) (*mcp.CallToolResult, PageDetail, error) {
	if input.ID == "" {
		return toolError("id is required"), PageDetail{}, nil
	}
	cc, err := s.ctx.Load()
	if err != nil {
		return toolError(err.Error()), PageDetail{}, nil
	}
	page, ok := cc.Page(input.ID)
	if !ok {
		return toolError(fmt.Sprintf("page not found: %s", input.ID)), PageDetail{}, nil
	}
	_, b, _ := cc.Snapshot()
	return nil, toPageDetail(page, b), nil
}

func (s *Server) handleNormalizeContent(ctx context.Context, req *mcp.CallToolRequest, input NormalizeContentInput) (*mcp.CallToolResult, NormalizeContentOutput, error) {
	return nil, NormalizeContentOutput{Document: content.Normalize(input.Content).Map()}, nil
}

func (s *Server) handleRenderPage(ctx context.Context, req *mcp.CallToolRequest, input RenderPageInput) (*mcp.CallToolResult, RenderPageOutput, error) {
	var (
		doc        *content.Document
		templateID string
		themeID    string
	)

	b := s.builder()
	cfg := b.Config()

	switch {
	case input.PageID != "":
		cc, err := s.ctx.Load()
		if err != nil {
			return toolError(err.Error()), RenderPageOutput{}, nil
		}
		page, ok := cc.Page(input.PageID)
		if !ok {
			return toolError(fmt.Sprintf("page not found: %s", input.PageID)), RenderPageOutput{}, nil
		}
		inlined, err := b.InlineImages(ctx, page)
		if err != nil {
			s.log.Warn().Err(err).Str("page", page.ID).Msg("some images could not be inlined")
		}
		doc = inlined.Content
		templateID = cmp.Or(input.Template, page.TemplateID(cfg.DefaultTemplate))
		themeID = cmp.Or(input.Theme, b.ThemeID(page))
	case input.Content != nil:
		doc = content.Normalize(input.Content)
		templateID = cmp.Or(input.Template, doc.TemplateID, cfg.DefaultTemplate)
		themeID = cmp.Or(input.Theme, cfg.DefaultTheme)
	default:
		return toolError("either pageId or content is required"), RenderPageOutput{}, nil
	}

	html, cached := b.RenderDocument(ctx, templateID, themeID, doc, nil)
	return nil, RenderPageOutput{
		Template: tmpl.Resolve(templateID).ID,
		Theme:    b.Theme(themeID).ID,
		Cached:   cached,
		Bytes:    len(html),
		HTML:     string(html),
	}, nil
}

func (s *Server) handleValidatePage(ctx context.Context, req *mcp.CallToolRequest, input ValidatePageInput) (*mcp.CallToolResult, ValidatePageOutput, error) {
	return nil, validatePage(input.Content, input.Theme, s.builder().Themes()), nil
}

func (s *Server) handleCreatePage(ctx context.Context, req *mcp.CallToolRequest, input CreatePageInput) (*mcp.CallToolResult, CreatePageOutput, error) {
	if strings.TrimSpace(input.Title) == "" {
		return toolError("title is required"), CreatePageOutput{}, nil
	}
	cc, err := s.ctx.Load()
	if err != nil {
		return toolError(err.Error()), CreatePageOutput{}, nil
	}
	cfg, b, _ := cc.Snapshot()

	draft := true
	if input.Draft != nil {
		draft = *input.Draft
	}
	path, err := scaffold.NewPage(b.Path(cfg.ContentDir), input.Title, scaffold.PageOptions{
		Template: cmp.Or(input.Template, cfg.DefaultTemplate),
		Theme:    input.Theme,
		Format:   input.Format,
		Draft:    draft,
		Order:    input.Order,
	})
	if err != nil {
		return toolError(err.Error()), CreatePageOutput{}, nil
	}
	s.ctx.MarkDirty()

	rel, err := filepath.Rel(s.dir, path)
	if err != nil {
		rel = path
	}
	return nil, CreatePageOutput{
		Created:  true,
		FilePath: filepath.ToSlash(rel),
		ID:       content.Slugify(input.Title),
	}, nil
}

func (s *Server) handleBuildCatalog(ctx context.Context, req *mcp.CallToolRequest, input BuildCatalogInput) (*mcp.CallToolResult, BuildCatalogOutput, error) {
	cc, err := s.ctx.Load()
	if err != nil {
		return toolError(err.Error()), BuildCatalogOutput{}, nil
	}
	cfg, _, _ := cc.Snapshot()

	b := build.NewBuilder(cfg, build.Options{
		IncludeDrafts: input.Drafts,
		OutputDir:     input.OutputDir,
		ProjectRoot:   s.dir,
		Logger:        s.log,
	})
	outputDir := b.Path(cmp.Or(input.OutputDir, cfg.OutputDir))

	start := time.Now()
	result, err := b.Build(ctx)
	detail := &BuildResultDetail{
		Timestamp: start,
		OutputDir: outputDir,
	}
	if err != nil {
		detail.DurationMs = time.Since(start).Milliseconds()
		detail.Error = err.Error()
		s.setLastBuild(detail)
		return toolError(fmt.Sprintf("build failed: %v", err)), BuildCatalogOutput{
			DurationMs: detail.DurationMs,
			OutputDir:  outputDir,
			Error:      err.Error(),
		}, nil
	}

	detail.Success = true
	detail.DurationMs = result.Duration.Milliseconds()
	detail.PagesRendered = result.PagesRendered
	detail.CacheHits = result.CacheHits
	detail.ImageErrors = result.ImageErrors
	detail.OutputSizeBytes = result.OutputSize
	s.setLastBuild(detail)

	return nil, BuildCatalogOutput{
		Success:         true,
		DurationMs:      detail.DurationMs,
		PagesRendered:   result.PagesRendered,
		CacheHits:       result.CacheHits,
		FilesCopied:     result.FilesCopied,
		ImageErrors:     result.ImageErrors,
		OutputDir:       outputDir,
		OutputSizeBytes: result.OutputSize,
	}, nil
}
