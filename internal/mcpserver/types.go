// Package mcpserver implements an MCP (Model Context Protocol) server for
// cardforge, exposing a catalog's templates, themes, pages and renderer as
// structured, queryable data to MCP clients.
package mcpserver

import (
	"time"

	tmpl "github.com/aellingwood/cardforge/internal/template"
	"github.com/aellingwood/cardforge/internal/theme"
)

// PageBrief is a lightweight page summary without content.
type PageBrief struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Label      string `json:"label"`
	Order      int    `json:"order"`
	Draft      bool   `json:"draft"`
	Template   string `json:"template"`
	Theme      string `json:"theme"`
	Title      string `json:"title,omitempty"`
	SourcePath string `json:"sourcePath"`
	HasImage   bool   `json:"hasImage"`
}

// PageDetail is a full page representation including its normalized
// content.
type PageDetail struct {
	PageBrief
	Content map[string]any `json:"content,omitempty"`
	Body    string         `json:"body,omitempty"`
}

// TemplateInventory lists every template, grouped by category.
type TemplateInventory struct {
	Default    string                     `json:"default"`
	Templates  []tmpl.Info                `json:"templates"`
	Categories map[tmpl.Category][]string `json:"categories,omitempty"`
}

// ThemeInventory lists the built-in and configured themes.
type ThemeInventory struct {
	Default string        `json:"default"`
	Themes  []theme.Theme `json:"themes"`
}

// BuildStatus holds the last build result.
type BuildStatus struct {
	LastBuild *BuildResultDetail `json:"lastBuild"`
}

// BuildResultDetail describes a completed build.
type BuildResultDetail struct {
	Timestamp       time.Time `json:"timestamp"`
	DurationMs      int64     `json:"durationMs"`
	Success         bool      `json:"success"`
	PagesRendered   int       `json:"pagesRendered"`
	CacheHits       int       `json:"cacheHits"`
	ImageErrors     int       `json:"imageErrors"`
	OutputDir       string    `json:"outputDir"`
	OutputSizeBytes int64     `json:"outputSizeBytes"`
	Error           string    `json:"error,omitempty"`
}

// ListTemplatesInput is the input for the list_templates tool.
type ListTemplatesInput struct {
	Category string `json:"category,omitempty" jsonschema:"Filter by category: product, event, technical or card"`
}

// ListTemplatesOutput is the output from the list_templates tool.
type ListTemplatesOutput struct {
	Default   string      `json:"default"`
	Templates []tmpl.Info `json:"templates"`
}

// ListThemesInput is the input for the list_themes tool.
type ListThemesInput struct{}

// ListThemesOutput is the output from the list_themes tool.
type ListThemesOutput struct {
	Default string        `json:"default"`
	Themes  []theme.Theme `json:"themes"`
}

// ListPagesInput is the input for the list_pages tool.
type ListPagesInput struct {
	Template string `json:"template,omitempty" jsonschema:"Only pages rendered with this template id"`
	Draft    *bool  `json:"draft,omitempty"    jsonschema:"Filter by draft status; omit to include all"`
	Search   string `json:"search,omitempty"   jsonschema:"Case-insensitive match against id, label and title"`
}

// ListPagesOutput is the output from the list_pages tool.
type ListPagesOutput struct {
	Total int         `json:"total"`
	Pages []PageBrief `json:"pages"`
}

// GetPageInput is the input for the get_page tool.
type GetPageInput struct {
	ID string `json:"id" jsonschema:"Page id, as reported by list_pages"`
}

// NormalizeContentInput is the input for the normalize_content tool.
type NormalizeContentInput struct {
	Content map[string]any `json:"content" jsonschema:"Raw page content object; missing or malformed fields get defaults"`
}

// NormalizeContentOutput is the output from the normalize_content tool.
type NormalizeContentOutput struct {
	Document map[string]any `json:"document,omitempty"`
}

// RenderPageInput is the input for the render_page tool. Either PageID or
// Content selects what to render.
type RenderPageInput struct {
	PageID   string         `json:"pageId,omitempty"   jsonschema:"Render a catalog page by id"`
	Content  map[string]any `json:"content,omitempty"  jsonschema:"Render an ad hoc content object instead of a catalog page"`
	Template string         `json:"template,omitempty" jsonschema:"Template id override; unknown ids fall back to the default template"`
	Theme    string         `json:"theme,omitempty"    jsonschema:"Theme id override; unknown ids fall back to the default theme"`
}

// RenderPageOutput is the output from the render_page tool.
type RenderPageOutput struct {
	Template string `json:"template"`
	Theme    string `json:"theme"`
	Cached   bool   `json:"cached"`
	Bytes    int    `json:"bytes"`
	HTML     string `json:"html"`
}

// ValidatePageInput is the input for the validate_page tool.
type ValidatePageInput struct {
	Content map[string]any `json:"content"         jsonschema:"Raw page content object to check"`
	Theme   string         `json:"theme,omitempty" jsonschema:"Theme id the page will use"`
}

// ValidatePageOutput is the output from the validate_page tool.
type ValidatePageOutput struct {
	Valid    bool                `json:"valid"`
	Errors   []ValidationError   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

// ValidationError describes a content validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationWarning describes a content validation warning.
type ValidationWarning struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// CreatePageInput is the input for the create_page tool.
type CreatePageInput struct {
	Title    string `json:"title"              jsonschema:"Page title (required)"`
	Template string `json:"template,omitempty" jsonschema:"Template id (default: the catalog default)"`
	Theme    string `json:"theme,omitempty"    jsonschema:"Theme id stored on the page"`
	Format   string `json:"format,omitempty"   jsonschema:"File format: yaml or md (default: yaml)"`
	Draft    *bool  `json:"draft,omitempty"    jsonschema:"Mark as draft (default: true)"`
	Order    int    `json:"order,omitempty"    jsonschema:"Sort order within the catalog"`
}

// CreatePageOutput is the output from the create_page tool.
type CreatePageOutput struct {
	Created  bool   `json:"created"`
	FilePath string `json:"filePath"`
	ID       string `json:"id"`
}

// BuildCatalogInput is the input for the build_catalog tool.
type BuildCatalogInput struct {
	Drafts    bool   `json:"drafts,omitempty"    jsonschema:"Include draft pages (default: false)"`
	OutputDir string `json:"outputDir,omitempty" jsonschema:"Override output directory"`
}

// BuildCatalogOutput is the output from the build_catalog tool.
type BuildCatalogOutput struct {
	Success         bool   `json:"success"`
	DurationMs      int64  `json:"durationMs"`
	PagesRendered   int    `json:"pagesRendered"`
	CacheHits       int    `json:"cacheHits"`
	FilesCopied     int    `json:"filesCopied"`
	ImageErrors     int    `json:"imageErrors"`
	OutputDir       string `json:"outputDir"`
	OutputSizeBytes int64  `json:"outputSizeBytes"`
	Error           string `json:"error,omitempty"`
}
