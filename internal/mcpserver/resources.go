package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	tmpl "github.com/aellingwood/cardforge/internal/template"
)

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         "cardforge://config",
		Name:        "Catalog Configuration",
		Description: "Resolved catalog configuration from cardforge.yaml",
		MIMEType:    "application/json",
	}, s.handleConfigResource)

	s.server.AddResource(&mcp.Resource{
		URI:         "cardforge://templates",
		Name:        "Template Inventory",
		Description: "All page templates grouped by category",
		MIMEType:    "application/json",
	}, s.handleTemplatesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         "cardforge://themes",
		Name:        "Themes",
		Description: "Built-in and configured themes with colors and fonts",
		MIMEType:    "application/json",
	}, s.handleThemesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         "cardforge://pages",
		Name:        "Page Inventory",
		Description: "All catalog pages with metadata (no content)",
		MIMEType:    "application/json",
	}, s.handlePagesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         "cardforge://build/status",
		Name:        "Build Status",
		Description: "Last build result: timestamp, duration, page count and error",
		MIMEType:    "application/json",
	}, s.handleBuildStatusResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "cardforge://pages/{id}",
		Name:        "Page Detail",
		Description: "One catalog page with its normalized content",
		MIMEType:    "application/json",
	}, s.handlePageDetailResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "cardforge://templates/{id}",
		Name:        "Template Detail",
		Description: "One template's description and field typography defaults",
		MIMEType:    "application/json",
	}, s.handleTemplateDetailResource)
}

func jsonResource(uri, data string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: uri, MIMEType: "application/json", Text: data},
		},
	}
}

func marshalResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, string(b)), nil
}

func (s *Server) handleConfigResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	cc, err := s.ctx.Load()
	if err != nil {
		return nil, err
	}
	cfg, _, _ := cc.Snapshot()
	redacted := *cfg
	if redacted.Cache.Password != "" {
		redacted.Cache.Password = "********"
	}
	return marshalResource(req.Params.URI, redacted)
}

func (s *Server) handleTemplatesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	inv := TemplateInventory{
		Default:    s.builder().Config().DefaultTemplate,
		Templates:  tmpl.List(),
		Categories: make(map[tmpl.Category][]string),
	}
	for _, info := range inv.Templates {
		inv.Categories[info.Category] = append(inv.Categories[info.Category], info.ID)
	}
	return marshalResource(req.Params.URI, inv)
}

func (s *Server) handleThemesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	b := s.builder()
	return marshalResource(req.Params.URI, ThemeInventory{
		Default: b.Theme(b.Config().DefaultTheme).ID,
		Themes:  b.Themes().All(),
	})
}

func (s *Server) handlePagesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	cc, err := s.ctx.Load()
	if err != nil {
		return nil, err
	}
	_, b, pages := cc.Snapshot()

	briefs := make([]PageBrief, len(pages))
	for i, p := range pages {
		briefs[i] = toPageBrief(p, b)
	}
	return marshalResource(req.Params.URI, map[string]any{
		"totalPages": len(briefs),
		"pages":      briefs,
	})
}

func (s *Server) handleBuildStatusResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return marshalResource(req.Params.URI, s.buildStatus())
}

func (s *Server) handlePageDetailResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id, ok := strings.CutPrefix(uri, "cardforge://pages/")
	if !ok || id == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	cc, err := s.ctx.Load()
	if err != nil {
		return nil, err
	}
	page, ok := cc.Page(id)
	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	_, b, _ := cc.Snapshot()
	return marshalResource(uri, toPageDetail(page, b))
}

func (s *Server) handleTemplateDetailResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id, ok := strings.CutPrefix(uri, "cardforge://templates/")
	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	def, ok := tmpl.Lookup(id)
	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return marshalResource(uri, map[string]any{
		"template":   def.Info,
		"imageFit":   def.ImageFit,
		"maxBullets": def.MaxBullets,
		"fields":     def.Fields,
	})
}
