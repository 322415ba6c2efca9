package mcpserver

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	tmpl "github.com/aellingwood/cardforge/internal/template"
)

func (s *Server) registerPrompts() {
	s.server.AddPrompt(&mcp.Prompt{
		Name:        "new_product_page",
		Description: "Draft the content object for a new product page in the catalog",
		Arguments: []*mcp.PromptArgument{
			{Name: "product", Description: "Product name", Required: true},
			{Name: "template", Description: "Template id (leave empty to pick one)"},
			{Name: "notes", Description: "Facts about the product: specs, uses, selling points"},
		},
	}, s.handleNewProductPagePrompt)

	s.server.AddPrompt(&mcp.Prompt{
		Name:        "page_review",
		Description: "Review a catalog page's copy and layout settings for issues",
		Arguments: []*mcp.PromptArgument{
			{Name: "pageId", Description: "Id of the page to review", Required: true},
		},
	}, s.handlePageReviewPrompt)

	s.server.AddPrompt(&mcp.Prompt{
		Name:        "catalog_overview",
		Description: "Summarize the catalog's current state for context",
	}, s.handleCatalogOverviewPrompt)
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    mcp.Role("user"),
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func templateLines() string {
	var sb strings.Builder
	for _, info := range tmpl.List() {
		fmt.Fprintf(&sb, "- %s (%s): %s\n", info.ID, info.Category, info.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (s *Server) handleNewProductPagePrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := req.Params.Arguments
	product := args["product"]
	template := cmp.Or(args["template"], "(choose the best fit from the list above)")
	notes := cmp.Or(args["notes"], "(none given; keep claims generic)")

	text := fmt.Sprintf(`Draft a catalog page for: %s

Available templates:
%s

Requested template: %s
Product notes: %s

Requirements:
- Produce a content object with template_id, title, subtitle, body and bullet_points
- Keep the title under 40 characters so it fits without shrinking
- Use 3 to 6 bullet points of at most 8 words each
- Fill applications and key_benefits when the template shows them
- Leave image_data empty unless an image path is known
- Check the result with the validate_page tool, then preview it with render_page`, product, templateLines(), template, notes)

	return userPrompt(fmt.Sprintf("Draft a catalog page for: %s", product), text), nil
}

func (s *Server) handlePageReviewPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := req.Params.Arguments["pageId"]

	pageText := fmt.Sprintf("(Could not load page: %s)", id)
	if cc, err := s.ctx.Load(); err == nil {
		if p, ok := cc.Page(id); ok && p.Content != nil {
			_, b, _ := cc.Snapshot()
			brief := toPageBrief(p, b)
			pageText = fmt.Sprintf("Label: %s\nTemplate: %s\nTheme: %s\nTitle: %s\nSubtitle: %s\nBody: %s\nBullets:\n- %s",
				brief.Label, brief.Template, brief.Theme, p.Content.Title, p.Content.Subtitle,
				p.Content.Body, strings.Join(p.Content.BulletPoints, "\n- "))
		}
	}

	text := fmt.Sprintf(`Review this catalog page:

%s

Check for:
1. Copy that is too long for its block (titles over 40 characters, long bullets)
2. Bullet points that repeat the body text
3. Missing fields the template shows (applications, key benefits, contact details)
4. Inconsistent tone or terminology with the rest of the catalog

Provide specific suggested replacements.`, pageText)

	return userPrompt(fmt.Sprintf("Review page: %s", id), text), nil
}

func (s *Server) handleCatalogOverviewPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var title, pagesInfo, templatesUsed string
	if cc, err := s.ctx.Load(); err == nil {
		cfg, b, pages := cc.Snapshot()
		title = cfg.Title

		drafts := 0
		counts := make(map[string]int)
		for _, p := range pages {
			if p.Draft {
				drafts++
			}
			counts[toPageBrief(p, b).Template]++
		}
		pagesInfo = fmt.Sprintf("%d total pages (%d drafts)", len(pages), drafts)

		var used []string
		for _, id := range tmpl.IDs() {
			if n := counts[id]; n > 0 {
				used = append(used, fmt.Sprintf("%s (%d)", id, n))
			}
		}
		templatesUsed = strings.Join(used, ", ")
	}

	text := fmt.Sprintf(`Here is the current state of the cardforge catalog:

Catalog: %s
Pages: %s
Templates in use: %s

You now have full context of this catalog. You can:
- List pages with the list_pages tool
- Create new pages with the create_page tool
- Check content with the validate_page tool
- Preview pages with the render_page tool
- Build the catalog with the build_catalog tool
- Check build status at the cardforge://build/status resource

What would you like to do?`, title, pagesInfo, templatesUsed)

	return userPrompt("Catalog overview and context", text), nil
}
