package content

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

// MarkdownRenderer converts catalog descriptions into HTML for the preview
// index and the built catalog listing. Raw HTML in the source is dropped.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer creates a MarkdownRenderer with GFM, typographer and
// inline-styled code highlighting.
func NewMarkdownRenderer() *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false),
				),
			),
		),
	)

	return &MarkdownRenderer{md: md}
}

// Render converts Markdown source bytes into HTML.
func (r *MarkdownRenderer) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}

// ExtractText reduces a markdown body to plain text: top-level blocks
// (paragraphs, headings, quotes) become paragraphs and list items become
// items. Inline formatting is dropped.
func ExtractText(source []byte) (paragraphs, items []string) {
	doc := goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser().Parse(gmtext.NewReader(source))

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindListItem:
			if s := plainText(n, source); s != "" {
				items = append(items, s)
			}
			return ast.WalkSkipChildren, nil
		case ast.KindParagraph, ast.KindHeading:
			if s := plainText(n, source); s != "" {
				paragraphs = append(paragraphs, s)
			}
			return ast.WalkSkipChildren, nil
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return paragraphs, items
}

// plainText concatenates the text segments below n. Line breaks between
// segments become single spaces.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	last := -1
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			if last >= 0 && last <= t.Segment.Start && bytes.IndexByte(source[last:t.Segment.Start], '\n') >= 0 {
				b.WriteByte(' ')
			}
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
			last = t.Segment.Stop
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.Label(source))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}
