package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/aellingwood/cardforge/internal/content"
)

// sourceStyle is the chroma style of the source view.
const sourceStyle = "github"

// HighlightDocument renders the canonical JSON of doc as a standalone,
// syntax-highlighted HTML page with line numbers. The page carries its
// own stylesheet, so highlighting uses classes rather than inline styles.
func HighlightDocument(doc *content.Document) ([]byte, error) {
	src, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	lexer := lexers.Get("json")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(sourceStyle)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, string(src))
	if err != nil {
		return nil, fmt.Errorf("tokenising document: %w", err)
	}

	formatter := chromahtml.New(chromahtml.WithClasses(true), chromahtml.WithLineNumbers(true))

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>%s source</title>\n<style>\n", html.EscapeString(doc.Title))
	if err := formatter.WriteCSS(&buf, style); err != nil {
		return nil, fmt.Errorf("writing source stylesheet: %w", err)
	}
	buf.WriteString("body { margin: 0; }\n</style>\n</head>\n<body>\n")
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return nil, fmt.Errorf("highlighting document: %w", err)
	}
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}
