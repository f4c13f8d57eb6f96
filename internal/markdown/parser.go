// Package markdown renders README files shown beneath directory listings.
package markdown

import (
	"bytes"
	"html/template"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// ParseResult contains the parsed markdown result
type ParseResult struct {
	HTML  string
	Title string
}

// Parser handles markdown parsing with goldmark
type Parser struct {
	md goldmark.Markdown
}

// NewParser creates a new markdown parser with extensions.
// Code blocks are highlighted with inline styles since the listing page
// carries no chroma stylesheet.
func NewParser() *Parser {
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
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)

	return &Parser{md: md}
}

// Parse converts markdown source to HTML and picks the first heading as title.
func (p *Parser) Parse(source []byte) (*ParseResult, error) {
	doc := p.md.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	if err := p.md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, err
	}

	return &ParseResult{
		HTML:  buf.String(),
		Title: firstHeading(doc, source),
	}, nil
}

// Preview renders source for the listing page. Raw HTML in the source is
// omitted by goldmark, so the result is safe to embed.
func (p *Parser) Preview(source []byte) (template.HTML, error) {
	result, err := p.Parse(source)
	if err != nil {
		return "", err
	}
	return template.HTML(result.HTML), nil
}

func firstHeading(doc ast.Node, source []byte) string {
	title := ""
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			title = extractText(heading, source)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}

// extractText extracts text content from a node
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if text, ok := child.(*ast.Text); ok {
			buf.Write(text.Segment.Value(source))
		}
	}
	return buf.String()
}
