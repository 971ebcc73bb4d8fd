package parser

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmparser "github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/dgallion1/nbtoc/internal/doctree"
)

// MarkdownParser renders Markdown files into a single-cell notebook page.
type MarkdownParser struct {
	Options Options
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	source := string(src)
	if p.Options.MinHeaderLevel > 0 {
		source = ShiftHeaders(source, p.Options.MinHeaderLevel, MinHeaderLevel([]string{source}))
	}
	source = RerouteLinks(source, p.Options.LinkBase)

	body, err := renderMarkdown([]byte(source))
	if err != nil {
		return nil, err
	}
	cell, err := renderCell("markdown", body)
	if err != nil {
		return nil, err
	}

	title := firstHeading([]byte(source))
	if title == "" {
		title = baseTitle(filename)
	}
	out, err := renderShell(title, []template.HTML{cell})
	if err != nil {
		return nil, err
	}
	return &doctree.Page{Title: title, Filename: filename, HTML: out}, nil
}

// markdown renders notebook markdown cells: GFM, highlighted fences, heading
// ids and the pilcrow anchor exporters append to each heading.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		gmparser.WithAutoHeadingID(),
		gmparser.WithASTTransformers(
			util.Prioritized(anchorLinkTransformer{}, 500),
		),
	),
	goldmark.WithRendererOptions(
		gmhtml.WithUnsafe(),
	),
)

func renderMarkdown(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// anchorLinkTransformer appends <a class="anchor-link" href="#id">¶</a> to
// every heading that received an id.
type anchorLinkTransformer struct{}

func (anchorLinkTransformer) Transform(doc *ast.Document, _ text.Reader, _ gmparser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		v, ok := h.AttributeString("id")
		if !ok {
			return ast.WalkSkipChildren, nil
		}
		id, ok := v.([]byte)
		if !ok || len(id) == 0 {
			return ast.WalkSkipChildren, nil
		}
		link := ast.NewLink()
		link.Destination = append([]byte("#"), id...)
		link.SetAttributeString("class", []byte("anchor-link"))
		link.AppendChild(link, ast.NewString([]byte("¶")))
		h.AppendChild(h, link)
		return ast.WalkSkipChildren, nil
	})
}

// firstHeading returns the text of the first heading in src.
func firstHeading(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			return extractText(h, src)
		}
	}
	return ""
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
