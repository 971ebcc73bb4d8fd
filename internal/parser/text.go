package parser

import (
	"bufio"
	"html"
	"html/template"
	"io"
	"strings"

	"github.com/dgallion1/nbtoc/internal/doctree"
)

// TextParser handles plain text files. Each paragraph becomes a <p> in a
// single text cell.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Page, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var body strings.Builder
	for _, para := range paragraphs {
		body.WriteString("<p>")
		body.WriteString(html.EscapeString(para))
		body.WriteString("</p>\n")
	}

	var cells []template.HTML
	if body.Len() > 0 {
		cell, err := renderCell("markdown", template.HTML(body.String()))
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}

	title := baseTitle(filename)
	out, err := renderShell(title, cells)
	if err != nil {
		return nil, err
	}
	return &doctree.Page{Title: title, Filename: filename, HTML: out}, nil
}
