// Package page reads and rewrites exported notebook pages. It is the DOM side
// of the outline builder: it extracts headings, applies the builder's
// mutations and renders the table of contents, sidebar and display controls.
package page

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const headingSelector = "h1, h2, h3, h4, h5, h6"

// Document is a parsed page. Its methods serialize access so that two TOC
// refreshes never interleave on the saved-id attribute.
type Document struct {
	mu  sync.Mutex
	doc *goquery.Document
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseBytes is Parse over an in-memory page.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

// Render writes the whole document.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("render html: %w", err)
		}
	}
	return nil
}

// Bytes renders the document into a byte slice.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Title returns the text of <title>, or "".
func (d *Document) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Find exposes a read-only query on the document for callers that need to
// inspect the result.
func (d *Document) Find(selector string) *goquery.Selection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(selector)
}

// content is the part of the page that holds notebook cells.
func (d *Document) content() *goquery.Selection {
	if nb := d.doc.Find("#notebook"); nb.Length() > 0 {
		return nb.First()
	}
	if body := d.doc.Find("body"); body.Length() > 0 {
		return body.First()
	}
	return d.doc.Selection
}

func (d *Document) body() *goquery.Selection {
	if body := d.doc.Find("body"); body.Length() > 0 {
		return body.First()
	}
	return d.doc.Selection
}

func (d *Document) headingSelection() *goquery.Selection {
	return d.content().Find(headingSelector)
}
