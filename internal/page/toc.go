package page

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/nbtoc/internal/outline"
)

const labelClass = "toc-item-num"

// Headings extracts the page's headings in document order.
func (d *Document) Headings() []outline.Heading {
	d.mu.Lock()
	defer d.mu.Unlock()
	return extractHeadings(d.headingSelection())
}

func extractHeadings(sel *goquery.Selection) []outline.Heading {
	hs := make([]outline.Heading, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		h := outline.Heading{
			Level:   headingLevel(goquery.NodeName(s)),
			ID:      attr(s, "id"),
			SavedID: attr(s, "saveid"),
			Content: LinkContent(s),
		}
		s.Find("a[name]").Each(func(_ int, a *goquery.Selection) {
			h.Anchors = append(h.Anchors, attr(a, "name"))
		})
		hs = append(hs, h)
	})
	return hs
}

// LinkContent is the heading's HTML as it should appear in a TOC link:
// MathJax previews turned back into $...$ source, labels, named anchors and
// the trailing auto-generated anchor removed. Other links are unwrapped to
// their content since links do not nest.
func LinkContent(h *goquery.Selection) string {
	c := h.Clone()
	c.Find(`script[type="math/tex"]`).Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml(html.EscapeString("$" + s.Text() + "$"))
	})
	c.Find("span.MathJax_Preview, span.MathJax, ." + labelClass).Remove()
	if last := c.Children().Last(); isAutoAnchor(last) {
		last.Remove()
	}
	c.Find("a[name]").Remove()
	c.Find("a").Each(func(_ int, a *goquery.Selection) {
		a.ReplaceWithSelection(a.Contents())
	})
	out, err := c.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// isAutoAnchor reports whether s is the pilcrow link exporters append to
// headings.
func isAutoAnchor(s *goquery.Selection) bool {
	if s.Length() == 0 || goquery.NodeName(s) != "a" {
		return false
	}
	if s.HasClass("anchor-link") {
		return true
	}
	href := attr(s, "href")
	return strings.HasPrefix(href, "#") && strings.TrimSpace(s.Text()) == "¶"
}

// BuildTOC numbers the page's headings, rewrites their ids and renders the
// table of contents into #toc. Calling it again on the same document
// produces the same ids and entries.
func (d *Document) BuildTOC(cfg outline.Config) *outline.Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	heads := d.headingSelection()
	res := outline.Build(extractHeadings(heads), cfg)
	d.apply(heads, res)

	toc := d.doc.Find("#toc").First()
	if toc.Length() == 0 {
		d.body().AppendHtml(`<div id="toc" class="toc"></div>`)
		toc = d.doc.Find("#toc").First()
	}
	toc.SetHtml(RenderTree(res.Tree))

	d.setLabelVisibility(res.NumberSections)
	return res
}

// Apply writes a Build result back onto the page's headings.
func (d *Document) Apply(res *outline.Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.apply(d.headingSelection(), res)
	d.setLabelVisibility(res.NumberSections)
}

func (d *Document) apply(heads *goquery.Selection, res *outline.Result) {
	for _, m := range res.Mutations {
		h := heads.Eq(m.Index)
		if h.Length() == 0 {
			continue
		}
		h.Find("." + labelClass).Remove()
		h.SetAttr("id", m.ID)
		h.SetAttr("saveid", m.SavedID)
		if m.InsertAnchor && !hasNamedAnchor(h, m.SavedID, res.EscapeChars) {
			h.PrependNodes(element(atom.A, "a", html.Attribute{Key: "name", Val: m.SavedID}))
		}
		h.PrependNodes(labelNode(m.Label))
	}
}

func (d *Document) setLabelVisibility(visible bool) {
	labels := d.doc.Find("." + labelClass)
	if visible {
		setDisplay(labels, "")
	} else {
		setDisplay(labels, "none")
	}
}

// hasNamedAnchor looks for <a name=name> inside h. The escaped selector
// cannot express every id (e.g. one starting with a digit), so a failed
// compile falls back to comparing attributes.
func hasNamedAnchor(h *goquery.Selection, name, escapeChars string) bool {
	sel, err := cascadia.Compile("a[name=" + outline.Escape(name, escapeChars) + "]")
	if err == nil {
		return h.FindMatcher(sel).Length() > 0
	}
	return h.Find("a[name]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return attr(a, "name") == name
	}).Length() > 0
}

// RenderTree renders an outline as nested toc-item lists.
func RenderTree(root *outline.List) string {
	var b strings.Builder
	b.WriteString(`<ul class="toc-item" id="toc-level0">`)
	renderItems(&b, root)
	b.WriteString(`</ul>`)
	return b.String()
}

func renderItems(b *strings.Builder, l *outline.List) {
	for _, it := range l.Items {
		if it.Entry == nil {
			if it.Sub != nil {
				renderSub(b, it.Sub)
			}
			continue
		}
		e := it.Entry
		b.WriteString(`<li><a href="#`)
		b.WriteString(html.EscapeString(e.Target))
		b.WriteString(`"><span class="` + labelClass + `">`)
		b.WriteString(html.EscapeString(e.Label))
		b.WriteString("&nbsp;&nbsp;</span>")
		b.WriteString(e.Text)
		b.WriteString(`</a>`)
		if it.Sub != nil {
			renderSub(b, it.Sub)
		}
		b.WriteString(`</li>`)
	}
}

func renderSub(b *strings.Builder, l *outline.List) {
	b.WriteString(`<ul class="toc-item">`)
	renderItems(b, l)
	b.WriteString(`</ul>`)
}

func labelNode(label string) *html.Node {
	span := element(atom.Span, "span", html.Attribute{Key: "class", Val: labelClass})
	span.AppendChild(&html.Node{Type: html.TextNode, Data: label + "\u00a0\u00a0"})
	return span
}

func element(a atom.Atom, tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: tag, Attr: attrs}
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return v
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' {
		if n, err := strconv.Atoi(tag[1:]); err == nil && n >= 1 && n <= 6 {
			return n
		}
	}
	return 0
}
