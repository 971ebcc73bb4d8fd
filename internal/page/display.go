package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DisplayState is the initial visibility of source code and prompts. It is
// owned by the caller; the page never reads it from anywhere else.
type DisplayState struct {
	ShowSource bool `json:"show_source" yaml:"show_source" koanf:"show_source"`
	ShowPrompt bool `json:"show_prompt" yaml:"show_prompt" koanf:"show_prompt"`
}

// Elements toggled by the source and prompt controls.
const (
	sourceSelector = "div.input"
	hiddenSelector = ".hidden_content"
	promptSelector = ".output_prompt, .input_prompt, .output_area .prompt"
)

// ApplyDisplay shows or hides code inputs and execution prompts.
func (d *Document) ApplyDisplay(state DisplayState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if state.ShowSource {
		setDisplay(d.doc.Find(sourceSelector), "flex")
		setDisplay(d.doc.Find(hiddenSelector), "")
	} else {
		setDisplay(d.doc.Find(sourceSelector+", "+hiddenSelector), "none")
	}

	prompts := d.doc.Find(promptSelector)
	if state.ShowPrompt {
		setDisplay(prompts, "")
	} else {
		setDisplay(prompts, "none")
	}

	d.doc.Find("#show_source").Each(func(_ int, s *goquery.Selection) { setChecked(s, state.ShowSource) })
	d.doc.Find("#show_prompt").Each(func(_ int, s *goquery.Selection) { setChecked(s, state.ShowPrompt) })
}

func setChecked(s *goquery.Selection, on bool) {
	if on {
		s.SetAttr("checked", "checked")
	} else {
		s.RemoveAttr("checked")
	}
}

// setDisplay rewrites the display declaration of each node's inline style.
// An empty value drops the declaration.
func setDisplay(sel *goquery.Selection, value string) {
	sel.Each(func(_ int, s *goquery.Selection) {
		style := setStyleProp(attr(s, "style"), "display", value)
		if style == "" {
			s.RemoveAttr("style")
		} else {
			s.SetAttr("style", style)
		}
	})
}

func setStyleProp(style, prop, value string) string {
	var decls []string
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, _, _ := strings.Cut(decl, ":")
		if strings.EqualFold(strings.TrimSpace(name), prop) {
			continue
		}
		decls = append(decls, decl)
	}
	if value != "" {
		decls = append(decls, prop+": "+value)
	}
	return strings.Join(decls, "; ")
}
