package page

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// SidebarOptions configures the sidebar header.
type SidebarOptions struct {
	Homepage     string // Link text back to the site index; omitted when empty.
	HomepageHref string
	Logo         string // Image source; omitted when empty.
	Controls     bool   // Add the source/prompt display control panel.
}

// AttachSidebar appends the sidebar to the body. A page that already has one
// keeps it.
func (d *Document) AttachSidebar(opts SidebarOptions) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.doc.Find("#sidebar").Length() > 0 {
		return
	}
	d.body().AppendHtml(sidebarHTML(opts))
}

func sidebarHTML(opts SidebarOptions) string {
	var b strings.Builder
	b.WriteString(`<div id="sidebar" class="sidebar-wrapper">`)
	b.WriteString(`<div id="sidebar-header" class="header">`)
	if opts.Homepage != "" {
		href := opts.HomepageHref
		if href == "" {
			href = "../index.html"
		}
		b.WriteString(`<a href="` + html.EscapeString(href) + `" style="color:#c4939c">`)
		b.WriteString(html.EscapeString(opts.Homepage))
		b.WriteString(`</a>`)
	}
	if opts.Logo != "" {
		b.WriteString(`<img id="home-image" src="` + html.EscapeString(opts.Logo) + `" height="32" width="32"`)
		b.WriteString(` style="border:0px;margin-right:5px;vertical-align:bottom"/>`)
		b.WriteString(`<span>&nbsp;&nbsp;</span>`)
	}
	if opts.Controls {
		b.WriteString(controlPanelHTML)
	}
	b.WriteString(`</div>`)
	b.WriteString(`<div id="toc" class="toc"></div>`)
	b.WriteString(`</div>`)
	return b.String()
}

// controlPanelHTML is the display control panel. Its script toggles the
// same elements ApplyDisplay sets.
var controlPanelHTML = `<div class="display_control_panel"><div class="display_checkboxes">` +
	`<input id="show_source" name="show_source" type="checkbox"/>` +
	`<label for="show_source">Source code</label><br/>` +
	`<input id="show_prompt" name="show_prompt" type="checkbox"/>` +
	`<label for="show_prompt">Execution prompt</label>` +
	`</div></div>` +
	`<script id="display-toggles">` + toggleScript + `</script>`

var toggleScript = `(function () {
  function show(sel, on, shown) {
    document.querySelectorAll(sel).forEach(function (el) { el.style.display = on ? shown : "none"; });
  }
  function bind(id, fn) {
    var box = document.getElementById(id);
    if (box) { box.addEventListener("change", function () { fn(box.checked); }); }
  }
  bind("show_source", function (on) {
    show(` + strconv.Quote(sourceSelector) + `, on, "flex");
    show(` + strconv.Quote(hiddenSelector) + `, on, "");
  });
  bind("show_prompt", function (on) {
    show(` + strconv.Quote(promptSelector) + `, on, "");
  });
})();`
