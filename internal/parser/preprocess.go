package parser

import (
	"regexp"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"github.com/dgallion1/nbtoc/internal/doctree"
)

var (
	headerRe       = regexp.MustCompile(`^(#+) (.+)$`)
	internalLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(#([^)]+)\)`)
	notebookLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)#]+)\.ipynb(#[^)]*)?\)`)
)

// Preprocess applies the notebook clean-ups selected in opts, in place.
func Preprocess(nb *doctree.Notebook, opts Options) {
	if opts.StartAtSummary {
		nb.Cells = startAtSummary(nb.Cells)
	}
	for _, cell := range nb.Cells {
		if cell.CellType != "code" {
			continue
		}
		if opts.DropJavaScript {
			cell.Outputs = dropOutputs(cell.Outputs, func(o *doctree.Output) bool {
				_, ok := o.Data["application/javascript"]
				return ok
			})
		}
		if opts.DropStderr {
			cell.Outputs = dropOutputs(cell.Outputs, func(o *doctree.Output) bool {
				return o.OutputType == "stream" && o.Name == "stderr"
			})
		}
		if opts.WrapWidth > 0 {
			for _, o := range cell.Outputs {
				wrapOutput(o, opts.WrapWidth)
			}
		}
	}

	var sources []string
	for _, cell := range nb.Cells {
		if cell.CellType == "markdown" {
			sources = append(sources, cell.Source.String())
		}
	}
	current := MinHeaderLevel(sources)
	for _, cell := range nb.Cells {
		if cell.CellType != "markdown" {
			continue
		}
		src := cell.Source.String()
		if opts.MinHeaderLevel > 0 {
			src = ShiftHeaders(src, opts.MinHeaderLevel, current)
		}
		cell.Source = doctree.MultilineString(RerouteLinks(src, opts.LinkBase))
	}
}

// startAtSummary drops every cell before the first "# Summary" heading.
func startAtSummary(cells []*doctree.Cell) []*doctree.Cell {
	for k, cell := range cells {
		if cell.CellType != "markdown" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(cell.Source.String()), "# summary") {
			return cells[k:]
		}
	}
	return cells
}

// SummaryCells returns the cells between the first "# Summary" markdown cell
// and the next top-level heading, or nil when there is no summary.
func SummaryCells(cells []*doctree.Cell) []*doctree.Cell {
	start := -1
	for k, cell := range cells {
		if cell.CellType != "markdown" {
			continue
		}
		src := cell.Source.String()
		switch {
		case strings.HasPrefix(strings.ToLower(src), "# summary"):
			start = k + 1
		case start >= 0 && strings.HasPrefix(src, "# "):
			return cells[start:k]
		}
	}
	if start < 0 {
		return nil
	}
	return cells[start:]
}

func dropOutputs(outputs []*doctree.Output, drop func(*doctree.Output) bool) []*doctree.Output {
	kept := outputs[:0]
	for _, o := range outputs {
		if !drop(o) {
			kept = append(kept, o)
		}
	}
	return kept
}

func wrapOutput(o *doctree.Output, width int) {
	if o.Text != "" {
		o.Text = doctree.MultilineString(wrapLines(o.Text.String(), width))
	}
	if plain, ok := o.Data["text/plain"]; ok {
		o.Data["text/plain"] = doctree.MultilineString(wrapLines(plain.String(), width))
	}
}

// wrapLines wraps each line to width and indents continuation lines by four
// spaces.
func wrapLines(s string, width int) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if len(line) <= width {
			continue
		}
		wrapped := wordwrap.WrapString(line, uint(width))
		lines[i] = strings.ReplaceAll(wrapped, "\n", "\n    ")
	}
	return strings.Join(lines, "\n")
}

// MinHeaderLevel returns the shallowest markdown heading level across
// sources, or 0 when none has a heading.
func MinHeaderLevel(sources []string) int {
	lowest := 0
	for _, src := range sources {
		eachHeader(src, func(level int, _ string) string {
			if lowest == 0 || level < lowest {
				lowest = level
			}
			return ""
		})
	}
	return lowest
}

// ShiftHeaders deepens every heading in src so that a document whose
// shallowest heading is current ends up starting at target. Sources already
// at or below target are returned unchanged.
func ShiftHeaders(src string, target, current int) string {
	if current == 0 || target <= current {
		return src
	}
	shift := target - current
	return eachHeader(src, func(level int, title string) string {
		level += shift
		if level > 6 {
			level = 6
		}
		return strings.Repeat("#", level) + " " + title
	})
}

// eachHeader calls fn for every ATX heading line outside fenced code and
// replaces the line with fn's result when it is non-empty.
func eachHeader(src string, fn func(level int, title string) string) string {
	lines := strings.Split(src, "\n")
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := headerRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if repl := fn(len(m[1]), m[2]); repl != "" {
			lines[i] = repl
		}
	}
	return strings.Join(lines, "\n")
}

// RerouteLinks points links to other notebooks at their HTML pages and, when
// base is set, prefixes in-page links with it.
func RerouteLinks(src, base string) string {
	if base != "" {
		src = internalLinkRe.ReplaceAllString(src, "[$1]("+base+"#$2)")
	}
	return notebookLinkRe.ReplaceAllString(src, "[$1]($2.html$3)")
}
