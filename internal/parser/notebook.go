package parser

import (
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/nbtoc/internal/doctree"
)

// NotebookParser converts nbformat v4 notebooks into notebook pages.
type NotebookParser struct {
	Options Options
}

var ansiRe = regexp.MustCompile("\x1b\\[[0-9;]*[A-Za-z]")

func (p *NotebookParser) Parse(r io.Reader, filename string) (*doctree.Page, error) {
	nb, err := DecodeNotebook(r)
	if err != nil {
		return nil, err
	}
	return RenderNotebook(nb, filename, p.Options)
}

// DecodeNotebook reads an nbformat v4 notebook.
func DecodeNotebook(r io.Reader) (*doctree.Notebook, error) {
	var nb doctree.Notebook
	if err := json.NewDecoder(r).Decode(&nb); err != nil {
		return nil, fmt.Errorf("parse notebook: %w", err)
	}
	if nb.NBFormat != 0 && nb.NBFormat < 4 {
		return nil, fmt.Errorf("unsupported nbformat %d", nb.NBFormat)
	}
	return &nb, nil
}

// RenderNotebook preprocesses nb in place and renders it into a notebook
// page. The title is the notebook's metadata title, else the file name.
func RenderNotebook(nb *doctree.Notebook, filename string, opts Options) (*doctree.Page, error) {
	Preprocess(nb, opts)

	lang := notebookLanguage(nb, opts.Language)
	var cells []template.HTML
	for i, cell := range nb.Cells {
		var (
			out template.HTML
			err error
		)
		switch cell.CellType {
		case "markdown":
			var body template.HTML
			body, err = renderMarkdown([]byte(cell.Source.String()))
			if err == nil {
				out, err = renderCell("markdown", body)
			}
		case "code":
			out, err = renderCodeCell(cell, lang)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		cells = append(cells, out)
	}

	title := nb.Title()
	if title == "" {
		title = baseTitle(filename)
	}
	page, err := renderShell(title, cells)
	if err != nil {
		return nil, err
	}
	return &doctree.Page{Title: title, Filename: filename, HTML: page}, nil
}

func notebookLanguage(nb *doctree.Notebook, fallback string) string {
	if info, ok := nb.Metadata["language_info"].(map[string]any); ok {
		if name, ok := info["name"].(string); ok && name != "" {
			return name
		}
	}
	if ks, ok := nb.Metadata["kernelspec"].(map[string]any); ok {
		if lang, ok := ks["language"].(string); ok && lang != "" {
			return lang
		}
	}
	if fallback != "" {
		return fallback
	}
	return "python"
}

func renderCodeCell(cell *doctree.Cell, lang string) (template.HTML, error) {
	src, err := renderMarkdown([]byte(fenced(cell.Source.String(), lang)))
	if err != nil {
		return "", err
	}
	data := codeCellData{
		Count:  executionCount(cell.ExecutionCount),
		Source: src,
	}
	for _, o := range cell.Outputs {
		data.Outputs = append(data.Outputs, renderOutput(o))
	}
	return renderCell("code", data)
}

// fenced wraps code in a fence longer than any backtick run inside it.
func fenced(code, lang string) string {
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", max(3, longest+1))
	return fence + lang + "\n" + strings.TrimRight(code, "\n") + "\n" + fence + "\n"
}

func executionCount(n *int) string {
	if n == nil {
		return " "
	}
	return strconv.Itoa(*n)
}

func renderOutput(o *doctree.Output) outputData {
	switch o.OutputType {
	case "stream":
		return outputData{
			Class: "output_stream output_" + o.Name + " output_text",
			Body:  pre(o.Text.String()),
		}
	case "error":
		tb := ansiRe.ReplaceAllString(strings.Join(o.Traceback, "\n"), "")
		if tb == "" {
			tb = o.EName + ": " + o.EValue
		}
		return outputData{Class: "output_error output_text", Body: pre(tb)}
	}

	od := outputData{}
	if o.OutputType == "execute_result" {
		od.Prompt = "Out[" + strings.TrimSpace(executionCount(o.ExecutionCount)) + "]:"
	}
	switch {
	case o.Data["text/html"] != "":
		od.Class = "output_html rendered_html"
		od.Body = template.HTML(o.Data["text/html"])
	case o.Data["image/svg+xml"] != "":
		od.Class = "output_svg"
		od.Body = template.HTML(o.Data["image/svg+xml"])
	case o.Data["image/png"] != "":
		od.Class = "output_png"
		od.Body = img("image/png", o.Data["image/png"].String())
	case o.Data["image/jpeg"] != "":
		od.Class = "output_jpeg"
		od.Body = img("image/jpeg", o.Data["image/jpeg"].String())
	default:
		od.Class = "output_text"
		od.Body = pre(o.Data["text/plain"].String())
	}
	if o.OutputType == "execute_result" {
		od.Class += " output_execute_result"
	}
	return od
}

func pre(s string) template.HTML {
	return template.HTML("<pre>" + html.EscapeString(s) + "</pre>")
}

func img(mime, b64 string) template.HTML {
	b64 = strings.ReplaceAll(strings.TrimSpace(b64), "\n", "")
	return template.HTML(`<img src="data:` + mime + `;base64,` + html.EscapeString(b64) + `"/>`)
}
