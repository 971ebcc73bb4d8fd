package parser

import (
	"bytes"
	"fmt"
	"html/template"
)

// Pages produced from notebooks, markdown and text share the layout of an
// exported notebook, so the augmenter finds cells under #notebook.
var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<div tabindex="-1" id="notebook" class="border-box-sizing">
<div class="container" id="notebook-container">
{{range .Cells}}{{.}}
{{end}}</div>
</div>
</body>
</html>
`))

var cellTmpl = template.Must(template.New("cells").Parse(`
{{define "markdown"}}<div class="cell border-box-sizing text_cell rendered">
<div class="prompt input_prompt"></div>
<div class="inner_cell"><div class="text_cell_render border-box-sizing rendered_html">
{{.}}</div></div>
</div>{{end}}

{{define "code"}}<div class="cell border-box-sizing code_cell rendered">
<div class="input">
<div class="prompt input_prompt">In&nbsp;[{{.Count}}]:</div>
<div class="inner_cell"><div class="input_area">{{.Source}}</div></div>
</div>
{{if .Outputs}}<div class="output_wrapper"><div class="output">
{{range .Outputs}}<div class="output_area">
<div class="prompt{{if .Prompt}} output_prompt{{end}}">{{.Prompt}}</div>
<div class="{{.Class}} output_subarea">{{.Body}}</div>
</div>
{{end}}</div></div>{{end}}
</div>{{end}}
`))

type shellData struct {
	Title string
	Cells []template.HTML
}

type codeCellData struct {
	Count   string
	Source  template.HTML
	Outputs []outputData
}

type outputData struct {
	Prompt string
	Class  string
	Body   template.HTML
}

func renderShell(title string, cells []template.HTML) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, shellData{Title: title, Cells: cells}); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

func renderCell(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := cellTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s cell: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
