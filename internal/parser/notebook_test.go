package parser

import (
	"strings"
	"testing"
)

const sampleNotebook = `{
 "nbformat": 4,
 "nbformat_minor": 5,
 "metadata": {"kernelspec": {"language": "python", "name": "python3"}},
 "cells": [
  {"cell_type": "markdown", "metadata": {}, "source": ["# Setup\n", "Initialization."]},
  {"cell_type": "code", "execution_count": 1, "metadata": {}, "source": "import silq",
   "outputs": [
     {"output_type": "stream", "name": "stderr", "text": ["warning: deprecated\n"]},
     {"output_type": "display_data", "data": {"application/javascript": "alert(1)", "text/plain": "<js>"}, "metadata": {}}
   ]},
  {"cell_type": "markdown", "metadata": {}, "source": "# Summary\nResults below."},
  {"cell_type": "code", "execution_count": 2, "metadata": {}, "source": ["x = 40 + 2\n", "x"],
   "outputs": [
     {"output_type": "stream", "name": "stdout", "text": "computing\n"},
     {"output_type": "execute_result", "execution_count": 2, "data": {"text/plain": ["42"]}, "metadata": {}},
     {"output_type": "display_data", "data": {"image/png": "iVBORw0KGgo=\n", "application/json": {"a": 1}}, "metadata": {}}
   ]},
  {"cell_type": "raw", "metadata": {}, "source": "\\newpage"},
  {"cell_type": "code", "execution_count": null, "metadata": {}, "source": "raise ValueError('bad')",
   "outputs": [
     {"output_type": "error", "ename": "ValueError", "evalue": "bad", "traceback": ["\u001b[0;31mValueError\u001b[0m: bad"]}
   ]}
 ]
}`

func TestNotebookParser_RendersCells(t *testing.T) {
	p := &NotebookParser{}
	page, err := p.Parse(strings.NewReader(sampleNotebook), "dir/01 - run.ipynb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Title != "01 - run" {
		t.Errorf("expected title %q, got %q", "01 - run", page.Title)
	}

	out := string(page.HTML)
	checks := []string{
		`<h1 id="setup">Setup<a href="#setup" class="anchor-link">¶</a></h1>`,
		`In&nbsp;[1]:`,
		`In&nbsp;[2]:`,
		`In&nbsp;[ ]:`,
		`Out[2]:`,
		`<pre>42</pre>`,
		`<pre>computing
</pre>`,
		`data:image/png;base64,iVBORw0KGgo=`,
		`<pre>ValueError: bad</pre>`,
		`warning: deprecated`,
	}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output", want)
		}
	}
	if strings.Contains(out, "newpage") {
		t.Errorf("expected raw cells to be skipped")
	}
	if n := strings.Count(out, `class="cell border-box-sizing code_cell rendered"`); n != 3 {
		t.Errorf("expected 3 code cells, got %d", n)
	}
}

func TestNotebookParser_Preprocessors(t *testing.T) {
	p := &NotebookParser{Options: Options{
		DropJavaScript: true,
		DropStderr:     true,
		StartAtSummary: true,
	}}
	page, err := p.Parse(strings.NewReader(sampleNotebook), "run.ipynb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(page.HTML)
	if strings.Contains(out, "Setup") {
		t.Errorf("expected cells before the summary to be dropped")
	}
	if !strings.Contains(out, `<h1 id="summary">`) {
		t.Errorf("expected summary heading in output")
	}
	if strings.Contains(out, "deprecated") {
		t.Errorf("expected stderr output to be dropped")
	}
	if strings.Contains(out, "&lt;js&gt;") {
		t.Errorf("expected javascript output to be dropped")
	}
}

func TestNotebookParser_InvalidJSON(t *testing.T) {
	p := &NotebookParser{}
	if _, err := p.Parse(strings.NewReader("{not json"), "bad.ipynb"); err == nil {
		t.Fatal("expected error for invalid notebook")
	}
}

func TestNotebookParser_OldFormatRejected(t *testing.T) {
	p := &NotebookParser{}
	_, err := p.Parse(strings.NewReader(`{"nbformat": 3, "worksheets": []}`), "old.ipynb")
	if err == nil {
		t.Fatal("expected error for nbformat 3")
	}
}

func TestFenced(t *testing.T) {
	got := fenced("s = ```x```", "python")
	if !strings.HasPrefix(got, "````python\n") {
		t.Errorf("expected a four-backtick fence, got %q", got)
	}
}
