package augment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/nbtoc/internal/doctree"
	"github.com/dgallion1/nbtoc/internal/page"
	"github.com/dgallion1/nbtoc/internal/parser"
)

func convert(t *testing.T, name, src string) *doctree.Page {
	t.Helper()
	p, err := parser.ForFile(name, parser.Options{})
	require.NoError(t, err)
	pg, err := p.Parse(strings.NewReader(src), name)
	require.NoError(t, err)
	return pg
}

func TestAugment_MarkdownPage(t *testing.T) {
	pg := convert(t, "guide.md", "## Intro\n\ntext\n\n### Setup\n\n## Next\n")
	a := New(DefaultOptions(), nil)

	res, err := a.Augment(context.Background(), pg)
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)
	assert.Equal(t, "Intro", res.Title)

	labels := []string{res.Entries[0].Label, res.Entries[1].Label, res.Entries[2].Label}
	assert.Equal(t, []string{"1", "1.1", "2"}, labels)
	assert.Equal(t, "intro-1", res.Entries[0].Target)
	assert.Equal(t, "Intro", res.Entries[0].Text)

	doc, err := page.ParseBytes(res.HTML)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("#sidebar #toc").Length())
	assert.Equal(t, 3, doc.Find("#toc li").Length())
	assert.Equal(t, 1, doc.Find("#intro-1").Length())
}

func TestAugment_RerunIsStable(t *testing.T) {
	pg := convert(t, "guide.md", "# A\n\n## B\n")
	a := New(DefaultOptions(), nil)

	first, err := a.Augment(context.Background(), pg)
	require.NoError(t, err)
	second, err := a.Augment(context.Background(), &doctree.Page{Filename: "guide.html", HTML: first.HTML})
	require.NoError(t, err)

	assert.Equal(t, string(first.HTML), string(second.HTML))
}

func TestAugment_DisplayState(t *testing.T) {
	nb := `{"nbformat": 4, "nbformat_minor": 5, "metadata": {}, "cells": [
	  {"cell_type": "code", "execution_count": 1, "metadata": {}, "source": "1", "outputs": []}]}`
	pg := convert(t, "run.ipynb", nb)

	opts := DefaultOptions()
	opts.Display = page.DisplayState{ShowSource: true}
	res, err := New(opts, nil).Augment(context.Background(), pg)
	require.NoError(t, err)

	doc, err := page.ParseBytes(res.HTML)
	require.NoError(t, err)
	style, _ := doc.Find("div.input").Attr("style")
	assert.Equal(t, "display: flex", style)
	_, checked := doc.Find("#show_source").Attr("checked")
	assert.True(t, checked)
}

func TestAugment_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(DefaultOptions(), nil).Augment(ctx, &doctree.Page{HTML: []byte("<html></html>")})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutline(t *testing.T) {
	pg := convert(t, "guide.md", "# A\n\n## B\n\n## C\n")
	res, err := New(DefaultOptions(), nil).Outline(context.Background(), pg, DefaultOptions().TOC)
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)
	assert.Equal(t, "1.2", res.Entries[2].Label)
	assert.Equal(t, "c-12", res.Entries[2].Target)
}
