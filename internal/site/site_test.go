package site

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/nbtoc/internal/augment"
)

const notebook = `{"nbformat": 4, "nbformat_minor": 5, "metadata": {}, "cells": [
  {"cell_type": "markdown", "metadata": {}, "source": "# Results\n## Run"}]}`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func testTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "2 - Second/b.md", "# B")
	writeFile(t, root, "1 - First/10 - later.ipynb", notebook)
	writeFile(t, root, "1 - First/9 - earlier.md", "# Earlier\n## Part")
	writeFile(t, root, "1 - First/.ipynb_checkpoints/9 - earlier-checkpoint.ipynb", notebook)
	writeFile(t, root, ".git/config.txt", "x")
	writeFile(t, root, "notes.txt", "plain")
	writeFile(t, root, "image.png", "binary")
	return root
}

func TestComparePaths(t *testing.T) {
	paths := []string{
		"zeta.md",
		"2 - b/x.md",
		"10 - c.md",
		"1 - a/y.md",
		"1 - a/2 - z.md",
		"alpha.md",
	}
	SortPaths(paths)
	assert.Equal(t, []string{
		"1 - a/2 - z.md",
		"1 - a/y.md",
		"2 - b/x.md",
		"10 - c.md",
		"alpha.md",
		"zeta.md",
	}, paths)
}

func TestMatches(t *testing.T) {
	assert.True(t, MatchesInclude("a/b/c.ipynb", nil))
	assert.True(t, MatchesInclude("a/b/c.ipynb", []string{"**/*.ipynb"}))
	assert.True(t, MatchesInclude("a/b/c.ipynb", []string{"*.ipynb"}))
	assert.False(t, MatchesInclude("a/b/c.md", []string{"a/*.md"}))
	assert.True(t, MatchesExclude("drafts/x.md", []string{"drafts/**"}))
	assert.False(t, MatchesExclude("x.md", nil))
}

func TestDiscover(t *testing.T) {
	root := testTree(t)
	b := New(Options{Input: root, Output: filepath.Join(root, "site")}, nil, nil)

	files, err := b.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"1 - First/9 - earlier.md",
		"1 - First/10 - later.ipynb",
		"2 - Second/b.md",
		"notes.txt",
	}, files)
}

func TestDiscover_IncludeExclude(t *testing.T) {
	root := testTree(t)
	b := New(Options{
		Input:   root,
		Output:  t.TempDir(),
		Include: []string{"**/*.ipynb", "**/*.md"},
		Exclude: []string{"2 - Second"},
	}, nil, nil)

	files, err := b.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"1 - First/9 - earlier.md", "1 - First/10 - later.ipynb"}, files)
}

func TestBuild(t *testing.T) {
	root := testTree(t)
	out := filepath.Join(root, "site")
	var progress bytes.Buffer
	opts := augment.DefaultOptions()
	opts.Sidebar.Homepage = "Home"
	b := New(Options{
		Input:       root,
		Output:      out,
		Concurrency: 3,
		Index:       true,
		Title:       "Logbook",
		Augment:     opts,
	}, &CIReporter{w: &progress}, nil)

	report, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Failed)
	require.Len(t, report.Pages, 4)
	assert.Equal(t, "1 - First/9 - earlier.html", report.Pages[0].Output)
	assert.Equal(t, 2, report.Pages[0].Headings)
	assert.Equal(t, "10 - later", report.Pages[1].Title)

	page, err := os.ReadFile(filepath.Join(out, "1 - First", "10 - later.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), `id="results-1"`)
	assert.Contains(t, string(page), `href="../index.html"`)

	index, err := os.ReadFile(filepath.Join(out, IndexFile))
	require.NoError(t, err)
	s := string(index)
	assert.Contains(t, s, "<title>Logbook</title>")
	assert.Contains(t, s, `<a href="1%20-%20First/index.html">1 - First</a>`)
	assert.Contains(t, s, `<a href="1%20-%20First/9%20-%20earlier.html">Earlier</a>`)
	assert.Less(t, strings.Index(s, ">Earlier<"), strings.Index(s, ">10 - later<"))
	assert.Less(t, strings.Index(s, ">10 - later<"), strings.Index(s, ">B<"))
	assert.Less(t, strings.Index(s, ">B<"), strings.Index(s, ">notes<"))

	sub, err := os.ReadFile(filepath.Join(out, "1 - First", IndexFile))
	require.NoError(t, err)
	assert.Contains(t, string(sub), "<title>1 - First</title>")
	assert.Contains(t, string(sub), `<a href="10%20-%20later.html">10 - later</a>`)
	assert.Contains(t, string(sub), `href="../index.html"`)

	assert.Contains(t, progress.String(), "Building 4 pages")
	assert.Contains(t, progress.String(), "[4/4]")
}

func TestBuild_ReportsFailures(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "good.md", "# Good")
	writeFile(t, root, "bad.ipynb", "{not json")

	report, err := New(Options{Input: root, Output: t.TempDir()}, nil, nil).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "bad.ipynb", report.Failed[0].Source)
	require.Len(t, report.Pages, 1)
	assert.Equal(t, "good.html", report.Pages[0].Output)
}

func TestRelativeIndex(t *testing.T) {
	assert.Equal(t, "index.html", relativeIndex("a.md"))
	assert.Equal(t, "../../index.html", relativeIndex("x/y/a.md"))
}

func notebookJSON(t *testing.T, cells ...string) string {
	t.Helper()
	nb := map[string]any{"nbformat": 4, "nbformat_minor": 5, "metadata": map[string]any{}}
	var cs []map[string]any
	for _, c := range cells {
		cs = append(cs, map[string]any{"cell_type": "markdown", "metadata": map[string]any{}, "source": c})
	}
	nb["cells"] = cs
	b, err := json.Marshal(nb)
	require.NoError(t, err)
	return string(b)
}

func TestBuild_FolderIndexes(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "site")
	writeFile(t, root, "1 - Runs/run summary.ipynb", notebookJSON(t, "# Overview\nAll runs passed."))
	writeFile(t, root, "1 - Runs/1 - first.ipynb", notebookJSON(t, "# Setup", "# Summary", "Loss fell to **0.1**.", "# Details"))
	writeFile(t, root, "1 - Runs/2 - second.md", "# Second")
	writeFile(t, root, "0 - Summary/notes.md", "# Notes")

	report, err := New(Options{Input: root, Output: out, Index: true}, nil, nil).Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Failed)
	for _, p := range report.Pages {
		if p.Source == "1 - Runs/1 - first.ipynb" {
			assert.Equal(t, "Loss fell to **0.1**.", p.Summary)
		}
	}

	runs, err := os.ReadFile(filepath.Join(out, "1 - Runs", IndexFile))
	require.NoError(t, err)
	s := string(runs)
	assert.Contains(t, s, "All runs passed.")
	assert.Contains(t, s, "<strong>0.1</strong>")
	assert.Contains(t, s, `<a href="1%20-%20first.html">1 - first</a>`)
	assert.Less(t, strings.Index(s, "All runs passed."), strings.Index(s, ">1 - first<"))
	assert.Less(t, strings.Index(s, ">1 - first<"), strings.Index(s, ">Second<"))
	assert.NotContains(t, s, ">run summary<")

	home, err := os.ReadFile(filepath.Join(out, IndexFile))
	require.NoError(t, err)
	assert.Contains(t, string(home), `<a href="1%20-%20Runs/2%20-%20second.html">Second</a>`)
	assert.NotContains(t, string(home), "0%20-%20Summary")
	assert.FileExists(t, filepath.Join(out, "0 - Summary", "notes.html"))
	assert.NoFileExists(t, filepath.Join(out, "0 - Summary", IndexFile))
}

func TestBuild_IndexConflict(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "site")
	writeFile(t, root, "index.md", "# Welcome\nHand-written front page.")
	writeFile(t, root, "other.md", "# Other")

	report, err := New(Options{Input: root, Output: out, Index: true}, nil, nil).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Pages, 2)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "index.md", report.Failed[0].Source)
	assert.ErrorIs(t, report.Failed[0], ErrIndexConflict)

	index, err := os.ReadFile(filepath.Join(out, IndexFile))
	require.NoError(t, err)
	assert.Contains(t, string(index), "Hand-written front page.")
}
