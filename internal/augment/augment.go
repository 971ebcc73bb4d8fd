// Package augment turns a converted page into its navigable form: sidebar,
// numbered table of contents and initial display state.
package augment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/nbtoc/internal/doctree"
	"github.com/dgallion1/nbtoc/internal/outline"
	"github.com/dgallion1/nbtoc/internal/page"
)

// Options is everything an augmentation run needs. Callers own it; nothing
// is read from globals.
type Options struct {
	TOC     outline.Config
	Sidebar page.SidebarOptions
	Display page.DisplayState
}

// DefaultOptions numbers every heading, adds the sidebar with its control
// panel and hides code and prompts.
func DefaultOptions() Options {
	return Options{
		TOC:     outline.DefaultConfig(),
		Sidebar: page.SidebarOptions{Controls: true},
	}
}

// Result is an augmented page.
type Result struct {
	Title   string
	HTML    []byte
	Entries []*outline.Entry
}

// Augmenter applies Options to pages.
type Augmenter struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options, log *slog.Logger) *Augmenter {
	if log == nil {
		log = slog.Default()
	}
	return &Augmenter{opts: opts, log: log}
}

// Augment renders p with a sidebar, table of contents and display state.
func (a *Augmenter) Augment(ctx context.Context, p *doctree.Page) (*Result, error) {
	return a.AugmentWith(ctx, p, a.opts)
}

// AugmentWith is Augment with per-call options.
func (a *Augmenter) AugmentWith(ctx context.Context, p *doctree.Page, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := page.ParseBytes(p.HTML)
	if err != nil {
		return nil, fmt.Errorf("augment %s: %w", p.Filename, err)
	}

	doc.AttachSidebar(opts.Sidebar)
	res := doc.BuildTOC(opts.TOC)
	doc.ApplyDisplay(opts.Display)

	out, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("augment %s: %w", p.Filename, err)
	}

	title := p.Title
	if t := doc.Title(); t != "" {
		title = t
	}
	a.log.Debug("augmented page",
		"file", p.Filename,
		"headings", len(res.Mutations),
		"entries", len(res.Entries),
	)
	return &Result{Title: title, HTML: out, Entries: res.Entries}, nil
}

// Outline numbers p's headings without rendering the page.
func (a *Augmenter) Outline(ctx context.Context, p *doctree.Page, cfg outline.Config) (*outline.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := page.ParseBytes(p.HTML)
	if err != nil {
		return nil, fmt.Errorf("outline %s: %w", p.Filename, err)
	}
	return outline.Build(doc.Headings(), cfg), nil
}
