// Package site converts a directory of notebooks and documents into a linked
// set of augmented HTML pages.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dgallion1/nbtoc/internal/augment"
	"github.com/dgallion1/nbtoc/internal/parser"
)

// IndexFile is the index page written into every folder of the site.
const IndexFile = "index.html"

// ErrIndexConflict reports a page whose output is a folder's index file.
// The page is kept and the generated index for that folder is skipped.
var ErrIndexConflict = errors.New("page output collides with the folder index")

type Options struct {
	Input       string
	Output      string
	Include     []string
	Exclude     []string
	Concurrency int
	Index       bool // Write IndexFile per folder and point every sidebar's home link at the root one.
	Title       string

	Parser  parser.Options
	Augment augment.Options
}

// PageInfo describes one written page.
type PageInfo struct {
	Source   string `json:"source"` // Relative to the input directory.
	Output   string `json:"output"` // Relative to the output directory.
	Title    string `json:"title"`
	Headings int    `json:"headings"`
	Summary  string `json:"summary,omitempty"` // First "# Summary" cell of a notebook.
}

// FileError is a page that could not be built.
type FileError struct {
	Source string
	Err    error
}

func (e FileError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Report summarizes a build.
type Report struct {
	Pages  []PageInfo
	Failed []FileError
}

type Builder struct {
	opts      Options
	augmenter *augment.Augmenter
	reporter  Reporter
	log       *slog.Logger
}

func New(opts Options, reporter Reporter, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Builder{
		opts:      opts,
		augmenter: augment.New(opts.Augment, log),
		reporter:  reporter,
		log:       log,
	}
}

// Discover returns the relative paths of every supported file under the
// input directory that passes the include and exclude filters.
func (b *Builder) Discover() ([]string, error) {
	outAbs, _ := filepath.Abs(b.opts.Output)
	var files []string
	err := filepath.WalkDir(b.opts.Input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(b.opts.Input, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if shouldExcludeDir(d.Name()) || MatchesExclude(rel, b.opts.Exclude) {
				return filepath.SkipDir
			}
			if abs, _ := filepath.Abs(path); abs == outAbs {
				return filepath.SkipDir
			}
			return nil
		}
		if !parser.IsSupportedExtension(rel) {
			return nil
		}
		if !MatchesInclude(rel, b.opts.Include) || MatchesExclude(rel, b.opts.Exclude) {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", b.opts.Input, err)
	}
	SortPaths(files)
	return files, nil
}

// Build converts every discovered file with bounded concurrency. A page
// that fails is reported in Report.Failed and does not stop the others.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	files, err := b.Discover()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(b.opts.Output, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	b.reporter.Start(len(files))
	defer b.reporter.Finish()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		done   int
		report = &Report{}
		sem    = make(chan struct{}, b.opts.Concurrency)
	)
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(rel string) {
			defer wg.Done()
			defer func() { <-sem }()

			info, err := b.buildPage(ctx, rel)

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				b.log.Error("page failed", "file", rel, "error", err)
				report.Failed = append(report.Failed, FileError{Source: rel, Err: err})
			} else {
				report.Pages = append(report.Pages, info)
			}
			b.reporter.Update(done, rel)
		}(rel)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return report, err
	}

	SortPages(report.Pages)
	if b.opts.Index {
		conflicts, err := b.writeIndexes(ctx, files, report.Pages)
		if err != nil {
			return report, err
		}
		report.Failed = append(report.Failed, conflicts...)
	}
	b.log.Info("site built", "pages", len(report.Pages), "failed", len(report.Failed), "output", b.opts.Output)
	return report, nil
}

func (b *Builder) buildPage(ctx context.Context, rel string) (PageInfo, error) {
	data, err := os.ReadFile(filepath.Join(b.opts.Input, filepath.FromSlash(rel)))
	if err != nil {
		return PageInfo{}, err
	}
	p, err := parser.ForFile(rel, b.opts.Parser)
	if err != nil {
		return PageInfo{}, err
	}
	pg, err := p.Parse(bytes.NewReader(data), rel)
	if err != nil {
		return PageInfo{}, fmt.Errorf("parse: %w", err)
	}

	opts := b.opts.Augment
	if b.opts.Index {
		opts.Sidebar.HomepageHref = relativeIndex(rel)
	}
	res, err := b.augmenter.AugmentWith(ctx, pg, opts)
	if err != nil {
		return PageInfo{}, err
	}

	out := parser.OutputName(rel)
	dst := filepath.Join(b.opts.Output, filepath.FromSlash(out))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return PageInfo{}, err
	}
	if err := os.WriteFile(dst, res.HTML, 0o644); err != nil {
		return PageInfo{}, err
	}
	return PageInfo{
		Source:   rel,
		Output:   out,
		Title:    res.Title,
		Headings: len(res.Entries),
		Summary:  summaryExcerpt(rel, data),
	}, nil
}

// summaryExcerpt is the first cell of a notebook's summary section when it
// is a markdown cell.
func summaryExcerpt(rel string, data []byte) string {
	if !strings.EqualFold(filepath.Ext(rel), ".ipynb") {
		return ""
	}
	nb, err := parser.DecodeNotebook(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	cells := parser.SummaryCells(nb.Cells)
	if len(cells) == 0 || cells[0].CellType != "markdown" {
		return ""
	}
	return cells[0].Source.String()
}

// relativeIndex links a page at rel back to the site index.
func relativeIndex(rel string) string {
	return strings.Repeat("../", strings.Count(rel, "/")) + IndexFile
}
