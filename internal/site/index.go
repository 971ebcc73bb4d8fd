package site

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"html"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/dgallion1/nbtoc/internal/doctree"
	"github.com/dgallion1/nbtoc/internal/parser"
)

// indexedName matches "{index} - {name}" files and folders.
var indexedName = regexp.MustCompile(`^(\d+) - (.+)$`)

type segment struct {
	index   int
	indexed bool
	name    string
}

func parseSegment(s string) segment {
	if m := indexedName.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return segment{index: n, indexed: true, name: m[2]}
		}
	}
	return segment{name: s}
}

// ComparePaths orders slash paths segment by segment: indexed names by their
// index, before unindexed names, which sort by name.
func ComparePaths(a, b string) int {
	as, bs := strings.Split(a, "/"), strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		x, y := parseSegment(as[i]), parseSegment(bs[i])
		switch {
		case x.indexed && !y.indexed:
			return -1
		case !x.indexed && y.indexed:
			return 1
		case x.indexed && y.indexed && x.index != y.index:
			return cmp.Compare(x.index, y.index)
		}
		if c := cmp.Compare(x.name, y.name); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(as), len(bs))
}

func SortPaths(paths []string) {
	slices.SortFunc(paths, ComparePaths)
}

func SortPages(pages []PageInfo) {
	slices.SortFunc(pages, func(a, b PageInfo) int {
		return ComparePaths(a.Source, b.Source)
	})
}

// folder is one directory of the built site and the pages directly in it.
type folder struct {
	dir     string // Slash path relative to the output root; "" is the root.
	pages   []PageInfo
	subs    []*folder
	summary *PageInfo // The folder's "*summary.ipynb", shown at the top of its index.
}

func (f *folder) indexPath() string {
	return path.Join(f.dir, IndexFile)
}

// all returns f and every folder below it, parents first.
func (f *folder) all() []*folder {
	out := []*folder{f}
	for _, s := range f.subs {
		out = append(out, s.all()...)
	}
	return out
}

func parentDir(p string) string {
	if d := path.Dir(p); d != "." {
		return d
	}
	return ""
}

// skippedFolder reports whether dir is, or is inside, a "0 - Summary"
// folder. Those hold summary material and are not indexed.
func skippedFolder(dir string) bool {
	if dir == "" {
		return false
	}
	for _, seg := range strings.Split(dir, "/") {
		if s := parseSegment(seg); s.indexed && s.index == 0 && s.name == "Summary" {
			return true
		}
	}
	return false
}

func isSummaryNotebook(src string) bool {
	return strings.HasSuffix(strings.ToLower(path.Base(src)), "summary.ipynb")
}

// folderTree groups sorted pages into their folders.
func folderTree(pages []PageInfo) *folder {
	root := &folder{}
	byDir := map[string]*folder{"": root}
	var get func(dir string) *folder
	get = func(dir string) *folder {
		if f, ok := byDir[dir]; ok {
			return f
		}
		parent := get(parentDir(dir))
		f := &folder{dir: dir}
		byDir[dir] = f
		parent.subs = append(parent.subs, f)
		return f
	}
	for i := range pages {
		dir := parentDir(pages[i].Source)
		if skippedFolder(dir) {
			continue
		}
		f := get(dir)
		if f.summary == nil && isSummaryNotebook(pages[i].Source) {
			f.summary = &pages[i]
			continue
		}
		f.pages = append(f.pages, pages[i])
	}
	return root
}

// indexLink is one row of a folder index: a page or a sub-folder.
type indexLink struct {
	name    string
	target  string // Slash path relative to the output root.
	key     string // Sort key: the file or folder name.
	summary string
	folder  *folder
}

func (f *folder) children() []indexLink {
	var links []indexLink
	for _, s := range f.subs {
		name := path.Base(s.dir)
		links = append(links, indexLink{name: name, target: s.indexPath(), key: name, folder: s})
	}
	for _, p := range f.pages {
		if p.Output == f.indexPath() {
			continue
		}
		links = append(links, indexLink{name: p.Title, target: p.Output, key: path.Base(p.Source), summary: p.Summary})
	}
	slices.SortStableFunc(links, func(a, b indexLink) int {
		return ComparePaths(a.key, b.key)
	})
	return links
}

// writeIndexes writes an index page into every folder of the site. A folder
// whose index path is already a page's output keeps the page; the skipped
// index is returned as a FileError wrapping ErrIndexConflict.
func (b *Builder) writeIndexes(ctx context.Context, files []string, pages []PageInfo) ([]FileError, error) {
	taken := make(map[string]string, len(files))
	for _, f := range files {
		taken[parser.OutputName(f)] = f
	}

	var conflicts []FileError
	for _, f := range folderTree(pages).all() {
		if err := ctx.Err(); err != nil {
			return conflicts, err
		}
		out := f.indexPath()
		if src, ok := taken[out]; ok {
			b.log.Warn("skipping folder index", "index", out, "page", src)
			conflicts = append(conflicts, FileError{Source: src, Err: fmt.Errorf("%w: %s", ErrIndexConflict, out)})
			continue
		}
		if err := b.writeIndex(ctx, f); err != nil {
			return conflicts, err
		}
	}
	return conflicts, nil
}

func (b *Builder) writeIndex(ctx context.Context, f *folder) error {
	out := f.indexPath()
	nb, err := b.indexNotebook(f)
	if err != nil {
		return fmt.Errorf("index %s: %w", out, err)
	}

	popts := b.opts.Parser
	popts.StartAtSummary = false
	popts.LinkBase = ""
	pg, err := parser.RenderNotebook(nb, out, popts)
	if err != nil {
		return fmt.Errorf("rendering index %s: %w", out, err)
	}

	aopts := b.opts.Augment
	aopts.Sidebar.HomepageHref = relativeIndex(out)
	res, err := b.augmenter.AugmentWith(ctx, pg, aopts)
	if err != nil {
		return fmt.Errorf("augmenting index %s: %w", out, err)
	}

	dst := filepath.Join(b.opts.Output, filepath.FromSlash(out))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dst, res.HTML, 0o644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// indexNotebook assembles a folder index: the folder's summary notebook,
// then one cell per sub-folder (with links to its contents) and per page
// (with its summary excerpt).
func (b *Builder) indexNotebook(f *folder) (*doctree.Notebook, error) {
	nb := &doctree.Notebook{NBFormat: 4, Metadata: map[string]any{}}
	if f.summary != nil {
		data, err := os.ReadFile(filepath.Join(b.opts.Input, filepath.FromSlash(f.summary.Source)))
		if err != nil {
			return nil, err
		}
		summary, err := parser.DecodeNotebook(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.summary.Source, err)
		}
		for k, v := range summary.Metadata {
			nb.Metadata[k] = v
		}
		nb.Cells = summary.Cells
	}
	nb.Metadata["title"] = b.folderTitle(f)

	seen := make(map[string]int)
	for _, l := range f.children() {
		nb.Cells = append(nb.Cells, &doctree.Cell{
			CellType: "markdown",
			Source:   doctree.MultilineString(entrySource(f.dir, l, seen)),
		})
	}
	return nb, nil
}

func (b *Builder) folderTitle(f *folder) string {
	if f.dir != "" {
		return path.Base(f.dir)
	}
	if b.opts.Title != "" {
		return b.opts.Title
	}
	return "Index"
}

// entrySource is the markdown cell for one index row. The heading and link
// list are a raw HTML block so names are not read as markdown.
func entrySource(dir string, l indexLink, seen map[string]int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<h2 id=\"%s\"><a href=\"%s\">%s</a></h2>\n",
		headingID(l.name, seen), linkFrom(dir, l.target), html.EscapeString(l.name))
	if l.folder != nil {
		if kids := l.folder.children(); len(kids) > 0 {
			sb.WriteString("<div class=\"index-links\">\n")
			for _, k := range kids {
				fmt.Fprintf(&sb, "<a href=\"%s\">%s</a><br>\n", linkFrom(dir, k.target), html.EscapeString(k.name))
			}
			sb.WriteString("</div>\n")
		}
	}
	if l.summary != "" {
		sb.WriteString("\n" + l.summary + "\n")
	}
	return sb.String()
}

// linkFrom is the escaped href from a page in dir to target.
func linkFrom(dir, target string) string {
	rel := target
	if dir != "" {
		rel = strings.TrimPrefix(target, dir+"/")
	}
	return html.EscapeString((&url.URL{Path: rel}).String())
}

// headingID turns name into a unique heading id.
func headingID(name string, seen map[string]int) string {
	id := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '-'
	}, name)
	if id == "" {
		id = "section"
	}
	seen[id]++
	if n := seen[id]; n > 1 {
		id = fmt.Sprintf("%s-%d", id, n-1)
	}
	return id
}
