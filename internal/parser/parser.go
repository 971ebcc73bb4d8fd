package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/nbtoc/internal/doctree"
)

// Parser converts a source document into an HTML page.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Page, error)
}

// Options control notebook conversion. The zero value converts cells as-is.
type Options struct {
	DropJavaScript bool   `yaml:"drop_javascript" koanf:"drop_javascript"`   // Drop outputs carrying application/javascript.
	DropStderr     bool   `yaml:"drop_stderr" koanf:"drop_stderr"`           // Drop stderr stream outputs.
	StartAtSummary bool   `yaml:"start_at_summary" koanf:"start_at_summary"`
	WrapWidth      int    `yaml:"wrap_width" koanf:"wrap_width"`             // Wrap printed lines longer than this; 0 disables.
	MinHeaderLevel int    `yaml:"min_header_level" koanf:"min_header_level"` // Shift headings so the shallowest has this level; 0 disables.
	LinkBase       string `yaml:"link_base" koanf:"link_base"`               // Prefix for in-page links, e.g. "page.html".
	Language       string `yaml:"language" koanf:"language"`                 // Code cell language when the notebook does not say.
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".html":     true,
	".htm":      true,
	".ipynb":    true,
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".ipynb":
		return &NotebookParser{Options: opts}, nil
	case ".md", ".markdown":
		return &MarkdownParser{Options: opts}, nil
	case ".txt":
		return &TextParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// OutputName maps a source filename to the name of its HTML page.
func OutputName(filename string) string {
	ext := filepath.Ext(filename)
	switch strings.ToLower(ext) {
	case ".html":
		return filename
	case "":
		return filename + ".html"
	}
	return strings.TrimSuffix(filename, ext) + ".html"
}

func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
