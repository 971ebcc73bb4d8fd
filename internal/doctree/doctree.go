package doctree

import (
	"encoding/json"
	"strings"
)

// Page is a document ready for augmentation.
type Page struct {
	Title    string // Page title (from <title>, notebook metadata or filename)
	Filename string // Source filename
	HTML     []byte // Full HTML document
}

// Notebook is an nbformat v4 notebook.
type Notebook struct {
	Cells         []*Cell        `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

// Cell is a single notebook cell.
type Cell struct {
	CellType       string          `json:"cell_type"` // "markdown", "code" or "raw"
	Source         MultilineString `json:"source"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
	ExecutionCount *int            `json:"execution_count,omitempty"`
	Outputs        []*Output       `json:"outputs,omitempty"`
}

// Output is one output of a code cell.
type Output struct {
	OutputType     string                     `json:"output_type"` // stream, execute_result, display_data, error
	Name           string                     `json:"name,omitempty"`
	Text           MultilineString            `json:"text,omitempty"`
	Data           map[string]MultilineString `json:"data,omitempty"`
	ExecutionCount *int                       `json:"execution_count,omitempty"`
	EName          string                     `json:"ename,omitempty"`
	EValue         string                     `json:"evalue,omitempty"`
	Traceback      []string                   `json:"traceback,omitempty"`
}

// MultilineString is nbformat's string-or-list-of-lines value. Any other
// JSON value (e.g. an application/json bundle) is kept as raw JSON text.
type MultilineString string

func (m *MultilineString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = MultilineString(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(b, &lines); err == nil {
		*m = MultilineString(strings.Join(lines, ""))
		return nil
	}
	*m = MultilineString(b)
	return nil
}

func (m MultilineString) String() string {
	return string(m)
}

// Title returns the notebook's metadata title, if any.
func (n *Notebook) Title() string {
	if t, ok := n.Metadata["title"].(string); ok {
		return t
	}
	return ""
}
