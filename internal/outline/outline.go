// Package outline numbers document headings and builds the nested table of
// contents that links to them. It is a pure transform: callers extract
// headings from their document, call Build, and apply the returned mutations.
package outline

import "slices"

// DefaultThreshold includes every heading level.
const DefaultThreshold = 6

// Config controls numbering and anchor rewriting.
type Config struct {
	Threshold      int    // Deepest normalized level to include (1-6).
	NumberSections bool   // Whether labels are visible on headings and entries.
	StripChars     string // Removed from ids before saving; empty strips nothing.
	EscapeChars    string // Escaped when an id is used in a selector; whitespace always is.
}

// DefaultConfig returns a config that numbers every level.
func DefaultConfig() Config {
	return Config{
		Threshold:      DefaultThreshold,
		NumberSections: true,
		StripChars:     DefaultStripChars,
		EscapeChars:    DefaultEscapeChars,
	}
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 || c.Threshold > 6 {
		c.Threshold = DefaultThreshold
	}
	return c
}

// Heading is a heading element as seen by the builder.
type Heading struct {
	Level   int      // Tag level, 1-6.
	ID      string   // Live id; empty headings are not linkable.
	SavedID string   // Original id saved by a previous run, if any.
	Anchors []string // Names of named anchors already inside the heading.
	Content string   // Link HTML: heading content without labels or anchors.
}

// Entry is one numbered, linked row of the table of contents.
type Entry struct {
	Index   int    `json:"index"` // Position of the heading in the input.
	Level   int    `json:"level"` // Normalized level.
	Label   string `json:"label"`
	Target  string `json:"target"`
	SavedID string `json:"saved_id"`
	Text    string `json:"text"`
}

// Mutation is the change to write back onto heading Index.
type Mutation struct {
	Index        int
	ID           string
	SavedID      string
	InsertAnchor bool // Prepend <a name=SavedID> to the heading.
	Label        string
}

// Result is the output of a single Build.
type Result struct {
	Tree           *List
	Entries        []*Entry
	Mutations      []Mutation
	NumberSections bool
	EscapeChars    string
}

// MinLevel returns the shallowest valid heading level, or 0 when there is
// none.
func MinLevel(headings []Heading) int {
	lowest := 0
	for _, h := range headings {
		if h.Level < 1 || h.Level > 6 {
			continue
		}
		if lowest == 0 || h.Level < lowest {
			lowest = h.Level
		}
	}
	return lowest
}

// Build numbers headings in document order and nests an entry for each
// eligible one. Headings deeper than cfg.Threshold or without an id are
// skipped and left untouched.
func Build(headings []Heading, cfg Config) *Result {
	cfg = cfg.withDefaults()
	res := &Result{
		Tree:           &List{},
		NumberSections: cfg.NumberSections,
		EscapeChars:    cfg.EscapeChars,
	}

	minLevel := MinLevel(headings)
	if minLevel == 0 {
		return res
	}
	labels := NewLabelVector(minLevel)
	tb := newTreeBuilder(res.Tree)

	for i, h := range headings {
		if h.Level < 1 || h.Level > 6 {
			continue
		}
		level := h.Level - minLevel + 1
		if level > cfg.Threshold {
			continue
		}
		if h.ID == "" {
			continue
		}

		label := JoinLabel(labels.Incr(level - 1))

		savedID := h.SavedID
		if savedID == "" {
			savedID = Sanitize(h.ID, cfg.StripChars)
		}
		id := AnchorID(savedID, label)

		entry := &Entry{
			Index:   i,
			Level:   level,
			Label:   label,
			Target:  id,
			SavedID: savedID,
			Text:    h.Content,
		}
		tb.add(entry)
		res.Entries = append(res.Entries, entry)
		res.Mutations = append(res.Mutations, Mutation{
			Index:        i,
			ID:           id,
			SavedID:      savedID,
			InsertAnchor: !slices.Contains(h.Anchors, savedID),
			Label:        label,
		})
	}

	return res
}
