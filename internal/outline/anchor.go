package outline

import (
	"strings"
	"unicode"
)

// DefaultStripChars are removed from heading ids before they are saved.
// Exported notebooks leave math delimiters in ids generated from titles.
const DefaultStripChars = `$\`

// DefaultEscapeChars is the set of characters escaped when an id is used
// inside a CSS attribute selector. Whitespace is always escaped as well.
// The set is not exhaustive for every anchor syntax; callers that need more
// pass their own through Config.EscapeChars.
const DefaultEscapeChars = `-[]{}():/!;&@=$£%§<>"'*+?.,~\^|#`

// Sanitize removes every rune of strip from id.
func Sanitize(id, strip string) string {
	if strip == "" {
		return id
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(strip, r) {
			return -1
		}
		return r
	}, id)
}

// Escape backslash-escapes every rune of id that appears in set, plus any
// whitespace.
func Escape(id, set string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if unicode.IsSpace(r) || strings.ContainsRune(set, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// AnchorID is the rewritten heading id: the saved id followed by the label
// digits, e.g. ("intro", "1.2") -> "intro-12".
func AnchorID(savedID, label string) string {
	return savedID + "-" + strings.ReplaceAll(label, ".", "")
}
