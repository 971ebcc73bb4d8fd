package outline

// List is one level of the table of contents.
type List struct {
	Items  []*Item
	parent *List
}

// Item is a row of a List. An item with a nil Entry is a list nested
// directly inside its parent, left behind when the outline descends more than
// one level at once.
type Item struct {
	Entry *Entry
	Sub   *List
}

// Walk visits every entry depth first in document order.
func (l *List) Walk(fn func(e *Entry, depth int)) {
	l.walk(fn, 1)
}

func (l *List) walk(fn func(e *Entry, depth int), depth int) {
	for _, it := range l.Items {
		if it.Entry != nil {
			fn(it.Entry, depth)
		}
		if it.Sub != nil {
			it.Sub.walk(fn, depth+1)
		}
	}
}

// Len counts the entries in the list and all of its descendants.
func (l *List) Len() int {
	n := 0
	l.Walk(func(*Entry, int) { n++ })
	return n
}

// treeBuilder appends entries at their normalized level. The current list
// always holds the last item added, so descending starts from it.
type treeBuilder struct {
	list  *List
	last  *Item
	depth int
}

func newTreeBuilder(root *List) *treeBuilder {
	return &treeBuilder{list: root, depth: 1}
}

func (b *treeBuilder) add(e *Entry) {
	// walk down levels
	for ; b.depth < e.Level; b.depth++ {
		sub := &List{parent: b.list}
		if b.last != nil && b.last.Sub == nil {
			b.last.Sub = sub
		} else {
			b.list.Items = append(b.list.Items, &Item{Sub: sub})
		}
		b.list = sub
		b.last = nil
	}
	// walk up levels
	for ; b.depth > e.Level; b.depth-- {
		b.list = b.list.parent
	}

	it := &Item{Entry: e}
	b.list.Items = append(b.list.Items, it)
	b.last = it
}
