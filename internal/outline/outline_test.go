package outline

import (
	"math/rand/v2"
	"strings"
	"testing"
)

func sampleHeadings() []Heading {
	return []Heading{
		{Level: 2, ID: "a", Content: "Intro"},
		{Level: 3, ID: "b", Content: "Setup"},
		{Level: 2, ID: "c", Content: "Next"},
	}
}

// rerun feeds the result of a previous Build back as the next run's input,
// the way a page looks after the mutations were applied.
func rerun(hs []Heading, res *Result) []Heading {
	out := make([]Heading, len(hs))
	copy(out, hs)
	for _, m := range res.Mutations {
		h := out[m.Index]
		h.ID = m.ID
		h.SavedID = m.SavedID
		if m.InsertAnchor {
			h.Anchors = append(append([]string(nil), h.Anchors...), m.SavedID)
		}
		out[m.Index] = h
	}
	return out
}

func TestBuild_LabelsAndIDs(t *testing.T) {
	res := Build(sampleHeadings(), DefaultConfig())

	wantLabels := []string{"1", "1.1", "2"}
	wantIDs := []string{"a-1", "b-11", "c-2"}
	if len(res.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(res.Entries))
	}
	for i, e := range res.Entries {
		if e.Label != wantLabels[i] {
			t.Errorf("entry[%d]: expected label %q, got %q", i, wantLabels[i], e.Label)
		}
		if e.Target != wantIDs[i] {
			t.Errorf("entry[%d]: expected target %q, got %q", i, wantIDs[i], e.Target)
		}
		if res.Mutations[i].ID != wantIDs[i] {
			t.Errorf("mutation[%d]: expected id %q, got %q", i, wantIDs[i], res.Mutations[i].ID)
		}
		if !res.Mutations[i].InsertAnchor {
			t.Errorf("mutation[%d]: expected anchor insertion on first run", i)
		}
	}

	// Two top-level entries, the first with one nested child.
	if len(res.Tree.Items) != 2 {
		t.Fatalf("expected 2 top-level items, got %d", len(res.Tree.Items))
	}
	first := res.Tree.Items[0]
	if first.Entry.Text != "Intro" {
		t.Errorf("expected first entry %q, got %q", "Intro", first.Entry.Text)
	}
	if first.Sub == nil || len(first.Sub.Items) != 1 {
		t.Fatalf("expected first entry to have 1 child")
	}
	if got := first.Sub.Items[0].Entry.Text; got != "Setup" {
		t.Errorf("expected nested entry %q, got %q", "Setup", got)
	}
	if res.Tree.Items[1].Sub != nil {
		t.Errorf("expected second entry to have no children")
	}
}

func TestBuild_Threshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 1
	res := Build(sampleHeadings(), cfg)

	if len(res.Tree.Items) != 2 {
		t.Fatalf("expected 2 top-level items, got %d", len(res.Tree.Items))
	}
	for _, it := range res.Tree.Items {
		if it.Sub != nil {
			t.Errorf("expected no nested lists with threshold 1")
		}
	}
	for _, m := range res.Mutations {
		if m.Index == 1 {
			t.Errorf("expected Setup heading to be left untouched, got mutation %+v", m)
		}
	}
	if res.Entries[1].Target != "c-2" {
		t.Errorf("expected %q, got %q", "c-2", res.Entries[1].Target)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	hs := sampleHeadings()
	first := Build(hs, DefaultConfig())
	second := Build(rerun(hs, first), DefaultConfig())

	if len(second.Entries) != len(first.Entries) {
		t.Fatalf("expected %d entries, got %d", len(first.Entries), len(second.Entries))
	}
	for i := range first.Entries {
		if *first.Entries[i] != *second.Entries[i] {
			t.Errorf("entry[%d] changed between runs: %+v vs %+v", i, first.Entries[i], second.Entries[i])
		}
		if second.Mutations[i].InsertAnchor {
			t.Errorf("mutation[%d]: saved-id anchor would be duplicated", i)
		}
	}

	third := Build(rerun(rerun(hs, first), second), DefaultConfig())
	for i, e := range third.Entries {
		if strings.Count(e.Target, "-") != 1 {
			t.Errorf("entry[%d]: expected a single label suffix, got %q", i, e.Target)
		}
	}
}

func TestBuild_SkipsHeadingsWithoutID(t *testing.T) {
	hs := []Heading{
		{Level: 1, ID: "top", Content: "Top"},
		{Level: 2, Content: "Anonymous"},
		{Level: 2, ID: "named", Content: "Named"},
	}
	res := Build(hs, DefaultConfig())

	if res.Tree.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", res.Tree.Len())
	}
	res.Tree.Walk(func(e *Entry, _ int) {
		if e.Text == "Anonymous" {
			t.Errorf("expected heading without id to be excluded")
		}
	})
	if res.Entries[1].Label != "1.1" {
		t.Errorf("expected %q, got %q", "1.1", res.Entries[1].Label)
	}
}

func TestBuild_MinimumLevelNormalization(t *testing.T) {
	hs := []Heading{
		{Level: 3, ID: "x"},
		{Level: 4, ID: "y"},
		{Level: 5, ID: "z"},
	}
	res := Build(hs, DefaultConfig())
	want := []string{"1", "1.1", "1.1.1"}
	for i, e := range res.Entries {
		if e.Label != want[i] {
			t.Errorf("entry[%d]: expected %q, got %q", i, want[i], e.Label)
		}
		if e.Level != i+1 {
			t.Errorf("entry[%d]: expected level %d, got %d", i, i+1, e.Level)
		}
	}
}

func TestBuild_DescendingSeveralLevels(t *testing.T) {
	hs := []Heading{
		{Level: 1, ID: "a"},
		{Level: 3, ID: "b"},
		{Level: 1, ID: "c"},
	}
	res := Build(hs, DefaultConfig())

	if res.Entries[1].Label != "1.0.1" {
		t.Errorf("expected %q, got %q", "1.0.1", res.Entries[1].Label)
	}
	first := res.Tree.Items[0]
	if first.Sub == nil || len(first.Sub.Items) != 1 {
		t.Fatalf("expected one nested list under the first entry")
	}
	gap := first.Sub.Items[0]
	if gap.Entry != nil {
		t.Fatalf("expected a directly nested list, got entry %+v", gap.Entry)
	}
	if gap.Sub == nil || gap.Sub.Items[0].Entry.Target != "b-101" {
		t.Errorf("expected b-101 two levels down")
	}
	if len(res.Tree.Items) != 2 || res.Tree.Items[1].Entry.Target != "c-2" {
		t.Errorf("expected c-2 back at the top level")
	}
}

func TestBuild_FirstHeadingBelowTop(t *testing.T) {
	// The shallowest heading has no id, so the first entry starts one level
	// down inside a directly nested list.
	hs := []Heading{
		{Level: 1},
		{Level: 2, ID: "b"},
	}
	res := Build(hs, DefaultConfig())
	if len(res.Tree.Items) != 1 || res.Tree.Items[0].Entry != nil {
		t.Fatalf("expected a single directly nested list at the root")
	}
	if got := res.Entries[0].Label; got != "0.1" {
		t.Errorf("expected %q, got %q", "0.1", got)
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	res := Build(nil, DefaultConfig())
	if res.Tree == nil {
		t.Fatal("expected an empty tree, got nil")
	}
	if len(res.Entries) != 0 || len(res.Mutations) != 0 {
		t.Errorf("expected no entries or mutations")
	}
}

func TestBuild_EmptyContentStillProducesEntry(t *testing.T) {
	res := Build([]Heading{{Level: 2, ID: "blank"}}, DefaultConfig())
	if len(res.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(res.Entries))
	}
	if res.Entries[0].Text != "" {
		t.Errorf("expected empty link text, got %q", res.Entries[0].Text)
	}
}

func TestBuild_SanitizesOriginalID(t *testing.T) {
	res := Build([]Heading{{Level: 1, ID: `The-$x^2$-case\`}}, DefaultConfig())
	m := res.Mutations[0]
	if m.SavedID != "The-x^2-case" {
		t.Errorf("expected saved id %q, got %q", "The-x^2-case", m.SavedID)
	}
	if m.ID != "The-x^2-case-1" {
		t.Errorf("expected id %q, got %q", "The-x^2-case-1", m.ID)
	}
}

func TestBuild_EmptyStripCharsKeepsID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StripChars = ""
	res := Build([]Heading{{Level: 1, ID: `The-$x$-case`}}, cfg)
	if got := res.Mutations[0].SavedID; got != `The-$x$-case` {
		t.Errorf("expected id kept as-is, got %q", got)
	}

	cfg.StripChars = "-"
	res = Build([]Heading{{Level: 1, ID: `The-$x$-case`}}, cfg)
	if got := res.Mutations[0].SavedID; got != `The$x$case` {
		t.Errorf("expected custom strip set applied, got %q", got)
	}
}

func TestBuild_KeepsExistingSavedID(t *testing.T) {
	hs := []Heading{{Level: 1, ID: "intro-7", SavedID: "intro", Anchors: []string{"intro"}}}
	res := Build(hs, DefaultConfig())
	if res.Mutations[0].ID != "intro-1" {
		t.Errorf("expected %q, got %q", "intro-1", res.Mutations[0].ID)
	}
	if res.Mutations[0].InsertAnchor {
		t.Errorf("expected existing anchor to be reused")
	}
}

func TestBuild_LabelProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for run := 0; run < 200; run++ {
		n := 1 + r.IntN(30)
		hs := make([]Heading, n)
		for i := range hs {
			hs[i] = Heading{Level: 1 + r.IntN(6), ID: "h"}
			if r.IntN(8) == 0 {
				hs[i].ID = ""
			}
		}
		cfg := DefaultConfig()
		cfg.Threshold = 1 + r.IntN(6)
		res := Build(hs, cfg)

		minLevel := MinLevel(hs)
		var prev []string
		for _, e := range res.Entries {
			h := hs[e.Index]
			if h.ID == "" {
				t.Fatalf("run %d: heading without id in outline", run)
			}
			if e.Level > cfg.Threshold {
				t.Fatalf("run %d: level %d above threshold %d", run, e.Level, cfg.Threshold)
			}
			if e.Level != h.Level-minLevel+1 {
				t.Fatalf("run %d: expected normalized level %d, got %d", run, h.Level-minLevel+1, e.Level)
			}
			parts := strings.Split(e.Label, ".")
			if len(parts) != e.Level {
				t.Fatalf("run %d: label %q has %d parts for level %d", run, e.Label, len(parts), e.Level)
			}
			// A later entry at level k shares the prefix up to k-1 with its
			// predecessor whenever the predecessor was at least as deep.
			if prev != nil && len(prev) >= len(parts) {
				for i := 0; i < len(parts)-1; i++ {
					if parts[i] != prev[i] {
						t.Fatalf("run %d: %q does not share prefix with %q", run, e.Label, strings.Join(prev, "."))
					}
				}
			}
			prev = parts
		}
		if res.Tree.Len() != len(res.Entries) {
			t.Fatalf("run %d: tree has %d entries, result has %d", run, res.Tree.Len(), len(res.Entries))
		}
		res.Tree.Walk(func(e *Entry, depth int) {
			if depth != e.Level {
				t.Fatalf("run %d: entry %q at depth %d, level %d", run, e.Label, depth, e.Level)
			}
		})
	}
}
