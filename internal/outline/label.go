package outline

import (
	"strconv"
	"strings"
)

// LabelVector holds one counter per heading level, from the minimum level
// present in a document down to level 6.
type LabelVector struct {
	counters []int
}

// NewLabelVector returns a zeroed vector for documents whose shallowest
// heading is minLevel.
func NewLabelVector(minLevel int) *LabelVector {
	if minLevel < 1 || minLevel > 6 {
		minLevel = 1
	}
	return &LabelVector{counters: make([]int, 6-minLevel+1)}
}

// Len is the number of slots in the vector.
func (v *LabelVector) Len() int {
	return len(v.counters)
}

// Incr bumps the counter at slot idx (zero based), zeroes every deeper slot
// and returns a copy of the counters up to and including idx.
func (v *LabelVector) Incr(idx int) []int {
	if idx < 0 {
		idx = 0
	}
	if idx >= len(v.counters) {
		idx = len(v.counters) - 1
	}
	v.counters[idx]++
	for j := idx + 1; j < len(v.counters); j++ {
		v.counters[j] = 0
	}
	out := make([]int, idx+1)
	copy(out, v.counters[:idx+1])
	return out
}

// JoinLabel renders counters as a dotted label, e.g. [1 2] -> "1.2".
func JoinLabel(counters []int) string {
	parts := make([]string, len(counters))
	for i, c := range counters {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ".")
}
