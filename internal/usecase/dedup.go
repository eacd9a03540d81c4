package usecase

import "strings"

// TitleKey normalizes a page title into the dedup grouping key:
// trimmed and case-folded. Grouping is purely literal text, so
// error-page or placeholder titles that render identically group
// together.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// DedupRegistry tracks which normalized titles have been seen during a
// run and which target produced each one first. It grows monotonically
// and lives only for the duration of one run. The run processes one
// target at a time, so no locking is needed.
type DedupRegistry struct {
	seen map[string]int
}

// NewDedupRegistry creates an empty registry.
func NewDedupRegistry() *DedupRegistry {
	return &DedupRegistry{seen: make(map[string]int)}
}

// Classify records the title for the given target index. The first
// occurrence of a title key always wins, regardless of content
// quality: the second return is false and firstIndex echoes index. On
// a repeat, it returns the index of the first occurrence and true.
func (r *DedupRegistry) Classify(title string, index int) (firstIndex int, duplicate bool) {
	key := TitleKey(title)
	if first, ok := r.seen[key]; ok {
		return first, true
	}
	r.seen[key] = index
	return index, false
}

// Len returns the number of distinct title keys seen so far.
func (r *DedupRegistry) Len() int {
	return len(r.seen)
}
