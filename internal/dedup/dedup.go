// Package dedup provides the run-scoped duplicate index. The index is an
// explicit value owned by one pipeline run and discarded with it; nothing
// here is process-global.
package dedup

import "sync"

// Index records question hashes seen during a run. Safe for concurrent
// use by the per-file workers.
type Index struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{seen: make(map[string]bool)}
}

// Seen records hash and reports whether it was already present. The
// check-and-record is atomic, so exactly one caller wins for any hash.
func (i *Index) Seen(hash string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.seen[hash] {
		return true
	}
	i.seen[hash] = true
	return false
}

// Len returns the number of distinct hashes recorded.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.seen)
}
