package utils

import "sync"

// Dedup is a thread-safe set of canonical listing URLs. One crawl run owns
// a Dedup for its whole duration: seeded once from the store's existing
// identifiers, then extended synchronously as new records are accepted.
type Dedup struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewDedup creates an empty Dedup.
func NewDedup() *Dedup {
	return &Dedup{seen: make(map[string]struct{})}
}

// Seed marks every URL in the slice as already known.
func (d *Dedup) Seed(urls []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range urls {
		if u != "" {
			d.seen[u] = struct{}{}
		}
	}
}

// Add returns true if the URL was newly added, false if already present.
func (d *Dedup) Add(url string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[url]; exists {
		return false
	}
	d.seen[url] = struct{}{}
	return true
}

// Contains returns true if the URL has already been seen.
func (d *Dedup) Contains(url string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, exists := d.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (d *Dedup) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.seen)
}
