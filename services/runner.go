package services

import "sync"

// Pipeline slot names.
const (
	PipelineCrawl   = "crawl"
	PipelineInquiry = "inquiry"
)

// Runner guards one worker slot per pipeline. The shared rendering session
// cannot survive interleaved navigations, so a trigger while a slot is
// held is rejected rather than queued.
type Runner struct {
	mu   sync.Mutex
	busy map[string]bool
}

// NewRunner creates a Runner with all slots free.
func NewRunner() *Runner {
	return &Runner{busy: make(map[string]bool)}
}

// TryAcquire claims the named slot, returning false if it is already held.
func (r *Runner) TryAcquire(pipeline string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.busy[pipeline] {
		return false
	}
	r.busy[pipeline] = true
	return true
}

// Release frees the named slot.
func (r *Runner) Release(pipeline string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy[pipeline] = false
}

// Busy reports whether the named slot is held.
func (r *Runner) Busy(pipeline string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy[pipeline]
}
