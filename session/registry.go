package session

import "sync"

// Registry maps opaque request ids to a cancellation flag. It is safe for
// concurrent use from independent goroutines; all critical sections are
// bounded map operations with no I/O under the lock. A cancel racing a
// concurrent read needs only eventual visibility, which the mutex provides.
//
// Caller contract: request ids are obtained fresh per logical user action.
// Register overwrites any stale entry for a reused id, so a sequential reuse
// starts uncancelled, but reuse across overlapping calls is undefined.
type Registry struct {
	mu     sync.Mutex
	states map[string]bool // request id -> cancelled
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{states: make(map[string]bool)}
}

// Register creates (or resets) the entry for a request id.
func (r *Registry) Register(requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[requestID] = false
}

// Cancel flags a single request for cancellation. Unknown ids are a no-op;
// cancelling twice is idempotent.
func (r *Registry) Cancel(requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.states[requestID]; ok {
		r.states[requestID] = true
	}
}

// CancelAll flags every registered request for cancellation.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.states {
		r.states[id] = true
	}
}

// IsCancelled reports whether the request has been flagged. Unknown ids
// report false.
func (r *Registry) IsCancelled(requestID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[requestID]
}

// Cleanup removes the entry for a request id. It must run exactly once per
// registered session regardless of exit path; callers defer it right after
// Register.
func (r *Registry) Cleanup(requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, requestID)
}

// Len reports the number of in-flight sessions. Intended for tests and
// diagnostics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
