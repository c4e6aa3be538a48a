// Package debounce manages per-key single-shot cancelable timers.
//
// A timer fires its action only if it is not canceled within its delay
// window. At most one timer is in flight per key: arming a key that is
// already pending is a no-op, and canceling an absent key is a no-op.
package debounce

import (
	"sync"
	"time"
)

// Registry owns the pending-timer map for the inference engine.
//
// The cancel-before-fire guarantee: a fired timer re-checks its own
// registration under the registry mutex before running its action, so
// once Cancel (or Stop) returns, the action can no longer run.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
}

// NewRegistry creates an empty timer registry.
func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[string]*time.Timer),
	}
}

// Start arms a single-shot timer for key. Returns false without touching
// the existing timer when one is already pending for key (the delay is
// NOT reset), or when the registry has been stopped.
func (r *Registry) Start(key string, delay time.Duration, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return false
	}
	if _, exists := r.pending[key]; exists {
		return false // already pending, keep the original deadline
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		r.mu.Lock()
		// Identity check: only run if this exact timer is still armed.
		// A canceled or superseded timer finds the slot changed and bails.
		if r.stopped || r.pending[key] != t {
			r.mu.Unlock()
			return
		}
		delete(r.pending, key)
		r.mu.Unlock()

		fn()
	})
	r.pending[key] = t
	return true
}

// Cancel disarms the pending timer for key without firing it.
// Idempotent: canceling an absent key returns false and is a no-op.
func (r *Registry) Cancel(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, exists := r.pending[key]
	if !exists {
		return false
	}
	delete(r.pending, key)
	t.Stop()
	return true
}

// CancelAll disarms every pending timer. The registry stays usable.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelAllLocked()
}

// Stop disarms every pending timer and rejects further Start calls.
// Safe to call more than once.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	r.cancelAllLocked()
}

// Pending reports whether a timer is currently armed for key.
func (r *Registry) Pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.pending[key]
	return exists
}

// Len returns the number of armed timers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// cancelAllLocked stops and drops every timer. Must be called with r.mu held.
func (r *Registry) cancelAllLocked() {
	for key, t := range r.pending {
		t.Stop()
		delete(r.pending, key)
	}
}
