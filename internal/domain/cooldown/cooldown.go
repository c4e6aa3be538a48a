// Package cooldown tracks last-emission instants per key to rate-limit
// repeated violations.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// Ledger records when a key last passed its cooldown gate.
type Ledger interface {
	// Allow atomically checks whether window has elapsed since the key's
	// last recorded emission and, if so, records now as the new emission
	// instant. Returns true if the caller may emit. A key that was never
	// recorded is always allowed. This is the ONLY gate method -
	// thread-safe and atomic.
	Allow(ctx context.Context, key string, window time.Duration) bool

	// Remaining reports how much of the window is left for key.
	// Zero means the key is out of cooldown.
	Remaining(ctx context.Context, key string, window time.Duration) time.Duration

	// Reset drops all recorded emissions. Used on session stop: no
	// cooldown state survives past the stop.
	Reset(ctx context.Context)

	Size() int64
}

// inMemoryLedger implements Ledger with a mutex-guarded map.
// The clock is injectable so the window arithmetic is testable without
// sleeping through real cooldowns.
type inMemoryLedger struct {
	mu         sync.Mutex
	last       map[string]time.Time
	now        func() time.Time
	maxEntries int // 0 or negative = unbounded
}

// NewInMemoryLedger creates a new in-memory ledger with configuration options.
func NewInMemoryLedger(opts ...Option) Ledger {
	l := &inMemoryLedger{
		now:        time.Now,
		maxEntries: defaultMaxEntries,
	}

	// Apply all options
	for _, opt := range opts {
		opt(l)
	}

	l.last = make(map[string]time.Time)

	return l
}

// Allow atomically checks the window and records the emission instant.
func (l *inMemoryLedger) Allow(_ context.Context, key string, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if last, ok := l.last[key]; ok && now.Sub(last) < window {
		return false // still cooling down
	}

	if l.maxEntries > 0 && len(l.last) >= l.maxEntries {
		l.evictOldest()
	}
	l.last[key] = now
	return true
}

// Remaining reports the unexpired portion of the key's window.
func (l *inMemoryLedger) Remaining(_ context.Context, key string, window time.Duration) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.last[key]
	if !ok {
		return 0
	}
	left := window - l.now().Sub(last)
	if left < 0 {
		return 0
	}
	return left
}

// Reset drops all recorded emissions.
func (l *inMemoryLedger) Reset(_ context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = make(map[string]time.Time)
}

// Size returns the current number of tracked keys.
func (l *inMemoryLedger) Size() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int64(len(l.last))
}

// evictOldest removes the entry with the oldest emission instant.
// Must be called with l.mu held. The key space here is tiny (violation
// types plus object labels), so a linear scan is fine.
func (l *inMemoryLedger) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		first     = true
	)
	for key, ts := range l.last {
		if first || ts.Before(oldest) {
			oldestKey, oldest = key, ts
			first = false
		}
	}
	if !first {
		delete(l.last, oldestKey)
	}
}
