// Package cooldown tracks last-emission instants per key.
package cooldown

import "time"

// defaultMaxEntries bounds the ledger; object labels come from an
// allow-list, so the real population stays far below this.
const defaultMaxEntries = 1024

// Option applies a configuration option to the inMemoryLedger.
type Option func(*inMemoryLedger)

// WithMaxEntries sets the maximum number of keys to track.
// If maxEntries <= 0 the ledger is unbounded.
func WithMaxEntries(maxEntries int) Option {
	return func(l *inMemoryLedger) {
		l.maxEntries = maxEntries
	}
}

// WithNowFunc injects the clock used for window arithmetic. Tests use
// this to step time deterministically.
func WithNowFunc(now func() time.Time) Option {
	return func(l *inMemoryLedger) {
		if now != nil {
			l.now = now
		}
	}
}
