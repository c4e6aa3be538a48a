// Package notify fans violation events out to observers.
package notify

// defaultBufferSize bounds each subscriber's channel. Violations are
// rare by construction (cooldowns), so a small buffer is plenty.
const defaultBufferSize = 64

// Option applies a configuration option to the Broadcaster.
type Option func(*Broadcaster)

// WithBufferSize sets the per-subscriber channel buffer.
func WithBufferSize(size int) Option {
	return func(b *Broadcaster) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}
