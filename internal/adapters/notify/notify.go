// Package notify fans violation events out to observers.
//
// Publishing is non-blocking: a subscriber that cannot keep up loses
// events (counted), the inference path never stalls on an observer.
package notify

import (
	"context"
	"sync"

	"github.com/17Abhi005/proctorai/internal/domain/model"
	"github.com/17Abhi005/proctorai/pkg/metrics"
)

// Event is the payload type flowing to observers.
type Event = model.ViolationEvent

// Broadcaster delivers violation events to any number of subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	bufferSize  int
	closed      bool
}

// NewBroadcaster creates a broadcaster with configuration options.
func NewBroadcaster(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		bufferSize: defaultBufferSize,
	}

	// Apply all options
	for _, opt := range opts {
		opt(b)
	}

	b.subscribers = make(map[int]chan Event)

	return b
}

// Subscribe registers an observer and returns its receive channel plus an
// unsubscribe function. The channel is closed on unsubscribe, on Close,
// or when ctx is canceled. Unsubscribing twice is safe.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Event, func()) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.bufferSize)
	b.subscribers[id] = ch
	metrics.UpdateNotifySubscribers(len(b.subscribers))
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subscribers[id]; ok {
				delete(b.subscribers, id)
				close(sub)
				metrics.UpdateNotifySubscribers(len(b.subscribers))
			}
		})
	}

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return ch, cancel
}

// Publish delivers the event to every subscriber without blocking.
// Returns the number of subscribers that received it.
func (b *Broadcaster) Publish(_ context.Context, ev Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0
	}

	delivered := 0
	for _, sub := range b.subscribers {
		select {
		case sub <- ev:
			delivered++
		default:
			// Subscriber buffer full: drop for that subscriber only.
			metrics.RecordNotifyDropped()
		}
	}
	return delivered
}

// SubscriberCount returns the number of active subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts down the broadcaster and closes every subscriber channel.
// After closing, Publish delivers to nobody and Subscribe hands out
// already-closed channels.
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil // already closed
	}
	b.closed = true

	for id, sub := range b.subscribers {
		delete(b.subscribers, id)
		close(sub)
	}
	metrics.UpdateNotifySubscribers(0)
	return nil
}

// IsClosed returns true if the broadcaster has been closed.
func (b *Broadcaster) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
