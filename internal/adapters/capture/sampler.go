// Package capture drives periodic frame sampling from a frame source.
package capture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/17Abhi005/proctorai/internal/domain/model"
	"github.com/17Abhi005/proctorai/pkg/logger"
	"github.com/17Abhi005/proctorai/pkg/metrics"
)

// Default sampler configuration constants.
const (
	defaultInterval        = 1500 * time.Millisecond
	samplerShutdownTimeout = 5 * time.Second
)

// Source produces the most recent camera frame.
type Source interface {
	// Capture returns the current frame. Implementations may return a
	// nil frame when nothing has been captured yet.
	Capture(ctx context.Context) (*model.Frame, error)
}

// Processor consumes one sampled frame.
type Processor interface {
	ProcessFrame(ctx context.Context, frame *model.Frame) error
}

// Sampler ticks at a fixed cadence and hands each frame to the
// processor. At most one frame is in flight: a tick that lands while
// the previous frame is still being processed is dropped, never queued.
type Sampler struct {
	source    Source
	processor Processor
	interval  time.Duration

	// busy guards against overlapping processing runs; inflight tracks
	// the detached processing goroutine so Shutdown can drain it.
	busy     atomic.Bool
	inflight sync.WaitGroup

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewSampler creates a new sampler with configuration options.
func NewSampler(source Source, processor Processor, opts ...Option) (*Sampler, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if processor == nil {
		return nil, ErrNilProcessor
	}

	s := &Sampler{
		source:    source,
		processor: processor,
		interval:  defaultInterval,
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Named("sampler"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Interval returns the sampling cadence.
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Run starts the sampling loop until ctx is canceled or Shutdown is
// called. Each tick is processed on its own goroutine so a slow
// detection pass delays nothing; it only causes later ticks to be
// dropped while it runs.
func (s *Sampler) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			if !s.busy.CompareAndSwap(false, true) {
				metrics.RecordFrameSkippedBusy()
				continue
			}
			s.inflight.Add(1)
			go s.sampleOnce(ctx)
		}
	}
}

// Shutdown gracefully stops the sampler. It returns only after the
// Run loop has exited and any frame still in flight has finished
// processing, so callers can tear down the processor afterwards.
func (s *Sampler) Shutdown(ctx context.Context) error {
	close(s.shutdown)

	drained := make(chan struct{})
	go func() {
		<-s.done
		s.inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-time.After(samplerShutdownTimeout):
		return ErrShutdownTimeout
	case <-ctx.Done():
		s.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// sampleOnce captures and processes a single frame.
func (s *Sampler) sampleOnce(ctx context.Context) {
	defer s.inflight.Done()
	defer s.busy.Store(false)

	metrics.RecordFrameSampled()

	frame, err := s.source.Capture(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("sampler", "capture_error")
		s.logger.Warn(ctx, "frame capture failed", logger.Error(err))
		return
	}
	if frame == nil || !frame.Ready() {
		metrics.RecordFrameSkippedNotReady()
		return
	}

	if err := s.processor.ProcessFrame(ctx, frame); err != nil {
		s.logger.Debug(ctx, "frame not processed", logger.Error(err))
	}
}
