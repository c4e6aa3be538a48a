package capture_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/17Abhi005/proctorai/internal/adapters/capture"
	"github.com/17Abhi005/proctorai/internal/domain/model"
	"github.com/17Abhi005/proctorai/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

// staticSource hands out the same frame on every capture.
type staticSource struct {
	mu    sync.Mutex
	frame *model.Frame
	err   error
}

func (s *staticSource) Capture(_ context.Context) (*model.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.err
}

// countingProcessor counts frames and tracks the concurrency high-water mark.
type countingProcessor struct {
	delay     time.Duration
	processed atomic.Int64
	inFlight  atomic.Int64
	maxSeen   atomic.Int64
}

func (p *countingProcessor) ProcessFrame(_ context.Context, _ *model.Frame) error {
	cur := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		max := p.maxSeen.Load()
		if cur <= max || p.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.processed.Add(1)
	return nil
}

// gatedProcessor parks the first frame until released.
type gatedProcessor struct {
	once     sync.Once
	entered  chan struct{}
	release  chan struct{}
	finished atomic.Bool
}

func (p *gatedProcessor) ProcessFrame(_ context.Context, _ *model.Frame) error {
	p.once.Do(func() {
		close(p.entered)
		<-p.release
		p.finished.Store(true)
	})
	return nil
}

func readyFrame() *model.Frame {
	return &model.Frame{
		Width:      4,
		Height:     4,
		Pixels:     make([]byte, 4*4*4),
		CapturedAt: time.Now(),
	}
}

func TestSamplerConstruction(t *testing.T) {
	Convey("Given sampler construction", t, func() {
		src := &staticSource{frame: readyFrame()}
		proc := &countingProcessor{}

		Convey("When the source is missing", func() {
			_, err := capture.NewSampler(nil, proc)

			Convey("Then construction fails with the sentinel", func() {
				So(err, ShouldEqual, capture.ErrNilSource)
			})
		})

		Convey("When the processor is missing", func() {
			_, err := capture.NewSampler(src, nil)

			Convey("Then construction fails with the sentinel", func() {
				So(err, ShouldEqual, capture.ErrNilProcessor)
			})
		})

		Convey("When fully configured", func() {
			s, err := capture.NewSampler(src, proc, capture.WithInterval(25*time.Millisecond))

			Convey("Then the interval option is applied", func() {
				So(err, ShouldBeNil)
				So(s.Interval(), ShouldEqual, 25*time.Millisecond)
			})
		})
	})
}

func TestSamplerCadence(t *testing.T) {
	Convey("Given a running sampler", t, func() {
		src := &staticSource{frame: readyFrame()}
		proc := &countingProcessor{}
		s, err := capture.NewSampler(src, proc, capture.WithInterval(10*time.Millisecond))
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go s.Run(ctx)

		Convey("When it ticks for a while", func() {
			time.Sleep(100 * time.Millisecond)
			So(s.Shutdown(context.Background()), ShouldBeNil)

			Convey("Then frames were processed one at a time", func() {
				So(proc.processed.Load(), ShouldBeGreaterThan, 0)
				So(proc.maxSeen.Load(), ShouldEqual, 1)
			})
		})
	})
}

func TestSamplerBusySkip(t *testing.T) {
	Convey("Given a processor slower than the tick interval", t, func() {
		src := &staticSource{frame: readyFrame()}
		proc := &countingProcessor{delay: 60 * time.Millisecond}
		s, err := capture.NewSampler(src, proc, capture.WithInterval(10*time.Millisecond))
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go s.Run(ctx)

		Convey("When ticks pile up behind a slow frame", func() {
			time.Sleep(100 * time.Millisecond)
			So(s.Shutdown(context.Background()), ShouldBeNil)

			Convey("Then overlapping ticks are dropped instead of queued", func() {
				So(proc.maxSeen.Load(), ShouldEqual, 1)
				So(proc.processed.Load(), ShouldBeLessThan, 5)
			})
		})
	})
}

func TestSamplerDegradedSource(t *testing.T) {
	Convey("Given a sampler whose source misbehaves", t, func() {
		proc := &countingProcessor{}

		Convey("When the source returns errors", func() {
			src := &staticSource{err: errors.New("device busy")}
			s, err := capture.NewSampler(src, proc, capture.WithInterval(10*time.Millisecond))
			So(err, ShouldBeNil)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go s.Run(ctx)
			time.Sleep(60 * time.Millisecond)
			So(s.Shutdown(context.Background()), ShouldBeNil)

			Convey("Then no frame reaches the processor", func() {
				So(proc.processed.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the source has no frame yet", func() {
			src := &staticSource{frame: nil}
			s, err := capture.NewSampler(src, proc, capture.WithInterval(10*time.Millisecond))
			So(err, ShouldBeNil)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go s.Run(ctx)
			time.Sleep(60 * time.Millisecond)
			So(s.Shutdown(context.Background()), ShouldBeNil)

			Convey("Then the tick is a quiet no-op", func() {
				So(proc.processed.Load(), ShouldEqual, 0)
			})
		})
	})
}

func TestSamplerShutdown(t *testing.T) {
	Convey("Given a running sampler", t, func() {
		src := &staticSource{frame: readyFrame()}
		proc := &countingProcessor{}
		s, err := capture.NewSampler(src, proc, capture.WithInterval(10*time.Millisecond))
		So(err, ShouldBeNil)

		go s.Run(context.Background())
		time.Sleep(30 * time.Millisecond)

		Convey("When shut down", func() {
			So(s.Shutdown(context.Background()), ShouldBeNil)
			count := proc.processed.Load()
			time.Sleep(50 * time.Millisecond)

			Convey("Then the loop stops ticking", func() {
				So(proc.processed.Load(), ShouldEqual, count)
			})
		})
	})
}

func TestSamplerShutdownDrainsInFlight(t *testing.T) {
	Convey("Given a sampler with a frame still being processed", t, func() {
		src := &staticSource{frame: readyFrame()}
		proc := &gatedProcessor{entered: make(chan struct{}), release: make(chan struct{})}
		s, err := capture.NewSampler(src, proc, capture.WithInterval(10*time.Millisecond))
		So(err, ShouldBeNil)

		go s.Run(context.Background())
		<-proc.entered

		done := make(chan error, 1)
		go func() { done <- s.Shutdown(context.Background()) }()

		Convey("When shutdown is requested mid-frame", func() {
			var early bool
			select {
			case <-done:
				early = true
			case <-time.After(50 * time.Millisecond):
			}
			close(proc.release)

			Convey("Then shutdown returns only after the frame finishes", func() {
				So(early, ShouldBeFalse)
				So(<-done, ShouldBeNil)
				So(proc.finished.Load(), ShouldBeTrue)
			})
		})
	})
}
