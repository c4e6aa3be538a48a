// Package service wires the monitoring pipeline and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/17Abhi005/proctorai/internal/adapters/capture"
	"github.com/17Abhi005/proctorai/internal/adapters/detection"
	"github.com/17Abhi005/proctorai/internal/adapters/notify"
	"github.com/17Abhi005/proctorai/internal/domain/engine"
	"github.com/17Abhi005/proctorai/internal/domain/model"
	"github.com/17Abhi005/proctorai/internal/domain/session"
	"github.com/17Abhi005/proctorai/internal/domain/types"
	"github.com/17Abhi005/proctorai/pkg/logger"
	"github.com/17Abhi005/proctorai/pkg/metrics"
)

// Service owns the full monitoring pipeline: frame sampling, detection,
// violation inference and session state.
type Service struct {
	mu sync.RWMutex

	// Core components
	session     *session.Manager
	engine      *engine.Engine
	sampler     *capture.Sampler
	detector    *detection.Adapter
	broadcaster *notify.Broadcaster

	// Wiring inputs
	source  capture.Source
	backend detection.Backend

	// Configuration
	candidateName     string
	sampleInterval    time.Duration
	faceAbsenceDelay  time.Duration
	lookingAwayDelay  time.Duration
	absenceEscalation time.Duration
	objectCooldown    time.Duration
	faceConfidence    float64
	objectConfidence  float64
	gazeThreshold     float64
	notifyBufferSize  int

	// State
	initialized bool
	started     bool
	cancelRun   context.CancelFunc

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		candidateName:     "Candidate",
		sampleInterval:    1500 * time.Millisecond,
		faceAbsenceDelay:  engine.DefaultFaceAbsenceDelay,
		lookingAwayDelay:  engine.DefaultLookingAwayDelay,
		absenceEscalation: engine.DefaultAbsenceEscalation,
		objectCooldown:    engine.DefaultObjectWindow,
		faceConfidence:    0.7,
		objectConfidence:  0.4,
		gazeThreshold:     engine.DefaultGazeThreshold,
		notifyBufferSize:  64,
		logger:            nil, // set on Initialize
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Initialize builds the pipeline components. This is the only place a
// fatal construction error can surface; it comes from the detection
// adapter when no perception backend can be built.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializeLocked(ctx)
}

func (s *Service) initializeLocked(ctx context.Context) error {
	if s.initialized {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "initializing monitoring service...")

	detectorOpts := []detection.Option{
		detection.WithFaceConfidence(s.faceConfidence),
		detection.WithObjectConfidence(s.objectConfidence),
	}
	if s.backend != nil {
		detectorOpts = append(detectorOpts, detection.WithBackend(s.backend))
	}
	detector, err := detection.New(detectorOpts...)
	if err != nil {
		return err
	}
	s.detector = detector

	s.broadcaster = notify.NewBroadcaster(
		notify.WithBufferSize(s.notifyBufferSize),
	)
	s.session = session.NewManager(s.candidateName,
		session.WithBroadcaster(s.broadcaster),
	)

	eng, err := engine.New(s.detector, s.session,
		engine.WithFaceAbsenceDelay(s.faceAbsenceDelay),
		engine.WithLookingAwayDelay(s.lookingAwayDelay),
		engine.WithAbsenceEscalation(s.absenceEscalation),
		engine.WithObjectWindow(s.objectCooldown),
		engine.WithGazeThreshold(s.gazeThreshold),
	)
	if err != nil {
		return err
	}
	s.engine = eng

	if s.source == nil {
		s.source = nullSource{}
	}
	sampler, err := capture.NewSampler(s.source, s.engine,
		capture.WithInterval(s.sampleInterval),
	)
	if err != nil {
		return err
	}
	s.sampler = sampler

	s.initialized = true
	s.logger.Info(ctx, "monitoring service initialized",
		logger.String("candidate", s.candidateName),
		logger.String("backend", s.detector.BackendName()),
		logger.Duration("sample_interval", s.sampleInterval),
	)
	return nil
}

// Start begins monitoring: the session starts recording and the
// sampler loop runs until Stop. Idempotent while started.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initializeLocked(ctx); err != nil {
		return err
	}
	if s.started {
		return nil
	}

	s.session.Start(ctx)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancelRun = cancel
	go s.sampler.Run(runCtx)

	s.started = true
	s.logger.Info(ctx, "monitoring started",
		logger.String("session_id", s.session.Snapshot(ctx).SessionID),
	)
	return nil
}

// Stop halts monitoring and finalizes the session. Pending debounce
// timers and cooldown state are cleared; the accumulated timeline
// survives so a later Start resumes the same session. Stop before
// Start is a no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping monitoring...")

	if err := s.sampler.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "sampler shutdown", logger.Error(err))
	}
	s.cancelRun()
	s.engine.Stop(ctx)
	s.session.Stop(ctx)

	// The sampler loop is one-shot; rebuild it for a later Start.
	sampler, err := capture.NewSampler(s.source, s.engine,
		capture.WithInterval(s.sampleInterval),
	)
	if err == nil {
		s.sampler = sampler
	}

	s.started = false
	s.logger.Info(ctx, "monitoring stopped",
		logger.Int("integrity_score", s.session.Snapshot(ctx).IntegrityScore),
	)
}

// Shutdown stops monitoring and tears the pipeline down for good.
func (s *Service) Shutdown() {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine != nil {
		s.engine.Close()
	}
	if s.broadcaster != nil {
		s.broadcaster.Close()
	}
}

// Started reports whether monitoring is active.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Session returns the session snapshot in its API read shape.
func (s *Service) Session(ctx context.Context) types.SessionView {
	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()
	if sess == nil {
		return types.SessionView{}
	}
	return sessionView(sess.Snapshot(ctx))
}

// Status returns the live monitoring status in its API read shape.
func (s *Service) Status(ctx context.Context) types.StatusView {
	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()
	if sess == nil {
		return types.StatusView{}
	}
	return statusView(sess.Status(ctx))
}

// Events subscribes to the live violation stream. The returned cancel
// function releases the subscription.
func (s *Service) Events(ctx context.Context) (<-chan notify.Event, func()) {
	s.mu.RLock()
	b := s.broadcaster
	s.mu.RUnlock()
	if b == nil {
		ch := make(chan notify.Event)
		close(ch)
		return ch, func() {}
	}
	return b.Subscribe(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"initialized":        s.initialized,
		"started":            s.started,
		"candidate":          s.candidateName,
		"sample_interval_ms": s.sampleInterval.Milliseconds(),
	}

	if s.initialized {
		data := s.session.Snapshot(ctx)
		stats["session_id"] = data.SessionID
		stats["integrity_score"] = data.IntegrityScore
		stats["violation_count"] = len(data.Violations)
		stats["pending_timers"] = s.engine.PendingTimers()
		stats["subscribers"] = s.broadcaster.SubscriberCount()
		stats["backend"] = s.detector.BackendName()

		// Update metrics
		metrics.UpdateIntegrityScore(data.IntegrityScore)
		metrics.UpdateViolationCount(len(data.Violations))
		metrics.UpdateNotifySubscribers(s.broadcaster.SubscriberCount())
	}

	return stats
}

// sessionView converts the domain snapshot to the API read shape.
func sessionView(data model.SessionData) types.SessionView {
	view := types.SessionView{
		CandidateName:  data.CandidateName,
		SessionID:      data.SessionID,
		StartTime:      data.StartTime,
		Violations:     make([]types.ViolationView, len(data.Violations)),
		TotalDuration:  data.TotalDuration,
		IntegrityScore: data.IntegrityScore,
	}
	if !data.EndTime.IsZero() {
		end := data.EndTime
		view.EndTime = &end
	}
	for i, ev := range data.Violations {
		view.Violations[i] = types.ViolationView{
			ID:          ev.ID,
			Type:        string(ev.Type),
			Timestamp:   ev.Timestamp,
			Description: ev.Description,
			Severity:    ev.Severity.String(),
			DurationMS:  ev.Duration.Milliseconds(),
		}
	}
	return view
}

// statusView converts the domain status to the API read shape.
func statusView(status model.MonitoringStatus) types.StatusView {
	view := types.StatusView{
		IsRecording:      status.IsRecording,
		FaceDetected:     status.FaceDetected,
		ObjectsDetected:  status.ObjectsDetected,
		CurrentViolation: string(status.CurrentViolation),
	}
	if !status.ViolationStartTime.IsZero() {
		start := status.ViolationStartTime
		view.ViolationStartTime = &start
	}
	return view
}

// nullSource is the default frame source: it never yields a frame, so
// a service wired without a real source idles instead of failing.
type nullSource struct{}

func (nullSource) Capture(_ context.Context) (*model.Frame, error) {
	return nil, nil
}
