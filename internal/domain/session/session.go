// Package session owns the monitoring session aggregates and their
// lifecycle.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/17Abhi005/proctorai/internal/adapters/notify"
	"github.com/17Abhi005/proctorai/internal/domain/model"
	"github.com/17Abhi005/proctorai/internal/domain/scoring"
	"github.com/17Abhi005/proctorai/pkg/logger"
	"github.com/17Abhi005/proctorai/pkg/metrics"
	"github.com/google/uuid"
)

// Manager is the single writer for SessionData and MonitoringStatus.
// Appending a violation is the one mutation that recomputes the score
// and notifies observers.
type Manager struct {
	mu     sync.RWMutex
	data   model.SessionData
	status model.MonitoringStatus

	scorer      scoring.Scorer
	broadcaster *notify.Broadcaster
	logger      logger.Logger
	now         func() time.Time
}

// NewManager creates a session aggregate for one candidate. The session
// id is generated here; StartTime is reset again when Start is called.
func NewManager(candidateName string, opts ...Option) *Manager {
	m := &Manager{
		scorer: scoring.NewIntegrityScorer(),
		now:    time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = logger.Get().Named("session")
	}

	m.data = model.SessionData{
		CandidateName:  candidateName,
		SessionID:      uuid.NewString(),
		StartTime:      m.now(),
		IntegrityScore: m.scorer.Score(context.Background(), nil),
	}

	return m
}

// Start begins (or resumes) recording. The start instant is reset; any
// previously accumulated violations and score are preserved.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.IsRecording = true
	m.data.StartTime = m.now()
	m.data.EndTime = time.Time{}
	metrics.UpdateSessionRecording(true)

	m.logger.Info(ctx, "monitoring started",
		logger.String("sessionID", m.data.SessionID),
		logger.String("candidate", m.data.CandidateName),
	)
}

// Stop finalizes the session: recording ends, EndTime is stamped and
// TotalDuration is fixed to whole elapsed seconds (floor).
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.status.IsRecording = false
	m.status.CurrentViolation = ""
	m.status.ViolationStartTime = time.Time{}
	m.data.EndTime = now
	m.data.TotalDuration = int(now.Sub(m.data.StartTime).Seconds())
	metrics.UpdateSessionRecording(false)

	m.logger.Info(ctx, "monitoring stopped",
		logger.String("sessionID", m.data.SessionID),
		logger.Int("violations", len(m.data.Violations)),
		logger.Int("integrityScore", m.data.IntegrityScore),
		logger.Int("durationSeconds", m.data.TotalDuration),
	)
}

// Recording reports whether the session is currently recording.
func (m *Manager) Recording() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.IsRecording
}

// Append adds a violation to the timeline, rescores the session and
// publishes the event to observers. The timeline is append-only;
// insertion order is chronological order.
func (m *Manager) Append(ctx context.Context, ev model.ViolationEvent) {
	m.mu.Lock()
	m.data.Violations = append(m.data.Violations, ev)
	m.data.IntegrityScore = m.scorer.Score(ctx, m.data.Violations)
	m.status.CurrentViolation = ev.Type
	m.status.ViolationStartTime = ev.Timestamp
	score := m.data.IntegrityScore
	count := len(m.data.Violations)
	m.mu.Unlock()

	metrics.UpdateIntegrityScore(score)
	metrics.UpdateViolationCount(count)

	m.logger.Warn(ctx, "violation recorded",
		logger.String("type", string(ev.Type)),
		logger.String("severity", ev.Severity.String()),
		logger.String("description", ev.Description),
		logger.Int("integrityScore", score),
	)

	if m.broadcaster != nil {
		m.broadcaster.Publish(ctx, ev)
	}
}

// ClearViolation resets the live current-violation marker once the
// triggering condition has recovered. The timeline is untouched.
func (m *Manager) ClearViolation(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.CurrentViolation = ""
	m.status.ViolationStartTime = time.Time{}
}

// RecordFrame updates the live status for one processed frame.
func (m *Manager) RecordFrame(_ context.Context, faceDetected bool, objects []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.FaceDetected = faceDetected
	m.status.ObjectsDetected = append([]string(nil), objects...)
}

// Snapshot returns a deep copy of the session data safe to hand to
// observers.
func (m *Manager) Snapshot(_ context.Context) model.SessionData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.data
	out.Violations = append([]model.ViolationEvent(nil), m.data.Violations...)
	return out
}

// Status returns a copy of the live monitoring status.
func (m *Manager) Status(_ context.Context) model.MonitoringStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.status
	out.ObjectsDetected = append([]string(nil), m.status.ObjectsDetected...)
	return out
}
