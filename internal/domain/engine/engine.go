// Package engine turns per-frame perception results into confirmed
// integrity violations.
//
// Transient signals (face absence, averted gaze) are debounced with
// single-shot timers; instantaneous signals (extra faces, suspicious
// objects) are emitted immediately. Every emission passes a per-type
// cooldown gate, and object emissions additionally pass a per-label
// gate, so one sustained condition produces one timeline entry rather
// than one per sampled frame.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/17Abhi005/proctorai/internal/adapters/detection"
	"github.com/17Abhi005/proctorai/internal/domain/cooldown"
	"github.com/17Abhi005/proctorai/internal/domain/debounce"
	"github.com/17Abhi005/proctorai/internal/domain/model"
	"github.com/17Abhi005/proctorai/pkg/logger"
	"github.com/17Abhi005/proctorai/pkg/metrics"
)

// Detector is the perception surface consumed per frame.
type Detector interface {
	DetectFaces(ctx context.Context, frame *model.Frame) (detection.FaceResult, error)
	DetectObjects(ctx context.Context, frame *model.Frame) ([]detection.ObjectDetection, error)
}

// Recorder receives confirmed violations and live frame status.
type Recorder interface {
	Append(ctx context.Context, ev model.ViolationEvent)
	RecordFrame(ctx context.Context, faceDetected bool, objects []string)
	ClearViolation(ctx context.Context)
	Recording() bool
}

// Default inference timings. All are overridable per Engine.
const (
	DefaultFaceAbsenceDelay  = 10 * time.Second
	DefaultLookingAwayDelay  = 5 * time.Second
	DefaultAbsenceEscalation = 30 * time.Second
	DefaultObjectWindow      = 30 * time.Second
	DefaultCooldown          = 10 * time.Second
	DefaultGazeThreshold     = 0.18
)

// DefaultCooldowns returns the per-type cooldown windows applied when
// no override is configured.
func DefaultCooldowns() map[model.ViolationType]time.Duration {
	return map[model.ViolationType]time.Duration{
		model.FaceNotVisible:  20 * time.Second,
		model.LookingAway:     10 * time.Second,
		model.MultipleFaces:   15 * time.Second,
		model.PhoneDetected:   30 * time.Second,
		model.BookDetected:    30 * time.Second,
		model.DeviceDetected:  30 * time.Second,
		model.CandidateAbsent: 30 * time.Second,
	}
}

func severities() map[model.ViolationType]model.Severity {
	return map[model.ViolationType]model.Severity{
		model.FaceNotVisible:  model.SeverityHigh,
		model.LookingAway:     model.SeverityMedium,
		model.MultipleFaces:   model.SeverityCritical,
		model.PhoneDetected:   model.SeverityCritical,
		model.BookDetected:    model.SeverityHigh,
		model.DeviceDetected:  model.SeverityHigh,
		model.CandidateAbsent: model.SeverityCritical,
	}
}

// Engine is the violation inference core. One mutex serializes frame
// processing and the debounce timer callbacks, so rule state is never
// read and written concurrently.
type Engine struct {
	mu sync.Mutex

	detector Detector
	recorder Recorder

	timers          *debounce.Registry
	typeCooldowns   cooldown.Ledger
	objectCooldowns cooldown.Ledger

	cooldowns map[model.ViolationType]time.Duration
	severity  map[model.ViolationType]model.Severity

	faceAbsenceDelay  time.Duration
	lookingAwayDelay  time.Duration
	absenceEscalation time.Duration
	objectWindow      time.Duration
	gazeThreshold     float64

	// rule state, guarded by mu
	faceMissing bool
	gazeAway    bool
	closed      bool

	logger logger.Logger
	now    func() time.Time
}

// New builds an inference engine over the given detector and recorder.
func New(detector Detector, recorder Recorder, opts ...Option) (*Engine, error) {
	if detector == nil {
		return nil, ErrNilDetector
	}
	if recorder == nil {
		return nil, ErrNilRecorder
	}

	e := &Engine{
		detector:          detector,
		recorder:          recorder,
		timers:            debounce.NewRegistry(),
		cooldowns:         DefaultCooldowns(),
		severity:          severities(),
		faceAbsenceDelay:  DefaultFaceAbsenceDelay,
		lookingAwayDelay:  DefaultLookingAwayDelay,
		absenceEscalation: DefaultAbsenceEscalation,
		objectWindow:      DefaultObjectWindow,
		gazeThreshold:     DefaultGazeThreshold,
		logger:            logger.Named("engine"),
		now:               time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	if e.typeCooldowns == nil {
		e.typeCooldowns = cooldown.NewInMemoryLedger()
	}
	if e.objectCooldowns == nil {
		e.objectCooldowns = cooldown.NewInMemoryLedger()
	}

	return e, nil
}

// ProcessFrame runs detection on one sampled frame and applies the
// inference rules. A face detection failure skips the frame entirely
// and leaves the live status untouched; an object detection failure
// only degrades that frame to an empty object list.
func (e *Engine) ProcessFrame(ctx context.Context, frame *model.Frame) error {
	if !e.recorder.Recording() {
		return nil
	}
	if frame == nil || !frame.Ready() {
		metrics.RecordFrameSkippedNotReady()
		return ErrFrameNotReady
	}

	started := time.Now()
	faces, err := e.detector.DetectFaces(ctx, frame)
	if err != nil {
		metrics.RecordErrorByComponent("engine", "face_detection")
		e.logger.Warn(ctx, "face detection unavailable, skipping frame", logger.Error(err))
		return err
	}
	objects, err := e.detector.DetectObjects(ctx, frame)
	if err != nil {
		objects = nil
	}
	metrics.RecordDetectionLatency(float64(time.Since(started).Milliseconds()))

	labels := make([]string, 0, len(objects))
	for _, obj := range objects {
		labels = append(labels, detection.NormalizeLabel(obj.Label))
	}

	// Gaze runs on the primary face, outside the engine lock.
	var gaze detection.GazeResult
	if faces.HasFace && len(faces.Faces) > 0 {
		gaze = detection.AnalyzeLookingDirection(faces.Faces[0], frame.Width, frame.Height, e.gazeThreshold)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Detection suspended this call; the session may have stopped in the
	// meantime. Re-checking here keeps a late frame from re-arming timers
	// that Stop already canceled.
	if e.closed || !e.recorder.Recording() {
		return nil
	}
	e.recorder.RecordFrame(ctx, faces.HasFace, labels)

	e.applyFaceRules(ctx, faces)
	e.applyGazeRules(ctx, faces, gaze)
	e.applyObjectRules(ctx, labels)

	if faces.HasFace && !faces.MultipleFaces && !e.gazeAway && !suspiciousLabels(labels) {
		e.recorder.ClearViolation(ctx)
	}

	metrics.RecordFrameProcessed()
	metrics.UpdatePendingTimers(e.timers.Len())
	metrics.UpdateCooldownEntries(e.typeCooldowns.Size() + e.objectCooldowns.Size())
	return nil
}

// Stop cancels every pending timer and clears all cooldown state. The
// engine stays usable for the next monitoring run.
func (e *Engine) Stop(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.timers.CancelAll()
	e.typeCooldowns.Reset(ctx)
	e.objectCooldowns.Reset(ctx)
	e.faceMissing = false
	e.gazeAway = false
	metrics.UpdatePendingTimers(0)
	metrics.UpdateCooldownEntries(0)
}

// Close stops the engine permanently. Pending timers are disarmed and
// later ProcessFrame calls become no-ops.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.timers.Stop()
}

// PendingTimers reports how many debounce timers are armed.
func (e *Engine) PendingTimers() int {
	return e.timers.Len()
}

// applyFaceRules handles absence debouncing and the extra-face rule.
// Must be called with e.mu held.
func (e *Engine) applyFaceRules(ctx context.Context, faces detection.FaceResult) {
	if !faces.HasFace {
		e.faceMissing = true
		e.timers.Start(string(model.FaceNotVisible), e.faceAbsenceDelay, e.onFaceAbsenceConfirmed)
		e.timers.Start(string(model.CandidateAbsent), e.absenceEscalation, e.onCandidateAbsent)
		return
	}

	e.faceMissing = false
	e.timers.Cancel(string(model.FaceNotVisible))
	e.timers.Cancel(string(model.CandidateAbsent))

	if faces.MultipleFaces {
		e.emitLocked(ctx, model.MultipleFaces,
			fmt.Sprintf("%d faces detected in frame", faces.Count), 0)
	}
}

// applyGazeRules debounces sustained averted gaze. Must be called with
// e.mu held.
func (e *Engine) applyGazeRules(ctx context.Context, faces detection.FaceResult, gaze detection.GazeResult) {
	if faces.HasFace && gaze.IsLookingAway {
		e.gazeAway = true
		e.timers.Start(string(model.LookingAway), e.lookingAwayDelay, e.onLookingAwayConfirmed)
		return
	}

	e.gazeAway = false
	e.timers.Cancel(string(model.LookingAway))
}

// applyObjectRules emits one violation per suspicious label, gated per
// label and then per type. The per-label window is recorded at check
// time, whether or not the type gate suppresses the emission. Must be
// called with e.mu held.
func (e *Engine) applyObjectRules(ctx context.Context, labels []string) {
	for _, label := range labels {
		vt := classifyObject(label)
		if vt == "" {
			continue
		}
		if !e.objectCooldowns.Allow(ctx, label, e.objectWindow) {
			metrics.RecordObjectCooldownHit()
			continue
		}
		e.emitLocked(ctx, vt, fmt.Sprintf("%s detected in frame", label), 0)
	}
}

// onFaceAbsenceConfirmed fires when the candidate's face has been
// missing for the full absence delay.
func (e *Engine) onFaceAbsenceConfirmed() {
	e.mu.Lock()
	defer e.mu.Unlock()

	// The timer registry guarantees cancel-before-fire, but the frame
	// that restored the face may have slipped in between the fire and
	// this lock acquisition. Re-check the rule state.
	if e.closed || !e.faceMissing {
		return
	}
	ctx := context.Background()
	e.emitLocked(ctx, model.FaceNotVisible,
		fmt.Sprintf("no face visible for %s", e.faceAbsenceDelay), e.faceAbsenceDelay)
}

// onCandidateAbsent fires after sustained continuous absence, escalating
// past the plain face-not-visible violation.
func (e *Engine) onCandidateAbsent() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || !e.faceMissing {
		return
	}
	ctx := context.Background()
	e.emitLocked(ctx, model.CandidateAbsent,
		fmt.Sprintf("candidate absent for %s", e.absenceEscalation), e.absenceEscalation)
}

// onLookingAwayConfirmed fires when the gaze has stayed averted for the
// full looking-away delay.
func (e *Engine) onLookingAwayConfirmed() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || !e.gazeAway {
		return
	}
	ctx := context.Background()
	e.emitLocked(ctx, model.LookingAway,
		fmt.Sprintf("looking away from screen for %s", e.lookingAwayDelay), e.lookingAwayDelay)
}

// emitLocked is the single emission point: it applies the per-type
// cooldown gate and, when allowed, appends a new timeline entry.
// Must be called with e.mu held.
func (e *Engine) emitLocked(ctx context.Context, vt model.ViolationType, desc string, dur time.Duration) bool {
	window := e.cooldownFor(vt)
	if !e.typeCooldowns.Allow(ctx, string(vt), window) {
		metrics.RecordViolationSuppressed(string(vt))
		e.logger.Debug(ctx, "violation suppressed by cooldown",
			logger.String("type", string(vt)),
			logger.Duration("remaining", e.typeCooldowns.Remaining(ctx, string(vt), window)),
		)
		return false
	}

	ev := model.ViolationEvent{
		ID:          uuid.NewString(),
		Type:        vt,
		Timestamp:   e.now(),
		Description: desc,
		Severity:    e.severityFor(vt),
		Duration:    dur,
	}
	e.recorder.Append(ctx, ev)
	metrics.RecordViolation(string(vt), ev.Severity.String())
	return true
}

// cooldownFor returns the per-type cooldown window.
func (e *Engine) cooldownFor(vt model.ViolationType) time.Duration {
	if w, ok := e.cooldowns[vt]; ok {
		return w
	}
	return DefaultCooldown
}

// severityFor returns the fixed severity for a violation type.
func (e *Engine) severityFor(vt model.ViolationType) model.Severity {
	if s, ok := e.severity[vt]; ok {
		return s
	}
	return model.SeverityLow
}

// suspiciousLabels reports whether any label classifies as a violation.
func suspiciousLabels(labels []string) bool {
	for _, label := range labels {
		if classifyObject(label) != "" {
			return true
		}
	}
	return false
}

// classifyObject maps a normalized object label onto a violation type.
// Labels outside the suspicious set map to the empty type.
func classifyObject(label string) model.ViolationType {
	switch {
	case strings.Contains(label, "phone"):
		return model.PhoneDetected
	case strings.Contains(label, "book"):
		return model.BookDetected
	case strings.Contains(label, "laptop"), strings.Contains(label, "tablet"):
		return model.DeviceDetected
	}
	return ""
}
