package engine

import (
	"time"

	"github.com/17Abhi005/proctorai/internal/domain/cooldown"
	"github.com/17Abhi005/proctorai/internal/domain/model"
	"github.com/17Abhi005/proctorai/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithFaceAbsenceDelay sets how long the face must be missing before a
// face-not-visible violation is confirmed.
func WithFaceAbsenceDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.faceAbsenceDelay = d
		}
	}
}

// WithLookingAwayDelay sets how long the gaze must stay averted before
// a looking-away violation is confirmed.
func WithLookingAwayDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.lookingAwayDelay = d
		}
	}
}

// WithAbsenceEscalation sets the continuous-absence span that escalates
// to a candidate-absent violation.
func WithAbsenceEscalation(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.absenceEscalation = d
		}
	}
}

// WithObjectWindow sets the per-label cooldown window for object
// violations.
func WithObjectWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.objectWindow = d
		}
	}
}

// WithCooldown overrides the cooldown window for one violation type.
func WithCooldown(vt model.ViolationType, d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.cooldowns[vt] = d
		}
	}
}

// WithGazeThreshold sets the center-offset fraction beyond which the
// gaze counts as averted.
func WithGazeThreshold(threshold float64) Option {
	return func(e *Engine) {
		if threshold > 0 && threshold < 0.5 {
			e.gazeThreshold = threshold
		}
	}
}

// WithTypeLedger replaces the per-type cooldown ledger.
func WithTypeLedger(l cooldown.Ledger) Option {
	return func(e *Engine) {
		if l != nil {
			e.typeCooldowns = l
		}
	}
}

// WithObjectLedger replaces the per-label cooldown ledger.
func WithObjectLedger(l cooldown.Ledger) Option {
	return func(e *Engine) {
		if l != nil {
			e.objectCooldowns = l
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// WithNowFunc sets the clock used to timestamp emitted violations.
func WithNowFunc(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
