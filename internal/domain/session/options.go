// Package session owns the monitoring session aggregates.
package session

import (
	"time"

	"github.com/17Abhi005/proctorai/internal/adapters/notify"
	"github.com/17Abhi005/proctorai/internal/domain/scoring"
	"github.com/17Abhi005/proctorai/pkg/logger"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithScorer sets the integrity scorer used on every append.
func WithScorer(scorer scoring.Scorer) Option {
	return func(m *Manager) {
		if scorer != nil {
			m.scorer = scorer
		}
	}
}

// WithBroadcaster sets the observer fan-out for appended violations.
func WithBroadcaster(b *notify.Broadcaster) Option {
	return func(m *Manager) {
		m.broadcaster = b
	}
}

// WithLogger sets a custom logger for the manager.
func WithLogger(log logger.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.logger = log
		}
	}
}

// WithNowFunc injects the clock. Tests use this to pin start/stop
// instants.
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
