// Package detection wraps perception back-ends behind a uniform adapter.
package detection

import "github.com/17Abhi005/proctorai/pkg/logger"

// Option applies a configuration option to the Adapter.
type Option func(*Adapter)

// WithBackend sets the primary perception backend (e.g. an external
// model runtime). When nil or omitted, the heuristic fallback serves as
// primary.
func WithBackend(backend Backend) Option {
	return func(a *Adapter) {
		a.primary = backend
	}
}

// WithFallback replaces the heuristic fallback backend. Passing nil
// disables fallback entirely; construction then fails unless a primary
// backend is set.
func WithFallback(backend Backend) Option {
	return func(a *Adapter) {
		a.fallback = backend
	}
}

// WithFaceConfidence sets the minimum confidence for a face box to count.
func WithFaceConfidence(threshold float64) Option {
	return func(a *Adapter) {
		if threshold > 0 && threshold <= 1 {
			a.faceConfidence = threshold
		}
	}
}

// WithObjectConfidence sets the minimum confidence for an object candidate.
func WithObjectConfidence(threshold float64) Option {
	return func(a *Adapter) {
		if threshold > 0 && threshold <= 1 {
			a.objectConfidence = threshold
		}
	}
}

// WithLogger sets a custom logger for the adapter.
func WithLogger(log logger.Logger) Option {
	return func(a *Adapter) {
		if log != nil {
			a.logger = log
		}
	}
}
