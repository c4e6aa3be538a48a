package service

import (
	"time"

	"github.com/17Abhi005/proctorai/internal/adapters/capture"
	"github.com/17Abhi005/proctorai/internal/adapters/detection"
	"github.com/17Abhi005/proctorai/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCandidateName labels the monitored session.
func WithCandidateName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.candidateName = name
		}
	}
}

// WithSource sets the frame source the sampler draws from.
func WithSource(source capture.Source) Option {
	return func(s *Service) {
		if source != nil {
			s.source = source
		}
	}
}

// WithBackend sets the primary perception backend. Without one the
// detection adapter falls back to its built-in heuristic backend.
func WithBackend(backend detection.Backend) Option {
	return func(s *Service) {
		s.backend = backend
	}
}

// WithSampleInterval sets the frame sampling cadence.
func WithSampleInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.sampleInterval = interval
		}
	}
}

// WithFaceAbsenceDelay sets the face absence debounce.
func WithFaceAbsenceDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.faceAbsenceDelay = d
		}
	}
}

// WithLookingAwayDelay sets the averted-gaze debounce.
func WithLookingAwayDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookingAwayDelay = d
		}
	}
}

// WithAbsenceEscalation sets the candidate-absent escalation span.
func WithAbsenceEscalation(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.absenceEscalation = d
		}
	}
}

// WithObjectCooldown sets the per-label object violation window.
func WithObjectCooldown(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.objectCooldown = d
		}
	}
}

// WithFaceConfidence sets the face detection confidence threshold.
func WithFaceConfidence(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold <= 1 {
			s.faceConfidence = threshold
		}
	}
}

// WithObjectConfidence sets the object detection confidence threshold.
func WithObjectConfidence(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold <= 1 {
			s.objectConfidence = threshold
		}
	}
}

// WithGazeThreshold sets the averted-gaze offset threshold.
func WithGazeThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold < 0.5 {
			s.gazeThreshold = threshold
		}
	}
}

// WithNotifyBufferSize bounds each violation subscriber channel.
func WithNotifyBufferSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.notifyBufferSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}
