package capture

import (
	"time"

	"github.com/17Abhi005/proctorai/pkg/logger"
)

// Option applies a configuration option to the Sampler.
type Option func(*Sampler)

// WithInterval sets the sampling cadence.
func WithInterval(interval time.Duration) Option {
	return func(s *Sampler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithLogger sets a custom logger for the sampler.
func WithLogger(log logger.Logger) Option {
	return func(s *Sampler) {
		if log != nil {
			s.logger = log
		}
	}
}
