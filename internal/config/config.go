// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// CandidateName labels the monitored session.
	CandidateName string `koanf:"candidate_name"`

	// SampleIntervalMS is the frame sampling cadence.
	SampleIntervalMS int `koanf:"sample_interval_ms"`

	// FaceAbsenceDelayMS is how long the face must stay missing before
	// a violation is confirmed.
	FaceAbsenceDelayMS int `koanf:"face_absence_delay_ms"`

	// LookingAwayDelayMS is how long the gaze must stay averted before
	// a violation is confirmed.
	LookingAwayDelayMS int `koanf:"looking_away_delay_ms"`

	// AbsenceEscalationMS is the continuous-absence span that escalates
	// to candidate-absent.
	AbsenceEscalationMS int `koanf:"absence_escalation_ms"`

	// ObjectCooldownMS is the per-label window for repeated object
	// violations.
	ObjectCooldownMS int `koanf:"object_cooldown_ms"`

	// FaceConfidence is the minimum confidence for a face box to count.
	FaceConfidence float64 `koanf:"face_confidence"`

	// ObjectConfidence is the minimum confidence for an object candidate.
	ObjectConfidence float64 `koanf:"object_confidence"`

	// GazeThreshold is the center-offset fraction beyond which the gaze
	// counts as averted.
	GazeThreshold float64 `koanf:"gaze_threshold"`

	// NotifyBufferSize bounds each violation subscriber channel.
	NotifyBufferSize int `koanf:"notify_buffer_size"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		CandidateName:       "Candidate",
		SampleIntervalMS:    1500,
		FaceAbsenceDelayMS:  10_000,
		LookingAwayDelayMS:  5_000,
		AbsenceEscalationMS: 30_000,
		ObjectCooldownMS:    30_000,
		FaceConfidence:      0.7,
		ObjectConfidence:    0.4,
		GazeThreshold:       0.18,
		NotifyBufferSize:    64,
	}
}

// SampleInterval returns the sampling cadence as a duration.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMS) * time.Millisecond
}

// FaceAbsenceDelay returns the face absence debounce as a duration.
func (c *Config) FaceAbsenceDelay() time.Duration {
	return time.Duration(c.FaceAbsenceDelayMS) * time.Millisecond
}

// LookingAwayDelay returns the gaze debounce as a duration.
func (c *Config) LookingAwayDelay() time.Duration {
	return time.Duration(c.LookingAwayDelayMS) * time.Millisecond
}

// AbsenceEscalation returns the absence escalation span as a duration.
func (c *Config) AbsenceEscalation() time.Duration {
	return time.Duration(c.AbsenceEscalationMS) * time.Millisecond
}

// ObjectCooldown returns the per-label object window as a duration.
func (c *Config) ObjectCooldown() time.Duration {
	return time.Duration(c.ObjectCooldownMS) * time.Millisecond
}
