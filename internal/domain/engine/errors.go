package engine

import "errors"

var (
	// ErrNilDetector is returned when no detector is supplied.
	ErrNilDetector = errors.New("engine: detector is required")

	// ErrNilRecorder is returned when no recorder is supplied.
	ErrNilRecorder = errors.New("engine: recorder is required")

	// ErrFrameNotReady is returned for nil or incomplete frames.
	ErrFrameNotReady = errors.New("engine: frame not ready")
)
