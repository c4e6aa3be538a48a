package capture

import "errors"

var (
	// ErrNilSource is returned when no frame source is supplied.
	ErrNilSource = errors.New("capture: source is required")

	// ErrNilProcessor is returned when no frame processor is supplied.
	ErrNilProcessor = errors.New("capture: processor is required")

	// ErrShutdownTimeout is returned when the loop does not stop in time.
	ErrShutdownTimeout = errors.New("capture: shutdown timed out")
)
