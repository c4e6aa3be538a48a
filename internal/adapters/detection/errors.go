package detection

import "errors"

// Sentinel kinds for detection errors.
var (
	ErrInitialization = errors.New("no detection backend available")
	ErrFrameNotReady  = errors.New("frame not ready")
)
