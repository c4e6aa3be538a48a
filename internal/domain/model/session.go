package model

import "time"

// MonitoringStatus is the single live per-session view updated on every
// processed frame and on start/stop.
type MonitoringStatus struct {
	IsRecording        bool
	FaceDetected       bool
	ObjectsDetected    []string      // labels seen on the last processed frame
	CurrentViolation   ViolationType // empty when no violation is active
	ViolationStartTime time.Time     // zero when no violation is active
}

// SessionData aggregates one monitoring session from start to stop.
// Violations is append-only; insertion order is chronological order.
type SessionData struct {
	CandidateName  string
	SessionID      string
	StartTime      time.Time
	EndTime        time.Time // zero until the session is stopped
	Violations     []ViolationEvent
	TotalDuration  int // whole seconds, finalized at stop
	IntegrityScore int // 0-100, recomputed after every appended violation
}
