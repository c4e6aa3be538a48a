// Package model contains domain models passed between layers.
package model

import "time"

// ViolationType is the closed set of integrity violations the engine can emit.
type ViolationType string

const (
	FaceNotVisible  ViolationType = "face_not_visible"
	LookingAway     ViolationType = "looking_away"
	MultipleFaces   ViolationType = "multiple_faces"
	PhoneDetected   ViolationType = "phone_detected"
	BookDetected    ViolationType = "book_detected"
	DeviceDetected  ViolationType = "device_detected"
	CandidateAbsent ViolationType = "candidate_absent"
)

// Severity ranks violations. The ordering is total: Low < Medium < High < Critical.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ViolationEvent is an immutable timeline entry. It is created exactly once
// per emitted violation and never mutated after insertion.
type ViolationEvent struct {
	ID          string        // unique event id
	Type        ViolationType // violation category
	Timestamp   time.Time     // creation instant
	Description string        // human-readable text
	Severity    Severity      // ranked severity
	Duration    time.Duration // observed duration for debounced violations, 0 if not applicable
}
