// Package types contains common types used across the application
package types

import "time"

// ViolationView is the read shape of a timeline entry returned by the API.
type ViolationView struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	DurationMS  int64     `json:"duration_ms,omitempty"`
}

// SessionView is the read shape of a session snapshot.
type SessionView struct {
	CandidateName  string          `json:"candidate_name"`
	SessionID      string          `json:"session_id"`
	StartTime      time.Time       `json:"start_time"`
	EndTime        *time.Time      `json:"end_time,omitempty"`
	Violations     []ViolationView `json:"violations"`
	TotalDuration  int             `json:"total_duration_seconds"`
	IntegrityScore int             `json:"integrity_score"`
}

// StatusView is the read shape of the live monitoring status.
type StatusView struct {
	IsRecording        bool       `json:"is_recording"`
	FaceDetected       bool       `json:"face_detected"`
	ObjectsDetected    []string   `json:"objects_detected"`
	CurrentViolation   string     `json:"current_violation,omitempty"`
	ViolationStartTime *time.Time `json:"violation_start_time,omitempty"`
}
