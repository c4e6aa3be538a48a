// Package simulate replays scripted monitoring scenarios through the
// full inference pipeline, compressed in time. It exists for local
// verification and demos: no camera, no model runtime, just a timeline
// of what the perception layer would have reported.
package simulate

import (
	"time"

	"github.com/17Abhi005/proctorai/internal/domain/model"
)

// Step is one segment of a scenario timeline. The perception layer
// reports the same observation for the whole hold.
type Step struct {
	// Hold is how long this step lasts in scenario time.
	Hold time.Duration

	// FaceCount is the number of faces visible. Zero means absent.
	FaceCount int

	// GazeOffset shifts the primary face center off the frame center,
	// as a signed fraction of frame width. Zero means looking straight.
	GazeOffset float64

	// Objects are the labels the object detector reports.
	Objects []string
}

// Script is a named scenario: a timeline plus the violation types it
// is expected to produce.
type Script struct {
	Name     string
	Steps    []Step
	Expected []model.ViolationType
}

// Duration is the total scenario time of the script.
func (s Script) Duration() time.Duration {
	var total time.Duration
	for _, step := range s.Steps {
		total += step.Hold
	}
	return total
}

// StepAt returns the step active at the given scenario offset. Offsets
// past the end stick to the last step.
func (s Script) StepAt(elapsed time.Duration) Step {
	var cursor time.Duration
	for _, step := range s.Steps {
		cursor += step.Hold
		if elapsed < cursor {
			return step
		}
	}
	if len(s.Steps) == 0 {
		return Step{FaceCount: 1}
	}
	return s.Steps[len(s.Steps)-1]
}

// Scenarios returns the built-in scenario scripts keyed by name.
func Scenarios() map[string]Script {
	attentive := Step{Hold: 5 * time.Second, FaceCount: 1}

	return map[string]Script{
		"clean": {
			Name: "clean",
			Steps: []Step{
				{Hold: 30 * time.Second, FaceCount: 1},
			},
		},
		"phone": {
			Name: "phone",
			Steps: []Step{
				attentive,
				{Hold: 10 * time.Second, FaceCount: 1, Objects: []string{"cell phone"}},
				attentive,
			},
			Expected: []model.ViolationType{model.PhoneDetected},
		},
		"absence": {
			Name: "absence",
			Steps: []Step{
				attentive,
				{Hold: 45 * time.Second, FaceCount: 0},
				attentive,
			},
			Expected: []model.ViolationType{model.FaceNotVisible, model.CandidateAbsent},
		},
		"crowd": {
			Name: "crowd",
			Steps: []Step{
				attentive,
				{Hold: 10 * time.Second, FaceCount: 2},
				attentive,
			},
			Expected: []model.ViolationType{model.MultipleFaces},
		},
		"distracted": {
			Name: "distracted",
			Steps: []Step{
				attentive,
				{Hold: 15 * time.Second, FaceCount: 1, GazeOffset: 0.3},
				attentive,
			},
			Expected: []model.ViolationType{model.LookingAway},
		},
		"exam-bust": {
			Name: "exam-bust",
			Steps: []Step{
				attentive,
				{Hold: 10 * time.Second, FaceCount: 1, Objects: []string{"cell phone", "book"}},
				{Hold: 10 * time.Second, FaceCount: 2},
				{Hold: 45 * time.Second, FaceCount: 0},
				attentive,
			},
			Expected: []model.ViolationType{
				model.PhoneDetected,
				model.BookDetected,
				model.MultipleFaces,
				model.FaceNotVisible,
				model.CandidateAbsent,
			},
		},
	}
}
