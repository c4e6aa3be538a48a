package simulate

import (
	"context"
	"sync"
	"time"

	"github.com/17Abhi005/proctorai/internal/adapters/detection"
	"github.com/17Abhi005/proctorai/internal/domain/model"
)

// Synthetic frame geometry.
const (
	frameWidth  = 320
	frameHeight = 240
	faceSpan    = 80 // synthetic face box edge, px
)

// scriptedBackend replays a script as perception results. Scenario time
// advances speedup times faster than wall time.
type scriptedBackend struct {
	mu      sync.Mutex
	script  Script
	start   time.Time
	speedup float64
}

func newScriptedBackend(script Script, speedup float64) *scriptedBackend {
	if speedup <= 0 {
		speedup = 1
	}
	return &scriptedBackend{
		script:  script,
		start:   time.Now(),
		speedup: speedup,
	}
}

func (b *scriptedBackend) Name() string { return "scripted" }

// elapsed returns the current scenario offset.
func (b *scriptedBackend) elapsed() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Duration(float64(time.Since(b.start)) * b.speedup)
}

func (b *scriptedBackend) DetectFaces(_ context.Context, frame *model.Frame) (detection.FaceResult, error) {
	step := b.script.StepAt(b.elapsed())
	if step.FaceCount <= 0 {
		return detection.FaceResult{}, nil
	}

	faces := make([]detection.FaceBox, 0, step.FaceCount)
	// Primary face, shifted off center by the scripted gaze offset.
	centerX := (0.5 + step.GazeOffset) * float64(frame.Width)
	faces = append(faces, detection.FaceBox{
		X:          centerX - faceSpan/2,
		Y:          float64(frame.Height)/2 - faceSpan/2,
		Width:      faceSpan,
		Height:     faceSpan,
		Confidence: 0.95,
	})
	// Extra faces line up along the left edge.
	for i := 1; i < step.FaceCount; i++ {
		faces = append(faces, detection.FaceBox{
			X:          float64(i-1) * faceSpan,
			Y:          0,
			Width:      faceSpan,
			Height:     faceSpan,
			Confidence: 0.9,
		})
	}

	return detection.FaceResult{
		HasFace:       true,
		Count:         len(faces),
		MultipleFaces: len(faces) > 1,
		Faces:         faces,
	}, nil
}

func (b *scriptedBackend) DetectObjects(_ context.Context, _ *model.Frame) ([]detection.ObjectDetection, error) {
	step := b.script.StepAt(b.elapsed())
	objects := make([]detection.ObjectDetection, 0, len(step.Objects))
	for _, label := range step.Objects {
		objects = append(objects, detection.ObjectDetection{Label: label, Confidence: 0.9})
	}
	return objects, nil
}

// FrameSource produces deterministic synthetic frames. With FaceRegion
// set, each frame carries a skin-tone block the heuristic backend
// recognizes as a face, which makes it usable for demos without a
// scripted backend.
type FrameSource struct {
	FaceRegion bool
}

func (s FrameSource) Capture(_ context.Context) (*model.Frame, error) {
	pixels := make([]byte, frameWidth*frameHeight*4)
	for y := 0; y < frameHeight; y++ {
		for x := 0; x < frameWidth; x++ {
			i := (y*frameWidth + x) * 4
			// Neutral gray with pseudo-noise on all channels equally,
			// so the background never trips the skin-tone rule.
			noise := byte((x*31 + y*17) % 23)
			pixels[i] = 110 + noise
			pixels[i+1] = 110 + noise
			pixels[i+2] = 110 + noise
			pixels[i+3] = 255
		}
	}
	if s.FaceRegion {
		paintFace(pixels)
	}
	return &model.Frame{
		Width:      frameWidth,
		Height:     frameHeight,
		Pixels:     pixels,
		CapturedAt: time.Now(),
	}, nil
}

// paintFace fills a centered skin-tone block.
func paintFace(pixels []byte) {
	x0 := (frameWidth - faceSpan) / 2
	y0 := (frameHeight - faceSpan) / 2
	for y := y0; y < y0+faceSpan; y++ {
		for x := x0; x < x0+faceSpan; x++ {
			i := (y*frameWidth + x) * 4
			pixels[i] = 182
			pixels[i+1] = 122
			pixels[i+2] = 92
			pixels[i+3] = 255
		}
	}
}
