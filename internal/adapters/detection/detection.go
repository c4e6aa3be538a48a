// Package detection wraps perception back-ends behind a uniform adapter.
//
// The adapter owns confidence filtering and the suspicious-class
// allow-list, so rule evaluation upstream never depends on which
// backend (primary model or heuristic fallback) produced a result.
package detection

import (
	"context"
	"math"
	"strings"

	"github.com/17Abhi005/proctorai/internal/domain/model"
	"github.com/17Abhi005/proctorai/pkg/logger"
	"github.com/17Abhi005/proctorai/pkg/metrics"
)

// Default adapter configuration constants.
const (
	defaultFaceConfidence   = 0.7
	defaultObjectConfidence = 0.4
)

// FaceBox is a detected face in pixel coordinates.
type FaceBox struct {
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Confidence float64
}

// FaceResult is the per-frame face detection outcome after confidence
// filtering. Count only includes faces at or above the face confidence
// threshold.
type FaceResult struct {
	HasFace       bool
	Count         int
	MultipleFaces bool
	Faces         []FaceBox
}

// ObjectDetection is a single detected object candidate.
type ObjectDetection struct {
	Label      string
	Confidence float64
}

// GazeResult is the outcome of the looking-direction analysis.
type GazeResult struct {
	IsLookingAway bool
	Confidence    float64
}

// Backend is a perception implementation. Implementations are not
// required to filter by confidence or allow-list; the adapter does both.
type Backend interface {
	// Name identifies the backend in logs and stats.
	Name() string

	// DetectFaces analyzes a still frame for faces.
	DetectFaces(ctx context.Context, frame *model.Frame) (FaceResult, error)

	// DetectObjects analyzes a still frame for object candidates.
	DetectObjects(ctx context.Context, frame *model.Frame) ([]ObjectDetection, error)
}

// suspiciousClasses is the fixed allow-list of object labels the engine
// cares about. Labels are compared in lowercase.
var suspiciousClasses = map[string]struct{}{
	"cell phone":   {},
	"mobile phone": {},
	"phone":        {},
	"book":         {},
	"laptop":       {},
	"tablet":       {},
}

// NormalizeLabel lowercases and trims an object label. Cooldown ledgers
// and classification both key on the normalized form.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// AnalyzeLookingDirection reports whether a face is looking away from the
// camera. It is a deterministic geometric function of the face-box center
// offset from the frame center: an offset beyond threshold (as a fraction
// of the frame dimension) on either axis counts as looking away, and
// confidence grows linearly with the offset, saturating at twice the
// threshold.
func AnalyzeLookingDirection(face FaceBox, frameWidth, frameHeight int, threshold float64) GazeResult {
	if frameWidth <= 0 || frameHeight <= 0 || threshold <= 0 {
		return GazeResult{}
	}

	centerX := face.X + face.Width/2
	centerY := face.Y + face.Height/2
	offsetX := math.Abs(centerX-float64(frameWidth)/2) / float64(frameWidth)
	offsetY := math.Abs(centerY-float64(frameHeight)/2) / float64(frameHeight)

	offset := math.Max(offsetX, offsetY)
	confidence := math.Min(1, offset/(threshold*2))

	return GazeResult{
		IsLookingAway: offset > threshold,
		Confidence:    confidence,
	}
}

// Adapter selects a backend once at construction and presents filtered,
// uniform results. Per-frame backend failures degrade to the fallback,
// then to an error the caller treats as "skip this frame".
type Adapter struct {
	primary  Backend
	fallback Backend

	faceConfidence   float64
	objectConfidence float64

	logger logger.Logger
}

// New constructs the adapter. It fails with ErrInitialization only when
// no backend at all is available; a missing primary silently degrades to
// the heuristic fallback.
func New(opts ...Option) (*Adapter, error) {
	a := &Adapter{
		fallback:         NewHeuristicBackend(),
		faceConfidence:   defaultFaceConfidence,
		objectConfidence: defaultObjectConfidence,
	}

	// Apply all options
	for _, opt := range opts {
		opt(a)
	}

	if a.primary == nil && a.fallback == nil {
		return nil, ErrInitialization
	}
	if a.primary == nil {
		a.primary = a.fallback
		a.fallback = nil
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("detection")
	}

	return a, nil
}

// BackendName returns the active primary backend's name.
func (a *Adapter) BackendName() string {
	return a.primary.Name()
}

// DetectFaces runs face detection and applies the confidence threshold.
// Count, HasFace and MultipleFaces are recomputed from the surviving
// boxes so callers see one consistent shape regardless of backend.
func (a *Adapter) DetectFaces(ctx context.Context, frame *model.Frame) (FaceResult, error) {
	raw, err := a.detectFacesAny(ctx, frame)
	if err != nil {
		return FaceResult{}, err
	}

	kept := make([]FaceBox, 0, len(raw.Faces))
	for _, f := range raw.Faces {
		if f.Confidence >= a.faceConfidence {
			kept = append(kept, f)
		}
	}

	return FaceResult{
		HasFace:       len(kept) > 0,
		Count:         len(kept),
		MultipleFaces: len(kept) > 1,
		Faces:         kept,
	}, nil
}

// DetectObjects runs object detection, filtering to suspicious classes
// at or above the object confidence threshold. A failing capability
// degrades to "no detection this frame" rather than an error.
func (a *Adapter) DetectObjects(ctx context.Context, frame *model.Frame) ([]ObjectDetection, error) {
	raw, err := a.primary.DetectObjects(ctx, frame)
	if err != nil {
		metrics.RecordDetectionError(a.primary.Name(), "objects")
		a.logger.Warn(ctx, "object detection failed",
			logger.String("backend", a.primary.Name()),
			logger.Error(err),
		)
		if a.fallback == nil {
			return nil, nil
		}
		raw, err = a.fallback.DetectObjects(ctx, frame)
		if err != nil {
			metrics.RecordDetectionError(a.fallback.Name(), "objects")
			a.logger.Warn(ctx, "fallback object detection failed",
				logger.String("backend", a.fallback.Name()),
				logger.Error(err),
			)
			return nil, nil
		}
	}

	kept := make([]ObjectDetection, 0, len(raw))
	for _, det := range raw {
		if det.Confidence < a.objectConfidence {
			continue
		}
		if _, ok := suspiciousClasses[NormalizeLabel(det.Label)]; ok {
			kept = append(kept, det)
		}
	}
	return kept, nil
}

// detectFacesAny tries the primary backend, then the fallback. Both
// failing is the one per-frame error the caller sees; it means "skip
// this frame", never "no face".
func (a *Adapter) detectFacesAny(ctx context.Context, frame *model.Frame) (FaceResult, error) {
	res, err := a.primary.DetectFaces(ctx, frame)
	if err == nil {
		return res, nil
	}
	metrics.RecordDetectionError(a.primary.Name(), "faces")
	a.logger.Warn(ctx, "face detection failed",
		logger.String("backend", a.primary.Name()),
		logger.Error(err),
	)

	if a.fallback == nil {
		return FaceResult{}, err
	}
	res, err = a.fallback.DetectFaces(ctx, frame)
	if err != nil {
		metrics.RecordDetectionError(a.fallback.Name(), "faces")
		return FaceResult{}, err
	}
	return res, nil
}
