package detection

import (
	"context"
	"math"
	"sync"

	"github.com/17Abhi005/proctorai/internal/domain/model"
)

// Heuristic tuning constants. These trade recall for precision; the
// heuristic backend is the degraded path and should under-report rather
// than flood the engine with false positives.
const (
	pixelStride = 4 // RGBA

	sampleStep = 2 // analyze every Nth pixel on both axes

	skinRatioFaceMin    = 0.015 // fraction of sampled pixels that must look like skin
	skinConfidenceScale = 30    // confidence = min(1, skinRatio * scale)

	motionDiffThreshold = 24    // per-channel delta counting as changed
	motionRatioMin      = 0.02  // fraction of changed pixels counting as motion
	edgeGradThreshold   = 48    // luma gradient counting as an edge
	edgeRatioObjectMin  = 0.085 // edge density suggesting a held object
	objectConfidence    = 0.45  // fixed confidence for heuristic object hits
)

// heuristicBackend is the degraded perception path: frame differencing
// for motion, skin-tone ratio for face presence, and edge density for
// held objects. It keeps the previous frame for differencing, so it
// expects one caller at a time (the sampler guarantees no overlapping
// detection cycles).
type heuristicBackend struct {
	mu   sync.Mutex
	prev *model.Frame
}

// NewHeuristicBackend creates the fallback backend.
func NewHeuristicBackend() Backend {
	return &heuristicBackend{}
}

func (h *heuristicBackend) Name() string { return "heuristic" }

// DetectFaces estimates face presence from the skin-tone ratio and
// derives a single bounding box from the skin pixel extent. It can never
// report more than one face; multi-face detection needs the real model.
func (h *heuristicBackend) DetectFaces(_ context.Context, frame *model.Frame) (FaceResult, error) {
	if !frame.Ready() {
		return FaceResult{}, ErrFrameNotReady
	}

	var (
		sampled    int
		skin       int
		minX       = frame.Width
		minY       = frame.Height
		maxX, maxY int
	)

	for y := 0; y < frame.Height; y += sampleStep {
		row := y * frame.Width * pixelStride
		for x := 0; x < frame.Width; x += sampleStep {
			i := row + x*pixelStride
			r, g, b := frame.Pixels[i], frame.Pixels[i+1], frame.Pixels[i+2]
			sampled++
			if isSkinTone(r, g, b) {
				skin++
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x > maxX {
					maxX = x
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if sampled == 0 {
		return FaceResult{}, nil
	}

	ratio := float64(skin) / float64(sampled)
	if ratio < skinRatioFaceMin {
		return FaceResult{}, nil
	}

	face := FaceBox{
		X:          float64(minX),
		Y:          float64(minY),
		Width:      float64(maxX - minX),
		Height:     float64(maxY - minY),
		Confidence: math.Min(1, ratio*skinConfidenceScale),
	}
	return FaceResult{
		HasFace: true,
		Count:   1,
		Faces:   []FaceBox{face},
	}, nil
}

// DetectObjects flags a probable held object when the frame shows both
// recent motion and an edge-density spike (a rectangular device held up
// produces hard edges that a face and background do not).
func (h *heuristicBackend) DetectObjects(_ context.Context, frame *model.Frame) ([]ObjectDetection, error) {
	if !frame.Ready() {
		return nil, ErrFrameNotReady
	}

	h.mu.Lock()
	prev := h.prev
	h.prev = frame
	h.mu.Unlock()

	motion := motionRatio(prev, frame)
	edges := edgeRatio(frame)

	if motion >= motionRatioMin && edges >= edgeRatioObjectMin {
		return []ObjectDetection{{Label: "cell phone", Confidence: objectConfidence}}, nil
	}
	return nil, nil
}

// isSkinTone is the classic RGB skin rule: dominant red, moderate green,
// red-green separation.
func isSkinTone(r, g, b byte) bool {
	return r > 95 && g > 40 && b > 20 &&
		r > g && r > b &&
		int(r)-int(g) > 15
}

// motionRatio returns the fraction of sampled pixels whose red channel
// moved more than the diff threshold between two frames of equal size.
func motionRatio(prev, cur *model.Frame) float64 {
	if prev == nil || !prev.Ready() || prev.Width != cur.Width || prev.Height != cur.Height {
		return 0
	}

	var sampled, changed int
	for y := 0; y < cur.Height; y += sampleStep {
		row := y * cur.Width * pixelStride
		for x := 0; x < cur.Width; x += sampleStep {
			i := row + x*pixelStride
			sampled++
			if absDiff(cur.Pixels[i], prev.Pixels[i]) > motionDiffThreshold {
				changed++
			}
		}
	}
	if sampled == 0 {
		return 0
	}
	return float64(changed) / float64(sampled)
}

// edgeRatio returns the fraction of sampled pixels with a strong
// horizontal luma gradient.
func edgeRatio(frame *model.Frame) float64 {
	var sampled, edges int
	for y := 0; y < frame.Height; y += sampleStep {
		row := y * frame.Width * pixelStride
		for x := 0; x+sampleStep < frame.Width; x += sampleStep {
			i := row + x*pixelStride
			j := row + (x+sampleStep)*pixelStride
			sampled++
			if absDiff(luma(frame.Pixels[i:i+3]), luma(frame.Pixels[j:j+3])) > edgeGradThreshold {
				edges++
			}
		}
	}
	if sampled == 0 {
		return 0
	}
	return float64(edges) / float64(sampled)
}

// luma approximates perceived brightness from an RGB triple.
func luma(px []byte) byte {
	return byte((299*int(px[0]) + 587*int(px[1]) + 114*int(px[2])) / 1000)
}

func absDiff(a, b byte) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
