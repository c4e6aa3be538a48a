package model

import "time"

// bytesPerPixel is the RGBA stride used by frame buffers.
const bytesPerPixel = 4

// Frame is a single still image pulled from the video source.
// Pixels is tightly packed RGBA, row-major.
type Frame struct {
	Width      int
	Height     int
	Pixels     []byte
	CapturedAt time.Time
}

// Ready reports whether the frame carries decoded dimensions and a full
// pixel buffer. Sources may hand out empty frames before the stream has
// negotiated its resolution; those frames must be skipped, not treated
// as errors.
func (f *Frame) Ready() bool {
	if f == nil || f.Width <= 0 || f.Height <= 0 {
		return false
	}
	return len(f.Pixels) >= f.Width*f.Height*bytesPerPixel
}
