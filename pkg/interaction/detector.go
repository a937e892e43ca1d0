package interaction

import (
	"context"
	"time"
)

// Frame is one captured video frame on its way to a Detector.
type Frame struct {
	Seq uint64
	// At is the capture time relative to the start of the session.
	At     time.Duration
	Width  int
	Height int
	Pixels []byte
}

// Detector finds hands in a frame. Implementations wrap the hand-tracking
// model; they may block on inference and should honor ctx.
//
// A Detector that also implements io.Closer is closed with the Driver.
type Detector interface {
	Detect(ctx context.Context, f Frame) (*Sample, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, f Frame) (*Sample, error)

func (fn DetectorFunc) Detect(ctx context.Context, f Frame) (*Sample, error) {
	return fn(ctx, f)
}
