package interaction

import "math"

// Hand landmark indices used for gestures. Detectors report 21 landmarks per
// hand in normalized image coordinates.
const (
	ThumbTip      = 4
	IndexTip      = 8
	MiddleMCP     = 9
	LandmarkCount = 21
)

// Landmark is a tracked point in normalized image space. X and Y are in
// [0, 1] across the frame; Z is relative depth.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Finite reports whether all coordinates are finite numbers.
func (l Landmark) Finite() bool {
	return !math.IsNaN(l.X) && !math.IsInf(l.X, 0) &&
		!math.IsNaN(l.Y) && !math.IsInf(l.Y, 0) &&
		!math.IsNaN(l.Z) && !math.IsInf(l.Z, 0)
}

// Distance2D is the distance between l and o in the image plane.
func (l Landmark) Distance2D(o Landmark) float64 {
	return math.Hypot(l.X-o.X, l.Y-o.Y)
}

// Hand is one tracked hand.
type Hand struct {
	Landmarks  []Landmark `json:"landmarks"`
	Handedness string     `json:"handedness,omitempty"`
}

// Usable reports whether the landmarks needed for gestures are present
// and finite.
func (h Hand) Usable() bool {
	if len(h.Landmarks) <= MiddleMCP {
		return false
	}
	for _, i := range []int{ThumbTip, IndexTip, MiddleMCP} {
		if !h.Landmarks[i].Finite() {
			return false
		}
	}
	return true
}

// Pinch is the thumb-to-index distance. The hand must be Usable.
func (h Hand) Pinch() float64 {
	return h.Landmarks[ThumbTip].Distance2D(h.Landmarks[IndexTip])
}

// Sample is the detector output for one video frame.
type Sample struct {
	Hands []Hand `json:"hands"`
}

// UsableHands returns the hands that can drive a gesture, in detector order.
func (s *Sample) UsableHands() []Hand {
	if s == nil {
		return nil
	}
	var out []Hand
	for _, h := range s.Hands {
		if h.Usable() {
			out = append(out, h)
		}
	}
	return out
}
