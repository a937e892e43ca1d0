package interaction

import (
	"math"
	"time"

	"github.com/matzehuels/particula/pkg/scene"
)

// Mapping turns a landmark distance into a scale: clamp(Offset + d*Gain).
type Mapping struct {
	Offset float64 `toml:"offset" json:"offset"`
	Gain   float64 `toml:"gain" json:"gain"`
	Min    float64 `toml:"min" json:"min"`
	Max    float64 `toml:"max" json:"max"`
}

// Apply maps distance d.
func (m Mapping) Apply(d float64) float64 {
	v := m.Offset + d*m.Gain
	if math.IsNaN(v) {
		return m.Min
	}
	return math.Max(m.Min, math.Min(m.Max, v))
}

// Params controls gesture resolution.
type Params struct {
	// OneHand maps the pinch distance; closing the pinch grows the scale.
	OneHand Mapping
	// TwoHands maps the distance between the hands.
	TwoHands Mapping

	BreathingAmplitude float64
	BreathingFrequency float64
}

// DefaultParams returns the product's gesture mapping.
func DefaultParams() Params {
	return Params{
		OneHand:            Mapping{Offset: 3.0, Gain: -3.5, Min: 0.5, Max: 3.0},
		TwoHands:           Mapping{Offset: 0, Gain: 4, Min: 0.5, Max: 5.0},
		BreathingAmplitude: scene.DefaultBreathingAmplitude,
		BreathingFrequency: scene.DefaultBreathingFrequency,
	}
}

// ResolveTargetScale converts a detector sample into a target scale.
//
// With no usable hands it returns the breathing value at elapsed and
// detected=false. One hand maps its pinch distance; two or more hands map
// the distance between the middle-finger knuckles of the first two.
// The result is always within [scene.MinScale, scene.MaxScale].
func ResolveTargetScale(s *Sample, elapsed time.Duration, p Params) (scale float64, detected bool) {
	hands := s.UsableHands()
	switch len(hands) {
	case 0:
		return scene.ClampScale(scene.Breathing(elapsed, p.BreathingAmplitude, p.BreathingFrequency)), false
	case 1:
		return scene.ClampScale(p.OneHand.Apply(hands[0].Pinch())), true
	default:
		d := hands[0].Landmarks[MiddleMCP].Distance2D(hands[1].Landmarks[MiddleMCP])
		return scene.ClampScale(p.TwoHands.Apply(d)), true
	}
}
