package interaction

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/matzehuels/particula/pkg/errors"
)

// Script produces the sample seen at time t. A nil sample means no hands.
type Script func(t time.Duration) *Sample

// Detect lets a Script stand in for a hand-tracking model.
func (s Script) Detect(ctx context.Context, f Frame) (*Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s(f.At), nil
}

// Record samples s every step up to and including d.
func (s Script) Record(d, step time.Duration) Recording {
	if step <= 0 {
		return nil
	}
	var rec Recording
	for t := time.Duration(0); t <= d; t += step {
		e := Entry{At: t}
		if smp := s(t); smp != nil {
			e.Sample = *smp
		}
		rec = append(rec, e)
	}
	return rec
}

// PinchHand returns a hand centered at (cx, cy) whose thumb and index tips
// are d apart.
func PinchHand(cx, cy, d float64) Hand {
	lm := make([]Landmark, LandmarkCount)
	for i := range lm {
		lm[i] = Landmark{X: cx, Y: cy + 0.1}
	}
	lm[ThumbTip] = Landmark{X: cx - d/2, Y: cy}
	lm[IndexTip] = Landmark{X: cx + d/2, Y: cy}
	lm[MiddleMCP] = Landmark{X: cx, Y: cy + 0.1}
	return Hand{Landmarks: lm, Handedness: "Right"}
}

// HandPair returns two open hands whose middle-finger knuckles are d apart
// horizontally, centered in the frame.
func HandPair(d float64) []Hand {
	left := PinchHand(0.5-d/2, 0.4, 0.2)
	left.Handedness = "Left"
	right := PinchHand(0.5+d/2, 0.4, 0.2)
	return []Hand{left, right}
}

// oscillate moves between lo and hi with the given period, starting at lo.
func oscillate(t, period time.Duration, lo, hi float64) float64 {
	phase := 2 * math.Pi * float64(t) / float64(period)
	return lo + (hi-lo)*(1-math.Cos(phase))/2
}

// Idle never sees hands.
func Idle() Script {
	return func(time.Duration) *Sample { return nil }
}

// TwoHandSweep spreads and closes two hands between 0.15 and 1.1 apart.
func TwoHandSweep(period time.Duration) Script {
	return func(t time.Duration) *Sample {
		return &Sample{Hands: HandPair(oscillate(t, period, 0.15, 1.1))}
	}
}

// PinchPulse opens and closes a single pinch between 0.05 and 0.7.
func PinchPulse(period time.Duration) Script {
	return func(t time.Duration) *Sample {
		return &Sample{Hands: []Hand{PinchHand(0.5, 0.5, oscillate(t, period, 0.7, 0.05))}}
	}
}

// Intermittent shows s for on, then no hands for off, repeating.
func Intermittent(s Script, on, off time.Duration) Script {
	return func(t time.Duration) *Sample {
		if t%(on+off) >= on {
			return nil
		}
		return s(t)
	}
}

var scripts = map[string]func(time.Duration) Script{
	"idle":  func(time.Duration) Script { return Idle() },
	"sweep": TwoHandSweep,
	"pinch": PinchPulse,
	"blink": func(p time.Duration) Script { return Intermittent(TwoHandSweep(p), p/2, p/2) },
}

// ScriptNames lists the built-in scripts.
func ScriptNames() []string {
	names := make([]string, 0, len(scripts))
	for n := range scripts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NamedScript returns a built-in script by name.
func NamedScript(name string, period time.Duration) (Script, error) {
	if period <= 0 {
		period = 4 * time.Second
	}
	mk, ok := scripts[strings.ToLower(name)]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown script %q (available: %s)", name, strings.Join(ScriptNames(), ", "))
	}
	return mk(period), nil
}
