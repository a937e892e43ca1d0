package interaction

import (
	"math"
	"testing"
	"time"
)

func TestResolveTargetScale(t *testing.T) {
	p := DefaultParams()
	short := Hand{Landmarks: make([]Landmark, 5)}
	bad := PinchHand(0.5, 0.5, 0.1)
	bad.Landmarks[ThumbTip].X = math.NaN()

	tests := []struct {
		name         string
		sample       *Sample
		want         float64
		wantDetected bool
	}{
		{"nil sample", nil, 1.0, false},
		{"no hands", &Sample{}, 1.0, false},
		{"closed pinch", &Sample{Hands: []Hand{PinchHand(0.5, 0.5, 0)}}, 3.0, true},
		{"mid pinch", &Sample{Hands: []Hand{PinchHand(0.5, 0.5, 0.2)}}, 2.3, true},
		{"open pinch clamps", &Sample{Hands: []Hand{PinchHand(0.5, 0.5, 1)}}, 0.5, true},
		{"two hands", &Sample{Hands: HandPair(0.5)}, 2.0, true},
		{"two hands close", &Sample{Hands: HandPair(0.05)}, 0.5, true},
		{"two hands far", &Sample{Hands: HandPair(2)}, 5.0, true},
		{"three hands use first two", &Sample{Hands: append(HandPair(0.5), PinchHand(0.9, 0.9, 0))}, 2.0, true},
		{"short hand ignored", &Sample{Hands: []Hand{short, PinchHand(0.5, 0.5, 0)}}, 3.0, true},
		{"non-finite hand ignored", &Sample{Hands: []Hand{bad}}, 1.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detected := ResolveTargetScale(tt.sample, 0, p)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("scale = %v, want %v", got, tt.want)
			}
			if detected != tt.wantDetected {
				t.Errorf("detected = %v, want %v", detected, tt.wantDetected)
			}
		})
	}
}

func TestResolveBreathingFollowsTime(t *testing.T) {
	p := DefaultParams()
	period := 2 * math.Pi
	quarter := time.Duration(period / 4 * float64(time.Second))
	got, _ := ResolveTargetScale(nil, quarter, p)
	if math.Abs(got-1.05) > 1e-6 {
		t.Errorf("breathing at quarter period = %v, want 1.05", got)
	}
}

func TestResolveIsTotal(t *testing.T) {
	p := DefaultParams()
	inf := math.Inf(1)
	weird := []float64{0, -1, 1e308, -1e308, inf, -inf, math.NaN()}
	for _, a := range weird {
		for _, b := range weird {
			h := PinchHand(0.5, 0.5, 0.1)
			h.Landmarks[ThumbTip].X = a
			h.Landmarks[IndexTip].Y = b
			pair := HandPair(0.3)
			pair[0].Landmarks[MiddleMCP].X = a
			pair[1].Landmarks[MiddleMCP].Y = b

			for _, s := range []*Sample{{Hands: []Hand{h}}, {Hands: pair}} {
				got, _ := ResolveTargetScale(s, time.Second, p)
				if math.IsNaN(got) || got < 0.5 || got > 5.0 {
					t.Fatalf("a=%v b=%v: scale %v out of range", a, b, got)
				}
			}
		}
	}
}

func TestMappingApply(t *testing.T) {
	m := Mapping{Offset: 1, Gain: 2, Min: 0, Max: 4}
	tests := []struct{ d, want float64 }{
		{0, 1}, {1, 3}, {5, 4}, {-5, 0}, {math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := m.Apply(tt.d); got != tt.want {
			t.Errorf("Apply(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestHandUsable(t *testing.T) {
	if (Hand{}).Usable() {
		t.Error("empty hand should not be usable")
	}
	if !PinchHand(0.5, 0.5, 0.1).Usable() {
		t.Error("synthetic hand should be usable")
	}
	h := PinchHand(0.5, 0.5, 0.1)
	h.Landmarks[MiddleMCP].Z = math.Inf(-1)
	if h.Usable() {
		t.Error("hand with infinite knuckle should not be usable")
	}
}
