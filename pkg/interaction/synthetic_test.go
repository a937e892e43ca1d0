package interaction

import (
	"testing"
	"time"
)

func TestScripts(t *testing.T) {
	const period = 2 * time.Second
	p := DefaultParams()

	tests := []struct {
		name       string
		script     Script
		detected   bool
		minS, maxS float64
	}{
		{"sweep", TwoHandSweep(period), true, 0.6, 4.4},
		{"pinch", PinchPulse(period), true, 0.55, 2.83},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := 10.0, 0.0
			for ms := 0; ms <= 2000; ms += 10 {
				s := tt.script(time.Duration(ms) * time.Millisecond)
				scale, det := ResolveTargetScale(s, 0, p)
				if det != tt.detected {
					t.Fatalf("t=%dms: detected = %v", ms, det)
				}
				lo, hi = min(lo, scale), max(hi, scale)
			}
			if lo > tt.minS+0.01 || hi < tt.maxS-0.01 {
				t.Errorf("range [%v, %v], want about [%v, %v]", lo, hi, tt.minS, tt.maxS)
			}
		})
	}
}

func TestIdleScript(t *testing.T) {
	if Idle()(time.Second) != nil {
		t.Error("Idle() should never see hands")
	}
}

func TestIntermittent(t *testing.T) {
	s := Intermittent(TwoHandSweep(time.Second), 300*time.Millisecond, 200*time.Millisecond)
	tests := []struct {
		t     time.Duration
		hands bool
	}{
		{0, true},
		{299 * time.Millisecond, true},
		{300 * time.Millisecond, false},
		{499 * time.Millisecond, false},
		{500 * time.Millisecond, true},
	}
	for _, tt := range tests {
		if got := s(tt.t) != nil; got != tt.hands {
			t.Errorf("t=%v: hands = %v, want %v", tt.t, got, tt.hands)
		}
	}
}

func TestNamedScript(t *testing.T) {
	for _, name := range ScriptNames() {
		if _, err := NamedScript(name, 0); err != nil {
			t.Errorf("NamedScript(%q) error = %v", name, err)
		}
	}
	if _, err := NamedScript("Sweep", time.Second); err != nil {
		t.Errorf("names should be case-insensitive: %v", err)
	}
	if _, err := NamedScript("juggle", time.Second); err == nil {
		t.Error("unknown script should fail")
	}
}

func TestScriptRecord(t *testing.T) {
	rec := PinchPulse(time.Second).Record(time.Second, 250*time.Millisecond)
	if len(rec) != 5 {
		t.Fatalf("len = %d, want 5", len(rec))
	}
	if rec[4].At != time.Second {
		t.Errorf("last entry at %v", rec[4].At)
	}
	if Idle().Record(time.Second, 0) != nil {
		t.Error("non-positive step should record nothing")
	}
}
