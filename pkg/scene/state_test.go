package scene

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/particula/pkg/shape"
)

const tick = time.Second / 60

func newTestState(t *testing.T, kind shape.Kind, opts Options) *State {
	t.Helper()
	if opts.Count == 0 {
		opts.Count = 500
	}
	if opts.Seed == 0 {
		opts.Seed = 1
	}
	s, err := New(kind, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestNewDefaults(t *testing.T) {
	s := newTestState(t, shape.Sphere, Options{})
	f := s.Snapshot()

	if f.Shape != shape.Sphere {
		t.Errorf("Shape = %q, want sphere", f.Shape)
	}
	if f.Scale != 1 || s.TargetScale() != 1 {
		t.Errorf("initial scale = %v/%v, want 1/1", f.Scale, s.TargetScale())
	}
	if f.Camera.FOV != DefaultBaseFOV {
		t.Errorf("FOV = %v, want %v", f.Camera.FOV, DefaultBaseFOV)
	}
	if f.Camera.Position.Z != shape.ProfileOf(shape.Sphere).CameraZ {
		t.Errorf("camera z = %v", f.Camera.Position.Z)
	}
	if s.Cloud().Len() != 500 {
		t.Errorf("cloud has %d points, want 500", s.Cloud().Len())
	}
}

func TestNewUnknownShape(t *testing.T) {
	s := newTestState(t, "wobbly", Options{})
	if s.Snapshot().Shape != shape.Default {
		t.Errorf("Shape = %q, want %q", s.Snapshot().Shape, shape.Default)
	}
}

func TestNewInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"damping too large", Options{ScaleDamping: 1.5}},
		{"negative damping", Options{FOVDamping: -0.1}},
		{"count too large", Options{Count: 10_000_000}},
		{"fov out of range", Options{BaseFOV: 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(shape.Galaxy, tt.opts); err == nil {
				t.Error("New() should reject options")
			}
		})
	}
}

func TestSetDefaultsRefillsClearedFields(t *testing.T) {
	opts := DefaultOptions()
	opts.ScaleDamping = 0
	opts.BaseFOV = 0
	opts.FOVGain = 12
	opts.SetDefaults()

	if opts.ScaleDamping != DefaultScaleDamping || opts.BaseFOV != DefaultBaseFOV {
		t.Errorf("cleared fields = %v/%v, want defaults", opts.ScaleDamping, opts.BaseFOV)
	}
	if opts.FOVGain != 12 {
		t.Errorf("FOVGain = %v, want 12 kept", opts.FOVGain)
	}
}

func TestDampingConvergesWithoutOvershoot(t *testing.T) {
	tests := []struct {
		name    string
		target  float64
		ticks   int
		epsilon float64
	}{
		{"grow half", 1.5, 50, 0.01},
		{"shrink half", 0.5, 50, 0.01},
		{"grow to max", 5.0, 80, 0.01},
		{"grow one", 2.0, 60, 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(t, shape.Galaxy, Options{})
			s.SetTarget(tt.target, true)

			prevGap := math.Abs(tt.target - 1)
			for i := 1; i <= tt.ticks; i++ {
				f := s.Tick(time.Duration(i) * tick)
				gap := math.Abs(tt.target - f.Scale)
				if gap > prevGap {
					t.Fatalf("tick %d: gap grew from %v to %v", i, prevGap, gap)
				}
				if (tt.target-1)*(tt.target-f.Scale) < 0 {
					t.Fatalf("tick %d: scale %v overshot %v", i, f.Scale, tt.target)
				}
				prevGap = gap
			}
			if prevGap >= tt.epsilon {
				t.Errorf("after %d ticks gap = %v, want < %v", tt.ticks, prevGap, tt.epsilon)
			}
		})
	}
}

func TestDampingFactorPerTick(t *testing.T) {
	s := newTestState(t, shape.Galaxy, Options{})
	s.SetTarget(2, true)
	f := s.Tick(tick)
	if want := 1 + 0.08; math.Abs(f.Scale-want) > 1e-12 {
		t.Errorf("Scale after one tick = %v, want %v", f.Scale, want)
	}
}

func TestBreathingBounds(t *testing.T) {
	s := newTestState(t, shape.Galaxy, Options{})
	for i := 1; i <= 2000; i++ {
		f := s.Tick(time.Duration(i) * 7 * time.Millisecond)
		if f.Detected {
			t.Fatal("Detected should be false without a gesture")
		}
		if f.TargetScale < 0.95-1e-12 || f.TargetScale > 1.05+1e-12 {
			t.Fatalf("tick %d: breathing target %v outside [0.95, 1.05]", i, f.TargetScale)
		}
		if f.Scale < 0.95-1e-12 || f.Scale > 1.05+1e-12 {
			t.Fatalf("tick %d: scale %v outside [0.95, 1.05]", i, f.Scale)
		}
	}
}

// seconds converts fractional seconds, which constant conversion cannot.
func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

func TestBreathing(t *testing.T) {
	tests := []struct {
		t    time.Duration
		want float64
	}{
		{0, 1},
		{seconds(math.Pi / 2), 1.05},
		{seconds(3 * math.Pi / 2), 0.95},
	}
	for _, tt := range tests {
		if got := Breathing(tt.t, 0.05, 0.001); math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("Breathing(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestLostHandsReturnToBreathing(t *testing.T) {
	s := newTestState(t, shape.Galaxy, Options{})
	s.SetTarget(3, true)
	s.Tick(tick)
	if !s.Detected() || s.TargetScale() != 3 {
		t.Fatalf("target = %v detected = %v", s.TargetScale(), s.Detected())
	}

	s.SetTarget(0, false)
	f := s.Tick(2 * tick)
	if f.Detected {
		t.Error("Detected should be false after hands are lost")
	}
	if f.TargetScale > 1.05 {
		t.Errorf("TargetScale = %v, want breathing value", f.TargetScale)
	}
}

func TestSetTargetClamps(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.1, MinScale},
		{9, MaxScale},
		{2.5, 2.5},
		{math.NaN(), 1},
		{math.Inf(1), MaxScale},
	}
	s := newTestState(t, shape.Galaxy, Options{})
	for _, tt := range tests {
		s.SetTarget(tt.in, true)
		if got := s.TargetScale(); got != tt.want {
			t.Errorf("SetTarget(%v): TargetScale = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFOVWidensAboveUnitScale(t *testing.T) {
	s := newTestState(t, shape.Galaxy, Options{})
	s.SetTarget(3, true)
	var f Frame
	for i := 1; i <= 300; i++ {
		f = s.Tick(time.Duration(i) * tick)
	}
	want := DefaultBaseFOV + 4*DefaultFOVGain
	if math.Abs(f.Camera.FOV-want) > 0.5 {
		t.Errorf("FOV = %v, want about %v", f.Camera.FOV, want)
	}

	s.SetTarget(0.6, true)
	for i := 301; i <= 900; i++ {
		f = s.Tick(time.Duration(i) * tick)
	}
	if math.Abs(f.Camera.FOV-DefaultBaseFOV) > 0.5 {
		t.Errorf("FOV = %v, want about %v below unit scale", f.Camera.FOV, DefaultBaseFOV)
	}
}

func TestOpacityCurves(t *testing.T) {
	tests := []struct {
		scale             float64
		point, core, size float64
	}{
		{0.5, 0.5, 0, 0.4},
		{1, 0.5, 0.3, 0.8},
		{1.3, 0.8, 0.6, 1.04},
		{2, 1, 1, 1.6},
		{5, 1, 1, 4},
	}
	for _, tt := range tests {
		if got := PointOpacity(tt.scale); math.Abs(got-tt.point) > 1e-9 {
			t.Errorf("PointOpacity(%v) = %v, want %v", tt.scale, got, tt.point)
		}
		if got := CoreOpacity(tt.scale); math.Abs(got-tt.core) > 1e-9 {
			t.Errorf("CoreOpacity(%v) = %v, want %v", tt.scale, got, tt.core)
		}
		if got := CoreScale(tt.scale); math.Abs(got-tt.size) > 1e-9 {
			t.Errorf("CoreScale(%v) = %v, want %v", tt.scale, got, tt.size)
		}
	}
}

func TestRequestShapeAppliesOnNextTick(t *testing.T) {
	s := newTestState(t, shape.Galaxy, Options{})
	s.SetTarget(4, true)
	for i := 1; i <= 30; i++ {
		s.Tick(time.Duration(i) * tick)
	}

	s.RequestShape(shape.Kite)
	if s.Cloud().Shape != shape.Galaxy {
		t.Fatal("shape should not change before the next tick")
	}

	f := s.Tick(31 * tick)
	if !f.Rebuilt || f.Shape != shape.Kite || s.Cloud().Shape != shape.Kite {
		t.Fatalf("frame = %+v, cloud shape = %q", f, s.Cloud().Shape)
	}
	// Scale restarts from 1 and takes a single damped step toward the target.
	if want := 1 + (4-1)*DefaultScaleDamping; math.Abs(f.Scale-want) > 1e-9 {
		t.Errorf("Scale after switch = %v, want %v", f.Scale, want)
	}
	if f.Camera.Position.Z != shape.ProfileOf(shape.Kite).CameraZ {
		t.Errorf("camera z = %v, want %v", f.Camera.Position.Z, shape.ProfileOf(shape.Kite).CameraZ)
	}
	if f.Rotation.Y > 0.01 {
		t.Errorf("rotation should restart after a switch, got %+v", f.Rotation)
	}

	if f := s.Tick(32 * tick); f.Rebuilt {
		t.Error("Rebuilt should only be set on the switching tick")
	}
}

func TestRequestSameShapeIsNoop(t *testing.T) {
	s := newTestState(t, shape.Sphere, Options{})
	s.RequestShape(shape.Sphere)
	if f := s.Tick(tick); f.Rebuilt {
		t.Error("requesting the active shape should not rebuild")
	}
}

func TestPointerMovesCamera(t *testing.T) {
	s := newTestState(t, shape.Galaxy, Options{})
	s.SetPointer(1, -2)
	var f Frame
	for i := 1; i <= 400; i++ {
		f = s.Tick(time.Duration(i) * tick)
	}
	if math.Abs(f.Camera.Position.X-DefaultPointerReach) > 0.01 {
		t.Errorf("camera x = %v, want %v", f.Camera.Position.X, DefaultPointerReach)
	}
	if math.Abs(f.Camera.Position.Y+DefaultPointerReach) > 0.01 {
		t.Errorf("camera y = %v, want %v (pointer clamped)", f.Camera.Position.Y, -DefaultPointerReach)
	}
	if f.Camera.Yaw <= 0 || f.Camera.Pitch <= 0 {
		t.Errorf("camera should aim at the origin, yaw=%v pitch=%v", f.Camera.Yaw, f.Camera.Pitch)
	}
}

func TestRateIndependentDamping(t *testing.T) {
	run := func(fps int) float64 {
		s := newTestState(t, shape.Galaxy, Options{RateIndependent: true})
		s.SetTarget(3, true)
		var f Frame
		for i := 0; i <= fps; i++ {
			f = s.Tick(time.Duration(i) * time.Second / time.Duration(fps))
		}
		return f.Scale
	}
	at30, at60, at144 := run(30), run(60), run(144)
	if math.Abs(at30-at60) > 1e-6 || math.Abs(at144-at60) > 1e-6 {
		t.Errorf("one second of easing differs by rate: 30fps=%v 60fps=%v 144fps=%v", at30, at60, at144)
	}

	fixed := newTestState(t, shape.Galaxy, Options{})
	fixed.SetTarget(3, true)
	var f Frame
	for i := 1; i <= 60; i++ {
		f = fixed.Tick(time.Duration(i) * time.Second / 60)
	}
	if math.Abs(f.Scale-at60) > 1e-6 {
		t.Errorf("rate-independent at the reference rate = %v, fixed-step = %v", at60, f.Scale)
	}
}

func TestConcurrentProducers(t *testing.T) {
	s := newTestState(t, shape.Galaxy, Options{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 500 {
			s.SetTarget(1+float64(i%4), i%5 != 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := range 500 {
			s.RequestShape(shape.All()[i%len(shape.All())])
			_ = s.Snapshot()
		}
	}()
	for i := 1; i <= 200; i++ {
		f := s.Tick(time.Duration(i) * tick)
		if f.Scale < MinScale || f.Scale > MaxScale {
			t.Fatalf("scale %v out of range", f.Scale)
		}
	}
	wg.Wait()
}

func TestGestureSurvivesBreathingRace(t *testing.T) {
	s := newTestState(t, shape.Galaxy, Options{})
	s.Tick(tick)
	s.SetTarget(2, true)
	f := s.Tick(2 * tick)
	if !f.Detected || f.TargetScale != 2 {
		t.Errorf("breathing overwrote gesture: %+v", f)
	}
}

func TestSettled(t *testing.T) {
	opts := DefaultOptions()
	f := Settled(shape.Sphere, 3, 2*time.Second, opts)
	if f.Scale != 3 || f.TargetScale != 3 {
		t.Errorf("scale = %v / %v, want 3", f.Scale, f.TargetScale)
	}
	if math.Abs(f.Camera.FOV-275) > 1e-9 {
		t.Errorf("FOV = %v, want 275", f.Camera.FOV)
	}
	if f.PointOpacity != 1 || f.CoreOpacity != 1 || math.Abs(f.CoreScale-2.4) > 1e-9 {
		t.Errorf("opacities = %v %v %v", f.PointOpacity, f.CoreOpacity, f.CoreScale)
	}

	if g := Settled("nope", 9, 0, opts); g.Shape != shape.Default || g.Scale != MaxScale {
		t.Errorf("unknown shape or oversize scale not normalized: %+v", g)
	}
}
