package scene

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/matzehuels/particula/pkg/observability"
	"github.com/matzehuels/particula/pkg/sampler"
	"github.com/matzehuels/particula/pkg/shape"
)

// =============================================================================
// Frame
// =============================================================================

// Camera is the viewer pose for a frame.
type Camera struct {
	Position sampler.Vec3 `json:"position"`
	// Yaw and Pitch aim the camera at the origin, in radians.
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	FOV   float64 `json:"fov"`
}

// Frame is everything a renderer needs to draw one tick.
type Frame struct {
	Seq          uint64        `json:"seq"`
	Elapsed      time.Duration `json:"elapsed"`
	Shape        shape.Kind    `json:"shape"`
	Scale        float64       `json:"scale"`
	TargetScale  float64       `json:"target_scale"`
	Detected     bool          `json:"detected"`
	PointOpacity float64       `json:"point_opacity"`
	CoreOpacity  float64       `json:"core_opacity"`
	CoreScale    float64       `json:"core_scale"`
	Rotation     sampler.Vec3  `json:"rotation"`
	Camera       Camera        `json:"camera"`
	// Rebuilt reports that the point cloud was replaced on this tick.
	Rebuilt bool `json:"rebuilt"`
}

// PointOpacity is the particle opacity for mesh scale s.
func PointOpacity(s float64) float64 {
	return math.Min(1, 0.5+math.Max(0, s-1))
}

// CoreOpacity is the opacity of the central glow for mesh scale s.
func CoreOpacity(s float64) float64 {
	return math.Max(0, math.Min(1, 0.3+(s-1)))
}

// CoreScale is the size of the central glow for mesh scale s.
func CoreScale(s float64) float64 {
	return s * 0.8
}

// =============================================================================
// State
// =============================================================================

// target is the scale the mesh eases toward. It is swapped as a unit so the
// idle breathing update never overwrites a concurrent gesture update.
type target struct {
	scale    float64
	detected bool
}

// State is the animation state of one scene.
//
// SetTarget, SetPointer, RequestShape and Snapshot are safe to call from any
// goroutine. Tick and Cloud belong to the goroutine that drives the scene.
type State struct {
	opts Options
	seed uint64

	target  atomic.Pointer[target]
	pointer atomic.Pointer[[2]float64]
	pending atomic.Pointer[shape.Kind]
	last    atomic.Pointer[Frame]

	// Owned by the ticking goroutine.
	kind       shape.Kind
	profile    shape.Profile
	cloud      *sampler.PointCloud
	current    float64
	fov        float64
	camPos     sampler.Vec3
	shapeSince time.Duration
	prev       time.Duration
	ticked     bool
	seq        uint64
}

// New creates a scene showing kind. Unknown kinds fall back to
// shape.Default. Options are defaulted and validated.
func New(kind shape.Kind, opts Options) (*State, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &State{opts: opts, seed: opts.Seed}
	s.target.Store(&target{scale: 1})
	s.pointer.Store(&[2]float64{})
	s.load(kind, 0)
	s.last.Store(&Frame{
		Shape:        s.kind,
		Scale:        s.current,
		TargetScale:  1,
		PointOpacity: PointOpacity(1),
		CoreOpacity:  CoreOpacity(1),
		CoreScale:    CoreScale(1),
		Camera:       s.camera(),
	})
	return s, nil
}

// load builds the cloud for kind and resets the camera and scale.
func (s *State) load(kind shape.Kind, at time.Duration) {
	kind = shape.Resolve(string(kind))
	s.kind = kind
	s.profile = shape.ProfileOf(kind)
	s.cloud = sampler.Generate(kind, s.opts.Count, sampler.NewSource(s.seed))
	s.current = 1
	s.fov = s.opts.BaseFOV
	s.camPos = sampler.Vec3{Z: s.profile.CameraZ}
	s.shapeSince = at
}

// Options returns the defaulted options of s.
func (s *State) Options() Options { return s.opts }

// SetTarget records a new gesture reading. When detected is false the scale
// argument is ignored and the scene returns to breathing on the next tick.
func (s *State) SetTarget(scale float64, detected bool) {
	if !detected {
		s.target.Store(&target{scale: s.TargetScale()})
		return
	}
	s.target.Store(&target{scale: ClampScale(scale), detected: true})
}

// TargetScale returns the most recently written target.
func (s *State) TargetScale() float64 { return s.target.Load().scale }

// Detected reports whether the last gesture reading saw hands.
func (s *State) Detected() bool { return s.target.Load().detected }

// SetPointer sets the normalized pointer offset. Components are clamped to
// [-1, 1]; the camera drifts toward the offset over subsequent ticks.
func (s *State) SetPointer(x, y float64) {
	c := func(v float64) float64 {
		if math.IsNaN(v) {
			return 0
		}
		return math.Max(-1, math.Min(1, v))
	}
	s.pointer.Store(&[2]float64{c(x), c(y)})
}

// RequestShape schedules a switch to kind. It takes effect at the start of
// the next tick. Unknown kinds resolve to shape.Default.
func (s *State) RequestShape(kind shape.Kind) {
	k := shape.Resolve(string(kind))
	s.pending.Store(&k)
}

// Cloud returns the current point cloud. Only the ticking goroutine may call
// it; other goroutines see the shape through Snapshot.
func (s *State) Cloud() *sampler.PointCloud { return s.cloud }

// Snapshot returns the most recent frame.
func (s *State) Snapshot() Frame { return *s.last.Load() }

// Tick advances the scene to elapsed, the time since the scene started,
// and returns the frame to draw.
func (s *State) Tick(elapsed time.Duration) Frame {
	rebuilt := false
	if k := s.pending.Swap(nil); k != nil && *k != s.kind {
		from := s.kind
		s.load(*k, elapsed)
		rebuilt = true
		observability.Scene().OnShapeChange(context.Background(), string(from), string(s.kind), s.cloud.Len())
	}

	var dt time.Duration
	if s.ticked {
		dt = elapsed - s.prev
	}
	s.prev = elapsed
	s.ticked = true

	tgt := s.target.Load()
	if !tgt.detected {
		next := &target{scale: Breathing(elapsed, s.opts.BreathingAmplitude, s.opts.BreathingFrequency)}
		if s.target.CompareAndSwap(tgt, next) {
			tgt = next
		} else {
			tgt = s.target.Load()
		}
	}

	s.current += (tgt.scale - s.current) * s.opts.step(s.opts.ScaleDamping, dt)

	over := math.Max(0, s.current-1)
	fovTarget := s.opts.BaseFOV + over*over*s.opts.FOVGain
	s.fov += (fovTarget - s.fov) * s.opts.step(s.opts.FOVDamping, dt)

	p := s.pointer.Load()
	camTarget := sampler.Vec3{X: p[0] * s.opts.PointerReach, Y: p[1] * s.opts.PointerReach, Z: s.profile.CameraZ}
	k := s.opts.step(s.opts.CameraDamping, dt)
	s.camPos = s.camPos.Add(camTarget.Add(s.camPos.Scale(-1)).Scale(k))

	rx, ry, rz := s.profile.Rotation((elapsed - s.shapeSince).Seconds())

	s.seq++
	f := Frame{
		Seq:          s.seq,
		Elapsed:      elapsed,
		Shape:        s.kind,
		Scale:        s.current,
		TargetScale:  tgt.scale,
		Detected:     tgt.detected,
		PointOpacity: PointOpacity(s.current),
		CoreOpacity:  CoreOpacity(s.current),
		CoreScale:    CoreScale(s.current),
		Rotation:     sampler.Vec3{X: rx, Y: ry, Z: rz},
		Camera:       s.camera(),
		Rebuilt:      rebuilt,
	}
	s.last.Store(&f)
	observability.Scene().OnFrame(context.Background(), f.Seq, f.Scale, f.Detected)
	return f
}

func (s *State) camera() Camera {
	p := s.camPos
	return Camera{
		Position: p,
		Yaw:      math.Atan2(p.X, p.Z),
		Pitch:    -math.Atan2(p.Y, math.Hypot(p.X, p.Z)),
		FOV:      s.fov,
	}
}

// Settled returns the frame a scene of kind reaches once the mesh has fully
// eased to scale, t after the shape was shown. The camera sits at rest.
func Settled(kind shape.Kind, scale float64, t time.Duration, opts Options) Frame {
	opts.SetDefaults()
	kind = shape.Resolve(string(kind))
	p := shape.ProfileOf(kind)
	scale = ClampScale(scale)
	over := math.Max(0, scale-1)
	rx, ry, rz := p.Rotation(t.Seconds())
	return Frame{
		Elapsed:      t,
		Shape:        kind,
		Scale:        scale,
		TargetScale:  scale,
		PointOpacity: PointOpacity(scale),
		CoreOpacity:  CoreOpacity(scale),
		CoreScale:    CoreScale(scale),
		Rotation:     sampler.Vec3{X: rx, Y: ry, Z: rz},
		Camera: Camera{
			Position: sampler.Vec3{Z: p.CameraZ},
			FOV:      opts.BaseFOV + over*over*opts.FOVGain,
		},
	}
}
