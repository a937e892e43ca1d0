package scene

import (
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/sampler"
)

// Scale bounds accepted from producers of the target scale.
const (
	MinScale = 0.5
	MaxScale = 5.0
)

// Default animation constants.
const (
	DefaultScaleDamping       = 0.08
	DefaultFOVDamping         = 0.1
	DefaultCameraDamping      = 0.05
	DefaultBaseFOV            = 75.0
	DefaultFOVGain            = 50.0
	DefaultBreathingAmplitude = 0.05
	DefaultBreathingFrequency = 0.001 // radians per millisecond
	DefaultReferenceFPS       = 60.0
	DefaultPointerReach       = 1.5
	DefaultColor              = "#ff6b9d"
)

// Options configures a State.
type Options struct {
	Count         int            // particles per cloud
	Color         colorful.Color // base particle color
	ScaleDamping  float64        // fraction of the scale gap closed per tick
	FOVDamping    float64        // fraction of the FOV gap closed per tick
	CameraDamping float64        // fraction of the pointer offset gap closed per tick
	BaseFOV       float64        // degrees at scale <= 1
	FOVGain       float64        // degrees added per squared unit of scale above 1

	BreathingAmplitude float64
	BreathingFrequency float64 // radians per millisecond of elapsed time

	// RateIndependent scales the damping factors by elapsed time so the
	// easing speed does not depend on the tick rate. At ReferenceFPS the
	// result equals the fixed-step factors.
	RateIndependent bool
	ReferenceFPS    float64

	PointerReach float64 // camera travel at full pointer deflection

	// Seed for cloud generation; 0 draws a random seed per State.
	Seed uint64
}

// DefaultOptions returns the product's constants.
func DefaultOptions() Options {
	var o Options
	o.SetDefaults()
	return o
}

// SetDefaults fills zero fields. It is idempotent.
func (o *Options) SetDefaults() {
	if o.Count == 0 {
		o.Count = sampler.DefaultCount
	}
	if o.Color == (colorful.Color{}) {
		o.Color, _ = colorful.Hex(DefaultColor)
	}
	if o.ScaleDamping == 0 {
		o.ScaleDamping = DefaultScaleDamping
	}
	if o.FOVDamping == 0 {
		o.FOVDamping = DefaultFOVDamping
	}
	if o.CameraDamping == 0 {
		o.CameraDamping = DefaultCameraDamping
	}
	if o.BaseFOV == 0 {
		o.BaseFOV = DefaultBaseFOV
	}
	if o.FOVGain == 0 {
		o.FOVGain = DefaultFOVGain
	}
	if o.BreathingAmplitude == 0 {
		o.BreathingAmplitude = DefaultBreathingAmplitude
	}
	if o.BreathingFrequency == 0 {
		o.BreathingFrequency = DefaultBreathingFrequency
	}
	if o.ReferenceFPS == 0 {
		o.ReferenceFPS = DefaultReferenceFPS
	}
	if o.PointerReach == 0 {
		o.PointerReach = DefaultPointerReach
	}
}

// Validate checks the options after defaults are applied.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := errors.ValidateCount(o.Count); err != nil {
		return err
	}
	for name, k := range map[string]float64{
		"scale_damping":  o.ScaleDamping,
		"fov_damping":    o.FOVDamping,
		"camera_damping": o.CameraDamping,
	} {
		if err := errors.ValidateFactor(name, k); err != nil {
			return err
		}
	}
	if err := errors.ValidateRange("base_fov", o.BaseFOV, 1, 179); err != nil {
		return err
	}
	if err := errors.ValidateRange("breathing_amplitude", o.BreathingAmplitude, 0, 0.5); err != nil {
		return err
	}
	if err := errors.ValidateRange("reference_fps", o.ReferenceFPS, 1, 1000); err != nil {
		return err
	}
	return nil
}

// step returns the damping fraction to apply for a tick of length dt.
func (o *Options) step(k float64, dt time.Duration) float64 {
	if !o.RateIndependent {
		return k
	}
	if dt <= 0 {
		return 0
	}
	return 1 - math.Pow(1-k, dt.Seconds()*o.ReferenceFPS)
}

// Breathing returns the idle target scale at elapsed time t:
// 1 + sin(ms * frequency) * amplitude.
func Breathing(t time.Duration, amplitude, frequency float64) float64 {
	ms := float64(t) / float64(time.Millisecond)
	return 1 + math.Sin(ms*frequency)*amplitude
}

// ClampScale limits s to [MinScale, MaxScale]. NaN maps to 1.
func ClampScale(s float64) float64 {
	if math.IsNaN(s) {
		return 1
	}
	return math.Min(MaxScale, math.Max(MinScale, s))
}
