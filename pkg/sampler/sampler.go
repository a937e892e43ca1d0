package sampler

import (
	"math"

	"github.com/matzehuels/particula/pkg/shape"
)

// DefaultCount is the particle count used by the product.
const DefaultCount = 8000

// formula draws a single point for a shape.
type formula func(r Source) Vec3

var formulas = map[shape.Kind]formula{
	shape.Galaxy:       sampleGalaxy,
	shape.Kite:         sampleKite,
	shape.TwistedLoop:  sampleTwistedLoop,
	shape.OrganicBlob1: clayFigure.sample,
	shape.OrganicBlob2: steamedBun.sample,
	shape.FlatPanel:    sampleFlatPanel,
	shape.OrganicBlob3: sugarCandy.sample,
	shape.Sphere:       sampleSphere,
}

// Generate samples count points for kind. A nil rng uses NewSource(0).
// Unknown kinds use the shape.Default formula and the returned cloud records
// the resolved kind. A count of zero or less yields an empty cloud.
func Generate(kind shape.Kind, count int, rng Source) *PointCloud {
	if rng == nil {
		rng = NewSource(0)
	}
	f, ok := formulas[kind]
	if !ok {
		kind = shape.Default
		f = formulas[kind]
	}
	if count < 0 {
		count = 0
	}

	c := &PointCloud{
		Shape:  kind,
		Seed:   SeedOf(rng),
		Points: make([]Vec3, count),
		Jitter: make([]float64, count),
	}
	for i := range count {
		c.Points[i] = f(rng)
		c.Jitter[i] = rng.Float64()
	}
	return c
}

// =============================================================================
// Galaxy
// =============================================================================

const (
	galaxyRadius    = 4.0
	galaxyMinRadius = 0.3
	galaxyArms      = 3
	galaxySpin      = 0.9  // arm winding, radians per unit radius
	galaxyPull      = 0.85 // < 1 keeps the angular map monotonic
	galaxyJitter    = 0.35
	galaxyThickness = 0.25
)

// sampleGalaxy places a point at a cubic-falloff radius and a uniform angle,
// then warps the angle toward the nearest spiral arm.
func sampleGalaxy(r Source) Vec3 {
	d := math.Pow(r.Float64(), 3)*galaxyRadius + galaxyMinRadius
	theta := r.Float64() * 2 * math.Pi
	theta -= galaxyPull / galaxyArms * math.Sin(galaxyArms*(theta-d*galaxySpin))

	jx := (r.Float64() - 0.5) * galaxyJitter
	jz := (r.Float64() - 0.5) * galaxyJitter
	taper := 1 - 0.7*(d-galaxyMinRadius)/galaxyRadius
	return Vec3{
		X: math.Cos(theta)*d + jx,
		Y: (r.Float64() - 0.5) * galaxyThickness * taper,
		Z: math.Sin(theta)*d + jz,
	}
}

// =============================================================================
// Kite
// =============================================================================

const (
	kiteSize      = 3.0 // half-width of the diamond
	kiteHeight    = kiteSize * 0.75
	kiteRib       = 0.04 // half-width of spine and spar
	kiteThickness = 0.1
)

// sampleKite splits points into spine (15%), spar (15%) and the diamond
// fill (70%). Fill points outside the diamond are folded inward by halving.
func sampleKite(r Source) Vec3 {
	var x, y float64
	switch u := r.Float64(); {
	case u < 0.15:
		x = (r.Float64()*2 - 1) * kiteRib
		lim := kiteHeight * (1 - math.Abs(x)/kiteSize)
		y = (r.Float64()*2 - 1) * lim
	case u < 0.30:
		y = (r.Float64()*2 - 1) * kiteRib
		lim := kiteSize * (1 - math.Abs(y)/kiteHeight)
		x = (r.Float64()*2 - 1) * lim
	default:
		x = (r.Float64() - 0.5) * 2 * kiteSize
		y = (r.Float64() - 0.5) * 2 * kiteHeight
		if math.Abs(x)/kiteSize+math.Abs(y)/kiteHeight > 1 {
			x *= 0.5
			y *= 0.5
		}
	}
	return Vec3{X: x, Y: y, Z: (r.Float64() - 0.5) * kiteThickness}
}

// =============================================================================
// Twisted loop
// =============================================================================

const (
	loopRadius = 2.5
	loopTube   = 0.45
	loopRise   = 1.6 // vertical travel over both turns
	loopTurns  = 2
	loopTwist  = 3.0 // strand turns per radian of path
)

// sampleTwistedLoop sweeps two strands around a two-turn helical path. The
// strand angle is coupled to the path parameter, which twists the strands.
func sampleTwistedLoop(r Source) Vec3 {
	span := loopTurns * 2 * math.Pi
	t := r.Float64() * span
	strand := float64(r.IntN(2))
	phi := t*loopTwist + strand*math.Pi + (r.Float64()-0.5)*0.6
	rho := loopTube * (0.55 + 0.45*r.Float64())

	ring := loopRadius + rho*math.Cos(phi)
	return Vec3{
		X: ring * math.Cos(t),
		Y: loopRise*(t/span-0.5) + rho*math.Sin(phi),
		Z: ring * math.Sin(t),
	}
}

// =============================================================================
// Organic blobs and sphere
// =============================================================================

// blob is a uniform-volume ball with a pole-biased polar angle and
// anisotropic axes. stretchTop > 1 additionally stretches y > 0.
type blob struct {
	radius     float64
	axes       Vec3
	bias       float64 // > 1 pulls density toward +y, < 1 toward -y
	stretchTop float64
}

var (
	clayFigure = blob{radius: 2.0, axes: Vec3{0.9, 1.3, 0.9}, bias: 1.4, stretchTop: 1.3}
	steamedBun = blob{radius: 2.2, axes: Vec3{1.3, 0.75, 1.3}, bias: 0.8, stretchTop: 1}
	sugarCandy = blob{radius: 1.8, axes: Vec3{1.5, 1.0, 1.0}, bias: 1.15, stretchTop: 1}
	plainBall  = blob{radius: 2.5, axes: Vec3{1, 1, 1}, bias: 1, stretchTop: 1}
)

func (b blob) sample(r Source) Vec3 {
	rad := b.radius * math.Cbrt(r.Float64())
	theta := r.Float64() * 2 * math.Pi
	cosPhi := 1 - 2*math.Pow(r.Float64(), b.bias)
	sinPhi := math.Sqrt(math.Max(0, 1-cosPhi*cosPhi))

	p := Vec3{
		X: rad * sinPhi * math.Cos(theta) * b.axes.X,
		Y: rad * cosPhi * b.axes.Y,
		Z: rad * sinPhi * math.Sin(theta) * b.axes.Z,
	}
	if b.stretchTop > 1 && p.Y > 0 {
		p.Y *= b.stretchTop
	}
	return p
}

func sampleSphere(r Source) Vec3 { return plainBall.sample(r) }

// =============================================================================
// Flat panel
// =============================================================================

const (
	panelWidth     = 4.0
	panelHeight    = 5.0
	panelThickness = 0.2
)

func sampleFlatPanel(r Source) Vec3 {
	return Vec3{
		X: (r.Float64() - 0.5) * panelWidth,
		Y: (r.Float64() - 0.5) * panelHeight,
		Z: (r.Float64() - 0.5) * panelThickness,
	}
}
