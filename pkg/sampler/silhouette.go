package sampler

import (
	"math"

	"github.com/matzehuels/particula/pkg/shape"
)

// eps absorbs floating-point rounding at silhouette boundaries.
const eps = 1e-9

// Silhouette is the designed outline of a shape.
type Silhouette interface {
	Contains(p Vec3) bool
}

// SilhouetteOf returns the silhouette for kind, or the shape.Default
// silhouette for unknown kinds.
func SilhouetteOf(kind shape.Kind) Silhouette {
	switch kind {
	case shape.Kite:
		return diamond{halfWidth: kiteSize, halfHeight: kiteHeight, halfDepth: kiteThickness / 2}
	case shape.TwistedLoop:
		return coil{inner: loopRadius - loopTube, outer: loopRadius + loopTube, halfHeight: loopRise/2 + loopTube}
	case shape.OrganicBlob1:
		return ellipsoid(clayFigure)
	case shape.OrganicBlob2:
		return ellipsoid(steamedBun)
	case shape.OrganicBlob3:
		return ellipsoid(sugarCandy)
	case shape.Sphere:
		return ellipsoid(plainBall)
	case shape.FlatPanel:
		return Box{HalfExtent: Vec3{panelWidth / 2, panelHeight / 2, panelThickness / 2}}
	default:
		return disk{
			radius:     galaxyRadius + galaxyMinRadius + galaxyJitter,
			halfHeight: galaxyThickness / 2,
		}
	}
}

// Box is an origin-centered axis-aligned box.
type Box struct {
	HalfExtent Vec3
}

func (b Box) Contains(p Vec3) bool {
	return math.Abs(p.X) <= b.HalfExtent.X+eps &&
		math.Abs(p.Y) <= b.HalfExtent.Y+eps &&
		math.Abs(p.Z) <= b.HalfExtent.Z+eps
}

// disk is a flat cylinder around the y axis.
type disk struct {
	radius, halfHeight float64
}

func (d disk) Contains(p Vec3) bool {
	return math.Hypot(p.X, p.Z) <= d.radius+eps && math.Abs(p.Y) <= d.halfHeight+eps
}

// diamond is the kite outline: an L1 ball in x/y, thin in z.
type diamond struct {
	halfWidth, halfHeight, halfDepth float64
}

func (d diamond) Contains(p Vec3) bool {
	return math.Abs(p.X)/d.halfWidth+math.Abs(p.Y)/d.halfHeight <= 1+eps &&
		math.Abs(p.Z) <= d.halfDepth+eps
}

// coil is the annular cylinder enclosing the twisted loop.
type coil struct {
	inner, outer, halfHeight float64
}

func (c coil) Contains(p Vec3) bool {
	r := math.Hypot(p.X, p.Z)
	return r >= c.inner-eps && r <= c.outer+eps && math.Abs(p.Y) <= c.halfHeight+eps
}

// ellipsoid checks the un-stretched, un-scaled radius of a blob point.
type ellipsoid blob

func (e ellipsoid) Contains(p Vec3) bool {
	y := p.Y
	if e.stretchTop > 1 && y > 0 {
		y /= e.stretchTop
	}
	u := Vec3{p.X / e.axes.X, y / e.axes.Y, p.Z / e.axes.Z}
	return u.Len() <= e.radius*(1+eps)+eps
}
