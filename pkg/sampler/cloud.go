package sampler

import (
	"math"

	"github.com/matzehuels/particula/pkg/shape"
)

// Vec3 is a point or direction in model space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Scale returns v scaled by f.
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }

// PointCloud is a generated particle set.
//
// Points and Jitter always have the same length. A cloud is treated as
// immutable once returned by Generate or Decode; a shape change replaces the
// whole cloud.
type PointCloud struct {
	Shape  shape.Kind
	Seed   uint64 // seed of the source that produced the cloud, 0 if unknown
	Points []Vec3
	Jitter []float64 // per-point scalars in [0, 1)
}

// Len returns the number of points.
func (c *PointCloud) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Points)
}

// Bounds returns the axis-aligned bounding box of the cloud.
// An empty cloud returns two zero vectors.
func (c *PointCloud) Bounds() (lo, hi Vec3) {
	if c.Len() == 0 {
		return Vec3{}, Vec3{}
	}
	lo, hi = c.Points[0], c.Points[0]
	for _, p := range c.Points[1:] {
		lo.X, hi.X = math.Min(lo.X, p.X), math.Max(hi.X, p.X)
		lo.Y, hi.Y = math.Min(lo.Y, p.Y), math.Max(hi.Y, p.Y)
		lo.Z, hi.Z = math.Min(lo.Z, p.Z), math.Max(hi.Z, p.Z)
	}
	return lo, hi
}

// Positions flattens the points into an xyz float32 buffer, the layout a GPU
// position attribute expects.
func (c *PointCloud) Positions() []float32 {
	out := make([]float32, 0, 3*c.Len())
	for _, p := range c.Points {
		out = append(out, float32(p.X), float32(p.Y), float32(p.Z))
	}
	return out
}
