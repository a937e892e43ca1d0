package render

import (
	"math"
	"slices"

	"github.com/matzehuels/particula/pkg/sampler"
	"github.com/matzehuels/particula/pkg/scene"
)

const (
	// maxFOV caps the perspective angle; the scene may ask for more when
	// the cloud is scaled far past 1.
	maxFOV  = 170.0
	minFOV  = 1.0
	nearCut = 0.1
)

// Dot is a projected particle in screen space.
type Dot struct {
	X, Y   float64
	Depth  float64 // distance in front of the camera
	Radius float64 // pixels
	Alpha  float64
	Jitter float64
}

// focal returns the focal length in pixels for a viewport of height h.
func focal(fov float64, h int) float64 {
	fov = math.Max(minFOV, math.Min(maxFOV, fov))
	return float64(h) / 2 / math.Tan(fov*math.Pi/360)
}

// rotate applies Euler angles in XYZ order: v' = Rx(Ry(Rz(v))).
func rotate(v, r sampler.Vec3) sampler.Vec3 {
	v = rotZ(v, r.Z)
	v = rotY(v, r.Y)
	return rotX(v, r.X)
}

func rotX(v sampler.Vec3, a float64) sampler.Vec3 {
	s, c := math.Sincos(a)
	return sampler.Vec3{X: v.X, Y: v.Y*c - v.Z*s, Z: v.Y*s + v.Z*c}
}

func rotY(v sampler.Vec3, a float64) sampler.Vec3 {
	s, c := math.Sincos(a)
	return sampler.Vec3{X: v.X*c + v.Z*s, Y: v.Y, Z: -v.X*s + v.Z*c}
}

func rotZ(v sampler.Vec3, a float64) sampler.Vec3 {
	s, c := math.Sincos(a)
	return sampler.Vec3{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c, Z: v.Z}
}

// toCamera moves a world point into camera space, where the camera looks
// down -Z.
func toCamera(v sampler.Vec3, cam scene.Camera) sampler.Vec3 {
	v = v.Add(cam.Position.Scale(-1))
	v = rotY(v, -cam.Yaw)
	return rotX(v, -cam.Pitch)
}

// screen projects a camera-space point. ok is false behind the near plane.
func screen(v sampler.Vec3, f float64, w, h int) (x, y, depth float64, ok bool) {
	depth = -v.Z
	if depth < nearCut {
		return 0, 0, 0, false
	}
	x = float64(w)/2 + v.X/depth*f
	y = float64(h)/2 - v.Y/depth*f
	return x, y, depth, true
}

// Project transforms every particle of c by the frame's scale, rotation and
// camera. Dots are ordered far to near.
func Project(c *sampler.PointCloud, fr scene.Frame, w, h int, pointSize float64) []Dot {
	if c.Len() == 0 || w <= 0 || h <= 0 {
		return nil
	}
	f := focal(fr.Camera.FOV, h)
	dots := make([]Dot, 0, c.Len())
	for i, p := range c.Points {
		v := toCamera(rotate(p.Scale(fr.Scale), fr.Rotation), fr.Camera)
		x, y, depth, ok := screen(v, f, w, h)
		if !ok {
			continue
		}
		var j float64
		if i < len(c.Jitter) {
			j = c.Jitter[i]
		}
		dots = append(dots, Dot{
			X:      x,
			Y:      y,
			Depth:  depth,
			Radius: math.Max(0.5, pointSize*f/depth/2),
			Alpha:  fr.PointOpacity,
			Jitter: j,
		})
	}
	slices.SortStableFunc(dots, func(a, b Dot) int {
		switch {
		case a.Depth > b.Depth:
			return -1
		case a.Depth < b.Depth:
			return 1
		}
		return 0
	})
	return dots
}

// Core returns the projected center glow. ok is false when the origin is
// behind the camera.
func Core(fr scene.Frame, w, h int) (d Dot, ok bool) {
	f := focal(fr.Camera.FOV, h)
	x, y, depth, ok := screen(toCamera(sampler.Vec3{}, fr.Camera), f, w, h)
	if !ok {
		return Dot{}, false
	}
	return Dot{X: x, Y: y, Depth: depth, Radius: fr.CoreScale * f / depth, Alpha: fr.CoreOpacity}, true
}
