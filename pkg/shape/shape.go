// Package shape defines the closed set of particle shapes and the per-shape
// presentation profile (camera distance and rotation behavior).
//
// A [Kind] is a pure tag. It selects the sampling formula used by the sampler
// package and the [Profile] used by the scene when animating the cloud.
// Tags arriving from user input are resolved with [Parse], which never fails:
// unknown tags resolve to [Default].
//
//	k, ok := shape.Parse("kite")     // shape.Kite, true
//	k, ok = shape.Parse("teapot")    // shape.Galaxy, false
//	p := shape.ProfileOf(k)
package shape

import (
	"fmt"
	"math"
	"strings"
)

// Kind identifies a particle shape.
type Kind string

// The supported shapes, in menu order.
const (
	Galaxy       Kind = "galaxy"
	Kite         Kind = "kite"
	TwistedLoop  Kind = "twistedLoop"
	OrganicBlob1 Kind = "organicBlob1"
	OrganicBlob2 Kind = "organicBlob2"
	FlatPanel    Kind = "flatPanel"
	OrganicBlob3 Kind = "organicBlob3"
	Sphere       Kind = "sphere"
)

// Default is the shape used when a tag does not name a known shape.
const Default = Galaxy

var all = []Kind{Galaxy, Kite, TwistedLoop, OrganicBlob1, OrganicBlob2, FlatPanel, OrganicBlob3, Sphere}

// All returns every shape in menu order. The returned slice is a copy.
func All() []Kind {
	out := make([]Kind, len(all))
	copy(out, all)
	return out
}

// Valid reports whether k is one of the known shapes.
func (k Kind) Valid() bool {
	_, ok := profiles[k]
	return ok
}

// String returns the tag.
func (k Kind) String() string { return string(k) }

// Parse resolves a tag to a Kind. Matching ignores case, dashes and
// underscores so "twisted-loop" and "TWISTED_LOOP" both resolve.
// Unknown tags return Default and false.
func Parse(tag string) (Kind, bool) {
	norm := normalize(tag)
	for _, k := range all {
		if normalize(string(k)) == norm {
			return k, true
		}
	}
	return Default, false
}

// Resolve is Parse without the match flag.
func Resolve(tag string) Kind {
	k, _ := Parse(tag)
	return k
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

// Axis selects a rotation axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "?"
}

func (a Axis) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Axis) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "x":
		*a = AxisX
	case "y":
		*a = AxisY
	case "z":
		*a = AxisZ
	default:
		return fmt.Errorf("unknown axis %q", b)
	}
	return nil
}

// Spin is one entry of a rotation profile: a constant angular velocity on an
// axis plus an optional sinusoidal wobble. Speeds and frequencies are in
// radians per second.
type Spin struct {
	Axis       Axis    `json:"axis"`
	Speed      float64 `json:"speed"`
	WobbleAmp  float64 `json:"wobble_amp,omitempty"`
	WobbleFreq float64 `json:"wobble_freq,omitempty"`
}

// Angle returns the rotation contributed by the spin after t seconds.
func (s Spin) Angle(t float64) float64 {
	a := s.Speed * t
	if s.WobbleAmp != 0 {
		a += s.WobbleAmp * math.Sin(s.WobbleFreq*t)
	}
	return a
}

// Profile is the presentation table for a shape.
type Profile struct {
	Kind    Kind
	Name    string  // display name
	CameraZ float64 // camera distance restored on shape switch
	Spins   []Spin
}

// Rotation returns the mesh Euler rotation (x, y, z) after t seconds.
func (p Profile) Rotation(t float64) (x, y, z float64) {
	var r [3]float64
	for _, s := range p.Spins {
		r[s.Axis] += s.Angle(t)
	}
	return r[0], r[1], r[2]
}

var profiles = map[Kind]Profile{
	Galaxy: {
		Kind: Galaxy, Name: "Galaxy", CameraZ: 8,
		Spins: []Spin{{Axis: AxisY, Speed: 0.10}, {Axis: AxisX, WobbleAmp: 0.15, WobbleFreq: 0.5}},
	},
	Kite: {
		Kind: Kite, Name: "Kite", CameraZ: 7,
		Spins: []Spin{{Axis: AxisY, Speed: 0.30}, {Axis: AxisZ, WobbleAmp: 0.10, WobbleFreq: 1.2}},
	},
	TwistedLoop: {
		Kind: TwistedLoop, Name: "Twisted Loop", CameraZ: 8,
		Spins: []Spin{{Axis: AxisY, Speed: 0.25}, {Axis: AxisX, Speed: 0.10}},
	},
	OrganicBlob1: {
		Kind: OrganicBlob1, Name: "Clay Figure", CameraZ: 6,
		Spins: []Spin{{Axis: AxisY, Speed: 0.20}, {Axis: AxisZ, WobbleAmp: 0.05, WobbleFreq: 0.8}},
	},
	OrganicBlob2: {
		Kind: OrganicBlob2, Name: "Steamed Bun", CameraZ: 6,
		Spins: []Spin{{Axis: AxisY, Speed: 0.15}},
	},
	FlatPanel: {
		Kind: FlatPanel, Name: "Flat Panel", CameraZ: 7,
		Spins: []Spin{{Axis: AxisY, WobbleAmp: 0.35, WobbleFreq: 0.4}},
	},
	OrganicBlob3: {
		Kind: OrganicBlob3, Name: "Sugar Candy", CameraZ: 6,
		Spins: []Spin{{Axis: AxisY, Speed: 0.35}, {Axis: AxisX, WobbleAmp: 0.08, WobbleFreq: 0.6}},
	},
	Sphere: {
		Kind: Sphere, Name: "Sphere", CameraZ: 6,
		Spins: []Spin{{Axis: AxisY, Speed: 0.20}, {Axis: AxisX, Speed: 0.10}},
	},
}

// ProfileOf returns the profile for k, or the Default profile for unknown kinds.
func ProfileOf(k Kind) Profile {
	if p, ok := profiles[k]; ok {
		return p
	}
	return profiles[Default]
}
