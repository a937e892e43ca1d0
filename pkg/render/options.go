package render

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/particula/pkg/scene"
)

// Default output settings.
const (
	DefaultWidth     = 800
	DefaultHeight    = 600
	DefaultPointSize = 0.035
	DefaultCols      = 80
	DefaultRows      = 32
)

// tintSpread is how far the brightest particle moves toward white.
const tintSpread = 0.45

// Option configures a renderer.
type Option func(*renderer)

type renderer struct {
	width, height int
	pointSize     float64
	color         colorful.Color
	background    colorful.Color
	core          bool
}

func WithSize(w, h int) Option               { return func(r *renderer) { r.width, r.height = w, h } }
func WithPointSize(s float64) Option         { return func(r *renderer) { r.pointSize = s } }
func WithColor(c colorful.Color) Option      { return func(r *renderer) { r.color = c } }
func WithBackground(c colorful.Color) Option { return func(r *renderer) { r.background = c } }

// WithoutCore hides the central glow.
func WithoutCore() Option { return func(r *renderer) { r.core = false } }

func newRenderer(opts ...Option) renderer {
	base, _ := colorful.Hex(scene.DefaultColor)
	bg, _ := colorful.Hex("#05010a")
	r := renderer{
		width:      DefaultWidth,
		height:     DefaultHeight,
		pointSize:  DefaultPointSize,
		color:      base,
		background: bg,
		core:       true,
	}
	for _, opt := range opts {
		opt(&r)
	}
	if r.width <= 0 {
		r.width = DefaultWidth
	}
	if r.height <= 0 {
		r.height = DefaultHeight
	}
	return r
}

// Tint is the color of a particle with the given jitter: the base color
// blended toward white in HCL space.
func Tint(base colorful.Color, jitter float64) colorful.Color {
	white := colorful.Color{R: 1, G: 1, B: 1}
	return base.BlendHcl(white, jitter*tintSpread).Clamped()
}
