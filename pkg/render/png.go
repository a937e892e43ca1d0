package render

import (
	"bytes"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/sampler"
	"github.com/matzehuels/particula/pkg/scene"
)

// RenderPNG rasterizes one frame of c.
func RenderPNG(c *sampler.PointCloud, fr scene.Frame, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	dc := gg.NewContext(r.width, r.height)

	dc.SetRGB(r.background.R, r.background.G, r.background.B)
	dc.Clear()

	if core, ok := Core(fr, r.width, r.height); ok && r.core && core.Alpha > 0 {
		hi := Tint(r.color, 1)
		grad := gg.NewRadialGradient(core.X, core.Y, 0, core.X, core.Y, core.Radius)
		grad.AddColorStop(0, rgba(hi.R, hi.G, hi.B, core.Alpha))
		grad.AddColorStop(1, rgba(r.color.R, r.color.G, r.color.B, 0))
		dc.SetFillStyle(grad)
		dc.DrawCircle(core.X, core.Y, core.Radius)
		dc.Fill()
	}

	for _, d := range Project(c, fr, r.width, r.height, r.pointSize) {
		col := Tint(r.color, d.Jitter)
		dc.SetRGBA(col.R, col.G, col.B, d.Alpha)
		dc.DrawCircle(d.X, d.Y, d.Radius)
		dc.Fill()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

func rgba(r, g, b, a float64) color.NRGBA {
	c8 := func(v float64) uint8 { return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255)) }
	return color.NRGBA{R: c8(r), G: c8(g), B: c8(b), A: c8(a)}
}
