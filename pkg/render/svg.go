package render

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/particula/pkg/sampler"
	"github.com/matzehuels/particula/pkg/scene"
)

// RenderSVG draws one frame of c as an SVG document.
func RenderSVG(c *sampler.PointCloud, fr scene.Frame, opts ...Option) []byte {
	r := newRenderer(opts...)
	dots := Project(c, fr, r.width, r.height, r.pointSize)

	var buf bytes.Buffer
	buf.Grow(len(dots)*72 + 1024)
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n",
		r.width, r.height, r.width, r.height)
	fmt.Fprintf(&buf, `  <desc>%s, %d particles, scale %.3f</desc>`+"\n", fr.Shape, c.Len(), fr.Scale)

	core, showCore := Core(fr, r.width, r.height)
	showCore = showCore && r.core && core.Alpha > 0
	if showCore {
		fmt.Fprintf(&buf, `  <defs><radialGradient id="core"><stop offset="0" stop-color="%s" stop-opacity="%.3f"/><stop offset="1" stop-color="%s" stop-opacity="0"/></radialGradient></defs>`+"\n",
			Tint(r.color, 1).Hex(), core.Alpha, r.color.Hex())
	}
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", r.background.Hex())
	if showCore {
		fmt.Fprintf(&buf, `  <circle cx="%.1f" cy="%.1f" r="%.1f" fill="url(#core)"/>`+"\n", core.X, core.Y, core.Radius)
	}

	buf.WriteString(`  <g class="particles">` + "\n")
	for _, d := range dots {
		fmt.Fprintf(&buf, `    <circle cx="%.1f" cy="%.1f" r="%.2f" fill="%s" fill-opacity="%.2f"/>`+"\n",
			d.X, d.Y, d.Radius, Tint(r.color, d.Jitter).Hex(), d.Alpha)
	}
	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}
