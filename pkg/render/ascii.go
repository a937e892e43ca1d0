package render

import (
	"math"
	"strings"

	"github.com/matzehuels/particula/pkg/sampler"
	"github.com/matzehuels/particula/pkg/scene"
)

// asciiRamp orders glyphs from sparse to dense.
const asciiRamp = " .:-=+*#%@"

// RenderASCII draws a frame as cols x rows characters. Terminal cells are
// about twice as tall as wide, so each row covers two pixel rows.
func RenderASCII(c *sampler.PointCloud, fr scene.Frame, cols, rows int) string {
	if cols <= 0 {
		cols = DefaultCols
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	h := rows * 2
	density := make([]float64, cols*rows)
	for _, d := range Project(c, fr, cols, h, 0) {
		x, y := int(d.X), int(d.Y)/2
		if x < 0 || x >= cols || y < 0 || y >= rows {
			continue
		}
		density[y*cols+x] += d.Alpha
	}

	peak := 0.0
	for _, v := range density {
		peak = math.Max(peak, v)
	}

	var b strings.Builder
	b.Grow((cols + 1) * rows)
	top := len(asciiRamp) - 1
	for y := range rows {
		for x := range cols {
			v := density[y*cols+x]
			if v == 0 || peak == 0 {
				b.WriteByte(' ')
				continue
			}
			// Log scaling keeps sparse arms visible next to a dense core.
			level := 1 + int(math.Log1p(v)/math.Log1p(peak)*float64(top-1)+0.5)
			b.WriteByte(asciiRamp[min(level, top)])
		}
		if y < rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
