package pipeline

import (
	"time"

	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/render"
	"github.com/matzehuels/particula/pkg/sampler"
	"github.com/matzehuels/particula/pkg/scene"
)

// Pose is the scene frame held at opts.Scale, opts.Time seconds after the
// shape appeared.
func Pose(opts Options) scene.Frame {
	scale := opts.Scale
	if scale == 0 {
		scale = DefaultScale
	}
	at := time.Duration(opts.Time * float64(time.Second))
	return scene.Settled(opts.Kind(), scale, at, opts.Scene)
}

// Render draws fr in every format of opts, bypassing any cache.
func Render(c *sampler.PointCloud, fr scene.Frame, opts Options) (map[string][]byte, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no cloud to render")
	}

	ropts := []render.Option{
		render.WithSize(opts.Width, opts.Height),
		render.WithColor(opts.color),
		render.WithPointSize(opts.PointSize),
	}
	if opts.NoCore {
		ropts = append(ropts, render.WithoutCore())
	}

	out := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := draw(format, c, fr, opts, ropts)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		out[format] = data
	}
	return out, nil
}

func draw(format string, c *sampler.PointCloud, fr scene.Frame, opts Options, ropts []render.Option) ([]byte, error) {
	switch format {
	case FormatSVG:
		return render.RenderSVG(c, fr, ropts...), nil
	case FormatPNG:
		return render.RenderPNG(c, fr, ropts...)
	case FormatJSON:
		return render.RenderJSON(c, &fr, ropts...)
	case FormatASCII:
		return []byte(render.RenderASCII(c, fr, opts.Cols, opts.Rows) + "\n"), nil
	}
	return nil, CheckFormat(format)
}
