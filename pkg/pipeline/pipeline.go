// Package pipeline turns a still request into rendered files: it samples
// (or loads) a point cloud, poses the scene at a fixed scale and time, and
// draws the pose in one or more formats. The CLI sample command and the
// server's render routes both go through a [Runner].
//
//	r := pipeline.NewRunner(c, nil, logger)
//	res, err := r.Execute(ctx, pipeline.Options{Shape: "kite", Seed: 7, Scale: 2})
//	svg := res.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/particula/pkg/cache"
	"github.com/matzehuels/particula/pkg/config"
	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/render"
	"github.com/matzehuels/particula/pkg/sampler"
	"github.com/matzehuels/particula/pkg/scene"
	"github.com/matzehuels/particula/pkg/shape"
)

const (
	DefaultWidth  = render.DefaultWidth
	DefaultHeight = render.DefaultHeight
	DefaultScale  = 1.0

	maxImageSide = 8192
)

const (
	FormatSVG   = "svg"
	FormatPNG   = "png"
	FormatJSON  = "json"
	FormatASCII = "txt"
)

var contentTypes = map[string]string{
	FormatSVG:   "image/svg+xml",
	FormatPNG:   "image/png",
	FormatJSON:  "application/json",
	FormatASCII: "text/plain; charset=utf-8",
}

// Formats lists the supported output formats in sorted order.
func Formats() []string {
	out := make([]string, 0, len(contentTypes))
	for f := range contentTypes {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// ContentType is the MIME type served for format, or "" if it is unknown.
func ContentType(format string) string { return contentTypes[format] }

// CheckFormat fails with ErrCodeInvalidFormat for anything but the exact,
// lower-case format names.
func CheckFormat(format string) error {
	if _, ok := contentTypes[format]; !ok {
		return errors.New(errors.ErrCodeInvalidFormat, "format %q is not one of %s",
			format, strings.Join(Formats(), ", "))
	}
	return nil
}

// Options describe one still. The JSON form is what API clients send.
type Options struct {
	Shape   string `json:"shape"`
	Count   int    `json:"count,omitempty"`
	Seed    uint64 `json:"seed,omitempty"` // 0 draws a fresh seed; such clouds are never cached
	Refresh bool   `json:"refresh,omitempty"`

	Scale float64 `json:"scale,omitempty"`
	Time  float64 `json:"time,omitempty"` // seconds since the shape appeared

	Formats   []string `json:"formats,omitempty"`
	Width     int      `json:"width,omitempty"`
	Height    int      `json:"height,omitempty"`
	Color     string   `json:"color,omitempty"`
	PointSize float64  `json:"point_size,omitempty"`
	NoCore    bool     `json:"no_core,omitempty"`
	Cols      int      `json:"cols,omitempty"`
	Rows      int      `json:"rows,omitempty"`

	// Scene tunes the pose. Zero fields take the scene defaults.
	Scene scene.Options `json:"-"`

	Logger *log.Logger `json:"-"`

	kind  shape.Kind
	color colorful.Color
	ready bool
}

// Normalize fills defaults and rejects invalid values. Calling it again is
// a no-op.
//
// Unknown shape names fail with ErrCodeInvalidShape rather than falling
// back to galaxy: a request for a shape that does not exist is a caller
// mistake.
func (o *Options) Normalize() error {
	if o.ready {
		return nil
	}
	if o.Shape == "" {
		o.kind = shape.Default
	} else if k, ok := shape.Parse(o.Shape); ok {
		o.kind = k
	} else {
		return errors.New(errors.ErrCodeInvalidShape, "unknown shape %q", o.Shape)
	}
	o.Shape = string(o.kind)

	o.fillDefaults()

	if err := errors.ValidateCount(o.Count); err != nil {
		return err
	}
	for _, f := range o.Formats {
		if err := CheckFormat(f); err != nil {
			return err
		}
	}
	if o.Width < 1 || o.Height < 1 || o.Width > maxImageSide || o.Height > maxImageSide {
		return errors.New(errors.ErrCodeInvalidInput, "image size %dx%d outside 1..%d", o.Width, o.Height, maxImageSide)
	}
	if err := errors.ValidateInputRange("scale", o.Scale, scene.MinScale, scene.MaxScale); err != nil {
		return err
	}
	if o.Time < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "time %g is negative", o.Time)
	}
	c, err := config.ParseColor(o.Color)
	if err != nil {
		return err
	}
	o.color = c
	o.Scene.Color = c
	if err := o.Scene.Validate(); err != nil {
		return err
	}
	o.ready = true
	return nil
}

func (o *Options) fillDefaults() {
	if o.Count == 0 {
		o.Count = sampler.DefaultCount
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	setIfZero(&o.Width, DefaultWidth)
	setIfZero(&o.Height, DefaultHeight)
	setIfZero(&o.Cols, render.DefaultCols)
	setIfZero(&o.Rows, render.DefaultRows)
	setIfZero(&o.Scale, DefaultScale)
	setIfZero(&o.PointSize, render.DefaultPointSize)
	if o.Color == "" {
		o.Color = scene.DefaultColor
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

func setIfZero[T int | float64](p *T, v T) {
	if *p == 0 {
		*p = v
	}
}

// Kind is the resolved shape. Before Normalize it follows the lenient
// core lookup.
func (o *Options) Kind() shape.Kind {
	if o.kind != "" {
		return o.kind
	}
	return shape.Resolve(o.Shape)
}

func (o *Options) cloudKey() cache.CloudKeyOpts {
	return cache.CloudKeyOpts{Shape: string(o.Kind()), Count: o.Count, Seed: o.Seed}
}

// artifactKey holds every option that changes the bytes of format. Text
// output ignores pixel sizes and the core, images ignore the grid, and
// JSON only carries the color and the pose.
func (o *Options) artifactKey(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Scale: o.Scale, Time: o.Time, Color: o.color.Hex()}
	switch format {
	case FormatASCII:
		k.Width, k.Height = o.Cols, o.Rows
	case FormatSVG, FormatPNG:
		k.Width, k.Height = o.Width, o.Height
		if o.NoCore {
			k.Style = "nocore"
		}
	}
	return k
}

// Result is the output of one Execute.
type Result struct {
	Cloud     *sampler.PointCloud
	CloudHash string
	Frame     scene.Frame
	Artifacts map[string][]byte

	CloudCached  bool
	RenderCached bool // every artifact came from the cache

	SampleTime time.Duration
	RenderTime time.Duration
}
