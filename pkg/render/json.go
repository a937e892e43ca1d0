package render

import (
	"encoding/json"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/particula/pkg/sampler"
	"github.com/matzehuels/particula/pkg/scene"
	"github.com/matzehuels/particula/pkg/shape"
)

// CloudDoc is the JSON form of a cloud for external renderers. Positions
// are flattened x,y,z triples ready for a GPU buffer.
type CloudDoc struct {
	Shape     shape.Kind     `json:"shape"`
	Name      string         `json:"name"`
	Seed      uint64         `json:"seed,omitempty"`
	Count     int            `json:"count"`
	Color     string         `json:"color"`
	CameraZ   float64        `json:"camera_z"`
	Positions []float32      `json:"positions"`
	Jitter    []float32      `json:"jitter"`
	Frame     *scene.Frame   `json:"frame,omitempty"`
	Spins     []shape.Spin   `json:"spins,omitempty"`
	Stats     *sampler.Stats `json:"stats,omitempty"`
}

// NewCloudDoc describes c with the given base color. fr may be nil.
func NewCloudDoc(c *sampler.PointCloud, base colorful.Color, fr *scene.Frame) CloudDoc {
	p := shape.ProfileOf(c.Shape)
	jitter := make([]float32, len(c.Jitter))
	for i, j := range c.Jitter {
		jitter[i] = float32(j)
	}
	return CloudDoc{
		Shape:     c.Shape,
		Name:      p.Name,
		Seed:      c.Seed,
		Count:     c.Len(),
		Color:     base.Hex(),
		CameraZ:   p.CameraZ,
		Positions: c.Positions(),
		Jitter:    jitter,
		Frame:     fr,
		Spins:     p.Spins,
	}
}

// RenderJSON encodes c, and the frame when given, as a CloudDoc.
func RenderJSON(c *sampler.PointCloud, fr *scene.Frame, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	return json.Marshal(NewCloudDoc(c, r.color, fr))
}
