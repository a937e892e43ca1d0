package render

import (
	"bytes"
	"encoding/json"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/particula/pkg/sampler"
	"github.com/matzehuels/particula/pkg/scene"
	"github.com/matzehuels/particula/pkg/shape"
)

func testFrame() scene.Frame {
	return scene.Frame{
		Shape:        shape.Sphere,
		Scale:        1,
		PointOpacity: 0.5,
		CoreOpacity:  0.3,
		CoreScale:    0.8,
		Camera:       scene.Camera{Position: sampler.Vec3{Z: 8}, FOV: 75},
	}
}

func cloudOf(points ...sampler.Vec3) *sampler.PointCloud {
	return &sampler.PointCloud{Shape: shape.Sphere, Points: points, Jitter: make([]float64, len(points))}
}

func TestProjectCenterAndAxes(t *testing.T) {
	c := cloudOf(sampler.Vec3{}, sampler.Vec3{X: 1}, sampler.Vec3{Y: 1})
	dots := Project(c, testFrame(), 200, 100, DefaultPointSize)
	if len(dots) != 3 {
		t.Fatalf("got %d dots, want 3", len(dots))
	}

	var origin, right, up Dot
	for _, d := range dots {
		switch {
		case math.Abs(d.X-100) < 1e-9 && math.Abs(d.Y-50) < 1e-9:
			origin = d
		case d.X > 100:
			right = d
		case d.Y < 50:
			up = d
		}
	}
	if origin.Depth != 8 {
		t.Errorf("origin depth = %v, want 8", origin.Depth)
	}
	if right.Depth == 0 || math.Abs(right.Y-50) > 1e-9 {
		t.Errorf("+x should project right of center: %+v", right)
	}
	if up.Depth == 0 || math.Abs(up.X-100) > 1e-9 {
		t.Errorf("+y should project above center: %+v", up)
	}
	if origin.Alpha != 0.5 {
		t.Errorf("Alpha = %v, want the frame point opacity", origin.Alpha)
	}
}

func TestProjectCullsBehindCamera(t *testing.T) {
	c := cloudOf(sampler.Vec3{Z: 9}, sampler.Vec3{Z: 7.95}, sampler.Vec3{})
	if n := len(Project(c, testFrame(), 100, 100, DefaultPointSize)); n != 1 {
		t.Errorf("got %d dots, want only the point in front of the near plane", n)
	}
}

func TestProjectOrdersFarToNear(t *testing.T) {
	c := cloudOf(sampler.Vec3{Z: 2}, sampler.Vec3{Z: -3}, sampler.Vec3{Z: 0})
	dots := Project(c, testFrame(), 100, 100, 1)
	for i := 1; i < len(dots); i++ {
		if dots[i].Depth > dots[i-1].Depth {
			t.Fatalf("dot %d is farther than dot %d", i, i-1)
		}
	}
	if dots[0].Radius >= dots[len(dots)-1].Radius {
		t.Error("near dots should be drawn larger")
	}
}

func TestProjectScaleAndRotation(t *testing.T) {
	c := cloudOf(sampler.Vec3{X: 1})
	base := Project(c, testFrame(), 200, 200, DefaultPointSize)[0]

	big := testFrame()
	big.Scale = 2
	if d := Project(c, big, 200, 200, DefaultPointSize)[0]; d.X-100 <= base.X-100 {
		t.Errorf("scaled point x = %v, want farther from center than %v", d.X, base.X)
	}

	turned := testFrame()
	turned.Rotation = sampler.Vec3{Y: math.Pi / 2}
	d := Project(c, turned, 200, 200, DefaultPointSize)[0]
	if math.Abs(d.X-100) > 1e-6 || math.Abs(d.Depth-9) > 1e-9 {
		t.Errorf("quarter turn about y: %+v, want centered at depth 9", d)
	}
}

func TestProjectCameraOffsetKeepsOriginCentered(t *testing.T) {
	fr := testFrame()
	fr.Camera.Position = sampler.Vec3{X: 1.5, Y: -1, Z: 8}
	fr.Camera.Yaw = math.Atan2(1.5, 8)
	fr.Camera.Pitch = -math.Atan2(-1, math.Hypot(1.5, 8))
	d := Project(cloudOf(sampler.Vec3{}), fr, 200, 200, DefaultPointSize)[0]
	if math.Abs(d.X-100) > 1e-6 || math.Abs(d.Y-100) > 1e-6 {
		t.Errorf("origin projects to (%v, %v), want the center", d.X, d.Y)
	}
}

func TestProjectHugeFOV(t *testing.T) {
	fr := testFrame()
	fr.Camera.FOV = 875
	dots := Project(cloudOf(sampler.Vec3{X: 1}), fr, 100, 100, DefaultPointSize)
	if len(dots) != 1 || math.IsNaN(dots[0].X) || math.IsInf(dots[0].X, 0) {
		t.Errorf("dots = %+v", dots)
	}
}

func TestRenderSVG(t *testing.T) {
	c := sampler.Generate(shape.Kite, 300, sampler.NewSource(1))
	svg := string(RenderSVG(c, testFrame(), WithSize(320, 240)))

	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatal("output is not an SVG document")
	}
	if !strings.Contains(svg, `viewBox="0 0 320 240"`) {
		t.Error("size option ignored")
	}
	if n := strings.Count(svg, "<circle"); n != 301 {
		t.Errorf("%d circles, want 300 particles and the core", n)
	}

	bare := string(RenderSVG(c, testFrame(), WithoutCore()))
	if strings.Contains(bare, "radialGradient") || strings.Count(bare, "<circle") != 300 {
		t.Error("WithoutCore should drop the glow")
	}
}

func TestRenderPNG(t *testing.T) {
	c := sampler.Generate(shape.Galaxy, 500, sampler.NewSource(2))
	data, err := RenderPNG(c, testFrame(), WithSize(64, 48))
	if err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("image is %dx%d, want 64x48", b.Dx(), b.Dy())
	}
}

func TestRenderJSON(t *testing.T) {
	c := sampler.Generate(shape.TwistedLoop, 50, sampler.NewSource(3))
	fr := testFrame()
	data, err := RenderJSON(c, &fr)
	if err != nil {
		t.Fatalf("RenderJSON() error = %v", err)
	}
	var doc struct {
		Shape     string    `json:"shape"`
		Name      string    `json:"name"`
		Count     int       `json:"count"`
		Seed      uint64    `json:"seed"`
		Positions []float64 `json:"positions"`
		Frame     struct {
			Scale float64 `json:"scale"`
		} `json:"frame"`
		Spins []struct {
			Axis string `json:"axis"`
		} `json:"spins"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Shape != "twistedLoop" || doc.Name != "Twisted Loop" || doc.Count != 50 || doc.Seed != 3 {
		t.Errorf("doc = %+v", doc)
	}
	if len(doc.Positions) != 150 {
		t.Errorf("%d positions, want 150", len(doc.Positions))
	}
	if doc.Frame.Scale != 1 {
		t.Errorf("frame scale = %v", doc.Frame.Scale)
	}
	if len(doc.Spins) == 0 || doc.Spins[0].Axis != "y" {
		t.Errorf("spins = %+v", doc.Spins)
	}
}

func TestRenderASCII(t *testing.T) {
	c := sampler.Generate(shape.Sphere, 2000, sampler.NewSource(4))
	out := RenderASCII(c, testFrame(), 40, 12)
	lines := strings.Split(out, "\n")
	if len(lines) != 12 {
		t.Fatalf("%d lines, want 12", len(lines))
	}
	for i, l := range lines {
		if len(l) != 40 {
			t.Errorf("line %d has %d columns", i, len(l))
		}
	}
	if strings.Trim(out, " \n") == "" {
		t.Error("sphere should leave marks")
	}
	if !strings.ContainsRune(out, '@') {
		t.Error("densest cell should use the top glyph")
	}

	empty := RenderASCII(&sampler.PointCloud{}, testFrame(), 10, 3)
	if strings.Trim(empty, " \n") != "" {
		t.Error("empty cloud should render blank")
	}
}

func TestTint(t *testing.T) {
	base, _ := colorful.Hex("#ff6b9d")
	if !Tint(base, 0).AlmostEqualRgb(base) {
		t.Errorf("Tint(0) = %s, want base", Tint(base, 0).Hex())
	}
	l0, _, _ := Tint(base, 0).Hcl()
	l1, _, _ := Tint(base, 1).Hcl()
	if l1 <= l0 {
		t.Errorf("full jitter should lighten: %v <= %v", l1, l0)
	}
}
