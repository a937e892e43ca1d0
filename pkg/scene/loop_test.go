package scene

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/matzehuels/particula/pkg/shape"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoopRun(t *testing.T) {
	s := newTestState(t, shape.Galaxy, Options{})
	s.RequestShape(shape.Sphere)
	rec := &Recorder{Limit: 10}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	l := &Loop{State: s, Renderer: rec, FPS: 100}
	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	frames := rec.Frames()
	if len(frames) == 0 {
		t.Fatal("no frames drawn")
	}
	if len(frames) > 10 {
		t.Errorf("recorder kept %d frames, limit 10", len(frames))
	}
	if rec.Rebuilds() != 2 {
		t.Errorf("Rebuilds() = %d, want initial build plus one switch", rec.Rebuilds())
	}
	if rec.Cloud().Shape != shape.Sphere {
		t.Errorf("renderer cloud shape = %q, want sphere", rec.Cloud().Shape)
	}
	last := frames[len(frames)-1]
	if last.Shape != shape.Sphere {
		t.Errorf("last frame shape = %q", last.Shape)
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].Seq <= frames[i-1].Seq || frames[i].Elapsed < frames[i-1].Elapsed {
			t.Fatalf("frames out of order at %d", i)
		}
	}
}

func TestLoopRequiresRenderer(t *testing.T) {
	s := newTestState(t, shape.Galaxy, Options{})
	if err := (&Loop{State: s}).Run(context.Background()); err == nil {
		t.Error("Run() without a renderer should fail")
	}
}

func TestMultiRenderer(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi(a, b)

	s := newTestState(t, shape.Kite, Options{})
	m.Rebuild(s.Cloud(), s.Options().Color)
	m.Draw(s.Tick(tick))

	for name, r := range map[string]*Recorder{"a": a, "b": b} {
		if r.Rebuilds() != 1 || len(r.Frames()) != 1 {
			t.Errorf("%s: rebuilds=%d frames=%d", name, r.Rebuilds(), len(r.Frames()))
		}
	}
}
