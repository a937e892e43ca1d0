package session

import (
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/interaction"
	"github.com/matzehuels/particula/pkg/scene"
	"github.com/matzehuels/particula/pkg/shape"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testOptions(kind shape.Kind) Options {
	return Options{
		Shape:  kind,
		Scene:  scene.Options{Count: 200, Seed: 5},
		Driver: interaction.Options{Tier: interaction.TierHigh},
		FPS:    200,
	}
}

func newTestSession(t *testing.T, kind shape.Kind) *Session {
	t.Helper()
	s, err := New(testOptions(kind))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// eventually polls cond until it holds or two seconds pass.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionStatus(t *testing.T) {
	s := newTestSession(t, shape.Kite)
	st := s.Status()
	if st.ID != s.ID || len(s.ID) != 36 {
		t.Errorf("ID = %q", st.ID)
	}
	if st.Shape != shape.Kite || st.Particles != 200 {
		t.Errorf("status = %+v", st)
	}
	if !st.Enabled || st.Tier != interaction.TierHigh {
		t.Errorf("driver status = %+v", st)
	}
	eventually(t, "frames", func() bool { return s.Status().Frames > 3 })
}

func TestSubscribeReceivesFrames(t *testing.T) {
	s := newTestSession(t, shape.Sphere)
	frames, stop := s.Subscribe()
	defer stop()

	if s.Status().Watchers != 1 {
		t.Errorf("Watchers = %d", s.Status().Watchers)
	}

	var last uint64
	for range 5 {
		select {
		case f := <-frames:
			if f.Seq <= last {
				t.Fatalf("frame %d after %d", f.Seq, last)
			}
			last = f.Seq
		case <-time.After(2 * time.Second):
			t.Fatal("no frame")
		}
	}

	stop()
	stop()
	if s.Status().Watchers != 0 {
		t.Error("stop should unsubscribe")
	}
}

func TestOfferDrivesScale(t *testing.T) {
	s := newTestSession(t, shape.Galaxy)
	if !s.Offer(&interaction.Sample{Hands: interaction.HandPair(0.5)}) {
		t.Fatal("first sample dropped")
	}
	eventually(t, "detection", func() bool {
		st := s.Status()
		return st.Detected && st.TargetScale == 2 && st.Hands == 2
	})
	eventually(t, "scale growth", func() bool { return s.Snapshot().Scale > 1.5 })
}

func TestSetEnabledGatesOffers(t *testing.T) {
	s := newTestSession(t, shape.Galaxy)
	s.SetEnabled(false)
	if s.Offer(&interaction.Sample{Hands: interaction.HandPair(0.5)}) {
		t.Error("disabled session accepted a sample")
	}
	if s.Status().Enabled {
		t.Error("Enabled should be false")
	}
}

func TestSetShape(t *testing.T) {
	s := newTestSession(t, shape.Galaxy)
	if err := s.SetShape("twisted-loop"); err != nil {
		t.Fatal(err)
	}
	eventually(t, "shape switch", func() bool {
		return s.Snapshot().Shape == shape.TwistedLoop && s.Cloud().Shape == shape.TwistedLoop
	})

	if err := s.SetShape("teapot"); !errors.Is(err, errors.ErrCodeInvalidShape) {
		t.Errorf("SetShape(teapot) error = %v", err)
	}
}

func TestNewRejectsInvalidScene(t *testing.T) {
	opts := testOptions(shape.Galaxy)
	opts.Scene.ScaleDamping = 2
	if _, err := New(opts); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v", err)
	}
}

func TestCloseStopsLoop(t *testing.T) {
	s, err := New(testOptions(shape.Sphere))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done not closed after Close")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
