package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	ctx := context.Background()

	if _, ok := Scene().(noop); !ok {
		t.Errorf("Scene() = %T, want noop", Scene())
	}
	Scene().OnFrame(ctx, 1, 1.02, false)
	Interaction().OnDrop(ctx, "busy")
	Pipeline().OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)
	Cache().OnCacheSet(ctx, "artifact", 1024)
	HTTP().OnResponse(ctx, "GET", "/api/shapes", 200, time.Millisecond)
}

func TestRegisterPartial(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	c := NewCounters()
	Register(Hooks{Scene: c})

	if Scene() != SceneHooks(c) {
		t.Errorf("Scene() = %T, want counters", Scene())
	}
	if _, ok := Cache().(noop); !ok {
		t.Errorf("Cache() = %T, nil fields should keep the noop", Cache())
	}

	Register(Hooks{Cache: c})
	if Scene() != SceneHooks(c) || Cache() != CacheHooks(c) {
		t.Error("second Register should keep the first registration")
	}

	Reset()
	if _, ok := Scene().(noop); !ok {
		t.Error("Reset() should restore the noop")
	}
}

func TestCountersSnapshot(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	ctx := context.Background()

	c := NewCounters()
	Register(c.Hooks())

	Scene().OnShapeChange(ctx, "galaxy", "kite", 8000)
	Scene().OnFrame(ctx, 1, 1, false)
	Scene().OnFrame(ctx, 2, 2.4, true)
	Interaction().OnSample(ctx, "high", 2, 2.4, 20*time.Millisecond)
	Interaction().OnSample(ctx, "high", 1, 1.5, 40*time.Millisecond)
	Interaction().OnDrop(ctx, "throttled")
	Interaction().OnDrop(ctx, "throttled")
	Interaction().OnDrop(ctx, "busy")
	Pipeline().OnGenerateComplete(ctx, "kite", 8000, time.Millisecond, nil)
	Pipeline().OnGenerateComplete(ctx, "kite", 8000, time.Millisecond, context.Canceled)
	Pipeline().OnRenderComplete(ctx, []string{"png"}, time.Millisecond, nil)
	Cache().OnCacheHit(ctx, "cloud")
	Cache().OnCacheMiss(ctx, "artifact")
	HTTP().OnRequest(ctx, "GET", "/api/frame")
	HTTP().OnResponse(ctx, "GET", "/api/frame", 503, time.Millisecond)
	HTTP().OnResponse(ctx, "GET", "/api/frame", 404, time.Millisecond)

	s := c.Snapshot()
	checks := []struct {
		name      string
		got, want uint64
	}{
		{"frames", s.Frames, 2},
		{"frames with hands", s.FramesWithHands, 1},
		{"shape changes", s.ShapeChanges, 1},
		{"samples", s.Samples, 2},
		{"throttled", s.Drops["throttled"], 2},
		{"busy", s.Drops["busy"], 1},
		{"generated", s.CloudsGenerated, 1},
		{"generate failures", s.GenerateFailures, 1},
		{"renders", s.Renders, 1},
		{"cloud hits", s.CacheHits["cloud"], 1},
		{"artifact misses", s.CacheMisses["artifact"], 1},
		{"requests", s.Requests, 1},
		{"server errors", s.ServerErrors, 1},
	}
	for _, tt := range checks {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
	if s.MeanDetect != 30*time.Millisecond {
		t.Errorf("mean detect = %v, want 30ms", s.MeanDetect)
	}

	s.Drops["busy"] = 99
	if c.Snapshot().Drops["busy"] != 1 {
		t.Error("snapshot maps should be copies")
	}
}

func TestCountersConcurrent(t *testing.T) {
	c := NewCounters()
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				c.OnFrame(ctx, uint64(i), 1, i%2 == 0)
				c.OnDrop(ctx, "busy")
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.Frames != 800 || s.FramesWithHands != 400 || s.Drops["busy"] != 800 {
		t.Errorf("snapshot = %+v", s)
	}
}
