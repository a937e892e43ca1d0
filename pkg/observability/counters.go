package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Counters is an in-process implementation of every hook. It keeps running
// totals that the frame server reports at /api/stats.
type Counters struct {
	frames       atomic.Uint64
	framesHands  atomic.Uint64
	shapeChanges atomic.Uint64

	samples      atomic.Uint64
	detectNanos  atomic.Int64
	generated    atomic.Uint64
	genFailures  atomic.Uint64
	renders      atomic.Uint64
	renderFails  atomic.Uint64
	requests     atomic.Uint64
	serverErrors atomic.Uint64

	mu     sync.Mutex
	drops  map[string]uint64
	hits   map[string]uint64
	misses map[string]uint64
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters {
	return &Counters{
		drops:  make(map[string]uint64),
		hits:   make(map[string]uint64),
		misses: make(map[string]uint64),
	}
}

// Hooks returns c registered for every event source.
func (c *Counters) Hooks() Hooks {
	return Hooks{Scene: c, Interaction: c, Pipeline: c, Cache: c, HTTP: c}
}

func (c *Counters) bump(m map[string]uint64, key string) {
	c.mu.Lock()
	m[key]++
	c.mu.Unlock()
}

func (c *Counters) OnShapeChange(context.Context, string, string, int) { c.shapeChanges.Add(1) }

func (c *Counters) OnFrame(_ context.Context, _ uint64, _ float64, detected bool) {
	c.frames.Add(1)
	if detected {
		c.framesHands.Add(1)
	}
}

func (c *Counters) OnSample(_ context.Context, _ string, _ int, _ float64, d time.Duration) {
	c.samples.Add(1)
	c.detectNanos.Add(int64(d))
}

func (c *Counters) OnDrop(_ context.Context, reason string) { c.bump(c.drops, reason) }

func (c *Counters) OnGenerateStart(context.Context, string, int) {}

func (c *Counters) OnGenerateComplete(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	if err != nil {
		c.genFailures.Add(1)
		return
	}
	c.generated.Add(1)
}

func (c *Counters) OnRenderStart(context.Context, []string) {}

func (c *Counters) OnRenderComplete(_ context.Context, _ []string, _ time.Duration, err error) {
	if err != nil {
		c.renderFails.Add(1)
		return
	}
	c.renders.Add(1)
}

func (c *Counters) OnCacheHit(_ context.Context, keyType string)  { c.bump(c.hits, keyType) }
func (c *Counters) OnCacheMiss(_ context.Context, keyType string) { c.bump(c.misses, keyType) }
func (c *Counters) OnCacheSet(context.Context, string, int)       {}
func (c *Counters) OnRequest(context.Context, string, string)     { c.requests.Add(1) }

func (c *Counters) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	if status >= 500 {
		c.serverErrors.Add(1)
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Frames           uint64            `json:"frames"`
	FramesWithHands  uint64            `json:"frames_with_hands"`
	ShapeChanges     uint64            `json:"shape_changes"`
	Samples          uint64            `json:"samples"`
	MeanDetect       time.Duration     `json:"mean_detect_ns"`
	Drops            map[string]uint64 `json:"drops"`
	CloudsGenerated  uint64            `json:"clouds_generated"`
	GenerateFailures uint64            `json:"generate_failures"`
	Renders          uint64            `json:"renders"`
	RenderFailures   uint64            `json:"render_failures"`
	CacheHits        map[string]uint64 `json:"cache_hits"`
	CacheMisses      map[string]uint64 `json:"cache_misses"`
	Requests         uint64            `json:"requests"`
	ServerErrors     uint64            `json:"server_errors"`
}

// Snapshot copies the current totals.
func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		Frames:           c.frames.Load(),
		FramesWithHands:  c.framesHands.Load(),
		ShapeChanges:     c.shapeChanges.Load(),
		Samples:          c.samples.Load(),
		CloudsGenerated:  c.generated.Load(),
		GenerateFailures: c.genFailures.Load(),
		Renders:          c.renders.Load(),
		RenderFailures:   c.renderFails.Load(),
		Requests:         c.requests.Load(),
		ServerErrors:     c.serverErrors.Load(),
	}
	if s.Samples > 0 {
		s.MeanDetect = time.Duration(c.detectNanos.Load() / int64(s.Samples))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s.Drops = copyCounts(c.drops)
	s.CacheHits = copyCounts(c.hits)
	s.CacheMisses = copyCounts(c.misses)
	return s
}

func copyCounts(m map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
