// Package observability lets the scene, the gesture driver, the pipeline,
// the cache and the frame server report what they do without depending on
// a metrics backend.
//
// Every hook defaults to a no-op. A process registers its implementations
// once at startup:
//
//	counters := observability.NewCounters()
//	observability.Register(counters.Hooks())
//
// and libraries emit through the accessors:
//
//	observability.Interaction().OnDrop(ctx, "throttled")
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// SceneHooks receives events from the animation loop.
type SceneHooks interface {
	// OnShapeChange records a point cloud rebuild.
	OnShapeChange(ctx context.Context, from, to string, count int)

	// OnFrame is called once per tick. Implementations must be cheap.
	OnFrame(ctx context.Context, seq uint64, scale float64, detected bool)
}

// InteractionHooks receives events from the gesture driver.
type InteractionHooks interface {
	// OnSample records a processed detector result.
	OnSample(ctx context.Context, tier string, hands int, target float64, duration time.Duration)

	// OnDrop records a frame or sample that was not processed.
	OnDrop(ctx context.Context, reason string)
}

// PipelineHooks receives events from the sample-and-render pipeline.
type PipelineHooks interface {
	OnGenerateStart(ctx context.Context, shape string, count int)
	OnGenerateComplete(ctx context.Context, shape string, count int, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives events from cache lookups. keyType is "cloud" or
// "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the frame server.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// Hooks bundles one implementation per event source. Nil fields leave the
// current registration in place.
type Hooks struct {
	Scene       SceneHooks
	Interaction InteractionHooks
	Pipeline    PipelineHooks
	Cache       CacheHooks
	HTTP        HTTPHooks
}

// noop implements every hook interface by doing nothing.
type noop struct{}

func (noop) OnShapeChange(context.Context, string, string, int)                    {}
func (noop) OnFrame(context.Context, uint64, float64, bool)                        {}
func (noop) OnSample(context.Context, string, int, float64, time.Duration)         {}
func (noop) OnDrop(context.Context, string)                                        {}
func (noop) OnGenerateStart(context.Context, string, int)                          {}
func (noop) OnGenerateComplete(context.Context, string, int, time.Duration, error) {}
func (noop) OnRenderStart(context.Context, []string)                               {}
func (noop) OnRenderComplete(context.Context, []string, time.Duration, error)      {}
func (noop) OnCacheHit(context.Context, string)                                    {}
func (noop) OnCacheMiss(context.Context, string)                                   {}
func (noop) OnCacheSet(context.Context, string, int)                               {}
func (noop) OnRequest(context.Context, string, string)                             {}
func (noop) OnResponse(context.Context, string, string, int, time.Duration)        {}

func defaults() *Hooks {
	return &Hooks{Scene: noop{}, Interaction: noop{}, Pipeline: noop{}, Cache: noop{}, HTTP: noop{}}
}

// current is swapped whole, so readers never see a half-applied Register.
var current atomic.Pointer[Hooks]

func init() { current.Store(defaults()) }

// Register installs the non-nil hooks in h.
func Register(h Hooks) {
	for {
		old := current.Load()
		next := *old
		if h.Scene != nil {
			next.Scene = h.Scene
		}
		if h.Interaction != nil {
			next.Interaction = h.Interaction
		}
		if h.Pipeline != nil {
			next.Pipeline = h.Pipeline
		}
		if h.Cache != nil {
			next.Cache = h.Cache
		}
		if h.HTTP != nil {
			next.HTTP = h.HTTP
		}
		if current.CompareAndSwap(old, &next) {
			return
		}
	}
}

// Reset restores the no-op defaults.
func Reset() { current.Store(defaults()) }

func Scene() SceneHooks             { return current.Load().Scene }
func Interaction() InteractionHooks { return current.Load().Interaction }
func Pipeline() PipelineHooks       { return current.Load().Pipeline }
func Cache() CacheHooks             { return current.Load().Cache }
func HTTP() HTTPHooks               { return current.Load().HTTP }
