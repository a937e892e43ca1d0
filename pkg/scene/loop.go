package scene

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/sampler"
)

// DefaultFPS is the tick rate of a Loop when none is configured.
const DefaultFPS = 60

// Renderer draws frames. Rebuild is called with the initial cloud before
// the first Draw and again whenever the shape changes. Both methods are
// called from the loop goroutine only.
type Renderer interface {
	Rebuild(cloud *sampler.PointCloud, color colorful.Color)
	Draw(f Frame)
}

// Loop ticks a State at a fixed rate and hands frames to a Renderer.
type Loop struct {
	State    *State
	Renderer Renderer
	FPS      int
	Logger   *log.Logger

	// now is replaced in tests.
	now func() time.Time
}

// Run drives the loop until ctx is cancelled. It returns nil on
// cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if l.State == nil || l.Renderer == nil {
		return errors.New(errors.ErrCodeInvalidInput, "loop requires a state and a renderer")
	}
	fps := l.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	logger := l.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	now := l.now
	if now == nil {
		now = time.Now
	}

	color := l.State.Options().Color
	l.Renderer.Rebuild(l.State.Cloud(), color)
	logger.Debug("scene started", "shape", l.State.Snapshot().Shape, "fps", fps, "particles", l.State.Cloud().Len())

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	start := now()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("scene stopped", "frames", l.State.Snapshot().Seq)
			return nil
		case <-ticker.C:
			f := l.State.Tick(now().Sub(start))
			if f.Rebuilt {
				logger.Info("shape changed", "shape", f.Shape, "particles", l.State.Cloud().Len())
				l.Renderer.Rebuild(l.State.Cloud(), color)
			}
			l.Renderer.Draw(f)
		}
	}
}

// =============================================================================
// Renderers
// =============================================================================

// Multi fans frames out to several renderers in order.
func Multi(rs ...Renderer) Renderer {
	return multiRenderer(rs)
}

type multiRenderer []Renderer

func (m multiRenderer) Rebuild(c *sampler.PointCloud, color colorful.Color) {
	for _, r := range m {
		r.Rebuild(c, color)
	}
}

func (m multiRenderer) Draw(f Frame) {
	for _, r := range m {
		r.Draw(f)
	}
}

// Recorder is a Renderer that keeps the most recent frames in memory.
// It is safe to read from other goroutines while the loop runs.
type Recorder struct {
	// Limit bounds the number of retained frames; 0 keeps all.
	Limit int

	mu       sync.Mutex
	frames   []Frame
	rebuilds int
	cloud    *sampler.PointCloud
}

func (r *Recorder) Rebuild(c *sampler.PointCloud, _ colorful.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rebuilds++
	r.cloud = c
}

func (r *Recorder) Draw(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	if r.Limit > 0 && len(r.frames) > r.Limit {
		r.frames = r.frames[len(r.frames)-r.Limit:]
	}
}

// Frames returns a copy of the retained frames.
func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

// Rebuilds returns how many times Rebuild was called.
func (r *Recorder) Rebuilds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rebuilds
}

// Cloud returns the cloud from the latest Rebuild.
func (r *Recorder) Cloud() *sampler.PointCloud {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cloud
}
