// Package session runs live scenes for remote clients.
//
// A [Session] owns one scene.State, the interaction.Driver that feeds it and
// the scene.Loop that ticks it. Clients push hand samples and shape requests
// and [Session.Subscribe] to the frames the loop produces. A [Store] keeps
// sessions in memory and expires the ones nobody has touched for its TTL.
//
// # Usage
//
//	store := session.NewStore(30*time.Minute, 64, logger)
//	sess, err := store.Create(session.Options{Shape: shape.Kite})
//	frames, stop := sess.Subscribe()
//	defer stop()
//	sess.Offer(sample)
package session

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/interaction"
	"github.com/matzehuels/particula/pkg/sampler"
	"github.com/matzehuels/particula/pkg/scene"
	"github.com/matzehuels/particula/pkg/shape"
)

// Default durations.
const (
	// DefaultTTL is how long an unwatched session survives without input.
	DefaultTTL = 30 * time.Minute

	// DefaultFPS is the frame rate streamed to clients.
	DefaultFPS = 30
)

// Options configures a new session.
type Options struct {
	Shape  shape.Kind
	Scene  scene.Options
	Driver interaction.Options
	FPS    int
	Logger *log.Logger
}

// Status is the readout served for a session.
type Status struct {
	ID          string           `json:"id"`
	Shape       shape.Kind       `json:"shape"`
	Particles   int              `json:"particles"`
	Scale       float64          `json:"scale"`
	TargetScale float64          `json:"target_scale"`
	Detected    bool             `json:"detected"`
	Hands       int              `json:"hands"`
	Tier        interaction.Tier `json:"tier"`
	Enabled     bool             `json:"enabled"`
	Frames      uint64           `json:"frames"`
	Watchers    int              `json:"watchers"`
	CreatedAt   time.Time        `json:"created_at"`
	LastSeen    time.Time        `json:"last_seen"`
	Camera      scene.Camera     `json:"camera"`
}

// Session is one running scene.
type Session struct {
	ID        string
	CreatedAt time.Time

	state  *scene.State
	driver *interaction.Driver
	logger *log.Logger

	cloud    atomic.Pointer[sampler.PointCloud]
	lastSeen atomic.Int64 // unix nanoseconds

	subMu sync.Mutex
	subs  map[chan scene.Frame]struct{}

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New starts a session. Its loop runs until Close.
func New(opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.Shape == "" {
		opts.Shape = shape.Default
	}

	st, err := scene.New(opts.Shape, opts.Scene)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger = logger.With("session", id[:8])
	opts.Driver.Logger = logger

	now := time.Now()
	s := &Session{
		ID:        id,
		CreatedAt: now,
		state:     st,
		driver:    interaction.NewDriver(nil, st, opts.Driver),
		logger:    logger,
		subs:      make(map[chan scene.Frame]struct{}),
		done:      make(chan struct{}),
	}
	s.cloud.Store(st.Cloud())
	s.lastSeen.Store(now.UnixNano())

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	loop := &scene.Loop{State: st, Renderer: fanout{s}, FPS: opts.FPS, Logger: logger}
	go func() {
		defer close(s.done)
		if err := loop.Run(ctx); err != nil {
			logger.Error("scene loop failed", "error", err)
		}
	}()

	logger.Info("session started", "shape", st.Snapshot().Shape, "fps", opts.FPS)
	return s, nil
}

// Offer feeds a detected hand sample through the driver. It returns false
// when the driver dropped the sample.
func (s *Session) Offer(sample *interaction.Sample) bool {
	s.Touch()
	return s.driver.Offer(sample)
}

// SetShape requests a shape switch. Unknown tags are rejected.
func (s *Session) SetShape(tag string) error {
	kind, ok := shape.Parse(tag)
	if !ok {
		return errors.New(errors.ErrCodeInvalidShape, "unknown shape %q", tag)
	}
	s.Touch()
	s.state.RequestShape(kind)
	return nil
}

// SetPointer moves the camera toward a normalized pointer offset.
func (s *Session) SetPointer(x, y float64) {
	s.Touch()
	s.state.SetPointer(x, y)
}

// SetEnabled gates gesture input.
func (s *Session) SetEnabled(on bool) {
	s.Touch()
	s.driver.SetEnabled(on)
}

// Snapshot returns the most recent frame.
func (s *Session) Snapshot() scene.Frame { return s.state.Snapshot() }

// Cloud returns the point cloud currently on screen.
func (s *Session) Cloud() *sampler.PointCloud { return s.cloud.Load() }

// Color returns the base particle color as hex.
func (s *Session) Color() string { return s.state.Options().Color.Hex() }

// Status returns the session readout.
func (s *Session) Status() Status {
	f := s.state.Snapshot()
	g := s.driver.Status()
	return Status{
		ID:          s.ID,
		Shape:       f.Shape,
		Particles:   s.Cloud().Len(),
		Scale:       f.Scale,
		TargetScale: f.TargetScale,
		Detected:    f.Detected,
		Hands:       g.Hands,
		Tier:        g.Tier,
		Enabled:     s.driver.Enabled(),
		Frames:      f.Seq,
		Watchers:    s.watchers(),
		CreatedAt:   s.CreatedAt,
		LastSeen:    s.LastSeen(),
		Camera:      f.Camera,
	}
}

// Touch marks the session as used.
func (s *Session) Touch() { s.lastSeen.Store(time.Now().UnixNano()) }

// LastSeen returns the time of the last client activity.
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Subscribe returns a channel of frames. Slow readers miss intermediate
// frames but always receive the latest one. Call stop to unsubscribe.
func (s *Session) Subscribe() (frames <-chan scene.Frame, stop func()) {
	ch := make(chan scene.Frame, 1)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	s.Touch()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, ch)
			s.subMu.Unlock()
			s.Touch()
		})
	}
}

func (s *Session) watchers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

// idle reports whether nobody watches s and it has not been touched since
// cutoff.
func (s *Session) idle(cutoff time.Time) bool {
	return s.watchers() == 0 && s.LastSeen().Before(cutoff)
}

// Done is closed once the loop has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close stops the loop and the driver and waits for both.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		<-s.done
		err = s.driver.Close()
		s.logger.Info("session closed", "frames", s.state.Snapshot().Seq)
	})
	return err
}

// fanout is the loop's renderer. It publishes the cloud and every frame.
type fanout struct{ s *Session }

func (f fanout) Rebuild(c *sampler.PointCloud, _ colorful.Color) { f.s.cloud.Store(c) }

func (f fanout) Draw(fr scene.Frame) {
	f.s.subMu.Lock()
	defer f.s.subMu.Unlock()
	for ch := range f.s.subs {
		select {
		case ch <- fr:
			continue
		default:
		}
		// Replace the stale frame.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- fr:
		default:
		}
	}
}
