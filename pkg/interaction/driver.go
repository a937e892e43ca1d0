package interaction

import (
	"context"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/particula/pkg/errors"
	"github.com/matzehuels/particula/pkg/observability"
)

// DefaultHysteresis is the smallest scale change worth propagating.
const DefaultHysteresis = 0.05

// Drop reasons reported to observability hooks.
const (
	dropDisabled  = "disabled"
	dropThrottled = "throttled"
	dropBusy      = "busy"
	dropClosed    = "closed"
	dropError     = "error"
)

// Target receives resolved scales. *scene.State implements it.
type Target interface {
	SetTarget(scale float64, detected bool)
}

// Status is the readout shown to the user.
type Status struct {
	Detected bool    `json:"detected"`
	Scale    float64 `json:"scale"`
	Hands    int     `json:"hands"`
	Tier     Tier    `json:"tier"`
}

// StatusFunc is called after every propagated change.
type StatusFunc func(Status)

// Options configures a Driver.
type Options struct {
	// Tier sets the dispatch interval. Empty detects the tier.
	Tier Tier
	// Interval overrides the tier's interval when positive.
	Interval time.Duration
	// Hysteresis is the minimum change in scale that is propagated.
	// Zero uses DefaultHysteresis; negative disables it.
	Hysteresis float64
	Params     Params
	Logger     *log.Logger
	OnStatus   StatusFunc
	// Clock replaces time.Now for throttling and breathing. Offline
	// simulations pass a clock that follows frame time.
	Clock func() time.Time
}

// Driver turns video frames into target scale updates.
//
// At most one detection runs at a time and dispatches are spaced by the
// tier interval. Frames arriving while a detection is in flight, or before
// the interval has elapsed, are dropped.
type Driver struct {
	detector Detector
	target   Target
	opts     Options
	interval time.Duration
	logger   *log.Logger

	sem     *semaphore.Weighted
	enabled atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	now     func() time.Time
	start   time.Time

	mu           sync.Mutex
	lastDispatch time.Time
	dispatched   bool
	status       Status
	propagated   bool
	closed       bool
}

// NewDriver creates an enabled driver. detector may be nil when samples are
// only fed through Offer.
func NewDriver(detector Detector, target Target, opts Options) *Driver {
	if opts.Tier == "" {
		opts.Tier = DetectTier()
	}
	if opts.Hysteresis == 0 {
		opts.Hysteresis = DefaultHysteresis
	}
	if opts.Params == (Params{}) {
		opts.Params = DefaultParams()
	}
	interval := opts.Tier.Interval()
	if opts.Interval > 0 {
		interval = opts.Interval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Driver{
		detector: detector,
		target:   target,
		opts:     opts,
		interval: interval,
		logger:   logger,
		sem:      semaphore.NewWeighted(1),
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
		status:   Status{Scale: 1, Tier: opts.Tier},
	}
	if opts.Clock != nil {
		d.now = opts.Clock
	}
	d.start = d.now()
	d.enabled.Store(true)
	return d
}

// Interval is the minimum spacing between dispatches.
func (d *Driver) Interval() time.Duration { return d.interval }

// SetEnabled gates dispatch. Frames offered while disabled are dropped.
func (d *Driver) SetEnabled(on bool) {
	if d.enabled.Swap(on) != on {
		d.logger.Debug("gesture input", "enabled", on)
	}
}

// Enabled reports whether the driver accepts frames.
func (d *Driver) Enabled() bool { return d.enabled.Load() }

// Status returns the last propagated status.
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Submit dispatches f to the detector in the background. It returns false
// if the frame was dropped.
func (d *Driver) Submit(f Frame) bool {
	if d.detector == nil {
		return false
	}
	if !d.admit() {
		return false
	}
	go func() {
		defer d.release()
		_, _ = d.detect(d.ctx, f)
	}()
	return true
}

// Process runs the detector on f synchronously. dispatched is false if the
// frame was dropped, in which case the current status is returned.
func (d *Driver) Process(ctx context.Context, f Frame) (st Status, dispatched bool, err error) {
	if d.detector == nil {
		return d.Status(), false, errors.New(errors.ErrCodeInvalidInput, "driver has no detector")
	}
	if !d.admit() {
		return d.Status(), false, nil
	}
	defer d.release()
	st, err = d.detect(ctx, f)
	return st, true, err
}

// Offer applies a sample that was detected elsewhere. It obeys the same
// gating as Submit and returns false if the sample was dropped.
func (d *Driver) Offer(s *Sample) bool {
	if !d.admit() {
		return false
	}
	defer d.release()
	start := d.now()
	st := d.apply(s)
	observability.Interaction().OnSample(d.ctx, string(d.opts.Tier), st.Hands, st.Scale, d.now().Sub(start))
	return true
}

// Close stops dispatching, cancels in-flight detection and waits for it.
// A detector implementing io.Closer is closed afterwards.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
	if c, ok := d.detector.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// admit applies the gates in order: closed, disabled, throttle, busy.
// On success the caller holds the semaphore and must call release.
func (d *Driver) admit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	reason := ""
	now := d.now()
	switch {
	case d.closed:
		reason = dropClosed
	case !d.enabled.Load():
		reason = dropDisabled
	case d.dispatched && now.Sub(d.lastDispatch) < d.interval:
		reason = dropThrottled
	case !d.sem.TryAcquire(1):
		reason = dropBusy
	}
	if reason != "" {
		observability.Interaction().OnDrop(d.ctx, reason)
		return false
	}
	d.dispatched = true
	d.lastDispatch = now
	d.wg.Add(1)
	return true
}

func (d *Driver) release() {
	d.sem.Release(1)
	d.wg.Done()
}

func (d *Driver) detect(ctx context.Context, f Frame) (Status, error) {
	dctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(d.ctx, cancel)
	defer stop()

	start := d.now()
	s, err := d.detector.Detect(dctx, f)
	if err != nil {
		d.logger.Warn("hand detection failed", "frame", f.Seq, "err", err)
		observability.Interaction().OnDrop(ctx, dropError)
		return d.Status(), errors.Wrap(errors.ErrCodeInvalidSample, err, "detect frame %d", f.Seq)
	}
	st := d.apply(s)
	observability.Interaction().OnSample(ctx, string(d.opts.Tier), st.Hands, st.Scale, d.now().Sub(start))
	return st, nil
}

// apply resolves s and propagates the result through the hysteresis gate.
func (d *Driver) apply(s *Sample) Status {
	scale, detected := ResolveTargetScale(s, d.now().Sub(d.start), d.opts.Params)
	hands := len(s.UsableHands())

	d.mu.Lock()
	propagate := !d.propagated ||
		detected != d.status.Detected ||
		(detected && math.Abs(scale-d.status.Scale) > d.opts.Hysteresis)
	d.status.Hands = hands
	if propagate {
		d.status.Detected = detected
		d.status.Scale = scale
		d.propagated = true
	}
	st := d.status
	d.mu.Unlock()

	if propagate {
		if d.target != nil {
			d.target.SetTarget(scale, detected)
		}
		if d.opts.OnStatus != nil {
			d.opts.OnStatus(st)
		}
		d.logger.Debug("gesture", "detected", detected, "scale", scale, "hands", hands)
	}
	return st
}
