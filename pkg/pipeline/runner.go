package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/particula/pkg/cache"
	"github.com/matzehuels/particula/pkg/observability"
	"github.com/matzehuels/particula/pkg/sampler"
)

// Runner executes still requests against a cache. It is safe for
// concurrent use; concurrent requests for the same seeded cloud sample it
// once.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// ArtifactTTL is how long rendered files stay cached. Zero means
	// cache.TTLArtifact.
	ArtifactTTL time.Duration

	clouds singleflight.Group
}

// NewRunner returns a runner. A nil cache disables caching and a nil keyer
// uses the default key layout.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute samples or loads the cloud, poses it and renders every requested
// format.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.Normalize(); err != nil {
		return nil, err
	}

	start := time.Now()
	c, cached, err := r.cloud(ctx, &opts)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Cloud:       c,
		CloudHash:   cache.Hash(sampler.Encode(c)),
		Frame:       Pose(opts),
		CloudCached: cached,
		SampleTime:  time.Since(start),
	}
	opts.Logger.Debug("cloud ready", "shape", c.Shape, "count", c.Len(), "seed", c.Seed, "cached", cached, "took", res.SampleTime)

	start = time.Now()
	res.Artifacts, res.RenderCached, err = r.artifacts(ctx, res, &opts)
	if err != nil {
		return nil, err
	}
	res.RenderTime = time.Since(start)
	opts.Logger.Debug("artifacts ready", "formats", opts.Formats, "cached", res.RenderCached, "took", res.RenderTime)
	return res, nil
}

// cloud loads a seeded cloud from the cache or samples it. Unseeded clouds
// draw a fresh seed every time and are never stored.
func (r *Runner) cloud(ctx context.Context, opts *Options) (*sampler.PointCloud, bool, error) {
	if opts.Seed == 0 {
		return r.sample(ctx, opts), false, nil
	}

	key := r.Keyer.CloudKey(opts.cloudKey())
	if !opts.Refresh {
		if c, ok := r.cachedCloud(ctx, key, opts); ok {
			return c, true, nil
		}
	}

	v, err, _ := r.clouds.Do(key, func() (any, error) {
		c := r.sample(ctx, opts)
		data := sampler.Encode(c)
		if err := r.Cache.Set(ctx, key, data, cache.TTLCloud); err != nil {
			opts.Logger.Warn("cloud not cached", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "cloud", len(data))
		}
		return c, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*sampler.PointCloud), false, nil
}

func (r *Runner) cachedCloud(ctx context.Context, key string, opts *Options) (*sampler.PointCloud, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	switch {
	case err != nil:
		opts.Logger.Warn("cloud cache unavailable", "err", err)
	case hit:
		c, err := sampler.Decode(data)
		if err == nil && c.Len() == opts.Count {
			hooks.OnCacheHit(ctx, "cloud")
			return c, true
		}
		opts.Logger.Warn("ignoring corrupt cloud entry", "key", key, "err", err)
	}
	hooks.OnCacheMiss(ctx, "cloud")
	return nil, false
}

func (r *Runner) sample(ctx context.Context, opts *Options) *sampler.PointCloud {
	hooks := observability.Pipeline()
	hooks.OnGenerateStart(ctx, opts.Shape, opts.Count)
	start := time.Now()
	c := sampler.Generate(opts.Kind(), opts.Count, sampler.NewSource(opts.Seed))
	hooks.OnGenerateComplete(ctx, opts.Shape, c.Len(), time.Since(start), nil)
	return c
}

// artifacts returns the cached files when every format is present and
// renders all of them otherwise.
func (r *Runner) artifacts(ctx context.Context, res *Result, opts *Options) (map[string][]byte, bool, error) {
	keys := make(map[string]string, len(opts.Formats))
	for _, f := range opts.Formats {
		keys[f] = r.Keyer.ArtifactKey(res.CloudHash, opts.artifactKey(f))
	}

	if !opts.Refresh {
		found := make(map[string][]byte, len(keys))
		for f, key := range keys {
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			found[f] = data
		}
		if len(found) == len(keys) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return found, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	out, err := Render(res.Cloud, res.Frame, *opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	ttl := r.ArtifactTTL
	if ttl <= 0 {
		ttl = cache.TTLArtifact
	}
	for f, data := range out {
		if err := r.Cache.Set(ctx, keys[f], data, ttl); err != nil {
			opts.Logger.Warn("artifact not cached", "format", f, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return out, false, nil
}

// Close closes the cache.
func (r *Runner) Close() error { return r.Cache.Close() }
