package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"

	"github.com/printkit/photocache/handle"
	"github.com/printkit/photocache/internal/flight"
	"github.com/printkit/photocache/internal/util"
	"github.com/printkit/photocache/urlutil"
)

// photoCache wires the store, the in-flight group, and the preload
// membership set together. The store and both maps are exclusively owned
// here; nothing outside this package mutates them.
type photoCache struct {
	st  *store
	fl  flight.Group[string, Ref]
	opt Options

	pmu     sync.Mutex
	preload map[string]struct{}

	closed atomic.Bool

	// ---- load accounting (misses only; hits have no load time) ----
	requests  util.PaddedAtomicInt64
	loads     util.PaddedAtomicInt64
	loadNanos util.PaddedAtomicInt64
	failures  util.PaddedAtomicInt64
}

// New constructs a cache with the provided Options.
// Panics if Download is nil; everything else has a default (see Options).
func New(opt Options) Cache {
	if opt.Download == nil {
		panic("cache: Download must be provided")
	}
	if opt.MaxEntries <= 0 {
		opt.MaxEntries = DefaultMaxEntries
	}
	if opt.TTL == 0 {
		opt.TTL = DefaultTTL
	}
	if opt.Alloc == nil {
		opt.Alloc = handle.NewMemory()
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = &log.Logger{Handler: discard.New(), Level: log.ErrorLevel}
	}
	if opt.Fallback == nil {
		opt.Fallback = func(p Photo) string {
			return urlutil.CacheBust(urlutil.Best(p.URL, p.ThumbURL))
		}
	}

	return &photoCache{
		st:      newStore(opt),
		opt:     opt,
		preload: make(map[string]struct{}),
	}
}

// ---- Cache implementation ----

func (c *photoCache) GetHandle(ctx context.Context, p Photo) (Ref, error) {
	c.requests.Add(1)

	key := p.Key()
	if key == "" || c.closed.Load() {
		return c.remoteRef(p), nil
	}

	if ref, ok := c.st.get(key); ok {
		return ref, nil
	}

	// Miss: at most one download per key runs at a time; everyone else
	// joins the flight and shares its result.
	return c.fl.Do(ctx, key, func() (Ref, error) {
		// Double-check after winning the flight: a load that settled
		// between our miss and the registration may have populated the key.
		if ref, ok := c.st.peek(key); ok {
			return ref, nil
		}
		return c.load(ctx, p, key), nil
	})
}

func (c *photoCache) ImmediateRef(p Photo) Ref {
	if key := p.Key(); key != "" && !c.closed.Load() {
		if ref, ok := c.st.peek(key); ok {
			return ref
		}
	}
	return c.remoteRef(p)
}

func (c *photoCache) Preload(ctx context.Context, p Photo) error {
	key := p.Key()
	if key == "" || c.closed.Load() {
		return nil
	}
	if c.st.contains(key) || c.fl.Pending(key) {
		return nil
	}

	c.pmu.Lock()
	if _, queued := c.preload[key]; queued {
		c.pmu.Unlock()
		return nil
	}
	c.preload[key] = struct{}{}
	c.pmu.Unlock()

	// Membership leaves with the load, success or failure.
	defer func() {
		c.pmu.Lock()
		delete(c.preload, key)
		c.pmu.Unlock()
	}()

	_, err := c.GetHandle(ctx, p)
	return err
}

func (c *photoCache) PreloadAll(ctx context.Context, photos []Photo) error {
	return preloadAll(ctx, c, photos)
}

func (c *photoCache) IsCached(p Photo) bool {
	return c.st.contains(p.Key())
}

func (c *photoCache) IsLoading(p Photo) bool {
	return c.fl.Pending(p.Key())
}

func (c *photoCache) Clear() {
	c.st.clear()
}

func (c *photoCache) Close() error {
	c.closed.Store(true)
	c.st.close()
	return nil
}

// ---- internals ----

// load runs the actual download for key. It never returns an error: a
// failure is logged, counted, and mapped to the remote fallback so callers
// always receive a usable reference. No entry is written on failure, which
// makes the next request a natural retry.
func (c *photoCache) load(ctx context.Context, p Photo, key string) Ref {
	start := time.Now()
	data, err := c.opt.Download(ctx, key)
	elapsed := time.Since(start)

	c.loads.Add(1)
	c.loadNanos.Add(int64(elapsed))
	c.opt.Metrics.ObserveLoad(elapsed)

	if err != nil {
		c.failures.Add(1)
		c.opt.Logger.WithError(err).
			WithField("key", key).
			WithField("elapsed", elapsed).
			Warn("photo download failed, serving remote fallback")
		return c.remoteRef(p)
	}

	h, err := c.opt.Alloc.Create(data)
	if err != nil {
		c.failures.Add(1)
		c.opt.Logger.WithError(err).
			WithField("key", key).
			Warn("handle allocation failed, serving remote fallback")
		return c.remoteRef(p)
	}

	// Handle URIs are immutable, so reading it after put is safe even if
	// the entry is evicted in between.
	if !c.st.put(key, h, c.opt.Fallback(p)) {
		// The cache shut down while the download was in flight; the store
		// released the handle instead of adopting it.
		return c.remoteRef(p)
	}
	return Ref{URI: h.URI(), Cached: true}
}

func (c *photoCache) remoteRef(p Photo) Ref {
	return Ref{URI: c.opt.Fallback(p)}
}
