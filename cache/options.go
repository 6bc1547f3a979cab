package cache

import (
	"context"
	"time"

	"github.com/apex/log"

	"github.com/printkit/photocache/handle"
)

// Defaults applied by New for zero-valued Options fields. Both are plain
// configuration; deterministic tests override them.
const (
	DefaultMaxEntries = 50
	DefaultTTL        = 30 * time.Minute
)

// EvictReason explains why an entry was removed (and its handle released).
type EvictReason int

const (
	// EvictLRU — removed to satisfy the MaxEntries cap, least recently used first.
	EvictLRU EvictReason = iota
	// EvictTTL — expired (lazy eviction on access, or the sweep on insert).
	EvictTTL
	// EvictReplace — overwritten by a fresh entry for the same key.
	EvictReplace
	// EvictClear — removed by Clear/Close teardown.
	EvictClear
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
// Implementations must not call back into the cache.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int, bytes int64)
	ObserveLoad(d time.Duration)
}

// Clock provides time in UnixNano; useful for deterministic TTL tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures the cache behavior. Only Download is required;
// sane defaults are applied in New():
//   - MaxEntries <= 0 => DefaultMaxEntries
//   - TTL == 0        => DefaultTTL (negative disables expiration)
//   - nil Alloc       => handle.NewMemory()
//   - nil Metrics     => NoopMetrics
//   - nil Logger      => discard
//   - nil Fallback    => cache-busted best remote URL (urlutil)
type Options struct {
	// MaxEntries is the hard cap on simultaneously resident handles.
	MaxEntries int

	// TTL is how long an entry stays valid after insertion or replacement.
	TTL time.Duration

	// Download fetches the raw photo bytes for a key. Required.
	// Failures are logged and degrade to the Fallback reference; they are
	// never surfaced to GetHandle callers.
	Download func(ctx context.Context, key string) ([]byte, error)

	// Fallback computes the remote reference served when no handle is
	// resident (immediate refs, failed downloads).
	Fallback func(p Photo) string

	// Alloc creates resource handles over downloaded bytes.
	Alloc handle.Allocator

	// OnEvict is called under the store lock for every released entry;
	// keep callbacks lightweight.
	OnEvict func(key string, reason EvictReason)

	// Metrics receives hit/miss/evict/size/load signals.
	Metrics Metrics

	// Logger receives download and release diagnostics.
	Logger log.Interface

	// Clock allows overriding the time source (tests). Nil => time.Now().
	Clock Clock
}
