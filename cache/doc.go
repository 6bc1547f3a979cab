// Package cache turns a remote, slow, possibly rate-limited photo source
// into a responsive local resource: at most one download per photo identity
// at any moment, a bounded number of resident binary handles, and
// deterministic release of every handle it creates.
//
// Design
//
//   - Storage: a single key→entry map plus an intrusive MRU↔LRU doubly
//     linked list under one mutex. Photo caches hold tens of entries, not
//     millions; one lock keeps the LRU order global and the code small.
//
//   - TTL: entries carry absolute UnixNano deadlines. Expiration is lazy on
//     read, and every insertion sweeps expired entries before enforcing the
//     MaxEntries cap, so the cap holds immediately after any write.
//
//   - Load coordination: GetHandle coalesces concurrent loads per key
//     through an in-flight group. The first caller downloads; joiners wait
//     for the shared result. The registration is dropped on success and
//     failure alike, so a key can never be stuck reported as loading.
//
//   - Degradation: a failed download never surfaces an error. The caller
//     receives a cache-busted remote URL instead, and nothing is written to
//     the store, so the next request is a natural retry.
//
//   - Handles: downloaded bytes are wrapped by a handle.Allocator. The
//     cache owns each handle from creation until the entry is removed
//     (expiry, eviction, replacement, clear) and releases it exactly once.
//     Consumers get read-only references, never ownership.
//
//   - Preload: speculative warm-up that shares the full load path but
//     discards the result. Membership bookkeeping makes repeated preloads
//     of the same photo free while one is outstanding.
//
//   - Metrics: hit/miss/eviction counters and load timings are collected
//     on padded atomics and mirrored to a pluggable Metrics hook
//     (NoopMetrics by default; see metrics/prom for the Prometheus
//     adapter). Metrics never affect control flow.
//
// Basic usage
//
//	c := cache.New(cache.Options{
//	    Download: src.Download, // func(ctx, key) ([]byte, error)
//	})
//	defer c.Close() // releases every outstanding handle
//
//	ref, err := c.GetHandle(ctx, photo) // blocks on first load
//	_ = c.Preload(ctx, next)            // speculative warm-up
//	ref = c.ImmediateRef(photo)         // never blocks
//
// Close (or Clear) must be called on teardown. Handles wrap finite
// platform resources; their release is never left to the garbage
// collector.
package cache
