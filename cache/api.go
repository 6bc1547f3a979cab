package cache

import "context"

// Cache is the photo asset cache surface exposed to the rest of the
// application. All methods are safe for concurrent use by multiple
// goroutines.
type Cache interface {
	// GetHandle returns a displayable reference for the photo.
	// Hit: the resident handle's URI, immediately. Miss: joins or starts
	// the single in-flight download for the key and blocks until it
	// settles. Download failures degrade to a cache-busted remote URL;
	// the only possible error is the caller's own ctx ending while it
	// waits on a flight led by another goroutine.
	GetHandle(ctx context.Context, p Photo) (Ref, error)

	// ImmediateRef never blocks and never triggers a load: the resident
	// handle's URI if cached, otherwise a best-effort remote reference.
	// Useful for optimistic rendering while a background load proceeds.
	ImmediateRef(p Photo) Ref

	// Preload speculatively warms the cache for p. It is a no-op when the
	// photo is already cached, in flight, or already queued for preload.
	// The resolved reference is discarded; population of the store is the
	// whole point. Blocks until the load settles — run it in its own
	// goroutine (or use PreloadAll) for fire-and-forget behavior.
	Preload(ctx context.Context, p Photo) error

	// PreloadAll preloads a batch concurrently and waits for all of them.
	PreloadAll(ctx context.Context, photos []Photo) error

	// IsCached reports whether a live entry for p is resident. Never blocks.
	IsCached(p Photo) bool

	// IsLoading reports whether a download for p is in flight. Never blocks.
	IsLoading(p Photo) bool

	// Clear releases every resident handle and empties the store.
	Clear()

	// Stats returns a point-in-time snapshot of the collector counters.
	Stats() Stats

	// Close clears the store (releasing all handles) and marks the cache
	// closed. Subsequent GetHandle calls degrade to remote fallbacks.
	// Call it from the host's teardown path; handle release is never left
	// to the garbage collector.
	Close() error
}
