package cache

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentPreloads bounds batch warm-up so a large template does not
// open one connection per photo against a rate-limited source.
const maxConcurrentPreloads = 4

// preloadAll warms the cache for a batch of photos. Duplicate keys inside
// the batch collapse through the preload membership set and the in-flight
// group, so each distinct key downloads at most once.
func preloadAll(ctx context.Context, c Cache, photos []Photo) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPreloads)
	for _, p := range photos {
		g.Go(func() error {
			return c.Preload(ctx, p)
		})
	}
	return g.Wait()
}
