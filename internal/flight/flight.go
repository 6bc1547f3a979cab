// Package flight coalesces concurrent loads for the same key so the
// downloader runs at most once per key at any moment. Besides the store
// mutex it is the cache's only cross-goroutine coordination primitive.
package flight

import (
	"context"
	"sync"
)

// Group tracks at most one in-flight call per key. The first caller for a
// key becomes the leader and runs fn; followers wait for the shared result.
//
// Concurrency notes:
//   - Publishing (val, err) happens-before close(c.done), so reads after
//     <-done observe the final values.
//   - Cancelling ctx in a follower unblocks only that follower; it does NOT
//     cancel the leader's fn. If the underlying work must honor
//     cancellation, thread ctx into fn and handle it there.
//   - The key is deregistered when fn settles, success or failure alike,
//     and before any waiter wakes, so a key can never be stuck or observed
//     pending after a call for it resolved.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
}

// Do runs fn once for the given key. Concurrent calls with the same key
// wait for the shared result. If ctx is cancelled in a follower, that
// follower returns ctx.Err() while the leader continues to run fn.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		// Join the existing flight; wait respecting ctx.
		done := c.done
		g.mu.Unlock()

		select {
		case <-done:
			return c.val, c.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	// We are the leader for this key.
	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	// Execute fn outside the lock.
	v, err := fn()

	// Publish the result, deregistering before waking followers so
	// Pending can never read true after a caller's Do has resolved.
	c.val, c.err = v, err
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
	close(c.done)

	return v, err
}

// Pending reports whether a load for key is currently in flight.
func (g *Group[K, V]) Pending(key K) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.m[key]
	return ok
}

// Len returns the number of keys currently in flight.
func (g *Group[K, V]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}
