package cache

import (
	"context"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"
)

// A mixed workload of concurrent GetHandle/ImmediateRef/Preload/predicates
// plus the occasional Clear on a small keyspace. Should pass under `-race`
// without detector reports, and no handle may ever be released twice.
func TestRace_MixedWorkload(t *testing.T) {
	src := &fakeSource{}
	alloc := newTrackingAlloc()
	c := New(Options{
		Download:   src.Download,
		Alloc:      alloc,
		MaxEntries: 16,
		TTL:        50 * time.Millisecond,
	})
	t.Cleanup(func() { _ = c.Close() })

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 64
	deadline := time.Now().Add(2 * time.Second)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				p := photo("k:" + strconv.Itoa(r.Intn(keyspace)))
				switch r.Intn(100) {
				case 0: // ~1% — Clear
					c.Clear()
				case 1, 2, 3, 4, 5: // ~5% — Preload
					_ = c.Preload(ctx, p)
				case 6, 7, 8, 9, 10: // ~5% — predicates
					c.IsCached(p)
					c.IsLoading(p)
				case 11, 12, 13, 14, 15: // ~5% — ImmediateRef
					c.ImmediateRef(p)
				default: // ~85% — GetHandle
					if _, err := c.GetHandle(ctx, p); err != nil {
						t.Errorf("GetHandle: %v", err)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()

	_ = c.Close()
	for uri, n := range alloc.releaseCounts() {
		if n != 1 {
			t.Fatalf("handle %s released %d times", uri, n)
		}
	}
	if created, released := alloc.created(), len(alloc.releaseCounts()); created != released {
		t.Fatalf("%d handles created but %d released", created, released)
	}
}
