//go:build go1.18

package cache

import (
	"context"
	"strings"
	"testing"
)

// Fuzz the load/hit/clear cycle under arbitrary photo identifiers.
// Guards against panics and checks the core residency invariants.
// NOTE: key lengths are capped to avoid pathological memory usage during
// fuzzing (this does not weaken the invariants we check).
func FuzzCache_Keys(f *testing.F) {
	// Seed corpus: empty, ASCII, Unicode, long ids.
	f.Add("", "")
	f.Add("file-1", "local-1")
	f.Add("αβγ", "δ")
	f.Add("emoji🙂", "🙂🙂")
	f.Add(strings.Repeat("x", 1024), "")

	f.Fuzz(func(t *testing.T, fileID, localID string) {
		const limit = 1 << 12 // 4096
		if len(fileID) > limit {
			fileID = fileID[:limit]
		}
		if len(localID) > limit {
			localID = localID[:limit]
		}

		src := &fakeSource{}
		c := New(Options{Download: src.Download, MaxEntries: 4})
		t.Cleanup(func() { _ = c.Close() })

		ctx := context.Background()
		p := Photo{FileID: fileID, LocalID: localID, URL: "https://photos.example/f.jpg"}

		ref, err := c.GetHandle(ctx, p)
		if err != nil {
			t.Fatalf("GetHandle: %v", err)
		}
		if ref.URI == "" {
			t.Fatal("ref must always carry a usable URI")
		}

		if p.Key() == "" {
			// No identity: never cached, never downloaded.
			if c.IsCached(p) || src.calls.Load() != 0 {
				t.Fatal("identity-less photo must bypass the cache")
			}
			return
		}

		if !ref.Cached || !c.IsCached(p) {
			t.Fatal("photo with identity must be cached after a successful load")
		}

		// Second call is a hit: same flight count.
		if _, err := c.GetHandle(ctx, p); err != nil {
			t.Fatalf("second GetHandle: %v", err)
		}
		if got := src.calls.Load(); got != 1 {
			t.Fatalf("want 1 download, got %d", got)
		}

		c.Clear()
		if c.IsCached(p) {
			t.Fatal("key must be absent after Clear")
		}
	})
}
