package cache

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats is a point-in-time snapshot of the collector counters. Purely
// observational; reading it never changes cache state.
type Stats struct {
	Requests  int64 // GetHandle calls
	Hits      int64
	Misses    int64
	Evictions int64 // includes TTL, LRU, replacement, and clear removals
	Loads     int64 // downloads attempted (misses that reached the source)
	Failures  int64 // downloads or allocations that fell back to a remote URL

	TotalLoad time.Duration // cumulative download time, misses only
	AvgLoad   time.Duration // TotalLoad / Loads; zero when no loads ran

	Entries    int   // resident entries
	Bytes      int64 // resident payload bytes
	InFlight   int   // downloads currently outstanding
	Preloading int   // keys in the preload membership set
}

// Stats returns the current snapshot. Counters are read individually, so a
// snapshot taken under load is approximate, never blocking.
func (c *photoCache) Stats() Stats {
	s := Stats{
		Requests:  c.requests.Load(),
		Hits:      c.st.hits.Load(),
		Misses:    c.st.misses.Load(),
		Evictions: c.st.evicts.Load(),
		Loads:     c.loads.Load(),
		Failures:  c.failures.Load(),
		TotalLoad: time.Duration(c.loadNanos.Load()),

		Entries:  c.st.size(),
		Bytes:    c.st.residentBytes(),
		InFlight: c.fl.Len(),
	}
	if s.Loads > 0 {
		s.AvgLoad = s.TotalLoad / time.Duration(s.Loads)
	}
	c.pmu.Lock()
	s.Preloading = len(c.preload)
	c.pmu.Unlock()
	return s
}

// String renders a one-line human-readable dump for logs and CLIs.
func (s Stats) String() string {
	hitRate := 0.0
	if s.Hits+s.Misses > 0 {
		hitRate = 100 * float64(s.Hits) / float64(s.Hits+s.Misses)
	}
	return fmt.Sprintf(
		"photocache: %d requests (%d hits / %d misses, %.1f%% hit rate), "+
			"%d loads avg %s (%d failed), %d evictions, "+
			"%d resident (%s), %d in flight, %d preloading",
		s.Requests, s.Hits, s.Misses, hitRate,
		s.Loads, s.AvgLoad.Round(time.Millisecond), s.Failures, s.Evictions,
		s.Entries, humanize.Bytes(uint64(s.Bytes)), s.InFlight, s.Preloading,
	)
}
