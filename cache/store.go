package cache

import (
	"sync"
	"time"

	"github.com/printkit/photocache/handle"
	"github.com/printkit/photocache/internal/util"
)

// store is the entry map plus an intrusive doubly linked list
// (head=MRU, tail=LRU) under one mutex. It owns every resident handle and
// is the only place handles are released.
type store struct {
	// ---- guarded by mu ----
	mu     sync.Mutex
	m      map[string]*entry
	head   *entry // MRU
	tail   *entry // LRU
	len    int    // number of resident entries
	bytes  int64  // total resident payload size
	closed bool   // set by close; a closed store refuses new handles

	max int // entry cap
	opt Options

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicInt64
}

func newStore(opt Options) *store {
	return &store{
		m:   make(map[string]*entry, opt.MaxEntries),
		max: opt.MaxEntries,
		opt: opt,
	}
}

// get returns a handle-backed Ref for key and promotes the entry to MRU.
// An expired entry is evicted on the spot and reported as a miss.
func (s *store) get(key string) (Ref, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[key]
	if !ok {
		s.misses.Add(1)
		s.opt.Metrics.Miss()
		return Ref{}, false
	}
	if s.expiredLocked(n) {
		s.evictNode(n, EvictTTL)
		s.misses.Add(1)
		s.opt.Metrics.Miss()
		return Ref{}, false
	}

	s.touchLocked(n)
	s.hits.Add(1)
	s.opt.Metrics.Hit()
	return Ref{URI: n.h.URI(), Cached: true}, true
}

// peek is get without the hit/miss accounting. Used for the double-check
// after joining a flight and for ImmediateRef, so one logical request is
// never counted twice.
func (s *store) peek(key string) (Ref, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[key]
	if !ok {
		return Ref{}, false
	}
	if s.expiredLocked(n) {
		s.evictNode(n, EvictTTL)
		return Ref{}, false
	}
	s.touchLocked(n)
	return Ref{URI: n.h.URI(), Cached: true}, true
}

// contains reports whether a live (unexpired) entry exists for key.
// It neither promotes nor evicts; predicates must stay side-effect free.
func (s *store) contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[key]
	return ok && !s.expiredLocked(n)
}

// put inserts or replaces the entry for key, taking ownership of h, and
// reports whether the handle became resident. A closed store refuses the
// handle and releases it on the spot, so a download that settles after
// close cannot leak. A replaced entry's old handle is released before the
// new one is visible. Expired entries are swept and the cap enforced
// before put returns, so the store never exceeds max after any write.
func (s *store) put(key string, h *handle.Handle, fallbackURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.releaseHandleLocked(key, h)
		return false
	}

	now := s.now()
	if old, ok := s.m[key]; ok {
		s.evictNode(old, EvictReplace)
	}
	n := &entry{
		key:         key,
		h:           h,
		fallbackURL: fallbackURL,
		createdAt:   now,
		lastAccess:  now,
		exp:         s.deadlineLocked(now),
	}
	s.m[key] = n
	s.insertFront(n)

	s.sweepLocked()
	s.enforceCapLocked()
	s.opt.Metrics.Size(s.len, s.bytes)
	return true
}

// clear releases every resident handle and empties the store.
func (s *store) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drainLocked()
}

// close marks the store closed, then drains it. Closing and put serialize
// on mu, so there is no window where a late-settling load can insert a
// handle that no teardown path would ever release.
func (s *store) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.drainLocked()
}

// size returns the number of resident entries.
func (s *store) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.len
}

// residentBytes returns the total payload size of resident entries.
func (s *store) residentBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// -------------------- internals (mu held) --------------------

func (s *store) now() int64 {
	if s.opt.Clock != nil {
		return s.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

// deadlineLocked converts the configured TTL into an absolute deadline.
// A negative TTL disables expiration.
func (s *store) deadlineLocked(now int64) int64 {
	if s.opt.TTL < 0 {
		return 0
	}
	return now + int64(s.opt.TTL)
}

func (s *store) expiredLocked(n *entry) bool {
	if n.exp == 0 {
		return false
	}
	return s.now() >= n.exp
}

// touchLocked records an access: promote to MRU, refresh lastAccess.
func (s *store) touchLocked(n *entry) {
	n.lastAccess = s.now()
	s.moveToFront(n)
}

// insertFront inserts n at MRU in O(1).
func (s *store) insertFront(n *entry) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
	s.len++
	s.bytes += int64(n.h.Size())
}

// moveToFront promotes n to MRU in O(1).
func (s *store) moveToFront(n *entry) {
	if n == s.head {
		return
	}
	// detach
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.tail == n {
		s.tail = n.prev
	}
	// insert at head
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
}

// removeNode unlinks n from the list and updates counters in O(1).
func (s *store) removeNode(n *entry) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.head == n {
		s.head = n.next
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
	s.len--
	s.bytes -= int64(n.h.Size())
	if s.bytes < 0 {
		s.bytes = 0
	}
}

// drainLocked releases every resident handle and empties the store.
func (s *store) drainLocked() {
	for s.tail != nil {
		s.evictNode(s.tail, EvictClear)
	}
	s.m = make(map[string]*entry)
	s.opt.Metrics.Size(0, 0)
}

// releaseHandleLocked releases a handle that never became resident.
func (s *store) releaseHandleLocked(key string, h *handle.Handle) {
	if err := h.Release(); err != nil && s.opt.Logger != nil {
		s.opt.Logger.WithError(err).WithField("key", key).Error("handle release failed")
	}
}

// evictNode removes the entry, releases its handle exactly once, and
// reports the eviction. This is the single removal path for all reasons.
func (s *store) evictNode(n *entry, reason EvictReason) {
	s.removeNode(n)
	delete(s.m, n.key)
	if err := n.h.Release(); err != nil && s.opt.Logger != nil {
		// Fatal to this handle only, not to the cache.
		s.opt.Logger.WithError(err).WithField("key", n.key).Error("handle release failed")
	}
	s.evicts.Add(1)
	s.opt.Metrics.Evict(reason)
	if cb := s.opt.OnEvict; cb != nil {
		// Called under the lock; callbacks must be lightweight.
		cb(n.key, reason)
	}
}

// sweepLocked drops every expired entry. Runs on each insertion; the
// resident count is small enough that a full walk is cheap.
func (s *store) sweepLocked() {
	n := s.tail
	for n != nil {
		prev := n.prev
		if s.expiredLocked(n) {
			s.evictNode(n, EvictTTL)
		}
		n = prev
	}
}

// enforceCapLocked evicts LRU entries until the cap is satisfied.
func (s *store) enforceCapLocked() {
	for s.len > s.max {
		if tail := s.tail; tail != nil {
			s.evictNode(tail, EvictLRU)
		} else {
			break
		}
	}
}
