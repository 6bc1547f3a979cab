package cache

import "github.com/printkit/photocache/handle"

// entry is an intrusive doubly linked list element owned by the store.
// It pairs the resident handle with the bookkeeping the TTL and LRU
// machinery needs. head is MRU, tail is LRU.
type entry struct {
	key         string
	h           *handle.Handle
	fallbackURL string

	// Intrusive list links.
	prev *entry
	next *entry

	// Timestamps in UnixNano. exp==0 means "no TTL".
	createdAt  int64
	lastAccess int64
	exp        int64
}
