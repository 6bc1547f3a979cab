// Package handle abstracts an ephemeral local reference to a binary blob.
//
// A Handle is the cache's unit of ownership: it is created from downloaded
// bytes, handed to consumers as a read-only reference, and released exactly
// once when the owning cache entry is dropped. Allocator implementations
// decide where the bytes actually live (heap, temp file), so different
// targets can swap the backing store without touching cache logic.
package handle

import (
	"errors"
	"sync/atomic"
)

// ErrReleased is returned by Release when the handle was already released.
var ErrReleased = errors.New("handle: already released")

// Handle is an owned, must-be-released reference to a binary payload.
// Bytes stays valid until Release; the URI string remains readable after
// Release but may no longer resolve.
type Handle struct {
	uri      string
	data     []byte
	release  func() error
	released atomic.Bool
	size     int
}

// New wraps data in a Handle. release may be nil when dropping the byte
// slice is all the cleanup there is. Allocators (and test doubles) are the
// intended callers; cache consumers never construct handles themselves.
func New(uri string, data []byte, release func() error) *Handle {
	return &Handle{uri: uri, data: data, release: release, size: len(data)}
}

// URI returns the locator consumers embed in their output (mem://…, file://…).
func (h *Handle) URI() string { return h.uri }

// Bytes returns the payload. Callers must not mutate it or retain it past
// the handle's release.
func (h *Handle) Bytes() []byte { return h.data }

// Size returns the payload length in bytes. Stable across Release.
func (h *Handle) Size() int { return h.size }

// Released reports whether Release has been called.
func (h *Handle) Released() bool { return h.released.Load() }

// Release frees the backing resource. Exactly the first call takes effect;
// later calls return ErrReleased and do nothing. A failure from the backing
// cleanup is fatal to this handle only.
func (h *Handle) Release() error {
	if !h.released.CompareAndSwap(false, true) {
		return ErrReleased
	}
	h.data = nil
	if h.release == nil {
		return nil
	}
	return h.release()
}

// Allocator creates handles over raw payload bytes.
type Allocator interface {
	// Create wraps data in a new Handle. Implementations may copy or spill
	// the data; the returned handle's URI must stay resolvable until Release.
	Create(data []byte) (*Handle, error)
}
