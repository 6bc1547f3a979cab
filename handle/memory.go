package handle

import (
	"fmt"
	"sync/atomic"
)

// Memory allocates handles backed by the Go heap. URIs are process-unique
// mem:// locators, the closest analogue to browser object URLs.
type Memory struct {
	seq atomic.Uint64
}

// NewMemory returns a heap-backed allocator.
func NewMemory() *Memory { return &Memory{} }

// Create copies data and returns a mem:// handle over the copy.
// The copy decouples the handle from whatever buffer the downloader reused.
func (m *Memory) Create(data []byte) (*Handle, error) {
	buf := make([]byte, len(data))
	copy(buf, data)
	return New(fmt.Sprintf("mem://photo/%d", m.seq.Add(1)), buf, nil), nil
}

var _ Allocator = (*Memory)(nil)
