package handle

import "os"

// TempFile spills payloads to files under dir and serves file:// URIs.
// Release deletes the file. Use it when resident payloads are large enough
// that keeping them off the hot heap matters.
type TempFile struct {
	dir string
}

// NewTempFile returns a file-backed allocator. An empty dir means the
// system temp directory.
func NewTempFile(dir string) *TempFile { return &TempFile{dir: dir} }

// Create writes data to a fresh temp file. Bytes serves from an in-memory
// copy; Release removes the file.
func (t *TempFile) Create(data []byte) (*Handle, error) {
	f, err := os.CreateTemp(t.dir, "photocache-*.bin")
	if err != nil {
		return nil, err
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return nil, err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return New("file://"+name, buf, func() error { return os.Remove(name) }), nil
}

var _ Allocator = (*TempFile)(nil)
