// Package source provides downloader implementations the cache consumes.
// Each source exposes a Download method matching the cache's Download
// contract: fetch the raw bytes for a photo key, or fail.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// defaultMaxBytes caps a single photo payload read.
const defaultMaxBytes = 32 << 20 // 32 MiB

// HTTP fetches photo bytes from Base+key over an injected client.
type HTTP struct {
	// Client used for requests. Nil => http.DefaultClient. Inject a client
	// with a timeout if the source should be bounded; the cache itself
	// enforces none.
	Client *http.Client

	// Base is the URL prefix the key is appended to.
	Base string

	// MaxBytes caps the response body read. 0 => defaultMaxBytes.
	MaxBytes int64
}

// Download implements the cache's Download contract.
func (s *HTTP) Download(ctx context.Context, key string) ([]byte, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Base+key, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source: GET %q: unexpected status %s", key, resp.Status)
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = defaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("source: GET %q: read body: %w", key, err)
	}
	return data, nil
}
