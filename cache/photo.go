package cache

// Photo describes one remote image. FileID is the provider's stable file
// identifier and is always preferred as the cache key: two distinct
// in-memory descriptors for the same remote photo must resolve to the same
// key. LocalID only backs descriptors created before the provider assigned
// an id.
type Photo struct {
	FileID  string
	LocalID string

	// Remote locations used for the non-handle fallback path.
	URL      string // full-size
	ThumbURL string // smaller variant, used when URL is empty
}

// Key returns the cache identity for the photo. Empty when the photo has
// no identity at all; such photos are never cached.
func (p Photo) Key() string {
	if p.FileID != "" {
		return p.FileID
	}
	return p.LocalID
}

// Ref is what consumers embed while rendering: either the URI of a
// cache-managed local handle or a best-effort remote URL. Consumers never
// own the underlying handle and must not assume the URI outlives the entry.
type Ref struct {
	URI    string
	Cached bool // true when URI is backed by a resident handle
}
