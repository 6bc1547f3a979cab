// Package urlutil builds the remote fallback references the cache serves
// when no local handle is resident: the best-known remote location of a
// photo, cache-busted so stale CDN copies are bypassed.
package urlutil

import (
	"net/url"
	"strconv"
	"time"
)

// Best returns the first non-empty URL, in preference order.
func Best(urls ...string) string {
	for _, u := range urls {
		if u != "" {
			return u
		}
	}
	return ""
}

// CacheBust appends a timestamp query parameter to raw so intermediaries
// re-fetch instead of serving a stale copy. Invalid or empty URLs are
// returned unchanged; a degraded fallback beats no fallback.
func CacheBust(raw string) string {
	return CacheBustAt(raw, time.Now())
}

// CacheBustAt is CacheBust with an explicit timestamp, for deterministic tests.
func CacheBustAt(raw string, now time.Time) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}
