package cache

import (
	"time"
)

// CacheEntry is a serialized response held by the in-process tier.
type CacheEntry struct {
	// Data is the serialized response body
	Data []byte

	// Expires is when the entry becomes stale. Zero means never.
	Expires time.Time
}

// IsExpired returns true if the cache entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return !e.Expires.IsZero() && time.Now().After(e.Expires)
}
