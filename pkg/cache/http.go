package cache

import (
	"net/http"
	"strings"
)

const (
	// HeaderBypass set to "1" skips the cache for one request.
	HeaderBypass = "X-Bypass-Cache"

	// HeaderStatus carries the Status of a response.
	HeaderStatus = "X-Cache-Status"

	// HeaderKey carries the key used, or KeyNotApplicable.
	HeaderKey = "X-Cache-Key"

	KeyNotApplicable = "n/a"
)

// Status describes how the cache took part in a response.
type Status string

const (
	StatusHit    Status = "HIT"
	StatusMiss   Status = "MISS"
	StatusBypass Status = "BYPASS"
)

// ShouldBypass reports whether the request asks to neither read nor write
// the cache, either through HeaderBypass or a no-cache directive.
func ShouldBypass(h http.Header) bool {
	if strings.TrimSpace(h.Get(HeaderBypass)) == "1" {
		return true
	}
	for _, name := range []string{"Cache-Control", "Pragma"} {
		for _, v := range h.Values(name) {
			if strings.Contains(strings.ToLower(v), "no-cache") {
				return true
			}
		}
	}
	return false
}

// SetHeaders writes the diagnostic cache headers. The key is hidden under
// bypass.
func SetHeaders(h http.Header, status Status, key string) {
	if status == StatusBypass {
		key = KeyNotApplicable
	}
	h.Set(HeaderStatus, string(status))
	h.Set(HeaderKey, key)
}
