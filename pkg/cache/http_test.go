package cache

import (
	"net/http"
	"testing"
)

func TestShouldBypass(t *testing.T) {
	tests := []struct {
		name    string
		headers http.Header
		want    bool
	}{
		{"no headers", http.Header{}, false},
		{"bypass header", http.Header{"X-Bypass-Cache": []string{"1"}}, true},
		{"bypass header padded", http.Header{"X-Bypass-Cache": []string{" 1 "}}, true},
		{"bypass header other value", http.Header{"X-Bypass-Cache": []string{"true"}}, false},
		{"cache-control no-cache", http.Header{"Cache-Control": []string{"no-cache"}}, true},
		{"cache-control mixed case", http.Header{"Cache-Control": []string{"max-age=0, No-Cache"}}, true},
		{"cache-control max-age", http.Header{"Cache-Control": []string{"max-age=60"}}, false},
		{"pragma no-cache", http.Header{"Pragma": []string{"no-cache"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldBypass(tt.headers); got != tt.want {
				t.Errorf("ShouldBypass() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldBypass_CanonicalizedName(t *testing.T) {
	h := http.Header{}
	h.Set("x-bypass-cache", "1")
	if !ShouldBypass(h) {
		t.Error("ShouldBypass() = false for lower-case header name")
	}
}

func TestSetHeaders(t *testing.T) {
	tests := []struct {
		status  Status
		key     string
		wantKey string
	}{
		{StatusHit, "Products:Count", "Products:Count"},
		{StatusMiss, "Products:Count", "Products:Count"},
		{StatusBypass, "Products:Count", "n/a"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			h := http.Header{}
			SetHeaders(h, tt.status, tt.key)
			if got := h.Get(HeaderStatus); got != string(tt.status) {
				t.Errorf("%s = %q, want %q", HeaderStatus, got, tt.status)
			}
			if got := h.Get(HeaderKey); got != tt.wantKey {
				t.Errorf("%s = %q, want %q", HeaderKey, got, tt.wantKey)
			}
		})
	}
}
