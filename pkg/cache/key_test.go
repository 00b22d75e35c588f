package cache

import (
	"errors"
	"regexp"
	"testing"

	"github.com/fuzfriend/products-api/pkg/query"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "list",
			key:  ListKey(1, 20),
			want: "Products:Get:page=1;pageSize=20",
		},
		{
			name: "count",
			key:  CountKey(),
			want: "Products:Count",
		},
		{
			name: "by id",
			key:  ByIDKey(42),
			want: "Products:GetById:42",
		},
		{
			name: "custom prefix",
			key:  ListKey(3, 50).WithPrefix("Staging"),
			want: "Staging:Get:page=3;pageSize=50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("CacheKey.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

var searchKeyPattern = regexp.MustCompile(`^Products:Search:[0-9A-F]{64}$`)

func TestSearchKey_Format(t *testing.T) {
	key := SearchKey(query.Normalize(nil)).String()
	if !searchKeyPattern.MatchString(key) {
		t.Errorf("SearchKey = %q, want prefix and 64 uppercase hex digits", key)
	}

	var nilQuery CacheKey
	nilQuery.Endpoint = EndpointSearch
	if got := nilQuery.String(); got != key {
		t.Errorf("nil query key = %q, want default query key %q", got, key)
	}
}

// TestSearchKey_Determinism ensures equivalent queries share a key
func TestSearchKey_Determinism(t *testing.T) {
	a := query.Normalize(&query.Raw{Brands: []string{"Sony", " Apple", "Apple"}, Page: 1})
	b := query.Normalize(&query.Raw{Brands: []string{"Apple", "Sony"}})

	first := SearchKey(a).String()
	for i := 0; i < 10; i++ {
		if got := SearchKey(a).String(); got != first {
			t.Errorf("iteration %d: %v, want %v (not deterministic)", i, got, first)
		}
	}
	if got := SearchKey(b).String(); got != first {
		t.Errorf("reordered query key = %v, want %v", got, first)
	}

	c := query.Normalize(&query.Raw{Brands: []string{"Apple"}})
	if SearchKey(c).String() == first {
		t.Error("different queries produced the same key")
	}
}

func TestSearchKey_SerializationFailure(t *testing.T) {
	orig := canonicalJSON
	canonicalJSON = func(any) ([]byte, error) { return nil, errors.New("boom") }
	t.Cleanup(func() { canonicalJSON = orig })

	key := SearchKey(query.Normalize(nil)).String()
	if key != "Products:Search:ERR" {
		t.Fatalf("SearchKey = %q, want sentinel", key)
	}
	if !IsSentinel(key) {
		t.Error("IsSentinel() = false for sentinel key")
	}
}

func TestIsSentinel(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"Products:Search:ERR", true},
		{"Staging:Search:ERR", true},
		{"Products:Search:ABCDEF", false},
		{"Products:GetById:ERR", false},
		{"Products:Count", false},
	}

	for _, tt := range tests {
		if got := IsSentinel(tt.key); got != tt.want {
			t.Errorf("IsSentinel(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
