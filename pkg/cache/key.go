package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fuzfriend/products-api/pkg/query"
)

// DefaultPrefix is the first segment of every key.
const DefaultPrefix = "Products"

// SentinelSegment replaces the digest when a search query cannot be
// serialized. Keys ending in it are never read or written.
const SentinelSegment = "ERR"

// Endpoint identifies the kind of request a key belongs to.
type Endpoint string

const (
	EndpointList   Endpoint = "Get"
	EndpointCount  Endpoint = "Count"
	EndpointByID   Endpoint = "GetById"
	EndpointSearch Endpoint = "Search"
)

// canonicalJSON serializes a normalized query for hashing.
var canonicalJSON = json.Marshal

// CacheKey represents a unique identifier for a cached products response.
type CacheKey struct {
	// Prefix defaults to DefaultPrefix.
	Prefix string

	Endpoint Endpoint

	// Page and PageSize are used by EndpointList.
	Page     int
	PageSize int

	// ID is used by EndpointByID.
	ID int64

	// Query is used by EndpointSearch. It must already be normalized so
	// that equal queries hash equally.
	Query *query.Spec
}

// ListKey is the key of a plain page listing.
func ListKey(page, pageSize int) CacheKey {
	return CacheKey{Endpoint: EndpointList, Page: page, PageSize: pageSize}
}

// CountKey is the key of the total product count.
func CountKey() CacheKey {
	return CacheKey{Endpoint: EndpointCount}
}

// ByIDKey is the key of a single product lookup.
func ByIDKey(id int64) CacheKey {
	return CacheKey{Endpoint: EndpointByID, ID: id}
}

// SearchKey is the key of an arbitrary search.
func SearchKey(spec query.Spec) CacheKey {
	return CacheKey{Endpoint: EndpointSearch, Query: &spec}
}

// WithPrefix returns a copy of k using prefix.
func (k CacheKey) WithPrefix(prefix string) CacheKey {
	k.Prefix = prefix
	return k
}

// String generates a deterministic cache key string.
//
// Examples:
//
//	Products:Get:page=1;pageSize=20
//	Products:Count
//	Products:GetById:42
//	Products:Search:3F1A...(64 hex digits)
func (k CacheKey) String() string {
	prefix := k.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	switch k.Endpoint {
	case EndpointList:
		return fmt.Sprintf("%s:%s:page=%d;pageSize=%d", prefix, k.Endpoint, k.Page, k.PageSize)
	case EndpointByID:
		return prefix + ":" + string(k.Endpoint) + ":" + strconv.FormatInt(k.ID, 10)
	case EndpointSearch:
		return prefix + ":" + string(k.Endpoint) + ":" + searchDigest(k.Query)
	default:
		return prefix + ":" + string(k.Endpoint)
	}
}

// searchDigest is the uppercase hex SHA-256 of the query's JSON form, or
// SentinelSegment if it cannot be serialized.
func searchDigest(spec *query.Spec) string {
	if spec == nil {
		s := query.Normalize(nil)
		spec = &s
	}

	data, err := canonicalJSON(spec)
	if err != nil {
		return SentinelSegment
	}
	return fmt.Sprintf("%X", sha256.Sum256(data))
}

// IsSentinel reports whether key is a search key whose query could not be
// serialized.
func IsSentinel(key string) bool {
	return strings.HasSuffix(key, ":"+string(EndpointSearch)+":"+SentinelSegment)
}
