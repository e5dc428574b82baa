package app

import (
	"net/http"
	"reflect"
	"strings"
)

// Response media types.
const (
	EncodingJSON       = "application/json"
	EncodingGeoJSON    = "application/geo+json"
	EncodingJSONSchema = "application/schema+json"
)

// noStore is the cache directive for responses that must not be shared.
const noStore = "max-age=0"

// CachePolicy decides the cache-control directive for successful
// responses. The shared directive applies only to read-only fetches of
// the root path or of catalogs in the configured allow-list.
type CachePolicy struct {
	// SharedDirective is the configured shared cache directive, e.g.
	// "public, max-age=3600".
	SharedDirective string

	// Catalogs is the allow-list of catalog identifiers whose scoped
	// paths may carry the shared directive.
	Catalogs map[string]bool

	// Prefix is the mount prefix stripped before matching.
	Prefix string
}

// Directive returns the cache-control value for a non-empty response.
func (p CachePolicy) Directive(method, path string) string {
	if p.SharedDirective == "" || method != http.MethodGet {
		return noStore
	}
	if p.Prefix != "" {
		path = strings.TrimPrefix(path, p.Prefix)
		if path == "" {
			path = "/"
		}
	}
	if path == "/" {
		return p.SharedDirective
	}
	if rest, ok := strings.CutPrefix(path, "/catalogs/"); ok {
		root := rest
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			root = rest[:i]
		}
		if p.Catalogs[root] {
			return p.SharedDirective
		}
	}
	return noStore
}

// Envelope is the response produced once per request. Never mutated
// after construction.
type Envelope struct {
	Payload      any
	Status       int
	CacheControl string
}

// Wrap maps a handler result into a response envelope. A nil result
// becomes 204 No Content with an empty body; the shared cache
// directive never applies to empty responses.
func Wrap(result any, method, path string, policy CachePolicy) Envelope {
	if isNil(result) {
		return Envelope{Status: http.StatusNoContent, CacheControl: noStore}
	}
	return Envelope{
		Payload:      result,
		Status:       http.StatusOK,
		CacheControl: policy.Directive(method, path),
	}
}

// isNil treats typed nil pointers, maps and slices as empty results.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
