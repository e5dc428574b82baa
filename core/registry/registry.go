// Package registry aggregates the contributions of pluggable API
// extensions: route descriptors, conformance class identifiers, and
// request schema fragments. It detects route conflicts at startup and
// keeps registration deterministic so generated API documentation is
// stable across restarts.
package registry

import (
	"fmt"
	"strings"

	"github.com/artpar/stacgate/app"
	"github.com/artpar/stacgate/core/schema"
	"github.com/rs/zerolog"
)

// Route describes one mountable endpoint contributed by an extension.
type Route struct {
	// Name labels the route in logs and documentation.
	Name string

	// Method is the HTTP method.
	Method string

	// Path is the path template, relative to the server prefix.
	Path string

	// Schema is the request schema; nil means the body passes through
	// as an unvalidated key/value mapping.
	Schema *schema.RequestSchema

	// Encoding is the response media type. Empty means application/json.
	Encoding string

	// Handler is the domain handler invoked after binding.
	Handler app.Handler
}

// Extension is a pluggable unit contributing schema fragments,
// conformance identifiers and routes. Extensions are independent of
// one another; the registry applies them in the order supplied by
// configuration.
type Extension interface {
	// Name identifies the extension in configuration and logs.
	Name() string

	// Conformance returns the conformance class identifiers the
	// extension adds to the server's advertised list.
	Conformance() []string

	// Routes returns the extension's route descriptors. May be empty
	// for fragment-only extensions.
	Routes() []Route

	// RequestFragment returns the schema fragment the extension
	// contributes to a request model of the given method, or nil.
	RequestFragment(method string) *schema.RequestSchema
}

// ConflictError reports a duplicate method/path claim. It is fatal to
// registration of the offending extension.
type ConflictError struct {
	Method    string
	Path      string
	Extension string
	ClaimedBy string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("route %s %s claimed by extension %q conflicts with extension %q",
		e.Method, e.Path, e.Extension, e.ClaimedBy)
}

// Registry collects registered extensions and their contributions.
// Built once at startup, read-only afterwards; no locking needed.
type Registry struct {
	prefix      string
	extensions  []Extension
	routes      []Route
	claims      map[string]string // method+path -> extension name
	conformance []string
	seen        map[string]bool
	log         zerolog.Logger
}

// New creates a registry mounting routes under the given path prefix.
func New(prefix string, logger zerolog.Logger) *Registry {
	return &Registry{
		prefix: strings.TrimSuffix(prefix, "/"),
		claims: make(map[string]string),
		seen:   make(map[string]bool),
		log:    logger,
	}
}

// Register mounts the extension's routes under the server prefix and
// unions its conformance classes into the server list. A duplicate
// method/path aborts registration of the whole extension and leaves
// the registry unchanged.
func (r *Registry) Register(ext Extension) error {
	routes := ext.Routes()

	// Detect conflicts before applying anything.
	staged := make(map[string]bool, len(routes))
	for _, rt := range routes {
		key := routeKey(rt.Method, r.prefix+rt.Path)
		if owner, exists := r.claims[key]; exists {
			return &ConflictError{Method: rt.Method, Path: r.prefix + rt.Path, Extension: ext.Name(), ClaimedBy: owner}
		}
		if staged[key] {
			return &ConflictError{Method: rt.Method, Path: r.prefix + rt.Path, Extension: ext.Name(), ClaimedBy: ext.Name()}
		}
		staged[key] = true
	}

	for _, rt := range routes {
		rt.Path = r.prefix + rt.Path
		r.claims[routeKey(rt.Method, rt.Path)] = ext.Name()
		r.routes = append(r.routes, rt)
		r.log.Debug().Str("extension", ext.Name()).Str("method", rt.Method).Str("path", rt.Path).Msg("route mounted")
	}

	// Set union, first-seen order so the advertised list is stable
	// across restarts.
	for _, cc := range ext.Conformance() {
		if r.seen[cc] {
			continue
		}
		r.seen[cc] = true
		r.conformance = append(r.conformance, cc)
	}

	r.extensions = append(r.extensions, ext)
	r.log.Info().Str("extension", ext.Name()).Int("routes", len(routes)).Msg("extension registered")
	return nil
}

// Routes returns all mounted routes in registration order.
func (r *Registry) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// Conformance returns the aggregated conformance classes,
// de-duplicated, in first-registration order.
func (r *Registry) Conformance() []string {
	return append([]string(nil), r.conformance...)
}

// Extensions returns the registered extensions in order.
func (r *Registry) Extensions() []Extension {
	return append([]Extension(nil), r.extensions...)
}

// Has reports whether an extension with the given name is registered.
func (r *Registry) Has(name string) bool {
	for _, e := range r.extensions {
		if e.Name() == name {
			return true
		}
	}
	return false
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}
