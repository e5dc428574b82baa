// Package app adapts domain handlers into dispatchable HTTP endpoints.
//
// The adapter gives every handler one uniform invocation contract:
// input is bound through the route's composed request schema, an auth
// context map is injected, and blocking handlers are off-loaded to a
// bounded worker pool so a slow handler never stalls the dispatcher.
// Results are wrapped into a response envelope with cache-control and
// no-content semantics.
package app

import (
	"context"
	"net/http"
)

// Invocation carries everything a handler receives for one request.
// It is request-local and never shared.
type Invocation struct {
	// Request is the transport request handle.
	Request *http.Request

	// Headers is the injected auth context map, e.g. X-Workspaces and
	// X-Authorized.
	Headers map[string]any

	// Params is the field-name/value projection for attribute-mode
	// schemas, and the path identifiers for payload-mode schemas.
	Params map[string]any

	// Body is the validated object for payload-mode schemas, or the
	// unvalidated key/value mapping for raw routes. Nil in attribute
	// mode.
	Body any
}

// Workspaces returns the workspace claims from the auth context.
func (inv *Invocation) Workspaces() []string {
	if ws, ok := inv.Headers["X-Workspaces"].([]string); ok {
		return ws
	}
	return nil
}

// Authorized reports whether the request carried a valid credential.
func (inv *Invocation) Authorized() bool {
	return inv.Headers["X-Authorized"] == "authorized"
}

// Handler is the uniform domain handler contract. A nil result with a
// nil error means "nothing to return" and maps to 204 No Content.
type Handler interface {
	Handle(ctx context.Context, inv *Invocation) (any, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, inv *Invocation) (any, error)

// Handle invokes the function.
func (f HandlerFunc) Handle(ctx context.Context, inv *Invocation) (any, error) {
	return f(ctx, inv)
}

// NonBlocker is the capability flag a handler implements to declare it
// never blocks. Such handlers are invoked in place on the dispatch
// goroutine; everything else runs on the worker pool.
type NonBlocker interface {
	NonBlocking() bool
}

type nonBlockingHandler struct {
	Handler
}

func (nonBlockingHandler) NonBlocking() bool { return true }

// MarkNonBlocking wraps a handler so the adapter invokes it in place
// instead of off-loading it to the worker pool.
func MarkNonBlocking(h Handler) Handler {
	return nonBlockingHandler{h}
}

func isNonBlocking(h Handler) bool {
	nb, ok := h.(NonBlocker)
	return ok && nb.NonBlocking()
}
