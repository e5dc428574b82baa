package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/stacgate/core/schema"
	"github.com/artpar/stacgate/ports"
)

// ContextBuilder produces the auth context map injected into every
// handler invocation. Its failure is not caught by the adapter: it
// propagates and fails the whole request.
type ContextBuilder interface {
	Build(ctx context.Context, bearer string) (map[string]any, error)
}

// Adapter wraps domain handlers plus their composed request schemas
// into invocable endpoints with a uniform concurrency and response
// contract.
type Adapter struct {
	auth  ContextBuilder
	pool  *Pool
	cache CachePolicy
	log   zerolog.Logger
}

// NewAdapter creates an endpoint adapter.
func NewAdapter(auth ContextBuilder, pool *Pool, cache CachePolicy, logger zerolog.Logger) *Adapter {
	return &Adapter{auth: auth, pool: pool, cache: cache, log: logger}
}

// Adapt wraps a handler and its request schema into an HTTP endpoint.
// A nil schema passes the body through as an unvalidated key/value
// mapping. The encoding is the response media type; empty means JSON.
func (a *Adapter) Adapt(h Handler, s *schema.RequestSchema, encoding string) http.HandlerFunc {
	if encoding == "" {
		encoding = EncodingJSON
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		headers, err := a.auth.Build(ctx, bearerToken(r))
		if err != nil {
			a.log.Error().Err(err).Str("path", r.URL.Path).Msg("auth context build failed")
			a.writeError(w, http.StatusBadGateway, "authentication context unavailable", nil)
			return
		}

		inv, err := a.bind(r, s, headers)
		if err != nil {
			a.fail(w, r, err)
			return
		}

		result, err := a.invoke(ctx, h, inv)
		if err != nil {
			a.fail(w, r, err)
			return
		}

		env := Wrap(result, r.Method, r.URL.Path, a.cache)
		a.write(w, env, encoding)
	}
}

// bind produces the handler invocation for one of the three binding
// shapes: attribute, payload, or raw.
func (a *Adapter) bind(r *http.Request, s *schema.RequestSchema, headers map[string]any) (*Invocation, error) {
	inv := &Invocation{Request: r, Headers: headers}

	pathValue := func(name string) string { return chi.URLParam(r, name) }

	if s == nil {
		raw, err := readBodyMap(r)
		if err != nil {
			return nil, err
		}
		inv.Body = raw
		return inv, nil
	}

	switch s.Mode() {
	case schema.ModeAttribute:
		query := r.URL.Query()
		cr, err := s.BindAttributes(pathValue, func(name string) (string, bool) {
			if !query.Has(name) {
				return "", false
			}
			return query.Get(name), true
		})
		if err != nil {
			return nil, err
		}
		inv.Params = cr.Kwargs()
		return inv, nil

	case schema.ModePayload:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		cr, err := s.BindPayload(pathValue, body)
		if err != nil {
			return nil, err
		}
		inv.Params = cr.Kwargs()
		inv.Body = cr.Object()
		return inv, nil
	}

	return nil, fmt.Errorf("schema %s: unknown binding mode %s", s.Name(), s.Mode())
}

// invoke runs the handler, off-loading blocking handlers to the pool.
func (a *Adapter) invoke(ctx context.Context, h Handler, inv *Invocation) (any, error) {
	if isNonBlocking(h) {
		return h.Handle(ctx, inv)
	}
	return a.pool.Do(ctx, func() (any, error) {
		return h.Handle(context.WithoutCancel(ctx), inv)
	})
}

// fail maps handler and binding errors onto client or server errors.
func (a *Adapter) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		a.writeError(w, http.StatusBadRequest, "invalid request", verr.Fields)
	case errors.Is(err, ports.ErrNotFound):
		a.writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, context.Canceled):
		// Client went away; the response is discarded anyway.
		a.log.Debug().Str("path", r.URL.Path).Msg("request cancelled")
	default:
		a.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("handler failed")
		a.writeError(w, http.StatusInternalServerError, "internal server error", nil)
	}
}

func (a *Adapter) write(w http.ResponseWriter, env Envelope, encoding string) {
	w.Header().Set("Cache-Control", env.CacheControl)
	if env.Payload == nil {
		w.WriteHeader(env.Status)
		return
	}
	w.Header().Set("Content-Type", encoding)
	w.WriteHeader(env.Status)
	if err := json.NewEncoder(w).Encode(env.Payload); err != nil {
		a.log.Error().Err(err).Msg("encode response")
	}
}

type errorBody struct {
	Code        int                 `json:"code"`
	Description string              `json:"description"`
	Errors      []schema.FieldError `json:"errors,omitempty"`
}

func (a *Adapter) writeError(w http.ResponseWriter, status int, msg string, fields []schema.FieldError) {
	w.Header().Set("Content-Type", EncodingJSON)
	w.Header().Set("Cache-Control", noStore)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Code: status, Description: msg, Errors: fields}); err != nil {
		a.log.Error().Err(err).Msg("encode error response")
	}
}

// bearerToken extracts the optional bearer credential. Absence is
// valid and yields an unauthorized context, not a rejection.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func readBodyMap(r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, &schema.ValidationError{Fields: []schema.FieldError{{
			Field:   "body",
			Message: "request body is not valid JSON",
		}}}
	}
	return m, nil
}
