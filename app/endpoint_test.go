package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/stacgate/core/schema"
	"github.com/artpar/stacgate/ports"
)

type stubAuth struct {
	headers map[string]any
	err     error
}

func (s *stubAuth) Build(ctx context.Context, bearer string) (map[string]any, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.headers != nil {
		return s.headers, nil
	}
	return map[string]any{"X-Workspaces": []string{}, "X-Authorized": "unauthorized"}, nil
}

func newTestAdapter(t *testing.T, auth ContextBuilder) *Adapter {
	t.Helper()
	pool := NewPool(2, 4)
	pool.Start()
	t.Cleanup(pool.Stop)
	if auth == nil {
		auth = &stubAuth{}
	}
	return NewAdapter(auth, pool, CachePolicy{SharedDirective: "public, max-age=3600"}, zerolog.Nop())
}

func serve(a *Adapter, method, pattern string, h Handler, s *schema.RequestSchema, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, a.Adapt(h, s, ""))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAdaptSuccess(t *testing.T) {
	a := newTestAdapter(t, nil)
	h := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		return map[string]any{"type": "Catalog"}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := serve(a, http.MethodGet, "/", h, nil, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != EncodingJSON {
		t.Errorf("content-type = %s", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Errorf("cache-control = %s", cc)
	}
}

func TestAdaptNilResultNoContent(t *testing.T) {
	a := newTestAdapter(t, nil)
	h := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		return nil, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := serve(a, http.MethodGet, "/", h, nil, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != noStore {
		t.Errorf("cache-control = %s, want %s", cc, noStore)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestAdaptValidationError(t *testing.T) {
	a := newTestAdapter(t, nil)
	s := schema.New("S", schema.ModeAttribute,
		schema.FieldSpec{Name: "limit", Type: schema.FieldTypeInt,
			Constraints: []schema.Constraint{{Type: schema.ConstraintMin, Value: 1}}},
	)
	h := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		t.Fatal("handler must not run on binding failure")
		return nil, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/search?limit=0", nil)
	rec := serve(a, http.MethodGet, "/search", h, s, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body struct {
		Code   int                 `json:"code"`
		Errors []schema.FieldError `json:"errors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Errors) != 1 || body.Errors[0].Field != "limit" {
		t.Errorf("errors = %+v", body.Errors)
	}
}

func TestAdaptNotFound(t *testing.T) {
	a := newTestAdapter(t, nil)
	h := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		return nil, ports.ErrNotFound
	})

	req := httptest.NewRequest(http.MethodGet, "/catalogs/missing", nil)
	rec := serve(a, http.MethodGet, "/catalogs/{catalog_path}", h, nil, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAdaptHandlerFailure(t *testing.T) {
	a := newTestAdapter(t, nil)
	h := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		return nil, errors.New("backend exploded")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := serve(a, http.MethodGet, "/", h, nil, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "exploded") {
		t.Error("internal error details leaked to client")
	}
}

func TestAdaptAuthBuildFailure(t *testing.T) {
	a := newTestAdapter(t, &stubAuth{err: errors.New("identity provider down")})
	h := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		t.Fatal("handler must not run without auth context")
		return nil, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := serve(a, http.MethodGet, "/", h, nil, req)

	// The identity provider is upstream of this service.
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "authentication context unavailable") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestAdaptInjectsAuthContext(t *testing.T) {
	a := newTestAdapter(t, &stubAuth{headers: map[string]any{
		"X-Workspaces": []string{"ws-a", "ws-b"},
		"X-Authorized": "authorized",
	}})

	var got *Invocation
	h := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		got = inv
		return map[string]any{}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	serve(a, http.MethodGet, "/", h, nil, req)

	if got == nil {
		t.Fatal("handler did not run")
	}
	if !got.Authorized() {
		t.Error("Authorized() = false, want true")
	}
	if ws := got.Workspaces(); len(ws) != 2 || ws[0] != "ws-a" {
		t.Errorf("Workspaces() = %v", ws)
	}
}

func TestAdaptBindsPathAndQuery(t *testing.T) {
	a := newTestAdapter(t, nil)
	s := schema.New("S", schema.ModeAttribute,
		schema.PathField("catalog_path"),
		schema.FieldSpec{Name: "limit", Type: schema.FieldTypeInt, Default: 10},
	)

	var params map[string]any
	h := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		params = inv.Params
		return map[string]any{}, nil
	})

	req := httptest.NewRequest(http.MethodGet, "/catalogs/landsat/items?limit=5", nil)
	serve(a, http.MethodGet, "/catalogs/{catalog_path}/items", h, s, req)

	if params["catalog_path"] != "landsat" {
		t.Errorf("catalog_path = %v", params["catalog_path"])
	}
	if params["limit"] != 5 {
		t.Errorf("limit = %v, want 5", params["limit"])
	}
}

func TestAdaptRawBodyPassthrough(t *testing.T) {
	a := newTestAdapter(t, nil)

	var body any
	h := HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		body = inv.Body
		return map[string]any{}, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/raw", strings.NewReader(`{"anything":"goes"}`))
	serve(a, http.MethodPost, "/raw", h, nil, req)

	m, ok := body.(map[string]any)
	if !ok || m["anything"] != "goes" {
		t.Errorf("body = %#v", body)
	}
}

func TestAdaptNonBlockingRunsInPlace(t *testing.T) {
	auth := &stubAuth{}
	pool := NewPool(1, 1)
	// Never started: a pooled invocation would hang, an in-place one
	// completes.
	a := NewAdapter(auth, pool, CachePolicy{}, zerolog.Nop())

	h := MarkNonBlocking(HandlerFunc(func(ctx context.Context, inv *Invocation) (any, error) {
		return map[string]any{"ok": true}, nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/conformance", nil)
	rec := httptest.NewRecorder()
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/conformance", a.Adapt(h, nil, ""))

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(rec, req)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("non-blocking handler was pooled")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Basic dXNlcg==", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		if got := bearerToken(r); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
