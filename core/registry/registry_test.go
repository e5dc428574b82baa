package registry

import (
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/artpar/stacgate/core/schema"
)

type fakeExtension struct {
	name        string
	conformance []string
	routes      []Route
}

func (f *fakeExtension) Name() string          { return f.name }
func (f *fakeExtension) Conformance() []string { return f.conformance }
func (f *fakeExtension) Routes() []Route       { return f.routes }

func (f *fakeExtension) RequestFragment(string) *schema.RequestSchema { return nil }

func route(method, path string) Route {
	return Route{Name: path, Method: method, Path: path}
}

func TestRegisterMountsUnderPrefix(t *testing.T) {
	reg := New("/api", zerolog.Nop())
	err := reg.Register(&fakeExtension{
		name:   "core",
		routes: []Route{route(http.MethodGet, "/search")},
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	routes := reg.Routes()
	if len(routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(routes))
	}
	if routes[0].Path != "/api/search" {
		t.Errorf("path = %s, want /api/search", routes[0].Path)
	}
}

func TestRegisterConflictIsFatalAndAtomic(t *testing.T) {
	reg := New("", zerolog.Nop())
	if err := reg.Register(&fakeExtension{
		name:        "first",
		conformance: []string{"https://example.com/conf/a"},
		routes:      []Route{route(http.MethodGet, "/search")},
	}); err != nil {
		t.Fatalf("first Register error: %v", err)
	}

	err := reg.Register(&fakeExtension{
		name:        "second",
		conformance: []string{"https://example.com/conf/b"},
		routes: []Route{
			route(http.MethodGet, "/other"),
			route(http.MethodGet, "/search"), // conflicts with first
		},
	})
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("got %v, want ConflictError", err)
	}
	if cerr.ClaimedBy != "first" {
		t.Errorf("ClaimedBy = %s, want first", cerr.ClaimedBy)
	}

	// Nothing of the failed extension may be applied.
	if len(reg.Routes()) != 1 {
		t.Errorf("got %d routes, want 1 after failed registration", len(reg.Routes()))
	}
	if reg.Has("second") {
		t.Error("failed extension should not be registered")
	}
	for _, cc := range reg.Conformance() {
		if cc == "https://example.com/conf/b" {
			t.Error("failed extension's conformance class should not be advertised")
		}
	}
}

func TestRegisterDetectsInternalDuplicate(t *testing.T) {
	reg := New("", zerolog.Nop())
	err := reg.Register(&fakeExtension{
		name: "dup",
		routes: []Route{
			route(http.MethodGet, "/x"),
			route(http.MethodGet, "/x"),
		},
	})
	var cerr *ConflictError
	if !errors.As(err, &cerr) {
		t.Fatalf("got %v, want ConflictError", err)
	}
}

func TestSamePathDifferentMethodsAllowed(t *testing.T) {
	reg := New("", zerolog.Nop())
	if err := reg.Register(&fakeExtension{
		name: "search",
		routes: []Route{
			route(http.MethodGet, "/search"),
			route(http.MethodPost, "/search"),
		},
	}); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if len(reg.Routes()) != 2 {
		t.Errorf("got %d routes, want 2", len(reg.Routes()))
	}
}

func TestConformanceUnionFirstSeenOrder(t *testing.T) {
	reg := New("", zerolog.Nop())
	reg.Register(&fakeExtension{name: "a", conformance: []string{"c1", "c2"}})
	reg.Register(&fakeExtension{name: "b", conformance: []string{"c2", "c3"}})

	got := reg.Conformance()
	want := []string{"c1", "c2", "c3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("conformance[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
