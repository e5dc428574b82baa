package extensions

import (
	"net/http"

	"github.com/artpar/stacgate/core/registry"
	"github.com/artpar/stacgate/core/schema"
)

// TokenPagination contributes an opaque continuation token to the
// search request models. It registers no routes of its own.
type TokenPagination struct{}

// Name identifies the extension.
func (TokenPagination) Name() string { return "pagination.token" }

// Conformance returns nil; paging is advertised through the search
// models it amends, not a conformance class of its own.
func (TokenPagination) Conformance() []string { return nil }

// Routes returns nil; the extension only contributes fragments.
func (TokenPagination) Routes() []registry.Route { return nil }

// RequestFragment returns the token fragment in the binding mode the
// method calls for.
func (TokenPagination) RequestFragment(method string) *schema.RequestSchema {
	if method == http.MethodPost {
		return schema.New("TokenPaginationPost", schema.ModePayload,
			schema.FieldSpec{Name: "token", Type: schema.FieldTypeString},
		)
	}
	return schema.New("TokenPaginationGet", schema.ModeAttribute,
		schema.FieldSpec{Name: "token", Type: schema.FieldTypeString},
	)
}

// PagePagination contributes a numeric page parameter to the search
// request models for engines that page by offset.
type PagePagination struct{}

// Name identifies the extension.
func (PagePagination) Name() string { return "pagination.page" }

// Conformance returns nil.
func (PagePagination) Conformance() []string { return nil }

// Routes returns nil; the extension only contributes fragments.
func (PagePagination) Routes() []registry.Route { return nil }

// RequestFragment returns the page fragment in the binding mode the
// method calls for.
func (PagePagination) RequestFragment(method string) *schema.RequestSchema {
	mode := schema.ModeAttribute
	name := "PagePaginationGet"
	if method == http.MethodPost {
		mode = schema.ModePayload
		name = "PagePaginationPost"
	}
	return schema.New(name, mode,
		schema.FieldSpec{Name: "page", Type: schema.FieldTypeInt, Default: 1,
			Constraints: []schema.Constraint{{Type: schema.ConstraintMin, Value: 1}}},
	)
}
