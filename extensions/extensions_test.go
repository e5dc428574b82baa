package extensions

import (
	"context"
	"net/http"
	"testing"

	"github.com/artpar/stacgate/app"
	"github.com/artpar/stacgate/core/schema"
	"github.com/artpar/stacgate/domain/stac"
	"github.com/artpar/stacgate/ports"
)

type fakeSearchClient struct {
	params ports.SearchParams
}

func (f *fakeSearchClient) Search(ctx context.Context, params ports.SearchParams, workspaces []string) (*stac.ItemCollection, error) {
	f.params = params
	return &stac.ItemCollection{Type: "FeatureCollection"}, nil
}

func paginationFragments(ext interface {
	RequestFragment(method string) *schema.RequestSchema
}) (get, post []*schema.RequestSchema) {
	return []*schema.RequestSchema{ext.RequestFragment(http.MethodGet)},
		[]*schema.RequestSchema{ext.RequestFragment(http.MethodPost)}
}

func TestNewCoreComposesFragments(t *testing.T) {
	get, post := paginationFragments(TokenPagination{})
	core, err := NewCore(nil, nil, get, post)
	if err != nil {
		t.Fatalf("NewCore error: %v", err)
	}

	if _, ok := core.searchGet.Field("token"); !ok {
		t.Error("GET search model missing the token fragment")
	}
	if _, ok := core.searchPost.Field("token"); !ok {
		t.Error("POST search model missing the token fragment")
	}

	// The catalog-scoped POST model wraps the merged fields under the
	// request object next to the path parameter.
	wrap, ok := core.catalogPost.Field("search_request")
	if !ok || wrap.Schema == nil {
		t.Fatal("catalog POST model missing the wrapped request object")
	}
	if _, ok := wrap.Schema.Field("token"); !ok {
		t.Error("wrapped request object missing the token fragment")
	}
	if _, ok := core.catalogPost.Field("catalog_path"); !ok {
		t.Error("catalog POST model missing the path parameter")
	}
}

func TestNewCoreRejectsWrongModeFragment(t *testing.T) {
	payloadFrag := schema.New("F", schema.ModePayload,
		schema.FieldSpec{Name: "token", Type: schema.FieldTypeString})

	if _, err := NewCore(nil, nil, []*schema.RequestSchema{payloadFrag}, nil); err == nil {
		t.Error("payload fragment accepted into attribute models")
	}
}

func TestCoreRoutes(t *testing.T) {
	core, err := NewCore(nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewCore error: %v", err)
	}

	routes := core.Routes()
	if len(routes) != 12 {
		t.Fatalf("got %d routes, want 12", len(routes))
	}

	byKey := make(map[string]bool, len(routes))
	for _, rt := range routes {
		byKey[rt.Method+" "+rt.Path] = true
	}
	for _, key := range []string{
		"GET /",
		"GET /conformance",
		"GET /catalogs",
		"GET /catalogs/{catalog_path}",
		"GET /catalogs/{catalog_path}/collections/{collection_id}/items/{item_id}",
		"GET /search",
		"POST /search",
		"POST /catalogs/{catalog_path}/search",
	} {
		if !byKey[key] {
			t.Errorf("missing route %s", key)
		}
	}
}

func TestSearchParamsFlattening(t *testing.T) {
	search := &fakeSearchClient{}
	core, err := NewCore(nil, search, nil, nil)
	if err != nil {
		t.Fatalf("NewCore error: %v", err)
	}

	// Catalog-scoped POST: path identifier in Params, search object
	// nested under the wrap field in Body.
	inv := &app.Invocation{
		Params: map[string]any{"catalog_path": "landsat"},
		Body: map[string]any{
			"search_request": map[string]any{
				"collections": []string{"l8"},
				"limit":       5,
				"datetime":    nil,
			},
		},
	}
	if _, err := core.searchItems(context.Background(), inv); err != nil {
		t.Fatalf("searchItems: %v", err)
	}

	if search.params["catalog_path"] != "landsat" {
		t.Errorf("catalog_path = %v", search.params["catalog_path"])
	}
	if search.params["limit"] != 5 {
		t.Errorf("limit = %v", search.params["limit"])
	}
	if _, present := search.params["datetime"]; present {
		t.Error("nil values must not reach the engine")
	}
	if _, present := search.params["search_request"]; present {
		t.Error("wrap field leaked into the engine parameters")
	}
}

func TestTransactionRoutes(t *testing.T) {
	tx := NewTransaction(nil)

	routes := tx.Routes()
	if len(routes) != 9 {
		t.Fatalf("got %d routes, want 9", len(routes))
	}
	var itemWrites int
	for _, rt := range routes {
		switch rt.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
		default:
			t.Errorf("unexpected method %s on %s", rt.Method, rt.Path)
		}
		if rt.Encoding == app.EncodingGeoJSON {
			itemWrites++
		}
	}
	if itemWrites != 2 {
		t.Errorf("got %d GeoJSON routes, want the 2 item writes with bodies", itemWrites)
	}
	if len(tx.Conformance()) != 1 {
		t.Errorf("conformance = %v", tx.Conformance())
	}
}

func TestObjectParamReadsBody(t *testing.T) {
	inv := &app.Invocation{
		Params: map[string]any{"catalog_path": "landsat"},
		Body: map[string]any{
			"catalog": map[string]any{"id": "new-cat"},
		},
	}
	got := objectParam(inv, "catalog")
	if got == nil || got["id"] != "new-cat" {
		t.Errorf("objectParam = %#v", got)
	}
	if objectParam(inv, "missing") != nil {
		t.Error("missing object should be nil")
	}
}

func TestCollectionSearchRoutes(t *testing.T) {
	cs, err := NewCollectionSearch(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewCollectionSearch error: %v", err)
	}
	if len(cs.Routes()) != 4 {
		t.Errorf("got %d routes, want 4", len(cs.Routes()))
	}
	if len(cs.Conformance()) != 3 {
		t.Errorf("conformance = %v", cs.Conformance())
	}
}

func TestDiscoverySearchRoutes(t *testing.T) {
	ds, err := NewDiscoverySearch(nil, nil, nil)
	if err != nil {
		t.Fatalf("NewDiscoverySearch error: %v", err)
	}
	if len(ds.Routes()) != 2 {
		t.Errorf("got %d routes, want 2", len(ds.Routes()))
	}
}

func TestPaginationFragmentModes(t *testing.T) {
	for _, ext := range []interface {
		Name() string
		RequestFragment(method string) *schema.RequestSchema
	}{TokenPagination{}, PagePagination{}} {
		get := ext.RequestFragment(http.MethodGet)
		if get.Mode() != schema.ModeAttribute {
			t.Errorf("%s GET fragment mode = %s", ext.Name(), get.Mode())
		}
		post := ext.RequestFragment(http.MethodPost)
		if post.Mode() != schema.ModePayload {
			t.Errorf("%s POST fragment mode = %s", ext.Name(), post.Mode())
		}
	}
}

func TestPagePaginationRejectsZero(t *testing.T) {
	frag := PagePagination{}.RequestFragment(http.MethodGet)
	page, ok := frag.Field("page")
	if !ok {
		t.Fatal("page field missing")
	}
	if page.Default != 1 {
		t.Errorf("default = %v, want 1", page.Default)
	}
	if len(page.Constraints) != 1 || page.Constraints[0].Type != schema.ConstraintMin {
		t.Errorf("constraints = %+v", page.Constraints)
	}
}
