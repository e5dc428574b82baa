package extensions

import (
	"context"
	"net/http"

	"github.com/artpar/stacgate/app"
	"github.com/artpar/stacgate/core/registry"
	"github.com/artpar/stacgate/core/schema"
	"github.com/artpar/stacgate/domain/stac"
	"github.com/artpar/stacgate/ports"
)

// Conformance classes for collection search.
const (
	ConformanceCollectionSearch     = "https://api.stacspec.org/v1.0.0-rc.1/collection-search"
	ConformanceCollectionSearchFree = "https://api.stacspec.org/v1.0.0-rc.1/collection-search#free-text"
	ConformanceSimpleQuery          = "http://www.opengis.net/spec/ogcapi-common-2/1.0/conf/simple-query"
)

// CollectionSearch searches collection metadata, server-wide and
// scoped to a single catalog. The catalog-scoped POST route carries
// its search object wrapped next to the path parameter.
type CollectionSearch struct {
	Client ports.CollectionSearchClient

	get         *schema.RequestSchema
	post        *schema.RequestSchema
	catalogGet  *schema.RequestSchema
	catalogPost *schema.RequestSchema
}

// NewCollectionSearch composes the request schemas from the base
// collection search models plus the given fragments.
func NewCollectionSearch(client ports.CollectionSearchClient, getFragments, postFragments []*schema.RequestSchema) (*CollectionSearch, error) {
	get, err := schema.Compose("CollectionSearchGetRequest", stac.CollectionSearchGetSchema(), getFragments, nil, schema.ModeAttribute)
	if err != nil {
		return nil, err
	}
	post, err := schema.Compose("CollectionSearchPostRequest", stac.CollectionSearchPostSchema(), postFragments, nil, schema.ModePayload)
	if err != nil {
		return nil, err
	}
	catalogGet, err := schema.Compose("CatalogCollectionSearchGetRequest",
		stac.CollectionSearchGetSchema(), getFragments, []*schema.RequestSchema{catalogPathFragment()}, schema.ModeAttribute)
	if err != nil {
		return nil, err
	}
	catalogPost, err := schema.ComposeWithPathParameter("CatalogCollectionSearchPostRequest",
		stac.CollectionSearchPostSchema(), postFragments, nil, "catalog_path", "search_request", true)
	if err != nil {
		return nil, err
	}

	return &CollectionSearch{
		Client:      client,
		get:         get,
		post:        post,
		catalogGet:  catalogGet,
		catalogPost: catalogPost,
	}, nil
}

// Name identifies the extension.
func (c *CollectionSearch) Name() string { return "collection-search" }

// Conformance returns the collection search conformance classes.
func (c *CollectionSearch) Conformance() []string {
	return []string{ConformanceCollectionSearch, ConformanceCollectionSearchFree, ConformanceSimpleQuery}
}

// RequestFragment returns nil; collection search owns its routes
// outright rather than amending other extensions' models.
func (c *CollectionSearch) RequestFragment(string) *schema.RequestSchema { return nil }

// Routes returns the collection search route table.
func (c *CollectionSearch) Routes() []registry.Route {
	return []registry.Route{
		{
			Name:    "Collection Search",
			Method:  http.MethodGet,
			Path:    "/collection-search",
			Schema:  c.get,
			Handler: app.HandlerFunc(c.search),
		},
		{
			Name:    "Collection Search",
			Method:  http.MethodPost,
			Path:    "/collection-search",
			Schema:  c.post,
			Handler: app.HandlerFunc(c.search),
		},
		{
			Name:    "Catalog Collection Search",
			Method:  http.MethodGet,
			Path:    "/catalogs/{catalog_path}/collection-search",
			Schema:  c.catalogGet,
			Handler: app.HandlerFunc(c.search),
		},
		{
			Name:    "Catalog Collection Search",
			Method:  http.MethodPost,
			Path:    "/catalogs/{catalog_path}/collection-search",
			Schema:  c.catalogPost,
			Handler: app.HandlerFunc(c.search),
		},
	}
}

func (c *CollectionSearch) search(ctx context.Context, inv *app.Invocation) (any, error) {
	return c.Client.SearchCollections(ctx, searchParams(inv), inv.Workspaces())
}

// catalogPathFragment scopes an attribute search to one catalog.
func catalogPathFragment() *schema.RequestSchema {
	return schema.New("CatalogUri", schema.ModeAttribute,
		schema.PathField("catalog_path"),
	)
}
