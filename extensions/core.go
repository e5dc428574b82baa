// Package extensions holds the pluggable API extensions. Each one
// contributes routes, conformance classes and optionally a request
// schema fragment; the registry aggregates them in configuration
// order.
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

// Conformance classes advertised by the core API surface.
const (
	ConformanceCore       = "https://api.stacspec.org/v1.0.0-rc.3/core"
	ConformanceItemSearch = "https://api.stacspec.org/v1.0.0-rc.3/item-search"
	ConformanceFeatures   = "https://api.stacspec.org/v1.0.0-rc.3/ogcapi-features"
)

// Core serves the read side of the API: landing page, conformance,
// catalog/collection/item fetches, and cross-catalog search. The
// search schemas are composed at startup from the other extensions'
// fragments.
type Core struct {
	Client ports.CoreClient
	Search ports.SearchClient

	// ConformanceList supplies the aggregated server conformance
	// classes; wired to the registry after all extensions register.
	ConformanceList func() []string

	searchGet   *schema.RequestSchema
	searchPost  *schema.RequestSchema
	catalogGet  *schema.RequestSchema
	catalogPost *schema.RequestSchema
}

// NewCore composes the search request schemas from the base models
// plus the given extension fragments. Composition failure is fatal to
// startup for the affected routes.
func NewCore(client ports.CoreClient, search ports.SearchClient, getFragments, postFragments []*schema.RequestSchema) (*Core, error) {
	searchGet, err := schema.Compose("SearchGetRequest", stac.SearchGetSchema(), getFragments, nil, schema.ModeAttribute)
	if err != nil {
		return nil, err
	}
	searchPost, err := schema.Compose("SearchPostRequest", stac.SearchPostSchema(), postFragments, nil, schema.ModePayload)
	if err != nil {
		return nil, err
	}
	catalogGet, err := schema.Compose("CatalogSearchGetRequest", stac.CatalogSearchGetSchema(), getFragments, nil, schema.ModeAttribute)
	if err != nil {
		return nil, err
	}
	catalogPost, err := schema.ComposeWithPathParameter("CatalogSearchPostRequest",
		stac.CatalogSearchPostSchema(), postFragments, nil, "catalog_path", "search_request", true)
	if err != nil {
		return nil, err
	}

	return &Core{
		Client:      client,
		Search:      search,
		searchGet:   searchGet,
		searchPost:  searchPost,
		catalogGet:  catalogGet,
		catalogPost: catalogPost,
	}, nil
}

// Name identifies the extension.
func (c *Core) Name() string { return "core" }

// Conformance returns the core conformance classes.
func (c *Core) Conformance() []string {
	return []string{ConformanceCore, ConformanceItemSearch, ConformanceFeatures}
}

// RequestFragment returns nil; core contributes no fragment.
func (c *Core) RequestFragment(string) *schema.RequestSchema { return nil }

// Routes returns the core route table.
func (c *Core) Routes() []registry.Route {
	return []registry.Route{
		{
			Name:    "Landing Page",
			Method:  http.MethodGet,
			Path:    "/",
			Schema:  stac.EmptySchema("LandingPage"),
			Handler: app.HandlerFunc(c.landingPage),
		},
		{
			Name:    "Conformance Classes",
			Method:  http.MethodGet,
			Path:    "/conformance",
			Schema:  stac.EmptySchema("Conformance"),
			Handler: app.MarkNonBlocking(app.HandlerFunc(c.conformance)),
		},
		{
			Name:    "Get Catalogs",
			Method:  http.MethodGet,
			Path:    "/catalogs",
			Schema:  stac.EmptySchema("Catalogs"),
			Handler: app.HandlerFunc(c.allCatalogs),
		},
		{
			Name:    "Get Catalog",
			Method:  http.MethodGet,
			Path:    "/catalogs/{catalog_path}",
			Schema:  stac.CatalogURISchema("GetCatalog"),
			Handler: app.HandlerFunc(c.getCatalog),
		},
		{
			Name:    "Get Collections",
			Method:  http.MethodGet,
			Path:    "/catalogs/{catalog_path}/collections",
			Schema:  stac.CatalogURISchema("GetCollections"),
			Handler: app.HandlerFunc(c.allCollections),
		},
		{
			Name:    "Get Collection",
			Method:  http.MethodGet,
			Path:    "/catalogs/{catalog_path}/collections/{collection_id}",
			Schema:  stac.CollectionURISchema("GetCollection"),
			Handler: app.HandlerFunc(c.getCollection),
		},
		{
			Name:     "Get ItemCollection",
			Method:   http.MethodGet,
			Path:     "/catalogs/{catalog_path}/collections/{collection_id}/items",
			Schema:   stac.ItemCollectionURISchema(),
			Encoding: app.EncodingGeoJSON,
			Handler:  app.HandlerFunc(c.itemCollection),
		},
		{
			Name:     "Get Item",
			Method:   http.MethodGet,
			Path:     "/catalogs/{catalog_path}/collections/{collection_id}/items/{item_id}",
			Schema:   stac.ItemURISchema("GetItem"),
			Encoding: app.EncodingGeoJSON,
			Handler:  app.HandlerFunc(c.getItem),
		},
		{
			Name:     "Search",
			Method:   http.MethodGet,
			Path:     "/search",
			Schema:   c.searchGet,
			Encoding: app.EncodingGeoJSON,
			Handler:  app.HandlerFunc(c.searchItems),
		},
		{
			Name:     "Search",
			Method:   http.MethodPost,
			Path:     "/search",
			Schema:   c.searchPost,
			Encoding: app.EncodingGeoJSON,
			Handler:  app.HandlerFunc(c.searchItems),
		},
		{
			Name:     "Catalog Search",
			Method:   http.MethodGet,
			Path:     "/catalogs/{catalog_path}/search",
			Schema:   c.catalogGet,
			Encoding: app.EncodingGeoJSON,
			Handler:  app.HandlerFunc(c.searchItems),
		},
		{
			Name:     "Catalog Search",
			Method:   http.MethodPost,
			Path:     "/catalogs/{catalog_path}/search",
			Schema:   c.catalogPost,
			Encoding: app.EncodingGeoJSON,
			Handler:  app.HandlerFunc(c.searchItems),
		},
	}
}

func (c *Core) landingPage(ctx context.Context, inv *app.Invocation) (any, error) {
	return c.Client.LandingPage(ctx, inv.Workspaces())
}

func (c *Core) conformance(_ context.Context, _ *app.Invocation) (any, error) {
	var classes []string
	if c.ConformanceList != nil {
		classes = c.ConformanceList()
	}
	return &stac.Conformance{ConformsTo: classes}, nil
}

func (c *Core) allCatalogs(ctx context.Context, inv *app.Invocation) (any, error) {
	return c.Client.AllCatalogs(ctx, inv.Workspaces())
}

func (c *Core) getCatalog(ctx context.Context, inv *app.Invocation) (any, error) {
	return c.Client.GetCatalog(ctx, stringParam(inv, "catalog_path"), inv.Workspaces())
}

func (c *Core) allCollections(ctx context.Context, inv *app.Invocation) (any, error) {
	return c.Client.AllCollections(ctx, stringParam(inv, "catalog_path"), inv.Workspaces())
}

func (c *Core) getCollection(ctx context.Context, inv *app.Invocation) (any, error) {
	return c.Client.GetCollection(ctx, stringParam(inv, "catalog_path"), stringParam(inv, "collection_id"), inv.Workspaces())
}

func (c *Core) getItem(ctx context.Context, inv *app.Invocation) (any, error) {
	return c.Client.GetItem(ctx, stringParam(inv, "catalog_path"), stringParam(inv, "collection_id"), stringParam(inv, "item_id"), inv.Workspaces())
}

func (c *Core) itemCollection(ctx context.Context, inv *app.Invocation) (any, error) {
	limit, _ := inv.Params["limit"].(int)
	return c.Client.ItemCollection(ctx, stringParam(inv, "catalog_path"), stringParam(inv, "collection_id"), limit, inv.Workspaces())
}

func (c *Core) searchItems(ctx context.Context, inv *app.Invocation) (any, error) {
	return c.Search.Search(ctx, searchParams(inv), inv.Workspaces())
}

// stringParam reads a string value from the bound parameters.
func stringParam(inv *app.Invocation, name string) string {
	s, _ := inv.Params[name].(string)
	return s
}

// searchParams flattens an invocation into the engine's parameter
// projection. Payload wrappers contribute their nested search object
// alongside the path identifiers.
func searchParams(inv *app.Invocation) ports.SearchParams {
	params := ports.SearchParams{}
	for k, v := range inv.Params {
		if v != nil {
			params[k] = v
		}
	}
	if body, ok := inv.Body.(map[string]any); ok {
		for k, v := range body {
			if k == "search_request" {
				if nested, ok := v.(map[string]any); ok {
					for nk, nv := range nested {
						if nv != nil {
							params[nk] = nv
						}
					}
				}
				continue
			}
			if v != nil {
				params[k] = v
			}
		}
	}
	return params
}
