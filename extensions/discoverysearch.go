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

// ConformanceDiscoverySearch is the discovery search conformance class.
const ConformanceDiscoverySearch = "https://api.stacspec.org/v1.0.0-rc.1/discovery-search"

// DiscoverySearch serves free-text discovery across catalogs and
// collections.
type DiscoverySearch struct {
	Client ports.DiscoverySearchClient

	get  *schema.RequestSchema
	post *schema.RequestSchema
}

// NewDiscoverySearch composes the request schemas from the base
// discovery models plus the given fragments.
func NewDiscoverySearch(client ports.DiscoverySearchClient, getFragments, postFragments []*schema.RequestSchema) (*DiscoverySearch, error) {
	get, err := schema.Compose("DiscoverySearchGetRequest", stac.DiscoverySearchGetSchema(), getFragments, nil, schema.ModeAttribute)
	if err != nil {
		return nil, err
	}
	post, err := schema.Compose("DiscoverySearchPostRequest", stac.DiscoverySearchPostSchema(), postFragments, nil, schema.ModePayload)
	if err != nil {
		return nil, err
	}
	return &DiscoverySearch{Client: client, get: get, post: post}, nil
}

// Name identifies the extension.
func (d *DiscoverySearch) Name() string { return "discovery-search" }

// Conformance returns the discovery search conformance class.
func (d *DiscoverySearch) Conformance() []string {
	return []string{ConformanceDiscoverySearch}
}

// RequestFragment returns nil.
func (d *DiscoverySearch) RequestFragment(string) *schema.RequestSchema { return nil }

// Routes returns the discovery search route table.
func (d *DiscoverySearch) Routes() []registry.Route {
	return []registry.Route{
		{
			Name:    "Discovery Search",
			Method:  http.MethodGet,
			Path:    "/discovery-search",
			Schema:  d.get,
			Handler: app.HandlerFunc(d.search),
		},
		{
			Name:    "Discovery Search",
			Method:  http.MethodPost,
			Path:    "/discovery-search",
			Schema:  d.post,
			Handler: app.HandlerFunc(d.search),
		},
	}
}

func (d *DiscoverySearch) search(ctx context.Context, inv *app.Invocation) (any, error) {
	return d.Client.Discover(ctx, searchParams(inv), inv.Workspaces())
}
