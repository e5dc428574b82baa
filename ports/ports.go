// Package ports defines the interfaces to external collaborators: the
// catalog storage/query engine behind the domain clients, and the
// identity provider behind the token exchanger. Implementations live
// in adapters/.
package ports

import (
	"context"
	"errors"

	"github.com/artpar/stacgate/domain/stac"
)

// ErrNotFound is returned by clients when a resource does not exist.
var ErrNotFound = errors.New("not found")

// TokenExchanger exchanges a caller's bearer credential with the
// identity provider for a workspace-scoped token.
type TokenExchanger interface {
	Exchange(ctx context.Context, subjectToken, scope string) (string, error)
}

// SearchParams is the composed search parameter projection handed to
// the query engine. Shaping and validation happen before this point;
// query semantics are entirely the engine's concern.
type SearchParams map[string]any

// CoreClient serves the read side of the catalog API.
type CoreClient interface {
	LandingPage(ctx context.Context, workspaces []string) (*stac.LandingPage, error)
	AllCatalogs(ctx context.Context, workspaces []string) (*stac.Catalogs, error)
	GetCatalog(ctx context.Context, catalogPath string, workspaces []string) (*stac.Catalog, error)
	AllCollections(ctx context.Context, catalogPath string, workspaces []string) (*stac.Collections, error)
	GetCollection(ctx context.Context, catalogPath, collectionID string, workspaces []string) (*stac.Collection, error)
	GetItem(ctx context.Context, catalogPath, collectionID, itemID string, workspaces []string) (*stac.Item, error)
	ItemCollection(ctx context.Context, catalogPath, collectionID string, limit int, workspaces []string) (*stac.ItemCollection, error)
}

// SearchClient executes item searches.
type SearchClient interface {
	Search(ctx context.Context, params SearchParams, workspaces []string) (*stac.ItemCollection, error)
}

// TransactionsClient serves the write side of the catalog API. Delete
// operations return no resource; the adapter maps that to 204.
type TransactionsClient interface {
	CreateCatalog(ctx context.Context, catalogPath string, catalog map[string]any, workspaces []string) (*stac.Catalog, error)
	UpdateCatalog(ctx context.Context, catalogPath string, catalog map[string]any, workspaces []string) (*stac.Catalog, error)
	DeleteCatalog(ctx context.Context, catalogPath string, workspaces []string) error

	CreateCollection(ctx context.Context, catalogPath string, collection map[string]any, workspaces []string) (*stac.Collection, error)
	UpdateCollection(ctx context.Context, catalogPath, collectionID string, collection map[string]any, workspaces []string) (*stac.Collection, error)
	DeleteCollection(ctx context.Context, catalogPath, collectionID string, workspaces []string) error

	CreateItem(ctx context.Context, catalogPath, collectionID string, item map[string]any, workspaces []string) (*stac.Item, error)
	UpdateItem(ctx context.Context, catalogPath, collectionID, itemID string, item map[string]any, workspaces []string) (*stac.Item, error)
	DeleteItem(ctx context.Context, catalogPath, collectionID, itemID string, workspaces []string) error
}

// CollectionSearchClient executes collection searches.
type CollectionSearchClient interface {
	SearchCollections(ctx context.Context, params SearchParams, workspaces []string) (*stac.Collections, error)
}

// DiscoverySearchClient executes free-text discovery across catalogs
// and collections.
type DiscoverySearchClient interface {
	Discover(ctx context.Context, params SearchParams, workspaces []string) (*stac.Catalogs, error)
}
