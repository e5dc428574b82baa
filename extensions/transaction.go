package extensions

import (
	"context"
	"net/http"

	"github.com/artpar/stacgate/app"
	"github.com/artpar/stacgate/core/registry"
	"github.com/artpar/stacgate/core/schema"
	"github.com/artpar/stacgate/ports"
)

// ConformanceTransaction is the transaction conformance class.
const ConformanceTransaction = "https://api.stacspec.org/v1.0.0-rc.3/ogcapi-features/extensions/transaction"

// Transaction serves the write side of the API: create, update and
// delete for catalogs, collections and items. Delete handlers return
// no resource, which the adapter maps to 204.
type Transaction struct {
	Client ports.TransactionsClient
}

// NewTransaction creates the transaction extension.
func NewTransaction(client ports.TransactionsClient) *Transaction {
	return &Transaction{Client: client}
}

// Name identifies the extension.
func (t *Transaction) Name() string { return "transaction" }

// Conformance returns the transaction conformance class.
func (t *Transaction) Conformance() []string {
	return []string{ConformanceTransaction}
}

// RequestFragment returns nil; transaction contributes no fragment.
func (t *Transaction) RequestFragment(string) *schema.RequestSchema { return nil }

// Routes returns the transaction route table.
func (t *Transaction) Routes() []registry.Route {
	return []registry.Route{
		{
			Name:    "Create Catalog",
			Method:  http.MethodPost,
			Path:    "/catalogs",
			Schema:  catalogBodySchema("PostCatalog"),
			Handler: app.HandlerFunc(t.createCatalog),
		},
		{
			Name:    "Update Catalog",
			Method:  http.MethodPut,
			Path:    "/catalogs/{catalog_path}",
			Schema:  catalogWriteSchema("PutCatalog"),
			Handler: app.HandlerFunc(t.updateCatalog),
		},
		{
			Name:    "Delete Catalog",
			Method:  http.MethodDelete,
			Path:    "/catalogs/{catalog_path}",
			Schema:  schema.New("DeleteCatalog", schema.ModeAttribute, schema.PathField("catalog_path")),
			Handler: app.HandlerFunc(t.deleteCatalog),
		},
		{
			Name:    "Create Collection",
			Method:  http.MethodPost,
			Path:    "/catalogs/{catalog_path}/collections",
			Schema:  collectionCreateSchema(),
			Handler: app.HandlerFunc(t.createCollection),
		},
		{
			Name:    "Update Collection",
			Method:  http.MethodPut,
			Path:    "/catalogs/{catalog_path}/collections/{collection_id}",
			Schema:  collectionWriteSchema(),
			Handler: app.HandlerFunc(t.updateCollection),
		},
		{
			Name:   "Delete Collection",
			Method: http.MethodDelete,
			Path:   "/catalogs/{catalog_path}/collections/{collection_id}",
			Schema: schema.New("DeleteCollection", schema.ModeAttribute,
				schema.PathField("catalog_path"),
				schema.PathField("collection_id"),
			),
			Handler: app.HandlerFunc(t.deleteCollection),
		},
		{
			Name:     "Create Item",
			Method:   http.MethodPost,
			Path:     "/catalogs/{catalog_path}/collections/{collection_id}/items",
			Schema:   itemCreateSchema(),
			Encoding: app.EncodingGeoJSON,
			Handler:  app.HandlerFunc(t.createItem),
		},
		{
			Name:     "Update Item",
			Method:   http.MethodPut,
			Path:     "/catalogs/{catalog_path}/collections/{collection_id}/items/{item_id}",
			Schema:   itemWriteSchema(),
			Encoding: app.EncodingGeoJSON,
			Handler:  app.HandlerFunc(t.updateItem),
		},
		{
			Name:   "Delete Item",
			Method: http.MethodDelete,
			Path:   "/catalogs/{catalog_path}/collections/{collection_id}/items/{item_id}",
			Schema: schema.New("DeleteItem", schema.ModeAttribute,
				schema.PathField("catalog_path"),
				schema.PathField("collection_id"),
				schema.PathField("item_id"),
			),
			Handler: app.HandlerFunc(t.deleteItem),
		},
	}
}

func (t *Transaction) createCatalog(ctx context.Context, inv *app.Invocation) (any, error) {
	return t.Client.CreateCatalog(ctx, "", objectParam(inv, "catalog"), inv.Workspaces())
}

func (t *Transaction) updateCatalog(ctx context.Context, inv *app.Invocation) (any, error) {
	return t.Client.UpdateCatalog(ctx, stringParam(inv, "catalog_path"), objectParam(inv, "catalog"), inv.Workspaces())
}

func (t *Transaction) deleteCatalog(ctx context.Context, inv *app.Invocation) (any, error) {
	return nil, t.Client.DeleteCatalog(ctx, stringParam(inv, "catalog_path"), inv.Workspaces())
}

func (t *Transaction) createCollection(ctx context.Context, inv *app.Invocation) (any, error) {
	return t.Client.CreateCollection(ctx, stringParam(inv, "catalog_path"), objectParam(inv, "collection"), inv.Workspaces())
}

func (t *Transaction) updateCollection(ctx context.Context, inv *app.Invocation) (any, error) {
	return t.Client.UpdateCollection(ctx, stringParam(inv, "catalog_path"), stringParam(inv, "collection_id"),
		objectParam(inv, "collection"), inv.Workspaces())
}

func (t *Transaction) deleteCollection(ctx context.Context, inv *app.Invocation) (any, error) {
	return nil, t.Client.DeleteCollection(ctx, stringParam(inv, "catalog_path"), stringParam(inv, "collection_id"), inv.Workspaces())
}

func (t *Transaction) createItem(ctx context.Context, inv *app.Invocation) (any, error) {
	return t.Client.CreateItem(ctx, stringParam(inv, "catalog_path"), stringParam(inv, "collection_id"),
		objectParam(inv, "item"), inv.Workspaces())
}

func (t *Transaction) updateItem(ctx context.Context, inv *app.Invocation) (any, error) {
	return t.Client.UpdateItem(ctx, stringParam(inv, "catalog_path"), stringParam(inv, "collection_id"),
		stringParam(inv, "item_id"), objectParam(inv, "item"), inv.Workspaces())
}

func (t *Transaction) deleteItem(ctx context.Context, inv *app.Invocation) (any, error) {
	return nil, t.Client.DeleteItem(ctx, stringParam(inv, "catalog_path"), stringParam(inv, "collection_id"),
		stringParam(inv, "item_id"), inv.Workspaces())
}

// objectParam reads a bound object field from the request body.
func objectParam(inv *app.Invocation, name string) map[string]any {
	body, _ := inv.Body.(map[string]any)
	m, _ := body[name].(map[string]any)
	return m
}

func catalogBodySchema(name string) *schema.RequestSchema {
	return schema.New(name, schema.ModePayload,
		schema.ObjectField("catalog", true),
	)
}

func catalogWriteSchema(name string) *schema.RequestSchema {
	return schema.New(name, schema.ModePayload,
		schema.PathField("catalog_path"),
		schema.ObjectField("catalog", true),
	)
}

func collectionCreateSchema() *schema.RequestSchema {
	return schema.New("PostCollection", schema.ModePayload,
		schema.PathField("catalog_path"),
		schema.ObjectField("collection", true),
	)
}

func collectionWriteSchema() *schema.RequestSchema {
	return schema.New("PutCollection", schema.ModePayload,
		schema.PathField("catalog_path"),
		schema.PathField("collection_id"),
		schema.ObjectField("collection", true),
	)
}

func itemCreateSchema() *schema.RequestSchema {
	return schema.New("PostItem", schema.ModePayload,
		schema.PathField("catalog_path"),
		schema.PathField("collection_id"),
		schema.ObjectField("item", true),
	)
}

func itemWriteSchema() *schema.RequestSchema {
	return schema.New("PutItem", schema.ModePayload,
		schema.PathField("catalog_path"),
		schema.PathField("collection_id"),
		schema.PathField("item_id"),
		schema.ObjectField("item", true),
	)
}
