package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/artpar/stacgate/ports"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(testDB(t), ClientConfig{BaseURL: "https://catalog.example.com"}, nil, zerolog.Nop())
}

func seedCatalog(t *testing.T, c *Client, id string, workspaces []string) {
	t.Helper()
	_, err := c.CreateCatalog(context.Background(), "", map[string]any{
		"id":          id,
		"description": "test catalog " + id,
	}, workspaces)
	if err != nil {
		t.Fatalf("seed catalog %s: %v", id, err)
	}
}

func seedCollection(t *testing.T, c *Client, catalog, id string) {
	t.Helper()
	_, err := c.CreateCollection(context.Background(), catalog, map[string]any{
		"id":          id,
		"description": "test collection " + id,
		"license":     "proprietary",
	}, nil)
	if err != nil {
		t.Fatalf("seed collection %s: %v", id, err)
	}
}

func seedItem(t *testing.T, c *Client, catalog, collection, id string) {
	t.Helper()
	_, err := c.CreateItem(context.Background(), catalog, collection, map[string]any{
		"id":       id,
		"geometry": map[string]any{"type": "Point", "coordinates": []any{0.0, 0.0}},
		"properties": map[string]any{
			"datetime": "2024-06-01T00:00:00Z",
		},
	}, nil)
	if err != nil {
		t.Fatalf("seed item %s: %v", id, err)
	}
}

func TestCatalogLifecycle(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	seedCatalog(t, c, "landsat", nil)

	cat, err := c.GetCatalog(ctx, "landsat", nil)
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	if cat.Type != "Catalog" || cat.ID != "landsat" {
		t.Errorf("catalog = %+v", cat)
	}

	updated, err := c.UpdateCatalog(ctx, "landsat", map[string]any{
		"id":          "landsat",
		"description": "updated",
	}, nil)
	if err != nil {
		t.Fatalf("UpdateCatalog: %v", err)
	}
	if updated.Description != "updated" {
		t.Errorf("description = %s", updated.Description)
	}

	if err := c.DeleteCatalog(ctx, "landsat", nil); err != nil {
		t.Fatalf("DeleteCatalog: %v", err)
	}
	if _, err := c.GetCatalog(ctx, "landsat", nil); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateCatalogDuplicate(t *testing.T) {
	c := testClient(t)
	seedCatalog(t, c, "landsat", nil)

	_, err := c.CreateCatalog(context.Background(), "", map[string]any{"id": "landsat"}, nil)
	if err == nil {
		t.Fatal("duplicate catalog accepted")
	}
}

func TestCreateCatalogRejectsReservedCharacters(t *testing.T) {
	c := testClient(t)
	for _, id := range []string{"a/b", "a?b", "a#b", ""} {
		if _, err := c.CreateCatalog(context.Background(), "", map[string]any{"id": id}, nil); err == nil {
			t.Errorf("id %q accepted", id)
		}
	}
}

func TestWorkspaceVisibility(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	seedCatalog(t, c, "public-cat", nil)
	seedCatalog(t, c, "private-cat", []string{"ws-a"})

	// Anonymous callers see only public catalogs.
	cats, err := c.AllCatalogs(ctx, nil)
	if err != nil {
		t.Fatalf("AllCatalogs: %v", err)
	}
	if len(cats.Catalogs) != 1 || cats.Catalogs[0].ID != "public-cat" {
		t.Errorf("anonymous view = %+v", cats.Catalogs)
	}
	if _, err := c.GetCatalog(ctx, "private-cat", nil); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("private catalog visible anonymously: %v", err)
	}

	// Workspace members see their own catalogs too.
	cats, err = c.AllCatalogs(ctx, []string{"ws-a"})
	if err != nil {
		t.Fatalf("AllCatalogs: %v", err)
	}
	if len(cats.Catalogs) != 2 {
		t.Errorf("member view = %+v", cats.Catalogs)
	}

	// Other workspaces do not.
	if _, err := c.GetCatalog(ctx, "private-cat", []string{"ws-b"}); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("private catalog visible to foreign workspace: %v", err)
	}
}

func TestCollectionLifecycle(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	seedCatalog(t, c, "landsat", nil)
	seedCollection(t, c, "landsat", "l8")

	col, err := c.GetCollection(ctx, "landsat", "l8", nil)
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	if col.Type != "Collection" || col.ID != "l8" {
		t.Errorf("collection = %+v", col)
	}

	cols, err := c.AllCollections(ctx, "landsat", nil)
	if err != nil {
		t.Fatalf("AllCollections: %v", err)
	}
	if len(cols.Collections) != 1 {
		t.Errorf("got %d collections", len(cols.Collections))
	}

	if err := c.DeleteCollection(ctx, "landsat", "l8", nil); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}
	if _, err := c.GetCollection(ctx, "landsat", "l8", nil); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestItemLifecycle(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	seedCatalog(t, c, "landsat", nil)
	seedCollection(t, c, "landsat", "l8")
	seedItem(t, c, "landsat", "l8", "scene-1")

	item, err := c.GetItem(ctx, "landsat", "l8", "scene-1", nil)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if item.Type != "Feature" || item.Collection != "l8" {
		t.Errorf("item = %+v", item)
	}

	ic, err := c.ItemCollection(ctx, "landsat", "l8", 0, nil)
	if err != nil {
		t.Fatalf("ItemCollection: %v", err)
	}
	if ic.Type != "FeatureCollection" || len(ic.Features) != 1 {
		t.Errorf("item collection = %+v", ic)
	}
	if ic.NumberReturned == nil || *ic.NumberReturned != 1 {
		t.Errorf("numberReturned = %v", ic.NumberReturned)
	}

	if err := c.DeleteItem(ctx, "landsat", "l8", "scene-1", nil); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if _, err := c.GetItem(ctx, "landsat", "l8", "scene-1", nil); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateItemRequiresCollection(t *testing.T) {
	c := testClient(t)
	seedCatalog(t, c, "landsat", nil)

	_, err := c.CreateItem(context.Background(), "landsat", "missing", map[string]any{"id": "x"}, nil)
	if !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteCatalogCascades(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	seedCatalog(t, c, "landsat", nil)
	seedCollection(t, c, "landsat", "l8")
	seedItem(t, c, "landsat", "l8", "scene-1")

	if err := c.DeleteCatalog(ctx, "landsat", nil); err != nil {
		t.Fatalf("DeleteCatalog: %v", err)
	}

	seedCatalog(t, c, "landsat", nil)
	cols, err := c.AllCollections(ctx, "landsat", nil)
	if err != nil {
		t.Fatalf("AllCollections: %v", err)
	}
	if len(cols.Collections) != 0 {
		t.Errorf("collections survived cascade: %+v", cols.Collections)
	}
}

func TestInferredLinksRegeneratedOnRead(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	// Stored self links point wherever the client was deployed before;
	// reads must regenerate them from ancestry.
	_, err := c.CreateCatalog(ctx, "", map[string]any{
		"id":          "landsat",
		"description": "d",
		"links": []any{
			map[string]any{"rel": "self", "href": "https://old-host.example.org/catalogs/landsat"},
			map[string]any{"rel": "license", "href": "/docs/license.html"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("CreateCatalog: %v", err)
	}

	cat, err := c.GetCatalog(ctx, "landsat", nil)
	if err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}

	var selfCount int
	var self, license string
	for _, l := range cat.Links {
		switch l.Rel {
		case "self":
			selfCount++
			self = l.Href
		case "license":
			license = l.Href
		}
	}
	if selfCount != 1 {
		t.Fatalf("got %d self links, want 1", selfCount)
	}
	if self != "https://catalog.example.com/catalogs/landsat" {
		t.Errorf("self = %s", self)
	}
	if license != "https://catalog.example.com/docs/license.html" {
		t.Errorf("license = %s", license)
	}
}

func TestLandingPage(t *testing.T) {
	c := testClient(t)
	c.SetConformance(func() []string { return []string{"c1", "c2"} })
	seedCatalog(t, c, "landsat", nil)

	page, err := c.LandingPage(context.Background(), nil)
	if err != nil {
		t.Fatalf("LandingPage: %v", err)
	}
	if page.Type != "Catalog" {
		t.Errorf("type = %s", page.Type)
	}
	if len(page.ConformsTo) != 2 {
		t.Errorf("conformsTo = %v", page.ConformsTo)
	}
	var childSeen bool
	for _, l := range page.Links {
		if l.Rel == "child" && l.Href == "https://catalog.example.com/catalogs/landsat" {
			childSeen = true
		}
	}
	if !childSeen {
		t.Error("landing page missing child link for seeded catalog")
	}
}

func TestLandingPageIdentity(t *testing.T) {
	c := NewClient(testDB(t), ClientConfig{
		BaseURL:     "https://catalog.example.com",
		Title:       "Earth Observation Catalog",
		Description: "Scenes and derived products",
	}, nil, zerolog.Nop())

	page, err := c.LandingPage(context.Background(), nil)
	if err != nil {
		t.Fatalf("LandingPage: %v", err)
	}
	if page.Title != "Earth Observation Catalog" {
		t.Errorf("title = %s", page.Title)
	}
	if page.Description != "Scenes and derived products" {
		t.Errorf("description = %s", page.Description)
	}
}

func TestSearchNarrowing(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	seedCatalog(t, c, "landsat", nil)
	seedCollection(t, c, "landsat", "l8")
	seedCollection(t, c, "landsat", "l9")
	seedItem(t, c, "landsat", "l8", "scene-1")
	seedItem(t, c, "landsat", "l9", "scene-2")

	got, err := c.Search(ctx, ports.SearchParams{"collections": []string{"l8"}}, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got.Features) != 1 || got.Features[0].ID != "scene-1" {
		t.Errorf("collection narrowing = %+v", got.Features)
	}

	got, err = c.Search(ctx, ports.SearchParams{"ids": []string{"scene-2"}}, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got.Features) != 1 || got.Features[0].ID != "scene-2" {
		t.Errorf("id narrowing = %+v", got.Features)
	}

	got, err = c.Search(ctx, ports.SearchParams{"limit": 1}, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got.Features) != 1 {
		t.Errorf("limit ignored: %d features", len(got.Features))
	}
}

func TestSearchCollectionsFreeText(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	seedCatalog(t, c, "landsat", nil)
	seedCollection(t, c, "landsat", "l8")
	seedCollection(t, c, "landsat", "sentinel")

	got, err := c.SearchCollections(ctx, ports.SearchParams{"q": []string{"sentinel"}}, nil)
	if err != nil {
		t.Fatalf("SearchCollections: %v", err)
	}
	if len(got.Collections) != 1 || got.Collections[0].ID != "sentinel" {
		t.Errorf("free text match = %+v", got.Collections)
	}

	got, err = c.SearchCollections(ctx, ports.SearchParams{"q": []string{"l*"}, "glob": true}, nil)
	if err != nil {
		t.Fatalf("SearchCollections glob: %v", err)
	}
	if len(got.Collections) != 1 || got.Collections[0].ID != "l8" {
		t.Errorf("glob match = %+v", got.Collections)
	}
}

func TestDiscover(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	seedCatalog(t, c, "landsat", nil)
	seedCatalog(t, c, "sentinel", nil)

	got, err := c.Discover(ctx, ports.SearchParams{"q": []string{"landsat"}}, nil)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got.Catalogs) != 1 || got.Catalogs[0].ID != "landsat" {
		t.Errorf("discover = %+v", got.Catalogs)
	}
}

func TestTransactionOwnership(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	if _, err := c.CreateCatalog(ctx, "", map[string]any{"id": "owned"}, []string{"ws-a"}); err != nil {
		t.Fatalf("CreateCatalog: %v", err)
	}

	// A foreign workspace cannot modify or delete what it cannot see.
	if _, err := c.UpdateCatalog(ctx, "owned", map[string]any{"id": "owned"}, []string{"ws-b"}); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("foreign update: %v", err)
	}
	if err := c.DeleteCatalog(ctx, "owned", []string{"ws-b"}); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("foreign delete: %v", err)
	}

	if err := c.DeleteCatalog(ctx, "owned", []string{"ws-a"}); err != nil {
		t.Errorf("owner delete: %v", err)
	}
}

func TestNestedCatalogPath(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()

	seedCatalog(t, c, "missions", nil)
	cat, err := c.CreateCatalog(ctx, "missions", map[string]any{"id": "landsat"}, nil)
	if err != nil {
		t.Fatalf("CreateCatalog nested: %v", err)
	}
	if cat.ID != "landsat" {
		t.Errorf("nested catalog = %+v", cat)
	}
	if _, err := c.GetCatalog(ctx, "missions/landsat", nil); err != nil {
		t.Errorf("GetCatalog nested: %v", err)
	}
}
