package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/stacgate/adapters/metrics"
	"github.com/artpar/stacgate/core/links"
	"github.com/artpar/stacgate/domain/stac"
	"github.com/artpar/stacgate/ports"
)

// Client serves the catalog clients from the SQLite store. It owns
// link regeneration: inferred links are stripped from stored documents
// and rebuilt from ancestry on every read.
type Client struct {
	store       *CatalogStore
	baseURL     string
	title       string
	description string
	conformance func() []string
	metrics     *metrics.Collector
	log         zerolog.Logger
}

// ClientConfig carries the deployment identity stamped onto the
// landing page.
type ClientConfig struct {
	BaseURL     string
	Title       string
	Description string
}

// NewClient creates the reference catalog client.
func NewClient(db *DB, cfg ClientConfig, collector *metrics.Collector, logger zerolog.Logger) *Client {
	if cfg.Title == "" {
		cfg.Title = "stacgate"
	}
	if cfg.Description == "" {
		cfg.Description = "Catalog API root"
	}
	return &Client{
		store:       NewCatalogStore(db),
		baseURL:     cfg.BaseURL,
		title:       cfg.Title,
		description: cfg.Description,
		metrics:     collector,
		log:         logger,
	}
}

// SetConformance wires the aggregated conformance classes advertised
// on the landing page. Set once during startup.
func (c *Client) SetConformance(fn func() []string) { c.conformance = fn }

// LandingPage implements ports.CoreClient.
func (c *Client) LandingPage(ctx context.Context, workspaces []string) (*stac.LandingPage, error) {
	rows, err := c.store.ListCatalogs(ctx, workspaces)
	if err != nil {
		return nil, err
	}

	page := &stac.LandingPage{
		Type:        "Catalog",
		ID:          "stacgate",
		Title:       c.title,
		Description: c.description,
		StacVersion: stac.Version,
		Links: []links.Link{
			{Rel: links.RelSelf, Type: links.MediaJSON, Href: c.baseURL},
			{Rel: links.RelRoot, Type: links.MediaJSON, Href: c.baseURL},
			{Rel: links.RelData, Type: links.MediaJSON, Href: c.href("catalogs")},
		},
	}
	if c.conformance != nil {
		page.ConformsTo = c.conformance()
	}
	for _, r := range rows {
		page.Links = append(page.Links, links.Link{
			Rel:  links.RelChild,
			Type: links.MediaJSON,
			Href: c.href("catalogs/" + r.Path),
		})
	}
	return page, nil
}

// AllCatalogs implements ports.CoreClient.
func (c *Client) AllCatalogs(ctx context.Context, workspaces []string) (*stac.Catalogs, error) {
	rows, err := c.store.ListCatalogs(ctx, workspaces)
	if err != nil {
		return nil, err
	}

	out := &stac.Catalogs{
		Catalogs: make([]stac.Catalog, 0, len(rows)),
		Links: []links.Link{
			{Rel: links.RelSelf, Type: links.MediaJSON, Href: c.href("catalogs")},
			{Rel: links.RelRoot, Type: links.MediaJSON, Href: c.baseURL},
		},
	}
	for _, r := range rows {
		cat, err := c.catalogFromDoc(r.Path, r.Doc)
		if err != nil {
			return nil, err
		}
		out.Catalogs = append(out.Catalogs, *cat)
	}
	return out, nil
}

// GetCatalog implements ports.CoreClient.
func (c *Client) GetCatalog(ctx context.Context, catalogPath string, workspaces []string) (*stac.Catalog, error) {
	doc, err := c.store.GetCatalog(ctx, catalogPath, workspaces)
	if err != nil {
		return nil, err
	}
	return c.catalogFromDoc(catalogPath, doc)
}

// AllCollections implements ports.CoreClient.
func (c *Client) AllCollections(ctx context.Context, catalogPath string, workspaces []string) (*stac.Collections, error) {
	docs, err := c.store.ListCollections(ctx, catalogPath, workspaces)
	if err != nil {
		return nil, err
	}

	out := &stac.Collections{
		Collections: make([]stac.Collection, 0, len(docs)),
		Links: []links.Link{
			{Rel: links.RelSelf, Type: links.MediaJSON, Href: c.href("catalogs/" + catalogPath + "/collections")},
			{Rel: links.RelParent, Type: links.MediaJSON, Href: c.href("catalogs/" + catalogPath)},
			{Rel: links.RelRoot, Type: links.MediaJSON, Href: c.href("catalogs/" + catalogPath)},
		},
	}
	for _, doc := range docs {
		col, err := c.collectionFromDoc(catalogPath, doc)
		if err != nil {
			return nil, err
		}
		out.Collections = append(out.Collections, *col)
	}
	return out, nil
}

// GetCollection implements ports.CoreClient.
func (c *Client) GetCollection(ctx context.Context, catalogPath, collectionID string, workspaces []string) (*stac.Collection, error) {
	doc, err := c.store.GetCollection(ctx, catalogPath, collectionID, workspaces)
	if err != nil {
		return nil, err
	}
	return c.collectionFromDoc(catalogPath, doc)
}

// GetItem implements ports.CoreClient.
func (c *Client) GetItem(ctx context.Context, catalogPath, collectionID, itemID string, workspaces []string) (*stac.Item, error) {
	doc, err := c.store.GetItem(ctx, catalogPath, collectionID, itemID, workspaces)
	if err != nil {
		return nil, err
	}
	return c.itemFromDoc(catalogPath, collectionID, doc)
}

// ItemCollection implements ports.CoreClient.
func (c *Client) ItemCollection(ctx context.Context, catalogPath, collectionID string, limit int, workspaces []string) (*stac.ItemCollection, error) {
	if limit <= 0 {
		limit = stac.DefaultLimit
	}
	docs, err := c.store.ListItems(ctx, catalogPath, collectionID, limit, workspaces)
	if err != nil {
		return nil, err
	}

	features := make([]stac.Item, 0, len(docs))
	for _, doc := range docs {
		item, err := c.itemFromDoc(catalogPath, collectionID, doc)
		if err != nil {
			return nil, err
		}
		features = append(features, *item)
	}
	n := len(features)
	return &stac.ItemCollection{
		Type:           "FeatureCollection",
		Features:       features,
		NumberReturned: &n,
		Links: []links.Link{
			{Rel: links.RelSelf, Type: links.MediaGeoJSON,
				Href: c.href("catalogs/" + catalogPath + "/collections/" + collectionID + "/items")},
		},
	}, nil
}

// Search implements ports.SearchClient. Identifier narrowing and
// paging happen here; spatial and temporal filtering belong to a real
// query engine and are ignored by the reference store.
func (c *Client) Search(ctx context.Context, params ports.SearchParams, workspaces []string) (*stac.ItemCollection, error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.SearchDuration.WithLabelValues("items").Observe(time.Since(start).Seconds())
		}
	}()

	limit := intParam(params, "limit", stac.DefaultLimit)
	catalogPaths := stringsParam(params, "catalog_paths")
	if p, ok := params["catalog_path"].(string); ok && p != "" {
		catalogPaths = append(catalogPaths, p)
	}
	collections := toSet(stringsParam(params, "collections"))
	ids := toSet(stringsParam(params, "ids"))

	rows, err := c.store.ScanItems(ctx, catalogPaths, limit, workspaces)
	if err != nil {
		return nil, err
	}

	features := make([]stac.Item, 0, len(rows))
	for _, r := range rows {
		if len(collections) > 0 && !collections[r.CollectionID] {
			continue
		}
		if len(ids) > 0 {
			id, _ := r.Doc["id"].(string)
			if !ids[id] {
				continue
			}
		}
		item, err := c.itemFromDoc(r.CatalogPath, r.CollectionID, r.Doc)
		if err != nil {
			return nil, err
		}
		features = append(features, *item)
	}
	n := len(features)
	return &stac.ItemCollection{
		Type:           "FeatureCollection",
		Features:       features,
		NumberReturned: &n,
	}, nil
}

// SearchCollections implements ports.CollectionSearchClient.
func (c *Client) SearchCollections(ctx context.Context, params ports.SearchParams, workspaces []string) (*stac.Collections, error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.SearchDuration.WithLabelValues("collections").Observe(time.Since(start).Seconds())
		}
	}()

	limit := intParam(params, "limit", stac.DefaultLimit)
	terms := stringsParam(params, "q")
	glob, _ := params["glob"].(bool)

	var docs []map[string]any
	var paths []string
	if p, ok := params["catalog_path"].(string); ok && p != "" {
		scoped, err := c.store.ListCollections(ctx, p, workspaces)
		if err != nil {
			return nil, err
		}
		docs = scoped
		paths = make([]string, len(scoped))
		for i := range paths {
			paths[i] = p
		}
	} else {
		var err error
		docs, paths, err = c.store.AllCollections(ctx, workspaces)
		if err != nil {
			return nil, err
		}
	}

	out := &stac.Collections{Collections: []stac.Collection{}}
	for i, doc := range docs {
		if len(out.Collections) >= limit {
			break
		}
		if !matchesTerms(doc, terms, glob) {
			continue
		}
		col, err := c.collectionFromDoc(paths[i], doc)
		if err != nil {
			return nil, err
		}
		out.Collections = append(out.Collections, *col)
	}
	return out, nil
}

// Discover implements ports.DiscoverySearchClient.
func (c *Client) Discover(ctx context.Context, params ports.SearchParams, workspaces []string) (*stac.Catalogs, error) {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.SearchDuration.WithLabelValues("discovery").Observe(time.Since(start).Seconds())
		}
	}()

	limit := intParam(params, "limit", stac.DefaultLimit)
	terms := stringsParam(params, "q")

	rows, err := c.store.ListCatalogs(ctx, workspaces)
	if err != nil {
		return nil, err
	}

	out := &stac.Catalogs{Catalogs: []stac.Catalog{}}
	for _, r := range rows {
		if len(out.Catalogs) >= limit {
			break
		}
		if !matchesTerms(r.Doc, terms, false) {
			continue
		}
		cat, err := c.catalogFromDoc(r.Path, r.Doc)
		if err != nil {
			return nil, err
		}
		out.Catalogs = append(out.Catalogs, *cat)
	}
	return out, nil
}

// CreateCatalog implements ports.TransactionsClient. The owning
// workspace is the caller's first workspace; a caller without one
// creates a public catalog.
func (c *Client) CreateCatalog(ctx context.Context, catalogPath string, catalog map[string]any, workspaces []string) (*stac.Catalog, error) {
	id, err := docID(catalog)
	if err != nil {
		return nil, err
	}
	p := id
	if catalogPath != "" {
		p = path.Join(catalogPath, id)
	}
	owner := ""
	if len(workspaces) > 0 {
		owner = workspaces[0]
	}
	if err := c.store.CreateCatalog(ctx, p, owner, stripInferred(catalog)); err != nil {
		return nil, err
	}
	c.log.Info().Str("catalog", p).Msg("catalog created")
	return c.GetCatalog(ctx, p, workspaces)
}

// UpdateCatalog implements ports.TransactionsClient.
func (c *Client) UpdateCatalog(ctx context.Context, catalogPath string, catalog map[string]any, workspaces []string) (*stac.Catalog, error) {
	if err := c.store.UpdateCatalog(ctx, catalogPath, stripInferred(catalog), workspaces); err != nil {
		return nil, err
	}
	return c.GetCatalog(ctx, catalogPath, workspaces)
}

// DeleteCatalog implements ports.TransactionsClient.
func (c *Client) DeleteCatalog(ctx context.Context, catalogPath string, workspaces []string) error {
	return c.store.DeleteCatalog(ctx, catalogPath, workspaces)
}

// CreateCollection implements ports.TransactionsClient.
func (c *Client) CreateCollection(ctx context.Context, catalogPath string, collection map[string]any, workspaces []string) (*stac.Collection, error) {
	id, err := docID(collection)
	if err != nil {
		return nil, err
	}
	if err := c.store.CreateCollection(ctx, catalogPath, id, stripInferred(collection), workspaces); err != nil {
		return nil, err
	}
	return c.GetCollection(ctx, catalogPath, id, workspaces)
}

// UpdateCollection implements ports.TransactionsClient.
func (c *Client) UpdateCollection(ctx context.Context, catalogPath, collectionID string, collection map[string]any, workspaces []string) (*stac.Collection, error) {
	if err := c.store.UpdateCollection(ctx, catalogPath, collectionID, stripInferred(collection), workspaces); err != nil {
		return nil, err
	}
	return c.GetCollection(ctx, catalogPath, collectionID, workspaces)
}

// DeleteCollection implements ports.TransactionsClient.
func (c *Client) DeleteCollection(ctx context.Context, catalogPath, collectionID string, workspaces []string) error {
	return c.store.DeleteCollection(ctx, catalogPath, collectionID, workspaces)
}

// CreateItem implements ports.TransactionsClient.
func (c *Client) CreateItem(ctx context.Context, catalogPath, collectionID string, item map[string]any, workspaces []string) (*stac.Item, error) {
	id, err := docID(item)
	if err != nil {
		return nil, err
	}
	if _, err := c.store.GetCollection(ctx, catalogPath, collectionID, workspaces); err != nil {
		return nil, err
	}
	if err := c.store.CreateItem(ctx, catalogPath, collectionID, id, stripInferred(item)); err != nil {
		return nil, err
	}
	return c.GetItem(ctx, catalogPath, collectionID, id, workspaces)
}

// UpdateItem implements ports.TransactionsClient.
func (c *Client) UpdateItem(ctx context.Context, catalogPath, collectionID, itemID string, item map[string]any, workspaces []string) (*stac.Item, error) {
	if err := c.store.UpdateItem(ctx, catalogPath, collectionID, itemID, stripInferred(item), workspaces); err != nil {
		return nil, err
	}
	return c.GetItem(ctx, catalogPath, collectionID, itemID, workspaces)
}

// DeleteItem implements ports.TransactionsClient.
func (c *Client) DeleteItem(ctx context.Context, catalogPath, collectionID, itemID string, workspaces []string) error {
	return c.store.DeleteItem(ctx, catalogPath, collectionID, itemID, workspaces)
}

func (c *Client) catalogFromDoc(catalogPath string, doc map[string]any) (*stac.Catalog, error) {
	var cat stac.Catalog
	if err := decodeInto(doc, &cat); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", catalogPath, err)
	}
	cat.Type = "Catalog"
	cat.StacVersion = stac.Version
	cat.Links = append(
		links.Resolve(cat.Links, c.baseURL),
		links.CatalogLinks{BaseURL: c.baseURL, CatalogID: catalogPath}.Create()...)
	return &cat, nil
}

func (c *Client) collectionFromDoc(catalogPath string, doc map[string]any) (*stac.Collection, error) {
	var col stac.Collection
	if err := decodeInto(doc, &col); err != nil {
		return nil, fmt.Errorf("collection in %s: %w", catalogPath, err)
	}
	col.Type = "Collection"
	col.StacVersion = stac.Version
	col.Links = append(
		links.Resolve(col.Links, c.baseURL),
		links.CollectionLinks{BaseURL: c.baseURL, CatalogID: catalogPath, CollectionID: col.ID}.Create()...)
	return &col, nil
}

func (c *Client) itemFromDoc(catalogPath, collectionID string, doc map[string]any) (*stac.Item, error) {
	var item stac.Item
	if err := decodeInto(doc, &item); err != nil {
		return nil, fmt.Errorf("item in %s/%s: %w", catalogPath, collectionID, err)
	}
	item.Type = "Feature"
	item.StacVersion = stac.Version
	item.Collection = collectionID
	item.Links = append(
		links.Resolve(item.Links, c.baseURL),
		links.ItemLinks{
			BaseURL:      c.baseURL,
			CatalogID:    catalogPath,
			CollectionID: collectionID,
			ItemID:       item.ID,
		}.Create()...)
	return &item, nil
}

func (c *Client) href(p string) string {
	return strings.TrimSuffix(c.baseURL, "/") + "/" + p
}

func decodeInto(doc map[string]any, out any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// stripInferred drops server-derived links from a document before it
// is persisted.
func stripInferred(doc map[string]any) map[string]any {
	raw, ok := doc["links"].([]any)
	if !ok {
		return doc
	}
	kept := make([]any, 0, len(raw))
	for _, l := range raw {
		m, ok := l.(map[string]any)
		if !ok {
			continue
		}
		rel, _ := m["rel"].(string)
		if !links.Inferred(rel) {
			kept = append(kept, m)
		}
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	out["links"] = kept
	return out
}

func docID(doc map[string]any) (string, error) {
	id, _ := doc["id"].(string)
	if id == "" {
		return "", fmt.Errorf("document requires an id")
	}
	if strings.ContainsAny(id, "/?#") {
		return "", fmt.Errorf("document id %q contains reserved characters", id)
	}
	return id, nil
}

func intParam(params ports.SearchParams, name string, fallback int) int {
	if v, ok := params[name].(int); ok && v > 0 {
		return v
	}
	return fallback
}

func stringsParam(params ports.SearchParams, name string) []string {
	switch v := params[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func toSet(vals []string) map[string]bool {
	if len(vals) == 0 {
		return nil
	}
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[v] = true
	}
	return set
}

// matchesTerms reports whether any term appears in the document's id,
// title or description. Glob matching applies shell patterns instead
// of substring containment.
func matchesTerms(doc map[string]any, terms []string, glob bool) bool {
	if len(terms) == 0 {
		return true
	}
	var hay []string
	for _, key := range []string{"id", "title", "description"} {
		if s, ok := doc[key].(string); ok {
			hay = append(hay, strings.ToLower(s))
		}
	}
	for _, term := range terms {
		t := strings.ToLower(term)
		for _, h := range hay {
			if glob {
				if ok, _ := path.Match(t, h); ok {
					return true
				}
				continue
			}
			if strings.Contains(h, t) {
				return true
			}
		}
	}
	return false
}
