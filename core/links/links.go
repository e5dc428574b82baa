// Package links derives hypermedia references for catalog resources.
//
// Inferred links (self, parent, root and friends) are never trusted
// from storage: they are regenerated on every serialization from the
// resource's ancestry and the server base URL. Persisted links carrying
// an inferred relation are discarded before regeneration.
package links

import (
	"net/url"
	"strings"
)

// Media types used in generated links.
const (
	MediaJSON    = "application/json"
	MediaGeoJSON = "application/geo+json"
)

// Link relations generated for resources.
const (
	RelSelf       = "self"
	RelParent     = "parent"
	RelRoot       = "root"
	RelItems      = "items"
	RelItem       = "item"
	RelCollection = "collection"
	RelChild      = "child"
	RelData       = "data"
)

// Link is one hypermedia reference on a resource.
type Link struct {
	Rel    string `json:"rel"`
	Type   string `json:"type,omitempty"`
	Href   string `json:"href"`
	Method string `json:"method,omitempty"`
}

// inferredRels are the relations always derived by the server.
var inferredRels = map[string]bool{
	RelSelf:       true,
	RelItem:       true,
	RelParent:     true,
	RelCollection: true,
	RelRoot:       true,
	RelItems:      true,
	RelData:       true,
	RelChild:      true,
}

// Inferred reports whether a relation is always server-derived.
func Inferred(rel string) bool { return inferredRels[rel] }

// Filter removes links carrying an inferred relation. Any other
// relation is preserved verbatim.
func Filter(ls []Link) []Link {
	out := make([]Link, 0, len(ls))
	for _, l := range ls {
		if !inferredRels[l.Rel] {
			out = append(out, l)
		}
	}
	return out
}

// Resolve normalizes a resource's stored link list against the server
// base URL: inferred links are dropped, absolute hrefs are reduced to
// their path, and every href is joined against baseURL. Resolve is
// idempotent; links may be resolved more than once along different
// response paths.
func Resolve(ls []Link, baseURL string) []Link {
	filtered := Filter(ls)
	base, err := url.Parse(baseURL)
	if err != nil {
		return filtered
	}
	for i, l := range filtered {
		href := l.Href
		if strings.Contains(href, "http://") || strings.Contains(href, "https://") {
			if u, err := url.Parse(href); err == nil {
				href = u.Path
			}
		}
		if ref, err := url.Parse(href); err == nil {
			href = base.ResolveReference(ref).String()
		}
		filtered[i].Href = href
	}
	return filtered
}

// CatalogLinks generates the inferred links for a catalog.
type CatalogLinks struct {
	BaseURL   string
	CatalogID string
}

// Self returns the catalog's self link.
func (l CatalogLinks) Self() Link {
	return Link{Rel: RelSelf, Type: MediaJSON, Href: join(l.BaseURL, "catalogs/"+l.CatalogID)}
}

// Parent returns the catalog's parent, the landing page.
func (l CatalogLinks) Parent() Link {
	return Link{Rel: RelParent, Type: MediaJSON, Href: l.BaseURL}
}

// Root returns the landing page link.
func (l CatalogLinks) Root() Link {
	return Link{Rel: RelRoot, Type: MediaJSON, Href: l.BaseURL}
}

// Create returns all inferred links for the catalog.
func (l CatalogLinks) Create() []Link {
	// No items link for catalogs
	return []Link{l.Self(), l.Parent(), l.Root()}
}

// CollectionLinks generates the inferred links for a collection.
type CollectionLinks struct {
	BaseURL      string
	CatalogID    string
	CollectionID string
}

// Self returns the collection's self link.
func (l CollectionLinks) Self() Link {
	return Link{
		Rel:  RelSelf,
		Type: MediaJSON,
		Href: join(l.BaseURL, "catalogs/"+l.CatalogID+"/collections/"+l.CollectionID),
	}
}

// Parent returns the owning catalog.
func (l CollectionLinks) Parent() Link {
	return Link{Rel: RelParent, Type: MediaJSON, Href: join(l.BaseURL, "catalogs/"+l.CatalogID)}
}

// Items returns the collection's items endpoint.
func (l CollectionLinks) Items() Link {
	return Link{
		Rel:  RelItems,
		Type: MediaGeoJSON,
		Href: join(l.BaseURL, "catalogs/"+l.CatalogID+"/collections/"+l.CollectionID+"/items"),
	}
}

// Root identifies the catalog containing this collection.
func (l CollectionLinks) Root() Link {
	return Link{Rel: RelRoot, Type: MediaJSON, Href: join(l.BaseURL, "catalogs/"+l.CatalogID)}
}

// Create returns all inferred links for the collection.
func (l CollectionLinks) Create() []Link {
	return []Link{l.Self(), l.Parent(), l.Items(), l.Root()}
}

// ItemLinks generates the inferred links for an item.
type ItemLinks struct {
	BaseURL      string
	CatalogID    string
	CollectionID string
	ItemID       string
}

// Self returns the item's self link.
func (l ItemLinks) Self() Link {
	return Link{
		Rel:  RelSelf,
		Type: MediaGeoJSON,
		Href: join(l.BaseURL, "catalogs/"+l.CatalogID+"/collections/"+l.CollectionID+"/items/"+l.ItemID),
	}
}

// Parent returns the owning collection.
func (l ItemLinks) Parent() Link {
	return Link{
		Rel:  RelParent,
		Type: MediaJSON,
		Href: join(l.BaseURL, "catalogs/"+l.CatalogID+"/collections/"+l.CollectionID),
	}
}

// Collection returns the collection link, same target as Parent.
func (l ItemLinks) Collection() Link {
	return Link{
		Rel:  RelCollection,
		Type: MediaJSON,
		Href: join(l.BaseURL, "catalogs/"+l.CatalogID+"/collections/"+l.CollectionID),
	}
}

// Root identifies the catalog containing this item.
func (l ItemLinks) Root() Link {
	return Link{Rel: RelRoot, Type: MediaJSON, Href: join(l.BaseURL, "catalogs/"+l.CatalogID)}
}

// Create returns all inferred links for the item.
func (l ItemLinks) Create() []Link {
	return []Link{l.Self(), l.Parent(), l.Collection(), l.Root()}
}

// join resolves a relative path against a base URL the way a browser
// would, so trailing-slash handling matches link expectations.
func join(baseURL, path string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return base.ResolveReference(ref).String()
}
