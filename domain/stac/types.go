// Package stac defines the catalog resource types and the base
// request schemas the server composes extension fragments onto.
package stac

import (
	"github.com/artpar/stacgate/core/links"
)

// Version is the catalog spec version advertised on resources.
const Version = "1.0.0"

// Catalog is a tree node grouping collections and child catalogs.
type Catalog struct {
	Type        string       `json:"type"`
	ID          string       `json:"id"`
	StacVersion string       `json:"stac_version"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description"`
	Links       []links.Link `json:"links"`
}

// Catalogs is a listing of catalogs with its own links.
type Catalogs struct {
	Catalogs []Catalog    `json:"catalogs"`
	Links    []links.Link `json:"links"`
}

// Collection groups items sharing a schema and spatiotemporal extent.
type Collection struct {
	Type        string         `json:"type"`
	ID          string         `json:"id"`
	StacVersion string         `json:"stac_version"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description"`
	Keywords    []string       `json:"keywords,omitempty"`
	License     string         `json:"license,omitempty"`
	Extent      map[string]any `json:"extent,omitempty"`
	Summaries   map[string]any `json:"summaries,omitempty"`
	Links       []links.Link   `json:"links"`
}

// Collections is a listing of collections with its own links.
type Collections struct {
	Collections []Collection `json:"collections"`
	Links       []links.Link `json:"links"`
}

// Item is a GeoJSON feature with catalog metadata.
type Item struct {
	Type        string         `json:"type"`
	ID          string         `json:"id"`
	StacVersion string         `json:"stac_version"`
	Geometry    map[string]any `json:"geometry"`
	BBox        []float64      `json:"bbox,omitempty"`
	Properties  map[string]any `json:"properties"`
	Assets      map[string]any `json:"assets,omitempty"`
	Collection  string         `json:"collection,omitempty"`
	Links       []links.Link   `json:"links"`
}

// ItemCollection is a GeoJSON feature collection page.
type ItemCollection struct {
	Type           string       `json:"type"`
	Features       []Item       `json:"features"`
	Links          []links.Link `json:"links,omitempty"`
	NumberMatched  *int         `json:"numberMatched,omitempty"`
	NumberReturned *int         `json:"numberReturned,omitempty"`
}

// LandingPage is the API root document.
type LandingPage struct {
	Type        string       `json:"type"`
	ID          string       `json:"id"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description"`
	StacVersion string       `json:"stac_version"`
	ConformsTo  []string     `json:"conformsTo"`
	Links       []links.Link `json:"links"`
}

// Conformance is the advertised conformance class document.
type Conformance struct {
	ConformsTo []string `json:"conformsTo"`
}
