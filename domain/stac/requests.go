package stac

import "github.com/artpar/stacgate/core/schema"

// MaxLimit caps page sizes. Values above it clamp rather than fail.
const MaxLimit = 10_000

// DefaultLimit is the page size when the caller does not supply one.
const DefaultLimit = 10

func limitField() schema.FieldSpec {
	return schema.FieldSpec{
		Name:    "limit",
		Type:    schema.FieldTypeInt,
		Default: DefaultLimit,
		Constraints: []schema.Constraint{
			{Type: schema.ConstraintMin, Value: 1},
			{Type: schema.ConstraintClampMax, Value: MaxLimit},
		},
	}
}

// spatialExclusion rejects requests supplying both bbox and intersects.
func spatialExclusion(values map[string]any) *schema.FieldError {
	if values["bbox"] != nil && values["intersects"] != nil {
		return &schema.FieldError{
			Field:   "intersects",
			Message: "intersects and bbox parameters are mutually exclusive",
		}
	}
	return nil
}

// SearchGetSchema is the base attribute schema for cross-catalog GET
// search. Extension fragments are composed onto it at startup.
func SearchGetSchema() *schema.RequestSchema {
	return schema.New("SearchGetRequest", schema.ModeAttribute,
		schema.FieldSpec{Name: "catalog_paths", Type: schema.FieldTypeStrings},
		schema.FieldSpec{Name: "collections", Type: schema.FieldTypeStrings},
		schema.FieldSpec{Name: "ids", Type: schema.FieldTypeStrings},
		schema.FieldSpec{Name: "bbox", Type: schema.FieldTypeBBox},
		schema.FieldSpec{Name: "intersects", Type: schema.FieldTypeString},
		schema.FieldSpec{Name: "datetime", Type: schema.FieldTypeInterval},
		limitField(),
	)
}

// SearchPostSchema is the base payload schema for cross-catalog POST
// search.
func SearchPostSchema() *schema.RequestSchema {
	return schema.New("SearchPostRequest", schema.ModePayload,
		schema.FieldSpec{Name: "catalog_paths", Type: schema.FieldTypeStrings},
		schema.FieldSpec{Name: "collections", Type: schema.FieldTypeStrings},
		schema.FieldSpec{Name: "ids", Type: schema.FieldTypeStrings},
		schema.FieldSpec{Name: "bbox", Type: schema.FieldTypeBBox},
		schema.FieldSpec{Name: "intersects", Type: schema.FieldTypeGeometry},
		schema.FieldSpec{Name: "datetime", Type: schema.FieldTypeInterval},
		limitField(),
	).WithCheck(spatialExclusion)
}

// CatalogSearchGetSchema scopes GET search to one catalog via a path
// parameter.
func CatalogSearchGetSchema() *schema.RequestSchema {
	return schema.New("CatalogSearchGetRequest", schema.ModeAttribute,
		schema.PathField("catalog_path"),
		schema.FieldSpec{Name: "collections", Type: schema.FieldTypeStrings},
		schema.FieldSpec{Name: "ids", Type: schema.FieldTypeStrings},
		schema.FieldSpec{Name: "bbox", Type: schema.FieldTypeBBox},
		schema.FieldSpec{Name: "intersects", Type: schema.FieldTypeString},
		schema.FieldSpec{Name: "datetime", Type: schema.FieldTypeInterval},
		limitField(),
	)
}

// CatalogSearchPostSchema is the payload base for catalog-scoped POST
// search; the catalog identifier arrives separately as a path
// parameter via ComposeWithPathParameter.
func CatalogSearchPostSchema() *schema.RequestSchema {
	return schema.New("CatalogSearchPostRequest", schema.ModePayload,
		schema.FieldSpec{Name: "collections", Type: schema.FieldTypeStrings},
		schema.FieldSpec{Name: "ids", Type: schema.FieldTypeStrings},
		schema.FieldSpec{Name: "bbox", Type: schema.FieldTypeBBox},
		schema.FieldSpec{Name: "intersects", Type: schema.FieldTypeGeometry},
		schema.FieldSpec{Name: "datetime", Type: schema.FieldTypeInterval},
		limitField(),
	).WithCheck(spatialExclusion)
}

// CollectionSearchGetSchema is the base attribute schema for
// collection search.
func CollectionSearchGetSchema() *schema.RequestSchema {
	return schema.New("CollectionSearchGetRequest", schema.ModeAttribute,
		schema.FieldSpec{Name: "bbox", Type: schema.FieldTypeBBox},
		schema.FieldSpec{Name: "datetime", Type: schema.FieldTypeInterval},
		limitField(),
		schema.FieldSpec{Name: "q", Type: schema.FieldTypeStrings},
		schema.FieldSpec{Name: "glob", Type: schema.FieldTypeBool, Default: false},
	)
}

// CollectionSearchPostSchema is the payload base for collection search.
func CollectionSearchPostSchema() *schema.RequestSchema {
	return schema.New("CollectionSearchPostRequest", schema.ModePayload,
		schema.FieldSpec{Name: "bbox", Type: schema.FieldTypeBBox},
		schema.FieldSpec{Name: "datetime", Type: schema.FieldTypeInterval},
		limitField(),
		schema.FieldSpec{Name: "q", Type: schema.FieldTypeStrings},
		schema.FieldSpec{Name: "glob", Type: schema.FieldTypeBool, Default: false},
	)
}

// DiscoverySearchGetSchema is the base attribute schema for discovery
// search across catalogs and collections.
func DiscoverySearchGetSchema() *schema.RequestSchema {
	return schema.New("DiscoverySearchGetRequest", schema.ModeAttribute,
		schema.FieldSpec{Name: "q", Type: schema.FieldTypeStrings},
		limitField(),
	)
}

// DiscoverySearchPostSchema is the payload base for discovery search.
func DiscoverySearchPostSchema() *schema.RequestSchema {
	return schema.New("DiscoverySearchPostRequest", schema.ModePayload,
		schema.FieldSpec{Name: "q", Type: schema.FieldTypeStrings},
		limitField(),
	)
}

// EmptySchema is an attribute schema with no fields, for routes like
// the landing page.
func EmptySchema(name string) *schema.RequestSchema {
	return schema.New(name, schema.ModeAttribute)
}

// CatalogURISchema identifies a catalog by path segment.
func CatalogURISchema(name string) *schema.RequestSchema {
	return schema.New(name, schema.ModeAttribute,
		schema.PathField("catalog_path"),
	)
}

// CollectionURISchema identifies a collection within a catalog.
func CollectionURISchema(name string) *schema.RequestSchema {
	return schema.New(name, schema.ModeAttribute,
		schema.PathField("catalog_path"),
		schema.PathField("collection_id"),
	)
}

// ItemURISchema identifies an item within a collection.
func ItemURISchema(name string) *schema.RequestSchema {
	return schema.New(name, schema.ModeAttribute,
		schema.PathField("catalog_path"),
		schema.PathField("collection_id"),
		schema.PathField("item_id"),
	)
}

// ItemCollectionURISchema pages the items of one collection.
func ItemCollectionURISchema() *schema.RequestSchema {
	return schema.New("ItemCollectionUri", schema.ModeAttribute,
		schema.PathField("catalog_path"),
		schema.PathField("collection_id"),
		limitField(),
		schema.FieldSpec{Name: "bbox", Type: schema.FieldTypeBBox},
		schema.FieldSpec{Name: "datetime", Type: schema.FieldTypeInterval},
	)
}
