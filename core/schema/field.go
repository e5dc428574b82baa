package schema

// FieldLocation says where a field's value is bound from.
type FieldLocation string

const (
	// InQuery binds from the query string. Default for attribute schemas.
	InQuery FieldLocation = "query"

	// InPath binds from a path segment.
	InPath FieldLocation = "path"

	// InBody binds from the request body. Default for payload schemas.
	InBody FieldLocation = "body"
)

// FieldType represents the semantic type of a schema field.
type FieldType string

const (
	// Primitive types
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeFloat  FieldType = "float"
	FieldTypeBool   FieldType = "bool"

	// Catalog domain types
	FieldTypeBBox     FieldType = "bbox"     // Four or six WGS84 coordinates
	FieldTypeInterval FieldType = "interval" // RFC 3339 instant or open/closed interval
	FieldTypeGeometry FieldType = "geometry" // GeoJSON geometry object

	// Composite types
	FieldTypeStrings FieldType = "strings" // List of strings; comma-split in query position
	FieldTypeObject  FieldType = "object"  // Structured object, optionally with a nested schema
)

// FieldSpec defines one field of a request schema. A FieldSpec is
// immutable once built; composition replaces specs wholesale rather
// than merging individual attributes.
type FieldSpec struct {
	// Name is the canonical field name handlers see.
	Name string

	// Type is the field type. See FieldType constants.
	Type FieldType

	// In says where the value is bound from. Zero value means the
	// schema's natural location (query for attribute, body for payload).
	In FieldLocation

	// Required fields must be present in the input.
	Required bool

	// Default is used when the input omits the field. Ignored for
	// required fields.
	Default any

	// Alias is the external parameter name, when it differs from Name.
	Alias string

	// Constraints are validated against the bound value.
	Constraints []Constraint

	// Schema validates nested object fields. Only meaningful for
	// FieldTypeObject; nil means the object is accepted as-is.
	Schema *RequestSchema
}

// ExternalName returns the name the field is bound by on the wire.
func (f FieldSpec) ExternalName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// location resolves the effective location for a schema of the given mode.
func (f FieldSpec) location(mode BindingMode) FieldLocation {
	if f.In != "" {
		return f.In
	}
	if mode == ModePayload {
		return InBody
	}
	return InQuery
}

// PathField is shorthand for a required string field bound from the path.
func PathField(name string) FieldSpec {
	return FieldSpec{Name: name, Type: FieldTypeString, In: InPath, Required: true}
}

// ObjectField is shorthand for a body-bound object field.
func ObjectField(name string, required bool) FieldSpec {
	return FieldSpec{Name: name, Type: FieldTypeObject, In: InBody, Required: required}
}
