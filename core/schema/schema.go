// Package schema composes and binds request schemas.
//
// A RequestSchema is built once at startup from a base schema plus the
// fragments contributed by extensions and mixins, and is shared
// read-only across requests. At request time a schema binds transport
// input into a ComposedRequest, applying defaults, conversions and
// constraints.
package schema

// BindingMode says where a schema's values come from: path/query
// parameters (attribute) or the request body (payload). All fields of
// one schema share the same mode.
type BindingMode string

const (
	// ModeAttribute binds fields from path segments and query parameters.
	ModeAttribute BindingMode = "attribute"

	// ModePayload binds fields from the request body.
	ModePayload BindingMode = "payload"
)

// CheckFunc is a cross-field rule evaluated after individual fields
// bind successfully. It reports a client error, never mutates values.
type CheckFunc func(values map[string]any) *FieldError

// RequestSchema is an ordered set of field specs with one binding
// mode. Schemas are immutable after construction; Compose builds new
// schemas rather than modifying inputs.
type RequestSchema struct {
	name   string
	mode   BindingMode
	order  []string
	fields map[string]FieldSpec
	checks []CheckFunc
}

// New creates a schema from the given fields, in order. Duplicate
// names follow last-wins precedence, same as composition.
func New(name string, mode BindingMode, fields ...FieldSpec) *RequestSchema {
	s := &RequestSchema{
		name:   name,
		mode:   mode,
		fields: make(map[string]FieldSpec, len(fields)),
	}
	for _, f := range fields {
		s.put(f)
	}
	return s
}

// WithCheck returns a copy of the schema with an extra cross-field rule.
func (s *RequestSchema) WithCheck(check CheckFunc) *RequestSchema {
	c := s.clone()
	c.checks = append(c.checks, check)
	return c
}

// Name returns the schema's name, used in logs and error messages.
func (s *RequestSchema) Name() string { return s.name }

// Mode returns the schema's binding mode.
func (s *RequestSchema) Mode() BindingMode { return s.mode }

// Fields returns the field specs in schema order.
func (s *RequestSchema) Fields() []FieldSpec {
	out := make([]FieldSpec, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.fields[name])
	}
	return out
}

// Field returns the spec for a field name.
func (s *RequestSchema) Field(name string) (FieldSpec, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Len returns the number of fields.
func (s *RequestSchema) Len() int { return len(s.order) }

// PathFields returns the fields bound from path segments, in order.
func (s *RequestSchema) PathFields() []FieldSpec {
	var out []FieldSpec
	for _, name := range s.order {
		if f := s.fields[name]; f.location(s.mode) == InPath {
			out = append(out, f)
		}
	}
	return out
}

// bodyFields returns the fields bound from the body, in order.
func (s *RequestSchema) bodyFields() []FieldSpec {
	var out []FieldSpec
	for _, name := range s.order {
		if f := s.fields[name]; f.location(s.mode) == InBody {
			out = append(out, f)
		}
	}
	return out
}

// put inserts or replaces a field. A replaced field keeps its original
// position; the spec itself is replaced wholesale.
func (s *RequestSchema) put(f FieldSpec) {
	if _, exists := s.fields[f.Name]; !exists {
		s.order = append(s.order, f.Name)
	}
	s.fields[f.Name] = f
}

func (s *RequestSchema) clone() *RequestSchema {
	c := &RequestSchema{
		name:   s.name,
		mode:   s.mode,
		order:  append([]string(nil), s.order...),
		fields: make(map[string]FieldSpec, len(s.fields)),
		checks: append([]CheckFunc(nil), s.checks...),
	}
	for k, v := range s.fields {
		c.fields[k] = v
	}
	return c
}
