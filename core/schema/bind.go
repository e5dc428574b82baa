package schema

import (
	"encoding/json"
	"fmt"
)

// ComposedRequest is the concrete bound value produced at request time
// from a RequestSchema plus transport input. It is request-local and
// discarded after the response is sent.
type ComposedRequest struct {
	schema *RequestSchema
	values map[string]any // attribute projection, plus path values in payload mode
	object map[string]any // validated body object, payload mode only
}

// Schema returns the schema this request was bound against.
func (r *ComposedRequest) Schema() *RequestSchema { return r.schema }

// Kwargs projects the bound values back to field-name/value pairs.
// For attribute schemas this is the full projection handlers are
// invoked with; for payload schemas it carries the path values only.
func (r *ComposedRequest) Kwargs() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Object returns the single structured object bound from the body.
// Nil for attribute schemas.
func (r *ComposedRequest) Object() map[string]any { return r.object }

// Get looks a bound value up by field name.
func (r *ComposedRequest) Get(name string) any {
	if v, ok := r.values[name]; ok {
		return v
	}
	if r.object != nil {
		return r.object[name]
	}
	return nil
}

// PathValue is a transport accessor for one named path segment.
// Returns the empty string when the segment is absent.
type PathValue func(name string) string

// QueryValue is a transport accessor for one named query parameter.
type QueryValue func(name string) (string, bool)

// BindAttributes binds an attribute-mode schema from path and query
// parameters. Constraint violations are collected per field and
// returned together as a *ValidationError.
func (s *RequestSchema) BindAttributes(path PathValue, query QueryValue) (*ComposedRequest, error) {
	if s.mode != ModeAttribute {
		return nil, fmt.Errorf("schema %s: BindAttributes on %s schema", s.name, s.mode)
	}

	verr := &ValidationError{}
	values := make(map[string]any, len(s.order))

	for _, f := range s.Fields() {
		var raw string
		var present bool
		switch f.location(s.mode) {
		case InPath:
			raw = path(f.ExternalName())
			present = raw != ""
		default:
			raw, present = query(f.ExternalName())
		}

		if !present {
			if f.Required {
				verr.add(f.Name, "required", nil, "is required")
				continue
			}
			values[f.Name] = f.Default
			continue
		}

		val, err := convertQuery(f, raw)
		if err != nil {
			verr.add(f.Name, "type", raw, err.Error())
			continue
		}
		values[f.Name] = applyConstraints(f, val, verr)
	}

	runChecks(s.checks, values, verr)
	if !verr.empty() {
		return nil, verr
	}
	return &ComposedRequest{schema: s, values: values}, nil
}

// BindPayload binds a payload-mode schema from the request body plus
// any path-bound identifiers. When the schema has exactly one body
// field the whole body binds to it; otherwise the body must be a JSON
// object whose members bind field by field.
func (s *RequestSchema) BindPayload(path PathValue, body []byte) (*ComposedRequest, error) {
	if s.mode != ModePayload {
		return nil, fmt.Errorf("schema %s: BindPayload on %s schema", s.name, s.mode)
	}

	verr := &ValidationError{}
	values := make(map[string]any)

	for _, f := range s.PathFields() {
		raw := path(f.ExternalName())
		if raw == "" {
			if f.Required {
				verr.add(f.Name, "required", nil, "is required")
			} else {
				values[f.Name] = f.Default
			}
			continue
		}
		values[f.Name] = raw
	}

	var decoded any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &decoded); err != nil {
			verr.add("body", "syntax", nil, "request body is not valid JSON")
			return nil, verr
		}
	}
	object := s.bindBody(decoded, verr)

	merged := make(map[string]any, len(values)+len(object))
	for k, v := range values {
		merged[k] = v
	}
	for k, v := range object {
		merged[k] = v
	}
	runChecks(s.checks, merged, verr)

	if !verr.empty() {
		return nil, verr
	}
	return &ComposedRequest{schema: s, values: values, object: object}, nil
}

func (s *RequestSchema) bindBody(decoded any, verr *ValidationError) map[string]any {
	fields := s.bodyFields()

	// A single body field consumes the whole body, matching the
	// one-object handler invocation shape.
	if len(fields) == 1 {
		f := fields[0]
		if decoded == nil {
			if f.Required {
				verr.add(f.Name, "required", nil, "request body is required")
			}
			return map[string]any{f.Name: nil}
		}
		return map[string]any{f.Name: bindObjectField(f, decoded, verr)}
	}

	obj, _ := decoded.(map[string]any)
	if obj == nil {
		obj = map[string]any{}
	}

	object := make(map[string]any, len(fields))
	for _, f := range fields {
		raw, present := obj[f.ExternalName()]
		if !present {
			if f.Required {
				verr.add(f.Name, "required", nil, "is required")
				continue
			}
			object[f.Name] = f.Default
			continue
		}
		object[f.Name] = bindObjectField(f, raw, verr)
	}
	return object
}

// bindObjectField converts one decoded body value, recursing into a
// nested schema for object fields that declare one.
func bindObjectField(f FieldSpec, raw any, verr *ValidationError) any {
	if f.Type == FieldTypeObject && f.Schema != nil {
		obj, ok := raw.(map[string]any)
		if !ok {
			verr.add(f.Name, "type", raw, "must be an object")
			return nil
		}
		nested := &ValidationError{}
		bound := f.Schema.bindBody(obj, nested)
		runChecks(f.Schema.checks, bound, nested)
		for _, fe := range nested.Fields {
			fe.Field = f.Name + "." + fe.Field
			verr.Fields = append(verr.Fields, fe)
		}
		return bound
	}

	val, err := convertBody(f, raw)
	if err != nil {
		verr.add(f.Name, "type", raw, err.Error())
		return nil
	}
	return applyConstraints(f, val, verr)
}

func applyConstraints(f FieldSpec, val any, verr *ValidationError) any {
	for _, c := range f.Constraints {
		next, fe := validateConstraint(f.Name, val, c)
		if fe != nil {
			verr.Fields = append(verr.Fields, *fe)
			continue
		}
		val = next
	}
	return val
}

func runChecks(checks []CheckFunc, values map[string]any, verr *ValidationError) {
	for _, check := range checks {
		if fe := check(values); fe != nil {
			verr.Fields = append(verr.Fields, *fe)
		}
	}
}
