package schema

import "fmt"

// CompositionError reports that the inputs to a composition do not
// homogeneously satisfy one binding mode. It is raised at startup and
// is fatal for the route being composed; it is never retried.
type CompositionError struct {
	Schema string      // name of the schema being composed
	Input  string      // name of the offending input
	Want   BindingMode // mode requested by the caller
	Got    BindingMode // mode of the offending input
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("compose %s: input %s has %s binding, want %s",
		e.Schema, e.Input, e.Got, e.Want)
}

// Compose merges a base schema with extension and mixin fragments into
// one request schema. Inputs are processed in order [base,
// extensions..., mixins...]; when a later input redefines a field the
// later FieldSpec fully replaces the earlier one, constraints and all.
// Nil inputs are skipped. Every input must carry the requested binding
// mode or the composition fails.
func Compose(name string, base *RequestSchema, extensions, mixins []*RequestSchema, mode BindingMode) (*RequestSchema, error) {
	inputs := make([]*RequestSchema, 0, 1+len(extensions)+len(mixins))
	if base != nil {
		inputs = append(inputs, base)
	}
	for _, e := range extensions {
		if e != nil {
			inputs = append(inputs, e)
		}
	}
	for _, m := range mixins {
		if m != nil {
			inputs = append(inputs, m)
		}
	}

	merged := &RequestSchema{
		name:   name,
		mode:   mode,
		fields: make(map[string]FieldSpec),
	}
	for _, in := range inputs {
		if in.mode != mode {
			return nil, &CompositionError{Schema: name, Input: in.name, Want: mode, Got: in.mode}
		}
		for _, f := range in.Fields() {
			merged.put(f)
		}
		merged.checks = append(merged.checks, in.checks...)
	}
	return merged, nil
}

// ComposeWithPathParameter merges payload inputs like Compose and
// additionally attaches a path-bound catalog identifier. With
// full=false the merged payload schema is returned alone, for further
// composition by the caller. With full=true the result is a wrapper
// schema combining the path parameter and the payload schema as one
// request object: the body validates against the merged schema and is
// exposed to handlers under the wrap field name.
func ComposeWithPathParameter(name string, base *RequestSchema, extensions, mixins []*RequestSchema, pathParam, wrapField string, full bool) (*RequestSchema, error) {
	merged, err := Compose(name, base, extensions, mixins, ModePayload)
	if err != nil {
		return nil, err
	}
	if !full {
		return merged, nil
	}

	wrapper := New(name, ModePayload,
		PathField(pathParam),
		FieldSpec{Name: wrapField, Type: FieldTypeObject, In: InBody, Schema: merged},
	)
	return wrapper, nil
}
