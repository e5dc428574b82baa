package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Constraint defines a validation rule for a field.
type Constraint struct {
	// Type is the constraint type (min, max, min_length, max_length, pattern, one_of, clamp_max).
	Type ConstraintType

	// Value is the constraint parameter (number, regex pattern, list of choices).
	Value any

	// Message is the custom error message (optional).
	Message string
}

// ConstraintType identifies the type of constraint.
type ConstraintType string

const (
	// Numeric constraints
	ConstraintMin      ConstraintType = "min"       // Minimum numeric value
	ConstraintMax      ConstraintType = "max"       // Maximum numeric value
	ConstraintClampMax ConstraintType = "clamp_max" // Values above the bound are reduced to it, not rejected

	// String constraints
	ConstraintMinLength ConstraintType = "min_length" // Minimum string length
	ConstraintMaxLength ConstraintType = "max_length" // Maximum string length
	ConstraintPattern   ConstraintType = "pattern"    // Regex pattern match

	// Choice constraints
	ConstraintOneOf ConstraintType = "one_of" // Value must be one of a list
)

// FieldError represents a single field validation failure.
type FieldError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint,omitempty"`
	Value      any    `json:"value,omitempty"`
	Message    string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError holds all field failures for one bound request.
// It is a client error: the server surfaces it as a 400 and carries on.
type ValidationError struct {
	Fields []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(field, constraint string, value any, message string) {
	e.Fields = append(e.Fields, FieldError{
		Field:      field,
		Constraint: constraint,
		Value:      value,
		Message:    message,
	})
}

func (e *ValidationError) empty() bool { return len(e.Fields) == 0 }

// validateConstraint validates a value against a single constraint.
// A clamp_max constraint may return a replacement value instead of an
// error. Pure function.
func validateConstraint(fieldName string, value any, c Constraint) (any, *FieldError) {
	switch c.Type {
	case ConstraintMin:
		return value, validateMin(fieldName, value, c)
	case ConstraintMax:
		return value, validateMax(fieldName, value, c)
	case ConstraintClampMax:
		return clampMax(value, c), nil
	case ConstraintMinLength:
		return value, validateMinLength(fieldName, value, c)
	case ConstraintMaxLength:
		return value, validateMaxLength(fieldName, value, c)
	case ConstraintPattern:
		return value, validatePattern(fieldName, value, c)
	case ConstraintOneOf:
		return value, validateOneOf(fieldName, value, c)
	default:
		return value, nil
	}
}

func validateMin(field string, value any, c Constraint) *FieldError {
	bound, ok := asFloat64(c.Value)
	if !ok {
		return nil // Invalid constraint config, skip
	}
	val, ok := asFloat64(value)
	if !ok {
		return nil
	}
	if val < bound {
		msg := c.Message
		if msg == "" {
			msg = fmt.Sprintf("must be at least %v", c.Value)
		}
		return &FieldError{Field: field, Constraint: "min", Value: value, Message: msg}
	}
	return nil
}

func validateMax(field string, value any, c Constraint) *FieldError {
	bound, ok := asFloat64(c.Value)
	if !ok {
		return nil
	}
	val, ok := asFloat64(value)
	if !ok {
		return nil
	}
	if val > bound {
		msg := c.Message
		if msg == "" {
			msg = fmt.Sprintf("must be at most %v", c.Value)
		}
		return &FieldError{Field: field, Constraint: "max", Value: value, Message: msg}
	}
	return nil
}

// clampMax reduces values above the bound to the bound itself. Used by
// the limit parameter, which silently caps rather than rejecting.
func clampMax(value any, c Constraint) any {
	bound, ok := asFloat64(c.Value)
	if !ok {
		return value
	}
	val, ok := asFloat64(value)
	if !ok {
		return value
	}
	if val > bound {
		if _, isInt := value.(int); isInt {
			return int(bound)
		}
		return bound
	}
	return value
}

func validateMinLength(field string, value any, c Constraint) *FieldError {
	minLen, ok := asInt(c.Value)
	if !ok {
		return nil
	}
	str, ok := value.(string)
	if !ok {
		return nil
	}
	if len(str) < minLen {
		msg := c.Message
		if msg == "" {
			msg = fmt.Sprintf("must be at least %d characters", minLen)
		}
		return &FieldError{Field: field, Constraint: "min_length", Value: len(str), Message: msg}
	}
	return nil
}

func validateMaxLength(field string, value any, c Constraint) *FieldError {
	maxLen, ok := asInt(c.Value)
	if !ok {
		return nil
	}
	str, ok := value.(string)
	if !ok {
		return nil
	}
	if len(str) > maxLen {
		msg := c.Message
		if msg == "" {
			msg = fmt.Sprintf("must be at most %d characters", maxLen)
		}
		return &FieldError{Field: field, Constraint: "max_length", Value: len(str), Message: msg}
	}
	return nil
}

func validatePattern(field string, value any, c Constraint) *FieldError {
	pattern, ok := c.Value.(string)
	if !ok {
		return nil
	}
	str, ok := value.(string)
	if !ok {
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil // Invalid regex, skip
	}
	if !re.MatchString(str) {
		msg := c.Message
		if msg == "" {
			msg = "does not match required pattern"
		}
		return &FieldError{Field: field, Constraint: "pattern", Value: value, Message: msg}
	}
	return nil
}

func validateOneOf(field string, value any, c Constraint) *FieldError {
	var allowed []any
	switch vals := c.Value.(type) {
	case []any:
		allowed = vals
	case []string:
		allowed = make([]any, len(vals))
		for i, v := range vals {
			allowed[i] = v
		}
	default:
		return nil
	}

	strVal := fmt.Sprintf("%v", value)
	for _, a := range allowed {
		if fmt.Sprintf("%v", a) == strVal {
			return nil
		}
	}

	msg := c.Message
	if msg == "" {
		var options []string
		for _, v := range allowed {
			options = append(options, fmt.Sprintf("%v", v))
		}
		msg = "must be one of: " + strings.Join(options, ", ")
	}
	return &FieldError{Field: field, Constraint: "one_of", Value: value, Message: msg}
}

// asFloat64 converts numeric values to float64.
func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

// asInt converts numeric values to int.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
