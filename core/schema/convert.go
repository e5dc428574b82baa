package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Interval is a bound datetime filter: a single instant (Start ==
// End), a closed interval, or an interval open at either end (nil).
type Interval struct {
	Start *time.Time
	End   *time.Time
}

// SplitList converts a comma separated string to a list.
func SplitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// ParseBBox parses a comma separated bounding box and validates
// coordinate order and WGS84 bounds. Four values are xmin, ymin, xmax,
// ymax; six values add a minimum and maximum elevation.
func ParseBBox(raw string) ([]float64, error) {
	parts := SplitList(raw)
	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox coordinate %q", p)
		}
		vals = append(vals, v)
	}
	if err := ValidateBBox(vals); err != nil {
		return nil, err
	}
	return vals, nil
}

// ValidateBBox checks coordinate count, axis order and WGS84 bounds.
func ValidateBBox(v []float64) error {
	var xmin, ymin, xmax, ymax float64
	switch len(v) {
	case 4:
		xmin, ymin, xmax, ymax = v[0], v[1], v[2], v[3]
	case 6:
		xmin, ymin, xmax, ymax = v[0], v[1], v[3], v[4]
		if v[5] < v[2] {
			return errors.New("maximum elevation must be greater than minimum elevation")
		}
	default:
		return fmt.Errorf("bbox must have 4 or 6 coordinates, got %d", len(v))
	}
	if xmax < xmin {
		return errors.New("maximum longitude must be greater than minimum longitude")
	}
	if ymax < ymin {
		return errors.New("maximum latitude must be greater than minimum latitude")
	}
	if xmin < -180 || ymin < -90 || xmax > 180 || ymax > 90 {
		return errors.New("bounding box must be within (-180, -90, 180, 90)")
	}
	return nil
}

// ParseInterval parses an RFC 3339 instant or a "start/end" interval
// where either side may be ".." or empty for an open end.
func ParseInterval(raw string) (Interval, error) {
	if raw == "" {
		return Interval{}, errors.New("empty datetime")
	}
	if !strings.Contains(raw, "/") {
		t, err := parseRFC3339(raw)
		if err != nil {
			return Interval{}, err
		}
		return Interval{Start: &t, End: &t}, nil
	}

	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		return Interval{}, fmt.Errorf("invalid interval %q", raw)
	}
	var iv Interval
	if !openEnded(parts[0]) {
		t, err := parseRFC3339(parts[0])
		if err != nil {
			return Interval{}, err
		}
		iv.Start = &t
	}
	if !openEnded(parts[1]) {
		t, err := parseRFC3339(parts[1])
		if err != nil {
			return Interval{}, err
		}
		iv.End = &t
	}
	if iv.Start == nil && iv.End == nil {
		return Interval{}, errors.New("interval cannot be open at both ends")
	}
	if iv.Start != nil && iv.End != nil && iv.End.Before(*iv.Start) {
		return Interval{}, errors.New("interval end must not precede start")
	}
	return iv, nil
}

func openEnded(s string) bool { return s == "" || s == ".." }

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid RFC 3339 datetime %q", s)
	}
	return t, nil
}

// convertQuery converts a raw path or query string into the field's type.
func convertQuery(f FieldSpec, raw string) (any, error) {
	switch f.Type {
	case FieldTypeString:
		return raw, nil
	case FieldTypeInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("must be an integer")
		}
		return v, nil
	case FieldTypeFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		return v, nil
	case FieldTypeBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("must be a boolean")
		}
		return v, nil
	case FieldTypeStrings:
		return SplitList(raw), nil
	case FieldTypeBBox:
		return ParseBBox(raw)
	case FieldTypeInterval:
		return ParseInterval(raw)
	default:
		return nil, fmt.Errorf("type %s cannot bind from a %s parameter", f.Type, f.location(ModeAttribute))
	}
}

// convertBody converts a decoded JSON value into the field's type.
func convertBody(f FieldSpec, raw any) (any, error) {
	switch f.Type {
	case FieldTypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("must be a string")
		}
		return s, nil
	case FieldTypeInt:
		switch n := raw.(type) {
		case float64:
			if n != float64(int(n)) {
				return nil, errors.New("must be an integer")
			}
			return int(n), nil
		case int:
			return n, nil
		}
		return nil, errors.New("must be an integer")
	case FieldTypeFloat:
		n, ok := asFloat64(raw)
		if !ok {
			return nil, errors.New("must be a number")
		}
		return n, nil
	case FieldTypeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, errors.New("must be a boolean")
		}
		return b, nil
	case FieldTypeStrings:
		return toStringSlice(raw)
	case FieldTypeBBox:
		if s, ok := raw.(string); ok {
			return ParseBBox(s)
		}
		vals, err := toFloatSlice(raw)
		if err != nil {
			return nil, err
		}
		if err := ValidateBBox(vals); err != nil {
			return nil, err
		}
		return vals, nil
	case FieldTypeInterval:
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("must be an RFC 3339 datetime or interval string")
		}
		return ParseInterval(s)
	case FieldTypeGeometry:
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, errors.New("must be a GeoJSON geometry object")
		}
		if _, ok := obj["type"].(string); !ok {
			return nil, errors.New("geometry requires a type member")
		}
		return obj, nil
	case FieldTypeObject:
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, errors.New("must be an object")
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported field type %s", f.Type)
	}
}

func toStringSlice(raw any) ([]string, error) {
	switch vals := raw.(type) {
	case []string:
		return vals, nil
	case []any:
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			s, ok := v.(string)
			if !ok {
				return nil, errors.New("must be a list of strings")
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errors.New("must be a list of strings")
}

func toFloatSlice(raw any) ([]float64, error) {
	vals, ok := raw.([]any)
	if !ok {
		return nil, errors.New("must be a list of numbers")
	}
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		n, ok := asFloat64(v)
		if !ok {
			return nil, errors.New("must be a list of numbers")
		}
		out = append(out, n)
	}
	return out, nil
}
