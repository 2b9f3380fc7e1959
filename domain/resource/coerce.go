package resource

import (
	"fmt"
	"math"
	"strconv"
)

// UnknownFieldError reports a key that does not name a declared field.
type UnknownFieldError struct {
	Resource string
	Field    string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("resource %q has no field %q", e.Resource, e.Field)
}

// CoercionError reports a value that cannot be coerced to a field's declared
// type.
type CoercionError struct {
	Field string
	Type  Type
	Value any
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field %q: cannot coerce %v to %s", e.Field, e.Value, e.Type)
}

// Coerce converts v to the field's declared primitive representation:
// string, int64, float64, or bool. It accepts raw query-parameter strings,
// JSON-decoded values, and driver-native numeric widths. nil passes through.
func (f Field) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case TypeInt:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case float64:
			if n == math.Trunc(n) {
				return int64(n), nil
			}
		case string:
			if i, err := strconv.ParseInt(n, 10, 64); err == nil {
				return i, nil
			}
		}
	case TypeFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case string:
			if x, err := strconv.ParseFloat(n, 64); err == nil {
				return x, nil
			}
		}
	case TypeBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case int64:
			return b != 0, nil
		case string:
			if x, err := strconv.ParseBool(b); err == nil {
				return x, nil
			}
		}
	}
	return nil, &CoercionError{Field: f.Name, Type: f.Type, Value: v}
}

// CoercePayload coerces every field present in payload against the schema.
// Keys that do not name a declared field fail with UnknownFieldError; values
// of the wrong type fail with CoercionError.
func (s Schema) CoercePayload(payload map[string]any) (Record, error) {
	out := make(Record, len(payload))
	for k, v := range payload {
		f, ok := s.Field(k)
		if !ok {
			return nil, &UnknownFieldError{Resource: s.Name, Field: k}
		}
		cv, err := f.Coerce(v)
		if err != nil {
			return nil, err
		}
		out[k] = cv
	}
	return out, nil
}

// MissingRequired returns the names of required create fields absent from
// the payload. The primary key is never required: the store assigns one when
// it is missing.
func (s Schema) MissingRequired(payload Record) []string {
	var missing []string
	for _, f := range s.Fields {
		if !f.Required || f.Name == s.PrimaryKey {
			continue
		}
		if v, ok := payload[f.Name]; !ok || v == nil {
			missing = append(missing, f.Name)
		}
	}
	return missing
}
