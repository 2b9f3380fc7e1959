// Package resource provides runtime schema descriptions for CRUD resources
// and pure value coercion against them. This package has NO dependencies on
// I/O or external packages.
package resource

import (
	"fmt"
	"strings"
)

// Type is the primitive type of a field.
type Type string

const (
	TypeString Type = "string"
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeBool   Type = "bool"
)

// Valid reports whether the type is a known primitive.
func (t Type) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool:
		return true
	}
	return false
}

// Field describes one column of a resource.
type Field struct {
	Name     string
	Type     Type
	Required bool   // must be present in create payloads
	Unique   bool   // uniqueness constraint beyond the primary key
	Refs     string // "table.column" reference, enforced by SQL backends only
}

// Schema describes the shape of one resource: field names and types, which
// fields are required on create, and which single field is the primary key.
// A Schema is immutable after Validate.
type Schema struct {
	Name       string // singular resource name, e.g. "potato"
	Prefix     string // route prefix override; empty means pluralized Name
	PrimaryKey string
	Fields     []Field
}

// Validate checks the schema once at construction time. Misconfiguration is
// fatal and never reaches request handling.
func (s Schema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("resource: name is required")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("resource %q: at least one field is required", s.Name)
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("resource %q: field with empty name", s.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("resource %q: duplicate field %q", s.Name, f.Name)
		}
		seen[f.Name] = true
		if !f.Type.Valid() {
			return fmt.Errorf("resource %q: field %q has unknown type %q", s.Name, f.Name, f.Type)
		}
	}
	if s.PrimaryKey == "" {
		return fmt.Errorf("resource %q: primary key is required", s.Name)
	}
	pk, ok := s.Field(s.PrimaryKey)
	if !ok {
		return fmt.Errorf("resource %q: primary key %q is not a declared field", s.Name, s.PrimaryKey)
	}
	switch pk.Type {
	case TypeString, TypeInt:
	default:
		return fmt.Errorf("resource %q: primary key %q must be string or int, got %q", s.Name, s.PrimaryKey, pk.Type)
	}
	return nil
}

// Field looks up a declared field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// PrimaryKeyField returns the primary key field. The schema must have been
// validated.
func (s Schema) PrimaryKeyField() Field {
	f, _ := s.Field(s.PrimaryKey)
	return f
}

// RoutePrefix returns the route prefix: the explicit Prefix if set, otherwise
// the pluralized resource name.
func (s Schema) RoutePrefix() string {
	if s.Prefix != "" {
		return strings.Trim(s.Prefix, "/")
	}
	return Pluralize(s.Name)
}

// Pluralize returns the plural form of an English noun. Only the regular
// cases are handled; irregular nouns take an explicit prefix instead.
func Pluralize(name string) string {
	switch {
	case name == "":
		return ""
	case strings.HasSuffix(name, "s"), strings.HasSuffix(name, "x"),
		strings.HasSuffix(name, "z"), strings.HasSuffix(name, "ch"),
		strings.HasSuffix(name, "sh"):
		return name + "es"
	case strings.HasSuffix(name, "y") && len(name) > 1 && !isVowel(name[len(name)-2]):
		return name[:len(name)-1] + "ies"
	default:
		return name + "s"
	}
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
