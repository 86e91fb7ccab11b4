package models

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
)

// FieldType is the declared storage type of a record attribute.
type FieldType string

// Supported field types.
const (
	FieldBoolean FieldType = "boolean"
	FieldString  FieldType = "string"
	FieldInteger FieldType = "integer"
	FieldNumber  FieldType = "number"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case FieldBoolean, FieldString, FieldInteger, FieldNumber:
		return true
	}

	return false
}

// IDType is the declared type of a resource's primary key.
type IDType string

// Supported id types.
const (
	IDInteger IDType = "integer"
	IDUUID    IDType = "uuid"
	IDString  IDType = "string"
)

// identifierPattern matches SQL identifiers the record store is willing to quote.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// ValidIdentifier reports whether s is safe to use as a table or column name.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// Schema describes one resource type: where its records live and which
// attributes they carry.
type Schema struct {
	Key           string
	Table         string
	IDColumn      string
	IDType        IDType
	SingularLabel string
	Timestamps    bool
	Fields        map[string]FieldType
	// LabelFields are extra columns loaded only to build labels. They can
	// never be toggled.
	LabelFields   []string
}

// Field returns the declared type of an attribute.
func (s *Schema) Field(name string) (FieldType, bool) {
	t, ok := s.Fields[name]
	return t, ok
}

// FieldNames returns the declared attribute names in stable order.
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for n := range s.Fields {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

// ReadColumns returns every column loaded for a record: declared fields, then
// label-only columns not already declared, each group sorted.
func (s *Schema) ReadColumns() []string {
	cols := s.FieldNames()

	extra := make([]string, 0, len(s.LabelFields))
	for _, n := range s.LabelFields {
		if _, declared := s.Fields[n]; declared || slices.Contains(extra, n) {
			continue
		}
		extra = append(extra, n)
	}

	sort.Strings(extra)

	return append(cols, extra...)
}

// Encode converts a toggled boolean into the value written to the column.
func (s *Schema) Encode(field string, b bool) Value {
	t, _ := s.Field(field)

	switch t {
	case FieldInteger:
		if b {
			return Int(1)
		}
		return Int(0)
	case FieldNumber:
		if b {
			return Float(1)
		}
		return Float(0)
	case FieldString:
		if b {
			return String("1")
		}
		return String("0")
	default:
		return Bool(b)
	}
}

// Validate checks that the schema is usable by the record store.
func (s *Schema) Validate() error {
	if s.Key == "" {
		return fmt.Errorf("resource key is required")
	}

	if !ValidIdentifier(s.Table) {
		return fmt.Errorf("resource %q: invalid table name %q", s.Key, s.Table)
	}

	if !ValidIdentifier(s.IDColumn) {
		return fmt.Errorf("resource %q: invalid id column %q", s.Key, s.IDColumn)
	}

	switch s.IDType {
	case IDInteger, IDUUID, IDString:
	default:
		return fmt.Errorf("resource %q: id_type must be integer, uuid or string, got %q", s.Key, s.IDType)
	}

	if s.SingularLabel == "" {
		return fmt.Errorf("resource %q: singular_label is required", s.Key)
	}

	if len(s.Fields) == 0 {
		return fmt.Errorf("resource %q: at least one field is required", s.Key)
	}

	for name, t := range s.Fields {
		if !ValidIdentifier(name) {
			return fmt.Errorf("resource %q: invalid field name %q", s.Key, name)
		}
		if name == s.IDColumn {
			return fmt.Errorf("resource %q: field %q shadows the id column", s.Key, name)
		}
		if !t.Valid() {
			return fmt.Errorf("resource %q: field %q has unknown type %q", s.Key, name, t)
		}
	}

	for _, name := range s.LabelFields {
		if !ValidIdentifier(name) {
			return fmt.Errorf("resource %q: invalid label field %q", s.Key, name)
		}
		if name == s.IDColumn {
			return fmt.Errorf("resource %q: label field %q shadows the id column", s.Key, name)
		}
	}

	return nil
}
