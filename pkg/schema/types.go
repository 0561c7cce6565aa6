// Package schema loads flat "NAME:TYPE" schema files describing generated records.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// TypeTag names the generator used for a field.
type TypeTag string

const (
	Varchar      TypeTag = "VARCHAR"
	Variant      TypeTag = "VARIANT"
	Boolean      TypeTag = "BOOLEAN"
	Float        TypeTag = "FLOAT"
	Array        TypeTag = "ARRAY"
	TimestampNTZ TypeTag = "TIMESTAMP_NTZ"
)

// TypeTags lists the recognized tags in declaration order.
var TypeTags = []TypeTag{Varchar, Variant, Boolean, Float, Array, TimestampNTZ}

// Valid reports whether t is one of the recognized tags. Matching is case-sensitive.
func (t TypeTag) Valid() bool {
	switch t {
	case Varchar, Variant, Boolean, Float, Array, TimestampNTZ:
		return true
	}
	return false
}

func (t TypeTag) String() string {
	return string(t)
}

// Field is one "NAME:TYPE" entry.
type Field struct {
	Name string
	Type TypeTag
}

// Schema is the ordered list of fields making up a record. It is not modified after loading.
type Schema struct {
	fields []Field
	index  map[string]int
}

// New builds a schema from fields. A repeated name keeps its first position and takes
// the type of its last occurrence.
func New(fields ...Field) *Schema {
	s := &Schema{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		s.add(f)
	}
	return s
}

func (s *Schema) add(f Field) {
	if i, ok := s.index[f.Name]; ok {
		s.fields[i].Type = f.Type
		return
	}
	s.index[f.Name] = len(s.fields)
	s.fields = append(s.fields, f)
}

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Len returns the number of distinct fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the type declared for name.
func (s *Schema) Lookup(name string) (TypeTag, bool) {
	i, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.fields[i].Type, true
}

// Unknown returns the fields whose tag is not recognized.
func (s *Schema) Unknown() []Field {
	var out []Field
	for _, f := range s.fields {
		if !f.Type.Valid() {
			out = append(out, f)
		}
	}
	return out
}

// String renders the schema back in file format.
func (s *Schema) String() string {
	var b strings.Builder
	for _, f := range s.fields {
		fmt.Fprintf(&b, "%s:%s\n", f.Name, f.Type)
	}
	return b.String()
}

var (
	// ErrSchemaRead is matched by errors raised when the schema file cannot be opened or read.
	ErrSchemaRead = errors.New("schema file unreadable")

	// ErrMalformedLine is matched by errors raised for lines that are not "NAME:TYPE".
	ErrMalformedLine = errors.New("malformed schema line")
)

// ReadError reports a schema file that could not be opened or read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading schema %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() []error {
	return []error{ErrSchemaRead, e.Err}
}

// MalformedLineError reports a schema line without a "NAME:TYPE" shape.
type MalformedLineError struct {
	Line int
	Text string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("schema line %d: expected NAME:TYPE, got %q", e.Line, e.Text)
}

func (e *MalformedLineError) Unwrap() error {
	return ErrMalformedLine
}
