// Package core provides the record type shared by the generator, the writers and the checker.
package core

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// Column is one named value of a record.
type Column struct {
	Name  string
	Value any
}

// Record is one generated row. Columns keep the order of the schema they were generated
// from, and the JSON encoding preserves that order.
type Record struct {
	Columns []Column
}

// NewRecord returns an empty record with room for n columns.
func NewRecord(n int) Record {
	return Record{Columns: make([]Column, 0, n)}
}

// Append adds a column at the end of the record.
func (r *Record) Append(name string, value any) {
	r.Columns = append(r.Columns, Column{Name: name, Value: value})
}

// Get returns the value of the named column.
func (r Record) Get(name string) (any, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Names returns the column names in order.
func (r Record) Names() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// MarshalJSON encodes the record as a JSON object with keys in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, fmt.Errorf("encoding key %q: %w", c.Name, err)
		}
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding value of %q: %w", c.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the key order of the input.
// Values decode the way encoding/json decodes into any.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object, got %v", tok)
	}

	cols := make([]Column, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decoding value of %q: %w", name, err)
		}
		cols = append(cols, Column{Name: name, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	r.Columns = cols
	return nil
}

// RecordWriter writes generated records to a destination.
type RecordWriter interface {
	// Write appends one record to the destination.
	Write(ctx context.Context, record Record) error

	// Close flushes pending data and releases the destination.
	Close() error
}
