package schema

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Metadata keys attached to projected Arrow fields.
const (
	MetaType   = "datagen.type"
	MetaLayout = "datagen.layout"
)

// ArrowType returns the Arrow type a value generated for t decodes to.
// TIMESTAMP_NTZ values are written as formatted text, so they project to utf8.
func ArrowType(t TypeTag) (arrow.DataType, error) {
	switch t {
	case Varchar, Variant, TimestampNTZ:
		return arrow.BinaryTypes.String, nil
	case Boolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case Float:
		return arrow.PrimitiveTypes.Float64, nil
	case Array:
		return arrow.ListOf(arrow.BinaryTypes.String), nil
	default:
		return nil, fmt.Errorf("field type %q has no arrow mapping", string(t))
	}
}

// Arrow projects the schema onto an Arrow schema. Every field is non-nullable since the
// generator never emits nulls. timestampLayout is recorded on TIMESTAMP_NTZ fields.
func (s *Schema) Arrow(timestampLayout string) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, len(s.fields))
	for _, f := range s.fields {
		dt, err := ArrowType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}

		keys := []string{MetaType}
		values := []string{string(f.Type)}
		if f.Type == TimestampNTZ {
			keys = append(keys, MetaLayout)
			values = append(values, timestampLayout)
		}

		fields = append(fields, arrow.Field{
			Name:     f.Name,
			Type:     dt,
			Nullable: false,
			Metadata: arrow.NewMetadata(keys, values),
		})
	}
	return arrow.NewSchema(fields, nil), nil
}

// Describe renders a human-readable listing of the Arrow projection.
func Describe(as *arrow.Schema) string {
	var b strings.Builder
	b.WriteString("Schema:\n")
	for i, f := range as.Fields() {
		tag, _ := f.Metadata.GetValue(MetaType)
		fmt.Fprintf(&b, "  %d. %s: %s (%s)", i+1, f.Name, f.Type, tag)
		if layout, ok := f.Metadata.GetValue(MetaLayout); ok {
			fmt.Fprintf(&b, " layout=%s", layout)
		}
		b.WriteString("\n")
	}
	return b.String()
}
