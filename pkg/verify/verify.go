// Package verify checks generated output against the schema and generation parameters
// it was produced with.
package verify

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/config"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/core"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/schema"
)

// Violation is one failed property. Line is 1-based; 0 refers to the file as a whole.
type Violation struct {
	Line    int    `json:"line"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	switch {
	case v.Line == 0:
		return v.Message
	case v.Field == "":
		return fmt.Sprintf("line %d: %s", v.Line, v.Message)
	default:
		return fmt.Sprintf("line %d: field %q: %s", v.Line, v.Field, v.Message)
	}
}

// Report is the outcome of a check.
type Report struct {
	Rows       int         `json:"rows"`
	Violations []Violation `json:"violations"`
}

// OK reports whether no violation was found.
func (r Report) OK() bool {
	return len(r.Violations) == 0
}

// Summary renders the report for humans.
func (r Report) Summary() string {
	var b strings.Builder
	if r.OK() {
		fmt.Fprintf(&b, "%d rows checked, no violations\n", r.Rows)
		return b.String()
	}
	fmt.Fprintf(&b, "%d rows checked, %d violations\n", r.Rows, len(r.Violations))
	for _, v := range r.Violations {
		fmt.Fprintf(&b, "  - %s\n", v)
	}
	return b.String()
}

// Checker validates lines of generated output.
type Checker struct {
	Schema *schema.Schema
	Params config.Params

	// ExpectRows, when non-negative, is the required number of lines.
	ExpectRows int

	// MaxViolations stops the check early once reached; 0 means no limit.
	MaxViolations int
}

// NewChecker returns a checker that does not enforce a row count.
func NewChecker(s *schema.Schema, params config.Params) *Checker {
	return &Checker{Schema: s, Params: params, ExpectRows: -1}
}

// Check reads r line by line. The returned error covers read failures only; property
// failures are reported as violations.
func (c *Checker) Check(r io.Reader) (Report, error) {
	var rep Report
	names := c.Schema.Names()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		if c.full(rep) {
			break
		}
		rep.Rows++
		rep.Violations = append(rep.Violations, c.checkLine(rep.Rows, scanner.Bytes(), names)...)
	}
	if err := scanner.Err(); err != nil {
		return rep, fmt.Errorf("reading generated data: %w", err)
	}

	if c.ExpectRows >= 0 && rep.Rows != c.ExpectRows && !c.full(rep) {
		rep.Violations = append(rep.Violations, Violation{
			Message: fmt.Sprintf("expected %d rows, found %d", c.ExpectRows, rep.Rows),
		})
	}

	return rep, nil
}

func (c *Checker) full(rep Report) bool {
	return c.MaxViolations > 0 && len(rep.Violations) >= c.MaxViolations
}

func (c *Checker) checkLine(line int, data []byte, names []string) []Violation {
	var wrapped []core.Record
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return []Violation{{Line: line, Message: fmt.Sprintf("not a JSON array of objects: %v", err)}}
	}
	if len(wrapped) != 1 {
		return []Violation{{Line: line, Message: fmt.Sprintf("expected a single-element array, got %d elements", len(wrapped))}}
	}

	rec := wrapped[0]
	if got := rec.Names(); !slices.Equal(got, names) {
		return []Violation{{Line: line, Message: fmt.Sprintf("keys %v do not match schema %v", got, names)}}
	}

	var out []Violation
	for _, col := range rec.Columns {
		tag, _ := c.Schema.Lookup(col.Name)
		if msg := c.checkValue(tag, col.Value); msg != "" {
			out = append(out, Violation{Line: line, Field: col.Name, Message: msg})
		}
	}
	return out
}

func (c *Checker) checkValue(tag schema.TypeTag, v any) string {
	switch tag {
	case schema.Varchar, schema.Variant:
		return c.checkString(v)
	case schema.Boolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("expected a boolean, got %T", v)
		}
	case schema.Float:
		f, ok := v.(float64)
		if !ok {
			return fmt.Sprintf("expected a number, got %T", v)
		}
		if f < c.Params.Float.Min || f > c.Params.Float.Max {
			return fmt.Sprintf("%g outside [%g, %g]", f, c.Params.Float.Min, c.Params.Float.Max)
		}
	case schema.Array:
		items, ok := v.([]any)
		if !ok {
			return fmt.Sprintf("expected an array, got %T", v)
		}
		if n := len(items); n < c.Params.ArrayLength.Min || n > c.Params.ArrayLength.Max {
			return fmt.Sprintf("array length %d outside [%d, %d]", n, c.Params.ArrayLength.Min, c.Params.ArrayLength.Max)
		}
		for i, item := range items {
			if msg := c.checkString(item); msg != "" {
				return fmt.Sprintf("element %d: %s", i, msg)
			}
		}
	case schema.TimestampNTZ:
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("expected a timestamp string, got %T", v)
		}
		at, err := time.Parse(c.Params.TimestampFmt, s)
		if err != nil {
			return fmt.Sprintf("timestamp %q does not match layout %s", s, c.Params.TimestampFmt)
		}
		// The layout drops seconds, so compare against the start truncated to the minute.
		if at.Before(c.Params.TimestampStart.Truncate(time.Minute)) || !at.Before(c.Params.TimestampEnd) {
			return fmt.Sprintf("timestamp %s outside [%s, %s)", s,
				c.Params.TimestampStart.Format(config.DateTimeLayout), c.Params.TimestampEnd.Format(config.DateTimeLayout))
		}
	default:
		return fmt.Sprintf("unknown type %q", string(tag))
	}
	return ""
}

func (c *Checker) checkString(v any) string {
	s, ok := v.(string)
	if !ok {
		return fmt.Sprintf("expected a string, got %T", v)
	}
	n := len([]rune(s))
	if n < c.Params.StringLength.Min || n > c.Params.StringLength.Max {
		return fmt.Sprintf("string length %d outside [%d, %d]", n, c.Params.StringLength.Min, c.Params.StringLength.Max)
	}
	for _, r := range s {
		if !strings.ContainsRune(c.Params.Alphabet, r) {
			return fmt.Sprintf("character %q not in alphabet", r)
		}
	}
	return ""
}
