// Package generator produces random values for schema fields.
//
// A Generator owns its random source, so two generators built with the same non-zero
// seed produce identical sequences. It is not safe for concurrent use.
package generator

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/config"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/core"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/schema"
)

// ErrUnknownType is matched by errors for fields whose type tag has no generator.
var ErrUnknownType = errors.New("unknown field type")

// UnknownTypeError reports a field whose type tag has no generator.
type UnknownTypeError struct {
	Field string
	Tag   schema.TypeTag
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("field %q: unknown type %q", e.Field, string(e.Tag))
}

func (e *UnknownTypeError) Unwrap() error {
	return ErrUnknownType
}

// Generator draws values according to a fixed set of generation parameters.
type Generator struct {
	params   config.Params
	rnd      *rand.Rand
	alphabet []rune
	span     int64 // whole seconds between TimestampStart and TimestampEnd
	dispatch map[schema.TypeTag]func() any
}

// Option customizes a Generator.
type Option func(*Generator)

// WithSource replaces the random source, mainly for tests.
func WithSource(src rand.Source) Option {
	return func(g *Generator) {
		g.rnd = rand.New(src)
	}
}

// New builds a generator. A zero params.Seed seeds the generator from the clock.
func New(params config.Params, opts ...Option) *Generator {
	seed := params.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	g := &Generator{
		params:   params,
		rnd:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		alphabet: []rune(params.Alphabet),
		span:     int64(params.TimestampEnd.Sub(params.TimestampStart) / time.Second),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.dispatch = map[schema.TypeTag]func() any{
		schema.Varchar:      func() any { return g.Text() },
		schema.Variant:      func() any { return g.Text() },
		schema.Boolean:      func() any { return g.Boolean() },
		schema.Float:        func() any { return g.Float() },
		schema.Array:        func() any { return g.Array() },
		schema.TimestampNTZ: func() any { return g.Timestamp() },
	}

	return g
}

// Params returns the parameters the generator was built with.
func (g *Generator) Params() config.Params {
	return g.params
}

// intBetween returns a uniform int in [lo, hi].
func (g *Generator) intBetween(lo, hi int) int {
	return lo + g.rnd.IntN(hi-lo+1)
}

// Text returns alphabet characters with a length drawn from StringLength.
func (g *Generator) Text() string {
	n := g.intBetween(g.params.StringLength.Min, g.params.StringLength.Max)
	out := make([]rune, n)
	for i := range out {
		out[i] = g.alphabet[g.rnd.IntN(len(g.alphabet))]
	}
	return string(out)
}

// Boolean returns true or false with equal probability.
func (g *Generator) Boolean() bool {
	return g.rnd.IntN(2) == 1
}

// Float returns a value drawn uniformly from the Float range.
func (g *Generator) Float() float64 {
	lo, hi := g.params.Float.Min, g.params.Float.Max
	return lo + g.rnd.Float64()*(hi-lo)
}

// Array returns a list of strings whose length is drawn from ArrayLength.
func (g *Generator) Array() []string {
	n := g.intBetween(g.params.ArrayLength.Min, g.params.ArrayLength.Max)
	out := make([]string, n)
	for i := range out {
		out[i] = g.Text()
	}
	return out
}

// Instant returns a whole-second instant in [TimestampStart, TimestampEnd).
func (g *Generator) Instant() time.Time {
	offset := g.rnd.Int64N(g.span)
	return g.params.TimestampStart.Add(time.Duration(offset) * time.Second)
}

// Timestamp returns Instant formatted with the configured layout.
func (g *Generator) Timestamp() string {
	return g.Instant().Format(g.params.TimestampFmt)
}

// Value returns a value for a field of type tag.
func (g *Generator) Value(field string, tag schema.TypeTag) (any, error) {
	fn, ok := g.dispatch[tag]
	if !ok {
		return nil, &UnknownTypeError{Field: field, Tag: tag}
	}
	return fn(), nil
}

// Record generates one value per schema field, in schema order. It fails on the first
// field without a generator and never returns a partial record.
func (g *Generator) Record(s *schema.Schema) (core.Record, error) {
	fields := s.Fields()
	rec := core.NewRecord(len(fields))
	for _, f := range fields {
		v, err := g.Value(f.Name, f.Type)
		if err != nil {
			return core.Record{}, err
		}
		rec.Append(f.Name, v)
	}
	return rec, nil
}

// Check returns an error for the first schema field without a generator.
func (g *Generator) Check(s *schema.Schema) error {
	for _, f := range s.Fields() {
		if _, ok := g.dispatch[f.Type]; !ok {
			return &UnknownTypeError{Field: f.Name, Tag: f.Type}
		}
	}
	return nil
}
