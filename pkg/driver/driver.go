// Package driver runs a generation: load the schema, open the output and write the rows.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/config"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/generator"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/schema"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/writers"
)

// DefaultNumRows is used when no row count is given.
const DefaultNumRows = 10

// Options describe a single run.
type Options struct {
	Input   string // schema file
	Output  string // destination file, or "-" for stdout
	NumRows int
}

// Result summarizes a completed run.
type Result struct {
	Rows     int64
	Fields   int
	Duration time.Duration
}

// Driver holds what stays fixed across runs.
type Driver struct {
	Params config.Params
	Logger *zap.Logger

	// Progress, when set, is called after every written row.
	Progress func(done, total int)
}

// New returns a driver using params. A nil logger disables logging.
func New(params config.Params, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{Params: params, Logger: logger}
}

// Run generates opts.NumRows records. The first error aborts the run; the output is
// not created when the schema cannot be loaded or names a type without a generator.
func (d *Driver) Run(ctx context.Context, opts Options) (res Result, err error) {
	start := time.Now()

	if opts.NumRows < 0 {
		return res, fmt.Errorf("num_rows must not be negative, got %d", opts.NumRows)
	}

	s, err := schema.Load(opts.Input)
	if err != nil {
		return res, fmt.Errorf("loading schema: %w", err)
	}
	res.Fields = s.Len()

	gen := generator.New(d.Params)
	if err := gen.Check(s); err != nil {
		return res, fmt.Errorf("schema %s: %w", opts.Input, err)
	}

	d.Logger.Info("Generating rows",
		zap.String("input", opts.Input),
		zap.String("output", opts.Output),
		zap.Int("num_rows", opts.NumRows),
		zap.Strings("fields", s.Names()),
	)

	w, err := writers.NewJSONLinesWriter(opts.Output)
	if err != nil {
		return res, err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		res.Rows = w.Rows()
		res.Duration = time.Since(start)
	}()

	for i := 0; i < opts.NumRows; i++ {
		rec, err := gen.Record(s)
		if err != nil {
			return res, fmt.Errorf("row %d: %w", i+1, err)
		}
		if err := w.Write(ctx, rec); err != nil {
			return res, fmt.Errorf("row %d: %w", i+1, err)
		}
		if d.Progress != nil {
			d.Progress(i+1, opts.NumRows)
		}
	}

	d.Logger.Debug("All rows written", zap.Int("num_rows", opts.NumRows))
	return res, nil
}
