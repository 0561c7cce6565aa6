// Package writers serializes generated records to their destination.
package writers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/core"
)

// Stdout is the output path that selects standard output.
const Stdout = "-"

// JSONLinesWriter writes one record per line, each wrapped in a single-element array:
//
//	[{"name":"...","active":true}]
type JSONLinesWriter struct {
	out    *bufio.Writer
	closer io.Closer
	rows   int64
}

// NewJSONLinesWriter creates (or truncates) the file at path. Stdout writes to os.Stdout.
func NewJSONLinesWriter(path string) (*JSONLinesWriter, error) {
	if path == "" {
		return nil, errors.New("path is required for JSON lines writer")
	}
	if path == Stdout {
		return NewJSONLinesStream(os.Stdout), nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &JSONLinesWriter{
		out:    bufio.NewWriter(file),
		closer: file,
	}, nil
}

// NewJSONLinesStream writes to w. Close flushes but does not close w.
func NewJSONLinesStream(w io.Writer) *JSONLinesWriter {
	return &JSONLinesWriter{out: bufio.NewWriter(w)}
}

// Write serializes record as one line.
func (w *JSONLinesWriter) Write(ctx context.Context, record core.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	line, err := json.Marshal([]core.Record{record})
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	if _, err := w.out.Write(line); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	if err := w.out.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	w.rows++
	return nil
}

// Rows returns the number of records written so far.
func (w *JSONLinesWriter) Rows() int64 {
	return w.rows
}

// Close flushes buffered rows and closes the underlying file, if any.
func (w *JSONLinesWriter) Close() error {
	err := w.out.Flush()
	if err != nil {
		err = fmt.Errorf("failed to flush output: %w", err)
	}

	if w.closer != nil {
		if closeErr := w.closer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		w.closer = nil
	}

	return err
}

var _ core.RecordWriter = (*JSONLinesWriter)(nil)
