// Package api serves a local stand-in for the row ingest endpoint, so generated fixtures
// can be pushed and inspected without a warehouse.
package api

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/core"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/schema"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/pkg/store"
	"github.com/sfc-gh-vtimofeenko/ex-snowpipe-rest/version"
)

// ServerOptions configures the ingest server.
type ServerOptions struct {
	Port    string
	Prefork bool

	// Schema, when set, rejects records carrying fields it does not declare.
	Schema *schema.Schema

	// Store, when set, keeps every accepted record.
	Store *store.Store

	Logger *zap.Logger
}

// Server holds the Fiber app instance
type Server struct {
	app      *fiber.App
	opts     ServerOptions
	inserted atomic.Int64
}

// insertError describes one rejected row of a batch.
type insertError struct {
	RowIndex int    `json:"row_index"`
	Input    string `json:"input"`
	Error    string `json:"error"`
}

// insertResponse reports a batch. Rejected rows do not fail the batch.
type insertResponse struct {
	Attempted int           `json:"inserts_attempted"`
	Succeeded int           `json:"inserts_succeeded"`
	Errors    int           `json:"insert_errors"`
	ErrorRows []insertError `json:"error_rows"`
}

// NewServer initializes a new Fiber instance with the ingest routes.
func NewServer(opts ServerOptions) *Server {
	if opts.Port == "" {
		opts.Port = "8080"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		IdleTimeout:           10 * time.Second,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		Prefork:               opts.Prefork,
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{app: app, opts: opts}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "datagen ingest",
			"version": version.Version,
			"build":   version.BuildDate,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	ingest := app.Group("/snowpipe")
	ingest.Get("/hello", func(c *fiber.Ctx) error {
		return c.SendString("Hello, there.")
	})
	ingest.Put("/insert", s.insert)
	ingest.Get("/rows", s.rows)

	return s
}

func (s *Server) insert(c *fiber.Ctx) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(c.Body(), &rows); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("invalid JSON payload: %v", err))
	}
	if rows == nil {
		return c.Status(fiber.StatusBadRequest).SendString("invalid JSON payload: expected a list of JSON objects")
	}

	resp := insertResponse{Attempted: len(rows), ErrorRows: make([]insertError, 0)}
	accepted := make([]core.Record, 0, len(rows))
	for i, raw := range rows {
		rec, err := s.decodeRow(raw)
		if err != nil {
			resp.ErrorRows = append(resp.ErrorRows, insertError{RowIndex: i, Input: compact(raw), Error: err.Error()})
			continue
		}
		accepted = append(accepted, rec)
	}

	if s.opts.Store != nil && len(accepted) > 0 {
		if err := s.opts.Store.Append(accepted); err != nil {
			s.opts.Logger.Error("Failed to store records", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).SendString("failed to store records")
		}
	}

	resp.Succeeded = len(accepted)
	resp.Errors = len(resp.ErrorRows)
	total := s.inserted.Add(int64(resp.Succeeded))
	s.opts.Logger.Debug("Inserted records",
		zap.Int("attempted", resp.Attempted),
		zap.Int("errors", resp.Errors),
		zap.Int64("total", total),
	)

	return c.JSON(resp)
}

// decodeRow parses one batch element and checks its columns against the schema, if any.
func (s *Server) decodeRow(raw json.RawMessage) (core.Record, error) {
	var rec core.Record
	if err := rec.UnmarshalJSON(raw); err != nil {
		return core.Record{}, err
	}
	if s.opts.Schema != nil {
		for _, name := range rec.Names() {
			if _, ok := s.opts.Schema.Lookup(name); !ok {
				return core.Record{}, fmt.Errorf("column %q not found in table schema", name)
			}
		}
	}
	return rec, nil
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// rows lists stored records in insertion order; ?limit=N caps the answer.
func (s *Server) rows(c *fiber.Ctx) error {
	if s.opts.Store == nil {
		return c.Status(fiber.StatusNotFound).SendString("no row store configured")
	}

	limit := c.QueryInt("limit", 100)
	out := make([]core.Record, 0)
	err := s.opts.Store.Each(limit, func(_ uint64, rec core.Record) error {
		out = append(out, rec)
		return nil
	})
	if err != nil {
		s.opts.Logger.Error("Failed to read stored records", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("failed to read stored records")
	}
	return c.JSON(out)
}

// Inserted returns the number of rows accepted since start.
func (s *Server) Inserted() int64 {
	return s.inserted.Load()
}

// GetApp exposes the Fiber app, mainly for app.Test in tests.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	s.opts.Logger.Info("Ingest server listening", zap.String("port", s.opts.Port))
	return s.app.Listen(":" + s.opts.Port)
}

// Shutdown stops the server, waiting for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
