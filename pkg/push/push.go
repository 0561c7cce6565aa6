// Package push replays generated fixture lines against an HTTP ingest endpoint.
package push

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 10 * time.Second

// Stats counts what was sent.
type Stats struct {
	Sent  int
	Bytes int64
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Line   int
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("line %d: endpoint answered %d: %s", e.Line, e.Status, e.Body)
}

// Client sends one PUT request per fixture line, in order, and stops at the first failure.
type Client struct {
	URL     string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient validates endpoint and returns a client with the default timeout.
func NewClient(endpoint string, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{URL: endpoint, Timeout: DefaultTimeout, Logger: logger}, nil
}

// Push sends every non-empty line of r as a request body.
func (c *Client) Push(ctx context.Context, r io.Reader) (Stats, error) {
	var stats Stats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		body := scanner.Bytes()
		if len(body) == 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		if err := c.send(line, body); err != nil {
			return stats, err
		}
		stats.Sent++
		stats.Bytes += int64(len(body))
		c.Logger.Debug("Pushed line", zap.Int("line", line), zap.Int("bytes", len(body)))
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("reading fixture: %w", err)
	}

	return stats, nil
}

func (c *Client) send(line int, body []byte) error {
	agent := fiber.Put(c.URL)
	agent.ContentType(fiber.MIMEApplicationJSON)
	agent.Body(body)
	if c.Timeout > 0 {
		agent.Timeout(c.Timeout)
	}
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("line %d: %w", line, err)
	}

	status, resp, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("line %d: %w", line, errors.Join(errs...))
	}
	if status < 200 || status > 299 {
		return &StatusError{Line: line, Status: status, Body: string(resp)}
	}
	return nil
}
