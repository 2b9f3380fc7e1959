// Package client is a thin HTTP client mirroring the generated CRUD
// routes: one call per route, with blocking and asynchronous variants.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// APIError is the single failure kind surfaced for any non-2xx response. It
// carries the origin status and body text and nothing else; interpreting
// the failure is the caller's business.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body)
}

// Client talks to a generated CRUD API. The logger is injected at
// construction; the package configures no process-wide logging.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the access token, appended to every request as a `token`
// query parameter.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimPrefix(token, "?") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithLogger sets the request logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   http.DefaultClient,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches records. filters may carry skip, limit, and field equality
// filters; values are rendered with fmt.
func (c *Client) List(ctx context.Context, resource string, filters map[string]any) ([]map[string]any, error) {
	var out []map[string]any
	err := c.do(ctx, http.MethodGet, c.buildURL(resource, "", filters), nil, &out)
	return out, err
}

// Get fetches one record by id.
func (c *Client) Get(ctx context.Context, resource, id string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, c.buildURL(resource, id, nil), nil, &out)
	return out, err
}

// Create stores a new record. A payload without an `id` gets a generated
// UUID, which the server honors.
func (c *Client) Create(ctx context.Context, resource string, payload map[string]any) (map[string]any, error) {
	if _, ok := payload["id"]; !ok {
		withID := make(map[string]any, len(payload)+1)
		for k, v := range payload {
			withID[k] = v
		}
		withID["id"] = uuid.New().String()
		payload = withID
	}
	var out map[string]any
	err := c.do(ctx, http.MethodPost, c.buildURL(resource, "", nil), payload, &out)
	return out, err
}

// Update applies a partial payload to the record with the given id.
func (c *Client) Update(ctx context.Context, resource, id string, payload map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPut, c.buildURL(resource, id, nil), payload, &out)
	return out, err
}

// Delete removes one record by id.
func (c *Client) Delete(ctx context.Context, resource, id string) error {
	return c.do(ctx, http.MethodDelete, c.buildURL(resource, id, nil), nil, nil)
}

// DeleteAll empties the collection.
func (c *Client) DeleteAll(ctx context.Context, resource string) error {
	return c.do(ctx, http.MethodDelete, c.buildURL(resource, "", nil), nil, nil)
}

// buildURL joins base, resource, optional id, query parameters, and the
// access token.
func (c *Client) buildURL(resource, id string, params map[string]any) string {
	u := c.baseURL + "/" + strings.Trim(resource, "/")
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	q := url.Values{}
	for k, v := range params {
		q.Set(k, fmt.Sprint(v))
	}
	if c.token != "" {
		q.Set("token", c.token)
	}
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("url", rawURL).Msg("request")

	res, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Status: res.StatusCode, Body: string(raw)}
		c.logger.Error().Int("status", res.StatusCode).Str("url", rawURL).Msg("request failed")
		return apiErr
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
