package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kbukum/profilewizard/httpclient"
)

// Client sends JSON requests through an httpclient.Client and decodes JSON
// answers into typed values.
type Client struct {
	http *httpclient.Client
}

// New builds the underlying httpclient.Client from cfg.
func New(cfg httpclient.Config, opts ...httpclient.Option) (*Client, error) {
	c, err := httpclient.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{http: c}, nil
}

// NewFromClient shares an existing client, e.g. the one behind a
// conditional cache, so both use the same auth and transport.
func NewFromClient(c *httpclient.Client) *Client {
	return &Client{http: c}
}

// HTTP returns the underlying HTTP client.
func (c *Client) HTTP() *httpclient.Client { return c.http }

// RequestOption adjusts a single request.
type RequestOption func(*httpclient.Request)

// WithQuery sets URL query parameters.
func WithQuery(params map[string]string) RequestOption {
	return func(r *httpclient.Request) { r.Query = params }
}

// Response is a decoded answer. ETag is the entity tag of the new
// representation, if the server sent one.
type Response[T any] struct {
	StatusCode int
	ETag       string
	Data       T
}

// Get fetches path and decodes the body into T.
func Get[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (*Response[T], error) {
	return do[T](ctx, c, http.MethodGet, path, nil, opts)
}

// Post sends body as JSON and decodes the answer into T.
func Post[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (*Response[T], error) {
	return do[T](ctx, c, http.MethodPost, path, body, opts)
}

// Put sends body as JSON and decodes the answer into T.
func Put[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (*Response[T], error) {
	return do[T](ctx, c, http.MethodPut, path, body, opts)
}

// Delete removes path. Use struct{} for T when the endpoint answers 204.
func Delete[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (*Response[T], error) {
	return do[T](ctx, c, http.MethodDelete, path, nil, opts)
}

// Decode unmarshals a JSON body into T. An empty body yields the zero value.
func Decode[T any](body []byte) (T, error) {
	var v T
	if len(body) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("rest: decode response: %w", err)
	}
	return v, nil
}

func do[T any](ctx context.Context, c *Client, method, path string, body any, opts []RequestOption) (*Response[T], error) {
	req := httpclient.Request{
		Method:  method,
		Path:    path,
		Body:    body,
		Headers: map[string]string{"Accept": "application/json"},
	}
	for _, opt := range opts {
		opt(&req)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		// A rejected request may still carry a useful body, e.g. the
		// conflicting entry on 409.
		if resp != nil {
			if data, decErr := Decode[T](resp.Body); decErr == nil {
				return &Response[T]{StatusCode: resp.StatusCode, ETag: resp.ETag(), Data: data}, err
			}
		}
		return nil, err
	}
	data, err := Decode[T](resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response[T]{StatusCode: resp.StatusCode, ETag: resp.ETag(), Data: data}, nil
}
