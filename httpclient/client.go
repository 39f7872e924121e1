package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/profilewizard/auth"
	"github.com/kbukum/profilewizard/logger"
	"github.com/kbukum/profilewizard/observability"
	"github.com/kbukum/profilewizard/resilience"
	"github.com/kbukum/profilewizard/version"
)

// Client talks to the profile backend. Every request carries a request id,
// a User-Agent and, when the token source yields one, a bearer token.
type Client struct {
	http   *http.Client
	cfg    Config
	tokens auth.TokenSource
	log    *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(src auth.TokenSource) Option {
	return func(c *Client) { c.tokens = src }
}

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTransport replaces the round tripper, after TLS settings were applied
// to the default one.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// New validates cfg and builds a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	c := &Client{http: &http.Client{Transport: transport, Timeout: cfg.Timeout}, cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get("httpclient")
	}
	c.log = c.log.WithFields(logger.Fields("client", cfg.Name))
	return c, nil
}

// Name returns the configured client name.
func (c *Client) Name() string { return c.cfg.Name }

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// Do sends req and reads the whole response. 2xx and 304 come back with a
// nil error; any other status comes back with the response and a classified
// *Error. Reads are retried when Config.Retry is set; the response returned
// then belongs to the last attempt.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.cfg.Retry == nil || !req.idempotent() {
		return c.send(ctx, req)
	}
	var last *Response
	resp, err := resilience.Retry(ctx, *c.cfg.Retry, func() (*Response, error) {
		r, err := c.send(ctx, req)
		last = r
		return r, err
	})
	if err != nil {
		return last, err
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanHTTPRequest)
	defer span.End()

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	observability.SetSpanAttributes(ctx,
		attribute.String("http.method", httpReq.Method),
		attribute.String("http.url", httpReq.URL.String()),
		attribute.String(observability.AttrRequestID, httpReq.Header.Get(headerRequestID)),
	)

	began := time.Now()
	res, err := c.http.Do(httpReq)
	if err != nil {
		failure := NewConnectionError(err)
		if ctx.Err() != nil {
			failure = NewTimeoutError(err)
		}
		observability.SetSpanError(ctx, failure)
		c.log.Debug("request failed", logger.Fields(
			"method", httpReq.Method, "path", httpReq.URL.Path, logger.FieldError, err.Error(),
		))
		return nil, failure
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}
	observability.SetSpanAttributes(ctx, attribute.Int("http.status_code", res.StatusCode))

	fields := logger.DurationFields("http."+strings.ToLower(httpReq.Method), time.Since(began))
	fields["path"] = httpReq.URL.Path
	fields[logger.FieldStatus] = res.StatusCode
	c.log.Debug("request completed", fields)

	resp := &Response{StatusCode: res.StatusCode, Header: res.Header, Body: body}
	if failure := ClassifyStatusCode(res.StatusCode, body); failure != nil {
		observability.SetSpanError(ctx, failure)
		return resp, failure
	}
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	body, contentType, err := req.body()
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.url(req.Path), body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}
	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	h := httpReq.Header
	for _, src := range []map[string]string{c.cfg.Headers, req.Headers} {
		for k, v := range src {
			h.Set(k, v)
		}
	}
	setDefault(h, headerContentType, contentType)
	setDefault(h, headerUserAgent, version.UserAgent())
	setDefault(h, headerRequestID, uuid.NewString())

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, NewAuthTokenError(err)
		}
		if token != "" {
			h.Set(headerAuthorization, "Bearer "+token)
		}
	}
	return httpReq, nil
}

// url joins path to the base URL unless path is absolute.
func (c *Client) url(path string) string {
	if c.cfg.BaseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func setDefault(h http.Header, key, value string) {
	if value != "" && h.Get(key) == "" {
		h.Set(key, value)
	}
}
