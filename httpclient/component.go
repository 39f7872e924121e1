package httpclient

import (
	"context"
	"net/http"

	"github.com/kbukum/profilewizard/component"
)

// Component wraps a Client with lifecycle management so it can be
// registered next to the session and its stores.
type Component struct {
	client *Client
	config Config
	opts   []Option
}

// compile-time assertions
var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a new HTTP client component.
// The client is created lazily in Start().
func NewComponent(cfg Config, opts ...Option) *Component {
	return &Component{config: cfg, opts: opts}
}

// Name returns the component name.
func (c *Component) Name() string {
	name := c.config.Name
	if name == "" {
		name = defaultName
	}
	return "http." + name
}

// Start builds the HTTP client.
func (c *Component) Start(_ context.Context) error {
	cl, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.client = cl
	return nil
}

// Stop releases idle connections.
func (c *Component) Stop(_ context.Context) error {
	if c.client != nil {
		c.client.http.CloseIdleConnections()
	}
	return nil
}

// Health probes the base URL with a HEAD request. Any HTTP answer counts as
// reachable; only transport failures mark the component unhealthy.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.client == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
		return h
	}
	if c.client.BaseURL() == "" {
		return h
	}
	_, err := c.client.send(ctx, Request{Method: http.MethodHead, Path: "/"})
	if IsConnection(err) || IsTimeout(err) {
		h.Status = component.StatusUnhealthy
		h.Message = err.Error()
	}
	return h
}

// Describe returns component description for the startup summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "http-client",
		Details: c.config.BaseURL,
	}
}

// Client returns the underlying client. Must be called after Start().
func (c *Component) Client() *Client {
	return c.client
}
