package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/profilewizard/component"
	"github.com/kbukum/profilewizard/logger"
)

// slowPing marks the connection degraded: autosave writes would start to
// lag behind the debounce delay.
const slowPing = 250 * time.Millisecond

// Component owns the Client used by the Redis draft store and exposes it to
// the application lifecycle.
type Component struct {
	cfg    Config
	log    *logger.Logger
	client *Client
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent prepares a component; the connection is opened by Start.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("redis")}
}

// Client returns the started client, nil before Start.
func (c *Component) Client() *Client { return c.client }

func (c *Component) Name() string { return "redis" }

// Start connects and pings so that a wrong address fails the startup
// instead of the first autosave.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("redis start: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis start: %w", err)
	}
	c.client = client
	c.log.Info("redis connected", logger.Fields("addr", c.cfg.Addr, "prefix", c.cfg.KeyPrefix))
	return nil
}

// Stop closes the client. Safe to call twice.
func (c *Component) Stop(context.Context) error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// Health pings the server; a slow answer is reported as degraded.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusUnhealthy}
	if c.client == nil {
		h.Message = "not connected"
		return h
	}
	start := time.Now()
	if err := c.client.Ping(ctx); err != nil {
		h.Message = err.Error()
		return h
	}
	rtt := time.Since(start)
	h.Status = component.StatusHealthy
	if rtt > slowPing {
		h.Status = component.StatusDegraded
		h.Message = "slow ping " + rtt.Round(time.Millisecond).String()
	}
	return h
}

// Describe summarizes the connection for the startup banner.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("%s db=%d prefix=%s", c.cfg.Addr, c.cfg.DB, c.cfg.KeyPrefix)
	if c.cfg.TLS.Enabled() {
		details += " tls"
	}
	if c.cfg.SnapshotTTL > 0 {
		details += " ttl=" + c.cfg.SnapshotTTL.String()
	}
	return component.Description{Name: "Redis", Type: "redis", Details: details}
}
