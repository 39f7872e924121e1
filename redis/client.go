package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/profilewizard/logger"
)

// ErrNotFound is returned by GetBytes when the key does not exist.
var ErrNotFound = errors.New("redis: key not found")

// ErrClosed is returned by every call made after Close.
var ErrClosed = errors.New("redis: client closed")

// Client is the small slice of Redis the draft store needs: whole-value
// get, set with expiry and delete.
type Client struct {
	rdb *goredis.Client
	log *logger.Logger
	cfg Config

	mu     sync.RWMutex
	closed bool
}

// New validates cfg and opens a connection pool. No connection is made
// until the first command; call Ping to fail fast.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is disabled")
	}
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}

	opts := &goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		TLSConfig:    tlsCfg,
	}

	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log.Debug("redis client created", logger.Fields(
		"addr", cfg.Addr,
		"db", cfg.DB,
		"tls", tlsCfg != nil,
	))
	return &Client{rdb: goredis.NewClient(opts), log: log, cfg: cfg}, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.cfg }

func (c *Client) open() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.open(); err != nil {
		return err
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// GetBytes reads a whole value.
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

// Set overwrites key with value. A zero ttl keeps the key forever.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.open(); err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Del removes keys. Missing keys are not an error.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if err := c.open(); err != nil {
		return err
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close releases the pool. Later calls are no-ops.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.log.Debug("redis client closed")
	return c.rdb.Close()
}

// IsAvailable reports whether the client is open and the server answers.
func (c *Client) IsAvailable(ctx context.Context) bool {
	return c.Ping(ctx) == nil
}
