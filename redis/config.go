package redis

import (
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/profilewizard/security"
)

const defaultKeyPrefix = "profilewizard"

// Config is the connection to the snapshot store. Durations accept viper
// duration strings such as "5s".
type Config struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`

	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`

	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// KeyPrefix namespaces every snapshot key written through this client.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
	// SnapshotTTL expires abandoned drafts. Zero keeps them forever.
	SnapshotTTL time.Duration `yaml:"snapshot_ttl" mapstructure:"snapshot_ttl"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	c.PoolSize = orDefault(c.PoolSize, 10)
	c.MinIdleConns = orDefault(c.MinIdleConns, 2)
	c.MaxRetries = orDefault(c.MaxRetries, 3)
	c.DialTimeout = orDefault(c.DialTimeout, 5*time.Second)
	c.ReadTimeout = orDefault(c.ReadTimeout, 3*time.Second)
	c.WriteTimeout = orDefault(c.WriteTimeout, 3*time.Second)
	if c.KeyPrefix == "" {
		c.KeyPrefix = defaultKeyPrefix
	}
}

// Validate checks an enabled config. A disabled one is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return errors.New("redis: addr is required")
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return errors.New("redis: timeouts must not be negative")
	}
	if c.SnapshotTTL < 0 {
		return fmt.Errorf("redis: snapshot_ttl %s is negative", c.SnapshotTTL)
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// orDefault returns v, or def when v is not positive.
func orDefault[T int | time.Duration](v, def T) T {
	if v > 0 {
		return v
	}
	return def
}
