package config

import (
	"fmt"
	"time"

	"github.com/kbukum/profilewizard/encryption"
	"github.com/kbukum/profilewizard/httpclient"
	"github.com/kbukum/profilewizard/observability"
	"github.com/kbukum/profilewizard/redis"
)

// Snapshot storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// AppConfig is the configuration tree of the wizard session runner.
type AppConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	API           httpclient.Config    `yaml:"api" mapstructure:"api"`
	Auth          AuthConfig           `yaml:"auth" mapstructure:"auth"`
	Autosave      AutosaveConfig       `yaml:"autosave" mapstructure:"autosave"`
	Redis         redis.Config         `yaml:"redis" mapstructure:"redis"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults applies defaults to every section.
func (c *AppConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.API.ApplyDefaults()
	c.Auth.ApplyDefaults()
	c.Autosave.ApplyDefaults()
	if c.Autosave.Backend == BackendRedis {
		c.Redis.Enabled = true
	}
	c.Redis.ApplyDefaults()
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.ServiceVersion == "" {
		c.Observability.ServiceVersion = c.Version
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()
}

// Validate validates every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("config.api: %w", err)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("config.api.base_url is required")
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("config.auth: %w", err)
	}
	if err := c.Autosave.Validate(); err != nil {
		return fmt.Errorf("config.autosave: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("config.redis: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("config.observability: %w", err)
	}
	return nil
}

// AuthConfig configures where the runner gets its bearer token.
type AuthConfig struct {
	// Token is a static bearer token. Empty runs the session as a guest.
	Token string `yaml:"token" mapstructure:"token"`
	// Leeway treats tokens expiring within this window as expired.
	Leeway time.Duration `yaml:"leeway" mapstructure:"leeway"`
}

// ApplyDefaults fills zero-value fields.
func (c *AuthConfig) ApplyDefaults() {
	if c.Leeway == 0 {
		c.Leeway = 30 * time.Second
	}
}

// Validate checks the configuration.
func (c *AuthConfig) Validate() error {
	if c.Leeway < 0 {
		return fmt.Errorf("leeway must not be negative")
	}
	return nil
}

// AutosaveConfig configures the debounced draft persistence.
type AutosaveConfig struct {
	// Delay is the quiet period before a change is written. Defaults to 3s.
	Delay time.Duration `yaml:"delay" mapstructure:"delay"`
	// WriteTimeout bounds a single write. Defaults to 10s.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	// KeyPrefix is prepended to the user id to form the session key.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
	// Backend is one of memory, file or redis. Defaults to file.
	Backend string `yaml:"backend" mapstructure:"backend"`
	// Dir is the directory of the file backend.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// FlushOnStop writes unsaved changes when the session is stopped.
	FlushOnStop bool `yaml:"flush_on_stop" mapstructure:"flush_on_stop"`
	// Encryption seals snapshots at rest when a key is set.
	Encryption encryption.Config `yaml:"encryption" mapstructure:"encryption"`
}

// ApplyDefaults fills zero-value fields.
func (c *AutosaveConfig) ApplyDefaults() {
	if c.Delay == 0 {
		c.Delay = 3 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "wizard"
	}
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.Dir == "" {
		c.Dir = ".profilewizard"
	}
	c.Encryption.ApplyDefaults()
}

// Validate checks the configuration.
func (c *AutosaveConfig) Validate() error {
	if c.Delay <= 0 {
		return fmt.Errorf("delay must be positive")
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout must not be negative")
	}
	switch c.Backend {
	case BackendMemory, BackendRedis:
	case BackendFile:
		if c.Dir == "" {
			return fmt.Errorf("dir is required for the file backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want memory, file or redis)", c.Backend)
	}
	return c.Encryption.Validate()
}
