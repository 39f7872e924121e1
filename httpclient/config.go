package httpclient

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kbukum/profilewizard/resilience"
	"github.com/kbukum/profilewizard/security"
)

const (
	defaultTimeout = 15 * time.Second
	defaultName    = "api"
)

// Config configures the HTTP client.
type Config struct {
	// Name identifies the client in logs, spans and health reports.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is the base URL prepended to all request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout is the default request timeout. Defaults to 15s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// TLS configures the transport for https endpoints with private roots
	// or client certificates.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// RetryReads enables retry of GET and HEAD requests on retryable errors.
	RetryReads bool `yaml:"retry_reads" mapstructure:"retry_reads"`

	// Retry configures retry behavior for reads. Nil uses DefaultRetryConfig
	// when RetryReads is set.
	Retry *resilience.RetryConfig `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RetryReads && c.Retry == nil {
		c.Retry = DefaultRetryConfig()
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("httpclient: invalid base_url %q", c.BaseURL)
		}
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("httpclient: %w", err)
	}
	return nil
}

// DefaultRetryConfig returns a default retry config suitable for HTTP reads.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}
