package logger

import (
	"fmt"
	"slices"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"

	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

var levels = []string{"trace", "debug", "info", "warn", "error"}

// Config controls the process-wide logger. Output defaults to stderr so that
// log lines never interleave with the interactive prompt on stdout.
type Config struct {
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	Level       string `yaml:"level" mapstructure:"level"`
	Format      string `yaml:"format" mapstructure:"format"`
	Output      string `yaml:"output" mapstructure:"output"`
	NoColor     bool   `yaml:"no_color" mapstructure:"no_color"`
	NoTimestamp bool   `yaml:"no_timestamp" mapstructure:"no_timestamp"`
	Caller      bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = OutputStderr
	}
}

// Validate checks the configured level, format and output.
func (c *Config) Validate() error {
	if !slices.Contains(levels, c.Level) {
		return fmt.Errorf("logging.level: %q is not one of %v", c.Level, levels)
	}
	if c.Format != FormatJSON && c.Format != FormatConsole {
		return fmt.Errorf("logging.format: %q is not json or console", c.Format)
	}
	if c.Output != OutputStdout && c.Output != OutputStderr {
		return fmt.Errorf("logging.output: %q is not stdout or stderr", c.Output)
	}
	return nil
}
