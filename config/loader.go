package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/profilewizard/logger"
)

// DefaultEnvPrefix is the prefix of environment variables read by LoadConfig.
const DefaultEnvPrefix = "WIZARD"

// FileSystem abstracts the file operations of the loader.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem is the FileSystem of the running process.
type OSFileSystem struct{}

// Exists reports whether path exists.
func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file into the process environment without
// overriding variables that are already set.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds the loader dependencies and file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	EnvPrefix  string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the filesystem.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix changes the environment variable prefix. Defaults to WIZARD.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// configCandidates lists where a service's config.yml may live.
func configCandidates(serviceName string) []string {
	return []string{
		"./cmd/" + serviceName + "/config.yml",
		"../cmd/" + serviceName + "/config.yml",
		"../../cmd/" + serviceName + "/config.yml",
		"./config/config.yml",
		"./config.yml",
	}
}

// envCandidates lists where a service's .env may live.
func envCandidates(serviceName string) []string {
	return []string{
		"./cmd/" + serviceName + "/.env",
		"../cmd/" + serviceName + "/.env",
		"../../cmd/" + serviceName + "/.env",
		"./.env",
	}
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig reads config.yml, then the .env file, then the process
// environment into cfg. Later sources win. Environment variables use the
// prefix and underscores for nesting: WIZARD_AUTOSAVE_DELAY sets
// autosave.delay.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: OSFileSystem{}, EnvPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.ConfigFile == "" {
		lc.ConfigFile = firstExisting(lc.FileSystem, configCandidates(serviceName))
	}
	if lc.EnvFile == "" {
		lc.EnvFile = firstExisting(lc.FileSystem, envCandidates(serviceName))
	}

	v := viper.New()
	if lc.ConfigFile != "" && lc.FileSystem.Exists(lc.ConfigFile) {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			logger.Warn("config file could not be read", logger.Fields(
				"file", lc.ConfigFile,
				logger.FieldError, err.Error(),
			))
		}
	}

	if lc.EnvFile != "" && lc.FileSystem.Exists(lc.EnvFile) {
		if err := lc.FileSystem.LoadEnv(lc.EnvFile); err != nil {
			logger.Warn(".env file could not be loaded", logger.Fields(
				"file", lc.EnvFile,
				logger.FieldError, err.Error(),
			))
		}
	}
	bindEnv(v, lc.EnvPrefix, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

// Load reads the configuration of serviceName into a new T, then applies
// defaults and validates it when T implements ApplyDefaults and Validate.
func Load[T any](serviceName string, opts ...LoaderOption) (*T, error) {
	cfg := new(T)
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if d, ok := any(cfg).(interface{ ApplyDefaults() }); ok {
		d.ApplyDefaults()
	}
	if val, ok := any(cfg).(interface{ Validate() error }); ok {
		if err := val.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// bindEnv copies every PREFIX_* variable into v. Because an underscore may
// separate either two levels or two words of one key, every split is set;
// keys that match no field are ignored on unmarshal.
func bindEnv(v *viper.Viper, prefix string, environ []string) {
	want := strings.ToUpper(prefix) + "_"
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(strings.ToUpper(name), want) {
			continue
		}
		for _, key := range envKeys(name[len(want):]) {
			v.Set(key, value)
		}
	}
}

// envKeys returns the candidate config keys of an environment variable
// name without its prefix. AUTOSAVE_FLUSH_ON_STOP yields, among others,
// autosave.flush_on_stop and autosave.encryption.key for
// AUTOSAVE_ENCRYPTION_KEY.
func envKeys(name string) []string {
	parts := strings.Split(strings.ToLower(name), "_")
	if len(parts) == 1 {
		return parts
	}
	seen := make(map[string]bool)
	var keys []string
	var walk func(prefix string, rest []string)
	walk = func(prefix string, rest []string) {
		for i := 1; i <= len(rest); i++ {
			segment := strings.Join(rest[:i], "_")
			key := segment
			if prefix != "" {
				key = prefix + "." + segment
			}
			if i == len(rest) {
				if !seen[key] {
					seen[key] = true
					keys = append(keys, key)
				}
				continue
			}
			walk(key, rest[i:])
		}
	}
	walk("", parts)
	return keys
}
