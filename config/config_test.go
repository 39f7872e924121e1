package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug logging, got %q", cfg.Logging.Level)
		}
		if cfg.Logging.ServiceName != "svc" {
			t.Errorf("expected service name propagated to logging, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info logging, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func validApp() AppConfig {
	cfg := AppConfig{ServiceConfig: ServiceConfig{Name: "wizard-session"}}
	cfg.API.BaseURL = "http://localhost:8080"
	cfg.ApplyDefaults()
	return cfg
}

func TestAppConfigDefaults(t *testing.T) {
	cfg := validApp()
	if cfg.Autosave.Delay != 3*time.Second {
		t.Errorf("expected 3s delay, got %s", cfg.Autosave.Delay)
	}
	if cfg.Autosave.Backend != BackendFile || cfg.Autosave.KeyPrefix != "wizard" {
		t.Errorf("unexpected autosave defaults %+v", cfg.Autosave)
	}
	if cfg.Observability.ServiceName != "wizard-session" {
		t.Errorf("expected observability service name, got %q", cfg.Observability.ServiceName)
	}
	if cfg.Redis.Enabled {
		t.Error("redis must stay disabled for the file backend")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"missing base url", func(c *AppConfig) { c.API.BaseURL = "" }, "api.base_url"},
		{"relative base url", func(c *AppConfig) { c.API.BaseURL = "/api" }, "config.api"},
		{"unknown backend", func(c *AppConfig) { c.Autosave.Backend = "s3" }, "unknown backend"},
		{"negative delay", func(c *AppConfig) { c.Autosave.Delay = -time.Second }, "delay must be positive"},
		{"short key", func(c *AppConfig) { c.Autosave.Encryption.Key = "short" }, "at least 16"},
		{"bad algorithm", func(c *AppConfig) { c.Autosave.Encryption.Algorithm = "rot13" }, "unsupported algorithm"},
		{"negative leeway", func(c *AppConfig) { c.Auth.Leeway = -time.Second }, "leeway"},
		{"redis backend without addr", func(c *AppConfig) {
			c.Autosave.Backend = BackendRedis
			c.Redis.Enabled = true
			c.Redis.Addr = ""
		}, "config.redis"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validApp()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestRedisBackendEnablesRedis(t *testing.T) {
	cfg := AppConfig{ServiceConfig: ServiceConfig{Name: "svc"}}
	cfg.Autosave.Backend = BackendRedis
	cfg.ApplyDefaults()
	if !cfg.Redis.Enabled {
		t.Error("expected redis to be enabled for the redis backend")
	}
}

func TestLoadFromYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yaml := `
name: wizard-session
environment: staging
api:
  base_url: http://catalog.internal
  timeout: 5s
autosave:
  delay: 2s
  backend: memory
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WIZARD_AUTOSAVE_FLUSH_ON_STOP", "true")
	t.Setenv("WIZARD_AUTOSAVE_ENCRYPTION_KEY", "0123456789abcdef-secret")
	t.Setenv("WIZARD_API_TIMEOUT", "7s")

	cfg, err := Load[AppConfig]("wizard-session", WithConfigFile(path), WithEnvFile(filepath.Join(dir, "missing.env")))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "staging" || cfg.API.BaseURL != "http://catalog.internal" {
		t.Errorf("yaml values not loaded: %+v", cfg.ServiceConfig)
	}
	if cfg.Autosave.Delay != 2*time.Second || cfg.Autosave.Backend != BackendMemory {
		t.Errorf("unexpected autosave %+v", cfg.Autosave)
	}
	if cfg.API.Timeout != 7*time.Second {
		t.Errorf("expected env to override timeout, got %s", cfg.API.Timeout)
	}
	if !cfg.Autosave.FlushOnStop {
		t.Error("expected flush_on_stop from env")
	}
	if cfg.Autosave.Encryption.Key != "0123456789abcdef-secret" {
		t.Errorf("expected nested encryption key from env, got %q", cfg.Autosave.Encryption.Key)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("WIZARD_NAME=from-dotenv\nWIZARD_API_BASE_URL=http://dotenv.local\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("WIZARD_NAME")
		os.Unsetenv("WIZARD_API_BASE_URL")
	})

	cfg, err := Load[AppConfig]("svc", WithConfigFile(filepath.Join(dir, "none.yml")), WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-dotenv" || cfg.API.BaseURL != "http://dotenv.local" {
		t.Errorf("expected values from .env, got name=%q base_url=%q", cfg.Name, cfg.API.BaseURL)
	}
}

func TestLoadValidationError(t *testing.T) {
	_, err := Load[AppConfig]("svc",
		WithConfigFile("/nonexistent/config.yml"),
		WithEnvFile("/nonexistent/.env"),
		WithEnvPrefix("WIZARD_TEST_UNUSED"),
	)
	if err == nil || !strings.Contains(err.Error(), "config.name is required") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

type mockFS struct {
	files  map[string]bool
	loaded []string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }

func (m *mockFS) LoadEnv(path string) error {
	m.loaded = append(m.loaded, path)
	return nil
}

func TestLoadConfigSearchesCandidates(t *testing.T) {
	fs := &mockFS{files: map[string]bool{"../cmd/wizard-session/.env": true}}
	var cfg AppConfig
	if err := LoadConfig("wizard-session", &cfg, WithFileSystem(fs)); err != nil {
		t.Fatal(err)
	}
	if len(fs.loaded) != 1 || fs.loaded[0] != "../cmd/wizard-session/.env" {
		t.Errorf("expected the service .env to be loaded, got %v", fs.loaded)
	}
	if got := firstExisting(&mockFS{files: map[string]bool{"./config.yml": true}}, configCandidates("x")); got != "./config.yml" {
		t.Errorf("expected ./config.yml, got %q", got)
	}
}

func TestEnvKeys(t *testing.T) {
	keys := envKeys("AUTOSAVE_ENCRYPTION_KEY")
	for _, want := range []string{"autosave.encryption.key", "autosave.encryption_key", "autosave_encryption_key"} {
		if !slices.Contains(keys, want) {
			t.Errorf("expected %q in %v", want, keys)
		}
	}
	if len(keys) != 4 {
		t.Errorf("expected 4 variants, got %d: %v", len(keys), keys)
	}
	if got := envKeys("NAME"); len(got) != 1 || got[0] != "name" {
		t.Errorf("unexpected keys for single word: %v", got)
	}
}
