package httpclient

import (
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Timeout != 15*time.Second {
		t.Errorf("expected default timeout 15s, got %v", cfg.Timeout)
	}
	if cfg.Name != "api" {
		t.Errorf("expected default name api, got %q", cfg.Name)
	}
	if cfg.Retry != nil {
		t.Error("retry should stay disabled unless RetryReads is set")
	}
}

func TestConfig_ApplyDefaults_PreservesExisting(t *testing.T) {
	cfg := Config{Timeout: 10 * time.Second, Name: "catalog"}
	cfg.ApplyDefaults()
	if cfg.Timeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Timeout)
	}
	if cfg.Name != "catalog" {
		t.Errorf("expected name catalog, got %q", cfg.Name)
	}
}

func TestConfig_ApplyDefaults_RetryReads(t *testing.T) {
	cfg := Config{RetryReads: true}
	cfg.ApplyDefaults()
	if cfg.Retry == nil {
		t.Fatal("expected default retry config")
	}
	if cfg.Retry.RetryIf == nil {
		t.Error("expected RetryIf to be set")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Timeout: time.Second, BaseURL: "http://localhost:8080"}, false},
		{"no base url", Config{Timeout: time.Second}, false},
		{"zero timeout", Config{}, true},
		{"relative base url", Config{Timeout: time.Second, BaseURL: "/api"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
