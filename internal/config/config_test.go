package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFromFile_Defaults(t *testing.T) {
	cfg, err := fromFile(&FileConfig{})
	if err != nil {
		t.Fatalf("fromFile() error: %v", err)
	}

	if cfg.ServerPort != ":3004" {
		t.Errorf("expected default port :3004, got %q", cfg.ServerPort)
	}
	if cfg.RateLimit.Requests != 5 {
		t.Errorf("expected 5 requests per window, got %d", cfg.RateLimit.Requests)
	}
	if cfg.RateLimit.Window != time.Minute {
		t.Errorf("expected 1m window, got %v", cfg.RateLimit.Window)
	}
	if cfg.RequestTimeout != 5*time.Minute {
		t.Errorf("expected 5m timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.Upstream.ModelOptionID != DefaultModelOptionID {
		t.Errorf("expected model option %q, got %q", DefaultModelOptionID, cfg.Upstream.ModelOptionID)
	}
	if cfg.Upstream.ResponseURL != DefaultResponseURL {
		t.Errorf("unexpected response URL %q", cfg.Upstream.ResponseURL)
	}
}

func TestFromFile_EnvOverridesFile(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9999")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("GROK_AUTH_TOKEN", "env-token")

	fc := &FileConfig{
		ServerPort: ":8080",
		RateLimit:  FileRateLimit{Requests: 10, Window: "2m"},
		Upstream:   FileUpstream{AuthToken: "file-token", Cookie: "c=1"},
	}

	cfg, err := fromFile(fc)
	if err != nil {
		t.Fatalf("fromFile() error: %v", err)
	}

	if cfg.ServerPort != ":9999" {
		t.Errorf("expected env port, got %q", cfg.ServerPort)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("expected env window 30s, got %v", cfg.RateLimit.Window)
	}
	if cfg.RateLimit.Requests != 10 {
		t.Errorf("expected file requests 10, got %d", cfg.RateLimit.Requests)
	}
	if cfg.Upstream.AuthToken != "env-token" {
		t.Errorf("expected env token, got %q", cfg.Upstream.AuthToken)
	}
	if cfg.Upstream.Cookie != "c=1" {
		t.Errorf("expected file cookie, got %q", cfg.Upstream.Cookie)
	}
}

func TestFromFile_InvalidDuration(t *testing.T) {
	_, err := fromFile(&FileConfig{RequestTimeout: "forever"})
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		RequestTimeout: time.Minute,
		RateLimit:      RateLimit{Requests: 5, Window: time.Minute},
		Upstream:       Upstream{AuthToken: "a", Cookie: "b", CSRFToken: "c"},
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing token", mutate: func(c *Config) { c.Upstream.AuthToken = "" }, wantErr: "auth_token"},
		{name: "missing cookie", mutate: func(c *Config) { c.Upstream.Cookie = "" }, wantErr: "cookie"},
		{name: "missing csrf", mutate: func(c *Config) { c.Upstream.CSRFToken = "" }, wantErr: "csrf_token"},
		{name: "zero requests", mutate: func(c *Config) { c.RateLimit.Requests = 0 }, wantErr: "requests"},
		{name: "zero window", mutate: func(c *Config) { c.RateLimit.Window = 0 }, wantErr: "window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFileAt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
server_port = ":7000"

[rate_limit]
requests = 3
window = "10s"

[upstream]
auth_token = "tok"
cookie = "ck"
csrf_token = "csrf"

[[models]]
slug = "fun"
name = "Grok Fun"
system_prompt = "fun"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	fc, err := loadFileAt(path)
	if err != nil {
		t.Fatalf("loadFileAt() error: %v", err)
	}
	if fc.ServerPort != ":7000" {
		t.Errorf("expected :7000, got %q", fc.ServerPort)
	}
	if fc.RateLimit.Requests != 3 || fc.RateLimit.Window != "10s" {
		t.Errorf("unexpected rate limit %+v", fc.RateLimit)
	}
	if fc.Upstream.CSRFToken != "csrf" {
		t.Errorf("expected csrf token, got %q", fc.Upstream.CSRFToken)
	}
	if len(fc.Models) != 1 || fc.Models[0].SystemPrompt != "fun" {
		t.Errorf("unexpected models %+v", fc.Models)
	}
}

func TestLoadFileAt_Missing(t *testing.T) {
	fc, err := loadFileAt(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if fc.ServerPort != "" {
		t.Errorf("expected empty config, got %+v", fc)
	}
}
