package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.BaseURL != "http://localhost:8080" {
		t.Errorf("base url = %s", cfg.Server.BaseURL)
	}
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("timeout = %s", cfg.Server.Timeout)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Service != "agentwire" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if !cfg.Cache.Enabled || cfg.Cache.MaxSizeMB != 64 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Tools.MaxConcurrent != 4 {
		t.Errorf("tools = %+v", cfg.Tools)
	}
}

func TestLoadFromYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentwire.yaml")
	yaml := `
server:
  base_url: https://agents.example.com
  timeout: 10s
logging:
  level: debug
cache:
  enabled: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.BaseURL != "https://agents.example.com" {
		t.Errorf("base url = %s", cfg.Server.BaseURL)
	}
	if cfg.Server.Timeout != 10*time.Second {
		t.Errorf("timeout = %s", cfg.Server.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %s", cfg.Logging.Level)
	}
	if cfg.Cache.Enabled {
		t.Error("cache override ignored")
	}
	// Untouched sections keep their defaults.
	if cfg.Server.RetryAttempts != 3 {
		t.Errorf("retry attempts = %d", cfg.Server.RetryAttempts)
	}
	if cfg.Breaker.MaxFailures != 5 {
		t.Errorf("breaker = %+v", cfg.Breaker)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentwire.yaml")
	if err := os.WriteFile(path, []byte("server:\n  base_url: https://from-yaml\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AGENTWIRE_SERVER_BASE_URL", "https://from-env")
	t.Setenv("AGENTWIRE_LOG_LEVEL", "warn")
	t.Setenv("AGENTWIRE_SERVER_TIMEOUT", "5s")
	t.Setenv("AGENTWIRE_TOOLS_MAX_CONCURRENT", "8")
	t.Setenv("AGENTWIRE_CACHE_ENABLED", "false")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.BaseURL != "https://from-env" {
		t.Errorf("base url = %s, env did not win over yaml", cfg.Server.BaseURL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %s", cfg.Logging.Level)
	}
	if cfg.Server.Timeout != 5*time.Second {
		t.Errorf("timeout = %s", cfg.Server.Timeout)
	}
	if cfg.Tools.MaxConcurrent != 8 {
		t.Errorf("tools = %+v", cfg.Tools)
	}
	if cfg.Cache.Enabled {
		t.Error("cache still enabled")
	}
}

func TestMalformedEnvValueIgnored(t *testing.T) {
	t.Setenv("AGENTWIRE_SERVER_TIMEOUT", "not-a-duration")
	t.Setenv("AGENTWIRE_SERVER_RETRY_ATTEMPTS", "lots")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Timeout != 30*time.Second || cfg.Server.RetryAttempts != 3 {
		t.Errorf("server = %+v", cfg.Server)
	}
}

func TestLoadFromMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentwire.yaml")
	if err := os.WriteFile(path, []byte("server: [not a mapping"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.Server.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }},
		{"negative retries", func(c *Config) { c.Server.RetryAttempts = -1 }},
		{"zero breaker failures", func(c *Config) { c.Breaker.MaxFailures = 0 }},
		{"enabled cache without size", func(c *Config) { c.Cache.MaxSizeMB = 0 }},
		{"zero stream buffer", func(c *Config) { c.Stream.Buffer = 0 }},
		{"zero tool concurrency", func(c *Config) { c.Tools.MaxConcurrent = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := Defaults().validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}
