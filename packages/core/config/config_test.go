package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Timeout != 30000 {
		t.Errorf("expected 30000ms timeout, got %d", cfg.Timeout)
	}
	if cfg.Strategy != "sequential" {
		t.Errorf("expected sequential strategy, got %q", cfg.Strategy)
	}
	if cfg.GetStrict() {
		t.Error("strict should default to off")
	}
	if !cfg.GetFollowRedirects() {
		t.Error("followRedirects should default to on")
	}
	if !cfg.GetValidateSSL() {
		t.Error("validateSSL should default to on")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "restcheck.config.json")
	content := `{
		"defaultEnvironment": "staging",
		"timeout": 5000,
		"bail": 3,
		"strategy": "concurrent",
		"strict": true,
		"followRedirects": false,
		"defaultHeaders": {"X-Api-Key": "k"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DefaultEnvironment != "staging" || cfg.Timeout != 5000 || cfg.Bail != 3 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.GetStrict() || cfg.GetFollowRedirects() {
		t.Errorf("bool overrides not applied: strict=%v follow=%v", cfg.GetStrict(), cfg.GetFollowRedirects())
	}
	if cfg.DefaultHeaders["X-Api-Key"] != "k" {
		t.Errorf("headers not loaded: %v", cfg.DefaultHeaders)
	}
	// Fields the file omits keep their defaults.
	if cfg.MaxPasses != 10 {
		t.Errorf("expected default maxPasses, got %d", cfg.MaxPasses)
	}
}

func TestLoadConfigMissingExplicitPath(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("explicit missing path should error")
	}
}

func TestFindAndLoadConfigFallsBackToDefaults(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoadConfig returned error: %v", err)
	}
	if cfg.Timeout != 30000 {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestFindAndLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(".restcheck.config.json", `{"timeout": 1000}`)
	write("restcheck.config.json", `{"timeout": 2000}`)

	cfg, err := FindAndLoadConfig(dir)
	if err != nil {
		t.Fatalf("FindAndLoadConfig returned error: %v", err)
	}
	if cfg.Timeout != 1000 {
		t.Errorf("dotted file should win, got %d", cfg.Timeout)
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".restcheckrc")
	if err := os.WriteFile(path, []byte(`{broken`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("invalid json should error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }, true},
		{"negative bail", func(c *Config) { c.Bail = -2 }, true},
		{"negative maxRequests", func(c *Config) { c.MaxRequests = -1 }, true},
		{"negative delay", func(c *Config) { c.DelayBetween = -5 }, true},
		{"bad strategy", func(c *Config) { c.Strategy = "parallel" }, true},
		{"concurrent strategy", func(c *Config) { c.Strategy = "concurrent" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
