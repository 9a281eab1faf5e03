package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the restcheck run configuration.
type Config struct {
	DefaultEnvironment string            `json:"defaultEnvironment,omitempty"`
	Timeout            int               `json:"timeout,omitempty"` // milliseconds
	DefaultHeaders     map[string]string `json:"defaultHeaders,omitempty"`
	Bail               int               `json:"bail,omitempty"`
	MaxRequests        int               `json:"maxRequests,omitempty"`
	DelayBetween       int               `json:"delayBetweenRequests,omitempty"` // milliseconds
	Strategy           string            `json:"strategy,omitempty"`             // sequential | concurrent
	RequestsPerSecond  float64           `json:"requestsPerSecond,omitempty"`
	Strict             *bool             `json:"strict,omitempty"`
	MaxPasses          int               `json:"maxPasses,omitempty"`
	FollowRedirects    *bool             `json:"followRedirects,omitempty"`
	ValidateSSL        *bool             `json:"validateSSL,omitempty"`
	Proxy              string            `json:"proxy,omitempty"`
	Reporters          []string          `json:"reporters,omitempty"`
	NoColor            *bool             `json:"noColor,omitempty"`
	HistoryPath        string            `json:"historyPath,omitempty"`
}

func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// BoolPtr returns a pointer to a bool value.
func BoolPtr(b bool) *bool {
	return &b
}

// GetStrict returns the strict resolution setting, defaulting to false.
func (c *Config) GetStrict() bool {
	return getBool(c.Strict, false)
}

// GetFollowRedirects returns the redirect setting, defaulting to true.
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the TLS validation setting, defaulting to true.
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetNoColor returns the no color setting, defaulting to false.
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names.
var ConfigFilenames = []string{
	".restcheck.config.json",
	"restcheck.config.json",
	".restcheckrc",
	".restcheckrc.json",
}

// LoadConfig loads configuration from the given path, or searches the
// current directory when the path is empty.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory,
// falling back to defaults when none exists.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot honor.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Bail < 0 {
		return fmt.Errorf("bail must be >= 1 when set")
	}
	if c.MaxRequests < 0 {
		return fmt.Errorf("maxRequests must be >= 1 when set")
	}
	if c.DelayBetween < 0 {
		return fmt.Errorf("delayBetweenRequests must be >= 0")
	}
	if c.Strategy != "" && c.Strategy != "sequential" && c.Strategy != "concurrent" {
		return fmt.Errorf("strategy must be sequential or concurrent, got %q", c.Strategy)
	}
	return nil
}
