package config

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Timeout:     30000, // 30 seconds
		Strategy:    "sequential",
		MaxPasses:   10,
		Reporters:   []string{"console"},
		HistoryPath: ".restcheck/history.db",
	}
}
