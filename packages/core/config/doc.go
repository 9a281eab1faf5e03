// Package config handles configuration loading for restcheck.
//
// It provides functionality for:
//   - Loading configuration from restcheck.config.json and friends
//   - Default configuration values
//   - Validation of scheduling and throttling settings
package config
