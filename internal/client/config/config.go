package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the userkeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the API including the route prefix.
//   - DataDir: directory (relative to the working directory) holding the
//     local session database.
//   - RequestTimeout: upper bound for a single API call.
//   - OnlineCheckInterval: how often the client probes server reachability.
type Config struct {
	ServerURL           string
	DataDir             string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000/auth"
	c.DataDir = ".userkeeper"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL is empty")
	}
	if c.RequestTimeout <= 0 || c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("timeouts and intervals must be positive")
	}
	return nil
}
