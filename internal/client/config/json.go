package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations are
// strings in time.ParseDuration form ("3s", "1m").
type JsonConfig struct {
	ServerURL           string `json:"server_url"`
	DataDir             string `json:"data_dir"`
	RequestTimeout      string `json:"request_timeout"`
	OnlineCheckInterval string `json:"online_check_interval"`
}

// parseJson overlays Config with values loaded from the JSON file given
// with -c or -config. Keys absent from the file leave Config untouched.
func parseJson(cfg *Config) error {
	jsonConfigFile := flagx.ConfigFile()
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if err := setDuration(&cfg.RequestTimeout, jc.RequestTimeout); err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	if err := setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval); err != nil {
		return fmt.Errorf("online_check_interval: %w", err)
	}
	return nil
}

func setDuration(dst *time.Duration, s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
