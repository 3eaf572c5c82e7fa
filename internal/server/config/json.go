package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/flagx"
)

// JsonConfig is the on-disk shape of the configuration file. Token lifetime is
// given in whole minutes, matching the command-line flag.
type JsonConfig struct {
	EndpointAddrHTTP         string `json:"endpoint_addr_http"`
	PathPrefix               string `json:"path_prefix"`
	Storage                  string `json:"storage"`
	DatabaseDSN              string `json:"database_dsn"`
	SecretKey                string `json:"secret_key"`
	SigningAlgorithm         string `json:"algorithm"`
	AccessTokenExpireMinutes int    `json:"access_token_expire_minutes"`
	PasswordHasher           string `json:"password_hasher"`
	BcryptCost               int    `json:"bcrypt_cost"`
	LogLevel                 string `json:"log_level"`
	OTelEndpoint             string `json:"otel_endpoint"`
}

// parseJson overlays config with the file named by -c/-config. Keys missing
// from the file keep their current values. No flag means nothing to load.
func parseJson(config *Config) error {
	path := flagx.ConfigFile()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := JsonConfig{
		EndpointAddrHTTP:         config.EndpointAddrHTTP,
		PathPrefix:               config.PathPrefix,
		Storage:                  config.Storage,
		DatabaseDSN:              config.DatabaseDSN,
		SecretKey:                config.SecretKey,
		SigningAlgorithm:         config.SigningAlgorithm,
		AccessTokenExpireMinutes: int(config.AccessTokenExpire / time.Minute),
		PasswordHasher:           config.PasswordHasher,
		BcryptCost:               config.BcryptCost,
		LogLevel:                 config.LogLevel,
		OTelEndpoint:             config.OTelEndpoint,
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.PathPrefix = c.PathPrefix
	config.Storage = c.Storage
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.SigningAlgorithm = c.SigningAlgorithm
	config.AccessTokenExpire = time.Duration(c.AccessTokenExpireMinutes) * time.Minute
	config.PasswordHasher = c.PasswordHasher
	config.BcryptCost = c.BcryptCost
	config.LogLevel = c.LogLevel
	config.OTelEndpoint = c.OTelEndpoint
	return nil
}
