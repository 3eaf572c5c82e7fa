package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment variable read by parseEnv.
const EnvPrefix = "USERKEEPER_"

// envConfig mirrors Config with pointer fields so unset variables are
// distinguishable from empty ones.
type envConfig struct {
	EndpointAddrHTTP         *string `env:"ADDRESS"`
	PathPrefix               *string `env:"PATH_PREFIX"`
	Storage                  *string `env:"STORAGE"`
	DatabaseDSN              *string `env:"DATABASE_DSN"`
	SecretKey                *string `env:"SECRET_KEY"`
	SigningAlgorithm         *string `env:"ALGORITHM"`
	AccessTokenExpireMinutes *int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	PasswordHasher           *string `env:"PASSWORD_HASHER"`
	BcryptCost               *int    `env:"BCRYPT_COST"`
	LogLevel                 *string `env:"LOG_LEVEL"`
	OTelEndpoint             *string `env:"OTEL_ENDPOINT"`
}

// parseEnv overlays config with USERKEEPER_* environment variables.
func parseEnv(config *Config) error {
	var e envConfig
	if err := env.ParseWithOptions(&e, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setString(&config.EndpointAddrHTTP, e.EndpointAddrHTTP)
	setString(&config.PathPrefix, e.PathPrefix)
	setString(&config.Storage, e.Storage)
	setString(&config.DatabaseDSN, e.DatabaseDSN)
	setString(&config.SecretKey, e.SecretKey)
	setString(&config.SigningAlgorithm, e.SigningAlgorithm)
	setString(&config.PasswordHasher, e.PasswordHasher)
	setString(&config.LogLevel, e.LogLevel)
	setString(&config.OTelEndpoint, e.OTelEndpoint)

	if e.AccessTokenExpireMinutes != nil {
		config.AccessTokenExpire = time.Duration(*e.AccessTokenExpireMinutes) * time.Minute
	}
	if e.BcryptCost != nil {
		config.BcryptCost = *e.BcryptCost
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
