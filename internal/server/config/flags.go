package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-r string   route prefix (e.g., "/auth")
//	-m string   user store (postgres, memory)
//	-d string   PostgreSQL DSN
//	-s string   token signing secret
//	-g string   token signing algorithm (HS256, HS384, HS512)
//	-t int      access token lifetime, minutes
//	-x string   password hasher (bcrypt, argon2id)
//	-b int      bcrypt cost
//	-l string   log level
//	-o string   OTLP/HTTP trace collector URL
//
// Only these flags are picked out of os.Args, so -c/-config and flags of
// other components do not cause parse errors.
func parseFlags(config *Config) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.PathPrefix, "r", config.PathPrefix, "route prefix")
	fs.StringVar(&config.Storage, "m", config.Storage, "user store (postgres, memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.SigningAlgorithm, "g", config.SigningAlgorithm, "token signing algorithm")
	expire := fs.Int("t", int(config.AccessTokenExpire/time.Minute), "access token lifetime (in minutes)")
	fs.StringVar(&config.PasswordHasher, "x", config.PasswordHasher, "password hasher (bcrypt, argon2id)")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.OTelEndpoint, "o", config.OTelEndpoint, "OTLP/HTTP trace collector URL")

	if err := flagx.ParseOwn(fs, os.Args[1:]); err != nil {
		return err
	}

	config.AccessTokenExpire = time.Duration(*expire) * time.Minute
	return nil
}
