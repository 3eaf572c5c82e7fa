// Package config loads runtime configuration for the userkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the API, including the route prefix
//	-d string   local data directory
//	-t int      request timeout (seconds)
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8000/auth",
//	  "data_dir": ".userkeeper",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s"
//	}
package config
