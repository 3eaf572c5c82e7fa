package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the server API (default from Config)
//	-d string   local data directory
//	-t int      request timeout in seconds
//	-i int      online check interval in seconds (default from Config)
//
// Only these flags are picked out of os.Args, so -c/-config does not
// interfere.
func parseFlags(cfg *Config) error {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "server API base URL")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "local data directory")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := flagx.ParseOwn(fs, os.Args[1:]); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	return nil
}
