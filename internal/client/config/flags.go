package config

import (
	"flag"
	"os"
	"time"

	"github.com/afocalor/rair-dapp/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server
//	-f string   session cache file
//	-k int      token refresh skew in seconds
//	-t int      request timeout in seconds
//	-v string   log level
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-k", "-t", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the rair server")
	fs.StringVar(&cfg.CacheFile, "f", cfg.CacheFile, "session cache file")
	refreshSkew := fs.Int("k", int(cfg.RefreshSkew.Seconds()), "token refresh skew (in seconds)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RefreshSkew = time.Duration(*refreshSkew) * time.Second
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
