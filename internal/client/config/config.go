package config

import "time"

// Config holds runtime settings for the rair wallet client.
//
// Fields:
//   - ServerURL: base URL of the rair backend REST API.
//   - CacheFile: SQLite file where the session token is cached between runs.
//   - RefreshSkew: how long before the token's exp claim the client logs in again.
//   - RequestTimeout: per-request HTTP timeout.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	ServerURL      string
	CacheFile      string
	RefreshSkew    time.Duration
	RequestTimeout time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.CacheFile = "rair-client.db"
	c.RefreshSkew = 30 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
