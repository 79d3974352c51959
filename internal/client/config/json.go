package config

import (
	"encoding/json"
	"os"

	"github.com/afocalor/rair-dapp/internal/flagx"
	"github.com/afocalor/rair-dapp/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals use
// timex.Duration so they can be written as "30s" or integer nanoseconds.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	CacheFile      string         `json:"cache_file"`
	RefreshSkew    timex.Duration `json:"refresh_skew"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	LogLevel       string         `json:"log_level"`
}

// parseJson overlays cfg with values from the JSON file named by -c, -config
// or $RAIR_CONFIG. Missing fields keep their current value. Read or decode
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.CacheFile != "" {
		cfg.CacheFile = jc.CacheFile
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.RefreshSkew.Duration > 0 {
		cfg.RefreshSkew = jc.RefreshSkew.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
