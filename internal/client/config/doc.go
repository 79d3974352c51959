// Package config loads runtime configuration for the rair wallet client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c, -config or $RAIR_CONFIG.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "cache_file": "rair-client.db",
//	  "refresh_skew": "30s",
//	  "request_timeout": "10s",
//	  "log_level": "info"
//	}
package config
