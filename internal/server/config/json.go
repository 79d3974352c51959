package config

import (
	"encoding/json"
	"os"

	"github.com/afocalor/rair-dapp/internal/flagx"
	"github.com/afocalor/rair-dapp/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Interval
// fields use timex.Duration so both "1m" and integer nanoseconds parse.
// Fields left out of the file keep their previous value.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	ChallengeValidityDuration   timex.Duration `json:"challenge_validity_duration"`
	DomainName                  string         `json:"domain_name"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	StreamLinkValidityDuration  timex.Duration `json:"stream_link_validity_duration"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by -c,
// -config or $RAIR_CONFIG into config. Without a path nothing happens.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.DomainName, c.DomainName)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.ChallengeValidityDuration.Duration > 0 {
		config.ChallengeValidityDuration = c.ChallengeValidityDuration.Duration
	}
	if c.StreamLinkValidityDuration.Duration > 0 {
		config.StreamLinkValidityDuration = c.StreamLinkValidityDuration.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
