package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/authgate/internal/flagx"
	"github.com/dmitrijs2005/authgate/internal/timex"
)

// JsonConfig is the DTO for the optional JSON config file. Interval fields
// use timex.Duration, which accepts both "15m" strings and integer
// nanoseconds. Values are copied into the runtime Config after parsing;
// absent fields leave the defaults untouched.
type JsonConfig struct {
	EndpointAddr                 string         `json:"endpoint_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	RedisURL                     string         `json:"redis_url"`
	AccessTokenSecret            string         `json:"access_token_secret"`
	RefreshTokenSecret           string         `json:"refresh_token_secret"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
}

// parseJson loads configuration values from the JSON file given via the
// -c/-config flags into the provided Config. When no file is given the
// function is a no-op. An unreadable or invalid file panics: starting
// with a half-applied config is worse than not starting.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.RedisURL != "" {
		config.RedisURL = c.RedisURL
	}
	if c.AccessTokenSecret != "" {
		config.AccessTokenSecret = c.AccessTokenSecret
	}
	if c.RefreshTokenSecret != "" {
		config.RefreshTokenSecret = c.RefreshTokenSecret
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	}
}
