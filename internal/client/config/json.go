package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/authgate/internal/flagx"
)

type JsonConfig struct {
	ServerURL string `json:"server_url"`
}

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

	if c.ServerURL != "" {
		config.ServerURL = c.ServerURL
	}
}
