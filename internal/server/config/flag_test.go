package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"cmd",
		"-a", "127.0.0.1:9090", "-d", "db", "-x", "redis://cache:6379/1",
		"-s", "access-secret", "-k", "refresh-secret",
		"-t", "5", "-r", "120",
	}

	config := &Config{}
	require.NotPanics(t, func() { parseFlags(config) })

	assert.Equal(t, "127.0.0.1:9090", config.EndpointAddr)
	assert.Equal(t, "db", config.DatabaseDSN)
	assert.Equal(t, "redis://cache:6379/1", config.RedisURL)
	assert.Equal(t, "access-secret", config.AccessTokenSecret)
	assert.Equal(t, "refresh-secret", config.RefreshTokenSecret)
	assert.Equal(t, 5*time.Minute, config.AccessTokenValidityDuration)
	assert.Equal(t, 120*time.Minute, config.RefreshTokenValidityDuration)
}

func TestParseFlags_IgnoresForeignFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"cmd", "-a", ":9999", "-unknown", "value"}

	config := &Config{}
	config.LoadDefaults()
	require.NotPanics(t, func() { parseFlags(config) })

	assert.Equal(t, ":9999", config.EndpointAddr)
	assert.Equal(t, "redis://localhost:6379/0", config.RedisURL)
}
