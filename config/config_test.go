package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "approved_properties", cfg.RedisStream)
	assert.Equal(t, "localhost:11211", cfg.MemcacheAddr)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 15*time.Minute, cfg.BlockCooldown)
	assert.Equal(t, time.Duration(0), cfg.ScrapeInterval)
	assert.Contains(t, cfg.GCSurplusURL, "gcsurplus.ca")
	assert.Contains(t, cfg.AlbertaSurplusURL, "surplus.alberta.ca")
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "10")
	t.Setenv("SCRAPE_INTERVAL_SECONDS", "3600")
	t.Setenv("AGENT_SECRET", "hunter2")

	cfg := LoadConfig()
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, time.Hour, cfg.ScrapeInterval)
	assert.Equal(t, "hunter2", cfg.AgentSecret)
}

func TestValidate(t *testing.T) {
	cfg := LoadConfig()
	assert.NoError(t, cfg.Validate())

	cfg.FetchTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = LoadConfig()
	cfg.Environment = "production"
	cfg.AgentSecret = ""
	assert.Error(t, cfg.Validate())

	cfg.AgentSecret = "hunter2"
	assert.NoError(t, cfg.Validate())
}
