package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// HTTP gateway
	HTTPAddr    string
	AgentSecret string

	// Postgres (candidate / property / health stores)
	PostgresDSN string

	// Redis (approved-property stream)
	RedisAddr   string
	RedisDB     int
	RedisStream string

	// Memcache (source cooldown cache)
	MemcacheAddr string

	// Scraper behaviour
	FetchTimeout   time.Duration
	BlockCooldown  time.Duration
	ScrapeInterval time.Duration // 0 disables the internal scheduler

	// Source listing URLs
	GCSurplusURL      string
	AlbertaSurplusURL string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	fetchTimeout, _ := strconv.Atoi(getEnv("FETCH_TIMEOUT_SECONDS", "30"))
	blockCooldown, _ := strconv.Atoi(getEnv("BLOCK_COOLDOWN_SECONDS", "900"))
	scrapeInterval, _ := strconv.Atoi(getEnv("SCRAPE_INTERVAL_SECONDS", "0"))

	return Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		AgentSecret:       getEnv("AGENT_SECRET", ""),
		PostgresDSN:       getEnv("POSTGRES_DSN", ""),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:           redisDB,
		RedisStream:       getEnv("REDIS_STREAM", "approved_properties"),
		MemcacheAddr:      getEnv("MEMCACHE_ADDR", "localhost:11211"),
		FetchTimeout:      time.Duration(fetchTimeout) * time.Second,
		BlockCooldown:     time.Duration(blockCooldown) * time.Second,
		ScrapeInterval:    time.Duration(scrapeInterval) * time.Second,
		GCSurplusURL:      getEnv("GCSURPLUS_URL", "https://gcsurplus.ca/mn-eng.cfm?snc=wfsav&vndsld=0"),
		AlbertaSurplusURL: getEnv("ALBERTA_SURPLUS_URL", "https://surplus.alberta.ca/listings"),
		Environment:       getEnv("INGEST_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the worker cannot run with
func (c *Config) Validate() error {
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %v", c.FetchTimeout)
	}
	if c.Environment == "production" && c.AgentSecret == "" {
		return fmt.Errorf("AGENT_SECRET must be set in production")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
