// Package config loads service configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Port         int
	DatabasePath string
	LogLevel     string
	DevMode      bool

	EbayClientID     string
	EbayClientSecret string
	EbayRedirectURI  string
	EbaySandbox      bool

	SyncDaysBack   int
	SyncPageSize   int
	SyncMaxRetries int
	// SyncSchedule is a cron expression for automatic syncs; empty
	// disables the scheduled job.
	SyncSchedule string
}

// Load reads configuration from the environment. A missing .env file is
// not an error; missing eBay credentials are, since nothing works without
// them.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:             envInt("PORT", 8080),
		DatabasePath:     envString("DATABASE_PATH", "data/sellsync.db"),
		LogLevel:         envString("LOG_LEVEL", "info"),
		DevMode:          envBool("DEV_MODE", false),
		EbayClientID:     os.Getenv("EBAY_CLIENT_ID"),
		EbayClientSecret: os.Getenv("EBAY_CLIENT_SECRET"),
		EbayRedirectURI:  os.Getenv("EBAY_REDIRECT_URI"),
		EbaySandbox:      envBool("EBAY_SANDBOX", false),
		SyncDaysBack:     envInt("SYNC_DAYS_BACK", 30),
		SyncPageSize:     envInt("SYNC_PAGE_SIZE", 200),
		SyncMaxRetries:   envInt("SYNC_MAX_RETRIES", 3),
		SyncSchedule:     os.Getenv("SYNC_SCHEDULE"),
	}

	if cfg.EbayClientID == "" || cfg.EbayClientSecret == "" {
		return nil, fmt.Errorf("EBAY_CLIENT_ID and EBAY_CLIENT_SECRET must be set")
	}

	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
