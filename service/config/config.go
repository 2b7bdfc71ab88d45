package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// Values are read once at startup and never mutated afterwards.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Primary provider (Helius enhanced transactions API).
	// An empty key is allowed: the primary tier then fails and the chain falls back.
	HeliusAPIKey  string
	HeliusBaseURL string

	// Price feed and secondary provider
	PriceFeedURL string
	GmgnBaseURL  string

	// NATS configuration. Empty disables estimate publishing.
	NATSURL string

	// Upstream call policy
	UpstreamTimeout  time.Duration
	MaxTransactions  int
	TransactionBatch int

	// PNL policy values
	NativeDustThreshold     float64
	StablecoinDustThreshold float64
	PriceMaxAge             time.Duration
	FallbackSOLPrice        float64
	DemoSOLPrice            float64
}

// Load reads configuration from environment variables and validates all fields.
// Every parse and validation error is reported, not just the first.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.HeliusAPIKey = os.Getenv("HELIUS_API_KEY")
	cfg.HeliusBaseURL = getEnvOrDefault("HELIUS_BASE_URL", "https://api.helius.xyz")
	cfg.PriceFeedURL = getEnvOrDefault("PRICE_FEED_URL", "https://api.coingecko.com/api/v3/simple/price")
	cfg.GmgnBaseURL = getEnvOrDefault("GMGN_BASE_URL", "https://gmgn.ai")
	cfg.NATSURL = os.Getenv("NATS_URL")

	var err error
	if cfg.UpstreamTimeout, err = parseDuration("UPSTREAM_TIMEOUT", "10s"); err != nil {
		errs = append(errs, err)
	}
	if cfg.PriceMaxAge, err = parseDuration("PRICE_MAX_AGE", "60s"); err != nil {
		errs = append(errs, err)
	}
	if cfg.MaxTransactions, err = parseInt("MAX_TRANSACTIONS", 1000); err != nil {
		errs = append(errs, err)
	}
	if cfg.TransactionBatch, err = parseInt("TRANSACTION_BATCH_SIZE", 100); err != nil {
		errs = append(errs, err)
	}
	if cfg.NativeDustThreshold, err = parseFloat("NATIVE_DUST_THRESHOLD", 0.00001); err != nil {
		errs = append(errs, err)
	}
	if cfg.StablecoinDustThreshold, err = parseFloat("STABLECOIN_DUST_THRESHOLD", 0.01); err != nil {
		errs = append(errs, err)
	}
	if cfg.FallbackSOLPrice, err = parseFloat("FALLBACK_SOL_PRICE", 200); err != nil {
		errs = append(errs, err)
	}
	if cfg.DemoSOLPrice, err = parseFloat("DEMO_SOL_PRICE", 100); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.HeliusBaseURL == "" {
		errs = append(errs, fmt.Errorf("HeliusBaseURL is required"))
	}
	if c.PriceFeedURL == "" {
		errs = append(errs, fmt.Errorf("PriceFeedURL is required"))
	}
	if c.GmgnBaseURL == "" {
		errs = append(errs, fmt.Errorf("GmgnBaseURL is required"))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, fmt.Errorf("UpstreamTimeout must be positive"))
	}
	if c.MaxTransactions < 1 {
		errs = append(errs, fmt.Errorf("MaxTransactions must be at least 1"))
	}
	if c.TransactionBatch < 1 || c.TransactionBatch > 100 {
		errs = append(errs, fmt.Errorf("TransactionBatch must be between 1 and 100"))
	}
	if c.NativeDustThreshold < 0 || c.StablecoinDustThreshold < 0 {
		errs = append(errs, fmt.Errorf("dust thresholds cannot be negative"))
	}
	if c.PriceMaxAge < 0 {
		errs = append(errs, fmt.Errorf("PriceMaxAge cannot be negative"))
	}
	if c.FallbackSOLPrice <= 0 {
		errs = append(errs, fmt.Errorf("FallbackSOLPrice must be positive"))
	}
	if c.DemoSOLPrice <= 0 {
		errs = append(errs, fmt.Errorf("DemoSOLPrice must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

// parseFloat parses a float from an environment variable or uses a default.
func parseFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", key, value, err)
	}
	return result, nil
}
