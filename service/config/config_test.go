package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.HeliusAPIKey)
	assert.Equal(t, "https://api.helius.xyz", cfg.HeliusBaseURL)
	assert.Equal(t, "https://api.coingecko.com/api/v3/simple/price", cfg.PriceFeedURL)
	assert.Equal(t, "https://gmgn.ai", cfg.GmgnBaseURL)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 1000, cfg.MaxTransactions)
	assert.Equal(t, 100, cfg.TransactionBatch)
	assert.Equal(t, 0.00001, cfg.NativeDustThreshold)
	assert.Equal(t, 0.01, cfg.StablecoinDustThreshold)
	assert.Equal(t, 60*time.Second, cfg.PriceMaxAge)
	assert.Equal(t, 200.0, cfg.FallbackSOLPrice)
	assert.Equal(t, 100.0, cfg.DemoSOLPrice)
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SERVER_ADDR", ":9090")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("HELIUS_API_KEY", "secret-key")
	os.Setenv("NATS_URL", "nats://nats.example.com:4222")
	os.Setenv("UPSTREAM_TIMEOUT", "3s")
	os.Setenv("MAX_TRANSACTIONS", "250")
	os.Setenv("NATIVE_DUST_THRESHOLD", "0.001")
	os.Setenv("FALLBACK_SOL_PRICE", "150.5")
	os.Setenv("PRICE_MAX_AGE", "0s")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "secret-key", cfg.HeliusAPIKey)
	assert.Equal(t, "nats://nats.example.com:4222", cfg.NATSURL)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 250, cfg.MaxTransactions)
	assert.Equal(t, 0.001, cfg.NativeDustThreshold)
	assert.Equal(t, 150.5, cfg.FallbackSOLPrice)
	assert.Equal(t, time.Duration(0), cfg.PriceMaxAge)
}

func TestLoad_InvalidValuesAreAllReported(t *testing.T) {
	os.Setenv("UPSTREAM_TIMEOUT", "soon")
	os.Setenv("MAX_TRANSACTIONS", "lots")
	os.Setenv("FALLBACK_SOL_PRICE", "cheap")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "UPSTREAM_TIMEOUT: invalid duration")
	assert.Contains(t, err.Error(), "MAX_TRANSACTIONS: invalid integer")
	assert.Contains(t, err.Error(), "FALLBACK_SOL_PRICE: invalid number")
}

func TestLoad_BatchSizeOutOfRange(t *testing.T) {
	os.Setenv("TRANSACTION_BATCH_SIZE", "500")
	defer cleanupEnv()

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TransactionBatch must be between 1 and 100")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HeliusBaseURL:           "https://api.helius.xyz",
			PriceFeedURL:            "https://api.coingecko.com/api/v3/simple/price",
			GmgnBaseURL:             "https://gmgn.ai",
			UpstreamTimeout:         10 * time.Second,
			MaxTransactions:         1000,
			TransactionBatch:        100,
			NativeDustThreshold:     0.00001,
			StablecoinDustThreshold: 0.01,
			PriceMaxAge:             time.Minute,
			FallbackSOLPrice:        200,
			DemoSOLPrice:            100,
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("zero timeout", func(t *testing.T) {
		cfg := valid()
		cfg.UpstreamTimeout = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "UpstreamTimeout must be positive")
	})

	t.Run("negative thresholds", func(t *testing.T) {
		cfg := valid()
		cfg.StablecoinDustThreshold = -1
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dust thresholds cannot be negative")
	})

	t.Run("missing urls", func(t *testing.T) {
		cfg := valid()
		cfg.PriceFeedURL = ""
		cfg.GmgnBaseURL = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PriceFeedURL is required")
		assert.Contains(t, err.Error(), "GmgnBaseURL is required")
	})
}

func TestMustLoad_Panics(t *testing.T) {
	os.Setenv("DEMO_SOL_PRICE", "-1")
	defer cleanupEnv()

	assert.Panics(t, func() {
		MustLoad()
	})
}

func TestMustLoad_Success(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	assert.NotPanics(t, func() {
		cfg := MustLoad()
		assert.NotNil(t, cfg)
	})
}

// cleanupEnv clears all environment variables used in tests
func cleanupEnv() {
	for _, key := range []string{
		"SERVER_ADDR",
		"LOG_LEVEL",
		"HELIUS_API_KEY",
		"HELIUS_BASE_URL",
		"PRICE_FEED_URL",
		"GMGN_BASE_URL",
		"NATS_URL",
		"UPSTREAM_TIMEOUT",
		"MAX_TRANSACTIONS",
		"TRANSACTION_BATCH_SIZE",
		"NATIVE_DUST_THRESHOLD",
		"STABLECOIN_DUST_THRESHOLD",
		"PRICE_MAX_AGE",
		"FALLBACK_SOL_PRICE",
		"DEMO_SOL_PRICE",
	} {
		os.Unsetenv(key)
	}
}
