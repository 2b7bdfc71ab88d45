package pnl

import (
	"log/slog"

	"github.com/brojonat/solwallet-tax/service/config"
	"github.com/brojonat/solwallet-tax/service/metrics"
	"github.com/brojonat/solwallet-tax/service/providers"
	"github.com/brojonat/solwallet-tax/service/solana"
)

// FromConfig wires the Helius fetcher, CoinGecko oracle and gmgn secondary
// into a Chain using cfg's endpoints and policy values.
func FromConfig(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) *Chain {
	fetcher := providers.NewHeliusClient(providers.HeliusConfig{
		BaseURL:   cfg.HeliusBaseURL,
		APIKey:    cfg.HeliusAPIKey,
		BatchSize: cfg.TransactionBatch,
		Timeout:   cfg.UpstreamTimeout,
	}, nil, m, logger)

	oracle := providers.NewCoinGeckoOracle(providers.PriceConfig{
		URL:           cfg.PriceFeedURL,
		Timeout:       cfg.UpstreamTimeout,
		MaxAge:        cfg.PriceMaxAge,
		FallbackPrice: cfg.FallbackSOLPrice,
	}, nil, m, logger)

	secondary := providers.NewGmgnClient(cfg.GmgnBaseURL, cfg.UpstreamTimeout, nil, m, logger)

	if cfg.HeliusAPIKey == "" {
		logger.Warn("HELIUS_API_KEY not set, primary tier will always fall back")
	}

	return NewChain(fetcher, oracle, secondary, Options{
		MaxTransactions: cfg.MaxTransactions,
		Thresholds: solana.Thresholds{
			Native:     cfg.NativeDustThreshold,
			Stablecoin: cfg.StablecoinDustThreshold,
		},
		DemoSOLPrice:  cfg.DemoSOLPrice,
		FallbackPrice: cfg.FallbackSOLPrice,
	}, m, logger)
}
