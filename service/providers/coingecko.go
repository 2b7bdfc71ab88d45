package providers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/brojonat/solwallet-tax/service/metrics"
)

const (
	// CoinGeckoProvider labels price feed calls in logs and metrics.
	CoinGeckoProvider = "coingecko"

	// DefaultFallbackSOLPrice is returned when the feed cannot be read.
	DefaultFallbackSOLPrice = 200.0
)

// PriceConfig configures the SOL/USD price oracle.
type PriceConfig struct {
	URL           string        // simple price endpoint
	Timeout       time.Duration // per request
	MaxAge        time.Duration // how long a fetched price may be reused; 0 disables reuse
	FallbackPrice float64
}

// CoinGeckoOracle reads the current SOL price in USD. It never fails: on any
// error or missing field it returns the configured fallback price.
type CoinGeckoOracle struct {
	cfg        PriceConfig
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time

	mu        sync.RWMutex
	price     float64
	fetchedAt time.Time
}

// NewCoinGeckoOracle creates a new price oracle. If httpClient is nil a
// default client is used. If m is nil, no metrics will be recorded.
func NewCoinGeckoOracle(cfg PriceConfig, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *CoinGeckoOracle {
	if cfg.FallbackPrice <= 0 {
		cfg.FallbackPrice = DefaultFallbackSOLPrice
	}
	return &CoinGeckoOracle{
		cfg:        cfg,
		httpClient: newHTTPClient(httpClient),
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// SOLPrice returns the SOL price in USD.
func (o *CoinGeckoOracle) SOLPrice(ctx context.Context) float64 {
	if price, ok := o.cached(); ok {
		return price
	}

	var body struct {
		Solana *struct {
			USD *float64 `json:"usd"`
		} `json:"solana"`
	}

	q := url.Values{}
	q.Set("ids", "solana")
	q.Set("vs_currencies", "usd")
	header := http.Header{"Accept": []string{"application/json"}}

	if err := getJSON(ctx, o.httpClient, o.cfg.Timeout, CoinGeckoProvider, o.cfg.URL+"?"+q.Encode(), header, o.metrics, &body); err != nil {
		o.logger.WarnContext(ctx, "failed to fetch SOL price, using fallback",
			"fallback", o.cfg.FallbackPrice,
			"error", err,
		)
		o.metrics.RecordPriceFallback(Classify(err))
		return o.cfg.FallbackPrice
	}

	if body.Solana == nil || body.Solana.USD == nil || *body.Solana.USD <= 0 {
		o.logger.WarnContext(ctx, "price feed response missing solana.usd, using fallback",
			"fallback", o.cfg.FallbackPrice,
		)
		o.metrics.RecordPriceFallback("missing_field")
		return o.cfg.FallbackPrice
	}

	price := *body.Solana.USD
	o.store(price)
	o.logger.DebugContext(ctx, "fetched SOL price", "usd", price)
	return price
}

func (o *CoinGeckoOracle) cached() (float64, bool) {
	if o.cfg.MaxAge <= 0 {
		return 0, false
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.fetchedAt.IsZero() || o.now().Sub(o.fetchedAt) >= o.cfg.MaxAge {
		return 0, false
	}
	return o.price, true
}

func (o *CoinGeckoOracle) store(price float64) {
	if o.cfg.MaxAge <= 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.price = price
	o.fetchedAt = o.now()
}
