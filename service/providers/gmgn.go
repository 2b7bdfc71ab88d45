package providers

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brojonat/solwallet-tax/service/metrics"
	"github.com/itchyny/gojq"
)

const (
	// GmgnProvider labels secondary provider calls in logs and metrics.
	GmgnProvider = "gmgn"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// profitQuery picks the first present profit field, in priority order, from
// either the "data" envelope or the top-level object. Absent fields yield 0.
// jq's // only skips null and false, so a present 0 or "" stops the lookup.
var profitQuery = mustCompile(`(.data? // .) | (.realized_profit? // .total_profit? // .pnl? // 0)`)

func mustCompile(src string) *gojq.Code {
	q, err := gojq.Parse(src)
	if err != nil {
		panic(fmt.Sprintf("invalid jq query %q: %v", src, err))
	}
	code, err := gojq.Compile(q)
	if err != nil {
		panic(fmt.Sprintf("failed to compile jq query %q: %v", src, err))
	}
	return code
}

// GmgnClient reads a pre-aggregated realized profit figure for a wallet.
type GmgnClient struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewGmgnClient creates a new secondary provider client. If httpClient is nil
// a default client is used.
func NewGmgnClient(baseURL string, timeout time.Duration, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *GmgnClient {
	return &GmgnClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: newHTTPClient(httpClient),
		metrics:    m,
		logger:     logger,
	}
}

// WalletProfit returns the wallet's realized profit in USD.
// Non-success statuses wrap ErrUpstreamUnavailable and undecodable bodies
// wrap ErrMalformedResponse. A body without any known profit field is 0.
func (c *GmgnClient) WalletProfit(ctx context.Context, wallet string) (float64, error) {
	u := fmt.Sprintf("%s/defi/quotation/v1/wallet_stat/sol/%s", c.baseURL, url.PathEscape(wallet))
	header := http.Header{
		"Accept":     []string{"application/json"},
		"User-Agent": []string{browserUserAgent},
	}

	var body any
	if err := getJSON(ctx, c.httpClient, c.timeout, GmgnProvider, u, header, c.metrics, &body); err != nil {
		return 0, err
	}

	profit, err := extractProfit(body)
	if err != nil {
		return 0, err
	}

	c.logger.DebugContext(ctx, "fetched wallet profit from gmgn",
		"wallet", wallet,
		"profit_usd", profit,
	)
	return profit, nil
}

// extractProfit runs profitQuery against a decoded JSON body. String values
// are parsed as numbers; anything unparseable counts as 0.
func extractProfit(body any) (float64, error) {
	iter := profitQuery.Run(body)
	v, ok := iter.Next()
	if !ok {
		return 0, nil
	}
	if err, isErr := v.(error); isErr {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, GmgnProvider, err)
	}
	return toFloat(v), nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}
