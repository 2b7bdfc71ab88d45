package providers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/brojonat/solwallet-tax/service/metrics"
	"github.com/brojonat/solwallet-tax/service/solana"
)

const (
	// HeliusProvider labels Helius calls in logs and metrics.
	HeliusProvider = "helius"

	// DefaultBatchSize is the number of transactions requested per page.
	DefaultBatchSize = 100
)

// HeliusConfig configures the primary transaction provider.
type HeliusConfig struct {
	BaseURL   string // e.g. https://api.helius.xyz
	APIKey    string // required; empty makes every fetch fail with ErrNotConfigured
	BatchSize int
	Timeout   time.Duration // per batch request
}

// HeliusClient fetches parsed wallet transaction history from the Helius
// enhanced transactions API.
type HeliusClient struct {
	cfg        HeliusConfig
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewHeliusClient creates a new Helius client. If httpClient is nil a default
// client is used. If m is nil, no metrics will be recorded.
func NewHeliusClient(cfg HeliusConfig, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *HeliusClient {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HeliusClient{
		cfg:        cfg,
		httpClient: newHTTPClient(httpClient),
		metrics:    m,
		logger:     logger,
	}
}

// FetchTransactions returns up to limit transactions for wallet, newest first.
//
// Pages are requested sequentially, each using the previous page's last
// signature as an exclusive "before" cursor. Pagination stops at limit, on a
// short or empty page, or on any upstream failure; in the failure case the
// transactions accumulated so far are returned without an error. The only
// errors are ErrNotConfigured and cancellation of ctx.
func (c *HeliusClient) FetchTransactions(ctx context.Context, wallet string, limit int) ([]solana.Transaction, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: helius api key is not set", ErrNotConfigured)
	}
	if limit <= 0 {
		return nil, nil
	}

	all := make([]solana.Transaction, 0, min(limit, 10*c.cfg.BatchSize))
	var before string
	batches := 0

	for len(all) < limit {
		batches++
		var batch []solana.Transaction
		err := getJSON(ctx, c.httpClient, c.cfg.Timeout, HeliusProvider, c.batchURL(wallet, before), nil, c.metrics, &batch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.WarnContext(ctx, "helius batch failed, returning accumulated transactions",
				"wallet", wallet,
				"batch", batches,
				"accumulated", len(all),
				"error", err,
			)
			break
		}

		c.logger.DebugContext(ctx, "fetched helius batch",
			"wallet", wallet,
			"batch", batches,
			"count", len(batch),
			"before", before,
		)

		if len(batch) == 0 {
			break
		}

		all = append(all, batch...)
		before = batch[len(batch)-1].Signature

		if len(batch) < c.cfg.BatchSize {
			break
		}
	}

	if len(all) > limit {
		all = all[:limit]
	}

	c.metrics.RecordTransactionsFetched(HeliusProvider, len(all), batches)
	attrs := []any{
		"wallet", wallet,
		"count", len(all),
		"batches", batches,
	}
	if len(all) > 0 {
		// newest first
		attrs = append(attrs, "newest", all[0].BlockTime(), "oldest", all[len(all)-1].BlockTime())
	}
	c.logger.InfoContext(ctx, "fetched wallet transactions", attrs...)

	return all, nil
}

// batchURL builds the page URL. The api key is a query parameter, so the
// result must never be logged.
func (c *HeliusClient) batchURL(wallet, before string) string {
	q := url.Values{}
	q.Set("api-key", c.cfg.APIKey)
	q.Set("limit", strconv.Itoa(c.cfg.BatchSize))
	if before != "" {
		q.Set("before", before)
	}
	return fmt.Sprintf("%s/v0/addresses/%s/transactions?%s", c.cfg.BaseURL, url.PathEscape(wallet), q.Encode())
}
