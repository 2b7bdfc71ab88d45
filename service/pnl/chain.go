package pnl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/solwallet-tax/service/metrics"
	"github.com/brojonat/solwallet-tax/service/providers"
	"github.com/brojonat/solwallet-tax/service/solana"
)

// TransactionFetcher retrieves a wallet's transaction history.
type TransactionFetcher interface {
	FetchTransactions(ctx context.Context, wallet string, limit int) ([]solana.Transaction, error)
}

// PriceOracle returns the current SOL price in USD. It does not fail.
type PriceOracle interface {
	SOLPrice(ctx context.Context) float64
}

// ProfitProvider returns a pre-aggregated realized profit in USD.
type ProfitProvider interface {
	WalletProfit(ctx context.Context, wallet string) (float64, error)
}

// Tier is one state of the fallback chain.
type Tier int

const (
	TierPrimary Tier = iota
	TierSecondary
	TierDemo
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierDemo:
		return "demo"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Source is the provenance tag a tier attaches to its results.
func (t Tier) Source() Source {
	return Source(t.String())
}

// Shape is the output a PNL query asks for.
type Shape int

const (
	ShapeScalar Shape = iota
	ShapeExtended
)

func (s Shape) String() string {
	if s == ShapeExtended {
		return "extended"
	}
	return "scalar"
}

// tierOrder is the order tiers are attempted in. DEMO never fails.
var tierOrder = []Tier{TierPrimary, TierSecondary, TierDemo}

// Satisfies reports whether the tier can produce the requested shape.
// SECONDARY only knows a USD figure, so it cannot answer extended queries.
func (t Tier) Satisfies(shape Shape) bool {
	return t != TierSecondary || shape == ShapeScalar
}

// FirstTier returns the first tier attempted for shape.
func FirstTier(shape Shape) Tier {
	t, _ := nextFrom(0, shape)
	return t
}

// NextTier returns the tier attempted after t fails for shape.
// The transitions are:
//
//	scalar:   PRIMARY -> SECONDARY -> DEMO
//	extended: PRIMARY -> DEMO
//
// ok is false for DEMO, which is terminal.
func NextTier(t Tier, shape Shape) (next Tier, ok bool) {
	for i, candidate := range tierOrder {
		if candidate == t {
			return nextFrom(i+1, shape)
		}
	}
	return TierDemo, false
}

func nextFrom(i int, shape Shape) (Tier, bool) {
	for ; i < len(tierOrder); i++ {
		if tierOrder[i].Satisfies(shape) {
			return tierOrder[i], true
		}
	}
	return TierDemo, false
}

// Options holds the pipeline's policy values.
type Options struct {
	MaxTransactions int
	Thresholds      solana.Thresholds
	DemoSOLPrice    float64
	FallbackPrice   float64 // used when no PriceOracle is wired
}

// DefaultOptions returns the default pipeline policy.
func DefaultOptions() Options {
	return Options{
		MaxTransactions: 1000,
		Thresholds:      solana.DefaultThresholds,
		DemoSOLPrice:    DefaultDemoSOLPrice,
		FallbackPrice:   providers.DefaultFallbackSOLPrice,
	}
}

// Chain resolves wallet PNL through PRIMARY, SECONDARY and DEMO tiers,
// returning the first success. It holds no per-request state and is safe
// for concurrent use.
type Chain struct {
	fetcher   TransactionFetcher
	oracle    PriceOracle
	secondary ProfitProvider
	opts      Options
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewChain creates a fallback chain. Any collaborator may be nil, in which
// case its tier fails with providers.ErrNotConfigured and the chain moves on.
// Zero-valued options, including a zero Thresholds, take their defaults.
func NewChain(fetcher TransactionFetcher, oracle PriceOracle, secondary ProfitProvider, opts Options, m *metrics.Metrics, logger *slog.Logger) *Chain {
	def := DefaultOptions()
	if opts.MaxTransactions <= 0 {
		opts.MaxTransactions = def.MaxTransactions
	}
	if opts.DemoSOLPrice <= 0 {
		opts.DemoSOLPrice = def.DemoSOLPrice
	}
	if opts.FallbackPrice <= 0 {
		opts.FallbackPrice = def.FallbackPrice
	}
	if opts.Thresholds == (solana.Thresholds{}) {
		opts.Thresholds = def.Thresholds
	}
	return &Chain{
		fetcher:   fetcher,
		oracle:    oracle,
		secondary: secondary,
		opts:      opts,
		metrics:   m,
		logger:    logger,
	}
}

// PNL answers a scalar query: USD PNL via PRIMARY -> SECONDARY -> DEMO.
// The only error is one wrapping solana.ErrInvalidAddress.
func (c *Chain) PNL(ctx context.Context, wallet string) (ScalarResult, error) {
	res, err := c.resolve(ctx, wallet, ShapeScalar)
	if err != nil {
		return ScalarResult{}, err
	}
	return ScalarResult{PnlUSD: res.PnlUSD, Source: res.Source}, nil
}

// ExtendedPNL answers an extended query via PRIMARY -> DEMO.
// The only error is one wrapping solana.ErrInvalidAddress.
func (c *Chain) ExtendedPNL(ctx context.Context, wallet string) (Result, error) {
	return c.resolve(ctx, wallet, ShapeExtended)
}

// resolve walks the tiers that can satisfy shape until one succeeds.
func (c *Chain) resolve(ctx context.Context, wallet string, shape Shape) (Result, error) {
	if err := solana.ValidateAddress(wallet); err != nil {
		return Result{}, err
	}

	tier := FirstTier(shape)
	for {
		start := time.Now()
		res, err := c.run(ctx, tier, wallet)
		if err == nil {
			c.metrics.RecordPNLResolution(shape.String(), string(res.Source))
			c.logger.InfoContext(ctx, "resolved wallet pnl",
				"wallet", wallet,
				"shape", shape.String(),
				"source", res.Source,
				"pnl_usd", res.PnlUSD,
				"trade_count", res.TradeCount,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return res, nil
		}

		class := providers.Classify(err)
		c.metrics.RecordTierFailure(tier.String(), class)

		next, ok := NextTier(tier, shape)
		if !ok {
			// DEMO does not fail; this only guards against a broken tier table.
			return Demo(wallet, c.opts.DemoSOLPrice), nil
		}
		c.logger.WarnContext(ctx, "pnl tier failed, falling back",
			"wallet", wallet,
			"shape", shape.String(),
			"tier", tier.String(),
			"next", next.String(),
			"class", class,
			"error", err,
		)
		tier = next
	}
}

// run dispatches to the handler for tier.
func (c *Chain) run(ctx context.Context, tier Tier, wallet string) (Result, error) {
	switch tier {
	case TierPrimary:
		return c.runPrimary(ctx, wallet)
	case TierSecondary:
		return c.runSecondary(ctx, wallet)
	case TierDemo:
		return Demo(wallet, c.opts.DemoSOLPrice), nil
	default:
		return Result{}, fmt.Errorf("unknown tier %v", tier)
	}
}

// runPrimary runs fetch, parse, aggregate and price.
func (c *Chain) runPrimary(ctx context.Context, wallet string) (Result, error) {
	if c.fetcher == nil {
		return Result{}, fmt.Errorf("%w: no transaction fetcher", providers.ErrNotConfigured)
	}

	txns, err := c.fetcher.FetchTransactions(ctx, wallet, c.opts.MaxTransactions)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	totals := Aggregate(txns, wallet, c.opts.Thresholds)
	c.metrics.RecordSwapsParsed(totals.TradeCount, totals.Discarded)

	price := c.opts.FallbackPrice
	if c.oracle != nil {
		price = c.oracle.SOLPrice(ctx)
	}

	c.logger.DebugContext(ctx, "aggregated wallet swaps",
		"wallet", wallet,
		"transactions", len(txns),
		"trades", totals.TradeCount,
		"discarded", totals.Discarded,
		"sol_spent", totals.SpentSOL,
		"sol_received", totals.ReceivedSOL,
		"stablecoin_change", totals.StablecoinChange,
		"sol_price", price,
	)

	return totals.Result(price, SourcePrimary), nil
}

// runSecondary asks the secondary provider for a USD figure only.
func (c *Chain) runSecondary(ctx context.Context, wallet string) (Result, error) {
	if c.secondary == nil {
		return Result{}, fmt.Errorf("%w: no secondary provider", providers.ErrNotConfigured)
	}

	profit, err := c.secondary.WalletProfit(ctx, wallet)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch secondary profit: %w", err)
	}

	return Result{PnlUSD: profit, Source: SourceSecondary}, nil
}
