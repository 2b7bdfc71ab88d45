package nats

import (
	"time"

	"github.com/google/uuid"

	"github.com/brojonat/solwallet-tax/service/pnl"
	"github.com/brojonat/solwallet-tax/service/tax"
)

// EstimateEvent is a completed tax estimate.
// It is published to the subject "estimates.{wallet_address}" in JetStream.
type EstimateEvent struct {
	ID string `json:"id"`

	WalletAddress string `json:"wallet_address"`
	FilingStatus  string `json:"filing_status"`
	FilingLabel   string `json:"filing_label"`
	State         string `json:"state"`

	// PNL as resolved by the fallback chain
	PnlUSD       float64 `json:"pnl_usd"`
	PnlSOL       float64 `json:"pnl_sol"`
	TotalBuySOL  float64 `json:"total_buy_sol"`
	TotalSellSOL float64 `json:"total_sell_sol"`
	TradeCount   int     `json:"trade_count"`
	DataSource   string  `json:"data_source"`

	FederalTax  float64 `json:"federal_tax"`
	StateTax    float64 `json:"state_tax"`
	TotalTax    float64 `json:"total_tax"`
	FederalRate float64 `json:"federal_rate"`
	StateRate   float64 `json:"state_rate"`
	IsLoss      bool    `json:"is_loss"`

	PublishedAt time.Time `json:"published_at"`
}

// NewEstimateEvent builds an event from a resolved PNL and its tax breakdown.
func NewEstimateEvent(wallet string, status tax.FilingStatus, state string, res pnl.Result, b tax.Breakdown) *EstimateEvent {
	return &EstimateEvent{
		ID:            uuid.NewString(),
		WalletAddress: wallet,
		FilingStatus:  string(status),
		FilingLabel:   status.Label(),
		State:         state,
		PnlUSD:        res.PnlUSD,
		PnlSOL:        res.PnlSOL,
		TotalBuySOL:   res.TotalBuySOL,
		TotalSellSOL:  res.TotalSellSOL,
		TradeCount:    res.TradeCount,
		DataSource:    string(res.Source),
		FederalTax:    b.FederalTax,
		StateTax:      b.StateTax,
		TotalTax:      b.TotalTax,
		FederalRate:   b.FederalRate,
		StateRate:     b.StateRate,
		IsLoss:        b.IsLoss,
		PublishedAt:   time.Now().UTC(),
	}
}
