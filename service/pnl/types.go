package pnl

// Source identifies which fallback tier produced a result.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceDemo      Source = "demo"
)

// Result is the extended PNL artifact consumed by the tax calculator and the UI.
// PnlSOL == TotalSellSOL - TotalBuySOL holds for every result.
type Result struct {
	PnlUSD       float64 `json:"pnlUsd"`
	PnlSOL       float64 `json:"pnlSol"`
	TotalBuySOL  float64 `json:"totalBuySol"`
	TotalSellSOL float64 `json:"totalSellSol"`
	TradeCount   int     `json:"tradeCount"`
	Source       Source  `json:"source"`
}

// ScalarResult is the answer to a scalar PNL query.
type ScalarResult struct {
	PnlUSD float64 `json:"pnlUsd"`
	Source Source  `json:"source"`
}
