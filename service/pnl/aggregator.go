package pnl

import (
	"math"

	"github.com/brojonat/solwallet-tax/service/solana"
)

// Totals accumulates parsed swaps for one wallet.
type Totals struct {
	SpentSOL         float64 // sum of negative SOL changes, sign-flipped
	ReceivedSOL      float64 // sum of positive SOL changes
	StablecoinChange float64 // signed net stablecoin change, USD
	TradeCount       int     // swaps that survived the dust filter
	Discarded        int     // swaps dropped as dust
}

// Aggregate folds the swap transactions in txns into totals for wallet.
// Non-swap transactions are ignored and do not count as discarded.
func Aggregate(txns []solana.Transaction, wallet string, th solana.Thresholds) Totals {
	var t Totals
	for i := range txns {
		tx := &txns[i]
		if !tx.IsSwap() {
			continue
		}

		res, ok := solana.ParseSwap(tx, wallet, th)
		if !ok {
			t.Discarded++
			continue
		}

		t.TradeCount++
		switch {
		case res.SOLChange < 0:
			t.SpentSOL += math.Abs(res.SOLChange)
		case res.SOLChange > 0:
			t.ReceivedSOL += res.SOLChange
		}
		t.StablecoinChange += res.StablecoinChange
	}
	return t
}

// PnlSOL is SOL received minus SOL spent.
func (t Totals) PnlSOL() float64 {
	return t.ReceivedSOL - t.SpentSOL
}

// PnlUSD values the SOL PNL at solPrice and adds the stablecoin change.
func (t Totals) PnlUSD(solPrice float64) float64 {
	return t.PnlSOL()*solPrice + t.StablecoinChange
}

// Result converts the totals into an extended result tagged with src.
func (t Totals) Result(solPrice float64, src Source) Result {
	return Result{
		PnlUSD:       t.PnlUSD(solPrice),
		PnlSOL:       t.PnlSOL(),
		TotalBuySOL:  t.SpentSOL,
		TotalSellSOL: t.ReceivedSOL,
		TradeCount:   t.TradeCount,
		Source:       src,
	}
}
