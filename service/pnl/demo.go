package pnl

import (
	"math"
	"unicode/utf16"
)

// DefaultDemoSOLPrice is the SOL price used to derive demo SOL figures.
const DefaultDemoSOLPrice = 100.0

// demoLossShare is the fraction of the normalized hash range mapped to losses.
const demoLossShare = 0.3

// Demo returns a deterministic pseudo-PNL for wallet. The same address always
// yields the same figures. The values carry no meaning beyond being stable.
func Demo(wallet string, solPrice float64) Result {
	if solPrice <= 0 {
		solPrice = DefaultDemoSOLPrice
	}

	n := normalizedHash(wallet)

	var pnlUSD float64
	if n < demoLossShare {
		pnlUSD = -(n * 50000)
	} else {
		pnlUSD = ((n - demoLossShare) / (1 - demoLossShare)) * 200000
	}

	pnlSOL := pnlUSD / solPrice
	totalBuy := math.Abs(pnlSOL) * 2

	return Result{
		PnlUSD:       pnlUSD,
		PnlSOL:       pnlSOL,
		TotalBuySOL:  totalBuy,
		TotalSellSOL: totalBuy + pnlSOL,
		TradeCount:   int(math.Floor(n*100)) + 10,
		Source:       SourceDemo,
	}
}

// addressHash is the 31-multiplier rolling hash over UTF-16 code units,
// wrapping at 32 bits.
func addressHash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return h
}

// normalizedHash maps addressHash to [0, 1] by absolute value.
func normalizedHash(s string) float64 {
	return math.Abs(float64(addressHash(s))) / math.MaxInt32
}
