package solana

import (
	"math"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Well-known mints
var (
	// WrappedSOLMint is the native mint for wrapped SOL
	WrappedSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

	// USDCMint is USDC on mainnet
	USDCMint = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	// USDTMint is USDT on mainnet
	USDTMint = solana.MustPublicKeyFromBase58("Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB")
)

// stablecoins are treated as USD cash equivalents.
var stablecoins = map[string]struct{}{
	USDCMint.String(): {},
	USDTMint.String(): {},
}

// IsStablecoin reports whether mint is in the recognized stablecoin set.
func IsStablecoin(mint string) bool {
	_, ok := stablecoins[mint]
	return ok
}

// Thresholds below which a swap is treated as dust and discarded.
type Thresholds struct {
	Native     float64 // SOL
	Stablecoin float64 // USD
}

// DefaultThresholds are the dust thresholds used when none are configured.
var DefaultThresholds = Thresholds{
	Native:     0.00001,
	Stablecoin: 0.01,
}

// LamportsToSOL scales a lamport amount to SOL.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / float64(solana.LAMPORTS_PER_SOL)
}

// ParseSwap computes the balance change a swap transaction caused for wallet.
// It returns false for non-swap transactions and for swaps whose changes are
// both under the dust thresholds.
func ParseSwap(tx *Transaction, wallet string, th Thresholds) (SwapResult, bool) {
	if tx == nil || !tx.IsSwap() {
		return SwapResult{}, false
	}

	var res SwapResult
	wsol := WrappedSOLMint.String()

	for _, transfer := range tx.TokenTransfers {
		delta := signedDelta(transfer.FromUserAccount, transfer.ToUserAccount, wallet, transfer.TokenAmount)
		if transfer.Mint == wsol {
			res.SOLChange += delta
		}
		if IsStablecoin(transfer.Mint) {
			res.StablecoinChange += delta
		}
	}

	for _, transfer := range tx.NativeTransfers {
		res.SOLChange += signedDelta(transfer.FromUserAccount, transfer.ToUserAccount, wallet, LamportsToSOL(transfer.Amount))
	}

	if strings.EqualFold(tx.FeePayer, wallet) {
		res.SOLChange -= LamportsToSOL(tx.Fee)
	}

	if math.Abs(res.SOLChange) < th.Native && math.Abs(res.StablecoinChange) < th.Stablecoin {
		return SwapResult{}, false
	}

	return res, true
}

// signedDelta returns -amount if wallet sent it, +amount if wallet received it,
// and 0 when the wallet is on neither side. A self-transfer nets to zero.
func signedDelta(from, to, wallet string, amount float64) float64 {
	var delta float64
	if from != "" && strings.EqualFold(from, wallet) {
		delta -= amount
	}
	if to != "" && strings.EqualFold(to, wallet) {
		delta += amount
	}
	return delta
}
