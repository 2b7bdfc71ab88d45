package solana

import (
	"time"
)

// TransactionTypeSwap is the only transaction type the PNL pipeline consumes.
const TransactionTypeSwap = "SWAP"

// Transaction is one ledger event as returned by the enhanced transactions API.
// Values are immutable once fetched.
type Transaction struct {
	Signature       string           `json:"signature"`
	Timestamp       int64            `json:"timestamp"`
	Type            string           `json:"type"`
	Source          string           `json:"source,omitempty"`
	Fee             uint64           `json:"fee"` // lamports
	FeePayer        string           `json:"feePayer"`
	TokenTransfers  []TokenTransfer  `json:"tokenTransfers,omitempty"`
	NativeTransfers []NativeTransfer `json:"nativeTransfers,omitempty"`
}

// BlockTime returns the transaction timestamp as a time.Time.
func (t *Transaction) BlockTime() time.Time {
	if t.Timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(t.Timestamp, 0).UTC()
}

// IsSwap reports whether the transaction is tagged as a swap.
func (t *Transaction) IsSwap() bool {
	return t.Type == TransactionTypeSwap
}

// TokenTransfer is one SPL token movement. TokenAmount is already in decimal form.
type TokenTransfer struct {
	Mint            string  `json:"mint"`
	TokenAmount     float64 `json:"tokenAmount"`
	FromUserAccount string  `json:"fromUserAccount,omitempty"`
	ToUserAccount   string  `json:"toUserAccount,omitempty"`
}

// NativeTransfer is one SOL movement. Amount is in lamports.
type NativeTransfer struct {
	Amount          uint64 `json:"amount"`
	FromUserAccount string `json:"fromUserAccount,omitempty"`
	ToUserAccount   string `json:"toUserAccount,omitempty"`
}

// SwapResult is the net balance change a single swap caused for a wallet.
// Negative SOLChange means SOL was spent, positive means SOL was received.
type SwapResult struct {
	SOLChange        float64
	StablecoinChange float64
}
