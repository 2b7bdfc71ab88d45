package solana

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/gagliardetto/solana-go"
)

// ErrInvalidAddress is returned when a wallet address fails syntax validation.
var ErrInvalidAddress = errors.New("invalid solana wallet address")

// Base58 alphabet (no 0, O, I, l), 32 to 44 characters.
var addressRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// IsValidAddress reports whether address has the surface syntax of a Solana
// address. It performs no decoding and no network access.
func IsValidAddress(address string) bool {
	return addressRegex.MatchString(address)
}

// ValidateAddress is IsValidAddress returning an error that wraps ErrInvalidAddress.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidAddress)
	}
	if !IsValidAddress(address) {
		return fmt.Errorf("%w: must be 32-44 base58 characters", ErrInvalidAddress)
	}
	return nil
}

// ParsePublicKey decodes address into a 32-byte public key. This is stricter
// than ValidateAddress: some strings with valid syntax do not decode to 32 bytes.
func ParsePublicKey(address string) (solana.PublicKey, error) {
	if err := ValidateAddress(address); err != nil {
		return solana.PublicKey{}, err
	}
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return pk, nil
}
