package domain

import (
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrorInvalidAmount = fmt.Errorf("amount is not a valid decimal number")
)

// NormalizeAmount converts a raw integer token amount to its human decimal
// representation, e.g. 1000000000000000000 with 18 decimals -> "1.0". At
// least one fraction digit is always kept, so a zero balance reads "0.0".
func NormalizeAmount(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0.0"
	}

	value := new(big.Rat).SetInt(raw)
	value.Quo(value, decimalsRat(decimals))

	text := value.FloatString(int(decimals))
	if !strings.Contains(text, ".") {
		return text + ".0"
	}
	text = strings.TrimRight(text, "0")
	if strings.HasSuffix(text, ".") {
		text += "0"
	}
	return text
}

// DenormalizeAmount parses a human decimal amount back to the raw integer
// representation in the token's native decimals. Excess fraction digits are
// truncated, never rounded up.
func DenormalizeAmount(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	value, ok := new(big.Rat).SetString(amount)
	if !ok || value.Sign() < 0 {
		return nil, ErrorInvalidAmount
	}

	scaled := new(big.Rat).Mul(value, decimalsRat(decimals))
	raw := new(big.Int).Quo(scaled.Num(), scaled.Denom())
	return raw, nil
}

// RoundToTokenDecimals truncates a decimal string to at most the token's
// number of fraction digits.
func RoundToTokenDecimals(amount string, decimals uint8) string {
	parts := strings.SplitN(amount, ".", 2)
	if len(parts) == 1 || len(parts[1]) <= int(decimals) {
		return amount
	}
	if decimals == 0 {
		return parts[0]
	}
	return parts[0] + "." + parts[1][:decimals]
}
