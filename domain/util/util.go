package util

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
)

// TokenString renders a normalized decimal amount for logs and status lines,
// e.g. "1,250.5 DAI".
func TokenString(amount string, symbol string) string {
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return fmt.Sprintf("%v %v", amount, symbol)
	}
	return fmt.Sprintf("%v %v", humanize.Commaf(value), symbol)
}

// UsdString renders a market-reference-currency value as dollars.
func UsdString(amount string) string {
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return fmt.Sprintf("$%v", amount)
	}
	return fmt.Sprintf("$%v", humanize.Commaf(value))
}
