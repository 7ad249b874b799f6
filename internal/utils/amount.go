package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseUnits converts a human-readable decimal amount string into smallest
// units at the given decimals, e.g. ("1000", 6) -> 1000000000.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", amount)
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}
	return scaled.BigInt(), nil
}

// FormatUnits converts a smallest-unit amount back to a human-readable
// decimal string, e.g. (999400, 6) -> "0.9994".
func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// UnitsToFloat converts a smallest-unit amount to a float64 for fiat math.
// Only used where the result feeds a display value, never for token amounts.
func UnitsToFloat(amount *big.Int, decimals int) float64 {
	if amount == nil {
		return 0
	}
	f, _ := decimal.NewFromBigInt(amount, -int32(decimals)).Float64()
	return f
}
