package math

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// BpsDenominator is the number of basis points in one whole
const BpsDenominator = 10000

var bpsDenominator = big.NewInt(BpsDenominator)

// BasisPoints returns amount * 10000 / base, truncated toward zero.
// A zero or nil base yields zero.
func BasisPoints(amount, base *big.Int) *big.Int {
	if amount == nil || base == nil || base.Sign() == 0 {
		return new(big.Int)
	}
	bps := new(big.Int).Mul(amount, bpsDenominator)
	return bps.Quo(bps, base)
}

// ApplyBps returns amount * bps / 10000, truncated toward zero
func ApplyBps(amount *big.Int, bps uint32) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(bps)))
	return out.Quo(out, bpsDenominator)
}

// ParseUnits converts a human decimal string such as "1.5" into the token's
// smallest unit. Values with more fractional digits than decimals are
// rejected rather than rounded.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", value)
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d fractional digits", value, decimals)
	}

	return scaled.BigInt(), nil
}

// FormatUnits renders a smallest-unit amount as a decimal string with exactly
// frac fractional digits. Extra digits are truncated, never rounded.
func FormatUnits(amount *big.Int, decimals uint8, frac int32) string {
	if amount == nil {
		return "N/A"
	}
	d := decimal.NewFromBigInt(amount, -int32(decimals)).Truncate(frac)
	return d.StringFixed(frac)
}
