package arbitrage

import (
	"math/big"

	"github.com/michaelpento.lv/arbscan/types"
	"github.com/michaelpento.lv/arbscan/utils/math"
)

// Score attaches profitability figures to an outcome. Gas cost and flash fee
// are always carried; profit figures stay nil for a failed outcome.
// Nothing is filtered: unprofitable routes are scored like any other.
func Score(outcome types.Outcome, gasCost, flashFee *big.Int) types.ScoredResult {
	result := types.ScoredResult{
		Outcome:  outcome,
		GasCost:  copyOrZero(gasCost),
		FlashFee: copyOrZero(flashFee),
	}
	if !outcome.Success || outcome.AmountOut == nil || outcome.AmountIn == nil {
		return result
	}

	raw := new(big.Int).Sub(outcome.AmountOut, outcome.AmountIn)
	net := new(big.Int).Sub(raw, result.GasCost)
	net.Sub(net, result.FlashFee)

	result.RawProfit = raw
	result.Bps = math.BasisPoints(raw, outcome.AmountIn)
	result.NetProfit = net
	return result
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
