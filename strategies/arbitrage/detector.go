package arbitrage

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbscan/dex"
	"github.com/michaelpento.lv/arbscan/types"
)

// Detector evaluates routes by chaining quote calls leg by leg
type Detector struct {
	quoters dex.Quoters
	logger  *zap.Logger
}

// NewDetector creates a new route detector
func NewDetector(quoters dex.Quoters, logger *zap.Logger) *Detector {
	return &Detector{
		quoters: quoters,
		logger:  logger,
	}
}

// Evaluate quotes route for amountIn. Each leg's output feeds the next leg;
// the first failing leg ends the evaluation and no later leg is called.
func (d *Detector) Evaluate(ctx context.Context, route types.Route, amountIn *big.Int) types.Outcome {
	outcome := types.Outcome{
		RouteType: route.Type,
		Legs:      route.Describe(),
		TokenIn:   route.TokenIn().Address,
		TokenOut:  route.TokenOut().Address,
		AmountIn:  new(big.Int).Set(amountIn),
		FailedLeg: -1,
	}

	amount := outcome.AmountIn
	for i, leg := range route.Legs {
		out, err := d.quoteLeg(ctx, leg, amount)
		if err != nil {
			outcome.Err = fmt.Errorf("leg %d %s->%s: %w", i+1, leg.TokenIn().Symbol, leg.TokenOut().Symbol, err)
			outcome.FailedLeg = i
			return outcome
		}

		d.logger.Debug("Leg quoted",
			zap.String("route", string(route.Type)),
			zap.Int("leg", i+1),
			zap.String("protocol", string(leg.Protocol)),
			zap.String("amountIn", amount.String()),
			zap.String("amountOut", out.String()))

		amount = out
	}

	outcome.AmountOut = amount
	outcome.Success = true
	return outcome
}

func (d *Detector) quoteLeg(ctx context.Context, leg types.Leg, amountIn *big.Int) (*big.Int, error) {
	var (
		out *big.Int
		err error
	)

	switch leg.Protocol {
	case types.ProtocolConstantProduct:
		if d.quoters.Path == nil {
			return nil, missingQuoter(leg.Protocol)
		}
		out, err = d.quoters.Path.QuotePath(ctx, amountIn, leg.Addresses())
	case types.ProtocolConcentrated:
		if d.quoters.Concentrated == nil {
			return nil, missingQuoter(leg.Protocol)
		}
		out, err = d.quoters.Concentrated.QuoteSingle(ctx, leg.TokenIn().Address, leg.TokenOut().Address, leg.FeeTier, amountIn)
	case types.ProtocolStableSwap:
		if d.quoters.Stable == nil {
			return nil, missingQuoter(leg.Protocol)
		}
		out, err = d.quoters.Stable.QuoteStable(ctx, leg.TokenIn().Address, leg.TokenOut().Address, amountIn)
	default:
		return nil, dex.NewQuoteError(string(leg.Protocol), "quote", fmt.Errorf("unknown protocol"))
	}

	if err != nil {
		return nil, err
	}
	if out == nil || out.Sign() < 0 {
		return nil, dex.NewQuoteError(string(leg.Protocol), "quote", fmt.Errorf("invalid amount %v", out))
	}
	return out, nil
}

func missingQuoter(p types.Protocol) error {
	return dex.NewQuoteError(string(p), "quote", fmt.Errorf("no quoter configured"))
}
