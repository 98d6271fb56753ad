package gas

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbscan/types"
)

// ErrTransportUnavailable is returned when the node cannot be reached
var ErrTransportUnavailable = errors.New("transport unavailable")

// FeeSource suggests a legacy gas price. *ethclient.Client satisfies it.
type FeeSource interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Units holds the gas consumed by one swap of each kind
type Units struct {
	ConstantProduct uint64
	Concentrated    uint64
	StableSwap      uint64
}

// ForRoute returns the gas units a route would consume if executed
func (u Units) ForRoute(rt types.RouteType) uint64 {
	switch rt {
	case types.RouteCrossVersionForward, types.RouteCrossVersionReverse:
		return u.ConstantProduct + u.Concentrated
	case types.RouteTriangleSingleDEX:
		return 3 * u.ConstantProduct
	case types.RouteTriangleStableHopA, types.RouteTriangleStableHopB:
		return 2*u.ConstantProduct + u.StableSwap
	default:
		return 2 * u.ConstantProduct
	}
}

// Estimator prices routes from a gas price taken once at startup
type Estimator struct {
	logger   *zap.Logger
	gasPrice *big.Int
	units    Units
}

// NewEstimator snapshots the gas price from source. A zero or missing answer
// falls back to fallback; a transport error is fatal.
func NewEstimator(ctx context.Context, source FeeSource, fallback *big.Int, units Units, logger *zap.Logger) (*Estimator, error) {
	price, err := source.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get gas price: %v", ErrTransportUnavailable, err)
	}

	if price == nil || price.Sign() <= 0 {
		if fallback == nil {
			fallback = new(big.Int)
		}
		logger.Warn("Node returned no gas price, using configured default",
			zap.String("default", fallback.String()))
		price = fallback
	}

	logger.Info("Gas price snapshot taken", zap.String("gasPriceWei", price.String()))
	return NewStaticEstimator(price, units, logger), nil
}

// NewStaticEstimator uses a fixed gas price
func NewStaticEstimator(gasPrice *big.Int, units Units, logger *zap.Logger) *Estimator {
	return &Estimator{
		logger:   logger,
		gasPrice: new(big.Int).Set(gasPrice),
		units:    units,
	}
}

// GasPrice returns the snapshot gas price in wei
func (e *Estimator) GasPrice() *big.Int {
	return new(big.Int).Set(e.gasPrice)
}

// Units returns the configured per-swap gas units
func (e *Estimator) Units() Units {
	return e.units
}

// EstimateGasCost returns gas price × gas units for the route, in wei
func (e *Estimator) EstimateGasCost(rt types.RouteType) *big.Int {
	units := new(big.Int).SetUint64(e.units.ForRoute(rt))
	return units.Mul(units, e.gasPrice)
}
