package types

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Token is an ERC20 token as loaded from configuration
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals uint8
}

// Protocol identifies the quoting contract family a leg is priced on
type Protocol string

const (
	ProtocolConstantProduct Protocol = "v2"
	ProtocolConcentrated    Protocol = "v3"
	ProtocolStableSwap      Protocol = "stable"
)

// RouteType labels a route topology
type RouteType string

const (
	RouteCrossVersionForward RouteType = "CrossVersion-forward"
	RouteCrossVersionReverse RouteType = "CrossVersion-reverse"
	RouteTriangleSingleDEX   RouteType = "Triangle-singleDEX"
	RouteTriangleStableHopA  RouteType = "Triangle-stableHop-A"
	RouteTriangleStableHopB  RouteType = "Triangle-stableHop-B"
)

// Leg is a single quote call. Constant-product legs may carry a path of up
// to four tokens; every other protocol takes exactly two.
type Leg struct {
	Protocol Protocol
	Path     []Token
	FeeTier  uint32
}

// TokenIn returns the first token of the leg
func (l Leg) TokenIn() Token {
	return l.Path[0]
}

// TokenOut returns the last token of the leg
func (l Leg) TokenOut() Token {
	return l.Path[len(l.Path)-1]
}

// Addresses returns the leg path as addresses
func (l Leg) Addresses() []common.Address {
	addrs := make([]common.Address, len(l.Path))
	for i, t := range l.Path {
		addrs[i] = t.Address
	}
	return addrs
}

func (l Leg) label() string {
	if l.Protocol == ProtocolConcentrated {
		return string(l.Protocol) + ":" + strconv.FormatUint(uint64(l.FeeTier), 10)
	}
	return string(l.Protocol)
}

// Route is a closed sequence of legs that starts and ends at the same token
type Route struct {
	Type RouteType
	Legs []Leg
}

// TokenIn returns the token the route starts from
func (r Route) TokenIn() Token {
	return r.Legs[0].TokenIn()
}

// TokenOut returns the token the route ends in
func (r Route) TokenOut() Token {
	return r.Legs[len(r.Legs)-1].TokenOut()
}

// Describe renders the route hop by hop, e.g. "WETH -[v2]-> USDC -[v3:500]-> WETH".
// A multi-token constant-product leg is expanded into one hop per pair.
func (r Route) Describe() string {
	var b strings.Builder
	for i, leg := range r.Legs {
		if i == 0 {
			b.WriteString(leg.Path[0].Symbol)
		}
		for _, t := range leg.Path[1:] {
			b.WriteString(" -[")
			b.WriteString(leg.label())
			b.WriteString("]-> ")
			b.WriteString(t.Symbol)
		}
	}
	return b.String()
}

// Outcome is the result of evaluating one route at one trade size
type Outcome struct {
	RouteType RouteType
	Legs      string
	TokenIn   common.Address
	TokenOut  common.Address
	AmountIn  *big.Int
	AmountOut *big.Int
	Success   bool
	Err       error
	// FailedLeg is the zero-based index of the failing leg, -1 on success
	FailedLeg int
}

// ScoredResult is an Outcome with its profitability figures attached.
// All amounts are in the base token's smallest unit.
type ScoredResult struct {
	Outcome
	TradeSize string
	Timestamp time.Time
	RawProfit *big.Int
	Bps       *big.Int
	GasCost   *big.Int
	FlashFee  *big.Int
	NetProfit *big.Int
}
