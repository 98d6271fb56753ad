package arbitrage

import (
	"github.com/michaelpento.lv/arbscan/config"
	"github.com/michaelpento.lv/arbscan/types"
)

// DefineRoutes builds the five closed routes scanned every cycle. Each one
// starts and ends at the base token.
func DefineRoutes(tokens config.TokenSet, feeTier uint32) []types.Route {
	base, s1, s2, legacy := tokens.Base, tokens.Stable1, tokens.Stable2, tokens.StableLegacy

	v2 := func(path ...types.Token) types.Leg {
		return types.Leg{Protocol: types.ProtocolConstantProduct, Path: path}
	}
	v3 := func(in, out types.Token) types.Leg {
		return types.Leg{Protocol: types.ProtocolConcentrated, Path: []types.Token{in, out}, FeeTier: feeTier}
	}
	stable := func(in, out types.Token) types.Leg {
		return types.Leg{Protocol: types.ProtocolStableSwap, Path: []types.Token{in, out}}
	}

	return []types.Route{
		{Type: types.RouteCrossVersionForward, Legs: []types.Leg{v2(base, s1), v3(s1, base)}},
		{Type: types.RouteCrossVersionReverse, Legs: []types.Leg{v3(base, s1), v2(s1, base)}},
		// One router call across three pools
		{Type: types.RouteTriangleSingleDEX, Legs: []types.Leg{v2(base, s1, legacy, base)}},
		{Type: types.RouteTriangleStableHopA, Legs: []types.Leg{v2(base, s1), stable(s1, s2), v2(s2, base)}},
		{Type: types.RouteTriangleStableHopB, Legs: []types.Leg{v2(base, s2), stable(s2, s1), v2(s1, base)}},
	}
}
