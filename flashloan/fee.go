package flashloan

import (
	"fmt"
	"math/big"

	"github.com/michaelpento.lv/arbscan/utils/math"
)

// ProviderType names a flash-loan venue
type ProviderType string

const (
	ProviderAave     ProviderType = "aave"
	ProviderBalancer ProviderType = "balancer"
	ProviderCustom   ProviderType = "custom"
)

// Provider fees in basis points (1 = 0.01%)
var presetFees = map[ProviderType]uint32{
	ProviderAave:     9,
	ProviderBalancer: 0,
}

// FeeModel prices borrowing the trade input for one transaction
type FeeModel struct {
	Provider ProviderType
	Bps      uint32
}

// NewFeeModel resolves the fee for provider. An empty provider means aave;
// feeBps, when set, overrides the preset.
func NewFeeModel(provider string, feeBps *uint32) (FeeModel, error) {
	p := ProviderType(provider)
	if p == "" {
		p = ProviderAave
	}

	if feeBps != nil {
		if *feeBps > math.BpsDenominator {
			return FeeModel{}, fmt.Errorf("flash loan fee %d bps exceeds 100%%", *feeBps)
		}
		return FeeModel{Provider: p, Bps: *feeBps}, nil
	}

	bps, ok := presetFees[p]
	if !ok {
		return FeeModel{}, fmt.Errorf("no fee preset for flash loan provider %q", provider)
	}
	return FeeModel{Provider: p, Bps: bps}, nil
}

// Fee returns amount × bps / 10000, truncated
func (m FeeModel) Fee(amount *big.Int) *big.Int {
	return math.ApplyBps(amount, m.Bps)
}

func (m FeeModel) String() string {
	return fmt.Sprintf("%s (%d bps)", m.Provider, m.Bps)
}
