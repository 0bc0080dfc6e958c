package types

import (
	sdkmath "cosmossdk.io/math"
)

// Shares are the four integer percentages a settled price is split by.
type Shares struct {
	Operator     uint8 `json:"operator"`
	Treasury     uint8 `json:"treasury"`
	Incentive    uint8 `json:"incentive"`
	Orchestrator uint8 `json:"orchestrator"`
}

// DefaultShares is the 80/10/5/5 protocol split.
func DefaultShares() Shares {
	return Shares{Operator: 80, Treasury: 10, Incentive: 5, Orchestrator: 5}
}

// Validate accepts the shares only if they sum to exactly 100.
func (s Shares) Validate() error {
	sum := int(s.Operator) + int(s.Treasury) + int(s.Incentive) + int(s.Orchestrator)
	if sum != 100 {
		return InputError(ErrInvalidSharePercentages, "shares %d/%d/%d/%d sum to %d, expected 100",
			s.Operator, s.Treasury, s.Incentive, s.Orchestrator, sum)
	}
	return nil
}

// SharesFromPercentages builds Shares from untrusted integers. Each value
// must lie in [0, 100] and the four must sum to exactly 100.
func SharesFromPercentages(operator, treasury, incentive, orchestrator int64) (Shares, error) {
	for _, pct := range []int64{operator, treasury, incentive, orchestrator} {
		if pct < 0 || pct > 100 {
			return Shares{}, InputError(ErrInvalidSharePercentages, "shares %d/%d/%d/%d must each be between 0 and 100",
				operator, treasury, incentive, orchestrator)
		}
	}
	s := Shares{
		Operator:     uint8(operator),
		Treasury:     uint8(treasury),
		Incentive:    uint8(incentive),
		Orchestrator: uint8(orchestrator),
	}
	return s, s.Validate()
}

// Distribution is one settled price split across the recipients. The
// orchestrator receives the remainder, so the parts always sum to the price.
// Reflection is the skim taken out of the operator's share before it is paid.
type Distribution struct {
	Price        sdkmath.Int `json:"price"`
	Operator     sdkmath.Int `json:"operator"`
	Treasury     sdkmath.Int `json:"treasury"`
	Incentive    sdkmath.Int `json:"incentive"`
	Orchestrator sdkmath.Int `json:"orchestrator"`
	Reflection   sdkmath.Int `json:"reflection"`
}

// OperatorNet is what the node operator is credited after reflection.
func (d Distribution) OperatorNet() sdkmath.Int {
	return d.Operator.Sub(d.Reflection)
}

// Total sums the four recipient parts.
func (d Distribution) Total() sdkmath.Int {
	return d.Operator.Add(d.Treasury).Add(d.Incentive).Add(d.Orchestrator)
}

// SplitterConfig is the singleton payment-splitting record.
type SplitterConfig struct {
	Authority              PublicKey   `json:"authority"`
	Shares                 Shares      `json:"shares"`
	TotalVolume            sdkmath.Int `json:"total_volume"`
	TotalPayments          uint64      `json:"total_payments"`
	TreasuryBalance        sdkmath.Int `json:"treasury_balance"`
	IncentiveBalance       sdkmath.Int `json:"incentive_balance"`
	OrchestratorBalance    sdkmath.Int `json:"orchestrator_balance"`
	TotalEscrowFees        sdkmath.Int `json:"total_escrow_fees"`
	TotalTreasuryWithdrawn sdkmath.Int `json:"total_treasury_withdrawn"`
	UpdatedAt              int64       `json:"updated_at"`
}

// NewSplitterConfig returns an initialized config with zeroed counters.
func NewSplitterConfig(authority PublicKey, shares Shares, now int64) SplitterConfig {
	return SplitterConfig{
		Authority:              authority,
		Shares:                 shares,
		TotalVolume:            sdkmath.ZeroInt(),
		TreasuryBalance:        sdkmath.ZeroInt(),
		IncentiveBalance:       sdkmath.ZeroInt(),
		OrchestratorBalance:    sdkmath.ZeroInt(),
		TotalEscrowFees:        sdkmath.ZeroInt(),
		TotalTreasuryWithdrawn: sdkmath.ZeroInt(),
		UpdatedAt:              now,
	}
}

// ComputeDistribution splits price by shares. Operator, treasury and
// incentive each receive floor(price * share / 100); the orchestrator takes
// the remainder. Reflection is left at zero for the caller to apply.
func ComputeDistribution(price sdkmath.Int, shares Shares) Distribution {
	part := func(pct uint8) sdkmath.Int {
		return price.MulRaw(int64(pct)).QuoRaw(100)
	}
	operator := part(shares.Operator)
	treasury := part(shares.Treasury)
	incentive := part(shares.Incentive)
	return Distribution{
		Price:        price,
		Operator:     operator,
		Treasury:     treasury,
		Incentive:    incentive,
		Orchestrator: price.Sub(operator).Sub(treasury).Sub(incentive),
		Reflection:   sdkmath.ZeroInt(),
	}
}
