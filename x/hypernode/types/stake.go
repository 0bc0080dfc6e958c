package types

import (
	sdkmath "cosmossdk.io/math"
)

// StakePosition is a locked capital commitment. Amount, duration and
// multiplier are fixed at creation; only the accrual fields change later.
//
// Accrued holds daily rewards not yet claimed. Weight is Amount * Multiplier,
// the position's share of reflection, and RewardDebt is Weight times the
// pool accumulator at the position's last reflection settlement.
type StakePosition struct {
	StakeID         string      `json:"stake_id"`
	Owner           PublicKey   `json:"owner"`
	Amount          sdkmath.Int `json:"amount"`
	DurationSeconds int64       `json:"duration_seconds"`
	Multiplier      uint64      `json:"multiplier"`
	StartedAt       int64       `json:"started_at"`
	UnlockAt        int64       `json:"unlock_at"`
	Accrued         sdkmath.Int `json:"accrued"`
	LastAccrualAt   int64       `json:"last_accrual_at"`
	Weight          sdkmath.Int `json:"weight"`
	RewardDebt      sdkmath.Int `json:"reward_debt"`
	TotalClaimed    sdkmath.Int `json:"total_claimed"`
	Withdrawn       bool        `json:"withdrawn"`
}

// Address returns the position's record address.
func (p StakePosition) Address() Address {
	return StakeAddress(p.Owner, p.StakeID)
}

// IsUnlocked reports whether the lock period has elapsed at now.
func (p StakePosition) IsUnlocked(now int64) bool {
	return now >= p.UnlockAt
}

// AccrualBase is the balance daily rewards accrue on.
func (p StakePosition) AccrualBase(cfg Config) sdkmath.Int {
	if cfg.Rewards.CompoundingEnabled && !p.Accrued.IsNil() {
		return p.Amount.Add(p.Accrued)
	}
	return p.Amount
}

// RewardPool tracks reflection accounting across all active stakers.
// AccRewardPerWeight is scaled by RewardPrecision.
type RewardPool struct {
	TotalWeight        sdkmath.Int `json:"total_weight"`
	AccRewardPerWeight sdkmath.Int `json:"acc_reward_per_weight"`
	TotalReflected     sdkmath.Int `json:"total_reflected"`
	TotalClaimed       sdkmath.Int `json:"total_claimed"`
	IdlePool           sdkmath.Int `json:"idle_pool"`
	TotalStaked        sdkmath.Int `json:"total_staked"`
	TotalStakers       uint64      `json:"total_stakers"`
	TotalAccrued       sdkmath.Int `json:"total_accrued"`
}

// RewardPrecision scales per-weight reward accumulators.
var RewardPrecision = sdkmath.NewIntWithDecimal(1, 18)

// NewRewardPool returns an empty pool.
func NewRewardPool() RewardPool {
	return RewardPool{
		TotalWeight:        sdkmath.ZeroInt(),
		AccRewardPerWeight: sdkmath.ZeroInt(),
		TotalReflected:     sdkmath.ZeroInt(),
		TotalClaimed:       sdkmath.ZeroInt(),
		IdlePool:           sdkmath.ZeroInt(),
		TotalStaked:        sdkmath.ZeroInt(),
		TotalAccrued:       sdkmath.ZeroInt(),
	}
}
