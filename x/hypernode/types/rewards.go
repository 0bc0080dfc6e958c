package types

import (
	sdkmath "cosmossdk.io/math"
)

// ComputeAccrual returns floor(base * dailyRate/100 * elapsed / 86400).
func ComputeAccrual(cfg Config, base sdkmath.Int, elapsedSeconds int64) sdkmath.Int {
	rate := cfg.Rewards.DailyRewardRate
	if elapsedSeconds <= 0 || base.IsNil() || !base.IsPositive() || rate.IsNil() || !rate.IsPositive() {
		return sdkmath.ZeroInt()
	}
	return rate.MulInt(base).MulInt64(elapsedSeconds).QuoInt64(100 * SecondsPerDay).TruncateInt()
}

// ReflectionSkim returns the part of a settled price reflected to stakers:
// floor(price * reflectionPercentage / 100), never more than operatorShare.
func ReflectionSkim(cfg Config, price, operatorShare sdkmath.Int) sdkmath.Int {
	pct := cfg.Rewards.ReflectionPercentage
	if !cfg.Features.TokenReflection || pct.IsNil() || !pct.IsPositive() || !price.IsPositive() {
		return sdkmath.ZeroInt()
	}
	skim := pct.MulInt(price).QuoInt64(100).TruncateInt()
	if skim.GT(operatorShare) {
		return operatorShare
	}
	return skim
}

// PendingReflection is the reflection a position has earned since its last
// settlement against the pool accumulator.
func PendingReflection(pos StakePosition, pool RewardPool) sdkmath.Int {
	if pos.Withdrawn || pos.Weight.IsNil() || pos.Weight.IsZero() {
		return sdkmath.ZeroInt()
	}
	earned := pos.Weight.Mul(pool.AccRewardPerWeight).Quo(RewardPrecision)
	pending := earned.Sub(pos.RewardDebt)
	if pending.IsNegative() {
		return sdkmath.ZeroInt()
	}
	return pending
}

// RewardDebtAt is the debt snapshot for weight at the current accumulator.
func RewardDebtAt(weight sdkmath.Int, pool RewardPool) sdkmath.Int {
	return weight.Mul(pool.AccRewardPerWeight).Quo(RewardPrecision)
}
