package types

import (
	sdkmath "cosmossdk.io/math"
)

// CalculateMultiplier maps a stake amount and lock duration to a reward
// multiplier interpolated linearly between the base and maximum multipliers.
//
// Rounding is half-down: a fractional part of exactly one half truncates, so
// the result never rounds above MaxMultiplier. The value is re-validated
// against [BaseMultiplier, MaxMultiplier] before it is returned.
func CalculateMultiplier(cfg Config, amount sdkmath.Int, durationSeconds int64) (uint64, error) {
	if err := ValidateStakeParameters(cfg, amount, durationSeconds); err != nil {
		return 0, err
	}

	s := cfg.Staking
	if s.MaxMultiplier <= s.BaseMultiplier || s.MaxDurationSeconds <= s.MinDurationSeconds {
		return 0, InvariantError(ErrInvalidMultiplierIn, "multiplier bounds are inconsistent")
	}

	span := s.MaxDurationSeconds - s.MinDurationSeconds
	elapsed := durationSeconds - s.MinDurationSeconds
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > span {
		elapsed = span
	}

	num := sdkmath.NewIntFromUint64(s.MaxMultiplier - s.BaseMultiplier).MulRaw(elapsed)
	den := sdkmath.NewInt(span)
	bonus := num.Quo(den)
	if num.Mod(den).MulRaw(2).GT(den) {
		bonus = bonus.AddRaw(1)
	}

	m := s.BaseMultiplier + bonus.Uint64()
	if err := ValidateMultiplier(cfg, m); err != nil {
		return 0, err
	}
	return m, nil
}
