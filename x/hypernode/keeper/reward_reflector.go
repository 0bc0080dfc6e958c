package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// onSettlement reflects a settlement skim to stakers. With active weight the
// skim, plus anything parked in the idle pool, raises the per-weight
// accumulator; without stakers it is parked in the idle pool. It never fails
// for lack of stakers.
func (k Keeper) onSettlement(ctx context.Context, skim math.Int) error {
	if skim.IsNil() || !skim.IsPositive() {
		return nil
	}
	pool, err := k.GetRewardPool(ctx)
	if err != nil {
		return err
	}
	if pool.TotalReflected, err = SafeAdd(pool.TotalReflected, skim); err != nil {
		return err
	}

	if pool.TotalWeight.IsPositive() {
		distributable, err := SafeAdd(skim, pool.IdlePool)
		if err != nil {
			return err
		}
		increment, err := SafeMulDiv(distributable, types.RewardPrecision, pool.TotalWeight)
		if err != nil {
			return err
		}
		if pool.AccRewardPerWeight, err = SafeAdd(pool.AccRewardPerWeight, increment); err != nil {
			return err
		}
		pool.IdlePool = math.ZeroInt()
		emit(ctx, sdk.NewEvent(
			types.EventTypeRewardsReflected,
			sdk.NewAttribute(types.AttributeKeyReflection, distributable.String()),
		))
	} else {
		if pool.IdlePool, err = SafeAdd(pool.IdlePool, skim); err != nil {
			return err
		}
		emit(ctx, sdk.NewEvent(
			types.EventTypeReflectionIdled,
			sdk.NewAttribute(types.AttributeKeyReflection, skim.String()),
		))
	}

	k.metrics.ReflectionSkimmed.Add(intToFloat(skim))
	return k.SetRewardPool(ctx, pool)
}

// AccrueStake applies daily reward accrual to a position for the time since
// its last accrual. It is the hook for a periodic accrual caller.
func (k Keeper) AccrueStake(ctx context.Context, stakeAddr types.Address) (types.StakePosition, error) {
	pos, err := k.mustGetStake(ctx, stakeAddr)
	if err != nil {
		return types.StakePosition{}, err
	}
	if pos.Withdrawn {
		return types.StakePosition{}, types.InputError(types.ErrAlreadyWithdrawn, "stake %s has been withdrawn", pos.StakeID)
	}
	pool, err := k.GetRewardPool(ctx)
	if err != nil {
		return types.StakePosition{}, err
	}
	accrued, err := k.accrue(ctx, &pos, &pool)
	if err != nil {
		return types.StakePosition{}, err
	}
	if !accrued.IsPositive() {
		return types.StakePosition{}, types.InputError(types.ErrNothingToAccrue, "stake %s has nothing to accrue yet", pos.StakeID)
	}
	if err := k.SetStake(ctx, pos); err != nil {
		return types.StakePosition{}, err
	}
	if err := k.SetRewardPool(ctx, pool); err != nil {
		return types.StakePosition{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeRewardsAccrued,
		sdk.NewAttribute(types.AttributeKeyStake, stakeAddr.String()),
		sdk.NewAttribute(types.AttributeKeyAmount, accrued.String()),
	))
	k.Logger().Info("stake accrued", "stake_id", pos.StakeID, "amount", accrued.String())

	return pos, nil
}

// accrue adds the daily reward earned since LastAccrualAt. The timestamp only
// advances when something accrued so fractional periods are not lost.
func (k Keeper) accrue(ctx context.Context, pos *types.StakePosition, pool *types.RewardPool) (math.Int, error) {
	now := blockTime(ctx)
	amount := types.ComputeAccrual(k.config, pos.AccrualBase(k.config), now-pos.LastAccrualAt)
	if !amount.IsPositive() {
		return math.ZeroInt(), nil
	}
	var err error
	if pos.Accrued, err = SafeAdd(pos.Accrued, amount); err != nil {
		return math.Int{}, err
	}
	if pool.TotalAccrued, err = SafeAdd(pool.TotalAccrued, amount); err != nil {
		return math.Int{}, err
	}
	pos.LastAccrualAt = now
	return amount, nil
}

// ClaimRewards pays a position its pending reflection plus accrued daily
// rewards and returns the payout.
func (k Keeper) ClaimRewards(ctx context.Context, owner types.PublicKey, stakeID string) (types.StakePosition, math.Int, error) {
	if !k.rewardsEnabled() {
		return types.StakePosition{}, math.Int{}, types.InputError(types.ErrRewardsDisabled, "reflection and daily rewards are both disabled")
	}
	pos, found, err := k.GetStake(ctx, types.StakeAddress(owner, stakeID))
	if err != nil {
		return types.StakePosition{}, math.Int{}, err
	}
	if !found || pos.Withdrawn {
		return types.StakePosition{}, math.Int{}, types.InputError(types.ErrNoStake, "no active stake %s", stakeID)
	}
	pool, err := k.GetRewardPool(ctx)
	if err != nil {
		return types.StakePosition{}, math.Int{}, err
	}

	payout, err := k.payOut(ctx, &pos, &pool)
	if err != nil {
		return types.StakePosition{}, math.Int{}, err
	}
	if !payout.IsPositive() {
		return types.StakePosition{}, math.Int{}, types.InputError(types.ErrNoRewards, "stake %s has no rewards to claim", stakeID)
	}
	if err := k.SetStake(ctx, pos); err != nil {
		return types.StakePosition{}, math.Int{}, err
	}
	if err := k.SetRewardPool(ctx, pool); err != nil {
		return types.StakePosition{}, math.Int{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeRewardsClaimed,
		sdk.NewAttribute(types.AttributeKeyStake, pos.Address().String()),
		sdk.NewAttribute(types.AttributeKeyOwner, owner.String()),
		sdk.NewAttribute(types.AttributeKeyAmount, payout.String()),
	))
	k.metrics.RewardsClaimed.Add(intToFloat(payout))
	k.Logger().Info("rewards claimed", "stake_id", stakeID, "amount", payout.String())

	return pos, payout, nil
}

// payOut settles everything a position has earned: accrual up to now, then
// pending reflection. The reward debt is reset to the current accumulator.
func (k Keeper) payOut(ctx context.Context, pos *types.StakePosition, pool *types.RewardPool) (math.Int, error) {
	if k.config.Rewards.DailyRewardRate.IsPositive() {
		if _, err := k.accrue(ctx, pos, pool); err != nil {
			return math.Int{}, err
		}
	}

	reflection := types.PendingReflection(*pos, *pool)
	payout, err := SafeAdd(reflection, pos.Accrued)
	if err != nil {
		return math.Int{}, err
	}

	if pool.TotalClaimed, err = SafeAdd(pool.TotalClaimed, reflection); err != nil {
		return math.Int{}, err
	}
	if pos.TotalClaimed, err = SafeAdd(pos.TotalClaimed, payout); err != nil {
		return math.Int{}, err
	}
	pos.RewardDebt = types.RewardDebtAt(pos.Weight, *pool)
	pos.Accrued = math.ZeroInt()
	return payout, nil
}

func (k Keeper) rewardsEnabled() bool {
	return k.config.Features.TokenReflection || k.config.Rewards.DailyRewardRate.IsPositive()
}

// GetRewardPool returns the singleton reward pool, empty if never written.
func (k Keeper) GetRewardPool(ctx context.Context) (types.RewardPool, error) {
	var pool types.RewardPool
	found, err := k.getRecord(ctx, types.RewardPoolKey, &pool)
	if err != nil {
		return types.RewardPool{}, err
	}
	if !found {
		return types.NewRewardPool(), nil
	}
	return pool, nil
}

// SetRewardPool stores the singleton reward pool.
func (k Keeper) SetRewardPool(ctx context.Context, pool types.RewardPool) error {
	return k.setRecord(ctx, types.RewardPoolKey, pool)
}
