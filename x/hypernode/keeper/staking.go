package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// Stake locks a new position. Its multiplier is fixed at creation and its
// weight joins the reward pool immediately.
func (k Keeper) Stake(ctx context.Context, msg *types.MsgStake) (types.StakePosition, error) {
	if err := types.ValidateStakeOperation(k.config, msg.Amount, msg.DurationSeconds, msg.Owner.String()); err != nil {
		return types.StakePosition{}, err
	}
	if err := types.ValidateStakeID(msg.StakeID); err != nil {
		return types.StakePosition{}, err
	}

	addr := types.StakeAddress(msg.Owner, msg.StakeID)
	if _, found, err := k.GetStake(ctx, addr); err != nil {
		return types.StakePosition{}, err
	} else if found {
		return types.StakePosition{}, types.InputError(types.ErrStakeAlreadyExists, "stake %s already exists at %s", msg.StakeID, addr)
	}

	multiplier, err := types.CalculateMultiplier(k.config, msg.Amount, msg.DurationSeconds)
	if err != nil {
		return types.StakePosition{}, err
	}
	weight, err := SafeMul(msg.Amount, math.NewIntFromUint64(multiplier))
	if err != nil {
		return types.StakePosition{}, err
	}

	pool, err := k.GetRewardPool(ctx)
	if err != nil {
		return types.StakePosition{}, err
	}
	if pool.TotalWeight, err = SafeAdd(pool.TotalWeight, weight); err != nil {
		return types.StakePosition{}, err
	}
	if pool.TotalStaked, err = SafeAdd(pool.TotalStaked, msg.Amount); err != nil {
		return types.StakePosition{}, err
	}
	if pool.TotalStakers, err = SafeAddUint64(pool.TotalStakers, 1); err != nil {
		return types.StakePosition{}, err
	}

	now := blockTime(ctx)
	pos := types.StakePosition{
		StakeID:         msg.StakeID,
		Owner:           msg.Owner,
		Amount:          msg.Amount,
		DurationSeconds: msg.DurationSeconds,
		Multiplier:      multiplier,
		StartedAt:       now,
		UnlockAt:        now + msg.DurationSeconds,
		Accrued:         math.ZeroInt(),
		LastAccrualAt:   now,
		Weight:          weight,
		RewardDebt:      types.RewardDebtAt(weight, pool),
		TotalClaimed:    math.ZeroInt(),
	}
	if err := k.SetStake(ctx, pos); err != nil {
		return types.StakePosition{}, err
	}
	if err := k.SetRewardPool(ctx, pool); err != nil {
		return types.StakePosition{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeStaked,
		sdk.NewAttribute(types.AttributeKeyStake, addr.String()),
		sdk.NewAttribute(types.AttributeKeyOwner, msg.Owner.String()),
		sdk.NewAttribute(types.AttributeKeyAmount, msg.Amount.String()),
		sdk.NewAttribute(types.AttributeKeyDuration, fmt.Sprintf("%d", msg.DurationSeconds)),
		sdk.NewAttribute(types.AttributeKeyMultiplier, fmt.Sprintf("%d", multiplier)),
	))
	k.metrics.StakesOpened.Inc()
	k.Logger().Info("stake opened", "stake_id", msg.StakeID, "amount", msg.Amount.String(), "multiplier", multiplier)

	return pos, nil
}

// Unstake releases an unlocked position. Outstanding rewards are paid out
// and the position's weight leaves the pool; the record is kept, marked
// withdrawn.
func (k Keeper) Unstake(ctx context.Context, owner types.PublicKey, stakeID string) (types.StakePosition, math.Int, error) {
	pos, err := k.mustGetStake(ctx, types.StakeAddress(owner, stakeID))
	if err != nil {
		return types.StakePosition{}, math.Int{}, err
	}
	if pos.Withdrawn {
		return types.StakePosition{}, math.Int{}, types.InputError(types.ErrAlreadyWithdrawn, "stake %s has already been withdrawn", stakeID)
	}
	now := blockTime(ctx)
	if !pos.IsUnlocked(now) {
		return types.StakePosition{}, math.Int{}, types.InputError(types.ErrStakeLocked, "stake %s is locked until %d", stakeID, pos.UnlockAt)
	}

	pool, err := k.GetRewardPool(ctx)
	if err != nil {
		return types.StakePosition{}, math.Int{}, err
	}
	rewards, err := k.payOut(ctx, &pos, &pool)
	if err != nil {
		return types.StakePosition{}, math.Int{}, err
	}
	if pool.TotalWeight, err = SafeSub(pool.TotalWeight, pos.Weight); err != nil {
		return types.StakePosition{}, math.Int{}, err
	}
	if pool.TotalStaked, err = SafeSub(pool.TotalStaked, pos.Amount); err != nil {
		return types.StakePosition{}, math.Int{}, err
	}
	if pool.TotalStakers, err = SafeSubUint64(pool.TotalStakers, 1); err != nil {
		return types.StakePosition{}, math.Int{}, err
	}
	pos.Withdrawn = true
	if err := k.SetStake(ctx, pos); err != nil {
		return types.StakePosition{}, math.Int{}, err
	}
	if err := k.SetRewardPool(ctx, pool); err != nil {
		return types.StakePosition{}, math.Int{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeUnstaked,
		sdk.NewAttribute(types.AttributeKeyStake, pos.Address().String()),
		sdk.NewAttribute(types.AttributeKeyOwner, owner.String()),
		sdk.NewAttribute(types.AttributeKeyAmount, pos.Amount.String()),
	))
	k.metrics.StakesClosed.Inc()
	k.Logger().Info("stake withdrawn", "stake_id", stakeID, "amount", pos.Amount.String(), "rewards", rewards.String())

	return pos, rewards, nil
}

// GetStake returns the position stored at addr.
func (k Keeper) GetStake(ctx context.Context, addr types.Address) (types.StakePosition, bool, error) {
	var pos types.StakePosition
	found, err := k.getRecord(ctx, types.StakeKey(addr), &pos)
	return pos, found, err
}

func (k Keeper) mustGetStake(ctx context.Context, addr types.Address) (types.StakePosition, error) {
	pos, found, err := k.GetStake(ctx, addr)
	if err != nil {
		return types.StakePosition{}, err
	}
	if !found {
		return types.StakePosition{}, types.InputError(types.ErrNoStake, "stake %s not found", addr)
	}
	return pos, nil
}

// SetStake stores a position at its derived address.
func (k Keeper) SetStake(ctx context.Context, pos types.StakePosition) error {
	return k.setRecord(ctx, types.StakeKey(pos.Address()), pos)
}

// IterateStakes walks all positions in address order.
func (k Keeper) IterateStakes(ctx context.Context, cb func(types.StakePosition) (bool, error)) error {
	return iterateRecords(k, ctx, types.StakeKeyPrefix, cb)
}
