package keeper

import (
	"context"
	"fmt"
	"math/big"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// InitializeSplitter creates the singleton splitter config. It can only run
// once.
func (k Keeper) InitializeSplitter(ctx context.Context, authority types.PublicKey, shares types.Shares) (types.SplitterConfig, error) {
	if err := k.requireAuthority(authority); err != nil {
		return types.SplitterConfig{}, err
	}
	if err := shares.Validate(); err != nil {
		return types.SplitterConfig{}, err
	}
	if _, found, err := k.GetSplitterConfig(ctx); err != nil {
		return types.SplitterConfig{}, err
	} else if found {
		return types.SplitterConfig{}, types.InputError(types.ErrSplitterAlreadyInitialized, "splitter config already initialized")
	}

	cfg := types.NewSplitterConfig(authority, shares, blockTime(ctx))
	if err := k.SetSplitterConfig(ctx, cfg); err != nil {
		return types.SplitterConfig{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeSplitterInitialized,
		sdk.NewAttribute(types.AttributeKeyAuthority, authority.String()),
		sdk.NewAttribute(types.AttributeKeyShares, sharesString(shares)),
	))
	k.Logger().Info("splitter initialized", "authority", authority.String(), "shares", sharesString(shares))

	return cfg, nil
}

// UpdateSplitter replaces the split percentages. Only the splitter authority
// may call it and the new shares must still sum to 100.
func (k Keeper) UpdateSplitter(ctx context.Context, authority types.PublicKey, shares types.Shares) (types.SplitterConfig, error) {
	cfg, err := k.mustGetSplitterConfig(ctx)
	if err != nil {
		return types.SplitterConfig{}, err
	}
	if authority != cfg.Authority {
		return types.SplitterConfig{}, types.InputError(types.ErrUnauthorized, "signer is not the splitter authority")
	}
	if err := shares.Validate(); err != nil {
		return types.SplitterConfig{}, err
	}

	cfg.Shares = shares
	cfg.UpdatedAt = blockTime(ctx)
	if err := k.SetSplitterConfig(ctx, cfg); err != nil {
		return types.SplitterConfig{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeSplitterUpdated,
		sdk.NewAttribute(types.AttributeKeyAuthority, authority.String()),
		sdk.NewAttribute(types.AttributeKeyShares, sharesString(shares)),
	))
	k.Logger().Info("splitter updated", "shares", sharesString(shares))

	return cfg, nil
}

// WithdrawTreasury moves amount out of the accumulated treasury balance.
func (k Keeper) WithdrawTreasury(ctx context.Context, authority types.PublicKey, amount math.Int) (types.SplitterConfig, error) {
	cfg, err := k.mustGetSplitterConfig(ctx)
	if err != nil {
		return types.SplitterConfig{}, err
	}
	if authority != cfg.Authority {
		return types.SplitterConfig{}, types.InputError(types.ErrUnauthorized, "signer is not the splitter authority")
	}
	if err := types.ValidatePositive("amount", amount); err != nil {
		return types.SplitterConfig{}, err
	}
	if err := types.ValidateBalance("treasury", cfg.TreasuryBalance, amount); err != nil {
		return types.SplitterConfig{}, err
	}

	if cfg.TreasuryBalance, err = SafeSub(cfg.TreasuryBalance, amount); err != nil {
		return types.SplitterConfig{}, err
	}
	if cfg.TotalTreasuryWithdrawn, err = SafeAdd(cfg.TotalTreasuryWithdrawn, amount); err != nil {
		return types.SplitterConfig{}, err
	}
	if err := k.SetSplitterConfig(ctx, cfg); err != nil {
		return types.SplitterConfig{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeTreasuryWithdrawn,
		sdk.NewAttribute(types.AttributeKeyAuthority, authority.String()),
		sdk.NewAttribute(types.AttributeKeyAmount, amount.String()),
	))
	k.metrics.TreasuryWithdrawals.Inc()
	k.Logger().Info("treasury withdrawn", "amount", amount.String(), "remaining", cfg.TreasuryBalance.String())

	return cfg, nil
}

// settle splits a completed job's price. The reflection skim is taken from
// the operator share and handed to the reward pool before the split is
// booked; the job's escrow fee is credited to the treasury.
func (k Keeper) settle(ctx context.Context, job types.Job) (types.Distribution, error) {
	cfg, err := k.mustGetSplitterConfig(ctx)
	if err != nil {
		return types.Distribution{}, err
	}

	dist := types.ComputeDistribution(job.Price, cfg.Shares)
	if !dist.Total().Equal(job.Price) {
		return types.Distribution{}, types.InvariantError(types.ErrInvariantBroken,
			"distribution of %s sums to %s", job.Price, dist.Total())
	}
	dist.Reflection = types.ReflectionSkim(k.config, job.Price, dist.Operator)
	if err := k.onSettlement(ctx, dist.Reflection); err != nil {
		return types.Distribution{}, err
	}
	if err := k.applyDistribution(ctx, &cfg, dist, job.EscrowFee); err != nil {
		return types.Distribution{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypePaymentDistributed,
		sdk.NewAttribute(types.AttributeKeyJob, job.Address().String()),
		sdk.NewAttribute(types.AttributeKeyPrice, dist.Price.String()),
		sdk.NewAttribute(types.AttributeKeyOperatorAmt, dist.OperatorNet().String()),
		sdk.NewAttribute(types.AttributeKeyTreasuryAmt, dist.Treasury.String()),
		sdk.NewAttribute(types.AttributeKeyIncentiveAmt, dist.Incentive.String()),
		sdk.NewAttribute(types.AttributeKeyOrchAmt, dist.Orchestrator.String()),
		sdk.NewAttribute(types.AttributeKeyReflection, dist.Reflection.String()),
	))
	k.metrics.PaymentsDistributed.Inc()
	k.metrics.PaymentVolume.Add(intToFloat(dist.Price))

	return dist, nil
}

func (k Keeper) applyDistribution(ctx context.Context, cfg *types.SplitterConfig, dist types.Distribution, escrowFee math.Int) error {
	var err error
	if cfg.TotalVolume, err = SafeAdd(cfg.TotalVolume, dist.Price); err != nil {
		return err
	}
	if cfg.TotalPayments, err = SafeAddUint64(cfg.TotalPayments, 1); err != nil {
		return err
	}
	treasuryCredit := dist.Treasury
	if !escrowFee.IsNil() {
		treasuryCredit = treasuryCredit.Add(escrowFee)
		if cfg.TotalEscrowFees, err = SafeAdd(cfg.TotalEscrowFees, escrowFee); err != nil {
			return err
		}
	}
	if cfg.TreasuryBalance, err = SafeAdd(cfg.TreasuryBalance, treasuryCredit); err != nil {
		return err
	}
	if cfg.IncentiveBalance, err = SafeAdd(cfg.IncentiveBalance, dist.Incentive); err != nil {
		return err
	}
	if cfg.OrchestratorBalance, err = SafeAdd(cfg.OrchestratorBalance, dist.Orchestrator); err != nil {
		return err
	}
	return k.SetSplitterConfig(ctx, *cfg)
}

// GetSplitterConfig returns the singleton splitter config.
func (k Keeper) GetSplitterConfig(ctx context.Context) (types.SplitterConfig, bool, error) {
	var cfg types.SplitterConfig
	found, err := k.getRecord(ctx, types.SplitterConfigKey, &cfg)
	return cfg, found, err
}

func (k Keeper) mustGetSplitterConfig(ctx context.Context) (types.SplitterConfig, error) {
	cfg, found, err := k.GetSplitterConfig(ctx)
	if err != nil {
		return types.SplitterConfig{}, err
	}
	if !found {
		return types.SplitterConfig{}, types.InputError(types.ErrSplitterNotInitialized, "splitter config has not been initialized")
	}
	return cfg, nil
}

// SetSplitterConfig stores the singleton splitter config.
func (k Keeper) SetSplitterConfig(ctx context.Context, cfg types.SplitterConfig) error {
	return k.setRecord(ctx, types.SplitterConfigKey, cfg)
}

func sharesString(s types.Shares) string {
	return fmt.Sprintf("%d/%d/%d/%d", s.Operator, s.Treasury, s.Incentive, s.Orchestrator)
}

func intToFloat(i math.Int) float64 {
	f, _ := new(big.Float).SetInt(i.BigInt()).Float64()
	return f
}
