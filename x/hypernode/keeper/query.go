package keeper

import (
	"context"

	"cosmossdk.io/math"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// ListNodes returns up to limit nodes in address order, optionally filtered
// by status. A zero limit returns every match.
func (k Keeper) ListNodes(ctx context.Context, status *types.NodeStatus, limit int) ([]types.Node, error) {
	var nodes []types.Node
	err := k.IterateNodes(ctx, func(node types.Node) (bool, error) {
		if status != nil && node.Status != *status {
			return false, nil
		}
		nodes = append(nodes, node)
		return limit > 0 && len(nodes) >= limit, nil
	})
	return nodes, err
}

// ListJobs returns up to limit jobs in address order, optionally filtered by
// status.
func (k Keeper) ListJobs(ctx context.Context, status *types.JobStatus, limit int) ([]types.Job, error) {
	var jobs []types.Job
	err := k.IterateJobs(ctx, func(job types.Job) (bool, error) {
		if status != nil && job.Status != *status {
			return false, nil
		}
		jobs = append(jobs, job)
		return limit > 0 && len(jobs) >= limit, nil
	})
	return jobs, err
}

// PendingRewards previews what ClaimRewards would pay for a position at the
// current block time without writing anything.
func (k Keeper) PendingRewards(ctx context.Context, stakeAddr types.Address) (math.Int, error) {
	pos, err := k.mustGetStake(ctx, stakeAddr)
	if err != nil {
		return math.Int{}, err
	}
	if pos.Withdrawn {
		return math.ZeroInt(), nil
	}
	pool, err := k.GetRewardPool(ctx)
	if err != nil {
		return math.Int{}, err
	}
	accrual := types.ComputeAccrual(k.config, pos.AccrualBase(k.config), blockTime(ctx)-pos.LastAccrualAt)
	return types.PendingReflection(pos, pool).Add(pos.Accrued).Add(accrual), nil
}
