package keeper

import (
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// RegisterInvariants registers all hypernode module invariants
func RegisterInvariants(ir sdk.InvariantRegistry, k Keeper) {
	ir.RegisterRoute(types.ModuleName, "node-current-jobs",
		NodeCurrentJobsInvariant(k))
	ir.RegisterRoute(types.ModuleName, "splitter-volume",
		SplitterVolumeInvariant(k))
	ir.RegisterRoute(types.ModuleName, "reward-pool-solvency",
		RewardPoolSolvencyInvariant(k))
}

// AllInvariants runs all invariants of the hypernode module
func AllInvariants(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		res, stop := NodeCurrentJobsInvariant(k)(ctx)
		if stop {
			return res, stop
		}
		res, stop = SplitterVolumeInvariant(k)(ctx)
		if stop {
			return res, stop
		}
		return RewardPoolSolvencyInvariant(k)(ctx)
	}
}

// NodeCurrentJobsInvariant checks that every node's currentJobs equals the
// number of Assigned jobs pointing at it and never exceeds its maximum.
func NodeCurrentJobsInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		var (
			broken bool
			msg    string
		)

		assigned := make(map[types.Address]int64)
		err := k.IterateJobs(ctx, func(job types.Job) (bool, error) {
			if job.Status == types.JobStatusAssigned {
				assigned[job.AssignedNodeAddress()]++
			}
			return false, nil
		})
		if err != nil {
			return sdk.FormatInvariant(
				types.ModuleName, "node-current-jobs",
				fmt.Sprintf("error iterating jobs: %v", err),
			), true
		}

		var nodes []types.Node
		err = k.IterateNodes(ctx, func(node types.Node) (bool, error) {
			nodes = append(nodes, node)
			return false, nil
		})
		if err != nil {
			return sdk.FormatInvariant(
				types.ModuleName, "node-current-jobs",
				fmt.Sprintf("error iterating nodes: %v", err),
			), true
		}

		for _, node := range nodes {
			addr := node.Address()
			indexed, err := k.GetJobsByNode(ctx, addr)
			if err != nil {
				return sdk.FormatInvariant(
					types.ModuleName, "node-current-jobs",
					fmt.Sprintf("error reading jobs of node %s: %v", node.NodeID, err),
				), true
			}
			switch {
			case node.CurrentJobs < 0 || node.CurrentJobs > node.MaxConcurrentJobs:
				broken = true
				msg += fmt.Sprintf("\tnode %s current jobs %d outside [0, %d]\n", node.NodeID, node.CurrentJobs, node.MaxConcurrentJobs)
			case node.CurrentJobs != assigned[addr]:
				broken = true
				msg += fmt.Sprintf("\tnode %s current jobs %d but %d assigned jobs\n", node.NodeID, node.CurrentJobs, assigned[addr])
			case int64(len(indexed)) != node.CurrentJobs:
				broken = true
				msg += fmt.Sprintf("\tnode %s current jobs %d but %d indexed jobs\n", node.NodeID, node.CurrentJobs, len(indexed))
			}
			delete(assigned, addr)
		}
		for addr, count := range assigned {
			broken = true
			msg += fmt.Sprintf("\t%d jobs assigned to missing node %s\n", count, addr)
		}

		return sdk.FormatInvariant(
			types.ModuleName, "node-current-jobs",
			msg,
		), broken
	}
}

// SplitterVolumeInvariant checks that the splitter's volume and payment count
// match the settled jobs and that booked balances never exceed the volume.
func SplitterVolumeInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		cfg, found, err := k.GetSplitterConfig(ctx)
		if err != nil {
			return sdk.FormatInvariant(
				types.ModuleName, "splitter-volume",
				fmt.Sprintf("error loading splitter config: %v", err),
			), true
		}

		var (
			broken  bool
			msg     string
			volume  = math.ZeroInt()
			settled uint64
		)
		err = k.IterateJobs(ctx, func(job types.Job) (bool, error) {
			if job.PaymentSettled {
				volume = volume.Add(job.Price)
				settled++
			}
			return false, nil
		})
		if err != nil {
			return sdk.FormatInvariant(
				types.ModuleName, "splitter-volume",
				fmt.Sprintf("error iterating jobs: %v", err),
			), true
		}

		if !found {
			if settled > 0 {
				broken = true
				msg = fmt.Sprintf("%d settled jobs without a splitter config", settled)
			}
			return sdk.FormatInvariant(types.ModuleName, "splitter-volume", msg), broken
		}

		if !cfg.TotalVolume.Equal(volume) || cfg.TotalPayments != settled {
			broken = true
			msg += fmt.Sprintf(
				"splitter totals do not match settled jobs\n"+
					"\tsplitter volume: %s over %d payments\n"+
					"\tsettled jobs: %s over %d jobs\n",
				cfg.TotalVolume, cfg.TotalPayments, volume, settled,
			)
		}

		nonOperator := cfg.TreasuryBalance.Add(cfg.TotalTreasuryWithdrawn).Sub(cfg.TotalEscrowFees).
			Add(cfg.IncentiveBalance).Add(cfg.OrchestratorBalance)
		if nonOperator.IsNegative() || nonOperator.GT(cfg.TotalVolume) {
			broken = true
			msg += fmt.Sprintf("\tnon-operator balances %s outside [0, %s]\n", nonOperator, cfg.TotalVolume)
		}

		return sdk.FormatInvariant(
			types.ModuleName, "splitter-volume",
			msg,
		), broken
	}
}

// RewardPoolSolvencyInvariant checks that the pool totals match the active
// positions and that pending reflection never exceeds what was reflected and
// not yet claimed.
func RewardPoolSolvencyInvariant(k Keeper) sdk.Invariant {
	return func(ctx sdk.Context) (string, bool) {
		pool, err := k.GetRewardPool(ctx)
		if err != nil {
			return sdk.FormatInvariant(
				types.ModuleName, "reward-pool-solvency",
				fmt.Sprintf("error loading reward pool: %v", err),
			), true
		}

		var (
			broken  bool
			msg     string
			weight  = math.ZeroInt()
			staked  = math.ZeroInt()
			pending = math.ZeroInt()
			stakers uint64
		)
		err = k.IterateStakes(ctx, func(pos types.StakePosition) (bool, error) {
			if pos.Withdrawn {
				return false, nil
			}
			weight = weight.Add(pos.Weight)
			staked = staked.Add(pos.Amount)
			pending = pending.Add(types.PendingReflection(pos, pool))
			stakers++
			return false, nil
		})
		if err != nil {
			return sdk.FormatInvariant(
				types.ModuleName, "reward-pool-solvency",
				fmt.Sprintf("error iterating stakes: %v", err),
			), true
		}

		if !pool.TotalWeight.Equal(weight) || !pool.TotalStaked.Equal(staked) || pool.TotalStakers != stakers {
			broken = true
			msg += fmt.Sprintf(
				"pool totals do not match active positions\n"+
					"\tpool: weight %s, staked %s, stakers %d\n"+
					"\tpositions: weight %s, staked %s, stakers %d\n",
				pool.TotalWeight, pool.TotalStaked, pool.TotalStakers, weight, staked, stakers,
			)
		}

		available := pool.TotalReflected.Sub(pool.TotalClaimed).Sub(pool.IdlePool)
		if available.IsNegative() || pending.GT(available) {
			broken = true
			msg += fmt.Sprintf("\tpending reflection %s exceeds unclaimed reflection %s\n", pending, available)
		}

		return sdk.FormatInvariant(
			types.ModuleName, "reward-pool-solvency",
			msg,
		), broken
	}
}
