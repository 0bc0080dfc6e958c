package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// CreateJob posts a new Pending job with its price held in escrow.
func (k Keeper) CreateJob(ctx context.Context, msg *types.MsgCreateJob) (types.Job, error) {
	if err := k.validateJobCreation(msg); err != nil {
		return types.Job{}, err
	}

	addr := types.JobAddress(msg.Client, msg.JobID)
	if _, found, err := k.GetJob(ctx, addr); err != nil {
		return types.Job{}, err
	} else if found {
		return types.Job{}, types.InputError(types.ErrJobAlreadyExists, "job %s already exists at %s", msg.JobID, addr)
	}

	escrowFee := k.config.Jobs.EscrowFeePercentage.MulInt(msg.Price).QuoInt64(100).TruncateInt()
	job := types.Job{
		JobID:            msg.JobID,
		Client:           msg.Client,
		JobType:          msg.JobType,
		Price:            msg.Price,
		EscrowFee:        escrowFee,
		TimeoutSeconds:   msg.TimeoutSeconds,
		RequirementsHash: msg.RequirementsHash,
		Status:           types.JobStatusPending,
		CreatedAt:        blockTime(ctx),
	}
	if msg.Definition != nil {
		job.Model = msg.Definition.Model
	}
	if err := k.SetJob(ctx, job); err != nil {
		return types.Job{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeJobCreated,
		sdk.NewAttribute(types.AttributeKeyJob, addr.String()),
		sdk.NewAttribute(types.AttributeKeyJobID, job.JobID),
		sdk.NewAttribute(types.AttributeKeyClient, job.Client.String()),
		sdk.NewAttribute(types.AttributeKeyJobType, job.JobType.String()),
		sdk.NewAttribute(types.AttributeKeyPrice, job.Price.String()),
	))
	k.metrics.JobsCreated.WithLabelValues(job.JobType.String()).Inc()
	k.Logger().Info("job created", "job", addr.String(), "job_id", job.JobID, "type", job.JobType.String(), "price", job.Price.String())

	return job, nil
}

func (k Keeper) validateJobCreation(msg *types.MsgCreateJob) error {
	if !msg.JobType.Valid() {
		return types.InputError(types.ErrInvalidJobType, "unknown job type %d", uint8(msg.JobType))
	}
	if msg.TimeoutSeconds < 0 {
		return types.InputError(types.ErrInvalidTimeout, "job timeout must be positive")
	}
	if msg.Definition != nil {
		timeout := k.config.EffectiveJobTimeout(msg.TimeoutSeconds)
		if err := types.ValidateJobSubmission(k.config, types.JobSubmission{
			Budget:         msg.Price,
			TimeoutSeconds: timeout,
			Definition:     msg.Definition,
			Client:         msg.Client.String(),
		}); err != nil {
			return err
		}
	} else {
		if err := types.ValidateJobBudget(k.config, msg.Price); err != nil {
			return err
		}
		if msg.TimeoutSeconds != 0 {
			if err := types.ValidateJobTimeout(k.config, msg.TimeoutSeconds); err != nil {
				return err
			}
		}
	}
	if err := types.ValidateContentHash(k.config, msg.RequirementsHash); err != nil {
		return err
	}
	if msg.EscrowFee != nil {
		if err := types.ValidateEscrowFee(k.config, *msg.EscrowFee); err != nil {
			return err
		}
	}
	return nil
}

// AssignJob binds a Pending job to an eligible node and reserves one unit of
// the node's capacity.
func (k Keeper) AssignJob(ctx context.Context, authority types.PublicKey, jobAddr types.Address, nodeOwner types.PublicKey, nodeID string) (types.Job, error) {
	if err := k.requireAuthority(authority); err != nil {
		return types.Job{}, err
	}
	job, err := k.mustGetJob(ctx, jobAddr)
	if err != nil {
		return types.Job{}, err
	}
	if _, err := k.expireIfDue(ctx, &job); err != nil {
		return types.Job{}, err
	}
	if job.Status != types.JobStatusPending {
		return types.Job{}, types.InputError(types.ErrJobNotPending, "job %s is %s", job.JobID, job.Status)
	}

	nodeAddr := types.NodeAddress(nodeOwner, nodeID)
	node, err := k.mustGetNode(ctx, nodeAddr)
	if err != nil {
		return types.Job{}, err
	}
	if job.TimedOutOn(nodeAddr) {
		return types.Job{}, types.InputError(types.ErrSameNodeReassignment, "node %s timed out on job %s", nodeID, job.JobID)
	}
	now := blockTime(ctx)
	if err := node.CheckEligible(k.config, now); err != nil {
		return types.Job{}, err
	}

	node.CurrentJobs++
	if err := k.SetNode(ctx, node); err != nil {
		return types.Job{}, err
	}

	job.Status = types.JobStatusAssigned
	job.AssignedNode = node.Owner
	job.AssignedNodeID = node.NodeID
	job.AssignedAt = now
	if err := k.SetJob(ctx, job); err != nil {
		return types.Job{}, err
	}
	k.getStore(ctx).Set(types.JobsByNodeKey(nodeAddr, jobAddr), []byte{})

	emit(ctx, sdk.NewEvent(
		types.EventTypeJobAssigned,
		sdk.NewAttribute(types.AttributeKeyJob, jobAddr.String()),
		sdk.NewAttribute(types.AttributeKeyNode, nodeAddr.String()),
		sdk.NewAttribute(types.AttributeKeyNodeID, node.NodeID),
	))
	k.metrics.JobsAssigned.Inc()
	k.Logger().Info("job assigned", "job_id", job.JobID, "node_id", node.NodeID, "retries_used", job.RetriesUsed)

	return job, nil
}

// SubmitResult completes an Assigned job for its node and settles payment
// exactly once: reflection first, then the split, then the escrow fee.
func (k Keeper) SubmitResult(ctx context.Context, operator types.PublicKey, jobAddr types.Address, resultHash, logsURL string, result *types.JobResult) (types.Job, error) {
	job, err := k.mustGetJob(ctx, jobAddr)
	if err != nil {
		return types.Job{}, err
	}
	if _, err := k.expireIfDue(ctx, &job); err != nil {
		return types.Job{}, err
	}

	if job.Status == types.JobStatusCompleted {
		if job.PaymentSettled {
			return types.Job{}, types.InputError(types.ErrAlreadySettled, "job %s payment already settled", job.JobID)
		}
		return types.Job{}, types.InputError(types.ErrJobNotAssigned, "job %s is completed", job.JobID)
	}
	if job.Status != types.JobStatusAssigned {
		return types.Job{}, types.InputError(types.ErrJobNotAssigned, "job %s is %s", job.JobID, job.Status)
	}
	if operator != job.AssignedNode {
		return types.Job{}, types.InputError(types.ErrUnauthorized, "signer is not the node assigned to job %s", job.JobID)
	}
	if err := types.ValidateJobResult(result); err != nil {
		return types.Job{}, err
	}
	if err := types.ValidateContentHash(k.config, resultHash); err != nil {
		return types.Job{}, err
	}
	if err := types.ValidateLogsURL(logsURL); err != nil {
		return types.Job{}, err
	}
	if job.PaymentSettled {
		return types.Job{}, types.InvariantError(types.ErrAlreadySettled, "assigned job %s is marked settled", job.JobID)
	}

	dist, err := k.settle(ctx, job)
	if err != nil {
		return types.Job{}, err
	}

	nodeAddr := job.AssignedNodeAddress()
	node, err := k.mustGetNode(ctx, nodeAddr)
	if err != nil {
		return types.Job{}, err
	}
	if err := k.releaseNode(ctx, &node, jobAddr); err != nil {
		return types.Job{}, err
	}
	if node.JobsCompleted, err = SafeAddUint64(node.JobsCompleted, 1); err != nil {
		return types.Job{}, err
	}
	node.ReputationScore += types.ReputationRewardOnJob
	if node.ReputationScore > types.MaxReputation {
		node.ReputationScore = types.MaxReputation
	}
	if node.TotalEarned, err = SafeAdd(node.TotalEarned, dist.OperatorNet()); err != nil {
		return types.Job{}, err
	}
	if err := k.SetNode(ctx, node); err != nil {
		return types.Job{}, err
	}

	now := blockTime(ctx)
	executionSeconds := now - job.AssignedAt
	job.Status = types.JobStatusCompleted
	job.CompletedAt = now
	job.ResultHash = resultHash
	job.LogsURL = logsURL
	job.ResultSize = int64(len(result.Output))
	job.PaymentSettled = true
	if err := k.SetJob(ctx, job); err != nil {
		return types.Job{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeJobCompleted,
		sdk.NewAttribute(types.AttributeKeyJob, jobAddr.String()),
		sdk.NewAttribute(types.AttributeKeyNode, nodeAddr.String()),
		sdk.NewAttribute(types.AttributeKeyResultHash, resultHash),
		sdk.NewAttribute(types.AttributeKeyOperatorAmt, dist.OperatorNet().String()),
	))
	k.metrics.JobsCompleted.WithLabelValues(job.JobType.String()).Inc()
	k.metrics.JobExecutionTime.Observe(float64(executionSeconds))
	k.Logger().Info("job completed",
		"job_id", job.JobID,
		"node_id", node.NodeID,
		"price", job.Price.String(),
		"operator_net", dist.OperatorNet().String(),
		"reflection", dist.Reflection.String(),
	)

	return job, nil
}

// CancelJob withdraws a Pending or Assigned job on behalf of its client.
func (k Keeper) CancelJob(ctx context.Context, client types.PublicKey, jobAddr types.Address) (types.Job, error) {
	job, err := k.mustGetJob(ctx, jobAddr)
	if err != nil {
		return types.Job{}, err
	}
	if _, err := k.expireIfDue(ctx, &job); err != nil {
		return types.Job{}, err
	}
	if !job.Status.CanTransitionTo(types.JobStatusCancelled) {
		return types.Job{}, types.InputError(types.ErrJobNotCancellable, "job %s is %s", job.JobID, job.Status)
	}
	if client != job.Client {
		return types.Job{}, types.InputError(types.ErrUnauthorized, "signer is not the client of job %s", job.JobID)
	}
	if job.PaymentSettled {
		return types.Job{}, types.InputError(types.ErrAlreadySettled, "job %s payment already settled", job.JobID)
	}

	if job.Status == types.JobStatusAssigned {
		node, err := k.mustGetNode(ctx, job.AssignedNodeAddress())
		if err != nil {
			return types.Job{}, err
		}
		if err := k.releaseNode(ctx, &node, jobAddr); err != nil {
			return types.Job{}, err
		}
		if err := k.SetNode(ctx, node); err != nil {
			return types.Job{}, err
		}
	}

	job.Status = types.JobStatusCancelled
	if err := k.SetJob(ctx, job); err != nil {
		return types.Job{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeJobCancelled,
		sdk.NewAttribute(types.AttributeKeyJob, jobAddr.String()),
		sdk.NewAttribute(types.AttributeKeyClient, client.String()),
	))
	k.metrics.JobsCancelled.Inc()
	k.Logger().Info("job cancelled", "job_id", job.JobID)

	return job, nil
}

// ExpireJob evaluates a job's timeout at the current block time. It fails
// with JOB_NOT_EXPIRED when nothing expired.
func (k Keeper) ExpireJob(ctx context.Context, jobAddr types.Address) (types.Job, error) {
	job, err := k.mustGetJob(ctx, jobAddr)
	if err != nil {
		return types.Job{}, err
	}
	expired, err := k.expireIfDue(ctx, &job)
	if err != nil {
		return types.Job{}, err
	}
	if !expired {
		return types.Job{}, types.InputError(types.ErrJobNotExpired, "job %s has not timed out", job.JobID)
	}
	return job, nil
}

// expireIfDue applies the timeout transition to an Assigned job whose
// deadline has passed. The job returns to Pending while retries remain and
// fails otherwise; the node loses the capacity reservation and is
// penalized.
func (k Keeper) expireIfDue(ctx context.Context, job *types.Job) (bool, error) {
	now := blockTime(ctx)
	if !job.IsExpired(k.config, now) {
		return false, nil
	}

	jobAddr := job.Address()
	nodeAddr := job.AssignedNodeAddress()
	node, found, err := k.GetNode(ctx, nodeAddr)
	if err != nil {
		return false, err
	}
	if found {
		if err := k.releaseNode(ctx, &node, jobAddr); err != nil {
			return false, err
		}
		if node.JobsFailed, err = SafeAddUint64(node.JobsFailed, 1); err != nil {
			return false, err
		}
		if k.config.Features.AutoSlashing {
			if _, err := k.slashNode(ctx, &node, SlashReasonJobTimeout); err != nil {
				return false, err
			}
		} else if err := k.SetNode(ctx, node); err != nil {
			return false, err
		}
	} else {
		k.getStore(ctx).Delete(types.JobsByNodeKey(nodeAddr, jobAddr))
	}

	job.RetriesUsed++
	job.TimedOutNodes = append(job.TimedOutNodes, nodeAddr)
	job.AssignedNode = types.PublicKey{}
	job.AssignedNodeID = ""
	job.AssignedAt = 0

	outcome, eventType := "requeued", types.EventTypeJobExpired
	if job.RetriesUsed <= k.config.Jobs.MaxRetriesPerJob {
		job.Status = types.JobStatusPending
	} else {
		job.Status = types.JobStatusFailed
		outcome, eventType = "failed", types.EventTypeJobFailed
	}
	if err := k.SetJob(ctx, *job); err != nil {
		return false, err
	}

	emit(ctx, sdk.NewEvent(
		eventType,
		sdk.NewAttribute(types.AttributeKeyJob, jobAddr.String()),
		sdk.NewAttribute(types.AttributeKeyNode, nodeAddr.String()),
		sdk.NewAttribute(types.AttributeKeyStatus, job.Status.String()),
		sdk.NewAttribute(types.AttributeKeyRetriesUsed, fmt.Sprintf("%d", job.RetriesUsed)),
	))
	k.metrics.JobsExpired.WithLabelValues(outcome).Inc()
	k.Logger().Info("job timed out", "job_id", job.JobID, "node", nodeAddr.String(), "retries_used", job.RetriesUsed, "status", job.Status.String())

	return true, nil
}

// releaseNode returns one unit of capacity to node and drops the job from
// its assignment index. The caller persists the node.
func (k Keeper) releaseNode(ctx context.Context, node *types.Node, jobAddr types.Address) error {
	if node.CurrentJobs <= 0 {
		return types.InvariantError(types.ErrInvariantBroken, "node %s has no active jobs to release", node.NodeID)
	}
	node.CurrentJobs--
	k.getStore(ctx).Delete(types.JobsByNodeKey(node.Address(), jobAddr))
	return nil
}

// GetJob returns the job stored at addr.
func (k Keeper) GetJob(ctx context.Context, addr types.Address) (types.Job, bool, error) {
	var job types.Job
	found, err := k.getRecord(ctx, types.JobKey(addr), &job)
	return job, found, err
}

func (k Keeper) mustGetJob(ctx context.Context, addr types.Address) (types.Job, error) {
	job, found, err := k.GetJob(ctx, addr)
	if err != nil {
		return types.Job{}, err
	}
	if !found {
		return types.Job{}, types.InputError(types.ErrJobNotFound, "job %s not found", addr)
	}
	return job, nil
}

// SetJob stores a job at its derived address.
func (k Keeper) SetJob(ctx context.Context, job types.Job) error {
	if job.EscrowFee.IsNil() {
		job.EscrowFee = math.ZeroInt()
	}
	return k.setRecord(ctx, types.JobKey(job.Address()), job)
}

// IterateJobs walks all jobs in address order.
func (k Keeper) IterateJobs(ctx context.Context, cb func(types.Job) (bool, error)) error {
	return iterateRecords(k, ctx, types.JobKeyPrefix, cb)
}

// GetJobsByNode returns the jobs currently assigned to a node.
func (k Keeper) GetJobsByNode(ctx context.Context, node types.Address) ([]types.Job, error) {
	prefix := types.JobsByNodePrefixKey(node)
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), prefix)

	var addrs []types.Address
	for ; iterator.Valid(); iterator.Next() {
		var jobAddr types.Address
		copy(jobAddr[:], iterator.Key()[len(prefix):])
		addrs = append(addrs, jobAddr)
	}
	if err := iterator.Close(); err != nil {
		return nil, err
	}

	jobs := make([]types.Job, 0, len(addrs))
	for _, jobAddr := range addrs {
		job, err := k.mustGetJob(ctx, jobAddr)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
