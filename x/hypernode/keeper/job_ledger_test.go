package keeper_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

func TestCreateJob(t *testing.T) {
	env := setup(t)
	client := newKey(t)

	job := env.createJob(client, "job-1", testPrice)
	require.Equal(t, types.JobStatusPending, job.Status)
	require.Equal(t, "llama-3-8b", job.Model)
	require.Equal(t, env.now(), job.CreatedAt)
	require.True(t, job.EscrowFee.Equal(math.NewInt(10_000)))
	require.False(t, job.PaymentSettled)
	require.Equal(t, job, env.getJob(types.JobAddress(client, "job-1")))

	_, err := env.k.CreateJob(env.ctx, &types.MsgCreateJob{
		Client:           client,
		JobID:            "job-1",
		JobType:          types.JobTypeLLMInference,
		Price:            math.NewInt(testPrice),
		RequirementsHash: testRequirements,
	})
	require.ErrorIs(t, err, types.ErrJobAlreadyExists)
}

func TestCreateJobValidation(t *testing.T) {
	client := newKey(t)
	valid := func() types.MsgCreateJob {
		return types.MsgCreateJob{
			Client:           client,
			JobID:            "job-1",
			JobType:          types.JobTypeLLMInference,
			Price:            math.NewInt(testPrice),
			RequirementsHash: testRequirements,
			Definition:       &types.JobDefinition{Model: "llama", Params: map[string]interface{}{}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*types.MsgCreateJob)
		err    error
	}{
		{"budget too small", func(m *types.MsgCreateJob) { m.Price = math.NewInt(999_999) }, types.ErrJobBudgetTooSmall},
		{"budget too large", func(m *types.MsgCreateJob) { m.Price = math.NewInt(1_000_000_000_001) }, types.ErrJobBudgetTooLarge},
		{"timeout above ceiling", func(m *types.MsgCreateJob) { m.TimeoutSeconds = 36_001 }, types.ErrTimeoutTooLong},
		{"negative timeout", func(m *types.MsgCreateJob) { m.TimeoutSeconds = -1 }, types.ErrInvalidTimeout},
		{"missing model", func(m *types.MsgCreateJob) { m.Definition.Model = "" }, types.ErrMissingModel},
		{"requirements not a cid", func(m *types.MsgCreateJob) { m.RequirementsHash = "not-a-cid" }, types.ErrInvalidIPFSHash},
		{"unknown job type", func(m *types.MsgCreateJob) { m.JobType = types.JobType(99) }, types.ErrInvalidJobType},
		{"escrow fee mismatch", func(m *types.MsgCreateJob) { fee := math.LegacyNewDec(2); m.EscrowFee = &fee }, types.ErrFeeMismatch},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := setup(t)
			msg := valid()
			tc.mutate(&msg)
			_, err := env.k.CreateJob(env.ctx, &msg)
			require.ErrorIs(t, err, tc.err)

			_, found, err := env.k.GetJob(env.ctx, types.JobAddress(client, "job-1"))
			require.NoError(t, err)
			require.False(t, found)
		})
	}
}

func TestAssignJob(t *testing.T) {
	env := setup(t)
	owner := newKey(t)
	node := env.registerNode(owner, "n1", 2)
	job := env.createJob(newKey(t), "job-1", testPrice)

	assigned, err := env.assign(job, node)
	require.NoError(t, err)
	require.Equal(t, types.JobStatusAssigned, assigned.Status)
	require.Equal(t, owner, assigned.AssignedNode)
	require.Equal(t, "n1", assigned.AssignedNodeID)
	require.Equal(t, env.now(), assigned.AssignedAt)
	require.Equal(t, int64(1), env.getNode(node.Address()).CurrentJobs)

	jobs, err := env.k.GetJobsByNode(env.ctx, node.Address())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, job.Address(), jobs[0].Address())

	_, err = env.assign(job, node)
	require.ErrorIs(t, err, types.ErrJobNotPending)
	env.requireInvariantsHold()
}

func TestAssignJobEligibility(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*types.Node)
		err     error
	}{
		{"reputation below minimum", func(n *types.Node) { n.ReputationScore = 50 }, types.ErrReputationTooLow},
		{"offline", func(n *types.Node) { n.Status = types.NodeStatusOffline }, types.ErrNodeNotOnline},
		{"busy", func(n *types.Node) { n.Status = types.NodeStatusBusy }, types.ErrNodeNotOnline},
		{"cooldown", func(n *types.Node) { n.SlashedUntil = n.RegisteredAt + 10 }, types.ErrNodeInCooldown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := setup(t)
			node := env.registerNode(newKey(t), "n1", 2)
			tc.prepare(&node)
			require.NoError(t, env.k.SetNode(env.ctx, node))
			job := env.createJob(newKey(t), "job-1", testPrice)

			_, err := env.assign(job, node)
			require.ErrorIs(t, err, tc.err)
			require.Equal(t, types.JobStatusPending, env.getJob(job.Address()).Status)
			require.Equal(t, int64(0), env.getNode(node.Address()).CurrentJobs)
		})
	}
}

func TestAssignJobCapacity(t *testing.T) {
	env := setup(t)
	node := env.registerNode(newKey(t), "n1", 1)
	first := env.createJob(newKey(t), "job-1", testPrice)
	second := env.createJob(newKey(t), "job-2", testPrice)

	_, err := env.assign(first, node)
	require.NoError(t, err)

	_, err = env.assign(second, node)
	require.ErrorIs(t, err, types.ErrNodeAtCapacity)
	require.Equal(t, int64(1), env.getNode(node.Address()).CurrentJobs)
}

func TestAssignJobStaleHeartbeat(t *testing.T) {
	env := setup(t, func(c *types.Config) { c.Nodes.HeartbeatTimeoutSeconds = 120 })
	node := env.registerNode(newKey(t), "n1", 2)
	job := env.createJob(newKey(t), "job-1", testPrice)

	env.advance(121)
	_, err := env.assign(job, node)
	require.ErrorIs(t, err, types.ErrNodeHeartbeatStale)

	_, err = env.k.UpdateHeartbeat(env.ctx, node.Owner, node.NodeID)
	require.NoError(t, err)
	_, err = env.assign(job, node)
	require.NoError(t, err)
}

func TestAssignJobAuthority(t *testing.T) {
	authority := newKey(t)
	env := setup(t, func(c *types.Config) { c.Authority = authority.String() })
	node := env.registerNode(newKey(t), "n1", 2)
	job := env.createJob(newKey(t), "job-1", testPrice)

	_, err := env.k.AssignJob(env.ctx, newKey(t), job.Address(), node.Owner, node.NodeID)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = env.k.AssignJob(env.ctx, authority, job.Address(), node.Owner, node.NodeID)
	require.NoError(t, err)
}

func TestMalformedAuthorityRejectsEverySigner(t *testing.T) {
	env := setup(t, func(c *types.Config) { c.Authority = "not-a-key" })
	signer := newKey(t)
	node := env.registerNode(newKey(t), "n1", 2)
	job := env.createJob(newKey(t), "job-1", testPrice)

	_, err := env.k.AssignJob(env.ctx, signer, job.Address(), node.Owner, node.NodeID)
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = env.k.SlashNode(env.ctx, signer, node.Address(), "manual")
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = env.k.InitializeSplitter(env.ctx, signer, types.DefaultShares())
	require.ErrorIs(t, err, types.ErrUnauthorized)

	still, found, err := env.k.GetJob(env.ctx, job.Address())
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, types.JobStatusPending, still.Status)
}

func TestSubmitResultSettlesOnce(t *testing.T) {
	env := setup(t)
	env.initSplitter(newKey(t))
	owner := newKey(t)
	node := env.registerNode(owner, "n1", 2)
	job := env.createJob(newKey(t), "job-1", testPrice)
	_, err := env.assign(job, node)
	require.NoError(t, err)

	env.advance(42)
	completed, err := env.submit(job, owner)
	require.NoError(t, err)
	require.Equal(t, types.JobStatusCompleted, completed.Status)
	require.True(t, completed.PaymentSettled)
	require.Equal(t, testResultHash, completed.ResultHash)
	require.Equal(t, int64(2), completed.ResultSize)
	require.Equal(t, env.now(), completed.CompletedAt)

	settledNode := env.getNode(node.Address())
	require.Equal(t, int64(0), settledNode.CurrentJobs)
	require.Equal(t, uint64(1), settledNode.JobsCompleted)
	require.Equal(t, types.InitialReputation+1, settledNode.ReputationScore)
	require.True(t, settledNode.TotalEarned.Equal(math.NewInt(780_000)))

	cfg := env.splitter()
	require.True(t, cfg.TotalVolume.Equal(math.NewInt(testPrice)))
	require.Equal(t, uint64(1), cfg.TotalPayments)
	require.True(t, cfg.TreasuryBalance.Equal(math.NewInt(110_000)))
	require.True(t, cfg.IncentiveBalance.Equal(math.NewInt(50_000)))
	require.True(t, cfg.OrchestratorBalance.Equal(math.NewInt(50_000)))
	require.True(t, cfg.TotalEscrowFees.Equal(math.NewInt(10_000)))
	require.True(t, env.pool().IdlePool.Equal(math.NewInt(20_000)))

	_, err = env.submit(job, owner)
	require.ErrorIs(t, err, types.ErrAlreadySettled)
	require.Equal(t, uint64(1), env.splitter().TotalPayments)
	require.Equal(t, uint64(1), env.getNode(node.Address()).JobsCompleted)
	env.requireInvariantsHold()
}

func TestSubmitResultRejections(t *testing.T) {
	env := setup(t)
	owner := newKey(t)
	node := env.registerNode(owner, "n1", 2)
	job := env.createJob(newKey(t), "job-1", testPrice)

	_, err := env.submit(job, owner)
	require.ErrorIs(t, err, types.ErrJobNotAssigned)

	_, err = env.assign(job, node)
	require.NoError(t, err)

	_, err = env.submit(job, newKey(t))
	require.ErrorIs(t, err, types.ErrUnauthorized)

	_, err = env.k.SubmitResult(env.ctx, owner, job.Address(), testResultHash, "", nil)
	require.ErrorIs(t, err, types.ErrInvalidResultType)

	_, err = env.k.SubmitResult(env.ctx, owner, job.Address(), "bogus", "", &types.JobResult{Output: "ok"})
	require.ErrorIs(t, err, types.ErrInvalidIPFSHash)

	_, err = env.submit(job, owner)
	require.ErrorIs(t, err, types.ErrSplitterNotInitialized)
	require.Equal(t, types.JobStatusAssigned, env.getJob(job.Address()).Status)
}

func TestCancelJob(t *testing.T) {
	env := setup(t)
	env.initSplitter(newKey(t))
	client := newKey(t)
	owner := newKey(t)
	node := env.registerNode(owner, "n1", 2)

	pending := env.createJob(client, "pending", testPrice)
	_, err := env.k.CancelJob(env.ctx, newKey(t), pending.Address())
	require.ErrorIs(t, err, types.ErrUnauthorized)

	cancelled, err := env.k.CancelJob(env.ctx, client, pending.Address())
	require.NoError(t, err)
	require.Equal(t, types.JobStatusCancelled, cancelled.Status)

	_, err = env.k.CancelJob(env.ctx, client, pending.Address())
	require.ErrorIs(t, err, types.ErrJobNotCancellable)

	assigned := env.createJob(client, "assigned", testPrice)
	_, err = env.assign(assigned, node)
	require.NoError(t, err)
	_, err = env.k.CancelJob(env.ctx, client, assigned.Address())
	require.NoError(t, err)
	require.Equal(t, int64(0), env.getNode(node.Address()).CurrentJobs)

	done := env.createJob(client, "done", testPrice)
	_, err = env.assign(done, node)
	require.NoError(t, err)
	_, err = env.submit(done, owner)
	require.NoError(t, err)
	_, err = env.k.CancelJob(env.ctx, client, done.Address())
	require.ErrorIs(t, err, types.ErrJobNotCancellable)

	_, err = env.k.CancelJob(env.ctx, client, types.JobAddress(client, "missing"))
	require.ErrorIs(t, err, types.ErrJobNotFound)
	env.requireInvariantsHold()
}

func TestExpireJobRequeuesAndSlashes(t *testing.T) {
	env := setup(t)
	first := env.registerNode(newKey(t), "n1", 2)
	second := env.registerNode(newKey(t), "n2", 2)
	job := env.createJob(newKey(t), "job-1", testPrice)

	_, err := env.assign(job, first)
	require.NoError(t, err)

	env.advance(3600)
	_, err = env.k.ExpireJob(env.ctx, job.Address())
	require.ErrorIs(t, err, types.ErrJobNotExpired)

	env.advance(1)
	expired, err := env.k.ExpireJob(env.ctx, job.Address())
	require.NoError(t, err)
	require.Equal(t, types.JobStatusPending, expired.Status)
	require.Equal(t, uint32(1), expired.RetriesUsed)
	require.Equal(t, []types.Address{first.Address()}, expired.TimedOutNodes)
	require.True(t, expired.AssignedNode.IsZero())

	timedOut := env.getNode(first.Address())
	require.Equal(t, int64(0), timedOut.CurrentJobs)
	require.Equal(t, uint64(1), timedOut.JobsFailed)
	require.Equal(t, types.NodeStatusSlashed, timedOut.Status)
	require.Equal(t, int64(450), timedOut.ReputationScore)
	require.Equal(t, env.now()+types.SecondsPerDay, timedOut.SlashedUntil)

	_, err = env.assign(job, first)
	require.ErrorIs(t, err, types.ErrSameNodeReassignment)

	reassigned, err := env.assign(job, second)
	require.NoError(t, err)
	require.Equal(t, "n2", reassigned.AssignedNodeID)
	env.requireInvariantsHold()
}

func TestExpireJobExhaustsRetries(t *testing.T) {
	env := setup(t, func(c *types.Config) {
		c.Features.AutoSlashing = false
		c.Jobs.MaxRetriesPerJob = 1
	})
	client := newKey(t)
	first := env.registerNode(newKey(t), "n1", 2)
	second := env.registerNode(newKey(t), "n2", 2)
	job := env.createJob(client, "job-1", testPrice)

	_, err := env.assign(job, first)
	require.NoError(t, err)
	env.advance(3601)
	requeued, err := env.k.ExpireJob(env.ctx, job.Address())
	require.NoError(t, err)
	require.Equal(t, types.JobStatusPending, requeued.Status)
	require.Equal(t, types.NodeStatusOnline, env.getNode(first.Address()).Status)

	_, err = env.assign(job, second)
	require.NoError(t, err)
	env.advance(3601)
	failed, err := env.k.ExpireJob(env.ctx, job.Address())
	require.NoError(t, err)
	require.Equal(t, types.JobStatusFailed, failed.Status)
	require.Equal(t, uint32(2), failed.RetriesUsed)

	_, err = env.k.CancelJob(env.ctx, client, job.Address())
	require.ErrorIs(t, err, types.ErrJobNotCancellable)
	env.requireInvariantsHold()
}

func TestReassignmentSkipsEveryTimedOutNode(t *testing.T) {
	env := setup(t, func(c *types.Config) {
		c.Features.AutoSlashing = false
		c.Jobs.MaxRetriesPerJob = 3
	})
	first := env.registerNode(newKey(t), "n1", 2)
	second := env.registerNode(newKey(t), "n2", 2)
	third := env.registerNode(newKey(t), "n3", 2)
	job := env.createJob(newKey(t), "job-1", testPrice)

	for _, node := range []types.Node{first, second} {
		_, err := env.assign(job, node)
		require.NoError(t, err)
		env.advance(3601)
		_, err = env.k.ExpireJob(env.ctx, job.Address())
		require.NoError(t, err)
	}

	requeued := env.getJob(job.Address())
	require.Equal(t, types.JobStatusPending, requeued.Status)
	require.Equal(t, []types.Address{first.Address(), second.Address()}, requeued.TimedOutNodes)

	_, err := env.assign(job, first)
	require.ErrorIs(t, err, types.ErrSameNodeReassignment)
	_, err = env.assign(job, second)
	require.ErrorIs(t, err, types.ErrSameNodeReassignment)

	reassigned, err := env.assign(job, third)
	require.NoError(t, err)
	require.Equal(t, "n3", reassigned.AssignedNodeID)
	env.requireInvariantsHold()
}

func TestJobTimeoutOverride(t *testing.T) {
	env := setup(t, func(c *types.Config) { c.Features.AutoSlashing = false })
	node := env.registerNode(newKey(t), "n1", 2)
	job, err := env.k.CreateJob(env.ctx, &types.MsgCreateJob{
		Client:           newKey(t),
		JobID:            "short",
		JobType:          types.JobTypeRAGIndexing,
		Price:            math.NewInt(testPrice),
		RequirementsHash: testRequirements,
		TimeoutSeconds:   60,
	})
	require.NoError(t, err)

	_, err = env.assign(job, node)
	require.NoError(t, err)
	env.advance(61)

	// Submission after the deadline observes the expiry first.
	_, err = env.submit(job, node.Owner)
	require.ErrorIs(t, err, types.ErrJobNotAssigned)
}

func TestListJobs(t *testing.T) {
	env := setup(t)
	node := env.registerNode(newKey(t), "n1", 2)
	for _, id := range []string{"a", "b", "c"} {
		env.createJob(newKey(t), id, testPrice)
	}
	jobs, err := env.k.ListJobs(env.ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	_, err = env.assign(jobs[0], node)
	require.NoError(t, err)

	pending := types.JobStatusPending
	jobs, err = env.k.ListJobs(env.ctx, &pending, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	jobs, err = env.k.ListJobs(env.ctx, nil, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}
