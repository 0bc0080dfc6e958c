package keeper_test

import (
	"crypto/ed25519"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	testconfig "github.com/hypernode-network/hypernode/testutil/config"
	keepertest "github.com/hypernode-network/hypernode/testutil/keeper"
	"github.com/hypernode-network/hypernode/x/hypernode/keeper"
	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

const testPrice = 1_000_000

var (
	testRequirements = "Qm" + strings.Repeat("r", 44)
	testResultHash   = "Qm" + strings.Repeat("o", 44)
)

type testEnv struct {
	t   *testing.T
	k   *keeper.Keeper
	ctx sdk.Context
}

func setup(t *testing.T, mutations ...func(*types.Config)) *testEnv {
	t.Helper()
	k, ctx := keepertest.HypernodeKeeperWithConfig(t, testconfig.Rebuild(t, mutations...))
	return &testEnv{t: t, k: k, ctx: ctx}
}

func (e *testEnv) now() int64 {
	return e.ctx.BlockTime().Unix()
}

func (e *testEnv) advance(seconds int64) {
	e.ctx = e.ctx.WithBlockTime(e.ctx.BlockTime().Add(time.Duration(seconds) * time.Second))
}

func newKey(t testing.TB) types.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return types.PublicKeyFromEd25519(pub)
}

func (e *testEnv) registerNode(owner types.PublicKey, nodeID string, maxJobs int64) types.Node {
	e.t.Helper()
	node, err := e.k.RegisterNode(e.ctx, &types.MsgRegisterNode{
		Owner:             owner,
		NodeID:            nodeID,
		GPUSpecsHash:      "h100-80gb",
		Location:          "us-east",
		MaxConcurrentJobs: maxJobs,
	})
	require.NoError(e.t, err)
	return node
}

func (e *testEnv) createJob(client types.PublicKey, jobID string, price int64) types.Job {
	e.t.Helper()
	job, err := e.k.CreateJob(e.ctx, &types.MsgCreateJob{
		Client:           client,
		JobID:            jobID,
		JobType:          types.JobTypeLLMInference,
		Price:            math.NewInt(price),
		RequirementsHash: testRequirements,
		Definition:       &types.JobDefinition{Model: "llama-3-8b", Params: map[string]interface{}{}},
	})
	require.NoError(e.t, err)
	return job
}

func (e *testEnv) initSplitter(authority types.PublicKey) types.SplitterConfig {
	e.t.Helper()
	cfg, err := e.k.InitializeSplitter(e.ctx, authority, types.DefaultShares())
	require.NoError(e.t, err)
	return cfg
}

func (e *testEnv) assign(job types.Job, node types.Node) (types.Job, error) {
	return e.k.AssignJob(e.ctx, newKey(e.t), job.Address(), node.Owner, node.NodeID)
}

func (e *testEnv) submit(job types.Job, operator types.PublicKey) (types.Job, error) {
	return e.k.SubmitResult(e.ctx, operator, job.Address(), testResultHash, "https://logs.example/1", &types.JobResult{Output: "42"})
}

func (e *testEnv) getJob(addr types.Address) types.Job {
	e.t.Helper()
	job, found, err := e.k.GetJob(e.ctx, addr)
	require.NoError(e.t, err)
	require.True(e.t, found)
	return job
}

func (e *testEnv) getNode(addr types.Address) types.Node {
	e.t.Helper()
	node, found, err := e.k.GetNode(e.ctx, addr)
	require.NoError(e.t, err)
	require.True(e.t, found)
	return node
}

func (e *testEnv) splitter() types.SplitterConfig {
	e.t.Helper()
	cfg, found, err := e.k.GetSplitterConfig(e.ctx)
	require.NoError(e.t, err)
	require.True(e.t, found)
	return cfg
}

func (e *testEnv) pool() types.RewardPool {
	e.t.Helper()
	pool, err := e.k.GetRewardPool(e.ctx)
	require.NoError(e.t, err)
	return pool
}

func (e *testEnv) requireInvariantsHold() {
	e.t.Helper()
	msg, broken := keeper.AllInvariants(*e.k)(e.ctx)
	require.False(e.t, broken, msg)
}
