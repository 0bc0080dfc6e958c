// Package config builds protocol configs for tests.
package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// Test program identifiers and endpoint.
const (
	TestRPCURL           = "http://127.0.0.1:8899"
	TestNodesProgramID   = "HNnodes1111111111111111111111111111111111111"
	TestJobsProgramID    = "HNjobs11111111111111111111111111111111111111"
	TestStakingProgramID = "HNstake111111111111111111111111111111111111"
	TestRewardsProgramID = "HNrewrd111111111111111111111111111111111111"
)

// Default returns the protocol defaults with the required identifiers set.
func Default() types.Config {
	cfg := types.DefaultConfig()
	cfg.Network = types.NetworkDevnet
	cfg.RPCURL = TestRPCURL
	cfg.Programs = types.ProgramIDs{
		Nodes:   TestNodesProgramID,
		Jobs:    TestJobsProgramID,
		Staking: TestStakingProgramID,
		Rewards: TestRewardsProgramID,
	}
	return cfg
}

// Rebuild returns a fresh config with mutations applied in order. It is the
// only way to change protocol bounds after construction, and the result must
// still pass every bounds check.
func Rebuild(t testing.TB, mutations ...func(*types.Config)) types.Config {
	t.Helper()
	cfg := Default()
	for _, mutate := range mutations {
		mutate(&cfg)
	}
	require.NoError(t, cfg.ValidateBounds())
	return cfg
}
