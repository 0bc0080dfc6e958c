package types_test

import (
	"crypto/ed25519"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	testconfig "github.com/hypernode-network/hypernode/testutil/config"
	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

func newTestKey(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return types.PublicKeyFromEd25519(pub).String()
}

func validCID() string {
	return "Qm" + strings.Repeat("a", 44)
}

func TestValidateStakeParameters(t *testing.T) {
	cfg := testconfig.Default()
	minDur := cfg.Staking.MinDurationSeconds

	tests := []struct {
		name     string
		amount   math.Int
		duration int64
		wantErr  error
	}{
		{"valid", cfg.Staking.MinStakeAmount, minDur, nil},
		{"amount below minimum", cfg.Staking.MinStakeAmount.SubRaw(1), minDur, types.ErrStakeAmountTooSmall},
		{"nil amount", math.Int{}, minDur, types.ErrStakeAmountTooSmall},
		{"amount above maximum", cfg.Staking.MaxStakeAmount.AddRaw(1), minDur, types.ErrStakeAmountTooLarge},
		{"duration too short", cfg.Staking.MinStakeAmount, minDur - 1, types.ErrDurationTooShort},
		{"duration too long", cfg.Staking.MinStakeAmount, cfg.Staking.MaxDurationSeconds + 1, types.ErrDurationTooLong},
		{"amount checked before duration", math.ZeroInt(), 0, types.ErrStakeAmountTooSmall},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := types.ValidateStakeParameters(cfg, tc.amount, tc.duration)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
			require.Equal(t, types.KindInput, types.KindOf(err))
		})
	}
}

func TestValidateJobSubmission(t *testing.T) {
	cfg := testconfig.Default()
	client := newTestKey(t)
	def := &types.JobDefinition{Model: "llama-3-8b", Params: map[string]interface{}{"temperature": 0.7}}

	base := types.JobSubmission{
		Budget:         cfg.Jobs.MinBudget,
		TimeoutSeconds: cfg.Jobs.TimeoutSeconds,
		Definition:     def,
		Client:         client,
	}

	tests := []struct {
		name    string
		mutate  func(*types.JobSubmission)
		wantErr error
	}{
		{"valid", func(*types.JobSubmission) {}, nil},
		{"budget at maximum", func(s *types.JobSubmission) { s.Budget = cfg.Jobs.MaxBudget }, nil},
		{"budget too small", func(s *types.JobSubmission) { s.Budget = cfg.Jobs.MinBudget.SubRaw(1) }, types.ErrJobBudgetTooSmall},
		{"budget too large", func(s *types.JobSubmission) { s.Budget = cfg.Jobs.MaxBudget.AddRaw(1) }, types.ErrJobBudgetTooLarge},
		{"zero timeout", func(s *types.JobSubmission) { s.TimeoutSeconds = 0 }, types.ErrInvalidTimeout},
		{"timeout above ceiling", func(s *types.JobSubmission) { s.TimeoutSeconds = cfg.Jobs.TimeoutSeconds*10 + 1 }, types.ErrTimeoutTooLong},
		{"timeout at ceiling", func(s *types.JobSubmission) { s.TimeoutSeconds = cfg.Jobs.TimeoutSeconds * 10 }, nil},
		{"null definition", func(s *types.JobSubmission) { s.Definition = nil }, types.ErrNullJobDef},
		{"missing model", func(s *types.JobSubmission) { s.Definition = &types.JobDefinition{Params: map[string]interface{}{}} }, types.ErrMissingModel},
		{"missing params", func(s *types.JobSubmission) { s.Definition = &types.JobDefinition{Model: "m"} }, types.ErrMissingParams},
		{"model name too long", func(s *types.JobSubmission) {
			s.Definition = &types.JobDefinition{Model: strings.Repeat("m", types.MaxModelNameLength+1), Params: map[string]interface{}{}}
		}, types.ErrModelNameTooLong},
		{"invalid client", func(s *types.JobSubmission) { s.Client = "not-a-key" }, types.ErrInvalidPublicKey},
		{"budget checked first", func(s *types.JobSubmission) {
			s.Budget = math.ZeroInt()
			s.Definition = nil
			s.Client = ""
		}, types.ErrJobBudgetTooSmall},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sub := base
			tc.mutate(&sub)
			err := types.ValidateJobSubmission(cfg, sub)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestParseJobDefinition(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"valid", `{"model":"m","params":{"k":1}}`, nil},
		{"null", `null`, types.ErrNullJobDef},
		{"empty", ``, types.ErrNullJobDef},
		{"array", `[1,2]`, types.ErrInvalidJobDefType},
		{"string", `"model"`, types.ErrInvalidJobDefType},
		{"no model", `{"params":{}}`, types.ErrMissingModel},
		{"model not a string", `{"model":42,"params":{}}`, types.ErrMissingModel},
		{"no params", `{"model":"m"}`, types.ErrMissingParams},
		{"params not an object", `{"model":"m","params":[]}`, types.ErrMissingParams},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			def, err := types.ParseJobDefinition(json.RawMessage(tc.raw))
			if tc.wantErr == nil {
				require.NoError(t, err)
				require.Equal(t, "m", def.Model)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestParseJobResult(t *testing.T) {
	res, err := types.ParseJobResult(json.RawMessage(`{"output":"done"}`))
	require.NoError(t, err)
	require.Equal(t, "done", res.Output)

	_, err = types.ParseJobResult(json.RawMessage(`"done"`))
	require.ErrorIs(t, err, types.ErrInvalidResultType)

	_, err = types.ParseJobResult(json.RawMessage(`{"logs":"x"}`))
	require.ErrorIs(t, err, types.ErrMissingOutput)

	_, err = types.ParseJobResult(json.RawMessage(`{"output":""}`))
	require.ErrorIs(t, err, types.ErrMissingOutput)

	require.ErrorIs(t, types.ValidateJobResult(&types.JobResult{Output: strings.Repeat("x", types.MaxResultSizeBytes+1)}), types.ErrResultTooLarge)
}

func TestValidateReputationAndAvailability(t *testing.T) {
	cfg := testconfig.Default()

	require.ErrorIs(t, types.ValidateReputation(-1), types.ErrInvalidReputation)
	require.ErrorIs(t, types.ValidateReputation(types.MaxReputation+1), types.ErrReputationTooHigh)
	require.NoError(t, types.ValidateReputation(types.MaxReputation))
	require.ErrorIs(t, types.ValidateMinReputation(cfg, 50), types.ErrReputationTooLow)
	require.NoError(t, types.ValidateMinReputation(cfg, 100))

	tests := []struct {
		name    string
		current int64
		maxJobs int64
		wantErr error
	}{
		{"spare capacity", 4, 5, nil},
		{"negative jobs", -1, 5, types.ErrInvalidJobsCount},
		{"zero maximum", 0, 0, types.ErrInvalidMaxJobs},
		{"maximum above protocol", 0, cfg.Nodes.MaxConcurrentJobs + 1, types.ErrMaxJobsExceeded},
		{"at capacity", 5, 5, types.ErrNodeAtCapacity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := types.ValidateNodeAvailability(cfg, tc.current, tc.maxJobs)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateNodeRegistration(t *testing.T) {
	cfg := testconfig.Default()
	owner := newTestKey(t)

	require.NoError(t, types.ValidateNodeRegistration(cfg, owner, 4, "us-east"))
	require.ErrorIs(t, types.ValidateNodeRegistration(cfg, "", 4, "us-east"), types.ErrInvalidPublicKey)
	require.ErrorIs(t, types.ValidateNodeRegistration(cfg, owner, 0, "us-east"), types.ErrInvalidMaxJobs)
	require.ErrorIs(t, types.ValidateNodeRegistration(cfg, owner, cfg.NodeConcurrencyCap()+1, "us-east"), types.ErrInvalidMaxJobs)
	require.ErrorIs(t, types.ValidateNodeRegistration(cfg, owner, 4, ""), types.ErrInvalidRegion)
	require.ErrorIs(t, types.ValidateNodeRegistration(cfg, owner, 4, strings.Repeat("r", types.MaxRegionLength+1)), types.ErrInvalidRegion)
	// owner is checked before concurrency and region
	require.ErrorIs(t, types.ValidateNodeRegistration(cfg, "bad", 0, ""), types.ErrInvalidPublicKey)
}

func TestValidateContentHash(t *testing.T) {
	cfg := testconfig.Default()
	require.True(t, cfg.Features.IPFSIntegration)

	require.NoError(t, types.ValidateContentHash(cfg, validCID()))
	require.ErrorIs(t, types.ValidateContentHash(cfg, "Qm123"), types.ErrInvalidIPFSHash)
	require.ErrorIs(t, types.ValidateContentHash(cfg, "Xm"+strings.Repeat("a", 44)), types.ErrInvalidIPFSHash)

	noIPFS := testconfig.Rebuild(t, func(c *types.Config) { c.Features.IPFSIntegration = false })
	require.NoError(t, types.ValidateContentHash(noIPFS, "sha256:abcdef"))
	require.ErrorIs(t, types.ValidateContentHash(noIPFS, ""), types.ErrInvalidIPFSHash)
	require.ErrorIs(t, types.ValidateContentHash(noIPFS, strings.Repeat("h", types.MaxHashLength+1)), types.ErrInvalidIPFSHash)
}

func TestValidateEscrowFee(t *testing.T) {
	cfg := testconfig.Default()

	require.NoError(t, types.ValidateEscrowFee(cfg, math.LegacyOneDec()))
	require.ErrorIs(t, types.ValidateEscrowFee(cfg, math.LegacyNewDec(2)), types.ErrFeeMismatch)
	require.ErrorIs(t, types.ValidateEscrowFee(cfg, math.LegacyNewDec(101)), types.ErrInvalidEscrowFee)
	require.ErrorIs(t, types.ValidateEscrowFee(cfg, math.LegacyNewDec(-1)), types.ErrInvalidEscrowFee)
}

func TestValidateRecentTimestamp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	require.NoError(t, types.ValidateRecentTimestamp(now.Add(-300*time.Second), now))
	require.NoError(t, types.ValidateRecentTimestamp(now.Add(300*time.Second), now))
	require.ErrorIs(t, types.ValidateRecentTimestamp(now.Add(-301*time.Second), now), types.ErrTimestampOutOfRange)
	require.ErrorIs(t, types.ValidateRecentTimestamp(now.Add(301*time.Second), now), types.ErrTimestampOutOfRange)
}

func TestParseIntegerAndAmounts(t *testing.T) {
	v, err := types.ParseInteger("amount", " 42 ")
	require.NoError(t, err)
	require.Equal(t, int64(42), v.Int64())

	v, err = types.ParseInteger("amount", "-5")
	require.NoError(t, err)
	require.Equal(t, int64(-5), v.Int64())

	_, err = types.ParseInteger("amount", "12a")
	require.ErrorIs(t, err, types.ErrNotInteger)
	_, err = types.ParseInteger("amount", "1.5")
	require.ErrorIs(t, err, types.ErrNotInteger)

	require.ErrorIs(t, types.ValidatePositive("amount", math.ZeroInt()), types.ErrNotPositive)
	require.ErrorIs(t, types.ValidateNonNegative("amount", math.NewInt(-1)), types.ErrNegativeValue)
	require.NoError(t, types.ValidateNonNegative("amount", math.ZeroInt()))
	require.ErrorIs(t, types.ValidateBalance("treasury", math.NewInt(5), math.NewInt(6)), types.ErrInsufficientBalance)
	require.NoError(t, types.ValidateBalance("treasury", math.NewInt(6), math.NewInt(6)))
}

func TestValidateIdentifiers(t *testing.T) {
	require.NoError(t, types.ValidateJobID("job-1"))
	require.ErrorIs(t, types.ValidateJobID(""), types.ErrInvalidJobID)
	require.ErrorIs(t, types.ValidateJobID(strings.Repeat("j", types.MaxJobIDLength+1)), types.ErrInvalidJobID)
	require.ErrorIs(t, types.ValidateJobID("job 1"), types.ErrInvalidJobID)
	require.ErrorIs(t, types.ValidateNodeID("node/1"), types.ErrInvalidNodeID)
	require.ErrorIs(t, types.ValidateStakeID(""), types.ErrInvalidStakeID)
	require.ErrorIs(t, types.ValidateGPUSpecsHash(""), types.ErrInvalidGPUSpecs)
	require.NoError(t, types.ValidateLogsURL(""))
	require.ErrorIs(t, types.ValidateLogsURL(strings.Repeat("u", types.MaxLogsURLLength+1)), types.ErrInvalidLogsURL)
}

func TestValidateTransactionSize(t *testing.T) {
	cfg := testconfig.Default()
	require.NoError(t, types.ValidateTransactionSize(cfg, cfg.Security.MaxTransactionSize))
	require.ErrorIs(t, types.ValidateTransactionSize(cfg, cfg.Security.MaxTransactionSize+1), types.ErrTransactionTooLarge)
}

func TestErrorCodes(t *testing.T) {
	err := types.InputError(types.ErrNodeInCooldown, "node n1 is cooling down")
	require.Equal(t, "NODE_IN_COOLDOWN", types.CodeOf(err))
	require.Equal(t, types.KindInput, types.KindOf(err))
	require.NotEmpty(t, types.GetRecoverySuggestion(err))

	inv := types.InvariantError(types.ErrArithmeticOverflow, "overflow")
	require.Equal(t, "ARITHMETIC_OVERFLOW", types.CodeOf(inv))
	require.Equal(t, types.KindInvariant, types.KindOf(inv))

	require.Equal(t, "INTERNAL", types.CodeOf(json.Unmarshal([]byte("{"), &struct{}{})))
	require.Equal(t, "", types.CodeOf(nil))
}
