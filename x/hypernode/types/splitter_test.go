package types_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

func TestSharesValidate(t *testing.T) {
	require.NoError(t, types.DefaultShares().Validate())
	require.NoError(t, types.Shares{Operator: 100}.Validate())
	require.ErrorIs(t, types.Shares{Operator: 80, Treasury: 10, Incentive: 5, Orchestrator: 4}.Validate(), types.ErrInvalidSharePercentages)
	require.ErrorIs(t, types.Shares{Operator: 255, Treasury: 255, Incentive: 255, Orchestrator: 91}.Validate(), types.ErrInvalidSharePercentages)
	require.Equal(t, "InvalidSharePercentages", types.CodeOf(types.Shares{}.Validate()))
}

func TestSharesAcceptedIffSumIsHundred(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := types.Shares{
			Operator:     rapid.Uint8().Draw(t, "operator"),
			Treasury:     rapid.Uint8().Draw(t, "treasury"),
			Incentive:    rapid.Uint8().Draw(t, "incentive"),
			Orchestrator: rapid.Uint8().Draw(t, "orchestrator"),
		}
		sum := int(s.Operator) + int(s.Treasury) + int(s.Incentive) + int(s.Orchestrator)
		err := s.Validate()
		if (sum == 100) != (err == nil) {
			t.Fatalf("shares %+v (sum %d) validated to %v", s, sum, err)
		}
	})
}

func TestSharesFromPercentages(t *testing.T) {
	tests := []struct {
		name    string
		pcts    [4]int64
		want    types.Shares
		wantErr bool
	}{
		{name: "default", pcts: [4]int64{80, 10, 5, 5}, want: types.DefaultShares()},
		{name: "all to operator", pcts: [4]int64{100, 0, 0, 0}, want: types.Shares{Operator: 100}},
		{name: "negative offset by surplus", pcts: [4]int64{-10, 100, 5, 5}, wantErr: true},
		{name: "wraps to hundred as uint8", pcts: [4]int64{300, 56, 0, 0}, wantErr: true},
		{name: "above hundred", pcts: [4]int64{150, -25, -25, 0}, wantErr: true},
		{name: "short of hundred", pcts: [4]int64{80, 10, 5, 4}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := types.SharesFromPercentages(tc.pcts[0], tc.pcts[1], tc.pcts[2], tc.pcts[3])
			if tc.wantErr {
				require.ErrorIs(t, err, types.ErrInvalidSharePercentages)
				require.Equal(t, "InvalidSharePercentages", types.CodeOf(err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSharesFromPercentagesRejectsOutOfRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pcts := [4]int64{
			rapid.Int64Range(-1000, 1000).Draw(t, "operator"),
			rapid.Int64Range(-1000, 1000).Draw(t, "treasury"),
			rapid.Int64Range(-1000, 1000).Draw(t, "incentive"),
			rapid.Int64Range(-1000, 1000).Draw(t, "orchestrator"),
		}
		inRange := true
		var sum int64
		for _, p := range pcts {
			inRange = inRange && p >= 0 && p <= 100
			sum += p
		}
		_, err := types.SharesFromPercentages(pcts[0], pcts[1], pcts[2], pcts[3])
		if (inRange && sum == 100) != (err == nil) {
			t.Fatalf("percentages %v validated to %v", pcts, err)
		}
	})
}

func TestComputeDistribution(t *testing.T) {
	d := types.ComputeDistribution(math.NewInt(1_000_000), types.DefaultShares())
	require.Equal(t, math.NewInt(800_000), d.Operator)
	require.Equal(t, math.NewInt(100_000), d.Treasury)
	require.Equal(t, math.NewInt(50_000), d.Incentive)
	require.Equal(t, math.NewInt(50_000), d.Orchestrator)
	require.True(t, d.Reflection.IsZero())

	// Rounding dust goes to the orchestrator.
	d = types.ComputeDistribution(math.NewInt(99), types.DefaultShares())
	require.Equal(t, math.NewInt(79), d.Operator)
	require.Equal(t, math.NewInt(9), d.Treasury)
	require.Equal(t, math.NewInt(4), d.Incentive)
	require.Equal(t, math.NewInt(7), d.Orchestrator)
	require.Equal(t, math.NewInt(99), d.Total())
}

func TestComputeDistributionSumsToPrice(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		price := math.NewInt(rapid.Int64Range(0, 1_000_000_000_000_000).Draw(t, "price"))
		op := rapid.IntRange(0, 100).Draw(t, "operator")
		tr := rapid.IntRange(0, 100-op).Draw(t, "treasury")
		in := rapid.IntRange(0, 100-op-tr).Draw(t, "incentive")
		shares := types.Shares{
			Operator:     uint8(op),
			Treasury:     uint8(tr),
			Incentive:    uint8(in),
			Orchestrator: uint8(100 - op - tr - in),
		}

		d := types.ComputeDistribution(price, shares)

		// Property: parts always sum to the price
		if !d.Total().Equal(price) {
			t.Fatalf("distribution %s does not sum to price %s", d.Total(), price)
		}
		// Property: no part is negative, and the orchestrator gets at least its floor
		for name, part := range map[string]math.Int{"operator": d.Operator, "treasury": d.Treasury, "incentive": d.Incentive, "orchestrator": d.Orchestrator} {
			if part.IsNegative() {
				t.Fatalf("%s part %s is negative", name, part)
			}
		}
		floor := price.MulRaw(int64(shares.Orchestrator)).QuoRaw(100)
		if d.Orchestrator.LT(floor) {
			t.Fatalf("orchestrator %s below its floor %s", d.Orchestrator, floor)
		}
	})
}
