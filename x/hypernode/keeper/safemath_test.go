package keeper_test

import (
	"math/big"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/hypernode-network/hypernode/x/hypernode/keeper"
	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

func TestSafeMath(t *testing.T) {
	limit := new(big.Int).Exp(big.NewInt(2), big.NewInt(256), nil)
	nearLimit := math.NewIntFromBigInt(limit.Sub(limit, big.NewInt(1)))

	sum, err := keeper.SafeAdd(math.NewInt(2), math.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, int64(5), sum.Int64())

	_, err = keeper.SafeAdd(nearLimit, math.OneInt())
	require.ErrorIs(t, err, types.ErrArithmeticOverflow)

	_, err = keeper.SafeSub(math.NewInt(1), math.NewInt(2))
	require.ErrorIs(t, err, types.ErrArithmeticOverflow)

	product, err := keeper.SafeMul(math.NewInt(0), nearLimit)
	require.NoError(t, err)
	require.True(t, product.IsZero())

	_, err = keeper.SafeMul(nearLimit, math.NewInt(2))
	require.ErrorIs(t, err, types.ErrArithmeticOverflow)

	q, err := keeper.SafeMulDiv(math.NewInt(7), math.NewInt(3), math.NewInt(2))
	require.NoError(t, err)
	require.Equal(t, int64(10), q.Int64())

	_, err = keeper.SafeMulDiv(math.NewInt(7), math.NewInt(3), math.ZeroInt())
	require.ErrorIs(t, err, types.ErrArithmeticOverflow)
	require.Equal(t, types.KindInvariant, types.KindOf(err))

	_, err = keeper.SafeAddUint64(^uint64(0), 1)
	require.ErrorIs(t, err, types.ErrArithmeticOverflow)

	_, err = keeper.SafeSubUint64(0, 1)
	require.ErrorIs(t, err, types.ErrArithmeticOverflow)
}
