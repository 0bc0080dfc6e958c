package keeper

import (
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	testconfig "github.com/hypernode-network/hypernode/testutil/config"
	"github.com/hypernode-network/hypernode/x/hypernode/keeper"
	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// GenesisTime is the block time of a fresh test context.
var GenesisTime = time.Unix(1_700_000_000, 0).UTC()

// HypernodeKeeper creates a test keeper with the default test config.
func HypernodeKeeper(t testing.TB) (*keeper.Keeper, sdk.Context) {
	return HypernodeKeeperWithConfig(t, testconfig.Default())
}

// HypernodeKeeperWithConfig creates a test keeper backed by an in-memory
// multistore. Advance time with ctx.WithBlockTime.
func HypernodeKeeperWithConfig(t testing.TB, cfg types.Config) (*keeper.Keeper, sdk.Context) {
	storeKey := storetypes.NewKVStoreKey(types.StoreKey)

	db := dbm.NewMemDB()
	stateStore := store.NewCommitMultiStore(db, log.NewNopLogger(), metrics.NewNoOpMetrics())
	stateStore.MountStoreWithDB(storeKey, storetypes.StoreTypeIAVL, db)
	require.NoError(t, stateStore.LoadLatestVersion())

	k := keeper.NewKeeper(storeKey, cfg, log.NewNopLogger())

	ctx := sdk.NewContext(stateStore, cmtproto.Header{
		ChainID: "hypernode-test",
		Height:  1,
		Time:    GenesisTime,
	}, false, log.NewNopLogger())

	return k, ctx
}
