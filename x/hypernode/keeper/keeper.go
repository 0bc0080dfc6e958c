package keeper

import (
	"context"
	"encoding/json"
	"fmt"

	"cosmossdk.io/log"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// Keeper of the hypernode store
type Keeper struct {
	storeKey storetypes.StoreKey
	config   types.Config
	logger   log.Logger
	metrics  *HypernodeMetrics
}

type kvStoreProvider interface {
	KVStore(key storetypes.StoreKey) storetypes.KVStore
}

// NewKeeper creates a new hypernode Keeper. The config is copied and never
// mutated afterwards; inconsistent bounds are a startup error and panic.
func NewKeeper(key storetypes.StoreKey, cfg types.Config, logger log.Logger) *Keeper {
	if err := cfg.ValidateBounds(); err != nil {
		panic(fmt.Sprintf("invalid hypernode config: %v", err))
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Keeper{
		storeKey: key,
		config:   cfg,
		logger:   logger,
		metrics:  NewHypernodeMetrics(),
	}
}

// Config returns a copy of the protocol configuration.
func (k Keeper) Config() types.Config {
	return k.config
}

// Logger returns a module-scoped logger.
func (k Keeper) Logger() log.Logger {
	return k.logger.With("module", "x/"+types.ModuleName)
}

// getStore returns the KVStore for the hypernode module
func (k Keeper) getStore(ctx context.Context) storetypes.KVStore {
	if provider, ok := ctx.(kvStoreProvider); ok {
		return provider.KVStore(k.storeKey)
	}

	unwrapped := sdk.UnwrapSDKContext(ctx)
	return unwrapped.KVStore(k.storeKey)
}

// blockTime returns the execution timestamp in unix seconds.
func blockTime(ctx context.Context) int64 {
	return sdk.UnwrapSDKContext(ctx).BlockTime().Unix()
}

func emit(ctx context.Context, event sdk.Event) {
	sdk.UnwrapSDKContext(ctx).EventManager().EmitEvent(event)
}

// getRecord decodes the JSON record at key into v.
func (k Keeper) getRecord(ctx context.Context, key []byte, v interface{}) (bool, error) {
	bz := k.getStore(ctx).Get(key)
	if bz == nil {
		return false, nil
	}
	if err := json.Unmarshal(bz, v); err != nil {
		return false, types.InvariantError(types.ErrStoreCorrupted, "decode record %X: %v", key, err)
	}
	return true, nil
}

// setRecord encodes v as JSON at key.
func (k Keeper) setRecord(ctx context.Context, key []byte, v interface{}) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return types.InvariantError(types.ErrStoreCorrupted, "encode record %X: %v", key, err)
	}
	k.getStore(ctx).Set(key, bz)
	return nil
}

// iterateRecords decodes every record under prefix in key order. Returning
// true from cb stops iteration.
func iterateRecords[T any](k Keeper, ctx context.Context, prefix []byte, cb func(T) (bool, error)) error {
	iterator := storetypes.KVStorePrefixIterator(k.getStore(ctx), prefix)
	defer iterator.Close()

	for ; iterator.Valid(); iterator.Next() {
		var record T
		if err := json.Unmarshal(iterator.Value(), &record); err != nil {
			return types.InvariantError(types.ErrStoreCorrupted, "decode record %X: %v", iterator.Key(), err)
		}
		stop, err := cb(record)
		if err != nil {
			return err
		}
		if stop {
			break
		}
	}
	return nil
}

// requireAuthority checks signer against the configured protocol authority.
// Without one, any signer may perform protocol actions. A configured value
// that does not parse rejects every signer.
func (k Keeper) requireAuthority(signer types.PublicKey) error {
	if k.config.Authority == "" {
		return nil
	}
	authority, ok := k.config.AuthorityKey()
	if !ok {
		return types.InputError(types.ErrUnauthorized, "configured protocol authority %q is not a valid public key", k.config.Authority)
	}
	if signer != authority {
		return types.InputError(types.ErrUnauthorized, "signer %s is not the protocol authority", signer)
	}
	return nil
}
