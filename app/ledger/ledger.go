// Package ledger hosts the hypernode keeper on a committed multistore and
// executes each signed operation as one atomic transaction.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	pruningtypes "cosmossdk.io/store/pruning/types"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hypernode-network/hypernode/app/telemetry"
	"github.com/hypernode-network/hypernode/x/hypernode/keeper"
	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

const chainID = "hypernode-ledger"

// EventPublisher fans committed transactions out to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, msgType string, resp *types.TxResponse) error
}

// Ledger serializes writes against a single CommitMultiStore. Every Execute
// either commits all of its writes or none of them.
type Ledger struct {
	mu sync.RWMutex

	db        dbm.DB
	cms       storetypes.CommitMultiStore
	storeKey  *storetypes.KVStoreKey
	keeper    *keeper.Keeper
	msgServer keeper.MsgServer
	logger    log.Logger

	clock     func() time.Time
	publisher EventPublisher
	pruning   *pruningtypes.PruningOptions
}

// Option customizes a Ledger at Open.
type Option func(*Ledger)

// WithClock overrides the block time source. Tests use it to step time.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) { l.clock = clock }
}

// WithPublisher attaches an event publisher for committed transactions.
func WithPublisher(p EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithPruning sets the version pruning strategy of the underlying store.
func WithPruning(strategy pruningtypes.PruningStrategy) Option {
	return func(l *Ledger) {
		opts := pruningtypes.NewPruningOptions(strategy)
		l.pruning = &opts
	}
}

// Open mounts the hypernode store on db and loads the latest committed
// version.
func Open(db dbm.DB, cfg types.Config, logger log.Logger, opts ...Option) (*Ledger, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if err := types.JoinConfigErrors(cfg.Validate()); err != nil {
		return nil, err
	}

	l := &Ledger{
		db:       db,
		storeKey: storetypes.NewKVStoreKey(types.StoreKey),
		logger:   logger.With("module", "ledger"),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.cms = store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	l.cms.MountStoreWithDB(l.storeKey, storetypes.StoreTypeIAVL, db)
	if l.pruning != nil {
		l.cms.SetPruning(*l.pruning)
	}
	if err := l.cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("failed to load ledger state: %w", err)
	}

	l.keeper = keeper.NewKeeper(l.storeKey, cfg, logger)
	l.msgServer = keeper.NewMsgServerImpl(*l.keeper)

	l.logger.Info("ledger opened", "version", l.cms.LastCommitID().Version)
	return l, nil
}

// OpenLevelDB opens (or creates) the on-disk database under dir.
func OpenLevelDB(dir string) (dbm.DB, error) {
	return dbm.NewDB("hypernode", dbm.GoLevelDBBackend, dir)
}

// Keeper exposes the keeper for read paths that need it directly.
func (l *Ledger) Keeper() *keeper.Keeper {
	return l.keeper
}

// Version returns the last committed version.
func (l *Ledger) Version() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cms.LastCommitID().Version
}

// Execute runs msg as one transaction. Writes land in a cache context that
// is flushed and committed only when the handler succeeds; on error the
// store is left exactly as it was.
func (l *Ledger) Execute(ctx context.Context, msg types.Msg) (*types.TxResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx, span := telemetry.StartTxSpan(ctx, msg.Type(), l.cms.LastCommitID().Version)
	defer span.End()

	sdkCtx := l.newContext(ctx, l.cms)
	cacheCtx, write := sdkCtx.CacheContext()
	cacheCtx = cacheCtx.WithEventManager(sdk.NewEventManager())

	resp, err := l.msgServer.Handle(cacheCtx, msg)
	if err != nil {
		l.logger.Debug("transaction rejected", "type", msg.Type(), "code", types.CodeOf(err), "error", err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	events := cacheCtx.EventManager().Events()
	write()
	commitID := l.cms.Commit()

	resp.Events = flattenEvents(events)
	telemetry.AddSpanAttributes(span, attribute.Int64("ledger.committed_version", commitID.Version))
	l.logger.Debug("transaction committed", "type", msg.Type(), "version", commitID.Version)

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, msg.Type(), resp); err != nil {
			l.logger.Error("failed to publish transaction events", "type", msg.Type(), "error", err)
		}
	}
	return resp, nil
}

// Query runs fn against a read-only view of the latest state. Writes made by
// fn are discarded.
func (l *Ledger) Query(ctx context.Context, fn func(ctx sdk.Context, k *keeper.Keeper) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return fn(l.newContext(ctx, l.cms.CacheMultiStore()), l.keeper)
}

// CheckInvariants runs every module invariant on the latest state.
func (l *Ledger) CheckInvariants(ctx context.Context) (string, bool) {
	var (
		msg    string
		broken bool
	)
	_ = l.Query(ctx, func(sdkCtx sdk.Context, k *keeper.Keeper) error {
		msg, broken = keeper.AllInvariants(*k)(sdkCtx)
		return nil
	})
	return msg, broken
}

// Close releases the underlying database.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Close()
}

func (l *Ledger) newContext(ctx context.Context, ms storetypes.MultiStore) sdk.Context {
	header := cmtproto.Header{
		ChainID: chainID,
		Height:  l.cms.LastCommitID().Version + 1,
		Time:    l.clock().UTC(),
	}
	return sdk.NewContext(ms, header, false, l.logger).
		WithContext(ctx).
		WithEventManager(sdk.NewEventManager())
}

func flattenEvents(events sdk.Events) []types.Event {
	out := make([]types.Event, 0, len(events))
	for _, ev := range events {
		attrs := make(map[string]string, len(ev.Attributes))
		for _, attr := range ev.Attributes {
			attrs[attr.Key] = attr.Value
		}
		out = append(out, types.Event{Type: ev.Type, Attributes: attrs})
	}
	return out
}
