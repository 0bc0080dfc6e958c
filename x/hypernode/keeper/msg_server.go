package keeper

import (
	"context"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

const tracerName = "hypernode/x/hypernode"

// MsgServer executes signed ledger operations.
type MsgServer interface {
	Handle(ctx context.Context, msg types.Msg) (*types.TxResponse, error)
}

var _ MsgServer = msgServer{}

type msgServer struct {
	Keeper
}

// NewMsgServerImpl returns an implementation of the MsgServer interface
func NewMsgServerImpl(keeper Keeper) MsgServer {
	return &msgServer{Keeper: keeper}
}

// Handle validates msg statelessly and routes it to its handler inside a
// tracing span. The caller owns atomicity: a returned error means every
// write made here must be discarded.
func (ms msgServer) Handle(goCtx context.Context, msg types.Msg) (resp *types.TxResponse, err error) {
	sdkCtx := sdk.UnwrapSDKContext(goCtx)
	spanCtx, span := otel.Tracer(tracerName).Start(sdkCtx.Context(), "hypernode."+msg.Type(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("msg.type", msg.Type()),
			attribute.String("msg.signer", msg.GetSigner().String()),
			attribute.Int64("block.time", sdkCtx.BlockTime().Unix()),
		),
	)
	ctx := sdkCtx.WithContext(spanCtx)
	start := time.Now()

	defer func() {
		code := "OK"
		if err != nil {
			code = types.CodeOf(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, code)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		ms.metrics.TxProcessed.WithLabelValues(msg.Type(), code).Inc()
		ms.metrics.TxDuration.WithLabelValues(msg.Type()).Observe(time.Since(start).Seconds())
	}()

	if err := msg.ValidateBasic(); err != nil {
		return nil, err
	}

	switch m := msg.(type) {
	case *types.MsgCreateJob:
		return ms.CreateJob(ctx, m)
	case *types.MsgAssignJob:
		return ms.AssignJob(ctx, m)
	case *types.MsgSubmitResult:
		return ms.SubmitResult(ctx, m)
	case *types.MsgCancelJob:
		return ms.CancelJob(ctx, m)
	case *types.MsgExpireJob:
		return ms.ExpireJob(ctx, m)
	case *types.MsgRegisterNode:
		return ms.RegisterNode(ctx, m)
	case *types.MsgUpdateNodeStatus:
		return ms.UpdateNodeStatus(ctx, m)
	case *types.MsgUpdateHeartbeat:
		return ms.UpdateHeartbeat(ctx, m)
	case *types.MsgSlashNode:
		return ms.SlashNode(ctx, m)
	case *types.MsgDeregisterNode:
		return ms.DeregisterNode(ctx, m)
	case *types.MsgInitializeSplitter:
		return ms.InitializeSplitter(ctx, m)
	case *types.MsgUpdateSplitter:
		return ms.UpdateSplitter(ctx, m)
	case *types.MsgWithdrawTreasury:
		return ms.WithdrawTreasury(ctx, m)
	case *types.MsgStake:
		return ms.Stake(ctx, m)
	case *types.MsgUnstake:
		return ms.Unstake(ctx, m)
	case *types.MsgAccrueStake:
		return ms.AccrueStake(ctx, m)
	case *types.MsgClaimRewards:
		return ms.ClaimRewards(ctx, m)
	default:
		return nil, types.InputError(types.ErrMalformedRequest, "unrecognized %s message type: %T", types.ModuleName, msg)
	}
}

// CreateJob handles job creation
func (ms msgServer) CreateJob(ctx context.Context, msg *types.MsgCreateJob) (*types.TxResponse, error) {
	job, err := ms.Keeper.CreateJob(ctx, msg)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: job.Address(), Record: job}, nil
}

// AssignJob handles job assignment by the orchestrator
func (ms msgServer) AssignJob(ctx context.Context, msg *types.MsgAssignJob) (*types.TxResponse, error) {
	job, err := ms.Keeper.AssignJob(ctx, msg.Authority, msg.Job, msg.NodeOwner, msg.NodeID)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: msg.Job, Record: job}, nil
}

// SubmitResult handles result submission and settlement
func (ms msgServer) SubmitResult(ctx context.Context, msg *types.MsgSubmitResult) (*types.TxResponse, error) {
	job, err := ms.Keeper.SubmitResult(ctx, msg.Operator, msg.Job, msg.ResultHash, msg.LogsURL, msg.Result)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: msg.Job, Record: job}, nil
}

// CancelJob handles job cancellation by the client
func (ms msgServer) CancelJob(ctx context.Context, msg *types.MsgCancelJob) (*types.TxResponse, error) {
	job, err := ms.Keeper.CancelJob(ctx, msg.Client, msg.Job)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: msg.Job, Record: job}, nil
}

// ExpireJob handles an explicit timeout evaluation
func (ms msgServer) ExpireJob(ctx context.Context, msg *types.MsgExpireJob) (*types.TxResponse, error) {
	job, err := ms.Keeper.ExpireJob(ctx, msg.Job)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: msg.Job, Record: job}, nil
}

// RegisterNode handles node registration
func (ms msgServer) RegisterNode(ctx context.Context, msg *types.MsgRegisterNode) (*types.TxResponse, error) {
	node, err := ms.Keeper.RegisterNode(ctx, msg)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: node.Address(), Record: node}, nil
}

// UpdateNodeStatus handles owner status changes
func (ms msgServer) UpdateNodeStatus(ctx context.Context, msg *types.MsgUpdateNodeStatus) (*types.TxResponse, error) {
	node, err := ms.Keeper.UpdateNodeStatus(ctx, msg.Owner, msg.NodeID, msg.Status)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: node.Address(), Record: node}, nil
}

// UpdateHeartbeat handles node liveness updates
func (ms msgServer) UpdateHeartbeat(ctx context.Context, msg *types.MsgUpdateHeartbeat) (*types.TxResponse, error) {
	node, err := ms.Keeper.UpdateHeartbeat(ctx, msg.Owner, msg.NodeID)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: node.Address(), Record: node}, nil
}

// SlashNode handles protocol slashing
func (ms msgServer) SlashNode(ctx context.Context, msg *types.MsgSlashNode) (*types.TxResponse, error) {
	node, err := ms.Keeper.SlashNode(ctx, msg.Authority, msg.Node, msg.Reason)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: msg.Node, Record: node}, nil
}

// DeregisterNode handles node removal
func (ms msgServer) DeregisterNode(ctx context.Context, msg *types.MsgDeregisterNode) (*types.TxResponse, error) {
	node, err := ms.Keeper.DeregisterNode(ctx, msg.Owner, msg.NodeID)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: node.Address(), Record: node}, nil
}

// InitializeSplitter handles splitter creation
func (ms msgServer) InitializeSplitter(ctx context.Context, msg *types.MsgInitializeSplitter) (*types.TxResponse, error) {
	cfg, err := ms.Keeper.InitializeSplitter(ctx, msg.Authority, msg.Shares)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: types.SplitterConfigAddress(), Record: cfg}, nil
}

// UpdateSplitter handles share updates
func (ms msgServer) UpdateSplitter(ctx context.Context, msg *types.MsgUpdateSplitter) (*types.TxResponse, error) {
	cfg, err := ms.Keeper.UpdateSplitter(ctx, msg.Authority, msg.Shares)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: types.SplitterConfigAddress(), Record: cfg}, nil
}

// WithdrawTreasury handles treasury withdrawals
func (ms msgServer) WithdrawTreasury(ctx context.Context, msg *types.MsgWithdrawTreasury) (*types.TxResponse, error) {
	cfg, err := ms.Keeper.WithdrawTreasury(ctx, msg.Authority, msg.Amount)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: types.SplitterConfigAddress(), Record: cfg}, nil
}

// Stake handles opening a stake position
func (ms msgServer) Stake(ctx context.Context, msg *types.MsgStake) (*types.TxResponse, error) {
	pos, err := ms.Keeper.Stake(ctx, msg)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: pos.Address(), Record: pos}, nil
}

// Unstake handles withdrawing an unlocked position
func (ms msgServer) Unstake(ctx context.Context, msg *types.MsgUnstake) (*types.TxResponse, error) {
	pos, payout, err := ms.Keeper.Unstake(ctx, msg.Owner, msg.StakeID)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: pos.Address(), Record: types.RewardPayout{Stake: pos, Payout: payout}}, nil
}

// AccrueStake handles periodic accrual
func (ms msgServer) AccrueStake(ctx context.Context, msg *types.MsgAccrueStake) (*types.TxResponse, error) {
	pos, err := ms.Keeper.AccrueStake(ctx, msg.Stake)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: msg.Stake, Record: pos}, nil
}

// ClaimRewards handles reward claims
func (ms msgServer) ClaimRewards(ctx context.Context, msg *types.MsgClaimRewards) (*types.TxResponse, error) {
	pos, payout, err := ms.Keeper.ClaimRewards(ctx, msg.Owner, msg.StakeID)
	if err != nil {
		return nil, err
	}
	return &types.TxResponse{Address: pos.Address(), Record: types.RewardPayout{Stake: pos, Payout: payout}}, nil
}
