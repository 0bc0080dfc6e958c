package keeper

import (
	"context"
	"encoding/binary"
	"fmt"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// SlashReasonJobTimeout is recorded when auto-slashing penalizes a node whose
// assigned job timed out.
const SlashReasonJobTimeout = "job_timeout"

// RegisterNode registers a new compute node for its owner. The node starts
// Online with the initial reputation and a heartbeat at the current time.
func (k Keeper) RegisterNode(ctx context.Context, msg *types.MsgRegisterNode) (types.Node, error) {
	if err := types.ValidateNodeRegistration(k.config, msg.Owner.String(), msg.MaxConcurrentJobs, msg.Location); err != nil {
		return types.Node{}, err
	}
	if err := types.ValidateNodeID(msg.NodeID); err != nil {
		return types.Node{}, err
	}
	if err := types.ValidateGPUSpecsHash(msg.GPUSpecsHash); err != nil {
		return types.Node{}, err
	}

	addr := types.NodeAddress(msg.Owner, msg.NodeID)
	if _, found, err := k.GetNode(ctx, addr); err != nil {
		return types.Node{}, err
	} else if found {
		return types.Node{}, types.InputError(types.ErrNodeAlreadyRegistered, "node %s already registered at %s", msg.NodeID, addr)
	}

	now := blockTime(ctx)
	node := types.Node{
		NodeID:            msg.NodeID,
		Owner:             msg.Owner,
		GPUSpecsHash:      msg.GPUSpecsHash,
		Location:          msg.Location,
		Status:            types.NodeStatusOnline,
		ReputationScore:   types.InitialReputation,
		LastHeartbeat:     now,
		MaxConcurrentJobs: msg.MaxConcurrentJobs,
		RegisteredAt:      now,
		TotalEarned:       math.ZeroInt(),
	}
	if err := k.SetNode(ctx, node); err != nil {
		return types.Node{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeNodeRegistered,
		sdk.NewAttribute(types.AttributeKeyNode, addr.String()),
		sdk.NewAttribute(types.AttributeKeyNodeID, node.NodeID),
		sdk.NewAttribute(types.AttributeKeyOwner, node.Owner.String()),
		sdk.NewAttribute(types.AttributeKeyLocation, node.Location),
	))
	k.metrics.NodesRegistered.Inc()
	k.Logger().Info("node registered", "node", addr.String(), "node_id", node.NodeID, "location", node.Location)

	return node, nil
}

// UpdateNodeStatus changes a node's status on behalf of its owner. Owners
// cannot move a node into Slashed, nor out of it before the cooldown ends.
func (k Keeper) UpdateNodeStatus(ctx context.Context, owner types.PublicKey, nodeID string, status types.NodeStatus) (types.Node, error) {
	node, err := k.mustGetNode(ctx, types.NodeAddress(owner, nodeID))
	if err != nil {
		return types.Node{}, err
	}
	if node.Owner != owner {
		return types.Node{}, types.InputError(types.ErrUnauthorized, "signer does not own node %s", nodeID)
	}
	if !status.OwnerSettable() {
		return types.Node{}, types.InputError(types.ErrUnauthorizedStatus, "status %s can only be set by the protocol", status)
	}
	if node.Status == status {
		return types.Node{}, types.InputError(types.ErrStatusUnchanged, "node %s is already %s", nodeID, status)
	}
	now := blockTime(ctx)
	if node.Status == types.NodeStatusSlashed && node.InCooldown(now) {
		return types.Node{}, types.InputError(types.ErrNodeInCooldown, "node %s is in slashing cooldown until %d", nodeID, node.SlashedUntil)
	}

	previous := node.Status
	node.Status = status
	if err := k.SetNode(ctx, node); err != nil {
		return types.Node{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeNodeStatusUpdated,
		sdk.NewAttribute(types.AttributeKeyNode, node.Address().String()),
		sdk.NewAttribute(types.AttributeKeyStatus, status.String()),
	))
	k.Logger().Info("node status updated", "node_id", nodeID, "from", previous.String(), "to", status.String())

	return node, nil
}

// UpdateHeartbeat records node liveness at the current block time.
func (k Keeper) UpdateHeartbeat(ctx context.Context, owner types.PublicKey, nodeID string) (types.Node, error) {
	node, err := k.mustGetNode(ctx, types.NodeAddress(owner, nodeID))
	if err != nil {
		return types.Node{}, err
	}
	if node.Owner != owner {
		return types.Node{}, types.InputError(types.ErrUnauthorized, "signer does not own node %s", nodeID)
	}

	now := blockTime(ctx)
	if now <= node.LastHeartbeat {
		return types.Node{}, types.InputError(types.ErrHeartbeatNotIncreasing,
			"heartbeat %d must be after last heartbeat %d", now, node.LastHeartbeat)
	}
	if minGap := k.config.Nodes.HeartbeatMinIntervalSeconds; minGap > 0 && now-node.LastHeartbeat < minGap {
		return types.Node{}, types.InputError(types.ErrHeartbeatTooFrequent,
			"heartbeat %ds after the last one, minimum interval is %ds", now-node.LastHeartbeat, minGap)
	}

	node.LastHeartbeat = now
	if node.Status == types.NodeStatusOffline {
		node.Status = types.NodeStatusOnline
	}
	if err := k.SetNode(ctx, node); err != nil {
		return types.Node{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeNodeHeartbeat,
		sdk.NewAttribute(types.AttributeKeyNode, node.Address().String()),
		sdk.NewAttribute(types.AttributeKeyTimestamp, fmt.Sprintf("%d", now)),
	))
	k.metrics.Heartbeats.Inc()

	return node, nil
}

// SlashNode applies the protocol slashing penalty to the node at addr.
func (k Keeper) SlashNode(ctx context.Context, authority types.PublicKey, addr types.Address, reason string) (types.Node, error) {
	if err := k.requireAuthority(authority); err != nil {
		return types.Node{}, err
	}
	if reason == "" || len(reason) > types.MaxSlashReasonLength {
		return types.Node{}, types.InputError(types.ErrInvalidSlashReason, "reason must be 1-%d characters", types.MaxSlashReasonLength)
	}
	node, err := k.mustGetNode(ctx, addr)
	if err != nil {
		return types.Node{}, err
	}
	if _, err := k.slashNode(ctx, &node, reason); err != nil {
		return types.Node{}, err
	}
	return node, nil
}

// slashNode reduces reputation by the slashing percentage, moves the node to
// Slashed for the cooldown period and records the event.
func (k Keeper) slashNode(ctx context.Context, node *types.Node, reason string) (types.SlashRecord, error) {
	now := blockTime(ctx)
	before := node.ReputationScore
	penalty := k.config.Nodes.SlashingPercentage.MulInt64(before).QuoInt64(100).TruncateInt64()

	node.ReputationScore = before - penalty
	node.Status = types.NodeStatusSlashed
	node.SlashedUntil = now + k.config.Nodes.SlashingCooldownSeconds
	slashCount, err := SafeAddUint64(node.SlashCount, 1)
	if err != nil {
		return types.SlashRecord{}, err
	}
	node.SlashCount = slashCount
	if err := k.SetNode(ctx, *node); err != nil {
		return types.SlashRecord{}, err
	}

	id, err := k.getNextSlashID(ctx)
	if err != nil {
		return types.SlashRecord{}, err
	}
	record := types.SlashRecord{
		ID:               id,
		Node:             node.Address(),
		NodeID:           node.NodeID,
		Owner:            node.Owner,
		Reason:           reason,
		ReputationBefore: before,
		ReputationAfter:  node.ReputationScore,
		SlashedAt:        now,
		SlashedUntil:     node.SlashedUntil,
	}
	if err := k.setRecord(ctx, types.SlashRecordKey(id), record); err != nil {
		return types.SlashRecord{}, err
	}

	emit(ctx, sdk.NewEvent(
		types.EventTypeNodeSlashed,
		sdk.NewAttribute(types.AttributeKeyNode, record.Node.String()),
		sdk.NewAttribute(types.AttributeKeyReason, reason),
		sdk.NewAttribute(types.AttributeKeyReputation, fmt.Sprintf("%d", node.ReputationScore)),
		sdk.NewAttribute(types.AttributeKeySlashedUntil, fmt.Sprintf("%d", node.SlashedUntil)),
	))
	source := "authority"
	if reason == SlashReasonJobTimeout {
		source = SlashReasonJobTimeout
	}
	k.metrics.NodeSlashing.WithLabelValues(source).Inc()
	k.Logger().Info("node slashed",
		"node_id", node.NodeID,
		"reason", reason,
		"reputation_before", before,
		"reputation_after", node.ReputationScore,
	)

	return record, nil
}

// DeregisterNode removes an idle node. Its slash records are kept.
func (k Keeper) DeregisterNode(ctx context.Context, owner types.PublicKey, nodeID string) (types.Node, error) {
	addr := types.NodeAddress(owner, nodeID)
	node, err := k.mustGetNode(ctx, addr)
	if err != nil {
		return types.Node{}, err
	}
	if node.Owner != owner {
		return types.Node{}, types.InputError(types.ErrUnauthorized, "signer does not own node %s", nodeID)
	}
	if node.CurrentJobs != 0 {
		return types.Node{}, types.InputError(types.ErrNodeHasActiveJobs, "node %s has %d active jobs", nodeID, node.CurrentJobs)
	}

	k.getStore(ctx).Delete(types.NodeKey(addr))

	emit(ctx, sdk.NewEvent(
		types.EventTypeNodeDeregistered,
		sdk.NewAttribute(types.AttributeKeyNode, addr.String()),
		sdk.NewAttribute(types.AttributeKeyNodeID, nodeID),
	))
	k.metrics.NodesDeregistered.Inc()
	k.Logger().Info("node deregistered", "node_id", nodeID)

	return node, nil
}

// FindEligibleNodes returns the nodes that satisfy the assignment predicate
// at the current block time, in address order.
func (k Keeper) FindEligibleNodes(ctx context.Context, filter types.EligibilityFilter) ([]types.Node, error) {
	now := blockTime(ctx)
	excluded := make(map[types.Address]struct{}, len(filter.Exclude))
	for _, addr := range filter.Exclude {
		excluded[addr] = struct{}{}
	}

	var nodes []types.Node
	err := k.IterateNodes(ctx, func(node types.Node) (bool, error) {
		if filter.Location != "" && node.Location != filter.Location {
			return false, nil
		}
		if _, skip := excluded[node.Address()]; skip {
			return false, nil
		}
		if node.CheckEligible(k.config, now) != nil {
			return false, nil
		}
		nodes = append(nodes, node)
		return filter.Limit > 0 && len(nodes) >= filter.Limit, nil
	})
	return nodes, err
}

// GetNode returns the node stored at addr.
func (k Keeper) GetNode(ctx context.Context, addr types.Address) (types.Node, bool, error) {
	var node types.Node
	found, err := k.getRecord(ctx, types.NodeKey(addr), &node)
	return node, found, err
}

func (k Keeper) mustGetNode(ctx context.Context, addr types.Address) (types.Node, error) {
	node, found, err := k.GetNode(ctx, addr)
	if err != nil {
		return types.Node{}, err
	}
	if !found {
		return types.Node{}, types.InputError(types.ErrNodeNotFound, "node %s not found", addr)
	}
	return node, nil
}

// SetNode stores a node at its derived address.
func (k Keeper) SetNode(ctx context.Context, node types.Node) error {
	return k.setRecord(ctx, types.NodeKey(node.Address()), node)
}

// IterateNodes walks all nodes in address order.
func (k Keeper) IterateNodes(ctx context.Context, cb func(types.Node) (bool, error)) error {
	return iterateRecords(k, ctx, types.NodeKeyPrefix, cb)
}

// GetSlashRecords returns the slash history of a node, oldest first.
func (k Keeper) GetSlashRecords(ctx context.Context, node types.Address) ([]types.SlashRecord, error) {
	var records []types.SlashRecord
	err := iterateRecords(k, ctx, types.SlashRecordKeyPrefix, func(rec types.SlashRecord) (bool, error) {
		if rec.Node == node {
			records = append(records, rec)
		}
		return false, nil
	})
	return records, err
}

func (k Keeper) getNextSlashID(ctx context.Context) (uint64, error) {
	store := k.getStore(ctx)
	bz := store.Get(types.NextSlashIDKey)
	var nextID uint64 = 1
	if bz != nil {
		nextID = binary.BigEndian.Uint64(bz)
	}
	following, err := SafeAddUint64(nextID, 1)
	if err != nil {
		return 0, err
	}
	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, following)
	store.Set(types.NextSlashIDKey, next)
	return nextID, nil
}
