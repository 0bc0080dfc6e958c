package types

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// NodeStatus is the liveness state of a compute node.
type NodeStatus uint8

const (
	NodeStatusOffline NodeStatus = iota
	NodeStatusOnline
	NodeStatusBusy
	NodeStatusSlashed
)

var nodeStatusNames = map[NodeStatus]string{
	NodeStatusOffline: "offline",
	NodeStatusOnline:  "online",
	NodeStatusBusy:    "busy",
	NodeStatusSlashed: "slashed",
}

func (s NodeStatus) Valid() bool {
	_, ok := nodeStatusNames[s]
	return ok
}

func (s NodeStatus) String() string {
	if name, ok := nodeStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("node_status(%d)", uint8(s))
}

// OwnerSettable reports whether an operator may move a node into s.
// Slashed is reserved for the protocol.
func (s NodeStatus) OwnerSettable() bool {
	return s == NodeStatusOffline || s == NodeStatusOnline || s == NodeStatusBusy
}

func (s NodeStatus) MarshalText() ([]byte, error) {
	name, ok := nodeStatusNames[s]
	if !ok {
		return nil, fmt.Errorf("invalid node status %d", uint8(s))
	}
	return []byte(name), nil
}

func (s *NodeStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseNodeStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseNodeStatus resolves a node status name.
func ParseNodeStatus(s string) (NodeStatus, error) {
	for status, name := range nodeStatusNames {
		if name == s {
			return status, nil
		}
	}
	return 0, InputError(ErrInvalidNodeStatus, "unknown node status %q", s)
}

// Node is a registered compute operator.
type Node struct {
	NodeID            string      `json:"node_id"`
	Owner             PublicKey   `json:"owner"`
	GPUSpecsHash      string      `json:"gpu_specs_hash"`
	Location          string      `json:"location"`
	Status            NodeStatus  `json:"status"`
	ReputationScore   int64       `json:"reputation_score"`
	LastHeartbeat     int64       `json:"last_heartbeat"`
	CurrentJobs       int64       `json:"current_jobs"`
	MaxConcurrentJobs int64       `json:"max_concurrent_jobs"`
	SlashedUntil      int64       `json:"slashed_until"`
	RegisteredAt      int64       `json:"registered_at"`
	JobsCompleted     uint64      `json:"jobs_completed"`
	JobsFailed        uint64      `json:"jobs_failed"`
	TotalEarned       sdkmath.Int `json:"total_earned"`
	SlashCount        uint64      `json:"slash_count"`
}

// Address returns the node's record address.
func (n Node) Address() Address {
	return NodeAddress(n.Owner, n.NodeID)
}

// InCooldown reports whether a slashing cooldown is still running at now.
func (n Node) InCooldown(now int64) bool {
	return n.SlashedUntil > 0 && now < n.SlashedUntil
}

// CheckEligible evaluates the assignment predicate at now: online, reputation
// at or above the minimum, spare capacity, no active cooldown and, when
// configured, a fresh heartbeat.
func (n Node) CheckEligible(cfg Config, now int64) error {
	if n.InCooldown(now) {
		return InputError(ErrNodeInCooldown, "node %s is in slashing cooldown until %d", n.NodeID, n.SlashedUntil)
	}
	if n.Status != NodeStatusOnline {
		return InputError(ErrNodeNotOnline, "node %s is %s", n.NodeID, n.Status)
	}
	if err := ValidateMinReputation(cfg, n.ReputationScore); err != nil {
		return err
	}
	if err := ValidateNodeAvailability(cfg, n.CurrentJobs, n.MaxConcurrentJobs); err != nil {
		return err
	}
	if timeout := cfg.Nodes.HeartbeatTimeoutSeconds; timeout > 0 && now-n.LastHeartbeat > timeout {
		return InputError(ErrNodeHeartbeatStale, "node %s last heartbeat at %d is older than %ds", n.NodeID, n.LastHeartbeat, timeout)
	}
	return nil
}

// SlashRecord documents a protocol slashing event.
type SlashRecord struct {
	ID               uint64    `json:"id"`
	Node             Address   `json:"node"`
	NodeID           string    `json:"node_id"`
	Owner            PublicKey `json:"owner"`
	Reason           string    `json:"reason"`
	ReputationBefore int64     `json:"reputation_before"`
	ReputationAfter  int64     `json:"reputation_after"`
	SlashedAt        int64     `json:"slashed_at"`
	SlashedUntil     int64     `json:"slashed_until"`
}

// EligibilityFilter narrows FindEligible results. Ordering of the results is
// left to the orchestrator.
type EligibilityFilter struct {
	Location string `json:"location,omitempty"`
	Exclude  []Address
	Limit    int `json:"limit,omitempty"`
}
