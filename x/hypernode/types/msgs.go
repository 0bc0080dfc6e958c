package types

import (
	sdkmath "cosmossdk.io/math"
)

// Message types
const (
	TypeMsgCreateJob          = "create_job"
	TypeMsgAssignJob          = "assign_job"
	TypeMsgSubmitResult       = "submit_result"
	TypeMsgCancelJob          = "cancel_job"
	TypeMsgExpireJob          = "expire_job"
	TypeMsgRegisterNode       = "register_node"
	TypeMsgUpdateNodeStatus   = "update_node_status"
	TypeMsgUpdateHeartbeat    = "update_heartbeat"
	TypeMsgSlashNode          = "slash_node"
	TypeMsgDeregisterNode     = "deregister_node"
	TypeMsgInitializeSplitter = "initialize_splitter_config"
	TypeMsgUpdateSplitter     = "update_splitter_config"
	TypeMsgWithdrawTreasury   = "withdraw_treasury"
	TypeMsgStake              = "stake"
	TypeMsgUnstake            = "unstake"
	TypeMsgAccrueStake        = "accrue_stake"
	TypeMsgClaimRewards       = "claim_rewards"
)

// Msg is a signed ledger operation.
type Msg interface {
	Type() string
	GetSigner() PublicKey
	ValidateBasic() error
}

func requireSigner(pk PublicKey) error {
	if pk.IsZero() {
		return InputError(ErrMissingSigner, "signer public key is required")
	}
	return nil
}

func requireAddress(field string, a Address) error {
	if a.IsZero() {
		return InputError(ErrInvalidAddress, "%s address is required", field)
	}
	return nil
}

// MsgCreateJob posts a new job with an escrowed price.
type MsgCreateJob struct {
	Client           PublicKey          `json:"client"`
	JobID            string             `json:"job_id"`
	JobType          JobType            `json:"job_type"`
	Price            sdkmath.Int        `json:"price"`
	RequirementsHash string             `json:"requirements_hash"`
	Definition       *JobDefinition     `json:"definition,omitempty"`
	TimeoutSeconds   int64              `json:"timeout_seconds,omitempty"`
	EscrowFee        *sdkmath.LegacyDec `json:"escrow_fee,omitempty"`
}

func (msg *MsgCreateJob) Type() string         { return TypeMsgCreateJob }
func (msg *MsgCreateJob) GetSigner() PublicKey { return msg.Client }

func (msg *MsgCreateJob) ValidateBasic() error {
	if err := requireSigner(msg.Client); err != nil {
		return err
	}
	if err := ValidateJobID(msg.JobID); err != nil {
		return err
	}
	if !msg.JobType.Valid() {
		return InputError(ErrInvalidJobType, "unknown job type %d", uint8(msg.JobType))
	}
	if msg.RequirementsHash == "" || len(msg.RequirementsHash) > MaxHashLength {
		return InputError(ErrInvalidRequirement, "requirements hash must be 1-%d characters", MaxHashLength)
	}
	return nil
}

// MsgAssignJob binds a pending job to an eligible node.
type MsgAssignJob struct {
	Authority PublicKey `json:"authority"`
	Job       Address   `json:"job"`
	NodeOwner PublicKey `json:"node_owner"`
	NodeID    string    `json:"node_id"`
}

func (msg *MsgAssignJob) Type() string         { return TypeMsgAssignJob }
func (msg *MsgAssignJob) GetSigner() PublicKey { return msg.Authority }

func (msg *MsgAssignJob) ValidateBasic() error {
	if err := requireSigner(msg.Authority); err != nil {
		return err
	}
	if err := requireAddress("job", msg.Job); err != nil {
		return err
	}
	if msg.NodeOwner.IsZero() {
		return InputError(ErrInvalidPublicKey, "node owner is required")
	}
	return ValidateNodeID(msg.NodeID)
}

// MsgSubmitResult completes an assigned job.
type MsgSubmitResult struct {
	Operator   PublicKey  `json:"operator"`
	Job        Address    `json:"job"`
	ResultHash string     `json:"result_hash"`
	LogsURL    string     `json:"logs_url"`
	Result     *JobResult `json:"result"`
}

func (msg *MsgSubmitResult) Type() string         { return TypeMsgSubmitResult }
func (msg *MsgSubmitResult) GetSigner() PublicKey { return msg.Operator }

func (msg *MsgSubmitResult) ValidateBasic() error {
	if err := requireSigner(msg.Operator); err != nil {
		return err
	}
	return requireAddress("job", msg.Job)
}

// MsgCancelJob withdraws a job before completion.
type MsgCancelJob struct {
	Client PublicKey `json:"client"`
	Job    Address   `json:"job"`
}

func (msg *MsgCancelJob) Type() string         { return TypeMsgCancelJob }
func (msg *MsgCancelJob) GetSigner() PublicKey { return msg.Client }

func (msg *MsgCancelJob) ValidateBasic() error {
	if err := requireSigner(msg.Client); err != nil {
		return err
	}
	return requireAddress("job", msg.Job)
}

// MsgExpireJob asks the ledger to evaluate a job's timeout now.
type MsgExpireJob struct {
	Signer PublicKey `json:"signer"`
	Job    Address   `json:"job"`
}

func (msg *MsgExpireJob) Type() string         { return TypeMsgExpireJob }
func (msg *MsgExpireJob) GetSigner() PublicKey { return msg.Signer }

func (msg *MsgExpireJob) ValidateBasic() error {
	if err := requireSigner(msg.Signer); err != nil {
		return err
	}
	return requireAddress("job", msg.Job)
}

// MsgRegisterNode registers a compute node for its owner.
type MsgRegisterNode struct {
	Owner             PublicKey `json:"owner"`
	NodeID            string    `json:"node_id"`
	GPUSpecsHash      string    `json:"gpu_specs_hash"`
	Location          string    `json:"location"`
	MaxConcurrentJobs int64     `json:"max_concurrent_jobs"`
}

func (msg *MsgRegisterNode) Type() string         { return TypeMsgRegisterNode }
func (msg *MsgRegisterNode) GetSigner() PublicKey { return msg.Owner }

func (msg *MsgRegisterNode) ValidateBasic() error {
	if err := requireSigner(msg.Owner); err != nil {
		return err
	}
	if err := ValidateNodeID(msg.NodeID); err != nil {
		return err
	}
	return ValidateGPUSpecsHash(msg.GPUSpecsHash)
}

// MsgUpdateNodeStatus changes a node's operator-controlled status.
type MsgUpdateNodeStatus struct {
	Owner  PublicKey  `json:"owner"`
	NodeID string     `json:"node_id"`
	Status NodeStatus `json:"status"`
}

func (msg *MsgUpdateNodeStatus) Type() string         { return TypeMsgUpdateNodeStatus }
func (msg *MsgUpdateNodeStatus) GetSigner() PublicKey { return msg.Owner }

func (msg *MsgUpdateNodeStatus) ValidateBasic() error {
	if err := requireSigner(msg.Owner); err != nil {
		return err
	}
	if !msg.Status.Valid() {
		return InputError(ErrInvalidNodeStatus, "unknown node status %d", uint8(msg.Status))
	}
	return ValidateNodeID(msg.NodeID)
}

// MsgUpdateHeartbeat records node liveness.
type MsgUpdateHeartbeat struct {
	Owner  PublicKey `json:"owner"`
	NodeID string    `json:"node_id"`
}

func (msg *MsgUpdateHeartbeat) Type() string         { return TypeMsgUpdateHeartbeat }
func (msg *MsgUpdateHeartbeat) GetSigner() PublicKey { return msg.Owner }

func (msg *MsgUpdateHeartbeat) ValidateBasic() error {
	if err := requireSigner(msg.Owner); err != nil {
		return err
	}
	return ValidateNodeID(msg.NodeID)
}

// MsgSlashNode applies the protocol slashing penalty to a node.
type MsgSlashNode struct {
	Authority PublicKey `json:"authority"`
	Node      Address   `json:"node"`
	Reason    string    `json:"reason"`
}

func (msg *MsgSlashNode) Type() string         { return TypeMsgSlashNode }
func (msg *MsgSlashNode) GetSigner() PublicKey { return msg.Authority }

func (msg *MsgSlashNode) ValidateBasic() error {
	if err := requireSigner(msg.Authority); err != nil {
		return err
	}
	if err := requireAddress("node", msg.Node); err != nil {
		return err
	}
	if msg.Reason == "" || len(msg.Reason) > MaxSlashReasonLength {
		return InputError(ErrInvalidSlashReason, "reason must be 1-%d characters", MaxSlashReasonLength)
	}
	return nil
}

// MsgDeregisterNode removes an idle node.
type MsgDeregisterNode struct {
	Owner  PublicKey `json:"owner"`
	NodeID string    `json:"node_id"`
}

func (msg *MsgDeregisterNode) Type() string         { return TypeMsgDeregisterNode }
func (msg *MsgDeregisterNode) GetSigner() PublicKey { return msg.Owner }

func (msg *MsgDeregisterNode) ValidateBasic() error {
	if err := requireSigner(msg.Owner); err != nil {
		return err
	}
	return ValidateNodeID(msg.NodeID)
}

// MsgInitializeSplitter creates the splitter config.
type MsgInitializeSplitter struct {
	Authority PublicKey `json:"authority"`
	Shares    Shares    `json:"shares"`
}

func (msg *MsgInitializeSplitter) Type() string         { return TypeMsgInitializeSplitter }
func (msg *MsgInitializeSplitter) GetSigner() PublicKey { return msg.Authority }

func (msg *MsgInitializeSplitter) ValidateBasic() error {
	if err := requireSigner(msg.Authority); err != nil {
		return err
	}
	return msg.Shares.Validate()
}

// MsgUpdateSplitter replaces the split percentages.
type MsgUpdateSplitter struct {
	Authority PublicKey `json:"authority"`
	Shares    Shares    `json:"shares"`
}

func (msg *MsgUpdateSplitter) Type() string         { return TypeMsgUpdateSplitter }
func (msg *MsgUpdateSplitter) GetSigner() PublicKey { return msg.Authority }

func (msg *MsgUpdateSplitter) ValidateBasic() error {
	if err := requireSigner(msg.Authority); err != nil {
		return err
	}
	return msg.Shares.Validate()
}

// MsgWithdrawTreasury moves funds out of the treasury balance.
type MsgWithdrawTreasury struct {
	Authority PublicKey   `json:"authority"`
	Amount    sdkmath.Int `json:"amount"`
}

func (msg *MsgWithdrawTreasury) Type() string         { return TypeMsgWithdrawTreasury }
func (msg *MsgWithdrawTreasury) GetSigner() PublicKey { return msg.Authority }

func (msg *MsgWithdrawTreasury) ValidateBasic() error {
	if err := requireSigner(msg.Authority); err != nil {
		return err
	}
	return ValidatePositive("amount", msg.Amount)
}

// MsgStake locks a new stake position.
type MsgStake struct {
	Owner           PublicKey   `json:"owner"`
	StakeID         string      `json:"stake_id"`
	Amount          sdkmath.Int `json:"amount"`
	DurationSeconds int64       `json:"duration_seconds"`
}

func (msg *MsgStake) Type() string         { return TypeMsgStake }
func (msg *MsgStake) GetSigner() PublicKey { return msg.Owner }

func (msg *MsgStake) ValidateBasic() error {
	if err := requireSigner(msg.Owner); err != nil {
		return err
	}
	return ValidateStakeID(msg.StakeID)
}

// MsgUnstake releases an unlocked stake position.
type MsgUnstake struct {
	Owner   PublicKey `json:"owner"`
	StakeID string    `json:"stake_id"`
}

func (msg *MsgUnstake) Type() string         { return TypeMsgUnstake }
func (msg *MsgUnstake) GetSigner() PublicKey { return msg.Owner }

func (msg *MsgUnstake) ValidateBasic() error {
	if err := requireSigner(msg.Owner); err != nil {
		return err
	}
	return ValidateStakeID(msg.StakeID)
}

// MsgAccrueStake applies daily reward accrual to a position. Any signer may
// submit it; it is the hook for the periodic accrual caller.
type MsgAccrueStake struct {
	Signer PublicKey `json:"signer"`
	Stake  Address   `json:"stake"`
}

func (msg *MsgAccrueStake) Type() string         { return TypeMsgAccrueStake }
func (msg *MsgAccrueStake) GetSigner() PublicKey { return msg.Signer }

func (msg *MsgAccrueStake) ValidateBasic() error {
	if err := requireSigner(msg.Signer); err != nil {
		return err
	}
	return requireAddress("stake", msg.Stake)
}

// MsgClaimRewards pays out a position's reflection and accrued rewards.
type MsgClaimRewards struct {
	Owner   PublicKey `json:"owner"`
	StakeID string    `json:"stake_id"`
}

func (msg *MsgClaimRewards) Type() string         { return TypeMsgClaimRewards }
func (msg *MsgClaimRewards) GetSigner() PublicKey { return msg.Owner }

func (msg *MsgClaimRewards) ValidateBasic() error {
	if err := requireSigner(msg.Owner); err != nil {
		return err
	}
	return ValidateStakeID(msg.StakeID)
}
