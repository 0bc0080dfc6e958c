package types

// Event types for the Hypernode module
// All event types use lowercase with underscore separator (module_action format)
const (
	// Job events
	EventTypeJobCreated   = "hypernode_job_created"
	EventTypeJobAssigned  = "hypernode_job_assigned"
	EventTypeJobCompleted = "hypernode_job_completed"
	EventTypeJobCancelled = "hypernode_job_cancelled"
	EventTypeJobExpired   = "hypernode_job_expired"
	EventTypeJobFailed    = "hypernode_job_failed"

	// Node events
	EventTypeNodeRegistered    = "hypernode_node_registered"
	EventTypeNodeStatusUpdated = "hypernode_node_status_updated"
	EventTypeNodeHeartbeat     = "hypernode_node_heartbeat"
	EventTypeNodeSlashed       = "hypernode_node_slashed"
	EventTypeNodeDeregistered  = "hypernode_node_deregistered"

	// Payment events
	EventTypeSplitterInitialized = "hypernode_splitter_initialized"
	EventTypeSplitterUpdated     = "hypernode_splitter_updated"
	EventTypePaymentDistributed  = "hypernode_payment_distributed"
	EventTypeTreasuryWithdrawn   = "hypernode_treasury_withdrawn"

	// Staking and reward events
	EventTypeStaked           = "hypernode_staked"
	EventTypeUnstaked         = "hypernode_unstaked"
	EventTypeRewardsAccrued   = "hypernode_rewards_accrued"
	EventTypeRewardsReflected = "hypernode_rewards_reflected"
	EventTypeRewardsClaimed   = "hypernode_rewards_claimed"
	EventTypeReflectionIdled  = "hypernode_reflection_idled"
)

// Event attribute keys for the Hypernode module
const (
	AttributeKeyJob          = "job"
	AttributeKeyJobID        = "job_id"
	AttributeKeyClient       = "client"
	AttributeKeyJobType      = "job_type"
	AttributeKeyPrice        = "price"
	AttributeKeyStatus       = "status"
	AttributeKeyRetriesUsed  = "retries_used"
	AttributeKeyResultHash   = "result_hash"
	AttributeKeyNode         = "node"
	AttributeKeyNodeID       = "node_id"
	AttributeKeyOwner        = "owner"
	AttributeKeyOperator     = "operator"
	AttributeKeyLocation     = "location"
	AttributeKeyReputation   = "reputation"
	AttributeKeyReason       = "reason"
	AttributeKeySlashedUntil = "slashed_until"
	AttributeKeyTimestamp    = "timestamp"
	AttributeKeyAuthority    = "authority"
	AttributeKeyShares       = "shares"
	AttributeKeyOperatorAmt  = "operator_amount"
	AttributeKeyTreasuryAmt  = "treasury_amount"
	AttributeKeyIncentiveAmt = "incentive_amount"
	AttributeKeyOrchAmt      = "orchestrator_amount"
	AttributeKeyReflection   = "reflection_amount"
	AttributeKeyAmount       = "amount"
	AttributeKeyStake        = "stake"
	AttributeKeyStakeID      = "stake_id"
	AttributeKeyMultiplier   = "multiplier"
	AttributeKeyDuration     = "duration_seconds"
)
