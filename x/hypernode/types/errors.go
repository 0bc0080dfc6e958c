package types

import (
	"errors"
	"fmt"

	errorsmod "cosmossdk.io/errors"
)

// Hypernode sentinel errors. The registered description is the stable error
// code surfaced to callers and must never change.

var (
	// Stake bounds
	ErrStakeAmountTooSmall = errorsmod.Register(ModuleName, 2, "STAKE_AMOUNT_TOO_SMALL")
	ErrStakeAmountTooLarge = errorsmod.Register(ModuleName, 3, "STAKE_AMOUNT_TOO_LARGE")
	ErrDurationTooShort    = errorsmod.Register(ModuleName, 4, "DURATION_TOO_SHORT")
	ErrDurationTooLong     = errorsmod.Register(ModuleName, 5, "DURATION_TOO_LONG")
	ErrMultiplierTooLow    = errorsmod.Register(ModuleName, 6, "MULTIPLIER_TOO_LOW")
	ErrMultiplierTooHigh   = errorsmod.Register(ModuleName, 7, "MULTIPLIER_TOO_HIGH")

	// Job inputs
	ErrJobBudgetTooSmall  = errorsmod.Register(ModuleName, 10, "JOB_BUDGET_TOO_SMALL")
	ErrJobBudgetTooLarge  = errorsmod.Register(ModuleName, 11, "JOB_BUDGET_TOO_LARGE")
	ErrInvalidTimeout     = errorsmod.Register(ModuleName, 12, "INVALID_TIMEOUT")
	ErrTimeoutTooLong     = errorsmod.Register(ModuleName, 13, "TIMEOUT_TOO_LONG")
	ErrNullJobDef         = errorsmod.Register(ModuleName, 14, "NULL_JOB_DEF")
	ErrInvalidJobDefType  = errorsmod.Register(ModuleName, 15, "INVALID_JOB_DEF_TYPE")
	ErrMissingModel       = errorsmod.Register(ModuleName, 16, "MISSING_MODEL")
	ErrMissingParams      = errorsmod.Register(ModuleName, 17, "MISSING_PARAMS")
	ErrModelNameTooLong   = errorsmod.Register(ModuleName, 18, "MODEL_NAME_TOO_LONG")
	ErrInvalidResultType  = errorsmod.Register(ModuleName, 19, "INVALID_RESULT_TYPE")
	ErrMissingOutput      = errorsmod.Register(ModuleName, 20, "MISSING_OUTPUT")
	ErrResultTooLarge     = errorsmod.Register(ModuleName, 21, "RESULT_TOO_LARGE")
	ErrInvalidJobID       = errorsmod.Register(ModuleName, 22, "INVALID_JOB_ID")
	ErrInvalidJobType     = errorsmod.Register(ModuleName, 23, "INVALID_JOB_TYPE")
	ErrInvalidLogsURL     = errorsmod.Register(ModuleName, 24, "INVALID_LOGS_URL")
	ErrInvalidResultHash  = errorsmod.Register(ModuleName, 25, "INVALID_RESULT_HASH")
	ErrInvalidRequirement = errorsmod.Register(ModuleName, 26, "INVALID_REQUIREMENTS_HASH")

	// Node inputs
	ErrInvalidReputation  = errorsmod.Register(ModuleName, 30, "INVALID_REPUTATION")
	ErrReputationTooHigh  = errorsmod.Register(ModuleName, 31, "REPUTATION_TOO_HIGH")
	ErrReputationTooLow   = errorsmod.Register(ModuleName, 32, "REPUTATION_TOO_LOW")
	ErrInvalidJobsCount   = errorsmod.Register(ModuleName, 33, "INVALID_JOBS_COUNT")
	ErrInvalidMaxJobs     = errorsmod.Register(ModuleName, 34, "INVALID_MAX_JOBS")
	ErrMaxJobsExceeded    = errorsmod.Register(ModuleName, 35, "MAX_JOBS_EXCEEDED")
	ErrNodeAtCapacity     = errorsmod.Register(ModuleName, 36, "NODE_AT_CAPACITY")
	ErrInvalidRegion      = errorsmod.Register(ModuleName, 37, "INVALID_REGION")
	ErrInvalidNodeID      = errorsmod.Register(ModuleName, 38, "INVALID_NODE_ID")
	ErrInvalidGPUSpecs    = errorsmod.Register(ModuleName, 39, "INVALID_GPU_SPECS")
	ErrInvalidNodeStatus  = errorsmod.Register(ModuleName, 40, "INVALID_NODE_STATUS")
	ErrInvalidSlashReason = errorsmod.Register(ModuleName, 41, "INVALID_SLASH_REASON")

	// Formats and generic fields
	ErrInvalidPublicKey      = errorsmod.Register(ModuleName, 50, "INVALID_PUBLIC_KEY")
	ErrInvalidIPFSHash       = errorsmod.Register(ModuleName, 51, "INVALID_IPFS_HASH")
	ErrTimestampOutOfRange   = errorsmod.Register(ModuleName, 52, "TIMESTAMP_OUT_OF_RANGE")
	ErrNotInteger            = errorsmod.Register(ModuleName, 53, "NOT_INTEGER")
	ErrNotPositive           = errorsmod.Register(ModuleName, 54, "NOT_POSITIVE")
	ErrNegativeValue         = errorsmod.Register(ModuleName, 55, "NEGATIVE_VALUE")
	ErrTransactionTooLarge   = errorsmod.Register(ModuleName, 56, "TRANSACTION_TOO_LARGE")
	ErrInsufficientBalance   = errorsmod.Register(ModuleName, 57, "INSUFFICIENT_BALANCE")
	ErrInvalidSignature      = errorsmod.Register(ModuleName, 58, "INVALID_SIGNATURE")
	ErrInvalidAddress        = errorsmod.Register(ModuleName, 59, "INVALID_ADDRESS")
	ErrRateLimited           = errorsmod.Register(ModuleName, 60, "RATE_LIMITED")
	ErrMalformedRequest      = errorsmod.Register(ModuleName, 61, "MALFORMED_REQUEST")
	ErrUnauthorized          = errorsmod.Register(ModuleName, 62, "UNAUTHORIZED")
	ErrMissingSigner         = errorsmod.Register(ModuleName, 63, "MISSING_SIGNER")
	ErrInvalidPercentageSpec = errorsmod.Register(ModuleName, 64, "INVALID_PERCENTAGE")

	// Rewards and fees
	ErrInvalidRewardRate   = errorsmod.Register(ModuleName, 70, "INVALID_REWARD_RATE")
	ErrInvalidEscrowFee    = errorsmod.Register(ModuleName, 71, "INVALID_ESCROW_FEE")
	ErrFeeMismatch         = errorsmod.Register(ModuleName, 72, "FEE_MISMATCH")
	ErrRewardsDisabled     = errorsmod.Register(ModuleName, 73, "REWARDS_DISABLED")
	ErrNoStake             = errorsmod.Register(ModuleName, 74, "NO_STAKE")
	ErrNoRewards           = errorsmod.Register(ModuleName, 75, "NO_REWARDS")
	ErrStakeLocked         = errorsmod.Register(ModuleName, 76, "STAKE_LOCKED")
	ErrAlreadyWithdrawn    = errorsmod.Register(ModuleName, 77, "ALREADY_WITHDRAWN")
	ErrStakeAlreadyExists  = errorsmod.Register(ModuleName, 78, "STAKE_ALREADY_EXISTS")
	ErrInvalidStakeID      = errorsmod.Register(ModuleName, 79, "INVALID_STAKE_ID")
	ErrNothingToAccrue     = errorsmod.Register(ModuleName, 80, "NOTHING_TO_ACCRUE")
	ErrReflectionDisabled  = errorsmod.Register(ModuleName, 81, "REFLECTION_DISABLED")
	ErrInvalidMultiplierIn = errorsmod.Register(ModuleName, 82, "INVALID_MULTIPLIER_CONFIG")

	// Payment splitter
	ErrInvalidSharePercentages    = errorsmod.Register(ModuleName, 90, "InvalidSharePercentages")
	ErrSplitterAlreadyInitialized = errorsmod.Register(ModuleName, 91, "SPLITTER_ALREADY_INITIALIZED")
	ErrSplitterNotInitialized     = errorsmod.Register(ModuleName, 92, "SPLITTER_NOT_INITIALIZED")

	// Job lifecycle
	ErrJobNotFound          = errorsmod.Register(ModuleName, 100, "JOB_NOT_FOUND")
	ErrJobAlreadyExists     = errorsmod.Register(ModuleName, 101, "JOB_ALREADY_EXISTS")
	ErrJobNotPending        = errorsmod.Register(ModuleName, 102, "JOB_NOT_PENDING")
	ErrJobNotAssigned       = errorsmod.Register(ModuleName, 103, "JOB_NOT_ASSIGNED")
	ErrJobNotCancellable    = errorsmod.Register(ModuleName, 104, "JOB_NOT_CANCELLABLE")
	ErrAlreadySettled       = errorsmod.Register(ModuleName, 105, "ALREADY_SETTLED")
	ErrJobNotExpired        = errorsmod.Register(ModuleName, 106, "JOB_NOT_EXPIRED")
	ErrSameNodeReassignment = errorsmod.Register(ModuleName, 107, "SAME_NODE_REASSIGNMENT")

	// Node lifecycle
	ErrNodeNotFound           = errorsmod.Register(ModuleName, 110, "NODE_NOT_FOUND")
	ErrNodeAlreadyRegistered  = errorsmod.Register(ModuleName, 111, "NODE_ALREADY_REGISTERED")
	ErrNodeNotOnline          = errorsmod.Register(ModuleName, 112, "NODE_NOT_ONLINE")
	ErrNodeInCooldown         = errorsmod.Register(ModuleName, 113, "NODE_IN_COOLDOWN")
	ErrNodeHeartbeatStale     = errorsmod.Register(ModuleName, 114, "NODE_HEARTBEAT_STALE")
	ErrHeartbeatNotIncreasing = errorsmod.Register(ModuleName, 115, "HEARTBEAT_NOT_INCREASING")
	ErrHeartbeatTooFrequent   = errorsmod.Register(ModuleName, 116, "HEARTBEAT_TOO_FREQUENT")
	ErrStatusUnchanged        = errorsmod.Register(ModuleName, 117, "STATUS_UNCHANGED")
	ErrUnauthorizedStatus     = errorsmod.Register(ModuleName, 118, "UNAUTHORIZED_STATUS")
	ErrNodeHasActiveJobs      = errorsmod.Register(ModuleName, 119, "NODE_HAS_ACTIVE_JOBS")

	// Invariants and configuration
	ErrArithmeticOverflow = errorsmod.Register(ModuleName, 130, "ARITHMETIC_OVERFLOW")
	ErrInvariantBroken    = errorsmod.Register(ModuleName, 131, "INVARIANT_BROKEN")
	ErrInvalidConfig      = errorsmod.Register(ModuleName, 132, "INVALID_CONFIG")
	ErrStoreCorrupted     = errorsmod.Register(ModuleName, 133, "STORE_CORRUPTED")
)

// ErrorKind classifies failures by who can fix them.
type ErrorKind string

const (
	// KindInput errors are caller-fixable and raised before any mutation.
	KindInput ErrorKind = "input"
	// KindInvariant errors abort the whole operation; nothing is committed.
	KindInvariant ErrorKind = "invariant"
	// KindConfig errors are fatal at startup.
	KindConfig ErrorKind = "config"
)

// ValidationError is the structured failure returned by validators and
// state transitions. It unwraps to the registered sentinel for its code, so
// errors.Is works against the Err* values above.
type ValidationError struct {
	Kind    ErrorKind
	Code    string
	Message string

	sentinel *errorsmod.Error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.sentinel
}

func newError(kind ErrorKind, sentinel *errorsmod.Error, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Kind:     kind,
		Code:     sentinel.Error(),
		Message:  fmt.Sprintf(format, args...),
		sentinel: sentinel,
	}
}

// InputError builds a caller-fixable error for sentinel.
func InputError(sentinel *errorsmod.Error, format string, args ...interface{}) error {
	return newError(KindInput, sentinel, format, args...)
}

// InvariantError builds an error for a would-be state corruption.
func InvariantError(sentinel *errorsmod.Error, format string, args ...interface{}) error {
	return newError(KindInvariant, sentinel, format, args...)
}

// ConfigError builds a startup configuration error.
func ConfigError(format string, args ...interface{}) error {
	return newError(KindConfig, ErrInvalidConfig, format, args...)
}

// CodeOf returns the stable error code carried by err, or "INTERNAL" when err
// did not originate from this module.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Code
	}
	var registered *errorsmod.Error
	if errors.As(err, &registered) && registered.Codespace() == ModuleName {
		return registered.Error()
	}
	return "INTERNAL"
}

// KindOf returns the error kind; errors without one are invariant failures.
func KindOf(err error) ErrorKind {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return KindInvariant
}

// RecoverySuggestions provides actionable recovery steps for each error type
var RecoverySuggestions = map[error]string{
	ErrStakeAmountTooSmall: "Increase the stake amount to at least the configured minimum stake.",
	ErrStakeAmountTooLarge: "Split the stake into several positions below the configured maximum.",
	ErrDurationTooShort:    "Lock the stake for at least the minimum duration (14 days by default).",
	ErrDurationTooLong:     "Lock durations are capped; choose a duration at or below the maximum.",

	ErrJobBudgetTooSmall: "Raise the job price to at least the configured minimum budget.",
	ErrJobBudgetTooLarge: "Lower the job price or split the work into several jobs.",
	ErrInvalidIPFSHash:   "Content hashes must be CIDv0 strings (Qm followed by 44 base58 characters).",
	ErrFeeMismatch:       "Query the protocol escrow fee and submit exactly that rate.",

	ErrNodeAtCapacity:   "Wait for the node's running jobs to complete or select a different node.",
	ErrReputationTooLow: "The node's reputation is below the protocol minimum; select another node.",
	ErrNodeInCooldown:   "The node is serving a slashing cooldown. Retry after slashed_until.",
	ErrNodeNotOnline:    "Only online nodes accept jobs. Ask the operator to set the node online.",

	ErrHeartbeatNotIncreasing: "Heartbeats must be strictly later than the previous one; retry shortly.",
	ErrHeartbeatTooFrequent:   "Respect the configured minimum heartbeat interval.",

	ErrAlreadySettled:          "The job has already been paid out. No further action is required.",
	ErrInvalidSharePercentages: "Operator, treasury, incentive and orchestrator shares must sum to exactly 100.",
	ErrInsufficientBalance:     "Withdraw at most the available balance.",
	ErrTransactionTooLarge:     "Reduce the request payload below the configured maximum transaction size.",
	ErrRateLimited:             "Slow down; the signer exceeded the configured request rate.",
}

// GetRecoverySuggestion returns the recovery hint for err, if any.
func GetRecoverySuggestion(err error) string {
	for sentinel, suggestion := range RecoverySuggestions {
		if errors.Is(err, sentinel) {
			return suggestion
		}
	}
	return ""
}
