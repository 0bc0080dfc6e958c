package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	sdkmath "cosmossdk.io/math"
	"github.com/cosmos/btcutil/base58"
)

// Validation constants
const (
	MaxJobIDLength       = 32
	MaxNodeIDLength      = 64
	MaxStakeIDLength     = 64
	MaxHashLength        = 64
	MaxLogsURLLength     = 128
	MaxModelNameLength   = 256
	MinRegionLength      = 1
	MaxRegionLength      = 50
	MaxSlashReasonLength = 128
)

var (
	ipfsHashRegex   = regexp.MustCompile(`^Qm[a-zA-Z0-9]{44}$`)
	identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.:]+$`)
	integerRegex    = regexp.MustCompile(`^-?[0-9]+$`)
)

// ValidateStakeAmount checks amount against the staking bounds.
func ValidateStakeAmount(cfg Config, amount sdkmath.Int) error {
	if amount.IsNil() || amount.LT(cfg.Staking.MinStakeAmount) {
		return InputError(ErrStakeAmountTooSmall, "stake amount %s is below minimum %s", intString(amount), cfg.Staking.MinStakeAmount)
	}
	if amount.GT(cfg.Staking.MaxStakeAmount) {
		return InputError(ErrStakeAmountTooLarge, "stake amount %s exceeds maximum %s", amount, cfg.Staking.MaxStakeAmount)
	}
	return nil
}

// ValidateStakeDuration checks a lock duration in seconds.
func ValidateStakeDuration(cfg Config, durationSeconds int64) error {
	if durationSeconds < cfg.Staking.MinDurationSeconds {
		return InputError(ErrDurationTooShort, "duration %ds is below minimum %ds", durationSeconds, cfg.Staking.MinDurationSeconds)
	}
	if durationSeconds > cfg.Staking.MaxDurationSeconds {
		return InputError(ErrDurationTooLong, "duration %ds exceeds maximum %ds", durationSeconds, cfg.Staking.MaxDurationSeconds)
	}
	return nil
}

// ValidateStakeParameters checks amount then duration.
func ValidateStakeParameters(cfg Config, amount sdkmath.Int, durationSeconds int64) error {
	if err := ValidateStakeAmount(cfg, amount); err != nil {
		return err
	}
	return ValidateStakeDuration(cfg, durationSeconds)
}

// ValidateJobBudget checks a job price against the budget bounds.
func ValidateJobBudget(cfg Config, budget sdkmath.Int) error {
	if budget.IsNil() || budget.LT(cfg.Jobs.MinBudget) {
		return InputError(ErrJobBudgetTooSmall, "job budget %s is below minimum %s", intString(budget), cfg.Jobs.MinBudget)
	}
	if budget.GT(cfg.Jobs.MaxBudget) {
		return InputError(ErrJobBudgetTooLarge, "job budget %s exceeds maximum %s", budget, cfg.Jobs.MaxBudget)
	}
	return nil
}

// ValidateJobTimeout checks a per-job timeout; the ceiling is ten times the
// protocol default.
func ValidateJobTimeout(cfg Config, timeoutSeconds int64) error {
	if timeoutSeconds <= 0 {
		return InputError(ErrInvalidTimeout, "job timeout must be positive")
	}
	ceiling := cfg.Jobs.TimeoutSeconds * TimeoutCeilingFactor
	if timeoutSeconds > ceiling {
		return InputError(ErrTimeoutTooLong, "job timeout %ds exceeds protocol maximum %ds", timeoutSeconds, ceiling)
	}
	return nil
}

// ValidateReputation checks a reputation score is within [0, 10000].
func ValidateReputation(score int64) error {
	if score < 0 {
		return InputError(ErrInvalidReputation, "node reputation cannot be negative")
	}
	if score > MaxReputation {
		return InputError(ErrReputationTooHigh, "node reputation cannot exceed %d", MaxReputation)
	}
	return nil
}

// ValidateMinReputation checks score meets the protocol minimum.
func ValidateMinReputation(cfg Config, score int64) error {
	if err := ValidateReputation(score); err != nil {
		return err
	}
	if score < cfg.Nodes.MinReputation {
		return InputError(ErrReputationTooLow, "node reputation %d is below minimum %d", score, cfg.Nodes.MinReputation)
	}
	return nil
}

// ValidateNodeAvailability checks, in order: job count sign, node maximum
// sign, node maximum against the protocol cap, then remaining capacity.
func ValidateNodeAvailability(cfg Config, currentJobs, maxConcurrent int64) error {
	if currentJobs < 0 {
		return InputError(ErrInvalidJobsCount, "current jobs cannot be negative")
	}
	if maxConcurrent <= 0 {
		return InputError(ErrInvalidMaxJobs, "max concurrent jobs must be positive")
	}
	if maxConcurrent > cfg.Nodes.MaxConcurrentJobs {
		return InputError(ErrMaxJobsExceeded, "max concurrent jobs %d exceeds protocol limit %d", maxConcurrent, cfg.Nodes.MaxConcurrentJobs)
	}
	if currentJobs >= maxConcurrent {
		return InputError(ErrNodeAtCapacity, "node is at capacity: %d/%d jobs running", currentJobs, maxConcurrent)
	}
	return nil
}

// ValidatePublicKey checks s is a base58 encoded 32 byte key.
func ValidatePublicKey(s string) error {
	if s == "" {
		return InputError(ErrInvalidPublicKey, "public key is required")
	}
	if len(base58.Decode(s)) != PublicKeyLength {
		return InputError(ErrInvalidPublicKey, "invalid public key: %s", s)
	}
	return nil
}

// ValidateIPFSHash checks a CIDv0 content hash.
func ValidateIPFSHash(hash string) error {
	if !ipfsHashRegex.MatchString(hash) {
		return InputError(ErrInvalidIPFSHash, "invalid IPFS hash format: %s", hash)
	}
	return nil
}

// ValidateContentHash applies the IPFS rule when the integration is enabled,
// otherwise any non-empty hash up to 64 characters.
func ValidateContentHash(cfg Config, hash string) error {
	if cfg.Features.IPFSIntegration {
		return ValidateIPFSHash(hash)
	}
	if hash == "" || len(hash) > MaxHashLength {
		return InputError(ErrInvalidIPFSHash, "content hash must be 1-%d characters", MaxHashLength)
	}
	return nil
}

// ValidateMultiplier checks m is within [base, max].
func ValidateMultiplier(cfg Config, m uint64) error {
	if m < cfg.Staking.BaseMultiplier {
		return InputError(ErrMultiplierTooLow, "multiplier %d is below minimum %d", m, cfg.Staking.BaseMultiplier)
	}
	if m > cfg.Staking.MaxMultiplier {
		return InputError(ErrMultiplierTooHigh, "multiplier %d exceeds maximum %d", m, cfg.Staking.MaxMultiplier)
	}
	return nil
}

// ValidateRewardRate checks a percentage rate.
func ValidateRewardRate(rate sdkmath.LegacyDec) error {
	if !percentageInRange(rate) {
		return InputError(ErrInvalidRewardRate, "reward rate %s%% must be between 0 and 100", decString(rate))
	}
	return nil
}

// ValidateEscrowFee checks fee is a percentage equal to the protocol rate.
func ValidateEscrowFee(cfg Config, fee sdkmath.LegacyDec) error {
	if !percentageInRange(fee) {
		return InputError(ErrInvalidEscrowFee, "escrow fee %s%% must be between 0 and 100", decString(fee))
	}
	if !fee.Equal(cfg.Jobs.EscrowFeePercentage) {
		return InputError(ErrFeeMismatch, "fee mismatch: expected %s%%, got %s%%", cfg.Jobs.EscrowFeePercentage, fee)
	}
	return nil
}

// ValidateRecentTimestamp rejects timestamps more than five minutes from now.
func ValidateRecentTimestamp(ts, now time.Time) error {
	diff := now.Unix() - ts.Unix()
	if diff < 0 {
		diff = -diff
	}
	if diff > MaxTimestampDriftSecs {
		return InputError(ErrTimestampOutOfRange, "timestamp is too old or in the future (diff: %ds)", diff)
	}
	return nil
}

// ParseInteger parses a decimal integer field.
func ParseInteger(field, value string) (sdkmath.Int, error) {
	value = strings.TrimSpace(value)
	if !integerRegex.MatchString(value) {
		return sdkmath.Int{}, InputError(ErrNotInteger, "%s must be an integer", field)
	}
	i, ok := sdkmath.NewIntFromString(value)
	if !ok {
		return sdkmath.Int{}, InputError(ErrNotInteger, "%s must be an integer", field)
	}
	return i, nil
}

// ValidatePositive checks v > 0.
func ValidatePositive(field string, v sdkmath.Int) error {
	if v.IsNil() || !v.IsPositive() {
		return InputError(ErrNotPositive, "%s must be positive", field)
	}
	return nil
}

// ValidateNonNegative checks v >= 0.
func ValidateNonNegative(field string, v sdkmath.Int) error {
	if v.IsNil() || v.IsNegative() {
		return InputError(ErrNegativeValue, "%s cannot be negative", field)
	}
	return nil
}

// ValidateBalance checks balance covers required.
func ValidateBalance(field string, balance, required sdkmath.Int) error {
	if balance.LT(required) {
		return InputError(ErrInsufficientBalance, "%s balance %s is insufficient (required: %s)", field, balance, required)
	}
	return nil
}

// ValidateTransactionSize checks an encoded request against the size limit.
func ValidateTransactionSize(cfg Config, sizeBytes int64) error {
	if sizeBytes > cfg.Security.MaxTransactionSize {
		return InputError(ErrTransactionTooLarge, "transaction size %d bytes exceeds limit %d bytes", sizeBytes, cfg.Security.MaxTransactionSize)
	}
	return nil
}

// ValidateMaxConcurrentJobs checks a node's declared concurrency.
func ValidateMaxConcurrentJobs(cfg Config, maxJobs int64) error {
	limit := cfg.NodeConcurrencyCap()
	if maxJobs < 1 || maxJobs > limit {
		return InputError(ErrInvalidMaxJobs, "max concurrent jobs must be between 1 and %d", limit)
	}
	return nil
}

// ValidateRegion checks a node location string.
func ValidateRegion(region string) error {
	n := utf8.RuneCountInString(region)
	if n < MinRegionLength || n > MaxRegionLength {
		return InputError(ErrInvalidRegion, "region must be between %d and %d characters", MinRegionLength, MaxRegionLength)
	}
	return nil
}

// ValidateJobID checks a client-assigned job identifier.
func ValidateJobID(id string) error {
	if err := validateIdentifier(id, MaxJobIDLength); err != nil {
		return InputError(ErrInvalidJobID, "job id: %v", err)
	}
	return nil
}

// ValidateNodeID checks an operator-assigned node identifier.
func ValidateNodeID(id string) error {
	if err := validateIdentifier(id, MaxNodeIDLength); err != nil {
		return InputError(ErrInvalidNodeID, "node id: %v", err)
	}
	return nil
}

// ValidateStakeID checks an owner-assigned stake identifier.
func ValidateStakeID(id string) error {
	if err := validateIdentifier(id, MaxStakeIDLength); err != nil {
		return InputError(ErrInvalidStakeID, "stake id: %v", err)
	}
	return nil
}

// ValidateGPUSpecsHash checks the hardware attestation hash.
func ValidateGPUSpecsHash(hash string) error {
	if hash == "" || len(hash) > MaxHashLength {
		return InputError(ErrInvalidGPUSpecs, "gpu specs hash must be 1-%d characters", MaxHashLength)
	}
	return nil
}

// ValidateLogsURL checks the optional logs location.
func ValidateLogsURL(url string) error {
	if len(url) > MaxLogsURLLength {
		return InputError(ErrInvalidLogsURL, "logs url cannot exceed %d characters", MaxLogsURLLength)
	}
	return nil
}

func validateIdentifier(id string, maxLen int) error {
	if id == "" {
		return fmt.Errorf("cannot be empty")
	}
	if len(id) > maxLen {
		return fmt.Errorf("exceeds %d characters", maxLen)
	}
	if !identifierRegex.MatchString(id) {
		return fmt.Errorf("contains invalid characters")
	}
	return nil
}

// ValidateStakeOperation runs, in order: stake amount, duration, owner key.
func ValidateStakeOperation(cfg Config, amount sdkmath.Int, durationSeconds int64, owner string) error {
	if err := ValidateStakeParameters(cfg, amount, durationSeconds); err != nil {
		return err
	}
	return ValidatePublicKey(owner)
}

// JobSubmission is the client-supplied part of a job.
type JobSubmission struct {
	Budget         sdkmath.Int
	TimeoutSeconds int64
	Definition     *JobDefinition
	Client         string
}

// ValidateJobSubmission runs, in order: budget, timeout, definition, client key.
func ValidateJobSubmission(cfg Config, sub JobSubmission) error {
	if err := ValidateJobBudget(cfg, sub.Budget); err != nil {
		return err
	}
	if err := ValidateJobTimeout(cfg, sub.TimeoutSeconds); err != nil {
		return err
	}
	if err := ValidateJobDefinition(sub.Definition); err != nil {
		return err
	}
	return ValidatePublicKey(sub.Client)
}

// ValidateNodeRegistration runs, in order: owner key, max concurrency, region.
func ValidateNodeRegistration(cfg Config, owner string, maxConcurrentJobs int64, region string) error {
	if err := ValidatePublicKey(owner); err != nil {
		return err
	}
	if err := ValidateMaxConcurrentJobs(cfg, maxConcurrentJobs); err != nil {
		return err
	}
	return ValidateRegion(region)
}

func intString(i sdkmath.Int) string {
	if i.IsNil() {
		return "<nil>"
	}
	return i.String()
}

func decString(d sdkmath.LegacyDec) string {
	if d.IsNil() {
		return "<nil>"
	}
	return d.String()
}
