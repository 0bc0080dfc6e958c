package types

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Network selects the cluster the protocol programs are deployed on.
type Network string

const (
	NetworkDevnet      Network = "devnet"
	NetworkTestnet     Network = "testnet"
	NetworkMainnetBeta Network = "mainnet-beta"
)

// Valid reports whether n is a known network.
func (n Network) Valid() bool {
	switch n {
	case NetworkDevnet, NetworkTestnet, NetworkMainnetBeta:
		return true
	}
	return false
}

// ValidCommitments lists the accepted commitment levels.
var ValidCommitments = []string{"processed", "confirmed", "finalized"}

// Protocol-wide constants that are not configurable.
const (
	MaxReputation           int64 = 10000
	InitialReputation       int64 = 500
	ReputationRewardOnJob   int64 = 1
	MaxNodeConcurrencyLimit int64 = 1000
	MaxResultSizeBytes            = 10 * 1024 * 1024
	MaxTimestampDriftSecs   int64 = 300
	SecondsPerDay           int64 = 86400
	TimeoutCeilingFactor    int64 = 10
)

// ProgramIDs are the deployed program identifiers for each protocol area.
type ProgramIDs struct {
	Nodes   string `json:"nodes"`
	Jobs    string `json:"jobs"`
	Staking string `json:"staking"`
	Rewards string `json:"rewards"`
}

type StakingBounds struct {
	MinStakeAmount     sdkmath.Int `json:"min_stake_amount"`
	MaxStakeAmount     sdkmath.Int `json:"max_stake_amount"`
	MinDurationSeconds int64       `json:"min_duration_seconds"`
	MaxDurationSeconds int64       `json:"max_duration_seconds"`
	BaseMultiplier     uint64      `json:"base_multiplier"`
	MaxMultiplier      uint64      `json:"max_multiplier"`
}

type JobBounds struct {
	MinBudget           sdkmath.Int       `json:"min_budget"`
	MaxBudget           sdkmath.Int       `json:"max_budget"`
	TimeoutSeconds      int64             `json:"timeout_seconds"`
	MaxRetriesPerJob    uint32            `json:"max_retries_per_job"`
	EscrowFeePercentage sdkmath.LegacyDec `json:"escrow_fee_percentage"`
}

type NodeBounds struct {
	MinReputation               int64             `json:"min_reputation"`
	MaxConcurrentJobs           int64             `json:"max_concurrent_jobs"`
	SlashingPercentage          sdkmath.LegacyDec `json:"slashing_percentage"`
	SlashingCooldownSeconds     int64             `json:"slashing_cooldown_seconds"`
	HeartbeatMinIntervalSeconds int64             `json:"heartbeat_min_interval_seconds"`
	HeartbeatTimeoutSeconds     int64             `json:"heartbeat_timeout_seconds"`
}

type RewardBounds struct {
	ReflectionPercentage sdkmath.LegacyDec `json:"reflection_percentage"`
	// DailyRewardRate is a percentage of the accrual base earned per day.
	DailyRewardRate    sdkmath.LegacyDec `json:"daily_reward_rate"`
	CompoundingEnabled bool              `json:"compounding_enabled"`
}

type FeatureFlags struct {
	IPFSIntegration bool `json:"ipfs_integration"`
	DynamicQueue    bool `json:"dynamic_queue"`
	TokenReflection bool `json:"token_reflection"`
	AutoSlashing    bool `json:"auto_slashing"`
}

type SecurityBounds struct {
	RequireSignerVerification bool  `json:"require_signer_verification"`
	MaxTransactionSize        int64 `json:"max_transaction_size"`
	RateLimit                 int64 `json:"rate_limit"`
}

// Config is the immutable set of protocol bounds. It is built once at
// process start and passed by value; nothing mutates it afterwards.
type Config struct {
	Network    Network    `json:"network"`
	RPCURL     string     `json:"rpc_url"`
	Commitment string     `json:"commitment"`
	Programs   ProgramIDs `json:"programs"`

	Staking  StakingBounds  `json:"staking"`
	Jobs     JobBounds      `json:"jobs"`
	Nodes    NodeBounds     `json:"nodes"`
	Rewards  RewardBounds   `json:"rewards"`
	Features FeatureFlags   `json:"features"`
	Security SecurityBounds `json:"security"`

	// Authority is the optional protocol authority allowed to assign jobs
	// and slash nodes. Empty means any signer may act as orchestrator.
	Authority string `json:"authority,omitempty"`
}

// DefaultConfig returns the protocol defaults. Program identifiers and the
// RPC endpoint have no default and must be supplied by the environment.
func DefaultConfig() Config {
	return Config{
		Network:    NetworkMainnetBeta,
		Commitment: "confirmed",
		Staking: StakingBounds{
			MinStakeAmount:     sdkmath.NewInt(100_000_000),
			MaxStakeAmount:     sdkmath.NewInt(1_000_000_000_000_000),
			MinDurationSeconds: 14 * SecondsPerDay,
			MaxDurationSeconds: 4 * 365 * SecondsPerDay,
			BaseMultiplier:     1000,
			MaxMultiplier:      4000,
		},
		Jobs: JobBounds{
			MinBudget:           sdkmath.NewInt(1_000_000),
			MaxBudget:           sdkmath.NewInt(1_000_000_000_000),
			TimeoutSeconds:      3600,
			MaxRetriesPerJob:    3,
			EscrowFeePercentage: sdkmath.LegacyOneDec(),
		},
		Nodes: NodeBounds{
			MinReputation:           100,
			MaxConcurrentJobs:       50,
			SlashingPercentage:      sdkmath.LegacyNewDec(10),
			SlashingCooldownSeconds: SecondsPerDay,
		},
		Rewards: RewardBounds{
			ReflectionPercentage: sdkmath.LegacyNewDec(2),
			DailyRewardRate:      sdkmath.LegacyNewDecWithPrec(1, 1),
			CompoundingEnabled:   true,
		},
		Features: FeatureFlags{
			IPFSIntegration: true,
			DynamicQueue:    true,
			TokenReflection: true,
			AutoSlashing:    true,
		},
		Security: SecurityBounds{
			RequireSignerVerification: true,
			MaxTransactionSize:        1232,
			RateLimit:                 100,
		},
	}
}

// ValidateBounds checks numeric ranges and every min < max pair. It returns
// the first violation.
func (c Config) ValidateBounds() error {
	if errs := c.boundErrors(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Validate runs every configuration check and collects all failures,
// including missing identifiers. A nil slice means the config is usable.
func (c Config) Validate() []error {
	var errs []error
	if c.RPCURL == "" {
		errs = append(errs, ConfigError("RPC URL is required"))
	}
	if !c.Network.Valid() {
		errs = append(errs, ConfigError("network %q must be one of devnet, testnet, mainnet-beta", c.Network))
	}
	if !validCommitment(c.Commitment) {
		errs = append(errs, ConfigError("commitment %q must be one of %v", c.Commitment, ValidCommitments))
	}
	programs := []struct{ name, id string }{
		{"nodes", c.Programs.Nodes},
		{"jobs", c.Programs.Jobs},
		{"staking", c.Programs.Staking},
		{"rewards", c.Programs.Rewards},
	}
	for _, p := range programs {
		if p.id == "" {
			errs = append(errs, ConfigError("%s program identifier is required", p.name))
		}
	}
	if c.Authority != "" {
		if err := ValidatePublicKey(c.Authority); err != nil {
			errs = append(errs, ConfigError("authority: %v", err))
		}
	}
	return append(errs, c.boundErrors()...)
}

func (c Config) boundErrors() []error {
	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, ConfigError(format, args...))
	}

	s := c.Staking
	if s.MinStakeAmount.IsNil() || s.MaxStakeAmount.IsNil() {
		add("stake amount bounds are required")
	} else {
		if s.MinStakeAmount.IsNegative() {
			add("MIN_STAKE_AMOUNT cannot be negative")
		}
		if s.MinStakeAmount.GTE(s.MaxStakeAmount) {
			add("MIN_STAKE_AMOUNT must be less than MAX_STAKE_AMOUNT")
		}
	}
	if s.MinDurationSeconds < 0 {
		add("MIN_STAKE_DURATION cannot be negative")
	}
	if s.MinDurationSeconds >= s.MaxDurationSeconds {
		add("MIN_STAKE_DURATION must be less than MAX_STAKE_DURATION")
	}
	if s.BaseMultiplier >= s.MaxMultiplier {
		add("BASE_MULTIPLIER must be less than MAX_MULTIPLIER")
	}

	j := c.Jobs
	if j.MinBudget.IsNil() || j.MaxBudget.IsNil() {
		add("job budget bounds are required")
	} else {
		if j.MinBudget.IsNegative() {
			add("MIN_JOB_BUDGET cannot be negative")
		}
		if j.MinBudget.GTE(j.MaxBudget) {
			add("MIN_JOB_BUDGET must be less than MAX_JOB_BUDGET")
		}
	}
	if j.TimeoutSeconds <= 0 {
		add("JOB_TIMEOUT_SECONDS must be positive")
	}
	if !percentageInRange(j.EscrowFeePercentage) {
		add("ESCROW_FEE must be between 0 and 100")
	}

	n := c.Nodes
	if n.MinReputation < 0 || n.MinReputation > MaxReputation {
		add("MIN_REPUTATION must be between 0 and %d", MaxReputation)
	}
	if n.MaxConcurrentJobs <= 0 {
		add("MAX_CONCURRENT_JOBS must be positive")
	}
	if !percentageInRange(n.SlashingPercentage) {
		add("SLASHING_PERCENTAGE must be between 0 and 100")
	}
	if n.SlashingCooldownSeconds < 0 {
		add("SLASHING_COOLDOWN cannot be negative")
	}
	if n.HeartbeatMinIntervalSeconds < 0 || n.HeartbeatTimeoutSeconds < 0 {
		add("heartbeat intervals cannot be negative")
	}

	r := c.Rewards
	if !percentageInRange(r.ReflectionPercentage) {
		add("REFLECTION_PERCENTAGE must be between 0 and 100")
	}
	if r.DailyRewardRate.IsNil() || r.DailyRewardRate.IsNegative() {
		add("DAILY_REWARD_RATE cannot be negative")
	}

	if c.Security.MaxTransactionSize <= 0 {
		add("MAX_TX_SIZE must be positive")
	}
	if c.Security.RateLimit <= 0 {
		add("RATE_LIMIT must be positive")
	}
	return errs
}

func percentageInRange(d sdkmath.LegacyDec) bool {
	return !d.IsNil() && !d.IsNegative() && d.LTE(sdkmath.LegacyNewDec(100))
}

func validCommitment(c string) bool {
	for _, v := range ValidCommitments {
		if v == c {
			return true
		}
	}
	return false
}

// JoinConfigErrors folds a Validate result into a single error.
func JoinConfigErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}

// EffectiveJobTimeout returns the timeout that applies to a job.
func (c Config) EffectiveJobTimeout(jobTimeout int64) int64 {
	if jobTimeout > 0 {
		return jobTimeout
	}
	return c.Jobs.TimeoutSeconds
}

// NodeConcurrencyCap is the per-node maximum accepted at registration.
func (c Config) NodeConcurrencyCap() int64 {
	if c.Nodes.MaxConcurrentJobs < MaxNodeConcurrencyLimit {
		return c.Nodes.MaxConcurrentJobs
	}
	return MaxNodeConcurrencyLimit
}

// AuthorityKey returns the configured protocol authority, if any.
func (c Config) AuthorityKey() (PublicKey, bool) {
	if c.Authority == "" {
		return PublicKey{}, false
	}
	pk, err := ParsePublicKey(c.Authority)
	if err != nil {
		return PublicKey{}, false
	}
	return pk, true
}
