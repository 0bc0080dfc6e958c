// Package config loads the protocol configuration and daemon settings from
// the environment.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// Environment variables read by Load.
const (
	EnvNetwork    = "SOLANA_NETWORK"
	EnvRPCURL     = "SOLANA_RPC_URL"
	EnvCommitment = "SOLANA_COMMITMENT"

	EnvNodesProgramID   = "HYPERNODE_NODES_PROGRAM_ID"
	EnvJobsProgramID    = "HYPERNODE_JOBS_PROGRAM_ID"
	EnvStakingProgramID = "HYPERNODE_STAKING_PROGRAM_ID"
	EnvRewardsProgramID = "HYPERNODE_REWARDS_PROGRAM_ID"
	EnvAuthority        = "HYPERNODE_AUTHORITY"

	EnvMinStakeAmount   = "MIN_STAKE_AMOUNT"
	EnvMaxStakeAmount   = "MAX_STAKE_AMOUNT"
	EnvMinStakeDuration = "MIN_STAKE_DURATION"
	EnvMaxStakeDuration = "MAX_STAKE_DURATION"
	EnvBaseMultiplier   = "BASE_MULTIPLIER"
	EnvMaxMultiplier    = "MAX_MULTIPLIER"

	EnvMinJobBudget      = "MIN_JOB_BUDGET"
	EnvMaxJobBudget      = "MAX_JOB_BUDGET"
	EnvJobTimeoutSeconds = "JOB_TIMEOUT_SECONDS"
	EnvMaxRetries        = "MAX_RETRIES"
	EnvEscrowFee         = "ESCROW_FEE"

	EnvMinReputation        = "MIN_REPUTATION"
	EnvMaxConcurrentJobs    = "MAX_CONCURRENT_JOBS"
	EnvSlashingPercentage   = "SLASHING_PERCENTAGE"
	EnvSlashingCooldown     = "SLASHING_COOLDOWN"
	EnvHeartbeatMinInterval = "HEARTBEAT_MIN_INTERVAL"
	EnvHeartbeatTimeout     = "HEARTBEAT_TIMEOUT"

	EnvReflectionPercentage = "REFLECTION_PERCENTAGE"
	EnvDailyRewardRate      = "DAILY_REWARD_RATE"
	EnvCompoundingEnabled   = "COMPOUNDING_ENABLED"

	EnvIPFSIntegration = "IPFS_INTEGRATION"
	EnvDynamicQueue    = "DYNAMIC_QUEUE"
	EnvTokenReflection = "TOKEN_REFLECTION"
	EnvAutoSlashing    = "AUTO_SLASHING"

	EnvRequireSigner = "REQUIRE_SIGNER"
	EnvMaxTxSize     = "MAX_TX_SIZE"
	EnvRateLimit     = "RATE_LIMIT"
)

// Daemon settings.
const (
	EnvAPIAddr           = "HYPERNODE_API_ADDR"
	EnvMetricsAddr       = "HYPERNODE_METRICS_ADDR"
	EnvHealthAddr        = "HYPERNODE_HEALTH_ADDR"
	EnvDataDir           = "HYPERNODE_DATA_DIR"
	EnvTracingEndpoint   = "HYPERNODE_TRACING_ENDPOINT"
	EnvTracingSampleRate = "HYPERNODE_TRACING_SAMPLE_RATE"
	EnvNATSURL           = "HYPERNODE_NATS_URL"
	EnvNATSSubject       = "HYPERNODE_NATS_SUBJECT"
	EnvShutdownTimeout   = "HYPERNODE_SHUTDOWN_TIMEOUT"
)

// RequiredVars must be present for Load to succeed.
var RequiredVars = []string{
	EnvRPCURL,
	EnvNodesProgramID,
	EnvJobsProgramID,
	EnvStakingProgramID,
	EnvRewardsProgramID,
}

const rpcURLDisplayLength = 30

// Daemon holds the process settings that are not protocol bounds.
type Daemon struct {
	APIAddr           string
	MetricsAddr       string
	HealthAddr        string
	DataDir           string
	TracingEndpoint   string
	TracingSampleRate float64
	NATSURL           string
	NATSSubject       string
	ShutdownTimeout   time.Duration
}

// Result is the outcome of a dry-run validation.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// NewViper returns a viper instance bound to the process environment with
// every default registered.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the protocol and daemon defaults on v.
func SetDefaults(v *viper.Viper) {
	defaults := map[string]interface{}{
		EnvNetwork:    string(types.NetworkMainnetBeta),
		EnvCommitment: "confirmed",

		EnvMinStakeAmount:   "100000000",
		EnvMaxStakeAmount:   "1000000000000000",
		EnvMinStakeDuration: 14 * types.SecondsPerDay,
		EnvMaxStakeDuration: 4 * 365 * types.SecondsPerDay,
		EnvBaseMultiplier:   1000,
		EnvMaxMultiplier:    4000,

		EnvMinJobBudget:      "1000000",
		EnvMaxJobBudget:      "1000000000000",
		EnvJobTimeoutSeconds: 3600,
		EnvMaxRetries:        3,
		EnvEscrowFee:         "1.0",

		EnvMinReputation:        100,
		EnvMaxConcurrentJobs:    50,
		EnvSlashingPercentage:   "10.0",
		EnvSlashingCooldown:     types.SecondsPerDay,
		EnvHeartbeatMinInterval: 0,
		EnvHeartbeatTimeout:     0,

		EnvReflectionPercentage: "2.0",
		EnvDailyRewardRate:      "0.1",
		EnvCompoundingEnabled:   "true",

		EnvIPFSIntegration: "true",
		EnvDynamicQueue:    "true",
		EnvTokenReflection: "true",
		EnvAutoSlashing:    "true",

		EnvRequireSigner: "true",
		EnvMaxTxSize:     1232,
		EnvRateLimit:     100,

		EnvAPIAddr:           ":8080",
		EnvMetricsAddr:       ":36660",
		EnvHealthAddr:        ":36661",
		EnvDataDir:           "data",
		EnvTracingSampleRate: 0.1,
		EnvNATSSubject:       "hypernode.tx",
		EnvShutdownTimeout:   "10s",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load builds the protocol config from v. Missing required variables,
// unparsable values and every check Validate reports are fatal.
func Load(v *viper.Viper) (types.Config, error) {
	if missing := missingVars(v); len(missing) > 0 {
		return types.Config{}, types.ConfigError("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	cfg, errs := parse(v)
	if len(errs) > 0 {
		return types.Config{}, types.JoinConfigErrors(errs)
	}
	if err := types.JoinConfigErrors(cfg.Validate()); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate is the non-fatal dry run of Load: it reports every problem it
// finds instead of stopping at the first.
func Validate(v *viper.Viper) Result {
	var errs []error
	if missing := missingVars(v); len(missing) > 0 {
		errs = append(errs, types.ConfigError("missing required environment variables: %s", strings.Join(missing, ", ")))
	}
	cfg, parseErrs := parse(v)
	errs = append(errs, parseErrs...)
	if len(parseErrs) == 0 {
		for _, err := range cfg.Validate() {
			if len(errs) > 0 && isMissingIdentifier(err) {
				continue
			}
			errs = append(errs, err)
		}
	}

	res := Result{Valid: len(errs) == 0, Errors: []string{}}
	for _, err := range errs {
		res.Errors = append(res.Errors, err.Error())
	}
	return res
}

// LoadDaemon reads the daemon settings from v.
func LoadDaemon(v *viper.Viper) (Daemon, error) {
	rate, err := cast.ToFloat64E(v.Get(EnvTracingSampleRate))
	if err != nil || rate < 0 || rate > 1 {
		return Daemon{}, types.ConfigError("%s must be a number between 0 and 1", EnvTracingSampleRate)
	}
	timeout, err := cast.ToDurationE(v.Get(EnvShutdownTimeout))
	if err != nil || timeout <= 0 {
		return Daemon{}, types.ConfigError("%s must be a positive duration", EnvShutdownTimeout)
	}
	return Daemon{
		APIAddr:           v.GetString(EnvAPIAddr),
		MetricsAddr:       v.GetString(EnvMetricsAddr),
		HealthAddr:        v.GetString(EnvHealthAddr),
		DataDir:           v.GetString(EnvDataDir),
		TracingEndpoint:   v.GetString(EnvTracingEndpoint),
		TracingSampleRate: rate,
		NATSURL:           v.GetString(EnvNATSURL),
		NATSSubject:       v.GetString(EnvNATSSubject),
		ShutdownTimeout:   timeout,
	}, nil
}

// SanitizeRPCURL shortens an RPC endpoint for logs so embedded credentials
// or API keys do not leak.
func SanitizeRPCURL(url string) string {
	if len(url) <= rpcURLDisplayLength {
		return url + "..."
	}
	return url[:rpcURLDisplayLength] + "..."
}

// LogConfig writes a sanitized summary of cfg.
func LogConfig(logger log.Logger, cfg types.Config) {
	logger.Info("protocol configuration",
		"network", string(cfg.Network),
		"rpc_url", SanitizeRPCURL(cfg.RPCURL),
		"commitment", cfg.Commitment,
		"stake_bounds", fmt.Sprintf("%s/%s", cfg.Staking.MinStakeAmount, cfg.Staking.MaxStakeAmount),
		"job_timeout_seconds", cfg.Jobs.TimeoutSeconds,
		"max_concurrent_jobs", cfg.Nodes.MaxConcurrentJobs,
		"ipfs", cfg.Features.IPFSIntegration,
		"dynamic_queue", cfg.Features.DynamicQueue,
	)
}

func missingVars(v *viper.Viper) []string {
	var missing []string
	for _, key := range RequiredVars {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// isMissingIdentifier filters the per-field required errors already covered
// by the missing-variables message.
func isMissingIdentifier(err error) bool {
	msg := err.Error()
	return strings.HasSuffix(msg, "is required")
}

func parse(v *viper.Viper) (types.Config, []error) {
	p := &parser{v: v}
	cfg := types.Config{
		Network:    types.Network(v.GetString(EnvNetwork)),
		RPCURL:     v.GetString(EnvRPCURL),
		Commitment: v.GetString(EnvCommitment),
		Programs: types.ProgramIDs{
			Nodes:   v.GetString(EnvNodesProgramID),
			Jobs:    v.GetString(EnvJobsProgramID),
			Staking: v.GetString(EnvStakingProgramID),
			Rewards: v.GetString(EnvRewardsProgramID),
		},
		Staking: types.StakingBounds{
			MinStakeAmount:     p.amount(EnvMinStakeAmount),
			MaxStakeAmount:     p.amount(EnvMaxStakeAmount),
			MinDurationSeconds: p.int64(EnvMinStakeDuration),
			MaxDurationSeconds: p.int64(EnvMaxStakeDuration),
			BaseMultiplier:     p.uint64(EnvBaseMultiplier),
			MaxMultiplier:      p.uint64(EnvMaxMultiplier),
		},
		Jobs: types.JobBounds{
			MinBudget:           p.amount(EnvMinJobBudget),
			MaxBudget:           p.amount(EnvMaxJobBudget),
			TimeoutSeconds:      p.int64(EnvJobTimeoutSeconds),
			MaxRetriesPerJob:    p.uint32(EnvMaxRetries),
			EscrowFeePercentage: p.dec(EnvEscrowFee),
		},
		Nodes: types.NodeBounds{
			MinReputation:               p.int64(EnvMinReputation),
			MaxConcurrentJobs:           p.int64(EnvMaxConcurrentJobs),
			SlashingPercentage:          p.dec(EnvSlashingPercentage),
			SlashingCooldownSeconds:     p.int64(EnvSlashingCooldown),
			HeartbeatMinIntervalSeconds: p.int64(EnvHeartbeatMinInterval),
			HeartbeatTimeoutSeconds:     p.int64(EnvHeartbeatTimeout),
		},
		Rewards: types.RewardBounds{
			ReflectionPercentage: p.dec(EnvReflectionPercentage),
			DailyRewardRate:      p.dec(EnvDailyRewardRate),
			CompoundingEnabled:   p.flag(EnvCompoundingEnabled),
		},
		Features: types.FeatureFlags{
			IPFSIntegration: p.flag(EnvIPFSIntegration),
			DynamicQueue:    p.flag(EnvDynamicQueue),
			TokenReflection: p.flag(EnvTokenReflection),
			AutoSlashing:    p.flag(EnvAutoSlashing),
		},
		Security: types.SecurityBounds{
			RequireSignerVerification: p.flag(EnvRequireSigner),
			MaxTransactionSize:        p.int64(EnvMaxTxSize),
			RateLimit:                 p.int64(EnvRateLimit),
		},
		Authority: strings.TrimSpace(v.GetString(EnvAuthority)),
	}
	return cfg, p.errs
}

// parser reads typed values from viper and collects every parse failure.
type parser struct {
	v    *viper.Viper
	errs []error
}

func (p *parser) fail(key string, value interface{}, kind string) {
	p.errs = append(p.errs, types.ConfigError("%s must be %s, got %q", key, kind, cast.ToString(value)))
}

// Integers are read in base 10 only, so "010" is ten and "0x64" is an error.
func (p *parser) int64(key string) int64 {
	raw := strings.TrimSpace(p.v.GetString(key))
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.fail(key, raw, "an integer")
	}
	return n
}

func (p *parser) uint64(key string) uint64 {
	raw := strings.TrimSpace(p.v.GetString(key))
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		p.fail(key, raw, "a non-negative integer")
	}
	return n
}

func (p *parser) uint32(key string) uint32 {
	raw := strings.TrimSpace(p.v.GetString(key))
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		p.fail(key, raw, "a non-negative integer")
	}
	return uint32(n)
}

func (p *parser) amount(key string) math.Int {
	raw := strings.TrimSpace(p.v.GetString(key))
	n, ok := math.NewIntFromString(raw)
	if !ok {
		p.fail(key, raw, "an integer amount")
		return math.ZeroInt()
	}
	return n
}

func (p *parser) dec(key string) math.LegacyDec {
	raw := strings.TrimSpace(p.v.GetString(key))
	d, err := math.LegacyNewDecFromStr(raw)
	if err != nil {
		p.fail(key, raw, "a decimal number")
		return math.LegacyZeroDec()
	}
	return d
}

// flag is on unless the variable is exactly "false".
func (p *parser) flag(key string) bool {
	return p.v.GetString(key) != "false"
}
