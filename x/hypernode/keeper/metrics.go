package keeper

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HypernodeMetrics holds all Prometheus metrics for the hypernode module
type HypernodeMetrics struct {
	// Job metrics
	JobsCreated      *prometheus.CounterVec
	JobsAssigned     prometheus.Counter
	JobsCompleted    *prometheus.CounterVec
	JobsCancelled    prometheus.Counter
	JobsExpired      *prometheus.CounterVec
	JobExecutionTime prometheus.Histogram

	// Node metrics
	NodesRegistered   prometheus.Counter
	NodesDeregistered prometheus.Counter
	NodeSlashing      *prometheus.CounterVec
	Heartbeats        prometheus.Counter

	// Payment metrics
	PaymentsDistributed prometheus.Counter
	PaymentVolume       prometheus.Counter
	TreasuryWithdrawals prometheus.Counter

	// Staking and reward metrics
	StakesOpened      prometheus.Counter
	StakesClosed      prometheus.Counter
	ReflectionSkimmed prometheus.Counter
	RewardsClaimed    prometheus.Counter

	// Transaction metrics
	TxProcessed *prometheus.CounterVec
	TxDuration  *prometheus.HistogramVec
}

var (
	hypernodeMetricsOnce sync.Once
	hypernodeMetrics     *HypernodeMetrics
)

// NewHypernodeMetrics creates and registers hypernode metrics (singleton pattern)
func NewHypernodeMetrics() *HypernodeMetrics {
	hypernodeMetricsOnce.Do(func() {
		hypernodeMetrics = &HypernodeMetrics{
			JobsCreated: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "jobs",
					Name:      "created_total",
					Help:      "Total jobs created",
				},
				[]string{"job_type"},
			),
			JobsAssigned: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "jobs",
					Name:      "assigned_total",
					Help:      "Total job assignments, including reassignments after timeout",
				},
			),
			JobsCompleted: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "jobs",
					Name:      "completed_total",
					Help:      "Total jobs completed and settled",
				},
				[]string{"job_type"},
			),
			JobsCancelled: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "jobs",
					Name:      "cancelled_total",
					Help:      "Total jobs cancelled by their client",
				},
			),
			JobsExpired: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "jobs",
					Name:      "expired_total",
					Help:      "Total job timeouts by outcome",
				},
				[]string{"outcome"},
			),
			JobExecutionTime: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "hypernode",
					Subsystem: "jobs",
					Name:      "execution_seconds",
					Help:      "Seconds between assignment and result submission",
					Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
				},
			),

			NodesRegistered: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "nodes",
					Name:      "registered_total",
					Help:      "Total nodes registered",
				},
			),
			NodesDeregistered: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "nodes",
					Name:      "deregistered_total",
					Help:      "Total nodes deregistered",
				},
			),
			NodeSlashing: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "nodes",
					Name:      "slashed_total",
					Help:      "Total slashing events by source",
				},
				[]string{"source"},
			),
			Heartbeats: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "nodes",
					Name:      "heartbeats_total",
					Help:      "Total accepted heartbeats",
				},
			),

			PaymentsDistributed: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "payments",
					Name:      "distributed_total",
					Help:      "Total settled payments",
				},
			),
			PaymentVolume: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "payments",
					Name:      "volume_total",
					Help:      "Total settled price volume in base units",
				},
			),
			TreasuryWithdrawals: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "payments",
					Name:      "treasury_withdrawals_total",
					Help:      "Total treasury withdrawals",
				},
			),

			StakesOpened: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "staking",
					Name:      "stakes_opened_total",
					Help:      "Total stake positions opened",
				},
			),
			StakesClosed: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "staking",
					Name:      "stakes_closed_total",
					Help:      "Total stake positions withdrawn",
				},
			),
			ReflectionSkimmed: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "rewards",
					Name:      "reflection_total",
					Help:      "Total amount reflected to stakers or the idle pool",
				},
			),
			RewardsClaimed: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "rewards",
					Name:      "claimed_total",
					Help:      "Total rewards claimed",
				},
			),

			TxProcessed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "hypernode",
					Subsystem: "tx",
					Name:      "processed_total",
					Help:      "Total ledger operations by type and result code",
				},
				[]string{"msg_type", "code"},
			),
			TxDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "hypernode",
					Subsystem: "tx",
					Name:      "duration_seconds",
					Help:      "Ledger operation latency",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"msg_type"},
			),
		}
	})
	return hypernodeMetrics
}
