package client

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/cosmos/btcutil/base58"

	"github.com/hypernode-network/hypernode/api"
	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// Processor runs one assigned job and returns its output.
type Processor func(ctx context.Context, job types.Job) (*types.JobResult, error)

// OperatorConfig configures a node operator agent.
type OperatorConfig struct {
	NodeID       string
	PollInterval time.Duration
	// LogsBaseURL, when set, is joined with the job id to form the logs URL
	// reported with each result.
	LogsBaseURL   string
	MaxRetries    uint64
	RetryInterval time.Duration
}

// DefaultOperatorConfig returns the agent defaults for nodeID.
func DefaultOperatorConfig(nodeID string) OperatorConfig {
	return OperatorConfig{
		NodeID:        nodeID,
		PollInterval:  5 * time.Second,
		MaxRetries:    3,
		RetryInterval: time.Second,
	}
}

// Operator runs the node side of the job lifecycle: it keeps the node's
// heartbeat fresh, picks up jobs assigned to it and submits their results.
type Operator struct {
	client  *Client
	config  OperatorConfig
	process Processor
	logger  log.Logger
	skipped map[types.Address]struct{}
}

// NewOperator creates an agent for the node nodeID owned by c's signer.
func NewOperator(c *Client, cfg OperatorConfig, process Processor, logger log.Logger) *Operator {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Operator{
		client:  c,
		config:  cfg,
		process: process,
		logger:  logger.With("module", "operator", "node_id", cfg.NodeID),
		skipped: make(map[types.Address]struct{}),
	}
}

// Run polls until ctx is cancelled.
func (o *Operator) Run(ctx context.Context) error {
	o.logger.Info("starting job polling", "interval", o.config.PollInterval)

	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("job polling stopped")
			return nil
		case <-ticker.C:
			if _, err := o.client.Heartbeat(ctx, o.config.NodeID); err != nil {
				o.logger.Error("heartbeat failed", "error", err)
			}
			if _, err := o.PollOnce(ctx); err != nil {
				o.logger.Error("error checking for jobs", "error", err)
			}
		}
	}
}

// PollOnce processes every job currently assigned to the node and returns
// how many results were submitted.
func (o *Operator) PollOnce(ctx context.Context) (int, error) {
	assigned := types.JobStatusAssigned
	jobs, err := o.client.ListJobs(ctx, &assigned, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to list jobs: %w", err)
	}

	submitted := 0
	for _, job := range jobs {
		if job.AssignedNode != o.client.Signer() || job.AssignedNodeID != o.config.NodeID {
			continue
		}
		if _, ok := o.skipped[job.Address()]; ok {
			continue
		}
		if err := o.processJob(ctx, job); err != nil {
			o.logger.Error("failed to process job", "job_id", job.JobID, "error", err)
			o.skipped[job.Address()] = struct{}{}
			continue
		}
		submitted++
	}
	return submitted, nil
}

func (o *Operator) processJob(ctx context.Context, job types.Job) error {
	o.logger.Info("processing job", "job_id", job.JobID, "type", job.JobType.String(), "model", job.Model)

	result, err := o.process(ctx, job)
	if err != nil {
		return fmt.Errorf("processor failed: %w", err)
	}
	if err := types.ValidateJobResult(result); err != nil {
		return err
	}

	req := api.SubmitResultRequest{ResultHash: ContentHash([]byte(result.Output))}
	if o.config.LogsBaseURL != "" {
		req.LogsURL = o.config.LogsBaseURL + "/" + job.JobID
	}
	if req.Result, err = json.Marshal(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	return o.retry(ctx, func() error {
		_, err := o.client.SubmitResult(ctx, job.Address(), req)
		return err
	})
}

// retry runs op with exponential backoff. Only temporary API failures and
// transport errors are retried.
func (o *Operator) retry(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.config.RetryInterval
	b.MaxElapsedTime = 0

	return backoff.Retry(func() error {
		err := op()
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, o.config.MaxRetries), ctx))
}

// ContentHash returns the CIDv0 form (sha2-256 multihash, base58) of data,
// the hash format accepted when IPFS integration is enabled.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return base58.Encode(append([]byte{0x12, 0x20}, sum[:]...))
}
