package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	sdkmath "cosmossdk.io/math"

	"github.com/hypernode-network/hypernode/api"
	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// Jobs

func (c *Client) CreateJob(ctx context.Context, req api.CreateJobRequest) (types.Job, error) {
	var job types.Job
	_, err := c.tx(ctx, http.MethodPost, "/v1/jobs", req, &job)
	return job, err
}

func (c *Client) AssignJob(ctx context.Context, job types.Address, nodeOwner types.PublicKey, nodeID string) (types.Job, error) {
	var out types.Job
	_, err := c.tx(ctx, http.MethodPost, "/v1/jobs/"+job.String()+"/assign",
		api.AssignJobRequest{NodeOwner: nodeOwner, NodeID: nodeID}, &out)
	return out, err
}

func (c *Client) SubmitResult(ctx context.Context, job types.Address, req api.SubmitResultRequest) (types.Job, error) {
	var out types.Job
	_, err := c.tx(ctx, http.MethodPost, "/v1/jobs/"+job.String()+"/result", req, &out)
	return out, err
}

func (c *Client) CancelJob(ctx context.Context, job types.Address) (types.Job, error) {
	var out types.Job
	_, err := c.tx(ctx, http.MethodPost, "/v1/jobs/"+job.String()+"/cancel", nil, &out)
	return out, err
}

func (c *Client) GetJob(ctx context.Context, job types.Address) (types.Job, error) {
	var out types.Job
	err := c.do(ctx, http.MethodGet, "/v1/jobs/"+job.String(), nil, nil, false, &out)
	return out, err
}

// ListJobs returns jobs in status, or all jobs when status is nil.
func (c *Client) ListJobs(ctx context.Context, status *types.JobStatus, limit int) ([]types.Job, error) {
	query := url.Values{}
	if status != nil {
		query.Set("status", status.String())
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out []types.Job
	err := c.do(ctx, http.MethodGet, "/v1/jobs", query, nil, false, &out)
	return out, err
}

// Nodes

func (c *Client) RegisterNode(ctx context.Context, req api.RegisterNodeRequest) (types.Node, error) {
	var node types.Node
	_, err := c.tx(ctx, http.MethodPost, "/v1/nodes", req, &node)
	return node, err
}

func (c *Client) Heartbeat(ctx context.Context, nodeID string) (types.Node, error) {
	var node types.Node
	_, err := c.tx(ctx, http.MethodPost, "/v1/own/nodes/"+url.PathEscape(nodeID)+"/heartbeat", nil, &node)
	return node, err
}

func (c *Client) SetNodeStatus(ctx context.Context, nodeID string, status types.NodeStatus) (types.Node, error) {
	var node types.Node
	_, err := c.tx(ctx, http.MethodPost, "/v1/own/nodes/"+url.PathEscape(nodeID)+"/status",
		api.NodeStatusRequest{Status: status}, &node)
	return node, err
}

func (c *Client) GetNode(ctx context.Context, node types.Address) (types.Node, error) {
	var out types.Node
	err := c.do(ctx, http.MethodGet, "/v1/nodes/"+node.String(), nil, nil, false, &out)
	return out, err
}

// Splitter

func (c *Client) InitializeSplitter(ctx context.Context, shares types.Shares) (types.SplitterConfig, error) {
	var cfg types.SplitterConfig
	_, err := c.tx(ctx, http.MethodPost, "/v1/splitter", shares, &cfg)
	return cfg, err
}

func (c *Client) GetSplitter(ctx context.Context) (types.SplitterConfig, error) {
	var cfg types.SplitterConfig
	err := c.do(ctx, http.MethodGet, "/v1/splitter", nil, nil, false, &cfg)
	return cfg, err
}

// Staking

func (c *Client) Stake(ctx context.Context, stakeID string, amount sdkmath.Int, durationSeconds int64) (types.StakePosition, error) {
	var pos types.StakePosition
	_, err := c.tx(ctx, http.MethodPost, "/v1/stakes",
		api.StakeRequest{StakeID: stakeID, Amount: amount, DurationSeconds: durationSeconds}, &pos)
	return pos, err
}

func (c *Client) ClaimRewards(ctx context.Context, stakeID string) (types.RewardPayout, error) {
	var payout types.RewardPayout
	_, err := c.tx(ctx, http.MethodPost, "/v1/own/stakes/"+url.PathEscape(stakeID)+"/claim", nil, &payout)
	return payout, err
}

func (c *Client) PendingRewards(ctx context.Context, stake types.Address) (sdkmath.Int, error) {
	var out api.PendingRewardsResponse
	err := c.do(ctx, http.MethodGet, "/v1/stakes/"+stake.String()+"/pending", nil, nil, false, &out)
	return out.Pending, err
}
