package api

import (
	"encoding/json"
	"net/http"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// CreateJobRequest posts a job. An empty job_id is replaced by a generated
// one.
type CreateJobRequest struct {
	JobID            string             `json:"job_id"`
	JobType          types.JobType      `json:"job_type"`
	Price            sdkmath.Int        `json:"price"`
	RequirementsHash string             `json:"requirements_hash"`
	Definition       json.RawMessage    `json:"definition,omitempty"`
	TimeoutSeconds   int64              `json:"timeout_seconds,omitempty"`
	EscrowFee        *sdkmath.LegacyDec `json:"escrow_fee,omitempty"`
}

// AssignJobRequest names the node that should run a job.
type AssignJobRequest struct {
	NodeOwner types.PublicKey `json:"node_owner"`
	NodeID    string          `json:"node_id"`
}

// SubmitResultRequest carries a job's output.
type SubmitResultRequest struct {
	ResultHash string          `json:"result_hash"`
	LogsURL    string          `json:"logs_url"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// RegisterNodeRequest registers a node for the signer.
type RegisterNodeRequest struct {
	NodeID            string `json:"node_id"`
	GPUSpecsHash      string `json:"gpu_specs_hash"`
	Location          string `json:"location"`
	MaxConcurrentJobs int64  `json:"max_concurrent_jobs"`
}

// NodeStatusRequest changes a node's status.
type NodeStatusRequest struct {
	Status types.NodeStatus `json:"status"`
}

// SlashRequest gives the reason for a slash.
type SlashRequest struct {
	Reason string `json:"reason"`
}

// SharesRequest carries split percentages. The fields are wider than the
// stored shares so out-of-range values reach validation instead of the decoder.
type SharesRequest struct {
	Operator     int64 `json:"operator"`
	Treasury     int64 `json:"treasury"`
	Incentive    int64 `json:"incentive"`
	Orchestrator int64 `json:"orchestrator"`
}

func (r SharesRequest) shares() (types.Shares, error) {
	return types.SharesFromPercentages(r.Operator, r.Treasury, r.Incentive, r.Orchestrator)
}

// WithdrawRequest moves funds out of the treasury.
type WithdrawRequest struct {
	Amount sdkmath.Int `json:"amount"`
}

// StakeRequest opens a stake position for the signer.
type StakeRequest struct {
	StakeID         string      `json:"stake_id"`
	Amount          sdkmath.Int `json:"amount"`
	DurationSeconds int64       `json:"duration_seconds"`
}

// bind decodes the verified body into req. Typed decode failures keep their
// own code; anything else is a malformed request.
func bind(c *gin.Context, req interface{}) error {
	body, _ := c.Get(ctxBody)
	raw, _ := body.([]byte)
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, req); err != nil {
		if types.CodeOf(err) != "INTERNAL" {
			return err
		}
		return malformed("invalid request body: %v", err)
	}
	return nil
}

func pathAddress(c *gin.Context) (types.Address, error) {
	addr, err := types.ParseAddress(c.Param("address"))
	if err != nil {
		return types.Address{}, types.InputError(types.ErrInvalidAddress, "%v", err)
	}
	return addr, nil
}

// execute runs msg and writes the committed response.
func (s *Server) execute(c *gin.Context, msg types.Msg) {
	resp, err := s.ledger.Execute(c.Request.Context(), msg)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func newJobID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Server) handleCreateJob(c *gin.Context) {
	var req CreateJobRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	if req.JobID == "" {
		req.JobID = newJobID()
	}

	msg := &types.MsgCreateJob{
		Client:           signerFrom(c),
		JobID:            req.JobID,
		JobType:          req.JobType,
		Price:            req.Price,
		RequirementsHash: req.RequirementsHash,
		TimeoutSeconds:   req.TimeoutSeconds,
		EscrowFee:        req.EscrowFee,
	}
	if len(req.Definition) > 0 {
		def, err := types.ParseJobDefinition(req.Definition)
		if err != nil {
			s.fail(c, err)
			return
		}
		msg.Definition = def
	}
	s.execute(c, msg)
}

func (s *Server) handleAssignJob(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req AssignJobRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	s.execute(c, &types.MsgAssignJob{
		Authority: signerFrom(c),
		Job:       addr,
		NodeOwner: req.NodeOwner,
		NodeID:    req.NodeID,
	})
}

func (s *Server) handleSubmitResult(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req SubmitResultRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}

	msg := &types.MsgSubmitResult{
		Operator:   signerFrom(c),
		Job:        addr,
		ResultHash: req.ResultHash,
		LogsURL:    req.LogsURL,
	}
	if len(req.Result) > 0 {
		res, err := types.ParseJobResult(req.Result)
		if err != nil {
			s.fail(c, err)
			return
		}
		msg.Result = res
	}
	s.execute(c, msg)
}

func (s *Server) handleCancelJob(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.execute(c, &types.MsgCancelJob{Client: signerFrom(c), Job: addr})
}

func (s *Server) handleExpireJob(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.execute(c, &types.MsgExpireJob{Signer: signerFrom(c), Job: addr})
}

func (s *Server) handleRegisterNode(c *gin.Context) {
	var req RegisterNodeRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	s.execute(c, &types.MsgRegisterNode{
		Owner:             signerFrom(c),
		NodeID:            req.NodeID,
		GPUSpecsHash:      req.GPUSpecsHash,
		Location:          req.Location,
		MaxConcurrentJobs: req.MaxConcurrentJobs,
	})
}

func (s *Server) handleUpdateNodeStatus(c *gin.Context) {
	var req NodeStatusRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	s.execute(c, &types.MsgUpdateNodeStatus{
		Owner:  signerFrom(c),
		NodeID: c.Param("node_id"),
		Status: req.Status,
	})
}

func (s *Server) handleHeartbeat(c *gin.Context) {
	s.execute(c, &types.MsgUpdateHeartbeat{Owner: signerFrom(c), NodeID: c.Param("node_id")})
}

func (s *Server) handleDeregisterNode(c *gin.Context) {
	s.execute(c, &types.MsgDeregisterNode{Owner: signerFrom(c), NodeID: c.Param("node_id")})
}

func (s *Server) handleSlashNode(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var req SlashRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	s.execute(c, &types.MsgSlashNode{Authority: signerFrom(c), Node: addr, Reason: req.Reason})
}

func (s *Server) handleInitializeSplitter(c *gin.Context) {
	var req SharesRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	shares, err := req.shares()
	if err != nil {
		s.fail(c, err)
		return
	}
	s.execute(c, &types.MsgInitializeSplitter{Authority: signerFrom(c), Shares: shares})
}

func (s *Server) handleUpdateSplitter(c *gin.Context) {
	var req SharesRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	shares, err := req.shares()
	if err != nil {
		s.fail(c, err)
		return
	}
	s.execute(c, &types.MsgUpdateSplitter{Authority: signerFrom(c), Shares: shares})
}

func (s *Server) handleWithdrawTreasury(c *gin.Context) {
	var req WithdrawRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	s.execute(c, &types.MsgWithdrawTreasury{Authority: signerFrom(c), Amount: req.Amount})
}

func (s *Server) handleStake(c *gin.Context) {
	var req StakeRequest
	if err := bind(c, &req); err != nil {
		s.fail(c, err)
		return
	}
	s.execute(c, &types.MsgStake{
		Owner:           signerFrom(c),
		StakeID:         req.StakeID,
		Amount:          req.Amount,
		DurationSeconds: req.DurationSeconds,
	})
}

func (s *Server) handleUnstake(c *gin.Context) {
	s.execute(c, &types.MsgUnstake{Owner: signerFrom(c), StakeID: c.Param("stake_id")})
}

func (s *Server) handleAccrueStake(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.execute(c, &types.MsgAccrueStake{Signer: signerFrom(c), Stake: addr})
}

func (s *Server) handleClaimRewards(c *gin.Context) {
	s.execute(c, &types.MsgClaimRewards{Owner: signerFrom(c), StakeID: c.Param("stake_id")})
}
