package api

import (
	"net/http"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/hypernode-network/hypernode/app/config"
	"github.com/hypernode-network/hypernode/x/hypernode/keeper"
	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// PendingRewardsResponse previews a claim.
type PendingRewardsResponse struct {
	Stake   types.Address `json:"stake"`
	Pending sdkmath.Int   `json:"pending"`
}

// MultiplierResponse is the result of a multiplier calculation.
type MultiplierResponse struct {
	Amount          sdkmath.Int `json:"amount"`
	DurationSeconds int64       `json:"duration_seconds"`
	Multiplier      uint64      `json:"multiplier"`
}

// AddressResponse is a derived record address.
type AddressResponse struct {
	Tag     string        `json:"tag"`
	Address types.Address `json:"address"`
}

// query runs fn on the latest state and writes its result.
func (s *Server) query(c *gin.Context, fn func(ctx sdk.Context, k *keeper.Keeper) (interface{}, error)) {
	var out interface{}
	err := s.ledger.Query(c.Request.Context(), func(ctx sdk.Context, k *keeper.Keeper) error {
		var err error
		out, err = fn(ctx, k)
		return err
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := cast.ToIntE(raw)
	if err != nil || limit < 0 {
		return 0, malformed("limit must be a non-negative integer")
	}
	return limit, nil
}

func (s *Server) handleListJobs(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var status *types.JobStatus
	if raw := c.Query("status"); raw != "" {
		var st types.JobStatus
		if err := st.UnmarshalText([]byte(raw)); err != nil {
			s.fail(c, malformed("%v", err))
			return
		}
		status = &st
	}
	s.query(c, func(ctx sdk.Context, k *keeper.Keeper) (interface{}, error) {
		jobs, err := k.ListJobs(ctx, status, limit)
		if jobs == nil {
			jobs = []types.Job{}
		}
		return jobs, err
	})
}

func (s *Server) handleGetJob(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.query(c, func(ctx sdk.Context, k *keeper.Keeper) (interface{}, error) {
		job, found, err := k.GetJob(ctx, addr)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, types.InputError(types.ErrJobNotFound, "job %s not found", addr)
		}
		return job, nil
	})
}

func (s *Server) handleListNodes(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	var status *types.NodeStatus
	if raw := c.Query("status"); raw != "" {
		st, err := types.ParseNodeStatus(raw)
		if err != nil {
			s.fail(c, err)
			return
		}
		status = &st
	}
	s.query(c, func(ctx sdk.Context, k *keeper.Keeper) (interface{}, error) {
		nodes, err := k.ListNodes(ctx, status, limit)
		if nodes == nil {
			nodes = []types.Node{}
		}
		return nodes, err
	})
}

func (s *Server) handleGetNode(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.query(c, func(ctx sdk.Context, k *keeper.Keeper) (interface{}, error) {
		node, found, err := k.GetNode(ctx, addr)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, types.InputError(types.ErrNodeNotFound, "node %s not found", addr)
		}
		return node, nil
	})
}

func (s *Server) handleGetSlashes(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.query(c, func(ctx sdk.Context, k *keeper.Keeper) (interface{}, error) {
		records, err := k.GetSlashRecords(ctx, addr)
		if records == nil {
			records = []types.SlashRecord{}
		}
		return records, err
	})
}

func (s *Server) handleEligibleNodes(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	filter := types.EligibilityFilter{Location: c.Query("location"), Limit: limit}
	s.query(c, func(ctx sdk.Context, k *keeper.Keeper) (interface{}, error) {
		nodes, err := k.FindEligibleNodes(ctx, filter)
		if nodes == nil {
			nodes = []types.Node{}
		}
		return nodes, err
	})
}

func (s *Server) handleGetStake(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.query(c, func(ctx sdk.Context, k *keeper.Keeper) (interface{}, error) {
		pos, found, err := k.GetStake(ctx, addr)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, types.InputError(types.ErrNoStake, "no stake at %s", addr)
		}
		return pos, nil
	})
}

func (s *Server) handlePendingRewards(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.query(c, func(ctx sdk.Context, k *keeper.Keeper) (interface{}, error) {
		pending, err := k.PendingRewards(ctx, addr)
		if err != nil {
			return nil, err
		}
		return PendingRewardsResponse{Stake: addr, Pending: pending}, nil
	})
}

func (s *Server) handleGetSplitter(c *gin.Context) {
	s.query(c, func(ctx sdk.Context, k *keeper.Keeper) (interface{}, error) {
		cfg, found, err := k.GetSplitterConfig(ctx)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, types.InputError(types.ErrSplitterNotInitialized, "payment splitter has not been initialized")
		}
		return cfg, nil
	})
}

func (s *Server) handleGetPool(c *gin.Context) {
	s.query(c, func(ctx sdk.Context, k *keeper.Keeper) (interface{}, error) {
		pool, err := k.GetRewardPool(ctx)
		if err != nil {
			return nil, err
		}
		return pool, nil
	})
}

func (s *Server) handleMultiplier(c *gin.Context) {
	amount, err := types.ParseInteger("amount", c.Query("amount"))
	if err != nil {
		s.fail(c, err)
		return
	}
	duration, err := cast.ToInt64E(c.Query("duration"))
	if err != nil {
		s.fail(c, types.InputError(types.ErrNotInteger, "duration must be an integer number of seconds"))
		return
	}
	m, err := types.CalculateMultiplier(s.protocol, amount, duration)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MultiplierResponse{Amount: amount, DurationSeconds: duration, Multiplier: m})
}

func (s *Server) handleConfig(c *gin.Context) {
	cfg := s.protocol
	cfg.RPCURL = config.SanitizeRPCURL(cfg.RPCURL)
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleDeriveAddress(c *gin.Context) {
	tag := c.Param("tag")
	var addr types.Address
	switch tag {
	case types.TagSplitterConfig:
		addr = types.SplitterConfigAddress()
	case types.TagRewardPool:
		addr = types.RewardPoolAddress()
	case types.TagJob, types.TagNode, types.TagStake:
		owner, err := types.ParsePublicKey(c.Query("owner"))
		if err != nil {
			s.fail(c, err)
			return
		}
		id := c.Query("id")
		if id == "" {
			s.fail(c, malformed("id is required"))
			return
		}
		addr = types.DeriveAddress(tag, owner, id)
	default:
		s.fail(c, malformed("unknown address tag %q", tag))
		return
	}
	c.JSON(http.StatusOK, AddressResponse{Tag: tag, Address: addr})
}
