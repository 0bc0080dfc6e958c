package api

// registerRoutes sets up all API routes
func (s *Server) registerRoutes() {
	v1 := s.router.Group("/v1")

	// Queries
	v1.GET("/jobs", s.handleListJobs)
	v1.GET("/jobs/:address", s.handleGetJob)
	v1.GET("/nodes", s.handleListNodes)
	v1.GET("/nodes/:address", s.handleGetNode)
	v1.GET("/nodes/:address/slashes", s.handleGetSlashes)
	v1.GET("/eligible-nodes", s.handleEligibleNodes)
	v1.GET("/stakes/:address", s.handleGetStake)
	v1.GET("/stakes/:address/pending", s.handlePendingRewards)
	v1.GET("/splitter", s.handleGetSplitter)
	v1.GET("/pool", s.handleGetPool)
	v1.GET("/multiplier", s.handleMultiplier)
	v1.GET("/config", s.handleConfig)
	v1.GET("/address/:tag", s.handleDeriveAddress)

	// Signed transactions
	tx := v1.Group("", s.SignedTxMiddleware())
	{
		tx.POST("/jobs", s.handleCreateJob)
		tx.POST("/jobs/:address/assign", s.handleAssignJob)
		tx.POST("/jobs/:address/result", s.handleSubmitResult)
		tx.POST("/jobs/:address/cancel", s.handleCancelJob)
		tx.POST("/jobs/:address/expire", s.handleExpireJob)

		tx.POST("/nodes", s.handleRegisterNode)
		tx.POST("/nodes/:address/slash", s.handleSlashNode)

		tx.POST("/stakes", s.handleStake)
		tx.POST("/stakes/:address/accrue", s.handleAccrueStake)

		tx.POST("/splitter", s.handleInitializeSplitter)
		tx.PUT("/splitter", s.handleUpdateSplitter)
		tx.POST("/splitter/withdraw", s.handleWithdrawTreasury)

		// Operations on records owned by the signer, addressed by their id.
		own := tx.Group("/own")
		own.POST("/nodes/:node_id/status", s.handleUpdateNodeStatus)
		own.POST("/nodes/:node_id/heartbeat", s.handleHeartbeat)
		own.DELETE("/nodes/:node_id", s.handleDeregisterNode)
		own.POST("/stakes/:stake_id/unstake", s.handleUnstake)
		own.POST("/stakes/:stake_id/claim", s.handleClaimRewards)
	}
}
