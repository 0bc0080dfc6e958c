// Package api exposes the hypernode ledger over a JSON HTTP interface. Every
// mutating request is one signed, atomic ledger transaction.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/hypernode-network/hypernode/x/hypernode/keeper"
	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// Ledger is the transaction surface the server drives.
type Ledger interface {
	Execute(ctx context.Context, msg types.Msg) (*types.TxResponse, error)
	Query(ctx context.Context, fn func(ctx sdk.Context, k *keeper.Keeper) error) error
}

// Config holds server configuration
type Config struct {
	Addr            string
	CORSOrigins     []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// Clock is the time source for request timestamp checks. Defaults to
	// time.Now.
	Clock func() time.Time
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		CORSOrigins:     []string{"*"},
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Clock:           time.Now,
	}
}

// Server represents the main API server
type Server struct {
	router   *gin.Engine
	ledger   Ledger
	protocol types.Config
	config   Config
	logger   log.Logger
	limiter  *signerLimiter
}

// NewServer wires the routes and middleware around ledger.
func NewServer(ledger Ledger, protocol types.Config, config Config, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Server{
		ledger:   ledger,
		protocol: protocol,
		config:   config,
		logger:   logger.With("module", "api"),
		limiter:  newSignerLimiter(protocol.Security.RateLimit),
	}
	s.setupRouter()
	return s
}

func (s *Server) now() time.Time {
	if s.config.Clock == nil {
		return time.Now()
	}
	return s.config.Clock()
}

func (s *Server) setupRouter() {
	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(SecurityHeadersMiddleware())
	s.router.Use(RequestIDMiddleware())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(MetricsMiddleware())

	s.registerRoutes()
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", HeaderSigner, HeaderSignature, HeaderTimestamp, HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID},
		MaxAge:         86400,
	}).Handler(s.router)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.config.WriteTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "addr", s.config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("API server stopped")
	return nil
}
