package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hypernode-network/hypernode/api"
	"github.com/hypernode-network/hypernode/app/config"
	"github.com/hypernode-network/hypernode/app/events"
	"github.com/hypernode-network/hypernode/app/health"
	"github.com/hypernode-network/hypernode/app/ledger"
	"github.com/hypernode-network/hypernode/app/telemetry"
)

const natsClientName = "hypernoded"

// StartCmd runs the daemon until SIGINT or SIGTERM.
func StartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Open the ledger and serve the API, health and metrics endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, log.NewLogger(cmd.ErrOrStderr()))
		},
	}
}

func runDaemon(ctx context.Context, logger log.Logger) error {
	v := config.NewViper()
	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	daemon, err := config.LoadDaemon(v)
	if err != nil {
		return fmt.Errorf("failed to load daemon settings: %w", err)
	}
	config.LogConfig(logger, cfg)

	provider, err := telemetry.NewProvider(telemetry.Config{
		Endpoint:          daemon.TracingEndpoint,
		SampleRate:        daemon.TracingSampleRate,
		Environment:       string(cfg.Network),
		PrometheusEnabled: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), daemon.ShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	db, err := ledger.OpenLevelDB(daemon.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open database in %s: %w", daemon.DataDir, err)
	}

	var (
		opts []ledger.Option
		conn *nats.Conn
	)
	if daemon.NATSURL != "" {
		conn, err = events.Connect(daemon.NATSURL, natsClientName)
		if err != nil {
			_ = db.Close()
			return err
		}
		defer conn.Close()
		opts = append(opts, ledger.WithPublisher(events.NewPublisher(conn, daemon.NATSSubject, logger)))
		logger.Info("publishing ledger events", "url", config.SanitizeRPCURL(daemon.NATSURL), "subject", daemon.NATSSubject)
	}

	l, err := ledger.Open(db, cfg, logger, opts...)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			logger.Error("failed to close ledger", "error", err)
		}
	}()

	checker := health.NewChecker(logger, health.DefaultConfig())
	checker.AddProbe("ledger", health.LedgerProbe(l))
	checker.AddProbe("config", health.ConfigProbe(cfg))
	checker.AddDetailedProbe("invariants", health.InvariantProbe(l))
	checker.AddDetailedProbe("telemetry", health.ErrorProbe(provider.HealthCheck))
	if conn != nil {
		checker.AddProbe("events", health.ErrorProbe(func() error {
			if !conn.IsConnected() {
				return fmt.Errorf("nats connection is %v", conn.Status())
			}
			return nil
		}))
	}

	apiConfig := api.DefaultConfig()
	apiConfig.Addr = daemon.APIAddr
	apiConfig.ShutdownTimeout = daemon.ShutdownTimeout
	server := api.NewServer(l, cfg, apiConfig, logger)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		return serve(gctx, logger, "metrics", daemon.MetricsAddr, metricsMux, daemon.ShutdownTimeout)
	})
	g.Go(func() error {
		return serve(gctx, logger, "health", daemon.HealthAddr, checker.Handler(), daemon.ShutdownTimeout)
	})

	err = g.Wait()
	logger.Info("daemon stopped", "version", l.Version())
	return err
}

// serve runs an auxiliary HTTP server until ctx is cancelled.
func serve(ctx context.Context, logger log.Logger, name, addr string, handler http.Handler, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "server", name, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server failed: %w", name, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
