// Package health serves liveness and readiness endpoints for the hypernode
// daemon.
//
// Endpoints:
// - /health - Basic liveness check
// - /health/ready - Readiness check for load balancers
// - /health/detailed - Every probe, including the ledger invariants
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusUnknown   Status = "unknown"
)

// ComponentHealth represents the health status of a single component
type ComponentHealth struct {
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`
}

// HealthCheck represents the overall health check response
type HealthCheck struct {
	Status     Status                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// Probe checks one component.
type Probe func(ctx context.Context) ComponentHealth

// LedgerSource is the part of the ledger the probes read.
type LedgerSource interface {
	Version() int64
	CheckInvariants(ctx context.Context) (string, bool)
}

type namedProbe struct {
	name     string
	probe    Probe
	detailed bool
}

// Checker runs registered probes and caches the readiness result.
type Checker struct {
	logger  log.Logger
	version string

	probes        []namedProbe
	cacheDuration time.Duration

	mu           sync.RWMutex
	lastCheck    time.Time
	cachedHealth *HealthCheck
}

// Config holds configuration for the health checker
type Config struct {
	// Version is reported in every response.
	Version string

	// CacheDuration is how long to cache readiness results
	CacheDuration time.Duration
}

// DefaultConfig returns the default health check configuration
func DefaultConfig() Config {
	return Config{
		Version:       "1.0.0",
		CacheDuration: 5 * time.Second,
	}
}

// NewChecker creates a checker with no probes.
func NewChecker(logger log.Logger, cfg Config) *Checker {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Checker{
		logger:        logger.With("module", "health"),
		version:       cfg.Version,
		cacheDuration: cfg.CacheDuration,
	}
}

// AddProbe registers a probe that runs on every check.
func (c *Checker) AddProbe(name string, probe Probe) {
	c.probes = append(c.probes, namedProbe{name: name, probe: probe})
}

// AddDetailedProbe registers a probe that only runs for /health/detailed.
func (c *Checker) AddDetailedProbe(name string, probe Probe) {
	c.probes = append(c.probes, namedProbe{name: name, probe: probe, detailed: true})
}

// Check runs the probes in parallel and folds their statuses.
func (c *Checker) Check(ctx context.Context, detailed bool) *HealthCheck {
	if !detailed {
		if cached := c.cached(); cached != nil {
			return cached
		}
	}

	health := &HealthCheck{
		Timestamp:  time.Now(),
		Version:    c.version,
		Components: make(map[string]ComponentHealth),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, p := range c.probes {
		if p.detailed && !detailed {
			continue
		}
		wg.Add(1)
		go func(p namedProbe) {
			defer wg.Done()
			result := p.probe(ctx)
			mu.Lock()
			health.Components[p.name] = result
			mu.Unlock()
		}(p)
	}
	wg.Wait()

	health.Status = calculateOverallStatus(health.Components)

	if !detailed {
		c.mu.Lock()
		c.lastCheck = time.Now()
		c.cachedHealth = health
		c.mu.Unlock()
	}
	return health
}

func (c *Checker) cached() *HealthCheck {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cachedHealth == nil || time.Since(c.lastCheck) >= c.cacheDuration {
		return nil
	}
	return c.cachedHealth
}

func calculateOverallStatus(components map[string]ComponentHealth) Status {
	if len(components) == 0 {
		return StatusUnknown
	}

	hasDegraded := false
	for _, component := range components {
		switch component.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded, StatusUnknown:
			hasDegraded = true
		}
	}
	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// LedgerProbe reports the committed ledger version.
func LedgerProbe(src LedgerSource) Probe {
	return func(ctx context.Context) ComponentHealth {
		return ComponentHealth{
			Status:    StatusHealthy,
			Message:   "Ledger is open",
			Timestamp: time.Now(),
			Metrics:   map[string]interface{}{"version": src.Version()},
		}
	}
}

// InvariantProbe runs every module invariant. A broken invariant marks the
// ledger unhealthy.
func InvariantProbe(src LedgerSource) Probe {
	return func(ctx context.Context) ComponentHealth {
		start := time.Now()
		msg, broken := src.CheckInvariants(ctx)
		metrics := map[string]interface{}{"duration_ms": time.Since(start).Milliseconds()}
		if broken {
			return ComponentHealth{
				Status:    StatusUnhealthy,
				Message:   msg,
				Timestamp: time.Now(),
				Metrics:   metrics,
			}
		}
		return ComponentHealth{
			Status:    StatusHealthy,
			Message:   "All invariants hold",
			Timestamp: time.Now(),
			Metrics:   metrics,
		}
	}
}

// ConfigProbe runs every configuration check and reports the feature flags
// of the loaded configuration.
func ConfigProbe(cfg types.Config) Probe {
	return func(ctx context.Context) ComponentHealth {
		if err := types.JoinConfigErrors(cfg.Validate()); err != nil {
			return ComponentHealth{
				Status:    StatusUnhealthy,
				Message:   err.Error(),
				Timestamp: time.Now(),
			}
		}
		return ComponentHealth{
			Status:    StatusHealthy,
			Message:   fmt.Sprintf("Configuration loaded for %s", cfg.Network),
			Timestamp: time.Now(),
			Metrics: map[string]interface{}{
				"token_reflection": cfg.Features.TokenReflection,
				"auto_slashing":    cfg.Features.AutoSlashing,
				"dynamic_queue":    cfg.Features.DynamicQueue,
			},
		}
	}
}

// ErrorProbe turns a plain error check into a probe. A failing check
// degrades the service without taking it out of rotation.
func ErrorProbe(check func() error) Probe {
	return func(ctx context.Context) ComponentHealth {
		if err := check(); err != nil {
			return ComponentHealth{
				Status:    StatusDegraded,
				Message:   err.Error(),
				Timestamp: time.Now(),
			}
		}
		return ComponentHealth{Status: StatusHealthy, Timestamp: time.Now()}
	}
}

// RegisterRoutes registers health check endpoints on router.
func (c *Checker) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", c.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", c.handleHealthReady).Methods(http.MethodGet)
	router.HandleFunc("/health/detailed", c.handleHealthDetailed).Methods(http.MethodGet)
}

// Handler returns a router serving the health endpoints with panic recovery.
func (c *Checker) Handler() http.Handler {
	router := mux.NewRouter()
	c.RegisterRoutes(router)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(router)
}

// ComponentNames lists registered probes in name order.
func (c *Checker) ComponentNames() []string {
	names := make([]string, 0, len(c.probes))
	for _, p := range c.probes {
		names = append(names, p.name)
	}
	sort.Strings(names)
	return names
}

func (c *Checker) handleHealth(w http.ResponseWriter, r *http.Request) {
	c.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (c *Checker) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	health := c.Check(r.Context(), false)

	// degraded is still ready
	statusCode := http.StatusOK
	if health.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.writeJSON(w, statusCode, health)
}

func (c *Checker) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	health := c.Check(r.Context(), true)

	statusCode := http.StatusOK
	if health.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.writeJSON(w, statusCode, health)
}

func (c *Checker) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.Error("failed to encode health response", "error", err)
	}
}
