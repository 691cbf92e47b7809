package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/gizmotray/internal/logging"
	"github.com/1broseidon/gizmotray/internal/registry"
)

// DefaultSweepInterval is used when SweeperConfig.Interval is not positive.
const DefaultSweepInterval = 30 * time.Second

// SocketSweeper removes registry entries whose peer has died.
type SocketSweeper interface {
	Sweep(ctx context.Context, contract registry.Contract) ([]registry.Endpoint, error)
}

// SweeperConfig holds configuration for the sweeper.
type SweeperConfig struct {
	Interval time.Duration
	Contract registry.Contract
	Logger   *slog.Logger
}

// Sweeper periodically clears sockets left behind by crashed gizmos, so
// they stop showing up in discovery snapshots.
type Sweeper struct {
	interval time.Duration
	contract registry.Contract
	registry SocketSweeper
	logger   *slog.Logger
}

// NewSweeper creates a sweeper for cfg.Contract (gizmo-server if empty).
func NewSweeper(cfg SweeperConfig, reg SocketSweeper) *Sweeper {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	contract := cfg.Contract
	if contract == "" {
		contract = registry.GizmoServer
	}

	return &Sweeper{
		interval: interval,
		contract: contract,
		registry: reg,
		logger:   logging.OrDiscard(cfg.Logger),
	}
}

// Run sweeps once immediately, then on every tick. Blocks until context is
// cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweeper started", "interval", s.interval, "contract", s.contract)
	s.SweepNow(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.SweepNow(ctx)
		}
	}
}

// SweepNow performs a single pass and returns the endpoints it removed.
func (s *Sweeper) SweepNow(ctx context.Context) (removed []registry.Endpoint) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			s.logger.Error("sweeper panic recovered", "error", err)
		}
	}()

	removed, err := s.registry.Sweep(ctx, s.contract)
	if err != nil && ctx.Err() == nil {
		s.logger.Warn("sweeper: sweep failed", "error", err)
	}
	for _, name := range removed {
		s.logger.Info("sweeper: removed stale gizmo socket", "endpoint", name)
	}
	return removed
}
