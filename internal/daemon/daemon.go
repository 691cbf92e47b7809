// Package daemon runs the tray's background housekeeping: the stale socket
// sweeper and the fleet watcher.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/gizmotray/internal/registry"
)

// Registry is what housekeeping needs from the peer registry.
type Registry interface {
	SocketSweeper
	FleetSource
}

// Options configures Run.
type Options struct {
	// SweepInterval of 0 disables the sweeper.
	SweepInterval time.Duration
	Logger        *slog.Logger
	// OnChange is called for every fleet membership change. May be nil.
	OnChange ChangeFunc
}

// Run runs the sweeper and watcher for the gizmo-server contract until ctx
// is cancelled or the watcher fails.
func Run(ctx context.Context, reg Registry, opts Options) error {
	watcher := NewWatcher(reg, registry.GizmoServer, opts.Logger, opts.OnChange)

	g, ctx := errgroup.WithContext(ctx)
	if opts.SweepInterval > 0 {
		sweeper := NewSweeper(SweeperConfig{
			Interval: opts.SweepInterval,
			Contract: registry.GizmoServer,
			Logger:   opts.Logger,
		}, reg)
		g.Go(func() error {
			sweeper.Run(ctx)
			return nil
		})
	}
	g.Go(func() error {
		if err := watcher.Run(ctx); err != nil {
			return fmt.Errorf("fleet watcher: %w", err)
		}
		return nil
	})
	return g.Wait()
}
