// Package fleet issues best-effort batch commands to every live gizmo.
//
// Each command takes one discovery snapshot, fans calls out concurrently and
// isolates failures per endpoint: a gizmo that is gone, slow or broken is
// skipped and never turns the batch into an error.
package fleet

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/1broseidon/gizmotray/internal/ipc"
	"github.com/1broseidon/gizmotray/internal/logging"
	"github.com/1broseidon/gizmotray/internal/registry"
	"github.com/1broseidon/gizmotray/internal/tiling"
)

// Invoker performs one call against one endpoint and reports the outcome.
type Invoker interface {
	Invoke(ctx context.Context, contract registry.Contract, name registry.Endpoint, action ipc.Action) error
}

// Summary describes what a command reached. It is informational only.
type Summary struct {
	Discovered int `json:"discovered"`
	Succeeded  int `json:"succeeded"`
	Skipped    int `json:"skipped"`
}

// Options tunes a Coordinator.
type Options struct {
	// Separator is the vertical gap AlignAll leaves between gizmos. nil
	// means tiling.DefaultSeparator; an explicit 0 stacks them flush.
	Separator *int
	// MaxConcurrency caps concurrent calls in a fan-out. 0 = unbounded.
	MaxConcurrency int
	Logger         *slog.Logger
}

// Coordinator runs fleet-wide commands against a registry.
type Coordinator struct {
	registry       registry.Registry
	invoker        Invoker
	separator      int
	maxConcurrency int
	logger         *slog.Logger
}

// New creates a Coordinator.
func New(reg registry.Registry, invoker Invoker, opts Options) *Coordinator {
	sep := tiling.DefaultSeparator
	if opts.Separator != nil && *opts.Separator >= 0 {
		sep = *opts.Separator
	}
	return &Coordinator{
		registry:       reg,
		invoker:        invoker,
		separator:      sep,
		maxConcurrency: opts.MaxConcurrency,
		logger:         logging.OrDiscard(opts.Logger),
	}
}

// snapshot lists the live endpoints for contract. A registry failure is an
// empty fleet.
func (c *Coordinator) snapshot(ctx context.Context, contract registry.Contract) []registry.Endpoint {
	endpoints, err := c.registry.Discover(ctx, contract)
	if err != nil {
		c.logger.Warn("gizmo discovery failed", "contract", contract, "error", err)
		return nil
	}
	return endpoints
}

// fanOut runs task once per endpoint and returns after all of them finish.
func (c *Coordinator) fanOut(endpoints []registry.Endpoint, task func(i int, name registry.Endpoint)) {
	var g errgroup.Group
	if c.maxConcurrency > 0 {
		g.SetLimit(c.maxConcurrency)
	}
	for i, name := range endpoints {
		g.Go(func() error {
			task(i, name)
			return nil
		})
	}
	g.Wait()
}

func (c *Coordinator) logDone(op string, started time.Time, s Summary) {
	c.logger.Debug("fleet command finished",
		"command", op,
		"discovered", s.Discovered,
		"succeeded", s.Succeeded,
		"skipped", s.Skipped,
		"elapsed", time.Since(started))
}
