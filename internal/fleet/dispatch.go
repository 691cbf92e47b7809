package fleet

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/1broseidon/gizmotray/internal/ipc"
	"github.com/1broseidon/gizmotray/internal/registry"
)

// Dispatch applies action to every endpoint supporting contract, all at
// once. Per-endpoint failures are counted and otherwise ignored.
func (c *Coordinator) Dispatch(ctx context.Context, contract registry.Contract, action ipc.Action) Summary {
	endpoints := c.snapshot(ctx, contract)

	var ok atomic.Int64
	c.fanOut(endpoints, func(_ int, name registry.Endpoint) {
		if err := c.invoker.Invoke(ctx, contract, name, action); err != nil {
			return
		}
		ok.Add(1)
	})

	succeeded := int(ok.Load())
	return Summary{
		Discovered: len(endpoints),
		Succeeded:  succeeded,
		Skipped:    len(endpoints) - succeeded,
	}
}

// BringAllToFront activates every gizmo.
func (c *Coordinator) BringAllToFront(ctx context.Context) Summary {
	started := time.Now()
	s := c.Dispatch(ctx, registry.GizmoServer, func(ctx context.Context, g ipc.Gizmo) error {
		return g.Activate(ctx)
	})
	c.logDone("bring-all-to-front", started, s)
	return s
}

// CloseAll closes every gizmo.
func (c *Coordinator) CloseAll(ctx context.Context) Summary {
	started := time.Now()
	s := c.Dispatch(ctx, registry.GizmoServer, func(ctx context.Context, g ipc.Gizmo) error {
		return g.Close(ctx)
	})
	c.logDone("close-all", started, s)
	return s
}
