package fleet

import (
	"context"
	"time"

	"github.com/1broseidon/gizmotray/internal/ipc"
	"github.com/1broseidon/gizmotray/internal/registry"
	"github.com/1broseidon/gizmotray/internal/tiling"
)

// Gather asks every gizmo for its screen rectangle concurrently. Gizmos that
// fail to answer are left out. Results keep discovery order.
func (c *Coordinator) Gather(ctx context.Context) (infos []tiling.WindowInfo, discovered int) {
	endpoints := c.snapshot(ctx, registry.GizmoServer)
	if len(endpoints) == 0 {
		return nil, 0
	}

	// One slot per endpoint; nil means the gizmo did not answer.
	slots := make([]*tiling.WindowInfo, len(endpoints))
	c.fanOut(endpoints, func(i int, name registry.Endpoint) {
		var rect ipc.ScreenRectangle
		err := c.invoker.Invoke(ctx, registry.GizmoServer, name, func(ctx context.Context, g ipc.Gizmo) error {
			var err error
			rect, err = g.ScreenRectangle(ctx)
			return err
		})
		if err != nil {
			return
		}
		slots[i] = &tiling.WindowInfo{
			Endpoint: name,
			Left:     rect.Left,
			Top:      rect.Top,
			Height:   rect.Height,
		}
	})

	infos = make([]tiling.WindowInfo, 0, len(slots))
	for _, info := range slots {
		if info != nil {
			infos = append(infos, *info)
		}
	}
	return infos, len(endpoints)
}

// Apply moves gizmos one at a time in plan order and returns how many moves
// succeeded.
func (c *Coordinator) Apply(ctx context.Context, plan []tiling.Placement) int {
	moved := 0
	for _, p := range plan {
		err := c.invoker.Invoke(ctx, registry.GizmoServer, p.Endpoint, func(ctx context.Context, g ipc.Gizmo) error {
			return g.MoveTo(ctx, p.Left, p.Top)
		})
		if err != nil {
			continue
		}
		moved++
	}
	return moved
}

// AlignAll stacks every gizmo into one left-aligned column starting at the
// top-most gizmo, separated by the configured gap.
func (c *Coordinator) AlignAll(ctx context.Context) Summary {
	started := time.Now()

	infos, discovered := c.Gather(ctx)
	plan := tiling.PlanStack(infos, c.separator)
	moved := c.Apply(ctx, plan)

	s := Summary{
		Discovered: discovered,
		Succeeded:  moved,
		Skipped:    discovered - moved,
	}
	c.logDone("align-all", started, s)
	return s
}
