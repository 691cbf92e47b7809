package fleet

import (
	"context"

	"github.com/1broseidon/gizmotray/internal/ipc"
	"github.com/1broseidon/gizmotray/internal/registry"
)

// pinger is implemented by gizmo stubs that can identify their peer.
type pinger interface {
	Ping(ctx context.Context) (*ipc.PingData, error)
}

// Status is what one gizmo reported about itself.
type Status struct {
	Endpoint  registry.Endpoint    `json:"endpoint"`
	Reachable bool                 `json:"reachable"`
	Title     string               `json:"title,omitempty"`
	PID       int                  `json:"pid,omitempty"`
	Rect      *ipc.ScreenRectangle `json:"rect,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// List describes every discovered gizmo, in discovery order. Unlike the
// batch commands it keeps unreachable gizmos, marked as such.
func (c *Coordinator) List(ctx context.Context) []Status {
	endpoints := c.snapshot(ctx, registry.GizmoServer)
	if len(endpoints) == 0 {
		return nil
	}

	out := make([]Status, len(endpoints))
	c.fanOut(endpoints, func(i int, name registry.Endpoint) {
		st := Status{Endpoint: name}
		err := c.invoker.Invoke(ctx, registry.GizmoServer, name, func(ctx context.Context, g ipc.Gizmo) error {
			if p, ok := g.(pinger); ok {
				data, err := p.Ping(ctx)
				if err != nil {
					return err
				}
				st.Title, st.PID = data.Title, data.PID
			} else if t, ok := g.(ipc.Titled); ok {
				st.Title = t.Title()
			}
			rect, err := g.ScreenRectangle(ctx)
			if err != nil {
				return err
			}
			st.Rect = &rect
			return nil
		})
		if err != nil {
			st.Error = err.Error()
		} else {
			st.Reachable = true
		}
		out[i] = st
	})
	return out
}
