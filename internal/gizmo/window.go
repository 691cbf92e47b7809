// Package gizmo turns an ordinary top-level window into a gizmo peer.
package gizmo

import (
	"context"
	"fmt"

	"github.com/1broseidon/gizmotray/internal/ipc"
	"github.com/1broseidon/gizmotray/internal/platform"
)

// Window is a gizmo backed by a window-system window.
type Window struct {
	backend platform.Backend
	id      platform.WindowID
}

var (
	_ ipc.Gizmo  = (*Window)(nil)
	_ ipc.Titled = (*Window)(nil)
)

// NewWindow returns a gizmo for window id. It fails if the window does not
// exist.
func NewWindow(backend platform.Backend, id platform.WindowID) (*Window, error) {
	if _, err := backend.Window(id); err != nil {
		return nil, fmt.Errorf("window 0x%x: %w", uint32(id), err)
	}
	return &Window{backend: backend, id: id}, nil
}

// ID returns the underlying window id.
func (w *Window) ID() platform.WindowID {
	return w.id
}

// Title returns the current window title, or "" if the window is gone.
func (w *Window) Title() string {
	info, err := w.backend.Window(w.id)
	if err != nil {
		return ""
	}
	return info.Title
}

func (w *Window) Activate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.backend.Activate(w.id)
}

func (w *Window) Close(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.backend.Close(w.id)
}

func (w *Window) ScreenRectangle(ctx context.Context) (ipc.ScreenRectangle, error) {
	if err := ctx.Err(); err != nil {
		return ipc.ScreenRectangle{}, err
	}
	info, err := w.backend.Window(w.id)
	if err != nil {
		return ipc.ScreenRectangle{}, err
	}
	return ipc.ScreenRectangle{
		Left:   info.Bounds.X,
		Top:    info.Bounds.Y,
		Width:  info.Bounds.Width,
		Height: info.Bounds.Height,
	}, nil
}

func (w *Window) MoveTo(ctx context.Context, left, top int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.backend.Move(w.id, left, top)
}
