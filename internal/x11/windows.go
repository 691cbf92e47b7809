package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Geometry is a window's outer rectangle, decorations included.
type Geometry struct {
	X, Y, Width, Height int
}

// WindowGeometry returns the frame geometry of a client window in root
// coordinates.
func (c *Connection) WindowGeometry(windowID xproto.Window) (Geometry, error) {
	rect, err := xwindow.New(c.XUtil, windowID).DecorGeometry()
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to get geometry of window 0x%x: %w", uint32(windowID), err)
	}
	return Geometry{X: rect.X(), Y: rect.Y(), Width: rect.Width(), Height: rect.Height()}, nil
}

// MoveWindow moves a window's frame to (x, y) without resizing it.
//
// Without an EWMH window manager the client window itself is configured,
// offset by _NET_FRAME_EXTENTS when present. Decorations that do not
// publish extents are not accounted for. The direct move cannot fail
// synchronously, so MoveWindow only reports errors it can observe.
func (c *Connection) MoveWindow(windowID xproto.Window, x, y int) error {
	// A maximized window ignores move requests on most window managers.
	c.unmaximizeWindow(windowID)

	if err := ewmh.MoveWindow(c.XUtil, windowID, x, y); err != nil {
		ext, _ := ewmh.FrameExtentsGet(c.XUtil, windowID)
		cx, cy := clientOrigin(x, y, ext)
		xwindow.New(c.XUtil, windowID).Move(cx, cy)
	}
	return nil
}

// clientOrigin converts a frame position into the client window position.
func clientOrigin(x, y int, ext *ewmh.FrameExtents) (int, int) {
	if ext == nil {
		return x, y
	}
	return x + int(ext.Left), y + int(ext.Top)
}

// ActivateWindow asks the window manager to raise and focus a window.
func (c *Connection) ActivateWindow(windowID xproto.Window) error {
	if err := ewmh.ActiveWindowReq(c.XUtil, windowID); err != nil {
		return fmt.Errorf("failed to activate window 0x%x: %w", uint32(windowID), err)
	}
	return nil
}

// CloseWindow asks the window manager to close a window gracefully.
func (c *Connection) CloseWindow(windowID xproto.Window) error {
	if err := ewmh.CloseWindow(c.XUtil, windowID); err != nil {
		return fmt.Errorf("failed to close window 0x%x: %w", uint32(windowID), err)
	}
	return nil
}

// WindowTitle returns the EWMH or ICCCM title of a window, or "".
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	if title, err := icccm.WmNameGet(c.XUtil, windowID); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// WindowPID returns the _NET_WM_PID of a window, or 0.
func (c *Connection) WindowPID(windowID xproto.Window) int {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0
	}
	return int(pid)
}

// ClientWindows returns the window manager's managed client list.
func (c *Connection) ClientWindows() ([]xproto.Window, error) {
	return ewmh.ClientListGet(c.XUtil)
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return
	}

	for _, state := range states {
		if state == "_NET_WM_STATE_MAXIMIZED_HORZ" || state == "_NET_WM_STATE_MAXIMIZED_VERT" {
			ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, state)
		}
	}
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_UTILITY":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP", "_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH", "_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}

	return len(types) == 0
}

// GetActiveWindow returns the focused window.
func (c *Connection) GetActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}
