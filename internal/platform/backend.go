package platform

import "errors"

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// ErrWindowGone is returned when a window no longer exists.
var ErrWindowGone = errors.New("window no longer exists")

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Window contains metadata and geometry for a top-level window.
type Window struct {
	ID     WindowID
	PID    int
	Title  string
	Bounds Rect
}

// Backend abstracts the window-system operations a gizmo needs.
type Backend interface {
	ActiveWindow() (WindowID, error)
	ListWindows() ([]Window, error)
	Window(windowID WindowID) (Window, error)
	Activate(windowID WindowID) error
	Move(windowID WindowID, x, y int) error
	Close(windowID WindowID) error
}
