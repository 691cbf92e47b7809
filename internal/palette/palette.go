// Package palette shows the tray menu through an external launcher
// (rofi, fuzzel, wofi or dmenu).
package palette

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrCancelled is returned when the user closes the palette without selecting an item.
var ErrCancelled = errors.New("palette cancelled")

// Item is a single selectable entry in a palette menu.
type Item struct {
	Label     string // Display text
	Action    string // Action identifier returned on selection
	Icon      string // Icon name for backends that show icons
	Meta      string // Hidden search keywords (rofi only)
	IsHeader  bool   // Non-selectable section header (bold)
	IsDivider bool   // Non-selectable divider line (dim)
	IsActive  bool   // Default entry; preselected and highlighted
}

func (i Item) selectable() bool {
	return !i.IsHeader && !i.IsDivider
}

// Capabilities describes what features a backend supports.
type Capabilities struct {
	Icons         bool // Supports icon display
	Markup        bool // Supports pango markup in labels
	NonSelectable bool // Supports non-selectable rows (headers)
	IndexOutput   bool // Can output selection index (not just text)
	MessageBar    bool // Supports message/prompt bar
}

// Backend shows a palette to the user and returns the selected item.
type Backend interface {
	// Show displays items under prompt, with an optional message line, and
	// returns the chosen item or ErrCancelled.
	Show(ctx context.Context, prompt string, items []Item, message string) (Item, error)

	Capabilities() Capabilities
}

// NewBackend creates a backend by name.
//
// Supported names: auto, rofi, fuzzel, wofi, dmenu.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "auto":
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	case "rofi", "fuzzel", "wofi", "dmenu":
		if _, err := lookPath(name); err != nil {
			return nil, fmt.Errorf("palette backend %q not found in PATH", name)
		}
	default:
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, rofi, fuzzel, wofi, dmenu)", name)
	}
	return newLauncher(name), nil
}
