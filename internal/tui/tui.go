// Package tui is an interactive fleet view: it lists the running gizmos and
// triggers the tray commands from the keyboard.
package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/gizmotray/internal/fleet"
)

// Fleet is the coordinator surface the TUI drives.
type Fleet interface {
	List(ctx context.Context) []fleet.Status
	BringAllToFront(ctx context.Context) fleet.Summary
	AlignAll(ctx context.Context) fleet.Summary
	CloseAll(ctx context.Context) fleet.Summary
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, f Fleet) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	p := tea.NewProgram(newModel(ctx, f), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
