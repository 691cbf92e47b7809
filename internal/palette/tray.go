package palette

import (
	"context"
	"fmt"

	"github.com/1broseidon/gizmotray/internal/fleet"
)

// Action identifies a tray menu entry.
type Action string

const (
	ActionFront Action = "front"
	ActionAlign Action = "align"
	ActionClose Action = "close"
)

// Commands are the fleet operations the tray menu can trigger.
type Commands interface {
	BringAllToFront(ctx context.Context) fleet.Summary
	AlignAll(ctx context.Context) fleet.Summary
	CloseAll(ctx context.Context) fleet.Summary
}

// TrayItems returns the tray menu. Bring All To Front is the default entry.
func TrayItems() []Item {
	return []Item{
		{Label: "Bring All To Front", Action: string(ActionFront), Icon: "go-top", Meta: "raise show", IsActive: true},
		{Label: "Align All", Action: string(ActionAlign), Icon: "format-justify-left", Meta: "stack tile"},
		{Label: "Close All", Action: string(ActionClose), Icon: "window-close", Meta: "quit exit"},
	}
}

// ShowTray shows the tray menu and returns the chosen action.
func ShowTray(ctx context.Context, backend Backend, fleetSize int) (Action, error) {
	item, err := backend.Show(ctx, "gizmotray", TrayItems(), fleetMessage(fleetSize))
	if err != nil {
		return "", err
	}
	return Action(item.Action), nil
}

// Run performs action against cmds.
func Run(ctx context.Context, cmds Commands, action Action) (fleet.Summary, error) {
	switch action {
	case ActionFront:
		return cmds.BringAllToFront(ctx), nil
	case ActionAlign:
		return cmds.AlignAll(ctx), nil
	case ActionClose:
		return cmds.CloseAll(ctx), nil
	default:
		return fleet.Summary{}, fmt.Errorf("unknown tray action: %q", action)
	}
}

func fleetMessage(n int) string {
	switch n {
	case 0:
		return "No gizmos running"
	case 1:
		return "1 gizmo running"
	default:
		return fmt.Sprintf("%d gizmos running", n)
	}
}
