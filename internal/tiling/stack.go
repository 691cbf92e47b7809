package tiling

import (
	"sort"

	"github.com/1broseidon/gizmotray/internal/registry"
)

// DefaultSeparator is the vertical gap between stacked windows.
const DefaultSeparator = 2

// WindowInfo is the geometry one gizmo reported during a gather pass.
type WindowInfo struct {
	Endpoint registry.Endpoint
	Left     int
	Top      int
	Height   int
}

// Placement is the position assigned to one gizmo.
type Placement struct {
	Endpoint registry.Endpoint
	Left     int
	Top      int
}

// PlanStack arranges windows into one left-aligned column.
//
// Windows are ordered by top, then left; equal keys keep their input order.
// Every window is pinned to the smallest left of the set. The first window
// starts at the smallest top and each following one starts separator below
// the bottom of the previous one. An empty input yields an empty plan.
func PlanStack(windows []WindowInfo, separator int) []Placement {
	if len(windows) == 0 {
		return nil
	}

	baseLeft := windows[0].Left
	nextTop := windows[0].Top
	for _, w := range windows[1:] {
		baseLeft = min(baseLeft, w.Left)
		nextTop = min(nextTop, w.Top)
	}

	ordered := make([]WindowInfo, len(windows))
	copy(ordered, windows)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Top != ordered[j].Top {
			return ordered[i].Top < ordered[j].Top
		}
		return ordered[i].Left < ordered[j].Left
	})

	plan := make([]Placement, 0, len(ordered))
	for _, w := range ordered {
		plan = append(plan, Placement{
			Endpoint: w.Endpoint,
			Left:     baseLeft,
			Top:      nextTop,
		})
		nextTop += w.Height + separator
	}
	return plan
}
