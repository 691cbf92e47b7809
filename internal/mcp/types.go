package mcp

import "github.com/1broseidon/gizmotray/internal/fleet"

// ListGizmosInput is the input for the list_gizmos tool.
type ListGizmosInput struct{}

// GizmoInfo describes a single discovered gizmo.
type GizmoInfo struct {
	Endpoint  string `json:"endpoint"`
	Reachable bool   `json:"reachable"`
	Title     string `json:"title,omitempty"`
	PID       int    `json:"pid,omitempty"`
	Left      int    `json:"left,omitempty"`
	Top       int    `json:"top,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ListGizmosOutput is the output for the list_gizmos tool.
type ListGizmosOutput struct {
	Gizmos []GizmoInfo `json:"gizmos"`
	Count  int         `json:"count"`
}

// FleetCommandInput is the input for bring_all_to_front and align_all.
type FleetCommandInput struct{}

// CloseAllInput is the input for the close_all tool.
type CloseAllInput struct {
	Confirm bool `json:"confirm" jsonschema:"required,Must be true. Closing gizmos cannot be undone."`
}

// FleetCommandOutput reports what a fleet command reached.
type FleetCommandOutput struct {
	Command    string `json:"command"`
	Discovered int    `json:"discovered"`
	Succeeded  int    `json:"succeeded"`
	Skipped    int    `json:"skipped"`
}

func commandOutput(command string, s fleet.Summary) FleetCommandOutput {
	return FleetCommandOutput{
		Command:    command,
		Discovered: s.Discovered,
		Succeeded:  s.Succeeded,
		Skipped:    s.Skipped,
	}
}
