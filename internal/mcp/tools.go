package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleListGizmos(ctx context.Context, _ *mcpsdk.CallToolRequest, _ ListGizmosInput) (*mcpsdk.CallToolResult, ListGizmosOutput, error) {
	statuses := s.fleet.List(ctx)

	gizmos := make([]GizmoInfo, 0, len(statuses))
	for _, st := range statuses {
		info := GizmoInfo{
			Endpoint:  string(st.Endpoint),
			Reachable: st.Reachable,
			Title:     st.Title,
			PID:       st.PID,
			Error:     st.Error,
		}
		if st.Rect != nil {
			info.Left, info.Top = st.Rect.Left, st.Rect.Top
			info.Width, info.Height = st.Rect.Width, st.Rect.Height
		}
		gizmos = append(gizmos, info)
	}
	return nil, ListGizmosOutput{Gizmos: gizmos, Count: len(gizmos)}, nil
}

func (s *Server) handleBringAllToFront(ctx context.Context, _ *mcpsdk.CallToolRequest, _ FleetCommandInput) (*mcpsdk.CallToolResult, FleetCommandOutput, error) {
	out := commandOutput("bring_all_to_front", s.fleet.BringAllToFront(ctx))
	s.logger.Debug("mcp command", "command", out.Command, "succeeded", out.Succeeded, "skipped", out.Skipped)
	return nil, out, nil
}

func (s *Server) handleAlignAll(ctx context.Context, _ *mcpsdk.CallToolRequest, _ FleetCommandInput) (*mcpsdk.CallToolResult, FleetCommandOutput, error) {
	out := commandOutput("align_all", s.fleet.AlignAll(ctx))
	s.logger.Debug("mcp command", "command", out.Command, "succeeded", out.Succeeded, "skipped", out.Skipped)
	return nil, out, nil
}

func (s *Server) handleCloseAll(ctx context.Context, _ *mcpsdk.CallToolRequest, args CloseAllInput) (*mcpsdk.CallToolResult, FleetCommandOutput, error) {
	if !args.Confirm {
		return nil, FleetCommandOutput{}, fmt.Errorf("close_all requires confirm=true")
	}
	out := commandOutput("close_all", s.fleet.CloseAll(ctx))
	s.logger.Info("mcp closed gizmos", "succeeded", out.Succeeded, "skipped", out.Skipped)
	return nil, out, nil
}
