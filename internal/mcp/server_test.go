package mcp

import (
	"context"
	"sort"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/gizmotray/internal/fleet"
	"github.com/1broseidon/gizmotray/internal/ipc"
)

type fakeFleet struct {
	called   []string
	statuses []fleet.Status
}

func (f *fakeFleet) List(ctx context.Context) []fleet.Status {
	f.called = append(f.called, "list")
	return f.statuses
}

func (f *fakeFleet) BringAllToFront(ctx context.Context) fleet.Summary {
	f.called = append(f.called, "front")
	return fleet.Summary{Discovered: 3, Succeeded: 3}
}

func (f *fakeFleet) AlignAll(ctx context.Context) fleet.Summary {
	f.called = append(f.called, "align")
	return fleet.Summary{Discovered: 3, Succeeded: 2, Skipped: 1}
}

func (f *fakeFleet) CloseAll(ctx context.Context) fleet.Summary {
	f.called = append(f.called, "close")
	return fleet.Summary{Discovered: 1, Succeeded: 1}
}

func TestHandleListGizmos(t *testing.T) {
	f := &fakeFleet{statuses: []fleet.Status{
		{Endpoint: "clock", Reachable: true, Title: "Clock", PID: 42, Rect: &ipc.ScreenRectangle{Left: 5, Top: 6, Width: 7, Height: 8}},
		{Endpoint: "notes", Error: "connection refused"},
	}}
	s := NewServer(f, nil)

	_, out, err := s.handleListGizmos(context.Background(), nil, ListGizmosInput{})
	if err != nil {
		t.Fatalf("handleListGizmos: %v", err)
	}
	if out.Count != 2 || len(out.Gizmos) != 2 {
		t.Fatalf("output = %+v", out)
	}
	want := GizmoInfo{Endpoint: "clock", Reachable: true, Title: "Clock", PID: 42, Left: 5, Top: 6, Width: 7, Height: 8}
	if out.Gizmos[0] != want {
		t.Fatalf("gizmo[0] = %+v, want %+v", out.Gizmos[0], want)
	}
	if out.Gizmos[1].Reachable || out.Gizmos[1].Error == "" {
		t.Fatalf("gizmo[1] = %+v", out.Gizmos[1])
	}
}

func TestHandleListGizmos_EmptyFleetIsEmptyList(t *testing.T) {
	s := NewServer(&fakeFleet{}, nil)
	_, out, err := s.handleListGizmos(context.Background(), nil, ListGizmosInput{})
	if err != nil {
		t.Fatalf("handleListGizmos: %v", err)
	}
	if out.Gizmos == nil || out.Count != 0 {
		t.Fatalf("expected empty non-nil list, got %+v", out)
	}
}

func TestHandleCommands(t *testing.T) {
	f := &fakeFleet{}
	s := NewServer(f, nil)
	ctx := context.Background()

	_, out, err := s.handleAlignAll(ctx, nil, FleetCommandInput{})
	if err != nil {
		t.Fatalf("handleAlignAll: %v", err)
	}
	if out != (FleetCommandOutput{Command: "align_all", Discovered: 3, Succeeded: 2, Skipped: 1}) {
		t.Fatalf("align output = %+v", out)
	}

	if _, out, _ = s.handleBringAllToFront(ctx, nil, FleetCommandInput{}); out.Succeeded != 3 {
		t.Fatalf("front output = %+v", out)
	}

	if strings.Join(f.called, ",") != "align,front" {
		t.Fatalf("called = %v", f.called)
	}
}

func TestHandleCloseAll_RequiresConfirm(t *testing.T) {
	f := &fakeFleet{}
	s := NewServer(f, nil)

	if _, _, err := s.handleCloseAll(context.Background(), nil, CloseAllInput{}); err == nil {
		t.Fatal("expected error without confirm")
	}
	if len(f.called) != 0 {
		t.Fatalf("close ran without confirm: %v", f.called)
	}

	_, out, err := s.handleCloseAll(context.Background(), nil, CloseAllInput{Confirm: true})
	if err != nil {
		t.Fatalf("handleCloseAll: %v", err)
	}
	if out.Command != "close_all" || out.Succeeded != 1 {
		t.Fatalf("output = %+v", out)
	}
}

func TestServer_ToolsOverTransport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeFleet{}
	s := NewServer(f, nil)

	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	serverSession, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	if strings.Join(names, ",") != "align_all,bring_all_to_front,close_all,list_gizmos" {
		t.Fatalf("tools = %v", names)
	}

	res, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: "align_all", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("align_all returned a tool error: %+v", res.Content)
	}
	if len(f.called) != 1 || f.called[0] != "align" {
		t.Fatalf("called = %v", f.called)
	}
}
