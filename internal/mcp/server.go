// Package mcp exposes the tray commands to MCP clients over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/gizmotray/internal/fleet"
	"github.com/1broseidon/gizmotray/internal/logging"
)

const (
	ServerName    = "gizmotray"
	ServerVersion = "0.1.0"
)

// Fleet is the coordinator surface the MCP tools drive.
type Fleet interface {
	List(ctx context.Context) []fleet.Status
	BringAllToFront(ctx context.Context) fleet.Summary
	AlignAll(ctx context.Context) fleet.Summary
	CloseAll(ctx context.Context) fleet.Summary
}

// Server is the MCP server for gizmo fleet control.
type Server struct {
	mcpServer *mcpsdk.Server
	fleet     Fleet
	logger    *slog.Logger
}

// NewServer creates a new MCP server driving f.
func NewServer(f Fleet, logger *slog.Logger) *Server {
	s := &Server{
		fleet:  f,
		logger: logging.OrDiscard(logger),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_gizmos",
		Description: "List every running gizmo with its title and screen rectangle. Gizmos that do not answer are included and marked unreachable.",
	}, s.handleListGizmos)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "bring_all_to_front",
		Description: "Raise and focus every running gizmo. Gizmos that fail to respond are skipped.",
	}, s.handleBringAllToFront)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "align_all",
		Description: "Stack every running gizmo into one left-aligned column, starting at the top-most gizmo, with a 2 pixel gap (configurable). Order follows current vertical position.",
	}, s.handleAlignAll)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_all",
		Description: "Close every running gizmo. Requires confirm=true.",
	}, s.handleCloseAll)
}
