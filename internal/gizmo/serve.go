package gizmo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/1broseidon/gizmotray/internal/ipc"
	"github.com/1broseidon/gizmotray/internal/logging"
	"github.com/1broseidon/gizmotray/internal/registry"
)

// DefaultName derives an endpoint name from a window title, falling back to
// a random gizmo-<8 hex> name when the title has nothing usable.
func DefaultName(title string) registry.Endpoint {
	if name := registry.SanitizeName(title); name != "" {
		return name
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return registry.Endpoint("gizmo-" + id[:8])
}

// Serve registers g under name in the gizmo-server contract and answers
// coordinator calls until ctx is cancelled or the gizmo accepts CLOSE.
// The endpoint is unregistered before Serve returns.
func Serve(ctx context.Context, dir *registry.Dir, name registry.Endpoint, g ipc.Gizmo, logger *slog.Logger) error {
	logger = logging.OrDiscard(logger)

	listener, err := dir.Register(registry.GizmoServer, name)
	if err != nil {
		return fmt.Errorf("failed to register gizmo %q: %w", name, err)
	}

	server := ipc.NewServer(listener, name, registry.GizmoServer, g, logger)
	server.Start()
	defer func() {
		server.Stop()
		if err := dir.Unregister(registry.GizmoServer, name); err != nil {
			logger.Warn("failed to unregister gizmo", "endpoint", name, "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("gizmo detaching", "endpoint", name)
	case <-server.Closed():
		logger.Info("gizmo closed by coordinator", "endpoint", name)
	}
	return nil
}
