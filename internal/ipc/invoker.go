package ipc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/gizmotray/internal/logging"
	"github.com/1broseidon/gizmotray/internal/registry"
)

// Action is one remote interaction with a gizmo.
type Action func(ctx context.Context, g Gizmo) error

// InvokeError reports that a call against one endpoint failed. The reason is
// not classified further: unreachable, timed out and peer-side failures all
// look the same to callers.
type InvokeError struct {
	Endpoint registry.Endpoint
	Err      error
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("gizmo %s: %v", e.Endpoint, e.Err)
}

func (e *InvokeError) Unwrap() error {
	return e.Err
}

// SocketInvoker runs actions against gizmos reachable through a registry.
type SocketInvoker struct {
	resolver registry.Resolver
	timeout  time.Duration
	logger   *slog.Logger
}

// NewSocketInvoker creates an invoker. Every Invoke is bounded by timeout.
func NewSocketInvoker(resolver registry.Resolver, timeout time.Duration, logger *slog.Logger) *SocketInvoker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SocketInvoker{
		resolver: resolver,
		timeout:  timeout,
		logger:   logging.OrDiscard(logger),
	}
}

// Invoke runs action against one endpoint. A failure, timeout or panic inside
// action comes back as an *InvokeError and never affects other calls.
func (i *SocketInvoker) Invoke(ctx context.Context, contract registry.Contract, name registry.Endpoint, action Action) (err error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = &InvokeError{Endpoint: name, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			i.logger.Debug("gizmo call failed", "endpoint", name, "contract", contract, "error", err)
		}
	}()

	client := NewClient(i.resolver.SocketPath(contract, name), i.timeout)
	if err := action(ctx, client); err != nil {
		return &InvokeError{Endpoint: name, Err: err}
	}
	return nil
}
