package daemon

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/gizmotray/internal/logging"
	"github.com/1broseidon/gizmotray/internal/registry"
)

// FleetSource is the part of the registry the watcher needs.
type FleetSource interface {
	Discover(ctx context.Context, contract registry.Contract) ([]registry.Endpoint, error)
	Watch(ctx context.Context, contract registry.Contract, fn func(registry.Event)) error
}

// Watcher keeps a live view of the gizmo fleet and logs peers joining and
// leaving. The view is informational; commands always take their own
// discovery snapshot.
type Watcher struct {
	source   FleetSource
	contract registry.Contract
	logger   *slog.Logger
	onChange ChangeFunc

	mu    sync.Mutex
	fleet map[registry.Endpoint]struct{}
}

// ChangeFunc receives a membership change and the fleet right after it.
type ChangeFunc func(ev registry.Event, fleet []registry.Endpoint)

// NewWatcher creates a watcher. onChange may be nil.
func NewWatcher(source FleetSource, contract registry.Contract, logger *slog.Logger, onChange ChangeFunc) *Watcher {
	if contract == "" {
		contract = registry.GizmoServer
	}
	return &Watcher{
		source:   source,
		contract: contract,
		logger:   logging.OrDiscard(logger),
		onChange: onChange,
		fleet:    make(map[registry.Endpoint]struct{}),
	}
}

// Run seeds the view from a discovery snapshot and then follows registry
// events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	endpoints, err := w.source.Discover(ctx, w.contract)
	if err != nil {
		w.logger.Warn("watcher: initial discovery failed", "error", err)
	}
	w.mu.Lock()
	for _, name := range endpoints {
		w.fleet[name] = struct{}{}
	}
	w.mu.Unlock()
	w.logger.Info("watcher started", "contract", w.contract, "gizmos", len(endpoints))

	return w.source.Watch(ctx, w.contract, w.handle)
}

// Fleet returns the endpoints currently believed alive, sorted by name.
func (w *Watcher) Fleet() []registry.Endpoint {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]registry.Endpoint, 0, len(w.fleet))
	for name := range w.fleet {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (w *Watcher) handle(ev registry.Event) {
	w.mu.Lock()
	_, known := w.fleet[ev.Endpoint]
	switch ev.Kind {
	case registry.Joined:
		w.fleet[ev.Endpoint] = struct{}{}
	case registry.Left:
		delete(w.fleet, ev.Endpoint)
	}
	size := len(w.fleet)
	w.mu.Unlock()

	// Re-registration replaces the socket and fires Left+Joined; only log
	// real transitions.
	if (ev.Kind == registry.Joined) == known {
		return
	}
	w.logger.Info("gizmo "+ev.Kind.String(), "endpoint", ev.Endpoint, "fleet_size", size)
	if w.onChange != nil {
		w.onChange(ev, w.Fleet())
	}
}
