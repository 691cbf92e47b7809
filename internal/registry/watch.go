package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// EventKind says whether an endpoint appeared or went away.
type EventKind int

const (
	Joined EventKind = iota
	Left
)

func (k EventKind) String() string {
	switch k {
	case Joined:
		return "joined"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a single fleet membership change.
type Event struct {
	Kind     EventKind
	Endpoint Endpoint
}

// Watch reports endpoints joining or leaving contract until ctx is done.
// It blocks; it returns nil when ctx is cancelled.
func (d *Dir) Watch(ctx context.Context, contract Contract, fn func(Event)) error {
	dir := d.ContractDir(contract)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create registry dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create registry watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if e, ok := translateEvent(ev); ok {
				fn(e)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("registry watcher: %w", err)
		}
	}
}

func translateEvent(ev fsnotify.Event) (Event, bool) {
	name, ok := endpointFromFile(filepath.Base(ev.Name))
	if !ok {
		return Event{}, false
	}
	switch {
	case ev.Has(fsnotify.Create):
		return Event{Kind: Joined, Endpoint: name}, true
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return Event{Kind: Left, Endpoint: name}, true
	default:
		return Event{}, false
	}
}
