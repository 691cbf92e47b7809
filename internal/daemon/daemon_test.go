package daemon

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/gizmotray/internal/logging"
	"github.com/1broseidon/gizmotray/internal/registry"
)

type fakeRegistry struct {
	mu        sync.Mutex
	sweeps    int
	removed   []registry.Endpoint
	sweepErr  error
	panicOnce bool
	initial   []registry.Endpoint
	events    []registry.Event
	watchErr  error
}

func (f *fakeRegistry) Sweep(ctx context.Context, contract registry.Contract) ([]registry.Endpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	if f.panicOnce {
		f.panicOnce = false
		panic("sweep exploded")
	}
	return f.removed, f.sweepErr
}

func (f *fakeRegistry) Discover(ctx context.Context, contract registry.Contract) ([]registry.Endpoint, error) {
	return f.initial, nil
}

func (f *fakeRegistry) Watch(ctx context.Context, contract registry.Contract, fn func(registry.Event)) error {
	if f.watchErr != nil {
		return f.watchErr
	}
	for _, ev := range f.events {
		fn(ev)
	}
	<-ctx.Done()
	return nil
}

func (f *fakeRegistry) sweepCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sweeps
}

func TestSweeper_SweepNowReturnsRemoved(t *testing.T) {
	reg := &fakeRegistry{removed: []registry.Endpoint{"dead"}}
	s := NewSweeper(SweeperConfig{Logger: logging.Discard()}, reg)

	got := s.SweepNow(context.Background())
	if !reflect.DeepEqual(got, []registry.Endpoint{"dead"}) {
		t.Fatalf("SweepNow = %v", got)
	}
	if s.interval != DefaultSweepInterval {
		t.Fatalf("interval = %v, want default", s.interval)
	}
	if s.contract != registry.GizmoServer {
		t.Fatalf("contract = %q, want gizmo-server", s.contract)
	}
}

func TestSweeper_RecoversPanic(t *testing.T) {
	reg := &fakeRegistry{panicOnce: true}
	s := NewSweeper(SweeperConfig{}, reg)

	if got := s.SweepNow(context.Background()); got != nil {
		t.Fatalf("expected nil after panic, got %v", got)
	}
	s.SweepNow(context.Background())
	if reg.sweepCount() != 2 {
		t.Fatalf("sweeps = %d, want 2", reg.sweepCount())
	}
}

func TestSweeper_RunTicks(t *testing.T) {
	reg := &fakeRegistry{sweepErr: errors.New("unreadable")}
	s := NewSweeper(SweeperConfig{Interval: 10 * time.Millisecond}, reg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for reg.sweepCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d sweeps ran", reg.sweepCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestWatcher_TracksFleet(t *testing.T) {
	reg := &fakeRegistry{
		initial: []registry.Endpoint{"clock"},
		events: []registry.Event{
			{Kind: registry.Joined, Endpoint: "notes"},
			{Kind: registry.Joined, Endpoint: "clock"},
			{Kind: registry.Left, Endpoint: "clock"},
			{Kind: registry.Left, Endpoint: "ghost"},
		},
	}
	var mu sync.Mutex
	var changes []registry.Event
	var sizes []int
	w := NewWatcher(reg, "", nil, func(ev registry.Event, fleet []registry.Endpoint) {
		mu.Lock()
		changes = append(changes, ev)
		sizes = append(sizes, len(fleet))
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := w.Fleet(); !reflect.DeepEqual(got, []registry.Endpoint{"notes"}) {
		t.Fatalf("Fleet = %v, want [notes]", got)
	}
	want := []registry.Event{
		{Kind: registry.Joined, Endpoint: "notes"},
		{Kind: registry.Left, Endpoint: "clock"},
	}
	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(changes, want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
	// clock + notes after the join, notes alone after clock leaves.
	if !reflect.DeepEqual(sizes, []int{2, 1}) {
		t.Fatalf("fleet sizes = %v, want [2 1]", sizes)
	}
}

func TestRun_ReportsChanges(t *testing.T) {
	reg := &fakeRegistry{events: []registry.Event{{Kind: registry.Joined, Endpoint: "clock"}}}
	got := make(chan []registry.Endpoint, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := Run(ctx, reg, Options{OnChange: func(ev registry.Event, fleet []registry.Endpoint) {
		got <- fleet
	}})
	if err != nil {
		t.Fatalf("Run = %v", err)
	}
	select {
	case fleet := <-got:
		if !reflect.DeepEqual(fleet, []registry.Endpoint{"clock"}) {
			t.Fatalf("fleet = %v, want [clock]", fleet)
		}
	default:
		t.Fatal("OnChange was not called")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	reg := &fakeRegistry{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, reg, Options{SweepInterval: time.Hour}) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	if reg.sweepCount() != 1 {
		t.Fatalf("expected one startup sweep, got %d", reg.sweepCount())
	}
}

func TestRun_WatcherFailureStopsSweeper(t *testing.T) {
	reg := &fakeRegistry{watchErr: errors.New("inotify exhausted")}
	err := Run(context.Background(), reg, Options{SweepInterval: time.Hour})
	if err == nil || !errors.Is(err, reg.watchErr) {
		t.Fatalf("expected watcher error, got %v", err)
	}
}

func TestRun_ZeroIntervalDisablesSweeper(t *testing.T) {
	reg := &fakeRegistry{}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := Run(ctx, reg, Options{}); err != nil {
		t.Fatalf("Run = %v", err)
	}
	if reg.sweepCount() != 0 {
		t.Fatalf("expected no sweeps, got %d", reg.sweepCount())
	}
}
