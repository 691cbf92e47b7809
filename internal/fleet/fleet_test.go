package fleet

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/1broseidon/gizmotray/internal/ipc"
	"github.com/1broseidon/gizmotray/internal/registry"
	"github.com/1broseidon/gizmotray/internal/tiling"
)

type fakeRegistry struct {
	endpoints []registry.Endpoint
	err       error
}

func (r *fakeRegistry) Discover(ctx context.Context, contract registry.Contract) ([]registry.Endpoint, error) {
	if contract != registry.GizmoServer {
		return nil, nil
	}
	return r.endpoints, r.err
}

type call struct {
	endpoint registry.Endpoint
	op       string
	left     int
	top      int
}

// fakeFleet is both the invoker and the set of gizmos behind it.
type fakeFleet struct {
	mu      sync.Mutex
	rects   map[registry.Endpoint]ipc.ScreenRectangle
	failing map[registry.Endpoint]string // endpoint -> op that fails ("*" = all)
	calls   []call

	// onCall runs inside every gizmo call, outside the lock.
	onCall func(name registry.Endpoint, op string)
}

func newFakeFleet() *fakeFleet {
	return &fakeFleet{
		rects:   make(map[registry.Endpoint]ipc.ScreenRectangle),
		failing: make(map[registry.Endpoint]string),
	}
}

func (f *fakeFleet) add(name registry.Endpoint, left, top, width, height int) {
	f.rects[name] = ipc.ScreenRectangle{Left: left, Top: top, Width: width, Height: height}
}

func (f *fakeFleet) Invoke(ctx context.Context, contract registry.Contract, name registry.Endpoint, action ipc.Action) error {
	if err := action(ctx, &fakeGizmo{fleet: f, name: name}); err != nil {
		return &ipc.InvokeError{Endpoint: name, Err: err}
	}
	return nil
}

func (f *fakeFleet) record(name registry.Endpoint, op string, left, top int) error {
	if f.onCall != nil {
		f.onCall(name, op)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{endpoint: name, op: op, left: left, top: top})
	if fail, ok := f.failing[name]; ok && (fail == "*" || fail == op) {
		return errors.New("gizmo unreachable")
	}
	return nil
}

func (f *fakeFleet) callsFor(op string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

type fakeGizmo struct {
	fleet *fakeFleet
	name  registry.Endpoint
}

func (g *fakeGizmo) Activate(ctx context.Context) error {
	return g.fleet.record(g.name, "activate", 0, 0)
}

func (g *fakeGizmo) Close(ctx context.Context) error {
	return g.fleet.record(g.name, "close", 0, 0)
}

func (g *fakeGizmo) ScreenRectangle(ctx context.Context) (ipc.ScreenRectangle, error) {
	if err := g.fleet.record(g.name, "rect", 0, 0); err != nil {
		return ipc.ScreenRectangle{}, err
	}
	g.fleet.mu.Lock()
	defer g.fleet.mu.Unlock()
	return g.fleet.rects[g.name], nil
}

func (g *fakeGizmo) MoveTo(ctx context.Context, left, top int) error {
	return g.fleet.record(g.name, "move", left, top)
}

func newCoordinator(endpoints []registry.Endpoint, f *fakeFleet) *Coordinator {
	return New(&fakeRegistry{endpoints: endpoints}, f, Options{})
}

func moveTargets(calls []call) []call {
	out := make([]call, len(calls))
	for i, c := range calls {
		out[i] = call{endpoint: c.endpoint, op: "move", left: c.left, top: c.top}
	}
	return out
}

func TestAlignAll_NoGizmosIsNoop(t *testing.T) {
	f := newFakeFleet()
	c := newCoordinator(nil, f)

	s := c.AlignAll(context.Background())

	if len(f.calls) != 0 {
		t.Fatalf("expected no calls, got %v", f.calls)
	}
	if s != (Summary{}) {
		t.Fatalf("summary = %+v, want zero", s)
	}
}

func TestAlignAll_SingleGizmoKeepsPosition(t *testing.T) {
	f := newFakeFleet()
	f.add("clock", 40, 70, 300, 200)
	c := newCoordinator([]registry.Endpoint{"clock"}, f)

	c.AlignAll(context.Background())

	moves := f.callsFor("move")
	want := []call{{endpoint: "clock", op: "move", left: 40, top: 70}}
	if !reflect.DeepEqual(moves, want) {
		t.Fatalf("moves = %v, want %v", moves, want)
	}
}

func TestAlignAll_Scenario(t *testing.T) {
	f := newFakeFleet()
	f.add("A", 0, 100, 200, 50)
	f.add("B", 10, 0, 200, 30)
	f.add("C", 5, 100, 200, 20)
	c := newCoordinator([]registry.Endpoint{"A", "B", "C"}, f)

	s := c.AlignAll(context.Background())

	want := []call{
		{endpoint: "B", op: "move", left: 0, top: 0},
		{endpoint: "A", op: "move", left: 0, top: 32},
		{endpoint: "C", op: "move", left: 0, top: 84},
	}
	if got := f.callsFor("move"); !reflect.DeepEqual(got, want) {
		t.Fatalf("moves = %v, want %v", got, want)
	}
	if s != (Summary{Discovered: 3, Succeeded: 3}) {
		t.Fatalf("summary = %+v", s)
	}
}

func TestNew_SeparatorDefaults(t *testing.T) {
	zero, negative := 0, -5
	tests := []struct {
		name string
		sep  *int
		want int
	}{
		{"unset", nil, tiling.DefaultSeparator},
		{"explicit zero", &zero, 0},
		{"negative", &negative, tiling.DefaultSeparator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeFleet()
			f.add("top", 0, 0, 100, 30)
			f.add("bottom", 0, 500, 100, 10)
			c := New(&fakeRegistry{endpoints: []registry.Endpoint{"top", "bottom"}}, f, Options{Separator: tt.sep})

			c.AlignAll(context.Background())

			moves := f.callsFor("move")
			if len(moves) != 2 || moves[1].top != 30+tt.want {
				t.Fatalf("moves = %v, want second at top %d", moves, 30+tt.want)
			}
		})
	}
}

func TestAlignAll_OrderByTopThenLeft(t *testing.T) {
	f := newFakeFleet()
	f.add("p0", 5, 50, 10, 10)
	f.add("p1", 20, 10, 10, 10)
	f.add("p2", 5, 10, 10, 10)
	c := newCoordinator([]registry.Endpoint{"p0", "p1", "p2"}, f)

	c.AlignAll(context.Background())

	var order []registry.Endpoint
	for _, m := range f.callsFor("move") {
		order = append(order, m.endpoint)
	}
	if want := []registry.Endpoint{"p2", "p1", "p0"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("move order = %v, want %v", order, want)
	}
}

func TestAlignAll_PartialGather(t *testing.T) {
	f := newFakeFleet()
	f.add("A", 0, 100, 200, 50)
	f.add("B", 10, 0, 200, 30)
	f.add("C", 5, 100, 200, 20)
	f.failing["B"] = "rect"
	c := newCoordinator([]registry.Endpoint{"A", "B", "C"}, f)

	s := c.AlignAll(context.Background())

	// Only A and C took part: base left 0, first top 100.
	want := []call{
		{endpoint: "A", op: "move", left: 0, top: 100},
		{endpoint: "C", op: "move", left: 0, top: 152},
	}
	if got := f.callsFor("move"); !reflect.DeepEqual(got, want) {
		t.Fatalf("moves = %v, want %v", got, want)
	}
	if s != (Summary{Discovered: 3, Succeeded: 2, Skipped: 1}) {
		t.Fatalf("summary = %+v", s)
	}
}

func TestAlignAll_MoveFailureDoesNotStopLaterMoves(t *testing.T) {
	f := newFakeFleet()
	f.add("A", 0, 0, 100, 10)
	f.add("B", 0, 50, 100, 10)
	f.add("C", 0, 90, 100, 10)
	f.failing["A"] = "move"
	c := newCoordinator([]registry.Endpoint{"A", "B", "C"}, f)

	s := c.AlignAll(context.Background())

	got := moveTargets(f.callsFor("move"))
	want := []call{
		{endpoint: "A", op: "move", left: 0, top: 0},
		{endpoint: "B", op: "move", left: 0, top: 12},
		{endpoint: "C", op: "move", left: 0, top: 24},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("moves = %v, want %v", got, want)
	}
	if s.Succeeded != 2 || s.Skipped != 1 {
		t.Fatalf("summary = %+v", s)
	}
}

func TestAlignAll_StackingInvariant(t *testing.T) {
	f := newFakeFleet()
	names := []registry.Endpoint{"a", "b", "c", "d", "e"}
	f.add("a", 300, 400, 10, 90)
	f.add("b", 120, 250, 10, 35)
	f.add("c", 900, 260, 10, 60)
	f.add("d", 55, 700, 10, 15)
	f.add("e", 80, 260, 10, 5)
	c := newCoordinator(names, f)

	c.AlignAll(context.Background())

	moves := f.callsFor("move")
	if len(moves) != len(names) {
		t.Fatalf("got %d moves, want %d", len(moves), len(names))
	}
	top := 250
	for k, m := range moves {
		if m.left != 55 {
			t.Errorf("move %d (%s) left = %d, want 55", k, m.endpoint, m.left)
		}
		if m.top != top {
			t.Errorf("move %d (%s) top = %d, want %d", k, m.endpoint, m.top, top)
		}
		top += f.rects[m.endpoint].Height + tiling.DefaultSeparator
	}
}

func TestAlignAll_GatherRunsConcurrently(t *testing.T) {
	f := newFakeFleet()
	names := []registry.Endpoint{"a", "b", "c", "d"}
	for i, n := range names {
		f.add(n, 0, i*10, 10, 5)
	}
	f.onCall = barrier(t, "rect", len(names))
	c := newCoordinator(names, f)

	s := c.AlignAll(context.Background())
	if s.Succeeded != len(names) {
		t.Fatalf("summary = %+v, want all %d moved", s, len(names))
	}
}

func TestDispatch_FailureIsolation(t *testing.T) {
	f := newFakeFleet()
	names := []registry.Endpoint{"a", "b", "c", "d"}
	f.failing["b"] = "*"
	c := newCoordinator(names, f)

	s := c.BringAllToFront(context.Background())

	counts := map[registry.Endpoint]int{}
	for _, cl := range f.callsFor("activate") {
		counts[cl.endpoint]++
	}
	for _, n := range names {
		if counts[n] != 1 {
			t.Errorf("endpoint %s activated %d times, want 1", n, counts[n])
		}
	}
	if s != (Summary{Discovered: 4, Succeeded: 3, Skipped: 1}) {
		t.Fatalf("summary = %+v", s)
	}
}

func TestDispatch_RunsConcurrently(t *testing.T) {
	f := newFakeFleet()
	names := []registry.Endpoint{"a", "b", "c"}
	f.onCall = barrier(t, "close", len(names))
	c := newCoordinator(names, f)

	s := c.CloseAll(context.Background())
	if s.Succeeded != len(names) {
		t.Fatalf("summary = %+v", s)
	}
	if got := len(f.callsFor("close")); got != len(names) {
		t.Fatalf("close calls = %d, want %d", got, len(names))
	}
}

func TestDispatch_RespectsMaxConcurrency(t *testing.T) {
	f := newFakeFleet()
	names := []registry.Endpoint{"a", "b", "c", "d", "e", "f"}

	var inFlight, peak atomic.Int32
	f.onCall = func(_ registry.Endpoint, _ string) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
	}
	c := New(&fakeRegistry{endpoints: names}, f, Options{MaxConcurrency: 2})

	c.BringAllToFront(context.Background())

	if p := peak.Load(); p > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", p)
	}
	if got := len(f.callsFor("activate")); got != len(names) {
		t.Fatalf("activate calls = %d, want %d", got, len(names))
	}
}

func TestCommands_RegistryFailureIsEmptyFleet(t *testing.T) {
	f := newFakeFleet()
	c := New(&fakeRegistry{err: errors.New("permission denied")}, f, Options{})

	ctx := context.Background()
	for name, run := range map[string]func(context.Context) Summary{
		"front": c.BringAllToFront,
		"align": c.AlignAll,
		"close": c.CloseAll,
	} {
		if s := run(ctx); s != (Summary{}) {
			t.Errorf("%s summary = %+v, want zero", name, s)
		}
	}
	if len(f.calls) != 0 {
		t.Fatalf("expected no calls, got %v", f.calls)
	}
}

func TestGather_KeepsDiscoveryOrder(t *testing.T) {
	f := newFakeFleet()
	f.add("z", 0, 0, 1, 1)
	f.add("m", 0, 0, 1, 2)
	f.add("a", 0, 0, 1, 3)
	c := newCoordinator([]registry.Endpoint{"z", "m", "a"}, f)

	infos, discovered := c.Gather(context.Background())

	if discovered != 3 {
		t.Fatalf("discovered = %d, want 3", discovered)
	}
	var order []registry.Endpoint
	for _, info := range infos {
		order = append(order, info.Endpoint)
	}
	if want := []registry.Endpoint{"z", "m", "a"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("gather order = %v, want %v", order, want)
	}
}

// barrier makes every call of op wait until n of them are in flight at once.
// A sequential fan-out would never release it.
func barrier(t *testing.T, op string, n int) func(registry.Endpoint, string) {
	t.Helper()
	var wg sync.WaitGroup
	wg.Add(n)
	all := make(chan struct{})
	go func() {
		wg.Wait()
		close(all)
	}()
	return func(_ registry.Endpoint, got string) {
		if got != op {
			return
		}
		wg.Done()
		select {
		case <-all:
		case <-time.After(2 * time.Second):
			t.Errorf("%s calls did not overlap", op)
		}
	}
}

func (g *fakeGizmo) Title() string {
	return "gizmo " + string(g.name)
}

func TestList_KeepsUnreachableInDiscoveryOrder(t *testing.T) {
	f := newFakeFleet()
	f.add("a", 10, 20, 30, 40)
	f.add("c", 1, 2, 3, 4)
	f.failing["b"] = "rect"
	c := newCoordinator([]registry.Endpoint{"a", "b", "c"}, f)

	got := c.List(context.Background())
	if len(got) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(got))
	}
	for i, want := range []registry.Endpoint{"a", "b", "c"} {
		if got[i].Endpoint != want {
			t.Fatalf("status %d endpoint = %q, want %q", i, got[i].Endpoint, want)
		}
	}
	if !got[0].Reachable || got[0].Title != "gizmo a" || got[0].Rect == nil || got[0].Rect.Height != 40 {
		t.Fatalf("status a = %+v", got[0])
	}
	if got[1].Reachable || got[1].Rect != nil || got[1].Error == "" {
		t.Fatalf("status b should be unreachable, got %+v", got[1])
	}
	if !got[2].Reachable {
		t.Fatalf("status c = %+v", got[2])
	}
}

func TestList_EmptyFleet(t *testing.T) {
	c := newCoordinator(nil, newFakeFleet())
	if got := c.List(context.Background()); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
