package viewport

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Qefaraki/treescape/pkg/camera"
	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/store"
	"github.com/Qefaraki/treescape/pkg/tree"
)

// stubSource counts fetches and serves canned nodes per call.
type stubSource struct {
	regionCalls  int
	initialCalls int
	nodes        []tree.Node
	err          error
}

func (s *stubSource) FetchRegion(ctx context.Context, bounds geom.Rect, maxDepth int) ([]tree.Node, error) {
	s.regionCalls++
	return s.nodes, s.err
}

func (s *stubSource) FetchInitial(ctx context.Context, rootID string, generations int) ([]tree.Node, error) {
	s.initialCalls++
	return s.nodes, s.err
}

var _ store.NodeSource = (*stubSource)(nil)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PredictLead = 0
	return cfg
}

func viewAt(tx, ty, scale float64) Viewport {
	return Viewport{
		Screen: geom.Size{W: 400, H: 800},
		Camera: camera.Camera{TX: tx, TY: ty, Scale: scale},
	}
}

func TestVisibleRect(t *testing.T) {
	v := viewAt(0, 0, 1)
	r := v.VisibleRect(0)
	if r.MinX != 0 || r.MinY != 0 || r.MaxX != 400 || r.MaxY != 800 {
		t.Errorf("identity camera should see the screen rect, got %+v", r)
	}

	// Margin grows every side.
	m := v.VisibleRect(200)
	if m.MinX != -200 || m.MaxX != 600 {
		t.Errorf("margin not applied: %+v", m)
	}

	// Zooming out doubles world coverage.
	zoomed := viewAt(0, 0, 0.5).VisibleRect(0)
	if zoomed.MaxX != 800 || zoomed.MaxY != 1600 {
		t.Errorf("scale 0.5 should double world span, got %+v", zoomed)
	}
}

func TestInitialLoadPopulatesResidentSet(t *testing.T) {
	src := &stubSource{nodes: []tree.Node{
		{ID: "root", Name: "Ibrahim", Generation: 0},
		{ID: "a", ParentID: "root", Name: "Salim", Generation: 1},
	}}
	l := NewLoader(src, testConfig(), nil)

	if err := l.InitialLoad(context.Background(), ""); err != nil {
		t.Fatalf("InitialLoad error: %v", err)
	}
	if l.ResidentCount() != 2 {
		t.Errorf("resident count = %d, want 2", l.ResidentCount())
	}
	if !l.Contains("root") {
		t.Error("root should be resident after initial load")
	}
}

func TestDebounceCoalescesViewportChanges(t *testing.T) {
	l := NewLoader(&stubSource{}, testConfig(), nil)
	now := time.Unix(0, 0)

	// Five rapid changes inside the debounce window.
	for i := 0; i < 5; i++ {
		l.Observe(viewAt(float64(-i*50), 0, 1), geom.Point{}, now.Add(time.Duration(i)*50*time.Millisecond))
	}

	// Nothing due before the window closes.
	if req := l.Tick(now.Add(400 * time.Millisecond)); req != nil {
		t.Fatal("fetch issued before debounce window closed")
	}

	// Exactly one request after, reflecting the final rectangle.
	req := l.Tick(now.Add(600 * time.Millisecond))
	if req == nil {
		t.Fatal("no fetch after debounce window")
	}
	final := viewAt(-200, 0, 1).VisibleRect(DefaultMargin)
	if req.Bounds != final {
		t.Errorf("request bounds = %+v, want final viewport %+v", req.Bounds, final)
	}
	if extra := l.Tick(now.Add(700 * time.Millisecond)); extra != nil {
		t.Error("second fetch issued for coalesced changes")
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	l := NewLoader(&stubSource{}, testConfig(), nil)
	now := time.Unix(0, 0)

	// R1 issued.
	l.Observe(viewAt(0, 0, 1), geom.Point{}, now)
	req1 := l.Tick(now.Add(time.Second))
	if req1 == nil {
		t.Fatal("expected first request")
	}

	// Viewport moves before R1 completes; R2 supersedes it.
	l.Observe(viewAt(-1000, 0, 1), geom.Point{}, now.Add(1100*time.Millisecond))
	req2 := l.Tick(now.Add(2 * time.Second))
	if req2 == nil {
		t.Fatal("expected superseding request")
	}

	// R2's response lands first, then R1's stale response.
	l.Apply(req2, []tree.Node{{ID: "new", Name: "Omar", Generation: 1}}, nil, now.Add(3*time.Second))
	l.Apply(req1, []tree.Node{{ID: "old", Name: "Stale", Generation: 1}}, nil, now.Add(4*time.Second))

	if !l.Contains("new") {
		t.Error("superseding response should be merged")
	}
	if l.Contains("old") {
		t.Error("stale response should be discarded, not merged")
	}
	if l.State() != StateIdle {
		t.Errorf("state = %v, want idle", l.State())
	}
}

func TestFetchFailureKeepsResidentData(t *testing.T) {
	src := &stubSource{nodes: []tree.Node{{ID: "root", Name: "Ibrahim"}}}
	l := NewLoader(src, testConfig(), nil)
	if err := l.InitialLoad(context.Background(), ""); err != nil {
		t.Fatal(err)
	}

	now := time.Unix(100, 0)
	l.Observe(viewAt(-5000, 0, 1), geom.Point{}, now)
	req := l.Tick(now.Add(time.Second))
	if req == nil {
		t.Fatal("expected request")
	}

	l.Apply(req, nil, errors.New("connection refused"), now.Add(2*time.Second))

	if !l.Contains("root") {
		t.Error("failure must never discard resident data")
	}
	if l.State() != StateError {
		t.Errorf("state = %v, want error", l.State())
	}

	// Retry is scheduled with backoff, not immediate.
	if req := l.Tick(now.Add(2*time.Second + 500*time.Millisecond)); req != nil {
		t.Error("retry before backoff elapsed")
	}
	retry := l.Tick(now.Add(4 * time.Second))
	if retry == nil {
		t.Error("retry after backoff should issue a request")
	}
}

func TestBackoffGrowsWithConsecutiveFailures(t *testing.T) {
	l := NewLoader(&stubSource{}, testConfig(), nil)
	now := time.Unix(0, 0)

	l.Observe(viewAt(0, 0, 1), geom.Point{}, now)

	fail := func(at time.Time) *Request {
		req := l.Tick(at)
		if req == nil {
			t.Fatalf("expected request at %v", at)
		}
		l.Apply(req, nil, errors.New("boom"), at)
		return req
	}

	// First failure: 1s backoff.
	fail(now.Add(time.Second))
	if req := l.Tick(now.Add(1900 * time.Millisecond)); req != nil {
		t.Fatal("first retry before 1s backoff")
	}

	// Second failure at ~2s: backoff doubles to 2s.
	fail(now.Add(2100 * time.Millisecond))
	if req := l.Tick(now.Add(3500 * time.Millisecond)); req != nil {
		t.Error("second retry before doubled backoff")
	}
	if req := l.Tick(now.Add(4200 * time.Millisecond)); req == nil {
		t.Error("retry should fire after doubled backoff")
	}
}

func TestCoveredViewportIssuesNoFetch(t *testing.T) {
	l := NewLoader(&stubSource{}, testConfig(), nil)
	now := time.Unix(0, 0)

	l.Observe(viewAt(0, 0, 1), geom.Point{}, now)
	req := l.Tick(now.Add(time.Second))
	if req == nil {
		t.Fatal("expected request")
	}
	l.Apply(req, []tree.Node{{ID: "a", Name: "Salim"}}, nil, now.Add(2*time.Second))

	// Zooming in shrinks the world window inside the fetched region, so
	// no new fetch is needed.
	l.Observe(viewAt(0, 0, 2), geom.Point{}, now.Add(3*time.Second))
	if req := l.Tick(now.Add(10 * time.Second)); req != nil {
		t.Error("fetch issued for an already-covered viewport")
	}
}

func TestPredictiveExpansionLeadsVelocity(t *testing.T) {
	cfg := testConfig()
	cfg.PredictLead = 0.5
	l := NewLoader(&stubSource{}, cfg, nil)
	now := time.Unix(0, 0)

	// Panning right at 400 world pt/s: the fetch rect leads to the right.
	l.Observe(viewAt(0, 0, 1), geom.Point{X: 400}, now)
	req := l.Tick(now.Add(time.Second))
	if req == nil {
		t.Fatal("expected request")
	}
	base := viewAt(0, 0, 1).VisibleRect(DefaultMargin)
	if req.Bounds.MaxX != base.MaxX+200 {
		t.Errorf("MaxX = %v, want %v (lead of 200 world pt)", req.Bounds.MaxX, base.MaxX+200)
	}
	if req.Bounds.MinX != base.MinX {
		t.Errorf("MinX should not lead against the pan direction")
	}
}

func TestPredictiveExpansionFollowsCoast(t *testing.T) {
	cfg := testConfig()
	cfg.PredictLead = 0.5
	l := NewLoader(&stubSource{}, cfg, nil)

	// A rightward fling pans content toward +X, so the visible world
	// rect coasts toward -X. The fetch rect must lead on MinX, the edge
	// nodes are about to cross, not MaxX.
	ctrl := camera.NewController(camera.Config{}, camera.Camera{Scale: 1})
	at := time.Unix(0, 0)
	ctrl.OnPanUpdate(40, 0)
	ctrl.OnPanEnd(800, 0, at)

	view := Viewport{Screen: geom.Size{W: 400, H: 800}, Camera: ctrl.Step(at)}
	l.Observe(view, ctrl.Velocity(at), at)

	req := l.Tick(at.Add(time.Second))
	if req == nil {
		t.Fatal("expected request")
	}
	base := view.VisibleRect(DefaultMargin)
	if req.Bounds.MinX != base.MinX-400 {
		t.Errorf("MinX = %v, want %v (lead of 400 world pt toward travel)",
			req.Bounds.MinX, base.MinX-400)
	}
	if req.Bounds.MaxX != base.MaxX {
		t.Errorf("MaxX = %v, want %v (no lead on the trailing edge)",
			req.Bounds.MaxX, base.MaxX)
	}
}

func TestEvictionDropsLeastRecentlyTouchedOffViewport(t *testing.T) {
	cfg := testConfig()
	cfg.ResidentCap = 10
	l := NewLoader(&stubSource{}, cfg, nil)
	now := time.Unix(0, 0)

	// Positions: node i sits at x = i*1000; viewport covers only node 0.
	l.SetPositioner(func(id string) (geom.Rect, bool) {
		var i int
		if _, err := fmt.Sscanf(id, "n%d", &i); err != nil {
			return geom.Rect{}, false
		}
		x := float64(i * 1000)
		return geom.Rect{MinX: x, MinY: 0, MaxX: x + 84, MaxY: 110}, true
	})

	l.Observe(viewAt(0, 0, 1), geom.Point{}, now)
	req := l.Tick(now.Add(time.Second))
	if req == nil {
		t.Fatal("expected request")
	}

	nodes := make([]tree.Node, 15)
	for i := range nodes {
		nodes[i] = tree.Node{ID: fmt.Sprintf("n%d", i), Name: "x", Generation: i}
	}
	l.Apply(req, nodes, nil, now.Add(2*time.Second))

	if l.ResidentCount() != 10 {
		t.Errorf("resident count = %d, want cap 10", l.ResidentCount())
	}
	if !l.Contains("n0") {
		t.Error("the on-viewport node must never be evicted")
	}
}

func TestTouchProtectsFromEviction(t *testing.T) {
	cfg := testConfig()
	cfg.ResidentCap = 3
	l := NewLoader(&stubSource{}, cfg, nil)
	now := time.Unix(0, 0)

	l.Observe(viewAt(0, 0, 1), geom.Point{}, now)
	req := l.Tick(now.Add(time.Second))

	// Merge 3 nodes at distinct times (no positioner: all evictable).
	l.Apply(req, []tree.Node{
		{ID: "a", Name: "x"}, {ID: "b", Name: "x"}, {ID: "c", Name: "x"},
	}, nil, now.Add(2*time.Second))

	// Touch "a" so it is the most recently used.
	l.Touch([]string{"a"}, now.Add(3*time.Second))

	// Next merge pushes the count to 4; the cap evicts exactly one, and it
	// must not be "a".
	l.Observe(viewAt(-5000, 0, 1), geom.Point{}, now.Add(4*time.Second))
	req2 := l.Tick(now.Add(5 * time.Second))
	l.Apply(req2, []tree.Node{{ID: "d", Name: "x"}}, nil, now.Add(6*time.Second))

	if l.ResidentCount() != 3 {
		t.Errorf("resident count = %d, want 3", l.ResidentCount())
	}
	if !l.Contains("a") {
		t.Error("recently touched node should survive eviction")
	}
}

func TestApplyEventUpsertAndRemove(t *testing.T) {
	l := NewLoader(&stubSource{}, testConfig(), nil)
	now := time.Unix(0, 0)

	merges := 0
	var lastSnapshot []tree.Node
	l.SetOnMerge(func(nodes []tree.Node) {
		merges++
		lastSnapshot = nodes
	})

	l.ApplyEvent(store.Event{Type: store.EventCreated, Node: tree.Node{ID: "a", Name: "Salim"}}, now)
	if !l.Contains("a") {
		t.Error("created node should be resident")
	}

	l.ApplyEvent(store.Event{Type: store.EventUpdated, Node: tree.Node{ID: "a", Name: "Salim II"}}, now)
	if got := l.Resident()[0].Name; got != "Salim II" {
		t.Errorf("updated name = %q, want %q", got, "Salim II")
	}

	l.ApplyEvent(store.Event{Type: store.EventRemoved, Node: tree.Node{ID: "a"}}, now)
	if l.Contains("a") {
		t.Error("removed node should be gone")
	}

	if merges != 3 {
		t.Errorf("merge callback fired %d times, want 3", merges)
	}
	if len(lastSnapshot) != 0 {
		t.Errorf("final snapshot has %d nodes, want 0", len(lastSnapshot))
	}
}

func TestLoadingViewportChangeQueuesNextFetch(t *testing.T) {
	l := NewLoader(&stubSource{}, testConfig(), nil)
	now := time.Unix(0, 0)

	l.Observe(viewAt(0, 0, 1), geom.Point{}, now)
	req1 := l.Tick(now.Add(time.Second))
	if l.State() != StateLoading {
		t.Fatalf("state = %v, want loading", l.State())
	}

	// Movement while loading re-arms the debounce.
	l.Observe(viewAt(-2000, 0, 1), geom.Point{}, now.Add(1200*time.Millisecond))
	if l.State() != StatePending {
		t.Fatalf("state = %v, want pending", l.State())
	}

	// The first response still merges (it is the newest issued request
	// until the pending one fires) and the machine stays pending.
	l.Apply(req1, []tree.Node{{ID: "a", Name: "x"}}, nil, now.Add(1300*time.Millisecond))
	if !l.Contains("a") {
		t.Error("response for the newest issued request should merge")
	}
	if l.State() != StatePending {
		t.Errorf("state = %v, want pending after merge with queued fetch", l.State())
	}
}
