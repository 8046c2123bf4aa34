package viewport

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/observability"
	"github.com/Qefaraki/treescape/pkg/store"
	"github.com/Qefaraki/treescape/pkg/tree"
)

// State is the loader's position in its fetch cycle.
type State int

const (
	// StateIdle: resident data covers the viewport, nothing due.
	StateIdle State = iota
	// StatePending: the viewport moved; a fetch is due once the debounce
	// window closes.
	StatePending
	// StateLoading: a fetch is in flight.
	StateLoading
	// StateError: the last fetch failed; a retry is scheduled with backoff.
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Config holds the loader tunables.
type Config struct {
	// Debounce is how long viewport changes coalesce before one fetch is
	// issued for the latest rectangle.
	Debounce time.Duration
	// Margin grows the visible rect in world points on every side.
	Margin float64
	// PredictLead expands the fetch rect along pan velocity by this many
	// seconds of travel, preloading in the pan direction.
	PredictLead float64
	// ResidentCap bounds the resident node count. Least-recently-touched
	// nodes outside the viewport are evicted first when exceeded.
	ResidentCap int
	// InitialGenerations is the depth of the initial root load.
	InitialGenerations int
	// FetchDepth limits generation depth per region fetch; zero is unlimited.
	FetchDepth int
	// BackoffBase is the first retry delay after a failed fetch.
	BackoffBase time.Duration
	// BackoffMax caps the retry delay as failures accumulate.
	BackoffMax time.Duration
}

// DefaultConfig returns the standard loader tuning.
func DefaultConfig() Config {
	return Config{
		Debounce:           500 * time.Millisecond,
		Margin:             DefaultMargin,
		PredictLead:        0.3,
		ResidentCap:        3000,
		InitialGenerations: store.DefaultInitialGenerations,
		BackoffBase:        time.Second,
		BackoffMax:         30 * time.Second,
	}
}

// Request is one issued region fetch. The loader hands these out from
// Tick; whoever executes the fetch feeds the result back through Apply.
type Request struct {
	ID       string
	Bounds   geom.Rect
	MaxDepth int
	seq      uint64
}

type residentNode struct {
	node      tree.Node
	lastTouch time.Time
}

// Loader keeps the resident node set covering the viewport.
//
// It is clock-driven: Observe records viewport changes, Tick advances the
// state machine and decides when a fetch is due, Apply merges (or
// discards) results. None of the three block, so all are safe to call
// from the frame loop; the actual fetch runs elsewhere (see Run).
type Loader struct {
	mu     sync.Mutex
	cfg    Config
	source store.NodeSource
	logger *log.Logger

	state    State
	target   geom.Rect
	viewRect geom.Rect
	deadline time.Time
	seq      uint64
	failures int
	retryAt  time.Time

	resident map[string]*residentNode
	fetched  []geom.Rect

	onMerge  func(nodes []tree.Node)
	position func(id string) (geom.Rect, bool)
}

// NewLoader creates a loader over source. A nil logger discards output.
func NewLoader(source store.NodeSource, cfg Config, logger *log.Logger) *Loader {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if cfg.ResidentCap <= 0 {
		cfg.ResidentCap = 3000
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 30 * time.Second
	}
	if cfg.InitialGenerations <= 0 {
		cfg.InitialGenerations = store.DefaultInitialGenerations
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Loader{
		cfg:      cfg,
		source:   source,
		logger:   logger,
		resident: make(map[string]*residentNode),
	}
}

// SetOnMerge registers a callback invoked after the resident set changes,
// with a snapshot of the full set. The render side hooks relayout and
// index rebuild here (render.Context.SetNodes fits directly). The callback
// runs with the loader locked; it must not call back into the loader.
func (l *Loader) SetOnMerge(fn func(nodes []tree.Node)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onMerge = fn
}

// SetPositioner registers the world-position lookup used by eviction to
// decide which nodes sit inside the viewport. The render side provides
// layout bounds here; without one, every node is a candidate.
func (l *Loader) SetPositioner(fn func(id string) (geom.Rect, bool)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = fn
}

// State returns the current machine state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// ResidentCount reports the resident node count.
func (l *Loader) ResidentCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.resident)
}

// Contains reports whether a node is resident.
func (l *Loader) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.resident[id]
	return ok
}

// Resident returns the resident nodes, shallowest generations first.
func (l *Loader) Resident() []tree.Node {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.residentLocked()
}

// residentLocked snapshots the resident set. Caller holds the lock.
func (l *Loader) residentLocked() []tree.Node {
	out := make([]tree.Node, 0, len(l.resident))
	for _, r := range l.resident {
		out = append(out, r.node)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Generation != out[j].Generation {
			return out[i].Generation < out[j].Generation
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// InitialLoad fetches the root and its first generations synchronously,
// so the first paint is never empty. Call once before the frame loop.
func (l *Loader) InitialLoad(ctx context.Context, rootID string) error {
	nodes, err := l.source.FetchInitial(ctx, rootID, l.cfg.InitialGenerations)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.merge(nodes, time.Now())
	l.notifyMerge()
	l.mu.Unlock()

	l.logger.Info("initial load complete", "nodes", len(nodes), "root", rootID)
	return nil
}

// Observe records a viewport change. velocity is the current pan velocity
// in world points per second; the fetch rect leads in its direction.
func (l *Loader) Observe(view Viewport, velocity geom.Point, now time.Time) {
	rect := view.VisibleRect(l.cfg.Margin)
	if l.cfg.PredictLead > 0 {
		rect = rect.ExpandToward(velocity.X, velocity.Y, l.cfg.PredictLead)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.viewRect = view.VisibleRect(0)
	l.target = rect

	if l.covered(rect) {
		if l.state == StatePending {
			l.state = StateIdle
		}
		return
	}

	switch l.state {
	case StateIdle:
		l.state = StatePending
		l.deadline = now.Add(l.cfg.Debounce)
	case StateLoading:
		// The in-flight request no longer reflects the latest rectangle;
		// queue a superseding fetch. Its response will be discarded.
		l.state = StatePending
		l.deadline = now.Add(l.cfg.Debounce)
	case StatePending, StateError:
		// Keep the existing deadline so continuous panning cannot starve
		// the fetch forever; the target already tracks the latest rect.
	}
}

// Tick advances the state machine. It returns a Request when a fetch is
// due, nil otherwise. The caller executes the fetch and reports back via
// Apply; Tick itself never blocks.
func (l *Loader) Tick(now time.Time) *Request {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateError && !now.Before(l.retryAt) {
		l.state = StatePending
		l.deadline = now
	}
	if l.state != StatePending || now.Before(l.deadline) {
		return nil
	}

	l.seq++
	l.state = StateLoading
	req := &Request{
		ID:       uuid.NewString(),
		Bounds:   l.target,
		MaxDepth: l.cfg.FetchDepth,
		seq:      l.seq,
	}
	observability.Loader().OnFetchStart(context.Background(), req.ID,
		req.Bounds.MinX, req.Bounds.MinY, req.Bounds.MaxX, req.Bounds.MaxY)
	return req
}

// Apply merges a fetch result into the resident set.
//
// A response whose request has been superseded by a newer one is
// discarded outright: out-of-order completion can never roll the resident
// set back to an older rectangle. A failed fetch schedules a backoff
// retry and leaves resident data intact.
func (l *Loader) Apply(req *Request, nodes []tree.Node, fetchErr error, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if req.seq != l.seq {
		observability.Loader().OnResponseDiscarded(context.Background(), req.ID)
		l.logger.Debug("discarding superseded response", "request", req.ID)
		return
	}

	if fetchErr != nil {
		l.failures++
		delay := l.cfg.BackoffBase << (l.failures - 1)
		if delay > l.cfg.BackoffMax || delay <= 0 {
			delay = l.cfg.BackoffMax
		}
		l.state = StateError
		l.retryAt = now.Add(delay)
		observability.Loader().OnFetchComplete(context.Background(), req.ID, 0, 0, fetchErr)
		l.logger.Warn("region fetch failed", "request", req.ID, "retry_in", delay, "err", fetchErr)
		return
	}

	l.failures = 0
	l.merge(nodes, now)
	l.fetched = append(l.fetched, req.Bounds)
	if len(l.fetched) > 32 {
		l.fetched = l.fetched[len(l.fetched)-32:]
	}
	l.evict(now)
	l.notifyMerge()

	// A viewport change that arrived while this fetch was in flight (but
	// after it was issued) keeps the machine pending for the next pass.
	if l.state == StateLoading {
		l.state = StateIdle
	}
	observability.Loader().OnFetchComplete(context.Background(), req.ID, len(nodes), 0, nil)
}

// Touch refreshes the last-touch time for rendered nodes, protecting them
// from eviction.
func (l *Loader) Touch(ids []string, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		if r, ok := l.resident[id]; ok {
			r.lastTouch = now
		}
	}
}

// ApplyEvent folds a node lifecycle notification into the resident set.
// Created and updated nodes are upserted; removals drop the node. The
// merge callback fires so the caller can run a partial relayout.
func (l *Loader) ApplyEvent(ev store.Event, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch ev.Type {
	case store.EventCreated, store.EventUpdated:
		l.resident[ev.Node.ID] = &residentNode{node: ev.Node, lastTouch: now}
	case store.EventRemoved:
		delete(l.resident, ev.Node.ID)
	default:
		return
	}
	l.notifyMerge()
}

// Run drives the loader against its source until ctx is done. Each tick
// checks for a due fetch and executes it on its own goroutine, feeding
// the result back through Apply so stale completions sort themselves out.
func (l *Loader) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			req := l.Tick(now)
			if req == nil {
				continue
			}
			go func(req *Request) {
				nodes, err := l.source.FetchRegion(ctx, req.Bounds, req.MaxDepth)
				l.Apply(req, nodes, err, time.Now())
			}(req)
		}
	}
}

// merge upserts nodes into the resident set. Caller holds the lock.
func (l *Loader) merge(nodes []tree.Node, now time.Time) {
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		l.resident[n.ID] = &residentNode{node: n, lastTouch: now}
	}
}

// notifyMerge hands the resident snapshot to the merge callback.
// Caller holds the lock.
func (l *Loader) notifyMerge() {
	if l.onMerge != nil {
		l.onMerge(l.residentLocked())
	}
}

// evict removes least-recently-touched nodes outside the viewport until
// the resident count fits the ceiling. Visible nodes are never evicted,
// even if the set stays over the cap. Caller holds the lock.
func (l *Loader) evict(now time.Time) {
	over := len(l.resident) - l.cfg.ResidentCap
	if over <= 0 {
		return
	}

	type candidate struct {
		id    string
		touch time.Time
	}
	candidates := make([]candidate, 0, over)
	for id, r := range l.resident {
		if !l.inView(id) {
			candidates = append(candidates, candidate{id: id, touch: r.lastTouch})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].touch.Before(candidates[j].touch)
	})

	evicted := 0
	for _, c := range candidates {
		if evicted >= over {
			break
		}
		delete(l.resident, c.id)
		evicted++
	}
	if evicted > 0 {
		// Coverage no longer reflects reality once nodes are gone.
		l.fetched = l.fetched[:0]
		observability.Loader().OnEviction(context.Background(), evicted, len(l.resident))
		l.logger.Debug("evicted resident nodes", "evicted", evicted, "resident", len(l.resident))
	}
}

// inView reports whether a resident node's laid-out bounds overlap the
// viewport. Nodes with no known position (not yet laid out) count as
// outside, so they are evictable. Caller holds the lock.
func (l *Loader) inView(id string) bool {
	if l.position == nil || l.viewRect.Empty() {
		return false
	}
	bounds, ok := l.position(id)
	if !ok {
		return false
	}
	return bounds.Intersects(l.viewRect)
}

// covered reports whether rect lies inside an already-fetched region.
// Caller holds the lock.
func (l *Loader) covered(rect geom.Rect) bool {
	for _, f := range l.fetched {
		if rect.MinX >= f.MinX && rect.MinY >= f.MinY &&
			rect.MaxX <= f.MaxX && rect.MaxY <= f.MaxY {
			return true
		}
	}
	return false
}
