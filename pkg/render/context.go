package render

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Qefaraki/treescape/pkg/connector"
	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/layout"
	"github.com/Qefaraki/treescape/pkg/lod"
	"github.com/Qefaraki/treescape/pkg/spatial"
	"github.com/Qefaraki/treescape/pkg/textcache"
	"github.com/Qefaraki/treescape/pkg/tree"
)

// Default label style and cull margin for phone-class views.
const (
	// DefaultCullMargin is the world-point margin added around the
	// screen when culling, so nodes entering the viewport are already
	// drawn on the frame they appear.
	DefaultCullMargin = 200.0
	// DefaultNameSizePx is the label em size at scale 1.
	DefaultNameSizePx = 13.0
	// namePadding keeps label wrap width inside the card edges.
	namePadding = 8.0
)

// Config tunes a render context. Zero-valued fields fall back to the
// package defaults.
type Config struct {
	// CullMargin grows the visible rect before the spatial query.
	CullMargin float64
	// CellSize is the spatial index cell size in world points.
	CellSize float64
	// TextCapacity bounds the shaped-text LRU entry count.
	TextCapacity int
	// Tier configures the fidelity classifier.
	Tier lod.TierConfig
	// Buckets and BucketMargin configure image resolution selection.
	Buckets      []int
	BucketMargin float64
	// NameStyle is the label style at scale 1; SizePx scales with zoom.
	NameStyle textcache.StyleKey
	// Shaper shapes label text on cache misses. Defaults to the
	// opentype FontShaper with the bundled Go fonts.
	Shaper textcache.Shaper
	// Logger receives placeholder and fallback diagnostics.
	// Nil discards them.
	Logger *log.Logger
}

// Context owns all per-view render state: caches, classifier hysteresis,
// layout output, and the spatial index built from it. It is the single
// object the frame loop, the loader wiring, and hit-testing share.
//
// Methods are safe for concurrent use; data merges (SetNodes) and frame
// builds serialize on an internal lock, which is what keeps merges out of
// the middle of a frame.
type Context struct {
	mu     sync.Mutex
	cfg    Config
	logger *log.Logger

	sizes   *layout.SizeProvider
	engine  *layout.Engine
	index   *spatial.Index
	text    *textcache.Cache
	tiers   *lod.TierClassifier
	buckets *lod.BucketSelector
	conn    *connector.Builder

	placed   []layout.Node
	byID     map[string]int
	children map[string][]string // parent ID -> child IDs in sibling order

	prevBucket map[string]int
	lastTier   map[string]lod.Tier
}

// NewContext creates a render context. The error is from shaper
// construction and only possible when Config.Shaper is nil and the
// bundled fonts fail to parse.
func NewContext(cfg Config) (*Context, error) {
	if cfg.CullMargin <= 0 {
		cfg.CullMargin = DefaultCullMargin
	}
	if cfg.NameStyle == (textcache.StyleKey{}) {
		cfg.NameStyle = textcache.StyleKey{Family: "regular", SizePx: DefaultNameSizePx}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	shaper := cfg.Shaper
	if shaper == nil {
		fs, err := textcache.NewFontShaper()
		if err != nil {
			return nil, err
		}
		shaper = fs
	}

	sizes := layout.NewSizeProvider()
	return &Context{
		cfg:        cfg,
		logger:     logger,
		sizes:      sizes,
		engine:     layout.NewEngine(sizes),
		index:      spatial.NewIndex(cfg.CellSize),
		text:       textcache.New(shaper, cfg.TextCapacity),
		tiers:      lod.NewTierClassifier(cfg.Tier),
		buckets:    lod.NewBucketSelector(cfg.Buckets, cfg.BucketMargin),
		conn:       connector.NewBuilder(),
		byID:       make(map[string]int),
		children:   make(map[string][]string),
		prevBucket: make(map[string]int),
		lastTier:   make(map[string]lod.Tier),
	}, nil
}

// Sizes exposes the footprint provider, shared with layout and callers
// that need to present footprints (export scaling, server fixtures).
func (c *Context) Sizes() *layout.SizeProvider { return c.sizes }

// TextCache exposes the shaped-text cache for stats and invalidation.
func (c *Context) TextCache() *textcache.Cache { return c.text }

// SetNodes replaces the resident node set: recompute layout, rebuild the
// spatial index, and drop per-node state for nodes that vanished.
//
// Layout passes are infrequent relative to frames, so a wholesale rebuild
// is fine here; what matters is that it never interleaves with BuildFrame,
// which the context lock guarantees. Wire this as the loader's merge
// callback.
func (c *Context) SetNodes(nodes []tree.Node) {
	placed := c.engine.Compute(nodes)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.placed = placed
	clear(c.byID)
	clear(c.children)
	c.index.Clear()
	for i := range placed {
		n := &placed[i]
		c.byID[n.Node.ID] = i
		c.index.Insert(n.Node.ID, n.Bounds())
		if p := n.Node.ParentID; p != "" && p != n.Node.ID {
			c.children[p] = append(c.children[p], n.Node.ID)
		}
	}

	for id := range c.lastTier {
		if _, ok := c.byID[id]; !ok {
			delete(c.lastTier, id)
			delete(c.prevBucket, id)
			c.tiers.Forget(id)
		}
	}
}

// NodeBounds returns the world-space footprint of a resident node.
// Satisfies the loader's positioner contract for viewport-aware eviction.
func (c *Context) NodeBounds(id string) (geom.Rect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.byID[id]
	if !ok {
		return geom.Rect{}, false
	}
	return c.placed[i].Bounds(), true
}

// Len returns the number of placed resident nodes.
func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.placed)
}

// node returns the placed node for id. Caller holds c.mu.
func (c *Context) node(id string) (*layout.Node, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return &c.placed[i], true
}

// subtreeSize counts id plus all resident descendants. Caller holds c.mu.
func (c *Context) subtreeSize(id string) int {
	n := 1
	for _, ch := range c.children[id] {
		n += c.subtreeSize(ch)
	}
	return n
}
