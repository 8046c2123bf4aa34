package render

import (
	"context"
	"sort"
	"time"

	"github.com/Qefaraki/treescape/pkg/connector"
	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/layout"
	"github.com/Qefaraki/treescape/pkg/lod"
	"github.com/Qefaraki/treescape/pkg/observability"
	"github.com/Qefaraki/treescape/pkg/textcache"
	"github.com/Qefaraki/treescape/pkg/tree"
	"github.com/Qefaraki/treescape/pkg/viewport"
)

// DrawCall is one node's render instruction for the current frame.
type DrawCall struct {
	NodeID string
	Tier   lod.Tier
	// Progress interpolates the latest tier change, 0..1. At 1 the
	// transition is settled; the canvas crossfades below that.
	Progress float64

	// World is the footprint in world points, Screen the same rect under
	// this frame's camera transform.
	World  geom.Rect
	Screen geom.Rect

	// Bucket is the chosen image resolution in pixels; 0 when the tier
	// draws no photo or the node has no photo reference.
	Bucket int
	// Text is the shaped label; nil for chips.
	Text *textcache.ShapedText
	// Placeholder marks a card whose photo or label asset is unavailable.
	// The canvas draws the fallback visual; the frame itself never fails.
	Placeholder bool

	// ChipCount is how many resident nodes an aggregation chip stands in
	// for, itself included. Zero on non-chip calls.
	ChipCount int
}

// Frame is one rendered frame: ordered draw calls plus connector batches,
// all derived from a single camera snapshot so every element agrees on the
// transform.
type Frame struct {
	View  viewport.Viewport
	Calls []DrawCall
	// Connectors are world-space paths grouped into draw batches.
	Connectors [][]connector.Path
	// DroppedConnectors counts parents discarded by the per-frame cap.
	DroppedConnectors int
}

// BuildFrame runs the frame pipeline against the given viewport at the
// given clock reading: cull, classify, collapse chip subtrees, pick image
// buckets, shape labels, route connectors.
//
// Draw calls are ordered by generation then horizontal position, so the
// canvas paints ancestors before descendants and overlap resolves
// deterministically.
func (c *Context) BuildFrame(view viewport.Viewport, now time.Time) Frame {
	start := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	visible := view.VisibleRect(c.cfg.CullMargin)
	ids := c.index.QueryBounds(visible)
	tf := view.Camera.Transform()
	scale := view.Camera.Scale

	// Classify every culled-in node first: collapse decisions below need
	// the parent's tier, and hysteresis state must advance exactly once
	// per node per frame.
	tier := make(map[string]lod.Tier, len(ids))
	for _, id := range ids {
		pn, ok := c.node(id)
		if !ok {
			continue
		}
		t := c.tiers.ClassifyAt(id, scale, pn.Size, now)
		tier[id] = t
		if prev, seen := c.lastTier[id]; seen && prev != t {
			observability.Frame().OnTierChange(context.Background(), id, int(prev), int(t))
		}
		c.lastTier[id] = t
	}

	order := make([]string, 0, len(tier))
	for id := range tier {
		order = append(order, id)
	}
	sort.Slice(order, func(i, j int) bool {
		a, _ := c.node(order[i])
		b, _ := c.node(order[j])
		if a.Node.Generation != b.Node.Generation {
			return a.Node.Generation < b.Node.Generation
		}
		if a.Pos.X != b.Pos.X {
			return a.Pos.X < b.Pos.X
		}
		return a.Node.ID < b.Node.ID
	})

	frame := Frame{View: view, Calls: make([]DrawCall, 0, len(order))}
	for _, id := range order {
		if c.collapsedUnderChip(id, tier) {
			continue
		}
		pn, _ := c.node(id)
		frame.Calls = append(frame.Calls, c.buildCall(pn, tier[id], tf, scale, now))
	}

	frame.Connectors, frame.DroppedConnectors = c.buildConnectors(order, tier)
	if frame.DroppedConnectors > 0 {
		observability.Frame().OnConnectorsDropped(context.Background(), frame.DroppedConnectors)
	}

	total := 0
	for _, b := range frame.Connectors {
		total += len(b)
	}
	observability.Frame().OnFrameBuilt(context.Background(), len(frame.Calls), total, time.Since(start))
	return frame
}

// buildCall assembles one draw call. Caller holds c.mu.
func (c *Context) buildCall(pn *layout.Node, t lod.Tier, tf geom.Transform, scale float64, now time.Time) DrawCall {
	id := pn.Node.ID
	dc := DrawCall{
		NodeID:   id,
		Tier:     t,
		Progress: c.tiers.Progress(id, now),
	}

	world := pn.Bounds()
	if t == lod.TierChip {
		world = geom.RectAround(pn.Pos, c.sizes.SizeOfRole(tree.RoleAggregation))
		dc.ChipCount = c.subtreeSize(id)
	}
	dc.World = world
	dc.Screen = tf.ApplyRect(world)

	if t == lod.TierFull {
		if pn.Node.PhotoRef == "" {
			dc.Placeholder = true
		} else {
			dc.Bucket = c.buckets.Select(c.tiers.PhysicalPx(scale, pn.Size), c.prevBucket[id])
			c.prevBucket[id] = dc.Bucket
		}
	}

	if t == lod.TierFull || t == lod.TierCompact {
		style := c.cfg.NameStyle
		shaped, err := c.text.Get(pn.Node.Name, style, pn.Size.W-2*namePadding)
		if err != nil {
			c.logger.Debug("label shaping failed, placeholder", "node", id, "err", err)
			dc.Placeholder = true
		} else {
			dc.Text = shaped
		}
	}
	return dc
}

// collapsedUnderChip reports whether id is represented by a chip-tier
// ancestor in this frame's visible set. Caller holds c.mu.
func (c *Context) collapsedUnderChip(id string, tier map[string]lod.Tier) bool {
	pn, ok := c.node(id)
	if !ok {
		return false
	}
	for p := pn.Node.ParentID; p != ""; {
		if tier[p] == lod.TierChip {
			return true
		}
		anc, ok := c.node(p)
		if !ok {
			return false
		}
		p = anc.Node.ParentID
	}
	return false
}

// buildConnectors routes parent->children paths for the frame's visible
// parents. Chips absorb their subtree, so no connectors emerge from or
// under a collapsed chip. Caller holds c.mu.
func (c *Context) buildConnectors(order []string, tier map[string]lod.Tier) ([][]connector.Path, int) {
	parents := make([]*layout.Node, 0, len(order))
	for _, id := range order {
		if tier[id] == lod.TierChip || c.collapsedUnderChip(id, tier) {
			continue
		}
		if len(c.children[id]) == 0 {
			continue
		}
		pn, _ := c.node(id)
		parents = append(parents, pn)
	}

	dropped := 0
	if capN := c.conn.FrameCap; capN > 0 && len(parents) > capN {
		dropped = len(parents) - capN
	}

	batches := c.conn.BuildFrame(parents, func(parentID string) []*layout.Node {
		kids := make([]*layout.Node, 0, len(c.children[parentID]))
		for _, chID := range c.children[parentID] {
			if ch, ok := c.node(chID); ok {
				kids = append(kids, ch)
			}
		}
		return kids
	})
	return batches, dropped
}
