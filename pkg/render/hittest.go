package render

import (
	"sort"

	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/lod"
	"github.com/Qefaraki/treescape/pkg/tree"
	"github.com/Qefaraki/treescape/pkg/viewport"
)

// HitKind tells callers what a screen point landed on.
type HitKind int

const (
	// HitNone means the point hit empty canvas.
	HitNone HitKind = iota
	// HitNode means ID is a person card drawn at full or compact tier.
	HitNode
	// HitChip means ID is the carrier of an aggregation chip; the tap
	// targets the collapsed subtree as a whole.
	HitChip
)

func (k HitKind) String() string {
	switch k {
	case HitNode:
		return "node"
	case HitChip:
		return "chip"
	default:
		return "none"
	}
}

// Hit is the result of a hit test.
type Hit struct {
	Kind HitKind
	ID   string
}

// HitTest maps a screen point to the node or chip under it, using the
// tier state of the last built frame so taps agree with what is drawn.
// Footprints come from the same size provider and spatial index the frame
// pipeline uses. When cards overlap, the deepest generation wins - it is
// painted last, so it is what the user sees.
func (c *Context) HitTest(view viewport.Viewport, x, y float64) Hit {
	c.mu.Lock()
	defer c.mu.Unlock()

	wp := view.Camera.Transform().Invert(geom.Point{X: x, Y: y})
	probe := geom.Rect{MinX: wp.X, MinY: wp.Y, MaxX: wp.X, MaxY: wp.Y}

	ids := c.index.QueryBounds(probe)
	sort.Slice(ids, func(i, j int) bool {
		a, _ := c.node(ids[i])
		b, _ := c.node(ids[j])
		if a.Node.Generation != b.Node.Generation {
			return a.Node.Generation > b.Node.Generation
		}
		return a.Node.ID < b.Node.ID
	})

	for _, id := range ids {
		pn, ok := c.node(id)
		if !ok {
			continue
		}
		if carrier, collapsed := c.chipCarrier(id); collapsed {
			// The point is inside the footprint of a node that is
			// currently folded into a chip; the chip takes the tap.
			chipRect := c.chipRect(carrier)
			if chipRect.Contains(wp) {
				return Hit{Kind: HitChip, ID: carrier}
			}
			continue
		}
		if c.lastTier[id] == lod.TierChip {
			if c.chipRect(id).Contains(wp) {
				return Hit{Kind: HitChip, ID: id}
			}
			continue
		}
		if pn.Bounds().Contains(wp) {
			return Hit{Kind: HitNode, ID: id}
		}
	}
	return Hit{}
}

// chipCarrier walks up to the topmost chip-tier ancestor of id as of the
// last frame. The second return is false when id is not collapsed under
// anything. Caller holds c.mu.
func (c *Context) chipCarrier(id string) (string, bool) {
	carrier := ""
	pn, ok := c.node(id)
	if !ok {
		return "", false
	}
	for p := pn.Node.ParentID; p != ""; {
		if c.lastTier[p] == lod.TierChip {
			carrier = p
		}
		anc, ok := c.node(p)
		if !ok {
			break
		}
		p = anc.Node.ParentID
	}
	return carrier, carrier != ""
}

// chipRect is the world-space footprint an aggregation chip draws at.
// Caller holds c.mu.
func (c *Context) chipRect(id string) geom.Rect {
	pn, ok := c.node(id)
	if !ok {
		return geom.Rect{}
	}
	return geom.RectAround(pn.Pos, c.sizes.SizeOfRole(tree.RoleAggregation))
}
