// Package connector computes the orthogonal paths that join parents to
// their children.
//
// The shape is a T-junction: a vertical drop from the parent's bottom
// edge, a shared horizontal bus when there are two or more children (or
// when a lone child is horizontally offset), and a vertical drop into each
// child's top edge. Paths are grouped into fixed-size batches purely for
// draw-call submission; batching never changes geometry.
package connector

import (
	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/layout"
)

// Defaults for draw submission and frame budgeting.
const (
	// DefaultBatchSize is how many connectors share one draw batch.
	DefaultBatchSize = 50
	// DefaultFrameCap bounds connectors considered per frame. Excess
	// beyond the cap is silently dropped - a deliberate lossy policy
	// under extreme density, chosen over degrading frame time.
	DefaultFrameCap = 400
	// DefaultOffsetThreshold is the horizontal child offset in world
	// points beyond which a lone child still gets a bus segment.
	DefaultOffsetThreshold = 2.0
)

// Segment is one axis-aligned line piece.
type Segment struct {
	From geom.Point
	To   geom.Point
}

// Path is the full connector between a parent and one or all of its
// children.
type Path struct {
	ParentID string
	Segments []Segment
}

// Builder computes connector geometry.
type Builder struct {
	// OffsetThreshold triggers bus routing for a single offset child.
	OffsetThreshold float64
	// BatchSize groups paths for submission.
	BatchSize int
	// FrameCap bounds the connectors considered in one frame.
	FrameCap int
}

// NewBuilder returns a builder with default tuning.
func NewBuilder() *Builder {
	return &Builder{
		OffsetThreshold: DefaultOffsetThreshold,
		BatchSize:       DefaultBatchSize,
		FrameCap:        DefaultFrameCap,
	}
}

// BuildParentChild returns the path from parent to a single child:
// a straight vertical drop when the child sits directly below, otherwise
// a drop / jog / drop three-segment route.
func (b *Builder) BuildParentChild(parent, child *layout.Node) Path {
	start := bottomCenter(parent)
	end := topCenter(child)

	dx := end.X - start.X
	if dx < b.OffsetThreshold && dx > -b.OffsetThreshold {
		return Path{ParentID: parent.Node.ID, Segments: []Segment{
			{From: start, To: geom.Point{X: start.X, Y: end.Y}},
		}}
	}

	busY := (start.Y + end.Y) / 2
	return Path{ParentID: parent.Node.ID, Segments: []Segment{
		{From: start, To: geom.Point{X: start.X, Y: busY}},
		{From: geom.Point{X: start.X, Y: busY}, To: geom.Point{X: end.X, Y: busY}},
		{From: geom.Point{X: end.X, Y: busY}, To: end},
	}}
}

// BuildSiblingBus returns the T-junction for a parent and its children:
// one drop from the parent, one bus spanning the outermost children, and
// one drop per child. One child degenerates to BuildParentChild.
func (b *Builder) BuildSiblingBus(parent *layout.Node, children []*layout.Node) Path {
	if len(children) == 0 {
		return Path{ParentID: parent.Node.ID}
	}
	if len(children) == 1 {
		return b.BuildParentChild(parent, children[0])
	}

	start := bottomCenter(parent)
	minX, maxX := children[0].Pos.X, children[0].Pos.X
	topY := topCenter(children[0]).Y
	for _, ch := range children[1:] {
		if ch.Pos.X < minX {
			minX = ch.Pos.X
		}
		if ch.Pos.X > maxX {
			maxX = ch.Pos.X
		}
		if y := topCenter(ch).Y; y < topY {
			topY = y
		}
	}
	busY := (start.Y + topY) / 2

	segs := make([]Segment, 0, len(children)+2)
	segs = append(segs,
		Segment{From: start, To: geom.Point{X: start.X, Y: busY}},
		Segment{From: geom.Point{X: minX, Y: busY}, To: geom.Point{X: maxX, Y: busY}},
	)
	for _, ch := range children {
		end := topCenter(ch)
		segs = append(segs, Segment{From: geom.Point{X: end.X, Y: busY}, To: end})
	}
	return Path{ParentID: parent.Node.ID, Segments: segs}
}

// BuildFrame computes capped, batched connectors for the visible node set.
// nodes maps IDs to placed nodes; family lists each visible parent's
// visible children in sibling order. Parents beyond FrameCap are dropped
// silently.
func (b *Builder) BuildFrame(parents []*layout.Node, childrenOf func(parentID string) []*layout.Node) [][]Path {
	capN := b.FrameCap
	if capN <= 0 {
		capN = DefaultFrameCap
	}

	paths := make([]Path, 0, min(len(parents), capN))
	for _, p := range parents {
		if len(paths) >= capN {
			break
		}
		kids := childrenOf(p.Node.ID)
		if len(kids) == 0 {
			continue
		}
		paths = append(paths, b.BuildSiblingBus(p, kids))
	}
	return b.Batch(paths)
}

// Batch splits paths into fixed-size groups for draw submission.
func (b *Builder) Batch(paths []Path) [][]Path {
	size := b.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]Path
	for len(paths) > size {
		out = append(out, paths[:size])
		paths = paths[size:]
	}
	if len(paths) > 0 {
		out = append(out, paths)
	}
	return out
}

func bottomCenter(n *layout.Node) geom.Point {
	return geom.Point{X: n.Pos.X, Y: n.Pos.Y + n.Size.H/2}
}

func topCenter(n *layout.Node) geom.Point {
	return geom.Point{X: n.Pos.X, Y: n.Pos.Y - n.Size.H/2}
}
