package layout

import (
	"sort"

	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/tree"
)

// Node is a tree node with its computed world-space placement.
// Immutable between layout passes.
type Node struct {
	Node tree.Node
	Pos  geom.Point // center of the footprint
	Size geom.Size
}

// Bounds returns the world-space rect occupied by the node.
func (n *Node) Bounds() geom.Rect {
	return geom.RectAround(n.Pos, n.Size)
}

// Engine lays out a genealogy tree top-down: one row per generation,
// subtrees packed left to right, parents centered over their children.
type Engine struct {
	Sizes *SizeProvider

	// HGap separates sibling subtrees, VGap separates generation rows.
	HGap float64
	VGap float64
}

// NewEngine creates an engine with default spacing.
func NewEngine(sizes *SizeProvider) *Engine {
	if sizes == nil {
		sizes = NewSizeProvider()
	}
	return &Engine{Sizes: sizes, HGap: 24, VGap: 60}
}

// Compute lays out the whole node set and returns one placed Node per
// input node. Detached roots (nodes whose parent is absent from the set)
// each start their own column so partially-loaded regions still render.
// Input order does not matter; siblings are ordered by SiblingOrder.
func (e *Engine) Compute(nodes []tree.Node) []Node {
	if len(nodes) == 0 {
		return nil
	}

	children := make(map[string][]int, len(nodes))
	present := make(map[string]int, len(nodes))
	for i := range nodes {
		present[nodes[i].ID] = i
	}

	var roots []int
	for i := range nodes {
		p := nodes[i].ParentID
		if p == "" || p == nodes[i].ID {
			roots = append(roots, i)
			continue
		}
		if _, ok := present[p]; !ok {
			roots = append(roots, i) // parent not resident yet
			continue
		}
		children[p] = append(children[p], i)
	}

	orderSiblings := func(idxs []int) {
		sort.SliceStable(idxs, func(a, b int) bool {
			na, nb := &nodes[idxs[a]], &nodes[idxs[b]]
			if na.SiblingOrder != nb.SiblingOrder {
				return na.SiblingOrder < nb.SiblingOrder
			}
			return na.ID < nb.ID
		})
	}
	for _, c := range children {
		orderSiblings(c)
	}
	orderSiblings(roots)

	out := make([]Node, len(nodes))
	for i := range nodes {
		out[i] = Node{Node: nodes[i], Size: e.Sizes.SizeOf(&nodes[i])}
	}

	// Row baselines: each generation row is as tall as its tallest member.
	rowH := e.rowHeights(out, children, roots)

	cursor := 0.0
	for _, r := range roots {
		w := e.place(out, children, r, cursor, 0, rowH)
		cursor += w + e.HGap
	}
	return out
}

// place positions the subtree rooted at idx with its left edge at x and
// returns the subtree width. depth indexes into the row baseline table.
func (e *Engine) place(out []Node, children map[string][]int, idx int, x float64, depth int, rowY []float64) float64 {
	kids := children[out[idx].Node.ID]
	self := out[idx].Size.W

	if len(kids) == 0 {
		out[idx].Pos = geom.Point{X: x + self/2, Y: rowY[depth]}
		return self
	}

	cursor := x
	for i, k := range kids {
		if i > 0 {
			cursor += e.HGap
		}
		cursor += e.place(out, children, k, cursor, depth+1, rowY)
	}
	childSpan := cursor - x

	width := childSpan
	if self > width {
		// Children narrower than the parent card: recenter them under it.
		shift := (self - width) / 2
		for _, k := range kids {
			shiftSubtree(out, children, k, shift)
		}
		width = self
	}

	first, last := out[kids[0]].Pos.X, out[kids[len(kids)-1]].Pos.X
	out[idx].Pos = geom.Point{X: (first + last) / 2, Y: rowY[depth]}
	return width
}

func shiftSubtree(out []Node, children map[string][]int, idx int, dx float64) {
	out[idx].Pos.X += dx
	for _, k := range children[out[idx].Node.ID] {
		shiftSubtree(out, children, k, dx)
	}
}

// rowHeights computes the Y center of each generation row.
func (e *Engine) rowHeights(out []Node, children map[string][]int, roots []int) []float64 {
	maxDepth := 0
	tallest := map[int]float64{}

	var walk func(idx, depth int)
	walk = func(idx, depth int) {
		if depth > maxDepth {
			maxDepth = depth
		}
		if h := out[idx].Size.H; h > tallest[depth] {
			tallest[depth] = h
		}
		for _, k := range children[out[idx].Node.ID] {
			walk(k, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}

	rows := make([]float64, maxDepth+1)
	y := 0.0
	for d := 0; d <= maxDepth; d++ {
		rows[d] = y + tallest[d]/2
		y += tallest[d] + e.VGap
	}
	return rows
}

// ComputeSubtree relays out only the subtree rooted at rootID, anchoring
// the subtree root at its previous position. Used when a lifecycle event
// (node created/updated/removed) changes one region of the tree; the rest
// of the placed set is untouched.
//
// prev must contain the current full layout; nodes is the updated resident
// node set. The returned slice is a full replacement layout.
func (e *Engine) ComputeSubtree(prev []Node, nodes []tree.Node, rootID string) []Node {
	var anchor *geom.Point
	for i := range prev {
		if prev[i].Node.ID == rootID {
			p := prev[i].Pos
			anchor = &p
			break
		}
	}
	if anchor == nil {
		// Subtree root unknown: fall back to a full pass.
		return e.Compute(nodes)
	}

	// Lay out just the subtree in isolation, then translate it so its root
	// lands back on the anchor.
	inSub := subtreeNodes(nodes, rootID)
	sub := e.Compute(inSub)

	var dx, dy float64
	for i := range sub {
		if sub[i].Node.ID == rootID {
			dx = anchor.X - sub[i].Pos.X
			dy = anchor.Y - sub[i].Pos.Y
			break
		}
	}

	moved := make(map[string]Node, len(sub))
	for i := range sub {
		sub[i].Pos.X += dx
		sub[i].Pos.Y += dy
		moved[sub[i].Node.ID] = sub[i]
	}

	out := make([]Node, 0, len(prev)+len(sub))
	seen := make(map[string]bool, len(prev))
	for i := range prev {
		if m, ok := moved[prev[i].Node.ID]; ok {
			out = append(out, m)
			seen[m.Node.ID] = true
			continue
		}
		if inSet(nodes, prev[i].Node.ID) {
			out = append(out, prev[i])
			seen[prev[i].Node.ID] = true
		}
		// Nodes no longer resident are dropped.
	}
	for id, m := range moved {
		if !seen[id] {
			out = append(out, m)
		}
	}
	return out
}

func subtreeNodes(nodes []tree.Node, rootID string) []tree.Node {
	children := make(map[string][]int, len(nodes))
	var root *tree.Node
	for i := range nodes {
		if nodes[i].ID == rootID {
			root = &nodes[i]
		}
		children[nodes[i].ParentID] = append(children[nodes[i].ParentID], i)
	}
	if root == nil {
		return nil
	}

	var out []tree.Node
	var walk func(n *tree.Node)
	walk = func(n *tree.Node) {
		cp := *n
		if n.ID == rootID {
			cp.ParentID = "" // isolate the subtree for the nested pass
		}
		out = append(out, cp)
		for _, ci := range children[n.ID] {
			walk(&nodes[ci])
		}
	}
	walk(root)
	return out
}

func inSet(nodes []tree.Node, id string) bool {
	for i := range nodes {
		if nodes[i].ID == id {
			return true
		}
	}
	return false
}
