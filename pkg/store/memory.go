package store

import (
	"context"
	"sort"

	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/layout"
	"github.com/Qefaraki/treescape/pkg/spatial"
	"github.com/Qefaraki/treescape/pkg/tree"
)

// MemorySource serves region queries from an in-process node set. It runs
// a full layout pass on construction and indexes the resulting positions,
// so region queries answer from the same world coordinates the engine
// renders at. Used by the reference server, the demo command, and tests.
type MemorySource struct {
	nodes  map[string]tree.Node
	placed map[string]layout.Node
	index  *spatial.Index
	rootID string
}

// NewMemorySource validates and lays out nodes, then indexes their
// positions for region queries.
func NewMemorySource(nodes []tree.Node) *MemorySource {
	valid := tree.ValidateNodes(nodes, nil)

	engine := layout.NewEngine(layout.NewSizeProvider())
	placed := engine.Compute(valid)

	s := &MemorySource{
		nodes:  make(map[string]tree.Node, len(valid)),
		placed: make(map[string]layout.Node, len(placed)),
		index:  spatial.NewIndex(spatial.DefaultCellSize),
	}
	for _, n := range valid {
		s.nodes[n.ID] = n
		if s.rootID == "" && n.IsRoot() {
			s.rootID = n.ID
		}
	}
	for _, p := range placed {
		s.placed[p.Node.ID] = p
		s.index.Insert(p.Node.ID, p.Bounds())
	}
	return s
}

// RootID returns the default root's identifier, or "" for an empty source.
func (s *MemorySource) RootID() string { return s.rootID }

// PlacedNode returns the laid-out node for an id.
func (s *MemorySource) PlacedNode(id string) (layout.Node, bool) {
	p, ok := s.placed[id]
	return p, ok
}

// Len reports the number of resident nodes.
func (s *MemorySource) Len() int { return len(s.nodes) }

// FetchRegion returns the nodes whose footprints intersect bounds,
// shallowest generations first. maxDepth limits how many generations below
// the shallowest match are included; zero means no limit.
func (s *MemorySource) FetchRegion(ctx context.Context, bounds geom.Rect, maxDepth int) ([]tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := s.index.QueryBounds(bounds)
	out := make([]tree.Node, 0, len(ids))
	minGen := 0
	for i, id := range ids {
		n := s.nodes[id]
		if i == 0 || n.Generation < minGen {
			minGen = n.Generation
		}
		out = append(out, n)
	}

	if maxDepth > 0 {
		filtered := out[:0]
		for _, n := range out {
			if n.Generation-minGen < maxDepth {
				filtered = append(filtered, n)
			}
		}
		out = filtered
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Generation != out[j].Generation {
			return out[i].Generation < out[j].Generation
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// FetchInitial returns rootID's node plus the given number of generations
// below it. An empty rootID selects the source's default root.
func (s *MemorySource) FetchInitial(ctx context.Context, rootID string, generations int) ([]tree.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rootID == "" {
		rootID = s.rootID
	}
	root, ok := s.nodes[rootID]
	if !ok {
		return nil, ErrNotFound
	}
	if generations <= 0 {
		generations = DefaultInitialGenerations
	}

	children := make(map[string][]tree.Node, len(s.nodes))
	for _, n := range s.nodes {
		if n.ParentID != "" {
			children[n.ParentID] = append(children[n.ParentID], n)
		}
	}

	out := []tree.Node{root}
	frontier := []string{root.ID}
	for g := 0; g < generations && len(frontier) > 0; g++ {
		var next []string
		for _, id := range frontier {
			for _, ch := range children[id] {
				out = append(out, ch)
				next = append(next, ch.ID)
			}
		}
		frontier = next
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Generation != out[j].Generation {
			return out[i].Generation < out[j].Generation
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Ensure MemorySource implements NodeSource.
var _ NodeSource = (*MemorySource)(nil)
