package tree

import (
	"fmt"
	"math/rand"
)

// GenerateOptions controls demo tree generation.
type GenerateOptions struct {
	// Count is the total number of nodes to generate (including the root).
	Count int
	// MaxChildren bounds the fan-out per parent.
	MaxChildren int
	// Seed makes generation deterministic.
	Seed int64
}

// Generate produces a synthetic genealogy tree for fixtures, demos, and
// tests. The shape is deterministic for a given options value: nodes are
// attached breadth-first with a seeded random fan-out, so generation depth
// grows roughly logarithmically with count.
func Generate(opts GenerateOptions) Tree {
	if opts.Count <= 0 {
		opts.Count = 1
	}
	if opts.MaxChildren <= 0 {
		opts.MaxChildren = 5
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	nodes := make([]Node, 0, opts.Count)
	nodes = append(nodes, Node{
		ID:     "p0001",
		Name:   "الجد الأول",
		Status: StatusDeceased,
	})

	// Parents eligible for more children, breadth-first.
	frontier := []int{0}
	for len(nodes) < opts.Count && len(frontier) > 0 {
		next := frontier[:0:0]
		for _, pi := range frontier {
			kids := 1 + rng.Intn(opts.MaxChildren)
			for k := 0; k < kids && len(nodes) < opts.Count; k++ {
				id := fmt.Sprintf("p%04d", len(nodes)+1)
				status := StatusLiving
				if nodes[pi].Generation < 3 || rng.Intn(4) == 0 {
					status = StatusDeceased
				}
				child := Node{
					ID:           id,
					ParentID:     nodes[pi].ID,
					Generation:   nodes[pi].Generation + 1,
					SiblingOrder: k,
					Name:         fmt.Sprintf("فرد %d", len(nodes)+1),
					Status:       status,
				}
				if rng.Intn(3) == 0 {
					child.PhotoRef = fmt.Sprintf("photos/%s.jpg", id)
				}
				nodes = append(nodes, child)
				next = append(next, len(nodes)-1)
			}
		}
		frontier = next
	}

	return Tree{Nodes: nodes}
}
