package tree

import (
	"io"

	"github.com/charmbracelet/log"

	pkgerrors "github.com/Qefaraki/treescape/pkg/errors"
)

// ValidateNodes filters a batch of nodes down to the renderable subset.
//
// Malformed records are skipped, never fatal: a node missing its ID or name
// is dropped, a node whose parent chain loops back on itself has its parent
// reference severed (it becomes a detached root) so layout can still place
// it, and an unsafe photo reference is cleared so the node renders with a
// placeholder. Each repair is logged at warn level.
//
// The returned slice preserves input order for the surviving nodes.
func ValidateNodes(nodes []Node, logger *log.Logger) []Node {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	byID := make(map[string]*Node, len(nodes))
	out := make([]Node, 0, len(nodes))

	for i := range nodes {
		n := nodes[i]
		if n.ID == "" {
			logger.Warn("skipping node with empty id", "name", n.Name)
			continue
		}
		if n.Name == "" {
			logger.Warn("skipping node with empty name", "id", n.ID)
			continue
		}
		if _, dup := byID[n.ID]; dup {
			logger.Warn("skipping duplicate node id", "id", n.ID)
			continue
		}
		// Photo refs become bucket URL components, so traversal sequences
		// and absolute paths are stripped rather than passed through.
		if n.PhotoRef != "" {
			if err := pkgerrors.ValidatePath(n.PhotoRef); err != nil {
				logger.Warn("clearing unsafe photo reference", "id", n.ID, "err", err)
				n.PhotoRef = ""
			}
		}
		out = append(out, n)
		byID[n.ID] = &out[len(out)-1]
	}

	// Break parent cycles. Walking at most len(out) hops from each node is
	// enough to prove a loop without extra bookkeeping allocations.
	for i := range out {
		if cyclic(&out[i], byID, len(out)) {
			logger.Warn("breaking cyclic parent reference", "id", out[i].ID)
			out[i].ParentID = ""
		}
	}

	return out
}

// cyclic reports whether following parent references from n revisits n or
// never terminates within maxHops steps.
func cyclic(n *Node, byID map[string]*Node, maxHops int) bool {
	cur := n
	for hops := 0; cur.ParentID != ""; hops++ {
		if hops >= maxHops {
			return true
		}
		next, ok := byID[cur.ParentID]
		if !ok {
			return false // dangling parent: node renders as detached, not cyclic
		}
		if next.ID == n.ID {
			return true
		}
		cur = next
	}
	return false
}
