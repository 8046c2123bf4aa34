package tree

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Lifecycle status values for a person node.
const (
	StatusLiving   = "living"
	StatusDeceased = "deceased"
)

// Node roles affecting on-screen footprint and rendering.
const (
	RoleOrdinary    = "ordinary"
	RoleRoot        = "root"
	RoleAggregation = "aggregation" // chip standing in for a collapsed subtree
)

// =============================================================================
// Node - Immutable Graph Record
// =============================================================================

// Node is a single person record as delivered by the data layer.
// It is immutable once fetched: the engine treats it as read-only input and
// layers computed state (position, tier, transform) on top in other types.
type Node struct {
	ID           string `json:"id" bson:"id"`
	ParentID     string `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Generation   int    `json:"generation" bson:"generation"`
	SiblingOrder int    `json:"sibling_order" bson:"sibling_order"`
	Name         string `json:"name" bson:"name"`
	PhotoRef     string `json:"photo_ref,omitempty" bson:"photo_ref,omitempty"`
	Status       string `json:"status,omitempty" bson:"status,omitempty"`
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.ParentID == "" }

// Deceased reports whether the node's lifecycle status is deceased.
// An empty status is treated as living.
func (n *Node) Deceased() bool { return n.Status == StatusDeceased }

// Role returns the rendering role for the node.
// Aggregation chips are synthesized by the renderer, never stored, so a
// stored node is either the root or ordinary.
func (n *Node) Role() string {
	if n.IsRoot() {
		return RoleRoot
	}
	return RoleOrdinary
}

// =============================================================================
// Tree - Serialization Envelope
// =============================================================================

// Tree is the canonical serialization format for a set of nodes.
// Used by the reference server, fixtures, and export.
type Tree struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
}
