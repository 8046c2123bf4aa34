// Package layout computes world-space positions for tree nodes.
//
// The engine is the single producer of [Node] values: every other part of
// the engine (culling, rendering, hit-testing, connector routing) consumes
// its output and treats positions as authoritative until the next layout
// pass. Layout passes are infrequent relative to frames - they run on
// initial load and whenever the resident node set changes structurally.
package layout

import (
	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/tree"
)

// Default footprints in world points. Roots get a larger card, aggregation
// chips a small capsule. Sized for a ~400pt-wide phone viewport at scale 1.
var (
	DefaultOrdinarySize    = geom.Size{W: 84, H: 110}
	DefaultRootSize        = geom.Size{W: 110, H: 140}
	DefaultAggregationSize = geom.Size{W: 64, H: 28}
)

// SizeProvider is the single source of truth for a node's on-screen
// footprint. Layout, culling margins, hit-testing, and rendering all consult
// the same provider so the four can never disagree about where a node ends.
//
// The zero value is not usable; construct with NewSizeProvider.
type SizeProvider struct {
	byRole map[string]geom.Size
}

// NewSizeProvider creates a provider with the default role footprints.
func NewSizeProvider() *SizeProvider {
	return &SizeProvider{byRole: map[string]geom.Size{
		tree.RoleOrdinary:    DefaultOrdinarySize,
		tree.RoleRoot:        DefaultRootSize,
		tree.RoleAggregation: DefaultAggregationSize,
	}}
}

// SetRole overrides the footprint for a role. Future roles (pinned, VIP)
// register here without any caller changing its lookup code.
func (p *SizeProvider) SetRole(role string, s geom.Size) {
	p.byRole[role] = s
}

// SizeOf returns the footprint for a node based on its role.
func (p *SizeProvider) SizeOf(n *tree.Node) geom.Size {
	return p.SizeOfRole(n.Role())
}

// SizeOfRole returns the footprint for a role, falling back to the
// ordinary footprint for unknown roles.
func (p *SizeProvider) SizeOfRole(role string) geom.Size {
	if s, ok := p.byRole[role]; ok {
		return s
	}
	return p.byRole[tree.RoleOrdinary]
}
