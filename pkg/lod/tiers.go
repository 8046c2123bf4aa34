// Package lod assigns rendering fidelity to nodes based on their physical
// on-screen size.
//
// Two anti-thrash mechanisms live here and nowhere else:
//
//   - Tier hysteresis: once a node holds a tier it keeps it until its
//     physical size crosses the opposite edge of a band around the
//     threshold, so zoom jitter near a boundary never flips tiers.
//   - Bucket hysteresis: the image resolution bucket holds through small
//     display-size fluctuations, so a node hovering at a boundary does not
//     request alternating re-decodes.
//
// Classification is in physical device pixels (footprint x scale x pixel
// ratio), never raw scale, so behavior is identical across screen
// densities.
package lod

import (
	"time"

	"github.com/Qefaraki/treescape/pkg/geom"
)

// Tier is a rendering fidelity level.
type Tier int

const (
	// TierFull renders the complete card: photo, name, badges.
	TierFull Tier = iota + 1
	// TierCompact renders a name label only.
	TierCompact
	// TierChip renders an aggregated chip standing in for a subtree.
	TierChip
)

func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierCompact:
		return "compact"
	case TierChip:
		return "chip"
	default:
		return "unknown"
	}
}

// TierConfig holds the classification thresholds.
//
// Hysteresis is the tunable that controls visible "size jumping" at tier
// boundaries: too narrow and tiers flip rapidly near a threshold, too wide
// and tiers feel sluggish to upgrade. The default is a starting point, not
// a validated constant - tune against the target device class together
// with Crossfade.
type TierConfig struct {
	// FullPx is the physical height above which a node earns TierFull.
	FullPx float64
	// CompactPx is the physical height above which a node earns
	// TierCompact; below it the node collapses to TierChip.
	CompactPx float64
	// Hysteresis is the half-width of the band around each threshold,
	// as a fraction of the threshold (0.25 = +/-25%).
	Hysteresis float64
	// PixelRatio converts logical points to device pixels.
	PixelRatio float64
	// Crossfade is how long a tier transition takes to interpolate 0..1.
	Crossfade time.Duration
}

// DefaultTierConfig returns the tuned defaults for phone-class displays.
func DefaultTierConfig() TierConfig {
	return TierConfig{
		FullPx:     40,
		CompactPx:  24,
		Hysteresis: 0.25,
		PixelRatio: 1,
		Crossfade:  180 * time.Millisecond,
	}
}

// tierState is the per-node sticky state.
type tierState struct {
	tier      Tier
	changedAt time.Time
}

// TierClassifier assigns tiers with per-node hysteresis.
// Methods are not safe for concurrent use; the render loop owns one
// classifier per view (see render.Context).
type TierClassifier struct {
	cfg   TierConfig
	nodes map[string]tierState
}

// NewTierClassifier creates a classifier.
// Zero-valued config fields fall back to defaults.
func NewTierClassifier(cfg TierConfig) *TierClassifier {
	def := DefaultTierConfig()
	if cfg.FullPx <= 0 {
		cfg.FullPx = def.FullPx
	}
	if cfg.CompactPx <= 0 {
		cfg.CompactPx = def.CompactPx
	}
	if cfg.Hysteresis <= 0 {
		cfg.Hysteresis = def.Hysteresis
	}
	if cfg.PixelRatio <= 0 {
		cfg.PixelRatio = def.PixelRatio
	}
	if cfg.Crossfade <= 0 {
		cfg.Crossfade = def.Crossfade
	}
	return &TierClassifier{cfg: cfg, nodes: make(map[string]tierState)}
}

// PhysicalPx returns a node's physical on-screen height in device pixels.
func (c *TierClassifier) PhysicalPx(scale float64, footprint geom.Size) float64 {
	return footprint.H * scale * c.cfg.PixelRatio
}

// Classify returns the tier for a node at the current scale.
//
// A node seen for the first time gets the raw threshold classification.
// A known node keeps its tier until its physical size crosses the opposite
// edge of the hysteresis band, and moves one adjacent tier per crossing -
// a monotonic zoom sweep therefore produces each transition exactly once.
func (c *TierClassifier) Classify(id string, scale float64, footprint geom.Size) Tier {
	return c.classifyAt(id, scale, footprint, time.Now())
}

// ClassifyAt is Classify with an explicit clock, for deterministic tests
// and frame-driven callers that already hold the frame timestamp.
func (c *TierClassifier) ClassifyAt(id string, scale float64, footprint geom.Size, now time.Time) Tier {
	return c.classifyAt(id, scale, footprint, now)
}

func (c *TierClassifier) classifyAt(id string, scale float64, footprint geom.Size, now time.Time) Tier {
	px := c.PhysicalPx(scale, footprint)

	st, known := c.nodes[id]
	if !known {
		st = tierState{tier: c.raw(px)}
		c.nodes[id] = st
		return st.tier
	}

	h := c.cfg.Hysteresis
	// Step at most one adjacent tier per band crossing; loop so a single
	// large zoom jump still converges within this call.
	for {
		next := st.tier
		switch st.tier {
		case TierFull:
			if px < c.cfg.FullPx*(1-h) {
				next = TierCompact
			}
		case TierCompact:
			if px > c.cfg.FullPx*(1+h) {
				next = TierFull
			} else if px < c.cfg.CompactPx*(1-h) {
				next = TierChip
			}
		case TierChip:
			if px > c.cfg.CompactPx*(1+h) {
				next = TierCompact
			}
		}
		if next == st.tier {
			break
		}
		st = tierState{tier: next, changedAt: now}
	}
	c.nodes[id] = st
	return st.tier
}

// Progress returns the 0..1 interpolation progress of the node's most
// recent tier change at time now. 1 means the transition has settled; the
// renderer uses intermediate values to crossfade and resize instead of
// snapping. Unknown nodes report 1.
func (c *TierClassifier) Progress(id string, now time.Time) float64 {
	st, ok := c.nodes[id]
	if !ok || st.changedAt.IsZero() {
		return 1
	}
	p := float64(now.Sub(st.changedAt)) / float64(c.cfg.Crossfade)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Forget drops per-node state, e.g. when a node is evicted from the
// resident set.
func (c *TierClassifier) Forget(id string) { delete(c.nodes, id) }

// Reset drops all sticky state.
func (c *TierClassifier) Reset() { clear(c.nodes) }

// raw is the threshold classification without hysteresis, used only for
// first sight of a node.
func (c *TierClassifier) raw(px float64) Tier {
	switch {
	case px >= c.cfg.FullPx:
		return TierFull
	case px >= c.cfg.CompactPx:
		return TierCompact
	default:
		return TierChip
	}
}
