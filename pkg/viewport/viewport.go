// Package viewport tracks what the camera can see and keeps the backing
// data loaded underneath it.
//
// [Viewport] derives the world-space visible rectangle from screen size
// and camera transform. [Loader] watches that rectangle and runs the
// progressive-loading state machine: debounced region fetches, stale
// response discard, predictive expansion along pan velocity, and
// LRU eviction of far-away resident nodes under a memory ceiling.
package viewport

import (
	"github.com/Qefaraki/treescape/pkg/camera"
	"github.com/Qefaraki/treescape/pkg/geom"
)

// DefaultMargin is the world-point margin added around the screen rect so
// nodes just outside the edge are resident before they scroll into view.
const DefaultMargin = 200.0

// Viewport pairs screen dimensions with a camera snapshot.
type Viewport struct {
	Screen geom.Size
	Camera camera.Camera
}

// VisibleRect returns the world-space rectangle the screen currently
// covers, grown by margin on every side.
func (v Viewport) VisibleRect(margin float64) geom.Rect {
	screen := geom.Rect{MaxX: v.Screen.W, MaxY: v.Screen.H}
	world := v.Camera.Transform().InvertRect(screen)
	return world.Outset(margin)
}
