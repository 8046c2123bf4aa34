// Package spatial provides a fixed-cell grid index over node footprints.
//
// The index answers "which nodes might intersect this rectangle" in time
// proportional to the number of covered cells, not the node count. It may
// return false positives (candidates whose footprint only touches a shared
// cell); it must never return a false negative for a correctly-bounded
// query. Callers filter candidates against exact footprints downstream.
package spatial

import "github.com/Qefaraki/treescape/pkg/geom"

// DefaultCellSize is tuned so a phone viewport at scale 1 spans a handful
// of cells in each axis.
const DefaultCellSize = 256.0

type cellKey struct{ cx, cy int }

// Index partitions world space into fixed-size square cells and tracks
// which node IDs occupy each cell. Rebuilt wholesale after layout passes;
// read-only during culling and hit-testing.
type Index struct {
	cellSize float64
	cells    map[cellKey][]string
	// homes remembers each node's covered cell range so re-insertion is
	// idempotent: last write wins for cell membership.
	homes map[string][4]int
}

// NewIndex creates an index with the given cell size.
// A non-positive size falls back to DefaultCellSize.
func NewIndex(cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Index{
		cellSize: cellSize,
		cells:    make(map[cellKey][]string),
		homes:    make(map[string][4]int),
	}
}

// Insert registers a node footprint. Re-inserting an existing ID first
// removes its previous cell membership.
func (ix *Index) Insert(id string, bounds geom.Rect) {
	if _, ok := ix.homes[id]; ok {
		ix.Remove(id)
	}
	x0, y0, x1, y1 := ix.cellRange(bounds)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			k := cellKey{cx, cy}
			ix.cells[k] = append(ix.cells[k], id)
		}
	}
	ix.homes[id] = [4]int{x0, y0, x1, y1}
}

// Remove deletes a node from the index. Unknown IDs are a no-op.
func (ix *Index) Remove(id string) {
	home, ok := ix.homes[id]
	if !ok {
		return
	}
	for cy := home[1]; cy <= home[3]; cy++ {
		for cx := home[0]; cx <= home[2]; cx++ {
			k := cellKey{cx, cy}
			members := ix.cells[k]
			for i, m := range members {
				if m == id {
					ix.cells[k] = append(members[:i], members[i+1:]...)
					break
				}
			}
			if len(ix.cells[k]) == 0 {
				delete(ix.cells, k)
			}
		}
	}
	delete(ix.homes, id)
}

// QueryBounds returns the IDs of all nodes whose footprint may intersect
// rect. The result is deduplicated but unordered. Querying an empty index
// returns an empty slice.
func (ix *Index) QueryBounds(rect geom.Rect) []string {
	x0, y0, x1, y1 := ix.cellRange(rect)
	var out []string
	seen := make(map[string]bool)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			for _, id := range ix.cells[cellKey{cx, cy}] {
				if !seen[id] {
					seen[id] = true
					out = append(out, id)
				}
			}
		}
	}
	return out
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int { return len(ix.homes) }

// Clear empties the index, keeping allocated maps for reuse.
func (ix *Index) Clear() {
	clear(ix.cells)
	clear(ix.homes)
}

func (ix *Index) cellRange(r geom.Rect) (x0, y0, x1, y1 int) {
	x0 = int(floorDiv(r.MinX, ix.cellSize))
	y0 = int(floorDiv(r.MinY, ix.cellSize))
	x1 = int(floorDiv(r.MaxX, ix.cellSize))
	y1 = int(floorDiv(r.MaxY, ix.cellSize))
	return
}

func floorDiv(v, cell float64) float64 {
	q := v / cell
	f := float64(int(q))
	if q < 0 && q != f {
		f--
	}
	return f
}
