package connector

import (
	"fmt"
	"testing"

	"github.com/Qefaraki/treescape/pkg/geom"
	"github.com/Qefaraki/treescape/pkg/layout"
	"github.com/Qefaraki/treescape/pkg/tree"
)

func placed(id string, x, y float64) *layout.Node {
	return &layout.Node{
		Node: tree.Node{ID: id},
		Pos:  geom.Point{X: x, Y: y},
		Size: geom.Size{W: 84, H: 110},
	}
}

func TestBuildParentChildStraightDrop(t *testing.T) {
	b := NewBuilder()
	parent := placed("p", 100, 100)
	child := placed("c", 100, 300)

	path := b.BuildParentChild(parent, child)
	if len(path.Segments) != 1 {
		t.Fatalf("expected single vertical segment, got %d", len(path.Segments))
	}
	seg := path.Segments[0]
	if seg.From.X != seg.To.X {
		t.Errorf("drop is not vertical: %+v", seg)
	}
	if seg.From.Y != 155 || seg.To.Y != 245 {
		t.Errorf("drop should run from parent bottom (155) to child top (245), got %v -> %v", seg.From.Y, seg.To.Y)
	}
}

func TestBuildParentChildOffsetJog(t *testing.T) {
	b := NewBuilder()
	parent := placed("p", 100, 100)
	child := placed("c", 250, 300)

	path := b.BuildParentChild(parent, child)
	if len(path.Segments) != 3 {
		t.Fatalf("expected drop/jog/drop, got %d segments", len(path.Segments))
	}
	jog := path.Segments[1]
	if jog.From.Y != jog.To.Y {
		t.Errorf("middle segment should be horizontal: %+v", jog)
	}
	if last := path.Segments[2]; last.To.X != 250 || last.To.Y != 245 {
		t.Errorf("path should end at child top center, got %+v", last.To)
	}
}

func TestBuildSiblingBusSpansChildren(t *testing.T) {
	b := NewBuilder()
	parent := placed("p", 200, 100)
	children := []*layout.Node{
		placed("a", 100, 300),
		placed("b", 200, 300),
		placed("c", 300, 300),
	}

	path := b.BuildSiblingBus(parent, children)
	// parent drop + bus + one drop per child
	if len(path.Segments) != 5 {
		t.Fatalf("expected 5 segments, got %d", len(path.Segments))
	}
	bus := path.Segments[1]
	if bus.From.Y != bus.To.Y {
		t.Fatalf("bus should be horizontal: %+v", bus)
	}
	if bus.From.X != 100 || bus.To.X != 300 {
		t.Errorf("bus should span outermost children, got %v -> %v", bus.From.X, bus.To.X)
	}
	for _, drop := range path.Segments[2:] {
		if drop.From.Y != bus.From.Y {
			t.Errorf("child drop should start on the bus, got %+v", drop)
		}
		if drop.To.Y != 245 {
			t.Errorf("child drop should end at child top (245), got %v", drop.To.Y)
		}
	}
}

func TestBuildSiblingBusSingleChildDegenerates(t *testing.T) {
	b := NewBuilder()
	parent := placed("p", 100, 100)
	child := placed("c", 100, 300)

	got := b.BuildSiblingBus(parent, []*layout.Node{child})
	want := b.BuildParentChild(parent, child)
	if len(got.Segments) != len(want.Segments) {
		t.Fatalf("single child should match BuildParentChild, got %d vs %d segments", len(got.Segments), len(want.Segments))
	}
}

func TestBatchGroupsWithoutChangingGeometry(t *testing.T) {
	b := NewBuilder()
	paths := make([]Path, 0, 120)
	for i := 0; i < 120; i++ {
		paths = append(paths, Path{
			ParentID: fmt.Sprintf("p%d", i),
			Segments: []Segment{{From: geom.Point{X: float64(i)}, To: geom.Point{X: float64(i), Y: 10}}},
		})
	}

	batches := b.Batch(paths)
	if len(batches) != 3 {
		t.Fatalf("120 paths at batch size 50 should yield 3 batches, got %d", len(batches))
	}
	if len(batches[0]) != 50 || len(batches[1]) != 50 || len(batches[2]) != 20 {
		t.Errorf("unexpected batch sizes: %d, %d, %d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
	i := 0
	for _, batch := range batches {
		for _, p := range batch {
			if p.ParentID != paths[i].ParentID || p.Segments[0] != paths[i].Segments[0] {
				t.Fatalf("batching altered path %d", i)
			}
			i++
		}
	}
}

func TestBuildFrameCapsSilently(t *testing.T) {
	b := NewBuilder()
	b.FrameCap = 10

	parents := make([]*layout.Node, 0, 30)
	kids := make(map[string][]*layout.Node, 30)
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("p%d", i)
		parents = append(parents, placed(id, float64(i*100), 100))
		kids[id] = []*layout.Node{placed(id+"-c", float64(i*100), 300)}
	}

	batches := b.BuildFrame(parents, func(id string) []*layout.Node { return kids[id] })
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}
	if total != 10 {
		t.Errorf("frame cap of 10 should yield 10 paths, got %d", total)
	}
}

func TestBuildFrameSkipsLeaves(t *testing.T) {
	b := NewBuilder()
	parents := []*layout.Node{placed("leaf", 0, 0), placed("p", 100, 100)}
	kids := map[string][]*layout.Node{"p": {placed("c", 100, 300)}}

	batches := b.BuildFrame(parents, func(id string) []*layout.Node { return kids[id] })
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("expected exactly one connector, got %v", batches)
	}
	if batches[0][0].ParentID != "p" {
		t.Errorf("connector should belong to p, got %s", batches[0][0].ParentID)
	}
}
