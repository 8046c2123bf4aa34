package textcache

import (
	"fmt"
	"testing"
)

// countingShaper is a deterministic fake that records shape calls.
type countingShaper struct {
	calls int
}

func (s *countingShaper) Shape(text string, style StyleKey, maxWidth float64) (*ShapedText, error) {
	s.calls++
	return &ShapedText{
		Lines:    []Line{{Text: text, WidthPx: float64(len(text)) * style.SizePx / 2}},
		WidthPx:  float64(len(text)) * style.SizePx / 2,
		HeightPx: style.SizePx * 1.3,
	}, nil
}

var style = StyleKey{Family: "regular", SizePx: 14}

func TestHitAvoidsShaping(t *testing.T) {
	sh := &countingShaper{}
	c := New(sh, 10)

	a, err := c.Get("hello", style, 100)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, err := c.Get("hello", style, 100)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if sh.calls != 1 {
		t.Errorf("second get should hit, shaper called %d times", sh.calls)
	}
	if a != b {
		t.Error("hit should return the cached pointer")
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits / %d misses, want 1/1", hits, misses)
	}
}

func TestCompositeKey(t *testing.T) {
	sh := &countingShaper{}
	c := New(sh, 10)

	c.Get("hello", style, 100)
	c.Get("hello", style, 200)                                // different wrap width
	c.Get("hello", StyleKey{Family: "bold", SizePx: 14}, 100) // different style

	if sh.calls != 3 {
		t.Errorf("distinct keys should each shape once, got %d calls", sh.calls)
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", c.Len())
	}
}

func TestEvictsExactlyLRU(t *testing.T) {
	sh := &countingShaper{}
	c := New(sh, 3)

	c.Get("a", style, 0)
	c.Get("b", style, 0)
	c.Get("c", style, 0)

	// Touch "a" so "b" becomes the LRU.
	c.Get("a", style, 0)

	// Inserting a 4th entry evicts exactly "b".
	c.Get("d", style, 0)
	if c.Len() != 3 {
		t.Fatalf("capacity 3 exceeded: %d entries", c.Len())
	}

	before := sh.calls
	c.Get("a", style, 0)
	c.Get("c", style, 0)
	c.Get("d", style, 0)
	if sh.calls != before {
		t.Error("a, c, d should all still be resident")
	}

	c.Get("b", style, 0)
	if sh.calls != before+1 {
		t.Error("b should have been the evicted entry")
	}
}

func TestPromotionProtectsFromEviction(t *testing.T) {
	sh := &countingShaper{}
	c := New(sh, 2)

	c.Get("old", style, 0)
	c.Get("new", style, 0)
	c.Get("old", style, 0) // promote

	c.Get("newest", style, 0) // evicts "new", not "old"

	before := sh.calls
	c.Get("old", style, 0)
	if sh.calls != before {
		t.Error("promoted entry should have survived eviction")
	}
}

func TestRemoveAndClear(t *testing.T) {
	sh := &countingShaper{}
	c := New(sh, 10)

	c.Get("x", style, 50)
	c.Remove(Key{Text: "x", Style: style, MaxWidth: 50})
	if c.Len() != 0 {
		t.Errorf("Remove left %d entries", c.Len())
	}
	c.Remove(Key{Text: "never", Style: style}) // no-op

	for i := 0; i < 5; i++ {
		c.Get(fmt.Sprintf("t%d", i), style, 0)
	}
	c.Clear()
	if c.Len() != 0 || c.Cost() != 0 {
		t.Errorf("Clear left %d entries, cost %d", c.Len(), c.Cost())
	}
}

func TestCostTracking(t *testing.T) {
	sh := &countingShaper{}
	c := New(sh, 2)

	c.Get("aaaa", style, 0)
	cost1 := c.Cost()
	if cost1 <= 0 {
		t.Fatal("cost should be positive after insert")
	}

	c.Get("bbbb", style, 0)
	c.Get("cccc", style, 0) // evicts "aaaa"

	// Cost reflects exactly the resident entries.
	if c.Cost() != 2*cost1 {
		t.Errorf("cost should track evictions: %d, want %d", c.Cost(), 2*cost1)
	}
}
