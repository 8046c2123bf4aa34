package textcache

import (
	"container/list"
)

// DefaultCapacity bounds the cache entry count. At ~100 bytes per shaped
// label this keeps the cache well under a megabyte.
const DefaultCapacity = 512

// Key is the composite cache key: the same text shaped at a different
// style or wrap width is a distinct entry.
type Key struct {
	Text     string
	Style    StyleKey
	MaxWidth float64
}

type entry struct {
	key    Key
	shaped *ShapedText
	cost   int
}

// Cache is a bounded LRU over shaped text.
//
// Recency is an explicit doubly-linked list, not map iteration order:
// promote and evict are O(1) and deterministic. Hits perform no shaping.
// The cache is owned by a render context and is not safe for concurrent
// use; the render loop is its single caller.
type Cache struct {
	shaper   Shaper
	capacity int
	entries  map[Key]*list.Element
	recency  *list.List // front = most recently used
	cost     int

	hits   uint64
	misses uint64
}

// New creates a cache over the given shaper.
// A non-positive capacity falls back to DefaultCapacity.
func New(shaper Shaper, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		shaper:   shaper,
		capacity: capacity,
		entries:  make(map[Key]*list.Element, capacity),
		recency:  list.New(),
	}
}

// Get returns the shaped text for (text, style, maxWidth), shaping on miss.
// A hit promotes the entry to most-recently-used. When an insert exceeds
// the capacity, the single least-recently-used entry is evicted.
func (c *Cache) Get(text string, style StyleKey, maxWidth float64) (*ShapedText, error) {
	k := Key{Text: text, Style: style, MaxWidth: maxWidth}

	if el, ok := c.entries[k]; ok {
		c.hits++
		c.recency.MoveToFront(el)
		return el.Value.(*entry).shaped, nil
	}

	c.misses++
	shaped, err := c.shaper.Shape(text, style, maxWidth)
	if err != nil {
		return nil, err
	}

	e := &entry{key: k, shaped: shaped, cost: shaped.cost()}
	c.entries[k] = c.recency.PushFront(e)
	c.cost += e.cost

	if len(c.entries) > c.capacity {
		c.evictOldest()
	}
	return shaped, nil
}

// Remove invalidates a single entry, e.g. when a node's style parameters
// change. Unknown keys are a no-op.
func (c *Cache) Remove(k Key) {
	if el, ok := c.entries[k]; ok {
		c.drop(el)
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.recency.Init()
	clear(c.entries)
	c.cost = 0
}

// Len returns the current entry count.
func (c *Cache) Len() int { return len(c.entries) }

// Cost returns the tracked memory cost of all entries in bytes.
func (c *Cache) Cost() int { return c.cost }

// Stats returns cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) { return c.hits, c.misses }

func (c *Cache) evictOldest() {
	if el := c.recency.Back(); el != nil {
		c.drop(el)
	}
}

func (c *Cache) drop(el *list.Element) {
	e := el.Value.(*entry)
	c.recency.Remove(el)
	delete(c.entries, e.key)
	c.cost -= e.cost
}
