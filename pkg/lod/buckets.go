package lod

// DefaultBuckets are the pre-rendered image resolutions available from the
// asset pipeline, in ascending pixel size.
var DefaultBuckets = []int{40, 60, 80, 120, 256}

// DefaultBucketMargin is the hysteresis margin around bucket boundaries.
const DefaultBucketMargin = 0.15

// BucketSelector maps a node's on-screen photo size to one of a small set
// of pre-rendered image resolutions.
//
// Selection is a pure function of the display size and the previously
// selected bucket; the selector carries no mutable state beyond its
// configuration. The hysteresis margin keeps a node hovering at a boundary
// from requesting re-decoded images at alternating resolutions.
type BucketSelector struct {
	buckets []int
	margin  float64
}

// NewBucketSelector creates a selector. Nil buckets or a non-positive
// margin fall back to the defaults.
func NewBucketSelector(buckets []int, margin float64) *BucketSelector {
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}
	if margin <= 0 {
		margin = DefaultBucketMargin
	}
	return &BucketSelector{buckets: buckets, margin: margin}
}

// Select returns the bucket for displaySizePx given the previously chosen
// bucket. Pass prev = 0 for a node with no prior selection.
//
// Without a prior bucket the smallest bucket covering the display size is
// chosen (or the largest bucket when the display exceeds it). With a prior
// bucket, an upgrade requires the display size to exceed the prior bucket
// by the margin, and a downgrade requires it to fall below the next bucket
// down by the margin; inside those bands the prior choice holds.
func (s *BucketSelector) Select(displaySizePx float64, prev int) int {
	raw := s.raw(displaySizePx)
	if prev == 0 || raw == prev || !s.valid(prev) {
		return raw
	}

	if raw > prev {
		if displaySizePx > float64(prev)*(1+s.margin) {
			return raw
		}
		return prev
	}

	// Downgrade crosses the boundary at the bucket below prev.
	below := s.below(prev)
	if displaySizePx < float64(below)*(1-s.margin) {
		return raw
	}
	return prev
}

// Buckets returns the configured bucket sizes.
func (s *BucketSelector) Buckets() []int { return s.buckets }

func (s *BucketSelector) raw(px float64) int {
	for _, b := range s.buckets {
		if float64(b) >= px {
			return b
		}
	}
	return s.buckets[len(s.buckets)-1]
}

func (s *BucketSelector) valid(b int) bool {
	for _, v := range s.buckets {
		if v == b {
			return true
		}
	}
	return false
}

func (s *BucketSelector) below(b int) int {
	prev := s.buckets[0]
	for _, v := range s.buckets {
		if v == b {
			return prev
		}
		prev = v
	}
	return prev
}
