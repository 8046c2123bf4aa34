package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// Useful when several independent tree views share one cache backend
// (e.g. one Redis instance serving multiple deployments).
//
// Example usage:
//
//	// Deployment-specific keys
//	deployKeyer := NewScopedKeyer(NewDefaultKeyer(), "prod:")
//
//	// Global keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RegionKey generates a prefixed key for a viewport region response.
func (k *ScopedKeyer) RegionKey(treeID string, opts RegionKeyOpts) string {
	return k.prefix + k.inner.RegionKey(treeID, opts)
}

// InitialKey generates a prefixed key for an initial-load response.
func (k *ScopedKeyer) InitialKey(treeID string, opts InitialKeyOpts) string {
	return k.prefix + k.inner.InitialKey(treeID, opts)
}

// ImageKey generates a prefixed key for a decoded image.
func (k *ScopedKeyer) ImageKey(treeID string, opts ImageKeyOpts) string {
	return k.prefix + k.inner.ImageKey(treeID, opts)
}
