package cache

// ScopedKeyer wraps a Keyer with a prefix so separate contexts sharing one
// backend stay out of each other's way. The preview server uses this to
// namespace entries per watched input, and a shared Redis can host several
// deployments side by side.
//
// Example usage:
//
//	// Per-input keys for the preview server
//	inputKeyer := NewScopedKeyer(NewDefaultKeyer(), "input:prod-stack:")
//
//	// Unscoped keys for one-shot CLI runs
//	keyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every generated
// key. A nil inner falls back to the DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// GraphKey generates a prefixed key for parsed graph caching.
func (k *ScopedKeyer) GraphKey(sourceHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(sourceHash, opts)
}

// DiagramKey generates a prefixed key for diagram caching.
func (k *ScopedKeyer) DiagramKey(graphHash string, opts DiagramKeyOpts) string {
	return k.prefix + k.inner.DiagramKey(graphHash, opts)
}

// ArtifactKey generates a prefixed key for rendered artifact caching.
func (k *ScopedKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(diagramHash, opts)
}
