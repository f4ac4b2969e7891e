package cache

// ScopedKeyer wraps a Keyer with a prefix so several workspaces can share
// one backend without seeing each other's entries.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ws:"+Hash([]byte(root))[:12]+":")
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

// WorkspaceKeyer returns a keyer scoped to a workspace root directory.
func WorkspaceKeyer(root string) Keyer {
	return NewScopedKeyer(NewDefaultKeyer(), "ws:"+Hash([]byte(root))[:12]+":")
}

// ParseKey generates a prefixed parse key.
func (k *ScopedKeyer) ParseKey(language, contentHash string) string {
	return k.prefix + k.inner.ParseKey(language, contentHash)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(dataHash, format string) string {
	return k.prefix + k.inner.ArtifactKey(dataHash, format)
}
