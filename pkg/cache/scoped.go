package cache

// ScopedKeyer prefixes every key of another Keyer. Servers sharing one
// Redis database use it to keep their entries apart:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) LayoutKey(graphHash, optionsHash string) string {
	return k.prefix + k.inner.LayoutKey(graphHash, optionsHash)
}

func (k *ScopedKeyer) RenderKey(drawingHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(drawingHash, opts)
}
