package cache

// ScopedKeyer prefixes every key of an inner [Keyer]. The server uses it to
// keep its entries apart from the CLI's when both share a Redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a [DefaultKeyer] when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) SourceKey(fingerprint string, opts SourceKeyOpts) string {
	return k.prefix + k.inner.SourceKey(fingerprint, opts)
}

func (k *ScopedKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(planHash, opts)
}
