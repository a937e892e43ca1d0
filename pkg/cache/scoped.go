package cache

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// deployments can share one redis without seeing each other's entries.
//
//	keyer := NewScopedKeyer(nil, "staging:")
type ScopedKeyer struct {
	Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{Keyer: inner, prefix: prefix}
}

func (k *ScopedKeyer) CloudKey(opts CloudKeyOpts) string {
	return k.prefix + k.Keyer.CloudKey(opts)
}

func (k *ScopedKeyer) ArtifactKey(cloudHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.Keyer.ArtifactKey(cloudHash, opts)
}
