package cache

// Keyer generates cache keys for FlowScope's cacheable artifacts. Keeping
// key construction behind an interface lets the cloud deployment prefix
// keys per tenant without touching call sites.
type Keyer interface {
	// TopologyKey is the key for a full topology snapshot.
	TopologyKey() string

	// FlowchartKey is the key for one generated flowchart.
	FlowchartKey(id string) string

	// LayoutKey is the key for a computed position map, derived from the
	// graph content hash, the algorithm, and its serialized parameters.
	LayoutKey(graphHash, algorithm string, params any) string

	// ExportKey is the key for a rendered export artifact.
	ExportKey(layoutHash, format string) string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

func (DefaultKeyer) TopologyKey() string { return "topology:snapshot" }

func (DefaultKeyer) FlowchartKey(id string) string {
	return hashKey("flowchart", id)
}

func (DefaultKeyer) LayoutKey(graphHash, algorithm string, params any) string {
	return hashKey("layout", graphHash, algorithm, params)
}

func (DefaultKeyer) ExportKey(layoutHash, format string) string {
	return hashKey("export", layoutHash, format)
}

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) TopologyKey() string { return k.prefix + k.inner.TopologyKey() }

func (k *ScopedKeyer) FlowchartKey(id string) string {
	return k.prefix + k.inner.FlowchartKey(id)
}

func (k *ScopedKeyer) LayoutKey(graphHash, algorithm string, params any) string {
	return k.prefix + k.inner.LayoutKey(graphHash, algorithm, params)
}

func (k *ScopedKeyer) ExportKey(layoutHash, format string) string {
	return k.prefix + k.inner.ExportKey(layoutHash, format)
}
