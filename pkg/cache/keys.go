package cache

// Keyer derives cache keys. Implementations must be deterministic.
type Keyer interface {
	// LayoutKey is the key of a drawing computed from a graph with the
	// given content hash under options with the given hash.
	LayoutKey(graphHash, optionsHash string) string

	// RenderKey is the key of a rendered artifact of a drawing.
	RenderKey(drawingHash string, opts RenderKeyOpts) string
}

// RenderKeyOpts are the render settings that change the artifact.
type RenderKeyOpts struct {
	Format string `json:"format"`
	Engine string `json:"engine"`
	Labels bool   `json:"labels"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(graphHash, optionsHash string) string {
	return hashKey("layout", graphHash, optionsHash)
}

func (DefaultKeyer) RenderKey(drawingHash string, opts RenderKeyOpts) string {
	return hashKey("render", drawingHash, opts)
}
