package cache

// SourceKeyOpts are the loader options that change extracted declarations.
type SourceKeyOpts struct {
	Package string   `json:"package"`
	Exclude []string `json:"exclude,omitempty"`
	Version string   `json:"version,omitempty"`
}

// ArtifactKeyOpts are the options that change rendered output.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
	FontName string `json:"font,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// SourceKey identifies the declarations extracted from one package.
	// fingerprint identifies the package's files and their versions.
	SourceKey(fingerprint string, opts SourceKeyOpts) string
	// ArtifactKey identifies one rendered output of a layout plan.
	ArtifactKey(planHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) SourceKey(fingerprint string, opts SourceKeyOpts) string {
	return hashKey("source", fingerprint, opts)
}

func (DefaultKeyer) ArtifactKey(planHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", planHash, opts)
}
