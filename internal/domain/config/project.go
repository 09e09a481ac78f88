package config

// ProjectFile represents the raw sling.toml structure
type ProjectFile struct {
	DefaultNetwork string                  `toml:"default_network"`
	Networks       map[string]NetworkEntry `toml:"networks"`
	Compiler       CompilerEntry           `toml:"compiler"`
	Verifier       VerifierEntry           `toml:"verifier"`
}

// NetworkEntry is a [networks.<name>] table
type NetworkEntry struct {
	URL     string `toml:"url"`
	ChainID uint64 `toml:"chain_id"`
}

// CompilerEntry is the [compiler] table. Keys left out keep the artifact's values.
type CompilerEntry struct {
	Version       string `toml:"version"`
	Optimizer     *bool  `toml:"optimizer"`
	OptimizerRuns *int   `toml:"optimizer_runs"`
	ViaIR         *bool  `toml:"via_ir"`
	EVMVersion    string `toml:"evm_version,omitempty"`
}

// VerifierEntry is the [verifier] table
type VerifierEntry struct {
	APIURL           string `toml:"api_url"`
	Username         string `toml:"username"`
	Project          string `toml:"project"`
	AccessKey        string `toml:"access_key"` //nolint:gosec // holds env var reference, not a literal secret
	VirtualNetworkID string `toml:"virtual_network_id"`
}
