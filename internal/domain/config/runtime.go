package config

import (
	"time"

	"github.com/trebuchet-org/sling/internal/domain/models"
)

// OutputFormat selects how results are printed
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot  string
	ConfigSource string // path of sling.toml, empty if none was found

	// Execution settings
	Debug          bool
	NonInteractive bool
	AssumeYes      bool
	Output         OutputFormat
	Timeout        time.Duration // 0 waits for the network indefinitely

	// Resolved configurations
	Network     *Network // nil if neither --network nor --rpc-url resolved
	Credentials Credentials
	Verifier    VerifierConfig
	Compiler    models.CompilerOverrides
}

// Network represents network configuration
type Network struct {
	Name    string `json:"name"`
	RPCURL  string `json:"rpcUrl"`
	ChainID uint64 `json:"chainId"` // 0 means ask the node
}

// Credentials holds the signing key. It never renders its contents.
type Credentials struct {
	PrivateKey string
}

func (c Credentials) String() string {
	if c.PrivateKey == "" {
		return "Credentials{}"
	}
	return "Credentials{<redacted>}"
}

func (c Credentials) GoString() string { return c.String() }

// VerifierConfig holds the verification service account settings
type VerifierConfig struct {
	APIURL           string `json:"apiUrl"`
	Username         string `json:"username"`
	Project          string `json:"project"`
	AccessKey        string `json:"-"`
	VirtualNetworkID string `json:"virtualNetworkId,omitempty"`
}

// Configured reports whether the account coordinates are present
func (v VerifierConfig) Configured() bool {
	return v.Username != "" && v.Project != ""
}
