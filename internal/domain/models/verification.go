package models

import (
	"fmt"
	"path"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/sling/internal/domain"
)

// VerificationStatus represents the outcome of a verification attempt
type VerificationStatus string

const (
	VerificationStatusSkipped     VerificationStatus = "SKIPPED"
	VerificationStatusVerified    VerificationStatus = "VERIFIED"
	VerificationStatusRejected    VerificationStatus = "REJECTED"
	VerificationStatusUnavailable VerificationStatus = "UNAVAILABLE"
)

// QualifiedName identifies a contract by source path and name, e.g. contracts/Foo.sol:Foo
type QualifiedName struct {
	SourcePath   string
	ContractName string
}

// ParseQualifiedName parses "path/to/File.sol:Name"
func ParseQualifiedName(s string) (QualifiedName, error) {
	s = strings.TrimSpace(s)
	idx := strings.LastIndex(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return QualifiedName{}, fmt.Errorf("%w: %q (expected path:ContractName)", domain.ErrInvalidQualifiedName, s)
	}

	name := QualifiedName{
		SourcePath:   s[:idx],
		ContractName: s[idx+1:],
	}
	if strings.ContainsAny(name.ContractName, "/\\ ") {
		return QualifiedName{}, fmt.Errorf("%w: %q has an invalid contract name", domain.ErrInvalidQualifiedName, s)
	}
	if path.Ext(name.SourcePath) == "" {
		return QualifiedName{}, fmt.Errorf("%w: %q has no source file extension", domain.ErrInvalidQualifiedName, s)
	}
	return name, nil
}

func (q QualifiedName) String() string {
	return q.SourcePath + ":" + q.ContractName
}

// IsZero reports whether the name is unset
func (q QualifiedName) IsZero() bool {
	return q.SourcePath == "" && q.ContractName == ""
}

// CompilerSettings are the solc settings the verification service recompiles with
type CompilerSettings struct {
	Version          string   `json:"version" yaml:"version"`
	OptimizerEnabled bool     `json:"optimizer" yaml:"optimizer"`
	OptimizerRuns    int      `json:"optimizerRuns" yaml:"optimizerRuns"`
	ViaIR            bool     `json:"viaIR" yaml:"viaIR"`
	EVMVersion       string   `json:"evmVersion,omitempty" yaml:"evmVersion,omitempty"`
	Remappings       []string `json:"remappings,omitempty" yaml:"remappings,omitempty"`
}

// CompilerOverrides are the compiler settings configured by the operator. Unset
// fields keep what the artifact recorded.
type CompilerOverrides struct {
	Version          string
	OptimizerEnabled *bool
	OptimizerRuns    *int
	ViaIR            *bool
	EVMVersion       string
}

// Apply returns base with every configured field replaced
func (o CompilerOverrides) Apply(base CompilerSettings) CompilerSettings {
	if o.Version != "" {
		base.Version = o.Version
	}
	if o.OptimizerEnabled != nil {
		base.OptimizerEnabled = *o.OptimizerEnabled
	}
	if o.OptimizerRuns != nil {
		base.OptimizerRuns = *o.OptimizerRuns
	}
	if o.ViaIR != nil {
		base.ViaIR = *o.ViaIR
	}
	if o.EVMVersion != "" {
		base.EVMVersion = o.EVMVersion
	}
	return base
}

// VerificationRequest asks the verification service to match a deployed address to its source.
// It can only be built from a confirmed DeploymentResult.
type VerificationRequest struct {
	name     QualifiedName
	address  common.Address
	chainID  uint64
	compiler CompilerSettings
	sources  map[string]string
}

// NewVerificationRequest builds a request for a confirmed deployment
func NewVerificationRequest(result *DeploymentResult, name QualifiedName, compiler CompilerSettings) (*VerificationRequest, error) {
	if !result.Confirmed() {
		return nil, domain.ErrNoDeployment
	}
	if name.IsZero() {
		return nil, fmt.Errorf("%w: empty", domain.ErrInvalidQualifiedName)
	}
	return &VerificationRequest{
		name:     name,
		address:  result.ContractAddress,
		chainID:  result.ChainID,
		compiler: compiler,
	}, nil
}

func (r *VerificationRequest) QualifiedName() QualifiedName { return r.name }
func (r *VerificationRequest) Address() common.Address      { return r.address }
func (r *VerificationRequest) ChainID() uint64              { return r.chainID }
func (r *VerificationRequest) Compiler() CompilerSettings   { return r.compiler }

// Sources returns the compiler input attached with WithSources, nil if none
func (r *VerificationRequest) Sources() map[string]string { return r.sources }

// WithSources returns a copy of the request carrying the exact compiler input sources
func (r *VerificationRequest) WithSources(sources map[string]string) *VerificationRequest {
	out := *r
	out.sources = sources
	return &out
}

// VerificationReceipt is the service's acknowledgment of a verification request
type VerificationReceipt struct {
	QualifiedName string             `json:"qualifiedName" yaml:"qualifiedName"`
	Address       common.Address     `json:"address" yaml:"address"`
	Status        VerificationStatus `json:"status" yaml:"status"`
	URL           string             `json:"url,omitempty" yaml:"url,omitempty"`
	Reason        string             `json:"reason,omitempty" yaml:"reason,omitempty"`
}
