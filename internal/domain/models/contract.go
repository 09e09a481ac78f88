package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// BytecodeObject represents bytecode in a compiler artifact. Hardhat writes it as a
// plain hex string, Foundry as an object with the hex under "object".
type BytecodeObject struct {
	Object         string         `json:"object"`
	SourceMap      string         `json:"sourceMap,omitempty"`
	LinkReferences map[string]any `json:"linkReferences,omitempty"`
}

// UnmarshalJSON accepts both the string and the object encoding
func (b *BytecodeObject) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &b.Object)
	}

	type plain BytecodeObject
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("bytecode must be a hex string or an object: %w", err)
	}
	*b = BytecodeObject(obj)
	return nil
}

// Artifact represents a compilation artifact as written to disk by Hardhat or Foundry
type Artifact struct {
	Format           string           `json:"_format,omitempty"`
	ContractName     string           `json:"contractName,omitempty"`
	SourceName       string           `json:"sourceName,omitempty"`
	ABI              json.RawMessage  `json:"abi"`
	Bytecode         BytecodeObject   `json:"bytecode"`
	DeployedBytecode BytecodeObject   `json:"deployedBytecode"`
	Metadata         ArtifactMetadata `json:"metadata"`
}

// ArtifactMetadata represents the metadata section of a Foundry artifact
type ArtifactMetadata struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
	Language string `json:"language"`
	Settings struct {
		SolcSettings
		CompilationTarget map[string]string `json:"compilationTarget"`
	} `json:"settings"`
}

// SolcSettings is the part of the solc settings object that changes the bytecode.
// It appears in Foundry metadata and in Hardhat build-info input.
type SolcSettings struct {
	Optimizer struct {
		Enabled bool `json:"enabled"`
		Runs    int  `json:"runs"`
	} `json:"optimizer"`
	ViaIR      bool     `json:"viaIR"`
	EVMVersion string   `json:"evmVersion"`
	Remappings []string `json:"remappings"`
}

// CompilerSettings converts the solc settings for a compiler version
func (s SolcSettings) CompilerSettings(version string) CompilerSettings {
	return CompilerSettings{
		Version:          version,
		OptimizerEnabled: s.Optimizer.Enabled,
		OptimizerRuns:    s.Optimizer.Runs,
		ViaIR:            s.ViaIR,
		EVMVersion:       s.EVMVersion,
		Remappings:       s.Remappings,
	}
}

// BuildInfo is a Hardhat build-info file: the exact compiler input of a compilation job
type BuildInfo struct {
	SolcVersion string `json:"solcVersion"`
	Input       struct {
		Sources map[string]struct {
			Content string `json:"content"`
		} `json:"sources"`
		Settings SolcSettings `json:"settings"`
	} `json:"input"`
}

// UnmarshalJSON tolerates Hardhat's string-encoded metadata, which carries nothing we read
func (m *ArtifactMetadata) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	type plain ArtifactMetadata
	var md plain
	if err := json.Unmarshal(data, &md); err != nil {
		return err
	}
	*m = ArtifactMetadata(md)
	return nil
}

// ContractArtifact is the loaded, validated form of an artifact: everything needed to
// build a contract-creation transaction.
type ContractArtifact struct {
	Path         string
	ContractName string
	SourceName   string
	Compiler     CompilerSettings  // as recorded by the compiler; zero when unknown
	Sources      map[string]string // compiler input sources by unit name, nil without build-info
	RawABI       json.RawMessage
	ABI          abi.ABI
	Bytecode     []byte
}

// DisplayName returns the best available name for the contract
func (a *ContractArtifact) DisplayName() string {
	switch {
	case a.SourceName != "" && a.ContractName != "":
		return fmt.Sprintf("%s:%s", a.SourceName, a.ContractName)
	case a.ContractName != "":
		return a.ContractName
	default:
		return a.Path
	}
}
