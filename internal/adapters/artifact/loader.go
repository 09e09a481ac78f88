package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/models"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// libraryPlaceholder matches unlinked library references, e.g. __$2ccf...$__
var libraryPlaceholder = regexp.MustCompile(`__\$[a-fA-F0-9]{34}\$__`)

// Loader reads Hardhat and Foundry artifacts from disk
type Loader struct {
	log *slog.Logger
}

// NewLoader creates a new artifact loader
func NewLoader(log *slog.Logger) *Loader {
	return &Loader{log: log.With("component", "artifact-loader")}
}

// Load reads the artifact at path and validates that it can be deployed
func (l *Loader) Load(ctx context.Context, path string) (*models.ContractArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("%w: cannot read %s: %v", domain.ErrArtifactNotFound, path, err)
	}

	var raw models.Artifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s is not valid JSON: %v", domain.ErrArtifactMalformed, path, err)
	}

	rawABI := bytes.TrimSpace(raw.ABI)
	if len(rawABI) == 0 || bytes.Equal(rawABI, []byte("null")) {
		return nil, fmt.Errorf("%w: %s has no abi", domain.ErrArtifactMalformed, path)
	}
	parsedABI, err := abi.JSON(bytes.NewReader(rawABI))
	if err != nil {
		return nil, fmt.Errorf("%w: %s has an invalid abi: %v", domain.ErrArtifactMalformed, path, err)
	}

	bytecode, err := decodeBytecode(raw.Bytecode.Object)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %v", domain.ErrArtifactMalformed, path, err)
	}

	contractName, sourceName := raw.ContractName, raw.SourceName
	if contractName == "" || sourceName == "" {
		for source, name := range raw.Metadata.Settings.CompilationTarget {
			sourceName, contractName = source, name
			break
		}
	}
	if contractName == "" {
		contractName = strings.TrimSuffix(filepath.Base(path), ".json")
	}

	var (
		compiler models.CompilerSettings
		sources  map[string]string
	)
	if raw.Metadata.Compiler.Version != "" {
		compiler = raw.Metadata.Settings.SolcSettings.CompilerSettings(raw.Metadata.Compiler.Version)
	} else if info := l.buildInfo(path); info != nil {
		compiler = info.Input.Settings.CompilerSettings(info.SolcVersion)
		sources = make(map[string]string, len(info.Input.Sources))
		for unit, src := range info.Input.Sources {
			sources[unit] = src.Content
		}
	}

	l.log.Debug("loaded artifact",
		"path", path,
		"contract", contractName,
		"source", sourceName,
		"compiler", compiler.Version,
		"optimizer", compiler.OptimizerEnabled,
		"via_ir", compiler.ViaIR,
		"sources", len(sources),
		"bytecode_size", len(bytecode),
	)

	return &models.ContractArtifact{
		Path:         path,
		ContractName: contractName,
		SourceName:   sourceName,
		Compiler:     compiler,
		Sources:      sources,
		RawABI:       json.RawMessage(rawABI),
		ABI:          parsedABI,
		Bytecode:     bytecode,
	}, nil
}

func decodeBytecode(object string) ([]byte, error) {
	code := strings.TrimPrefix(strings.TrimSpace(object), "0x")
	if code == "" {
		return nil, errors.New("has empty bytecode (abstract contract or interface?)")
	}
	if libraryPlaceholder.MatchString(code) {
		return nil, errors.New("has unlinked library references")
	}
	bytecode, err := hexutil.Decode("0x" + code)
	if err != nil {
		return nil, fmt.Errorf("has invalid bytecode hex: %v", err)
	}
	return bytecode, nil
}

// buildInfo follows a Hardhat .dbg.json file to the build-info holding the exact
// compiler input. Returns nil when anything along the way is missing.
func (l *Loader) buildInfo(artifactPath string) *models.BuildInfo {
	dbgPath := strings.TrimSuffix(artifactPath, ".json") + ".dbg.json"
	data, err := os.ReadFile(dbgPath)
	if err != nil {
		return nil
	}
	var dbg struct {
		BuildInfo string `json:"buildInfo"`
	}
	if err := json.Unmarshal(data, &dbg); err != nil || dbg.BuildInfo == "" {
		return nil
	}

	buildInfoPath := filepath.Join(filepath.Dir(dbgPath), filepath.FromSlash(dbg.BuildInfo))
	f, err := os.Open(buildInfoPath)
	if err != nil {
		l.log.Debug("build info not readable", "path", buildInfoPath, "error", err)
		return nil
	}
	defer f.Close()

	var info models.BuildInfo
	if err := json.NewDecoder(f).Decode(&info); err != nil {
		l.log.Debug("build info malformed", "path", buildInfoPath, "error", err)
		return nil
	}
	return &info
}

var _ usecase.ArtifactLoader = (*Loader)(nil)
