package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/domain/models"
	"github.com/trebuchet-org/sling/internal/usecase"
	"github.com/trebuchet-org/sling/pkg/tenderly"
)

// TenderlyVerifier submits source verification requests to Tenderly. Each call
// is a single attempt.
type TenderlyVerifier struct {
	projectRoot string
	log         *slog.Logger
}

// NewTenderlyVerifier creates a new verifier reading sources from the project root
func NewTenderlyVerifier(cfg *config.RuntimeConfig, log *slog.Logger) *TenderlyVerifier {
	return &TenderlyVerifier{
		projectRoot: cfg.ProjectRoot,
		log:         log.With("component", "verifier"),
	}
}

// Verify sends req with the sources it needs and interprets the response
func (v *TenderlyVerifier) Verify(ctx context.Context, cfg config.VerifierConfig, req *models.VerificationRequest) (*models.VerificationReceipt, error) {
	name := req.QualifiedName()
	compiler := req.Compiler()
	if compiler.Version == "" {
		return nil, fmt.Errorf("%w: compiler version unknown, set [compiler] version in sling.toml", domain.ErrVerificationRejected)
	}

	// Build-info sources are the exact compiler input. Without them the
	// sources are read from disk, resolving imports through the project remappings.
	sources, remappings := req.Sources(), compiler.Remappings
	if len(sources) == 0 {
		if len(remappings) == 0 {
			remappings = projectRemappings(v.projectRoot, v.log)
		}
		var err error
		sources, err = collectSources(v.projectRoot, name.SourcePath, parseRemappings(remappings))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrVerificationRejected, err)
		}
	} else if _, ok := sources[name.SourcePath]; !ok {
		return nil, fmt.Errorf("%w: compiler input has no source %s", domain.ErrVerificationRejected, name.SourcePath)
	}

	chainID := strconv.FormatUint(req.ChainID(), 10)
	body := &tenderly.VerifyRequest{
		Contracts: []tenderly.ContractToVerify{{
			ContractToVerify: name.String(),
			Sources:          make(map[string]tenderly.Source, len(sources)),
			Compiler: tenderly.Compiler{
				Version: normalizeVersion(compiler.Version),
				Settings: tenderly.CompilerSettings{
					Optimizer: tenderly.Optimizer{
						Enabled: compiler.OptimizerEnabled,
						Runs:    compiler.OptimizerRuns,
					},
					ViaIR:      compiler.ViaIR,
					EVMVersion: compiler.EVMVersion,
					Remappings: remappings,
				},
			},
			Networks: map[string]tenderly.NetworkAddress{
				chainID: {Address: req.Address().Hex()},
			},
		}},
	}
	for unit, content := range sources {
		body.Contracts[0].Sources[unit] = tenderly.Source{Content: content}
	}

	v.log.Info("submitting verification",
		"contract", name.String(),
		"address", req.Address().Hex(),
		"chain_id", chainID,
		"sources", len(sources),
		"remappings", len(remappings),
		"compiler", body.Contracts[0].Compiler.Version,
	)

	client := tenderly.NewClient(cfg.APIURL, cfg.AccessKey)
	var (
		resp *tenderly.VerifyResponse
		err  error
	)
	if cfg.VirtualNetworkID != "" {
		resp, err = client.VerifyVirtualNetworkContracts(ctx, cfg.Username, cfg.Project, cfg.VirtualNetworkID, body)
	} else {
		resp, err = client.VerifyContracts(ctx, cfg.Username, cfg.Project, body)
	}
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.CompilationErrors) > 0 {
		msgs := make([]string, 0, len(resp.CompilationErrors))
		for _, ce := range resp.CompilationErrors {
			msgs = append(msgs, strings.TrimSpace(ce.Message))
		}
		return nil, fmt.Errorf("%w: compilation failed: %s", domain.ErrVerificationRejected, strings.Join(msgs, "; "))
	}

	for _, result := range resp.Results {
		if result.BytecodeMismatchError != nil {
			return nil, fmt.Errorf("%w: bytecode mismatch (similarity %d%%)", domain.ErrVerificationRejected, result.BytecodeMismatchError.Similarity)
		}
	}
	for _, result := range resp.Results {
		if result.VerifiedContract != nil {
			receipt := &models.VerificationReceipt{
				QualifiedName: name.String(),
				Address:       req.Address(),
				Status:        models.VerificationStatusVerified,
				URL:           tenderly.ContractURL(cfg.Username, cfg.Project, chainID, strings.ToLower(req.Address().Hex())),
			}
			v.log.Info("contract verified", "contract", name.String(), "url", receipt.URL)
			return receipt, nil
		}
	}

	return nil, fmt.Errorf("%w: no contract was verified", domain.ErrVerificationRejected)
}

// classify maps transport and HTTP failures onto the verification error kinds
func classify(err error) error {
	var statusErr *tenderly.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Temporary() {
			return fmt.Errorf("%w: %v", domain.ErrVerificationUnavailable, err)
		}
		return fmt.Errorf("%w: %v", domain.ErrVerificationRejected, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrVerificationUnavailable, err)
}

// normalizeVersion strips a leading v and the commit suffix, 0.8.28+commit.7893614a -> 0.8.28
func normalizeVersion(version string) string {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	if i := strings.Index(version, "+"); i >= 0 {
		version = version[:i]
	}
	return version
}

var _ usecase.ContractVerifier = (*TenderlyVerifier)(nil)
