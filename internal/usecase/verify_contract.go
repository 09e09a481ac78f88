package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/domain/models"
)

// VerifyContract re-submits verification for a contract created by an already
// confirmed transaction. The deployment is looked up on-chain first, so a request
// is never built for an address that was not actually deployed.
type VerifyContract struct {
	resolver ArtifactResolver
	loader   ArtifactLoader
	lookup   DeploymentLookup
	verifier ContractVerifier
	progress ProgressSink
}

// NewVerifyContract creates a new verify contract use case
func NewVerifyContract(
	resolver ArtifactResolver,
	loader ArtifactLoader,
	lookup DeploymentLookup,
	verifier ContractVerifier,
	progress ProgressSink,
) *VerifyContract {
	if progress == nil {
		progress = NopProgress{}
	}
	return &VerifyContract{
		resolver: resolver,
		loader:   loader,
		lookup:   lookup,
		verifier: verifier,
		progress: progress,
	}
}

// VerifyParams carries the inputs of a standalone verification
type VerifyParams struct {
	TransactionHash string
	QualifiedName   string
	ArtifactRef     string // compiled artifact to take compiler settings from; derived from QualifiedName when empty
	Network         *config.Network
	Verifier        config.VerifierConfig
	Compiler        models.CompilerOverrides
}

// VerifyOutcome is the result of a standalone verification
type VerifyOutcome struct {
	Deployment   *models.DeploymentResult
	Verification *models.VerificationReceipt
}

// Run looks up the deployment and verifies it
func (uc *VerifyContract) Run(ctx context.Context, params VerifyParams) (*VerifyOutcome, error) {
	outcome, err := uc.run(ctx, params)
	if err != nil && outcome == nil {
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageFailed})
	}
	return outcome, err
}

func (uc *VerifyContract) run(ctx context.Context, params VerifyParams) (*VerifyOutcome, error) {
	name, err := models.ParseQualifiedName(params.QualifiedName)
	if err != nil {
		return nil, err
	}
	if !params.Verifier.Configured() {
		return nil, fmt.Errorf("%w: set [verifier] username and project", domain.ErrVerifierNotConfigured)
	}

	raw, err := hexutil.Decode(params.TransactionHash)
	if err != nil || len(raw) != common.HashLength {
		return nil, fmt.Errorf("invalid transaction hash %q", params.TransactionHash)
	}

	artifact, err := uc.loadArtifact(ctx, params.ArtifactRef, name)
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageLoading, Message: "Fetching deployment receipt", Spinner: true})
	deployment, err := uc.lookup.FetchDeployment(ctx, params.Network, common.BytesToHash(raw))
	if err != nil {
		return nil, err
	}
	deployment.ContractName = name.ContractName

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageVerifying, Message: "Verifying " + name.String(), Spinner: true})
	compiler := params.Compiler.Apply(artifact.Compiler)
	receipt, err := verify(ctx, uc.verifier, params.Verifier, deployment, name, compiler, artifact.Sources)
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})

	outcome := &VerifyOutcome{
		Deployment:   deployment,
		Verification: receipt,
	}
	if err != nil {
		return outcome, &VerificationError{Deployment: deployment, Err: err}
	}
	return outcome, nil
}

// loadArtifact reads the compiled artifact for its recorded compiler settings.
// Without an explicit reference a missing artifact is tolerated and only the
// configured settings apply.
func (uc *VerifyContract) loadArtifact(ctx context.Context, ref string, name models.QualifiedName) (*models.ContractArtifact, error) {
	explicit := ref != ""
	if !explicit {
		ref = DefaultArtifactPath(name)
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageLoading, Message: "Loading artifact " + ref, Spinner: true})
	path, err := uc.resolver.Resolve(ctx, ref)
	if err == nil {
		var artifact *models.ContractArtifact
		if artifact, err = uc.loader.Load(ctx, path); err == nil {
			return artifact, nil
		}
	}
	if !explicit && errors.Is(err, domain.ErrArtifactNotFound) {
		return &models.ContractArtifact{}, nil
	}
	return nil, err
}
