package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/domain/models"
)

// DeployContract runs the deploy-and-verify pipeline for a single artifact:
// load artifact, bootstrap the signer, deploy, then verify.
type DeployContract struct {
	resolver ArtifactResolver
	loader   ArtifactLoader
	sessions SessionFactory
	deployer ContractDeployer
	verifier ContractVerifier
	prompter Prompter
	progress ProgressSink
}

// NewDeployContract creates a new deploy contract use case
func NewDeployContract(
	resolver ArtifactResolver,
	loader ArtifactLoader,
	sessions SessionFactory,
	deployer ContractDeployer,
	verifier ContractVerifier,
	prompter Prompter,
	progress ProgressSink,
) *DeployContract {
	if progress == nil {
		progress = NopProgress{}
	}
	return &DeployContract{
		resolver: resolver,
		loader:   loader,
		sessions: sessions,
		deployer: deployer,
		verifier: verifier,
		prompter: prompter,
		progress: progress,
	}
}

// DeployParams carries every input of a run. Nothing is read from ambient state.
type DeployParams struct {
	ArtifactRef     string // artifact path or contract name; derived from QualifiedName when empty
	QualifiedName   string // e.g. contracts/Foo.sol:Foo
	ConstructorArgs []string
	Network         *config.Network
	Credentials     config.Credentials
	Verifier        config.VerifierConfig
	Compiler        models.CompilerOverrides // applied over the settings recorded in the artifact
	SkipVerify      bool
	AssumeYes       bool
}

// DeployOutcome is the result of a run. Deployment is always set when the
// contract was confirmed, even if verification failed afterwards.
type DeployOutcome struct {
	Artifact     *models.ContractArtifact
	Deployment   *models.DeploymentResult
	Verification *models.VerificationReceipt
}

// VerificationError reports a failed verification of an otherwise successful deployment
type VerificationError struct {
	Deployment *models.DeploymentResult
	Err        error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("contract deployed at %s but verification failed: %v", e.Deployment.ContractAddress.Hex(), e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// Run executes the pipeline. A run that ends without a deployment reports
// StageFailed so sinks can release whatever the last stage started.
func (uc *DeployContract) Run(ctx context.Context, params DeployParams) (*DeployOutcome, error) {
	outcome, err := uc.run(ctx, params)
	if err != nil && outcome == nil {
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageFailed})
	}
	return outcome, err
}

func (uc *DeployContract) run(ctx context.Context, params DeployParams) (*DeployOutcome, error) {
	// Configuration checks, all before any network interaction
	var name models.QualifiedName
	if params.QualifiedName != "" {
		parsed, err := models.ParseQualifiedName(params.QualifiedName)
		if err != nil {
			return nil, err
		}
		name = parsed
	}
	if !params.SkipVerify {
		if name.IsZero() {
			return nil, fmt.Errorf("%w: a contract name (path:Name) is required for verification, or skip verification", domain.ErrInvalidQualifiedName)
		}
		if !params.Verifier.Configured() {
			return nil, fmt.Errorf("%w: set [verifier] username and project", domain.ErrVerifierNotConfigured)
		}
	}

	ref := params.ArtifactRef
	if ref == "" {
		if name.IsZero() {
			return nil, fmt.Errorf("%w: no artifact or contract name given", domain.ErrArtifactNotFound)
		}
		ref = DefaultArtifactPath(name)
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageLoading, Message: "Loading artifact " + ref, Spinner: true})
	artifactPath, err := uc.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	artifact, err := uc.loader.Load(ctx, artifactPath)
	if err != nil {
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageBootstrapping, Message: "Preparing signer"})
	session, err := uc.sessions.Open(params.Network, params.Credentials)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if !params.AssumeYes && uc.prompter != nil {
		label := fmt.Sprintf("Deploy %s from %s via %s", artifact.DisplayName(), session.Sender().Hex(), session.Endpoint())
		ok, err := uc.prompter.Confirm(ctx, label)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDeploymentCancelled, err)
		}
		if !ok {
			return nil, domain.ErrDeploymentCancelled
		}
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageDeploying, Message: "Deploying " + artifact.DisplayName(), Spinner: true})
	deployment, err := uc.deployer.Deploy(ctx, session, artifact, params.ConstructorArgs)
	if err != nil {
		uc.progress.Error(fmt.Sprintf("Deployment of %s failed", artifact.DisplayName()))
		return nil, fmt.Errorf("failed to deploy %s: %w", artifact.DisplayName(), err)
	}
	uc.progress.Info(fmt.Sprintf("Deployment confirmed in block %d", deployment.BlockNumber))

	outcome := &DeployOutcome{
		Artifact:   artifact,
		Deployment: deployment,
	}

	if params.SkipVerify {
		outcome.Verification = &models.VerificationReceipt{
			Address: deployment.ContractAddress,
			Status:  models.VerificationStatusSkipped,
		}
		if !name.IsZero() {
			outcome.Verification.QualifiedName = name.String()
		}
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})
		return outcome, nil
	}

	compiler := params.Compiler.Apply(artifact.Compiler)

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageVerifying, Message: "Verifying " + name.String(), Spinner: true})
	receipt, err := verify(ctx, uc.verifier, params.Verifier, deployment, name, compiler, artifact.Sources)
	outcome.Verification = receipt
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StageCompleted})
	if err != nil {
		return outcome, &VerificationError{Deployment: deployment, Err: err}
	}

	return outcome, nil
}

// verify builds the request from a confirmed deployment and submits it once.
// sources is the exact compiler input when the artifact carried one.
func verify(
	ctx context.Context,
	verifier ContractVerifier,
	cfg config.VerifierConfig,
	deployment *models.DeploymentResult,
	name models.QualifiedName,
	compiler models.CompilerSettings,
	sources map[string]string,
) (*models.VerificationReceipt, error) {
	req, err := models.NewVerificationRequest(deployment, name, compiler)
	if err == nil {
		if len(sources) > 0 {
			req = req.WithSources(sources)
		}
		var receipt *models.VerificationReceipt
		receipt, err = verifier.Verify(ctx, cfg, req)
		if err == nil {
			return receipt, nil
		}
	}

	return &models.VerificationReceipt{
		QualifiedName: name.String(),
		Address:       deployment.ContractAddress,
		Status:        verificationStatusFor(err),
		Reason:        err.Error(),
	}, err
}

func verificationStatusFor(err error) models.VerificationStatus {
	if errors.Is(err, domain.ErrVerificationUnavailable) {
		return models.VerificationStatusUnavailable
	}
	return models.VerificationStatusRejected
}

// DefaultArtifactPath maps contracts/Foo.sol:Foo to the Hardhat artifact location
// artifacts/contracts/Foo.sol/Foo.json
func DefaultArtifactPath(name models.QualifiedName) string {
	return path.Join("artifacts", name.SourcePath, name.ContractName+".json")
}
