package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/domain/models"
)

// ArtifactResolver turns a path or contract name into an artifact file path
type ArtifactResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// ArtifactLoader reads and validates a compiled artifact
type ArtifactLoader interface {
	Load(ctx context.Context, path string) (*models.ContractArtifact, error)
}

// SigningSession binds a network handle to a signing identity for one run
type SigningSession interface {
	Sender() common.Address
	ChainID() uint64 // configured chain id, 0 when it must be asked from the node
	Endpoint() string
	Close()
}

// SessionFactory builds a SigningSession without touching the network
type SessionFactory interface {
	Open(network *config.Network, creds config.Credentials) (SigningSession, error)
}

// ContractDeployer broadcasts a contract creation and waits for its confirmation
type ContractDeployer interface {
	Deploy(ctx context.Context, session SigningSession, artifact *models.ContractArtifact, args []string) (*models.DeploymentResult, error)
}

// DeploymentLookup rebuilds a DeploymentResult from an already confirmed creation transaction
type DeploymentLookup interface {
	FetchDeployment(ctx context.Context, network *config.Network, txHash common.Hash) (*models.DeploymentResult, error)
}

// ContractVerifier submits a verification request to the remote service
type ContractVerifier interface {
	Verify(ctx context.Context, cfg config.VerifierConfig, req *models.VerificationRequest) (*models.VerificationReceipt, error)
}

// Prompter asks the operator for confirmation
type Prompter interface {
	Confirm(ctx context.Context, label string) (bool, error)
}

// Progress tracking interfaces

// ExecutionStage names a step of the pipeline
type ExecutionStage string

const (
	StageLoading       ExecutionStage = "loading"
	StageBootstrapping ExecutionStage = "bootstrapping"
	StageDeploying     ExecutionStage = "deploying"
	StageVerifying     ExecutionStage = "verifying"
	StageCompleted     ExecutionStage = "completed"
	StageFailed        ExecutionStage = "failed" // the run stopped before producing a result
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage   ExecutionStage
	Message string
	Spinner bool
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
