package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/sling/internal/adapters/artifact"
	"github.com/trebuchet-org/sling/internal/adapters/blockchain"
	"github.com/trebuchet-org/sling/internal/adapters/interactive"
	"github.com/trebuchet-org/sling/internal/adapters/verification"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// ArtifactSet provides artifact discovery and loading
var ArtifactSet = wire.NewSet(
	artifact.NewResolver,
	wire.Bind(new(usecase.ArtifactResolver), new(*artifact.Resolver)),

	artifact.NewLoader,
	wire.Bind(new(usecase.ArtifactLoader), new(*artifact.Loader)),
)

// BlockchainSet provides ethclient-based implementations
var BlockchainSet = wire.NewSet(
	blockchain.NewSessionFactory,
	wire.Bind(new(usecase.SessionFactory), new(*blockchain.SessionFactory)),

	blockchain.NewDeployer,
	wire.Bind(new(usecase.ContractDeployer), new(*blockchain.Deployer)),

	blockchain.NewReceiptFetcher,
	wire.Bind(new(usecase.DeploymentLookup), new(*blockchain.ReceiptFetcher)),
)

// VerificationSet provides the verification service client
var VerificationSet = wire.NewSet(
	verification.NewTenderlyVerifier,
	wire.Bind(new(usecase.ContractVerifier), new(*verification.TenderlyVerifier)),
)

// InteractiveSet provides terminal prompts
var InteractiveSet = wire.NewSet(
	interactive.NewPromptAdapter,
	wire.Bind(new(usecase.Prompter), new(*interactive.PromptAdapter)),
	wire.Bind(new(artifact.Picker), new(*interactive.PromptAdapter)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	ArtifactSet,
	BlockchainSet,
	VerificationSet,
	InteractiveSet,
)
