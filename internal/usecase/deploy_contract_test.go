package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/domain/models"
)

var (
	deployedAddress = common.HexToAddress("0x000000000000000000000000000000000DeF0789")
	senderAddress   = common.HexToAddress("0x00000000000000000000000000000000000Abc12")
)

type fakeResolver struct {
	calls int
	ref   string
	err   error
}

func (f *fakeResolver) Resolve(_ context.Context, ref string) (string, error) {
	f.calls++
	f.ref = ref
	if f.err != nil {
		return "", f.err
	}
	return "/project/" + ref, nil
}

type fakeLoader struct {
	calls    int
	artifact *models.ContractArtifact
	err      error
}

func (f *fakeLoader) Load(_ context.Context, path string) (*models.ContractArtifact, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	a := *f.artifact
	a.Path = path
	return &a, nil
}

type fakeSession struct {
	closed bool
}

func (s *fakeSession) Sender() common.Address { return senderAddress }
func (s *fakeSession) ChainID() uint64        { return 1 }
func (s *fakeSession) Endpoint() string       { return "rpc.example" }
func (s *fakeSession) Close()                 { s.closed = true }

// fakeSessions mirrors the real factory's fail-fast credential check
type fakeSessions struct {
	calls   int
	session *fakeSession
	network *config.Network
}

func (f *fakeSessions) Open(network *config.Network, creds config.Credentials) (SigningSession, error) {
	f.calls++
	f.network = network
	if creds.PrivateKey == "" {
		return nil, fmt.Errorf("%w: private key not set", domain.ErrMissingCredential)
	}
	if network == nil || network.RPCURL == "" {
		return nil, domain.ErrInvalidEndpoint
	}
	f.session = &fakeSession{}
	return f.session, nil
}

type fakeDeployer struct {
	calls int
	args  []string
	err   error
}

func (f *fakeDeployer) Deploy(_ context.Context, session SigningSession, artifact *models.ContractArtifact, args []string) (*models.DeploymentResult, error) {
	f.calls++
	f.args = args
	if f.err != nil {
		return nil, f.err
	}
	return &models.DeploymentResult{
		ContractName:    artifact.ContractName,
		ContractAddress: deployedAddress,
		TransactionHash: common.HexToHash("0x01"),
		Deployer:        session.Sender(),
		ChainID:         session.ChainID(),
		Receipt:         &types.Receipt{Status: types.ReceiptStatusSuccessful, ContractAddress: deployedAddress},
	}, nil
}

type fakeVerifier struct {
	calls int
	req   *models.VerificationRequest
	cfg   config.VerifierConfig
	err   error
}

func (f *fakeVerifier) Verify(_ context.Context, cfg config.VerifierConfig, req *models.VerificationRequest) (*models.VerificationReceipt, error) {
	f.calls++
	f.req = req
	f.cfg = cfg
	if f.err != nil {
		return nil, f.err
	}
	return &models.VerificationReceipt{
		QualifiedName: req.QualifiedName().String(),
		Address:       req.Address(),
		Status:        models.VerificationStatusVerified,
	}, nil
}

type fakePrompter struct {
	calls  int
	answer bool
	err    error
}

func (f *fakePrompter) Confirm(context.Context, string) (bool, error) {
	f.calls++
	return f.answer, f.err
}

type harness struct {
	resolver *fakeResolver
	loader   *fakeLoader
	sessions *fakeSessions
	deployer *fakeDeployer
	verifier *fakeVerifier
	prompter *fakePrompter
	uc       *DeployContract
}

func newHarness() *harness {
	h := &harness{
		resolver: &fakeResolver{},
		loader: &fakeLoader{artifact: &models.ContractArtifact{
			ContractName: "Foo",
			SourceName:   "contracts/Foo.sol",
			Compiler: models.CompilerSettings{
				Version:          "0.8.28",
				OptimizerEnabled: true,
				OptimizerRuns:    200,
				ViaIR:            true,
				EVMVersion:       "cancun",
			},
			Bytecode: common.FromHex("0x6001"),
		}},
		sessions: &fakeSessions{},
		deployer: &fakeDeployer{},
		verifier: &fakeVerifier{},
		prompter: &fakePrompter{answer: true},
	}
	h.uc = NewDeployContract(h.resolver, h.loader, h.sessions, h.deployer, h.verifier, h.prompter, nil)
	return h
}

func (h *harness) networkCalls() int {
	return h.deployer.calls + h.verifier.calls
}

func validParams() DeployParams {
	return DeployParams{
		QualifiedName: "contracts/Foo.sol:Foo",
		Network:       &config.Network{Name: "virtualMainnet", RPCURL: "https://rpc.example/fork", ChainID: 1},
		Credentials:   config.Credentials{PrivateKey: "0xabc123"},
		Verifier:      config.VerifierConfig{Username: "user", Project: "project"},
		AssumeYes:     true,
	}
}

func TestDeployContract_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("deploys then verifies", func(t *testing.T) {
		h := newHarness()

		outcome, err := h.uc.Run(ctx, validParams())
		require.NoError(t, err)

		assert.Equal(t, "artifacts/contracts/Foo.sol/Foo.json", h.resolver.ref)
		require.NotNil(t, outcome.Deployment)
		assert.Equal(t, deployedAddress, outcome.Deployment.ContractAddress)
		assert.Equal(t, 1, h.deployer.calls)

		require.Equal(t, 1, h.verifier.calls)
		assert.Equal(t, "contracts/Foo.sol:Foo", h.verifier.req.QualifiedName().String())
		assert.Equal(t, deployedAddress, h.verifier.req.Address())
		assert.Equal(t, "0.8.28", h.verifier.req.Compiler().Version)
		assert.Equal(t, "user", h.verifier.cfg.Username)
		assert.Equal(t, models.VerificationStatusVerified, outcome.Verification.Status)
		assert.True(t, h.sessions.session.closed)
		assert.Equal(t, 0, h.prompter.calls)
	})

	t.Run("explicit artifact reference and constructor args", func(t *testing.T) {
		h := newHarness()
		params := validParams()
		params.ArtifactRef = "PancakeSwapBuyer"
		params.ConstructorArgs = []string{"0x01", "42"}
		params.Compiler = models.CompilerOverrides{Version: "0.8.20"}

		_, err := h.uc.Run(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, "PancakeSwapBuyer", h.resolver.ref)
		assert.Equal(t, []string{"0x01", "42"}, h.deployer.args)
		assert.Equal(t, "0.8.20", h.verifier.req.Compiler().Version)
	})

	t.Run("artifact compiler settings reach the verifier", func(t *testing.T) {
		h := newHarness()
		h.loader.artifact.Sources = map[string]string{"contracts/Foo.sol": "contract Foo {}"}

		_, err := h.uc.Run(ctx, validParams())
		require.NoError(t, err)
		assert.Equal(t, models.CompilerSettings{
			Version:          "0.8.28",
			OptimizerEnabled: true,
			OptimizerRuns:    200,
			ViaIR:            true,
			EVMVersion:       "cancun",
		}, h.verifier.req.Compiler())
		assert.Equal(t, map[string]string{"contracts/Foo.sol": "contract Foo {}"}, h.verifier.req.Sources())
	})

	t.Run("configured compiler settings win field by field", func(t *testing.T) {
		h := newHarness()
		params := validParams()
		viaIR, runs := false, 1000
		params.Compiler = models.CompilerOverrides{ViaIR: &viaIR, OptimizerRuns: &runs}

		_, err := h.uc.Run(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, models.CompilerSettings{
			Version:          "0.8.28",
			OptimizerEnabled: true,
			OptimizerRuns:    1000,
			ViaIR:            false,
			EVMVersion:       "cancun",
		}, h.verifier.req.Compiler())
		assert.Nil(t, h.verifier.req.Sources())
	})

	t.Run("missing private key fails before any network call", func(t *testing.T) {
		h := newHarness()
		params := validParams()
		params.Credentials = config.Credentials{}

		outcome, err := h.uc.Run(ctx, params)
		assert.Nil(t, outcome)
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
		assert.Equal(t, domain.ClassConfiguration, domain.ClassOf(err))
		assert.Contains(t, err.Error(), "private key")
		assert.Equal(t, 0, h.networkCalls())
	})

	t.Run("malformed artifact stops before bootstrap", func(t *testing.T) {
		h := newHarness()
		h.loader.err = fmt.Errorf("%w: abi missing", domain.ErrArtifactMalformed)

		_, err := h.uc.Run(ctx, validParams())
		assert.ErrorIs(t, err, domain.ErrArtifactMalformed)
		assert.Equal(t, 0, h.sessions.calls)
		assert.Equal(t, 0, h.networkCalls())
	})

	t.Run("unresolvable artifact stops before loading", func(t *testing.T) {
		h := newHarness()
		h.resolver.err = domain.ErrArtifactNotFound

		_, err := h.uc.Run(ctx, validParams())
		assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
		assert.Equal(t, 0, h.loader.calls)
		assert.Equal(t, 0, h.sessions.calls)
	})

	t.Run("invalid endpoint", func(t *testing.T) {
		h := newHarness()
		params := validParams()
		params.Network = nil

		_, err := h.uc.Run(ctx, params)
		assert.ErrorIs(t, err, domain.ErrInvalidEndpoint)
		assert.Equal(t, 0, h.networkCalls())
	})

	t.Run("deployment failure skips verification", func(t *testing.T) {
		h := newHarness()
		h.deployer.err = fmt.Errorf("%w: insufficient funds", domain.ErrSubmissionFailed)

		outcome, err := h.uc.Run(ctx, validParams())
		assert.Nil(t, outcome)
		assert.ErrorIs(t, err, domain.ErrSubmissionFailed)
		assert.Equal(t, domain.ClassDeployment, domain.ClassOf(err))
		assert.Equal(t, 0, h.verifier.calls)
	})

	t.Run("verification rejection keeps the deployment", func(t *testing.T) {
		h := newHarness()
		h.verifier.err = fmt.Errorf("%w: bytecode mismatch", domain.ErrVerificationRejected)

		outcome, err := h.uc.Run(ctx, validParams())
		require.Error(t, err)

		var verr *VerificationError
		require.True(t, errors.As(err, &verr))
		assert.ErrorIs(t, err, domain.ErrVerificationRejected)
		assert.Equal(t, domain.ClassVerification, domain.ClassOf(err))

		require.NotNil(t, outcome)
		require.NotNil(t, outcome.Deployment)
		assert.Equal(t, deployedAddress, outcome.Deployment.ContractAddress)
		assert.Same(t, outcome.Deployment, verr.Deployment)
		assert.Equal(t, models.VerificationStatusRejected, outcome.Verification.Status)
		assert.Contains(t, err.Error(), deployedAddress.Hex())
	})

	t.Run("verification service unavailable", func(t *testing.T) {
		h := newHarness()
		h.verifier.err = fmt.Errorf("%w: 503", domain.ErrVerificationUnavailable)

		outcome, err := h.uc.Run(ctx, validParams())
		assert.ErrorIs(t, err, domain.ErrVerificationUnavailable)
		require.NotNil(t, outcome)
		assert.Equal(t, models.VerificationStatusUnavailable, outcome.Verification.Status)
		assert.Equal(t, 1, h.verifier.calls)
	})

	t.Run("qualified name required unless verification is skipped", func(t *testing.T) {
		h := newHarness()
		params := validParams()
		params.QualifiedName = ""
		params.ArtifactRef = "Foo"

		_, err := h.uc.Run(ctx, params)
		assert.ErrorIs(t, err, domain.ErrInvalidQualifiedName)
		assert.Equal(t, 0, h.resolver.calls)
	})

	t.Run("malformed qualified name", func(t *testing.T) {
		h := newHarness()
		params := validParams()
		params.QualifiedName = "Foo"

		_, err := h.uc.Run(ctx, params)
		assert.ErrorIs(t, err, domain.ErrInvalidQualifiedName)
		assert.Equal(t, 0, h.resolver.calls)
	})

	t.Run("verifier account must be configured", func(t *testing.T) {
		h := newHarness()
		params := validParams()
		params.Verifier = config.VerifierConfig{}

		_, err := h.uc.Run(ctx, params)
		assert.ErrorIs(t, err, domain.ErrVerifierNotConfigured)
		assert.Equal(t, 0, h.resolver.calls)
		assert.Equal(t, 0, h.networkCalls())
	})

	t.Run("skip verification", func(t *testing.T) {
		h := newHarness()
		params := validParams()
		params.SkipVerify = true
		params.QualifiedName = ""
		params.Verifier = config.VerifierConfig{}
		params.ArtifactRef = "artifacts/contracts/Foo.sol/Foo.json"

		outcome, err := h.uc.Run(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, 0, h.verifier.calls)
		assert.Equal(t, models.VerificationStatusSkipped, outcome.Verification.Status)
		assert.Equal(t, deployedAddress, outcome.Deployment.ContractAddress)
	})

	t.Run("no artifact and no name", func(t *testing.T) {
		h := newHarness()
		params := validParams()
		params.SkipVerify = true
		params.QualifiedName = ""

		_, err := h.uc.Run(ctx, params)
		assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
	})

	t.Run("operator declines the broadcast", func(t *testing.T) {
		h := newHarness()
		h.prompter.answer = false
		params := validParams()
		params.AssumeYes = false

		_, err := h.uc.Run(ctx, params)
		assert.ErrorIs(t, err, domain.ErrDeploymentCancelled)
		assert.Equal(t, 1, h.prompter.calls)
		assert.Equal(t, 0, h.networkCalls())
		assert.True(t, h.sessions.session.closed)
	})

	t.Run("operator confirms the broadcast", func(t *testing.T) {
		h := newHarness()
		params := validParams()
		params.AssumeYes = false

		_, err := h.uc.Run(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, 1, h.prompter.calls)
		assert.Equal(t, 1, h.deployer.calls)
	})
}

func TestDefaultArtifactPath(t *testing.T) {
	name := models.QualifiedName{SourcePath: "contracts/PancakeSwapBuyer.sol", ContractName: "PancakeSwapBuyer"}
	assert.Equal(t, "artifacts/contracts/PancakeSwapBuyer.sol/PancakeSwapBuyer.json", DefaultArtifactPath(name))
}

type recordingSink struct {
	stages []ExecutionStage
	infos  []string
	errors []string
}

func (r *recordingSink) OnProgress(_ context.Context, e ProgressEvent) { r.stages = append(r.stages, e.Stage) }
func (r *recordingSink) Info(m string)                                 { r.infos = append(r.infos, m) }
func (r *recordingSink) Error(m string)                                { r.errors = append(r.errors, m) }

func TestDeployContract_ReportsStagesInOrder(t *testing.T) {
	h := newHarness()
	sink := &recordingSink{}
	uc := NewDeployContract(h.resolver, h.loader, h.sessions, h.deployer, h.verifier, nil, sink)

	_, err := uc.Run(context.Background(), validParams())
	require.NoError(t, err)

	assert.Equal(t, []ExecutionStage{StageLoading, StageBootstrapping, StageDeploying, StageVerifying, StageCompleted}, sink.stages)
	assert.Equal(t, []string{"Deployment confirmed in block 0"}, sink.infos)
	for _, info := range sink.infos {
		assert.NotContains(t, info, deployedAddress.Hex(), "the address is printed once, by the result")
	}
}

func TestDeployContract_ReportsFailedStage(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(h *harness)
		stages []ExecutionStage
	}{
		{
			name:   "unresolvable artifact",
			setup:  func(h *harness) { h.resolver.err = domain.ErrArtifactNotFound },
			stages: []ExecutionStage{StageLoading, StageFailed},
		},
		{
			name:   "malformed artifact",
			setup:  func(h *harness) { h.loader.err = domain.ErrArtifactMalformed },
			stages: []ExecutionStage{StageLoading, StageFailed},
		},
		{
			name:   "deployment failure",
			setup:  func(h *harness) { h.deployer.err = domain.ErrSubmissionFailed },
			stages: []ExecutionStage{StageLoading, StageBootstrapping, StageDeploying, StageFailed},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			tt.setup(h)
			sink := &recordingSink{}
			uc := NewDeployContract(h.resolver, h.loader, h.sessions, h.deployer, h.verifier, nil, sink)

			outcome, err := uc.Run(context.Background(), validParams())
			require.Error(t, err)
			assert.Nil(t, outcome)
			assert.Equal(t, tt.stages, sink.stages)
		})
	}

	t.Run("failed verification still completes", func(t *testing.T) {
		h := newHarness()
		h.verifier.err = domain.ErrVerificationRejected
		sink := &recordingSink{}
		uc := NewDeployContract(h.resolver, h.loader, h.sessions, h.deployer, h.verifier, nil, sink)

		_, err := uc.Run(context.Background(), validParams())
		require.Error(t, err)
		assert.Equal(t, StageCompleted, sink.stages[len(sink.stages)-1])
		assert.NotContains(t, sink.stages, StageFailed)
	})
}
