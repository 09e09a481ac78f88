package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// Backend is the subset of a node connection used to deploy and inspect contracts.
// Both *ethclient.Client and the simulated backend client satisfy it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// Session is a signing identity bound to one network handle
type Session struct {
	backend  Backend
	key      *ecdsa.PrivateKey
	sender   common.Address
	chainID  uint64
	endpoint string
	closer   func()
}

// NewSession binds key to backend. chainID may be 0, in which case it is
// asked from the node at deploy time.
func NewSession(backend Backend, key *ecdsa.PrivateKey, chainID uint64, endpoint string) *Session {
	return &Session{
		backend:  backend,
		key:      key,
		sender:   crypto.PubkeyToAddress(key.PublicKey),
		chainID:  chainID,
		endpoint: endpoint,
	}
}

func (s *Session) Sender() common.Address { return s.sender }
func (s *Session) ChainID() uint64        { return s.chainID }
func (s *Session) Endpoint() string       { return s.endpoint }
func (s *Session) Backend() Backend       { return s.backend }

// Close releases the underlying connection
func (s *Session) Close() {
	if s.closer != nil {
		s.closer()
		s.closer = nil
	}
}

// String never includes the key
func (s *Session) String() string {
	return fmt.Sprintf("Session{sender: %s, endpoint: %s}", s.sender.Hex(), s.endpoint)
}

func (s *Session) GoString() string { return s.String() }

// signTx signs tx with the session key
func (s *Session) signTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// SessionFactory builds sessions from resolved configuration. Opening a session
// validates the key and endpoint but performs no RPC call.
type SessionFactory struct {
	log *slog.Logger
}

// NewSessionFactory creates a new session factory
func NewSessionFactory(log *slog.Logger) *SessionFactory {
	return &SessionFactory{log: log.With("component", "signer")}
}

// Open checks the credential first so a missing key fails before anything else
func (f *SessionFactory) Open(network *config.Network, creds config.Credentials) (usecase.SigningSession, error) {
	if strings.TrimSpace(creds.PrivateKey) == "" {
		return nil, fmt.Errorf("%w: private key not set (export SLING_PRIVATE_KEY or PRIVATE_KEY)", domain.ErrMissingCredential)
	}
	key, err := ParsePrivateKey(creds.PrivateKey)
	if err != nil {
		return nil, err
	}

	if network == nil || network.RPCURL == "" {
		return nil, fmt.Errorf("%w: no RPC URL configured (use --network or --rpc-url)", domain.ErrInvalidEndpoint)
	}
	host, err := endpointHost(network.RPCURL)
	if err != nil {
		return nil, err
	}

	// HTTP transports connect lazily, nothing is sent until the first call
	client, err := ethclient.DialContext(context.Background(), network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidEndpoint, host, err)
	}

	session := NewSession(client, key, network.ChainID, host)
	session.closer = client.Close

	f.log.Debug("signing session ready",
		"sender", session.Sender().Hex(),
		"network", network.Name,
		"endpoint", host,
		"chain_id", network.ChainID,
	)
	return session, nil
}

// ParsePrivateKey parses a hex private key with or without 0x prefix.
// The key itself never appears in the returned error.
func ParsePrivateKey(raw string) (*ecdsa.PrivateKey, error) {
	hexKey := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: private key must be 32 bytes of hex", domain.ErrInvalidCredential)
	}
	return key, nil
}

// endpointHost validates an RPC URL and returns its host for display.
// Paths often embed access tokens so they are never shown.
func endpointHost(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: RPC URL is not a valid URL", domain.ErrInvalidEndpoint)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported RPC URL scheme %q (expected http or https)", domain.ErrInvalidEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: RPC URL has no host", domain.ErrInvalidEndpoint)
	}
	return u.Host, nil
}

var _ usecase.SessionFactory = (*SessionFactory)(nil)
