package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/domain/models"
	"github.com/trebuchet-org/sling/internal/usecase"
)

type dialFunc func(ctx context.Context, rawURL string) (Backend, func(), error)

func dialEthclient(ctx context.Context, rawURL string) (Backend, func(), error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// ReceiptFetcher rebuilds deployments from creation transactions already on chain
type ReceiptFetcher struct {
	dial dialFunc
	log  *slog.Logger
}

// NewReceiptFetcher creates a new receipt fetcher
func NewReceiptFetcher(log *slog.Logger) *ReceiptFetcher {
	return &ReceiptFetcher{
		dial: dialEthclient,
		log:  log.With("component", "receipts"),
	}
}

// FetchDeployment looks up txHash and returns the contract it created
func (f *ReceiptFetcher) FetchDeployment(ctx context.Context, network *config.Network, txHash common.Hash) (*models.DeploymentResult, error) {
	if network == nil || network.RPCURL == "" {
		return nil, fmt.Errorf("%w: no RPC URL configured (use --network or --rpc-url)", domain.ErrInvalidEndpoint)
	}
	host, err := endpointHost(network.RPCURL)
	if err != nil {
		return nil, err
	}

	backend, closer, err := f.dial(ctx, network.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidEndpoint, host, err)
	}
	defer closer()

	receipt, err := backend.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: transaction %s not found on %s", domain.ErrNoDeployment, txHash.Hex(), host)
		}
		return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: transaction %s reverted", domain.ErrNoDeployment, txHash.Hex())
	}
	if receipt.ContractAddress == (common.Address{}) {
		return nil, fmt.Errorf("%w: transaction %s is not a contract creation", domain.ErrNoDeployment, txHash.Hex())
	}

	result, err := resultFromReceipt(ctx, backend, receipt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoDeployment, err)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if network.ChainID != 0 && network.ChainID != chainID.Uint64() {
		return nil, fmt.Errorf("%w: chain ID mismatch: expected %d, got %d", domain.ErrInvalidEndpoint, network.ChainID, chainID.Uint64())
	}
	result.ChainID = chainID.Uint64()

	tx, _, err := backend.TransactionByHash(ctx, txHash)
	if err == nil {
		if from, err := types.Sender(types.LatestSignerForChainID(chainID), tx); err == nil {
			result.Deployer = from
		}
	} else {
		f.log.Debug("could not load transaction, deployer unknown", "tx_hash", txHash.Hex(), "error", err)
	}

	f.log.Debug("found deployment",
		"tx_hash", txHash.Hex(),
		"address", result.ContractAddress.Hex(),
		"block_number", result.BlockNumber,
	)
	return result, nil
}

var _ usecase.DeploymentLookup = (*ReceiptFetcher)(nil)
