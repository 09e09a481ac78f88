package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/models"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// Deployer broadcasts contract-creation transactions and waits for them to be mined
type Deployer struct {
	log *slog.Logger
}

// NewDeployer creates a new deployer
func NewDeployer(log *slog.Logger) *Deployer {
	return &Deployer{log: log.With("component", "deployer")}
}

// Deploy submits artifact's creation code with the encoded constructor args and
// blocks until the transaction is mined or ctx is done
func (d *Deployer) Deploy(ctx context.Context, signing usecase.SigningSession, artifact *models.ContractArtifact, args []string) (*models.DeploymentResult, error) {
	session, ok := signing.(*Session)
	if !ok {
		return nil, fmt.Errorf("unsupported signing session %T", signing)
	}
	backend := session.Backend()

	encodedArgs, err := EncodeConstructorArgs(artifact.ABI, args)
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, len(artifact.Bytecode)+len(encodedArgs))
	data = append(data, artifact.Bytecode...)
	data = append(data, encodedArgs...)

	chainID, err := d.chainID(ctx, session)
	if err != nil {
		return nil, err
	}

	sender := session.Sender()
	nonce, err := backend.PendingNonceAt(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get nonce: %v", domain.ErrSubmissionFailed, err)
	}

	tx, err := d.buildTx(ctx, backend, sender, chainID, nonce, data)
	if err != nil {
		return nil, err
	}
	signedTx, err := session.signTx(tx, chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sign transaction: %v", domain.ErrSubmissionFailed, err)
	}

	if err := backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSubmissionFailed, err)
	}

	// Logged as soon as it exists so an interrupted run can still be traced
	d.log.Info("transaction submitted, waiting for confirmation",
		"tx_hash", signedTx.Hash().Hex(),
		"expected_address", crypto.CreateAddress(sender, nonce).Hex(),
		"gas_limit", signedTx.Gas(),
	)

	receipt, err := bind.WaitMined(ctx, backend, signedTx)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction %s: %w", domain.ErrConfirmationFailed, signedTx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: transaction %s reverted in block %s", domain.ErrConfirmationFailed, signedTx.Hash().Hex(), receipt.BlockNumber)
	}

	result, err := resultFromReceipt(ctx, backend, receipt)
	if err != nil {
		return nil, err
	}
	result.ContractName = artifact.ContractName
	result.Deployer = sender
	result.ChainID = chainID.Uint64()

	d.log.Info("contract deployed",
		"address", result.ContractAddress.Hex(),
		"block_number", result.BlockNumber,
		"gas_used", result.GasUsed,
	)
	return result, nil
}

// chainID returns the session's configured chain id after checking it against the node
func (d *Deployer) chainID(ctx context.Context, session *Session) (*big.Int, error) {
	remote, err := session.Backend().ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get chain ID from %s: %v", domain.ErrSubmissionFailed, session.Endpoint(), err)
	}
	if configured := session.ChainID(); configured != 0 && configured != remote.Uint64() {
		return nil, fmt.Errorf("%w: chain ID mismatch: expected %d, got %d", domain.ErrInvalidEndpoint, configured, remote.Uint64())
	}
	return remote, nil
}

// buildTx prices and sizes the creation transaction, using EIP-1559 fees when
// the chain has a base fee
func (d *Deployer) buildTx(ctx context.Context, backend Backend, sender common.Address, chainID *big.Int, nonce uint64, data []byte) (*types.Transaction, error) {
	head, err := backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get latest header: %v", domain.ErrSubmissionFailed, err)
	}

	msg := ethereum.CallMsg{From: sender, Data: data, Value: new(big.Int)}
	var tipCap, feeCap, gasPrice *big.Int
	if head.BaseFee != nil {
		tipCap, err = backend.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to suggest gas tip: %v", domain.ErrSubmissionFailed, err)
		}
		feeCap = new(big.Int).Add(tipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
		msg.GasTipCap, msg.GasFeeCap = tipCap, feeCap
	} else {
		gasPrice, err = backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to suggest gas price: %v", domain.ErrSubmissionFailed, err)
		}
		msg.GasPrice = gasPrice
	}

	gas, err := backend.EstimateGas(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("%w: gas estimation failed: %v", domain.ErrSubmissionFailed, err)
	}

	d.log.Debug("prepared creation transaction",
		"nonce", nonce,
		"gas", gas,
		"chain_id", chainID.Uint64(),
		"size", len(data),
	)

	if feeCap != nil {
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tipCap,
			GasFeeCap: feeCap,
			Gas:       gas,
			Value:     new(big.Int),
			Data:      data,
		}), nil
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		Value:    new(big.Int),
		Data:     data,
	}), nil
}

// resultFromReceipt builds a DeploymentResult from a successful creation receipt,
// checking that code actually exists at the new address
func resultFromReceipt(ctx context.Context, backend Backend, receipt *types.Receipt) (*models.DeploymentResult, error) {
	if receipt.ContractAddress == (common.Address{}) {
		return nil, fmt.Errorf("%w: transaction %s created no contract", domain.ErrConfirmationFailed, receipt.TxHash.Hex())
	}

	code, err := backend.CodeAt(ctx, receipt.ContractAddress, receipt.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to check code at %s: %v", domain.ErrConfirmationFailed, receipt.ContractAddress.Hex(), err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: no code at %s", domain.ErrConfirmationFailed, receipt.ContractAddress.Hex())
	}

	result := &models.DeploymentResult{
		ContractAddress: receipt.ContractAddress,
		TransactionHash: receipt.TxHash,
		GasUsed:         receipt.GasUsed,
		Receipt:         receipt,
	}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return result, nil
}

var _ usecase.ContractDeployer = (*Deployer)(nil)
