package models

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DeploymentResult is produced once a contract-creation transaction is confirmed
type DeploymentResult struct {
	ContractName    string         `json:"contractName" yaml:"contractName"`
	ContractAddress common.Address `json:"contractAddress" yaml:"contractAddress"`
	TransactionHash common.Hash    `json:"transactionHash" yaml:"transactionHash"`
	Deployer        common.Address `json:"deployer" yaml:"deployer"`
	ChainID         uint64         `json:"chainId" yaml:"chainId"`
	BlockNumber     uint64         `json:"blockNumber" yaml:"blockNumber"`
	GasUsed         uint64         `json:"gasUsed" yaml:"gasUsed"`

	// Receipt is the confirmation record returned by the node
	Receipt *types.Receipt `json:"-" yaml:"-"`
}

// Confirmed reports whether the result carries a concrete, successfully mined address
func (d *DeploymentResult) Confirmed() bool {
	if d == nil || d.ContractAddress == (common.Address{}) {
		return false
	}
	if d.Receipt != nil && d.Receipt.Status != types.ReceiptStatusSuccessful {
		return false
	}
	return true
}
