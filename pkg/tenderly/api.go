package tenderly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// VerifyRequest is the body of a contract verification call
type VerifyRequest struct {
	Contracts []ContractToVerify `json:"contracts"`
}

// ContractToVerify describes one contract and where it is deployed
type ContractToVerify struct {
	ContractToVerify string                    `json:"contractToVerify"` // path:Name
	Sources          map[string]Source         `json:"sources"`
	Compiler         Compiler                  `json:"compiler"`
	Networks         map[string]NetworkAddress `json:"networks"` // keyed by chain id
}

// Source is the content of one Solidity file
type Source struct {
	Content string `json:"content"`
}

// Compiler holds the solc version and settings to recompile with
type Compiler struct {
	Version  string           `json:"version"`
	Settings CompilerSettings `json:"settings"`
}

// CompilerSettings mirrors the solc settings that affect bytecode
type CompilerSettings struct {
	Optimizer  Optimizer `json:"optimizer"`
	ViaIR      bool      `json:"viaIR,omitempty"`
	EVMVersion string    `json:"evmVersion,omitempty"`
	Remappings []string  `json:"remappings,omitempty"`
}

// Optimizer represents the solc optimizer settings
type Optimizer struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

// NetworkAddress is the deployed address on one network
type NetworkAddress struct {
	Address string `json:"address"`
}

// VerifyResponse is returned by the verification endpoints
type VerifyResponse struct {
	CompilationErrors []CompilationError   `json:"compilation_errors"`
	Results           []VerificationResult `json:"results"`
}

// CompilationError is a solc error reported while recompiling
type CompilationError struct {
	Source    string `json:"source"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

// VerificationResult is the outcome for one contract of the request
type VerificationResult struct {
	BytecodeMismatchError *BytecodeMismatch `json:"bytecode_mismatch_error,omitempty"`
	VerifiedContract      *VerifiedContract `json:"verified_contract,omitempty"`
}

// BytecodeMismatch reports that recompiled bytecode differs from the chain
type BytecodeMismatch struct {
	ContractID string `json:"contract_id"`
	Expected   string `json:"expected"`
	Got        string `json:"got"`
	Similarity int    `json:"similarity"`
}

// VerifiedContract identifies a contract Tenderly matched to its source
type VerifiedContract struct {
	ID           string `json:"id"`
	Address      string `json:"address"`
	ContractName string `json:"contract_name"`
	NetworkID    string `json:"network_id"`
}

// VerifyContracts verifies contracts deployed on public networks
func (c *Client) VerifyContracts(ctx context.Context, account, project string, req *VerifyRequest) (*VerifyResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v1/account/%s/project/%s/contracts/verify",
		c.baseURL, url.PathEscape(account), url.PathEscape(project))
	return c.verify(ctx, endpoint, req)
}

// VerifyVirtualNetworkContracts verifies contracts deployed on a Virtual TestNet
func (c *Client) VerifyVirtualNetworkContracts(ctx context.Context, account, project, virtualNetworkID string, req *VerifyRequest) (*VerifyResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v1/account/%s/project/%s/testnet/%s/verify",
		c.baseURL, url.PathEscape(account), url.PathEscape(project), url.PathEscape(virtualNetworkID))
	return c.verify(ctx, endpoint, req)
}

func (c *Client) verify(ctx context.Context, endpoint string, body *VerifyRequest) (*VerifyResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.accessKey != "" {
		req.Header.Set("X-Access-Key", c.accessKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var result VerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}
