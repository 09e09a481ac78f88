package tenderly

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_VerifyContracts(t *testing.T) {
	var gotPath, gotKey string
	var gotBody VerifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Access-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"results":[{"verified_contract":{"id":"c1","address":"0xdef","contract_name":"Foo","network_id":"1"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "secret")
	resp, err := client.VerifyContracts(context.Background(), "acme", "core", &VerifyRequest{
		Contracts: []ContractToVerify{{
			ContractToVerify: "contracts/Foo.sol:Foo",
			Sources:          map[string]Source{"contracts/Foo.sol": {Content: "contract Foo {}"}},
			Compiler:         Compiler{Version: "0.8.28", Settings: CompilerSettings{Optimizer: Optimizer{Enabled: true, Runs: 200}}},
			Networks:         map[string]NetworkAddress{"1": {Address: "0xdef"}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/account/acme/project/core/contracts/verify", gotPath)
	assert.Equal(t, "secret", gotKey)
	require.Len(t, gotBody.Contracts, 1)
	assert.Equal(t, "contracts/Foo.sol:Foo", gotBody.Contracts[0].ContractToVerify)
	assert.Equal(t, 200, gotBody.Contracts[0].Compiler.Settings.Optimizer.Runs)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Foo", resp.Results[0].VerifiedContract.ContractName)
}

func TestClient_VerifyVirtualNetworkContracts(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").VerifyVirtualNetworkContracts(context.Background(), "acme", "core", "vnet-1", &VerifyRequest{})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/account/acme/project/core/testnet/vnet-1/verify", gotPath)
}

func TestClient_StatusError(t *testing.T) {
	tests := []struct {
		status    int
		temporary bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "").VerifyContracts(context.Background(), "a", "p", &VerifyRequest{})
			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.temporary, statusErr.Temporary())
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestContractURL(t *testing.T) {
	assert.Equal(t, "https://dashboard.tenderly.co/acme/core/contract/56/0xabc", ContractURL("acme", "core", "56", "0xabc"))
}

type countingTransport struct {
	calls int
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.calls++
	return http.DefaultTransport.RoundTrip(r)
}

func TestWithHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	transport := &countingTransport{}
	client := NewClient(srv.URL, "", WithHTTPClient(&http.Client{Transport: transport}))
	_, err := client.VerifyContracts(context.Background(), "a", "p", &VerifyRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, transport.calls)

	t.Run("nil keeps the default client", func(t *testing.T) {
		c := NewClient(srv.URL, "", WithHTTPClient(nil))
		require.NotNil(t, c.httpClient)
		assert.NotZero(t, c.httpClient.Timeout)
	})
}
