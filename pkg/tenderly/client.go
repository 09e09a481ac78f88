package tenderly

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public Tenderly API
const DefaultBaseURL = "https://api.tenderly.co"

// DashboardURL is where verified contracts can be browsed
const DashboardURL = "https://dashboard.tenderly.co"

// Client is a minimal Tenderly REST client
type Client struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a client for baseURL. accessKey may be empty for public endpoints.
func NewClient(baseURL, accessKey string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned when the API answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying later could succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ContractURL links to a contract page on the dashboard
func ContractURL(account, project, networkID, address string) string {
	return fmt.Sprintf("%s/%s/%s/contract/%s/%s", DashboardURL, account, project, networkID, address)
}
