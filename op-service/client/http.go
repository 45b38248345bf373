package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// BasicHTTPClient is a minimal GET-only HTTP client for RPC dialects that
// aren't JSON-RPC, such as the L1 beacon-node REST API the blob sidecar
// fetcher talks to.
type BasicHTTPClient struct {
	base   string
	logger log.Logger
	client *http.Client
}

func NewBasicHTTPClient(base string, logger log.Logger) *BasicHTTPClient {
	return &BasicHTTPClient{
		base:   base,
		logger: logger,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Get issues a GET request against base joined with p, returning the raw
// response body. A non-2xx status is returned as an error.
func (c *BasicHTTPClient) Get(ctx context.Context, p string, query url.Values) ([]byte, error) {
	u, err := url.Parse(c.base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", c.base, err)
	}
	u.Path = path.Join(u.Path, p)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", u, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", u, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request to %s returned status %d: %s", u, resp.StatusCode, string(body))
	}
	return body, nil
}
