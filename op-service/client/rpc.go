package client

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

// RPCOption customizes NewRPC's dial behavior.
type RPCOption func(*rpcConfig)

type rpcConfig struct {
	dialAttempts int
	dialBackoff  time.Duration
}

// WithDialBackoff sets the total number of attempts to dial the RPC
// endpoint before giving up, with a fixed short backoff between attempts.
func WithDialBackoff(attempts int) RPCOption {
	return func(c *rpcConfig) {
		c.dialAttempts = attempts
	}
}

// NewRPC dials the given RPC endpoint, retrying transient connection
// failures up to the configured number of attempts. Endpoints may be
// http(s)://, ws(s)://, or a unix socket path, per go-ethereum's rpc.Dial.
func NewRPC(ctx context.Context, logger log.Logger, addr string, opts ...RPCOption) (*rpc.Client, error) {
	cfg := rpcConfig{dialAttempts: 1, dialBackoff: 1 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	var lastErr error
	for i := 0; i < cfg.dialAttempts; i++ {
		cl, err := rpc.DialContext(ctx, addr)
		if err == nil {
			return cl, nil
		}
		lastErr = err
		logger.Warn("Failed to dial RPC, retrying", "addr", addr, "attempt", i+1, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.dialBackoff):
		}
	}
	return nil, fmt.Errorf("failed to dial %s after %d attempts: %w", addr, cfg.dialAttempts, lastErr)
}
