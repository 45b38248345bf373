package host

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"

	opservice "github.com/ethereum-optimism/op-fault-host/op-service"
	"github.com/ethereum-optimism/op-fault-host/op-service/client"
	"github.com/ethereum-optimism/op-fault-host/op-service/sources"

	"github.com/ethereum-optimism/op-fault-host/op-program/host/config"
	"github.com/ethereum-optimism/op-fault-host/op-program/host/flags"
	"github.com/ethereum-optimism/op-fault-host/op-program/host/kvstore"
	"github.com/ethereum-optimism/op-fault-host/op-program/host/prefetcher"
)

// Main wires a parsed Config into a running host: native-spawn mode if
// ExecCmd names a client binary to run as a detached child, otherwise
// inherited-pipe mode, serving the well-known fds (and the optional HTTP
// surface) without spawning a client. Server mode takes the inherited-pipe
// path; the presence of the fds is not checked beforehand.
func Main(logger log.Logger, cfg *config.Config) error {
	if err := cfg.Check(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	opservice.ValidateEnvVars(flags.EnvVarPrefix, flags.Flags, logger)

	kv, err := makeKV(logger, cfg)
	if err != nil {
		return err
	}
	preimageGetter, hintHandler, err := makeSources(context.Background(), logger, kv, cfg)
	if err != nil {
		return err
	}

	if cfg.ExecCmd != "" {
		return RunNativeMode(context.Background(), logger, cfg, preimageGetter, hintHandler)
	}
	return RunInheritedMode(context.Background(), logger, cfg, preimageGetter, hintHandler)
}

func makeKV(logger log.Logger, cfg *config.Config) (kvstore.KV, error) {
	if cfg.DataDir == "" {
		logger.Info("Using in-memory storage")
		return kvstore.NewMemKV(), nil
	}
	logger.Info("Creating disk storage", "datadir", cfg.DataDir)
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating datadir: %w", err)
	}
	return kvstore.NewDiskKV(cfg.DataDir), nil
}

// makeSources builds the preimage getter and hint handler the server loop
// drives: a prefetcher-backed pair if live RPC endpoints were configured,
// or a read-only pair over the local KV plus local boot parameters when
// running fully offline against a pre-populated data directory.
func makeSources(ctx context.Context, logger log.Logger, kv kvstore.KV, cfg *config.Config) (kvstore.PreimageSource, func(string) error, error) {
	local := kvstore.NewLocalPreimageSource(cfg)
	split := kvstore.NewSplitKV(local, kv)

	if !cfg.FetchingEnabled() {
		logger.Info("Using offline mode. All required pre-images must be pre-populated.")
		return split.Get, func(hint string) error {
			logger.Debug("ignoring prefetch hint", "hint", hint)
			return nil
		}, nil
	}

	prefetch, err := makePrefetcher(ctx, logger, split, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prefetcher: %w", err)
	}
	getter := func(key common.Hash) ([]byte, error) { return prefetch.GetPreimage(ctx, key) }
	return getter, prefetch.Hint, nil
}

func makePrefetcher(ctx context.Context, logger log.Logger, kv kvstore.KV, cfg *config.Config) (*prefetcher.Prefetcher, error) {
	logger.Info("Connecting to L1 node", "l1", cfg.L1URL)
	l1RPC, err := client.NewRPC(ctx, logger, cfg.L1URL, client.WithDialBackoff(10))
	if err != nil {
		return nil, fmt.Errorf("failed to setup L1 RPC: %w", err)
	}
	metrics := sources.NewMetrics("op_program_host", prometheus.DefaultRegisterer)
	l1ClCfg := sources.L1ClientDefaultConfig(cfg.L1TrustRPC, cfg.L1RPCKind)
	l1Cl, err := sources.NewL1Client(l1RPC, logger, metrics, l1ClCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create L1 client: %w", err)
	}
	l1Beacon := sources.NewBeaconHTTPClient(client.NewBasicHTTPClient(cfg.L1BeaconURL, logger))
	l1BlobFetcher := sources.NewL1BeaconClient(l1Beacon, sources.L1BeaconClientConfig{FetchAllSidecars: false})

	logger.Info("Connecting to L2 node", "l2", cfg.L2URL)
	l2RPC, err := client.NewRPC(ctx, logger, cfg.L2URL, client.WithDialBackoff(10))
	if err != nil {
		return nil, fmt.Errorf("failed to setup L2 RPC: %w", err)
	}
	l2Cl, err := sources.NewL2Client(l2RPC, logger, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create L2 client: %w", err)
	}
	l2Cl.WithMetrics(metrics)
	return prefetcher.NewPrefetcher(logger, l1Cl, l1BlobFetcher, l2Cl, kv), nil
}
