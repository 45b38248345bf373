package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/op-fault-host/op-node/rollup"
	"github.com/ethereum-optimism/op-fault-host/op-program/host/flags"
	"github.com/ethereum-optimism/op-fault-host/op-service/eth"
	"github.com/ethereum-optimism/op-fault-host/op-service/sources"
)

var (
	ErrMissingRollupConfig = errors.New("missing rollup config")
	ErrMissingL2Genesis    = errors.New("missing l2 genesis")
	ErrInvalidL1Head       = errors.New("invalid l1 head")
	ErrInvalidL2Head       = errors.New("invalid l2 head")
	ErrInvalidL2OutputRoot = errors.New("invalid l2 output root")
	ErrInvalidL2Claim      = errors.New("invalid l2 claim")
	ErrInvalidL2ClaimBlock = errors.New("invalid l2 claim block number")
	ErrDataDirRequired     = errors.New("datadir must be specified when in non-fetching mode")
	ErrNoExecInServerMode  = errors.New("exec command must not be set when in server mode")
)

// Config is the full set of boot parameters the host seeds into the local
// preimage key space, plus the host's own operating parameters (where to
// fetch from, where to persist to, how to run the client).
type Config struct {
	Rollup      *rollup.Config
	L2ChainConfig *params.ChainConfig

	// DataDir is the directory to read/write pre-image data from/to.
	// If not set, an in-memory key-value store is used and fetching data must be enabled
	DataDir string

	// L1Head is the block hash of the L1 chain head block
	L1Head      common.Hash
	L1URL       string
	L1BeaconURL string
	L1TrustRPC  bool
	L1RPCKind   sources.RPCProviderKind

	// L2Head is the L2 block hash the agreed output root claims.
	L2Head            common.Hash
	L2OutputRoot      eth.Bytes32
	L2Claim           eth.Bytes32
	L2ClaimBlockNumber uint64
	L2URL             string

	// ExecCmd specifies the client program to execute in a separate process.
	// If unset, no client is started: the host serves a client over the
	// inherited file descriptors.
	ExecCmd string

	// ServerMode indicates that the program should run in pre-image server mode and wait for requests.
	// No client program is run.
	ServerMode bool

	// APIAddress, if set, additionally exposes the dehash/hint operations
	// over a plain HTTP debug surface alongside the fd-pipe protocol.
	APIAddress string
}

func (c *Config) Check() error {
	if c.Rollup == nil {
		return ErrMissingRollupConfig
	}
	if c.L1Head == (common.Hash{}) {
		return ErrInvalidL1Head
	}
	if c.L2Head == (common.Hash{}) {
		return ErrInvalidL2Head
	}
	if c.L2OutputRoot == (eth.Bytes32{}) {
		return ErrInvalidL2OutputRoot
	}
	if !c.FetchingEnabled() && c.DataDir == "" {
		return ErrDataDirRequired
	}
	if c.ServerMode && c.ExecCmd != "" {
		return ErrNoExecInServerMode
	}
	return nil
}

// FetchingEnabled reports whether the host may reach out to live L1/L2 RPC
// endpoints to satisfy preimage misses, as opposed to running fully offline
// against a pre-populated data directory.
func (c *Config) FetchingEnabled() bool {
	return c.L1URL != "" && c.L2URL != ""
}

func NewConfig(rollupCfg *rollup.Config, l2ChainConfig *params.ChainConfig, l1Head, l2Head common.Hash, l2OutputRoot, l2Claim eth.Bytes32, l2ClaimBlockNumber uint64) *Config {
	return &Config{
		Rollup:             rollupCfg,
		L2ChainConfig:      l2ChainConfig,
		L1Head:             l1Head,
		L2Head:             l2Head,
		L2OutputRoot:       l2OutputRoot,
		L2Claim:            l2Claim,
		L2ClaimBlockNumber: l2ClaimBlockNumber,
		L1RPCKind:          sources.RPCKindStandard,
	}
}

func NewConfigFromCLI(logger log.Logger, ctx *cli.Context) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, err
	}
	rollupCfg, err := loadRollupConfig(ctx)
	if err != nil {
		return nil, err
	}
	l2ChainConfig, err := loadChainConfigFromGenesis(ctx.String(flags.L2GenesisPath.Name))
	if err != nil {
		return nil, err
	}
	l1Head := common.HexToHash(ctx.String(flags.L1Head.Name))
	if l1Head == (common.Hash{}) {
		return nil, ErrInvalidL1Head
	}
	l2Head := common.HexToHash(ctx.String(flags.L2Head.Name))
	if l2Head == (common.Hash{}) {
		return nil, ErrInvalidL2Head
	}
	l2OutputRoot, err := parseBytes32(ctx.String(flags.L2OutputRoot.Name))
	if err != nil {
		return nil, ErrInvalidL2OutputRoot
	}
	l2Claim, err := parseBytes32(ctx.String(flags.L2Claim.Name))
	if err != nil {
		return nil, ErrInvalidL2Claim
	}
	return &Config{
		Rollup:             rollupCfg,
		L2ChainConfig:      l2ChainConfig,
		DataDir:            ctx.String(flags.DataDir.Name),
		L1Head:             l1Head,
		L1URL:              ctx.String(flags.L1NodeAddr.Name),
		L1BeaconURL:        ctx.String(flags.L1BeaconAddr.Name),
		L1TrustRPC:         ctx.Bool(flags.L1TrustRPC.Name),
		L1RPCKind:          sources.RPCProviderKind(ctx.String(flags.L1RPCProviderKind.Name)),
		L2Head:             l2Head,
		L2OutputRoot:       l2OutputRoot,
		L2Claim:            l2Claim,
		L2ClaimBlockNumber: ctx.Uint64(flags.L2BlockNumber.Name),
		L2URL:              ctx.String(flags.L2NodeAddr.Name),
		ExecCmd:            ctx.String(flags.Exec.Name),
		ServerMode:         ctx.Bool(flags.Server.Name),
		APIAddress:         ctx.String(flags.APIAddress.Name),
	}, nil
}

func parseBytes32(value string) (eth.Bytes32, error) {
	b, err := hexutil.Decode(value)
	if err != nil {
		return eth.Bytes32{}, fmt.Errorf("invalid hex value %q: %w", value, err)
	}
	if len(b) != 32 {
		return eth.Bytes32{}, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	return eth.Bytes32(b), nil
}

func loadRollupConfig(ctx *cli.Context) (*rollup.Config, error) {
	path := ctx.String(flags.RollupConfig.Name)
	if path == "" {
		return nil, ErrMissingRollupConfig
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rollup config: %w", err)
	}
	var cfg rollup.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rollup config: %w", err)
	}
	return &cfg, nil
}

func loadChainConfigFromGenesis(path string) (*params.ChainConfig, error) {
	if path == "" {
		return nil, ErrMissingL2Genesis
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read l2 genesis file: %w", err)
	}
	var genesis core.Genesis
	err = json.Unmarshal(data, &genesis)
	if err != nil {
		return nil, fmt.Errorf("parse l2 genesis file: %w", err)
	}
	return genesis.Config, nil
}
