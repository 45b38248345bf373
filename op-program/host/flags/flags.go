package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	service "github.com/ethereum-optimism/op-fault-host/op-service"
	oplog "github.com/ethereum-optimism/op-fault-host/op-service/log"
	"github.com/ethereum-optimism/op-fault-host/op-service/sources"
)

const EnvVarPrefix = "OP_PROGRAM"

func prefixEnvVars(name string) []string {
	return service.PrefixEnvVar(EnvVarPrefix, name)
}

var (
	RollupConfig = &cli.StringFlag{
		Name:    "rollup.config",
		Usage:   "Path to rollup config. Cannot be used together with --network",
		EnvVars: prefixEnvVars("ROLLUP_CONFIG"),
	}
	Network = &cli.StringFlag{
		Name:    "network",
		Usage:   "Predefined network selection, accepted in place of --rollup.config. No predefined networks are bundled, so a rollup config is only loaded from --rollup.config",
		EnvVars: prefixEnvVars("NETWORK"),
	}
	L2GenesisPath = &cli.StringFlag{
		Name:    "l2.genesis",
		Usage:   "Path to the op-geth genesis file",
		EnvVars: prefixEnvVars("L2_GENESIS"),
	}
	DataDir = &cli.StringFlag{
		Name:    "datadir",
		Usage:   "Directory to use for preimage data storage. Default uses in-memory storage",
		EnvVars: prefixEnvVars("DATADIR"),
	}
	L1Head = &cli.StringFlag{
		Name:    "l1.head",
		Usage:   "Hash of the L1 head block. Derivation stops after this block is processed.",
		EnvVars: prefixEnvVars("L1_HEAD"),
	}
	L2Head = &cli.StringFlag{
		Name:    "l2.head",
		Usage:   "Hash of the L2 block at the L2 output root.",
		EnvVars: prefixEnvVars("L2_HEAD"),
	}
	L2OutputRoot = &cli.StringFlag{
		Name:    "l2.outputroot",
		Usage:   "Agreed L2 output root to start derivation from.",
		EnvVars: prefixEnvVars("L2_OUTPUT_ROOT"),
	}
	L2Claim = &cli.StringFlag{
		Name:    "l2.claim",
		Usage:   "Claimed L2 output root to validate.",
		EnvVars: prefixEnvVars("L2_CLAIM"),
	}
	L2BlockNumber = &cli.Uint64Flag{
		Name:    "l2.blocknumber",
		Usage:   "L2 block number that the claim relates to.",
		EnvVars: prefixEnvVars("L2_BLOCK_NUM"),
	}
	L1NodeAddr = &cli.StringFlag{
		Name:    "l1",
		Usage:   "Address of L1 JSON-RPC endpoint to use (debug namespace required)",
		EnvVars: prefixEnvVars("L1_RPC"),
	}
	L1BeaconAddr = &cli.StringFlag{
		Name:    "l1.beacon",
		Usage:   "Address of L1 Beacon API endpoint to use",
		EnvVars: prefixEnvVars("L1_BEACON_API"),
	}
	L2NodeAddr = &cli.StringFlag{
		Name:    "l2",
		Usage:   "Address of L2 JSON-RPC endpoint to use (eth and debug namespace required)",
		EnvVars: prefixEnvVars("L2_RPC"),
	}
	L1TrustRPC = &cli.BoolFlag{
		Name:    "l1.trustrpc",
		Usage:   "Trust the L1 RPC. Accepted but not read by the L1 client, which always verifies L1 header hashes",
		EnvVars: prefixEnvVars("L1_TRUST_RPC"),
	}
	L1RPCProviderKind = &cli.GenericFlag{
		Name:    "l1.rpckind",
		Usage:   "The kind of RPC provider. Accepted but not read by the L1 client, which always fetches receipts with debug_getRawReceipts. Valid options: " + sources.RPCProviderKinds.String(),
		EnvVars: prefixEnvVars("L1_RPC_KIND"),
		Value: func() *sources.RPCProviderKind {
			out := sources.RPCKindStandard
			return &out
		}(),
	}
	Exec = &cli.StringFlag{
		Name:    "exec",
		Usage:   "Run the specified client program as a separate process detached from the host. Default is to serve a client over the inherited file descriptors.",
		EnvVars: prefixEnvVars("EXEC"),
	}
	Server = &cli.BoolFlag{
		Name:    "server",
		Usage:   "Run in pre-image server mode without executing any client program.",
		EnvVars: prefixEnvVars("SERVER"),
	}
	APIAddress = &cli.StringFlag{
		Name:    "api.address",
		Usage:   "Http debug API address (dehash/hint HTTP surface, in addition to the fd-pipe protocol).",
		EnvVars: prefixEnvVars("API_ADDRESS"),
	}
)

// Flags contains the list of configuration options available to the binary.
var Flags []cli.Flag

var requiredFlags = []cli.Flag{
	L1Head,
	L2Head,
	L2OutputRoot,
	L2Claim,
	L2BlockNumber,
}

var programFlags = []cli.Flag{
	RollupConfig,
	Network,
	L2GenesisPath,
	DataDir,
	L1NodeAddr,
	L1BeaconAddr,
	L2NodeAddr,
	L1TrustRPC,
	L1RPCProviderKind,
	Exec,
	Server,
	APIAddress,
}

func init() {
	Flags = append(Flags, oplog.CLIFlags(EnvVarPrefix)...)
	Flags = append(Flags, requiredFlags...)
	Flags = append(Flags, programFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, flag := range requiredFlags {
		if !ctx.IsSet(flag.Names()[0]) {
			return fmt.Errorf("flag %s is required", flag.Names()[0])
		}
	}
	if ctx.IsSet(RollupConfig.Name) == ctx.IsSet(Network.Name) {
		return fmt.Errorf("exactly one of %s or %s must be set", RollupConfig.Name, Network.Name)
	}
	return nil
}
