package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	oplog "github.com/ethereum-optimism/op-fault-host/op-service/log"

	"github.com/ethereum-optimism/op-fault-host/op-program/host"
	"github.com/ethereum-optimism/op-fault-host/op-program/host/config"
	"github.com/ethereum-optimism/op-fault-host/op-program/host/flags"
)

var (
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = version(GitCommit, GitDate)
	app.Flags = flags.Flags
	app.Name = "op-program-host"
	app.Usage = "Fault proof host: mediates preimage requests from a fault-proof VM client against live L1/L2 chain data."
	app.Description = "Runs a two-pipe preimage oracle server, prefetching and caching the exact set of L1/L2 data the client asks hints for."
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func version(commit, date string) string {
	if commit == "" {
		return "dev"
	}
	if date == "" {
		return commit
	}
	return fmt.Sprintf("%s-%s", commit, date)
}

func run(ctx *cli.Context) error {
	logCfg := oplog.ReadCLIConfig(ctx)
	logger, err := oplog.NewLogger(os.Stderr, logCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	cfg, err := config.NewConfigFromCLI(logger, ctx)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := host.Main(logger, cfg); err != nil {
		logger.Error("program host failed", "err", err)
		return err
	}
	return nil
}
