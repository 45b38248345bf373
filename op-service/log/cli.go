package oplog

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

const (
	LevelFlagName  = "log.level"
	FormatFlagName = "log.format"
	ColorFlagName  = "log.color"
)

// CLIFlags returns the flags used to configure the standard structured
// logger, namespaced under the given binary prefix.
func CLIFlags(envPrefix string) []cli.Flag {
	prefixed := func(name string) []string { return []string{envPrefix + "_" + name} }
	return []cli.Flag{
		&cli.StringFlag{
			Name:    LevelFlagName,
			Usage:   "The lowest log level that will be output. Valid values: trace, debug, info, warn, error, crit",
			Value:   "info",
			EnvVars: prefixed("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    FormatFlagName,
			Usage:   "Format the log output. Valid values: text, terminal, json",
			Value:   "text",
			EnvVars: prefixed("LOG_FORMAT"),
		},
		&cli.BoolFlag{
			Name:    ColorFlagName,
			Usage:   "Color the log output if in terminal mode",
			EnvVars: prefixed("LOG_COLOR"),
		},
	}
}

// CLIConfig is the subset of values needed to construct a logger from CLI
// flags.
type CLIConfig struct {
	Level  string
	Format string
	Color  bool
}

func DefaultCLIConfig() CLIConfig {
	return CLIConfig{Level: "info", Format: "text"}
}

func ReadCLIConfig(ctx *cli.Context) CLIConfig {
	return CLIConfig{
		Level:  ctx.String(LevelFlagName),
		Format: ctx.String(FormatFlagName),
		Color:  ctx.Bool(ColorFlagName),
	}
}

// NewLogger builds a log.Logger writing to the given writer (typically
// os.Stderr) according to cfg.
func NewLogger(w *os.File, cfg CLIConfig) (log.Logger, error) {
	lvl, err := log.LvlFromString(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	var handler log.Handler
	switch cfg.Format {
	case "json":
		handler = log.StreamHandler(w, log.JSONFormat())
	default:
		handler = log.StreamHandler(w, log.TerminalFormat(cfg.Color))
	}
	logger := log.New()
	logger.SetHandler(log.LvlFilterHandler(lvl, handler))
	return logger, nil
}
