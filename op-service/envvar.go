package opservice

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

// PrefixEnvVar adds a prefix to the environment variable name, which
// matches the pattern used for CLI flag bindings. The prefix should
// typically be a short name for the binary, e.g. "OP_PROGRAM".
func PrefixEnvVar(prefix, name string) []string {
	return []string{prefix + "_" + name}
}

// ValidateEnvVars logs a warning for every process env var that carries
// the given prefix but does not correspond to any known flag, to catch
// typos in deployment configuration.
func ValidateEnvVars(prefix string, flags []cli.Flag, logger log.Logger) {
	known := make(map[string]struct{})
	for _, flag := range flags {
		for _, envVar := range flag.Names() {
			known[envVar] = struct{}{}
		}
		if e, ok := flag.(cli.DocGenerationFlag); ok {
			for _, envVar := range e.GetEnvVars() {
				known[envVar] = struct{}{}
			}
		}
	}
	for _, kv := range os.Environ() {
		name := strings.SplitN(kv, "=", 2)[0]
		if !strings.HasPrefix(name, prefix+"_") {
			continue
		}
		if _, ok := known[name]; ok {
			continue
		}
		logger.Warn(fmt.Sprintf("Unknown env var with expected prefix %s", prefix), "name", name)
	}
}
