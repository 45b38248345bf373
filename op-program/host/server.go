package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	preimage "github.com/ethereum-optimism/op-fault-host/op-preimage"
	"github.com/ethereum-optimism/op-fault-host/op-program/host/config"
	"github.com/ethereum-optimism/op-fault-host/op-program/host/kvstore"
)

// RunInheritedMode serves the hint and preimage channels over the four
// well-known inherited file descriptors (HintRead/HintWrite/PreimageRead/
// PreimageWrite): the mode a fault-proof VM uses when it execs the host
// directly as its companion process, sharing pipe fds across the exec.
func RunInheritedMode(ctx context.Context, logger log.Logger, cfg *config.Config, preimageGetter kvstore.PreimageSource, hintHandler preimage.HintHandler) error {
	hintReader := preimage.HintRead.Client()
	hintWriter := preimage.HintWrite.Client()
	preimageReader := preimage.PreimageRead.Client()
	preimageWriter := preimage.PreimageWrite.Client()
	defer hintReader.Close()
	defer hintWriter.Close()
	defer preimageReader.Close()
	defer preimageWriter.Close()

	hintChannel := preimage.NewPipeHandle(hintReader, hintWriter)
	preimageChannel := preimage.NewPipeHandle(preimageReader, preimageWriter)

	return serve(ctx, logger, cfg, hintChannel, preimageChannel, preimageGetter, hintHandler)
}

// RunNativeMode spawns cfg.ExecCmd as a detached child process with the
// four channel fds mapped onto its ExtraFiles, then serves those same
// channels from the host side of each pipe: the host controls both pipe
// lifetimes and the child's exit status becomes a fatal IPC error if it
// happens before the channels are drained cleanly.
func RunNativeMode(ctx context.Context, logger log.Logger, cfg *config.Config, preimageGetter kvstore.PreimageSource, hintHandler preimage.HintHandler) error {
	hintClientRead, hintHostWrite, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create hint pipe: %w", err)
	}
	hintHostRead, hintClientWrite, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create hint pipe: %w", err)
	}
	preimageClientRead, preimageHostWrite, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create preimage pipe: %w", err)
	}
	preimageHostRead, preimageClientWrite, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to create preimage pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, cfg.ExecCmd)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	// ExtraFiles are mapped starting at fd 3, matching the well-known
	// HintRead/HintWrite/PreimageRead/PreimageWrite order.
	cmd.ExtraFiles = []*os.File{hintClientRead, hintClientWrite, preimageClientRead, preimageClientWrite}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start client program %s: %w", cfg.ExecCmd, err)
	}
	// The host no longer needs the client's ends of the pipes once the
	// child has inherited them.
	hintClientRead.Close()
	hintClientWrite.Close()
	preimageClientRead.Close()
	preimageClientWrite.Close()

	hintChannel := preimage.NewPipeHandle(hintHostRead, hintHostWrite)
	preimageChannel := preimage.NewPipeHandle(preimageHostRead, preimageHostWrite)

	childDone := make(chan error, 1)
	go func() { childDone <- cmd.Wait() }()

	serveErr := make(chan error, 1)
	go func() { serveErr <- serve(ctx, logger, cfg, hintChannel, preimageChannel, preimageGetter, hintHandler) }()

	select {
	case err := <-serveErr:
		// serve has already closed both channels by the time it returns.
		childErr := <-childDone
		return multierror.Append(nil, err, childErr).ErrorOrNil()
	case err := <-childDone:
		closeErr := closeChannels(hintChannel, preimageChannel)
		exitErr := fmt.Errorf("client program %s exited before IPC completed", cfg.ExecCmd)
		return multierror.Append(nil, exitErr, err, closeErr).ErrorOrNil()
	}
}

// closeChannels closes both pipe handles and combines any failures: a
// single failing Close() must not mask the other, since each guards a
// distinct OS pipe pair.
func closeChannels(hintChannel, preimageChannel *preimage.PipeHandle) error {
	var result *multierror.Error
	result = multierror.Append(result, hintChannel.Close())
	result = multierror.Append(result, preimageChannel.Close())
	return result.ErrorOrNil()
}

// serve reads hints and preimage requests from the provided channels and
// processes those requests, recovering from any panic in either loop the
// same way a production host must survive a malformed or adversarial
// client: by reporting it as an ordinary error rather than crashing the
// host process. It blocks until both loops complete; if either fails, the
// other channel is closed to unblock it.
func serve(
	ctx context.Context,
	logger log.Logger,
	cfg *config.Config,
	hintChannel io.ReadWriteCloser,
	preimageChannel io.ReadWriteCloser,
	preimageGetter kvstore.PreimageSource,
	hintHandler preimage.HintHandler,
) (err error) {
	logger.Info("Starting preimage server")
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in preimage server: %v", r)
		}
	}()

	hintReader := preimage.NewHintReader(hintChannel)
	oracleServer := preimage.NewOracleServer(preimageChannel)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		defer preimageChannel.Close()
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in preimage server: %v", r)
			}
			if err != nil {
				_ = hintChannel.Close()
			}
		}()
		for {
			if egCtx.Err() != nil {
				return egCtx.Err()
			}
			if err := oracleServer.NextPreimageRequest(func(key [32]byte) ([]byte, error) {
				return preimageGetter(common.Hash(key))
			}); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return fmt.Errorf("failed to serve preimage request: %w", err)
			}
		}
	})
	eg.Go(func() (err error) {
		defer hintChannel.Close()
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in preimage server: %v", r)
			}
			if err != nil {
				_ = preimageChannel.Close()
			}
		}()
		for {
			if egCtx.Err() != nil {
				return egCtx.Err()
			}
			routeErr, err := hintReader.NextHint(hintHandler)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return fmt.Errorf("failed to read hint: %w", err)
			}
			if routeErr != nil {
				logger.Warn("failed to process hint", "err", routeErr)
			}
		}
	})

	if cfg.APIAddress != "" {
		go httpServer(logger, cfg.APIAddress, preimageGetter, hintHandler)
	}

	return eg.Wait()
}

// httpServer exposes the same preimage/hint operations over a plain HTTP
// debug surface, independent of the fd-pipe protocol above: convenient for
// poking a running host by hand without a VM driving the real channels.
func httpServer(
	logger log.Logger,
	hostPort string,
	preimageSource kvstore.PreimageSource,
	hintHandler preimage.HintHandler,
) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dehash/", func(w http.ResponseWriter, req *http.Request) {
		keyStr := req.URL.Path[len("/dehash/"):]
		var key common.Hash
		if err := key.UnmarshalText([]byte(keyStr)); err != nil {
			logger.Error("failed to decode key from hex", "key", keyStr, "err", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		val, err := preimageSource(key)
		if err != nil {
			logger.Error("failed to get preimage value for key", "key", keyStr, "err", err)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Add("Content-type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		if _, err = w.Write(val); err != nil {
			logger.Error("failed to write preimage value to http response", "err", err)
		}
	})

	mux.HandleFunc("/hint/", func(w http.ResponseWriter, req *http.Request) {
		hint := req.URL.Path[len("/hint/"):]
		if err := hintHandler(hint); err != nil {
			logger.Error("failed to process hint", "hint", hint, "err", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Add("Content-type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if err := http.ListenAndServe(hostPort, mux); err != nil {
		logger.Error("http debug server exited", "err", err)
	}
}
