package preimage

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// pipeRW pairs two io.Pipe() halves into a single io.ReadWriter so a
// HintWriter and HintReader can talk to each other without real OS pipes.
type pipeRW struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p pipeRW) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipeRW) Write(b []byte) (int, error) { return p.w.Write(b) }

func newLoopback() (writerSide, readerSide pipeRW) {
	hintR, hintW := io.Pipe()
	ackR, ackW := io.Pipe()
	return pipeRW{r: ackR, w: hintW}, pipeRW{r: hintR, w: ackW}
}

func TestHint_RoundTrip(t *testing.T) {
	writerSide, readerSide := newLoopback()
	writer := NewHintWriter(writerSide)
	reader := NewHintReader(readerSide)

	var got string
	done := make(chan error, 1)
	go func() {
		routeErr, err := reader.NextHint(func(hint string) error {
			got = hint
			return nil
		})
		if err != nil {
			done <- err
			return
		}
		done <- routeErr
	}()

	require.NoError(t, writer.Hint(Hint("l1-block-header 0x1234")))
	require.NoError(t, <-done)
	require.Equal(t, "l1-block-header 0x1234", got)
}

var errUnknownHint = errors.New("unknown hint type")

func TestHint_HandlerErrorDoesNotCloseChannel(t *testing.T) {
	writerSide, readerSide := newLoopback()
	writer := NewHintWriter(writerSide)
	reader := NewHintReader(readerSide)

	type result struct {
		routeErr error
		err      error
	}
	done := make(chan result, 1)
	go func() {
		routeErr, err := reader.NextHint(func(hint string) error {
			return errUnknownHint
		})
		done <- result{routeErr, err}
	}()

	require.NoError(t, writer.Hint(Hint("unknown-type 0xff")))
	res := <-done
	require.NoError(t, res.err)
	require.ErrorIs(t, res.routeErr, errUnknownHint)

	// The ack was still sent despite the handler failing, so the channel
	// stays usable for the next hint.
	done2 := make(chan result, 1)
	go func() {
		routeErr, err := reader.NextHint(func(hint string) error { return nil })
		done2 <- result{routeErr, err}
	}()
	require.NoError(t, writer.Hint(Hint("l1-receipts 0xab")))
	res2 := <-done2
	require.NoError(t, res2.err)
	require.NoError(t, res2.routeErr)
}
