package preimage

import (
	"encoding/binary"
	"fmt"
	"io"
)

// HintHandler is called on every hint frame received over the hint channel.
// It may trigger prefetching; it never returns data directly.
type HintHandler func(hint string) error

// Hint is an opaque advisory string of the form "<type> <hex-payload>".
type Hint string

// HintWriter writes hint frames: a big-endian u32 length followed by the
// UTF-8 hint bytes, then blocks for the single ack byte.
type HintWriter struct {
	rw io.ReadWriter
}

func NewHintWriter(rw io.ReadWriter) *HintWriter {
	return &HintWriter{rw: rw}
}

func (hw *HintWriter) Hint(v Hint) error {
	hint := string(v)
	data := make([]byte, 4+len(hint))
	binary.BigEndian.PutUint32(data[:4], uint32(len(hint)))
	copy(data[4:], hint)
	if _, err := hw.rw.Write(data); err != nil {
		return fmt.Errorf("failed to write hint: %w", err)
	}
	var ack [1]byte
	if _, err := io.ReadFull(hw.rw, ack[:]); err != nil {
		return fmt.Errorf("failed to read hint ack: %w", err)
	}
	return nil
}

// HintReader reads hint frames from its read side and acks on the write
// side after the handler has run to completion (successfully or not -
// the hint channel never surfaces hint errors to the client, per the
// vocabulary being advisory-only).
type HintReader struct {
	rw io.ReadWriter
}

func NewHintReader(rw io.ReadWriter) *HintReader {
	return &HintReader{rw: rw}
}

// NextHint reads one frame, invokes router, and writes back the ack byte.
// The returned routeErr is non-nil when router failed; it is never an I/O
// failure (those are returned as err) and the ack is sent regardless, since
// hints are advisory and a failed hint never closes the channel.
func (hr *HintReader) NextHint(router HintHandler) (routeErr error, err error) {
	var length [4]byte
	if _, err := io.ReadFull(hr.rw, length[:]); err != nil {
		return nil, fmt.Errorf("failed to read hint length prefix: %w", err)
	}
	hintLength := binary.BigEndian.Uint32(length[:])
	payload := make([]byte, hintLength)
	if _, err := io.ReadFull(hr.rw, payload); err != nil {
		return nil, fmt.Errorf("failed to read hint payload (length %d): %w", hintLength, err)
	}
	routeErr = router(string(payload))
	if _, err := hr.rw.Write([]byte{0}); err != nil {
		return routeErr, fmt.Errorf("failed to write hint ack: %w", err)
	}
	return routeErr, nil
}
