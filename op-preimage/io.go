package preimage

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// FileDescriptor identifies one of the four well-known pipe ends a
// fault-proof VM exposes to the client program, inherited from the host.
type FileDescriptor uintptr

const (
	StdIn          FileDescriptor = 0
	StdOut         FileDescriptor = 1
	StdErr         FileDescriptor = 2
	HintRead       FileDescriptor = 3
	HintWrite      FileDescriptor = 4
	PreimageRead   FileDescriptor = 5
	PreimageWrite  FileDescriptor = 6
)

// Client opens the file descriptor as an *os.File. The caller owns the
// returned file and must Close it.
func (f FileDescriptor) Client() *os.File {
	return os.NewFile(uintptr(f), f.String())
}

func (f FileDescriptor) String() string {
	switch f {
	case StdIn:
		return "stdin"
	case StdOut:
		return "stdout"
	case StdErr:
		return "stderr"
	case HintRead:
		return "hint-read"
	case HintWrite:
		return "hint-write"
	case PreimageRead:
		return "preimage-read"
	case PreimageWrite:
		return "preimage-write"
	default:
		return fmt.Sprintf("fd-%d", uint(f))
	}
}

// PipeHandle is a bidirectional channel backed by two unidirectional file
// descriptors: reads come from one fd, writes go to the other.
type PipeHandle struct {
	r *os.File
	w *os.File
}

func NewPipeHandle(r *os.File, w *os.File) *PipeHandle {
	return &PipeHandle{r: r, w: w}
}

func (p *PipeHandle) Read(data []byte) (int, error) {
	return p.r.Read(data)
}

func (p *PipeHandle) Write(data []byte) (int, error) {
	return p.w.Write(data)
}

func (p *PipeHandle) Close() error {
	rErr := p.r.Close()
	wErr := p.w.Close()
	if rErr != nil {
		return rErr
	}
	return wErr
}

// OracleClient reads preimage values over a key->length-prefixed-value
// wire protocol, for use by the client program.
type OracleClient struct {
	rw io.ReadWriter
}

func NewOracleClient(rw io.ReadWriter) *OracleClient {
	return &OracleClient{rw: rw}
}

func (o *OracleClient) Get(key Key) []byte {
	data, err := o.getOrErr(key)
	if err != nil {
		panic(fmt.Errorf("failed to get preimage for key %x: %w", key.PreimageKey(), err))
	}
	return data
}

func (o *OracleClient) getOrErr(key Key) ([]byte, error) {
	encKey := key.PreimageKey()
	if _, err := o.rw.Write(encKey[:]); err != nil {
		return nil, fmt.Errorf("failed to write key: %w", err)
	}
	var length [8]byte
	if _, err := io.ReadFull(o.rw, length[:]); err != nil {
		return nil, fmt.Errorf("failed to read length prefix: %w", err)
	}
	payloadLen := binary.BigEndian.Uint64(length[:])
	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(o.rw, payload); err != nil {
		return nil, fmt.Errorf("failed to read payload (length %d): %w", payloadLen, err)
	}
	return payload, nil
}

// PreimageGetter resolves a preimage key to its bytes, consulting the KV
// store and triggering a best-effort fetch if the host is online and the
// key is absent.
type PreimageGetter func(key [32]byte) ([]byte, error)

// OracleServer serves preimage requests: it reads a 32-byte key and
// responds with a big-endian u64 length followed by the raw value.
type OracleServer struct {
	rw io.ReadWriter
}

func NewOracleServer(rw io.ReadWriter) *OracleServer {
	return &OracleServer{rw: rw}
}

// NextPreimageRequest reads one 32-byte key, resolves it via getter, and
// writes the length-prefixed response. Returns an error if the key cannot
// be resolved (fatal to the current preimage read; the channel closes) or
// if I/O fails.
func (o *OracleServer) NextPreimageRequest(getter PreimageGetter) error {
	var key [32]byte
	if _, err := io.ReadFull(o.rw, key[:]); err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}
	value, err := getter(key)
	if err != nil {
		return fmt.Errorf("failed to get preimage for key %x: %w", key, err)
	}
	var length [8]byte
	binary.BigEndian.PutUint64(length[:], uint64(len(value)))
	if _, err := o.rw.Write(length[:]); err != nil {
		return fmt.Errorf("failed to write length prefix: %w", err)
	}
	if _, err := o.rw.Write(value); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}
