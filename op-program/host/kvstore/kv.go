package kvstore

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNotFound is returned by a KV implementation when no value has been
// stored under a key. It is never returned for malformed input: keys are
// expected to already be valid preimage keys by the time they reach a KV.
var ErrNotFound = errors.New("not found")

// ErrPutKeyExists is returned by Put when a write is attempted to a key
// that already holds a different value (writing the same value again is
// accepted): preimages are content-addressed and
// immutable once committed, so any collision indicates a caller bug or a
// key space collision rather than something safe to silently overwrite.
var ErrPutKeyExists = errors.New("put key exists")

// KV stores and retrieves preimages by their 32-byte preimage key.
type KV interface {
	// Put stores a value against a preimage key. Put must be safe to call
	// concurrently and must reject (but not panic on) an attempt to
	// overwrite an existing key with different content.
	Put(key common.Hash, value []byte) error

	// Get returns the value stored against key, or ErrNotFound.
	Get(key common.Hash) ([]byte, error)
}

// PreimageSource resolves a single preimage key to its value. It is the
// narrow view of a KV (or a KV fronted by a prefetcher) the preimage
// server's oracle channel needs.
type PreimageSource func(key common.Hash) ([]byte, error)
