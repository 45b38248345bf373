package preimage

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// KeyType distinguishes the digest scheme used to derive a preimage key
// from the type of data it identifies.
type KeyType byte

const (
	// Keccak256KeyType is the key type for a global keccak256 preimage,
	// where the preimage is the keccak256 hash of the value.
	Keccak256KeyType KeyType = 1
	// LocalKeyType is the key type for a local preimage, which is a piece
	// of data that is unique to the fault dispute game and only relevant
	// for the L2 block being disputed.
	LocalKeyType KeyType = 2
	// Sha256KeyType is the key type for a global sha256 preimage, where
	// the preimage is the sha256 hash of the value. Used for beacon-chain
	// blob sidecars.
	Sha256KeyType KeyType = 3
	// BlobKeyType is the key type for a blob field element, where the
	// digest is the keccak256 hash of the blob commitment followed by the
	// field element index as a 32-byte big-endian number.
	BlobKeyType KeyType = 4
	// PrecompileKeyType is the key type for a precompile result, keyed by
	// the keccak256 hash of the precompile calldata.
	PrecompileKeyType KeyType = 5
)

// Key is a 32-byte identifier for some preimage data: byte 0 is a key-type
// tag, bytes 1..32 are a (possibly truncated) digest of the data.
type Key interface {
	// PreimageKey changes the Key into a 32-byte type, by encoding the type
	// into the first byte, similar to the big-endian encoding of an
	// Ethereum right-aligned number, but with the most significant byte
	// in front, instead of at the end, to keep the data type in front.
	PreimageKey() [32]byte
}

// LocalIndexKey is a key for a local preimage, indexed by a small integer
// unique to the program. No cryptographic binding; the host trusts the
// value it was configured with.
type LocalIndexKey uint64

func (k LocalIndexKey) PreimageKey() (out [32]byte) {
	out[0] = byte(LocalKeyType)
	binary.BigEndian.PutUint64(out[24:], uint64(k))
	return
}

// Keccak256Key wraps a keccak256 hash to use it as a typed pre-image key.
type Keccak256Key common.Hash

func (k Keccak256Key) PreimageKey() (out [32]byte) {
	out = [32]byte(k)
	out[0] = byte(Keccak256KeyType)
	return
}

func (k Keccak256Key) Hash() common.Hash {
	return common.Hash(k)
}

func (k Keccak256Key) String() string {
	return common.Hash(k).String()
}

// Sha256Key wraps a sha256 hash to use it as a typed pre-image key.
type Sha256Key common.Hash

func (k Sha256Key) PreimageKey() (out [32]byte) {
	out = [32]byte(k)
	out[0] = byte(Sha256KeyType)
	return
}

func (k Sha256Key) Hash() common.Hash {
	return common.Hash(k)
}

// BlobKey wraps a keccak256 hash of (commitment ++ field-element-index) to
// use it as a typed pre-image key for a single KZG blob field element.
type BlobKey common.Hash

func (k BlobKey) PreimageKey() (out [32]byte) {
	out = [32]byte(k)
	out[0] = byte(BlobKeyType)
	return
}

// PrecompileKey wraps a keccak256 hash of the precompile calldata to use
// it as a typed pre-image key for an accelerated precompile input/output
// pair.
type PrecompileKey common.Hash

func (k PrecompileKey) PreimageKey() (out [32]byte) {
	out = [32]byte(k)
	out[0] = byte(PrecompileKeyType)
	return
}

// KZGPointEvaluationKey is the PrecompileKey for the KZG point evaluation
// precompile (0x0a), keyed by the keccak256 hash of the raw calldata.
func KZGPointEvaluationKey(inputHash common.Hash) PrecompileKey {
	return PrecompileKey(inputHash)
}

// TypeOf extracts the KeyType tag from an encoded 32-byte preimage key.
func TypeOf(key [32]byte) KeyType {
	return KeyType(key[0])
}
