package eth

import (
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// BlobCommitmentVersionKZG is the version byte that replaces the first
// byte of the sha256 hash of a blob's KZG commitment to form its versioned
// hash, per EIP-4844.
const BlobCommitmentVersionKZG byte = 0x01

func kzgToVersionedHash(c KZGCommitment) (h common.Hash) {
	sum := sha256.Sum256(c[:])
	h = common.Hash(sum)
	h[0] = BlobCommitmentVersionKZG
	return h
}

// IndexedBlobHash identifies one blob within an L1 transaction's blob
// versioned-hash list by its position (index) in that list.
type IndexedBlobHash struct {
	Index uint64
	Hash  common.Hash
	// Time is the timestamp of the L1 block the blob is rooted at; beacon
	// APIs address blob sidecars by slot, which is derived from timestamp.
	Time uint64
}

// Blob is the full, flattened field-element data of a single KZG blob.
type Blob [params.BlobTxFieldElementsPerBlob * 32]byte

// KZGCommitment is the degree-proof commitment covering a Blob's data.
type KZGCommitment [48]byte

// KZGProof is the inclusion proof accompanying a BlobSidecar.
type KZGProof [48]byte

// BlobSidecar bundles a blob with its commitment and proof, as returned by
// a beacon node's blob sidecar API.
type BlobSidecar struct {
	Index         uint64
	Blob          Blob
	KZGCommitment KZGCommitment
	KZGProof      KZGProof
}

// VersionedHash is the sha256-derived, version-prefixed commitment hash
// referenced by an L1 transaction's blob versioned-hash list.
func (c KZGCommitment) VersionedHash() common.Hash {
	return common.Hash(kzgToVersionedHash(c))
}
