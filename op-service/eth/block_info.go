package eth

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

// BlockInfo is the minimal header data the derivation pipeline and the
// preimage fetcher need, decoupled from go-ethereum's full block/header
// types so that callers don't need a EVM-side chain context to use it.
type BlockInfo interface {
	Hash() common.Hash
	ParentHash() common.Hash
	NumberU64() uint64
	Time() uint64
	// HeaderRLP returns the RLP encoding of the full header, i.e. the exact
	// bytes a Keccak256Key preimage for this block header must hash to.
	HeaderRLP() ([]byte, error)
}

type headerBlockInfo struct {
	types.Header
}

func (h headerBlockInfo) Hash() common.Hash       { return h.Header.Hash() }
func (h headerBlockInfo) ParentHash() common.Hash { return h.Header.ParentHash }
func (h headerBlockInfo) NumberU64() uint64       { return h.Header.Number.Uint64() }
func (h headerBlockInfo) Time() uint64            { return h.Header.Time }

func (h headerBlockInfo) HeaderRLP() ([]byte, error) {
	return rlp.EncodeToBytes(h.Header)
}

// HeaderBlockInfo adapts a go-ethereum header into the BlockInfo interface.
func HeaderBlockInfo(header *types.Header) BlockInfo {
	return headerBlockInfo{Header: *header}
}

// L1BlockRef is a compact reference to an L1 block: hash, number, parent
// hash and timestamp - exactly the fields BlockInfo above exposes, kept as
// a concrete value type for cheap copying through channels and caches.
type L1BlockRef struct {
	Hash       common.Hash `json:"hash"`
	Number     uint64      `json:"number"`
	ParentHash common.Hash `json:"parentHash"`
	Time       uint64      `json:"timestamp"`
}

func InfoToL1BlockRef(info BlockInfo) L1BlockRef {
	return L1BlockRef{
		Hash:       info.Hash(),
		Number:     info.NumberU64(),
		ParentHash: info.ParentHash(),
		Time:       info.Time(),
	}
}

// L2BlockRef is the L2 analog of L1BlockRef, plus the L1 origin the L2
// block was derived from and the sequence number within that origin.
type L2BlockRef struct {
	Hash           common.Hash `json:"hash"`
	Number         uint64      `json:"number"`
	ParentHash     common.Hash `json:"parentHash"`
	Time           uint64      `json:"timestamp"`
	L1Origin       BlockID     `json:"l1origin"`
	SequenceNumber uint64      `json:"sequenceNumber"`
}

// BlockID is a block hash/number pair, used to identify the L1 origin of
// an L2 block without carrying the full ref.
type BlockID struct {
	Hash   common.Hash `json:"hash"`
	Number uint64      `json:"number"`
}

// Bytes32 is a fixed-size byte array used for L2 output roots and similar
// 32-byte commitments that are not themselves hashes of anything.
type Bytes32 [32]byte
