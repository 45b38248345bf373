package prefetcher

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"golang.org/x/sync/singleflight"

	preimage "github.com/ethereum-optimism/op-fault-host/op-preimage"
	"github.com/ethereum-optimism/op-fault-host/op-program/client/l1"
	"github.com/ethereum-optimism/op-fault-host/op-program/client/mpt"
	"github.com/ethereum-optimism/op-fault-host/op-program/host/kvstore"
	"github.com/ethereum-optimism/op-fault-host/op-service/eth"
)

var (
	kzgPointEvaluationSuccess = [1]byte{1}
	kzgPointEvaluationFailure = [1]byte{0}
)

type L1Source interface {
	InfoByHash(ctx context.Context, blockHash common.Hash) (eth.BlockInfo, error)
	InfoAndTxsByHash(ctx context.Context, blockHash common.Hash) (eth.BlockInfo, types.Transactions, error)
	FetchReceipts(ctx context.Context, blockHash common.Hash) (eth.BlockInfo, types.Receipts, error)
	BlockInfoByNumber(ctx context.Context, number uint64) (eth.BlockInfo, error)
}

type L1BlobSource interface {
	GetBlobSidecars(ctx context.Context, ref eth.L1BlockRef, hashes []eth.IndexedBlobHash) ([]*eth.BlobSidecar, error)
	GetBlobs(ctx context.Context, ref eth.L1BlockRef, hashes []eth.IndexedBlobHash) ([]*eth.Blob, error)
}

// L2Source is the subset of L2 chain access the prefetcher needs to satisfy
// l2-* hints: the block itself, individual state trie / storage trie nodes
// and contract code by hash, and a finalized output root by its state root.
type L2Source interface {
	InfoAndTxsByHash(ctx context.Context, blockHash common.Hash) (eth.BlockInfo, types.Transactions, error)
	NodeByHash(ctx context.Context, hash common.Hash) ([]byte, error)
	CodeByHash(ctx context.Context, hash common.Hash) ([]byte, error)
	OutputByRoot(ctx context.Context, root common.Hash) ([]byte, error)
	PayloadByNumber(ctx context.Context, number uint64) (*eth.ExecutionPayload, error)
	L2BlockInfoByNumber(ctx context.Context, number uint64) (eth.L2BlockRef, error)
}

// Prefetcher turns a hint about data the client is about to need into a
// live RPC fetch, storing every byproduct of that fetch under its own
// content-addressed preimage key so a later oracle request for any of them
// is satisfied from the KV store rather than triggering another fetch.
type Prefetcher struct {
	logger        log.Logger
	l1Fetcher     L1Source
	l1BlobFetcher L1BlobSource
	l2Fetcher     L2Source
	lastHint      string
	kvStore       kvstore.KV
	fetching      singleflight.Group
}

func NewPrefetcher(logger log.Logger, l1Fetcher L1Source, l1BlobFetcher L1BlobSource, l2Fetcher L2Source, kvStore kvstore.KV) *Prefetcher {
	return &Prefetcher{
		logger:        logger,
		l1Fetcher:     NewRetryingL1Source(logger, l1Fetcher),
		l1BlobFetcher: NewRetryingL1BlobSource(logger, l1BlobFetcher),
		l2Fetcher:     NewRetryingL2Source(logger, l2Fetcher),
		kvStore:       kvStore,
	}
}

func (p *Prefetcher) Hint(hint string) error {
	p.logger.Trace("Received hint", "hint", hint)
	p.lastHint = hint
	return nil
}

func (p *Prefetcher) GetPreimage(ctx context.Context, key common.Hash) ([]byte, error) {
	p.logger.Trace("Pre-image requested", "key", key)
	pre, err := p.kvStore.Get(key)
	// Keep retrying the prefetch as long as the key is not found. This
	// handles the case where the prefetch downloads a preimage, but it is
	// then deleted unexpectedly before we get to read it.
	for errors.Is(err, kvstore.ErrNotFound) && p.lastHint != "" {
		hint := p.lastHint
		if err := p.prefetch(ctx, hint); err != nil {
			return nil, fmt.Errorf("prefetch failed: %w", err)
		}
		pre, err = p.kvStore.Get(key)
		if err != nil {
			p.logger.Error("Fetched pre-images for last hint but did not find required key", "hint", hint, "key", key)
		}
	}
	return pre, err
}

func (p *Prefetcher) prefetch(ctx context.Context, hint string) error {
	_, err, _ := p.fetching.Do(hint, func() (interface{}, error) {
		return nil, p.doFetch(ctx, hint)
	})
	return err
}

func (p *Prefetcher) doFetch(ctx context.Context, hint string) error {
	hintType, hintBytes, err := parseHint(hint)
	if err != nil {
		return err
	}
	p.logger.Debug("Prefetching", "type", hintType, "bytes", hexutil.Bytes(hintBytes))
	switch hintType {
	case l1.HintL1BlockHeader:
		return p.fetchL1BlockHeader(ctx, hintBytes)
	case l1.HintL1Transactions:
		return p.fetchL1Transactions(ctx, hintBytes)
	case l1.HintL1Receipts:
		return p.fetchL1Receipts(ctx, hintBytes)
	case l1.HintL1Blob:
		return p.fetchL1Blob(ctx, hintBytes)
	case l1.HintL1KZGPointEvaluation:
		return p.fetchPrecompileResult(hintBytes)
	case l1.HintL2BlockHeader, l1.HintL2Transactions:
		return p.fetchL2Block(ctx, hintBytes)
	case l1.HintL2Code:
		return p.fetchL2Code(ctx, hintBytes)
	case l1.HintL2StateNode:
		return p.fetchL2Node(ctx, hintBytes)
	case l1.HintL2Output:
		return p.fetchL2Output(ctx, hintBytes)
	}
	return fmt.Errorf("unknown hint type: %v", hintType)
}

func (p *Prefetcher) fetchL1BlockHeader(ctx context.Context, hintBytes []byte) error {
	if len(hintBytes) != 32 {
		return fmt.Errorf("invalid L1 block hint: %x", hintBytes)
	}
	hash := common.Hash(hintBytes)
	header, err := p.l1Fetcher.InfoByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to fetch L1 block %s header: %w", hash, err)
	}
	data, err := header.HeaderRLP()
	if err != nil {
		return fmt.Errorf("marshall header: %w", err)
	}
	return p.kvStore.Put(preimage.Keccak256Key(hash).PreimageKey(), data)
}

func (p *Prefetcher) fetchL1Transactions(ctx context.Context, hintBytes []byte) error {
	if len(hintBytes) != 32 {
		return fmt.Errorf("invalid L1 transactions hint: %x", hintBytes)
	}
	hash := common.Hash(hintBytes)
	_, txs, err := p.l1Fetcher.InfoAndTxsByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to fetch L1 block %s txs: %w", hash, err)
	}
	return p.storeTransactions(txs)
}

func (p *Prefetcher) fetchL1Receipts(ctx context.Context, hintBytes []byte) error {
	if len(hintBytes) != 32 {
		return fmt.Errorf("invalid L1 receipts hint: %x", hintBytes)
	}
	hash := common.Hash(hintBytes)
	_, receipts, err := p.l1Fetcher.FetchReceipts(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to fetch L1 block %s receipts: %w", hash, err)
	}
	return p.storeReceipts(receipts)
}

func (p *Prefetcher) fetchL1Blob(ctx context.Context, hintBytes []byte) error {
	if len(hintBytes) != 48 {
		return fmt.Errorf("invalid blob hint: %x", hintBytes)
	}

	blobVersionHash := common.Hash(hintBytes[:32])
	blobHashIndex := binary.BigEndian.Uint64(hintBytes[32:40])
	refTimestamp := binary.BigEndian.Uint64(hintBytes[40:48])

	indexedBlobHash := eth.IndexedBlobHash{
		Hash:  blobVersionHash,
		Index: blobHashIndex,
	}
	// GetBlobSidecars only uses the timestamp, which came in on the hint.
	sidecars, err := p.l1BlobFetcher.GetBlobSidecars(ctx, eth.L1BlockRef{Time: refTimestamp}, []eth.IndexedBlobHash{indexedBlobHash})
	if err != nil || len(sidecars) != 1 {
		return fmt.Errorf("failed to fetch blob sidecars for %s %d: %w", blobVersionHash, blobHashIndex, err)
	}
	sidecar := sidecars[0]

	if err = p.kvStore.Put(preimage.Sha256Key(blobVersionHash).PreimageKey(), sidecar.KZGCommitment[:]); err != nil {
		return err
	}

	// There should be 4096 field elements. The preimage oracle key for each
	// is the keccak256 hash of abi.encodePacked(commitment, uint256(i)).
	blobKey := make([]byte, 80)
	copy(blobKey[:48], sidecar.KZGCommitment[:])
	for i := 0; i < params.BlobTxFieldElementsPerBlob; i++ {
		binary.BigEndian.PutUint64(blobKey[72:], uint64(i))
		blobKeyHash := crypto.Keccak256Hash(blobKey)
		if err := p.kvStore.Put(preimage.Keccak256Key(blobKeyHash).PreimageKey(), blobKey); err != nil {
			return err
		}
		if err = p.kvStore.Put(preimage.BlobKey(blobKeyHash).PreimageKey(), sidecar.Blob[i<<5:(i+1)<<5]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Prefetcher) fetchPrecompileResult(hintBytes []byte) error {
	precompile := vm.PrecompiledContractsCancun[common.BytesToAddress([]byte{0x0a})]
	_, err := precompile.Run(hintBytes)
	var result [1]byte
	if err == nil {
		result = kzgPointEvaluationSuccess
	} else {
		result = kzgPointEvaluationFailure
	}
	inputHash := crypto.Keccak256Hash(hintBytes)
	if err := p.kvStore.Put(preimage.Keccak256Key(inputHash).PreimageKey(), hintBytes); err != nil {
		return err
	}
	return p.kvStore.Put(preimage.KZGPointEvaluationKey(inputHash).PreimageKey(), result[:])
}

func (p *Prefetcher) fetchL2Block(ctx context.Context, hintBytes []byte) error {
	if len(hintBytes) != 32 {
		return fmt.Errorf("invalid L2 block hint: %x", hintBytes)
	}
	hash := common.Hash(hintBytes)
	header, txs, err := p.l2Fetcher.InfoAndTxsByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to fetch L2 block %s: %w", hash, err)
	}
	data, err := header.HeaderRLP()
	if err != nil {
		return fmt.Errorf("marshall header: %w", err)
	}
	if err := p.kvStore.Put(preimage.Keccak256Key(hash).PreimageKey(), data); err != nil {
		return err
	}
	return p.storeTransactions(txs)
}

func (p *Prefetcher) fetchL2Code(ctx context.Context, hintBytes []byte) error {
	if len(hintBytes) != 32 {
		return fmt.Errorf("invalid L2 code hint: %x", hintBytes)
	}
	hash := common.Hash(hintBytes)
	code, err := p.l2Fetcher.CodeByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to fetch L2 code %s: %w", hash, err)
	}
	return p.kvStore.Put(preimage.Keccak256Key(hash).PreimageKey(), code)
}

func (p *Prefetcher) fetchL2Node(ctx context.Context, hintBytes []byte) error {
	if len(hintBytes) != 32 {
		return fmt.Errorf("invalid L2 state node hint: %x", hintBytes)
	}
	hash := common.Hash(hintBytes)
	node, err := p.l2Fetcher.NodeByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to fetch L2 state node %s: %w", hash, err)
	}
	return p.kvStore.Put(preimage.Keccak256Key(hash).PreimageKey(), node)
}

func (p *Prefetcher) fetchL2Output(ctx context.Context, hintBytes []byte) error {
	if len(hintBytes) != 32 {
		return fmt.Errorf("invalid L2 output hint: %x", hintBytes)
	}
	root := common.Hash(hintBytes)
	output, err := p.l2Fetcher.OutputByRoot(ctx, root)
	if err != nil {
		return fmt.Errorf("failed to fetch L2 output for state root %s: %w", root, err)
	}
	return p.kvStore.Put(preimage.Keccak256Key(root).PreimageKey(), output)
}

func (p *Prefetcher) storeReceipts(receipts types.Receipts) error {
	opaqueReceipts, err := eth.EncodeReceipts(receipts)
	if err != nil {
		return err
	}
	return p.storeTrieNodes(opaqueReceipts)
}

func (p *Prefetcher) storeTransactions(txs types.Transactions) error {
	opaqueTxs, err := eth.EncodeTransactions(txs)
	if err != nil {
		return err
	}
	return p.storeTrieNodes(opaqueTxs)
}

func (p *Prefetcher) storeTrieNodes(values []hexutil.Bytes) error {
	_, nodes := mpt.WriteTrie(values)
	for _, node := range nodes {
		key := preimage.Keccak256Key(crypto.Keccak256Hash(node)).PreimageKey()
		if err := p.kvStore.Put(key, node); err != nil {
			return fmt.Errorf("failed to store node: %w", err)
		}
	}
	return nil
}

// parseHint parses a hint string of the wire form "<type> <hex payload>".
func parseHint(hint string) (string, []byte, error) {
	hintType, bytesStr, found := strings.Cut(hint, " ")
	if !found {
		return "", nil, fmt.Errorf("unsupported hint: %s", hint)
	}

	hintBytes, err := hexutil.Decode(bytesStr)
	if err != nil {
		return "", make([]byte, 0), fmt.Errorf("invalid bytes: %s", bytesStr)
	}
	return hintType, hintBytes, nil
}
