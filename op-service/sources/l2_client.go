package sources

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ethereum-optimism/op-fault-host/op-node/rollup"
	"github.com/ethereum-optimism/op-fault-host/op-node/rollup/derive"
	"github.com/ethereum-optimism/op-fault-host/op-service/eth"
)

// L2Client fetches L2 execution chain data: blocks by hash (for the
// prefetcher's l2-block-header/l2-transactions hints), individual state
// trie and contract code entries by their content hash (l2-state-node,
// l2-code), and the per-block system config an L1 attributes deposit
// transaction carries (consumed by the derivation pipeline on reset).
type L2Client struct {
	rpc     RPC
	logger  log.Logger
	metrics Metrics

	blockCache           *lru.Cache[common.Hash, l2Block]
	nodeCache            *lru.Cache[common.Hash, []byte]
	codeCache            *lru.Cache[common.Hash, []byte]
	payloadByNumberCache *lru.Cache[uint64, *eth.ExecutionPayload]
}

type l2Block struct {
	info eth.BlockInfo
	txs  types.Transactions
}

func NewL2Client(client RPC, logger log.Logger, cacheSize int) (*L2Client, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	blockCache, err := lru.New[common.Hash, l2Block](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create L2 block cache: %w", err)
	}
	nodeCache, err := lru.New[common.Hash, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create L2 node cache: %w", err)
	}
	codeCache, err := lru.New[common.Hash, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create L2 code cache: %w", err)
	}
	payloadByNumberCache, err := lru.New[uint64, *eth.ExecutionPayload](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create L2 payload-by-number cache: %w", err)
	}
	return &L2Client{
		rpc:                  client,
		logger:               logger,
		metrics:              noopMetrics{},
		blockCache:           blockCache,
		nodeCache:            nodeCache,
		codeCache:            codeCache,
		payloadByNumberCache: payloadByNumberCache,
	}, nil
}

// WithMetrics swaps in a non-noop Metrics sink, mirroring L1Client's
// constructor-supplied metrics without adding another constructor parameter
// every call site of NewL2Client would otherwise need to thread through.
func (s *L2Client) WithMetrics(m Metrics) *L2Client {
	s.metrics = m
	return s
}

func (s *L2Client) InfoAndTxsByHash(ctx context.Context, blockHash common.Hash) (eth.BlockInfo, types.Transactions, error) {
	if v, ok := s.blockCache.Get(blockHash); ok {
		s.metrics.RecordCacheHit("l2_block")
		return v.info, v.txs, nil
	}
	s.metrics.RecordRPCCall("debug_getRawBlock")
	var raw hexutil.Bytes
	if err := s.rpc.CallContext(ctx, &raw, "debug_getRawBlock", blockHash); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch L2 block %s: %w", blockHash, err)
	}
	var block types.Block
	if err := rlp.DecodeBytes(raw, &block); err != nil {
		return nil, nil, fmt.Errorf("failed to decode L2 block %s: %w", blockHash, err)
	}
	info := eth.HeaderBlockInfo(block.Header())
	txs := block.Transactions()
	s.blockCache.Add(blockHash, l2Block{info: info, txs: txs})
	return info, txs, nil
}

// NodeByHash fetches a single state/storage trie node by its keccak256
// hash, using the node's raw key-value database rather than eth_getProof:
// the client only ever needs isolated trie nodes named by hash, not a
// Merkle proof against a particular account.
func (s *L2Client) NodeByHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	if v, ok := s.nodeCache.Get(hash); ok {
		s.metrics.RecordCacheHit("l2_node")
		return v, nil
	}
	s.metrics.RecordRPCCall("debug_dbGet")
	var raw hexutil.Bytes
	if err := s.rpc.CallContext(ctx, &raw, "debug_dbGet", hash.Hex()); err != nil {
		return nil, fmt.Errorf("failed to fetch state node %s: %w", hash, err)
	}
	s.nodeCache.Add(hash, raw)
	return raw, nil
}

// CodeByHash fetches contract bytecode by its keccak256 hash, stored in the
// same content-addressed key-value database as trie nodes.
func (s *L2Client) CodeByHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	if v, ok := s.codeCache.Get(hash); ok {
		s.metrics.RecordCacheHit("l2_code")
		return v, nil
	}
	s.metrics.RecordRPCCall("debug_dbGet")
	var raw hexutil.Bytes
	if err := s.rpc.CallContext(ctx, &raw, "debug_dbGet", hash.Hex()); err != nil {
		return nil, fmt.Errorf("failed to fetch code %s: %w", hash, err)
	}
	s.codeCache.Add(hash, raw)
	return raw, nil
}

// OutputByRoot fetches the preimage of an L2 output root (version byte,
// state root, withdrawal storage root, and latest block hash) given that
// state root, via the node's optimism_ namespace.
func (s *L2Client) OutputByRoot(ctx context.Context, root common.Hash) ([]byte, error) {
	var raw hexutil.Bytes
	if err := s.rpc.CallContext(ctx, &raw, "optimism_outputByStateRoot", root); err != nil {
		return nil, fmt.Errorf("failed to fetch output preimage for state root %s: %w", root, err)
	}
	return raw, nil
}

// SystemConfigByNumber fetches the L2 block at number and decodes its
// embedded L1 attributes deposit transaction (always transaction index 0)
// to recover the system config in effect at that height, used by the
// derivation pipeline during reset.
func (s *L2Client) SystemConfigByNumber(ctx context.Context, number uint64, cfg *rollup.Config) (eth.SystemConfig, error) {
	var raw hexutil.Bytes
	if err := s.rpc.CallContext(ctx, &raw, "debug_getRawBlock", hexutil.Uint64(number)); err != nil {
		return eth.SystemConfig{}, fmt.Errorf("failed to fetch L2 block %d: %w", number, err)
	}
	var block types.Block
	if err := rlp.DecodeBytes(raw, &block); err != nil {
		return eth.SystemConfig{}, fmt.Errorf("failed to decode L2 block %d: %w", number, err)
	}
	txs := block.Transactions()
	if len(txs) == 0 {
		return eth.SystemConfig{}, fmt.Errorf("L2 block %d has no L1 attributes transaction", number)
	}
	info, err := derive.L1BlockInfoFromBytes(txs[0].Data())
	if err != nil {
		return eth.SystemConfig{}, fmt.Errorf("failed to decode L1 attributes tx in block %d: %w", number, err)
	}
	return info.ToSystemConfig(block.GasLimit()), nil
}

// PayloadByNumber fetches the full L2 block at number and adapts it into
// an execution payload, caching the result since L2BlockInfoByNumber and
// direct callers may ask for the same recent block more than once.
func (s *L2Client) PayloadByNumber(ctx context.Context, number uint64) (*eth.ExecutionPayload, error) {
	if v, ok := s.payloadByNumberCache.Get(number); ok {
		s.metrics.RecordCacheHit("payload_by_number")
		return v, nil
	}
	s.metrics.RecordRPCCall("debug_getRawBlock")
	var raw hexutil.Bytes
	if err := s.rpc.CallContext(ctx, &raw, "debug_getRawBlock", hexutil.Uint64(number)); err != nil {
		return nil, fmt.Errorf("failed to fetch L2 block %d: %w", number, err)
	}
	var block types.Block
	if err := rlp.DecodeBytes(raw, &block); err != nil {
		return nil, fmt.Errorf("failed to decode L2 block %d: %w", number, err)
	}
	payload, err := blockToPayload(&block)
	if err != nil {
		return nil, fmt.Errorf("failed to adapt L2 block %d into a payload: %w", number, err)
	}
	s.payloadByNumberCache.Add(number, payload)
	return payload, nil
}

// L2BlockInfoByNumber fetches the payload at number and derives its
// compact block reference, decoding the embedded L1 attributes deposit
// transaction to recover the L1 origin and sequence number the derivation
// pipeline needs when walking the L2 chain forward.
func (s *L2Client) L2BlockInfoByNumber(ctx context.Context, number uint64) (eth.L2BlockRef, error) {
	payload, err := s.PayloadByNumber(ctx, number)
	if err != nil {
		return eth.L2BlockRef{}, err
	}
	return payload.ToBlockRef(func(data []byte) (common.Hash, uint64, uint64, error) {
		info, err := derive.L1BlockInfoFromBytes(data)
		if err != nil {
			return common.Hash{}, 0, 0, err
		}
		return info.BlockHash, info.Number, info.SequenceNumber, nil
	})
}

// blockToPayload adapts a decoded go-ethereum block into the wire shape
// the engine API (and this package's cache) keys execution payloads by.
func blockToPayload(block *types.Block) (*eth.ExecutionPayload, error) {
	txs, err := eth.EncodeTransactions(block.Transactions())
	if err != nil {
		return nil, err
	}
	header := block.Header()
	payload := &eth.ExecutionPayload{
		ParentHash:    header.ParentHash,
		FeeRecipient:  header.Coinbase,
		StateRoot:     eth.Bytes32(header.Root),
		ReceiptsRoot:  eth.Bytes32(header.ReceiptHash),
		LogsBloom:     header.Bloom,
		PrevRandao:    eth.Bytes32(header.MixDigest),
		BlockNumber:   hexutil.Uint64(header.Number.Uint64()),
		GasLimit:      hexutil.Uint64(header.GasLimit),
		GasUsed:       hexutil.Uint64(header.GasUsed),
		Timestamp:     hexutil.Uint64(header.Time),
		ExtraData:     header.Extra,
		BlockHash:     block.Hash(),
		Transactions:  txs,
	}
	if header.BaseFee != nil {
		payload.BaseFeePerGas = (*hexutil.Big)(header.BaseFee)
	}
	if withdrawals := block.Withdrawals(); withdrawals != nil {
		payload.Withdrawals = &withdrawals
	}
	return payload, nil
}
