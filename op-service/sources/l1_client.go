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

	"github.com/ethereum-optimism/op-fault-host/op-service/eth"
)

// defaultCacheSize matches the single-block-at-a-time access pattern of the
// fault proof program: one L1 head plus a short lookback is ever live at
// once, so a handful of cached entries is enough to avoid re-fetching the
// same block when several hints reference it.
const defaultCacheSize = 16

// L1ClientConfig holds the settings of an L1Client. Only CacheSize affects
// its behaviour: TrustRPC and RPCProviderKind are stored but not read, so
// header hashes are always verified and receipts always come from
// debug_getRawReceipts.
type L1ClientConfig struct {
	TrustRPC    bool
	RPCProviderKind RPCProviderKind
	CacheSize   int
}

func L1ClientDefaultConfig(trustRPC bool, kind RPCProviderKind) L1ClientConfig {
	return L1ClientConfig{
		TrustRPC:        trustRPC,
		RPCProviderKind: kind,
		CacheSize:       defaultCacheSize,
	}
}

// L1Client fetches L1 chain data over JSON-RPC using the debug_getRawX
// methods that return pre-encoded RLP, so the client never needs the node
// to support standard eth_ shapes beyond what debug_ exposes, and LRU-caches
// every response it decodes so repeat hints for the same block never
// trigger a second round trip.
type L1Client struct {
	rpc     RPC
	logger  log.Logger
	cfg     L1ClientConfig
	metrics Metrics

	headerCache            *lru.Cache[common.Hash, eth.BlockInfo]
	receiptsCache          *lru.Cache[common.Hash, types.Receipts]
	txsCache               *lru.Cache[common.Hash, types.Transactions]
	blockInfoByNumberCache *lru.Cache[uint64, eth.BlockInfo]
}

func NewL1Client(client RPC, logger log.Logger, metrics Metrics, cfg L1ClientConfig) (*L1Client, error) {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	headerCache, err := lru.New[common.Hash, eth.BlockInfo](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create header cache: %w", err)
	}
	receiptsCache, err := lru.New[common.Hash, types.Receipts](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create receipts cache: %w", err)
	}
	txsCache, err := lru.New[common.Hash, types.Transactions](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactions cache: %w", err)
	}
	blockInfoByNumberCache, err := lru.New[uint64, eth.BlockInfo](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create block-info-by-number cache: %w", err)
	}
	return &L1Client{
		rpc:                    client,
		logger:                 logger,
		cfg:                    cfg,
		metrics:                metrics,
		headerCache:            headerCache,
		receiptsCache:          receiptsCache,
		txsCache:               txsCache,
		blockInfoByNumberCache: blockInfoByNumberCache,
	}, nil
}

func (s *L1Client) InfoByHash(ctx context.Context, blockHash common.Hash) (eth.BlockInfo, error) {
	if v, ok := s.headerCache.Get(blockHash); ok {
		s.metrics.RecordCacheHit("header")
		return v, nil
	}
	s.metrics.RecordRPCCall("debug_getRawHeader")
	var raw hexutil.Bytes
	if err := s.rpc.CallContext(ctx, &raw, "debug_getRawHeader", blockHash); err != nil {
		return nil, fmt.Errorf("failed to fetch header %s: %w", blockHash, err)
	}
	var header types.Header
	if err := rlp.DecodeBytes(raw, &header); err != nil {
		return nil, fmt.Errorf("failed to decode header %s: %w", blockHash, err)
	}
	if header.Hash() != blockHash {
		return nil, fmt.Errorf("header hash mismatch for %s, got %s", blockHash, header.Hash())
	}
	info := eth.HeaderBlockInfo(&header)
	s.headerCache.Add(blockHash, info)
	return info, nil
}

func (s *L1Client) InfoAndTxsByHash(ctx context.Context, blockHash common.Hash) (eth.BlockInfo, types.Transactions, error) {
	info, err := s.InfoByHash(ctx, blockHash)
	if err != nil {
		return nil, nil, err
	}
	if v, ok := s.txsCache.Get(blockHash); ok {
		s.metrics.RecordCacheHit("transactions")
		return info, v, nil
	}
	s.metrics.RecordRPCCall("debug_getRawBlock")
	var raw hexutil.Bytes
	if err := s.rpc.CallContext(ctx, &raw, "debug_getRawBlock", blockHash); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch block body %s: %w", blockHash, err)
	}
	var block types.Block
	if err := rlp.DecodeBytes(raw, &block); err != nil {
		return nil, nil, fmt.Errorf("failed to decode block body %s: %w", blockHash, err)
	}
	txs := block.Transactions()
	s.txsCache.Add(blockHash, txs)
	return info, txs, nil
}

func (s *L1Client) FetchReceipts(ctx context.Context, blockHash common.Hash) (eth.BlockInfo, types.Receipts, error) {
	info, err := s.InfoByHash(ctx, blockHash)
	if err != nil {
		return nil, nil, err
	}
	if v, ok := s.receiptsCache.Get(blockHash); ok {
		s.metrics.RecordCacheHit("receipts")
		return info, v, nil
	}
	s.metrics.RecordRPCCall("debug_getRawReceipts")
	var raws []hexutil.Bytes
	if err := s.rpc.CallContext(ctx, &raws, "debug_getRawReceipts", blockHash); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch receipts %s: %w", blockHash, err)
	}
	receipts := make(types.Receipts, len(raws))
	for i, raw := range raws {
		r, err := eth.DecodeRawReceipt(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode receipt %d of block %s: %w", i, blockHash, err)
		}
		receipts[i] = r
	}
	s.receiptsCache.Add(blockHash, receipts)
	return info, receipts, nil
}

// BlockInfoByNumber fetches the L1 header at a given height, cached
// separately from InfoByHash's by-hash cache since the two are keyed
// differently and serve different callers (number-indexed L1 traversal
// versus hash-indexed hint lookups).
func (s *L1Client) BlockInfoByNumber(ctx context.Context, number uint64) (eth.BlockInfo, error) {
	if v, ok := s.blockInfoByNumberCache.Get(number); ok {
		s.metrics.RecordCacheHit("block_info_by_number")
		return v, nil
	}
	s.metrics.RecordRPCCall("debug_getRawHeader")
	var raw hexutil.Bytes
	if err := s.rpc.CallContext(ctx, &raw, "debug_getRawHeader", hexutil.Uint64(number)); err != nil {
		return nil, fmt.Errorf("failed to fetch header at block %d: %w", number, err)
	}
	var header types.Header
	if err := rlp.DecodeBytes(raw, &header); err != nil {
		return nil, fmt.Errorf("failed to decode header at block %d: %w", number, err)
	}
	if header.Number.Uint64() != number {
		return nil, fmt.Errorf("header number mismatch at %d, got %d", number, header.Number.Uint64())
	}
	info := eth.HeaderBlockInfo(&header)
	s.blockInfoByNumberCache.Add(number, info)
	return info, nil
}
