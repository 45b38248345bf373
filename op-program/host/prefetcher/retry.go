package prefetcher

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/time/rate"

	"github.com/ethereum-optimism/op-fault-host/op-service/eth"
)

const (
	retryAttempts = 10
	retryBaseWait = 200 * time.Millisecond
	retryMaxWait  = 5 * time.Second
)

// retry runs fn up to retryAttempts times, sleeping an exponentially
// growing backoff (capped at retryMaxWait) between attempts. A live RPC
// endpoint can drop a request under load; the host has no deterministic
// fallback, so it just tries again rather than failing the whole prefetch.
func retry[T any](ctx context.Context, logger log.Logger, op string, fn func() (T, error)) (T, error) {
	limiter := rate.NewLimiter(rate.Every(retryBaseWait), 1)
	var zero T
	var err error
	wait := retryBaseWait
	for i := 0; i < retryAttempts; i++ {
		if i > 0 {
			if werr := limiter.WaitN(ctx, 1); werr != nil {
				return zero, werr
			}
			time.Sleep(wait)
			wait *= 2
			if wait > retryMaxWait {
				wait = retryMaxWait
			}
		}
		var v T
		v, err = fn()
		if err == nil {
			return v, nil
		}
		logger.Warn("retrying after failed fetch", "op", op, "attempt", i, "err", err)
	}
	return zero, err
}

type retryingL1Source struct {
	logger log.Logger
	inner  L1Source
}

// NewRetryingL1Source wraps an L1Source so every call retries transient RPC
// failures with backoff instead of surfacing a single flaky response as a
// fatal prefetch error.
func NewRetryingL1Source(logger log.Logger, inner L1Source) L1Source {
	return &retryingL1Source{logger: logger, inner: inner}
}

func (r *retryingL1Source) InfoByHash(ctx context.Context, blockHash common.Hash) (eth.BlockInfo, error) {
	return retry(ctx, r.logger, "l1.InfoByHash", func() (eth.BlockInfo, error) {
		return r.inner.InfoByHash(ctx, blockHash)
	})
}

func (r *retryingL1Source) InfoAndTxsByHash(ctx context.Context, blockHash common.Hash) (eth.BlockInfo, types.Transactions, error) {
	type result struct {
		info eth.BlockInfo
		txs  types.Transactions
	}
	res, err := retry(ctx, r.logger, "l1.InfoAndTxsByHash", func() (result, error) {
		info, txs, err := r.inner.InfoAndTxsByHash(ctx, blockHash)
		return result{info, txs}, err
	})
	return res.info, res.txs, err
}

func (r *retryingL1Source) FetchReceipts(ctx context.Context, blockHash common.Hash) (eth.BlockInfo, types.Receipts, error) {
	type result struct {
		info     eth.BlockInfo
		receipts types.Receipts
	}
	res, err := retry(ctx, r.logger, "l1.FetchReceipts", func() (result, error) {
		info, receipts, err := r.inner.FetchReceipts(ctx, blockHash)
		return result{info, receipts}, err
	})
	return res.info, res.receipts, err
}

func (r *retryingL1Source) BlockInfoByNumber(ctx context.Context, number uint64) (eth.BlockInfo, error) {
	return retry(ctx, r.logger, "l1.BlockInfoByNumber", func() (eth.BlockInfo, error) {
		return r.inner.BlockInfoByNumber(ctx, number)
	})
}

type retryingL1BlobSource struct {
	logger log.Logger
	inner  L1BlobSource
}

// NewRetryingL1BlobSource wraps an L1BlobSource with the same backoff retry
// behavior as NewRetryingL1Source.
func NewRetryingL1BlobSource(logger log.Logger, inner L1BlobSource) L1BlobSource {
	return &retryingL1BlobSource{logger: logger, inner: inner}
}

func (r *retryingL1BlobSource) GetBlobSidecars(ctx context.Context, ref eth.L1BlockRef, hashes []eth.IndexedBlobHash) ([]*eth.BlobSidecar, error) {
	return retry(ctx, r.logger, "l1.GetBlobSidecars", func() ([]*eth.BlobSidecar, error) {
		return r.inner.GetBlobSidecars(ctx, ref, hashes)
	})
}

func (r *retryingL1BlobSource) GetBlobs(ctx context.Context, ref eth.L1BlockRef, hashes []eth.IndexedBlobHash) ([]*eth.Blob, error) {
	return retry(ctx, r.logger, "l1.GetBlobs", func() ([]*eth.Blob, error) {
		return r.inner.GetBlobs(ctx, ref, hashes)
	})
}

type retryingL2Source struct {
	logger log.Logger
	inner  L2Source
}

// NewRetryingL2Source wraps an L2Source with the same backoff retry
// behavior as NewRetryingL1Source.
func NewRetryingL2Source(logger log.Logger, inner L2Source) L2Source {
	return &retryingL2Source{logger: logger, inner: inner}
}

func (r *retryingL2Source) InfoAndTxsByHash(ctx context.Context, blockHash common.Hash) (eth.BlockInfo, types.Transactions, error) {
	type result struct {
		info eth.BlockInfo
		txs  types.Transactions
	}
	res, err := retry(ctx, r.logger, "l2.InfoAndTxsByHash", func() (result, error) {
		info, txs, err := r.inner.InfoAndTxsByHash(ctx, blockHash)
		return result{info, txs}, err
	})
	return res.info, res.txs, err
}

func (r *retryingL2Source) NodeByHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	return retry(ctx, r.logger, "l2.NodeByHash", func() ([]byte, error) {
		return r.inner.NodeByHash(ctx, hash)
	})
}

func (r *retryingL2Source) CodeByHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	return retry(ctx, r.logger, "l2.CodeByHash", func() ([]byte, error) {
		return r.inner.CodeByHash(ctx, hash)
	})
}

func (r *retryingL2Source) OutputByRoot(ctx context.Context, root common.Hash) ([]byte, error) {
	return retry(ctx, r.logger, "l2.OutputByRoot", func() ([]byte, error) {
		return r.inner.OutputByRoot(ctx, root)
	})
}

func (r *retryingL2Source) PayloadByNumber(ctx context.Context, number uint64) (*eth.ExecutionPayload, error) {
	return retry(ctx, r.logger, "l2.PayloadByNumber", func() (*eth.ExecutionPayload, error) {
		return r.inner.PayloadByNumber(ctx, number)
	})
}

func (r *retryingL2Source) L2BlockInfoByNumber(ctx context.Context, number uint64) (eth.L2BlockRef, error) {
	return retry(ctx, r.logger, "l2.L2BlockInfoByNumber", func() (eth.L2BlockRef, error) {
		return r.inner.L2BlockInfoByNumber(ctx, number)
	})
}
