package prefetcher

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	preimage "github.com/ethereum-optimism/op-fault-host/op-preimage"
	"github.com/ethereum-optimism/op-fault-host/op-program/client/l1"
	"github.com/ethereum-optimism/op-fault-host/op-program/host/kvstore"
	"github.com/ethereum-optimism/op-fault-host/op-service/eth"
)

func testLogger() log.Logger {
	return log.NewLogger(log.DiscardHandler())
}

type fakeL1Source struct {
	headers     map[common.Hash]*types.Header
	headerCalls int32
	// block, when non-nil, holds InfoByHash until the test closes it after
	// a short delay, keeping the first fetch in flight so concurrent
	// identical hints have time to merge onto it.
	block <-chan struct{}
}

func (f *fakeL1Source) InfoByHash(ctx context.Context, hash common.Hash) (eth.BlockInfo, error) {
	atomic.AddInt32(&f.headerCalls, 1)
	if f.block != nil {
		<-f.block
	}
	h, ok := f.headers[hash]
	if !ok {
		return nil, fmt.Errorf("no header for %s", hash)
	}
	return eth.HeaderBlockInfo(h), nil
}

func (f *fakeL1Source) InfoAndTxsByHash(ctx context.Context, hash common.Hash) (eth.BlockInfo, types.Transactions, error) {
	info, err := f.InfoByHash(ctx, hash)
	return info, nil, err
}

func (f *fakeL1Source) FetchReceipts(ctx context.Context, hash common.Hash) (eth.BlockInfo, types.Receipts, error) {
	info, err := f.InfoByHash(ctx, hash)
	return info, nil, err
}

func (f *fakeL1Source) BlockInfoByNumber(ctx context.Context, number uint64) (eth.BlockInfo, error) {
	return nil, fmt.Errorf("not implemented")
}

type fakeL1BlobSource struct{}

func (f *fakeL1BlobSource) GetBlobSidecars(ctx context.Context, ref eth.L1BlockRef, hashes []eth.IndexedBlobHash) ([]*eth.BlobSidecar, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeL1BlobSource) GetBlobs(ctx context.Context, ref eth.L1BlockRef, hashes []eth.IndexedBlobHash) ([]*eth.Blob, error) {
	return nil, fmt.Errorf("not implemented")
}

type fakeL2Source struct {
	code map[common.Hash][]byte
}

func (f *fakeL2Source) InfoAndTxsByHash(ctx context.Context, hash common.Hash) (eth.BlockInfo, types.Transactions, error) {
	return nil, nil, fmt.Errorf("not implemented")
}

func (f *fakeL2Source) NodeByHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeL2Source) CodeByHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	c, ok := f.code[hash]
	if !ok {
		return nil, fmt.Errorf("no code for %s", hash)
	}
	return c, nil
}

func (f *fakeL2Source) OutputByRoot(ctx context.Context, root common.Hash) ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeL2Source) PayloadByNumber(ctx context.Context, number uint64) (*eth.ExecutionPayload, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeL2Source) L2BlockInfoByNumber(ctx context.Context, number uint64) (eth.L2BlockRef, error) {
	return eth.L2BlockRef{}, fmt.Errorf("not implemented")
}

func TestPrefetcher_GetPreimageHitsKVWithoutFetching(t *testing.T) {
	kv := kvstore.NewMemKV()
	key := preimage.Keccak256Key(common.HexToHash("0x01")).PreimageKey()
	require.NoError(t, kv.Put(key, []byte("cached")))

	p := NewPrefetcher(testLogger(), &fakeL1Source{}, &fakeL1BlobSource{}, &fakeL2Source{}, kv)
	got, err := p.GetPreimage(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, []byte("cached"), got)
}

func TestPrefetcher_FetchesL1BlockHeaderOnHint(t *testing.T) {
	header := &types.Header{Number: big.NewInt(1)}
	hash := header.Hash()
	l1Src := &fakeL1Source{headers: map[common.Hash]*types.Header{hash: header}}
	kv := kvstore.NewMemKV()
	p := NewPrefetcher(testLogger(), l1Src, &fakeL1BlobSource{}, &fakeL2Source{}, kv)

	require.NoError(t, p.Hint(fmt.Sprintf("%s %s", l1.HintL1BlockHeader, hash.Hex())))

	key := preimage.Keccak256Key(hash).PreimageKey()
	data, err := p.GetPreimage(context.Background(), key)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestPrefetcher_MissingPreimageWithoutHintErrors(t *testing.T) {
	kv := kvstore.NewMemKV()
	p := NewPrefetcher(testLogger(), &fakeL1Source{}, &fakeL1BlobSource{}, &fakeL2Source{}, kv)
	_, err := p.GetPreimage(context.Background(), preimage.Keccak256Key(common.HexToHash("0x99")).PreimageKey())
	require.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestPrefetcher_FetchesL2CodeOnHint(t *testing.T) {
	codeHash := common.HexToHash("0x02")
	l2Src := &fakeL2Source{code: map[common.Hash][]byte{codeHash: []byte("bytecode")}}
	kv := kvstore.NewMemKV()
	p := NewPrefetcher(testLogger(), &fakeL1Source{}, &fakeL1BlobSource{}, l2Src, kv)

	require.NoError(t, p.Hint(fmt.Sprintf("%s %s", l1.HintL2Code, codeHash.Hex())))

	key := preimage.Keccak256Key(codeHash).PreimageKey()
	data, err := p.GetPreimage(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, []byte("bytecode"), data)
}

func TestPrefetcher_DedupsConcurrentIdenticalHints(t *testing.T) {
	header := &types.Header{Number: big.NewInt(1)}
	hash := header.Hash()
	block := make(chan struct{})
	l1Src := &fakeL1Source{headers: map[common.Hash]*types.Header{hash: header}, block: block}
	kv := kvstore.NewMemKV()
	p := NewPrefetcher(testLogger(), l1Src, &fakeL1BlobSource{}, &fakeL2Source{}, kv)

	hint := fmt.Sprintf("%s %s", l1.HintL1BlockHeader, hash.Hex())
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, p.prefetch(context.Background(), hint))
		}()
	}
	// Give every goroutine a chance to reach singleflight.Do and merge onto
	// the one in-flight fetch before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(block)
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&l1Src.headerCalls))
}

func TestParseHint_RoundTrip(t *testing.T) {
	hintType, data, err := parseHint(fmt.Sprintf("%s %s", l1.HintL1Receipts, hexutil.Encode([]byte{1, 2, 3})))
	require.NoError(t, err)
	require.Equal(t, l1.HintL1Receipts, hintType)
	require.Equal(t, []byte{1, 2, 3}, data)
}

func TestParseHint_MissingSeparatorErrors(t *testing.T) {
	_, _, err := parseHint("no-space-here")
	require.Error(t, err)
}
