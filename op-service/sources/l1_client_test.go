package sources

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"
)

// fakeTransport is a stand-in for *rpc.Client: it answers debug_ RPC calls
// from a canned table instead of dialing out, and counts calls per method
// so tests can assert a cache hit skips the round trip entirely.
type fakeTransport struct {
	responses map[string]interface{}
	calls     map[string]int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{responses: map[string]interface{}{}, calls: map[string]int{}}
}

func (f *fakeTransport) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	f.calls[method]++
	resp, ok := f.responses[method]
	if !ok {
		return fmt.Errorf("fakeTransport: no response configured for %s", method)
	}
	switch r := result.(type) {
	case *hexutil.Bytes:
		*r = resp.(hexutil.Bytes)
	case *[]hexutil.Bytes:
		*r = resp.([]hexutil.Bytes)
	default:
		return fmt.Errorf("fakeTransport: unsupported result type %T", result)
	}
	return nil
}

func testHeader(number uint64) *types.Header {
	return &types.Header{
		Number:     big.NewInt(int64(number)),
		Time:       number * 2,
		ParentHash: common.Hash{0xaa},
		Root:       common.Hash{0xbb},
	}
}

func TestL1Client_InfoByHash_CachesAfterFirstFetch(t *testing.T) {
	header := testHeader(42)
	raw, err := rlp.EncodeToBytes(header)
	require.NoError(t, err)

	transport := newFakeTransport()
	transport.responses["debug_getRawHeader"] = hexutil.Bytes(raw)

	cl, err := NewL1Client(transport, log.NewLogger(log.DiscardHandler()), nil, L1ClientDefaultConfig(true, RPCKindStandard))
	require.NoError(t, err)

	info, err := cl.InfoByHash(context.Background(), header.Hash())
	require.NoError(t, err)
	require.Equal(t, header.Hash(), info.Hash())

	info2, err := cl.InfoByHash(context.Background(), header.Hash())
	require.NoError(t, err)
	require.Equal(t, header.Hash(), info2.Hash())

	require.Equal(t, 1, transport.calls["debug_getRawHeader"], "second call for the same hash must be served from cache")
}

func TestL1Client_BlockInfoByNumber_CachesAfterFirstFetch(t *testing.T) {
	header := testHeader(7)
	raw, err := rlp.EncodeToBytes(header)
	require.NoError(t, err)

	transport := newFakeTransport()
	transport.responses["debug_getRawHeader"] = hexutil.Bytes(raw)

	cl, err := NewL1Client(transport, log.NewLogger(log.DiscardHandler()), nil, L1ClientDefaultConfig(true, RPCKindStandard))
	require.NoError(t, err)

	info, err := cl.BlockInfoByNumber(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, uint64(7), info.NumberU64())

	_, err = cl.BlockInfoByNumber(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 1, transport.calls["debug_getRawHeader"], "second call for the same number must be served from cache")
}

func TestL1Client_FetchReceipts_DecodesEachReceipt(t *testing.T) {
	header := testHeader(9)
	headerRaw, err := rlp.EncodeToBytes(header)
	require.NoError(t, err)

	legacy := &types.Receipt{Type: types.LegacyTxType, Status: types.ReceiptStatusSuccessful}
	legacyRaw, err := legacy.MarshalBinary()
	require.NoError(t, err)

	transport := newFakeTransport()
	transport.responses["debug_getRawHeader"] = hexutil.Bytes(headerRaw)
	transport.responses["debug_getRawReceipts"] = []hexutil.Bytes{legacyRaw}

	cl, err := NewL1Client(transport, log.NewLogger(log.DiscardHandler()), nil, L1ClientDefaultConfig(true, RPCKindStandard))
	require.NoError(t, err)

	_, receipts, err := cl.FetchReceipts(context.Background(), header.Hash())
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	require.Equal(t, uint64(types.ReceiptStatusSuccessful), receipts[0].Status)
}
