package kvstore

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestMemKV_PutGet(t *testing.T) {
	kv := NewMemKV()
	key := common.HexToHash("0x01")
	require.NoError(t, kv.Put(key, []byte("value")))
	got, err := kv.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("value"), got)
}

func TestMemKV_GetMissing(t *testing.T) {
	kv := NewMemKV()
	_, err := kv.Get(common.HexToHash("0x02"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemKV_PutSameValueTwiceIsOK(t *testing.T) {
	kv := NewMemKV()
	key := common.HexToHash("0x03")
	require.NoError(t, kv.Put(key, []byte("a")))
	require.NoError(t, kv.Put(key, []byte("a")))
}

func TestMemKV_PutConflictingValueErrors(t *testing.T) {
	kv := NewMemKV()
	key := common.HexToHash("0x04")
	require.NoError(t, kv.Put(key, []byte("a")))
	require.ErrorIs(t, kv.Put(key, []byte("b")), ErrPutKeyExists)
}
