package kvstore

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestDiskKV_PutGet(t *testing.T) {
	kv := NewDiskKV(t.TempDir())
	key := common.HexToHash("0x11")
	require.NoError(t, kv.Put(key, []byte("disk value")))
	got, err := kv.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("disk value"), got)
}

func TestDiskKV_GetMissing(t *testing.T) {
	kv := NewDiskKV(t.TempDir())
	_, err := kv.Get(common.HexToHash("0x12"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDiskKV_PutSameValueTwiceIsOK(t *testing.T) {
	kv := NewDiskKV(t.TempDir())
	key := common.HexToHash("0x13")
	require.NoError(t, kv.Put(key, []byte("a")))
	require.NoError(t, kv.Put(key, []byte("a")))
}

func TestDiskKV_PutConflictingValueErrors(t *testing.T) {
	kv := NewDiskKV(t.TempDir())
	key := common.HexToHash("0x14")
	require.NoError(t, kv.Put(key, []byte("a")))
	require.ErrorIs(t, kv.Put(key, []byte("b")), ErrPutKeyExists)
}

func TestDiskKV_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	key := common.HexToHash("0x15")
	require.NoError(t, NewDiskKV(dir).Put(key, []byte("persisted")))

	reopened := NewDiskKV(dir)
	got, err := reopened.Get(key)
	require.NoError(t, err)
	require.Equal(t, []byte("persisted"), got)
}
