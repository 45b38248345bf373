package kvstore

import (
	"errors"

	preimage "github.com/ethereum-optimism/op-fault-host/op-preimage"
	"github.com/ethereum/go-ethereum/common"
)

// PreimageSourceGetter resolves a single preimage key, used by SplitKV to
// delegate local keys to a dedicated source without forcing that source to
// implement the full KV interface.
type PreimageSourceGetter interface {
	Get(key common.Hash) ([]byte, error)
}

// SplitKV routes LocalKeyType lookups to a local source (typically
// LocalPreimageSource) and everything else to a remote KV (the disk/memory
// store, backed by the prefetcher), so callers never need to know which
// key types are addressed locally.
type SplitKV struct {
	local  PreimageSourceGetter
	remote KV
}

func NewSplitKV(local PreimageSourceGetter, remote KV) *SplitKV {
	return &SplitKV{local: local, remote: remote}
}

func (s *SplitKV) Get(key common.Hash) ([]byte, error) {
	if preimage.TypeOf([32]byte(key)) == preimage.LocalKeyType {
		return s.local.Get(key)
	}
	return s.remote.Get(key)
}

func (s *SplitKV) Put(key common.Hash, value []byte) error {
	if preimage.TypeOf([32]byte(key)) == preimage.LocalKeyType {
		return errors.New("cannot put a local key: local keys are derived from config, not fetched")
	}
	return s.remote.Put(key, value)
}
