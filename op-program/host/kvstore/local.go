package kvstore

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethereum-optimism/op-fault-host/op-program/client"
	"github.com/ethereum-optimism/op-fault-host/op-program/host/config"
)

// LocalPreimageSource answers the fixed set of boot-parameter keys the
// client fetches once at startup out of cfg, without ever touching the
// prefetcher or a backing KV: these values have no canonical content hash
// of their own, so they're addressed by LocalIndexKey instead.
type LocalPreimageSource struct {
	config *config.Config
}

func NewLocalPreimageSource(config *config.Config) *LocalPreimageSource {
	return &LocalPreimageSource{config}
}

var (
	l1HeadKey             = client.L1HeadLocalIndex.PreimageKey()
	l2OutputRootKey       = client.L2OutputRootLocalIndex.PreimageKey()
	l2ClaimKey            = client.L2ClaimLocalIndex.PreimageKey()
	l2ClaimBlockNumberKey = client.L2ClaimBlockNumberLocalIndex.PreimageKey()
	l2ChainIDKey          = client.L2ChainIDLocalIndex.PreimageKey()
	l2ClaimBlockHashKey   = client.L2ClaimBlockHashLocalIndex.PreimageKey()
	rollupConfigKey       = client.RollupConfigLocalIndex.PreimageKey()
	l2ChainConfigKey      = client.L2ChainConfigLocalIndex.PreimageKey()
)

func (s *LocalPreimageSource) Get(key common.Hash) ([]byte, error) {
	switch [32]byte(key) {
	case l1HeadKey:
		return s.config.L1Head.Bytes(), nil
	case l2OutputRootKey:
		return s.config.L2OutputRoot[:], nil
	case l2ClaimKey:
		return s.config.L2Claim[:], nil
	case l2ClaimBlockNumberKey:
		return uint64ToBytes(s.config.L2ClaimBlockNumber), nil
	case l2ClaimBlockHashKey:
		return s.config.L2Head.Bytes(), nil
	case l2ChainIDKey:
		return uint64ToBytes(s.config.Rollup.L2ChainID.Uint64()), nil
	case rollupConfigKey:
		data, err := json.Marshal(s.config.Rollup)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal rollup config: %w", err)
		}
		return data, nil
	case l2ChainConfigKey:
		data, err := json.Marshal(s.config.L2ChainConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal l2 chain config: %w", err)
		}
		return data, nil
	default:
		return nil, ErrNotFound
	}
}

func uint64ToBytes(v uint64) []byte {
	var out [8]byte
	for i := 0; i < 8; i++ {
		out[7-i] = byte(v)
		v >>= 8
	}
	return out[:]
}
