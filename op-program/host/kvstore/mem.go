package kvstore

import (
	"bytes"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemKV is an in-memory KV, used when no datadir is configured: convenient
// for local native-mode runs where losing all state on exit is fine.
type MemKV struct {
	mu  sync.RWMutex
	val map[common.Hash][]byte
}

func NewMemKV() *MemKV {
	return &MemKV{val: make(map[common.Hash][]byte)}
}

func (m *MemKV) Put(key common.Hash, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.val[key]; ok && !bytes.Equal(existing, value) {
		return ErrPutKeyExists
	}
	m.val[key] = value
	return nil
}

func (m *MemKV) Get(key common.Hash) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.val[key]
	if !ok {
		return nil, ErrNotFound
	}
	return value, nil
}
