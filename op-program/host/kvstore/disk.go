package kvstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DiskKV persists preimages as individual files under datadir, one file per
// key, named by its hex-encoded key. Writes land in a temp file and are
// renamed into place so a crash mid-write never leaves a partial preimage
// visible under its final name.
type DiskKV struct {
	mu      sync.RWMutex
	datadir string
}

func NewDiskKV(datadir string) *DiskKV {
	return &DiskKV{datadir: datadir}
}

func (d *DiskKV) path(key common.Hash) string {
	return filepath.Join(d.datadir, hexutil.Encode(key[:])+".txt")
}

func (d *DiskKV) Put(key common.Hash, value []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	final := d.path(key)
	if existing, err := os.ReadFile(final); err == nil {
		if hexutil.Encode(existing) != hexutil.Encode(value) {
			return ErrPutKeyExists
		}
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check existing preimage %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(d.datadir, "kv-write-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for key %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write([]byte(hexutil.Encode(value))); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write preimage %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for key %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("failed to rename temp file into place for key %s: %w", key, err)
	}
	return nil
}

func (d *DiskKV) Get(key common.Hash) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	data, err := os.ReadFile(d.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to read preimage %s: %w", key, err)
	}
	return hexutil.Decode(string(data))
}
