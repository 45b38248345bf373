// Package mpt builds an ephemeral Merkle-Patricia trie over RLP-index-keyed
// leaves (used to commit to an ordered list of transactions or receipts,
// the same way go-ethereum's types.DeriveSha does) and returns every node
// touched while building it, so the caller can store each one as an
// individually addressable keccak256 preimage.
package mpt

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/rlp"
)

// WriteTrie commits values into a fresh in-memory trie, indexed by the
// RLP-encoding of their position in the list, and returns the trie root
// plus every node created along the way.
func WriteTrie(values []hexutil.Bytes) (common.Hash, [][]byte) {
	memdb := rawdb.NewMemoryDatabase()
	tdb := trie.NewDatabase(memdb, nil)
	tr := trie.NewEmpty(tdb)

	for i, value := range values {
		key, err := rlp.EncodeToBytes(uint(i))
		if err != nil {
			panic(fmt.Errorf("failed to rlp-encode trie index %d: %w", i, err))
		}
		if err := tr.Update(key, value); err != nil {
			panic(fmt.Errorf("failed to update trie at index %d: %w", i, err))
		}
	}

	root, nodes, err := tr.Commit(false)
	if err != nil {
		panic(fmt.Errorf("failed to commit trie: %w", err))
	}
	if nodes != nil {
		if err := tdb.Update(root, types.EmptyRootHash, 0, trienode.NewWithNodeSet(nodes), nil); err != nil {
			panic(fmt.Errorf("failed to update trie database: %w", err))
		}
	}
	if err := tdb.Commit(root, false); err != nil {
		panic(fmt.Errorf("failed to commit trie database: %w", err))
	}

	it := memdb.NewIterator(nil, nil)
	defer it.Release()
	var out [][]byte
	for it.Next() {
		out = append(out, common.CopyBytes(it.Value()))
	}
	return root, out
}
