package eth

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// EncodeReceipts opaque-encodes each receipt (its typed envelope, as
// returned on the wire by debug_getRawReceipts) for MPT-trie storage.
func EncodeReceipts(receipts types.Receipts) ([]hexutil.Bytes, error) {
	out := make([]hexutil.Bytes, len(receipts))
	for i, r := range receipts {
		data, err := r.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal receipt %d: %w", i, err)
		}
		out[i] = data
	}
	return out, nil
}

// EncodeTransactions opaque-encodes each transaction's typed envelope for
// MPT-trie storage.
func EncodeTransactions(txs types.Transactions) ([]hexutil.Bytes, error) {
	out := make([]hexutil.Bytes, len(txs))
	for i, tx := range txs {
		data, err := tx.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal transaction %d: %w", i, err)
		}
		out[i] = data
	}
	return out, nil
}

// DecodeRawReceipt decodes a single debug_getRawReceipts element: legacy
// receipts have no leading type byte, typed receipts (EIP-2718 envelopes
// with type <= 0x03) have one. Either form decodes to the inner
// ReceiptWithBloom RLP structure.
func DecodeRawReceipt(raw []byte) (*types.Receipt, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty raw receipt")
	}
	var r types.Receipt
	if err := r.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("failed to decode receipt: %w", err)
	}
	return &r, nil
}
