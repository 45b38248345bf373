package eth

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// ExecutionPayload is the L2 execution-layer block representation the
// engine API exchanges: the subset of block fields needed to both replay
// the block and to derive the next one.
type ExecutionPayload struct {
	ParentHash    common.Hash         `json:"parentHash"`
	FeeRecipient  common.Address      `json:"feeRecipient"`
	StateRoot     Bytes32             `json:"stateRoot"`
	ReceiptsRoot  Bytes32             `json:"receiptsRoot"`
	LogsBloom     types.Bloom         `json:"logsBloom"`
	PrevRandao    Bytes32             `json:"prevRandao"`
	BlockNumber   hexutil.Uint64      `json:"blockNumber"`
	GasLimit      hexutil.Uint64      `json:"gasLimit"`
	GasUsed       hexutil.Uint64      `json:"gasUsed"`
	Timestamp     hexutil.Uint64      `json:"timestamp"`
	ExtraData     hexutil.Bytes       `json:"extraData"`
	BaseFeePerGas *hexutil.Big        `json:"baseFeePerGas"`
	BlockHash     common.Hash         `json:"blockHash"`
	Transactions  []hexutil.Bytes     `json:"transactions"`
	Withdrawals   *types.Withdrawals  `json:"withdrawals,omitempty"`
}

// ToBlockRef derives the compact L2BlockRef from a full payload, decoding
// the embedded L1 attributes deposit transaction (always transaction 0) to
// recover the L1 origin and sequence number.
func (p *ExecutionPayload) ToBlockRef(decodeL1Info func([]byte) (common.Hash, uint64, uint64, error)) (L2BlockRef, error) {
	ref := L2BlockRef{
		Hash:       p.BlockHash,
		Number:     uint64(p.BlockNumber),
		ParentHash: p.ParentHash,
		Time:       uint64(p.Timestamp),
	}
	if len(p.Transactions) == 0 {
		return ref, nil
	}
	l1Hash, l1Num, seqNum, err := decodeL1Info(p.Transactions[0])
	if err != nil {
		return L2BlockRef{}, err
	}
	ref.L1Origin = BlockID{Hash: l1Hash, Number: l1Num}
	ref.SequenceNumber = seqNum
	return ref, nil
}
