package derive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethereum-optimism/op-fault-host/op-service/eth"
)

// L1InfoFuncBedrockSignature is the 4-byte selector of the Bedrock-era
// L1Block.setL1BlockValues call, the first transaction of every L2 block.
var L1InfoFuncBedrockSignature = [4]byte{0x01, 0x5d, 0x8e, 0xb9}

// L1InfoFuncEcotoneSignature is the 4-byte selector of the Ecotone-era
// L1Block.setL1BlockValuesEcotone call.
var L1InfoFuncEcotoneSignature = [4]byte{0x44, 0x0a, 0x5e, 0x20}

// L1BlockInfo is the decoded content of the L1 attributes deposit
// transaction embedded as the first transaction of every L2 block: it
// names the L1 origin the block was derived from and the system config
// values in effect at that point.
type L1BlockInfo struct {
	Number         uint64
	Time           uint64
	BaseFee        *big.Int
	BlockHash      common.Hash
	SequenceNumber uint64
	BatcherAddr    common.Address

	L1FeeOverhead eth.Bytes32 // ignored after Ecotone
	L1FeeScalar   eth.Bytes32 // ignored after Ecotone

	BlobBaseFee       *big.Int // set from Ecotone onward
	BaseFeeScalar     uint32   // set from Ecotone onward
	BlobBaseFeeScalar uint32   // set from Ecotone onward
}

// L1BlockInfoFromBytes decodes the calldata of the first transaction of an
// L2 block into an L1BlockInfo, dispatching on the 4-byte function
// selector since the Bedrock and Ecotone formats are laid out differently.
func L1BlockInfoFromBytes(data []byte) (*L1BlockInfo, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("L1 info tx calldata too short: %d bytes", len(data))
	}
	var sel [4]byte
	copy(sel[:], data[:4])
	switch sel {
	case L1InfoFuncEcotoneSignature:
		return unmarshalEcotone(data[4:])
	case L1InfoFuncBedrockSignature:
		return unmarshalBedrock(data[4:])
	default:
		return nil, fmt.Errorf("unrecognized L1 info tx selector: %x", sel)
	}
}

func readUint256(r *bytes.Reader) (*big.Int, error) {
	var buf [32]byte
	if _, err := r.Read(buf[:]); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(buf[:]), nil
}

func readUint64From32(r *bytes.Reader) (uint64, error) {
	v, err := readUint256(r)
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

func readHash(r *bytes.Reader) (common.Hash, error) {
	var h common.Hash
	_, err := r.Read(h[:])
	return h, err
}

func readAddress(r *bytes.Reader) (common.Address, error) {
	h, err := readHash(r)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(h[12:]), nil
}

func readBytes32(r *bytes.Reader) (eth.Bytes32, error) {
	var b eth.Bytes32
	_, err := r.Read(b[:])
	return b, err
}

// Bedrock layout: after the selector, one leading offset word (read and
// skipped) followed by 8 static 32-byte field words, laid out flat in
// this simplified host-side decoder, sufficient to recover SystemConfig.
func unmarshalBedrock(data []byte) (*L1BlockInfo, error) {
	r := bytes.NewReader(data)
	var info L1BlockInfo
	var err error
	// skip the dynamic-tuple offset word
	if _, err = readUint256(r); err != nil {
		return nil, fmt.Errorf("invalid bedrock l1 info: %w", err)
	}
	if info.Number, err = readUint64From32(r); err != nil {
		return nil, err
	}
	if info.Time, err = readUint64From32(r); err != nil {
		return nil, err
	}
	if info.BaseFee, err = readUint256(r); err != nil {
		return nil, err
	}
	if info.BlockHash, err = readHash(r); err != nil {
		return nil, err
	}
	if info.SequenceNumber, err = readUint64From32(r); err != nil {
		return nil, err
	}
	if info.BatcherAddr, err = readAddress(r); err != nil {
		return nil, err
	}
	if info.L1FeeOverhead, err = readBytes32(r); err != nil {
		return nil, err
	}
	if info.L1FeeScalar, err = readBytes32(r); err != nil {
		return nil, err
	}
	return &info, nil
}

// Ecotone layout: packed scalars/number/time/blockhash followed by the
// batcher hash, per the setL1BlockValuesEcotone calldata format.
func unmarshalEcotone(data []byte) (*L1BlockInfo, error) {
	r := bytes.NewReader(data)
	var info L1BlockInfo
	if err := binary.Read(r, binary.BigEndian, &info.BaseFeeScalar); err != nil {
		return nil, fmt.Errorf("invalid ecotone l1 info: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &info.BlobBaseFeeScalar); err != nil {
		return nil, fmt.Errorf("invalid ecotone l1 info: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &info.SequenceNumber); err != nil {
		return nil, fmt.Errorf("invalid ecotone l1 info: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &info.Time); err != nil {
		return nil, fmt.Errorf("invalid ecotone l1 info: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &info.Number); err != nil {
		return nil, fmt.Errorf("invalid ecotone l1 info: %w", err)
	}
	var err error
	if info.BaseFee, err = readUint256(r); err != nil {
		return nil, err
	}
	if info.BlobBaseFee, err = readUint256(r); err != nil {
		return nil, err
	}
	if info.BlockHash, err = readHash(r); err != nil {
		return nil, err
	}
	if info.BatcherAddr, err = readAddress(r); err != nil {
		return nil, err
	}
	return &info, nil
}

// ToSystemConfig projects the subset of L1BlockInfo that makes up the
// rollup's per-block SystemConfig.
func (info *L1BlockInfo) ToSystemConfig(gasLimit uint64) eth.SystemConfig {
	sys := eth.SystemConfig{
		BatcherAddr: info.BatcherAddr,
		GasLimit:    gasLimit,
	}
	if info.BlobBaseFee != nil {
		// Ecotone onward: overhead is unused, scalar packs the two
		// 4-byte fee scalars into the low 8 bytes.
		binary.BigEndian.PutUint32(sys.Scalar[24:28], info.BaseFeeScalar)
		binary.BigEndian.PutUint32(sys.Scalar[28:32], info.BlobBaseFeeScalar)
	} else {
		sys.Overhead = [32]byte(info.L1FeeOverhead)
		sys.Scalar = [32]byte(info.L1FeeScalar)
	}
	return sys
}
