package derive

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func bigFromUint(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

func word32(v uint64) []byte {
	var w [32]byte
	binary.BigEndian.PutUint64(w[24:], v)
	return w[:]
}

func wordHash(h common.Hash) []byte {
	var w [32]byte
	copy(w[:], h[:])
	return w[:]
}

func wordAddress(a common.Address) []byte {
	var w [32]byte
	copy(w[12:], a[:])
	return w[:]
}

func TestL1BlockInfoFromBytes_Bedrock(t *testing.T) {
	blockHash := common.HexToHash("0xaabb")
	batcher := common.HexToAddress("0x1234")

	var data []byte
	data = append(data, L1InfoFuncBedrockSignature[:]...)
	data = append(data, word32(0)...)   // dynamic-tuple offset, ignored
	data = append(data, word32(100)...) // number
	data = append(data, word32(1000)...) // time
	data = append(data, word32(7)...)    // baseFee
	data = append(data, wordHash(blockHash)...)
	data = append(data, word32(5)...) // sequenceNumber
	data = append(data, wordAddress(batcher)...)
	data = append(data, word32(2200)...) // feeOverhead
	data = append(data, word32(684000)...) // feeScalar

	info, err := L1BlockInfoFromBytes(data)
	require.NoError(t, err)
	require.Equal(t, uint64(100), info.Number)
	require.Equal(t, uint64(1000), info.Time)
	require.Equal(t, uint64(7), info.BaseFee.Uint64())
	require.Equal(t, blockHash, info.BlockHash)
	require.Equal(t, uint64(5), info.SequenceNumber)
	require.Equal(t, batcher, info.BatcherAddr)
	require.Nil(t, info.BlobBaseFee)
}

func TestL1BlockInfoFromBytes_Ecotone(t *testing.T) {
	blockHash := common.HexToHash("0xccdd")
	batcher := common.HexToAddress("0x5678")

	var data []byte
	data = append(data, L1InfoFuncEcotoneSignature[:]...)
	buf := make([]byte, 0, 4+4+8+8+8+32+32+32+32)
	var scalarBuf [4]byte
	binary.BigEndian.PutUint32(scalarBuf[:], 111)
	buf = append(buf, scalarBuf[:]...)
	binary.BigEndian.PutUint32(scalarBuf[:], 222)
	buf = append(buf, scalarBuf[:]...)
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], 9)
	buf = append(buf, seqBuf[:]...)
	var timeBuf [8]byte
	binary.BigEndian.PutUint64(timeBuf[:], 2000)
	buf = append(buf, timeBuf[:]...)
	var numBuf [8]byte
	binary.BigEndian.PutUint64(numBuf[:], 200)
	buf = append(buf, numBuf[:]...)
	buf = append(buf, word32(13)...) // baseFee
	buf = append(buf, word32(17)...) // blobBaseFee
	buf = append(buf, wordHash(blockHash)...)
	buf = append(buf, wordAddress(batcher)...)
	data = append(data, buf...)

	info, err := L1BlockInfoFromBytes(data)
	require.NoError(t, err)
	require.Equal(t, uint32(111), info.BaseFeeScalar)
	require.Equal(t, uint32(222), info.BlobBaseFeeScalar)
	require.Equal(t, uint64(9), info.SequenceNumber)
	require.Equal(t, uint64(2000), info.Time)
	require.Equal(t, uint64(200), info.Number)
	require.Equal(t, uint64(13), info.BaseFee.Uint64())
	require.Equal(t, uint64(17), info.BlobBaseFee.Uint64())
	require.Equal(t, blockHash, info.BlockHash)
	require.Equal(t, batcher, info.BatcherAddr)
}

func TestL1BlockInfoFromBytes_TooShort(t *testing.T) {
	_, err := L1BlockInfoFromBytes([]byte{0x01, 0x02})
	require.Error(t, err)
}

func TestL1BlockInfoFromBytes_UnknownSelector(t *testing.T) {
	_, err := L1BlockInfoFromBytes([]byte{0xde, 0xad, 0xbe, 0xef, 0x00})
	require.Error(t, err)
}

func TestToSystemConfig_Bedrock(t *testing.T) {
	info := &L1BlockInfo{
		BatcherAddr:   common.HexToAddress("0x1234"),
		L1FeeOverhead: [32]byte{1},
		L1FeeScalar:   [32]byte{2},
	}
	sys := info.ToSystemConfig(30_000_000)
	require.Equal(t, info.BatcherAddr, sys.BatcherAddr)
	require.Equal(t, uint64(30_000_000), sys.GasLimit)
	require.Equal(t, [32]byte{1}, [32]byte(sys.Overhead))
	require.Equal(t, [32]byte{2}, [32]byte(sys.Scalar))
}

func TestToSystemConfig_Ecotone(t *testing.T) {
	info := &L1BlockInfo{
		BatcherAddr:       common.HexToAddress("0x5678"),
		BlobBaseFee:       bigFromUint(17),
		BaseFeeScalar:     111,
		BlobBaseFeeScalar: 222,
	}
	sys := info.ToSystemConfig(15_000_000)
	require.Equal(t, uint32(111), binary.BigEndian.Uint32(sys.Scalar[24:28]))
	require.Equal(t, uint32(222), binary.BigEndian.Uint32(sys.Scalar[28:32]))
	require.Equal(t, [32]byte{}, [32]byte(sys.Overhead))
}
