package eth

import (
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

func TestDecodeRawReceipt_Legacy(t *testing.T) {
	receipt := &types.Receipt{
		Type:              types.LegacyTxType,
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: 21000,
	}
	raw, err := receipt.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeRawReceipt(raw)
	require.NoError(t, err)
	require.Equal(t, uint64(types.ReceiptStatusSuccessful), decoded.Status)
	require.Equal(t, uint64(21000), decoded.CumulativeGasUsed)
}

func TestDecodeRawReceipt_DynamicFeeTypedEnvelope(t *testing.T) {
	receipt := &types.Receipt{
		Type:              types.DynamicFeeTxType,
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: 84000,
	}
	raw, err := receipt.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, byte(types.DynamicFeeTxType), raw[0], "typed envelope must carry the 0x02 type-byte prefix")

	decoded, err := DecodeRawReceipt(raw)
	require.NoError(t, err)
	require.Equal(t, uint64(types.ReceiptStatusSuccessful), decoded.Status)
	require.Equal(t, uint64(84000), decoded.CumulativeGasUsed)
}

func TestDecodeRawReceipt_Empty(t *testing.T) {
	_, err := DecodeRawReceipt(nil)
	require.Error(t, err)
}
