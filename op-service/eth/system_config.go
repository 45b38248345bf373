package eth

import (
	"github.com/ethereum/go-ethereum/common"
)

// SystemConfig is the per-block mutable rollup parameters derived from L1
// SystemConfigUpdate events and, after Ecotone, from the L1 attributes
// deposit transaction itself: batcher authorization, gas limit, and the L1
// fee scalars the execution engine needs to charge L1 data fees.
type SystemConfig struct {
	BatcherAddr common.Address `json:"batcherAddr"`
	Overhead    Bytes32        `json:"overhead"`
	Scalar      Bytes32        `json:"scalar"`
	GasLimit    uint64         `json:"gasLimit"`
}
