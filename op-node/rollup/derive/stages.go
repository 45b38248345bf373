package derive

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ethereum-optimism/op-fault-host/op-node/rollup"
	"github.com/ethereum-optimism/op-fault-host/op-service/eth"
)

// EOF is returned by a stage's next-attributes call to signal that it has
// drained its current input and needs more L1 data before it can produce
// anything else. EOF is recoverable: the driver responds by advancing the
// L1 origin and retrying.
var EOF = errors.New("eof")

// Attributes is the input set needed to build one L2 block.
type Attributes struct {
	Parent       eth.L2BlockRef
	L1Origin     eth.BlockID
	Timestamp    uint64
	Transactions []hexutil.Bytes
	NoTxPool     bool
	GasLimit     uint64
}

// NextAttributesProvider is satisfied by the topmost stage of the
// derivation stack: the one the driver pulls prepared attributes from.
type NextAttributesProvider interface {
	// NextAttributes produces the next L2 attributes given the L2 safe
	// cursor to build on, or EOF if no more L1 data has arrived, or a
	// fatal stage error.
	NextAttributes(ctx context.Context, cursor eth.L2BlockRef) (Attributes, error)
}

// OriginAdvancer lets the driver ask the stage stack to consume the next
// unit of L1 data after a stage reports EOF.
type OriginAdvancer interface {
	AdvanceOrigin(ctx context.Context) error
}

// OriginProvider exposes the L1 block the stage stack is currently
// consuming from.
type OriginProvider interface {
	Origin() eth.L1BlockRef
}

// ResettableStage restores a stage's internal state to a known point,
// given the new L1 origin and the system config in effect there. Reset
// recurses down the stack: the topmost stage's Reset is expected to call
// the stage beneath it before (or after) restoring its own state.
type ResettableStage interface {
	Reset(ctx context.Context, base eth.L1BlockRef, cfg eth.SystemConfig) error
}

// Stage is the full capability set every layer of the derivation stack
// (frame queue, channel bank, batch queue, attributes queue, L1 traversal)
// must satisfy; this package only depends on the capability set, never on
// any one stage's internal algorithm.
type Stage interface {
	NextAttributesProvider
	OriginAdvancer
	OriginProvider
	ResettableStage
}

// L2ChainProvider is the subset of the L2 chain provider contract the
// derivation pipeline needs directly: the system config in effect at a
// given L2 block height, used during reset.
type L2ChainProvider interface {
	SystemConfigByNumber(ctx context.Context, number uint64, cfg *rollup.Config) (eth.SystemConfig, error)
}
