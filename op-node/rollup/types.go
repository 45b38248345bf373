// Package rollup holds the chain-wide immutable parameters and per-block
// mutable parameters the derivation pipeline needs, independent of any one
// component's internal representation of them.
package rollup

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethereum-optimism/op-fault-host/op-service/eth"
)

// Config is the rollup chain's immutable configuration: genesis anchors,
// chain identity, block timing, and the addresses that gate which L1
// events the derivation pipeline must watch for system config updates.
type Config struct {
	// Genesis anchors the L1/L2 block pair derivation starts from.
	Genesis Genesis `json:"genesis"`
	// BlockTime is the number of seconds between L2 blocks.
	BlockTime uint64 `json:"block_time"`
	// MaxSequencerDrift is the max number of seconds a sequencer may
	// backdate an L2 block's timestamp relative to its L1 origin.
	MaxSequencerDrift uint64 `json:"max_sequencer_drift"`
	// SeqWindowSize is the number of L1 blocks per sequencing window.
	SeqWindowSize uint64 `json:"seq_window_size"`
	// ChannelTimeout is the number of L1 blocks a channel may remain open.
	ChannelTimeout uint64 `json:"channel_timeout"`
	// L1ChainID is the identity of the L1 chain this rollup derives from.
	L1ChainID *big.Int `json:"l1_chain_id"`
	// L2ChainID is the identity of this rollup's L2 chain.
	L2ChainID *big.Int `json:"l2_chain_id"`
	// BatchInboxAddress is the L1 address batches are submitted to.
	BatchInboxAddress common.Address `json:"batch_inbox_address"`
	// DepositContractAddress is the L1 address deposits are emitted from.
	DepositContractAddress common.Address `json:"deposit_contract_address"`
	// L1SystemConfigAddress is the L1 address SystemConfig update events
	// are emitted from.
	L1SystemConfigAddress common.Address `json:"l1_system_config_address"`
	// CanyonTime, DeltaTime, EcotoneTime activate their respective upgrade
	// hardforks at the given L2 block timestamp. A nil value means "never
	// activated".
	CanyonTime  *uint64 `json:"canyon_time,omitempty"`
	DeltaTime   *uint64 `json:"delta_time,omitempty"`
	EcotoneTime *uint64 `json:"ecotone_time,omitempty"`
}

// Genesis describes the L1/L2 block pair and initial system config a chain
// starts derivation from.
type Genesis struct {
	L1           eth.BlockID      `json:"l1"`
	L2           eth.BlockID      `json:"l2"`
	L2Time       uint64           `json:"l2_time"`
	SystemConfig eth.SystemConfig `json:"system_config"`
}

// IsCanyon reports whether the Canyon hardfork is active at time t.
func (c *Config) IsCanyon(t uint64) bool {
	return c.CanyonTime != nil && t >= *c.CanyonTime
}

// IsDelta reports whether the Delta hardfork is active at time t.
func (c *Config) IsDelta(t uint64) bool {
	return c.DeltaTime != nil && t >= *c.DeltaTime
}

// IsEcotone reports whether the Ecotone hardfork is active at time t.
func (c *Config) IsEcotone(t uint64) bool {
	return c.EcotoneTime != nil && t >= *c.EcotoneTime
}
