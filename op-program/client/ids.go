package client

import preimage "github.com/ethereum-optimism/op-fault-host/op-preimage"

// The local preimage key index space: the fixed set of boot parameters the
// host seeds into the local KV store before handing control to the client,
// addressed by LocalIndexKey rather than by content hash since they have no
// canonical pre-existing digest.
const (
	L1HeadLocalIndex preimage.LocalIndexKey = iota + 1
	L2OutputRootLocalIndex
	L2ClaimLocalIndex
	L2ClaimBlockNumberLocalIndex
	L2ChainIDLocalIndex
	L2ClaimBlockHashLocalIndex
	RollupConfigLocalIndex
	L2ChainConfigLocalIndex
)
