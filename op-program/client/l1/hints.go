package l1

// The hint vocabulary is a closed set: the host only ever has to recognize
// these strings. Each one names the preimages it must cause to be
// materialized in the KV store before the ack (or the triggered fetch) is
// returned.
const (
	HintL1BlockHeader       = "l1-block-header"
	HintL1Transactions      = "l1-transactions"
	HintL1Receipts          = "l1-receipts"
	HintL1Blob              = "l1-blob"
	HintL1KZGPointEvaluation = "l1-precompile"

	HintL2BlockHeader  = "l2-block-header"
	HintL2Transactions = "l2-transactions"
	HintL2Code         = "l2-code"
	HintL2StateNode    = "l2-state-node"
	HintL2Output       = "l2-output"
)
