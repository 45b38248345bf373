package sources

import (
	"fmt"
	"strings"
)

// RPCProviderKind names the kind of L1 RPC endpoint. It is carried in
// L1ClientConfig, but L1Client does not read it: receipts are always
// fetched with debug_getRawReceipts.
type RPCProviderKind string

const (
	RPCKindAlchemy    RPCProviderKind = "alchemy"
	RPCKindQuickNode  RPCProviderKind = "quicknode"
	RPCKindInfura     RPCProviderKind = "infura"
	RPCKindParity     RPCProviderKind = "parity"
	RPCKindNethermind RPCProviderKind = "nethermind"
	RPCKindDebugGeth  RPCProviderKind = "debug_geth"
	RPCKindErigon     RPCProviderKind = "erigon"
	RPCKindBasic      RPCProviderKind = "basic"
	RPCKindAny        RPCProviderKind = "any"
	RPCKindStandard   RPCProviderKind = "standard"
)

// rpcProviderKindList is a named slice so RPCProviderKinds.String() can be
// used directly in flag usage strings without colliding with
// RPCProviderKind's own Set/String (cli.Generic) methods below.
type rpcProviderKindList []RPCProviderKind

// RPCProviderKinds lists every valid RPCProviderKind, in flag-help order.
var RPCProviderKinds = rpcProviderKindList{
	RPCKindAlchemy,
	RPCKindQuickNode,
	RPCKindInfura,
	RPCKindParity,
	RPCKindNethermind,
	RPCKindDebugGeth,
	RPCKindErigon,
	RPCKindBasic,
	RPCKindAny,
	RPCKindStandard,
}

func (kinds rpcProviderKindList) String() string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return strings.Join(out, ", ")
}

func (k *RPCProviderKind) Set(value string) error {
	for _, kind := range RPCProviderKinds {
		if RPCProviderKind(value) == kind {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown rpc kind: %q", value)
}

func (k *RPCProviderKind) String() string {
	return string(*k)
}
