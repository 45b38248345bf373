package sources

import "context"

// RPC is the narrow slice of *rpc.Client every chain provider in this
// package actually calls: one context-scoped request/response round trip.
// Depending on this instead of the concrete *rpc.Client lets tests swap in
// an in-process fake transport instead of dialing a real node.
type RPC interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}
