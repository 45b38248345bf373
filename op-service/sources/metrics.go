package sources

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the narrow slice of chain-provider observability a client
// needs: how many RPC round trips went out, and how many lookups were
// satisfied from the LRU caches instead.
type Metrics interface {
	RecordRPCCall(method string)
	RecordCacheHit(cache string)
}

// CollectorMetrics implements Metrics with two prometheus counter vecs,
// registered into the provided registerer. The host does not start a
// metrics server of its own; whoever gathers from that registerer exports
// them.
type CollectorMetrics struct {
	rpcCalls  *prometheus.CounterVec
	cacheHits *prometheus.CounterVec
}

func NewMetrics(ns string, registerer prometheus.Registerer) *CollectorMetrics {
	m := &CollectorMetrics{
		rpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "rpc_calls_total",
			Help:      "Number of outbound chain-provider RPC calls, by method.",
		}, []string{"method"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_hits_total",
			Help:      "Number of chain-provider lookups served from an LRU cache, by cache name.",
		}, []string{"cache"}),
	}
	registerer.MustRegister(m.rpcCalls, m.cacheHits)
	return m
}

func (m *CollectorMetrics) RecordRPCCall(method string) {
	m.rpcCalls.WithLabelValues(method).Inc()
}

func (m *CollectorMetrics) RecordCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// noopMetrics is used when the caller passes a nil Metrics, e.g. short-lived
// test clients that don't stand up a registry of their own.
type noopMetrics struct{}

func (noopMetrics) RecordRPCCall(string)  {}
func (noopMetrics) RecordCacheHit(string) {}
