package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mongodriver", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mongodriver", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// StoreOperations counts collection round trips by operation and result
	// (ok, no_match, error).
	StoreOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mongodriver", Name: "store_operations_total", Help: "Number of collection operations by type and result."},
		[]string{"op", "result"},
	)
	StoreLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "mongodriver", Name: "store_operation_seconds", Help: "Latency of collection operations.", Buckets: prometheus.DefBuckets},
		[]string{"op"},
	)
	SnapshotsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "mongodriver", Name: "snapshots_written_total", Help: "Number of collection snapshots written by sink."},
		[]string{"sink"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(StoreOperations)
	reg.MustRegister(StoreLatency)
	reg.MustRegister(SnapshotsWritten)
}
