// Package rpc is the thin dispatch layer §4.5 describes: translate an
// inbound request into a Datastore call, await the reply under a 30-second
// deadline, and map the result onto an HTTP response. It contains no
// business logic — every decision (existence, referential integrity,
// persistence, evaluation) is made by internal/service.Datastore.
package rpc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exported on /metrics, grounded on
// the teacher's Metrics wrapper: one counter vector for requests by
// operation and outcome, one histogram vector for latency, and one counter vector for policy
// decisions.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	PolicyDecisions *prometheus.CounterVec
}

// NewMetrics registers the gatehouse_* collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Name:      "requests_total",
			Help:      "Total number of RPC requests, by operation and result.",
		}, []string{"op", "result"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gatehouse",
			Name:      "request_duration_seconds",
			Help:      "RPC request latency in seconds, by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		PolicyDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gatehouse",
			Name:      "policy_decisions_total",
			Help:      "Total number of Check decisions, by outcome.",
		}, []string{"decision"}),
	}
}
