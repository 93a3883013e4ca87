package main

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type NodeMetrics struct {
	DeltasSent    metrics.Counter
	DeltasApplied metrics.Counter
	ApplyFailures metrics.Counter
}

func NewNodeMetrics(prometheusAddr string) *NodeMetrics {

	if prometheusAddr == "" {
		return &NodeMetrics{
			DeltasSent:    discard.NewCounter(),
			DeltasApplied: discard.NewCounter(),
			ApplyFailures: discard.NewCounter(),
		}
	}

	return &NodeMetrics{
		DeltasSent: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: "dotted",
			Subsystem: "node",
			Name:      "deltas_sent_total",
			Help:      "Number of CRDT deltas handed to the sender",
		}, nil),
		DeltasApplied: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: "dotted",
			Subsystem: "node",
			Name:      "deltas_applied_total",
			Help:      "Number of incoming CRDT deltas converged into local state",
		}, nil),
		ApplyFailures: prometheus.NewCounterFrom(prom.CounterOpts{
			Namespace: "dotted",
			Subsystem: "node",
			Name:      "apply_failures_total",
			Help:      "Number of incoming CRDT deltas that failed to apply",
		}, nil),
	}
}

func runPromHTTP(logger log.Logger, addr string) {

	if addr == "" {
		level.Debug(logger).Log("msg", "prometheus addr is empty, not exposing prometheus metrics")
		return
	}

	http.Handle("/metrics", promhttp.Handler())

	level.Info(logger).Log("msg", "prometheus handler listening", "addr", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		level.Warn(logger).Log("msg", "failed to serve prometheus metrics", "err", err)
	}
}
