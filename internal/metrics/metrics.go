package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	sidecarStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ttai",
			Subsystem: "sidecar",
			Name:      "starts_total",
			Help:      "Number of successful sidecar spawns.",
		}, []string{"name"},
	)
	sidecarStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ttai",
			Subsystem: "sidecar",
			Name:      "stops_total",
			Help:      "Number of sidecar stops.",
		}, []string{"name"},
	)
	sidecarSpawnFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ttai",
			Subsystem: "sidecar",
			Name:      "spawn_failures_total",
			Help:      "Number of failed sidecar spawn attempts.",
		}, []string{"name"},
	)
	sidecarUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ttai",
			Subsystem: "sidecar",
			Name:      "up",
			Help:      "Whether a sidecar process handle currently exists (1 or 0).",
		}, []string{"name"},
	)
	readyPolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ttai",
			Subsystem: "sidecar",
			Name:      "ready_polls_total",
			Help:      "Number of health polls issued while waiting for readiness.",
		}, []string{"name"},
	)
	readyWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ttai",
			Subsystem: "sidecar",
			Name:      "ready_wait_seconds",
			Help:      "Time from spawn until the health endpoint first answered.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name"},
	)
	remoteCallErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ttai",
			Subsystem: "sidecar",
			Name:      "remote_call_errors_total",
			Help:      "Number of failed passthrough calls by operation.",
		}, []string{"name", "op"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{sidecarStarts, sidecarStops, sidecarSpawnFailures, sidecarUp, readyPolls, readyWait, remoteCallErrors}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncStart(name string) {
	if regOK.Load() {
		sidecarStarts.WithLabelValues(name).Inc()
	}
}

func IncStop(name string) {
	if regOK.Load() {
		sidecarStops.WithLabelValues(name).Inc()
	}
}

func IncSpawnFailure(name string) {
	if regOK.Load() {
		sidecarSpawnFailures.WithLabelValues(name).Inc()
	}
}

func SetUp(name string, up bool) {
	if regOK.Load() {
		v := 0.0
		if up {
			v = 1.0
		}
		sidecarUp.WithLabelValues(name).Set(v)
	}
}

func IncReadyPoll(name string) {
	if regOK.Load() {
		readyPolls.WithLabelValues(name).Inc()
	}
}

func ObserveReadyWait(name string, seconds float64) {
	if regOK.Load() {
		readyWait.WithLabelValues(name).Observe(seconds)
	}
}

func IncRemoteCallError(name, op string) {
	if regOK.Load() {
		remoteCallErrors.WithLabelValues(name, op).Inc()
	}
}
