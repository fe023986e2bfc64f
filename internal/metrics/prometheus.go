// internal/metrics/prometheus.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pingwatch_probe_duration_seconds",
			Help:    "Latency of successful probes",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host", "method"},
	)

	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pingwatch_probes_total",
			Help: "Total number of probes executed",
		},
		[]string{"host", "method", "result"},
	)

	HostState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pingwatch_host_state",
			Help: "Current host state (1=up, 0=down, -1=unknown)",
		},
		[]string{"host"},
	)

	ConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pingwatch_consecutive_failures",
			Help: "Trailing failed probes ending at the most recent one",
		},
		[]string{"host"},
	)

	SkippedTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pingwatch_skipped_ticks_total",
			Help: "Scheduler ticks skipped because a probe was still in flight",
		},
		[]string{"host"},
	)

	ActiveHosts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pingwatch_active_hosts_total",
			Help: "Number of hosts being monitored",
		},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pingwatch_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)
)

type Collector struct{}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) RecordProbe(host, method string, success bool, latencyMS float64) {
	result := "failure"
	if success {
		result = "success"
	}
	ProbesTotal.WithLabelValues(host, method, result).Inc()
	if success {
		ProbeDuration.WithLabelValues(host, method).Observe(latencyMS / 1000)
	}
}

func (c *Collector) UpdateHostState(host, state string, consecutiveFailures int) {
	HostState.WithLabelValues(host).Set(stateValue(state))
	ConsecutiveFailures.WithLabelValues(host).Set(float64(consecutiveFailures))
}

func (c *Collector) RecordSkippedTick(host string) {
	SkippedTicks.WithLabelValues(host).Inc()
}

func (c *Collector) SetActiveHosts(n int) {
	ActiveHosts.Set(float64(n))
}

func (c *Collector) RecordWebSocketConnection(delta int) {
	WebSocketConnections.Add(float64(delta))
}

func stateValue(state string) float64 {
	switch state {
	case "up":
		return 1
	case "down":
		return 0
	default:
		return -1
	}
}
