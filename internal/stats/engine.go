// internal/stats/engine.go
package stats

import (
	"math"
	"sort"
	"time"

	"pingwatch/internal/history"
	"pingwatch/internal/probe"
)

// State is the derived availability state of a host.
type State string

const (
	StateUp      State = "up"
	StateDown    State = "down"
	StateUnknown State = "unknown"
)

// LatencyStats summarizes latency over the successful outcomes in a
// window. All values are milliseconds.
type LatencyStats struct {
	MinMS float64 `json:"min_ms"`
	MaxMS float64 `json:"max_ms"`
	AvgMS float64 `json:"avg_ms"`
	P95MS float64 `json:"p95_ms"`
}

// HostStatus is a pure function of a host's retained history plus the
// configured failure threshold. It is recomputed on demand, never stored.
type HostStatus struct {
	State               State         `json:"state"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	UptimePct           float64       `json:"uptime_pct"`
	LossPct             float64       `json:"loss_pct"`
	Latency             *LatencyStats `json:"latency,omitempty"` // nil when no successes in window
	AlarmActive         bool          `json:"alarm_active"`
	Samples             int           `json:"samples"`
	LastMethod          probe.Method  `json:"last_method,omitempty"`
	LastSeen            time.Time     `json:"last_seen,omitempty"`
}

// Engine derives HostStatus values from a history store.
type Engine struct {
	store            *history.Store
	failureThreshold int
}

func NewEngine(store *history.Store, failureThreshold int) *Engine {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &Engine{store: store, failureThreshold: failureThreshold}
}

// Compute derives the current status for a host over its whole retained
// window. It errors only on an unknown host ID.
func (e *Engine) Compute(hostID string) (HostStatus, error) {
	window, err := e.store.Window(hostID, 0)
	if err != nil {
		return HostStatus{}, err
	}
	return Derive(window, e.failureThreshold), nil
}

// Derive computes a HostStatus from an ascending-time window of outcomes.
// Split out from Compute so it can be exercised without a store.
func Derive(window []probe.Outcome, failureThreshold int) HostStatus {
	status := HostStatus{
		State:   StateUnknown,
		Samples: len(window),
	}
	if len(window) == 0 {
		return status
	}

	last := window[len(window)-1]
	status.LastMethod = last.Method
	status.LastSeen = last.Timestamp

	successes := 0
	var latencies []float64
	for _, out := range window {
		if out.Success {
			successes++
			latencies = append(latencies, out.LatencyMS)
		}
	}
	status.UptimePct = round1(100 * float64(successes) / float64(len(window)))
	status.LossPct = round1(100 - status.UptimePct)

	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Success {
			break
		}
		status.ConsecutiveFailures++
	}

	switch {
	case last.Success:
		status.State = StateUp
	case status.ConsecutiveFailures >= failureThreshold:
		status.State = StateDown
	default:
		// Last probe failed but the debounce threshold is not met yet:
		// transitional, keeps single blips from flapping the alarm.
		status.State = StateUnknown
	}
	status.AlarmActive = status.State == StateDown

	if len(latencies) > 0 {
		status.Latency = summarize(latencies)
	}
	return status
}

func summarize(latencies []float64) *LatencyStats {
	min, max, sum := latencies[0], latencies[0], 0.0
	for _, v := range latencies {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return &LatencyStats{
		MinMS: min,
		MaxMS: max,
		AvgMS: sum / float64(len(latencies)),
		P95MS: percentile(latencies, 0.95),
	}
}

// percentile returns the nearest-rank percentile of values. The input is
// not modified.
func percentile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
