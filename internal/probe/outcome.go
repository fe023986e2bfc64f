// internal/probe/outcome.go
package probe

import (
	"context"
	"errors"
	"time"
)

// Method identifies which reachability check produced an outcome.
type Method string

const (
	// MethodPrimary is an ICMP-style echo via the system ping binary.
	MethodPrimary Method = "icmp"
	// MethodFallback is a TCP connect to a well-known port, used when
	// ICMP is blocked or unavailable.
	MethodFallback Method = "tcp"
)

// FailureKind classifies an unsuccessful probe.
type FailureKind string

const (
	FailTimeout           FailureKind = "timeout"
	FailUnreachable       FailureKind = "unreachable"
	FailMethodUnavailable FailureKind = "method_unavailable"
	FailUnknown           FailureKind = "unknown_error"
)

// Outcome is a single immutable probe result.
// LatencyMS is meaningful only when Success is true; Failure is set only
// when Success is false.
type Outcome struct {
	Timestamp time.Time   `json:"timestamp"`
	Method    Method      `json:"method"`
	Success   bool        `json:"success"`
	LatencyMS float64     `json:"latency_ms,omitempty"`
	Failure   FailureKind `json:"failure,omitempty"`
}

// Probe-level errors returned by Pinger and Dialer implementations. The
// executor classifies these into FailureKind values; they never escape as
// process errors.
var (
	ErrTimeout           = errors.New("probe timed out")
	ErrUnreachable       = errors.New("host unreachable")
	ErrMethodUnavailable = errors.New("probe method unavailable")
)

// Pinger performs one ICMP-style echo against an address.
type Pinger interface {
	Ping(ctx context.Context, addr string, timeout time.Duration) (time.Duration, error)
}

// Dialer attempts one TCP connect to addr:port.
type Dialer interface {
	Dial(ctx context.Context, addr string, port int, timeout time.Duration) (time.Duration, error)
}
