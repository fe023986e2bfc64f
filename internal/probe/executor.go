// internal/probe/executor.go
package probe

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Executor runs one reachability check against one host: the primary
// ICMP-style echo first, then a single TCP-connect fallback pass when the
// primary fails. An executor is owned by exactly one host's probe cycle.
type Executor struct {
	pinger Pinger
	dialer Dialer

	timeoutPrimary  time.Duration
	timeoutFallback time.Duration
	fallbackPorts   []int

	// Set once the primary method proves unusable in this environment
	// (ping binary missing or not permitted). From then on every probe
	// goes straight to the fallback, for the lifetime of the executor.
	downgraded atomic.Bool

	log *logrus.Entry
}

// ExecutorOptions carries the per-attempt tunables.
type ExecutorOptions struct {
	TimeoutPrimary  time.Duration
	TimeoutFallback time.Duration
	FallbackPorts   []int
}

// DefaultFallbackPorts covers DNS/HTTP/HTTPS, which between them answer on
// nearly every host worth monitoring.
var DefaultFallbackPorts = []int{53, 80, 443}

func NewExecutor(pinger Pinger, dialer Dialer, opts ExecutorOptions, log *logrus.Entry) *Executor {
	ports := opts.FallbackPorts
	if len(ports) == 0 {
		ports = DefaultFallbackPorts
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Executor{
		pinger:          pinger,
		dialer:          dialer,
		timeoutPrimary:  opts.TimeoutPrimary,
		timeoutFallback: opts.TimeoutFallback,
		fallbackPorts:   ports,
		log:             log,
	}
}

// Downgraded reports whether this executor has permanently switched to
// fallback-only probing.
func (e *Executor) Downgraded() bool {
	return e.downgraded.Load()
}

// Probe runs one check against addr. Total latency is bounded by
// timeoutPrimary + timeoutFallback; the fallback cost is only paid on the
// primary's failure path.
func (e *Executor) Probe(ctx context.Context, addr string) Outcome {
	now := time.Now().UTC()

	if !e.downgraded.Load() {
		latency, err := e.pinger.Ping(ctx, addr, e.timeoutPrimary)
		if err == nil {
			return Outcome{
				Timestamp: now,
				Method:    MethodPrimary,
				Success:   true,
				LatencyMS: toMillis(latency),
			}
		}

		if errors.Is(err, ErrMethodUnavailable) {
			e.downgraded.Store(true)
			e.log.WithError(err).WithField("addr", addr).
				Warn("Primary probe method unusable, downgrading to TCP fallback permanently")

			latency, derr := e.fallback(ctx, addr)
			if derr == nil {
				return Outcome{
					Timestamp: now,
					Method:    MethodFallback,
					Success:   true,
					LatencyMS: toMillis(latency),
				}
			}
			// The probe that discovered the unusable method reports it
			// as such, not as a generic network failure.
			return Outcome{
				Timestamp: now,
				Method:    MethodFallback,
				Success:   false,
				Failure:   FailMethodUnavailable,
			}
		}

		// Primary usable but host did not answer: one fallback pass
		// before declaring the host down.
		latency, derr := e.fallback(ctx, addr)
		if derr == nil {
			return Outcome{
				Timestamp: now,
				Method:    MethodFallback,
				Success:   true,
				LatencyMS: toMillis(latency),
			}
		}
		return Outcome{
			Timestamp: now,
			Method:    MethodPrimary,
			Success:   false,
			Failure:   classifyFailure(err),
		}
	}

	latency, err := e.fallback(ctx, addr)
	if err == nil {
		return Outcome{
			Timestamp: now,
			Method:    MethodFallback,
			Success:   true,
			LatencyMS: toMillis(latency),
		}
	}
	return Outcome{
		Timestamp: now,
		Method:    MethodFallback,
		Success:   false,
		Failure:   classifyFailure(err),
	}
}

// fallback tries each configured port in order. The whole pass shares one
// timeoutFallback budget, so a slow first port eats into the rest.
func (e *Executor) fallback(ctx context.Context, addr string) (time.Duration, error) {
	deadline := time.Now().Add(e.timeoutFallback)
	lastErr := error(ErrTimeout)

	for _, port := range e.fallbackPorts {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, ErrTimeout
		}
		latency, err := e.dialer.Dial(ctx, addr, port, remaining)
		if err == nil {
			return latency, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

func classifyFailure(err error) FailureKind {
	switch {
	case errors.Is(err, ErrTimeout):
		return FailTimeout
	case errors.Is(err, ErrUnreachable):
		return FailUnreachable
	case errors.Is(err, ErrMethodUnavailable):
		return FailMethodUnavailable
	default:
		return FailUnknown
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
