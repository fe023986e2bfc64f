// internal/monitoring/scheduler.go
package monitoring

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"pingwatch/internal/metrics"
	"pingwatch/internal/probe"
)

// Prober runs one reachability check against an address.
type Prober interface {
	Probe(ctx context.Context, addr string) probe.Outcome
}

// ProberFactory builds the executor owned by one host's probe cycle.
type ProberFactory func(h Host) Prober

type SchedulerOptions struct {
	Hosts    []Host
	Interval time.Duration
	Grace    time.Duration
	Factory  ProberFactory
	Record   func(Host, probe.Outcome)
	Metrics  *metrics.Collector
}

// Scheduler drives one independent probe cycle per host on a shared fixed
// interval. Start times are staggered evenly across the interval so the
// hosts never probe in lockstep, and each host has at most one probe in
// flight: a tick that arrives while the previous probe is still running is
// skipped, not queued.
type Scheduler struct {
	interval time.Duration
	grace    time.Duration
	hosts    []Host
	probers  map[string]Prober
	inflight map[string]*atomic.Bool
	record   func(Host, probe.Outcome)
	metrics  *metrics.Collector

	// Cleared once the stop grace period expires; probes finishing after
	// that are abandoned and their outcomes discarded.
	accepting atomic.Bool

	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
}

func NewScheduler(opts SchedulerOptions) *Scheduler {
	probers := make(map[string]Prober, len(opts.Hosts))
	inflight := make(map[string]*atomic.Bool, len(opts.Hosts))
	for _, h := range opts.Hosts {
		probers[h.ID] = opts.Factory(h)
		inflight[h.ID] = &atomic.Bool{}
	}
	return &Scheduler{
		interval: opts.Interval,
		grace:    opts.Grace,
		hosts:    opts.Hosts,
		probers:  probers,
		inflight: inflight,
		record:   opts.Record,
		metrics:  opts.Metrics,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.accepting.Store(true)

	logrus.WithFields(logrus.Fields{
		"hosts":    len(s.hosts),
		"interval": s.interval,
	}).Info("Starting scheduler")

	for i, host := range s.hosts {
		offset := s.interval * time.Duration(i) / time.Duration(len(s.hosts))
		s.wg.Add(1)
		go s.runHost(ctx, host, offset)
	}
	return nil
}

// Stop cancels all probe cycles and waits up to the grace timeout for
// in-flight probes to finish. Probes still running after that are
// abandoned; their eventual results are discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false

	logrus.Info("Stopping scheduler")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(s.grace):
		s.accepting.Store(false)
		logrus.WithField("grace", s.grace).Warn("Grace timeout expired, abandoning in-flight probes")
		return
	}
	s.accepting.Store(false)
}

func (s *Scheduler) runHost(ctx context.Context, host Host, offset time.Duration) {
	defer s.wg.Done()

	if offset > 0 {
		timer := time.NewTimer(offset)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}

	s.launch(ctx, host)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.launch(ctx, host)
		case <-ctx.Done():
			return
		}
	}
}

// launch starts one probe for the host unless one is already in flight,
// in which case the tick is logged and dropped.
func (s *Scheduler) launch(ctx context.Context, host Host) {
	flag := s.inflight[host.ID]
	if !flag.CompareAndSwap(false, true) {
		logrus.WithFields(logrus.Fields{
			"host":    host.Name,
			"address": host.Address,
		}).Debug("Skipping tick, probe still in flight")
		s.metrics.RecordSkippedTick(host.Name)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer flag.Store(false)

		outcome := s.probers[host.ID].Probe(ctx, host.Address)
		if !s.accepting.Load() {
			return
		}
		s.record(host, outcome)
	}()
}
