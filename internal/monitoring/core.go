// internal/monitoring/core.go
package monitoring

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"pingwatch/internal/config"
	"pingwatch/internal/history"
	"pingwatch/internal/metrics"
	"pingwatch/internal/probe"
	"pingwatch/internal/stats"
)

// Host is one monitored endpoint. The set is fixed for the process
// lifetime; reconfiguration requires a restart.
type Host struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// OutcomeSink receives every recorded probe outcome, in per-host
// completion order. Persistence collaborators and the live web hub both
// implement this.
type OutcomeSink interface {
	Record(host Host, outcome probe.Outcome) error
}

// HostSnapshot pairs a host's identity with its derived status.
type HostSnapshot struct {
	Host   Host             `json:"host"`
	Status stats.HostStatus `json:"status"`
}

// Core is the composition root: it owns the host set, the history store,
// the stats engine, and the scheduler, and exposes a read-only snapshot
// API that is safe to call concurrently with ongoing probing.
type Core struct {
	cfg       *config.Config
	hosts     []Host
	byID      map[string]Host
	store     *history.Store
	engine    *stats.Engine
	scheduler *Scheduler
	metrics   *metrics.Collector

	mu      sync.Mutex
	sinks   []OutcomeSink
	running bool
}

func NewCore(cfg *config.Config, collector *metrics.Collector) (*Core, error) {
	hosts := make([]Host, 0, len(cfg.Hosts))
	byID := make(map[string]Host, len(cfg.Hosts))
	for _, hc := range cfg.Hosts {
		h := Host{ID: hc.ID, Name: hc.Name, Address: hc.Address}
		if h.ID == "" {
			h.ID = uuid.New().String()
		}
		if _, dup := byID[h.ID]; dup {
			return nil, fmt.Errorf("duplicate host ID: %s", h.ID)
		}
		hosts = append(hosts, h)
		byID[h.ID] = h
	}
	if len(hosts) == 0 {
		return nil, fmt.Errorf("no hosts to monitor")
	}

	ids := make([]string, len(hosts))
	for i, h := range hosts {
		ids[i] = h.ID
	}

	store := history.NewStore(ids, cfg.Monitor.HistorySize)
	core := &Core{
		cfg:     cfg,
		hosts:   hosts,
		byID:    byID,
		store:   store,
		engine:  stats.NewEngine(store, cfg.Monitor.FailureThreshold),
		metrics: collector,
	}

	executorOpts := probe.ExecutorOptions{
		TimeoutPrimary:  cfg.Monitor.TimeoutPrimary.Std(),
		TimeoutFallback: cfg.Monitor.TimeoutFallback.Std(),
		FallbackPorts:   cfg.Monitor.FallbackPorts,
	}
	factory := func(h Host) Prober {
		return probe.NewExecutor(
			probe.NewSystemPinger(),
			probe.NetDialer{},
			executorOpts,
			logrus.WithField("host", h.Name),
		)
	}

	core.scheduler = NewScheduler(SchedulerOptions{
		Hosts:    hosts,
		Interval: cfg.Monitor.Interval.Std(),
		Grace:    cfg.Monitor.GraceTimeout.Std(),
		Factory:  factory,
		Record:   core.Record,
		Metrics:  collector,
	})

	return core, nil
}

// AddSink registers an outcome sink. Must be called before Start.
func (c *Core) AddSink(sink OutcomeSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, sink)
}

func (c *Core) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"hosts":    len(c.hosts),
		"interval": c.cfg.Monitor.Interval.Std(),
	}).Info("Starting monitor core")

	c.metrics.SetActiveHosts(len(c.hosts))
	return c.scheduler.Start(ctx)
}

func (c *Core) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}

	logrus.Info("Stopping monitor core")
	c.scheduler.Stop()
	c.running = false
}

// Record is the single write path from the scheduler into shared state:
// it appends to history, refreshes metrics, and fans out to sinks.
func (c *Core) Record(host Host, outcome probe.Outcome) {
	if err := c.store.Append(host.ID, outcome); err != nil {
		logrus.WithError(err).WithField("host", host.Name).Error("Failed to append outcome")
		return
	}

	c.metrics.RecordProbe(host.Name, string(outcome.Method), outcome.Success, outcome.LatencyMS)
	if status, err := c.engine.Compute(host.ID); err == nil {
		c.metrics.UpdateHostState(host.Name, string(status.State), status.ConsecutiveFailures)
	}

	c.mu.Lock()
	sinks := c.sinks
	c.mu.Unlock()
	for _, sink := range sinks {
		if err := sink.Record(host, outcome); err != nil {
			logrus.WithError(err).WithField("host", host.Name).Warn("Outcome sink failed")
		}
	}
}

// Hosts returns the monitored host set.
func (c *Core) Hosts() []Host {
	out := make([]Host, len(c.hosts))
	copy(out, c.hosts)
	return out
}

// Host looks up a monitored host by ID.
func (c *Core) Host(id string) (Host, bool) {
	h, ok := c.byID[id]
	return h, ok
}

// Status derives the current status of one host.
func (c *Core) Status(id string) (stats.HostStatus, error) {
	return c.engine.Compute(id)
}

// ListHosts returns a snapshot of every monitored host with its derived
// status, in configuration order.
func (c *Core) ListHosts() []HostSnapshot {
	snapshots := make([]HostSnapshot, 0, len(c.hosts))
	for _, h := range c.hosts {
		status, err := c.engine.Compute(h.ID)
		if err != nil {
			continue
		}
		snapshots = append(snapshots, HostSnapshot{Host: h, Status: status})
	}
	return snapshots
}

// History returns up to lastN most recent outcomes for a host, ascending
// by time. lastN <= 0 returns the whole retained window.
func (c *Core) History(hostID string, lastN int) ([]probe.Outcome, error) {
	return c.store.Window(hostID, lastN)
}
