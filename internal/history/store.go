// internal/history/store.go
package history

import (
	"errors"
	"sync"

	"pingwatch/internal/probe"
)

// ErrUnknownHost is returned for any host ID the store was not built with.
// The monitored host set is fixed for the process lifetime, so the store
// never grows new entries.
var ErrUnknownHost = errors.New("unknown host")

// Store keeps a bounded, time-ordered ring of probe outcomes per host.
//
// Retention is count-based: each host keeps its most recent N outcomes and
// evicts the oldest on append. That means uptime/loss percentages derived
// from a window cover the last N probes, not a fixed wall-clock span.
//
// The host map is immutable after construction and each ring carries its
// own lock, so appends and reads for different hosts never contend.
type Store struct {
	capacity int
	hosts    map[string]*ring
}

type ring struct {
	mu    sync.RWMutex
	buf   []probe.Outcome
	start int
	n     int
}

// NewStore builds a store for exactly the given host IDs with the given
// per-host capacity.
func NewStore(hostIDs []string, capacity int) *Store {
	if capacity < 1 {
		capacity = 1
	}
	hosts := make(map[string]*ring, len(hostIDs))
	for _, id := range hostIDs {
		hosts[id] = &ring{buf: make([]probe.Outcome, capacity)}
	}
	return &Store{capacity: capacity, hosts: hosts}
}

// Capacity returns the per-host retention limit.
func (s *Store) Capacity() int {
	return s.capacity
}

// Append records one outcome for the host, evicting the oldest entry when
// the ring is full. It fails only for an unknown host ID.
func (s *Store) Append(hostID string, out probe.Outcome) error {
	r, ok := s.hosts[hostID]
	if !ok {
		return ErrUnknownHost
	}

	r.mu.Lock()
	if r.n == len(r.buf) {
		r.buf[r.start] = out
		r.start = (r.start + 1) % len(r.buf)
	} else {
		r.buf[(r.start+r.n)%len(r.buf)] = out
		r.n++
	}
	r.mu.Unlock()
	return nil
}

// Window returns up to lastN most recent outcomes for the host in
// ascending time order. lastN <= 0 returns the whole retained window. The
// returned slice is a copy and safe to hold across appends.
func (s *Store) Window(hostID string, lastN int) ([]probe.Outcome, error) {
	r, ok := s.hosts[hostID]
	if !ok {
		return nil, ErrUnknownHost
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.n
	if lastN > 0 && lastN < n {
		n = lastN
	}
	out := make([]probe.Outcome, n)
	first := r.start + (r.n - n)
	for i := 0; i < n; i++ {
		out[i] = r.buf[(first+i)%len(r.buf)]
	}
	return out, nil
}

// Latest returns the most recent outcome for the host. The second return
// is false when the host has not been probed yet.
func (s *Store) Latest(hostID string) (probe.Outcome, bool, error) {
	r, ok := s.hosts[hostID]
	if !ok {
		return probe.Outcome{}, false, ErrUnknownHost
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.n == 0 {
		return probe.Outcome{}, false, nil
	}
	return r.buf[(r.start+r.n-1)%len(r.buf)], true, nil
}

// Len returns how many outcomes the host currently retains.
func (s *Store) Len(hostID string) (int, error) {
	r, ok := s.hosts[hostID]
	if !ok {
		return 0, ErrUnknownHost
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.n, nil
}
