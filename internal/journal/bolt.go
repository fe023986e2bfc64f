// internal/journal/bolt.go
package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
	"pingwatch/internal/monitoring"
	"pingwatch/internal/probe"
)

var outcomesBucket = []byte("outcomes")

// Entry is one journaled probe outcome with its host identity attached.
type Entry struct {
	HostID    string            `json:"host_id"`
	Name      string            `json:"name"`
	Address   string            `json:"address"`
	Timestamp time.Time         `json:"timestamp"`
	Method    probe.Method      `json:"method"`
	Success   bool              `json:"success"`
	LatencyMS float64           `json:"latency_ms,omitempty"`
	Failure   probe.FailureKind `json:"failure,omitempty"`
}

// BoltJournal persists every probe outcome to an embedded BoltDB file.
// Keys are "<hostID>:<unixnano>" so a cursor seek on the host prefix walks
// one host's outcomes in time order.
type BoltJournal struct {
	db *bbolt.DB
}

func OpenBolt(path string) (*BoltJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(outcomesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal bucket: %w", err)
	}

	return &BoltJournal{db: db}, nil
}

// Record implements monitoring.OutcomeSink.
func (j *BoltJournal) Record(host monitoring.Host, outcome probe.Outcome) error {
	entry := Entry{
		HostID:    host.ID,
		Name:      host.Name,
		Address:   host.Address,
		Timestamp: outcome.Timestamp,
		Method:    outcome.Method,
		Success:   outcome.Success,
		LatencyMS: outcome.LatencyMS,
		Failure:   outcome.Failure,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	key := fmt.Sprintf("%s:%019d", host.ID, outcome.Timestamp.UnixNano())
	return j.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(outcomesBucket).Put([]byte(key), data)
	})
}

// History returns a host's journaled outcomes at or after since, ascending
// by time.
func (j *BoltJournal) History(hostID string, since time.Time) ([]Entry, error) {
	var entries []Entry

	err := j.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(outcomesBucket).Cursor()
		prefix := hostID + ":"

		for k, v := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			if entry.Timestamp.Before(since) {
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})

	return entries, err
}

// Prune deletes journal entries older than cutoff and reports how many
// were removed.
func (j *BoltJournal) Prune(cutoff time.Time) (int, error) {
	removed := 0

	err := j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(outcomesBucket)
		c := b.Cursor()

		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			if entry.Timestamp.Before(cutoff) {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})

	return removed, err
}

func (j *BoltJournal) Close() error {
	return j.db.Close()
}
