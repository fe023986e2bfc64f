// internal/journal/journal_test.go
package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pingwatch/internal/monitoring"
	"pingwatch/internal/probe"
)

var testHost = monitoring.Host{ID: "h1", Name: "Router", Address: "192.168.1.1"}

func outcome(ts time.Time, success bool) probe.Outcome {
	out := probe.Outcome{Timestamp: ts, Method: probe.MethodPrimary, Success: success}
	if success {
		out.LatencyMS = 12.5
	} else {
		out.Failure = probe.FailTimeout
	}
	return out
}

func TestBoltRecordAndHistory(t *testing.T) {
	j, err := OpenBolt(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := j.Record(testHost, outcome(base.Add(time.Duration(i)*time.Second), i%2 == 0)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	// Another host's entries must not bleed into h1's history.
	other := monitoring.Host{ID: "h2", Name: "DNS", Address: "8.8.8.8"}
	if err := j.Record(other, outcome(base, true)); err != nil {
		t.Fatalf("record other: %v", err)
	}

	entries, err := j.History("h1", time.Time{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("entries = %d, want 5", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.Before(entries[i-1].Timestamp) {
			t.Fatalf("history not time-ordered at %d", i)
		}
	}
	if entries[0].Name != "Router" || entries[0].Address != "192.168.1.1" {
		t.Fatalf("identity not journaled: %+v", entries[0])
	}

	since, err := j.History("h1", base.Add(3*time.Second))
	if err != nil {
		t.Fatalf("history since: %v", err)
	}
	if len(since) != 2 {
		t.Fatalf("since entries = %d, want 2", len(since))
	}
}

func TestBoltPrune(t *testing.T) {
	j, err := OpenBolt(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		if err := j.Record(testHost, outcome(base.Add(time.Duration(i)*time.Minute), true)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	removed, err := j.Prune(base.Add(4 * time.Minute))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 4 {
		t.Fatalf("removed = %d, want 4", removed)
	}

	entries, err := j.History("h1", time.Time{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries after prune = %d, want 2", len(entries))
	}
}

func TestCSVHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ping_log.csv")

	log, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := log.Record(testHost, outcome(ts, true)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := log.Record(testHost, outcome(ts.Add(time.Second), false)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][5] != "method" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][3] != "1" || rows[1][4] != "12.5" {
		t.Fatalf("success row = %v", rows[1])
	}
	// Failed probes log no latency value at all.
	if rows[2][3] != "0" || rows[2][4] != "" {
		t.Fatalf("failure row = %v", rows[2])
	}
}

func TestCSVReopenDoesNotDuplicateHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ping_log.csv")

	log, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	_ = log.Record(testHost, outcome(ts, true))
	_ = log.Close()

	log, err = OpenCSV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = log.Record(testHost, outcome(ts.Add(time.Second), true))
	_ = log.Close()

	f, _ := os.Open(path)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
}
