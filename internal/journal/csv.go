// internal/journal/csv.go
package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"pingwatch/internal/monitoring"
	"pingwatch/internal/probe"
)

var csvHeader = []string{"timestamp", "name", "address", "up", "latency_ms", "method"}

// CSVLog appends one row per probe outcome to a delimited log file, the
// same shape operators already graph in spreadsheets.
type CSVLog struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

func OpenCSV(path string) (*CSVLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	info, statErr := os.Stat(path)
	fresh := statErr != nil || info.Size() == 0

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV log: %w", err)
	}

	log := &CSVLog{file: file, w: csv.NewWriter(file)}
	if fresh {
		if err := log.w.Write(csvHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
		log.w.Flush()
		if err := log.w.Error(); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to flush CSV header: %w", err)
		}
	}
	return log, nil
}

// Record implements monitoring.OutcomeSink.
func (l *CSVLog) Record(host monitoring.Host, outcome probe.Outcome) error {
	up := "0"
	latency := ""
	if outcome.Success {
		up = "1"
		latency = strconv.FormatFloat(outcome.LatencyMS, 'f', 1, 64)
	}

	row := []string{
		outcome.Timestamp.UTC().Format(time.RFC3339),
		host.Name,
		host.Address,
		up,
		latency,
		string(outcome.Method),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	l.w.Flush()
	return l.w.Error()
}

func (l *CSVLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}
