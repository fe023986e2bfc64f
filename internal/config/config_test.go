// internal/config/config_test.go
package config

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func init() {
	logrus.SetOutput(io.Discard)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
hosts:
  - name: Router
    address: 192.168.1.1
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Monitor.Interval.Std() != 5*time.Second {
		t.Fatalf("interval = %v, want 5s", cfg.Monitor.Interval)
	}
	if cfg.Monitor.FailureThreshold != 3 {
		t.Fatalf("threshold = %d, want 3", cfg.Monitor.FailureThreshold)
	}
	if cfg.Monitor.HistorySize != 2880 {
		t.Fatalf("history_size = %d, want 2880", cfg.Monitor.HistorySize)
	}
	if got := cfg.Monitor.FallbackPorts; len(got) != 3 || got[0] != 53 {
		t.Fatalf("fallback_ports = %v, want [53 80 443]", got)
	}
	if cfg.Server.Port != ":8080" {
		t.Fatalf("port = %q, want :8080", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("logging defaults = %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestParseSkipsInvalidHostEntries(t *testing.T) {
	cfg, err := Parse([]byte(`
hosts:
  - name: Good
    address: 8.8.8.8
  - name: NoAddress
  - name: Spacey
    address: "not a host"
  - address: 1.1.1.1
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(cfg.Hosts) != 2 {
		t.Fatalf("hosts = %d, want 2 (invalid entries skipped)", len(cfg.Hosts))
	}
	if cfg.Hosts[0].Name != "Good" {
		t.Fatalf("hosts[0] = %q", cfg.Hosts[0].Name)
	}
	// Name defaults to the address when omitted.
	if cfg.Hosts[1].Name != "1.1.1.1" {
		t.Fatalf("hosts[1].Name = %q, want 1.1.1.1", cfg.Hosts[1].Name)
	}
}

func TestParseNoValidHosts(t *testing.T) {
	_, err := Parse([]byte(`
hosts:
  - name: Broken
`))
	if err == nil || !strings.Contains(err.Error(), "no valid hosts") {
		t.Fatalf("err = %v, want no valid hosts", err)
	}
}

func TestParseDuplicateHostID(t *testing.T) {
	_, err := Parse([]byte(`
hosts:
  - id: h1
    address: 1.1.1.1
  - id: h1
    address: 8.8.8.8
`))
	if err == nil || !strings.Contains(err.Error(), "duplicate host ID") {
		t.Fatalf("err = %v, want duplicate host ID", err)
	}
}

func TestParseBadFallbackPort(t *testing.T) {
	_, err := Parse([]byte(`
monitor:
  fallback_ports: [80, 70000]
hosts:
  - address: 1.1.1.1
`))
	if err == nil || !strings.Contains(err.Error(), "invalid port") {
		t.Fatalf("err = %v, want invalid port", err)
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
monitor:
  interval: 30s
  timeout_primary: 1s
  timeout_fallback: 3s
  failure_threshold: 2
  history_size: 120
logging:
  level: debug
  format: json
hosts:
  - address: 1.1.1.1
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Monitor.Interval.Std() != 30*time.Second {
		t.Fatalf("interval = %v", cfg.Monitor.Interval)
	}
	if cfg.Monitor.FailureThreshold != 2 || cfg.Monitor.HistorySize != 120 {
		t.Fatalf("threshold/history = %d/%d", cfg.Monitor.FailureThreshold, cfg.Monitor.HistorySize)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format = %q", cfg.Logging.Format)
	}
}
