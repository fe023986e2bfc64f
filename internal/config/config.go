// internal/config/config.go
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Duration accepts "5s" / "2m" style YAML values, which yaml.v3 does not
// decode into time.Duration on its own.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"5s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Logging    LoggingConfig    `yaml:"logging"`
	Journal    JournalConfig    `yaml:"journal"`
	Hosts      []HostConfig     `yaml:"hosts"`
}

type ServerConfig struct {
	Port          string   `yaml:"port"`
	ReadTimeout   Duration `yaml:"read_timeout"`
	WriteTimeout  Duration `yaml:"write_timeout"`
	DashboardFile string   `yaml:"dashboard_file"`
}

type MonitorConfig struct {
	Interval         Duration `yaml:"interval"`
	TimeoutPrimary   Duration `yaml:"timeout_primary"`
	TimeoutFallback  Duration `yaml:"timeout_fallback"`
	FailureThreshold int      `yaml:"failure_threshold"`
	HistorySize      int      `yaml:"history_size"`
	GraceTimeout     Duration `yaml:"grace_timeout"`
	FallbackPorts    []int    `yaml:"fallback_ports"`
}

type PrometheusConfig struct {
	Enabled     bool   `yaml:"enabled"`
	MetricsPath string `yaml:"metrics_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type JournalConfig struct {
	Path      string   `yaml:"path"`
	CSVPath   string   `yaml:"csv_path"`
	Retention Duration `yaml:"retention"`
}

type HostConfig struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults, and validates a raw YAML config. Invalid host
// entries are skipped with a warning rather than failing the whole load;
// only an empty resulting host set is fatal.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	setDefaults(&cfg)
	cfg.Hosts = filterHosts(cfg.Hosts)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.DashboardFile == "" {
		cfg.Server.DashboardFile = "web/index.html"
	}

	if cfg.Monitor.Interval == 0 {
		cfg.Monitor.Interval = Duration(5 * time.Second)
	}
	if cfg.Monitor.TimeoutPrimary == 0 {
		cfg.Monitor.TimeoutPrimary = Duration(2 * time.Second)
	}
	if cfg.Monitor.TimeoutFallback == 0 {
		cfg.Monitor.TimeoutFallback = Duration(2 * time.Second)
	}
	if cfg.Monitor.FailureThreshold == 0 {
		cfg.Monitor.FailureThreshold = 3
	}
	if cfg.Monitor.HistorySize == 0 {
		// Roughly four hours of retained outcomes at the default 5s
		// interval.
		cfg.Monitor.HistorySize = 2880
	}
	if cfg.Monitor.GraceTimeout == 0 {
		cfg.Monitor.GraceTimeout = Duration(5 * time.Second)
	}
	if len(cfg.Monitor.FallbackPorts) == 0 {
		cfg.Monitor.FallbackPorts = []int{53, 80, 443}
	}

	if cfg.Prometheus.MetricsPath == "" {
		cfg.Prometheus.MetricsPath = "/metrics"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.Journal.Retention == 0 {
		cfg.Journal.Retention = Duration(7 * 24 * time.Hour)
	}
}

// filterHosts drops entries that cannot be monitored. A bad entry is a
// per-entry problem, not a reason to abort the process.
func filterHosts(hosts []HostConfig) []HostConfig {
	valid := hosts[:0]
	for _, h := range hosts {
		h.Address = strings.TrimSpace(h.Address)
		if h.Address == "" {
			logrus.WithField("name", h.Name).Warn("Skipping host entry without address")
			continue
		}
		if !validAddress(h.Address) {
			logrus.WithFields(logrus.Fields{
				"name":    h.Name,
				"address": h.Address,
			}).Warn("Skipping host entry with malformed address")
			continue
		}
		if h.Name == "" {
			h.Name = h.Address
		}
		valid = append(valid, h)
	}
	return valid
}

// validAddress accepts an IP literal or a plausible hostname.
func validAddress(addr string) bool {
	if net.ParseIP(addr) != nil {
		return true
	}
	if strings.ContainsAny(addr, " \t/:") {
		return false
	}
	return len(addr) <= 253
}

func validate(cfg *Config) error {
	if len(cfg.Hosts) == 0 {
		return fmt.Errorf("no valid hosts configured")
	}
	if cfg.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}
	if cfg.Monitor.FailureThreshold < 1 {
		return fmt.Errorf("monitor.failure_threshold must be at least 1")
	}
	if cfg.Monitor.HistorySize < 1 {
		return fmt.Errorf("monitor.history_size must be at least 1")
	}
	for _, port := range cfg.Monitor.FallbackPorts {
		if port < 1 || port > 65535 {
			return fmt.Errorf("monitor.fallback_ports contains invalid port %d", port)
		}
	}

	seen := make(map[string]bool)
	for _, h := range cfg.Hosts {
		if h.ID == "" {
			continue
		}
		if seen[h.ID] {
			return fmt.Errorf("duplicate host ID: %s", h.ID)
		}
		seen[h.ID] = true
	}
	return nil
}
