package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"pingwatch/internal/config"
	"pingwatch/internal/journal"
	"pingwatch/internal/metrics"
	"pingwatch/internal/monitoring"
	"pingwatch/internal/web"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Configuration file path")
	version := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *version {
		fmt.Printf("pingwatch %s\nCommit: %s\nBuilt:  %s\n", web.Version, web.GitCommit, web.BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	setupLogging(cfg.Logging)

	logrus.WithFields(logrus.Fields{
		"config_file": *configFile,
		"port":        cfg.Server.Port,
		"hosts":       len(cfg.Hosts),
	}).Info("Starting pingwatch")

	// Initialize metrics
	metricsCollector := metrics.NewCollector()

	// Initialize monitor core
	core, err := monitoring.NewCore(cfg, metricsCollector)
	if err != nil {
		logrus.Fatalf("Failed to initialize monitor core: %v", err)
	}

	// Initialize outcome journal
	boltJournal, err := journal.OpenBolt(cfg.Journal.Path)
	if err != nil {
		logrus.Fatalf("Failed to open journal: %v", err)
	}
	defer boltJournal.Close()
	core.AddSink(boltJournal)

	if cfg.Journal.CSVPath != "" {
		csvLog, err := journal.OpenCSV(cfg.Journal.CSVPath)
		if err != nil {
			logrus.Fatalf("Failed to open CSV log: %v", err)
		}
		defer csvLog.Close()
		core.AddSink(csvLog)
	}

	// Initialize web server; it doubles as the live-update sink
	webServer := web.NewServer(cfg, core, metricsCollector)
	core.AddSink(webServer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := core.Start(ctx); err != nil {
		logrus.Fatalf("Failed to start monitor core: %v", err)
	}

	if err := webServer.Start(ctx); err != nil {
		logrus.Fatalf("Failed to start web server: %v", err)
	}

	go pruneLoop(ctx, boltJournal, cfg.Journal.Retention.Std())

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logrus.WithField("signal", sig).Info("Received shutdown signal")

	// Graceful shutdown: stop probing first so nothing writes to the
	// journal after it closes, then drain the web server.
	cancel()
	core.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := webServer.Stop(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Web server shutdown failed")
	}

	logrus.Info("Shutdown complete")
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// pruneLoop deletes journal entries older than the retention window,
// once at startup and then hourly.
func pruneLoop(ctx context.Context, j *journal.BoltJournal, retention time.Duration) {
	if retention <= 0 {
		return
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		removed, err := j.Prune(time.Now().Add(-retention))
		if err != nil {
			logrus.WithError(err).Warn("Journal prune failed")
		} else if removed > 0 {
			logrus.WithField("removed", removed).Info("Pruned journal entries")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
