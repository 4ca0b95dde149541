// Command monitor probes a Vowline deployment and its host.
//
// Usage:
//
//	monitor -target http://localhost:8080            # run until interrupted
//	monitor -target http://localhost:8080 -once      # one check, exit 1 on alerts
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/vowline/vowline/internal/monitor"
)

func main() {
	var (
		target   = flag.String("target", envOr("MONITOR_TARGET", "http://localhost:8080"), "Base URL of the API")
		interval = flag.Duration("interval", monitor.DefaultInterval, "Time between checks")
		timeout  = flag.Duration("timeout", 10*time.Second, "Per-request timeout")
		diskPath = flag.String("disk-path", "/", "Mount point whose usage is checked")
		cpuMax   = flag.Float64("cpu", monitor.DefaultCPUPercent, "CPU alert threshold, percent")
		memMax   = flag.Float64("memory", monitor.DefaultMemoryPercent, "Memory alert threshold, percent")
		diskMax  = flag.Float64("disk", monitor.DefaultDiskPercent, "Disk alert threshold, percent")
		slow     = flag.Duration("slow", monitor.DefaultSlowResponse, "Response time alert threshold")
		once     = flag.Bool("once", false, "Run a single check and exit")
		noHost   = flag.Bool("no-host", false, "Skip CPU, memory and disk sampling")
	)
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{TimeFormat: time.Kitchen}))
	slog.SetDefault(logger)

	cfg := monitor.Config{
		BaseURL: *target,
		Thresholds: monitor.Thresholds{
			CPUPercent:    *cpuMax,
			MemoryPercent: *memMax,
			DiskPercent:   *diskMax,
			SlowResponse:  *slow,
		},
		Interval: *interval,
		Timeout:  *timeout,
		Logger:   logger,
	}
	if !*noHost {
		cfg.Sampler = monitor.HostSampler{DiskPath: *diskPath}
	}

	m, err := monitor.New(cfg)
	if err != nil {
		logger.Error("invalid monitor config", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		report := m.Check(ctx)
		if !report.Healthy() {
			stop()
			os.Exit(1)
		}
		return
	}

	if err := m.Run(ctx); err != nil {
		logger.Error("monitor error", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
