// Package monitor probes a running API and its host, turning health
// endpoint results and resource usage into alerts.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Default thresholds.
const (
	DefaultCPUPercent    = 85.0
	DefaultMemoryPercent = 90.0
	DefaultDiskPercent   = 90.0
	DefaultSlowResponse  = 2 * time.Second
	DefaultInterval      = 30 * time.Second
)

// Thresholds are the levels at or above which an alert fires.
type Thresholds struct {
	CPUPercent    float64
	MemoryPercent float64
	DiskPercent   float64
	SlowResponse  time.Duration
}

// DefaultThresholds returns the standard alert levels.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUPercent:    DefaultCPUPercent,
		MemoryPercent: DefaultMemoryPercent,
		DiskPercent:   DefaultDiskPercent,
		SlowResponse:  DefaultSlowResponse,
	}
}

// Alert kinds.
const (
	AlertCPU         = "cpu"
	AlertMemory      = "memory"
	AlertDisk        = "disk"
	AlertSlow        = "slow_response"
	AlertUnhealthy   = "unhealthy"
	AlertUnreachable = "unreachable"
	AlertSampling    = "sampling_failed"
)

// Alert is one threshold breach.
type Alert struct {
	Kind    string
	Target  string
	Message string
}

// EndpointResult is the outcome of probing one endpoint.
type EndpointResult struct {
	Path       string
	StatusCode int
	Duration   time.Duration
	Err        error
}

// Report is the result of one check.
type Report struct {
	CheckedAt time.Time
	Endpoints []EndpointResult
	System    *SystemStats
	SystemErr error
	Alerts    []Alert
}

// Healthy reports whether the check raised no alerts.
func (r *Report) Healthy() bool {
	return len(r.Alerts) == 0
}

// Config configures a Monitor.
type Config struct {
	// BaseURL of the API, e.g. http://localhost:8080.
	BaseURL    string
	Paths      []string
	Thresholds Thresholds
	Interval   time.Duration
	Timeout    time.Duration
	// Sampler reads host stats. Nil skips system checks.
	Sampler SystemSampler
	Client  *http.Client
	Logger  *slog.Logger
}

// Monitor runs periodic checks.
type Monitor struct {
	baseURL    string
	paths      []string
	thresholds Thresholds
	interval   time.Duration
	sampler    SystemSampler
	client     *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Monitor, filling unset fields with defaults.
func New(cfg Config) (*Monitor, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("monitor: base URL is required")
	}
	paths := cfg.Paths
	if len(paths) == 0 {
		paths = []string{"/healthz", "/readyz"}
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = NewHTTPClient(timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	thresholds := cfg.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}

	return &Monitor{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		paths:      paths,
		thresholds: thresholds,
		interval:   interval,
		sampler:    cfg.Sampler,
		client:     client,
		logger:     logger.With("component", "monitor"),
		now:        time.Now,
	}, nil
}

// Run checks every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", "target", m.baseURL, "interval", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.Check(ctx)

		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// Check probes every endpoint, samples the host and logs each alert.
func (m *Monitor) Check(ctx context.Context) *Report {
	report := &Report{CheckedAt: m.now().UTC()}

	for _, path := range m.paths {
		report.Endpoints = append(report.Endpoints, m.probe(ctx, path))
	}

	if m.sampler != nil {
		stats, err := m.sampler.Sample(ctx)
		if err != nil {
			report.SystemErr = err
		} else {
			report.System = &stats
		}
	}

	report.Alerts = Evaluate(report, m.thresholds)
	for _, a := range report.Alerts {
		m.logger.Warn("monitor alert",
			slog.String("kind", a.Kind),
			slog.String("target", a.Target),
			slog.String("message", a.Message),
		)
	}
	if report.Healthy() {
		m.logger.Info("monitor check passed", "endpoints", len(report.Endpoints))
	}
	return report
}

func (m *Monitor) probe(ctx context.Context, path string) EndpointResult {
	result := EndpointResult{Path: path}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path, nil)
	if err != nil {
		result.Err = fmt.Errorf("create request: %w", err)
		return result
	}

	start := time.Now()
	resp, err := m.client.Do(req)
	result.Duration = time.Since(start)
	if err != nil {
		result.Err = err
		return result
	}
	defer resp.Body.Close()

	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	result.StatusCode = resp.StatusCode
	return result
}

// Evaluate turns a report's measurements into alerts.
func Evaluate(r *Report, t Thresholds) []Alert {
	var alerts []Alert

	for _, e := range r.Endpoints {
		switch {
		case e.Err != nil:
			alerts = append(alerts, Alert{Kind: AlertUnreachable, Target: e.Path, Message: e.Err.Error()})
			continue
		case e.StatusCode != http.StatusOK:
			alerts = append(alerts, Alert{Kind: AlertUnhealthy, Target: e.Path, Message: fmt.Sprintf("status %d", e.StatusCode)})
		}
		if t.SlowResponse > 0 && e.Duration >= t.SlowResponse {
			alerts = append(alerts, Alert{Kind: AlertSlow, Target: e.Path, Message: fmt.Sprintf("responded in %s", e.Duration.Round(time.Millisecond))})
		}
	}

	if r.SystemErr != nil {
		alerts = append(alerts, Alert{Kind: AlertSampling, Target: "host", Message: r.SystemErr.Error()})
	}
	if s := r.System; s != nil {
		if s.CPUPercent >= t.CPUPercent {
			alerts = append(alerts, Alert{Kind: AlertCPU, Target: "host", Message: fmt.Sprintf("cpu at %.1f%%", s.CPUPercent)})
		}
		if s.MemoryPercent >= t.MemoryPercent {
			alerts = append(alerts, Alert{Kind: AlertMemory, Target: "host", Message: fmt.Sprintf("memory at %.1f%%", s.MemoryPercent)})
		}
		if s.DiskPercent >= t.DiskPercent {
			alerts = append(alerts, Alert{Kind: AlertDisk, Target: "host", Message: fmt.Sprintf("disk at %.1f%%", s.DiskPercent)})
		}
	}

	return alerts
}
