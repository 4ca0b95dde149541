package monitor

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats is one sample of host utilisation, in percent.
type SystemStats struct {
	CPUPercent    float64
	MemoryPercent float64
	DiskPercent   float64
}

// SystemSampler reads host utilisation.
type SystemSampler interface {
	Sample(ctx context.Context) (SystemStats, error)
}

// HostSampler samples the local host with gopsutil.
type HostSampler struct {
	// DiskPath is the mount point whose usage is reported.
	DiskPath string
}

// Sample implements SystemSampler. CPU usage is measured since the previous
// call, so the first sample of a process may read 0.
func (h HostSampler) Sample(ctx context.Context) (SystemStats, error) {
	cpus, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return SystemStats{}, fmt.Errorf("sample cpu: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return SystemStats{}, fmt.Errorf("sample memory: %w", err)
	}
	path := h.DiskPath
	if path == "" {
		path = "/"
	}
	du, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return SystemStats{}, fmt.Errorf("sample disk %s: %w", path, err)
	}

	stats := SystemStats{
		MemoryPercent: vm.UsedPercent,
		DiskPercent:   du.UsedPercent,
	}
	if len(cpus) > 0 {
		stats.CPUPercent = cpus[0]
	}
	return stats, nil
}
