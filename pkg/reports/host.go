package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const hostLogPrefix = "reports:host"

// HostSnapshot is a point-in-time view of the machine running the bridge.
type HostSnapshot struct {
	Hostname        string
	Platform        string
	PlatformVersion string
	KernelVersion   string
	Uptime          time.Duration
	CPUCount        int
	CPUPercent      float64
	MemoryTotal     uint64
	MemoryUsed      uint64
	MemoryPercent   float64
	DiskPath        string
	DiskTotal       uint64
	DiskUsed        uint64
	DiskPercent     float64
}

// HostProbe collects a HostSnapshot.
type HostProbe interface {
	Snapshot(ctx context.Context) (HostSnapshot, error)
}

// SystemProbe reads host facts from the operating system.
type SystemProbe struct {
	// DiskPath is the mount point to report. Defaults to "/".
	DiskPath string
	// CPUSample is how long CPU usage is sampled. Zero compares against the last call.
	CPUSample time.Duration
}

// Snapshot implements HostProbe.
func (p SystemProbe) Snapshot(ctx context.Context) (HostSnapshot, error) {
	path := p.DiskPath
	if path == "" {
		path = "/"
	}

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostSnapshot{}, fmt.Errorf("%s - failed to read host info: %w", hostLogPrefix, err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return HostSnapshot{}, fmt.Errorf("%s - failed to read memory: %w", hostLogPrefix, err)
	}
	du, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return HostSnapshot{}, fmt.Errorf("%s - failed to read disk usage for %s: %w", hostLogPrefix, path, err)
	}
	counts, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return HostSnapshot{}, fmt.Errorf("%s - failed to count cpus: %w", hostLogPrefix, err)
	}
	pct, err := cpu.PercentWithContext(ctx, p.CPUSample, false)
	if err != nil {
		return HostSnapshot{}, fmt.Errorf("%s - failed to sample cpu: %w", hostLogPrefix, err)
	}
	var cpuPct float64
	if len(pct) > 0 {
		cpuPct = pct[0]
	}

	return HostSnapshot{
		Hostname:        info.Hostname,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		Uptime:          time.Duration(info.Uptime) * time.Second,
		CPUCount:        counts,
		CPUPercent:      cpuPct,
		MemoryTotal:     vm.Total,
		MemoryUsed:      vm.Used,
		MemoryPercent:   vm.UsedPercent,
		DiskPath:        path,
		DiskTotal:       du.Total,
		DiskUsed:        du.Used,
		DiskPercent:     du.UsedPercent,
	}, nil
}

// HumanBytes formats a byte count with a binary unit.
func HumanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
