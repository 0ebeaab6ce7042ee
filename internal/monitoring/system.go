// Package monitoring collects host metrics for the admin system health
// endpoint.
package monitoring

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemMetrics contains host metrics for the server process.
type SystemMetrics struct {
	CPUUsage       float64 `json:"cpu_usage"`
	MemoryUsage    float64 `json:"memory_usage"`
	MemoryUsedMB   uint64  `json:"memory_used_mb"`
	MemoryTotalMB  uint64  `json:"memory_total_mb"`
	DiskUsage      float64 `json:"disk_usage"`
	DiskFreeBytes  int64   `json:"disk_free_bytes"`
	DiskTotalBytes int64   `json:"disk_total_bytes"`
	HostUptime     int64   `json:"host_uptime_seconds"`
	ProcessUptime  int64   `json:"process_uptime_seconds"`
	Goroutines     int     `json:"goroutines"`
}

// Collector collects host metrics.
type Collector struct {
	startTime time.Time
}

// NewCollector creates a new Collector.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Collect gathers the current host metrics. Individual probe failures leave
// their fields at zero rather than failing the whole collection.
func (c *Collector) Collect(ctx context.Context) (*SystemMetrics, error) {
	m := &SystemMetrics{
		ProcessUptime: int64(time.Since(c.startTime).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
	}

	cpuPercent, err := cpu.PercentWithContext(ctx, time.Second, false)
	if err == nil && len(cpuPercent) > 0 {
		m.CPUUsage = cpuPercent[0]
	}

	memStat, err := mem.VirtualMemoryWithContext(ctx)
	if err == nil {
		m.MemoryUsage = memStat.UsedPercent
		m.MemoryUsedMB = memStat.Used / 1024 / 1024
		m.MemoryTotalMB = memStat.Total / 1024 / 1024
	}

	diskPath := "/"
	if runtime.GOOS == "windows" {
		diskPath = "C:\\"
	}
	diskStat, err := disk.UsageWithContext(ctx, diskPath)
	if err == nil {
		m.DiskUsage = diskStat.UsedPercent
		m.DiskFreeBytes = int64(diskStat.Free)
		m.DiskTotalBytes = int64(diskStat.Total)
	}

	uptime, err := host.UptimeWithContext(ctx)
	if err == nil {
		m.HostUptime = int64(uptime)
	}

	return m, nil
}
