package services

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats is a snapshot of the host's resource usage.
type SystemStats struct {
	CPUUsage      float64 `json:"cpu_usage"`
	MemoryUsage   float64 `json:"memory_usage"`
	MemoryTotal   uint64  `json:"memory_total"`
	MemoryUsed    uint64  `json:"memory_used"`
	DiskUsage     float64 `json:"disk_usage"`
	DiskTotal     uint64  `json:"disk_total"`
	DiskUsed      uint64  `json:"disk_used"`
	DiskFree      uint64  `json:"disk_free"`
	Temperature   float64 `json:"temperature"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

// GetSystemStats collects CPU, memory, disk, temperature and uptime
// statistics for the host running the dashboard.
func GetSystemStats() (*SystemStats, error) {
	stats := &SystemStats{}

	cpuPercents, err := cpu.Percent(time.Second, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read CPU usage: %w", err)
	}
	if len(cpuPercents) > 0 {
		stats.CPUUsage = round1(cpuPercents[0])
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to read memory usage: %w", err)
	}
	stats.MemoryUsage = round1(vm.UsedPercent)
	stats.MemoryTotal = vm.Total
	stats.MemoryUsed = vm.Used

	du, err := disk.Usage("/")
	if err != nil {
		return nil, fmt.Errorf("failed to read disk usage: %w", err)
	}
	stats.DiskUsage = round1(du.UsedPercent)
	stats.DiskTotal = du.Total
	stats.DiskUsed = du.Used
	stats.DiskFree = du.Free

	stats.Temperature = round1(readCPUTemperature())

	uptime, err := host.Uptime()
	if err == nil {
		stats.UptimeSeconds = uptime
		stats.Uptime = formatUptime(uptime)
	}

	return stats, nil
}

// readCPUTemperature reads the SoC temperature on Raspberry Pi class
// hardware; returns 0 when the thermal zone is unavailable.
func readCPUTemperature() float64 {
	raw, err := os.ReadFile("/sys/class/thermal/thermal_zone0/temp")
	if err != nil {
		return 0
	}
	milli, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0
	}
	return milli / 1000.0
}

func formatUptime(seconds uint64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
