// Package sysinfo samples host and process metrics for the status command
// and the HTTP API.
package sysinfo

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is one sample. Host fields are zero when the platform does not
// expose them.
type Snapshot struct {
	Platform      string  `json:"platform"`
	KernelVersion string  `json:"kernelVersion"`
	GoVersion     string  `json:"goVersion"`
	CPUCount      int     `json:"cpuCount"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemPercent    float64 `json:"memPercent"`
	MemUsedMB     uint64  `json:"memUsedMb"`
	MemTotalMB    uint64  `json:"memTotalMb"`
	HeapAllocMB   float64 `json:"heapAllocMb"`
	Goroutines    int     `json:"goroutines"`
}

// Collect samples the host. Host lookups that fail leave their fields
// empty; only context cancellation is returned as an error.
func Collect(ctx context.Context) (Snapshot, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	snap := Snapshot{
		GoVersion:   runtime.Version(),
		HeapAllocMB: float64(ms.Alloc) / 1024 / 1024,
		Goroutines:  runtime.NumGoroutine(),
	}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		snap.CPUCount = n
	}
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		snap.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		snap.MemPercent = vm.UsedPercent
		snap.MemUsedMB = vm.Used / 1024 / 1024
		snap.MemTotalMB = vm.Total / 1024 / 1024
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		snap.Platform = info.Platform + " " + info.PlatformVersion
		snap.KernelVersion = info.KernelVersion
	}

	return snap, ctx.Err()
}
