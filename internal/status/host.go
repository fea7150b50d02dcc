package status

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostInfo is a small set of host statistics for the status page.
type HostInfo struct {
	Hostname      string
	CPUPercent    float64
	MemUsedPct    float64
	Load1         float64
	UptimeSeconds uint64
}

// CollectHost samples host statistics. Fields that cannot be read on this
// platform are left zero; only a total failure is reported.
func CollectHost(ctx context.Context) (*HostInfo, error) {
	info := &HostInfo{}
	var failed int

	if h, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = h.Hostname
		info.UptimeSeconds = h.Uptime
	} else {
		failed++
	}

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		info.CPUPercent = pct[0]
	} else {
		failed++
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemUsedPct = vm.UsedPercent
	} else {
		failed++
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		info.Load1 = avg.Load1
	} else {
		failed++
	}

	if failed == 4 {
		return nil, fmt.Errorf("host stats unavailable")
	}
	return info, nil
}
