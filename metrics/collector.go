package metrics

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mengeric/gameserver-console-go/client"
)

// LocalSource 在控制台所在主机上采集系统信息，与后端 get_system_info 同构。
// 控制台与游戏服务器部署在同一台机器时可替代远程接口。
type LocalSource struct {
	// DiskPath 统计磁盘空间的挂载点，默认 "/"。
	DiskPath string
	// Sample CPU 使用率采样窗口，默认 200ms。
	Sample time.Duration
}

// SystemInfo 采集一次样本。
// 返回：CPU/内存/磁盘任一采集失败即返回错误，调用方保留上一次样本。
func (s LocalSource) SystemInfo(ctx context.Context) (client.SystemInfo, error) {
	path := s.DiskPath
	if path == "" {
		path = "/"
	}
	sample := s.Sample
	if sample <= 0 {
		sample = 200 * time.Millisecond
	}

	var out client.SystemInfo
	pct, err := cpu.PercentWithContext(ctx, sample, false)
	if err != nil {
		return out, fmt.Errorf("cpu percent: %w", err)
	}
	if len(pct) > 0 {
		out.CPUUsage = pct[0]
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return out, fmt.Errorf("virtual memory: %w", err)
	}
	out.MemoryTotal = vm.Total
	out.MemoryLeft = vm.Available
	du, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return out, fmt.Errorf("disk usage %s: %w", path, err)
	}
	out.SpaceTotal = du.Total
	out.SpaceLeft = du.Free

	out.CPUCount = runtime.NumCPU()
	out.OSName = runtime.GOOS
	if hi, err := host.InfoWithContext(ctx); err == nil && hi.Platform != "" {
		out.OSName = hi.Platform + " " + hi.PlatformVersion
	}
	return out, nil
}
