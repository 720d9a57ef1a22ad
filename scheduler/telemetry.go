package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/mengeric/gameserver-console-go/client"
	"github.com/mengeric/gameserver-console-go/logging"
	"github.com/mengeric/gameserver-console-go/notify"
)

// DefaultTelemetryInterval 遥测刷新间隔，与任务轮询相互独立。
const DefaultTelemetryInterval = 3 * time.Second

// TelemetryFailure 遥测采集失败时的提示。
const TelemetryFailure = "Nie można pobrać informacji o systemie"

// SystemInfoSource 系统信息来源：远程后端或本机采集。
type SystemInfoSource interface {
	SystemInfo(ctx context.Context) (client.SystemInfo, error)
}

// Telemetry 周期性刷新系统信息；失败只提示，保留上一次样本。
type Telemetry struct {
	src      SystemInfoSource
	notifier notify.Notifier
	interval time.Duration

	mu     sync.RWMutex
	latest client.SystemInfo
	at     time.Time
}

// NewTelemetry 构造。interval<=0 时使用 DefaultTelemetryInterval。
func NewTelemetry(src SystemInfoSource, notifier notify.Notifier, interval time.Duration) *Telemetry {
	if interval <= 0 {
		interval = DefaultTelemetryInterval
	}
	if notifier == nil {
		notifier = notify.Func(func(notify.Notification) {})
	}
	return &Telemetry{src: src, notifier: notifier, interval: interval}
}

// Start 立即采集一次，然后按间隔刷新。
func (t *Telemetry) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	go func() {
		defer ticker.Stop()
		t.Refresh(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Refresh(ctx)
			}
		}
	}()
}

// Refresh 采集一次。
// 返回：本次是否成功。
func (t *Telemetry) Refresh(ctx context.Context) bool {
	info, err := t.src.SystemInfo(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		logging.L().Warn(ctx, "system info failed", "err", err)
		t.notifier.Notify(notify.Notification{Level: notify.LevelWarning, Text: TelemetryFailure})
		return false
	}
	t.mu.Lock()
	t.latest, t.at = info, time.Now()
	t.mu.Unlock()
	return true
}

// Latest 最近一次成功的样本；尚无样本时 ok=false。
func (t *Telemetry) Latest() (info client.SystemInfo, at time.Time, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest, t.at, !t.at.IsZero()
}
