package console

import (
	"time"

	"github.com/mengeric/gameserver-console-go/client"
	"github.com/mengeric/gameserver-console-go/scheduler"
	"github.com/mengeric/gameserver-console-go/storage"
	"github.com/mengeric/gameserver-console-go/task"
)

// Options 控制台运行参数。
// 功能：描述轮询与遥测周期、通知队列容量；后端地址与存储通过 Option 注入。
type Options struct {
	PollEvery      time.Duration // 任务状态轮询周期
	TelemetryEvery time.Duration // 系统信息刷新周期
	NotifyBuffer   int           // 通知队列容量
	NotifyKeep     int           // 保留最近通知条数
}

// withDefaults 填充默认值。
func (o *Options) withDefaults() {
	if o.PollEvery <= 0 {
		o.PollEvery = scheduler.DefaultPollInterval
	}
	if o.TelemetryEvery <= 0 {
		o.TelemetryEvery = scheduler.DefaultTelemetryInterval
	}
	if o.NotifyBuffer <= 0 {
		o.NotifyBuffer = 64
	}
	if o.NotifyKeep <= 0 {
		o.NotifyKeep = 20
	}
}

// consoleConfig 构造期的可选项集合。
type consoleConfig struct {
	opt   Options
	api   client.ConsoleAPI
	kv    storage.KV
	src   scheduler.SystemInfoSource
	descs []task.Descriptor
}

// Option 构造可选项。
type Option func(*consoleConfig)

// WithClientAPI 指定后端接口实现；缺省为默认地址的 HTTP 实现。
func WithClientAPI(api client.ConsoleAPI) Option { return func(c *consoleConfig) { c.api = api } }

// WithKV 指定持久存储；缺省为内存存储（进程退出即丢失）。
func WithKV(kv storage.KV) Option { return func(c *consoleConfig) { c.kv = kv } }

// WithSystemInfoSource 指定遥测来源；缺省使用后端 get_system_info。
func WithSystemInfoSource(src scheduler.SystemInfoSource) Option {
	return func(c *consoleConfig) { c.src = src }
}

// WithPollEvery 任务轮询周期。
func WithPollEvery(d time.Duration) Option { return func(c *consoleConfig) { c.opt.PollEvery = d } }

// WithTelemetryEvery 遥测刷新周期。
func WithTelemetryEvery(d time.Duration) Option {
	return func(c *consoleConfig) { c.opt.TelemetryEvery = d }
}

// WithDescriptors 替换内置的操作类别。
func WithDescriptors(descs ...task.Descriptor) Option {
	return func(c *consoleConfig) { c.descs = descs }
}

// WithNotifications 通知队列容量与保留条数。
func WithNotifications(buffer, keep int) Option {
	return func(c *consoleConfig) { c.opt.NotifyBuffer, c.opt.NotifyKeep = buffer, keep }
}
