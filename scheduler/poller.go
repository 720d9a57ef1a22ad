package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/mengeric/gameserver-console-go/client"
	"github.com/mengeric/gameserver-console-go/logging"
	"github.com/mengeric/gameserver-console-go/notify"
	"github.com/mengeric/gameserver-console-go/task"
	"github.com/mengeric/gameserver-console-go/tracker"
)

// DefaultPollInterval 任务轮询间隔。
const DefaultPollInterval = 5 * time.Second

// ProbeErrorPrefix 状态查询失败时写入任务的状态前缀。
const ProbeErrorPrefix = "Wystąpił błąd: "

// StatusAPI 轮询只依赖任务状态查询，避免与完整后端接口耦合。
type StatusAPI interface {
	TaskStatus(ctx context.Context, jobID client.JobID) (client.TaskStatusResp, error)
}

// Refresher 任务进入终态后刷新实例列表。
type Refresher interface {
	Refresh(ctx context.Context)
}

// RefreshFunc 将函数适配为 Refresher。
type RefreshFunc func(ctx context.Context)

func (f RefreshFunc) Refresh(ctx context.Context) { f(ctx) }

// Poller 周期性查询所有未结束任务的后端状态，并把结果合并回任务存储。
type Poller struct {
	api       StatusAPI
	reg       *task.Registry
	trk       *tracker.Manager
	notifier  notify.Notifier
	refresher Refresher
	interval  time.Duration
}

// NewPoller 构造轮询器。
// 参数：notifier/refresher 可为 nil；interval<=0 时使用 DefaultPollInterval。
func NewPoller(api StatusAPI, reg *task.Registry, notifier notify.Notifier, refresher Refresher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if notifier == nil {
		notifier = notify.Func(func(notify.Notification) {})
	}
	if refresher == nil {
		refresher = RefreshFunc(func(context.Context) {})
	}
	return &Poller{api: api, reg: reg, trk: tracker.NewManager(), notifier: notifier, refresher: refresher, interval: interval}
}

// Interval 轮询间隔。
func (p *Poller) Interval() time.Duration { return p.interval }

// InFlight 当前仍在等待响应的探测。
func (p *Poller) InFlight() map[tracker.Key]string { return p.trk.List() }

// Start 启动轮询；ctx 结束后不再发起新一轮。
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Tick(ctx)
			}
		}
	}()
}

// Tick 执行一轮轮询：对每个未结束任务并发发起一次状态查询。
// 返回的 channel 在本轮所有探测合并完成后关闭；后台循环不会等待它。
// 上一轮仍未返回的任务本轮跳过。
func (p *Poller) Tick(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	probeCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for _, e := range p.reg.Entries() {
		for id, t := range e.Tasks.Load() {
			if !t.Open() {
				continue
			}
			key := tracker.Key{Kind: string(e.Kind), InstanceID: id}
			if !p.trk.Start(key, t.JobID) {
				logging.L().Debug(ctx, "probe still in flight, skip", "kind", e.Kind, "iid", id)
				continue
			}
			wg.Add(1)
			go func(e task.Entry, id int64, t task.Task) {
				defer wg.Done()
				defer p.trk.Done(key)
				p.probe(probeCtx, e, id, t)
			}(e, id, t)
		}
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

// probe 查询单个任务并合并结果；错误只影响该任务。
func (p *Poller) probe(ctx context.Context, e task.Entry, id int64, polled task.Task) {
	var next task.Task
	resp, err := p.api.TaskStatus(ctx, client.JobID(polled.JobID))
	if err != nil {
		logging.L().Warn(ctx, "task status failed", "kind", e.Kind, "iid", id, "job", polled.JobID, "err", err)
		next = task.Task{JobID: polled.JobID, State: task.StateFailure, Status: ProbeErrorPrefix + client.UserMessage(err)}
	} else {
		next = task.Task{JobID: polled.JobID, State: task.NormalizeState(resp.State), Status: resp.Result.Status}
	}

	var applied task.Task
	changed := e.Tasks.Apply(ctx, func(prev task.Collection) task.Collection {
		cur, ok := prev[id]
		// 任务已被清除、已结束或已被重新提交：丢弃过期响应
		if !ok || !cur.Open() || cur.JobID != polled.JobID {
			return prev
		}
		merged := next
		if merged.Status == "" {
			merged.Status = cur.Status
		}
		prev[id] = merged
		applied = merged
		return prev
	})
	if !changed {
		return
	}

	switch {
	case err != nil:
		p.emit(e, id, notify.LevelError, applied.Status)
	case applied.State == task.StateSuccess:
		p.refresher.Refresh(ctx)
		p.emit(e, id, notify.LevelSuccess, e.SuccessMessage)
	case applied.State == task.StateFailure:
		p.refresher.Refresh(ctx)
		p.emit(e, id, notify.LevelError, e.FailurePrefix+applied.Status)
	}
}

func (p *Poller) emit(e task.Entry, id int64, lvl notify.Level, text string) {
	p.notifier.Notify(notify.Notification{Level: lvl, Kind: string(e.Kind), InstanceID: id, Text: text})
}
