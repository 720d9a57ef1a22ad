package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mengeric/gameserver-console-go/client"
	"github.com/mengeric/gameserver-console-go/logging"
	"github.com/mengeric/gameserver-console-go/notify"
	"github.com/mengeric/gameserver-console-go/scheduler"
	"github.com/mengeric/gameserver-console-go/task"
)

// DeletedMessage 后端删除成功但未返回提示时使用。
const DeletedMessage = "Instancja została usunięta"

var (
	// ErrUnknownKind 操作类别未注册。
	ErrUnknownKind = errors.New("dispatch: unknown kind")
	// ErrNoJobID 后端接受了请求但未返回任务句柄。
	ErrNoJobID = errors.New("dispatch: backend returned no task id")
)

// API 分发器依赖的后端能力。
type API interface {
	SubmitTask(ctx context.Context, instanceID int64, action string) (client.JobID, error)
	DeleteInstance(ctx context.Context, instanceID int64) (string, error)
}

// Dispatcher 提交实例操作，并以 PROGRESS 任务登记到对应集合。
type Dispatcher struct {
	api       API
	store     *task.Store
	reg       *task.Registry
	notifier  notify.Notifier
	refresher scheduler.Refresher
	now       func() time.Time
}

// New 构造分发器；notifier/refresher 可为 nil。
func New(api API, store *task.Store, reg *task.Registry, notifier notify.Notifier, refresher scheduler.Refresher) *Dispatcher {
	if notifier == nil {
		notifier = notify.Func(func(notify.Notification) {})
	}
	if refresher == nil {
		refresher = scheduler.RefreshFunc(func(context.Context) {})
	}
	return &Dispatcher{api: api, store: store, reg: reg, notifier: notifier, refresher: refresher, now: time.Now}
}

// Dispatch 提交一次操作。
// 功能：POST instances/{id}/{action}/，成功后写入 {jobId, PROGRESS, 初始状态}，覆盖该实例已有任务。
// 返回：登记的任务；失败时不修改存储。
func (d *Dispatcher) Dispatch(ctx context.Context, kind task.Kind, instanceID int64) (task.Task, error) {
	e, ok := d.reg.Lookup(kind)
	if !ok {
		return task.Task{}, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	jobID, err := d.api.SubmitTask(ctx, instanceID, e.Action)
	if err == nil && jobID == "" {
		err = ErrNoJobID
	}
	if err != nil {
		logging.L().Warn(ctx, "submit task failed", "kind", kind, "iid", instanceID, "err", err)
		d.emit(string(kind), instanceID, notify.LevelError, client.UserMessage(err))
		return task.Task{}, fmt.Errorf("%s instance %d: %w", e.Action, instanceID, err)
	}

	t := task.Task{JobID: string(jobID), State: task.StateProgress, Status: e.InitialStatus}
	// 存储关闭时 updater 不会被调用；与原任务相同的重复提交仍算登记成功
	seeded := false
	e.Tasks.Apply(ctx, func(prev task.Collection) task.Collection {
		prev[instanceID] = t
		seeded = true
		return prev
	})
	if !seeded {
		logging.L().Warn(ctx, "task submitted but store closed", "kind", kind, "iid", instanceID, "job", t.JobID)
		return task.Task{}, fmt.Errorf("%s instance %d: %w", e.Action, instanceID, task.ErrClosed)
	}
	if e.RecordsStart {
		d.store.SetLastStart(ctx, d.now())
	}
	logging.L().Info(ctx, "task submitted", "kind", kind, "iid", instanceID, "job", t.JobID)
	d.emit(string(kind), instanceID, notify.LevelInfo, e.InitialStatus)
	return t, nil
}

// Start 启动实例。
func (d *Dispatcher) Start(ctx context.Context, instanceID int64) (task.Task, error) {
	return d.Dispatch(ctx, task.KindStart, instanceID)
}

// Stop 停止实例。
func (d *Dispatcher) Stop(ctx context.Context, instanceID int64) (task.Task, error) {
	return d.Dispatch(ctx, task.KindStop, instanceID)
}

// Download 下载实例预设中的模组。
func (d *Dispatcher) Download(ctx context.Context, instanceID int64) (task.Task, error) {
	return d.Dispatch(ctx, task.KindDownload, instanceID)
}

// Delete 删除实例；同步操作，不登记任务。成功后刷新实例列表。
func (d *Dispatcher) Delete(ctx context.Context, instanceID int64) (string, error) {
	msg, err := d.api.DeleteInstance(ctx, instanceID)
	if err != nil {
		logging.L().Warn(ctx, "delete instance failed", "iid", instanceID, "err", err)
		d.emit("delete", instanceID, notify.LevelError, client.UserMessage(err))
		return "", fmt.Errorf("delete instance %d: %w", instanceID, err)
	}
	if msg == "" {
		msg = DeletedMessage
	}
	d.refresher.Refresh(ctx)
	d.emit("delete", instanceID, notify.LevelSuccess, msg)
	return msg, nil
}

func (d *Dispatcher) emit(kind string, id int64, lvl notify.Level, text string) {
	d.notifier.Notify(notify.Notification{Level: lvl, Kind: kind, InstanceID: id, Text: text})
}
