package console

import (
	"time"

	"github.com/mengeric/gameserver-console-go/client"
	"github.com/mengeric/gameserver-console-go/task"
)

// ShutdownAfter 非管理员实例启动后自动关闭的时长。
const ShutdownAfter = time.Hour

// InstanceView 单个实例在界面上的派生状态。
type InstanceView struct {
	Instance client.Instance `json:"instance"`
	// Action 当前可执行的操作：未就绪 -> download，运行中 -> stop，否则 start。
	Action task.Kind `json:"action"`
	// Busy 对应操作的任务仍在进行中，此时应显示 Status 而非操作按钮。
	Busy   bool   `json:"busy"`
	Status string `json:"status,omitempty"`
	// Last 对应操作最近一次任务（含已结束的），没有时为 nil。
	Last       *task.Task `json:"last,omitempty"`
	ShutdownAt time.Time  `json:"shutdownAt,omitempty"`
}

// TaskLookup 读取某实例某类任务。
type TaskLookup func(kind task.Kind, instanceID int64) (task.Task, bool)

// Derive 由实例与任务存储派生视图。
func Derive(in client.Instance, lookup TaskLookup, lastStart time.Time) InstanceView {
	v := InstanceView{Instance: in}
	switch {
	case !in.IsReady:
		v.Action = task.KindDownload
	case in.IsRunning:
		v.Action = task.KindStop
	default:
		v.Action = task.KindStart
	}
	if t, ok := lookup(v.Action, in.ID); ok {
		last := t
		v.Last = &last
		if t.Open() {
			v.Busy, v.Status = true, t.Status
		}
	}
	if in.IsRunning && !in.IsAdminInstance && !lastStart.IsZero() {
		v.ShutdownAt = lastStart.Add(ShutdownAfter)
	}
	return v
}

// View 为实例派生视图。
func (c *Console) View(in client.Instance) InstanceView {
	ls, _ := c.store.LastStart()
	return Derive(in, c.store.Get, ls)
}
