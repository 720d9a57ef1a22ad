package notify

import (
	"context"
	"sync"
	"time"

	"github.com/mengeric/gameserver-console-go/logging"
)

// Level 通知级别（对应界面提示颜色）。
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification 面向操作员的一条提示。
type Notification struct {
	Level      Level     `json:"level"`
	Kind       string    `json:"kind,omitempty"`
	InstanceID int64     `json:"instanceId,omitempty"`
	Text       string    `json:"text"`
	At         time.Time `json:"at"`
}

// Notifier 通知出口，调度器与分发器只依赖该接口。
type Notifier interface {
	Notify(n Notification)
}

// Center 异步通知中心：缓冲队列 + 后台分发 + 最近记录。
type Center struct {
	ch     chan Notification
	keep   int
	mu     sync.Mutex
	subs   []func(Notification)
	recent []Notification
}

// NewCenter 创建通知中心。
// 参数：buffer 队列容量；keep 保留最近条数。
func NewCenter(buffer, keep int) *Center {
	if buffer <= 0 {
		buffer = 64
	}
	if keep <= 0 {
		keep = 20
	}
	return &Center{ch: make(chan Notification, buffer), keep: keep}
}

// Notify 推入一条通知（非阻塞，满了会丢弃并告警）。
func (c *Center) Notify(n Notification) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	select {
	case c.ch <- n:
	default:
		logging.L().Warnf(context.Background(), "notification queue full, drop: %s", n.Text)
	}
}

// Subscribe 注册订阅者；订阅者在分发协程中被调用，不应阻塞。
func (c *Center) Subscribe(fn func(Notification)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Start 启动后台分发协程；ctx 结束前会把队列中剩余通知分发完。
func (c *Center) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				c.Drain(ctx)
				return
			case n := <-c.ch:
				c.deliver(ctx, n)
			}
		}
	}()
}

// Drain 在当前协程分发队列中已有的通知后返回；用于未启动后台分发的一次性流程。
func (c *Center) Drain(ctx context.Context) {
	for {
		select {
		case n := <-c.ch:
			c.deliver(ctx, n)
		default:
			return
		}
	}
}

func (c *Center) deliver(ctx context.Context, n Notification) {
	l := logging.L().With("kind", n.Kind, "iid", n.InstanceID)
	switch n.Level {
	case LevelError:
		l.Error(ctx, n.Text)
	case LevelWarning:
		l.Warn(ctx, n.Text)
	default:
		l.Info(ctx, n.Text)
	}
	c.mu.Lock()
	c.recent = append(c.recent, n)
	if len(c.recent) > c.keep {
		c.recent = c.recent[len(c.recent)-c.keep:]
	}
	subs := append([]func(Notification){}, c.subs...)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(n)
	}
}

// Recent 返回最近的通知（旧 -> 新）。
func (c *Center) Recent() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.recent...)
}

// Func 把普通函数适配为 Notifier（测试与 CLI 同步输出用）。
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }
