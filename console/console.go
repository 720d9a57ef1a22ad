package console

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mengeric/gameserver-console-go/client"
	"github.com/mengeric/gameserver-console-go/config"
	"github.com/mengeric/gameserver-console-go/dispatch"
	"github.com/mengeric/gameserver-console-go/logging"
	"github.com/mengeric/gameserver-console-go/notify"
	"github.com/mengeric/gameserver-console-go/scheduler"
	"github.com/mengeric/gameserver-console-go/storage"
	"github.com/mengeric/gameserver-console-go/storage/memstore"
	"github.com/mengeric/gameserver-console-go/task"
)

// InstancesFailure 实例列表刷新失败时的提示。
const InstancesFailure = "Nie można pobrać listy instancji"

// LogsDeletedMessage 后端清空日志但未返回提示时使用。
const LogsDeletedMessage = "Logi zostały usunięte"

// ErrNoTask 实例上没有该类任务。
var ErrNoTask = errors.New("console: no task for instance")

// Console 控制台主对象：持有任务存储、注册表、轮询器、分发器、遥测与实例缓存。
// 说明：Start(ctx) 启动后台轮询与遥测，ctx 结束即关闭任务存储，
// 之后迟到的状态响应不会再写入。
type Console struct {
	opt   Options
	api   client.ConsoleAPI
	kv    storage.KV
	store *task.Store
	reg   *task.Registry

	poller *scheduler.Poller
	tele   *scheduler.Telemetry
	disp   *dispatch.Dispatcher
	notes  *notify.Center

	mu        sync.RWMutex
	instances client.InstanceList
	fetchedAt time.Time
	isAdmin   bool

	closeOnce sync.Once
}

// NewConsole 创建控制台。
// 功能：按 With... 可选项组装各组件，从持久存储恢复各类任务集合与登录 Token。
// 参数：
// - ctx：仅用于恢复阶段的存储读取；
// - opts：后端实现、持久存储、遥测来源、周期等；
// 返回：
// - *Console：尚未启动的控制台；
// - error：操作类别定义非法时返回。
func NewConsole(ctx context.Context, opts ...Option) (*Console, error) {
	cfg := &consoleConfig{}
	for _, fn := range opts {
		fn(cfg)
	}
	cfg.opt.withDefaults()
	if cfg.api == nil {
		cfg.api = client.NewHTTPConsoleAPI(config.DefaultBaseURL, config.DefaultTimeout)
	}
	if cfg.kv == nil {
		cfg.kv = memstore.New()
	}
	if cfg.src == nil {
		cfg.src = cfg.api
	}
	if len(cfg.descs) == 0 {
		cfg.descs = task.DefaultDescriptors()
	}

	c := &Console{opt: cfg.opt, api: cfg.api, kv: cfg.kv}
	c.store = task.NewStore(ctx, cfg.kv)
	reg, err := task.NewRegistry(ctx, c.store, cfg.descs...)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	c.reg = reg
	c.notes = notify.NewCenter(cfg.opt.NotifyBuffer, cfg.opt.NotifyKeep)
	c.poller = scheduler.NewPoller(c.api, reg, c.notes, c, cfg.opt.PollEvery)
	c.tele = scheduler.NewTelemetry(cfg.src, c.notes, cfg.opt.TelemetryEvery)
	c.disp = dispatch.New(c.api, c.store, reg, c.notes, c)

	if tok, err := c.kv.Get(ctx, task.TokenKey); err == nil && len(tok) > 0 {
		c.api.SetToken(string(tok))
	}
	return c, nil
}

// Start 启动通知分发、任务轮询与遥测刷新，并立即拉取一次实例列表。
// 生命周期：受 ctx 控制，ctx.Done 时停止所有后台协程并关闭任务存储。
func (c *Console) Start(ctx context.Context) {
	c.notes.Start(ctx)
	c.poller.Start(ctx)
	c.tele.Start(ctx)
	go c.Refresh(ctx)
	go func() {
		<-ctx.Done()
		c.Close()
	}()
}

// Close 关闭任务存储；幂等。
func (c *Console) Close() {
	c.closeOnce.Do(func() {
		c.store.Close()
		logging.L().Info(context.Background(), "console closed")
	})
}

// Refresh 重新拉取实例列表；失败只提示，保留旧列表。
func (c *Console) Refresh(ctx context.Context) {
	if err := c.Reload(ctx); err != nil {
		c.notes.Notify(notify.Notification{Level: notify.LevelWarning, Text: InstancesFailure})
	}
}

// Reload 与 Refresh 相同，但返回错误；401 时清除本地 Token。
func (c *Console) Reload(ctx context.Context) error {
	list, err := c.api.ListInstances(ctx)
	if err != nil {
		logging.L().Warn(ctx, "list instances failed", "err", err)
		if errors.Is(err, client.ErrUnauthorized) {
			c.dropToken(ctx)
		}
		return err
	}
	c.mu.Lock()
	c.instances, c.fetchedAt = list, time.Now()
	if len(list.AdminInstances) > 0 {
		c.isAdmin = true
	}
	c.mu.Unlock()
	return nil
}

// Instances 最近一次拉取的实例列表及其时间。
func (c *Console) Instances() (client.InstanceList, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.instances, c.fetchedAt
}

// Instance 在缓存中按 ID 查找实例。
func (c *Console) Instance(id int64) (client.Instance, bool) {
	list, _ := c.Instances()
	for _, in := range list.All() {
		if in.ID == id {
			return in, true
		}
	}
	return client.Instance{}, false
}

// IsAdmin 当前登录用户是否为管理员。
func (c *Console) IsAdmin() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isAdmin
}

// Login 登录并把 Token 写入持久存储。
func (c *Console) Login(ctx context.Context, username, password string) (client.LoginResp, error) {
	resp, err := c.api.Login(ctx, username, password)
	if err != nil {
		return resp, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return resp, fmt.Errorf("login: empty token")
	}
	if err := c.kv.Set(ctx, task.TokenKey, []byte(resp.Token)); err != nil {
		logging.L().Warn(ctx, "persist token failed", "err", err)
	}
	c.api.SetToken(resp.Token)
	c.mu.Lock()
	c.isAdmin = resp.IsAdmin
	c.mu.Unlock()
	logging.L().Info(ctx, "logged in", "user", resp.User.Username, "admin", resp.IsAdmin)
	return resp, nil
}

// Logout 清除本地 Token。
func (c *Console) Logout(ctx context.Context) error {
	c.api.SetToken("")
	c.mu.Lock()
	c.isAdmin = false
	c.mu.Unlock()
	if err := c.kv.Delete(ctx, task.TokenKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// LoggedIn 持久存储中是否存在 Token。
func (c *Console) LoggedIn(ctx context.Context) bool {
	tok, err := c.kv.Get(ctx, task.TokenKey)
	return err == nil && len(tok) > 0
}

func (c *Console) dropToken(ctx context.Context) {
	c.api.SetToken("")
	if err := c.kv.Delete(ctx, task.TokenKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logging.L().Warn(ctx, "drop token failed", "err", err)
	}
}

// Await 阻塞直到该实例的该类任务进入终态。
// 功能：每个轮询周期主动执行一轮 Tick，适用于命令行 --wait。
func (c *Console) Await(ctx context.Context, kind task.Kind, instanceID int64) (task.Task, error) {
	for {
		t, ok := c.store.Get(kind, instanceID)
		if !ok {
			return task.Task{}, fmt.Errorf("%w: %s/%d", ErrNoTask, kind, instanceID)
		}
		if t.State.Terminal() {
			return t, nil
		}
		select {
		case <-ctx.Done():
			return t, ctx.Err()
		case <-time.After(c.opt.PollEvery):
		}
		select {
		case <-ctx.Done():
			return t, ctx.Err()
		case <-c.poller.Tick(ctx):
		}
	}
}

// Snapshot 各类任务集合的副本，按注册顺序。
func (c *Console) Snapshot() map[task.Kind]task.Collection {
	out := make(map[task.Kind]task.Collection, len(c.reg.Kinds()))
	for _, e := range c.reg.Entries() {
		out[e.Kind] = e.Tasks.Load()
	}
	return out
}

// Prune 删除已结束的任务；kind 为空时处理全部类别。
func (c *Console) Prune(ctx context.Context, kind task.Kind) (int, error) {
	kinds := c.reg.Kinds()
	if kind != "" {
		if _, ok := c.reg.Lookup(kind); !ok {
			return 0, fmt.Errorf("%w: %s", dispatch.ErrUnknownKind, kind)
		}
		kinds = []task.Kind{kind}
	}
	n := 0
	for _, k := range kinds {
		n += c.store.PruneTerminal(ctx, k)
	}
	return n, nil
}

// Logs 读取实例日志末尾 tail 行（<=0 为默认 2000 行）。
func (c *Console) Logs(ctx context.Context, instanceID int64, tail int) (string, error) {
	return c.api.Logs(ctx, instanceID, tail)
}

// DownloadLogs 下载完整日志。
func (c *Console) DownloadLogs(ctx context.Context, instanceID int64) ([]byte, error) {
	return c.api.DownloadLogs(ctx, instanceID)
}

// DeleteLogs 清空实例日志，结果以通知形式提示。
func (c *Console) DeleteLogs(ctx context.Context, instanceID int64) (string, error) {
	msg, err := c.api.DeleteLogs(ctx, instanceID)
	if err != nil {
		c.notes.Notify(notify.Notification{Level: notify.LevelError, Kind: "logs", InstanceID: instanceID, Text: client.UserMessage(err)})
		return "", err
	}
	if msg == "" {
		msg = LogsDeletedMessage
	}
	c.notes.Notify(notify.Notification{Level: notify.LevelSuccess, Kind: "logs", InstanceID: instanceID, Text: msg})
	return msg, nil
}

// Views 为缓存中的全部实例派生视图，按 ID 升序。
func (c *Console) Views() []InstanceView {
	list, _ := c.Instances()
	all := list.All()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	out := make([]InstanceView, 0, len(all))
	for _, in := range all {
		out = append(out, c.View(in))
	}
	return out
}

// 组件访问器。

func (c *Console) Store() *task.Store               { return c.store }
func (c *Console) Registry() *task.Registry         { return c.reg }
func (c *Console) Poller() *scheduler.Poller        { return c.poller }
func (c *Console) Telemetry() *scheduler.Telemetry  { return c.tele }
func (c *Console) Dispatcher() *dispatch.Dispatcher { return c.disp }
func (c *Console) Notifications() *notify.Center    { return c.notes }
