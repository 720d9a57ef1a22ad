package task

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mengeric/gameserver-console-go/logging"
	"github.com/mengeric/gameserver-console-go/storage"
)

// ErrClosed 存储已关闭，写入被丢弃。
var ErrClosed = errors.New("task: store closed")

// Store 任务存储：按类别维护内存集合，每次变更同步写入持久 KV。
// 设计：内存副本为准；持久化失败只记录日志，不影响内存状态。
// 多个控制台共享同一 KV 时为后写覆盖，读只在 Load 时发生。
type Store struct {
	kv storage.KV

	mu        sync.Mutex
	cols      map[Kind]Collection
	lastStart time.Time
	version   uint64
	closed    bool
}

// NewStore 创建任务存储并恢复 lastStartTimestamp；集合需通过 Load 按类别恢复。
func NewStore(ctx context.Context, kv storage.KV) *Store {
	s := &Store{kv: kv, cols: map[Kind]Collection{}}
	if b, err := kv.Get(ctx, LastStartKey); err == nil {
		if ms, err := strconv.ParseInt(string(b), 10, 64); err == nil && ms > 0 {
			s.lastStart = time.UnixMilli(ms)
		}
	}
	return s
}

// Load 从持久存储恢复指定类别的集合。
// 键不存在、读失败或解码失败均视为“无历史任务”，返回空集合，不会报错。
func (s *Store) Load(ctx context.Context, kinds ...Kind) {
	for _, k := range kinds {
		col := s.read(ctx, k)
		s.mu.Lock()
		s.cols[k] = col
		s.mu.Unlock()
	}
}

func (s *Store) read(ctx context.Context, k Kind) Collection {
	b, err := s.kv.Get(ctx, k.StorageKey())
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.L().Warn(ctx, "load tasks failed", "kind", k, "err", err)
		}
		return Collection{}
	}
	var col Collection
	if err := json.Unmarshal(b, &col); err != nil {
		logging.L().Warn(ctx, "decode tasks failed, starting empty", "kind", k, "err", err)
		return Collection{}
	}
	if col == nil {
		col = Collection{}
	}
	return col
}

// Get 读取单个任务。
func (s *Store) Get(kind Kind, instanceID int64) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.cols[kind][instanceID]
	return t, ok
}

// Collection 返回该类集合的副本。
func (s *Store) Collection(kind Kind) Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols[kind].Clone()
}

// ForEachOpen 遍历该类中 PROGRESS 状态的任务（基于快照，按实例 ID 升序）。
// fn 内可以安全地再次调用 Store。
func (s *Store) ForEachOpen(kind Kind, fn func(instanceID int64, t Task)) {
	snap := s.Collection(kind)
	ids := make([]int64, 0, len(snap))
	for id, t := range snap {
		if t.Open() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(id, snap[id])
	}
}

// Update 函数式更新：在锁内以最新集合调用 fn，结果与原集合相同则不写入。
// 返回：是否发生了变更（存储已关闭时恒为 false）。
func (s *Store) Update(ctx context.Context, kind Kind, fn Updater) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	prev := s.cols[kind]
	next := fn(prev.Clone())
	if next == nil {
		next = Collection{}
	}
	if next.Equal(prev) {
		return false
	}
	next = next.Clone()
	s.cols[kind] = next
	s.version++
	s.persist(ctx, kind, next)
	return true
}

// persist 同步写入持久存储；调用方须持有锁。
func (s *Store) persist(ctx context.Context, kind Kind, col Collection) {
	b, err := json.Marshal(col)
	if err != nil {
		logging.L().Error(ctx, "encode tasks failed", "kind", kind, "err", err)
		return
	}
	if err := s.kv.Set(ctx, kind.StorageKey(), b); err != nil {
		logging.L().Warn(ctx, "persist tasks failed", "kind", kind, "err", err)
	}
}

// Put 写入（覆盖）单个任务。
func (s *Store) Put(ctx context.Context, kind Kind, instanceID int64, t Task) {
	s.Update(ctx, kind, func(prev Collection) Collection {
		prev[instanceID] = t
		return prev
	})
}

// Replace 整体替换集合。
func (s *Store) Replace(ctx context.Context, kind Kind, col Collection) {
	s.Update(ctx, kind, func(Collection) Collection { return col.Clone() })
}

// Delete 删除单个任务。
func (s *Store) Delete(ctx context.Context, kind Kind, instanceID int64) {
	s.Update(ctx, kind, func(prev Collection) Collection {
		delete(prev, instanceID)
		return prev
	})
}

// Clear 清空该类集合（用户主动刷新时使用）。
func (s *Store) Clear(ctx context.Context, kind Kind) {
	s.Replace(ctx, kind, Collection{})
}

// PruneTerminal 删除该类中已结束的任务，返回删除个数。
func (s *Store) PruneTerminal(ctx context.Context, kind Kind) int {
	n := 0
	s.Update(ctx, kind, func(prev Collection) Collection {
		n = 0
		for id, t := range prev {
			if t.State.Terminal() {
				delete(prev, id)
				n++
			}
		}
		return prev
	})
	return n
}

// SetLastStart 记录最近一次提交启动的时间（毫秒时间戳）。
func (s *Store) SetLastStart(ctx context.Context, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.lastStart = time.UnixMilli(at.UnixMilli())
	s.version++
	if err := s.kv.Set(ctx, LastStartKey, []byte(strconv.FormatInt(at.UnixMilli(), 10))); err != nil {
		logging.L().Warn(ctx, "persist last start failed", "err", err)
	}
}

// LastStart 最近一次提交启动的时间。
func (s *Store) LastStart() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStart, !s.lastStart.IsZero()
}

// Version 每次实际变更递增，视图可据此判断是否需要重绘。
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Close 关闭后所有写入被丢弃（拥有者销毁后迟到的响应不再落盘）。
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
