package task

import (
	"context"
	"errors"
	"fmt"
)

// Descriptor 某类异步操作的静态描述，启动时定义一次，之后不可变。
type Descriptor struct {
	Kind           Kind
	Action         string // 后端路径段：instances/{id}/{Action}/
	InitialStatus  string // 提交成功后写入的初始状态文本
	SuccessMessage string
	FailurePrefix  string // 失败消息 = FailurePrefix + status
	RecordsStart   bool   // 提交成功后记录 lastStartTimestamp
}

// DefaultDescriptors 内置三类操作：启动、停止、下载模组。
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			Kind:           KindDownload,
			Action:         "download_mods",
			InitialStatus:  "Rozpoczęto pobieranie modów",
			SuccessMessage: "Mody zostały pobrane",
			FailurePrefix:  "Nie udało się pobrać modów: ",
		},
		{
			Kind:           KindStart,
			Action:         "start",
			InitialStatus:  "Rozpoczęto uruchamianie",
			SuccessMessage: "Instancja została uruchomiona",
			FailurePrefix:  "Nie udało się uruchomić instancji: ",
			RecordsStart:   true,
		},
		{
			Kind:           KindStop,
			Action:         "stop",
			InitialStatus:  "Rozpoczęto zatrzymywanie",
			SuccessMessage: "Instancja została zatrzymana",
			FailurePrefix:  "Nie udało się zatrzymać instancji: ",
		},
	}
}

// Accessor 绑定到某类集合的读写入口。
type Accessor interface {
	Load() Collection
	Set(ctx context.Context, col Collection) bool
	Apply(ctx context.Context, fn Updater) bool
}

// storeSlice 以 Store 的一个类别实现 Accessor。
type storeSlice struct {
	s    *Store
	kind Kind
}

func (a storeSlice) Load() Collection { return a.s.Collection(a.kind) }

func (a storeSlice) Set(ctx context.Context, col Collection) bool {
	return a.s.Update(ctx, a.kind, func(Collection) Collection { return col.Clone() })
}

func (a storeSlice) Apply(ctx context.Context, fn Updater) bool { return a.s.Update(ctx, a.kind, fn) }

// Entry 注册表条目：描述 + 集合访问器。
type Entry struct {
	Descriptor
	Tasks Accessor
}

// Registry 操作类别注册表；构造后只读，轮询与分发均按条目泛化处理。
type Registry struct {
	entries []Entry
	byKind  map[Kind]int
}

var (
	ErrEmptyKind     = errors.New("registry: empty kind")
	ErrDuplicateKind = errors.New("registry: duplicate kind")
)

// NewRegistry 构造注册表并从持久存储恢复各类集合。
func NewRegistry(ctx context.Context, store *Store, descs ...Descriptor) (*Registry, error) {
	r := &Registry{byKind: make(map[Kind]int, len(descs))}
	for _, d := range descs {
		if d.Kind == "" || d.Action == "" {
			return nil, fmt.Errorf("%w: %+v", ErrEmptyKind, d)
		}
		if _, dup := r.byKind[d.Kind]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKind, d.Kind)
		}
		store.Load(ctx, d.Kind)
		r.byKind[d.Kind] = len(r.entries)
		r.entries = append(r.entries, Entry{Descriptor: d, Tasks: storeSlice{s: store, kind: d.Kind}})
	}
	return r, nil
}

// Entries 按注册顺序返回全部条目（副本）。
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup 按类别查找条目。
func (r *Registry) Lookup(kind Kind) (Entry, bool) {
	i, ok := r.byKind[kind]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Kinds 已注册类别。
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Kind)
	}
	return out
}
