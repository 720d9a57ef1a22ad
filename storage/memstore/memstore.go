package memstore

import (
	"context"
	"sync"

	"github.com/mengeric/gameserver-console-go/storage"
)

// Store 是一个线程安全的内存 KV 实现，仅用于开发/测试或 driver=memory 场景。
// 注意：进程退出即丢失，不满足“重启后恢复任务”的要求。
type Store struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// New 创建内存存储。
func New() *Store { return &Store{m: map[string][]byte{}} }

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.m[key] = cp
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *Store) Close() error { return nil }
