package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mengeric/gameserver-console-go/storage"
)

// Store 基于 Redis 的 KV 实现，多个控制台可共享同一份任务状态。
// 键格式：<namespace>:<key>；不订阅键空间通知，读写为后写覆盖。
type Store struct {
	Client *redis.Client
	ns     string
}

// New 基于已有客户端创建 Store。
func New(client *redis.Client, namespace string) *Store {
	return &Store{Client: client, ns: namespace}
}

// Open 连接 Redis 并校验连通性。
func Open(ctx context.Context, addr, password string, db int, namespace string) (*Store, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return New(c, namespace), nil
}

func (s *Store) key(k string) string {
	if s.ns == "" {
		return k
	}
	return s.ns + ":" + k
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.Client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.Client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, s.key(key)).Err()
}

func (s *Store) Close() error { return s.Client.Close() }
