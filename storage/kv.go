package storage

import (
	"context"
	"errors"
)

// ErrNotFound 键不存在。
var ErrNotFound = errors.New("storage: key not found")

// KV 持久化键值接口（可由宿主实现或使用内置 memstore/gormstore/redisstore）。
// 功能：承载任务集合等“客户端持久存储”，值为已序列化的字节。
// 注意：同一后端可被多个控制台共享，写入语义为后写覆盖（last-write-wins）。
type KV interface {
	// Get 读取键值；键不存在时返回 ErrNotFound。
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 写入（覆盖）键值。
	Set(ctx context.Context, key string, value []byte) error
	// Delete 删除键；键不存在不视为错误。
	Delete(ctx context.Context, key string) error
	// Close 释放底层连接。
	Close() error
}
