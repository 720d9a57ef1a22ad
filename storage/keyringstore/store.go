package keyringstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/mengeric/gameserver-console-go/storage"
)

// DefaultService 系统密钥环中的服务名。
const DefaultService = "gameserver-console"

// Store 将指定的敏感键（如登录 Token）放入系统密钥环，其余键透传给底层 KV。
type Store struct {
	storage.KV
	service string
	secret  map[string]struct{}
}

// Wrap 包装底层 KV。service 为空时使用 DefaultService。
func Wrap(base storage.KV, service string, secretKeys ...string) *Store {
	if service == "" {
		service = DefaultService
	}
	s := &Store{KV: base, service: service, secret: make(map[string]struct{}, len(secretKeys))}
	for _, k := range secretKeys {
		s.secret[k] = struct{}{}
	}
	return s
}

func (s *Store) isSecret(key string) bool {
	_, ok := s.secret[key]
	return ok
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if !s.isSecret(key) {
		return s.KV.Get(ctx, key)
	}
	v, err := keyring.Get(s.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("keyring get %s: %w", key, err)
	}
	return []byte(v), nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if !s.isSecret(key) {
		return s.KV.Set(ctx, key, value)
	}
	if err := keyring.Set(s.service, key, string(value)); err != nil {
		return fmt.Errorf("keyring set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if !s.isSecret(key) {
		return s.KV.Delete(ctx, key)
	}
	if err := keyring.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete %s: %w", key, err)
	}
	return nil
}
