package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mengeric/gameserver-console-go/storage"
)

// model 映射到数据库表 console_kv。
type model struct {
	Namespace string    `gorm:"primaryKey;size:64"`
	KVKey     string    `gorm:"column:kv_key;primaryKey;size:128"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (model) TableName() string { return "console_kv" }

// Store 基于 GORM 的 KV 实现。
// 同一张表可被多个控制台共享，namespace 用于隔离不同账号/环境。
type Store struct {
	db *gorm.DB
	ns string
}

// New 创建 Store，并自动迁移 console_kv 表。
func New(db *gorm.DB, namespace string) (*Store, error) {
	if err := db.AutoMigrate(&model{}); err != nil {
		return nil, fmt.Errorf("migrate console_kv: %w", err)
	}
	return &Store{db: db, ns: namespace}, nil
}

// Open 按驱动名打开数据库并创建 Store。
// 参数：driver 取值 sqlite/postgres；dsn 为 sqlite 文件路径或 postgres 连接串。
func Open(driver, dsn, namespace string) (*Store, error) {
	var dial gorm.Dialector
	switch driver {
	case "sqlite":
		dial = sqlite.Open(dsn)
	case "postgres":
		dial = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("gormstore: unsupported driver %q", driver)
	}
	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return New(db, namespace)
}

// Get 实现 storage.KV.Get。
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var m model
	err := s.db.WithContext(ctx).Where("namespace = ? AND kv_key = ?", s.ns, key).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m.Value, nil
}

// Set 实现 storage.KV.Set（按主键 upsert）。
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	m := model{Namespace: s.ns, KVKey: key, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&m).Error
}

// Delete 实现 storage.KV.Delete。
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("namespace = ? AND kv_key = ?", s.ns, key).Delete(&model{}).Error
}

// Close 关闭底层连接池。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
