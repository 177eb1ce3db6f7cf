// Package repository 数据库无关的记录存储层
//
// 通过 dbutil.Dialect 接口屏蔽不同数据库的 SQL 差异，
// 所有 SQL 以 PostgreSQL 风格编写，运行时由 Dialect.Rebind() 转换。
//
// 存储模型刻意简单：每个集合作为一个整体 JSON 数组存放在 kv_blobs 表的
// 一把固定键下，所有变更都是 读整集合 → 内存修改 → 整集合回写。
// 集合规模为几十到几百条记录、单写者假定下该模式是可接受的；
// 引入并发写者前不得依赖任何隔离性（last writer wins）。
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tss-admin/internal/shared/storage"
	"tss-admin/internal/shared/storage/dbutil"
)

var _ storage.RecordStore = (*Store)(nil)

// 固定逻辑键。键名沿用既有数据格式，保证对旧数据的直接兼容。
const (
	keyUsers   = "tss_users_v4_master"
	keySlots   = "tss_slots_v4_master"
	keySession = "tss_session_v4"
)

// Store 记录存储实现
// 实现了 storage.RecordStore 接口
type Store struct {
	db      *sql.DB
	dialect dbutil.Dialect
}

// NewStore 创建记录存储
func NewStore(db *sql.DB, dialect dbutil.Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	return s.db.Close()
}

// DB 返回底层数据库连接（仅用于测试）
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect 返回当前方言
func (s *Store) Dialect() dbutil.Dialect {
	return s.dialect
}

// rebind 快捷方法：将 PG 风格 SQL 转换为当前方言
func (s *Store) rebind(query string) string {
	return s.dialect.Rebind(query)
}

// readBlob 读取固定键下的整集合 blob；键不存在时 ok=false
func (s *Store) readBlob(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT value FROM kv_blobs WHERE key = $1`), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read blob %q: %w", key, err)
	}
	return []byte(value), true, nil
}

// writeBlob 单次写入整集合 blob（UPSERT）
func (s *Store) writeBlob(ctx context.Context, key string, data []byte) error {
	now := s.dialect.CurrentTimestamp()
	query := `INSERT INTO kv_blobs (key, value, updated_at) VALUES ($1, $2, ` + now + `) ` +
		s.dialect.UpsertConflict("key", []string{
			"value = EXCLUDED.value",
			"updated_at = " + now,
		})
	if _, err := s.db.ExecContext(ctx, s.rebind(query), key, string(data)); err != nil {
		return fmt.Errorf("write blob %q: %w", key, err)
	}
	return nil
}

// deleteBlob 删除固定键；键不存在时为 no-op
func (s *Store) deleteBlob(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM kv_blobs WHERE key = $1`), key,
	); err != nil {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}
