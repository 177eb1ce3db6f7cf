package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tss-admin/internal/shared/model"
)

// ListUsers 返回全部用户
//
// 首次调用且键不存在时，先写入初始管理员记录再返回，保证系统
// 在任何登录发生之前恰好存在一个可用的管理员账号。
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	data, ok, err := s.readBlob(ctx, keyUsers)
	if err != nil {
		return nil, err
	}
	if !ok {
		seed := []model.User{model.BootstrapAdmin()}
		if err := s.ReplaceUsers(ctx, seed); err != nil {
			return nil, fmt.Errorf("seed bootstrap admin: %w", err)
		}
		return seed, nil
	}

	var users []model.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// ReplaceUsers 以单次写入整体覆盖用户集合
func (s *Store) ReplaceUsers(ctx context.Context, users []model.User) error {
	if users == nil {
		users = []model.User{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return s.writeBlob(ctx, keyUsers, data)
}

// AddUser 追加用户
//
// 已有相同 email（大小写敏感精确匹配）时返回 ok=false 且不做任何修改。
// registration_date 为空时默认为当前时间。
func (s *Store) AddUser(ctx context.Context, user model.User) (bool, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return false, err
	}
	for i := range users {
		if users[i].Email == user.Email {
			return false, nil
		}
	}
	if user.RegistrationDate == "" {
		user.RegistrationDate = time.Now().UTC().Format(time.RFC3339)
	}
	users = append(users, user)
	if err := s.ReplaceUsers(ctx, users); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateUser 将补丁浅合并到匹配记录
//
// 提供的字段覆盖原值，未提供的字段保持不变。无匹配 id 返回 ok=false。
// 注意：此处不再校验 email 唯一性（与创建时不同），沿用既有行为。
func (s *Store) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (bool, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return false, err
	}
	for i := range users {
		if users[i].ID == id {
			patch.Apply(&users[i])
			if err := s.ReplaceUsers(ctx, users); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// DeleteUser 删除匹配记录
//
// id 不存在时为 no-op。不级联：其它记录对该 id 的引用
//（slot.teacher_id、assigned_time_slot_id）悬空，由读取侧解析为"未分配"。
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}
	kept := users[:0]
	for _, u := range users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	return s.ReplaceUsers(ctx, kept)
}

// FindUser 按 id 线性查找；未找到返回 nil
//
// 调用方的便捷封装，契约上等价于 ListUsers 后自行扫描。
func FindUser(users []model.User, id string) *model.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}
