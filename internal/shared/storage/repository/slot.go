package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"tss-admin/internal/shared/model"
	"tss-admin/internal/shared/storage"
)

// ListSlots 返回全部时段；无数据时为空集合（时段集合不做播种）
func (s *Store) ListSlots(ctx context.Context) ([]model.TimeSlot, error) {
	data, ok, err := s.readBlob(ctx, keySlots)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []model.TimeSlot{}, nil
	}

	var slots []model.TimeSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("decode slots: %w", err)
	}
	return slots, nil
}

// ReplaceSlots 以单次写入整体覆盖时段集合
func (s *Store) ReplaceSlots(ctx context.Context, slots []model.TimeSlot) error {
	if slots == nil {
		slots = []model.TimeSlot{}
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return fmt.Errorf("encode slots: %w", err)
	}
	return s.writeBlob(ctx, keySlots, data)
}

// AddSlot 追加时段
//
// 时段字段无唯一性约束；start_time >= end_time 时拒绝写入。
func (s *Store) AddSlot(ctx context.Context, slot model.TimeSlot) error {
	if !slot.TimesValid() {
		return storage.ErrInvalidSlotTimes
	}
	slots, err := s.ListSlots(ctx)
	if err != nil {
		return err
	}
	slots = append(slots, slot)
	return s.ReplaceSlots(ctx, slots)
}

// UpdateSlot 浅合并补丁到匹配时段
//
// 时间不变量在提交点针对合并后的记录校验：即使补丁只改 start_time，
// 新值与保持不变的 end_time 冲突时同样拒绝，不提交任何修改。
// 无匹配 id 返回 ok=false。
func (s *Store) UpdateSlot(ctx context.Context, id string, patch model.SlotPatch) (bool, error) {
	slots, err := s.ListSlots(ctx)
	if err != nil {
		return false, err
	}
	for i := range slots {
		if slots[i].ID == id {
			merged := slots[i]
			patch.Apply(&merged)
			if !merged.TimesValid() {
				return false, storage.ErrInvalidSlotTimes
			}
			slots[i] = merged
			if err := s.ReplaceSlots(ctx, slots); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// DeleteSlot 删除匹配时段
//
// id 不存在时为 no-op。引用该时段的用户记录不做级联清理，
// 悬空引用在展示侧解析为"未分配"。
func (s *Store) DeleteSlot(ctx context.Context, id string) error {
	slots, err := s.ListSlots(ctx)
	if err != nil {
		return err
	}
	kept := slots[:0]
	for _, slot := range slots {
		if slot.ID != id {
			kept = append(kept, slot)
		}
	}
	return s.ReplaceSlots(ctx, kept)
}

// FindSlot 按 id 线性查找；未找到返回 nil
func FindSlot(slots []model.TimeSlot, id string) *model.TimeSlot {
	for i := range slots {
		if slots[i].ID == id {
			return &slots[i]
		}
	}
	return nil
}
