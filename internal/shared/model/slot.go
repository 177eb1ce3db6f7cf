// Package model 定义核心数据模型
//
// slot.go 包含排班时段相关的数据模型定义：
//   - TimeSlot：培训时段
//   - SlotShift：班次枚举
//   - SlotPatch：部分字段更新
package model

// ============================================================================
// SlotShift - 班次
// ============================================================================

// SlotShift 班次，仅作展示分组，与实际起止时间相互独立
type SlotShift string

const (
	ShiftMorning   SlotShift = "Morning"
	ShiftAfternoon SlotShift = "Afternoon"
	ShiftEvening   SlotShift = "Evening"
	ShiftNight     SlotShift = "Night"
)

// ============================================================================
// TimeSlot - 培训时段
// ============================================================================

// TimeSlot 培训时段
//
// TeacherID 引用 STAFF/APPROVED 用户但不强制校验；引用的用户被删除后
// 读取侧解析为 "Unassigned"，不报错。被多个用户引用
// （preferred_time_slot_id / assigned_time_slot_id），删除不做级联。
type TimeSlot struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	StartTime string    `json:"start_time"` // 墙钟时间字符串，如 "09:00"
	EndTime   string    `json:"end_time"`
	Shift     SlotShift `json:"shift"`
	TeacherID string    `json:"teacher_id,omitempty"`
	IsActive  bool      `json:"is_active"`
}

// TimesValid 校验 startTime < endTime 不变量
//
// "HH:MM" 格式下字典序与时间序一致，直接比较字符串。
// 写入时段（新增与合并后的更新）必须通过该校验。
func (s *TimeSlot) TimesValid() bool {
	return s.StartTime != "" && s.EndTime != "" && s.StartTime < s.EndTime
}

// ============================================================================
// SlotPatch - 部分字段更新
// ============================================================================

// SlotPatch 部分字段更新，语义同 UserPatch
type SlotPatch struct {
	Label     *string    `json:"label,omitempty"`
	StartTime *string    `json:"start_time,omitempty"`
	EndTime   *string    `json:"end_time,omitempty"`
	Shift     *SlotShift `json:"shift,omitempty"`
	TeacherID *string    `json:"teacher_id,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
}

// Apply 将补丁合并到时段记录上，nil 字段保持原值
func (p *SlotPatch) Apply(s *TimeSlot) {
	if p.Label != nil {
		s.Label = *p.Label
	}
	if p.StartTime != nil {
		s.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		s.EndTime = *p.EndTime
	}
	if p.Shift != nil {
		s.Shift = *p.Shift
	}
	if p.TeacherID != nil {
		s.TeacherID = *p.TeacherID
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
}
