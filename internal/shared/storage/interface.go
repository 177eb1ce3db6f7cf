// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：repository/（blob 存储）
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"

	"tss-admin/internal/shared/model"
)

// RecordStore 记录存储契约
//
// 两个集合（用户、时段）各自作为整体数组读写（read-modify-write），
// 无事务隔离：调用方假定单写者，读与配对写之间不会有其它写者插入。
// 该假定与原始设计一致，见 DESIGN.md。
//
// 校验失败（邮箱重复、时段时间非法）通过 ok=false 或领域错误返回，
// 不存在匹配 id 的更新返回 ok=false，删除不存在的 id 是良性 no-op；
// error 只承载底层存储故障。
type RecordStore interface {
	// ListUsers 返回全部用户。首次调用且无任何数据时，先写入
	// 初始管理员记录（model.BootstrapAdmin）再返回。
	ListUsers(ctx context.Context) ([]model.User, error)

	// ReplaceUsers 以单次写入整体覆盖用户集合
	ReplaceUsers(ctx context.Context, users []model.User) error

	// AddUser 追加用户；已有相同 email（大小写敏感精确匹配）时
	// 返回 ok=false 且不做任何修改。registration_date 为空时
	// 默认为当前时间。
	AddUser(ctx context.Context, user model.User) (bool, error)

	// UpdateUser 将补丁浅合并到匹配记录；无匹配 id 返回 ok=false
	UpdateUser(ctx context.Context, id string, patch model.UserPatch) (bool, error)

	// DeleteUser 删除匹配记录；id 不存在时为 no-op，不报错。
	// 不级联：其它记录对该 id 的引用悬空，由读取侧解析为"未分配"。
	DeleteUser(ctx context.Context, id string) error

	// ListSlots 返回全部时段（无数据时为空集合，不做播种）
	ListSlots(ctx context.Context) ([]model.TimeSlot, error)

	// ReplaceSlots 以单次写入整体覆盖时段集合
	ReplaceSlots(ctx context.Context, slots []model.TimeSlot) error

	// AddSlot 追加时段；start_time >= end_time 时返回 ErrInvalidSlotTimes
	AddSlot(ctx context.Context, slot model.TimeSlot) error

	// UpdateSlot 浅合并补丁；合并后的记录违反时间不变量时返回
	// ErrInvalidSlotTimes 且不提交；无匹配 id 返回 ok=false
	UpdateSlot(ctx context.Context, id string, patch model.SlotPatch) (bool, error)

	// DeleteSlot 删除匹配时段；id 不存在时为 no-op
	DeleteSlot(ctx context.Context, id string) error

	// SessionMarker 返回持久化的会话标记（用户 id），无会话时为空串
	SessionMarker(ctx context.Context) (string, error)

	// SetSessionMarker 持久化会话标记；传空串清除
	SetSessionMarker(ctx context.Context, userID string) error
}
