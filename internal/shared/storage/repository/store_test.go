// Package repository SQLite 集成测试
//
// 使用 SQLite 内存数据库验证 repository 层所有存储接口的正确性。
// 无需外部数据库依赖，可在任何环境下运行。
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tss-admin/internal/shared/model"
	"tss-admin/internal/shared/storage"
	"tss-admin/internal/shared/storage/dbutil"
	sqlitedriver "tss-admin/internal/shared/storage/driver/sqlite"
)

// newTestStore 创建用于测试的 SQLite 内存数据库 Store
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlitedriver.Open(":memory:")
	require.NoError(t, err)
	dialect := sqlitedriver.NewDialect()
	require.NoError(t, dialect.AutoMigrate(db))
	store := NewStore(db, dialect)
	t.Cleanup(func() { store.Close() })
	return store
}

// ============================================================================
// Dialect 基础测试
// ============================================================================

func TestDialectTypes(t *testing.T) {
	d := sqlitedriver.NewDialect()
	assert.Equal(t, dbutil.DriverSQLite, d.DriverType())
	assert.Equal(t, "datetime('now')", d.CurrentTimestamp())
}

func TestRebind(t *testing.T) {
	d := sqlitedriver.NewDialect()
	assert.Equal(t, "SELECT value FROM kv_blobs WHERE key = ?",
		d.Rebind("SELECT value FROM kv_blobs WHERE key = $1"))
	// 应去除 PG 类型转换
	assert.Equal(t, "UPDATE kv_blobs SET value = ? WHERE key = ?",
		d.Rebind("UPDATE kv_blobs SET value = $1::text WHERE key = $2"))
}

// ============================================================================
// 用户集合测试
// ============================================================================

func TestListUsersSeedsBootstrapAdminOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin-1", users[0].ID)
	assert.Equal(t, "admin@tss.com", users[0].Email)
	assert.Equal(t, "admin", users[0].Password)
	assert.Equal(t, model.UserRoleAdmin, users[0].Role)
	assert.False(t, users[0].IsBlocked)

	// 再读不重复播种
	again, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 1)

	// 显式清空后也不再播种（键已存在）
	require.NoError(t, s.ReplaceUsers(ctx, []model.User{}))
	empty, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAddUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.AddUser(ctx, model.User{
		ID:    "sub-1",
		Email: "alice@example.com",
		Role:  model.UserRoleSubscriber,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	// 相同 email 拒绝
	ok, err = s.AddUser(ctx, model.User{ID: "sub-2", Email: "alice@example.com"})
	require.NoError(t, err)
	assert.False(t, ok)

	// email 比较大小写敏感：大小写不同视为不同邮箱
	ok, err = s.AddUser(ctx, model.User{ID: "sub-3", Email: "Alice@example.com"})
	require.NoError(t, err)
	assert.True(t, ok)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3) // admin-1 + sub-1 + sub-3
}

func TestAddUserDefaultsRegistrationDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.AddUser(ctx, model.User{ID: "sub-1", Email: "a@b.c"})
	require.NoError(t, err)
	require.True(t, ok)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	u := FindUser(users, "sub-1")
	require.NotNil(t, u)
	assert.NotEmpty(t, u.RegistrationDate)
}

func TestUpdateUserShallowMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.AddUser(ctx, model.User{
		ID:       "sub-1",
		FullName: "Alice",
		Email:    "alice@example.com",
		Whatsapp: "+111",
		Role:     model.UserRoleSubscriber,
	})
	require.NoError(t, err)
	require.True(t, ok)

	name := "Alice Cooper"
	blocked := true
	ok, err = s.UpdateUser(ctx, "sub-1", model.UserPatch{
		FullName:  &name,
		IsBlocked: &blocked,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	u := FindUser(users, "sub-1")
	require.NotNil(t, u)
	assert.Equal(t, "Alice Cooper", u.FullName)
	assert.True(t, u.IsBlocked)
	// 未提供的字段保持原值
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "+111", u.Whatsapp)

	// 无匹配 id
	ok, err = s.UpdateUser(ctx, "ghost", model.UserPatch{FullName: &name})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteUserNoCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddUser(ctx, model.User{ID: "staff-1", Email: "t@x.c", Role: model.UserRoleStaff})
	require.NoError(t, err)
	_, err = s.AddUser(ctx, model.User{
		ID: "sub-1", Email: "s@x.c", Role: model.UserRoleSubscriber,
		AssignedTimeSlotID: "slot-1",
	})
	require.NoError(t, err)
	require.NoError(t, s.AddSlot(ctx, model.TimeSlot{
		ID: "slot-1", Label: "Morning A", StartTime: "08:00", EndTime: "10:00",
		TeacherID: "staff-1",
	}))

	// 删除教师：时段保留悬空 teacher_id
	require.NoError(t, s.DeleteUser(ctx, "staff-1"))

	slots, err := s.ListSlots(ctx)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "staff-1", slots[0].TeacherID)

	// 学员的指派也原样保留
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	sub := FindUser(users, "sub-1")
	require.NotNil(t, sub)
	assert.Equal(t, "slot-1", sub.AssignedTimeSlotID)

	// 重复删除为 no-op
	require.NoError(t, s.DeleteUser(ctx, "staff-1"))
}

// ============================================================================
// 时段集合测试
// ============================================================================

func TestSlotsEmptyWithoutSeed(t *testing.T) {
	s := newTestStore(t)
	slots, err := s.ListSlots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAddSlotValidatesTimes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// start >= end 拒绝
	err := s.AddSlot(ctx, model.TimeSlot{ID: "slot-1", Label: "Bad", StartTime: "10:00", EndTime: "08:00"})
	assert.ErrorIs(t, err, storage.ErrInvalidSlotTimes)
	err = s.AddSlot(ctx, model.TimeSlot{ID: "slot-1", Label: "Bad", StartTime: "10:00", EndTime: "10:00"})
	assert.ErrorIs(t, err, storage.ErrInvalidSlotTimes)

	// 拒绝后不留痕
	slots, err := s.ListSlots(ctx)
	require.NoError(t, err)
	assert.Empty(t, slots)

	require.NoError(t, s.AddSlot(ctx, model.TimeSlot{
		ID: "slot-1", Label: "Morning A", StartTime: "08:00", EndTime: "10:00",
		Shift: model.ShiftMorning, IsActive: true,
	}))
	slots, err = s.ListSlots(ctx)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestUpdateSlotValidatesMergedTimes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddSlot(ctx, model.TimeSlot{
		ID: "slot-1", Label: "Morning A", StartTime: "08:00", EndTime: "10:00",
	}))

	// 只改 start_time，与保持不变的 end_time 冲突 → 拒绝且不提交
	start := "11:00"
	ok, err := s.UpdateSlot(ctx, "slot-1", model.SlotPatch{StartTime: &start})
	assert.ErrorIs(t, err, storage.ErrInvalidSlotTimes)
	assert.False(t, ok)

	slots, err := s.ListSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, "08:00", slots[0].StartTime)

	// 同时改两端且合法 → 提交
	start, end := "12:00", "14:00"
	ok, err = s.UpdateSlot(ctx, "slot-1", model.SlotPatch{StartTime: &start, EndTime: &end})
	require.NoError(t, err)
	assert.True(t, ok)

	slots, err = s.ListSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12:00", slots[0].StartTime)
	assert.Equal(t, "14:00", slots[0].EndTime)

	// 无匹配 id
	ok, err = s.UpdateSlot(ctx, "ghost", model.SlotPatch{StartTime: &start})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteSlotKeepsDanglingAssignments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddSlot(ctx, model.TimeSlot{
		ID: "slot-1", Label: "Morning A", StartTime: "08:00", EndTime: "10:00",
	}))
	_, err := s.AddUser(ctx, model.User{
		ID: "sub-1", Email: "s@x.c", Role: model.UserRoleSubscriber,
		AssignedTimeSlotID: "slot-1",
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteSlot(ctx, "slot-1"))

	slots, err := s.ListSlots(ctx)
	require.NoError(t, err)
	assert.Empty(t, slots)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	sub := FindUser(users, "sub-1")
	require.NotNil(t, sub)
	assert.Equal(t, "slot-1", sub.AssignedTimeSlotID)

	// 重复删除为 no-op
	require.NoError(t, s.DeleteSlot(ctx, "slot-1"))
}

// ============================================================================
// 会话标记测试
// ============================================================================

func TestSessionMarkerRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	marker, err := s.SessionMarker(ctx)
	require.NoError(t, err)
	assert.Empty(t, marker)

	require.NoError(t, s.SetSessionMarker(ctx, "admin-1"))
	marker, err = s.SessionMarker(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", marker)

	// 覆盖
	require.NoError(t, s.SetSessionMarker(ctx, "sub-1"))
	marker, err = s.SessionMarker(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", marker)

	// 空串清除
	require.NoError(t, s.SetSessionMarker(ctx, ""))
	marker, err = s.SessionMarker(ctx)
	require.NoError(t, err)
	assert.Empty(t, marker)
}
