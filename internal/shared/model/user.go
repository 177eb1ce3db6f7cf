// Package model 定义核心数据模型
//
// user.go 包含用户相关的数据模型定义：
//   - User：用户记录（管理员 / 员工 / 学员）
//   - UserRole：用户角色枚举
//   - StaffStatus：员工审批状态枚举
//   - UserPatch：部分字段更新（shallow merge）
//   - View：角色准入视图规则
package model

import "time"

// ============================================================================
// UserRole - 用户角色
// ============================================================================

// UserRole 用户角色
type UserRole string

const (
	// UserRoleAdmin 管理员
	UserRoleAdmin UserRole = "ADMIN"

	// UserRoleStaff 员工（教师），需要管理员审批
	UserRoleStaff UserRole = "STAFF"

	// UserRoleSubscriber 学员
	UserRoleSubscriber UserRole = "SUBSCRIBER"
)

// ============================================================================
// StaffStatus - 员工审批状态
// ============================================================================

// StaffStatus 员工审批状态，仅对 STAFF 角色有意义
type StaffStatus string

const (
	// StaffStatusPending 待审批
	StaffStatusPending StaffStatus = "PENDING"

	// StaffStatusApproved 已通过
	StaffStatusApproved StaffStatus = "APPROVED"

	// StaffStatusRejected 已拒绝
	StaffStatusRejected StaffStatus = "REJECTED"
)

// Gender 性别
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// ============================================================================
// User - 用户记录
// ============================================================================

// User 用户记录
//
// IsBlocked 同时承担两种语义：新注册学员默认 blocked（待管理员放行），
// 以及管理员手动停用账号。blocked 用户无论角色均无法登录。
type User struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`              // 创建时唯一（更新时不再校验）
	Password string   `json:"password,omitempty"` // 明文存储，行为兼容要求，见 DESIGN.md
	Gender   Gender   `json:"gender,omitempty"`
	Whatsapp string   `json:"whatsapp,omitempty"`
	Role     UserRole `json:"role"`

	// IsBlocked 为 true 时账号无法认证（待审批 或 已停用）
	IsBlocked bool `json:"is_blocked"`

	// 审批状态（仅 STAFF）
	Status StaffStatus `json:"status,omitempty"`

	// 注册 / 培训周期
	RegistrationDate string `json:"registration_date,omitempty"`
	StartDate        string `json:"start_date,omitempty"`
	EndDate          string `json:"end_date,omitempty"`

	// 排班：preferred 为注册时的意向（仅供参考），assigned 由管理员设置，
	// 同时驱动学员课表和教师名册
	PreferredTimeSlotID string `json:"preferred_time_slot_id,omitempty"`
	AssignedTimeSlotID  string `json:"assigned_time_slot_id,omitempty"`

	// 自由格式的报名资料字段，除必填检查外不做任何校验，原样保存
	Agreement          bool   `json:"agreement,omitempty"`
	Religion           string `json:"religion,omitempty"`
	Division           string `json:"division,omitempty"`
	Education          string `json:"education,omitempty"`
	PhoneNumber        string `json:"phone_number,omitempty"`
	RelationshipStatus string `json:"relationship_status,omitempty"`
	DeviceSelection    string `json:"device_selection,omitempty"`
	BirthOrder         string `json:"birth_order,omitempty"`
	IsRegularStudent   bool   `json:"is_regular_student,omitempty"`
	UsesImo            string `json:"uses_imo,omitempty"`
	PhoneBrand         string `json:"phone_brand,omitempty"`
	PhoneSpecs         string `json:"phone_specs,omitempty"`
	PreviousSites      string `json:"previous_sites,omitempty"`
	AvailableHours     string `json:"available_hours,omitempty"`
	FbLink             string `json:"fb_link,omitempty"`
	DisplayName        string `json:"display_name,omitempty"`

	// PrivateNotes 仅员工/管理员可见的备注，只追加不单删，
	// 随用户删除整体清除
	PrivateNotes []PrivateNote `json:"private_notes,omitempty"`
}

// Redacted 返回去除口令的副本，用于 API 响应
func (u User) Redacted() User {
	u.Password = ""
	return u
}

// NoteAuthorName 备注作者署名：优先 DisplayName，其次 FullName
func (u *User) NoteAuthorName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.FullName
}

// ============================================================================
// UserPatch - 部分字段更新
// ============================================================================

// UserPatch 部分字段更新
//
// 指针为 nil 表示该字段保持原值；非 nil 则覆盖（shallow merge）。
// PrivateNotes 作为整体替换，与其它字段一致。
type UserPatch struct {
	FullName            *string        `json:"full_name,omitempty"`
	Email               *string        `json:"email,omitempty"`
	Password            *string        `json:"password,omitempty"`
	Gender              *Gender        `json:"gender,omitempty"`
	Whatsapp            *string        `json:"whatsapp,omitempty"`
	Role                *UserRole      `json:"role,omitempty"`
	IsBlocked           *bool          `json:"is_blocked,omitempty"`
	Status              *StaffStatus   `json:"status,omitempty"`
	RegistrationDate    *string        `json:"registration_date,omitempty"`
	StartDate           *string        `json:"start_date,omitempty"`
	EndDate             *string        `json:"end_date,omitempty"`
	PreferredTimeSlotID *string        `json:"preferred_time_slot_id,omitempty"`
	AssignedTimeSlotID  *string        `json:"assigned_time_slot_id,omitempty"`
	Agreement           *bool          `json:"agreement,omitempty"`
	Religion            *string        `json:"religion,omitempty"`
	Division            *string        `json:"division,omitempty"`
	Education           *string        `json:"education,omitempty"`
	PhoneNumber         *string        `json:"phone_number,omitempty"`
	RelationshipStatus  *string        `json:"relationship_status,omitempty"`
	DeviceSelection     *string        `json:"device_selection,omitempty"`
	BirthOrder          *string        `json:"birth_order,omitempty"`
	IsRegularStudent    *bool          `json:"is_regular_student,omitempty"`
	UsesImo             *string        `json:"uses_imo,omitempty"`
	PhoneBrand          *string        `json:"phone_brand,omitempty"`
	PhoneSpecs          *string        `json:"phone_specs,omitempty"`
	PreviousSites       *string        `json:"previous_sites,omitempty"`
	AvailableHours      *string        `json:"available_hours,omitempty"`
	FbLink              *string        `json:"fb_link,omitempty"`
	DisplayName         *string        `json:"display_name,omitempty"`
	PrivateNotes        *[]PrivateNote `json:"private_notes,omitempty"`
}

// Apply 将补丁合并到用户记录上，nil 字段保持原值
func (p *UserPatch) Apply(u *User) {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.Whatsapp != nil {
		u.Whatsapp = *p.Whatsapp
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsBlocked != nil {
		u.IsBlocked = *p.IsBlocked
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.RegistrationDate != nil {
		u.RegistrationDate = *p.RegistrationDate
	}
	if p.StartDate != nil {
		u.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		u.EndDate = *p.EndDate
	}
	if p.PreferredTimeSlotID != nil {
		u.PreferredTimeSlotID = *p.PreferredTimeSlotID
	}
	if p.AssignedTimeSlotID != nil {
		u.AssignedTimeSlotID = *p.AssignedTimeSlotID
	}
	if p.Agreement != nil {
		u.Agreement = *p.Agreement
	}
	if p.Religion != nil {
		u.Religion = *p.Religion
	}
	if p.Division != nil {
		u.Division = *p.Division
	}
	if p.Education != nil {
		u.Education = *p.Education
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.RelationshipStatus != nil {
		u.RelationshipStatus = *p.RelationshipStatus
	}
	if p.DeviceSelection != nil {
		u.DeviceSelection = *p.DeviceSelection
	}
	if p.BirthOrder != nil {
		u.BirthOrder = *p.BirthOrder
	}
	if p.IsRegularStudent != nil {
		u.IsRegularStudent = *p.IsRegularStudent
	}
	if p.UsesImo != nil {
		u.UsesImo = *p.UsesImo
	}
	if p.PhoneBrand != nil {
		u.PhoneBrand = *p.PhoneBrand
	}
	if p.PhoneSpecs != nil {
		u.PhoneSpecs = *p.PhoneSpecs
	}
	if p.PreviousSites != nil {
		u.PreviousSites = *p.PreviousSites
	}
	if p.AvailableHours != nil {
		u.AvailableHours = *p.AvailableHours
	}
	if p.FbLink != nil {
		u.FbLink = *p.FbLink
	}
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.PrivateNotes != nil {
		u.PrivateNotes = *p.PrivateNotes
	}
}

// ============================================================================
// View - 角色准入规则
// ============================================================================

// View 用户被准入的面板视图
type View string

const (
	// ViewAdmin 管理员面板
	ViewAdmin View = "admin"

	// ViewStaff 员工面板（仅 APPROVED 且未被停用）
	ViewStaff View = "staff"

	// ViewStaffPending 审核中占位页，无数据访问
	ViewStaffPending View = "staff_pending"

	// ViewStaffRejected 已拒绝占位页，无数据访问
	ViewStaffRejected View = "staff_rejected"

	// ViewSubscriber 学员面板
	ViewSubscriber View = "subscriber"

	// ViewDenied 拒绝登录 / 会话终止
	ViewDenied View = "denied"
)

// AdmittedView 根据 (role, status, isBlocked) 计算准入视图
//
// STAFF 必须 status == APPROVED 且未被停用才能进入员工面板；
// PENDING / REJECTED 只能看到对应占位页。blocked 一票否决。
func AdmittedView(u *User) View {
	if u == nil || u.IsBlocked {
		return ViewDenied
	}
	switch u.Role {
	case UserRoleAdmin:
		return ViewAdmin
	case UserRoleStaff:
		switch u.Status {
		case StaffStatusApproved:
			return ViewStaff
		case StaffStatusRejected:
			return ViewStaffRejected
		default:
			// 未设置状态的员工记录按待审批处理
			return ViewStaffPending
		}
	case UserRoleSubscriber:
		return ViewSubscriber
	default:
		return ViewDenied
	}
}

// ============================================================================
// Bootstrap Admin - 初始管理员
// ============================================================================

// BootstrapAdmin 返回初始管理员记录
//
// 首次读取用户集合且无任何数据时惰性写入，保证系统总有一个可登录的
// 管理员。身份字段为固定约定值，不可配置。
func BootstrapAdmin() User {
	return User{
		ID:               "admin-1",
		FullName:         "System Administrator",
		Email:            "admin@tss.com",
		Password:         "admin",
		Gender:           GenderOther,
		Whatsapp:         "+123456789",
		Role:             UserRoleAdmin,
		IsBlocked:        false,
		RegistrationDate: time.Now().UTC().Format(time.RFC3339),
	}
}
