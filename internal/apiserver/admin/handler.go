// Package admin 管理员面板 HTTP 处理器
//
// 全部路由要求 ADMIN 角色：账号审批 / 停用、资料编辑、排班指派、
// 私有备注，以及时间段管理（见 slot.go）。
package admin

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"tss-admin/internal/apiserver/auth"
	"tss-admin/internal/shared/model"
	"tss-admin/internal/shared/storage"
	"tss-admin/internal/shared/storage/repository"
)

// Handler 管理员 HTTP 处理器
type Handler struct {
	store storage.RecordStore
}

// NewHandler 创建管理员处理器
func NewHandler(store storage.RecordStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册管理员相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/admin/users", h.ListUsers)
	mux.HandleFunc("GET /api/v1/admin/users/{id}", h.GetUser)
	mux.HandleFunc("PATCH /api/v1/admin/users/{id}", h.UpdateUser)
	mux.HandleFunc("DELETE /api/v1/admin/users/{id}", h.DeleteUser)
	mux.HandleFunc("POST /api/v1/admin/users/{id}/approve", h.ApproveStaff)
	mux.HandleFunc("POST /api/v1/admin/users/{id}/reject", h.RejectStaff)
	mux.HandleFunc("POST /api/v1/admin/users/{id}/activate", h.ActivateUser)
	mux.HandleFunc("POST /api/v1/admin/users/{id}/deactivate", h.DeactivateUser)
	mux.HandleFunc("POST /api/v1/admin/users/{id}/role", h.ChangeRole)
	mux.HandleFunc("POST /api/v1/admin/users/{id}/password", h.ResetPassword)
	mux.HandleFunc("POST /api/v1/admin/users/{id}/assign-slot", h.AssignSlot)
	mux.HandleFunc("POST /api/v1/admin/users/{id}/notes", h.AddNote)

	mux.HandleFunc("GET /api/v1/admin/slots", h.ListSlots)
	mux.HandleFunc("POST /api/v1/admin/slots", h.CreateSlot)
	mux.HandleFunc("PATCH /api/v1/admin/slots/{id}", h.UpdateSlot)
	mux.HandleFunc("DELETE /api/v1/admin/slots/{id}", h.DeleteSlot)
}

// ============================================================================
// 用户管理
// ============================================================================

// ListUsers 列出用户
//
// 支持 role / status / blocked / q 过滤，q 对姓名和邮箱做大小写
// 不敏感子串匹配。响应中的记录均已去除口令。
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if auth.RequireAdmin(w, r) == nil {
		return
	}

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[admin.users] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	role := r.URL.Query().Get("role")
	status := r.URL.Query().Get("status")
	blocked := r.URL.Query().Get("blocked")
	q := strings.ToLower(r.URL.Query().Get("q"))

	result := make([]model.User, 0, len(users))
	for _, u := range users {
		if role != "" && string(u.Role) != role {
			continue
		}
		if status != "" && string(u.Status) != status {
			continue
		}
		if blocked == "true" && !u.IsBlocked {
			continue
		}
		if blocked == "false" && u.IsBlocked {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(u.FullName), q) &&
			!strings.Contains(strings.ToLower(u.Email), q) {
			continue
		}
		result = append(result, u.Redacted())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": result,
		"total": len(result),
	})
}

// GetUser 获取单个用户
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	if auth.RequireAdmin(w, r) == nil {
		return
	}

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[admin.users] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	user := repository.FindUser(users, r.PathValue("id"))
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user.Redacted())
}

// UpdateUser 部分更新用户资料
//
// 请求体即 UserPatch：缺省字段保持原值。邮箱改动不做唯一性校验
// （仅创建时校验）。
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	if auth.RequireAdmin(w, r) == nil {
		return
	}

	var patch model.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.applyUserPatch(w, r, r.PathValue("id"), patch)
}

// DeleteUser 删除用户
//
// 不做级联：用户删除后其 id 可能仍被时间段的 teacher_id 或其他
// 学员的指派引用，悬空引用在读取侧兜底显示。
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	admin := auth.RequireAdmin(w, r)
	if admin == nil {
		return
	}

	id := r.PathValue("id")
	if id == admin.ID {
		writeError(w, http.StatusForbidden, "You cannot delete your own account.")
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		log.Printf("[admin.users] DeleteUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	log.Printf("[admin] user deleted: %s (by %s)", id, admin.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// ApproveStaff 审批通过员工申请
//
// 同时清掉停用位，保证审批即生效。
func (h *Handler) ApproveStaff(w http.ResponseWriter, r *http.Request) {
	if auth.RequireAdmin(w, r) == nil {
		return
	}
	status := model.StaffStatusApproved
	blocked := false
	h.applyUserPatch(w, r, r.PathValue("id"), model.UserPatch{
		Status:    &status,
		IsBlocked: &blocked,
	})
}

// RejectStaff 拒绝员工申请
func (h *Handler) RejectStaff(w http.ResponseWriter, r *http.Request) {
	if auth.RequireAdmin(w, r) == nil {
		return
	}
	status := model.StaffStatusRejected
	h.applyUserPatch(w, r, r.PathValue("id"), model.UserPatch{Status: &status})
}

// ActivateUser 放行 / 恢复账号
func (h *Handler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	if auth.RequireAdmin(w, r) == nil {
		return
	}
	blocked := false
	h.applyUserPatch(w, r, r.PathValue("id"), model.UserPatch{IsBlocked: &blocked})
}

// DeactivateUser 停用账号
//
// 管理员不能停用自己，否则系统可能失去最后一个可登录的管理员。
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	admin := auth.RequireAdmin(w, r)
	if admin == nil {
		return
	}
	id := r.PathValue("id")
	if id == admin.ID {
		writeError(w, http.StatusForbidden, "You cannot deactivate your own account.")
		return
	}
	blocked := true
	h.applyUserPatch(w, r, id, model.UserPatch{IsBlocked: &blocked})
}

// ChangeRole 修改用户角色
//
// 管理员不能降级自己。
func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	admin := auth.RequireAdmin(w, r)
	if admin == nil {
		return
	}

	var req struct {
		Role model.UserRole `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Role {
	case model.UserRoleAdmin, model.UserRoleStaff, model.UserRoleSubscriber:
	default:
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	id := r.PathValue("id")
	if id == admin.ID && req.Role != model.UserRoleAdmin {
		writeError(w, http.StatusForbidden, "You cannot demote your own account.")
		return
	}
	h.applyUserPatch(w, r, id, model.UserPatch{Role: &req.Role})
}

// ResetPassword 管理员重置用户口令
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if auth.RequireAdmin(w, r) == nil {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}
	h.applyUserPatch(w, r, r.PathValue("id"), model.UserPatch{Password: &req.Password})
}

// AssignSlot 指派 / 清除学员的时间段
//
// slot_id 为空表示取消指派。不校验时间段存在：引用完整性由
// 读取侧兜底（悬空指派显示为 Unassigned）。
func (h *Handler) AssignSlot(w http.ResponseWriter, r *http.Request) {
	if auth.RequireAdmin(w, r) == nil {
		return
	}

	var req struct {
		SlotID string `json:"slot_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.applyUserPatch(w, r, r.PathValue("id"), model.UserPatch{AssignedTimeSlotID: &req.SlotID})
}

// AddNote 追加私有备注
//
// 备注只追加，署名取操作者的 DisplayName（缺省回退 FullName），
// 时间戳为毫秒。
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	admin := auth.RequireAdmin(w, r)
	if admin == nil {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "note text is required")
		return
	}

	id := r.PathValue("id")
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[admin.notes] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to add note")
		return
	}
	target := repository.FindUser(users, id)
	if target == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	notes := append(append([]model.PrivateNote{}, target.PrivateNotes...), model.PrivateNote{
		ID:         "note-" + uuid.NewString(),
		AuthorID:   admin.ID,
		AuthorName: admin.NoteAuthorName(),
		Text:       req.Text,
		Timestamp:  time.Now().UnixMilli(),
	})
	h.applyUserPatch(w, r, id, model.UserPatch{PrivateNotes: &notes})
}

// applyUserPatch 应用补丁并返回更新后的记录
func (h *Handler) applyUserPatch(w http.ResponseWriter, r *http.Request, id string, patch model.UserPatch) {
	ok, err := h.store.UpdateUser(r.Context(), id, patch)
	if err != nil {
		log.Printf("[admin.users] UpdateUser %s error: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[admin.users] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	user := repository.FindUser(users, id)
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user.Redacted())
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
