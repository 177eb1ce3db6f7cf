// Package staff 员工面板 HTTP 处理器
//
// 员工必须处于 APPROVED 状态才能访问：PENDING / REJECTED 只会
// 收到对应的占位提示，不暴露任何数据。
package staff

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

// Handler 员工 HTTP 处理器
type Handler struct {
	store storage.RecordStore
}

// NewHandler 创建员工处理器
func NewHandler(store storage.RecordStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册员工相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/staff/roster", h.Roster)
	mux.HandleFunc("POST /api/v1/staff/students/{id}/notes", h.AddStudentNote)
}

// requireApprovedStaff 员工准入闸门
//
// 返回 nil 时响应已写出。管理员也可通过（便于排查），
// 其余角色一律 403。
func requireApprovedStaff(w http.ResponseWriter, r *http.Request) *model.User {
	user := auth.SessionUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return nil
	}
	switch model.AdmittedView(user) {
	case model.ViewStaff, model.ViewAdmin:
		return user
	case model.ViewStaffPending:
		writeError(w, http.StatusForbidden, "Your application is under review.")
		return nil
	case model.ViewStaffRejected:
		writeError(w, http.StatusForbidden, "Your application has been rejected.")
		return nil
	default:
		writeError(w, http.StatusForbidden, "staff access required")
		return nil
	}
}

// ============================================================================
// 名册
// ============================================================================

// rosterSlot 名册条目：教师名下的一个时段及其指派学员
type rosterSlot struct {
	Slot     model.TimeSlot `json:"slot"`
	Students []model.User   `json:"students"`
}

// Roster 当前教师的名册
//
// 按 teacher_id == 当前用户筛出时段，再按学员的 assigned_time_slot_id
// 归入各时段。悬空指派（指向不存在的时段）不会出现在任何名册里。
func (h *Handler) Roster(w http.ResponseWriter, r *http.Request) {
	me := requireApprovedStaff(w, r)
	if me == nil {
		return
	}

	slots, err := h.store.ListSlots(r.Context())
	if err != nil {
		log.Printf("[staff.roster] ListSlots error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load roster")
		return
	}
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[staff.roster] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load roster")
		return
	}

	roster := make([]rosterSlot, 0)
	for _, slot := range slots {
		if slot.TeacherID != me.ID {
			continue
		}
		entry := rosterSlot{Slot: slot, Students: make([]model.User, 0)}
		for _, u := range users {
			if u.Role == model.UserRoleSubscriber && u.AssignedTimeSlotID == slot.ID {
				entry.Students = append(entry.Students, u.Redacted())
			}
		}
		roster = append(roster, entry)
	}

	// 全量学员列表，供名册外的查找使用
	students := make([]model.User, 0)
	for _, u := range users {
		if u.Role == model.UserRoleSubscriber {
			students = append(students, u.Redacted())
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roster":   roster,
		"students": students,
		"total":    len(roster),
	})
}

// ============================================================================
// 学员备注
// ============================================================================

// AddStudentNote 给学员追加私有备注
//
// 备注只追加不单删，署名取操作者的 DisplayName（缺省回退
// FullName），时间戳为毫秒。目标必须是学员。
func (h *Handler) AddStudentNote(w http.ResponseWriter, r *http.Request) {
	me := requireApprovedStaff(w, r)
	if me == nil {
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
		log.Printf("[staff.notes] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to add note")
		return
	}
	target := repository.FindUser(users, id)
	if target == nil || target.Role != model.UserRoleSubscriber {
		writeError(w, http.StatusNotFound, "student not found")
		return
	}

	notes := append(append([]model.PrivateNote{}, target.PrivateNotes...), model.PrivateNote{
		ID:         "note-" + uuid.NewString(),
		AuthorID:   me.ID,
		AuthorName: me.NoteAuthorName(),
		Text:       req.Text,
		Timestamp:  time.Now().UnixMilli(),
	})
	ok, err := h.store.UpdateUser(r.Context(), id, model.UserPatch{PrivateNotes: &notes})
	if err != nil {
		log.Printf("[staff.notes] UpdateUser %s error: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to add note")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "student not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "note added",
		"notes":   notes,
	})
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
