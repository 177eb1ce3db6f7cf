// Package subscriber 学员面板 HTTP 处理器
package subscriber

import (
	"encoding/json"
	"log"
	"net/http"

	"tss-admin/internal/apiserver/auth"
	"tss-admin/internal/shared/model"
	"tss-admin/internal/shared/storage"
	"tss-admin/internal/shared/storage/repository"
)

// Handler 学员 HTTP 处理器
type Handler struct {
	store storage.RecordStore
}

// NewHandler 创建学员处理器
func NewHandler(store storage.RecordStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册学员相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/subscriber/schedule", h.Schedule)
}

// scheduleResponse 学员课表
//
// AssignedSlot 为 nil 表示未指派（含悬空引用）；TeacherName 在
// 时段未配教师或教师已删除时兜底为 "Unassigned"；PreferredLabel
// 同理兜底为 "Not specified"。
type scheduleResponse struct {
	AssignedSlot   *model.TimeSlot `json:"assigned_slot"`
	TeacherName    string          `json:"teacher_name"`
	PreferredLabel string          `json:"preferred_label"`
	StartDate      string          `json:"start_date,omitempty"`
	EndDate        string          `json:"end_date,omitempty"`
}

// Schedule 当前学员的课表
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	me := auth.SessionUser(r.Context())
	if me == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if me.Role != model.UserRoleSubscriber {
		writeError(w, http.StatusForbidden, "subscriber access required")
		return
	}

	slots, err := h.store.ListSlots(r.Context())
	if err != nil {
		log.Printf("[subscriber.schedule] ListSlots error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		log.Printf("[subscriber.schedule] ListUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}

	resp := scheduleResponse{
		TeacherName:    "Unassigned",
		PreferredLabel: "Not specified",
		StartDate:      me.StartDate,
		EndDate:        me.EndDate,
	}

	// 悬空指派（时段已删除）与未指派同样显示
	if me.AssignedTimeSlotID != "" {
		if slot := repository.FindSlot(slots, me.AssignedTimeSlotID); slot != nil {
			resp.AssignedSlot = slot
			if slot.TeacherID != "" {
				if teacher := repository.FindUser(users, slot.TeacherID); teacher != nil {
					resp.TeacherName = teacher.FullName
				}
			}
		}
	}
	if me.PreferredTimeSlotID != "" {
		if slot := repository.FindSlot(slots, me.PreferredTimeSlotID); slot != nil {
			resp.PreferredLabel = slot.Label
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
