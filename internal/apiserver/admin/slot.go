package admin

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"

	"tss-admin/internal/apiserver/auth"
	"tss-admin/internal/shared/model"
	"tss-admin/internal/shared/storage"
	"tss-admin/internal/shared/storage/repository"
)

// ============================================================================
// 时间段管理
// ============================================================================

// ListSlots 列出全部时间段
func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	if auth.RequireAdmin(w, r) == nil {
		return
	}

	slots, err := h.store.ListSlots(r.Context())
	if err != nil {
		log.Printf("[admin.slots] ListSlots error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list slots")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"slots": slots,
		"total": len(slots),
	})
}

type createSlotRequest struct {
	Label     string          `json:"label"`
	StartTime string          `json:"start_time"`
	EndTime   string          `json:"end_time"`
	Shift     model.SlotShift `json:"shift"`
	TeacherID string          `json:"teacher_id"`
	IsActive  *bool           `json:"is_active"`
}

// CreateSlot 创建时间段
//
// 起止时间按 "HH:MM" 字典序比较，start 必须早于 end。
func (h *Handler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	if auth.RequireAdmin(w, r) == nil {
		return
	}

	var req createSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Label == "" || req.StartTime == "" || req.EndTime == "" {
		writeError(w, http.StatusBadRequest, "label, start_time, end_time are required")
		return
	}

	slot := model.TimeSlot{
		ID:        "slot-" + uuid.NewString(),
		Label:     req.Label,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Shift:     req.Shift,
		TeacherID: req.TeacherID,
		IsActive:  true,
	}
	if req.IsActive != nil {
		slot.IsActive = *req.IsActive
	}

	if err := h.store.AddSlot(r.Context(), slot); err != nil {
		if errors.Is(err, storage.ErrInvalidSlotTimes) {
			writeError(w, http.StatusBadRequest, "start_time must be earlier than end_time")
			return
		}
		log.Printf("[admin.slots] AddSlot error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create slot")
		return
	}

	log.Printf("[admin] slot created: %s (%s)", slot.Label, slot.ID)
	writeJSON(w, http.StatusCreated, slot)
}

// UpdateSlot 部分更新时间段
//
// 先合并后校验：补丁与原记录合并出的结果必须仍满足 start < end，
// 只改一端也逃不过检查。
func (h *Handler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	if auth.RequireAdmin(w, r) == nil {
		return
	}

	var patch model.SlotPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := r.PathValue("id")
	ok, err := h.store.UpdateSlot(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidSlotTimes) {
			writeError(w, http.StatusBadRequest, "start_time must be earlier than end_time")
			return
		}
		log.Printf("[admin.slots] UpdateSlot %s error: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to update slot")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "slot not found")
		return
	}

	slots, err := h.store.ListSlots(r.Context())
	if err != nil {
		log.Printf("[admin.slots] ListSlots error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load slot")
		return
	}
	slot := repository.FindSlot(slots, id)
	if slot == nil {
		writeError(w, http.StatusNotFound, "slot not found")
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

// DeleteSlot 删除时间段
//
// 不做级联：已指派该时段的学员保留悬空引用，课表与名册读取侧
// 兜底显示。
func (h *Handler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	if auth.RequireAdmin(w, r) == nil {
		return
	}

	id := r.PathValue("id")
	if err := h.store.DeleteSlot(r.Context(), id); err != nil {
		log.Printf("[admin.slots] DeleteSlot error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete slot")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "slot deleted"})
}
